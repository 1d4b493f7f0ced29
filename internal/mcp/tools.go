package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"grokmcp/internal/model"
	"grokmcp/internal/protocol"
)

var toolOrder = []string{
	protocol.ToolNameAnalyzeTransaction,
	protocol.ToolNameAnalyzeAddress,
	protocol.ToolNameAnalyzeImage,
	protocol.ToolNameAskGrok,
}

type toolHandler func(context.Context, map[string]interface{}) (toolCallResult, *rpcError)

type toolDefinition struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
	handler     toolHandler            `json:"-"`
}

type toolsCallParams struct {
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments,omitempty"`
}

type toolCallResult struct {
	Content           []toolContentItem `json:"content"`
	StructuredContent interface{}       `json:"structuredContent,omitempty"`
	IsError           bool              `json:"isError,omitempty"`
}

type toolContentItem struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

func (s *Server) buildToolRegistry() map[string]toolDefinition {
	return map[string]toolDefinition{
		protocol.ToolNameAnalyzeTransaction: {
			Name:        protocol.ToolNameAnalyzeTransaction,
			Description: "Analyze a Solana transaction by signature, with optional screenshot and extra details.",
			InputSchema: transactionInputSchema(),
			handler:     s.handleAnalyzeTransactionTool,
		},
		protocol.ToolNameAnalyzeAddress: {
			Name:        protocol.ToolNameAnalyzeAddress,
			Description: "Analyze a Solana address, with an optional screenshot of its activity.",
			InputSchema: addressInputSchema(),
			handler:     s.handleAnalyzeAddressTool,
		},
		protocol.ToolNameAnalyzeImage: {
			Name:        protocol.ToolNameAnalyzeImage,
			Description: "Answer a question about an image supplied as base64 data or a URL.",
			InputSchema: imageInputSchema(),
			handler:     s.handleAnalyzeImageTool,
		},
		protocol.ToolNameAskGrok: {
			Name:        protocol.ToolNameAskGrok,
			Description: "Ask Grok a free-form question, with optional context text and image.",
			InputSchema: askInputSchema(),
			handler:     s.handleAskGrokTool,
		},
	}
}

func transactionInputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"signature": map[string]interface{}{
				"type":        "string",
				"description": "Base58 transaction signature to analyze.",
			},
			"screenshot": map[string]interface{}{
				"type":        "string",
				"description": "Optional base64-encoded screenshot of the transaction.",
			},
			"details": map[string]interface{}{
				"type":        "string",
				"description": "Optional JSON object string with extra transaction fields.",
			},
		},
		"required": []string{"signature"},
	}
}

func addressInputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"address": map[string]interface{}{
				"type":        "string",
				"description": "Base58 account address to analyze.",
			},
			"screenshot": map[string]interface{}{
				"type":        "string",
				"description": "Optional base64-encoded screenshot of the address activity.",
			},
		},
		"required": []string{"address"},
	}
}

func imageInputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"prompt": map[string]interface{}{
				"type":        "string",
				"description": "Question or instruction about the image.",
			},
			"image": map[string]interface{}{
				"type":        "string",
				"description": "Base64-encoded image data; preferred over image_url when both are set.",
			},
			"image_url": map[string]interface{}{
				"type":        "string",
				"description": "URL of the image to analyze.",
			},
		},
		"required": []string{"prompt"},
	}
}

func askInputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"question": map[string]interface{}{
				"type":        "string",
				"description": "Question to ask.",
			},
			"context": map[string]interface{}{
				"type":        "string",
				"description": "Optional context text prepended to the question.",
			},
			"image": map[string]interface{}{
				"type":        "string",
				"description": "Base64-encoded image data; preferred over image_url when both are set.",
			},
			"image_url": map[string]interface{}{
				"type":        "string",
				"description": "URL of an image relevant to the question.",
			},
		},
		"required": []string{"question"},
	}
}

func (s *Server) handleToolsList(w http.ResponseWriter, id interface{}) {
	tools := make([]toolDefinition, 0, len(s.tools))
	for _, name := range toolOrder {
		if tool, ok := s.tools[name]; ok {
			tools = append(tools, tool)
		}
	}
	writeResult(w, http.StatusOK, id, map[string]interface{}{
		"tools": tools,
	})
}

func (s *Server) handleToolsCall(ctx context.Context, w http.ResponseWriter, rawParams json.RawMessage, id interface{}) {
	result, statusCode, rpcErr := s.processToolsCall(ctx, rawParams)
	if rpcErr != nil {
		writeError(w, statusCode, id, rpcErr)
		return
	}
	writeResult(w, statusCode, id, result)
}

func (s *Server) processToolsCall(ctx context.Context, rawParams json.RawMessage) (toolCallResult, int, *rpcError) {
	params, err := parseToolsCallParams(rawParams)
	if err != nil {
		canonicalCode := protocol.ErrorCodeInvalidField
		var vErr validationError
		if errors.As(err, &vErr) && vErr.canonicalCode != "" {
			canonicalCode = vErr.canonicalCode
		}
		return toolCallResult{}, http.StatusBadRequest, &rpcError{
			Code:    rpcCodeInvalidRequest,
			Message: err.Error(),
			Data: &rpcErrorData{
				Code:      canonicalCode,
				Retryable: false,
			},
		}
	}

	tool, ok := s.tools[params.Name]
	if !ok {
		return toolCallResult{}, http.StatusOK, &rpcError{
			Code:    rpcCodeMethodNotFound,
			Message: fmt.Sprintf("Unknown tool: %s", params.Name),
		}
	}

	result, rpcErr := tool.handler(ctx, params.Arguments)
	if rpcErr != nil {
		return toolCallResult{}, http.StatusOK, rpcErr
	}
	return result, http.StatusOK, nil
}

func parseToolsCallParams(raw json.RawMessage) (toolsCallParams, error) {
	if len(raw) == 0 {
		return toolsCallParams{}, validationError{
			message:       "params is required",
			canonicalCode: protocol.ErrorCodeMissingField,
		}
	}

	var params toolsCallParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return toolsCallParams{}, validationError{
			message:       "invalid tools/call params",
			canonicalCode: protocol.ErrorCodeInvalidField,
		}
	}

	params.Name = strings.TrimSpace(params.Name)
	if params.Name == "" {
		return toolsCallParams{}, validationError{
			message:       "tools/call params.name is required",
			canonicalCode: protocol.ErrorCodeMissingField,
		}
	}
	if params.Arguments == nil {
		params.Arguments = map[string]interface{}{}
	}
	return params, nil
}

func (s *Server) handleAnalyzeTransactionTool(ctx context.Context, args map[string]interface{}) (toolCallResult, *rpcError) {
	signature, rpcErr := requiredString(args, "signature")
	if rpcErr != nil {
		return toolCallResult{}, rpcErr
	}

	parsed := transactionArgs{
		Signature:  signature,
		Screenshot: optionalString(args, "screenshot"),
		Details:    optionalString(args, "details"),
	}
	if parsed.Details != "" {
		if _, err := renderDetailLines(parsed.Details); err != nil {
			s.logf("analyze_transaction: ignoring malformed details: %v", err)
		}
	}

	messages := buildTransactionMessages(parsed)
	return s.callUpstream(ctx, upstreamCall{
		Tool:     protocol.ToolNameAnalyzeTransaction,
		Verb:     "analyzing transaction",
		Model:    s.cfg.VisionModel,
		Messages: messages,
	}), nil
}

func (s *Server) handleAnalyzeAddressTool(ctx context.Context, args map[string]interface{}) (toolCallResult, *rpcError) {
	address, rpcErr := requiredString(args, "address")
	if rpcErr != nil {
		return toolCallResult{}, rpcErr
	}

	messages := buildAddressMessages(addressArgs{
		Address:    address,
		Screenshot: optionalString(args, "screenshot"),
	})
	return s.callUpstream(ctx, upstreamCall{
		Tool:     protocol.ToolNameAnalyzeAddress,
		Verb:     "analyzing address",
		Model:    s.cfg.VisionModel,
		Messages: messages,
	}), nil
}

func (s *Server) handleAnalyzeImageTool(ctx context.Context, args map[string]interface{}) (toolCallResult, *rpcError) {
	prompt, rpcErr := requiredString(args, "prompt")
	if rpcErr != nil {
		return toolCallResult{}, rpcErr
	}

	messages := buildImageMessages(imageArgs{
		Prompt:   prompt,
		Image:    optionalString(args, "image"),
		ImageURL: optionalString(args, "image_url"),
	})
	return s.callUpstream(ctx, upstreamCall{
		Tool:     protocol.ToolNameAnalyzeImage,
		Verb:     "analyzing image",
		Model:    s.cfg.VisionModel,
		Messages: messages,
	}), nil
}

func (s *Server) handleAskGrokTool(ctx context.Context, args map[string]interface{}) (toolCallResult, *rpcError) {
	question, rpcErr := requiredString(args, "question")
	if rpcErr != nil {
		return toolCallResult{}, rpcErr
	}

	parsed := askArgs{
		Question: question,
		Context:  optionalString(args, "context"),
		Image:    optionalString(args, "image"),
		ImageURL: optionalString(args, "image_url"),
	}

	// the text-only model handles plain questions; any image input switches
	// to the vision model.
	modelName := s.cfg.TextModel
	if parsed.Image != "" || parsed.ImageURL != "" {
		modelName = s.cfg.VisionModel
	}

	messages := buildAskMessages(parsed)
	return s.callUpstream(ctx, upstreamCall{
		Tool:     protocol.ToolNameAskGrok,
		Verb:     "processing question",
		Model:    modelName,
		Messages: messages,
	}), nil
}

type upstreamCall struct {
	Tool     string
	Verb     string
	Model    string
	Messages []model.ChatMessage
}

func (s *Server) callUpstream(ctx context.Context, call upstreamCall) toolCallResult {
	start := time.Now()
	reply, err := s.completer.Complete(ctx, model.ChatRequest{
		Model:       call.Model,
		Messages:    call.Messages,
		Temperature: model.DefaultTemperature,
	})
	s.recordCall(ctx, call, time.Since(start), err)

	if err != nil {
		return errorResult(call.Verb, err)
	}
	return toolCallResult{
		Content: []toolContentItem{
			{Type: "text", Text: reply},
		},
	}
}

func (s *Server) recordCall(ctx context.Context, call upstreamCall, elapsed time.Duration, callErr error) {
	if s.callLog == nil {
		return
	}
	rec := model.CallRecord{
		TSUnix:     time.Now().Unix(),
		Tool:       call.Tool,
		Model:      call.Model,
		DurationMS: elapsed.Milliseconds(),
		IsError:    callErr != nil,
	}
	if callErr != nil {
		rec.Error = callErr.Error()
	}
	if err := s.callLog.Record(ctx, rec); err != nil {
		s.logf("call log: record %s: %v", call.Tool, err)
	}
}

// errorResult converts an upstream or build failure into an isError tool
// result. Transport-wise these are successful responses; only protocol faults
// use JSON-RPC errors.
func errorResult(verb string, err error) toolCallResult {
	message := err.Error()
	var providerErr *model.ProviderError
	if errors.As(err, &providerErr) && strings.TrimSpace(providerErr.Message) != "" {
		message = providerErr.Message
	}
	return toolCallResult{
		IsError: true,
		Content: []toolContentItem{
			{Type: "text", Text: fmt.Sprintf("Error %s: %s", verb, message)},
		},
	}
}

func requiredString(args map[string]interface{}, key string) (string, *rpcError) {
	raw, ok := args[key]
	if !ok {
		return "", invalidParams(fmt.Sprintf("%s is required", key), protocol.ErrorCodeMissingField)
	}
	value, ok := raw.(string)
	if !ok {
		return "", invalidParams(fmt.Sprintf("%s must be a string", key), protocol.ErrorCodeInvalidField)
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return "", invalidParams(fmt.Sprintf("%s must be a non-empty string", key), protocol.ErrorCodeMissingField)
	}
	return value, nil
}

// optionalString treats any non-string value as absent rather than rejecting
// the call.
func optionalString(args map[string]interface{}, key string) string {
	raw, ok := args[key]
	if !ok {
		return ""
	}
	value, ok := raw.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(value)
}

func invalidParams(message, canonicalCode string) *rpcError {
	return &rpcError{
		Code:    rpcCodeInvalidParams,
		Message: message,
		Data: &rpcErrorData{
			Code:      canonicalCode,
			Retryable: false,
		},
	}
}
