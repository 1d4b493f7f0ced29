package mcp

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"grokmcp/internal/model"
)

const (
	transactionSystemPrompt = "You are an expert Solana blockchain analyst. Analyze the provided transaction and explain what happened in clear, concise terms. Focus on the program interactions, token transfers, and the overall purpose of the transaction."
	addressSystemPrompt     = "You are an expert Solana blockchain analyst. Analyze the provided address and describe what kind of account it is, its activity patterns, and anything notable about it."
	imageSystemPrompt       = "You are a helpful assistant with vision capabilities. Analyze the provided image and answer the user's question about it accurately and concisely."
	askSystemPrompt         = "You are Grok, a helpful AI assistant with deep knowledge of blockchain technology and the Solana ecosystem. Answer the user's question clearly and accurately. If an image is provided, take it into account in your answer."
)

// imageDataURL renders base64 image bytes for the chat API. The media type is
// always image/jpeg; the upstream accepts mismatched encodings and sniffing
// the real format buys nothing.
func imageDataURL(base64Data string) string {
	return "data:image/jpeg;base64," + base64Data
}

type transactionArgs struct {
	Signature  string
	Screenshot string
	Details    string
}

type addressArgs struct {
	Address    string
	Screenshot string
}

type imageArgs struct {
	Prompt   string
	Image    string
	ImageURL string
}

type askArgs struct {
	Question string
	Context  string
	Image    string
	ImageURL string
}

func buildTransactionMessages(args transactionArgs) []model.ChatMessage {
	text := "Analyze this Solana transaction with signature: " + args.Signature

	lines, err := renderDetailLines(args.Details)
	if err == nil && len(lines) > 0 {
		text += "\n\nTransaction details:\n" + strings.Join(lines, "\n")
	}

	parts := []model.ContentPart{model.TextPart(text)}
	if args.Screenshot != "" {
		parts = append(parts, model.ImagePart(imageDataURL(args.Screenshot)))
	}

	return []model.ChatMessage{
		model.SystemMessage(transactionSystemPrompt),
		model.UserMessage(parts...),
	}
}

func buildAddressMessages(args addressArgs) []model.ChatMessage {
	text := "Analyze this Solana address: " + args.Address

	parts := []model.ContentPart{model.TextPart(text)}
	if args.Screenshot != "" {
		parts = append(parts, model.ImagePart(imageDataURL(args.Screenshot)))
	}

	return []model.ChatMessage{
		model.SystemMessage(addressSystemPrompt),
		model.UserMessage(parts...),
	}
}

func buildImageMessages(args imageArgs) []model.ChatMessage {
	parts := make([]model.ContentPart, 0, 2)
	if url := pickImageURL(args.Image, args.ImageURL); url != "" {
		parts = append(parts, model.ImagePart(url))
	}
	parts = append(parts, model.TextPart(args.Prompt))

	return []model.ChatMessage{
		model.SystemMessage(imageSystemPrompt),
		model.UserMessage(parts...),
	}
}

func buildAskMessages(args askArgs) []model.ChatMessage {
	text := args.Question
	if strings.TrimSpace(args.Context) != "" {
		text = "Context: " + args.Context + "\n\nQuestion: " + args.Question
	}

	parts := make([]model.ContentPart, 0, 2)
	if url := pickImageURL(args.Image, args.ImageURL); url != "" {
		parts = append(parts, model.ImagePart(url))
	}
	parts = append(parts, model.TextPart(text))

	return []model.ChatMessage{
		model.SystemMessage(askSystemPrompt),
		model.UserMessage(parts...),
	}
}

// pickImageURL prefers inline base64 data over a remote URL when both are set.
func pickImageURL(base64Data, remoteURL string) string {
	if base64Data != "" {
		return imageDataURL(base64Data)
	}
	return strings.TrimSpace(remoteURL)
}

// renderDetailLines parses a JSON object string into "- key: value" lines in
// the object's own key order. A key literally named "signature" is dropped
// since the signature already appears in the prompt text. Non-object or
// malformed input returns an error; the caller decides whether that matters.
func renderDetailLines(details string) ([]string, error) {
	details = strings.TrimSpace(details)
	if details == "" {
		return nil, nil
	}

	dec := json.NewDecoder(strings.NewReader(details))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("parse details: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, errors.New("details must be a JSON object")
	}

	var lines []string
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("parse details key: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, errors.New("details key is not a string")
		}

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("parse details value for %q: %w", key, err)
		}
		if key == "signature" {
			continue
		}
		lines = append(lines, "- "+key+": "+renderDetailValue(value))
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("parse details: %w", err)
	}
	return lines, nil
}

func renderDetailValue(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}
