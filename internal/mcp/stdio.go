package mcp

import (
	"context"
	"io"

	"github.com/sourcegraph/jsonrpc2"
)

type stdioStream struct {
	in  io.ReadCloser
	out io.WriteCloser
}

func (s stdioStream) Read(p []byte) (int, error)  { return s.in.Read(p) }
func (s stdioStream) Write(p []byte) (int, error) { return s.out.Write(p) }

func (s stdioStream) Close() error {
	if err := s.in.Close(); err != nil {
		_ = s.out.Close()
		return err
	}
	return s.out.Close()
}

// ServeStdio runs the MCP protocol over newline-delimited JSON on the given
// pipe pair, one message per line. Sessions do not apply on stdio; the
// transport itself is the session.
func (s *Server) ServeStdio(ctx context.Context, in io.ReadCloser, out io.WriteCloser) error {
	stream := jsonrpc2.NewBufferedStream(stdioStream{in: in, out: out}, jsonrpc2.PlainObjectCodec{})
	conn := jsonrpc2.NewConn(ctx, stream, jsonrpc2.HandlerWithError(s.handleStdioRequest))
	defer conn.Close()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-conn.DisconnectNotify():
		return nil
	}
}

func (s *Server) handleStdioRequest(ctx context.Context, _ *jsonrpc2.Conn, req *jsonrpc2.Request) (interface{}, error) {
	switch req.Method {
	case "initialize":
		return map[string]interface{}{
			"protocolVersion": s.cfg.ProtocolVersion,
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    serverName,
				"version": serverVersion,
			},
		}, nil
	case "notifications/initialized":
		return nil, nil
	case "ping":
		return map[string]interface{}{}, nil
	case "tools/list":
		tools := make([]toolDefinition, 0, len(s.tools))
		for _, name := range toolOrder {
			if tool, ok := s.tools[name]; ok {
				tools = append(tools, tool)
			}
		}
		return map[string]interface{}{"tools": tools}, nil
	case "tools/call":
		var rawParams []byte
		if req.Params != nil {
			rawParams = *req.Params
		}
		result, _, rpcErr := s.processToolsCall(ctx, rawParams)
		if rpcErr != nil {
			return nil, toJSONRPC2Error(rpcErr)
		}
		return result, nil
	default:
		return nil, &jsonrpc2.Error{
			Code:    rpcCodeMethodNotFound,
			Message: "method not found: " + req.Method,
		}
	}
}

func toJSONRPC2Error(rpcErr *rpcError) *jsonrpc2.Error {
	out := &jsonrpc2.Error{
		Code:    int64(rpcErr.Code),
		Message: rpcErr.Message,
	}
	if rpcErr.Data != nil {
		out.SetError(rpcErr.Data)
	}
	return out
}
