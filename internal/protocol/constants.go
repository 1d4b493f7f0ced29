package protocol

const (
	ToolNameAnalyzeTransaction = "analyze_transaction"
	ToolNameAnalyzeAddress     = "analyze_address"
	ToolNameAnalyzeImage       = "analyze_image"
	ToolNameAskGrok            = "ask_grok"
)

const (
	ErrorCodeUnauthorized    = "UNAUTHORIZED"
	ErrorCodeSessionNotFound = "SESSION_NOT_FOUND"
	ErrorCodeRateLimited     = "RATE_LIMITED"
	ErrorCodeMissingField    = "MISSING_FIELD"
	ErrorCodeInvalidField    = "INVALID_FIELD"
)

const (
	DefaultListenAddr = "127.0.0.1:8089"
	DefaultMCPPath    = "/mcp"

	MCPSessionHeader = "MCP-Session-Id"
)
