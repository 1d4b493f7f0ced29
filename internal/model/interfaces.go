package model

import "context"

// ChatCompleter performs one chat-completion round trip and returns the
// first choice's message text.
type ChatCompleter interface {
	Complete(ctx context.Context, req ChatRequest) (string, error)
}

// CallRecorder persists tool-call telemetry. Implementations must tolerate
// concurrent calls; failures are logged by callers, never surfaced to tools.
type CallRecorder interface {
	Record(ctx context.Context, rec CallRecord) error
	Close() error
}
