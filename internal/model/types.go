package model

import "encoding/json"

const (
	RoleSystem = "system"
	RoleUser   = "user"
)

const (
	ContentTypeText  = "text"
	ContentTypeImage = "image_url"
)

// DefaultTemperature is sent on every chat request; the upstream contract
// fixes it rather than exposing it per tool.
const DefaultTemperature = 0.7

// ImageRef carries the image URL (https or data URL) plus the fidelity hint.
type ImageRef struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

// ContentPart is the tagged union of user-content variants: exactly one of
// Text or ImageURL is populated depending on Type.
type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageRef `json:"image_url,omitempty"`
}

func TextPart(text string) ContentPart {
	return ContentPart{Type: ContentTypeText, Text: text}
}

// ImagePart builds an image content part with the fixed "high" detail hint.
func ImagePart(url string) ContentPart {
	return ContentPart{Type: ContentTypeImage, ImageURL: &ImageRef{URL: url, Detail: "high"}}
}

// ChatMessage is one entry in the outbound message list. Content is either a
// plain string (Text) or an ordered part sequence (Parts); Parts wins when
// both are set so builders can always produce sequences for user messages.
type ChatMessage struct {
	Role  string
	Text  string
	Parts []ContentPart
}

type wireMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

func (m ChatMessage) MarshalJSON() ([]byte, error) {
	if m.Parts != nil {
		return json.Marshal(wireMessage{Role: m.Role, Content: m.Parts})
	}
	return json.Marshal(wireMessage{Role: m.Role, Content: m.Text})
}

func SystemMessage(text string) ChatMessage {
	return ChatMessage{Role: RoleSystem, Text: text}
}

func UserMessage(parts ...ContentPart) ChatMessage {
	if parts == nil {
		parts = []ContentPart{}
	}
	return ChatMessage{Role: RoleUser, Parts: parts}
}

// ChatRequest is the upstream chat-completions body. Constructed fresh per
// tool call and never reused.
type ChatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

// CallRecord is one row of the optional tool-call journal.
type CallRecord struct {
	TSUnix     int64
	Tool       string
	Model      string
	DurationMS int64
	IsError    bool
	Error      string
}
