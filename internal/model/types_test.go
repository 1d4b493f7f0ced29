package model

import (
	"encoding/json"
	"testing"
)

func TestChatMessage_MarshalPlainString(t *testing.T) {
	raw, err := json.Marshal(SystemMessage("be helpful"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["role"] != "system" {
		t.Fatalf("unexpected role: %v", decoded["role"])
	}
	if decoded["content"] != "be helpful" {
		t.Fatalf("expected string content, got %#v", decoded["content"])
	}
}

func TestChatMessage_MarshalPartSequence(t *testing.T) {
	msg := UserMessage(TextPart("hello"), ImagePart("data:image/jpeg;base64,AAAA"))
	raw, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	parts, ok := decoded["content"].([]any)
	if !ok {
		t.Fatalf("expected content array, got %#v", decoded["content"])
	}
	if len(parts) != 2 {
		t.Fatalf("expected 2 parts, got %d", len(parts))
	}
	text, ok := parts[0].(map[string]any)
	if !ok || text["type"] != "text" || text["text"] != "hello" {
		t.Fatalf("unexpected text part: %#v", parts[0])
	}
	if _, present := text["image_url"]; present {
		t.Fatalf("text part must not carry image_url: %#v", text)
	}
	image, ok := parts[1].(map[string]any)
	if !ok || image["type"] != "image_url" {
		t.Fatalf("unexpected image part: %#v", parts[1])
	}
	ref, ok := image["image_url"].(map[string]any)
	if !ok {
		t.Fatalf("expected image_url object, got %#v", image["image_url"])
	}
	if ref["url"] != "data:image/jpeg;base64,AAAA" {
		t.Fatalf("unexpected url: %v", ref["url"])
	}
	if ref["detail"] != "high" {
		t.Fatalf("expected high detail hint, got %v", ref["detail"])
	}
}

func TestUserMessage_EmptySequenceStaysSequence(t *testing.T) {
	raw, err := json.Marshal(UserMessage())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := decoded["content"].([]any); !ok {
		t.Fatalf("expected array content, got %#v", decoded["content"])
	}
}
