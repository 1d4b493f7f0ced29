package mcp

import (
	"strings"
	"testing"

	"grokmcp/internal/model"
)

func TestBuildTransactionMessages_RequiredOnly(t *testing.T) {
	messages := buildTransactionMessages(transactionArgs{Signature: "5abc"})
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	if messages[0].Role != model.RoleSystem || messages[0].Text != transactionSystemPrompt {
		t.Fatalf("unexpected system message: %+v", messages[0])
	}

	user := messages[1]
	if user.Role != model.RoleUser {
		t.Fatalf("expected user role, got %q", user.Role)
	}
	if len(user.Parts) != 1 {
		t.Fatalf("expected exactly one part, got %d", len(user.Parts))
	}
	part := user.Parts[0]
	if part.Type != model.ContentTypeText {
		t.Fatalf("expected text part, got %q", part.Type)
	}
	if !strings.Contains(part.Text, "signature: 5abc") {
		t.Fatalf("prompt missing signature: %q", part.Text)
	}
	if part.ImageURL != nil {
		t.Fatalf("text part should carry no image: %+v", part)
	}
}

func TestBuildTransactionMessages_DetailsRendering(t *testing.T) {
	messages := buildTransactionMessages(transactionArgs{
		Signature: "5abc",
		Details:   `{"amount":"1.5","signature":"x","slot":12345}`,
	})
	text := messages[1].Parts[0].Text
	if !strings.Contains(text, "- amount: 1.5") {
		t.Fatalf("expected amount line, got %q", text)
	}
	if !strings.Contains(text, "- slot: 12345") {
		t.Fatalf("expected slot line, got %q", text)
	}
	if strings.Contains(text, "- signature") {
		t.Fatalf("signature must not be duplicated into details: %q", text)
	}
	if strings.Index(text, "- amount") > strings.Index(text, "- slot") {
		t.Fatalf("details lines out of source order: %q", text)
	}
}

func TestBuildTransactionMessages_MalformedDetailsIgnored(t *testing.T) {
	messages := buildTransactionMessages(transactionArgs{
		Signature: "5abc",
		Details:   "not json",
	})
	text := messages[1].Parts[0].Text
	if strings.Contains(text, "Transaction details") {
		t.Fatalf("malformed details should be dropped, got %q", text)
	}
}

func TestBuildTransactionMessages_ScreenshotAfterText(t *testing.T) {
	messages := buildTransactionMessages(transactionArgs{
		Signature:  "5abc",
		Screenshot: "aGVsbG8=",
	})
	parts := messages[1].Parts
	if len(parts) != 2 {
		t.Fatalf("expected 2 parts, got %d", len(parts))
	}
	if parts[0].Type != model.ContentTypeText {
		t.Fatalf("text part must come first, got %q", parts[0].Type)
	}
	if parts[1].Type != model.ContentTypeImage {
		t.Fatalf("expected image part second, got %q", parts[1].Type)
	}
	if parts[1].ImageURL.URL != "data:image/jpeg;base64,aGVsbG8=" {
		t.Fatalf("unexpected image url: %q", parts[1].ImageURL.URL)
	}
	if parts[1].ImageURL.Detail != "high" {
		t.Fatalf("expected high detail hint, got %q", parts[1].ImageURL.Detail)
	}
}

func TestBuildAddressMessages(t *testing.T) {
	messages := buildAddressMessages(addressArgs{Address: "7xKXtg"})
	if messages[0].Text != addressSystemPrompt {
		t.Fatalf("unexpected system prompt: %q", messages[0].Text)
	}
	parts := messages[1].Parts
	if len(parts) != 1 || !strings.Contains(parts[0].Text, "7xKXtg") {
		t.Fatalf("unexpected user parts: %+v", parts)
	}
}

func TestBuildImageMessages_ImageBeforePrompt(t *testing.T) {
	messages := buildImageMessages(imageArgs{
		Prompt:   "what is this?",
		ImageURL: "https://example.com/chart.png",
	})
	parts := messages[1].Parts
	if len(parts) != 2 {
		t.Fatalf("expected 2 parts, got %d", len(parts))
	}
	if parts[0].Type != model.ContentTypeImage {
		t.Fatalf("image part must come first, got %q", parts[0].Type)
	}
	if parts[0].ImageURL.URL != "https://example.com/chart.png" {
		t.Fatalf("unexpected image url: %q", parts[0].ImageURL.URL)
	}
	if parts[1].Text != "what is this?" {
		t.Fatalf("unexpected prompt text: %q", parts[1].Text)
	}
}

func TestBuildImageMessages_Base64PreferredOverURL(t *testing.T) {
	messages := buildImageMessages(imageArgs{
		Prompt:   "describe",
		Image:    "Zm9v",
		ImageURL: "https://example.com/ignored.png",
	})
	url := messages[1].Parts[0].ImageURL.URL
	if url != "data:image/jpeg;base64,Zm9v" {
		t.Fatalf("base64 image should win over url, got %q", url)
	}
}

func TestBuildAskMessages_ContextBlock(t *testing.T) {
	messages := buildAskMessages(askArgs{
		Question: "why did it fail?",
		Context:  "tx reverted at slot 5",
	})
	text := messages[1].Parts[0].Text
	want := "Context: tx reverted at slot 5\n\nQuestion: why did it fail?"
	if text != want {
		t.Fatalf("unexpected ask text:\n got %q\nwant %q", text, want)
	}
}

func TestBuildAskMessages_NoContextNoImage(t *testing.T) {
	messages := buildAskMessages(askArgs{Question: "what is a lamport?"})
	parts := messages[1].Parts
	if len(parts) != 1 {
		t.Fatalf("expected one text part, got %d", len(parts))
	}
	if parts[0].Text != "what is a lamport?" {
		t.Fatalf("unexpected text: %q", parts[0].Text)
	}
}

func TestRenderDetailLines(t *testing.T) {
	tests := []struct {
		name    string
		details string
		want    []string
		wantErr bool
	}{
		{"empty", "", nil, false},
		{"flat object", `{"a":"1","b":2}`, []string{"- a: 1", "- b: 2"}, false},
		{"nested value compacted", `{"meta": {"slot": 1 }}`, []string{`- meta: {"slot":1}`}, false},
		{"signature dropped", `{"signature":"x","fee":"5000"}`, []string{"- fee: 5000"}, false},
		{"array top level", `[1,2]`, nil, true},
		{"garbage", "not json", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := renderDetailLines(tt.details)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("lines = %#v, want %#v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("line %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}
