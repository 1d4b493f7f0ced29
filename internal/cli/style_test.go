package cli

import (
	"bytes"
	"strings"
	"testing"
)

func TestStylesDisabledForNonTTY(t *testing.T) {
	st := newStyles(&bytes.Buffer{})
	if st.enabled {
		t.Fatal("styles must be disabled for non-file writers")
	}
	if st.banner() != "grokmcp" {
		t.Fatalf("banner = %q", st.banner())
	}
	if got := st.dim("plain"); got != "plain" {
		t.Fatalf("dim = %q", got)
	}
	if got := st.warnPrefix(); got != "WARNING:" {
		t.Fatalf("warnPrefix = %q", got)
	}
	if got := st.errLine("boom"); got != "boom" {
		t.Fatalf("errLine = %q", got)
	}
}

func TestKVAlignment(t *testing.T) {
	st := newStyles(&bytes.Buffer{})
	line := st.kv("Endpoint", "http://127.0.0.1:8089/mcp")
	if !strings.HasPrefix(line, "  Endpoint:") {
		t.Fatalf("kv = %q", line)
	}
	if !strings.HasSuffix(line, "http://127.0.0.1:8089/mcp") {
		t.Fatalf("kv = %q", line)
	}
}
