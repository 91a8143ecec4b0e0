package utils

import (
	"strings"
	"testing"
)

func TestPlainText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain passthrough", "hello there", "hello there"},
		{"tags flattened", "<p>hello</p><p>there</p>", "hello there"},
		{"nested markup", "<div><strong>bold</strong> and <em>italic</em></div>", "bold and italic"},
		{"malformed markup survives", "<p>unclosed <b>bold", "unclosed bold"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := strings.Join(strings.Fields(PlainText(tt.in)), " ")
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPreview(t *testing.T) {
	if got := Preview("<p>short note</p>", 40); got != "short note" {
		t.Errorf("short content passes through, got %q", got)
	}

	long := strings.Repeat("word ", 30)
	got := Preview(long, 40)
	if !strings.HasSuffix(got, "...") {
		t.Errorf("long content must be marked trimmed, got %q", got)
	}
	if len(got) > 43 {
		t.Errorf("preview too long: %d", len(got))
	}
	if strings.Contains(got, "  ") {
		t.Errorf("whitespace must be normalized, got %q", got)
	}

	unbroken := strings.Repeat("x", 50)
	if got := Preview(unbroken, 40); got != unbroken[:40]+"..." {
		t.Errorf("unbreakable content cut hard, got %q", got)
	}
}
