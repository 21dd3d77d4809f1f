package preview

import (
	"strings"
	"testing"
)

func TestHTMLRemovesScripts(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		banned string
		keeps  string
	}{
		{"script tag", `<p>Hi</p><script>alert(1)</script>`, "<script", "<p>Hi</p>"},
		{"event handler", `<img src="https://x.test/a.png" onerror="alert(1)">`, "onerror", `src="https://x.test/a.png"`},
		{"javascript url", `<a href="javascript:alert(1)">x</a>`, "javascript:", "x"},
		{"iframe", `<iframe src="https://evil.test"></iframe><b>ok</b>`, "<iframe", "<b>ok</b>"},
		{"table layout", `<table width="600" cellpadding="4"><tr><td align="center">c</td></tr></table>`, "<script", `align="center"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HTML(tt.in)
			if strings.Contains(got, tt.banned) {
				t.Errorf("HTML(%q) = %q, contains %q", tt.in, got, tt.banned)
			}
			if !strings.Contains(got, tt.keeps) {
				t.Errorf("HTML(%q) = %q, want to contain %q", tt.in, got, tt.keeps)
			}
		})
	}
}

func TestDocumentPrefersHTML(t *testing.T) {
	doc := Document("<h1>Title</h1>", "plain body")
	if !strings.Contains(doc, "<h1>Title</h1>") {
		t.Errorf("Document() = %q, want HTML body", doc)
	}
	if strings.Contains(doc, "plain body") {
		t.Error("Document() rendered text body alongside HTML")
	}
}

func TestDocumentTextVerbatim(t *testing.T) {
	doc := Document("  ", "Hello <friend>\nline two")
	if !strings.Contains(doc, "Hello &lt;friend&gt;\nline two") {
		t.Errorf("Document() = %q, want escaped verbatim text", doc)
	}
}

func TestStripHTML(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"inline tags", "<p>Hello <b>world</b></p>", "Hello world"},
		{"block breaks", "<h1>Welcome</h1><p>First</p><p>Second<br>line</p>", "Welcome\nFirst\nSecond\nline"},
		{"blank runs collapse", "<p>A</p>\n\n\n<p>B</p>", "A\n\nB"},
		{"entities", "<p>Fish &amp; chips &lt;3</p>", "Fish & chips <3"},
		{"script dropped", "<script>alert(1)</script><p>ok</p>", "ok"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripHTML(tt.in); got != tt.want {
				t.Errorf("StripHTML() = %q, want %q", got, tt.want)
			}
		})
	}
}
