package server

import (
	"strings"
	"testing"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// ---------------------------------------------------------------------------
// LSP text extraction helpers
// ---------------------------------------------------------------------------

func TestExtractPrefix(t *testing.T) {
	tests := []struct {
		text string
		pos  protocol.Position
		want string
	}{
		{"1 + tr", protocol.Position{Line: 0, Character: 6}, "tr"},
		{"ni", protocol.Position{Line: 0, Character: 2}, "ni"},
		{"", protocol.Position{Line: 0, Character: 0}, ""},
		{"1 +\n(fal", protocol.Position{Line: 1, Character: 4}, "fal"},
		{"1 + ", protocol.Position{Line: 0, Character: 4}, ""},
		{"x", protocol.Position{Line: 5, Character: 0}, ""},
		{"true", protocol.Position{Line: 0, Character: 99}, "true"},
	}

	for _, tc := range tests {
		if got := extractPrefix(tc.text, tc.pos); got != tc.want {
			t.Errorf("extractPrefix(%q, %v) = %q, want %q", tc.text, tc.pos, got, tc.want)
		}
	}
}

func TestPositionAt(t *testing.T) {
	text := "1 +\n  foo"
	tests := []struct {
		offset    int
		line, col protocol.UInteger
	}{
		{0, 0, 0},
		{2, 0, 2},
		{4, 1, 0},
		{6, 1, 2},
		{100, 1, 5},
	}

	for _, tc := range tests {
		got := positionAt(text, tc.offset)
		if got.Line != tc.line || got.Character != tc.col {
			t.Errorf("positionAt(%d) = %d:%d, want %d:%d", tc.offset, got.Line, got.Character, tc.line, tc.col)
		}
	}
}

func TestPositionAtCountsUTF16(t *testing.T) {
	tests := []struct {
		text   string
		offset int
		col    protocol.UInteger
	}{
		// é is two bytes, one unit
		{`"é" + x`, 4, 3},
		// 😀 is four bytes, two units
		{`"😀" + x`, 6, 4},
		// counted from the start of its line
		{"ab\n\"😀\"", 9, 4},
	}

	for _, tc := range tests {
		if got := positionAt(tc.text, tc.offset); got.Character != tc.col {
			t.Errorf("positionAt(%q, %d).Character = %d, want %d", tc.text, tc.offset, got.Character, tc.col)
		}
	}
}

func TestDiagnosticRange(t *testing.T) {
	// error token after a non-ASCII string
	text := `"héllo" + )`
	got := diagnosticsFor(text)
	if len(got) != 1 {
		t.Fatalf("diagnosticsFor(%q) = %d diagnostics, want 1", text, len(got))
	}
	r := got[0].Range
	if r.Start.Line != 0 || r.Start.Character != 10 || r.End.Character != 11 {
		t.Errorf("Range = %+v, want line 0 chars 10-11", r)
	}

	// a multi-line token is cut off at the end of its first line
	text = "1 \"a\nb\""
	got = diagnosticsFor(text)
	if len(got) != 1 {
		t.Fatalf("diagnosticsFor(%q) = %d diagnostics, want 1", text, len(got))
	}
	r = got[0].Range
	if r.Start.Line != 0 || r.End.Line != 0 || r.Start.Character != 2 || r.End.Character != 4 {
		t.Errorf("Range = %+v, want line 0 chars 2-4", r)
	}
}

// ---------------------------------------------------------------------------
// Diagnostics, completion and hover
// ---------------------------------------------------------------------------

func TestDiagnosticsFor(t *testing.T) {
	if got := diagnosticsFor("1 + 2"); got == nil || len(got) != 0 {
		t.Errorf("diagnosticsFor(valid) = %v, want empty non-nil slice", got)
	}

	got := diagnosticsFor("1 +\n  foo")
	if len(got) != 1 {
		t.Fatalf("diagnosticsFor = %d diagnostics, want 1", len(got))
	}
	d := got[0]
	if d.Message != "Expected prefix expression" {
		t.Errorf("Message = %q", d.Message)
	}
	if d.Range.Start.Line != 1 || d.Range.Start.Character != 2 || d.Range.End.Character != 5 {
		t.Errorf("Range = %+v, want line 1 chars 2-5", d.Range)
	}
	if d.Severity == nil || *d.Severity != protocol.DiagnosticSeverityError {
		t.Error("Severity should be Error")
	}
}

func TestCompletions(t *testing.T) {
	items := completions("t")
	if len(items) != 1 || items[0].Label != "true" {
		t.Errorf("completions(t) = %v, want [true]", items)
	}
	if items := completions(""); len(items) != 3 {
		t.Errorf("completions(\"\") = %d items, want 3", len(items))
	}
	if items := completions("nil"); len(items) != 0 {
		t.Errorf("completions(nil) = %v, want none for a complete keyword", items)
	}
}

func TestHover(t *testing.T) {
	rt := newServiceRuntime()

	h := hover(rt, "(1 + 2) * 3")
	if h == nil {
		t.Fatal("hover returned nil for a valid expression")
	}
	content := h.Contents.(protocol.MarkupContent)
	if !strings.Contains(content.Value, "`9`") || !strings.Contains(content.Value, "number") {
		t.Errorf("hover = %q, want value and kind", content.Value)
	}

	h = hover(rt, "1 +\n\"a\"")
	if h == nil {
		t.Fatal("hover returned nil for a runtime error")
	}
	if got := h.Contents.(protocol.MarkupContent).Value; !strings.Contains(got, "line 2") {
		t.Errorf("hover = %q, want runtime error on line 2", got)
	}

	if h := hover(rt, "(1"); h != nil {
		t.Errorf("hover on compile error = %v, want nil", h)
	}
}
