package errors

import (
	"bytes"
	"strings"
	"testing"

	"github.com/tangzhangming/pcode/internal/token"
)

func span(line, col, length int) token.Span {
	start := token.Position{Filename: "a.pc", Line: line, Column: col}
	end := start
	end.Column += length
	return token.Span{Start: start, End: end}
}

func TestNewUsesCodeKindAndTemplate(t *testing.T) {
	err := New(T0100, span(1, 1, 2), "Integer", "String")
	if err.Kind != KindTypeMismatch {
		t.Errorf("kind = %s, want TypeMismatch", err.Kind)
	}
	if err.Message != "type mismatch: cannot assign Integer to String" {
		t.Errorf("message = %q", err.Message)
	}
	if err.Level != LevelError {
		t.Errorf("level = %s, want error", err.Level)
	}
	if KindOf("nope") != KindGeneral {
		t.Errorf("unknown code should map to General")
	}
}

func TestFormatterUnderline(t *testing.T) {
	f := NewFormatter()
	f.Colors = false

	err := New(T0400, span(2, 3, 4), "Fooo")
	out := f.Format(err, []string{"Local string &a;", "  Fooo();"})

	for _, want := range []string{"error[T0400]: unknown type 'Fooo'", "--> a.pc:2:3", "2 |   Fooo();", "     ^^^^"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestReporterSortsByPosition(t *testing.T) {
	r := NewReporter()
	r.SetFormatter(&Formatter{TabWidth: 4})

	r.Report(New(T0400, span(5, 1, 1), "B"))
	r.Report(New(T0400, span(2, 1, 1), "A"))
	r.Report(New(T0501, span(3, 1, 1), "X", "y").AsWarning())

	if r.ErrorCount() != 2 || r.WarningCount() != 1 {
		t.Fatalf("counts = %d/%d", r.ErrorCount(), r.WarningCount())
	}

	var buf bytes.Buffer
	if err := r.Render(&buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	a, x, b := strings.Index(out, "'A'"), strings.Index(out, "member 'y'"), strings.Index(out, "'B'")
	if !(a >= 0 && a < x && x < b) {
		t.Errorf("diagnostics not in position order:\n%s", out)
	}
	if !strings.Contains(out, "2 error(s), 1 warning(s)") {
		t.Errorf("missing summary:\n%s", out)
	}

	r.Clear()
	if r.HasErrors() {
		t.Error("Clear should drop collected errors")
	}
}

func TestDidYouMean(t *testing.T) {
	tests := []struct {
		name       string
		candidates []string
		want       string
	}{
		{"GetRowst", []string{"GetRowset", "GetRecord"}, "did you mean 'GetRowset'?"},
		{"Value", []string{"value"}, ""},
		{"Zzz", []string{"GetRowset"}, ""},
	}
	for _, tt := range tests {
		if got := DidYouMean(tt.name, tt.candidates); got != tt.want {
			t.Errorf("DidYouMean(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}
