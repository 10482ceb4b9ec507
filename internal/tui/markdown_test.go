package tui

import (
	"strings"
	"testing"
)

func TestRenderGlamour_Description(t *testing.T) {
	md := "Connect with `nc chall.example.com 1337`.\n\n- **Hint:** look at the stack\n"
	result := renderGlamour(md, 60)
	if result == "" {
		t.Fatal("expected non-empty output")
	}
	plain := stripANSI(result)
	if strings.Contains(plain, "**") {
		t.Error("expected ** markers to be rendered as bold")
	}
	for _, want := range []string{"nc chall.example.com 1337", "Hint:", "look at the stack"} {
		if !strings.Contains(plain, want) {
			t.Errorf("expected %q in output, got: %s", want, plain)
		}
	}
}

func TestRenderGlamour_EmptyInput(t *testing.T) {
	if result := renderGlamour("", 60); result != "" {
		t.Errorf("expected empty output for empty input, got: %q", result)
	}
	if result := renderGlamour("   \n  \n  ", 60); result != "" {
		t.Errorf("expected empty output for whitespace input, got: %q", result)
	}
}

func TestRenderGlamour_ZeroWidth(t *testing.T) {
	if result := renderGlamour("flag format: `flag{...}`", 0); result != "" {
		t.Errorf("expected empty output for zero width, got: %q", result)
	}
}

func TestStripANSI(t *testing.T) {
	input := "\x1b[1mbold\x1b[0m normal \x1b[38;5;228mcolored\x1b[0m"
	if got := stripANSI(input); got != "bold normal colored" {
		t.Errorf("stripANSI = %q", got)
	}
}
