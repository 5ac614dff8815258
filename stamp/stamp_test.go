package stamp

import (
	"bytes"
	"testing"
)

func TestDefaultStyle(t *testing.T) {
	style := DefaultStyle()

	if style.FontSize != 9.0 {
		t.Errorf("Expected FontSize 9.0, got %f", style.FontSize)
	}

	if style.FontName != "Helvetica" {
		t.Errorf("Expected FontName 'Helvetica', got '%s'", style.FontName)
	}

	if style.Padding != 4.0 {
		t.Errorf("Expected Padding 4.0, got %f", style.Padding)
	}

	if style.Margin != 18.0 {
		t.Errorf("Expected Margin 18.0, got %f", style.Margin)
	}
}

func TestNewWatermark(t *testing.T) {
	lines := []string{"Line 1", "Line 2", "Line 3"}
	wm := NewWatermark(lines, nil)

	if wm == nil {
		t.Fatal("NewWatermark returned nil")
	}

	if len(wm.Lines) != 3 {
		t.Errorf("Expected 3 lines, got %d", len(wm.Lines))
	}

	width, height := wm.Dimensions()
	if width <= 0 {
		t.Error("Width should be positive")
	}
	if height <= 0 {
		t.Error("Height should be positive")
	}
}

func TestWatermarkRender(t *testing.T) {
	wm := NewWatermark([]string{"Hello", "World"}, nil)

	content := wm.Render()
	if len(content) == 0 {
		t.Fatal("Render should return non-empty content")
	}

	for _, op := range []string{"BT", "ET", "Tf", "Tj", "T*", "q", "Q"} {
		if !bytes.Contains(content, []byte(op)) {
			t.Errorf("content missing %q operator", op)
		}
	}
	if !bytes.Contains(content, []byte("(Hello) Tj")) {
		t.Error("content missing first line")
	}
	if !bytes.Contains(content, []byte("(World) Tj")) {
		t.Error("content missing second line")
	}
}

func TestAppearanceStream(t *testing.T) {
	wm := NewWatermark([]string{"Signed"}, nil)
	s := wm.AppearanceStream()

	if s.Dict.GetName("Type") != "XObject" {
		t.Errorf("Expected XObject, got %q", s.Dict.GetName("Type"))
	}
	if s.Dict.GetName("Subtype") != "Form" {
		t.Errorf("Expected Form, got %q", s.Dict.GetName("Subtype"))
	}
	if len(s.Dict.GetArray("BBox")) != 4 {
		t.Error("BBox should have 4 entries")
	}

	resources := s.Dict.GetDict("Resources")
	if resources == nil {
		t.Fatal("appearance stream missing resources")
	}
	fonts := resources.GetDict("Font")
	if fonts == nil || fonts.GetDict("F1") == nil {
		t.Fatal("appearance stream missing font resource")
	}
	if fonts.GetDict("F1").GetName("BaseFont") != "Helvetica" {
		t.Errorf("Expected Helvetica, got %q", fonts.GetDict("F1").GetName("BaseFont"))
	}
}

func TestEscapeString(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"with (parens)", `with \(parens\)`},
		{`back\slash`, `back\\slash`},
		{"tab\there", `tab\there`},
		{"newline\n", `newline\n`},
		{"high byte \xe9", `high byte \351`},
	}

	for _, tt := range tests {
		if got := escapeString(tt.in); got != tt.want {
			t.Errorf("escapeString(%q): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}
