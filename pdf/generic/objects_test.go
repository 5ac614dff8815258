package generic

import (
	"bytes"
	"testing"
)

func writeToString(t *testing.T, obj Object) string {
	t.Helper()
	var buf bytes.Buffer
	if err := obj.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo failed: %v", err)
	}
	return buf.String()
}

func TestScalarWrite(t *testing.T) {
	tests := []struct {
		name string
		obj  Object
		want string
	}{
		{"null", Null{}, "null"},
		{"true", Boolean(true), "true"},
		{"false", Boolean(false), "false"},
		{"integer", Integer(42), "42"},
		{"negative integer", Integer(-7), "-7"},
		{"name", Name("Type"), "/Type"},
		{"name with space", Name("A B"), "/A#20B"},
		{"ref", Ref{Number: 3, Generation: 0}, "3 0 R"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := writeToString(t, tt.obj)
			if got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestStringWrite(t *testing.T) {
	lit := NewLiteralString("a(b)c\\")
	got := writeToString(t, lit)
	if got != `(a\(b\)c\\)` {
		t.Errorf("unexpected literal string encoding: %q", got)
	}

	hexStr := NewHexString([]byte{0xde, 0xad})
	got = writeToString(t, hexStr)
	if got != "<dead>" && got != "<DEAD>" {
		t.Errorf("unexpected hex string encoding: %q", got)
	}
}

func TestTextString(t *testing.T) {
	s := NewTextString("héllo")
	if s.Text() != "héllo" {
		t.Errorf("Expected text round trip, got %q", s.Text())
	}
}

func TestDictOrder(t *testing.T) {
	d := NewDict()
	d.Set("B", Integer(2))
	d.Set("A", Integer(1))
	d.Set("B", Integer(3))

	keys := d.Keys()
	if len(keys) != 2 || keys[0] != "B" || keys[1] != "A" {
		t.Errorf("Expected insertion order [B A], got %v", keys)
	}

	if v, _ := d.GetInt("B"); v != 3 {
		t.Errorf("Expected updated value 3, got %d", v)
	}

	d.Delete("B")
	if d.Has("B") {
		t.Error("deleted key should be gone")
	}
}

func TestStreamWriteSetsLength(t *testing.T) {
	s := NewStream(NewDict(), []byte("hello"))
	out := writeToString(t, s)

	if !bytes.Contains([]byte(out), []byte("/Length 5")) {
		t.Errorf("stream output missing /Length: %q", out)
	}
	if !bytes.Contains([]byte(out), []byte("stream")) || !bytes.Contains([]byte(out), []byte("endstream")) {
		t.Errorf("stream output missing keywords: %q", out)
	}
}

func TestClone(t *testing.T) {
	d := NewDict()
	inner := NewDict()
	inner.Set("X", Integer(1))
	d.Set("Inner", inner)
	d.Set("Arr", Array{Integer(1), Name("N")})

	copied, ok := Clone(d).(*Dict)
	if !ok {
		t.Fatal("Clone did not return a dict")
	}

	inner.Set("X", Integer(99))
	copiedInner := copied.GetDict("Inner")
	if copiedInner == nil {
		t.Fatal("clone lost inner dict")
	}
	if v, _ := copiedInner.GetInt("X"); v != 1 {
		t.Errorf("clone should be independent, got X=%d", v)
	}
}
