package reader_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/pdfseal/pdfseal/pdf/generic"
	"github.com/pdfseal/pdfseal/pdf/reader"
	"github.com/pdfseal/pdfseal/pdf/writer"
)

func buildFixture(t *testing.T, pages int) []byte {
	t.Helper()
	b := writer.NewBuilder()
	for i := 0; i < pages; i++ {
		b.AddPage(612, 792, []byte("BT /F1 12 Tf 72 720 Td (Hello) Tj ET"))
	}
	data, err := b.Bytes()
	if err != nil {
		t.Fatalf("Builder.Bytes failed: %v", err)
	}
	return data
}

func TestLoadRejectsGarbage(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"not a pdf", []byte("hello world")},
		{"header only", []byte("%PDF-1.7\n")},
		{"no xref", []byte("%PDF-1.7\nsome content\n%%EOF\n")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := reader.Load(tt.data); err == nil {
				t.Error("Expected error")
			}
		})
	}
}

func TestLoadFixture(t *testing.T) {
	data := buildFixture(t, 2)

	doc, err := reader.Load(data)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if doc.Version != "1.7" {
		t.Errorf("Expected version 1.7, got %q", doc.Version)
	}
	if doc.Len() != int64(len(data)) {
		t.Errorf("Expected length %d, got %d", len(data), doc.Len())
	}
	if !bytes.Equal(doc.Data(), data) {
		t.Error("Data should return the original bytes")
	}

	root, err := doc.Root()
	if err != nil {
		t.Fatalf("Root failed: %v", err)
	}
	if root.GetName("Type") != "Catalog" {
		t.Errorf("Expected catalog, got %q", root.GetName("Type"))
	}
}

func TestFirstPage(t *testing.T) {
	data := buildFixture(t, 3)

	doc, err := reader.Load(data)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	ref, page, err := doc.FirstPage()
	if err != nil {
		t.Fatalf("FirstPage failed: %v", err)
	}
	if ref.Number == 0 {
		t.Error("page reference should be set")
	}
	if page.GetName("Type") != "Page" {
		t.Errorf("Expected page dict, got %q", page.GetName("Type"))
	}
	if !page.Has("Contents") {
		t.Error("page should have contents")
	}
}

func TestGetObjectAndResolve(t *testing.T) {
	data := buildFixture(t, 1)

	doc, err := reader.Load(data)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	root, _ := doc.Root()
	pagesRef, ok := root.GetRef("Pages")
	if !ok {
		t.Fatal("catalog missing /Pages reference")
	}

	pagesObj, err := doc.GetObject(pagesRef.Number)
	if err != nil {
		t.Fatalf("GetObject failed: %v", err)
	}
	pages, ok := pagesObj.(*generic.Dict)
	if !ok {
		t.Fatalf("Expected dict, got %T", pagesObj)
	}
	if count, _ := pages.GetInt("Count"); count != 1 {
		t.Errorf("Expected 1 page, got %d", count)
	}

	resolved, err := doc.ResolveDict(pagesRef)
	if err != nil {
		t.Fatalf("ResolveDict failed: %v", err)
	}
	if resolved.GetName("Type") != "Pages" {
		t.Errorf("Expected pages node, got %q", resolved.GetName("Type"))
	}
}

func TestGetObjectMissing(t *testing.T) {
	data := buildFixture(t, 1)

	doc, err := reader.Load(data)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if _, err := doc.GetObject(9999); !errors.Is(err, reader.ErrObjectNotFound) {
		t.Errorf("Expected ErrObjectNotFound, got %v", err)
	}
}

func TestMaxObjectNumber(t *testing.T) {
	data := buildFixture(t, 1)

	doc, err := reader.Load(data)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	// content + page + pages + catalog
	if max := doc.MaxObjectNumber(); max != 4 {
		t.Errorf("Expected max object number 4, got %d", max)
	}
}

func TestLastStartXRef(t *testing.T) {
	data := buildFixture(t, 1)

	doc, err := reader.Load(data)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	off, err := doc.LastStartXRef()
	if err != nil {
		t.Fatalf("LastStartXRef failed: %v", err)
	}
	if off <= 0 || off >= int64(len(data)) {
		t.Errorf("startxref offset %d out of range", off)
	}
	if !bytes.HasPrefix(data[off:], []byte("xref")) {
		t.Error("startxref does not point at an xref table")
	}
}
