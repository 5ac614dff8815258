package writer

import (
	"bytes"
	"errors"
	"testing"

	"github.com/pdfseal/pdfseal/pdf/generic"
	"github.com/pdfseal/pdfseal/pdf/reader"
)

func buildDoc(t *testing.T) []byte {
	t.Helper()
	b := NewBuilder()
	b.AddPage(612, 792, []byte("BT /F1 12 Tf 72 720 Td (Hi) Tj ET"))
	data, err := b.Bytes()
	if err != nil {
		t.Fatalf("Builder.Bytes failed: %v", err)
	}
	return data
}

func TestBuilderOutputParses(t *testing.T) {
	data := buildDoc(t)

	if !bytes.HasPrefix(data, []byte("%PDF-1.7\n")) {
		t.Error("missing header")
	}
	if !bytes.HasSuffix(data, []byte("%%EOF\n")) {
		t.Error("missing EOF marker")
	}

	doc, err := reader.Load(data)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if _, _, err := doc.FirstPage(); err != nil {
		t.Errorf("FirstPage failed: %v", err)
	}
}

func TestIncrementalNoChanges(t *testing.T) {
	doc, err := reader.Load(buildDoc(t))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	w := NewIncremental(doc)
	if _, err := w.Bytes(); !errors.Is(err, ErrNoChanges) {
		t.Errorf("Expected ErrNoChanges, got %v", err)
	}
}

func TestIncrementalAddObject(t *testing.T) {
	original := buildDoc(t)
	doc, err := reader.Load(original)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	w := NewIncremental(doc)
	extra := generic.NewDict()
	extra.Set("Type", generic.Name("Test"))
	extra.Set("Value", generic.Integer(7))
	ref := w.AddObject(extra)
	w.SetTrailerEntry("TestEntry", ref)

	out, err := w.Bytes()
	if err != nil {
		t.Fatalf("Bytes failed: %v", err)
	}

	if !bytes.HasPrefix(out, original) {
		t.Error("incremental update must preserve the original bytes as a prefix")
	}

	updated, err := reader.Load(out)
	if err != nil {
		t.Fatalf("Load of updated document failed: %v", err)
	}

	entryRef, ok := updated.Trailer.GetRef("TestEntry")
	if !ok {
		t.Fatal("trailer missing TestEntry")
	}
	if entryRef != ref {
		t.Errorf("Expected %v, got %v", ref, entryRef)
	}

	obj, err := updated.GetObject(ref.Number)
	if err != nil {
		t.Fatalf("GetObject failed: %v", err)
	}
	d, ok := obj.(*generic.Dict)
	if !ok {
		t.Fatalf("Expected dict, got %T", obj)
	}
	if v, _ := d.GetInt("Value"); v != 7 {
		t.Errorf("Expected Value 7, got %d", v)
	}

	// Root must carry over from the original revision.
	if _, err := updated.Root(); err != nil {
		t.Errorf("Root failed after update: %v", err)
	}
}

func TestIncrementalUpdateObject(t *testing.T) {
	original := buildDoc(t)
	doc, err := reader.Load(original)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	pageRef, pageDict, err := doc.FirstPage()
	if err != nil {
		t.Fatalf("FirstPage failed: %v", err)
	}

	newPage, _ := generic.Clone(pageDict).(*generic.Dict)
	newPage.Set("Rotate", generic.Integer(90))

	w := NewIncremental(doc)
	w.UpdateObject(pageRef, newPage)

	out, err := w.Bytes()
	if err != nil {
		t.Fatalf("Bytes failed: %v", err)
	}

	updated, err := reader.Load(out)
	if err != nil {
		t.Fatalf("Load of updated document failed: %v", err)
	}

	_, page, err := updated.FirstPage()
	if err != nil {
		t.Fatalf("FirstPage failed: %v", err)
	}
	if v, _ := page.GetInt("Rotate"); v != 90 {
		t.Errorf("Expected updated page with Rotate 90, got %d", v)
	}
}

func TestIncrementalChainsRevisions(t *testing.T) {
	doc, err := reader.Load(buildDoc(t))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	w := NewIncremental(doc)
	w.AddObject(generic.Integer(1))
	out, err := w.Bytes()
	if err != nil {
		t.Fatalf("Bytes failed: %v", err)
	}

	updated, err := reader.Load(out)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(updated.Trailers) != 2 {
		t.Errorf("Expected 2 revisions, got %d", len(updated.Trailers))
	}
	if _, ok := updated.Trailer.GetInt("Prev"); !ok {
		t.Error("update trailer missing /Prev")
	}
}

func TestNextObjectNumber(t *testing.T) {
	doc, err := reader.Load(buildDoc(t))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	w := NewIncremental(doc)
	next := w.NextObjectNumber()
	if next != doc.MaxObjectNumber()+1 {
		t.Errorf("Expected %d, got %d", doc.MaxObjectNumber()+1, next)
	}

	ref := w.AddObject(generic.Null{})
	if ref.Number != next {
		t.Errorf("Expected assigned number %d, got %d", next, ref.Number)
	}
}
