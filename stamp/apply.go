package stamp

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/pdfseal/pdfseal/pdf/generic"
	"github.com/pdfseal/pdfseal/pdf/reader"
	"github.com/pdfseal/pdfseal/pdf/writer"
)

// Common errors
var (
	ErrNoPage = errors.New("stamp: document has no page to stamp")
)

// Apply paints the watermark onto the first page of the document,
// recording the changed objects in the incremental writer. Existing page
// content is wrapped in q/Q so a dangling graphics state cannot shift
// the watermark.
func Apply(w *writer.IncrementalWriter, doc *reader.Document, wm *Watermark) error {
	pageRef, pageDict, err := doc.FirstPage()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNoPage, err)
	}

	appearanceRef := w.AddObject(wm.AppearanceStream())

	randBytes := make([]byte, 6)
	rand.Read(randBytes)
	resourceName := "Seal" + hex.EncodeToString(randBytes)

	_, pageHeight := pageSize(doc, pageDict)
	_, wmHeight := wm.Dimensions()
	x := wm.Style.Margin
	y := pageHeight - wm.Style.Margin - wmHeight

	prefix := generic.NewStream(generic.NewDict(), []byte("q\n"))
	prefixRef := w.AddObject(prefix)

	paint := fmt.Sprintf("Q\nq 1 0 0 1 %f %f cm /%s Do Q\n", x, y, resourceName)
	suffix := generic.NewStream(generic.NewDict(), []byte(paint))
	suffixRef := w.AddObject(suffix)

	newPage, ok := generic.Clone(pageDict).(*generic.Dict)
	if !ok {
		return ErrNoPage
	}

	contents, err := contentRefs(doc, pageDict)
	if err != nil {
		return err
	}
	updated := generic.Array{prefixRef}
	updated = append(updated, contents...)
	updated = append(updated, suffixRef)
	newPage.Set("Contents", updated)

	resources, err := pageResources(doc, pageDict)
	if err != nil {
		return err
	}
	xobjects := resources.GetDict("XObject")
	if xobjects == nil {
		xobjects = generic.NewDict()
		resources.Set("XObject", xobjects)
	}
	xobjects.Set(resourceName, appearanceRef)
	newPage.Set("Resources", resources)

	w.UpdateObject(pageRef, newPage)
	return nil
}

// contentRefs returns the page content stream references in order. A
// single direct stream is re-added to the writer so the updated page can
// reference it by array.
func contentRefs(doc *reader.Document, page *generic.Dict) (generic.Array, error) {
	raw := page.Get("Contents")
	switch obj := raw.(type) {
	case nil:
		return nil, nil
	case generic.Ref:
		resolved, err := doc.Resolve(obj)
		if err != nil {
			return nil, fmt.Errorf("stamp: unreadable page contents: %w", err)
		}
		if arr, ok := resolved.(generic.Array); ok {
			return arr, nil
		}
		return generic.Array{obj}, nil
	case generic.Array:
		return obj, nil
	default:
		return nil, fmt.Errorf("stamp: unexpected page contents type %T", raw)
	}
}

// pageResources returns a mutable copy of the page resource dictionary,
// resolving an indirect reference and walking the parent chain for
// inherited resources.
func pageResources(doc *reader.Document, page *generic.Dict) (*generic.Dict, error) {
	node := page
	for depth := 0; node != nil && depth < 32; depth++ {
		if node.Has("Resources") {
			resolved, err := doc.ResolveDict(node.Get("Resources"))
			if err != nil {
				return nil, fmt.Errorf("stamp: unreadable page resources: %w", err)
			}
			copied, _ := generic.Clone(resolved).(*generic.Dict)
			if copied != nil {
				return copied, nil
			}
		}
		parentRef, ok := node.GetRef("Parent")
		if !ok {
			break
		}
		parent, err := doc.ResolveDict(parentRef)
		if err != nil {
			break
		}
		node = parent
	}
	return generic.NewDict(), nil
}

// pageSize resolves the effective media box, walking the parent chain
// for inherited values. Falls back to US Letter.
func pageSize(doc *reader.Document, page *generic.Dict) (width, height float64) {
	node := page
	for depth := 0; node != nil && depth < 32; depth++ {
		if box := mediaBox(doc, node); box != nil {
			return box[2] - box[0], box[3] - box[1]
		}
		parentRef, ok := node.GetRef("Parent")
		if !ok {
			break
		}
		parent, err := doc.ResolveDict(parentRef)
		if err != nil {
			break
		}
		node = parent
	}
	return 612, 792
}

func mediaBox(doc *reader.Document, node *generic.Dict) []float64 {
	raw := node.Get("MediaBox")
	if raw == nil {
		return nil
	}
	resolved, err := doc.Resolve(raw)
	if err != nil {
		return nil
	}
	arr, ok := resolved.(generic.Array)
	if !ok || len(arr) != 4 {
		return nil
	}
	box := make([]float64, 4)
	for i, el := range arr {
		switch v := el.(type) {
		case generic.Integer:
			box[i] = float64(v)
		case generic.Real:
			box[i] = float64(v)
		default:
			return nil
		}
	}
	return box
}
