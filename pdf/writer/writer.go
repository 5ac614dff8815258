package writer

import (
	"bytes"
	"fmt"

	"github.com/pdfseal/pdfseal/pdf/generic"
)

// Builder assembles a fresh PDF document from scratch. It writes a classic
// xref table and a single revision; incremental changes to the result go
// through IncrementalWriter.
type Builder struct {
	objects []*generic.Indirect
	nextNum int
	pages   []generic.Ref
}

// NewBuilder creates an empty document builder.
func NewBuilder() *Builder {
	return &Builder{nextNum: 1}
}

// AddObject registers an object and returns its reference.
func (b *Builder) AddObject(obj generic.Object) generic.Ref {
	ref := generic.Ref{Number: b.nextNum}
	b.nextNum++
	b.objects = append(b.objects, &generic.Indirect{Ref: ref, Object: obj})
	return ref
}

// AddPage adds a page with the given size and content stream.
func (b *Builder) AddPage(width, height float64, content []byte) generic.Ref {
	contentRef := b.AddObject(generic.NewStream(nil, content))

	page := generic.NewDict()
	page.Set("Type", generic.Name("Page"))
	page.Set("MediaBox", generic.Array{
		generic.Integer(0), generic.Integer(0),
		generic.Real(width), generic.Real(height),
	})
	page.Set("Contents", contentRef)
	page.Set("Resources", generic.NewDict())
	pageRef := b.AddObject(page)
	b.pages = append(b.pages, pageRef)
	return pageRef
}

// Bytes renders the document.
func (b *Builder) Bytes() ([]byte, error) {
	// Page tree and catalog are emitted last; pages get their /Parent
	// patched now that the tree's number is known.
	pagesRef := generic.Ref{Number: b.nextNum}
	kids := make(generic.Array, len(b.pages))
	for i, ref := range b.pages {
		kids[i] = ref
	}
	for _, ind := range b.objects {
		if page, ok := ind.Object.(*generic.Dict); ok && page.GetName("Type") == "Page" {
			page.Set("Parent", pagesRef)
		}
	}

	pages := generic.NewDict()
	pages.Set("Type", generic.Name("Pages"))
	pages.Set("Kids", kids)
	pages.Set("Count", generic.Integer(len(b.pages)))
	b.AddObject(pages)

	catalog := generic.NewDict()
	catalog.Set("Type", generic.Name("Catalog"))
	catalog.Set("Pages", pagesRef)
	catalogRef := b.AddObject(catalog)

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n")

	offsets := make([]int64, len(b.objects))
	for i, ind := range b.objects {
		offsets[i] = int64(buf.Len())
		if err := ind.WriteTo(&buf); err != nil {
			return nil, fmt.Errorf("failed to write object %d: %w", ind.Ref.Number, err)
		}
	}

	xrefOffset := int64(buf.Len())
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(b.objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}

	trailer := generic.NewDict()
	trailer.Set("Size", generic.Integer(len(b.objects)+1))
	trailer.Set("Root", catalogRef)

	buf.WriteString("trailer\n")
	if err := trailer.WriteTo(&buf); err != nil {
		return nil, err
	}
	fmt.Fprintf(&buf, "\nstartxref\n%d\n%%%%EOF\n", xrefOffset)

	return buf.Bytes(), nil
}
