// Package writer produces PDF output: fresh single-shot documents and
// append-only incremental updates over existing files.
package writer

import (
	"bytes"
	"crypto/rand"
	"errors"
	"fmt"
	"sort"

	"github.com/pdfseal/pdfseal/pdf/generic"
	"github.com/pdfseal/pdfseal/pdf/reader"
)

// Common errors
var (
	ErrNoChanges = errors.New("no objects to write")
)

// IncrementalWriter appends an update section to an existing document.
// The original bytes are referenced, never copied into a mutable form, so
// everything before the update is guaranteed byte-identical to the input.
type IncrementalWriter struct {
	doc     *reader.Document
	objects map[int]*generic.Indirect
	nextNum int
	trailer *generic.Dict
}

// NewIncremental creates an incremental writer over a parsed document.
func NewIncremental(doc *reader.Document) *IncrementalWriter {
	return &IncrementalWriter{
		doc:     doc,
		objects: make(map[int]*generic.Indirect),
		nextNum: doc.MaxObjectNumber() + 1,
		trailer: generic.NewDict(),
	}
}

// AddObject registers a new object and returns its reference.
func (w *IncrementalWriter) AddObject(obj generic.Object) generic.Ref {
	ref := generic.Ref{Number: w.nextNum}
	w.nextNum++
	w.objects[ref.Number] = &generic.Indirect{Ref: ref, Object: obj}
	return ref
}

// UpdateObject overrides an existing object in the update section. The
// generation number of the original entry is preserved.
func (w *IncrementalWriter) UpdateObject(ref generic.Ref, obj generic.Object) {
	gen := ref.Generation
	if entry := w.doc.XRef[ref.Number]; entry != nil {
		gen = entry.Generation
	}
	w.objects[ref.Number] = &generic.Indirect{
		Ref:    generic.Ref{Number: ref.Number, Generation: gen},
		Object: obj,
	}
}

// SetTrailerEntry records an extra entry for the update's trailer.
func (w *IncrementalWriter) SetTrailerEntry(key string, value generic.Object) {
	w.trailer.Set(key, value)
}

// NextObjectNumber returns the number the next added object will receive.
func (w *IncrementalWriter) NextObjectNumber() int {
	return w.nextNum
}

// Bytes renders the original document followed by the update section.
func (w *IncrementalWriter) Bytes() ([]byte, error) {
	if len(w.objects) == 0 {
		return nil, ErrNoChanges
	}

	original := w.doc.Data()
	var buf bytes.Buffer
	buf.Grow(len(original) + 4096)
	buf.Write(original)
	if len(original) > 0 && original[len(original)-1] != '\n' {
		buf.WriteByte('\n')
	}

	nums := make([]int, 0, len(w.objects))
	for num := range w.objects {
		nums = append(nums, num)
	}
	sort.Ints(nums)

	offsets := make(map[int]int64, len(nums))
	for _, num := range nums {
		offsets[num] = int64(buf.Len())
		if err := w.objects[num].WriteTo(&buf); err != nil {
			return nil, fmt.Errorf("failed to write object %d: %w", num, err)
		}
	}

	xrefOffset := int64(buf.Len())
	w.writeXRefTable(&buf, nums, offsets)

	trailer := w.buildTrailer()
	buf.WriteString("trailer\n")
	if err := trailer.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write trailer: %w", err)
	}
	fmt.Fprintf(&buf, "\nstartxref\n%d\n%%%%EOF\n", xrefOffset)

	return buf.Bytes(), nil
}

// writeXRefTable writes a classic xref table with one subsection per run of
// consecutive object numbers.
func (w *IncrementalWriter) writeXRefTable(buf *bytes.Buffer, nums []int, offsets map[int]int64) {
	buf.WriteString("xref\n")
	for i := 0; i < len(nums); {
		j := i
		for j+1 < len(nums) && nums[j+1] == nums[j]+1 {
			j++
		}
		fmt.Fprintf(buf, "%d %d\n", nums[i], j-i+1)
		for k := i; k <= j; k++ {
			num := nums[k]
			fmt.Fprintf(buf, "%010d %05d n \n", offsets[num], w.objects[num].Ref.Generation)
		}
		i = j + 1
	}
}

func (w *IncrementalWriter) buildTrailer() *generic.Dict {
	trailer := generic.NewDict()
	trailer.Set("Size", generic.Integer(w.nextNum))
	if len(w.doc.XRefOffsets) > 0 {
		trailer.Set("Prev", generic.Integer(w.doc.XRefOffsets[0]))
	}
	if root := w.doc.Trailer.Get("Root"); root != nil {
		trailer.Set("Root", root)
	}
	if info := w.doc.Trailer.Get("Info"); info != nil {
		trailer.Set("Info", info)
	}
	trailer.Set("ID", w.documentID())

	for _, key := range w.trailer.Keys() {
		trailer.Set(key, w.trailer.Get(key))
	}
	return trailer
}

// documentID keeps the first half of the original file identifier and
// regenerates the second half, as required for updated files.
func (w *IncrementalWriter) documentID() generic.Array {
	id2 := make([]byte, 16)
	rand.Read(id2)

	var id1 []byte
	if idArr := w.doc.Trailer.GetArray("ID"); len(idArr) >= 1 {
		if s, ok := idArr[0].(*generic.String); ok {
			id1 = s.Value
		}
	}
	if id1 == nil {
		id1 = make([]byte, 16)
		rand.Read(id1)
	}

	return generic.Array{
		generic.NewHexString(id1),
		generic.NewHexString(id2),
	}
}
