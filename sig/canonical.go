package sig

import (
	"errors"
	"fmt"

	"github.com/pdfseal/pdfseal/pdf/generic"
	"github.com/pdfseal/pdfseal/pdf/reader"
)

// Common errors
var (
	ErrUnparsableDocument       = errors.New("sig: unparsable document")
	ErrCorruptSignatureLocation = errors.New("sig: corrupt signature location")
)

// Range is the canonical byte range of a document: the prefix covered
// by (or to be covered by) a signature.
type Range struct {
	Start  int64
	Length int64
}

// End returns the exclusive end offset of the range.
func (r Range) End() int64 { return r.Start + r.Length }

// Canonical determines the canonical byte range of a loaded document
// and, for signed documents, the embedded signature record.
//
// An unsigned document's canonical range is the whole file. A signed
// document's range is the prefix that existed before the signature
// update was appended, as recorded in the signature record itself.
func Canonical(doc *reader.Document) (Range, *Record, error) {
	raw := doc.Trailer.Get(TrailerKey)
	if raw == nil {
		return Range{Start: 0, Length: doc.Len()}, nil, nil
	}

	ref, ok := raw.(generic.Ref)
	if !ok {
		return Range{}, nil, fmt.Errorf("%w: trailer entry is not a reference", ErrCorruptSignatureLocation)
	}

	dict, err := doc.ResolveDict(ref)
	if err != nil {
		return Range{}, nil, fmt.Errorf("%w: %v", ErrCorruptSignatureLocation, err)
	}

	rec, err := RecordFromDict(dict)
	if err != nil {
		return Range{}, nil, fmt.Errorf("%w: %v", ErrCorruptSignatureLocation, err)
	}

	// The record lives inside the signature update, so the canonical
	// range must end at or before the update's first byte. The update
	// starts no later than the record object and the newest xref section.
	bound := doc.Len()
	if len(doc.XRefOffsets) > 0 && doc.XRefOffsets[0] < bound {
		bound = doc.XRefOffsets[0]
	}
	if entry := doc.XRef[ref.Number]; entry != nil && !entry.InObjStream && entry.Offset < bound {
		bound = entry.Offset
	}
	if rec.ContentLength > bound {
		return Range{}, nil, fmt.Errorf("%w: content length %d reaches into the signature update at %d",
			ErrCorruptSignatureLocation, rec.ContentLength, bound)
	}

	return Range{Start: 0, Length: rec.ContentLength}, rec, nil
}

// CanonicalBytes loads a document and returns its canonical bytes along
// with the embedded record, if any.
func CanonicalBytes(data []byte) ([]byte, *Record, error) {
	doc, err := reader.Load(data)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrUnparsableDocument, err)
	}
	rng, rec, err := Canonical(doc)
	if err != nil {
		return nil, nil, err
	}
	return data[rng.Start:rng.End()], rec, nil
}
