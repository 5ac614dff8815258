package sig

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/pdfseal/pdfseal/keys"
	"github.com/pdfseal/pdfseal/pdf/reader"
	"github.com/pdfseal/pdfseal/pdf/writer"
	"github.com/pdfseal/pdfseal/stamp"
)

// Common errors
var (
	ErrInvalidInput = errors.New("sig: invalid input")
)

// timestampLayout is the signing time format shown in the watermark.
const timestampLayout = "2006-01-02 15:04:05 UTC"

// hashPreviewLen is the number of digest hex digits shown in the
// watermark.
const hashPreviewLen = 16

// SignRequest carries the per-signature inputs.
type SignRequest struct {
	// SignerName is the display name of the signer. Required.
	SignerName string
	// Extra is free-form text included in the record and the watermark.
	Extra string
	// SchemeID selects the signature scheme. Empty selects the default.
	SchemeID string
	// Style overrides the watermark appearance. Nil selects the default.
	Style *stamp.Style
}

// Signer produces signed documents using the key resident in a store.
type Signer struct {
	store *keys.Store
	now   func() time.Time
}

// NewSigner creates a signer backed by the given key store.
func NewSigner(store *keys.Store) *Signer {
	return &Signer{store: store, now: time.Now}
}

// SignedDocument is the output of a successful signing operation.
type SignedDocument struct {
	// Data is the complete signed document.
	Data []byte
	// Record is the signature record embedded in Data.
	Record *Record
}

// Sign signs the document and returns a new buffer holding the signed
// document. The input is never modified; any failure leaves no trace of
// a partial signature.
//
// Signing an already-signed document replaces the previous signature:
// the document is first reduced to its canonical range, then a fresh
// signature update is appended.
func (s *Signer) Sign(data []byte, req SignRequest) (*SignedDocument, error) {
	name := norm.NFC.String(strings.TrimSpace(req.SignerName))
	if name == "" {
		return nil, fmt.Errorf("%w: signer name must not be empty", ErrInvalidInput)
	}

	priv, err := s.store.Signer()
	if err != nil {
		return nil, err
	}

	schemeID := req.SchemeID
	if schemeID == "" {
		schemeID = DefaultSchemeID
	}
	scheme, err := SchemeByID(schemeID)
	if err != nil {
		return nil, err
	}

	doc, err := reader.Load(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparsableDocument, err)
	}

	rng, rec, err := Canonical(doc)
	if err != nil {
		return nil, err
	}
	canonical := data[rng.Start:rng.End()]
	if rec != nil {
		// Drop the previous signature update so the new one replaces
		// it instead of stacking on top.
		doc, err = reader.Load(canonical)
		if err != nil {
			return nil, fmt.Errorf("%w: canonical range is not a valid document: %v", ErrCorruptSignatureLocation, err)
		}
	}

	digest := Digest(scheme, canonical)
	signature, err := scheme.Sign(priv, digest)
	if err != nil {
		return nil, err
	}

	record := NewRecord(name, req.Extra, s.now(), scheme.ID(), int64(len(canonical)), signature)

	w := writer.NewIncremental(doc)
	recordRef := w.AddObject(record.Dict())
	w.SetTrailerEntry(TrailerKey, recordRef)

	wm := stamp.NewWatermark(watermarkLines(record, digest), req.Style)
	if err := stamp.Apply(w, doc, wm); err != nil {
		return nil, err
	}

	out, err := w.Bytes()
	if err != nil {
		return nil, err
	}
	return &SignedDocument{Data: out, Record: record}, nil
}

// watermarkLines builds the visible watermark text for a signature.
func watermarkLines(rec *Record, digest []byte) []string {
	extra := rec.Extra
	if extra == "" {
		extra = "(none)"
	}
	preview := hex.EncodeToString(digest)
	if len(preview) > hashPreviewLen {
		preview = preview[:hashPreviewLen]
	}
	return []string{
		"Digitally signed by " + rec.SignerName,
		rec.Time.UTC().Format(timestampLayout),
		extra,
		"Hash: " + preview,
	}
}
