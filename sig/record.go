package sig

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/pdfseal/pdfseal/pdf/generic"
)

// Common errors
var (
	ErrCorruptRecord = errors.New("sig: corrupt signature record")
)

// Dictionary keys of the embedded signature record. TrailerKey is the
// entry in the file trailer pointing at the record object.
const (
	TrailerKey = "SealSig"
	recordType = "SealSig"
)

// Record is the signature metadata embedded in a signed document.
type Record struct {
	// SignerName is the NFC-normalized display name of the signer.
	SignerName string
	// Extra is free-form text supplied at signing time.
	Extra string
	// Time is the signing time in UTC.
	Time time.Time
	// SchemeID identifies the signature scheme.
	SchemeID string
	// ContentLength is the length in bytes of the canonical range the
	// signature covers.
	ContentLength int64
	// Signature is the raw signature over the canonical range digest.
	Signature []byte
}

// NewRecord builds a record for a fresh signature. Text fields are
// normalized to NFC so byte-level comparisons are stable.
func NewRecord(signerName, extra string, at time.Time, schemeID string, contentLength int64, signature []byte) *Record {
	return &Record{
		SignerName:    norm.NFC.String(signerName),
		Extra:         norm.NFC.String(extra),
		Time:          at.UTC().Truncate(time.Second),
		SchemeID:      schemeID,
		ContentLength: contentLength,
		Signature:     signature,
	}
}

// Dict encodes the record as a PDF dictionary.
func (r *Record) Dict() *generic.Dict {
	d := generic.NewDict()
	d.Set("Type", generic.Name(recordType))
	d.Set("SignerName", generic.NewTextString(r.SignerName))
	if r.Extra != "" {
		d.Set("Extra", generic.NewTextString(r.Extra))
	}
	d.Set("Time", generic.NewLiteralString(r.Time.UTC().Format(time.RFC3339)))
	d.Set("Scheme", generic.Name(r.SchemeID))
	d.Set("ContentLength", generic.Integer(r.ContentLength))
	d.Set("Sig", generic.NewHexString(r.Signature))
	return d
}

// RecordFromDict decodes an embedded signature record. Any missing or
// ill-typed field makes the record corrupt.
func RecordFromDict(d *generic.Dict) (*Record, error) {
	if d.GetName("Type") != recordType {
		return nil, fmt.Errorf("%w: wrong record type", ErrCorruptRecord)
	}

	name := d.GetString("SignerName")
	if name == nil {
		return nil, fmt.Errorf("%w: missing signer name", ErrCorruptRecord)
	}

	schemeID := d.GetName("Scheme")
	if schemeID == "" {
		return nil, fmt.Errorf("%w: missing scheme", ErrCorruptRecord)
	}

	contentLength, ok := d.GetInt("ContentLength")
	if !ok || contentLength <= 0 {
		return nil, fmt.Errorf("%w: bad content length", ErrCorruptRecord)
	}

	sigStr := d.GetString("Sig")
	if sigStr == nil || len(sigStr.Value) == 0 {
		return nil, fmt.Errorf("%w: missing signature value", ErrCorruptRecord)
	}

	rec := &Record{
		SignerName:    name.Text(),
		SchemeID:      schemeID,
		ContentLength: contentLength,
		Signature:     append([]byte(nil), sigStr.Value...),
	}

	if extra := d.GetString("Extra"); extra != nil {
		rec.Extra = extra.Text()
	}

	ts := d.GetString("Time")
	if ts == nil {
		return nil, fmt.Errorf("%w: missing timestamp", ErrCorruptRecord)
	}
	t, err := time.Parse(time.RFC3339, ts.Text())
	if err != nil {
		return nil, fmt.Errorf("%w: bad timestamp: %v", ErrCorruptRecord, err)
	}
	rec.Time = t.UTC()

	return rec, nil
}
