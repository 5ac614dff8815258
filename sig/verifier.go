package sig

import (
	"errors"
	"fmt"

	"github.com/pdfseal/pdfseal/keys"
	"github.com/pdfseal/pdfseal/pdf/reader"
)

// Result messages.
const (
	MessageNotSigned     = "document is not signed"
	MessageValid         = "signature is valid"
	MessageMismatch      = "signature does not match document content"
	MessageCorruptRecord = "signature record corrupt"
)

// Result is the outcome of verifying a document. An unsigned document
// is a valid outcome, not an error.
type Result struct {
	// IsSigned reports whether a signature is present and valid.
	IsSigned bool
	// Record is the embedded signature record, if one was readable. It
	// is populated even when the signature does not verify, so callers
	// can report who claimed to sign.
	Record *Record
	// Message is a human-readable summary of the outcome.
	Message string
}

// Verifier checks document signatures against the key resident in a
// store.
type Verifier struct {
	store *keys.Store
}

// NewVerifier creates a verifier backed by the given key store.
func NewVerifier(store *keys.Store) *Verifier {
	return &Verifier{store: store}
}

// Verify inspects the document and checks its signature, if any,
// against the resident public key.
//
// Errors are reserved for documents that cannot be assessed at all: an
// unparsable file or a missing resident key. A corrupt signature
// record, an unknown scheme, or a signature that does not match all
// yield a Result with IsSigned false.
func (v *Verifier) Verify(data []byte) (*Result, error) {
	doc, err := reader.Load(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparsableDocument, err)
	}

	rng, rec, err := Canonical(doc)
	if err != nil {
		if errors.Is(err, ErrCorruptSignatureLocation) {
			return &Result{IsSigned: false, Message: MessageCorruptRecord}, nil
		}
		return nil, err
	}
	if rec == nil {
		return &Result{IsSigned: false, Message: MessageNotSigned}, nil
	}

	pub, err := v.store.Public()
	if err != nil {
		return nil, err
	}

	scheme, err := SchemeByID(rec.SchemeID)
	if err != nil {
		return &Result{IsSigned: false, Record: rec, Message: MessageCorruptRecord}, nil
	}

	digest := Digest(scheme, data[rng.Start:rng.End()])
	if err := scheme.Verify(pub, digest, rec.Signature); err != nil {
		return &Result{IsSigned: false, Record: rec, Message: MessageMismatch}, nil
	}

	return &Result{IsSigned: true, Record: rec, Message: MessageValid}, nil
}
