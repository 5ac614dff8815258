// Package engine is the process-facing boundary of the signing engine.
// It owns a key store and exposes the key, signing and verification
// operations as one surface. Byte payloads cross as raw slices and keys
// cross only as PEM.
package engine

import (
	"github.com/rs/zerolog"

	"github.com/pdfseal/pdfseal/keys"
	"github.com/pdfseal/pdfseal/sig"
	"github.com/pdfseal/pdfseal/stamp"
)

// Engine bundles a key store with a signer and verifier sharing it.
type Engine struct {
	store    *keys.Store
	signer   *sig.Signer
	verifier *sig.Verifier

	schemeID string
	style    *stamp.Style
	log      zerolog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. The default logger is disabled.
func WithLogger(log zerolog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// WithScheme sets the signature scheme used for new signatures.
func WithScheme(id string) Option {
	return func(e *Engine) { e.schemeID = id }
}

// WithStampStyle sets the watermark style for new signatures.
func WithStampStyle(style *stamp.Style) Option {
	return func(e *Engine) { e.style = style }
}

// New creates an engine with an empty key store.
func New(opts ...Option) *Engine {
	e := &Engine{
		store: keys.NewStore(),
		log:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.signer = sig.NewSigner(e.store)
	e.verifier = sig.NewVerifier(e.store)
	return e
}

// Store exposes the underlying key store, e.g. for file persistence.
func (e *Engine) Store() *keys.Store {
	return e.store
}

// GenerateKeypair creates a fresh RSA keypair, makes it resident and
// returns its public half as PEM.
func (e *Engine) GenerateKeypair() ([]byte, error) {
	if err := e.store.Generate(); err != nil {
		e.log.Error().Err(err).Msg("keypair generation failed")
		return nil, err
	}
	e.log.Info().Msg("keypair generated")
	return e.store.PublicKeyPEM()
}

// ImportKey loads a PEM keypair into the store, replacing any resident
// key, and returns the public half as PEM. The two halves must belong
// together.
func (e *Engine) ImportKey(privatePEM, publicPEM []byte) ([]byte, error) {
	if err := e.store.Import(privatePEM, publicPEM); err != nil {
		e.log.Error().Err(err).Msg("key import failed")
		return nil, err
	}
	e.log.Info().Msg("key imported")
	return e.store.PublicKeyPEM()
}

// ExportKey returns the resident keypair as PEM.
func (e *Engine) ExportKey() (privatePEM, publicPEM []byte, err error) {
	privatePEM, err = e.store.ExportPrivatePEM()
	if err != nil {
		return nil, nil, err
	}
	publicPEM, err = e.store.PublicKeyPEM()
	if err != nil {
		return nil, nil, err
	}
	return privatePEM, publicPEM, nil
}

// HasKey reports whether a key is resident.
func (e *Engine) HasKey() bool {
	return e.store.HasKey()
}

// GetPublicKey returns the resident public key as PEM.
func (e *Engine) GetPublicKey() ([]byte, error) {
	return e.store.PublicKeyPEM()
}

// SignPDF signs the document with the resident key and returns the
// signed bytes together with the embedded record.
func (e *Engine) SignPDF(data []byte, signerName, extra string) (*sig.SignedDocument, error) {
	signed, err := e.signer.Sign(data, sig.SignRequest{
		SignerName: signerName,
		Extra:      extra,
		SchemeID:   e.schemeID,
		Style:      e.style,
	})
	if err != nil {
		e.log.Error().Err(err).Msg("signing failed")
		return nil, err
	}
	e.log.Info().
		Str("signer", signed.Record.SignerName).
		Str("scheme", signed.Record.SchemeID).
		Int64("content_length", signed.Record.ContentLength).
		Msg("document signed")
	return signed, nil
}

// VerifyPDF checks the document signature against the resident public
// key.
func (e *Engine) VerifyPDF(data []byte) (*sig.Result, error) {
	res, err := e.verifier.Verify(data)
	if err != nil {
		e.log.Error().Err(err).Msg("verification failed")
		return nil, err
	}
	e.log.Info().Bool("signed", res.IsSigned).Str("message", res.Message).Msg("document verified")
	return res, nil
}
