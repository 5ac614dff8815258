// Package sig implements detached document signing over a canonical
// byte range, with the signature stored inside the document itself as
// an incremental update.
package sig

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"fmt"

	_ "golang.org/x/crypto/sha3" // registers crypto.SHA3_256
)

// Common errors
var (
	ErrUnknownScheme  = errors.New("sig: unknown signature scheme")
	ErrSignOnlyVerify = errors.New("sig: scheme supports verification only")
)

// Scheme identifiers.
const (
	SchemeRSAPSSSHA256   = "RSA-PSS-SHA256"
	SchemeRSAPSSSHA3256  = "RSA-PSS-SHA3-256"
	SchemeRSAPKCS1SHA256 = "RSA-PKCS1V15-SHA256"
	DefaultSchemeID      = SchemeRSAPSSSHA256
)

// Scheme binds a digest algorithm to an RSA signature primitive.
type Scheme interface {
	// ID returns the stable identifier stored in signature records.
	ID() string
	// DigestAlgorithm returns the hash the scheme signs over.
	DigestAlgorithm() crypto.Hash
	// Sign signs a digest produced with DigestAlgorithm.
	Sign(priv *rsa.PrivateKey, digest []byte) ([]byte, error)
	// Verify checks a signature over a digest produced with
	// DigestAlgorithm.
	Verify(pub *rsa.PublicKey, digest, signature []byte) error
}

// Digest hashes the canonical byte range with the scheme's algorithm.
func Digest(s Scheme, data []byte) []byte {
	h := s.DigestAlgorithm().New()
	h.Write(data)
	return h.Sum(nil)
}

// SchemeByID looks up a registered scheme.
func SchemeByID(id string) (Scheme, error) {
	s, ok := schemes[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownScheme, id)
	}
	return s, nil
}

// DefaultScheme returns the scheme used for new signatures.
func DefaultScheme() Scheme {
	return schemes[DefaultSchemeID]
}

var schemes = map[string]Scheme{
	SchemeRSAPSSSHA256:   pssScheme{id: SchemeRSAPSSSHA256, hash: crypto.SHA256},
	SchemeRSAPSSSHA3256:  pssScheme{id: SchemeRSAPSSSHA3256, hash: crypto.SHA3_256},
	SchemeRSAPKCS1SHA256: pkcs1Scheme{},
}

type pssScheme struct {
	id   string
	hash crypto.Hash
}

func (s pssScheme) ID() string { return s.id }

func (s pssScheme) DigestAlgorithm() crypto.Hash { return s.hash }

func (s pssScheme) Sign(priv *rsa.PrivateKey, digest []byte) ([]byte, error) {
	opts := &rsa.PSSOptions{SaltLength: rsa.PSSSaltLengthEqualsHash, Hash: s.hash}
	return rsa.SignPSS(rand.Reader, priv, s.hash, digest, opts)
}

func (s pssScheme) Verify(pub *rsa.PublicKey, digest, signature []byte) error {
	opts := &rsa.PSSOptions{SaltLength: rsa.PSSSaltLengthEqualsHash, Hash: s.hash}
	return rsa.VerifyPSS(pub, s.hash, digest, signature, opts)
}

// pkcs1Scheme verifies legacy PKCS#1 v1.5 signatures. New signatures
// are never produced with it.
type pkcs1Scheme struct{}

func (pkcs1Scheme) ID() string { return SchemeRSAPKCS1SHA256 }

func (pkcs1Scheme) DigestAlgorithm() crypto.Hash { return crypto.SHA256 }

func (pkcs1Scheme) Sign(*rsa.PrivateKey, []byte) ([]byte, error) {
	return nil, fmt.Errorf("%w: %s", ErrSignOnlyVerify, SchemeRSAPKCS1SHA256)
}

func (pkcs1Scheme) Verify(pub *rsa.PublicKey, digest, signature []byte) error {
	return rsa.VerifyPKCS1v15(pub, crypto.SHA256, digest, signature)
}
