package keys

import (
	"crypto/rand"
	"crypto/rsa"
	"fmt"
	"sync"
)

// Store holds the resident signing keypair. Generate and Import replace
// the resident key atomically; readers always observe a consistent
// snapshot. A Store starts empty.
type Store struct {
	mu   sync.RWMutex
	priv *rsa.PrivateKey
}

// NewStore creates an empty key store.
func NewStore() *Store {
	return &Store{}
}

// Generate creates a fresh RSA keypair and makes it resident, replacing
// any previous key.
func (s *Store) Generate() error {
	priv, err := rsa.GenerateKey(rand.Reader, MinRSABits)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrKeyGeneration, err)
	}

	s.mu.Lock()
	s.priv = priv
	s.mu.Unlock()
	return nil
}

// Import parses both PEM blocks, checks that the private key's public
// component equals the supplied public key, and makes the pair resident.
func (s *Store) Import(privatePEM, publicPEM []byte) error {
	priv, err := ParsePrivateKeyPEM(privatePEM)
	if err != nil {
		return err
	}
	pub, err := ParsePublicKeyPEM(publicPEM)
	if err != nil {
		return err
	}
	if !publicKeysEqual(&priv.PublicKey, pub) {
		return ErrKeyMismatch
	}

	s.mu.Lock()
	s.priv = priv
	s.mu.Unlock()
	return nil
}

// HasKey reports whether a keypair is resident.
func (s *Store) HasKey() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.priv != nil
}

// Signer returns the resident private key for signing.
func (s *Store) Signer() (*rsa.PrivateKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.priv == nil {
		return nil, ErrNoKeyLoaded
	}
	return s.priv, nil
}

// Public returns the resident public key.
func (s *Store) Public() (*rsa.PublicKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.priv == nil {
		return nil, ErrNoKeyLoaded
	}
	return &s.priv.PublicKey, nil
}

// ExportPrivatePEM returns the resident private key as PEM text. This is
// the only path on which private key material leaves the store.
func (s *Store) ExportPrivatePEM() ([]byte, error) {
	priv, err := s.Signer()
	if err != nil {
		return nil, err
	}
	return EncodePrivateKeyPEM(priv)
}

// PublicKeyPEM returns the resident public key as PEM text.
func (s *Store) PublicKeyPEM() ([]byte, error) {
	pub, err := s.Public()
	if err != nil {
		return nil, err
	}
	return EncodePublicKeyPEM(pub)
}
