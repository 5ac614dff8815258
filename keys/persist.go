package keys

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"errors"
	"fmt"
	"os"

	"golang.org/x/crypto/scrypt"
)

// PEM block type for passphrase-protected private keys.
const pemTypeSealed = "PDFSEAL SEALED PRIVATE KEY"

// scrypt parameters for the passphrase KDF.
const (
	scryptN = 1 << 15
	scryptR = 8
	scryptP = 1
)

// ErrBadPassphrase is returned when a sealed key cannot be decrypted.
var ErrBadPassphrase = errors.New("wrong passphrase or corrupted key file")

// SaveToFile writes the resident keypair to path as PEM text: the public
// key block followed by the private key block. A non-empty passphrase
// seals the private key with scrypt-derived AES-256-GCM.
func (s *Store) SaveToFile(path string, passphrase []byte) error {
	priv, err := s.Signer()
	if err != nil {
		return err
	}

	pubPEM, err := EncodePublicKeyPEM(&priv.PublicKey)
	if err != nil {
		return err
	}

	var privPEM []byte
	if len(passphrase) == 0 {
		privPEM, err = EncodePrivateKeyPEM(priv)
	} else {
		privPEM, err = sealPrivateKey(priv, passphrase)
	}
	if err != nil {
		return err
	}

	return os.WriteFile(path, append(pubPEM, privPEM...), 0o600)
}

// LoadFromFile reads a keypair written by SaveToFile and makes it
// resident.
func (s *Store) LoadFromFile(path string, passphrase []byte) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read key file: %w", err)
	}

	var priv []byte
	rest := data
	for len(rest) > 0 {
		block, remainder := pem.Decode(rest)
		if block == nil {
			break
		}
		rest = remainder

		switch block.Type {
		case pemTypeSealed:
			key, err := unsealPrivateKey(block, passphrase)
			if err != nil {
				return err
			}
			priv, err = EncodePrivateKeyPEM(key)
			if err != nil {
				return err
			}
		case pemTypePrivate, "RSA PRIVATE KEY":
			priv = pem.EncodeToMemory(block)
		}
	}
	if priv == nil {
		return fmt.Errorf("%w: no private key block in %s", ErrMalformedKey, path)
	}

	key, err := ParsePrivateKeyPEM(priv)
	if err != nil {
		return err
	}
	pubPEM, err := EncodePublicKeyPEM(&key.PublicKey)
	if err != nil {
		return err
	}
	return s.Import(priv, pubPEM)
}

func sealPrivateKey(priv *rsa.PrivateKey, passphrase []byte) ([]byte, error) {
	der, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return nil, fmt.Errorf("failed to encode private key: %w", err)
	}

	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyGeneration, err)
	}
	aead, err := deriveAEAD(passphrase, salt)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyGeneration, err)
	}

	sealed := aead.Seal(nil, nonce, der, nil)
	return pem.EncodeToMemory(&pem.Block{
		Type: pemTypeSealed,
		Headers: map[string]string{
			"KDF":   "scrypt",
			"Salt":  hex.EncodeToString(salt),
			"Nonce": hex.EncodeToString(nonce),
		},
		Bytes: sealed,
	}), nil
}

func unsealPrivateKey(block *pem.Block, passphrase []byte) (*rsa.PrivateKey, error) {
	if len(passphrase) == 0 {
		return nil, fmt.Errorf("%w: key file is passphrase protected", ErrBadPassphrase)
	}
	salt, err := hex.DecodeString(block.Headers["Salt"])
	if err != nil {
		return nil, fmt.Errorf("%w: bad salt header", ErrBadPassphrase)
	}
	nonce, err := hex.DecodeString(block.Headers["Nonce"])
	if err != nil {
		return nil, fmt.Errorf("%w: bad nonce header", ErrBadPassphrase)
	}

	aead, err := deriveAEAD(passphrase, salt)
	if err != nil {
		return nil, err
	}
	der, err := aead.Open(nil, nonce, block.Bytes, nil)
	if err != nil {
		return nil, ErrBadPassphrase
	}

	parsed, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedKey, err)
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: not an RSA key", ErrMalformedKey)
	}
	return key, nil
}

func deriveAEAD(passphrase, salt []byte) (cipher.AEAD, error) {
	key, err := scrypt.Key(passphrase, salt, scryptN, scryptR, scryptP, 32)
	if err != nil {
		return nil, fmt.Errorf("key derivation failed: %w", err)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("key derivation failed: %w", err)
	}
	return cipher.NewGCM(block)
}
