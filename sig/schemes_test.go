package sig

import (
	"errors"
	"testing"
)

func TestSchemeRegistry(t *testing.T) {
	for _, id := range []string{SchemeRSAPSSSHA256, SchemeRSAPSSSHA3256, SchemeRSAPKCS1SHA256} {
		s, err := SchemeByID(id)
		if err != nil {
			t.Errorf("SchemeByID(%q) failed: %v", id, err)
			continue
		}
		if s.ID() != id {
			t.Errorf("Expected ID %q, got %q", id, s.ID())
		}
	}

	if _, err := SchemeByID("RSA-MD5"); !errors.Is(err, ErrUnknownScheme) {
		t.Errorf("Expected ErrUnknownScheme, got %v", err)
	}

	if DefaultScheme().ID() != DefaultSchemeID {
		t.Errorf("Expected default scheme %q, got %q", DefaultSchemeID, DefaultScheme().ID())
	}
}

func TestDigestLengths(t *testing.T) {
	data := []byte("payload")
	for _, id := range []string{SchemeRSAPSSSHA256, SchemeRSAPSSSHA3256, SchemeRSAPKCS1SHA256} {
		s, _ := SchemeByID(id)
		if got := len(Digest(s, data)); got != 32 {
			t.Errorf("%s: expected 32-byte digest, got %d", id, got)
		}
	}

	s256, _ := SchemeByID(SchemeRSAPSSSHA256)
	s3, _ := SchemeByID(SchemeRSAPSSSHA3256)
	if string(Digest(s256, data)) == string(Digest(s3, data)) {
		t.Error("SHA-256 and SHA3-256 digests must differ")
	}
}

func TestPSSSignVerify(t *testing.T) {
	st := sharedStore(t)
	priv, err := st.Signer()
	if err != nil {
		t.Fatalf("Signer failed: %v", err)
	}

	for _, id := range []string{SchemeRSAPSSSHA256, SchemeRSAPSSSHA3256} {
		t.Run(id, func(t *testing.T) {
			s, _ := SchemeByID(id)
			digest := Digest(s, []byte("canonical bytes"))

			signature, err := s.Sign(priv, digest)
			if err != nil {
				t.Fatalf("Sign failed: %v", err)
			}
			if err := s.Verify(&priv.PublicKey, digest, signature); err != nil {
				t.Errorf("Verify failed: %v", err)
			}

			digest[0] ^= 0xff
			if err := s.Verify(&priv.PublicKey, digest, signature); err == nil {
				t.Error("Verify must fail for a different digest")
			}
		})
	}
}

func TestLegacySchemeSignRejected(t *testing.T) {
	st := sharedStore(t)
	priv, _ := st.Signer()

	s, _ := SchemeByID(SchemeRSAPKCS1SHA256)
	if _, err := s.Sign(priv, Digest(s, []byte("x"))); !errors.Is(err, ErrSignOnlyVerify) {
		t.Errorf("Expected ErrSignOnlyVerify, got %v", err)
	}
}
