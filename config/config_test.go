package config

import (
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/pdfseal/pdfseal/sig"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.KeyFile == "" {
		t.Error("default config must name a key file")
	}
	if cfg.Scheme != sig.DefaultSchemeID {
		t.Errorf("Expected default scheme, got %q", cfg.Scheme)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config must validate: %v", err)
	}
}

func TestParse(t *testing.T) {
	src := `
key-file: /var/lib/pdfseal/signer.key
key-passphrase-env: PDFSEAL_PASSPHRASE
scheme: RSA-PSS-SHA3-256
stamp:
  font-size: 11
  text-color: "#102030"
  margin: 24
`
	cfg, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if cfg.KeyFile != "/var/lib/pdfseal/signer.key" {
		t.Errorf("unexpected key file %q", cfg.KeyFile)
	}
	if cfg.Scheme != sig.SchemeRSAPSSSHA3256 {
		t.Errorf("unexpected scheme %q", cfg.Scheme)
	}
	if cfg.Stamp.FontSize != 11 {
		t.Errorf("unexpected font size %f", cfg.Stamp.FontSize)
	}

	style := cfg.Stamp.Style()
	if style.FontSize != 11 {
		t.Errorf("Expected style font size 11, got %f", style.FontSize)
	}
	if style.Margin != 24 {
		t.Errorf("Expected style margin 24, got %f", style.Margin)
	}
	if style.TextColor != (color.RGBA{0x10, 0x20, 0x30, 255}) {
		t.Errorf("Expected parsed #102030, got %v", style.TextColor)
	}
	// Unset fields keep defaults.
	if style.FontName != "Helvetica" {
		t.Errorf("Expected default font, got %q", style.FontName)
	}
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"unknown field", "unknown-knob: true\n"},
		{"unknown scheme", "scheme: RSA-MD5\n"},
		{"empty key file", "key-file: \"\"\n"},
		{"bad color", "stamp:\n  text-color: red\n"},
		{"negative font size", "stamp:\n  font-size: -1\n"},
		{"not yaml", ": : :\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.src)); err == nil {
				t.Errorf("Expected error for %q", tt.src)
			}
		})
	}
}

func TestParseErrorsWrapSentinel(t *testing.T) {
	_, err := Parse([]byte("scheme: RSA-MD5\n"))
	if !errors.Is(err, ErrConfigurationError) {
		t.Errorf("Expected ErrConfigurationError, got %v", err)
	}

	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("Expected *ConfigError, got %T", err)
	}
	if cfgErr.Field != "scheme" {
		t.Errorf("Expected field 'scheme', got %q", cfgErr.Field)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pdfseal.yaml")
	if err := os.WriteFile(path, []byte("key-file: test.key\n"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.KeyFile != "test.key" {
		t.Errorf("unexpected key file %q", cfg.KeyFile)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, ErrConfigurationError) {
		t.Errorf("Expected ErrConfigurationError for missing file, got %v", err)
	}
}

func TestPassphrase(t *testing.T) {
	cfg := Default()
	if cfg.Passphrase() != nil {
		t.Error("no passphrase configured, expected nil")
	}

	cfg.KeyPassphraseEnv = "PDFSEAL_TEST_PASSPHRASE"
	t.Setenv("PDFSEAL_TEST_PASSPHRASE", "secret")
	if string(cfg.Passphrase()) != "secret" {
		t.Errorf("Expected passphrase from environment, got %q", cfg.Passphrase())
	}
}
