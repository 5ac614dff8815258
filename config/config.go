// Package config loads and validates the engine configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"os"
	"regexp"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/pdfseal/pdfseal/sig"
	"github.com/pdfseal/pdfseal/stamp"
)

// Common errors
var (
	ErrConfigurationError = errors.New("configuration error")
)

// colorRegex matches hex colors like "#1a2b3c".
var colorRegex = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// ConfigError represents a configuration error with context.
type ConfigError struct {
	Field   string
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config error in '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("config error: %s", e.Message)
}

func (e *ConfigError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrConfigurationError
}

// NewConfigError creates a new ConfigError.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{Field: field, Message: message}
}

// StampConfig overrides the watermark appearance.
type StampConfig struct {
	// FontSize is the watermark font size in points.
	FontSize float64 `yaml:"font-size"`

	// FontName is one of the standard 14 PDF font names.
	FontName string `yaml:"font-name"`

	// TextColor is a hex color like "#404040".
	TextColor string `yaml:"text-color"`

	// Padding is the inner padding of the watermark box in points.
	Padding float64 `yaml:"padding"`

	// Margin is the distance from the top-left page corner in points.
	Margin float64 `yaml:"margin"`
}

// Validate validates the stamp configuration.
func (c *StampConfig) Validate() error {
	if c.FontSize < 0 {
		return NewConfigError("stamp.font-size", "must not be negative")
	}
	if c.Padding < 0 {
		return NewConfigError("stamp.padding", "must not be negative")
	}
	if c.Margin < 0 {
		return NewConfigError("stamp.margin", "must not be negative")
	}
	if c.TextColor != "" && !colorRegex.MatchString(c.TextColor) {
		return NewConfigError("stamp.text-color", "must be a hex color like #404040")
	}
	return nil
}

// Style builds a watermark style from the configuration, filling unset
// fields from the defaults.
func (c *StampConfig) Style() *stamp.Style {
	style := stamp.DefaultStyle()
	if c.FontSize > 0 {
		style.FontSize = c.FontSize
	}
	if c.FontName != "" {
		style.FontName = c.FontName
	}
	if c.Padding > 0 {
		style.Padding = c.Padding
	}
	if c.Margin > 0 {
		style.Margin = c.Margin
	}
	if colorRegex.MatchString(c.TextColor) {
		r, _ := strconv.ParseUint(c.TextColor[1:3], 16, 8)
		g, _ := strconv.ParseUint(c.TextColor[3:5], 16, 8)
		b, _ := strconv.ParseUint(c.TextColor[5:7], 16, 8)
		style.TextColor = color.RGBA{uint8(r), uint8(g), uint8(b), 255}
	}
	return style
}

// Config is the top-level engine configuration.
type Config struct {
	// KeyFile is the path of the persisted keypair.
	KeyFile string `yaml:"key-file"`

	// KeyPassphraseEnv names an environment variable holding the key
	// file passphrase. The passphrase itself never appears in the file.
	KeyPassphraseEnv string `yaml:"key-passphrase-env"`

	// Scheme is the signature scheme identifier for new signatures.
	Scheme string `yaml:"scheme"`

	// Stamp overrides the watermark appearance.
	Stamp StampConfig `yaml:"stamp"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		KeyFile: "pdfseal.key",
		Scheme:  sig.DefaultSchemeID,
	}
}

// Load reads and validates a configuration file. Unknown fields are
// rejected.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigurationError, err)
	}
	return Parse(data)
}

// Parse parses and validates configuration bytes.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigurationError, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.KeyFile == "" {
		return NewConfigError("key-file", "required field is missing")
	}
	if c.Scheme != "" {
		if _, err := sig.SchemeByID(c.Scheme); err != nil {
			return NewConfigError("scheme", fmt.Sprintf("unknown scheme %q", c.Scheme))
		}
	}
	return c.Stamp.Validate()
}

// Passphrase resolves the key file passphrase from the environment.
// Returns nil when no passphrase is configured.
func (c *Config) Passphrase() []byte {
	if c.KeyPassphraseEnv == "" {
		return nil
	}
	v := os.Getenv(c.KeyPassphraseEnv)
	if v == "" {
		return nil
	}
	return []byte(v)
}
