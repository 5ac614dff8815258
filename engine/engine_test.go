package engine

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdfseal/pdfseal/keys"
	"github.com/pdfseal/pdfseal/pdf/writer"
	"github.com/pdfseal/pdfseal/sig"
)

var (
	engOnce sync.Once
	eng     *Engine
)

// sharedEngine returns one engine with a generated key, shared across
// tests to avoid repeated RSA key generation.
func sharedEngine(t *testing.T) *Engine {
	t.Helper()
	engOnce.Do(func() {
		eng = New()
		if _, err := eng.GenerateKeypair(); err != nil {
			t.Fatalf("GenerateKeypair failed: %v", err)
		}
	})
	require.NotNil(t, eng)
	require.True(t, eng.HasKey())
	return eng
}

func fixturePDF(t *testing.T) []byte {
	t.Helper()
	b := writer.NewBuilder()
	b.AddPage(612, 792, []byte("BT /F1 12 Tf 72 720 Td (Invoice) Tj ET"))
	data, err := b.Bytes()
	require.NoError(t, err)
	return data
}

func TestEngineStartsEmpty(t *testing.T) {
	e := New()
	assert.False(t, e.HasKey())

	_, err := e.GetPublicKey()
	assert.ErrorIs(t, err, keys.ErrNoKeyLoaded)

	_, _, err = e.ExportKey()
	assert.ErrorIs(t, err, keys.ErrNoKeyLoaded)
}

func TestEngineKeyLifecycle(t *testing.T) {
	e := sharedEngine(t)

	pub, err := e.GetPublicKey()
	require.NoError(t, err)
	assert.Contains(t, string(pub), "BEGIN PUBLIC KEY")

	priv, pub2, err := e.ExportKey()
	require.NoError(t, err)
	assert.Equal(t, pub, pub2)
	assert.Contains(t, string(priv), "BEGIN PRIVATE KEY")

	// Round trip the exported pair through a fresh engine. Import hands
	// the public half straight back.
	other := New()
	importedPub, err := other.ImportKey(priv, pub)
	require.NoError(t, err)
	assert.Equal(t, pub, importedPub)
	otherPub, err := other.GetPublicKey()
	require.NoError(t, err)
	assert.Equal(t, pub, otherPub)
}

func TestEngineImportMismatch(t *testing.T) {
	e := sharedEngine(t)
	priv, _, err := e.ExportKey()
	require.NoError(t, err)

	other := New()
	otherPub, err := other.GenerateKeypair()
	require.NoError(t, err)
	assert.Contains(t, string(otherPub), "BEGIN PUBLIC KEY")

	target := New()
	_, err = target.ImportKey(priv, otherPub)
	assert.ErrorIs(t, err, keys.ErrKeyMismatch)
	assert.False(t, target.HasKey())
}

func TestEngineSignVerify(t *testing.T) {
	e := sharedEngine(t)
	original := fixturePDF(t)

	signed, err := e.SignPDF(original, "Alice Example", "Q3 approval")
	require.NoError(t, err)
	require.NotNil(t, signed.Record)
	assert.Equal(t, "Alice Example", signed.Record.SignerName)
	assert.Greater(t, len(signed.Data), len(original))

	result, err := e.VerifyPDF(signed.Data)
	require.NoError(t, err)
	assert.True(t, result.IsSigned)
	assert.Equal(t, sig.MessageValid, result.Message)
	assert.Equal(t, "Q3 approval", result.Record.Extra)
}

func TestEngineVerifyUnsigned(t *testing.T) {
	e := sharedEngine(t)

	result, err := e.VerifyPDF(fixturePDF(t))
	require.NoError(t, err)
	assert.False(t, result.IsSigned)
	assert.Nil(t, result.Record)
	assert.Equal(t, sig.MessageNotSigned, result.Message)
}

func TestEngineSignInvalidName(t *testing.T) {
	e := sharedEngine(t)

	_, err := e.SignPDF(fixturePDF(t), "  ", "")
	assert.ErrorIs(t, err, sig.ErrInvalidInput)
}

func TestEngineSchemeOption(t *testing.T) {
	e := New(WithScheme(sig.SchemeRSAPSSSHA3256))
	_, err := e.GenerateKeypair()
	require.NoError(t, err)

	signed, err := e.SignPDF(fixturePDF(t), "Alice", "")
	require.NoError(t, err)
	assert.Equal(t, sig.SchemeRSAPSSSHA3256, signed.Record.SchemeID)

	result, err := e.VerifyPDF(signed.Data)
	require.NoError(t, err)
	assert.True(t, result.IsSigned)
}
