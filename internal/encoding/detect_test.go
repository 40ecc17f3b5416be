package encoding_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graos-sa/salescore/internal/encoding"
)

func TestNewUTF8Reader_UTF8Passthrough(t *testing.T) {
	// Valid UTF-8 with Portuguese characters should pass through unchanged.
	input := "Data Competência;Nome Cliente;Total Venda\n01/07/2025;JOÃO;12,50\n"
	r, cs, err := encoding.NewUTF8Reader(bytes.NewReader([]byte(input)))
	require.NoError(t, err)
	assert.Equal(t, encoding.CharsetUTF8, cs)

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, input, string(got))
}

func TestNewUTF8Reader_Latin1(t *testing.T) {
	// Latin-1 encoded "Competência;São\n".
	// In ISO-8859-1: ê = 0xEA, ã = 0xE3
	latin1Bytes := []byte{
		'C', 'o', 'm', 'p', 'e', 't', 0xEA, 'n', 'c', 'i', 'a', ';',
		'S', 0xE3, 'o', '\n',
	}

	r, cs, err := encoding.NewUTF8Reader(bytes.NewReader(latin1Bytes))
	require.NoError(t, err)
	assert.Contains(t, []encoding.Charset{encoding.CharsetLatin1, encoding.CharsetWindows1252}, cs)

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "Competência;São\n", string(got))
}

func TestNewUTF8Reader_UTF8BOM(t *testing.T) {
	// UTF-8 BOM (0xEF 0xBB 0xBF) should be stripped.
	bom := []byte{0xEF, 0xBB, 0xBF}
	content := []byte("Data Competência;Total Venda\n")
	input := append(bom, content...)

	r, cs, err := encoding.NewUTF8Reader(bytes.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, encoding.CharsetUTF8, cs)

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "Data Competência;Total Venda\n", string(got))
}

func TestNewUTF8Reader_UTF16LE(t *testing.T) {
	// "A;B\n" as UTF-16 LE with BOM.
	input := []byte{0xFF, 0xFE, 'A', 0x00, ';', 0x00, 'B', 0x00, '\n', 0x00}

	r, cs, err := encoding.NewUTF8Reader(bytes.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, encoding.CharsetUTF16LE, cs)

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "A;B\n", string(got))
}

func TestNewUTF8Reader_BinaryExhausted(t *testing.T) {
	// Invalid UTF-8 with NUL bytes is not a text file in any candidate encoding.
	input := []byte{0x89, 'P', 'N', 'G', 0x00, 0x00, 0x1A, 0x0A, 0xFF, 0xFE, 0x00}
	input = append([]byte{0x80}, input...) // ensure no UTF-16 BOM prefix

	_, _, err := encoding.NewUTF8Reader(bytes.NewReader(input))
	require.Error(t, err)
	assert.ErrorIs(t, err, encoding.ErrExhausted)
}

func TestNewUTF8Reader_Empty(t *testing.T) {
	r, cs, err := encoding.NewUTF8Reader(bytes.NewReader(nil))
	require.NoError(t, err)
	assert.Equal(t, encoding.CharsetUTF8, cs)

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Empty(t, got)
}
