package filetype

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n")

func TestDetectReader_PDF(t *testing.T) {
	info, r, err := New().DetectReader(bytes.NewReader(pdfBytes), "notes.pdf")
	require.NoError(t, err)

	assert.Equal(t, "application/pdf", info.MIMEType)
	assert.Equal(t, ".pdf", info.Extension)
	assert.True(t, info.IsPDF)
	assert.True(t, info.Supported)

	rest, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, pdfBytes, rest, "stream must be replayed in full")
}

func TestDetectReader_PlainText(t *testing.T) {
	info, _, err := New().DetectReader(bytes.NewBufferString("just some notes\n"), "notes.txt")
	require.NoError(t, err)
	assert.Equal(t, "text/plain", info.MIMEType)
	assert.False(t, info.IsPDF)
	assert.True(t, info.Supported)
}

func TestDetectReader_LargeStreamIsReplayed(t *testing.T) {
	data := append(append([]byte{}, pdfBytes...), bytes.Repeat([]byte("x"), 10*sniffLen)...)
	_, r, err := New().DetectReader(bytes.NewReader(data), "big.pdf")
	require.NoError(t, err)
	rest, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Len(t, rest, len(data))
}

func TestDetectReader_Binary(t *testing.T) {
	info, _, err := New().DetectReader(bytes.NewReader([]byte{0x00, 0x01, 0x02, 0xff, 0xfe}), "blob.bin")
	require.NoError(t, err)
	assert.False(t, info.Supported)
	assert.Contains(t, info.Description, "Unsupported")
}

func TestDetect_File(t *testing.T) {
	p := filepath.Join(t.TempDir(), "doc.pdf")
	require.NoError(t, os.WriteFile(p, pdfBytes, 0o644))

	info, err := New().Detect(p)
	require.NoError(t, err)
	assert.True(t, info.IsPDF)
}

func TestDetect_MissingFile(t *testing.T) {
	_, err := New().Detect(filepath.Join(t.TempDir(), "nope.pdf"))
	assert.Error(t, err)
}
