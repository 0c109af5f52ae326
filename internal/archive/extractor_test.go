package archive

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildZip(t *testing.T, entries map[string][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, data := range entries {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestExtractPlainTranscript(t *testing.T) {
	e := NewExtractor(nil)
	result, err := e.Extract([]byte("[1/1/24, 10:00] Alice: hi"), "chat.txt")
	require.NoError(t, err)
	assert.Equal(t, "[1/1/24, 10:00] Alice: hi", result.ChatText)
	assert.Empty(t, result.Media)
}

func TestExtractZipWithChatAndMedia(t *testing.T) {
	e := NewExtractor(nil)
	data := buildZip(t, map[string][]byte{
		"_chat.txt":                []byte("[1/1/24, 10:00] Alice: hi"),
		"IMG-20240101-WA0001.jpg":  {0xFF, 0xD8, 0xFF},
		"PTT-20240101-WA0002.opus": {0x4F, 0x67, 0x67},
	})

	result, err := e.Extract(data, "export.zip")
	require.NoError(t, err)
	assert.Equal(t, "[1/1/24, 10:00] Alice: hi", result.ChatText)
	require.Len(t, result.Media, 2)

	img := result.Media["IMG-20240101-WA0001.jpg"]
	assert.Equal(t, []byte{0xFF, 0xD8, 0xFF}, img.Data)
	assert.Equal(t, "image/jpeg", img.MimeType)
	assert.Equal(t, "image", img.MediaType)

	voice := result.Media["PTT-20240101-WA0002.opus"]
	assert.Equal(t, "audio", voice.MediaType)
}

func TestExtractZipNestedFolder(t *testing.T) {
	e := NewExtractor(nil)
	data := buildZip(t, map[string][]byte{
		"WhatsApp Chat/_chat.txt": []byte("transcript"),
		"WhatsApp Chat/photo.jpg": {0x01},
		"__MACOSX/._chat.txt":     []byte("resource fork junk"),
		"WhatsApp Chat/.DS_Store": {0x00},
	})

	result, err := e.Extract(data, "export.zip")
	require.NoError(t, err)
	assert.Equal(t, "transcript", result.ChatText)
	require.Len(t, result.Media, 1)
	assert.Contains(t, result.Media, "photo.jpg")
}

func TestExtractZipFallbackSoleTxt(t *testing.T) {
	e := NewExtractor(nil)
	data := buildZip(t, map[string][]byte{
		"Chat with Bob.txt": []byte("transcript"),
	})

	result, err := e.Extract(data, "export.zip")
	require.NoError(t, err)
	assert.Equal(t, "transcript", result.ChatText)
}

func TestExtractZipNoTranscript(t *testing.T) {
	e := NewExtractor(nil)
	data := buildZip(t, map[string][]byte{
		"photo1.jpg": {0x01},
		"photo2.jpg": {0x02},
		"photo3.jpg": {0x03},
	})

	_, err := e.Extract(data, "export.zip")
	assert.ErrorIs(t, err, ErrNoTranscript)
}

func TestExtractZipAmbiguousTxt(t *testing.T) {
	e := NewExtractor(nil)
	data := buildZip(t, map[string][]byte{
		"notes.txt": []byte("a"),
		"other.txt": []byte("b"),
	})

	_, err := e.Extract(data, "export.zip")
	assert.ErrorIs(t, err, ErrNoTranscript)
}

func TestExtractZipSkipsTraversalEntries(t *testing.T) {
	e := NewExtractor(nil)
	data := buildZip(t, map[string][]byte{
		"_chat.txt":      []byte("transcript"),
		"../escape.jpg":  {0x01},
		"safe/photo.jpg": {0x02},
	})

	result, err := e.Extract(data, "export.zip")
	require.NoError(t, err)
	require.Len(t, result.Media, 1)
	assert.Contains(t, result.Media, "photo.jpg")
}

func TestExtractCorruptZip(t *testing.T) {
	e := NewExtractor(nil)
	_, err := e.Extract([]byte("this is not a zip archive"), "export.zip")
	assert.ErrorIs(t, err, ErrCorruptArchive)
}

func TestExtractStripsBOM(t *testing.T) {
	e := NewExtractor(nil)
	data := buildZip(t, map[string][]byte{
		"_chat.txt": []byte("\uFEFFtranscript"),
	})

	result, err := e.Extract(data, "export.zip")
	require.NoError(t, err)
	assert.Equal(t, "transcript", result.ChatText)
}

func TestExtractMalformedPDFKeepsEntry(t *testing.T) {
	e := NewExtractor(nil)
	data := buildZip(t, map[string][]byte{
		"_chat.txt":  []byte("transcript"),
		"report.pdf": []byte("%PDF-1.4 truncated garbage"),
	})

	result, err := e.Extract(data, "export.zip")
	require.NoError(t, err)

	entry := result.Media["report.pdf"]
	assert.Equal(t, "application/pdf", entry.MimeType)
	assert.Equal(t, "document", entry.MediaType)
	assert.Empty(t, entry.ExtractedText)
}
