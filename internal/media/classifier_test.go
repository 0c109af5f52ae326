package media

import (
	"testing"

	"chatvault/internal/constants"

	"github.com/stretchr/testify/assert"
)

func TestTypeByExtension(t *testing.T) {
	tests := []struct {
		filename string
		expected string
	}{
		{"IMG-20240101-WA0001.jpg", constants.MediaTypeImage},
		{"photo.HEIC", constants.MediaTypeImage},
		{"VID-20240101-WA0002.mp4", constants.MediaTypeVideo},
		{"PTT-20240101-WA0003.opus", constants.MediaTypeAudio},
		{"notes.pdf", constants.MediaTypeDocument},
		{"contact.vcf", constants.MediaTypeContact},
		{"archive.xyz", constants.MediaTypeFile},
		{"noextension", constants.MediaTypeFile},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			assert.Equal(t, tt.expected, TypeByExtension(tt.filename))
		})
	}
}

func TestMimeByExtension(t *testing.T) {
	assert.Equal(t, "image/jpeg", MimeByExtension("photo.jpg"))
	assert.Equal(t, "application/pdf", MimeByExtension("doc.PDF"))
	assert.Equal(t, constants.DefaultMimeType, MimeByExtension("blob.unknown"))
}

func TestDetectInline(t *testing.T) {
	t.Run("attached tag without caption", func(t *testing.T) {
		d := DetectInline("<attached: IMG-20240101-WA0001.jpg>")
		assert.True(t, d.HasMedia)
		assert.Equal(t, constants.MediaTypeImage, d.MediaType)
		assert.Equal(t, "IMG-20240101-WA0001.jpg", d.Filename)
		assert.Equal(t, "[image: IMG-20240101-WA0001.jpg]", d.Body)
	})

	t.Run("attached tag with caption", func(t *testing.T) {
		d := DetectInline("look at this\n<attached: VID-20240101-WA0002.mp4>")
		assert.True(t, d.HasMedia)
		assert.Equal(t, constants.MediaTypeVideo, d.MediaType)
		assert.Equal(t, "VID-20240101-WA0002.mp4", d.Filename)
		assert.Equal(t, "look at this\n[video: VID-20240101-WA0002.mp4]", d.Body)
	})

	t.Run("bare filename with file attached suffix", func(t *testing.T) {
		d := DetectInline("report.pdf (file attached)")
		assert.True(t, d.HasMedia)
		assert.Equal(t, constants.MediaTypeDocument, d.MediaType)
		assert.Equal(t, "report.pdf", d.Filename)
		assert.Equal(t, "[document: report.pdf]", d.Body)
	})

	t.Run("bare filename with unknown extension is not media", func(t *testing.T) {
		d := DetectInline("something.qqq")
		assert.False(t, d.HasMedia)
		assert.Equal(t, "something.qqq", d.Body)
	})

	t.Run("omitted placeholders", func(t *testing.T) {
		tests := []struct {
			body      string
			mediaType string
		}{
			{"image omitted", constants.MediaTypeImage},
			{"IMAGE OMITTED", constants.MediaTypeImage},
			{"voice message omitted", constants.MediaTypeAudio},
			{"sticker omitted", constants.MediaTypeSticker},
			{"<Media omitted>", constants.MediaTypeFile},
		}
		for _, tt := range tests {
			d := DetectInline(tt.body)
			assert.True(t, d.HasMedia, tt.body)
			assert.Equal(t, tt.mediaType, d.MediaType, tt.body)
			assert.Empty(t, d.Filename, tt.body)
		}
	})

	t.Run("plain text passes through", func(t *testing.T) {
		d := DetectInline("see you at 5")
		assert.False(t, d.HasMedia)
		assert.Equal(t, "see you at 5", d.Body)
	})

	t.Run("omitted phrase inside sentence is not media", func(t *testing.T) {
		d := DetectInline("he said image omitted twice")
		assert.False(t, d.HasMedia)
	})
}

func TestIsPlaceholderOnly(t *testing.T) {
	assert.True(t, IsPlaceholderOnly("[image: IMG-0001.jpg]"))
	assert.True(t, IsPlaceholderOnly("[video omitted]"))
	assert.False(t, IsPlaceholderOnly("caption\n[image: IMG-0001.jpg]"))
	assert.False(t, IsPlaceholderOnly("[quoted] but more text [here]"))
	assert.False(t, IsPlaceholderOnly("plain text"))
}
