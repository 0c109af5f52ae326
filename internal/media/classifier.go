package media

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"chatvault/internal/constants"
)

// Detection is the result of inline media detection on a message body.
type Detection struct {
	HasMedia  bool
	MediaType string
	Filename  string // empty for "omitted" placeholders, no bytes exist for those
	Body      string // rewritten body
}

var (
	attachedTagRegex = regexp.MustCompile(`(?is)^(.*?)<\s*attached:\s*([^>]+)>\s*$`)
	bareFileRegex    = regexp.MustCompile(`(?i)^([^/\\<>:"|?*\n]+\.[a-z0-9]{2,5})(?:\s*\(file attached\))?$`)
)

// omittedPhrases maps exporter placeholder phrases to media types. Matched
// case-insensitively against the whole trimmed body.
var omittedPhrases = []struct {
	phrase    string
	mediaType string
}{
	{"image omitted", constants.MediaTypeImage},
	{"video omitted", constants.MediaTypeVideo},
	{"audio omitted", constants.MediaTypeAudio},
	{"voice message omitted", constants.MediaTypeAudio},
	{"document omitted", constants.MediaTypeDocument},
	{"sticker omitted", constants.MediaTypeSticker},
	{"gif omitted", constants.MediaTypeGif},
	{"contact card omitted", constants.MediaTypeContact},
	{"<media omitted>", constants.MediaTypeFile},
	{"media omitted", constants.MediaTypeFile},
}

// TypeByExtension classifies a filename into a media type by its extension.
// Unknown extensions classify as the generic file type.
func TypeByExtension(filename string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	switch {
	case hasExtension(ext, constants.ImageExtensions):
		return constants.MediaTypeImage
	case hasExtension(ext, constants.VideoExtensions):
		return constants.MediaTypeVideo
	case hasExtension(ext, constants.AudioExtensions):
		return constants.MediaTypeAudio
	case hasExtension(ext, constants.DocumentExtensions):
		return constants.MediaTypeDocument
	case hasExtension(ext, constants.ContactExtensions):
		return constants.MediaTypeContact
	default:
		return constants.MediaTypeFile
	}
}

func hasExtension(ext string, group []string) bool {
	for _, e := range group {
		if e == ext {
			return true
		}
	}
	return false
}

// MimeByExtension returns the MIME type for a filename based on its extension.
func MimeByExtension(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if mime, ok := constants.MimeTypes[ext]; ok {
		return mime
	}
	return constants.DefaultMimeType
}

// IsKnownMediaExtension reports whether the filename carries an extension the
// classifier maps to a concrete media type.
func IsKnownMediaExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	_, ok := constants.MimeTypes[ext]
	return ok
}

// DetectInline inspects a message body for media references and rewrites the
// body so it always holds something display-safe. Rules are tried in order:
// attachment tag, bare filename line, exporter "omitted" phrase.
func DetectInline(body string) Detection {
	trimmed := strings.TrimSpace(body)

	if m := attachedTagRegex.FindStringSubmatch(trimmed); m != nil {
		caption := strings.TrimSpace(m[1])
		filename := strings.TrimSpace(m[2])
		mediaType := TypeByExtension(filename)
		marker := fmt.Sprintf("[%s: %s]", mediaType, filename)
		rewritten := marker
		if caption != "" {
			rewritten = caption + "\n" + marker
		}
		return Detection{HasMedia: true, MediaType: mediaType, Filename: filename, Body: rewritten}
	}

	if m := bareFileRegex.FindStringSubmatch(trimmed); m != nil {
		filename := strings.TrimSpace(m[1])
		if IsKnownMediaExtension(filename) {
			mediaType := TypeByExtension(filename)
			return Detection{
				HasMedia:  true,
				MediaType: mediaType,
				Filename:  filename,
				Body:      fmt.Sprintf("[%s: %s]", mediaType, filename),
			}
		}
	}

	lower := strings.ToLower(trimmed)
	for _, p := range omittedPhrases {
		if lower == p.phrase {
			return Detection{
				HasMedia:  true,
				MediaType: p.mediaType,
				Body:      fmt.Sprintf("[%s omitted]", p.mediaType),
			}
		}
	}

	return Detection{Body: body}
}

// IsPlaceholderOnly reports whether a body is nothing but a bracketed media
// marker, with no caption or other text. Such bodies carry no semantic
// content worth embedding.
func IsPlaceholderOnly(body string) bool {
	trimmed := strings.TrimSpace(body)
	if !strings.HasPrefix(trimmed, "[") || !strings.HasSuffix(trimmed, "]") {
		return false
	}
	// A caption rewrites to "caption\n[marker]", so any interior newline or
	// closing bracket before the end means there is real text.
	inner := trimmed[1 : len(trimmed)-1]
	return !strings.ContainsAny(inner, "[]\n")
}
