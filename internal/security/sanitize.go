package security

import (
	"path/filepath"
	"strings"
	"unicode"
)

// invisibleReplacer strips Unicode format and direction control characters
// that chat exporters embed in filenames and transcript text. These render as
// nothing but break storage paths and string matching.
var invisibleReplacer = strings.NewReplacer(
	"​", "", // Zero width space
	"‌", "", // Zero width non-joiner
	"‍", "", // Zero width joiner
	"‎", "", // Left-to-right mark
	"‏", "", // Right-to-left mark
	"‪", "", // Left-to-right embedding
	"‫", "", // Right-to-left embedding
	"‬", "", // Pop directional formatting
	"‭", "", // Left-to-right override
	"‮", "", // Right-to-left override
	"⁠", "", // Word joiner
	"⁦", "", // Left-to-right isolate
	"⁧", "", // Right-to-left isolate
	"⁨", "", // First strong isolate
	"⁩", "", // Pop directional isolate
	"\uFEFF", "", // Byte order mark
	"­", "", // Soft hyphen
)

// StripInvisible removes invisible Unicode control and formatting characters.
func StripInvisible(s string) string {
	s = invisibleReplacer.Replace(s)
	return strings.Map(func(r rune) rune {
		if r != '\n' && r != '\t' && unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}

// SanitizeFileName strips invisible characters and any path components from a
// filename so it is safe to use as a storage object name.
func SanitizeFileName(name string) string {
	name = StripInvisible(name)
	name = filepath.Base(name)
	name = strings.TrimSpace(name)
	return name
}

// SanitizeGroupDir converts a group id into a storage folder name: invisible
// characters removed, path separators and spaces collapsed to underscores.
func SanitizeGroupDir(groupID string) string {
	s := StripInvisible(groupID)
	s = strings.TrimSpace(s)
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '_' || r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
