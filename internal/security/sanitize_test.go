package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripInvisible(t *testing.T) {
	assert.Equal(t, "hello", StripInvisible("‎hello‏"))
	assert.Equal(t, "photo.jpg", StripInvisible("photo​.jpg"))
	assert.Equal(t, "line\nwith\ttabs", StripInvisible("line\nwith\ttabs"))
	assert.Equal(t, "clean", StripInvisible("cl\x00ean"))
}

func TestSanitizeFileName(t *testing.T) {
	assert.Equal(t, "photo.jpg", SanitizeFileName("photo.jpg"))
	assert.Equal(t, "passwd", SanitizeFileName("../../etc/passwd"))
	assert.Equal(t, "photo.jpg", SanitizeFileName("‎photo.jpg "))
	assert.Equal(t, "file.txt", SanitizeFileName("dir/file.txt"))
}

func TestSanitizeGroupDir(t *testing.T) {
	assert.Equal(t, "family_chat", SanitizeGroupDir("family_chat"))
	assert.Equal(t, "book_club_2024", SanitizeGroupDir("book club/2024"))
	assert.Equal(t, "caf_", SanitizeGroupDir("café"))
}

func TestValidateFilePath(t *testing.T) {
	assert.NoError(t, ValidateFilePath("media/photo.jpg"))
	assert.Error(t, ValidateFilePath(""))
	assert.Error(t, ValidateFilePath("../outside"))
}

func TestValidateConfigPath(t *testing.T) {
	assert.NoError(t, ValidateConfigPath("/etc/chatvault/config.json"))
	assert.NoError(t, ValidateConfigPath("config.json"))
	assert.Error(t, ValidateConfigPath("../config.json"))
}
