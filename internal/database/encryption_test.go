package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"chatvault/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	t.Setenv("CHATVAULT_ENABLE_ENCRYPTION", "true")
	t.Setenv("CHATVAULT_ENCRYPTION_SECRET", "test-secret-key-32-characters-long!")

	enc, err := NewEncryptor()
	require.NoError(t, err)

	plaintext := "the fox jumps over the lazy dog"
	ciphertext, err := enc.Encrypt(plaintext)
	require.NoError(t, err)
	assert.NotEqual(t, plaintext, ciphertext)

	decrypted, err := enc.Decrypt(ciphertext)
	require.NoError(t, err)
	assert.Equal(t, plaintext, decrypted)
}

func TestEncryptorRejectsShortSecret(t *testing.T) {
	t.Setenv("CHATVAULT_ENABLE_ENCRYPTION", "true")
	t.Setenv("CHATVAULT_ENCRYPTION_SECRET", "too-short")

	_, err := NewEncryptor()
	assert.Error(t, err)
}

func TestEncryptPassThroughWhenDisabled(t *testing.T) {
	t.Setenv("CHATVAULT_ENABLE_ENCRYPTION", "false")

	enc, err := NewEncryptor()
	require.NoError(t, err)

	out, err := enc.Encrypt("plain")
	require.NoError(t, err)
	assert.Equal(t, "plain", out)

	out, err = enc.Decrypt("plain")
	require.NoError(t, err)
	assert.Equal(t, "plain", out)
}

func TestDatabaseWithEncryption(t *testing.T) {
	t.Setenv("CHATVAULT_ENABLE_ENCRYPTION", "true")
	t.Setenv("CHATVAULT_ENCRYPTION_SECRET", "test-secret-key-32-characters-long!")

	db, err := New(filepath.Join(t.TempDir(), "enc.db"))
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	msg := models.ChatMessage{
		MessageID:  "g_1_0",
		GroupID:    "g",
		GroupName:  "G",
		SenderJID:  "alice",
		SenderName: "Alice",
		Body:       "secret text",
		Timestamp:  time.Now(),
		Source:     models.SourceChatExport,
	}

	_, err = db.InsertMessages(ctx, []models.ChatMessage{msg})
	require.NoError(t, err)

	// Raw row holds ciphertext, read path transparently decrypts.
	var rawBody string
	require.NoError(t, db.db.QueryRow(`SELECT body FROM chat_messages WHERE message_id = ?`, "g_1_0").Scan(&rawBody))
	assert.NotEqual(t, "secret text", rawBody)

	messages, err := db.GetMessagesByGroup(ctx, "g")
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "secret text", messages[0].Body)
	assert.Equal(t, "Alice", messages[0].SenderName)
}
