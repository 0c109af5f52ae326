package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"

	"chatvault/internal/models"
	"chatvault/internal/security"

	_ "github.com/mattn/go-sqlite3"
)

// Database persists parsed chat messages in SQLite. Inserts are keyed on
// message_id and ignore conflicts, which makes repeated imports of the same
// archive safe.
type Database struct {
	db        *sql.DB
	encryptor *encryptor
}

func New(dbPath string) (*Database, error) {
	if len(dbPath) == 0 || dbPath[0] == '\x00' {
		return nil, fmt.Errorf("invalid database path")
	}

	if err := security.ValidateConfigPath(dbPath); err != nil {
		return nil, fmt.Errorf("invalid database path: %w", err)
	}

	file, err := os.OpenFile(dbPath, os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to create database file: %w", err)
	}
	if err := file.Close(); err != nil {
		return nil, fmt.Errorf("failed to close database file: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to ping database: %w (close error: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.Exec(CreateSchemaQuery); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to initialize schema: %w (close error: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	encryptor, err := NewEncryptor()
	if err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to initialize encryptor: %w (close error: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to initialize encryptor: %w", err)
	}

	return &Database{db: db, encryptor: encryptor}, nil
}

func (d *Database) Close() error {
	return d.db.Close()
}

// InsertMessages upserts one batch of messages inside a transaction and
// returns how many rows were actually inserted. Duplicate message ids no-op.
func (d *Database) InsertMessages(ctx context.Context, messages []models.ChatMessage) (int, error) {
	if len(messages) == 0 {
		return 0, nil
	}

	var inserted int
	err := withRetry(ctx, "insert messages", func() error {
		inserted = 0

		tx, err := d.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		stmt, err := tx.PrepareContext(ctx, InsertMessageQuery)
		if err != nil {
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		defer stmt.Close()

		for _, msg := range messages {
			body, err := d.encryptor.Encrypt(msg.Body)
			if err != nil {
				return fmt.Errorf("failed to encrypt message body: %w", err)
			}
			senderName, err := d.encryptor.Encrypt(msg.SenderName)
			if err != nil {
				return fmt.Errorf("failed to encrypt sender name: %w", err)
			}

			embedding, err := encodeEmbedding(msg.Embedding)
			if err != nil {
				return fmt.Errorf("failed to encode embedding: %w", err)
			}

			res, err := stmt.ExecContext(ctx,
				msg.MessageID,
				msg.GroupID,
				msg.GroupName,
				msg.SenderJID,
				senderName,
				body,
				msg.Timestamp,
				msg.HasMedia,
				nullableString(msg.MediaType),
				nullableString(msg.MediaFilename),
				msg.MediaURL,
				embedding,
				msg.Source,
			)
			if err != nil {
				return fmt.Errorf("failed to insert message %s: %w", msg.MessageID, err)
			}

			rows, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("failed to read rows affected: %w", err)
			}
			inserted += int(rows)
		}

		return tx.Commit()
	})

	if err != nil {
		return 0, err
	}
	return inserted, nil
}

// GetMessageIDs returns the set of message ids already persisted for a group.
func (d *Database) GetMessageIDs(ctx context.Context, groupID string) (map[string]struct{}, error) {
	rows, err := d.db.QueryContext(ctx, SelectMessageIDsByGroupQuery, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to query message ids: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan message id: %w", err)
		}
		ids[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate message ids: %w", err)
	}

	return ids, nil
}

// GetMessagesByGroup returns all persisted messages for a group in
// chronological order. Embeddings are not loaded.
func (d *Database) GetMessagesByGroup(ctx context.Context, groupID string) ([]models.ChatMessage, error) {
	rows, err := d.db.QueryContext(ctx, SelectMessagesByGroupQuery, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []models.ChatMessage
	for rows.Next() {
		var msg models.ChatMessage
		var mediaType, mediaFilename, mediaURL sql.NullString
		var createdAt sql.NullTime
		if err := rows.Scan(
			&msg.MessageID, &msg.GroupID, &msg.GroupName, &msg.SenderJID, &msg.SenderName,
			&msg.Body, &msg.Timestamp, &msg.HasMedia, &mediaType, &mediaFilename,
			&mediaURL, &msg.Source, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		if createdAt.Valid {
			msg.CreatedAt = &createdAt.Time
		}

		if msg.Body, err = d.encryptor.Decrypt(msg.Body); err != nil {
			return nil, fmt.Errorf("failed to decrypt message body: %w", err)
		}
		if msg.SenderName, err = d.encryptor.Decrypt(msg.SenderName); err != nil {
			return nil, fmt.Errorf("failed to decrypt sender name: %w", err)
		}

		msg.MediaType = mediaType.String
		msg.MediaFilename = mediaFilename.String
		if mediaURL.Valid {
			msg.MediaURL = &mediaURL.String
		}

		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}

	return messages, nil
}

// CountMessages returns the number of persisted messages for a group.
func (d *Database) CountMessages(ctx context.Context, groupID string) (int, error) {
	var count int
	if err := d.db.QueryRowContext(ctx, CountMessagesByGroupQuery, groupID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count messages: %w", err)
	}
	return count, nil
}

func encodeEmbedding(vector []float32) (sql.NullString, error) {
	if len(vector) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(vector)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func nullableString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
