package database

// Chat message queries
const (
	CreateSchemaQuery = `
		CREATE TABLE IF NOT EXISTS chat_messages (
			message_id TEXT PRIMARY KEY,
			group_id TEXT NOT NULL,
			group_name TEXT NOT NULL,
			sender_jid TEXT,
			sender_name TEXT,
			body TEXT NOT NULL,
			timestamp DATETIME NOT NULL,
			has_media BOOLEAN NOT NULL DEFAULT FALSE,
			media_type TEXT,
			media_filename TEXT,
			media_url TEXT,
			embedding TEXT,
			source TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE INDEX IF NOT EXISTS idx_chat_messages_group ON chat_messages(group_id);
		CREATE INDEX IF NOT EXISTS idx_chat_messages_group_time ON chat_messages(group_id, timestamp);
		CREATE INDEX IF NOT EXISTS idx_chat_messages_source ON chat_messages(source);
	`

	InsertMessageQuery = `
		INSERT OR IGNORE INTO chat_messages (
			message_id, group_id, group_name, sender_jid, sender_name,
			body, timestamp, has_media, media_type, media_filename,
			media_url, embedding, source
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	SelectMessageIDsByGroupQuery = `
		SELECT message_id FROM chat_messages WHERE group_id = ?
	`

	SelectMessagesByGroupQuery = `
		SELECT message_id, group_id, group_name, sender_jid, sender_name,
		       body, timestamp, has_media, media_type, media_filename,
		       media_url, source, created_at
		FROM chat_messages
		WHERE group_id = ?
		ORDER BY timestamp ASC
	`

	CountMessagesByGroupQuery = `
		SELECT COUNT(*) FROM chat_messages WHERE group_id = ?
	`
)
