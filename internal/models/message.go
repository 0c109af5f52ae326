package models

import (
	"time"
)

// SourceChatExport tags rows produced by the chat-export ingestion path so
// they can be told apart from rows written by other ingestion paths (e.g. email).
const SourceChatExport = "whatsapp_export"

// ChatMessage is a single parsed transcript message. It is produced by the
// parser, enriched by the uploader and embedder, and written once by the
// persistence layer.
type ChatMessage struct {
	MessageID     string     `db:"message_id" json:"message_id"`
	GroupID       string     `db:"group_id" json:"group_id"`
	GroupName     string     `db:"group_name" json:"group_name"`
	SenderJID     string     `db:"sender_jid" json:"sender_jid"`
	SenderName    string     `db:"sender_name" json:"sender_name"`
	Body          string     `db:"body" json:"body"`
	Timestamp     time.Time  `db:"timestamp" json:"timestamp"`
	HasMedia      bool       `db:"has_media" json:"has_media"`
	MediaType     string     `db:"media_type" json:"media_type,omitempty"`
	MediaFilename string     `db:"media_filename" json:"media_filename,omitempty"`
	MediaURL      *string    `db:"media_url" json:"media_url,omitempty"`
	Embedding     []float32  `db:"-" json:"-"`
	Source        string     `db:"source" json:"source"`
	CreatedAt     *time.Time `db:"created_at" json:"-"`
}

// MediaEntry is one media file pulled out of an uploaded archive.
type MediaEntry struct {
	Data          []byte
	MimeType      string
	MediaType     string
	ExtractedText string // populated for PDFs when text extraction succeeds
}

// ImportStats is the single result record of an import run. Degraded
// conditions (failed uploads, embedding outages, bad batches) surface here
// rather than as request errors.
type ImportStats struct {
	Parsed           int            `json:"parsed"`
	SkippedDuplicate int            `json:"skipped_duplicates"`
	HasMedia         int            `json:"has_media"`
	MediaInZip       int            `json:"media_in_zip"`
	MediaUploaded    int            `json:"media_uploaded_to_storage"`
	StorageEnabled   bool           `json:"storage_enabled"`
	MediaBreakdown   map[string]int `json:"media_breakdown_by_type"`
	Embedded         int            `json:"embedded"`
	Inserted         int            `json:"inserted"`
	Errors           int            `json:"errors"`
	Message          string         `json:"message"`
}
