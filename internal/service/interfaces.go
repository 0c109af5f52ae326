package service

import (
	"context"

	"chatvault/internal/models"
)

// MessageStore is the persistence surface the importer depends on.
type MessageStore interface {
	InsertMessages(ctx context.Context, messages []models.ChatMessage) (int, error)
	GetMessageIDs(ctx context.Context, groupID string) (map[string]struct{}, error)
}

// ImportRequest carries one uploaded chat export through the pipeline.
type ImportRequest struct {
	FileName  string
	Data      []byte
	GroupName string
	Limit     int
}

// Importer runs the full ingestion pipeline for an uploaded chat export.
type Importer interface {
	Import(ctx context.Context, req ImportRequest) (*models.ImportStats, error)
}
