package service

import (
	"context"
	"fmt"
	"time"

	"chatvault/internal/media"
	"chatvault/internal/metrics"
	"chatvault/internal/models"
	"chatvault/internal/tracing"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

// embedAndPersist processes new messages in batches: each batch is embedded,
// then written in one transaction. A failed embedding call degrades the batch
// to null vectors; a failed insert drops the batch and is counted as an error.
func (s *importService) embedAndPersist(ctx context.Context, messages []models.ChatMessage, entries map[string]models.MediaEntry, stats *models.ImportStats) {
	ctx, span := tracing.StartSpan(ctx, "messages.persist",
		attribute.Int("messages", len(messages)),
	)
	defer span.End()

	substituteDocumentText(messages, entries)

	batchSize := s.cfg.Embedding.BatchSize
	delay := time.Duration(s.cfg.Embedding.BatchDelayMs) * time.Millisecond

	for start := 0; start < len(messages); start += batchSize {
		end := start + batchSize
		if end > len(messages) {
			end = len(messages)
		}
		batch := messages[start:end]

		if start > 0 {
			select {
			case <-ctx.Done():
				stats.Errors += len(messages) - start
				return
			case <-time.After(delay):
			}
		}

		s.embedBatch(ctx, batch, stats)

		inserted, err := s.store.InsertMessages(ctx, batch)
		if err != nil {
			stats.Errors += len(batch)
			tracing.RecordError(ctx, err)
			s.logger.WithFields(logrus.Fields{
				"batch_start": start,
				"batch_size":  len(batch),
			}).WithError(err).Error("Failed to persist message batch")
			continue
		}
		stats.Inserted += inserted
	}
}

// embedBatch computes embeddings for the embeddable subset of one batch.
// Placeholder-only bodies carry no semantic content and are left without a
// vector.
func (s *importService) embedBatch(ctx context.Context, batch []models.ChatMessage, stats *models.ImportStats) {
	if s.embedder == nil {
		return
	}

	var texts []string
	var indices []int
	for i := range batch {
		if media.IsPlaceholderOnly(batch[i].Body) {
			continue
		}
		texts = append(texts, batch[i].Body)
		indices = append(indices, i)
	}
	if len(texts) == 0 {
		return
	}

	vectors, err := s.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		stats.Errors++
		s.logger.WithFields(logrus.Fields{
			"batch_size": len(texts),
		}).WithError(err).Warn("Embedding batch failed, storing without vectors")
		metrics.IncrementCounter("embedding_failures_total", nil, "Failed embedding batches")
		return
	}

	for j, idx := range indices {
		batch[idx].Embedding = vectors[j]
		stats.Embedded++
	}
	metrics.AddToCounter("messages_embedded_total", float64(len(indices)), nil, "Total messages embedded")
}

// substituteDocumentText rewrites the body of document messages whose PDF
// yielded extracted text: the text replaces the bracketed placeholder, with a
// trailing filename marker, so the document content is persisted and embedded.
func substituteDocumentText(messages []models.ChatMessage, entries map[string]models.MediaEntry) {
	for i := range messages {
		msg := &messages[i]
		if msg.MediaFilename == "" {
			continue
		}
		entry, ok := entries[msg.MediaFilename]
		if !ok || entry.ExtractedText == "" {
			continue
		}
		msg.Body = fmt.Sprintf("%s\n[PDF: %s]", entry.ExtractedText, msg.MediaFilename)
	}
}
