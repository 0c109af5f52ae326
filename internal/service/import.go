package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"chatvault/internal/archive"
	apperrors "chatvault/internal/errors"
	"chatvault/internal/metrics"
	"chatvault/internal/models"
	"chatvault/internal/parser"
	"chatvault/internal/tracing"
	"chatvault/pkg/embedding"
	"chatvault/pkg/storage"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

// importService wires the pipeline stages together: extract, parse,
// deduplicate, upload media, embed, persist. Stage failures past parsing are
// degraded conditions reported in the stats, not request errors.
type importService struct {
	store     MessageStore
	storage   storage.Client
	embedder  embedding.Embedder
	extractor *archive.Extractor
	parser    *parser.Parser
	cfg       *models.Config
	logger    *logrus.Logger
}

// NewImportService creates the import pipeline. storageClient and embedder may
// be nil when the corresponding backend is not configured.
func NewImportService(
	store MessageStore,
	storageClient storage.Client,
	embedder embedding.Embedder,
	cfg *models.Config,
	logger *logrus.Logger,
) Importer {
	if logger == nil {
		logger = logrus.New()
	}
	return &importService{
		store:     store,
		storage:   storageClient,
		embedder:  embedder,
		extractor: archive.NewExtractor(logger),
		parser:    parser.New(logger),
		cfg:       cfg,
		logger:    logger,
	}
}

func (s *importService) Import(ctx context.Context, req ImportRequest) (*models.ImportStats, error) {
	start := time.Now()
	ctx, span := tracing.StartSpan(ctx, "import",
		attribute.String("group_name", req.GroupName),
		attribute.Int("upload_size", len(req.Data)),
	)
	defer span.End()

	metrics.IncrementCounter("import_requests_total", nil, "Total import requests")

	if strings.TrimSpace(req.GroupName) == "" {
		return nil, apperrors.New(apperrors.ErrCodeInvalidInput, "group name is required").
			WithUserMessage("A group name must be provided")
	}
	if len(req.Data) == 0 {
		return nil, apperrors.New(apperrors.ErrCodeInvalidInput, "upload is empty").
			WithUserMessage("The uploaded file is empty")
	}

	extracted, err := s.extractor.Extract(req.Data, req.FileName)
	if err != nil {
		tracing.RecordError(ctx, err)
		switch {
		case errors.Is(err, archive.ErrNoTranscript):
			return nil, apperrors.Wrap(err, apperrors.ErrCodeNoTranscript, "archive has no transcript").
				WithUserMessage("No chat transcript found in the uploaded archive")
		case errors.Is(err, archive.ErrCorruptArchive):
			return nil, apperrors.Wrap(err, apperrors.ErrCodeCorruptArchive, "archive is unreadable").
				WithUserMessage("The uploaded archive could not be read")
		default:
			return nil, apperrors.Wrap(err, apperrors.ErrCodeInternalError, "archive extraction failed")
		}
	}

	messages := s.parser.Parse(extracted.ChatText, req.GroupName, req.Limit)
	if len(messages) == 0 {
		return nil, apperrors.New(apperrors.ErrCodeEmptyImport, "no messages parsed from transcript").
			WithUserMessage("No chat messages could be parsed from the upload")
	}

	groupID := parser.GroupID(req.GroupName)
	stats := &models.ImportStats{
		Parsed:         len(messages),
		MediaInZip:     len(extracted.Media),
		StorageEnabled: s.storage != nil,
		MediaBreakdown: map[string]int{},
	}

	existing, err := s.store.GetMessageIDs(ctx, groupID)
	if err != nil {
		tracing.RecordError(ctx, err)
		return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabaseQuery, "failed to load existing message ids")
	}

	var fresh []models.ChatMessage
	for _, msg := range messages {
		if _, dup := existing[msg.MessageID]; dup {
			stats.SkippedDuplicate++
			continue
		}
		fresh = append(fresh, msg)
	}

	for i := range fresh {
		if !fresh[i].HasMedia {
			continue
		}
		stats.HasMedia++
		if fresh[i].MediaType != "" {
			stats.MediaBreakdown[fresh[i].MediaType]++
		}
		// Filenames that refer to files missing from the archive are parse
		// artifacts and are not persisted.
		if fresh[i].MediaFilename != "" {
			if _, ok := extracted.Media[fresh[i].MediaFilename]; !ok {
				fresh[i].MediaFilename = ""
			}
		}
	}

	if len(fresh) == 0 {
		stats.Message = "all messages already imported"
		s.logger.WithFields(logrus.Fields{
			"group_id": groupID,
			"parsed":   stats.Parsed,
		}).Info("Import short-circuited, no new messages")
		return stats, nil
	}

	tracing.AddSpanAttributes(ctx,
		attribute.Int("parsed", stats.Parsed),
		attribute.Int("new", len(fresh)),
	)

	s.uploadMedia(ctx, fresh, extracted.Media, groupID, stats)
	s.embedAndPersist(ctx, fresh, extracted.Media, stats)

	stats.Message = summarize(stats)

	metrics.AddToCounter("messages_inserted_total", float64(stats.Inserted), nil, "Total messages inserted")
	metrics.RecordTimer("import_duration", time.Since(start), map[string]string{"group_id": groupID})

	s.logger.WithFields(logrus.Fields{
		"group_id":     groupID,
		"parsed":       stats.Parsed,
		"duplicates":   stats.SkippedDuplicate,
		"inserted":     stats.Inserted,
		"embedded":     stats.Embedded,
		"media_in_zip": stats.MediaInZip,
		"uploaded":     stats.MediaUploaded,
		"errors":       stats.Errors,
		"duration_ms":  time.Since(start).Milliseconds(),
	}).Info("Import completed")

	return stats, nil
}

func summarize(stats *models.ImportStats) string {
	msg := fmt.Sprintf("imported %d of %d messages", stats.Inserted, stats.Parsed)
	if stats.SkippedDuplicate > 0 {
		msg += fmt.Sprintf(" (%d duplicates skipped)", stats.SkippedDuplicate)
	}
	if !stats.StorageEnabled && stats.MediaInZip > 0 {
		msg += "; media storage unavailable"
	}
	if stats.Errors > 0 {
		msg += fmt.Sprintf("; %d errors", stats.Errors)
	}
	return msg
}
