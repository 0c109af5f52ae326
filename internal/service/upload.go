package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"chatvault/internal/metrics"
	"chatvault/internal/models"
	"chatvault/internal/retry"
	"chatvault/internal/security"
	"chatvault/internal/tracing"
	"chatvault/pkg/storage"

	"github.com/panjf2000/ants/v2"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

// uploadMedia pushes archive media referenced by new messages to object
// storage and backfills media URLs. Uploads run on a bounded worker pool in
// windows of pool-size tasks; a missing bucket disables storage for the rest
// of the run instead of failing the import.
func (s *importService) uploadMedia(ctx context.Context, messages []models.ChatMessage, entries map[string]models.MediaEntry, groupID string, stats *models.ImportStats) {
	if s.storage == nil {
		return
	}

	var targets []int
	for i := range messages {
		if messages[i].HasMedia && messages[i].MediaFilename != "" {
			targets = append(targets, i)
		}
	}
	if len(targets) == 0 {
		return
	}

	ctx, span := tracing.StartSpan(ctx, "media.upload",
		attribute.Int("files", len(targets)),
	)
	defer span.End()

	concurrency := s.cfg.Storage.UploadConcurrency
	pool, err := ants.NewPool(concurrency)
	if err != nil {
		s.logger.WithError(err).Error("Failed to create upload worker pool")
		stats.Errors += len(targets)
		return
	}
	defer pool.Release()

	policy := retry.Policy{
		Base:     time.Duration(s.cfg.Retry.InitialBackoffMs) * time.Millisecond,
		Cap:      time.Duration(s.cfg.Retry.MaxBackoffMs) * time.Millisecond,
		Factor:   2.0,
		Attempts: s.cfg.Retry.MaxAttempts,
		Jitter:   true,
	}

	groupDir := security.SanitizeGroupDir(groupID)

	var mu sync.Mutex
	bucketMissing := false

	for window := 0; window < len(targets); window += concurrency {
		end := window + concurrency
		if end > len(targets) {
			end = len(targets)
		}

		var wg sync.WaitGroup
		for _, idx := range targets[window:end] {
			mu.Lock()
			aborted := bucketMissing
			mu.Unlock()
			if aborted || ctx.Err() != nil {
				break
			}

			idx := idx
			wg.Add(1)
			submitErr := pool.Submit(func() {
				defer wg.Done()

				msg := &messages[idx]
				entry := entries[msg.MediaFilename]
				objectPath := groupDir + "/" + security.SanitizeFileName(msg.MediaFilename)

				var url string
				uploadErr := policy.Do(ctx, func() error {
					var err error
					url, err = s.storage.Upload(ctx, objectPath, entry.Data, entry.MimeType)
					if errors.Is(err, storage.ErrBucketNotFound) {
						// Not transient, give up immediately.
						mu.Lock()
						bucketMissing = true
						mu.Unlock()
						return nil
					}
					return err
				})

				mu.Lock()
				defer mu.Unlock()
				switch {
				case bucketMissing:
				case uploadErr != nil:
					stats.Errors++
					s.logger.WithFields(logrus.Fields{
						"file_name": msg.MediaFilename,
						"group_id":  groupID,
					}).WithError(uploadErr).Warn("Media upload failed")
					metrics.IncrementCounter("media_upload_failures_total", nil, "Failed media uploads")
				default:
					msg.MediaURL = &url
					stats.MediaUploaded++
					metrics.IncrementCounter("media_uploads_total", nil, "Successful media uploads")
				}
			})
			if submitErr != nil {
				wg.Done()
				mu.Lock()
				stats.Errors++
				mu.Unlock()
			}
		}
		wg.Wait()

		if bucketMissing || ctx.Err() != nil {
			break
		}
	}

	switch {
	case bucketMissing:
		stats.StorageEnabled = false
		s.logger.WithFields(logrus.Fields{
			"bucket": s.cfg.Storage.Bucket,
		}).Warn("Storage bucket not found, continuing without media URLs")
	case stats.MediaUploaded == 0:
		// Every attempted upload failed, report storage as degraded.
		stats.StorageEnabled = false
		s.logger.WithFields(logrus.Fields{
			"bucket": s.cfg.Storage.Bucket,
			"files":  len(targets),
		}).Warn("All media uploads failed, storage marked unavailable")
	}
}
