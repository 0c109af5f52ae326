package archive

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"chatvault/internal/constants"
	"chatvault/internal/media"
	"chatvault/internal/models"
	"chatvault/internal/security"

	"github.com/sirupsen/logrus"
)

var (
	// ErrCorruptArchive indicates the upload could not be read as a zip.
	ErrCorruptArchive = errors.New("corrupt or unreadable archive")
	// ErrNoTranscript indicates a readable zip with no chat transcript inside.
	ErrNoTranscript = errors.New("no chat transcript found in archive")
)

// Result holds the split output of an archive extraction: the transcript text
// and every media file keyed by its name inside the archive.
type Result struct {
	ChatText string
	Media    map[string]models.MediaEntry
}

// Extractor splits an uploaded chat export into transcript text and media.
type Extractor struct {
	logger *logrus.Logger
}

// NewExtractor creates a new archive extractor.
func NewExtractor(logger *logrus.Logger) *Extractor {
	if logger == nil {
		logger = logrus.New()
	}
	return &Extractor{logger: logger}
}

// Extract processes raw upload bytes. A ".zip" filename selects zip handling;
// anything else is treated as a bare transcript.
func (e *Extractor) Extract(data []byte, filename string) (*Result, error) {
	if strings.EqualFold(path.Ext(filename), ".zip") {
		return e.extractZip(data)
	}

	return &Result{
		ChatText: stripBOM(string(data)),
		Media:    map[string]models.MediaEntry{},
	}, nil
}

func (e *Extractor) extractZip(data []byte) (*Result, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptArchive, err)
	}

	var files []*zip.File
	for _, f := range reader.File {
		if f.FileInfo().IsDir() {
			continue
		}
		base := path.Base(f.Name)
		if strings.HasPrefix(base, ".") || strings.HasPrefix(f.Name, "__MACOSX/") {
			continue
		}
		if err := security.ValidateFilePath(f.Name); err != nil {
			e.logger.WithField("file_name", f.Name).Warn("Skipping archive entry with unsafe path")
			continue
		}
		files = append(files, f)
	}

	transcript := findTranscript(files)
	if transcript == nil {
		return nil, ErrNoTranscript
	}

	chatData, err := readEntry(transcript)
	if err != nil {
		return nil, fmt.Errorf("%w: reading transcript %s: %v", ErrCorruptArchive, transcript.Name, err)
	}

	result := &Result{
		ChatText: stripBOM(string(chatData)),
		Media:    map[string]models.MediaEntry{},
	}

	for _, f := range files {
		if f == transcript {
			continue
		}

		entryData, err := readEntry(f)
		if err != nil {
			return nil, fmt.Errorf("%w: reading entry %s: %v", ErrCorruptArchive, f.Name, err)
		}

		base := path.Base(f.Name)
		entry := models.MediaEntry{
			Data:      entryData,
			MimeType:  media.MimeByExtension(base),
			MediaType: media.TypeByExtension(base),
		}

		if entry.MimeType == "application/pdf" {
			if text, err := extractPDFText(entryData); err != nil {
				e.logger.WithFields(logrus.Fields{
					"file_name": base,
				}).WithError(err).Warn("PDF text extraction failed")
			} else if len(text) >= constants.MinPDFTextLength {
				entry.ExtractedText = text
			}
		}

		result.Media[base] = entry
	}

	return result, nil
}

// findTranscript locates the chat transcript entry: an explicit _chat.txt, or
// the sole .txt member when the archive holds at most two entries.
func findTranscript(files []*zip.File) *zip.File {
	for _, f := range files {
		if path.Base(f.Name) == "_chat.txt" {
			return f
		}
	}

	if len(files) <= 2 {
		var txt *zip.File
		for _, f := range files {
			if strings.EqualFold(path.Ext(f.Name), ".txt") {
				if txt != nil {
					return nil
				}
				txt = f
			}
		}
		return txt
	}

	return nil
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func stripBOM(s string) string {
	return strings.TrimPrefix(s, "\uFEFF")
}
