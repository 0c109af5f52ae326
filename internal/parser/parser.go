package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"chatvault/internal/media"
	"chatvault/internal/models"
	"chatvault/internal/security"

	"github.com/sirupsen/logrus"
)

// Two transcript grammars are recognized, tried in this order:
//
//	[D/M/Y, H:MM[:SS][ AM/PM]] Sender: body
//	D/M/Y, H:MM[:SS][ AM/PM] - Sender: body
//
// A line matching neither while a message is pending is a continuation of
// that message's body.
var (
	bracketedLineRegex = regexp.MustCompile(
		`^\[(\d{1,2})/(\d{1,2})/(\d{2,4}),?\s+(\d{1,2}):(\d{2})(?::(\d{2}))?\s*([AaPp][Mm])?\]\s*([^:]+?):\s?(.*)$`)
	dashedLineRegex = regexp.MustCompile(
		`^(\d{1,2})/(\d{1,2})/(\d{2,4}),?\s+(\d{1,2}):(\d{2})(?::(\d{2}))?\s*([AaPp][Mm])?\s+-\s+([^:]+?):\s?(.*)$`)

	// Lines that carry a timestamp but no "Sender:" part are exporter
	// system notices (Android writes them without a sender). They terminate
	// a pending message and are otherwise ignored.
	bracketedSystemRegex = regexp.MustCompile(
		`^\[\d{1,2}/\d{1,2}/\d{2,4},?\s+\d{1,2}:\d{2}(?::\d{2})?\s*(?:[AaPp][Mm])?\]`)
	dashedSystemRegex = regexp.MustCompile(
		`^\d{1,2}/\d{1,2}/\d{2,4},?\s+\d{1,2}:\d{2}(?::\d{2})?\s*(?:[AaPp][Mm])?\s+-\s`)
)

var systemMessagePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)end-to-end encrypted`),
	regexp.MustCompile(`(?i)created (this group|group ")`),
	regexp.MustCompile(`(?i)^you were added$`),
	regexp.MustCompile(`(?i)added you$`),
	regexp.MustCompile(`(?i)joined using this group's invite link$`),
	regexp.MustCompile(`(?i) left$`),
	regexp.MustCompile(`(?i)^you removed `),
	regexp.MustCompile(`(?i)removed you$`),
	regexp.MustCompile(`(?i)^this message was deleted\.?$`),
	regexp.MustCompile(`(?i)^you deleted this message\.?$`),
	regexp.MustCompile(`(?i)^missed voice call$`),
	regexp.MustCompile(`(?i)^missed video call$`),
	regexp.MustCompile(`(?i)changed the subject`),
	regexp.MustCompile(`(?i)changed this group's icon`),
	regexp.MustCompile(`(?i)changed the group description`),
	regexp.MustCompile(`(?i)changed their phone number`),
	regexp.MustCompile(`(?i)^your security code with .* changed`),
}

// pending accumulates the lines of one in-progress message between grammar
// matches. The parser is a two-state machine: idle (no pending) and
// accumulating (pending != nil).
type pending struct {
	day, month, year   string
	hour, minute, secs string
	ampm               string
	sender             string
	lines              []string
}

// Parser turns raw transcript text into ordered ChatMessage records.
type Parser struct {
	logger *logrus.Logger
}

// New creates a transcript parser.
func New(logger *logrus.Logger) *Parser {
	if logger == nil {
		logger = logrus.New()
	}
	return &Parser{logger: logger}
}

// GroupID derives the deduplication partition key from a human group name:
// lower-cased, whitespace runs collapsed to single underscores.
func GroupID(groupName string) string {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(groupName)))
	return strings.Join(fields, "_")
}

// Parse converts transcript text into messages, oldest first. When limit is
// positive and more messages parse than the limit, only the chronologically
// most recent limit messages are kept, still in order.
func (p *Parser) Parse(chatText, groupName string, limit int) []models.ChatMessage {
	groupID := GroupID(groupName)
	lines := splitLines(chatText)

	var messages []models.ChatMessage
	var cur *pending

	flush := func() {
		if cur == nil {
			return
		}
		msg, ok := p.finalize(cur, groupID, groupName, len(messages))
		if ok {
			messages = append(messages, msg)
		}
		cur = nil
	}

	for _, line := range lines {
		if m := bracketedLineRegex.FindStringSubmatch(line); m != nil {
			flush()
			cur = newPending(m)
			continue
		}
		if m := dashedLineRegex.FindStringSubmatch(line); m != nil {
			flush()
			cur = newPending(m)
			continue
		}
		if bracketedSystemRegex.MatchString(line) || dashedSystemRegex.MatchString(line) {
			flush()
			continue
		}
		if cur != nil {
			cur.lines = append(cur.lines, line)
		}
	}
	flush()

	if limit > 0 && len(messages) > limit {
		messages = messages[len(messages)-limit:]
	}

	return messages
}

func newPending(m []string) *pending {
	return &pending{
		day:    m[1],
		month:  m[2],
		year:   m[3],
		hour:   m[4],
		minute: m[5],
		secs:   m[6],
		ampm:   m[7],
		sender: strings.TrimSpace(m[8]),
		lines:  []string{m[9]},
	}
}

// finalize flushes a pending message: timestamp parse, body trim, system
// message suppression, inline media detection. Returns false when the message
// is dropped.
func (p *Parser) finalize(cur *pending, groupID, groupName string, seq int) (models.ChatMessage, bool) {
	ts, err := parseTimestamp(cur)
	if err != nil {
		p.logger.WithError(err).Debug("Dropping message with unparsable timestamp")
		return models.ChatMessage{}, false
	}

	body := strings.TrimSpace(strings.Join(cur.lines, "\n"))
	if body == "" {
		return models.ChatMessage{}, false
	}

	for _, pattern := range systemMessagePatterns {
		if pattern.MatchString(body) {
			return models.ChatMessage{}, false
		}
	}

	detection := media.DetectInline(body)
	body = strings.TrimSpace(detection.Body)
	if body == "" && !detection.HasMedia {
		return models.ChatMessage{}, false
	}

	return models.ChatMessage{
		MessageID:     fmt.Sprintf("%s_%d_%d", groupID, ts.UnixMilli(), seq),
		GroupID:       groupID,
		GroupName:     groupName,
		SenderJID:     senderSlug(cur.sender),
		SenderName:    cur.sender,
		Body:          body,
		Timestamp:     ts,
		HasMedia:      detection.HasMedia,
		MediaType:     detection.MediaType,
		MediaFilename: detection.Filename,
		Source:        models.SourceChatExport,
	}, true
}

// parseTimestamp reconstructs an absolute time from the captured date and
// time fields. Two-digit years are assumed to be in the 2000s. Hours without
// an AM/PM suffix are read as 24-hour.
func parseTimestamp(cur *pending) (time.Time, error) {
	day, err := strconv.Atoi(cur.day)
	if err != nil {
		return time.Time{}, err
	}
	month, err := strconv.Atoi(cur.month)
	if err != nil {
		return time.Time{}, err
	}
	year, err := strconv.Atoi(cur.year)
	if err != nil {
		return time.Time{}, err
	}
	if year < 100 {
		year += 2000
	}

	hour, err := strconv.Atoi(cur.hour)
	if err != nil {
		return time.Time{}, err
	}
	minute, err := strconv.Atoi(cur.minute)
	if err != nil {
		return time.Time{}, err
	}
	second := 0
	if cur.secs != "" {
		if second, err = strconv.Atoi(cur.secs); err != nil {
			return time.Time{}, err
		}
	}

	switch strings.ToUpper(cur.ampm) {
	case "PM":
		if hour < 12 {
			hour += 12
		}
	case "AM":
		if hour == 12 {
			hour = 0
		}
	}

	if month < 1 || month > 12 || day < 1 || day > 31 || hour > 23 || minute > 59 || second > 59 {
		return time.Time{}, fmt.Errorf("date fields out of range: %d/%d/%d %d:%d:%d", day, month, year, hour, minute, second)
	}

	return time.Date(year, time.Month(month), day, hour, minute, second, 0, time.Local), nil
}

// senderSlug normalizes a sender display name into a stable identifier.
func senderSlug(sender string) string {
	s := strings.ToLower(security.StripInvisible(sender))
	var b strings.Builder
	lastDot := true
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDot = false
		case r == '+':
			b.WriteRune(r)
			lastDot = false
		default:
			if !lastDot {
				b.WriteRune('.')
				lastDot = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), ".")
}

// splitLines normalizes line endings, strips invisible direction marks, and
// splits the transcript into physical lines.
func splitLines(chatText string) []string {
	text := strings.TrimPrefix(chatText, "\uFEFF")
	text = security.StripInvisible(text)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.Split(text, "\n")
}
