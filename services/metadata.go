// services/metadata.go
package services

import (
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

const (
	// MetadataLabel is the transaction metadata label every note operation
	// is published under.
	MetadataLabel = 674

	// AppTag identifies our payloads among everything else under the label.
	AppTag = "chain-notes"

	// MaxMetadataStringLen is the hard cap the metadata value format puts on
	// a single string, in bytes. Content longer than this must be split into
	// consecutive chunks of exactly this size (last one shorter).
	MaxMetadataStringLen = 64
)

// MetadataPayload is the on-chain description of one note operation.
type MetadataPayload struct {
	Label     uint64   `json:"label"`
	App       string   `json:"app"`
	Action    string   `json:"action"` // note_create | note_update | note_delete
	NoteID    string   `json:"note_id"`
	Title     string   `json:"title"`
	Content   []string `json:"content"`
	Timestamp string   `json:"timestamp"`
}

// BuildNotePayload assembles the metadata for one logical note operation.
// noteID may be empty when the backend has not assigned one yet; a local
// placeholder keeps the payload self-consistent and the record is linked to
// the real id later.
func BuildNotePayload(action, noteID, title, content string) *MetadataPayload {
	if noteID == "" {
		noteID = "local-" + uuid.NewString()
	}
	return &MetadataPayload{
		Label:     MetadataLabel,
		App:       AppTag,
		Action:    action,
		NoteID:    noteID,
		Title:     SanitizeTitle(title),
		Content:   ChunkMetadataString(content),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// SanitizeTitle NFC-normalizes the title, strips control characters and
// truncates it to the single-string metadata limit.
func SanitizeTitle(title string) string {
	title = norm.NFC.String(strings.TrimSpace(title))
	title = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, title)
	return truncateBytes(title, MaxMetadataStringLen)
}

// ChunkMetadataString splits s into consecutive chunks of at most
// MaxMetadataStringLen bytes, backing off to a rune boundary so no chunk
// carries a broken UTF-8 sequence.
func ChunkMetadataString(s string) []string {
	if s == "" {
		return []string{}
	}
	var chunks []string
	for len(s) > 0 {
		chunk := truncateBytes(s, MaxMetadataStringLen)
		chunks = append(chunks, chunk)
		s = s[len(chunk):]
	}
	return chunks
}

func truncateBytes(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
