// Package entry defines the canonical clipboard artifact record every
// analysis stage operates on, and the boundary that turns loosely-typed
// store rows into that record.
package entry

import (
	"time"
	"unicode/utf8"
)

// Common content type tags. The set is open: adapters may emit tags not
// listed here and aggregation keeps them as-is.
const (
	TypeText     = "text"
	TypeImage    = "image"
	TypeFile     = "file"
	TypeHTML     = "html"
	TypeRegistry = "registry_setting"
	TypeUnknown  = "unknown"
)

// UnknownSentinel renders absent provenance in downstream aggregation.
// Provenance gaps are forensically significant and must stay visible.
const UnknownSentinel = "Unknown"

// Entry is one normalized clipboard artifact. ContentHash is the stable
// identity used to cross-reference findings, timeline events, and
// anomalies back to the record: two entries with the same hash are the
// same logical content regardless of timestamp or source.
type Entry struct {
	Timestamp   string                 `json:"timestamp"`
	ContentType string                 `json:"content_type"`
	Content     string                 `json:"content"`
	ContentHash string                 `json:"content_hash"`
	SizeBytes   int64                  `json:"size_bytes"`
	SourceApp   string                 `json:"source_app"`
	User        string                 `json:"user"`
	SessionInfo string                 `json:"session_info"`
	Metadata    map[string]interface{} `json:"metadata"`
}

// New builds an Entry from a full payload. SizeBytes records the original
// payload length; the stored content is truncated to previewLimit before
// the fingerprint is computed. A previewLimit of zero or less disables
// truncation.
func New(timestamp, contentType, content string, previewLimit int) *Entry {
	e := &Entry{
		Timestamp:   timestamp,
		ContentType: contentType,
		SizeBytes:   int64(len(content)),
		Metadata:    map[string]interface{}{},
	}
	e.Content = Truncate(content, previewLimit)
	e.sealHash()
	return e
}

// Truncate caps s at limit bytes without splitting a multi-byte rune,
// backing off to the nearest rune boundary. A limit of zero or less
// disables truncation.
func Truncate(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// sealHash computes the fingerprint once. An already-populated hash is
// never recomputed: identity must survive save/reload cycles even if the
// fingerprint algorithm changes between runs.
func (e *Entry) sealHash() {
	if e.ContentHash == "" && e.Content != "" {
		e.ContentHash = Fingerprint([]byte(e.Content))
	}
}

// ToMap flattens the entry for serialization.
func (e *Entry) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"timestamp":    e.Timestamp,
		"content_type": e.ContentType,
		"content":      e.Content,
		"content_hash": e.ContentHash,
		"size_bytes":   e.SizeBytes,
		"source_app":   e.SourceApp,
		"user":         e.User,
		"session_info": e.SessionInfo,
		"metadata":     e.Metadata,
	}
}

// FromMap reconstructs an entry from a flattened mapping. A present hash
// is preserved verbatim; a missing one is computed from the content.
func FromMap(data map[string]interface{}) *Entry {
	e := &Entry{
		Timestamp:   asString(data["timestamp"]),
		ContentType: asString(data["content_type"]),
		Content:     asString(data["content"]),
		ContentHash: asString(data["content_hash"]),
		SizeBytes:   asInt64(data["size_bytes"]),
		SourceApp:   asString(data["source_app"]),
		User:        asString(data["user"]),
		SessionInfo: asString(data["session_info"]),
		Metadata:    map[string]interface{}{},
	}
	if meta, ok := data["metadata"].(map[string]interface{}); ok {
		e.Metadata = meta
	}
	e.sealHash()
	return e
}

// Source returns the source application or the Unknown sentinel.
func (e *Entry) Source() string {
	if e.SourceApp == "" {
		return UnknownSentinel
	}
	return e.SourceApp
}

// Username returns the owning user or the Unknown sentinel.
func (e *Entry) Username() string {
	if e.User == "" {
		return UnknownSentinel
	}
	return e.User
}

// Session returns the session info, defaulting to a local session.
func (e *Entry) Session() string {
	if e.SessionInfo == "" {
		return "Local"
	}
	return e.SessionInfo
}

// Time parses the entry timestamp. The second result is false when the
// timestamp was unusable and the current time was substituted; the stored
// entry is never mutated by that substitution.
func (e *Entry) Time() (time.Time, bool) {
	if t, ok := ParseTimestamp(e.Timestamp); ok {
		return t, true
	}
	return time.Now().UTC(), false
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func asInt64(v interface{}) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	case float32:
		return int64(n)
	default:
		return 0
	}
}
