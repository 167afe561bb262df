package entry

import (
	"fmt"
	"time"
)

// Field alias lists probed against store rows, in priority order. Stores
// disagree about naming; the first present non-empty value wins.
var (
	contentAliases   = []string{"content", "text", "data", "payload", "clipboard_data", "item_text"}
	timestampAliases = []string{"timestamp", "time", "created", "date_created", "modified"}
)

// RowOptions shape how raw rows become entries.
type RowOptions struct {
	SourceApp    string
	User         string
	SessionInfo  string
	ContentType  string
	PreviewLimit int
}

// FromRow converts one associative store row into an Entry. Rows without
// a usable content value are skipped, reported by the second result. The
// raw row is carried through in entry metadata for audit traceability.
func FromRow(row map[string]interface{}, opts RowOptions) (*Entry, bool) {
	content, ok := ProbeString(row, contentAliases)
	if !ok {
		return nil, false
	}

	timestamp := FormatTimestamp(time.Now())
	if raw, present := probe(row, timestampAliases); present {
		timestamp = coerceTimestamp(raw)
	}

	contentType := opts.ContentType
	if contentType == "" {
		contentType = TypeText
	}

	e := New(timestamp, contentType, content, opts.PreviewLimit)
	e.SourceApp = opts.SourceApp
	e.User = opts.User
	e.SessionInfo = opts.SessionInfo
	e.Metadata = row
	return e, true
}

// ProbeString tries candidate field names in order and returns the first
// present non-empty value rendered as a string.
func ProbeString(row map[string]interface{}, aliases []string) (string, bool) {
	raw, ok := probe(row, aliases)
	if !ok {
		return "", false
	}
	s := stringify(raw)
	if s == "" {
		return "", false
	}
	return s, true
}

func probe(row map[string]interface{}, aliases []string) (interface{}, bool) {
	for _, alias := range aliases {
		if value, present := row[alias]; present && value != nil {
			if s, isString := value.(string); isString && s == "" {
				continue
			}
			return value, true
		}
	}
	return nil, false
}

// coerceTimestamp renders a raw timestamp field. Numeric values are
// seconds since epoch; anything else is carried through as a literal.
func coerceTimestamp(raw interface{}) string {
	switch v := raw.(type) {
	case int:
		return FormatTimestamp(time.Unix(int64(v), 0))
	case int32:
		return FormatTimestamp(time.Unix(int64(v), 0))
	case int64:
		return FormatTimestamp(time.Unix(v, 0))
	case float32:
		return FormatTimestamp(time.Unix(int64(v), 0))
	case float64:
		return FormatTimestamp(time.Unix(int64(v), 0))
	default:
		return stringify(raw)
	}
}

func stringify(raw interface{}) string {
	switch v := raw.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
