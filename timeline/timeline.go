// Package timeline reconstructs a chronologically ordered, navigable view
// of clipboard entries.
package timeline

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"clipsleuth/entry"
	"clipsleuth/logger"
)

// Gap describes the time between consecutive timeline events. Seconds may
// be negative: entries whose timestamps failed to parse sort on a
// substituted "now" and can land after entries with later real
// timestamps. The signed value is kept as evidence of that unreliability.
type Gap struct {
	Seconds       float64 `json:"seconds"`
	HumanReadable string  `json:"human_readable"`
}

// Event is one entry annotated with its sequence position.
type Event struct {
	Sequence           int    `json:"sequence"`
	Timestamp          string `json:"timestamp"`
	ContentType        string `json:"content_type"`
	SourceApp          string `json:"source_app"`
	User               string `json:"user"`
	SessionInfo        string `json:"session_info"`
	ContentPreview     string `json:"content_preview"`
	ContentHash        string `json:"content_hash"`
	SizeBytes          int64  `json:"size_bytes"`
	TimestampEstimated bool   `json:"timestamp_estimated,omitempty"`
	TimeSincePrevious  Gap    `json:"time_since_previous"`
}

// Builder produces timeline events with a configurable preview length.
type Builder struct {
	previewLimit int
}

func NewBuilder(previewLimit int) *Builder {
	if previewLimit <= 0 {
		previewLimit = 100
	}
	return &Builder{previewLimit: previewLimit}
}

// Build sorts entries by parsed timestamp and emits 1-indexed events with
// gap-from-previous annotations. Unparseable timestamps order on the
// current time; the stored entries are never mutated.
func (b *Builder) Build(entries []*entry.Entry) []Event {
	logger.Debugf("Creating timeline from %d entries", len(entries))

	events := make([]Event, 0, len(entries))
	if len(entries) == 0 {
		return events
	}

	type timed struct {
		e         *entry.Entry
		at        time.Time
		estimated bool
	}
	ordered := make([]timed, 0, len(entries))
	for _, e := range entries {
		at, parsed := e.Time()
		ordered = append(ordered, timed{e: e, at: at, estimated: !parsed})
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].at.Before(ordered[j].at)
	})

	for i, item := range ordered {
		gap := Gap{Seconds: 0, HumanReadable: "First entry"}
		if i > 0 {
			gap = gapBetween(ordered[i-1].at, item.at)
		}
		events = append(events, Event{
			Sequence:           i + 1,
			Timestamp:          item.e.Timestamp,
			ContentType:        item.e.ContentType,
			SourceApp:          item.e.Source(),
			User:               item.e.Username(),
			SessionInfo:        item.e.Session(),
			ContentPreview:     Preview(item.e.Content, b.previewLimit),
			ContentHash:        item.e.ContentHash,
			SizeBytes:          item.e.SizeBytes,
			TimestampEstimated: item.estimated,
			TimeSincePrevious:  gap,
		})
	}
	return events
}

// Preview sanitizes content for display: newlines collapsed to spaces,
// trimmed, truncated with an ellipsis marker, empty marked explicitly.
func Preview(content string, limit int) string {
	if content == "" {
		return "[Empty]"
	}
	cleaned := strings.ReplaceAll(content, "\n", " ")
	cleaned = strings.ReplaceAll(cleaned, "\r", " ")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return "[Empty]"
	}
	if len(cleaned) <= limit {
		return cleaned
	}
	return entry.Truncate(cleaned, limit) + "..."
}

// gapBetween renders the human-readable buckets with integer truncation.
func gapBetween(prev, curr time.Time) Gap {
	seconds := curr.Sub(prev).Seconds()

	magnitude := seconds
	if magnitude < 0 {
		magnitude = -magnitude
	}
	var readable string
	switch {
	case magnitude < 60:
		readable = fmt.Sprintf("%d seconds", int(seconds))
	case magnitude < 3600:
		readable = fmt.Sprintf("%d minutes", int(seconds/60))
	case magnitude < 86400:
		readable = fmt.Sprintf("%d hours", int(seconds/3600))
	default:
		readable = fmt.Sprintf("%d days", int(seconds/86400))
	}
	return Gap{Seconds: seconds, HumanReadable: readable}
}
