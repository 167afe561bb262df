package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"clipsleuth/adapters"
	"clipsleuth/config"
	"clipsleuth/entry"
)

type stubAdapter struct {
	name    string
	entries []*entry.Entry
	err     error
	panics  bool
}

func (s *stubAdapter) Name() string { return s.name }

func (s *stubAdapter) Extract(ctx context.Context) ([]*entry.Entry, error) {
	if s.panics {
		panic("corrupt store")
	}
	return s.entries, s.err
}

func testConfig() *config.Config {
	cfg := config.Defaults()
	cfg.ShowProgress = false
	return cfg
}

func textEntry(timestamp, content string) *entry.Entry {
	return entry.New(timestamp, entry.TypeText, content, 1000)
}

func TestRunEndToEnd(t *testing.T) {
	source := &stubAdapter{name: "test", entries: []*entry.Entry{
		textEntry("2026-08-01T10:00:00Z", "password: hunter2"),
		textEntry("2026-08-01T10:05:00Z", "meeting notes"),
	}}

	report := New(testConfig()).Run(context.Background(), []adapters.Adapter{source})

	if report.Metadata.TotalEntries != 2 {
		t.Fatalf("expected 2 entries in metadata, got %d", report.Metadata.TotalEntries)
	}
	if report.Metadata.Error != "" {
		t.Fatalf("unexpected error: %s", report.Metadata.Error)
	}
	if len(report.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(report.Entries))
	}
	if len(report.Timeline) != 2 {
		t.Fatalf("expected 2 timeline events, got %d", len(report.Timeline))
	}
	if report.Analysis.Enhanced.RiskScore != 30 {
		t.Errorf("expected risk score 30, got %d", report.Analysis.Enhanced.RiskScore)
	}
	if len(report.Analysis.SuspiciousPatterns) != len(report.Analysis.Enhanced.Findings) {
		t.Error("flat findings list does not mirror enhanced findings")
	}
	if report.Statistics.HourlyActivity[10] != 2 {
		t.Errorf("hourly bucket wrong: %v", report.Statistics.HourlyActivity)
	}
	if report.GeneratedAt == "" {
		t.Error("generated_at not set")
	}
}

func TestRunSkipsFailingStore(t *testing.T) {
	failing := &stubAdapter{name: "broken", err: errors.New("locked")}
	working := &stubAdapter{name: "ok", entries: []*entry.Entry{
		textEntry("2026-08-01T10:00:00Z", "hello"),
	}}

	report := New(testConfig()).Run(context.Background(), []adapters.Adapter{failing, working})
	if len(report.Entries) != 1 {
		t.Fatalf("expected 1 entry from the working store, got %d", len(report.Entries))
	}
}

func TestRunPanicYieldsEmptyReport(t *testing.T) {
	report := New(testConfig()).Run(context.Background(), []adapters.Adapter{
		&stubAdapter{name: "bad", panics: true},
	})

	if report == nil {
		t.Fatal("nil report after panic")
	}
	if report.Metadata.Error == "" {
		t.Fatal("metadata.error not populated after panic")
	}
	if len(report.Entries) != 0 {
		t.Fatalf("expected empty entries, got %d", len(report.Entries))
	}
	if report.Analysis.Error == "" {
		t.Error("analysis error not populated")
	}
	if len(report.Statistics.HourlyActivity) != 24 {
		t.Error("statistics not well-shaped in empty report")
	}
}

func TestRunAnalyzerPanicYieldsEmptyReport(t *testing.T) {
	// A nil entry from a misbehaving store blows up inside the analyzer
	// goroutines, not on the calling goroutine. Enrichment is disabled so
	// the nil reaches the analyzers directly.
	cfg := testConfig()
	cfg.FuzzyHash = false
	cfg.ExtractMetadata = false

	report := New(cfg).Run(context.Background(), []adapters.Adapter{
		&stubAdapter{name: "corrupt", entries: []*entry.Entry{nil}},
	})

	if report == nil {
		t.Fatal("nil report after analyzer panic")
	}
	if report.Metadata.Error == "" {
		t.Fatal("metadata.error not populated after analyzer panic")
	}
	if len(report.Entries) != 0 {
		t.Fatalf("expected empty entries, got %d", len(report.Entries))
	}
	if len(report.Statistics.HourlyActivity) != 24 {
		t.Error("statistics not well-shaped in empty report")
	}
}

func TestRunHonorsEntryCap(t *testing.T) {
	cfg := testConfig()
	cfg.MaxEntries = 3
	var batch []*entry.Entry
	for i := 0; i < 5; i++ {
		batch = append(batch, textEntry("2026-08-01T10:00:00Z", strings.Repeat("x", i+1)))
	}

	report := New(cfg).Run(context.Background(), []adapters.Adapter{
		&stubAdapter{name: "big", entries: batch},
	})
	if len(report.Entries) != 3 {
		t.Fatalf("cap not honored, got %d entries", len(report.Entries))
	}
}

func TestEnrichAttachesSimilarityDigest(t *testing.T) {
	cfg := testConfig()
	cfg.FuzzyHash = true
	var payload strings.Builder
	for i := 0; i < 40; i++ {
		fmt.Fprintf(&payload, "line %03d of a varied clipboard payload %x\n", i, i*2654435761)
	}
	long := textEntry("2026-08-01T10:00:00Z", payload.String())
	short := textEntry("2026-08-01T10:01:00Z", "tiny")

	New(cfg).Run(context.Background(), []adapters.Adapter{
		&stubAdapter{name: "s", entries: []*entry.Entry{long, short}},
	})

	if long.Metadata["similarity_digest"] == nil {
		t.Error("digest not attached to large entry")
	}
	if short.Metadata["similarity_digest"] != nil {
		t.Error("digest attached below minimum size")
	}
}

func TestEnrichFileEntryMetadata(t *testing.T) {
	header := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}
	path := filepath.Join(t.TempDir(), "shot.png")
	if err := os.WriteFile(path, header, 0o600); err != nil {
		t.Fatal(err)
	}

	fileEntry := entry.New("2026-08-01T10:00:00Z", entry.TypeFile, path, 1000)
	New(testConfig()).Run(context.Background(), []adapters.Adapter{
		&stubAdapter{name: "s", entries: []*entry.Entry{fileEntry}},
	})

	if fileEntry.Metadata["mime_type"] != "image/png" {
		t.Errorf("file metadata not attached: %v", fileEntry.Metadata)
	}
}
