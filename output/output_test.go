package output

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"clipsleuth/adapters"
	"clipsleuth/config"
	"clipsleuth/engine"
	"clipsleuth/entry"
)

type stubAdapter struct {
	entries []*entry.Entry
}

func (s *stubAdapter) Name() string { return "stub" }

func (s *stubAdapter) Extract(ctx context.Context) ([]*entry.Entry, error) {
	return s.entries, nil
}

func buildReport(t *testing.T, cfg *config.Config) *engine.Report {
	t.Helper()
	source := &stubAdapter{entries: []*entry.Entry{
		entry.New("2026-08-01T10:00:00Z", entry.TypeText, "password: hunter2", cfg.PreviewLimit),
		entry.New("2026-08-01T10:05:00Z", entry.TypeText, "plain note", cfg.PreviewLimit),
	}}
	return engine.New(cfg).Run(context.Background(), []adapters.Adapter{source})
}

func TestWriteJSONReport(t *testing.T) {
	cfg := config.Defaults()
	cfg.ShowProgress = false
	cfg.OutputFileName = filepath.Join(t.TempDir(), "report.json")

	w, err := New(cfg)
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}
	defer w.Close()

	report := buildReport(t, cfg)
	if err := w.Write(report); err != nil {
		t.Fatalf("write: %v", err)
	}

	data, err := os.ReadFile(cfg.OutputFileName)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("report is not valid JSON: %v", err)
	}
	for _, key := range []string{"metadata", "entries", "statistics", "timeline", "analysis", "generated_at"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("report missing %q", key)
		}
	}
	analysis := decoded["analysis"].(map[string]interface{})
	if _, ok := analysis["suspicious_patterns"]; !ok {
		t.Error("analysis missing suspicious_patterns")
	}
	enhanced := analysis["enhanced"].(map[string]interface{})
	if enhanced["risk_score"].(float64) != 30 {
		t.Errorf("unexpected risk score: %v", enhanced["risk_score"])
	}
}

func TestWriteHTMLReport(t *testing.T) {
	cfg := config.Defaults()
	cfg.ShowProgress = false
	cfg.OutputFormat = "html"
	cfg.OutputFileName = filepath.Join(t.TempDir(), "report.html")

	w, err := New(cfg)
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}
	defer w.Close()

	if err := w.Write(buildReport(t, cfg)); err != nil {
		t.Fatalf("write: %v", err)
	}

	data, err := os.ReadFile(cfg.OutputFileName)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	page := string(data)
	for _, want := range []string{"Clipboard Forensics Report", "Risk Score: 30/100", "Analysis Summary", "suspicious patterns detected"} {
		if !strings.Contains(page, want) {
			t.Errorf("html report missing %q", want)
		}
	}
}

func TestWriteSecondaryHTMLReport(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Defaults()
	cfg.ShowProgress = false
	cfg.OutputFileName = filepath.Join(dir, "report.json")
	cfg.HTMLReportFileName = filepath.Join(dir, "report.html")

	w, err := New(cfg)
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}
	defer w.Close()

	if err := w.Write(buildReport(t, cfg)); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := os.Stat(cfg.OutputFileName); err != nil {
		t.Error("primary JSON report not written")
	}
	if _, err := os.Stat(cfg.HTMLReportFileName); err != nil {
		t.Error("secondary HTML report not written")
	}
}

func TestHTMLEscapesContent(t *testing.T) {
	cfg := config.Defaults()
	cfg.ShowProgress = false
	cfg.OutputFormat = "html"
	cfg.OutputFileName = filepath.Join(t.TempDir(), "report.html")

	w, err := New(cfg)
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}
	defer w.Close()

	source := &stubAdapter{entries: []*entry.Entry{
		entry.New("2026-08-01T10:00:00Z", entry.TypeText, "<script>alert(1)</script>", cfg.PreviewLimit),
	}}
	report := engine.New(cfg).Run(context.Background(), []adapters.Adapter{source})
	if err := w.Write(report); err != nil {
		t.Fatalf("write: %v", err)
	}

	data, _ := os.ReadFile(cfg.OutputFileName)
	if strings.Contains(string(data), "<script>alert(1)</script>") {
		t.Error("entry content not escaped in html report")
	}
}
