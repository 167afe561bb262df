package output

import (
	"testing"

	"clipsleuth/config"
)

func TestResolveOtelEndpoint(t *testing.T) {
	cfg := config.Defaults()
	if got := resolveOtelEndpoint(cfg); got != "" {
		t.Fatalf("expected no endpoint by default, got %q", got)
	}

	cfg.OtelEndpoint = "https://collector.example:4318/v1/logs"
	if got := resolveOtelEndpoint(cfg); got != cfg.OtelEndpoint {
		t.Fatalf("explicit endpoint not used: %q", got)
	}

	cfg.OtelEndpoint = ""
	cfg.OtelFromEnv = true
	t.Setenv("OTEL_EXPORTER_OTLP_LOGS_ENDPOINT", "http://env.example:4318")
	if got := resolveOtelEndpoint(cfg); got != "http://env.example:4318" {
		t.Fatalf("env endpoint not used: %q", got)
	}
}

func TestNewOtelLoggerRejectsSchemelessEndpoint(t *testing.T) {
	cfg := config.Defaults()
	cfg.OtelEndpoint = "collector.example:4318"
	if _, err := newOtelLogger(cfg); err == nil {
		t.Fatal("expected error for endpoint without scheme")
	}
}

func TestNewOtelLoggerDisabledWithoutEndpoint(t *testing.T) {
	cfg := config.Defaults()
	o, err := newOtelLogger(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o != nil {
		t.Fatal("logger created without endpoint")
	}
}

func TestSanitizeRecordStripsExcerpts(t *testing.T) {
	record := map[string]interface{}{
		"category":     "credentials",
		"matched_text": "password: hunter2",
		"entry_hash":   "abcd",
	}

	sanitized := sanitizeRecord("finding", record, false).(map[string]interface{})
	if _, present := sanitized["matched_text"]; present {
		t.Error("matched_text not stripped")
	}
	if sanitized["category"] != "credentials" {
		t.Error("other fields dropped")
	}

	kept := sanitizeRecord("finding", record, true).(map[string]interface{})
	if kept["matched_text"] != "password: hunter2" {
		t.Error("opt-in excerpt not kept")
	}

	anomaly := sanitizeRecord("anomaly", record, false).(map[string]interface{})
	if anomaly["matched_text"] == nil {
		t.Error("non-finding records should pass through")
	}
}
