package config

import (
	"os"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	if cfg.PreviewLimit != DefaultPreviewLimit {
		t.Fatalf("unexpected preview limit: %d", cfg.PreviewLimit)
	}
	if cfg.SizeMultiplier != DefaultSizeMultiplier {
		t.Fatalf("unexpected size multiplier: %f", cfg.SizeMultiplier)
	}
	if cfg.FrequencyPerMinute != DefaultFrequencyPerMinute {
		t.Fatalf("unexpected frequency threshold: %d", cfg.FrequencyPerMinute)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []func(*Config){
		func(c *Config) { c.OutputFormat = "xml" },
		func(c *Config) { c.HashAlgorithm = "crc32" },
		func(c *Config) { c.PreviewLimit = 0 },
		func(c *Config) { c.ExcerptLimit = -1 },
		func(c *Config) { c.SizeMultiplier = 0 },
		func(c *Config) { c.FrequencyPerMinute = 0 },
		func(c *Config) { c.MaxEntries = -5 },
	}
	for i, mutate := range cases {
		cfg := Defaults()
		mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("case %d: expected validation error", i)
		}
	}
}

func TestLoadFromFile(t *testing.T) {
	tmp, err := os.CreateTemp("", "cfg*.json")
	if err != nil {
		t.Fatalf("temp: %v", err)
	}
	defer os.Remove(tmp.Name())

	tmp.WriteString(`{
		"log_level": "debug",
		"size_anomaly_multiplier": 5,
		"manager_stores": {"Ditto": "/tmp/Ditto.db"}
	}`)
	tmp.Close()

	cfg := Defaults()
	if err := cfg.loadFromFile(tmp.Name()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("log level not merged: %s", cfg.LogLevel)
	}
	if cfg.SizeMultiplier != 5 {
		t.Fatalf("size multiplier not merged: %f", cfg.SizeMultiplier)
	}
	if cfg.ManagerStores["Ditto"] != "/tmp/Ditto.db" {
		t.Fatalf("manager stores not merged: %v", cfg.ManagerStores)
	}
	// Unset values keep defaults.
	if cfg.PreviewLimit != DefaultPreviewLimit {
		t.Fatalf("preview limit should keep default: %d", cfg.PreviewLimit)
	}
}

func TestLoadFromFileErrors(t *testing.T) {
	cfg := Defaults()
	if err := cfg.loadFromFile("does-not-exist.json"); err == nil {
		t.Fatal("expected error for missing file")
	}

	tmp, _ := os.CreateTemp("", "bad*.json")
	defer os.Remove(tmp.Name())
	tmp.WriteString("{not json")
	tmp.Close()
	if err := cfg.loadFromFile(tmp.Name()); err == nil {
		t.Fatal("expected error for malformed file")
	}
}

func TestParseCommaSeparated(t *testing.T) {
	out := parseCommaSeparated(" a , b ,, c ")
	if len(out) != 3 || out[0] != "a" || out[1] != "b" || out[2] != "c" {
		t.Fatalf("unexpected parse result: %v", out)
	}
	if len(parseCommaSeparated("  ")) != 0 {
		t.Fatal("blank input should yield empty slice")
	}
}
