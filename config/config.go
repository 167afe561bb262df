package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"clipsleuth/version"
)

// Analysis thresholds default to the values the detection rules were
// calibrated against. They are exposed here rather than hardcoded so a
// case can tighten or relax them per investigation.
const (
	DefaultPreviewLimit       = 1000
	DefaultExcerptLimit       = 50
	DefaultTimelinePreview    = 100
	DefaultSizeMultiplier     = 10.0
	DefaultFrequencyPerMinute = 10
	DefaultLargeTransferBytes = 10000
	DefaultMediaTransferBytes = 1000
	DefaultRapidGapSeconds    = 2.0
	DefaultMaxEntries         = 10000
)

type Config struct {
	StorePaths         []string          `json:"store_paths"`
	ManagerStores      map[string]string `json:"manager_stores"`
	DumpFiles          []string          `json:"dump_files"`
	OutputFormat       string            `json:"output_format"`
	OutputFileName     string            `json:"output_file_name"`
	HTMLReportFileName string            `json:"html_report_file_name"`
	HashAlgorithm      string            `json:"hash_algorithm"`
	MaxEntries         int               `json:"max_entries"`
	PreviewLimit       int               `json:"content_preview_length"`
	ExcerptLimit       int               `json:"finding_excerpt_length"`
	TimelinePreview    int               `json:"timeline_preview_length"`
	SizeMultiplier     float64           `json:"size_anomaly_multiplier"`
	FrequencyPerMinute int               `json:"high_frequency_per_minute"`
	LargeTransferBytes int               `json:"large_transfer_bytes"`
	MediaTransferBytes int               `json:"media_transfer_bytes"`
	RapidGapSeconds    float64           `json:"rapid_gap_seconds"`
	FuzzyHash          bool              `json:"fuzzy_hash"`
	FuzzyMinSize       int               `json:"fuzzy_min_size"`
	ExtractMetadata    bool              `json:"extract_metadata"`
	MetadataMaxBytes   int64             `json:"metadata_max_bytes"`
	MaxIOPerSecond     int               `json:"max_io_per_second"`
	LogLevel           string            `json:"log_level"`
	ConfigFile         string            `json:"config_file"`
	CollectSystemInfo  bool              `json:"collect_system_info"`
	ShowProgress       bool              `json:"show_progress"`
	OtelEndpoint       string            `json:"otel_endpoint"`
	OtelFromEnv        bool              `json:"otel_from_env"`
	OtelServiceName    string            `json:"otel_service_name"`
	OtelTimeout        time.Duration     `json:"otel_timeout"`
	OtelExportExcerpts bool              `json:"otel_export_excerpts"`
}

func Defaults() *Config {
	now := time.Now().UTC()
	timestamp := now.Format("20060102-150405")
	return &Config{
		StorePaths:         []string{},
		ManagerStores:      map[string]string{},
		DumpFiles:          []string{},
		OutputFormat:       "json",
		OutputFileName:     fmt.Sprintf("clipsleuth-%s-%d.json", timestamp, now.Unix()),
		HTMLReportFileName: "",
		HashAlgorithm:      "sha256",
		MaxEntries:         DefaultMaxEntries,
		PreviewLimit:       DefaultPreviewLimit,
		ExcerptLimit:       DefaultExcerptLimit,
		TimelinePreview:    DefaultTimelinePreview,
		SizeMultiplier:     DefaultSizeMultiplier,
		FrequencyPerMinute: DefaultFrequencyPerMinute,
		LargeTransferBytes: DefaultLargeTransferBytes,
		MediaTransferBytes: DefaultMediaTransferBytes,
		RapidGapSeconds:    DefaultRapidGapSeconds,
		FuzzyHash:          false,
		FuzzyMinSize:       256,
		ExtractMetadata:    true,
		MetadataMaxBytes:   1 * 1024 * 1024,
		MaxIOPerSecond:     1000,
		LogLevel:           "info",
		CollectSystemInfo:  true,
		ShowProgress:       true,
		OtelEndpoint:       "",
		OtelFromEnv:        false,
		OtelServiceName:    "clipsleuth",
		OtelTimeout:        5 * time.Second,
		OtelExportExcerpts: false,
	}
}

func LoadConfig() (*Config, error) {
	cfg := Defaults()

	stores := flag.String("stores", "", "Comma-separated list of clipboard store paths to ingest (default: none).")
	managers := flag.String("manager-stores", "", "Clipboard manager stores as a JSON object mapping names to paths (default: none).")
	dumps := flag.String("dumps", "", "Comma-separated list of prior report JSON files to re-ingest (default: none).")
	format := flag.String("format", cfg.OutputFormat, fmt.Sprintf("Output format: json or html (default: %s).", cfg.OutputFormat))
	output := flag.String("output", cfg.OutputFileName, "Output file name (default: clipsleuth-<timestamp>-<unix>.json).")
	htmlReport := flag.String("html-report", cfg.HTMLReportFileName, "Also write an HTML report to this file (default: none).")
	hashAlgorithm := flag.String("hash-algorithm", cfg.HashAlgorithm, fmt.Sprintf("Content fingerprint algorithm: sha256 or blake3 (default: %s).", cfg.HashAlgorithm))
	maxEntries := flag.Int("max-entries", cfg.MaxEntries, fmt.Sprintf("Maximum entries to analyze (default: %d, 0 means unlimited).", cfg.MaxEntries))
	previewLimit := flag.Int("content-preview-length", cfg.PreviewLimit, fmt.Sprintf("Stored content preview length (default: %d).", cfg.PreviewLimit))
	excerptLimit := flag.Int("finding-excerpt-length", cfg.ExcerptLimit, fmt.Sprintf("Maximum matched excerpt length stored per finding (default: %d).", cfg.ExcerptLimit))
	timelinePreview := flag.Int("timeline-preview-length", cfg.TimelinePreview, fmt.Sprintf("Timeline content preview length (default: %d).", cfg.TimelinePreview))
	sizeMultiplier := flag.Float64("size-anomaly-multiplier", cfg.SizeMultiplier, fmt.Sprintf("Flag entries larger than this multiple of the mean size (default: %.0f).", cfg.SizeMultiplier))
	frequency := flag.Int("high-frequency-per-minute", cfg.FrequencyPerMinute, fmt.Sprintf("Flag minutes with more than this many entries (default: %d).", cfg.FrequencyPerMinute))
	largeTransfer := flag.Int("large-transfer-bytes", cfg.LargeTransferBytes, fmt.Sprintf("Content length treated as a large clipboard transfer (default: %d).", cfg.LargeTransferBytes))
	mediaTransfer := flag.Int("media-transfer-bytes", cfg.MediaTransferBytes, fmt.Sprintf("File/image content length treated as a suspicious transfer (default: %d).", cfg.MediaTransferBytes))
	rapidGap := flag.Float64("rapid-gap-seconds", cfg.RapidGapSeconds, fmt.Sprintf("Consecutive gaps under this many seconds count as rapid operations (default: %.0f).", cfg.RapidGapSeconds))
	fuzzyHash := flag.Bool("fuzzy-hash", cfg.FuzzyHash, fmt.Sprintf("Compute TLSH similarity digests for large payloads (default: %t).", cfg.FuzzyHash))
	fuzzyMinSize := flag.Int("fuzzy-min-size", cfg.FuzzyMinSize, fmt.Sprintf("Minimum payload size in bytes for fuzzy hashing (default: %d).", cfg.FuzzyMinSize))
	extractMetadata := flag.Bool("extract-metadata", cfg.ExtractMetadata, fmt.Sprintf("Extract document metadata from file-path payloads (default: %t).", cfg.ExtractMetadata))
	metadataMaxBytes := flag.Int64("metadata-max-bytes", cfg.MetadataMaxBytes, fmt.Sprintf("Maximum bytes metadata parsers may read per payload (default: %d, 0 means unlimited).", cfg.MetadataMaxBytes))
	maxIO := flag.Int("max-io-per-second", cfg.MaxIOPerSecond, fmt.Sprintf("Maximum store row reads per second (default: %d).", cfg.MaxIOPerSecond))
	logLevel := flag.String("log-level", cfg.LogLevel, fmt.Sprintf("Log level: debug, info, warn, error, fatal, or panic (default: %s).", cfg.LogLevel))
	configFile := flag.String("config", "", "Path to JSON configuration file (default: none).")
	collectSystemInfo := flag.Bool("collect-system-info", cfg.CollectSystemInfo, fmt.Sprintf("Collect host information for report metadata (default: %t).", cfg.CollectSystemInfo))
	showProgress := flag.Bool("progress", cfg.ShowProgress, fmt.Sprintf("Show analysis progress (default: %t).", cfg.ShowProgress))
	otelEndpoint := flag.String("otel-endpoint", cfg.OtelEndpoint, "OTLP/HTTP logs endpoint (default: none).")
	otelFromEnv := flag.Bool("otel-from-env", cfg.OtelFromEnv, "Allow OTEL endpoint fallback from OTEL environment variables (default: false).")
	otelServiceName := flag.String("otel-service-name", cfg.OtelServiceName, "OTEL service name for export (default: clipsleuth).")
	otelTimeout := flag.Duration("otel-timeout", cfg.OtelTimeout, "OTEL export timeout (default: 5s).")
	otelExportExcerpts := flag.Bool("otel-export-excerpts", cfg.OtelExportExcerpts, "Include matched excerpts in OTEL payloads (default: false).")
	showVersion := flag.Bool("version", false, "Print version and exit")

	flag.Parse()

	if *showVersion {
		fmt.Printf("clipsleuth version %s\n", version.Version)
		os.Exit(0)
	}

	if *configFile != "" {
		cfg.ConfigFile = *configFile
		if err := cfg.loadFromFile(cfg.ConfigFile); err != nil {
			return nil, err
		}
	}

	// Explicit flags win over config file values.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "stores":
			cfg.StorePaths = parseCommaSeparated(*stores)
		case "manager-stores":
			parsed := map[string]string{}
			if err := json.Unmarshal([]byte(*managers), &parsed); err == nil {
				cfg.ManagerStores = parsed
			}
		case "dumps":
			cfg.DumpFiles = parseCommaSeparated(*dumps)
		case "format":
			cfg.OutputFormat = *format
		case "output":
			cfg.OutputFileName = *output
		case "html-report":
			cfg.HTMLReportFileName = *htmlReport
		case "hash-algorithm":
			cfg.HashAlgorithm = *hashAlgorithm
		case "max-entries":
			cfg.MaxEntries = *maxEntries
		case "content-preview-length":
			cfg.PreviewLimit = *previewLimit
		case "finding-excerpt-length":
			cfg.ExcerptLimit = *excerptLimit
		case "timeline-preview-length":
			cfg.TimelinePreview = *timelinePreview
		case "size-anomaly-multiplier":
			cfg.SizeMultiplier = *sizeMultiplier
		case "high-frequency-per-minute":
			cfg.FrequencyPerMinute = *frequency
		case "large-transfer-bytes":
			cfg.LargeTransferBytes = *largeTransfer
		case "media-transfer-bytes":
			cfg.MediaTransferBytes = *mediaTransfer
		case "rapid-gap-seconds":
			cfg.RapidGapSeconds = *rapidGap
		case "fuzzy-hash":
			cfg.FuzzyHash = *fuzzyHash
		case "fuzzy-min-size":
			cfg.FuzzyMinSize = *fuzzyMinSize
		case "extract-metadata":
			cfg.ExtractMetadata = *extractMetadata
		case "metadata-max-bytes":
			cfg.MetadataMaxBytes = *metadataMaxBytes
		case "max-io-per-second":
			cfg.MaxIOPerSecond = *maxIO
		case "log-level":
			cfg.LogLevel = *logLevel
		case "collect-system-info":
			cfg.CollectSystemInfo = *collectSystemInfo
		case "progress":
			cfg.ShowProgress = *showProgress
		case "otel-endpoint":
			cfg.OtelEndpoint = *otelEndpoint
		case "otel-from-env":
			cfg.OtelFromEnv = *otelFromEnv
		case "otel-service-name":
			cfg.OtelServiceName = *otelServiceName
		case "otel-timeout":
			cfg.OtelTimeout = *otelTimeout
		case "otel-export-excerpts":
			cfg.OtelExportExcerpts = *otelExportExcerpts
		}
	})

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (cfg *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (cfg *Config) Validate() error {
	switch strings.ToLower(cfg.OutputFormat) {
	case "json", "html":
	default:
		return fmt.Errorf("unsupported output format: %s", cfg.OutputFormat)
	}
	switch strings.ToLower(cfg.HashAlgorithm) {
	case "sha256", "blake3":
	default:
		return fmt.Errorf("unsupported hash algorithm: %s", cfg.HashAlgorithm)
	}
	if cfg.PreviewLimit <= 0 {
		return fmt.Errorf("content preview length must be positive")
	}
	if cfg.ExcerptLimit <= 0 {
		return fmt.Errorf("finding excerpt length must be positive")
	}
	if cfg.TimelinePreview <= 0 {
		return fmt.Errorf("timeline preview length must be positive")
	}
	if cfg.SizeMultiplier <= 0 {
		return fmt.Errorf("size anomaly multiplier must be positive")
	}
	if cfg.FrequencyPerMinute <= 0 {
		return fmt.Errorf("high frequency threshold must be positive")
	}
	if cfg.MaxEntries < 0 {
		return fmt.Errorf("max entries must not be negative")
	}
	return nil
}

func parseCommaSeparated(value string) []string {
	if strings.TrimSpace(value) == "" {
		return []string{}
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
