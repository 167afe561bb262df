// Package engine runs the full analysis pipeline: collect entries from
// every discovered store, enrich them, fan out the analyzers, and
// assemble the report.
package engine

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"clipsleuth/adapters"
	"clipsleuth/config"
	"clipsleuth/entry"
	"clipsleuth/fuzzy"
	"clipsleuth/logger"
	"clipsleuth/metadata"
	"clipsleuth/patterns"
	"clipsleuth/stats"
	"clipsleuth/systeminfo"
	"clipsleuth/timeline"
	"clipsleuth/version"

	"github.com/schollz/progressbar/v3"
)

// Engine wires the analyzers together. Construct once per run.
type Engine struct {
	cfg      *config.Config
	detector *patterns.Detector
	timeline *timeline.Builder
	stats    *stats.Engine
	system   *systeminfo.SystemInfo
}

func New(cfg *config.Config) *Engine {
	return &Engine{
		cfg: cfg,
		detector: patterns.NewDetector(patterns.Options{
			ExcerptLimit:       cfg.ExcerptLimit,
			LargeTransferBytes: cfg.LargeTransferBytes,
			MediaTransferBytes: cfg.MediaTransferBytes,
		}),
		timeline: timeline.NewBuilder(cfg.TimelinePreview),
		stats: stats.NewEngine(stats.Options{
			SizeMultiplier:     cfg.SizeMultiplier,
			FrequencyPerMinute: cfg.FrequencyPerMinute,
			RapidGapSeconds:    cfg.RapidGapSeconds,
		}),
	}
}

// SetSystemInfo attaches host facts collected before the run; they are
// recorded in report metadata.
func (e *Engine) SetSystemInfo(info *systeminfo.SystemInfo) {
	e.system = info
}

// Run executes the pipeline. It never panics past this boundary: any
// panic degrades to an empty report with metadata.error populated.
func (e *Engine) Run(ctx context.Context, sources []adapters.Adapter) (report *Report) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("Analysis pipeline panic: %v", r)
			report = e.emptyReport(fmt.Sprintf("analysis failed: %v", r))
		}
	}()

	entries := e.collect(ctx, sources)
	logger.Infof("Collected %d entries from %d stores", len(entries), len(sources))

	e.enrich(ctx, entries)

	var (
		wg        sync.WaitGroup
		analysis  patterns.Result
		events    []timeline.Event
		aggregate stats.Statistics
	)
	// A deferred recover only covers its own goroutine, so each analyzer
	// catches its panic itself and reports it for the empty-report path.
	failures := make(chan string, 3)
	run := func(name string, fn func()) {
		defer wg.Done()
		defer func() {
			if r := recover(); r != nil {
				logger.Errorf("%s analyzer panic: %v", name, r)
				failures <- fmt.Sprintf("%s analysis failed: %v", name, r)
			}
		}()
		fn()
	}
	wg.Add(3)
	go run("pattern", func() { analysis = e.detector.Detect(entries) })
	go run("timeline", func() { events = e.timeline.Build(entries) })
	go run("statistics", func() { aggregate = e.stats.Analyze(entries) })
	wg.Wait()
	close(failures)

	if msg, failed := <-failures; failed {
		return e.emptyReport(msg)
	}
	return e.assemble(entries, analysis, events, aggregate)
}

// collect drains every adapter in order. A failing store is logged and
// skipped; the run keeps whatever the other stores yield.
func (e *Engine) collect(ctx context.Context, sources []adapters.Adapter) []*entry.Entry {
	var entries []*entry.Entry
	for _, source := range sources {
		if ctx.Err() != nil {
			logger.Warn("Collection cancelled")
			break
		}
		extracted, err := source.Extract(ctx)
		if err != nil {
			logger.Errorf("Extraction from %s failed: %v", source.Name(), err)
			continue
		}
		logger.Debugf("Store %s yielded %d entries", source.Name(), len(extracted))
		entries = append(entries, extracted...)
		if e.cfg.MaxEntries > 0 && len(entries) >= e.cfg.MaxEntries {
			entries = entries[:e.cfg.MaxEntries]
			logger.Warnf("Entry cap of %d reached, remaining stores skipped", e.cfg.MaxEntries)
			break
		}
	}
	return entries
}

// enrich attaches similarity digests and embedded file metadata.
func (e *Engine) enrich(ctx context.Context, entries []*entry.Entry) {
	if !e.cfg.FuzzyHash && !e.cfg.ExtractMetadata {
		return
	}

	var bar *progressbar.ProgressBar
	if e.cfg.ShowProgress {
		bar = progressbar.NewOptions(len(entries),
			progressbar.OptionSetDescription("Analyzing entries"),
			progressbar.OptionShowCount(),
			progressbar.OptionSetVisibility(progressVisible()),
			progressbar.OptionFullWidth(),
		)
	}

	hasher, hasherOK := fuzzy.Lookup("tlsh")
	for _, item := range entries {
		if ctx.Err() != nil {
			break
		}
		if e.cfg.FuzzyHash && hasherOK && len(item.Content) >= e.cfg.FuzzyMinSize {
			digest, err := hasher.HashBytes([]byte(item.Content))
			if err == nil && digest != "" {
				item.Metadata["similarity_digest"] = digest
			}
		}
		if e.cfg.ExtractMetadata && item.ContentType == entry.TypeFile {
			e.enrichFileEntry(item)
		}
		if bar != nil {
			bar.Add(1)
		}
	}
	if bar != nil {
		bar.Finish()
	}
}

// enrichFileEntry treats the payload as a file path and pulls embedded
// document properties when the path exists.
func (e *Engine) enrichFileEntry(item *entry.Entry) {
	path := strings.TrimSpace(item.Content)
	if path == "" {
		return
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return
	}
	for k, v := range metadata.ForFile(path, e.cfg.MetadataMaxBytes) {
		item.Metadata[k] = v
	}
}

func (e *Engine) assemble(entries []*entry.Entry, analysis patterns.Result, events []timeline.Event, aggregate stats.Statistics) *Report {
	now := time.Now().UTC().Format(time.RFC3339)
	return &Report{
		Metadata:    e.reportMetadata(len(entries), ""),
		Entries:     entries,
		Statistics:  aggregate,
		Timeline:    events,
		Analysis:    newAnalysis(analysis),
		GeneratedAt: now,
	}
}

func (e *Engine) emptyReport(errMsg string) *Report {
	now := time.Now().UTC().Format(time.RFC3339)
	return &Report{
		Metadata:    e.reportMetadata(0, errMsg),
		Entries:     []*entry.Entry{},
		Statistics:  e.stats.Analyze(nil),
		Timeline:    []timeline.Event{},
		Analysis:    emptyAnalysis(errMsg),
		GeneratedAt: now,
	}
}

func (e *Engine) reportMetadata(total int, errMsg string) Metadata {
	meta := Metadata{
		AnalysisTime:    time.Now().UTC().Format(time.RFC3339),
		Platform:        runtime.GOOS,
		TotalEntries:    total,
		AnalyzerVersion: version.Version,
		Error:           errMsg,
		System:          e.system,
	}
	if e.system != nil {
		meta.Hostname = e.system.Hostname
		meta.User = e.system.CurrentUser
	}
	return meta
}

func progressVisible() bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv("CLIPSLEUTH_DISABLE_PROGRESS")))
	return value != "1" && value != "true" && value != "yes" && value != "on"
}
