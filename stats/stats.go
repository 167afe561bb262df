// Package stats aggregates clipboard entries into usage distributions and
// flags statistical outliers.
package stats

import (
	"sort"
	"time"

	"clipsleuth/entry"
	"clipsleuth/logger"
)

// Options carry the anomaly thresholds. The defaults match the values the
// detection heuristics were calibrated against.
type Options struct {
	SizeMultiplier     float64
	FrequencyPerMinute int
	RapidGapSeconds    float64
}

func (o Options) withDefaults() Options {
	if o.SizeMultiplier <= 0 {
		o.SizeMultiplier = 10
	}
	if o.FrequencyPerMinute <= 0 {
		o.FrequencyPerMinute = 10
	}
	if o.RapidGapSeconds <= 0 {
		o.RapidGapSeconds = 2
	}
	return o
}

// SizeStatistics summarize size_bytes over entries with positive size.
// Entries with zero or unknown size are excluded, not counted as zero.
type SizeStatistics struct {
	TotalBytes   int64   `json:"total_bytes"`
	AverageBytes float64 `json:"average_bytes"`
	MinBytes     int64   `json:"min_bytes"`
	MaxBytes     int64   `json:"max_bytes"`
	MedianBytes  int64   `json:"median_bytes"`
}

// GapStatistics summarize time between chronologically consecutive
// entries.
type GapStatistics struct {
	AverageGapSeconds float64 `json:"average_gap_seconds"`
	MinGapSeconds     float64 `json:"min_gap_seconds"`
	MaxGapSeconds     float64 `json:"max_gap_seconds"`
	RapidOperations   int     `json:"rapid_operations"`
}

// Anomaly is one statistically unusual entry or time bucket.
type Anomaly struct {
	Type       string  `json:"type"`
	EntryHash  string  `json:"entry_hash,omitempty"`
	Timestamp  string  `json:"timestamp"`
	Size       int64   `json:"size,omitempty"`
	EntryCount int     `json:"entry_count,omitempty"`
	Threshold  float64 `json:"threshold"`
}

// Statistics is the full engine output. Every collection is present even
// for zero entries.
type Statistics struct {
	HourlyActivity     map[int]int    `json:"hourly_activity"`
	SourceDistribution map[string]int `json:"source_distribution"`
	ContentTypeStats   map[string]int `json:"content_type_stats"`
	SizeStatistics     SizeStatistics `json:"size_statistics"`
	TimeGaps           GapStatistics  `json:"time_gaps"`
	DuplicateContent   map[string]int `json:"duplicate_content"`
	SimilarContent     map[string]int `json:"similar_content,omitempty"`
	Anomalies          []Anomaly      `json:"anomalies"`
}

// Engine aggregates entries. It holds no state across runs.
type Engine struct {
	opts Options
}

func NewEngine(opts Options) *Engine {
	return &Engine{opts: opts.withDefaults()}
}

// Analyze produces the full statistics for a batch of entries.
func (s *Engine) Analyze(entries []*entry.Entry) Statistics {
	logger.Debugf("Statistics analysis on %d entries", len(entries))

	return Statistics{
		HourlyActivity:     hourlyActivity(entries),
		SourceDistribution: sourceDistribution(entries),
		ContentTypeStats:   contentTypeStats(entries),
		SizeStatistics:     sizeStatistics(entries),
		TimeGaps:           s.timeGaps(entries),
		DuplicateContent:   duplicateContent(entries),
		SimilarContent:     similarContent(entries),
		Anomalies:          s.detectAnomalies(entries),
	}
}

// hourlyActivity counts entries per hour of day. All 24 buckets are
// always present.
func hourlyActivity(entries []*entry.Entry) map[int]int {
	hourly := make(map[int]int, 24)
	for hour := 0; hour < 24; hour++ {
		hourly[hour] = 0
	}
	for _, e := range entries {
		t, ok := entry.ParseTimestamp(e.Timestamp)
		if !ok {
			continue
		}
		hourly[t.Hour()]++
	}
	return hourly
}

func sourceDistribution(entries []*entry.Entry) map[string]int {
	sources := map[string]int{}
	for _, e := range entries {
		sources[e.Source()]++
	}
	return sources
}

func contentTypeStats(entries []*entry.Entry) map[string]int {
	types := map[string]int{}
	for _, e := range entries {
		contentType := e.ContentType
		if contentType == "" {
			contentType = entry.TypeUnknown
		}
		types[contentType]++
	}
	return types
}

func positiveSizes(entries []*entry.Entry) []int64 {
	sizes := make([]int64, 0, len(entries))
	for _, e := range entries {
		if e.SizeBytes > 0 {
			sizes = append(sizes, e.SizeBytes)
		}
	}
	return sizes
}

func sizeStatistics(entries []*entry.Entry) SizeStatistics {
	sizes := positiveSizes(entries)
	if len(sizes) == 0 {
		return SizeStatistics{}
	}

	sorted := append([]int64(nil), sizes...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var total int64
	for _, size := range sorted {
		total += size
	}
	return SizeStatistics{
		TotalBytes:   total,
		AverageBytes: float64(total) / float64(len(sorted)),
		MinBytes:     sorted[0],
		MaxBytes:     sorted[len(sorted)-1],
		MedianBytes:  sorted[len(sorted)/2],
	}
}

// sortedTimes parses and sorts entry timestamps, dropping unparseable
// ones: a substituted "now" would fabricate gaps that never happened.
func sortedTimes(entries []*entry.Entry) []time.Time {
	times := make([]time.Time, 0, len(entries))
	for _, e := range entries {
		if t, ok := entry.ParseTimestamp(e.Timestamp); ok {
			times = append(times, t)
		}
	}
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })
	return times
}

func (s *Engine) timeGaps(entries []*entry.Entry) GapStatistics {
	times := sortedTimes(entries)
	if len(times) < 2 {
		return GapStatistics{}
	}

	gaps := make([]float64, 0, len(times)-1)
	for i := 1; i < len(times); i++ {
		if gap := times[i].Sub(times[i-1]).Seconds(); gap > 0 {
			gaps = append(gaps, gap)
		}
	}
	if len(gaps) == 0 {
		return GapStatistics{}
	}

	total := 0.0
	minGap, maxGap := gaps[0], gaps[0]
	rapid := 0
	for _, gap := range gaps {
		total += gap
		if gap < minGap {
			minGap = gap
		}
		if gap > maxGap {
			maxGap = gap
		}
		if gap < s.opts.RapidGapSeconds {
			rapid++
		}
	}
	return GapStatistics{
		AverageGapSeconds: total / float64(len(gaps)),
		MinGapSeconds:     minGap,
		MaxGapSeconds:     maxGap,
		RapidOperations:   rapid,
	}
}

// duplicateContent reports content hashes shared by multiple entries.
func duplicateContent(entries []*entry.Entry) map[string]int {
	counts := map[string]int{}
	for _, e := range entries {
		if e.ContentHash != "" {
			counts[e.ContentHash]++
		}
	}
	duplicates := map[string]int{}
	for hash, count := range counts {
		if count > 1 {
			duplicates[hash] = count
		}
	}
	return duplicates
}

// similarContent groups entries by similarity digest when one was
// attached during ingestion. Unlike exact duplicates this catches
// near-identical payloads that differ by a few bytes.
func similarContent(entries []*entry.Entry) map[string]int {
	counts := map[string]int{}
	for _, e := range entries {
		digest, _ := e.Metadata["similarity_digest"].(string)
		if digest != "" {
			counts[digest]++
		}
	}
	similar := map[string]int{}
	for digest, count := range counts {
		if count > 1 {
			similar[digest] = count
		}
	}
	return similar
}

func (s *Engine) detectAnomalies(entries []*entry.Entry) []Anomaly {
	anomalies := []Anomaly{}
	if len(entries) == 0 {
		return anomalies
	}

	// Unusually large content, relative to the mean over positive sizes.
	sizes := positiveSizes(entries)
	if len(sizes) > 0 {
		var total int64
		for _, size := range sizes {
			total += size
		}
		mean := float64(total) / float64(len(sizes))
		threshold := mean * s.opts.SizeMultiplier
		for _, e := range entries {
			if float64(e.SizeBytes) > threshold {
				anomalies = append(anomalies, Anomaly{
					Type:      "unusually_large_content",
					EntryHash: e.ContentHash,
					Timestamp: e.Timestamp,
					Size:      e.SizeBytes,
					Threshold: threshold,
				})
			}
		}
	}

	// High-frequency bursts per floored minute.
	minuteCounts := map[string]int{}
	for _, e := range entries {
		t, ok := entry.ParseTimestamp(e.Timestamp)
		if !ok {
			continue
		}
		minuteCounts[t.Format("2006-01-02 15:04")]++
	}
	minutes := make([]string, 0, len(minuteCounts))
	for minute := range minuteCounts {
		minutes = append(minutes, minute)
	}
	sort.Strings(minutes)
	for _, minute := range minutes {
		if count := minuteCounts[minute]; count > s.opts.FrequencyPerMinute {
			anomalies = append(anomalies, Anomaly{
				Type:       "high_frequency_activity",
				Timestamp:  minute,
				EntryCount: count,
				Threshold:  float64(s.opts.FrequencyPerMinute),
			})
		}
	}

	if len(anomalies) > 0 {
		logger.Infof("Detected %d anomalies", len(anomalies))
	}
	return anomalies
}
