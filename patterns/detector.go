package patterns

import (
	"fmt"
	"strings"

	"clipsleuth/entry"
	"clipsleuth/logger"

	"github.com/cespare/xxhash/v2"
)

// Finding is a single rule match against one entry's content. The excerpt
// is truncated so the full sensitive payload never lands in a finding.
type Finding struct {
	Category    string `json:"category"`
	Description string `json:"description"`
	MatchedText string `json:"matched_text"`
	EntryHash   string `json:"entry_hash"`
	Timestamp   string `json:"timestamp"`
	Source      string `json:"source"`
}

// ExfiltrationIndicator flags one entry as possible data leaving the host.
type ExfiltrationIndicator struct {
	Type        string `json:"type"`
	EntryHash   string `json:"entry_hash"`
	Timestamp   string `json:"timestamp"`
	SessionInfo string `json:"session_info"`
	Source      string `json:"source"`
	Reason      string `json:"reason"`
}

// Result is the full detector output for one batch of entries.
type Result struct {
	Findings              []Finding               `json:"findings"`
	Summary               map[string]int          `json:"summary"`
	RiskScore             int                     `json:"risk_score"`
	Recommendations       []string                `json:"recommendations"`
	PotentialExfiltration []ExfiltrationIndicator `json:"potential_exfiltration"`
}

// Options tune the detector. Zero values fall back to the calibrated
// defaults.
type Options struct {
	ExcerptLimit       int
	LargeTransferBytes int
	MediaTransferBytes int
}

func (o Options) withDefaults() Options {
	if o.ExcerptLimit <= 0 {
		o.ExcerptLimit = 50
	}
	if o.LargeTransferBytes <= 0 {
		o.LargeTransferBytes = 10000
	}
	if o.MediaTransferBytes <= 0 {
		o.MediaTransferBytes = 1000
	}
	return o
}

// remoteAccessTools are source_app markers of remote-access software.
var remoteAccessTools = []string{"rdp", "vnc", "teamviewer", "ssh"}

// Detector evaluates a fixed rule catalog against entries. The catalog is
// loaded once and read-only afterwards.
type Detector struct {
	rules []Rule
	pre   *prefilter
	opts  Options
}

func NewDetector(opts Options) *Detector {
	return NewDetectorWithCatalog(DefaultCatalog(), opts)
}

func NewDetectorWithCatalog(rules []Rule, opts Options) *Detector {
	d := &Detector{rules: rules, opts: opts.withDefaults()}
	if len(rules) > 0 {
		d.pre = newPrefilter(rules)
	}
	return d
}

// Detect classifies every entry against every applicable rule and derives
// the per-category summary, risk score, recommendations, and the
// exfiltration heuristic. It always returns a well-shaped result.
func (d *Detector) Detect(entries []*entry.Entry) Result {
	result := Result{
		Findings:              []Finding{},
		Summary:               map[string]int{},
		Recommendations:       []string{},
		PotentialExfiltration: []ExfiltrationIndicator{},
	}
	if len(d.rules) == 0 {
		logger.Warn("Pattern catalog empty; detection skipped")
		result.Recommendations = append(result.Recommendations, "Pattern analysis unavailable")
		return result
	}

	logger.Debugf("Pattern analysis on %d entries", len(entries))

	for _, e := range entries {
		if ind, fired := d.checkExfiltration(e); fired {
			result.PotentialExfiltration = append(result.PotentialExfiltration, ind)
		}
		if e.Content == "" {
			continue
		}
		content := []byte(e.Content)
		// Dedupe is scoped to the entry: the same content recurring at a
		// different timestamp is a separate finding.
		seen := make(map[uint64]struct{})
		for _, idx := range d.pre.candidates(content) {
			rule := d.rules[idx]
			for _, span := range rule.re.FindAllStringIndex(e.Content, -1) {
				if !markSpan(seen, rule.Name, span[0], span[1]) {
					continue
				}
				result.Findings = append(result.Findings, Finding{
					Category:    string(rule.Category),
					Description: rule.Description,
					MatchedText: entry.Truncate(e.Content[span[0]:span[1]], d.opts.ExcerptLimit),
					EntryHash:   e.ContentHash,
					Timestamp:   e.Timestamp,
					Source:      e.Source(),
				})
				result.Summary[string(rule.Category)]++
			}
		}
	}

	result.RiskScore = riskScore(result.Summary)
	result.Recommendations = recommendations(result.Summary)

	logger.Infof("Found %d sensitive data patterns (risk %d)", len(result.Findings), result.RiskScore)
	return result
}

// markSpan dedupes repeated rule hits on the same span within one entry.
func markSpan(seen map[uint64]struct{}, rule string, start, end int) bool {
	key := xxhash.Sum64String(fmt.Sprintf("%s\x00%d\x00%d", rule, start, end))
	if _, dup := seen[key]; dup {
		return false
	}
	seen[key] = struct{}{}
	return true
}

// riskScore sums weighted, capped category counts and clamps to 100.
func riskScore(summary map[string]int) int {
	score := 0
	for category, count := range summary {
		if count <= 0 {
			continue
		}
		if count > perCategoryCap {
			count = perCategoryCap
		}
		score += Weight(Category(category)) * count
	}
	if score > maxRiskScore {
		score = maxRiskScore
	}
	return score
}

func recommendations(summary map[string]int) []string {
	var recs []string
	if summary[string(CategoryCredentials)] > 0 {
		recs = append(recs, "Credentials detected in clipboard - consider using a password manager")
	}
	if summary[string(CategoryFinancial)] > 0 {
		recs = append(recs, "Financial data found - ensure clipboard is cleared after use")
	}
	if summary[string(CategoryPersonal)] > 2 {
		recs = append(recs, "Multiple personal identifiers found - review data handling practices")
	}
	if len(recs) == 0 {
		recs = append(recs, "No high-risk patterns detected")
	}
	return recs
}

// checkExfiltration applies the exfiltration heuristic to one entry. It is
// independent of the weighted risk score.
func (d *Detector) checkExfiltration(e *entry.Entry) (ExfiltrationIndicator, bool) {
	session := strings.ToLower(e.SessionInfo)
	source := strings.ToLower(e.SourceApp)

	remoteSession := strings.Contains(session, "remote")
	remoteTool := false
	for _, tool := range remoteAccessTools {
		if source != "" && strings.Contains(source, tool) {
			remoteTool = true
			break
		}
	}
	largeTransfer := len(e.Content) > d.opts.LargeTransferBytes
	mediaTransfer := (e.ContentType == entry.TypeFile || e.ContentType == entry.TypeImage) &&
		len(e.Content) > d.opts.MediaTransferBytes

	if !remoteSession && !remoteTool && !largeTransfer && !mediaTransfer {
		return ExfiltrationIndicator{}, false
	}

	var reasons []string
	if remoteSession {
		reasons = append(reasons, "Remote session detected")
	}
	if largeTransfer {
		reasons = append(reasons, "Large data transfer")
	}
	if remoteTool {
		reasons = append(reasons, "Remote access application")
	}
	reason := strings.Join(reasons, "; ")
	if reason == "" {
		reason = "Suspicious activity pattern"
	}

	return ExfiltrationIndicator{
		Type:        "suspicious_session",
		EntryHash:   e.ContentHash,
		Timestamp:   e.Timestamp,
		SessionInfo: e.SessionInfo,
		Source:      e.Source(),
		Reason:      reason,
	}, true
}
