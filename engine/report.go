package engine

import (
	"clipsleuth/entry"
	"clipsleuth/patterns"
	"clipsleuth/stats"
	"clipsleuth/systeminfo"
	"clipsleuth/timeline"
)

// Report is the complete output of one analysis run. It is built once
// and never mutated afterward.
type Report struct {
	Metadata    Metadata         `json:"metadata"`
	Entries     []*entry.Entry   `json:"entries"`
	Statistics  stats.Statistics `json:"statistics"`
	Timeline    []timeline.Event `json:"timeline"`
	Analysis    Analysis         `json:"analysis"`
	GeneratedAt string           `json:"generated_at"`
}

// Metadata describes the run itself.
type Metadata struct {
	AnalysisTime    string                 `json:"analysis_time"`
	Platform        string                 `json:"platform"`
	TotalEntries    int                    `json:"total_entries"`
	User            string                 `json:"user,omitempty"`
	Hostname        string                 `json:"hostname,omitempty"`
	AnalyzerVersion string                 `json:"analyzer_version"`
	Error           string                 `json:"error,omitempty"`
	System          *systeminfo.SystemInfo `json:"system,omitempty"`
}

// Analysis carries the pattern detector output. SuspiciousPatterns
// mirrors Enhanced.Findings at the top level for consumers that only
// look at the flat lists.
type Analysis struct {
	SuspiciousPatterns    []patterns.Finding               `json:"suspicious_patterns"`
	PotentialExfiltration []patterns.ExfiltrationIndicator `json:"potential_exfiltration"`
	Enhanced              patterns.Result                  `json:"enhanced"`
	Error                 string                           `json:"error,omitempty"`
}

func newAnalysis(result patterns.Result) Analysis {
	return Analysis{
		SuspiciousPatterns:    result.Findings,
		PotentialExfiltration: result.PotentialExfiltration,
		Enhanced:              result,
	}
}

func emptyAnalysis(errMsg string) Analysis {
	return Analysis{
		SuspiciousPatterns:    []patterns.Finding{},
		PotentialExfiltration: []patterns.ExfiltrationIndicator{},
		Error:                 errMsg,
	}
}
