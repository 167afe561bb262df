package output

import (
	"fmt"
	"html/template"
	"os"
	"time"

	"clipsleuth/engine"
)

type htmlView struct {
	Title         string
	GeneratedTime string
	Report        *engine.Report
	RiskColor     string
	HourlyBars    []hourlyBar
	Sources       []sourceShare
}

type hourlyBar struct {
	Hour    string
	Count   int
	Percent float64
}

type sourceShare struct {
	Name    string
	Count   int
	Percent float64
}

func (w *Writer) writeHTML(path string, report *engine.Report) error {
	view := buildHTMLView(report)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("create html report %s: %w", path, err)
	}
	defer f.Close()

	if err := reportTemplate.Execute(f, view); err != nil {
		return fmt.Errorf("render html report: %w", err)
	}
	return nil
}

func buildHTMLView(report *engine.Report) *htmlView {
	view := &htmlView{
		Title:         "Clipboard Forensics Report",
		GeneratedTime: time.Now().UTC().Format("2006-01-02 15:04:05"),
		Report:        report,
		RiskColor:     riskColor(report.Analysis.Enhanced.RiskScore),
	}

	maxCount := 1
	for _, count := range report.Statistics.HourlyActivity {
		if count > maxCount {
			maxCount = count
		}
	}
	for hour := 0; hour < 24; hour++ {
		count := report.Statistics.HourlyActivity[hour]
		view.HourlyBars = append(view.HourlyBars, hourlyBar{
			Hour:    fmt.Sprintf("%02d:00", hour),
			Count:   count,
			Percent: float64(count) / float64(maxCount) * 100,
		})
	}

	total := 0
	for _, count := range report.Statistics.SourceDistribution {
		total += count
	}
	for name, count := range report.Statistics.SourceDistribution {
		share := 0.0
		if total > 0 {
			share = float64(count) / float64(total) * 100
		}
		view.Sources = append(view.Sources, sourceShare{Name: name, Count: count, Percent: share})
	}

	return view
}

func riskColor(score int) string {
	switch {
	case score < 30:
		return "#28a745"
	case score < 70:
		return "#ffc107"
	default:
		return "#dc3545"
	}
}

var reportTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>{{.Title}}</title>
<style>
body { font-family: 'Segoe UI', Arial, sans-serif; max-width: 1200px; margin: 0 auto; padding: 20px; background: #f5f5f5; }
h1 { color: #2c3e50; border-bottom: 3px solid #3498db; padding-bottom: 10px; }
.meta { color: #7f8c8d; font-size: 14px; margin-bottom: 30px; }
.section { background: white; padding: 20px; border-radius: 8px; margin-bottom: 20px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
.section table { width: 100%; border-collapse: collapse; }
.section td { padding: 6px 10px; border-bottom: 1px solid #eee; }
.alert { padding: 12px; border-radius: 4px; margin-bottom: 8px; }
.alert.warning { background: #fff3cd; color: #856404; }
.alert.danger { background: #f8d7da; color: #721c24; }
.risk-score { font-size: 24px; font-weight: bold; margin: 10px 0; }
.bar-item { display: flex; align-items: center; margin: 2px 0; }
.bar-label { width: 60px; font-size: 12px; color: #7f8c8d; }
.bar-container { flex: 1; display: flex; align-items: center; }
.bar { background: #3498db; height: 14px; border-radius: 2px; }
.bar-value { margin-left: 8px; font-size: 12px; }
.entry { border: 1px solid #ddd; border-radius: 4px; padding: 12px; margin-bottom: 10px; }
.entry-header { display: flex; justify-content: space-between; color: #7f8c8d; font-size: 13px; }
.entry pre { background: #f8f9fa; padding: 8px; overflow-x: auto; white-space: pre-wrap; }
.entry-footer { color: #95a5a6; font-size: 12px; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<div class="meta">Generated {{.GeneratedTime}} UTC</div>

<div class="section">
<h2>Analysis Summary</h2>
<table>
<tr><td><strong>Platform</strong></td><td>{{.Report.Metadata.Platform}}</td></tr>
<tr><td><strong>User</strong></td><td>{{.Report.Metadata.User}}</td></tr>
<tr><td><strong>Hostname</strong></td><td>{{.Report.Metadata.Hostname}}</td></tr>
<tr><td><strong>Analysis Time</strong></td><td>{{.Report.Metadata.AnalysisTime}}</td></tr>
<tr><td><strong>Total Entries</strong></td><td>{{.Report.Metadata.TotalEntries}}</td></tr>
{{if .Report.Metadata.Error}}<tr><td><strong>Error</strong></td><td>{{.Report.Metadata.Error}}</td></tr>{{end}}
</table>
</div>

{{if or .Report.Analysis.SuspiciousPatterns .Report.Analysis.PotentialExfiltration}}
<div class="section">
{{if .Report.Analysis.SuspiciousPatterns}}<div class="alert warning">Warning: {{len .Report.Analysis.SuspiciousPatterns}} suspicious patterns detected</div>{{end}}
{{if .Report.Analysis.PotentialExfiltration}}<div class="alert danger">Alert: {{len .Report.Analysis.PotentialExfiltration}} potential data exfiltration indicators</div>{{end}}
</div>
{{end}}

<div class="section">
<h3>Risk Analysis</h3>
<div class="risk-score" style="color: {{.RiskColor}}">Risk Score: {{.Report.Analysis.Enhanced.RiskScore}}/100</div>
<h4>Sensitive Data Found</h4>
<ul>
{{range $category, $count := .Report.Analysis.Enhanced.Summary}}<li>{{$category}}: {{$count}} occurrence(s)</li>
{{else}}<li>No sensitive data detected</li>
{{end}}</ul>
{{if .Report.Analysis.Enhanced.Recommendations}}
<h4>Recommendations</h4>
<ul>
{{range .Report.Analysis.Enhanced.Recommendations}}<li>{{.}}</li>
{{end}}</ul>
{{end}}
</div>

<div class="section">
<h3>Activity Patterns</h3>
<h4>Clipboard Activity by Hour</h4>
{{range .HourlyBars}}<div class="bar-item"><div class="bar-label">{{.Hour}}</div><div class="bar-container"><div class="bar" style="width: {{printf "%.1f" .Percent}}%"></div><span class="bar-value">{{.Count}}</span></div></div>
{{end}}
{{if .Sources}}
<h4>Sources Distribution</h4>
{{range .Sources}}<div class="bar-item"><div class="bar-label">{{.Name}}</div><div class="bar-container"><div class="bar" style="width: {{printf "%.1f" .Percent}}%"></div><span class="bar-value">{{.Count}} ({{printf "%.1f" .Percent}}%)</span></div></div>
{{end}}
{{end}}
</div>

{{if .Report.Timeline}}
<div class="section">
<h3>Timeline</h3>
<table>
<tr><td><strong>#</strong></td><td><strong>Timestamp</strong></td><td><strong>Type</strong></td><td><strong>Source</strong></td><td><strong>Preview</strong></td><td><strong>Gap</strong></td></tr>
{{range .Report.Timeline}}<tr><td>{{.Sequence}}</td><td>{{.Timestamp}}</td><td>{{.ContentType}}</td><td>{{.SourceApp}}</td><td>{{.ContentPreview}}</td><td>{{.TimeSincePrevious.HumanReadable}}</td></tr>
{{end}}</table>
</div>
{{end}}

<div class="section">
<h3>Entries</h3>
{{range $i, $e := .Report.Entries}}
<div class="entry">
<div class="entry-header"><span>#{{$e.ContentHash}}</span><span>{{$e.Source}}</span><span>{{$e.Timestamp}}</span></div>
<div>{{$e.ContentType}}</div>
<div><pre>{{$e.Content}}</pre></div>
<div class="entry-footer">Size: {{$e.SizeBytes}} bytes | Hash: {{$e.ContentHash}}</div>
</div>
{{end}}
</div>
</body>
</html>
`))
