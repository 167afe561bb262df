// Package output persists a finished report as JSON or HTML and
// optionally streams its records to an OTLP logs endpoint.
package output

import (
	"fmt"
	"os"
	"strings"

	"clipsleuth/config"
	"clipsleuth/engine"
	"clipsleuth/logger"
)

const SchemaVersion = "1.0"

type Writer struct {
	cfg  *config.Config
	otel *otelLogger
}

func New(cfg *config.Config) (*Writer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	w := &Writer{cfg: cfg}

	otel, err := newOtelLogger(cfg)
	if err != nil {
		logger.Warnf("OTEL export disabled: %v", err)
	} else {
		w.otel = otel
	}
	return w, nil
}

// Write persists the report in the configured format. A separate HTML
// report can be requested alongside a JSON primary.
func (w *Writer) Write(report *engine.Report) error {
	format := strings.ToLower(w.cfg.OutputFormat)

	switch format {
	case "html":
		if err := w.writeHTML(w.cfg.OutputFileName, report); err != nil {
			return err
		}
	default:
		if err := w.writeJSON(w.cfg.OutputFileName, report); err != nil {
			return err
		}
	}

	if w.cfg.HTMLReportFileName != "" && format != "html" {
		if err := w.writeHTML(w.cfg.HTMLReportFileName, report); err != nil {
			return err
		}
	}

	w.exportRecords(report)
	return nil
}

func (w *Writer) writeJSON(path string, report *engine.Report) error {
	data, err := jsonMarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}
	logger.Infof("Report written to %s", path)
	return nil
}

// exportRecords streams findings, exfiltration indicators, anomalies,
// and a run summary over OTLP when an endpoint is configured.
func (w *Writer) exportRecords(report *engine.Report) {
	if w.otel == nil {
		return
	}
	for _, finding := range report.Analysis.Enhanced.Findings {
		w.otel.Emit("finding", finding)
	}
	for _, indicator := range report.Analysis.PotentialExfiltration {
		w.otel.Emit("exfiltration", indicator)
	}
	for _, anomaly := range report.Statistics.Anomalies {
		w.otel.Emit("anomaly", anomaly)
	}
	w.otel.Emit("summary", map[string]interface{}{
		"total_entries":          report.Metadata.TotalEntries,
		"risk_score":             report.Analysis.Enhanced.RiskScore,
		"findings":               len(report.Analysis.Enhanced.Findings),
		"potential_exfiltration": len(report.Analysis.PotentialExfiltration),
		"anomalies":              len(report.Statistics.Anomalies),
		"generated_at":           report.GeneratedAt,
	})
}

// Close flushes the OTLP pipeline.
func (w *Writer) Close() {
	if w.otel != nil {
		w.otel.Shutdown()
	}
}
