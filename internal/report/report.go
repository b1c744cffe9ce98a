// Package report assembles scan results into the final report and
// persists JSON and SVG artifacts to disk.
package report

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/marketwisdom/insiderwatch/pkg/models"
)

// Artifact file names under the data and charts directories.
const (
	Last24hFile  = "last24h.json"
	BaselineFile = "baseline_daily_avg.json"
	ReportFile   = "report.json"
	ChartFile    = "activity.svg"
)

// chartTopN bounds how many comparison rows make it onto the chart.
const chartTopN = 10

// Assemble builds the final report from the two windows and the
// comparison entries. Warnings accumulated during the scan ride along
// so a reader can tell a clean run from a degraded one.
func Assemble(last24 models.AggregateWindow, baseline models.BaselineAverage, comparisons []models.ComparisonEntry, warnings []string) models.Report {
	return models.Report{
		GeneratedAt:      time.Now().UTC(),
		Last24h:          last24,
		BaselineDailyAvg: baseline,
		Comparisons:      comparisons,
		Warnings:         warnings,
	}
}

// Writer persists report artifacts. JSON artifacts are written
// atomically; a chart render or write failure is reported as a warning
// on the report rather than failing the run.
type Writer struct {
	DataDir   string
	ChartsDir string
	ChartCfg  ChartConfig

	log *slog.Logger
}

// NewWriter returns a Writer targeting the given directories.
func NewWriter(dataDir, chartsDir string, log *slog.Logger) *Writer {
	if log == nil {
		log = slog.Default()
	}
	return &Writer{
		DataDir:   dataDir,
		ChartsDir: chartsDir,
		ChartCfg:  DefaultChartConfig(),
		log:       log,
	}
}

// Write persists the three JSON artifacts and the activity chart.
// The report passed in may gain a warning if the chart cannot be
// written; the possibly amended report is what lands in report.json.
func (w *Writer) Write(report models.Report) (models.Report, error) {
	if err := writeJSONAtomic(filepath.Join(w.DataDir, Last24hFile), report.Last24h); err != nil {
		return report, fmt.Errorf("write last-24h artifact: %w", err)
	}
	if err := writeJSONAtomic(filepath.Join(w.DataDir, BaselineFile), report.BaselineDailyAvg); err != nil {
		return report, fmt.Errorf("write baseline artifact: %w", err)
	}

	if err := w.writeChart(report); err != nil {
		warn := fmt.Sprintf("chart not written: %v", err)
		w.log.Warn("chart generation failed", "error", err)
		report.Warnings = append(report.Warnings, warn)
	}

	if err := writeJSONAtomic(filepath.Join(w.DataDir, ReportFile), report); err != nil {
		return report, fmt.Errorf("write report artifact: %w", err)
	}
	return report, nil
}

func (w *Writer) writeChart(report models.Report) error {
	items := chartItems(report.Comparisons)
	svg := ActivityBarChart(items, w.ChartCfg)
	if err := os.MkdirAll(w.ChartsDir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(w.ChartsDir, ChartFile), []byte(svg), 0o644)
}

// chartItems turns the top comparison entries into chart bars. The
// comparisons are already ranked, so the chart shows the busiest pairs
// first with new-activity pairs accented.
func chartItems(comparisons []models.ComparisonEntry) []BarItem {
	n := len(comparisons)
	if n > chartTopN {
		n = chartTopN
	}
	items := make([]BarItem, 0, n)
	for _, c := range comparisons[:n] {
		items = append(items, BarItem{
			Label:  c.Ticker + "/" + c.Code,
			Value:  float64(c.Last24hCount),
			Accent: c.NewActivity,
		})
	}
	return items
}

// writeJSONAtomic writes v as indented JSON via a temp file in the
// target directory, renamed into place so readers never see a partial
// artifact.
func writeJSONAtomic(path string, v any) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
