package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/marketwisdom/insiderwatch/pkg/models"
)

func sampleReport() models.Report {
	day := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)
	last24 := models.AggregateWindow{
		Start: day, End: day.Add(24 * time.Hour),
		Buckets: map[models.BucketKey]models.Bucket{
			{Ticker: "ABC", Code: "S"}: {Count: 2, TotalShares: 200, TotalNotional: 2000},
		},
	}
	baseline := models.BaselineAverage{
		Start: day.AddDate(0, 0, -7), End: day, Days: 7,
		Buckets: map[models.BucketKey]models.AvgBucket{
			{Ticker: "ABC", Code: "S"}: {Count: 2, TotalShares: 100, TotalNotional: 1000},
		},
	}
	comps := []models.ComparisonEntry{
		{Ticker: "ABC", Code: "S", Last24hCount: 2, BaselineDailyAvg: 2, Ratio: 1},
		{Ticker: "NEW", Code: "P", Last24hCount: 1, NewActivity: true},
	}
	return Assemble(last24, baseline, comps, []string{"one filing skipped"})
}

func TestWriteArtifacts(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(filepath.Join(dir, "data"), filepath.Join(dir, "charts"), nil)

	written, err := w.Write(sampleReport())
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	for _, name := range []string{Last24hFile, BaselineFile, ReportFile} {
		if _, err := os.Stat(filepath.Join(dir, "data", name)); err != nil {
			t.Errorf("missing artifact %s: %v", name, err)
		}
	}
	svg, err := os.ReadFile(filepath.Join(dir, "charts", ChartFile))
	if err != nil {
		t.Fatalf("missing chart: %v", err)
	}
	if !strings.HasPrefix(string(svg), "<svg") {
		t.Errorf("chart does not look like SVG: %.40s", svg)
	}
	if len(written.Warnings) != 1 {
		t.Errorf("warnings = %v, want just the original", written.Warnings)
	}
}

func TestReportRoundTrip(t *testing.T) {
	want := sampleReport()
	dir := t.TempDir()
	w := NewWriter(filepath.Join(dir, "data"), filepath.Join(dir, "charts"), nil)
	if _, err := w.Write(want); err != nil {
		t.Fatalf("Write: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "data", ReportFile))
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	var got models.Report
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal report: %v", err)
	}
	if !got.GeneratedAt.Equal(want.GeneratedAt) {
		t.Errorf("GeneratedAt = %v, want %v", got.GeneratedAt, want.GeneratedAt)
	}
	if !reflect.DeepEqual(got.Last24h.Buckets, want.Last24h.Buckets) {
		t.Errorf("Last24h buckets = %+v, want %+v", got.Last24h.Buckets, want.Last24h.Buckets)
	}
	if !reflect.DeepEqual(got.BaselineDailyAvg.Buckets, want.BaselineDailyAvg.Buckets) {
		t.Errorf("baseline buckets = %+v, want %+v", got.BaselineDailyAvg.Buckets, want.BaselineDailyAvg.Buckets)
	}
	if !reflect.DeepEqual(got.Comparisons, want.Comparisons) {
		t.Errorf("comparisons = %+v, want %+v", got.Comparisons, want.Comparisons)
	}
	if !reflect.DeepEqual(got.Warnings, want.Warnings) {
		t.Errorf("warnings = %v, want %v", got.Warnings, want.Warnings)
	}
}

func TestChartDegradesToWarning(t *testing.T) {
	dir := t.TempDir()
	// Charts path collides with an existing file so MkdirAll fails.
	blocked := filepath.Join(dir, "charts")
	if err := os.WriteFile(blocked, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	w := NewWriter(filepath.Join(dir, "data"), blocked, nil)

	written, err := w.Write(sampleReport())
	if err != nil {
		t.Fatalf("Write should not fail on chart error: %v", err)
	}
	found := false
	for _, warn := range written.Warnings {
		if strings.Contains(warn, "chart not written") {
			found = true
		}
	}
	if !found {
		t.Errorf("warnings = %v, want a chart warning", written.Warnings)
	}
	// report.json carries the amended warnings.
	raw, err := os.ReadFile(filepath.Join(dir, "data", ReportFile))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(raw), "chart not written") {
		t.Errorf("report artifact missing chart warning")
	}
}

func TestActivityBarChartEmpty(t *testing.T) {
	svg := ActivityBarChart(nil, DefaultChartConfig())
	if !strings.Contains(svg, "No activity") {
		t.Errorf("empty chart = %.80s, want placeholder text", svg)
	}
}
