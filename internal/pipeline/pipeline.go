// Package pipeline orchestrates a full scan: resolve filings from the
// daily indexes, locate and parse ownership documents concurrently,
// aggregate the two time windows, compare them, and persist artifacts.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/marketwisdom/insiderwatch/internal/config"
	"github.com/marketwisdom/insiderwatch/internal/edgar"
	"github.com/marketwisdom/insiderwatch/internal/form4"
	"github.com/marketwisdom/insiderwatch/internal/infra"
	"github.com/marketwisdom/insiderwatch/internal/insider"
	"github.com/marketwisdom/insiderwatch/internal/report"
	"github.com/marketwisdom/insiderwatch/pkg/models"
)

// Runner wires the scan components together for one or more runs.
type Runner struct {
	cfg    *config.Config
	edgar  *edgar.Client
	writer *report.Writer
	log    *slog.Logger
}

// NewRunner builds a Runner from configuration. A single request gate
// is shared by everything the runner fetches.
func NewRunner(cfg *config.Config, log *slog.Logger) *Runner {
	if log == nil {
		log = slog.Default()
	}
	gate := infra.NewGate(cfg.Edgar.RateLimit)
	httpClient := infra.NewClient(infra.ClientConfig{
		UserAgent:      cfg.Edgar.UserAgent,
		RequestTimeout: cfg.Edgar.RequestTimeout,
		RetryAttempts:  cfg.Edgar.RetryAttempts,
		RetryBaseDelay: cfg.Edgar.RetryBaseDelay,
	}, gate)
	return &Runner{
		cfg:    cfg,
		edgar:  edgar.NewClient(cfg.Edgar.BaseURL, httpClient, log),
		writer: report.NewWriter(cfg.Output.DataDir, cfg.Output.ChartsDir, log),
		log:    log,
	}
}

// filingResult is one worker's output slot. Slots are preallocated per
// filing so workers never share mutable state.
type filingResult struct {
	records  []models.TransactionRecord
	warnings []string
}

// Run executes a full scan anchored at target: the last-24h window is
// [target-24h, target] and the baseline covers the preceding
// BaselineDays calendar days. It writes all artifacts and returns the
// final report.
func (r *Runner) Run(ctx context.Context, target time.Time) (models.Report, error) {
	target = target.UTC()
	last24Start := target.Add(-24 * time.Hour)
	baselineEnd := last24Start.Add(-time.Nanosecond)
	baselineStart := last24Start.AddDate(0, 0, -r.cfg.Scan.BaselineDays)

	// One index pass covers both windows; the day walk skips weekends
	// and holidays that publish no index.
	refs, err := r.edgar.ResolveRange(ctx, baselineStart, target, r.cfg.Scan.FormTypes)
	if err != nil {
		return models.Report{}, fmt.Errorf("resolve filings: %w", err)
	}
	if max := r.cfg.Scan.MaxFilings; max > 0 && len(refs) > max {
		r.log.Warn("filing cap reached", "resolved", len(refs), "cap", max)
		refs = refs[:max]
	}
	r.log.Info("filings resolved", "count", len(refs),
		"from", baselineStart.Format("2006-01-02"), "to", target.Format("2006-01-02"))

	records, warnings := r.extractAll(ctx, refs)
	if err := ctx.Err(); err != nil {
		return models.Report{}, err
	}

	last24 := insider.Aggregate(records, last24Start, target)
	week := insider.Aggregate(records, baselineStart, baselineEnd)
	baseline := insider.DailyAverage(week, r.cfg.Scan.BaselineDays)
	comparisons := insider.Compare(last24, baseline)

	rep := report.Assemble(last24, baseline, comparisons, warnings)
	written, err := r.writer.Write(rep)
	if err != nil {
		return models.Report{}, fmt.Errorf("write artifacts: %w", err)
	}
	r.log.Info("scan complete",
		"records", len(records), "comparisons", len(comparisons), "warnings", len(written.Warnings))
	return written, nil
}

// extractAll locates, fetches, and parses every filing concurrently.
// Each filing writes only its own result slot; failures skip the filing
// with a warning and never abort the batch.
func (r *Runner) extractAll(ctx context.Context, refs []models.FilingReference) ([]models.TransactionRecord, []string) {
	results := make([]filingResult, len(refs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Scan.Workers)
	for i, ref := range refs {
		i, ref := i, ref
		g.Go(func() error {
			results[i] = r.processFiling(ctx, ref)
			return nil
		})
	}
	_ = g.Wait() // workers never return errors; skips become warnings

	var records []models.TransactionRecord
	var warnings []string
	for _, res := range results {
		records = append(records, res.records...)
		warnings = append(warnings, res.warnings...)
	}
	return records, warnings
}

func (r *Runner) processFiling(ctx context.Context, ref models.FilingReference) filingResult {
	loc, found, err := r.edgar.Locate(ctx, ref)
	if err != nil {
		r.log.Warn("filing skipped", "accession", ref.AccessionNo, "error", err)
		return filingResult{warnings: []string{fmt.Sprintf("filing %s skipped: %v", ref.AccessionNo, err)}}
	}
	if !found {
		// Expected for some amendments; not a defect in the filing.
		r.log.Debug("no ownership document", "accession", ref.AccessionNo)
		return filingResult{}
	}

	content, err := r.edgar.FetchDocument(ctx, loc.DocumentURL)
	if err != nil {
		r.log.Warn("document fetch failed", "accession", ref.AccessionNo, "error", err)
		return filingResult{warnings: []string{fmt.Sprintf("document for %s skipped: %v", ref.AccessionNo, err)}}
	}

	extracted := form4.Parse(content, ref)
	for _, w := range extracted.Warnings {
		r.log.Warn("extraction warning", "accession", ref.AccessionNo, "warning", w)
	}
	return filingResult{records: extracted.Records, warnings: extracted.Warnings}
}
