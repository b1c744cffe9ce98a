package insider

import (
	"sort"

	"github.com/marketwisdom/insiderwatch/pkg/models"
)

// DailyAverage converts a multi-day window's totals to per-day averages
// using a fixed divisor. The baseline window always spans exactly days
// calendar days, so the divisor does not depend on how many filings the
// window actually contained.
func DailyAverage(w models.AggregateWindow, days int) models.BaselineAverage {
	if days <= 0 {
		days = 1
	}
	avg := models.BaselineAverage{
		Start:   w.Start,
		End:     w.End,
		Days:    days,
		Buckets: make(map[models.BucketKey]models.AvgBucket, len(w.Buckets)),
	}
	d := float64(days)
	for key, b := range w.Buckets {
		avg.Buckets[key] = models.AvgBucket{
			Count:         float64(b.Count) / d,
			TotalShares:   b.TotalShares / d,
			TotalNotional: b.TotalNotional / d,
		}
	}
	return avg
}

// Compare walks the union of keys in the last-24h window and the
// baseline averages. A key with a positive baseline gets a ratio of
// recent count to baseline count; a key active only in the last 24h is
// flagged NewActivity instead of dividing by zero. Keys idle in both
// windows are omitted.
func Compare(last24 models.AggregateWindow, baseline models.BaselineAverage) []models.ComparisonEntry {
	keys := make(map[models.BucketKey]struct{}, len(last24.Buckets)+len(baseline.Buckets))
	for k := range last24.Buckets {
		keys[k] = struct{}{}
	}
	for k := range baseline.Buckets {
		keys[k] = struct{}{}
	}

	entries := make([]models.ComparisonEntry, 0, len(keys))
	for k := range keys {
		recent := last24.Buckets[k].Count
		avg := baseline.Buckets[k].Count
		if recent == 0 && avg == 0 {
			continue
		}
		e := models.ComparisonEntry{
			Ticker:           k.Ticker,
			Code:             k.Code,
			Last24hCount:     recent,
			BaselineDailyAvg: avg,
		}
		switch {
		case avg > 0:
			e.Ratio = float64(recent) / avg
		case recent > 0:
			e.NewActivity = true
		}
		entries = append(entries, e)
	}

	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Last24hCount != b.Last24hCount {
			return a.Last24hCount > b.Last24hCount
		}
		// NewActivity outranks any finite ratio.
		if a.NewActivity != b.NewActivity {
			return a.NewActivity
		}
		if a.Ratio != b.Ratio {
			return a.Ratio > b.Ratio
		}
		if a.Ticker != b.Ticker {
			return a.Ticker < b.Ticker
		}
		return a.Code < b.Code
	})
	return entries
}
