// Package insider aggregates extracted transaction records into
// per-issuer, per-code windows and compares a single-day window against
// a trailing daily-average baseline.
package insider

import (
	"time"

	"github.com/marketwisdom/insiderwatch/pkg/models"
)

// Aggregate folds records whose transaction date falls inside
// [start, end] (both inclusive) into per-issuer, per-code buckets.
// It is pure: identical records yield an identical window regardless of
// input order, which lets concurrent extraction upstream deliver results
// in any order.
func Aggregate(records []models.TransactionRecord, start, end time.Time) models.AggregateWindow {
	w := models.AggregateWindow{
		Start:   start,
		End:     end,
		Buckets: make(map[models.BucketKey]models.Bucket),
	}
	for _, r := range records {
		if r.Date.Before(start) || r.Date.After(end) {
			continue
		}
		key := models.BucketKey{Ticker: r.Ticker, Code: r.Code}
		b := w.Buckets[key]
		b.Count++
		b.TotalShares += r.Shares
		if r.PricePerShare > 0 {
			b.TotalNotional += r.Shares * r.PricePerShare
		}
		w.Buckets[key] = b
	}
	return w
}
