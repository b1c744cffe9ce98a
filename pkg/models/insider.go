// Package models defines the shared domain types for the insider filing
// activity scanner: filing references discovered from the EDGAR daily index,
// transaction records extracted from Form 4 documents, aggregate windows,
// and the final comparison report.
package models

import (
	"encoding/json"
	"sort"
	"time"
)

// FilingReference identifies a single filing discovered in the daily index.
// Identity is the accession number; a filing appears at most once per scan.
type FilingReference struct {
	AccessionNo string    `json:"accession_no"`
	CIK         string    `json:"cik"`
	CompanyName string    `json:"company_name"`
	Ticker      string    `json:"ticker,omitempty"` // not present in the daily index; resolved from the document
	FilingDate  time.Time `json:"filing_date"`
	FormType    string    `json:"form_type"`  // "4" or "4/A"
	IndexPath   string    `json:"index_path"` // Filename column, e.g. edgar/data/320193/0000320193-25-000123.txt
}

// DocumentLocation resolves a filing reference to its machine-readable
// ownership document inside the filing directory.
type DocumentLocation struct {
	AccessionNo string `json:"accession_no"`
	DocumentURL string `json:"document_url"`
}

// TransactionRecord is a single insider transaction extracted from a Form 4.
type TransactionRecord struct {
	Ticker        string    `json:"ticker"`
	Code          string    `json:"code"` // single-letter transaction code: P, S, A, ...
	SecurityTitle string    `json:"security_title,omitempty"`
	Shares        float64   `json:"shares"`
	PricePerShare float64   `json:"price_per_share"` // zero when the document carries no price
	Date          time.Time `json:"date"`
	Derivative    bool      `json:"derivative"`
}

// BucketKey identifies one (issuer, transaction code) aggregation bucket.
type BucketKey struct {
	Ticker string
	Code   string
}

// Bucket accumulates counts and sums for one issuer+code pair. Values are
// only ever incremented while a window is being built.
type Bucket struct {
	Count         int
	TotalShares   float64
	TotalNotional float64
}

// AggregateWindow holds per-issuer, per-code aggregates for a time window.
// Both bounds are inclusive.
type AggregateWindow struct {
	Start   time.Time
	End     time.Time
	Buckets map[BucketKey]Bucket
}

// WindowEntry is one bucket flattened for serialization.
type WindowEntry struct {
	Ticker        string  `json:"ticker"`
	Code          string  `json:"code"`
	Count         int     `json:"count"`
	TotalShares   float64 `json:"total_shares"`
	TotalNotional float64 `json:"total_notional"`
}

// Entries returns the window's buckets as a slice sorted by ticker then
// code, suitable for serialization and display.
func (w AggregateWindow) Entries() []WindowEntry {
	entries := make([]WindowEntry, 0, len(w.Buckets))
	for k, b := range w.Buckets {
		entries = append(entries, WindowEntry{
			Ticker:        k.Ticker,
			Code:          k.Code,
			Count:         b.Count,
			TotalShares:   b.TotalShares,
			TotalNotional: b.TotalNotional,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Ticker != entries[j].Ticker {
			return entries[i].Ticker < entries[j].Ticker
		}
		return entries[i].Code < entries[j].Code
	})
	return entries
}

// windowJSON is the wire form of AggregateWindow. A map keyed by a struct
// cannot be a JSON object, so buckets travel as a sorted entry list.
type windowJSON struct {
	Start   time.Time     `json:"start"`
	End     time.Time     `json:"end"`
	Entries []WindowEntry `json:"entries"`
}

// MarshalJSON serializes the window with buckets as a sorted entry list.
func (w AggregateWindow) MarshalJSON() ([]byte, error) {
	return json.Marshal(windowJSON{Start: w.Start, End: w.End, Entries: w.Entries()})
}

// UnmarshalJSON rebuilds the bucket map from the entry list.
func (w *AggregateWindow) UnmarshalJSON(data []byte) error {
	var wire windowJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	w.Start = wire.Start
	w.End = wire.End
	w.Buckets = make(map[BucketKey]Bucket, len(wire.Entries))
	for _, e := range wire.Entries {
		w.Buckets[BucketKey{Ticker: e.Ticker, Code: e.Code}] = Bucket{
			Count:         e.Count,
			TotalShares:   e.TotalShares,
			TotalNotional: e.TotalNotional,
		}
	}
	return nil
}

// AvgBucket is a bucket's totals averaged per day. Counts become
// fractional: 14 transactions over 7 days is an average of 2 per day,
// but 3 over 7 days is 0.43.
type AvgBucket struct {
	Count         float64
	TotalShares   float64
	TotalNotional float64
}

// BaselineAverage summarizes a multi-day window as per-day averages
// over a fixed number of calendar days.
type BaselineAverage struct {
	Start   time.Time
	End     time.Time
	Days    int
	Buckets map[BucketKey]AvgBucket
}

// AvgEntry is one averaged bucket flattened for serialization.
type AvgEntry struct {
	Ticker        string  `json:"ticker"`
	Code          string  `json:"code"`
	Count         float64 `json:"count"`
	TotalShares   float64 `json:"total_shares"`
	TotalNotional float64 `json:"total_notional"`
}

// Entries returns the averaged buckets sorted by ticker then code.
func (b BaselineAverage) Entries() []AvgEntry {
	entries := make([]AvgEntry, 0, len(b.Buckets))
	for k, v := range b.Buckets {
		entries = append(entries, AvgEntry{
			Ticker:        k.Ticker,
			Code:          k.Code,
			Count:         v.Count,
			TotalShares:   v.TotalShares,
			TotalNotional: v.TotalNotional,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Ticker != entries[j].Ticker {
			return entries[i].Ticker < entries[j].Ticker
		}
		return entries[i].Code < entries[j].Code
	})
	return entries
}

type baselineJSON struct {
	Start   time.Time  `json:"start"`
	End     time.Time  `json:"end"`
	Days    int        `json:"days"`
	Entries []AvgEntry `json:"entries"`
}

// MarshalJSON serializes the baseline with buckets as a sorted entry list.
func (b BaselineAverage) MarshalJSON() ([]byte, error) {
	return json.Marshal(baselineJSON{Start: b.Start, End: b.End, Days: b.Days, Entries: b.Entries()})
}

// UnmarshalJSON rebuilds the averaged bucket map from the entry list.
func (b *BaselineAverage) UnmarshalJSON(data []byte) error {
	var wire baselineJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	b.Start = wire.Start
	b.End = wire.End
	b.Days = wire.Days
	b.Buckets = make(map[BucketKey]AvgBucket, len(wire.Entries))
	for _, e := range wire.Entries {
		b.Buckets[BucketKey{Ticker: e.Ticker, Code: e.Code}] = AvgBucket{
			Count:         e.Count,
			TotalShares:   e.TotalShares,
			TotalNotional: e.TotalNotional,
		}
	}
	return nil
}

// ComparisonEntry compares last-24h activity against the trailing daily
// average for one issuer+code pair. When the baseline is zero and the
// last-24h count is positive the entry is flagged NewActivity and Ratio
// is zero; a ratio is never computed against a zero baseline.
type ComparisonEntry struct {
	Ticker           string  `json:"ticker"`
	Code             string  `json:"code"`
	Last24hCount     int     `json:"last_24h_count"`
	BaselineDailyAvg float64 `json:"baseline_daily_avg"`
	Ratio            float64 `json:"ratio,omitempty"`
	NewActivity      bool    `json:"new_activity,omitempty"`
}

// Report is the final assembled output of a scan.
type Report struct {
	GeneratedAt      time.Time         `json:"generated_at"`
	Last24h          AggregateWindow   `json:"last_24h"`
	BaselineDailyAvg BaselineAverage   `json:"baseline_daily_avg"`
	Comparisons      []ComparisonEntry `json:"comparisons"`
	Warnings         []string          `json:"warnings,omitempty"`
}

// ExtractResult is the tagged outcome of parsing one ownership document:
// zero or more records plus any warnings recovered along the way. A
// malformed document yields no records and a warning, never an error.
type ExtractResult struct {
	Records  []TransactionRecord `json:"records"`
	Warnings []string            `json:"warnings,omitempty"`
}
