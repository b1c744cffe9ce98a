package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/marketwisdom/insiderwatch/internal/edgar"
	"github.com/marketwisdom/insiderwatch/internal/form4"
	"github.com/marketwisdom/insiderwatch/internal/insider"
	"github.com/marketwisdom/insiderwatch/pkg/models"
)

// NewInsiderRegistry builds the registry of scan tools. The fetching
// tools share the given EDGAR client and its request gate; the
// aggregation tools are pure and run on their arguments alone.
func NewInsiderRegistry(client *edgar.Client) *Registry {
	r := NewRegistry()

	r.RegisterFunc("resolve-filings",
		"Resolve insider filings from the EDGAR daily index for a date range.",
		ObjectSchema("date range and form types",
			map[string]*JSONSchema{
				"start":      StringProp("first day, YYYY-MM-DD"),
				"end":        StringProp("last day inclusive, YYYY-MM-DD (default: start)"),
				"form_types": ArrayProp("form types to keep, e.g. [\"4\",\"4/A\"]", StringProp("form type")),
			}, "start"),
		func(ctx context.Context, args json.RawMessage) (string, error) {
			var req struct {
				Start     string   `json:"start"`
				End       string   `json:"end"`
				FormTypes []string `json:"form_types"`
			}
			if err := json.Unmarshal(args, &req); err != nil {
				return "", fmt.Errorf("resolve-filings: %w", err)
			}
			start, err := time.Parse("2006-01-02", req.Start)
			if err != nil {
				return "", fmt.Errorf("resolve-filings: bad start date: %w", err)
			}
			end := start
			if req.End != "" {
				if end, err = time.Parse("2006-01-02", req.End); err != nil {
					return "", fmt.Errorf("resolve-filings: bad end date: %w", err)
				}
			}
			if len(req.FormTypes) == 0 {
				req.FormTypes = []string{"4", "4/A"}
			}
			refs, err := client.ResolveRange(ctx, start, end, req.FormTypes)
			if err != nil {
				return "", err
			}
			return marshalResult(refs)
		})

	r.RegisterFunc("latest-filings",
		"Fetch the newest filings of one form type from the EDGAR current-events feed.",
		ObjectSchema("form type and count",
			map[string]*JSONSchema{
				"form_type": StringProp("form type, e.g. \"4\" (default \"4\")"),
				"limit":     IntProp("maximum entries to return (default 40)"),
			}),
		func(ctx context.Context, args json.RawMessage) (string, error) {
			var req struct {
				FormType string `json:"form_type"`
				Limit    int    `json:"limit"`
			}
			if len(args) > 0 {
				if err := json.Unmarshal(args, &req); err != nil {
					return "", fmt.Errorf("latest-filings: %w", err)
				}
			}
			if req.FormType == "" {
				req.FormType = "4"
			}
			if req.Limit <= 0 {
				req.Limit = 40
			}
			refs, err := client.LatestFilings(ctx, req.FormType, req.Limit)
			if err != nil {
				return "", err
			}
			return marshalResult(refs)
		})

	r.RegisterFunc("extract-transactions",
		"Locate a filing's ownership document and extract its transaction records.",
		ObjectSchema("filing identity",
			map[string]*JSONSchema{
				"accession_no": StringProp("accession number with dashes"),
				"cik":          StringProp("filer CIK, leading zeros allowed"),
				"ticker":       StringProp("issuer ticker fallback if the document omits one"),
			}, "accession_no", "cik"),
		func(ctx context.Context, args json.RawMessage) (string, error) {
			var ref models.FilingReference
			if err := json.Unmarshal(args, &ref); err != nil {
				return "", fmt.Errorf("extract-transactions: %w", err)
			}
			loc, found, err := client.Locate(ctx, ref)
			if err != nil {
				return "", err
			}
			if !found {
				return marshalResult(models.ExtractResult{
					Warnings: []string{fmt.Sprintf("filing %s has no ownership document", ref.AccessionNo)},
				})
			}
			content, err := client.FetchDocument(ctx, loc.DocumentURL)
			if err != nil {
				return "", err
			}
			return marshalResult(form4.Parse(content, ref))
		})

	r.RegisterFunc("aggregate-windows",
		"Aggregate transaction records into per-issuer, per-code buckets for a time window.",
		ObjectSchema("records and window bounds",
			map[string]*JSONSchema{
				"records": ArrayProp("transaction records", ObjectSchema("record", nil)),
				"start":   StringProp("window start, RFC 3339"),
				"end":     StringProp("window end inclusive, RFC 3339"),
			}, "records", "start", "end"),
		func(_ context.Context, args json.RawMessage) (string, error) {
			var req struct {
				Records []models.TransactionRecord `json:"records"`
				Start   time.Time                  `json:"start"`
				End     time.Time                  `json:"end"`
			}
			if err := json.Unmarshal(args, &req); err != nil {
				return "", fmt.Errorf("aggregate-windows: %w", err)
			}
			return marshalResult(insider.Aggregate(req.Records, req.Start, req.End))
		})

	r.RegisterFunc("compare-baseline",
		"Compare a last-24h window against a multi-day window's daily average.",
		ObjectSchema("the two windows",
			map[string]*JSONSchema{
				"last24":   ObjectSchema("last-24h aggregate window", nil),
				"baseline": ObjectSchema("multi-day aggregate window", nil),
				"days":     IntProp("calendar days the baseline window spans (default 7)"),
			}, "last24", "baseline"),
		func(_ context.Context, args json.RawMessage) (string, error) {
			var req struct {
				Last24   models.AggregateWindow `json:"last24"`
				Baseline models.AggregateWindow `json:"baseline"`
				Days     int                    `json:"days"`
			}
			if err := json.Unmarshal(args, &req); err != nil {
				return "", fmt.Errorf("compare-baseline: %w", err)
			}
			if req.Days <= 0 {
				req.Days = 7
			}
			avg := insider.DailyAverage(req.Baseline, req.Days)
			return marshalResult(insider.Compare(req.Last24, avg))
		})

	return r
}

func marshalResult(v any) (string, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(out), nil
}
