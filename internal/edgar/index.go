package edgar

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/marketwisdom/insiderwatch/internal/infra"
	"github.com/marketwisdom/insiderwatch/pkg/models"
)

// The daily master index is a flat listing of every filing submitted on
// one calendar day, all form types mixed together:
//
//	CIK|Company Name|Form Type|Date Filed|Filename
//
// Data rows start after a separator line of dashes.

// accessionRe matches the canonical accession number inside the Filename
// column, e.g. edgar/data/320193/0000320193-25-000123.txt.
var accessionRe = regexp.MustCompile(`(\d{10}-\d{2}-\d{6})\.txt$`)

// accessionLooseRe is the fallback for non-canonical filenames.
var accessionLooseRe = regexp.MustCompile(`/([0-9-]+)\.txt$`)

// indexURL returns the daily master index URL for a date.
// Indexes are grouped by year and quarter.
func (c *Client) indexURL(day time.Time) string {
	q := (int(day.Month())-1)/3 + 1
	return fmt.Sprintf("%s/Archives/edgar/daily-index/%d/QTR%d/master.%s.idx",
		c.baseURL, day.Year(), q, day.Format("20060102"))
}

// ResolveDay fetches and parses the daily index for one UTC calendar day,
// returning deduplicated references whose form type is in formTypes.
// Transport errors (including a missing index — weekends and holidays
// have none) are returned to the caller; malformed individual lines are
// skipped with a warning, never an error.
func (c *Client) ResolveDay(ctx context.Context, day time.Time, formTypes []string) ([]models.FilingReference, error) {
	url := c.indexURL(day)
	var raw []byte
	if cached, ok := c.cache.Get(url); ok {
		raw = cached.([]byte)
	} else {
		var err error
		if raw, err = c.http.Get(ctx, url); err != nil {
			return nil, fmt.Errorf("daily index %s: %w", day.Format("2006-01-02"), err)
		}
		c.cache.Set(url, raw)
	}

	refs, skipped := parseMasterIndex(raw, day, formTypes)
	if skipped > 0 {
		c.log.Warn("skipped malformed index lines",
			"date", day.Format("2006-01-02"), "lines", skipped)
	}
	return refs, nil
}

// ResolveRange resolves every day in [start, end] inclusive. Days whose
// index does not exist are skipped quietly; other errors abort the scan.
func (c *Client) ResolveRange(ctx context.Context, start, end time.Time, formTypes []string) ([]models.FilingReference, error) {
	var all []models.FilingReference
	seen := make(map[string]bool)

	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		refs, err := c.ResolveDay(ctx, day, formTypes)
		if err != nil {
			var herr *infra.ErrHTTP
			if errors.As(err, &herr) && herr.StatusCode == 404 {
				c.log.Debug("no daily index", "date", day.Format("2006-01-02"))
				continue
			}
			return nil, err
		}
		for _, r := range refs {
			if !seen[r.AccessionNo] {
				seen[r.AccessionNo] = true
				all = append(all, r)
			}
		}
	}
	return all, nil
}

// parseMasterIndex parses the pipe-delimited index body. Lines with fewer
// than five fields, an unparseable date, or no extractable accession
// number are counted as skipped; duplicates collapse by accession number.
func parseMasterIndex(raw []byte, day time.Time, formTypes []string) ([]models.FilingReference, int) {
	wanted := make(map[string]bool, len(formTypes))
	for _, ft := range formTypes {
		wanted[strings.ToUpper(ft)] = true
	}

	lines := strings.Split(string(raw), "\n")

	// Data starts after the last line of dashes; everything before is
	// header material and must not be parsed as rows.
	start := 0
	for i, line := range lines {
		if strings.HasPrefix(line, "-----") {
			start = i + 1
		}
	}

	var refs []models.FilingReference
	seen := make(map[string]bool)
	skipped := 0

	for _, line := range lines[start:] {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Split(line, "|")
		if len(fields) < 5 {
			skipped++
			continue
		}

		formType := strings.ToUpper(strings.TrimSpace(fields[2]))
		if !wanted[formType] {
			continue
		}

		filed, err := time.Parse("2006-01-02", strings.TrimSpace(fields[3]))
		if err != nil {
			// Some index generations use YYYYMMDD.
			filed, err = time.Parse("20060102", strings.TrimSpace(fields[3]))
			if err != nil {
				skipped++
				continue
			}
		}
		if !sameDay(filed, day) {
			continue
		}

		path := strings.TrimSpace(fields[4])
		accession := extractAccession(path)
		if accession == "" {
			skipped++
			continue
		}
		if seen[accession] {
			continue
		}
		seen[accession] = true

		refs = append(refs, models.FilingReference{
			AccessionNo: accession,
			CIK:         strings.TrimSpace(fields[0]),
			CompanyName: strings.TrimSpace(fields[1]),
			FilingDate:  filed.UTC(),
			FormType:    formType,
			IndexPath:   path,
		})
	}
	return refs, skipped
}

// extractAccession pulls the accession number out of an index Filename.
func extractAccession(path string) string {
	if m := accessionRe.FindStringSubmatch(path); m != nil {
		return m[1]
	}
	if m := accessionLooseRe.FindStringSubmatch(path); m != nil && strings.Trim(m[1], "-") != "" {
		return m[1]
	}
	return ""
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
