package edgar

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/marketwisdom/insiderwatch/pkg/models"
)

// EDGAR publishes an Atom feed of the most recently accepted filings.
// It lags the daily index by nothing and leads it by hours, so it is
// useful as a quick look at today's activity before the index closes;
// the daily index remains the source of record for a full scan.

// feedAccessionRe matches the accession number in a feed entry ID, e.g.
// urn:tag:sec.gov,2008:accession-number=0000320193-25-000123.
var feedAccessionRe = regexp.MustCompile(`accession-number=(\d{10}-\d{2}-\d{6})`)

// feedTitleRe splits "4 - COMPANY NAME (0000320193) (Issuer)".
var feedTitleRe = regexp.MustCompile(`^([^ ]+) - (.+?) \((\d{10})\)`)

// LatestFilings fetches the current-events feed for one form type and
// returns up to limit references, newest first. Entries that cannot be
// attributed an accession number are skipped with a warning.
func (c *Client) LatestFilings(ctx context.Context, formType string, limit int) ([]models.FilingReference, error) {
	if limit <= 0 || limit > 100 {
		limit = 40
	}
	feedURL := fmt.Sprintf(
		"%s/cgi-bin/browse-edgar?action=getcurrent&type=%s&owner=include&count=%d&output=atom",
		c.baseURL, url.QueryEscape(formType), limit)

	raw, err := c.http.Get(ctx, feedURL)
	if err != nil {
		return nil, fmt.Errorf("latest filings feed: %w", err)
	}

	feed, err := gofeed.NewParser().ParseString(string(raw))
	if err != nil {
		return nil, fmt.Errorf("parse latest filings feed: %w", err)
	}

	var refs []models.FilingReference
	for _, item := range feed.Items {
		if len(refs) >= limit {
			break
		}
		ref, ok := feedItemRef(item)
		if !ok {
			c.log.Warn("unattributable feed entry", "title", item.Title)
			continue
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// feedItemRef converts one feed entry into a filing reference.
func feedItemRef(item *gofeed.Item) (models.FilingReference, bool) {
	accession := ""
	for _, s := range []string{item.GUID, item.Link} {
		if m := feedAccessionRe.FindStringSubmatch(s); m != nil {
			accession = m[1]
			break
		}
	}
	if accession == "" {
		return models.FilingReference{}, false
	}

	ref := models.FilingReference{AccessionNo: accession}
	if m := feedTitleRe.FindStringSubmatch(item.Title); m != nil {
		ref.FormType = strings.ToUpper(m[1])
		ref.CompanyName = m[2]
		ref.CIK = strings.TrimLeft(m[3], "0")
	}
	if item.UpdatedParsed != nil {
		ref.FilingDate = item.UpdatedParsed.UTC()
	} else if item.PublishedParsed != nil {
		ref.FilingDate = item.PublishedParsed.UTC()
	} else {
		ref.FilingDate = time.Time{}
	}
	return ref, true
}
