// Package edgar implements discovery of filings on SEC EDGAR: the daily
// master index, per-filing directory manifests, and the latest-filings
// feed. It produces filing references and document locations; it does not
// interpret document contents.
//
// No API key required. Requests must carry a descriptive User-Agent per
// SEC fair-use policy, enforced by the injected infra client.
package edgar

import (
	"context"
	"log/slog"
	"time"

	"github.com/marketwisdom/insiderwatch/internal/infra"
)

// indexCacheTTL bounds how long fetched daily indexes are reused.
// Published indexes are immutable, but the current day's index grows
// until end of day.
const indexCacheTTL = 15 * time.Minute

// Client discovers filings on EDGAR through a gated HTTP client.
type Client struct {
	baseURL string
	http    *infra.Client
	cache   *infra.Cache
	log     *slog.Logger
}

// NewClient creates an EDGAR client. baseURL is normally
// "https://www.sec.gov"; tests point it at a local server.
func NewClient(baseURL string, httpClient *infra.Client, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		baseURL: baseURL,
		http:    httpClient,
		cache:   infra.NewCache(indexCacheTTL),
		log:     log,
	}
}

// FetchDocument retrieves the raw content of a located document.
func (c *Client) FetchDocument(ctx context.Context, url string) ([]byte, error) {
	return c.http.Get(ctx, url)
}
