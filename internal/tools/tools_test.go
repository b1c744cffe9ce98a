package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/marketwisdom/insiderwatch/internal/edgar"
	"github.com/marketwisdom/insiderwatch/internal/infra"
	"github.com/marketwisdom/insiderwatch/pkg/models"
)

func newEdgarClient(t *testing.T, handler http.Handler) *edgar.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	httpc := infra.NewClient(infra.ClientConfig{
		UserAgent:      "tools-test/1.0",
		RequestTimeout: 5 * time.Second,
		RetryAttempts:  1,
		RetryBaseDelay: time.Millisecond,
	}, infra.NewGate(1000))
	return edgar.NewClient(srv.URL, httpc, nil)
}

func TestRegistryExecuteUnknown(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Execute(context.Background(), "nope", nil); !errors.Is(err, ErrToolNotFound) {
		t.Errorf("error = %v, want ErrToolNotFound", err)
	}
}

func TestInsiderRegistryNames(t *testing.T) {
	r := NewInsiderRegistry(newEdgarClient(t, http.NotFoundHandler()))
	want := []string{"aggregate-windows", "compare-baseline", "extract-transactions", "latest-filings", "resolve-filings"}
	if got := r.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("names = %v, want %v", got, want)
	}
}

func TestResolveFilingsTool(t *testing.T) {
	const index = `CIK|Company Name|Form Type|Date Filed|Filename
-----
111|ABC CORP|4|2025-03-14|edgar/data/111/0000000001-25-000001.txt
`
	r := NewInsiderRegistry(newEdgarClient(t, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if strings.HasSuffix(req.URL.Path, "master.20250314.idx") {
			fmt.Fprint(w, index)
			return
		}
		http.NotFound(w, req)
	})))

	out, err := r.Execute(context.Background(), "resolve-filings",
		json.RawMessage(`{"start":"2025-03-14"}`))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	var refs []models.FilingReference
	if err := json.Unmarshal([]byte(out), &refs); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	if len(refs) != 1 || refs[0].AccessionNo != "0000000001-25-000001" {
		t.Errorf("refs = %+v, want one ABC filing", refs)
	}
}

func TestAggregateWindowsTool(t *testing.T) {
	r := NewInsiderRegistry(newEdgarClient(t, http.NotFoundHandler()))
	args := `{
		"records": [
			{"ticker":"ABC","code":"S","shares":100,"price_per_share":10,"date":"2025-03-14T00:00:00Z"},
			{"ticker":"ABC","code":"S","shares":100,"price_per_share":10,"date":"2025-03-14T00:00:00Z"}
		],
		"start": "2025-03-13T12:00:00Z",
		"end":   "2025-03-14T12:00:00Z"
	}`
	out, err := r.Execute(context.Background(), "aggregate-windows", json.RawMessage(args))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	var w models.AggregateWindow
	if err := json.Unmarshal([]byte(out), &w); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	got := w.Buckets[models.BucketKey{Ticker: "ABC", Code: "S"}]
	if got.Count != 2 || got.TotalShares != 200 || got.TotalNotional != 2000 {
		t.Errorf("ABC/S = %+v, want count 2 shares 200 notional 2000", got)
	}
}

func TestCompareBaselineTool(t *testing.T) {
	r := NewInsiderRegistry(newEdgarClient(t, http.NotFoundHandler()))
	args := `{
		"last24": {"start":"2025-03-14T00:00:00Z","end":"2025-03-15T00:00:00Z",
			"entries":[{"ticker":"ABC","code":"S","count":2,"total_shares":200,"total_notional":2000}]},
		"baseline": {"start":"2025-03-07T00:00:00Z","end":"2025-03-14T00:00:00Z",
			"entries":[{"ticker":"ABC","code":"S","count":14,"total_shares":700,"total_notional":7000}]},
		"days": 7
	}`
	out, err := r.Execute(context.Background(), "compare-baseline", json.RawMessage(args))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	var entries []models.ComparisonEntry
	if err := json.Unmarshal([]byte(out), &entries); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	if entries[0].Ratio != 1 || entries[0].BaselineDailyAvg != 2 {
		t.Errorf("entry = %+v, want ratio 1 baseline 2", entries[0])
	}
}
