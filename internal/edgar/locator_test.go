package edgar

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/marketwisdom/insiderwatch/pkg/models"
)

func sampleRef() models.FilingReference {
	return models.FilingReference{
		AccessionNo: "0000320193-25-000123",
		CIK:         "320193",
		CompanyName: "APPLE INC",
		FilingDate:  time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC),
		FormType:    "4",
		IndexPath:   "edgar/data/320193/0000320193-25-000123.txt",
	}
}

const sampleManifest = `{
  "directory": {
    "name": "/Archives/edgar/data/320193/000032019325000123",
    "item": [
      {"name": "0000320193-25-000123-index.htm", "type": "text.gif", "size": "1234"},
      {"name": "wk-form4_1741900000.xml", "type": "text.gif", "size": "5678"},
      {"name": "xslF345X05/wk-form4_1741900000.xml", "type": "text.gif", "size": "9012"}
    ]
  }
}`

func TestLocateFindsDocument(t *testing.T) {
	c, srv := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/Archives/edgar/data/320193/000032019325000123/index.json" {
			w.Write([]byte(sampleManifest))
			return
		}
		http.NotFound(w, r)
	}))

	loc, found, err := c.Locate(context.Background(), sampleRef())
	if err != nil {
		t.Fatalf("Locate() error: %v", err)
	}
	if !found {
		t.Fatal("expected document to be found")
	}
	if loc.AccessionNo != "0000320193-25-000123" {
		t.Errorf("AccessionNo: got %q", loc.AccessionNo)
	}
	want := srv.URL + "/Archives/edgar/data/320193/000032019325000123/wk-form4_1741900000.xml"
	if loc.DocumentURL != want {
		t.Errorf("DocumentURL: got %q, want %q", loc.DocumentURL, want)
	}
}

func TestLocateDocumentAbsent(t *testing.T) {
	// Manifest exists but lists no ownership XML — an expected outcome
	// for some amendments, reported as not-found rather than an error.
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"directory":{"item":[{"name":"cover.htm"},{"name":"ex99.txt"}]}}`))
	}))

	_, found, err := c.Locate(context.Background(), sampleRef())
	if err != nil {
		t.Fatalf("Locate() error: %v", err)
	}
	if found {
		t.Error("expected document not found")
	}
}

func TestLocateFallsBackToHTMLListing(t *testing.T) {
	c, srv := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/Archives/edgar/data/320193/000032019325000123/index.json":
			http.NotFound(w, r)
		case "/Archives/edgar/data/320193/000032019325000123/":
			w.Write([]byte(`<html><body><table>
				<tr><td><a href="0000320193-25-000123-index.htm">index</a></td></tr>
				<tr><td><a href="form4.xml">form4.xml</a></td></tr>
			</table></body></html>`))
		default:
			http.NotFound(w, r)
		}
	}))

	loc, found, err := c.Locate(context.Background(), sampleRef())
	if err != nil {
		t.Fatalf("Locate() error: %v", err)
	}
	if !found {
		t.Fatal("expected document via HTML fallback")
	}
	want := srv.URL + "/Archives/edgar/data/320193/000032019325000123/form4.xml"
	if loc.DocumentURL != want {
		t.Errorf("DocumentURL: got %q, want %q", loc.DocumentURL, want)
	}
}

func TestLocateTransportError(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	_, _, err := c.Locate(context.Background(), sampleRef())
	if err == nil {
		t.Fatal("expected error when both manifest and listing fail")
	}
}

func TestFilingDirURLStripsPadding(t *testing.T) {
	c := &Client{baseURL: "https://www.sec.gov"}
	ref := sampleRef()
	ref.CIK = "0000320193"
	got := c.filingDirURL(ref)
	want := "https://www.sec.gov/Archives/edgar/data/320193/000032019325000123"
	if got != want {
		t.Errorf("filingDirURL: got %q, want %q", got, want)
	}
}

func TestIsOwnershipDocument(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"form4.xml", true},
		{"FORM4.XML", true},
		{"wk-form4_1741900000.xml", true},
		{"doc_form4.xml", true},
		{"form4.html", false},
		{"form8k.xml", false},
		{"primary_doc.xml", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := isOwnershipDocument(tt.name); got != tt.want {
			t.Errorf("isOwnershipDocument(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
