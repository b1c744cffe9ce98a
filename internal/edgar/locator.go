package edgar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/marketwisdom/insiderwatch/pkg/models"
)

// directoryIndex is the JSON manifest of a filing directory
// (.../Archives/edgar/data/{cik}/{accession}/index.json).
type directoryIndex struct {
	Directory struct {
		Name string `json:"name"`
		Item []struct {
			Name         string `json:"name"`
			Type         string `json:"type"`
			Size         string `json:"size"`
			LastModified string `json:"last-modified"`
		} `json:"item"`
	} `json:"directory"`
}

// Locate resolves a filing reference to its ownership XML document by
// reading the filing directory manifest. A filing without a matching
// document (some amendments omit it) yields found=false and no error;
// errors are reserved for transport and manifest failures.
func (c *Client) Locate(ctx context.Context, ref models.FilingReference) (models.DocumentLocation, bool, error) {
	dirURL := c.filingDirURL(ref)

	names, err := c.listManifest(ctx, dirURL)
	if err != nil {
		return models.DocumentLocation{}, false, fmt.Errorf("manifest for %s: %w", ref.AccessionNo, err)
	}

	for _, name := range names {
		if isOwnershipDocument(name) {
			return models.DocumentLocation{
				AccessionNo: ref.AccessionNo,
				DocumentURL: dirURL + "/" + name,
			}, true, nil
		}
	}
	return models.DocumentLocation{}, false, nil
}

// filingDirURL builds the filing directory URL. Directory paths use the
// unpadded CIK and the accession number without dashes.
func (c *Client) filingDirURL(ref models.FilingReference) string {
	cik := strings.TrimLeft(ref.CIK, "0")
	if cik == "" {
		cik = "0"
	}
	accession := strings.ReplaceAll(ref.AccessionNo, "-", "")
	return fmt.Sprintf("%s/Archives/edgar/data/%s/%s", c.baseURL, cik, accession)
}

// listManifest returns the file names in a filing directory, preferring
// the JSON manifest and falling back to scraping the HTML listing when
// the manifest is missing or malformed.
func (c *Client) listManifest(ctx context.Context, dirURL string) ([]string, error) {
	raw, err := c.http.Get(ctx, dirURL+"/index.json")
	if err == nil {
		var idx directoryIndex
		if jerr := json.Unmarshal(raw, &idx); jerr == nil {
			names := make([]string, 0, len(idx.Directory.Item))
			for _, item := range idx.Directory.Item {
				names = append(names, item.Name)
			}
			return names, nil
		}
		c.log.Warn("malformed directory manifest, falling back to HTML listing", "url", dirURL)
	}

	return c.scrapeListing(ctx, dirURL)
}

// scrapeListing extracts file names from the directory's HTML listing.
func (c *Client) scrapeListing(ctx context.Context, dirURL string) ([]string, error) {
	raw, err := c.http.Get(ctx, dirURL+"/")
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse directory listing: %w", err)
	}

	var names []string
	doc.Find("a").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok || href == "" || strings.HasPrefix(href, "?") {
			return
		}
		name := path.Base(href)
		if name != "" && name != "." && name != ".." {
			names = append(names, name)
		}
	})
	return names, nil
}

// isOwnershipDocument reports whether a directory file name is the
// machine-readable Form 4 XML. Filers vary the name: form4.xml,
// wk-form4_1700000000.xml, doc4_form4.xml.
func isOwnershipDocument(name string) bool {
	name = strings.ToLower(name)
	if name == "form4.xml" || strings.HasSuffix(name, "_form4.xml") {
		return true
	}
	return strings.HasSuffix(name, ".xml") && strings.Contains(name, "form4")
}
