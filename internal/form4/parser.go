// Package form4 extracts insider transaction records from SEC ownership
// documents (Form 4 XML). Parsing is tolerant by design: a malformed
// document yields zero records and a warning, and individual fields that
// are absent or non-numeric degrade to documented defaults instead of
// failing the document.
package form4

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/marketwisdom/insiderwatch/pkg/models"
)

// ownershipDocument mirrors the subset of the Form 4 XML schema the
// extractor needs. Numeric and date leaves sit under <value> wrappers
// so footnote attributes can ride alongside them.
type ownershipDocument struct {
	XMLName xml.Name `xml:"ownershipDocument"`
	Issuer  struct {
		CIK           string `xml:"issuerCik"`
		Name          string `xml:"issuerName"`
		TradingSymbol string `xml:"issuerTradingSymbol"`
	} `xml:"issuer"`
	NonDerivative struct {
		Transactions []transaction `xml:"nonDerivativeTransaction"`
	} `xml:"nonDerivativeTable"`
	Derivative struct {
		Transactions []transaction `xml:"derivativeTransaction"`
	} `xml:"derivativeTable"`
}

type transaction struct {
	SecurityTitle valueElem `xml:"securityTitle"`
	Date          valueElem `xml:"transactionDate"`
	Coding        struct {
		Code string `xml:"transactionCode"`
	} `xml:"transactionCoding"`
	Amounts struct {
		Shares        valueElem `xml:"transactionShares"`
		PricePerShare valueElem `xml:"transactionPricePerShare"`
	} `xml:"transactionAmounts"`
}

type valueElem struct {
	Value string `xml:"value"`
}

// Parse extracts transaction records from one ownership document. The
// issuer ticker is taken from the document's issuer section, falling back
// to the filing reference's ticker and finally its CIK so that every
// record can be bucketed. Records without a transaction code are
// discarded; absent or non-numeric share and price fields become zero.
func Parse(content []byte, ref models.FilingReference) models.ExtractResult {
	var doc ownershipDocument
	if err := xml.Unmarshal(content, &doc); err != nil {
		return models.ExtractResult{
			Warnings: []string{fmt.Sprintf("filing %s: unparseable document: %v", ref.AccessionNo, err)},
		}
	}

	ticker := strings.ToUpper(strings.TrimSpace(doc.Issuer.TradingSymbol))
	if ticker == "" {
		ticker = strings.ToUpper(strings.TrimSpace(ref.Ticker))
	}
	if ticker == "" {
		ticker = ref.CIK
	}

	var result models.ExtractResult
	appendTxns := func(txns []transaction, derivative bool) {
		for _, tx := range txns {
			code := strings.TrimSpace(tx.Coding.Code)
			if code == "" {
				result.Warnings = append(result.Warnings,
					fmt.Sprintf("filing %s: transaction without code discarded", ref.AccessionNo))
				continue
			}
			result.Records = append(result.Records, models.TransactionRecord{
				Ticker:        ticker,
				Code:          code,
				SecurityTitle: strings.TrimSpace(tx.SecurityTitle.Value),
				Shares:        parseAmount(tx.Amounts.Shares.Value),
				PricePerShare: parseAmount(tx.Amounts.PricePerShare.Value),
				Date:          parseDate(tx.Date.Value),
				Derivative:    derivative,
			})
		}
	}
	appendTxns(doc.NonDerivative.Transactions, false)
	appendTxns(doc.Derivative.Transactions, true)

	return result
}

// parseAmount converts a numeric leaf to a non-negative float64.
// Absent, non-numeric, or negative values become zero.
func parseAmount(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

// parseDate parses a transaction date leaf. An unparseable date yields
// the zero time; such records never fall inside an aggregation window.
func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"2006-01-02", "2006-01-02-07:00", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
