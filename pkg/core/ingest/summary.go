package ingest

import (
	"context"
	"encoding/xml"
	"fmt"
	"strings"

	"financial_catalog/pkg/core/merge"
)

// FilingSummary represents the FilingSummary.xml structure
type FilingSummary struct {
	MyReports MyReports `xml:"MyReports"`
}

type MyReports struct {
	Reports []Report `xml:"Report"`
}

type Report struct {
	ShortName    string `xml:"ShortName"`
	LongName     string `xml:"LongName"`
	HtmlFileName string `xml:"HtmlFileName"`
	XmlFileName  string `xml:"XmlFileName"`
	MenuCategory string `xml:"MenuCategory"`
	Position     string `xml:"Position"`
}

// FileName prefers the HTML rendering of a report.
func (r Report) FileName() string {
	if r.HtmlFileName != "" {
		return r.HtmlFileName
	}
	return r.XmlFileName
}

// StatementKeys lists, per statement type, the report short names companies use
// for it, in lookup priority order.
var StatementKeys = map[merge.StatementType][]string{
	merge.BalanceSheet: {
		"balance sheet",
		"balance sheets",
		"statement of financial position",
		"consolidated balance sheets",
		"consolidated balance sheet",
		"consolidated financial position",
		"consolidated balance sheets - southern",
		"consolidated statements of financial position",
		"consolidated statement of financial position",
		"consolidated statements of financial condition",
		"combined and consolidated balance sheet",
		"condensed consolidated balance sheets",
		"consolidated balance sheets, as of december 31",
		"dow consolidated balance sheets",
		"consolidated balance sheets (unaudited)",
	},
	merge.IncomeStatement: {
		"income statement",
		"income statements",
		"statement of earnings (loss)",
		"statements of consolidated income",
		"consolidated statements of operations",
		"consolidated statement of operations",
		"consolidated statements of earnings",
		"consolidated statement of earnings",
		"consolidated statements of income",
		"consolidated statement of income",
		"consolidated income statements",
		"consolidated income statement",
		"condensed consolidated statements of earnings",
		"consolidated results of operations",
		"consolidated statements of income (loss)",
		"consolidated statements of income - southern",
		"consolidated statements of operations and comprehensive income",
		"consolidated statements of comprehensive income",
	},
	merge.CashFlowStatement: {
		"cash flows statement",
		"cash flows statements",
		"statement of cash flows",
		"statements of consolidated cash flows",
		"consolidated statements of cash flows",
		"consolidated statement of cash flows",
		"consolidated statement of cash flow",
		"consolidated cash flows statements",
		"consolidated cash flow statements",
		"condensed consolidated statements of cash flows",
		"consolidated statements of cash flows (unaudited)",
		"consolidated statements of cash flows - southern",
	},
}

// StatementFiles maps lowercased short names of statement reports to their file
// names. Only reports whose long name mentions "Statement" qualify.
func (s *FilingSummary) StatementFiles() map[string]string {
	files := make(map[string]string)
	for _, r := range s.MyReports.Reports {
		name := r.FileName()
		if r.ShortName == "" || name == "" || !strings.Contains(r.LongName, "Statement") {
			continue
		}
		files[strings.ToLower(strings.TrimSpace(r.ShortName))] = name
	}
	return files
}

// FileFor returns the report file holding the given statement type.
func (s *FilingSummary) FileFor(t merge.StatementType) (string, bool) {
	files := s.StatementFiles()
	for _, key := range StatementKeys[t] {
		if name, ok := files[key]; ok {
			return name, true
		}
	}
	return "", false
}

// FetchFilingSummary fetches and parses a filing's FilingSummary.xml.
func (c *EDGARClient) FetchFilingSummary(ctx context.Context, f Filing) (*FilingSummary, error) {
	body, err := c.get(ctx, c.ArchiveURL(f, "FilingSummary.xml"), "application/xml")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch filing summary for %s: %w", f.AccessionNumber, err)
	}

	var summary FilingSummary
	if err := xml.Unmarshal(body, &summary); err != nil {
		return nil, fmt.Errorf("failed to parse filing summary for %s: %w", f.AccessionNumber, err)
	}
	return &summary, nil
}
