package viewer

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"financial_catalog/pkg/api/financials"
	"financial_catalog/pkg/core/ingest"
	"financial_catalog/pkg/core/merge"
)

func ptr(f float64) *float64 { return &f }

func sampleCatalogs(t *testing.T) map[merge.StatementType]*merge.UnifiedCatalog {
	t.Helper()
	stmt := func(year string, rev, eps float64) *merge.StatementResult {
		return &merge.StatementResult{Statement: &merge.StructuredStatement{
			Periods: []string{year},
			Sections: []merge.Section{
				{Label: "Revenue", Items: []merge.LineItem{
					{GAAP: "us-gaap:Revenues", Label: "Net sales | products", Values: map[string]merge.Value{year: merge.NumberValue(rev)}},
				}},
				{Label: "Per share", Items: []merge.LineItem{
					{Label: "Dividend", Values: map[string]merge.Value{year: merge.NumberValue(eps)}},
				}},
			},
		}}
	}
	set := &merge.FilingSet{Ticker: "AAPL", Filings: []merge.Filing{
		{Period: "2023-09-30", Statements: map[merge.StatementType]*merge.StatementResult{merge.IncomeStatement: stmt("2023", 298085, 0)}},
		{Period: "2024-09-28", Statements: map[merge.StatementType]*merge.StatementResult{merge.IncomeStatement: stmt("2024", 294866, 0.25)}},
	}}
	cats, err := merge.NewMerger(merge.DefaultConfig(), nil).BuildAll(set)
	if err != nil {
		t.Fatalf("BuildAll failed: %v", err)
	}
	return cats
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   *float64
		want string
	}{
		{nil, "-"},
		{ptr(0), "-"},
		{ptr(391035), "391,035"},
		{ptr(-210352), "-210,352"},
		{ptr(0.25), "0.25"},
		{ptr(-0.5), "-0.50"},
		{ptr(6.97), "7"},
	}
	for _, tt := range tests {
		if got := FormatNumber(tt.in); got != tt.want {
			t.Errorf("FormatNumber(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMarkdownTable(t *testing.T) {
	md := Markdown("AAPL", sampleCatalogs(t))

	if !strings.Contains(md, "| Line item | 2024 | 2023 |") {
		t.Errorf("years should be newest first:\n%s", md)
	}
	if !strings.Contains(md, "| **Revenue** | | |") {
		t.Errorf("missing section header row:\n%s", md)
	}
	if !strings.Contains(md, `| Net sales \| products | 294,866 | 298,085 |`) {
		t.Errorf("item row not escaped or formatted:\n%s", md)
	}
	if !strings.Contains(md, "| Dividend | 0.25 | - |") {
		t.Errorf("zero should render as a dash:\n%s", md)
	}
	if !strings.Contains(md, "## Balance Sheet\n\nNo data available.") {
		t.Errorf("empty statement not reported:\n%s", md)
	}
}

func TestHTML(t *testing.T) {
	out, err := HTML("AAPL", sampleCatalogs(t))
	if err != nil {
		t.Fatalf("HTML failed: %v", err)
	}
	s := string(out)
	if !strings.Contains(s, "<table>") || !strings.Contains(s, "<strong>Revenue</strong>") {
		t.Errorf("unexpected html:\n%s", s)
	}
}

type fakeCollector struct {
	res *financials.Result
	err error
}

func (f fakeCollector) Collect(_ context.Context, ticker string, _ int) (*financials.Result, error) {
	return f.res, f.err
}

func get(h *Handler, path string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h.Register(r)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestViewHandler(t *testing.T) {
	h := NewHandler(fakeCollector{res: &financials.Result{Ticker: "AAPL", Catalogs: sampleCatalogs(t)}}, nil)

	w := get(h, "/viewer?ticker=aapl&years_back=2")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "<table>") || !strings.Contains(w.Body.String(), `value="AAPL"`) {
		t.Errorf("unexpected page:\n%s", w.Body.String())
	}

	if w := get(h, "/viewer"); w.Code != http.StatusOK || strings.Contains(w.Body.String(), "<table>") {
		t.Errorf("form page: %d", w.Code)
	}
	if w := get(h, "/viewer?ticker=AAPL&years_back=40"); w.Code != http.StatusBadRequest {
		t.Errorf("years_back=40: status = %d", w.Code)
	}
}

func TestViewHandlerErrors(t *testing.T) {
	h := NewHandler(fakeCollector{err: fmt.Errorf("lookup: %w", ingest.ErrTickerNotFound)}, nil)
	if w := get(h, "/viewer?ticker=ZZZZ"); w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), "class=\"error\"") {
		t.Errorf("unknown ticker: %d", w.Code)
	}
	h = NewHandler(fakeCollector{err: financials.ErrNoData}, nil)
	if w := get(h, "/viewer?ticker=AAPL"); w.Code != http.StatusNotFound {
		t.Errorf("no data: status = %d", w.Code)
	}
}
