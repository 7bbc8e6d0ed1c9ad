// Package viewer renders unified catalogs as HTML tables.
package viewer

import (
	"bytes"
	"fmt"
	"math"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"financial_catalog/pkg/core/merge"
)

// Titles are the display headings per statement type.
var Titles = map[merge.StatementType]string{
	merge.IncomeStatement:   "Income Statement",
	merge.BalanceSheet:      "Balance Sheet",
	merge.CashFlowStatement: "Cash Flow Statement",
}

var printer = message.NewPrinter(language.English)

var markdown = goldmark.New(goldmark.WithExtensions(extension.Table))

// FormatNumber renders a cell: "-" for zero or missing, thousands separators,
// two decimals below one in magnitude.
func FormatNumber(v *float64) string {
	if v == nil || *v == 0 {
		return "-"
	}
	if math.Abs(*v) < 1 {
		return printer.Sprintf("%.2f", *v)
	}
	return printer.Sprintf("%.0f", *v)
}

var mdEscaper = strings.NewReplacer(`\`, `\\`, `|`, `\|`, `*`, `\*`, `_`, `\_`, "`", "\\`", `<`, `&lt;`)

// Markdown writes one table per statement type that has items.
func Markdown(ticker string, catalogs map[merge.StatementType]*merge.UnifiedCatalog) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", mdEscaper.Replace(ticker))
	for _, st := range merge.StatementTypes {
		cat := catalogs[st]
		fmt.Fprintf(&b, "## %s\n\n", Titles[st])
		if cat == nil || cat.Len() == 0 {
			b.WriteString("No data available.\n\n")
			continue
		}
		writeTable(&b, cat)
		if n := len(cat.SourceURLs); n > 0 {
			fmt.Fprintf(&b, "Sources (%d): ", n)
			for i, u := range cat.SourceURLs {
				if i > 0 {
					b.WriteString(", ")
				}
				fmt.Fprintf(&b, "[%d](%s)", i+1, u)
			}
			b.WriteString("\n\n")
		}
	}
	return b.String()
}

func writeTable(b *strings.Builder, cat *merge.UnifiedCatalog) {
	years := cat.PeriodsDescending()
	blanks := strings.Repeat(" |", len(years))

	b.WriteString("| Line item |")
	for _, y := range years {
		fmt.Fprintf(b, " %s |", y)
	}
	b.WriteString("\n|---|")
	b.WriteString(strings.Repeat("---:|", len(years)))
	b.WriteString("\n")

	for _, sec := range cat.Sections() {
		fmt.Fprintf(b, "| **%s** |%s\n", mdEscaper.Replace(sec.Label), blanks)
		for _, it := range sec.Items {
			fmt.Fprintf(b, "| %s |", mdEscaper.Replace(it.ItemLabel))
			for _, y := range years {
				fmt.Fprintf(b, " %s |", FormatNumber(it.Values[y]))
			}
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")
}

// HTML converts the statement tables to an HTML fragment.
func HTML(ticker string, catalogs map[merge.StatementType]*merge.UnifiedCatalog) ([]byte, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(Markdown(ticker, catalogs)), &buf); err != nil {
		return nil, fmt.Errorf("failed to render markdown: %w", err)
	}
	return buf.Bytes(), nil
}
