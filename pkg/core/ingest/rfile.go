package ingest

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"financial_catalog/pkg/core/merge"
)

// UncategorizedSection holds line items that appear before any section header.
const UncategorizedSection = "Uncategorized"

var (
	yearInHeader = regexp.MustCompile(`\d{4}`)
	defrefCode   = regexp.MustCompile(`defref_([a-zA-Z0-9\-_]+)`)

	// ErrNoRows means the R-file had no labelled rows.
	ErrNoRows = errors.New("no data extracted from statement")
	// ErrNoSections means rows were found but none could be grouped.
	ErrNoSections = errors.New("could not structure statement data")
)

// statementRow is one labelled <tr> of an R-file.
type statementRow struct {
	Label     string
	GAAP      string
	IsSection bool
	Values    []merge.Value
}

// ParseStatementHTML parses an SEC R*.htm statement rendering into a structured
// statement.
//
// Header cells containing a 4-digit year become periods (all headers when none
// do). Rows are the <tr> elements with a td.pl label cell; the gaap code comes
// from the label link's defref_ onclick handler. A row opens a new section when
// its code ends in Abstract, Axis or Member, or when it carries no numeric
// value. Items before the first section go to "Uncategorized".
func ParseStatementHTML(r io.Reader, t merge.StatementType, sourceURL string) (*merge.StructuredStatement, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse statement HTML: %w", err)
	}

	headers := make([]string, 0)
	doc.Find("th").Each(func(_ int, th *goquery.Selection) {
		headers = append(headers, cellText(th))
	})
	periods := make([]string, 0, len(headers))
	for _, h := range headers {
		if yearInHeader.MatchString(h) {
			periods = append(periods, h)
		}
	}
	if len(periods) == 0 {
		periods = headers
	}

	rows := make([]statementRow, 0)
	doc.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		if row, ok := parseRow(tr); ok {
			rows = append(rows, row)
		}
	})
	if len(rows) == 0 {
		return nil, ErrNoRows
	}

	stmt := structure(rows, periods)
	stmt.Statement = string(t)
	stmt.SourceURL = sourceURL
	if len(stmt.Sections) == 0 {
		return nil, ErrNoSections
	}
	return stmt, nil
}

func parseRow(tr *goquery.Selection) (statementRow, bool) {
	labelCell := tr.Find("td.pl").First()
	if labelCell.Length() == 0 {
		return statementRow{}, false
	}

	var row statementRow
	tr.Find("td.nump, td.num, td.text").Each(func(_ int, td *goquery.Selection) {
		v := merge.NormalizeValue(cellText(td))
		if v == nil {
			row.Values = append(row.Values, merge.NullValue())
			return
		}
		row.Values = append(row.Values, merge.NumberValue(*v))
	})

	link := labelCell.Find("a").First()
	if link.Length() == 0 {
		row.Label = cellText(labelCell)
		return row, row.Label != ""
	}

	row.Label = cellText(link)
	if onclick, ok := link.Attr("onclick"); ok {
		if m := defrefCode.FindStringSubmatch(onclick); m != nil {
			row.GAAP = m[1]
		}
	}
	g := strings.ToLower(row.GAAP)
	row.IsSection = strings.HasSuffix(g, "abstract") || strings.HasSuffix(g, "axis") || strings.HasSuffix(g, "member")
	if !row.IsSection {
		row.IsSection = true
		for _, v := range row.Values {
			if v.Float() != nil {
				row.IsSection = false
				break
			}
		}
	}
	return row, row.Label != ""
}

// structure groups rows under their section headers. Every item carries an
// entry for every period, null where the row had no cell.
func structure(rows []statementRow, periods []string) *merge.StructuredStatement {
	stmt := &merge.StructuredStatement{Periods: periods, Sections: []merge.Section{}}
	current := -1
	for _, row := range rows {
		if row.IsSection {
			stmt.Sections = append(stmt.Sections, merge.Section{GAAP: row.GAAP, Label: row.Label, Items: []merge.LineItem{}})
			current = len(stmt.Sections) - 1
			continue
		}
		if current < 0 {
			stmt.Sections = append(stmt.Sections, merge.Section{Label: UncategorizedSection, Items: []merge.LineItem{}})
			current = 0
		}
		values := make(map[string]merge.Value, len(periods))
		for i, p := range periods {
			if i < len(row.Values) {
				if _, dup := values[p]; !dup || row.Values[i].Float() != nil {
					values[p] = row.Values[i]
				}
				continue
			}
			if _, dup := values[p]; !dup {
				values[p] = merge.NullValue()
			}
		}
		stmt.Sections[current].Items = append(stmt.Sections[current].Items, merge.LineItem{
			GAAP:   row.GAAP,
			Label:  row.Label,
			Values: values,
		})
	}
	return stmt
}

// cellText is the cell's text with whitespace runs collapsed to single spaces.
func cellText(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.Text()), " ")
}
