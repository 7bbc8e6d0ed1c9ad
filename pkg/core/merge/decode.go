package merge

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"
)

const (
	metaFiled     = "filed"
	metaAccession = "accession_number"
)

// wireFilingSet mirrors the collaborator document:
//
//	{"ticker": "AAPL", "years": {"2024-09-28": {"income_statement": {...}, ...}}}
//
// A year object may also carry "filed" and "accession_number" strings.
type wireFilingSet struct {
	Ticker string                                `json:"ticker"`
	Years  map[string]map[string]json.RawMessage `json:"years"`
}

// DecodeFilingSet reads a collaborator document. Statement objects that fail to
// decode are reported as *ValidationError; error markers are kept as markers.
func DecodeFilingSet(r io.Reader) (*FilingSet, error) {
	var wire wireFilingSet
	if err := json.NewDecoder(r).Decode(&wire); err != nil {
		return nil, &ValidationError{Reason: fmt.Sprintf("failed to decode filing set: %v", err)}
	}
	if wire.Years == nil {
		return nil, &ValidationError{Path: "years", Reason: "missing years mapping"}
	}

	set := &FilingSet{Ticker: strings.ToUpper(wire.Ticker)}
	for _, period := range sortedKeys(wire.Years) {
		f := Filing{Period: period, Statements: make(map[StatementType]*StatementResult)}
		for _, name := range sortedKeys(wire.Years[period]) {
			raw := wire.Years[period][name]
			switch name {
			case metaFiled:
				if err := json.Unmarshal(raw, &f.Filed); err != nil {
					return nil, &ValidationError{Filing: period, Path: name, Reason: err.Error()}
				}
			case metaAccession:
				if err := json.Unmarshal(raw, &f.AccessionNumber); err != nil {
					return nil, &ValidationError{Filing: period, Path: name, Reason: err.Error()}
				}
			default:
				st := StatementType(name)
				if !slices.Contains(StatementTypes, st) {
					continue
				}
				var res StatementResult
				if err := json.Unmarshal(raw, &res); err != nil {
					return nil, &ValidationError{Filing: period, Statement: st, Reason: err.Error()}
				}
				f.Statements[st] = &res
			}
		}
		set.Filings = append(set.Filings, f)
	}
	return set, nil
}

// EncodeFilingSet writes the set in the collaborator document format.
func EncodeFilingSet(w io.Writer, set *FilingSet) error {
	years := make(map[string]map[string]any, len(set.Filings))
	for _, f := range set.Filings {
		obj := make(map[string]any, len(f.Statements)+2)
		for st, res := range f.Statements {
			obj[string(st)] = res
		}
		if f.Filed != "" {
			obj[metaFiled] = f.Filed
		}
		if f.AccessionNumber != "" {
			obj[metaAccession] = f.AccessionNumber
		}
		years[f.Period] = obj
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]any{"ticker": set.Ticker, "years": years})
}

// =============================================================================
// CANONICAL FOLD ORDER
// =============================================================================

// recencyKey is the date used to order filings: the filing date when known, else
// the filing-period identifier.
func (f *Filing) recencyKey() string {
	if f.Filed != "" {
		return f.Filed
	}
	return f.Period
}

// filedBefore orders filings oldest first. Dates compare chronologically when both
// parse as YYYY-MM-DD, lexically otherwise; ties break on the period identifier.
func filedBefore(a, b *Filing) int {
	ka, kb := a.recencyKey(), b.recencyKey()
	ta, errA := time.Parse("2006-01-02", ka)
	tb, errB := time.Parse("2006-01-02", kb)
	switch {
	case errA == nil && errB == nil && !ta.Equal(tb):
		return ta.Compare(tb)
	case (errA != nil || errB != nil) && ka != kb:
		return strings.Compare(ka, kb)
	}
	return strings.Compare(a.Period, b.Period)
}

// SortFilings returns a copy of filings in canonical fold order, oldest first.
func SortFilings(filings []Filing) []Filing {
	out := slices.Clone(filings)
	slices.SortStableFunc(out, func(a, b Filing) int { return filedBefore(&a, &b) })
	return out
}
