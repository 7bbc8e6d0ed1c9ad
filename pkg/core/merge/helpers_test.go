package merge

import (
	"testing"
)

// =============================================================================
// HELPER FUNCTIONS FOR TEST DATA CREATION
// =============================================================================

// vals builds a raw value mapping of numeric cells.
func vals(m map[string]float64) map[string]Value {
	out := make(map[string]Value, len(m))
	for k, v := range m {
		out[k] = NumberValue(v)
	}
	return out
}

func item(gaap, label string, values map[string]float64) LineItem {
	return LineItem{GAAP: gaap, Label: label, Values: vals(values)}
}

func section(gaap, label string, items ...LineItem) Section {
	return Section{GAAP: gaap, Label: label, Items: items}
}

func statement(periods []string, sections ...Section) *StructuredStatement {
	return &StructuredStatement{Periods: periods, Sections: sections}
}

// filing wraps one statement into a filing of the given type.
func filing(period string, t StatementType, stmt *StructuredStatement) Filing {
	return Filing{
		Period:     period,
		Statements: map[StatementType]*StatementResult{t: {Statement: stmt}},
	}
}

func build(t *testing.T, filings ...Filing) *UnifiedCatalog {
	t.Helper()
	cat, err := NewMerger(DefaultConfig(), nil).BuildCatalog(IncomeStatement, filings)
	if err != nil {
		t.Fatalf("BuildCatalog failed: %v", err)
	}
	return cat
}

func mustFind(t *testing.T, cat *UnifiedCatalog, label string) *UnifiedItem {
	t.Helper()
	it, ok := cat.Find(label)
	if !ok {
		t.Fatalf("item %q not in catalog (have %v)", label, cat.Labels())
	}
	return it
}

func valueAt(t *testing.T, it *UnifiedItem, period string) float64 {
	t.Helper()
	v, ok := it.Values[period]
	if !ok {
		t.Fatalf("item %q has no entry for %s", it.ItemLabel, period)
	}
	if v == nil {
		t.Fatalf("item %q has null for %s", it.ItemLabel, period)
	}
	return *v
}

func ptr(f float64) *float64 { return &f }
