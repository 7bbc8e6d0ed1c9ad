package merge

import (
	"bytes"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
)

// =============================================================================
// RANDOMIZED PROPERTIES
// =============================================================================
// Filings are generated from a small shared vocabulary so that sections and
// items recur, drift in labels, lose codes and change position across years.

var (
	fakeSections = []string{"Revenue", "Operating expenses", "Other income", "Taxes", "Per share"}
	fakeItems    = []string{"Products", "Services", "Cost of sales", "Research and development",
		"Selling general and administrative", "Interest income", "Interest expense",
		"Provision for income taxes", "Net income", "Basic", "Diluted"}
)

func fakeFilingSet(f *gofakeit.Faker) *FilingSet {
	set := &FilingSet{Ticker: "FAKE"}
	first := f.IntRange(2010, 2018)
	n := f.IntRange(2, 6)
	for i := 0; i < n; i++ {
		year := first + i
		periods := []string{fmt.Sprint(year), fmt.Sprint(year - 1), fmt.Sprint(year - 2)}
		stmt := &StructuredStatement{Periods: periods}

		for _, sec := range fakeSections {
			if f.IntRange(0, 4) == 0 {
				continue
			}
			s := Section{Label: sec}
			if f.Bool() {
				s.GAAP = "us-gaap:" + sec
			}
			for _, name := range fakeItems {
				if f.IntRange(0, 2) == 0 {
					continue
				}
				it := LineItem{Label: name, Values: make(map[string]Value)}
				if f.Bool() {
					it.GAAP = "us-gaap:" + name
				}
				if f.IntRange(0, 5) == 0 {
					it.Label = name + " " + f.Word()
				}
				for _, p := range periods {
					switch f.IntRange(0, 5) {
					case 0:
						it.Values[p] = NullValue()
					case 1:
						it.Values[p] = NumberValue(0)
					default:
						it.Values[p] = NumberValue(float64(f.IntRange(-500, 5000)))
					}
				}
				s.Items = append(s.Items, it)
			}
			f.ShuffleAnySlice(s.Items)
			stmt.Sections = append(stmt.Sections, s)
		}
		set.Filings = append(set.Filings, filing(fmt.Sprintf("%d-12-31", year), IncomeStatement, stmt))
	}
	return set
}

func catalogJSON(t *testing.T, filings []Filing) []byte {
	t.Helper()
	cat := build(t, filings...)
	out, err := json.Marshal(cat)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	return out
}

func TestPropertyIdempotence(t *testing.T) {
	for seed := int64(1); seed <= 25; seed++ {
		set := fakeFilingSet(gofakeit.New(seed))
		a := catalogJSON(t, set.Filings)
		b := catalogJSON(t, set.Filings)
		if !bytes.Equal(a, b) {
			t.Fatalf("seed %d: two runs differ", seed)
		}
	}
}

func TestPropertyInputOrderIndependence(t *testing.T) {
	for seed := int64(1); seed <= 25; seed++ {
		f := gofakeit.New(seed)
		set := fakeFilingSet(f)
		want := catalogJSON(t, set.Filings)

		shuffled := append([]Filing(nil), set.Filings...)
		f.ShuffleAnySlice(shuffled)
		if got := catalogJSON(t, shuffled); !bytes.Equal(got, want) {
			t.Fatalf("seed %d: catalog depends on input order", seed)
		}
	}
}

func TestPropertyCompleteness(t *testing.T) {
	for seed := int64(1); seed <= 25; seed++ {
		set := fakeFilingSet(gofakeit.New(seed))
		cat := build(t, set.Filings...)
		for _, e := range cat.Entries {
			if len(e.Item.Values) != len(cat.Periods) {
				t.Fatalf("seed %d: %s has %d periods, want %d", seed, e.Key, len(e.Item.Values), len(cat.Periods))
			}
			for _, p := range cat.Periods {
				v, ok := e.Item.Values[p]
				if !ok || v == nil {
					t.Fatalf("seed %d: %s lacks a value for %s", seed, e.Key, p)
				}
			}
		}
	}
}

func TestPropertyGreedyOneToOne(t *testing.T) {
	for seed := int64(1); seed <= 25; seed++ {
		set := fakeFilingSet(gofakeit.New(seed))
		m := NewMerger(DefaultConfig(), nil)
		views, _, err := m.prepare(IncomeStatement, set.Filings, m.log)
		if err != nil {
			t.Fatalf("prepare failed: %v", err)
		}
		b := newBuilder(m.cfg, m.log, views)
		for fi, f := range views {
			groups := groupSections(f.Rows)
			assign := b.resolveSections(f, groups)

			usedSections := make(map[int]bool)
			for gi, si := range assign {
				if si < 0 {
					continue
				}
				if usedSections[si] {
					t.Fatalf("seed %d filing %s: catalog section %d claimed twice", seed, f.Period, si)
				}
				usedSections[si] = true

				usedItems := make(map[int]bool)
				for _, idx := range b.resolveItems(f, groups[gi], si) {
					if usedItems[idx] {
						t.Fatalf("seed %d filing %s: catalog item %d claimed twice", seed, f.Period, idx)
					}
					usedItems[idx] = true
				}
			}
			b.fold(fi)
		}

		keys := make(map[CatalogKey]bool)
		for _, it := range b.items {
			if keys[it.Key] {
				t.Fatalf("seed %d: duplicate catalog key %s", seed, it.Key)
			}
			keys[it.Key] = true
		}
	}
}
