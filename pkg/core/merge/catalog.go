package merge

import (
	"financial_catalog/pkg/core/logger"
)

// =============================================================================
// WORKING STATE
// =============================================================================

// filingView is the private working copy of one filing's statement.
type filingView struct {
	Period    string
	SourceURL string
	Periods   []string
	Rows      []FlatRow

	// filled during the fold
	sectionOrder []int         // catalog sections in first-appearance order
	sectionNames []sectionName // the filing's own code and label, parallel to sectionOrder
	reported     map[string]bool
	present      map[cell]bool
}

type sectionName struct {
	GAAP  string
	Label string
}

type cell struct {
	item   int
	period string
}

type catalogSection struct {
	Key   Key
	GAAP  string
	Label string
	Items []int // catalog item indexes, insertion order
}

type catalogItem struct {
	Key     CatalogKey
	Section int
	Item    *UnifiedItem
	// Positions maps a filing index (fold order) to the item's position there.
	Positions map[int]int
	// origin maps a period to the filing index that supplied its stored value.
	origin map[string]int
}

// builder exclusively owns the accreting catalog for the duration of one fold.
type builder struct {
	cfg Config
	log *logger.Logger

	filings []*filingView

	sections    []*catalogSection
	sectionKeys map[Key]int
	// sectionCodes maps a section code to the catalog section that owns it.
	sectionCodes map[string]int

	items    []*catalogItem
	itemKeys map[CatalogKey]int

	restatements []Restatement
	stats        Stats
}

func newBuilder(cfg Config, log *logger.Logger, filings []*filingView) *builder {
	return &builder{
		cfg:          cfg,
		log:          log,
		filings:      filings,
		sectionKeys:  make(map[Key]int),
		sectionCodes: make(map[string]int),
		itemKeys:     make(map[CatalogKey]int),
	}
}

// =============================================================================
// FOLD
// =============================================================================

// fold merges one filing into the catalog.
func (b *builder) fold(fi int) {
	f := b.filings[fi]
	f.reported = make(map[string]bool)
	f.present = make(map[cell]bool)

	groups := groupSections(f.Rows)
	assign := b.resolveSections(f, groups)

	for gi, g := range groups {
		si := assign[gi]
		var pairs map[int]int
		if si >= 0 {
			b.relabel(f, g, si)
			pairs = b.resolveItems(f, g, si)
		} else {
			si = b.newSection(g)
		}
		f.sectionOrder = append(f.sectionOrder, si)
		f.sectionNames = append(f.sectionNames, sectionName{GAAP: g.GAAP, Label: g.Label})

		for _, ri := range g.Rows {
			r := &f.Rows[ri]
			idx, matched := pairs[ri]
			if matched {
				b.update(idx, fi, r)
				b.stats.MatchedRows++
			} else {
				idx = b.newItem(si, fi, r, g.Collisions[r.ItemGAAP])
				b.stats.NewItems++
			}
			b.items[idx].Positions[fi] = r.Position
			for p, v := range r.Values {
				f.reported[p] = true
				if v != nil {
					f.present[cell{item: idx, period: p}] = true
				}
			}
		}
	}
}

// relabel rewrites a resolved group's rows to the catalog section's canonical
// code and label, so one filing never introduces a divergent label for a section.
func (b *builder) relabel(f *filingView, g *sectionGroup, si int) {
	s := b.sections[si]
	for _, ri := range g.Rows {
		f.Rows[ri].SectionGAAP = s.GAAP
		f.Rows[ri].SectionLabel = s.Label
	}
}

// adoptLatestNames renames every catalog section the most recent filing shows
// to that filing's label, and its items with it. The code is taken over only
// when it is non-empty and not owned by another catalog section. Keys never
// change.
func (b *builder) adoptLatestNames() int {
	n := len(b.filings)
	if n == 0 {
		return 0
	}
	latest := b.filings[n-1]
	renamed := 0
	seen := make(map[int]bool, len(latest.sectionOrder))
	for i, si := range latest.sectionOrder {
		if seen[si] {
			continue
		}
		seen[si] = true
		s, name := b.sections[si], latest.sectionNames[i]

		gaap := s.GAAP
		if name.GAAP != "" && name.GAAP != s.GAAP {
			if owner, owned := b.sectionCodes[name.GAAP]; !owned || owner == si {
				if s.GAAP != "" {
					delete(b.sectionCodes, s.GAAP)
				}
				gaap = name.GAAP
				b.sectionCodes[gaap] = si
			}
		}
		if name.Label == s.Label && gaap == s.GAAP {
			continue
		}
		b.log.Debug("section renamed from latest filing", "section", s.Key.String(), "from", s.Label, "to", name.Label)
		s.Label, s.GAAP = name.Label, gaap
		for _, idx := range s.Items {
			b.items[idx].Item.SectionLabel = s.Label
			b.items[idx].Item.SectionGAAP = s.GAAP
		}
		renamed++
	}
	return renamed
}

// newSection seeds a catalog section from an unresolved group. A code already
// owned by another catalog section is dropped, and a taken key gets the next
// ordinal.
func (b *builder) newSection(g *sectionGroup) int {
	gaap, key := g.GAAP, g.Key
	if gaap != "" {
		if _, owned := b.sectionCodes[gaap]; owned {
			gaap = ""
			key = LabelKey(NormalizeLabel(g.Label))
		}
	}
	for {
		if _, taken := b.sectionKeys[key]; !taken {
			break
		}
		key.Ordinal++
	}

	si := len(b.sections)
	b.sections = append(b.sections, &catalogSection{Key: key, GAAP: gaap, Label: g.Label})
	b.sectionKeys[key] = si
	if gaap != "" {
		b.sectionCodes[gaap] = si
	}
	b.stats.NewSections++
	b.log.Debug("new catalog section", "section", key.String(), "label", g.Label)
	return si
}

// newItem creates a UnifiedItem seeded with exactly the row's values.
func (b *builder) newItem(si, fi int, r *FlatRow, collides bool) int {
	s := b.sections[si]
	key := CatalogKey{Section: s.Key, Item: ItemKeyOf(r.ItemGAAP, r.ItemLabel, collides)}
	for {
		if _, taken := b.itemKeys[key]; !taken {
			break
		}
		key.Item.Ordinal++
	}

	values := make(map[string]*float64, len(r.Values))
	origin := make(map[string]int, len(r.Values))
	for p, v := range r.Values {
		values[p] = v
		origin[p] = fi
	}

	idx := len(b.items)
	b.items = append(b.items, &catalogItem{
		Key:     key,
		Section: si,
		Item: &UnifiedItem{
			SectionGAAP:  s.GAAP,
			SectionLabel: s.Label,
			ItemGAAP:     r.ItemGAAP,
			ItemLabel:    r.ItemLabel,
			Values:       values,
		},
		Positions: make(map[int]int),
		origin:    origin,
	})
	b.itemKeys[key] = idx
	s.Items = append(s.Items, idx)
	return idx
}

// update folds a matched row into an existing item. Filings arrive oldest first,
// so a non-null value from the current filing always wins; a null never
// overwrites, and a missing period is always filled.
func (b *builder) update(idx, fi int, r *FlatRow) {
	it := b.items[idx]
	for _, p := range sortedKeys(r.Values) {
		v := r.Values[p]
		cur, ok := it.Item.Values[p]
		if ok && v == nil {
			continue
		}
		if ok && cur != nil && *cur != *v {
			b.recordRestatement(it, p, *cur, *v, it.origin[p], fi)
		}
		it.Item.Values[p] = v
		it.origin[p] = fi
	}
}

func (b *builder) recordRestatement(it *catalogItem, period string, was, now float64, oldFi, newFi int) {
	delta := 0.0
	if was != 0 {
		delta = (now - was) / was * 100
	}
	b.restatements = append(b.restatements, Restatement{
		Key:          it.Key.String(),
		ItemLabel:    it.Item.ItemLabel,
		Period:       period,
		OldValue:     was,
		NewValue:     now,
		DeltaPercent: delta,
		OldFiling:    b.filings[oldFi].Period,
		NewFiling:    b.filings[newFi].Period,
	})
}
