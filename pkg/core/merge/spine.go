package merge

import (
	"cmp"
	"slices"
	"sort"
)

// orderSections lists catalog section indexes in the most recent filing's order,
// followed by sections it never shows in insertion order.
func (b *builder) orderSections() []int {
	out := make([]int, 0, len(b.sections))
	seen := make([]bool, len(b.sections))
	if n := len(b.filings); n > 0 {
		for _, si := range b.filings[n-1].sectionOrder {
			if !seen[si] {
				seen[si] = true
				out = append(out, si)
			}
		}
	}
	for si := range b.sections {
		if !seen[si] {
			out = append(out, si)
		}
	}
	return out
}

type spineSlot struct {
	idx    int
	anchor int
	prio   int // 0 for older-only items, 1 for spine items
	label  string
}

// orderItems orders the items of one section on the most recent filing's layout.
// Older-only items are placed before the first spine item whose position is at
// least their most recent known position.
func (b *builder) orderItems(si int) []int {
	latest := len(b.filings) - 1
	items := b.sections[si].Items

	spine := make([]spineSlot, 0, len(items))
	older := make([]spineSlot, 0)
	for _, idx := range items {
		it := b.items[idx]
		label := NormalizeLabel(it.Item.ItemLabel)
		if pos, ok := it.Positions[latest]; ok {
			spine = append(spine, spineSlot{idx: idx, anchor: pos, prio: 1, label: label})
			continue
		}
		older = append(older, spineSlot{idx: idx, anchor: b.lastKnownPosition(it), label: label})
	}

	slices.SortStableFunc(spine, func(a, c spineSlot) int {
		return cmp.Or(cmp.Compare(a.anchor, c.anchor), cmp.Compare(a.label, c.label), cmp.Compare(a.idx, c.idx))
	})
	positions := make([]int, len(spine))
	for i := range spine {
		positions[i] = spine[i].anchor
		spine[i].anchor = i
	}
	for i := range older {
		p := older[i].anchor
		older[i].anchor = sort.Search(len(positions), func(j int) bool { return positions[j] >= p })
	}

	slots := append(spine, older...)
	slices.SortStableFunc(slots, func(a, c spineSlot) int {
		return cmp.Or(
			cmp.Compare(a.anchor, c.anchor),
			cmp.Compare(a.prio, c.prio),
			cmp.Compare(a.label, c.label),
			cmp.Compare(a.idx, c.idx),
		)
	})

	out := make([]int, len(slots))
	for i, s := range slots {
		out[i] = s.idx
	}
	return out
}

// lastKnownPosition is the item's position in the most recent filing it appeared in.
func (b *builder) lastKnownPosition(it *catalogItem) int {
	best, pos := -1, 0
	for fi, p := range it.Positions {
		if fi > best {
			best, pos = fi, p
		}
	}
	return pos
}

// periodUnion returns every period observed across the folded filings, ascending.
func (b *builder) periodUnion() []string {
	set := make(map[string]bool)
	for _, f := range b.filings {
		for _, p := range f.Periods {
			set[p] = true
		}
		for p := range f.reported {
			set[p] = true
		}
	}
	return sortedKeys(set)
}

// pad rewrites every item's values to exactly one entry per period.
func (b *builder) pad(periods []string) {
	for _, it := range b.items {
		values := make(map[string]*float64, len(periods))
		for _, p := range periods {
			if v, ok := it.Item.Values[p]; ok && v != nil {
				values[p] = v
				continue
			}
			values[p] = zero()
		}
		it.Item.Values = values
	}
}
