package merge

// =============================================================================
// SECTION RESOLVER
// =============================================================================

// resolveSections pairs each filing group with at most one catalog section.
// The result is indexed like groups; -1 means unresolved.
//
// Two passes over one claimed set: a greedy pass on key equality or the
// same-section gate, then a fallback pass on the share of rows the matcher
// can place among a catalog section's existing items.
func (b *builder) resolveSections(f *filingView, groups []*sectionGroup) []int {
	assign := make([]int, len(groups))
	claimed := make([]bool, len(b.sections))

	for gi, g := range groups {
		assign[gi] = -1
		for si, s := range b.sections {
			if claimed[si] || !sameSection(g, s) {
				continue
			}
			claimed[si] = true
			assign[gi] = si
			b.stats.GreedySections++
			break
		}
	}

	for gi, g := range groups {
		if assign[gi] >= 0 {
			continue
		}
		best, bestRatio := -1, 0.0
		for si := range b.sections {
			if claimed[si] {
				continue
			}
			ratio := b.fallbackRatio(f, g, si)
			if ratio >= b.cfg.FallbackRatio && ratio > bestRatio {
				best, bestRatio = si, ratio
			}
		}
		if best < 0 {
			continue
		}
		claimed[best] = true
		assign[gi] = best
		b.stats.FallbackSection++
		b.log.Debug("fallback section match",
			"filing", f.Period,
			"section", g.Label,
			"catalog_section", b.sections[best].Label,
			"ratio", bestRatio)
	}
	return assign
}

// sameSection is the greedy gate: equal natural key, equal non-empty code, or
// equal normalized label.
func sameSection(g *sectionGroup, s *catalogSection) bool {
	if g.Key == s.Key.Natural() {
		return true
	}
	if g.GAAP != "" && g.GAAP == s.GAAP {
		return true
	}
	return NormalizeLabel(g.Label) == NormalizeLabel(s.Label)
}

// fallbackRatio is the fraction of the group's rows that match at least one
// existing item of catalog section si.
func (b *builder) fallbackRatio(f *filingView, g *sectionGroup, si int) float64 {
	if len(g.Rows) == 0 {
		return 0
	}
	items := b.sections[si].Items
	if len(items) == 0 {
		return 0
	}
	hits := 0
	for _, ri := range g.Rows {
		r := &f.Rows[ri]
		ignore := g.Collisions[r.ItemGAAP]
		for _, idx := range items {
			if matchRowToItem(r, b.items[idx].Item, ignore) {
				hits++
				break
			}
		}
	}
	return float64(hits) / float64(len(g.Rows))
}

// =============================================================================
// ITEM RESOLVER
// =============================================================================

// resolveItems pairs the group's rows with items of catalog section si. Every
// catalog item is claimed at most once per filing. The result maps a row
// index to a catalog item index; unpaired rows are absent.
func (b *builder) resolveItems(f *filingView, g *sectionGroup, si int) map[int]int {
	pool := b.sections[si].Items
	claimed := make([]bool, len(pool))
	pairs := make(map[int]int, len(g.Rows))

	for _, ri := range g.Rows {
		r := &f.Rows[ri]
		ignore := g.Collisions[r.ItemGAAP]
		for pi, idx := range pool {
			if claimed[pi] || !matchRowToItem(r, b.items[idx].Item, ignore) {
				continue
			}
			claimed[pi] = true
			pairs[ri] = idx
			break
		}
	}
	return pairs
}
