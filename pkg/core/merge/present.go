package merge

import "slices"

// SectionView is one display group of a catalog.
type SectionView struct {
	Label string
	Items []*UnifiedItem
}

// Sections groups entries by section label, keeping catalog order. Entries of a
// label that reappears later join its first group.
func (c *UnifiedCatalog) Sections() []SectionView {
	out := make([]SectionView, 0)
	pos := make(map[string]int)
	for _, e := range c.Entries {
		i, ok := pos[e.Item.SectionLabel]
		if !ok {
			i = len(out)
			pos[e.Item.SectionLabel] = i
			out = append(out, SectionView{Label: e.Item.SectionLabel})
		}
		out[i].Items = append(out[i].Items, e.Item)
	}
	return out
}

// PeriodsDescending returns the catalog periods newest first.
func (c *UnifiedCatalog) PeriodsDescending() []string {
	out := slices.Clone(c.Periods)
	slices.Reverse(out)
	return out
}
