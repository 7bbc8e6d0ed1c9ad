package merge

import (
	"cmp"
	"slices"
)

// Flatten converts one statement into its normalized periods and positioned rows.
// Position restarts at 0 in every section and preserves the filing's order.
func Flatten(stmt *StructuredStatement) ([]string, []FlatRow) {
	if stmt == nil {
		return nil, nil
	}
	periods := make([]string, 0, len(stmt.Periods))
	seen := make(map[string]bool, len(stmt.Periods))
	for _, p := range stmt.Periods {
		np := NormalizePeriod(p)
		if !seen[np] {
			seen[np] = true
			periods = append(periods, np)
		}
	}

	rows := make([]FlatRow, 0)
	for _, sec := range stmt.Sections {
		for idx, item := range sec.Items {
			rows = append(rows, FlatRow{
				SectionGAAP:  sec.GAAP,
				SectionLabel: sec.Label,
				ItemGAAP:     item.GAAP,
				ItemLabel:    item.Label,
				Values:       NormalizeValues(item.Values),
				Position:     idx,
			})
		}
	}
	return periods, rows
}

// sectionGroup is the set of rows of one filing sharing a SectionKey.
type sectionGroup struct {
	Key   Key
	GAAP  string
	Label string
	Rows  []int // indexes into the filing's rows
	// Collisions holds item codes occurring more than once in the group.
	Collisions map[string]bool
}

// groupSections buckets rows by SectionKey in first-appearance order.
func groupSections(rows []FlatRow) []*sectionGroup {
	groups := make([]*sectionGroup, 0)
	byKey := make(map[Key]*sectionGroup)
	for i, r := range rows {
		k := SectionKeyOf(r.SectionGAAP, r.SectionLabel)
		g, ok := byKey[k]
		if !ok {
			g = &sectionGroup{Key: k, GAAP: r.SectionGAAP, Label: r.SectionLabel}
			byKey[k] = g
			groups = append(groups, g)
		}
		g.Rows = append(g.Rows, i)
	}
	for _, g := range groups {
		members := make([]FlatRow, len(g.Rows))
		for j, ri := range g.Rows {
			members[j] = rows[ri]
		}
		g.Collisions = DetectGAAPCollisions(members)
	}
	return groups
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, cmp.Compare[string])
	return keys
}
