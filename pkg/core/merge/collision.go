package merge

import "strings"

// DetectGAAPCollisions returns the item codes that occur two or more times among
// the rows of one section of one filing. Rows carrying such a code are identified
// by label instead.
func DetectGAAPCollisions(rows []FlatRow) map[string]bool {
	counts := make(map[string]int)
	for _, r := range rows {
		if r.ItemGAAP != "" {
			counts[r.ItemGAAP]++
		}
	}
	collisions := make(map[string]bool)
	for g, c := range counts {
		if c > 1 {
			collisions[g] = true
		}
	}
	return collisions
}

// FlagDuplicateSectionCodes blanks the section code of rows whose code was already
// attached to a different normalized section label earlier in the same filing, so
// that a reused code cannot merge distinct groupings. It returns how many rows were
// degraded to label-only identity.
func FlagDuplicateSectionCodes(rows []FlatRow) int {
	firstLabel := make(map[string]string)
	blanked := 0
	for i := range rows {
		g := strings.TrimSpace(rows[i].SectionGAAP)
		if g == "" {
			continue
		}
		lbl := NormalizeLabel(rows[i].SectionLabel)
		first, ok := firstLabel[g]
		if !ok {
			firstLabel[g] = lbl
			continue
		}
		if first != lbl {
			rows[i].SectionGAAP = ""
			blanked++
		}
	}
	return blanked
}
