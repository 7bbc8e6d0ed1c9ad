package merge

// Candidate is anything the matcher can compare: a filing row or a catalog item.
type Candidate struct {
	GAAP   string
	Label  string
	Values map[string]*float64
}

func rowCandidate(r *FlatRow) Candidate {
	return Candidate{GAAP: r.ItemGAAP, Label: r.ItemLabel, Values: r.Values}
}

func itemCandidate(u *UnifiedItem) Candidate {
	return Candidate{GAAP: u.ItemGAAP, Label: u.ItemLabel, Values: u.Values}
}

// Match runs the line-item waterfall:
//  1. equal non-empty code (unless ignoreGAAP),
//  2. equal non-empty normalized label,
//  3. identical non-empty set of non-null, non-zero values on the overlap periods.
func Match(a, b Candidate, overlap []string, ignoreGAAP bool) bool {
	if !ignoreGAAP && a.GAAP != "" && a.GAAP == b.GAAP {
		return true
	}
	if la := NormalizeLabel(a.Label); la != "" && la == NormalizeLabel(b.Label) {
		return true
	}
	return sameEvidence(a.Values, b.Values, overlap)
}

func sameEvidence(a, b map[string]*float64, overlap []string) bool {
	na, nb := 0, 0
	for _, p := range overlap {
		va, vb := a[p], b[p]
		ea, eb := hasEvidence(va), hasEvidence(vb)
		if ea {
			na++
		}
		if eb {
			nb++
		}
		if ea != eb {
			return false
		}
		if ea && *va != *vb {
			return false
		}
	}
	return na > 0 && na == nb
}

// OverlapPeriods returns the period keys present in both mappings, sorted.
func OverlapPeriods(a, b map[string]*float64) []string {
	out := make([]string, 0)
	for _, p := range sortedKeys(a) {
		if _, ok := b[p]; ok {
			out = append(out, p)
		}
	}
	return out
}

// matchRowToItem applies the waterfall between a filing row and a catalog item on
// their overlapping periods.
func matchRowToItem(r *FlatRow, u *UnifiedItem, ignoreGAAP bool) bool {
	return Match(rowCandidate(r), itemCandidate(u), OverlapPeriods(r.Values, u.Values), ignoreGAAP)
}
