package merge

// authorities maps every reported period to the index of the most recent filing
// that reports it. Filings are in fold order, so the last reporter wins.
func (b *builder) authorities() map[string]int {
	auth := make(map[string]int)
	for fi, f := range b.filings {
		for p := range f.reported {
			auth[p] = fi
		}
	}
	return auth
}

// zeroStale forces to 0.0 every stored value the period's authoritative filing
// does not itself confirm. It returns the number of cells changed.
func (b *builder) zeroStale() int {
	auth := b.authorities()
	zeroed := 0
	for idx, it := range b.items {
		for p, v := range it.Item.Values {
			fi, ok := auth[p]
			if !ok || b.filings[fi].present[cell{item: idx, period: p}] {
				continue
			}
			if v != nil && *v == 0 {
				continue
			}
			if v != nil {
				b.log.Debug("zeroing stale value",
					"item", it.Key.String(),
					"period", p,
					"value", *v,
					"authority", b.filings[fi].Period)
			}
			it.Item.Values[p] = zero()
			zeroed++
		}
	}
	return zeroed
}

func zero() *float64 {
	z := 0.0
	return &z
}
