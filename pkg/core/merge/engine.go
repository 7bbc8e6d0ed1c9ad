package merge

import (
	"errors"
	"fmt"

	"financial_catalog/pkg/core/logger"
)

// DefaultFallbackRatio is the minimum share of rows a fallback section match needs.
const DefaultFallbackRatio = 0.5

// Config tunes the heuristics.
type Config struct {
	FallbackRatio float64
}

// DefaultConfig returns the standard heuristics.
func DefaultConfig() Config {
	return Config{FallbackRatio: DefaultFallbackRatio}
}

// Merger builds unified catalogs. It holds no state between calls.
type Merger struct {
	cfg Config
	log *logger.Logger
}

// NewMerger creates a merger. A non-positive ratio falls back to the default.
func NewMerger(cfg Config, log *logger.Logger) *Merger {
	if cfg.FallbackRatio <= 0 || cfg.FallbackRatio > 1 {
		cfg.FallbackRatio = DefaultFallbackRatio
	}
	return &Merger{cfg: cfg, log: logger.OrNop(log)}
}

// BuildCatalog merges one statement type across filings.
//
// Filings are folded oldest first (see SortFilings). Error markers and filings
// without the statement are skipped as if absent; a statement missing its periods
// or sections contributes nothing. A malformed statement aborts the merge with a
// *ValidationError. Input filings are never modified.
func (m *Merger) BuildCatalog(t StatementType, filings []Filing) (*UnifiedCatalog, error) {
	cat := NewUnifiedCatalog(t)
	log := m.log.With("statement", string(t))

	views, skipped, err := m.prepare(t, filings, log)
	if err != nil {
		return nil, err
	}
	cat.Stats.SkippedFilings = skipped
	if len(views) == 0 {
		return cat, nil
	}

	b := newBuilder(m.cfg, log, views)
	for fi := range views {
		b.fold(fi)
	}
	zeroed := b.zeroStale()
	b.adoptLatestNames()

	cat.Periods = b.periodUnion()
	b.pad(cat.Periods)
	for _, si := range b.orderSections() {
		for _, idx := range b.orderItems(si) {
			it := b.items[idx]
			cat.index[it.Key] = len(cat.Entries)
			cat.Entries = append(cat.Entries, Entry{Key: it.Key, Item: it.Item})
		}
	}

	for fi := len(views) - 1; fi >= 0; fi-- {
		if u := views[fi].SourceURL; u != "" {
			cat.SourceURLs = append(cat.SourceURLs, u)
		}
	}
	cat.Restatements = append(cat.Restatements, b.restatements...)

	cat.Stats = b.stats
	cat.Stats.Filings = len(views)
	cat.Stats.SkippedFilings = skipped
	cat.Stats.ZeroedCells = zeroed

	log.Info("catalog built",
		"filings", cat.Stats.Filings,
		"items", cat.Len(),
		"periods", len(cat.Periods),
		"fallback_sections", cat.Stats.FallbackSection,
		"zeroed", zeroed,
		"restatements", len(cat.Restatements))
	return cat, nil
}

// prepare orders, validates and flattens the usable filings into private working
// copies. It returns how many filings were skipped.
func (m *Merger) prepare(t StatementType, filings []Filing, log *logger.Logger) ([]*filingView, int, error) {
	views := make([]*filingView, 0, len(filings))
	skipped := 0
	for _, f := range SortFilings(filings) {
		res := f.Statements[t]
		if !res.Usable() {
			if res != nil && res.Err != "" {
				log.Debug("skipping error marker", "filing", f.Period, "error", res.Err)
			}
			skipped++
			continue
		}
		stmt := res.Statement
		if err := stmt.Validate(); err != nil {
			var ve *ValidationError
			if errors.As(err, &ve) {
				ve.Filing, ve.Statement = f.Period, t
			}
			return nil, 0, err
		}
		if stmt.empty() {
			log.Warn("statement has no periods or sections", "filing", f.Period)
			skipped++
			continue
		}
		periods, rows := Flatten(stmt)
		if len(rows) == 0 {
			log.Debug("statement has no rows", "filing", f.Period)
			skipped++
			continue
		}
		if n := FlagDuplicateSectionCodes(rows); n > 0 {
			log.Debug("blanked reused section codes", "filing", f.Period, "rows", n)
		}
		views = append(views, &filingView{
			Period:    f.Period,
			SourceURL: stmt.SourceURL,
			Periods:   periods,
			Rows:      rows,
		})
	}
	return views, skipped, nil
}

// BuildAll merges every statement type of the set independently.
func (m *Merger) BuildAll(set *FilingSet) (map[StatementType]*UnifiedCatalog, error) {
	out := make(map[StatementType]*UnifiedCatalog, len(StatementTypes))
	if set == nil {
		for _, t := range StatementTypes {
			out[t] = NewUnifiedCatalog(t)
		}
		return out, nil
	}
	for _, t := range StatementTypes {
		cat, err := m.BuildCatalog(t, set.Filings)
		if err != nil {
			return nil, fmt.Errorf("failed to merge %s for %s: %w", t, set.Ticker, err)
		}
		out[t] = cat
	}
	return out, nil
}
