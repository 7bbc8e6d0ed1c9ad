package ingest

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"financial_catalog/pkg/core/logger"
	"financial_catalog/pkg/core/merge"
)

const (
	DefaultMaxWorkers = 5
	DefaultMaxYears   = 15
)

// Summary reports how much of the requested history was retrieved.
type Summary struct {
	Available int `json:"available_years_count"`
	Requested int `json:"requested_years"`
	Fetched   int `json:"fetched_years"`
}

// FetchResult is the finished collaborator output for one ticker.
type FetchResult struct {
	Set     *merge.FilingSet
	Summary Summary
}

// Fetcher retrieves the three primary statements of a ticker's most recent
// annual filings with bounded parallelism. A statement that cannot be fetched or
// parsed becomes an error marker; it never fails the whole fetch.
type Fetcher struct {
	client   *EDGARClient
	workers  int
	maxYears int
	cache    *StatementCache
	log      *logger.Logger
}

// NewFetcher creates a fetcher. Non-positive limits take the defaults.
func NewFetcher(client *EDGARClient, workers, maxYears int, log *logger.Logger) *Fetcher {
	if workers <= 0 {
		workers = DefaultMaxWorkers
	}
	if maxYears <= 0 {
		maxYears = DefaultMaxYears
	}
	return &Fetcher{client: client, workers: workers, maxYears: maxYears, log: logger.OrNop(log)}
}

// WithCache makes the fetcher reuse parsed statements from c. A nil cache
// disables caching.
func (f *Fetcher) WithCache(c *StatementCache) *Fetcher {
	f.cache = c
	return f
}

// MaxYears is the largest accepted years-back value.
func (f *Fetcher) MaxYears() int { return f.maxYears }

// AvailableYears returns how many annual filings exist for the ticker.
func (f *Fetcher) AvailableYears(ctx context.Context, ticker string) (int, error) {
	return f.client.AvailableYears(ctx, ticker)
}

// Fetch retrieves up to yearsBack annual filings, newest first. yearsBack is
// clipped to 1..MaxYears and to what SEC lists.
func (f *Fetcher) Fetch(ctx context.Context, ticker string, yearsBack int) (*FetchResult, error) {
	yearsBack = min(max(yearsBack, 1), f.maxYears)
	res := &FetchResult{
		Set:     &merge.FilingSet{Ticker: NormalizeTicker(ticker), Filings: []merge.Filing{}},
		Summary: Summary{Requested: yearsBack},
	}

	filings, err := f.client.AnnualFilings(ctx, ticker)
	if err != nil {
		return nil, fmt.Errorf("failed to list filings for %s: %w", ticker, err)
	}
	res.Summary.Available = len(filings)
	if len(filings) == 0 {
		f.log.Warn("no annual filings found", "ticker", ticker)
		return res, nil
	}
	filings = filings[:min(yearsBack, len(filings))]

	out := make([]merge.Filing, len(filings))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.workers)

	for i, filing := range filings {
		out[i] = merge.Filing{
			Period:          periodOf(filing),
			Filed:           filing.FilingDate,
			AccessionNumber: filing.AccessionNumber,
			Statements:      make(map[merge.StatementType]*merge.StatementResult, len(merge.StatementTypes)),
		}
		summary := sync.OnceValues(func() (*FilingSummary, error) {
			return f.client.FetchFilingSummary(gctx, filing)
		})
		for _, st := range merge.StatementTypes {
			g.Go(func() error {
				stmt, err := f.fetchStatement(gctx, filing, st, summary)
				result := &merge.StatementResult{Statement: stmt}
				if err != nil {
					if gctx.Err() != nil {
						return gctx.Err()
					}
					f.log.Warn("statement unavailable",
						"ticker", ticker,
						"report_date", filing.ReportDate,
						"statement", string(st),
						"error", err)
					result = &merge.StatementResult{Err: err.Error()}
				}
				mu.Lock()
				out[i].Statements[st] = result
				mu.Unlock()
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetch for %s interrupted: %w", ticker, err)
	}

	res.Set.Filings = out
	res.Summary.Fetched = len(out)
	f.log.Info("fetched filings", "ticker", res.Set.Ticker, "available", res.Summary.Available, "fetched", res.Summary.Fetched)
	return res, nil
}

func (f *Fetcher) fetchStatement(ctx context.Context, filing Filing, st merge.StatementType, summary func() (*FilingSummary, error)) (*merge.StructuredStatement, error) {
	if f.cache != nil {
		if stmt, ok := f.cache.Get(filing, st); ok {
			return stmt, nil
		}
	}
	fs, err := summary()
	if err != nil {
		return nil, err
	}
	name, ok := fs.FileFor(st)
	if !ok {
		return nil, fmt.Errorf("could not find statement file name for %s", st)
	}
	url := f.client.ArchiveURL(filing, name)
	body, err := f.client.get(ctx, url, "text/html")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	stmt, err := ParseStatementHTML(bytes.NewReader(body), st, url)
	if err != nil {
		return nil, err
	}
	if f.cache != nil {
		if err := f.cache.Set(filing, st, stmt); err != nil {
			f.log.Warn("failed to cache statement", "accession", filing.AccessionNumber, "statement", string(st), "error", err)
		}
	}
	return stmt, nil
}

// periodOf is the filing-period identifier: the report date, else the filing date.
func periodOf(f Filing) string {
	if f.ReportDate != "" {
		return f.ReportDate
	}
	return f.FilingDate
}
