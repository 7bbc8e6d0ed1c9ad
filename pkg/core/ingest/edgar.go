// Package ingest fetches annual filings from SEC EDGAR and parses their statement
// R-files into structured statements for the merge engine.
// API Documentation: https://www.sec.gov/developer
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"financial_catalog/pkg/core/logger"
)

const (
	// SEC EDGAR endpoints
	DefaultArchiveBase = "https://www.sec.gov"
	DefaultDataBase    = "https://data.sec.gov"

	tickersPath     = "/files/company_tickers.json"
	submissionsPath = "/submissions/CIK%s.json"
	archivePath     = "/Archives/edgar/data/%s/%s"

	// DefaultUserAgent is sent when none is configured. SEC asks for a contact.
	DefaultUserAgent = "FinancialCatalog/1.0 (contact@example.com)"

	// SEC allows 10 requests per second per client.
	DefaultRateLimit = 8
)

var (
	// ErrTickerNotFound is returned when SEC has no CIK for a ticker.
	ErrTickerNotFound = errors.New("ticker not found in SEC database")
	// ErrUpstream wraps SEC transport failures and non-200 responses.
	ErrUpstream = errors.New("SEC EDGAR request failed")
)

// =============================================================================
// SEC EDGAR DATA TYPES
// =============================================================================

// SECCompanyInfo represents the top-level company submission response.
type SECCompanyInfo struct {
	CIK            string     `json:"cik"`
	EntityType     string     `json:"entityType"`
	SIC            string     `json:"sic"`
	SICDescription string     `json:"sicDescription"`
	Name           string     `json:"name"`
	Tickers        []string   `json:"tickers"`
	Exchanges      []string   `json:"exchanges"`
	FiscalYearEnd  string     `json:"fiscalYearEnd"`
	Filings        SECFilings `json:"filings"`
}

// SECFilings contains the recent filing list.
type SECFilings struct {
	Recent SECRecentFilings `json:"recent"`
}

// SECRecentFilings holds arrays of filing attributes (parallel arrays).
type SECRecentFilings struct {
	AccessionNumber []string `json:"accessionNumber"` // e.g., "0000320193-24-000123"
	FilingDate      []string `json:"filingDate"`      // e.g., "2024-11-01"
	ReportDate      []string `json:"reportDate"`      // Fiscal period end
	Form            []string `json:"form"`            // "10-K", "10-Q", "8-K"
	PrimaryDocument []string `json:"primaryDocument"`
}

// Filing is a single SEC filing, denormalized from the parallel arrays.
type Filing struct {
	CIK             string `json:"cik"`
	AccessionNumber string `json:"accession_number"`
	FilingDate      string `json:"filing_date"`
	ReportDate      string `json:"report_date"`
	FormType        string `json:"form_type"`
	PrimaryDocument string `json:"primary_document"`
}

// Folder is the accession number without dashes, as used in archive paths.
func (f Filing) Folder() string {
	return strings.ReplaceAll(f.AccessionNumber, "-", "")
}

// =============================================================================
// SEC EDGAR CLIENT
// =============================================================================

// ClientOptions configures an EDGARClient. Zero values take the defaults.
type ClientOptions struct {
	ArchiveBase string
	DataBase    string
	UserAgent   string
	RateLimit   float64 // requests per second
	Timeout     time.Duration
	HTTPClient  *http.Client
	Logger      *logger.Logger
}

// EDGARClient handles SEC EDGAR requests. It is safe for concurrent use; all
// requests share one rate limiter.
type EDGARClient struct {
	httpClient  *http.Client
	limiter     *rate.Limiter
	archiveBase string
	dataBase    string
	userAgent   string
	log         *logger.Logger

	mu      sync.Mutex
	tickers map[string]string // ticker -> zero-padded CIK
}

// NewEDGARClient creates a new SEC EDGAR client.
func NewEDGARClient(opts ClientOptions) *EDGARClient {
	if opts.ArchiveBase == "" {
		opts.ArchiveBase = DefaultArchiveBase
	}
	if opts.DataBase == "" {
		opts.DataBase = DefaultDataBase
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = DefaultRateLimit
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	return &EDGARClient{
		httpClient:  hc,
		limiter:     rate.NewLimiter(rate.Limit(opts.RateLimit), 1),
		archiveBase: strings.TrimRight(opts.ArchiveBase, "/"),
		dataBase:    strings.TrimRight(opts.DataBase, "/"),
		userAgent:   opts.UserAgent,
		log:         logger.OrNop(opts.Logger),
	}
}

// get performs a paced GET and returns the body. Transport failures and
// non-200 responses wrap ErrUpstream.
func (c *EDGARClient) get(ctx context.Context, url, accept string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// SEC requires User-Agent header
	req.Header.Set("User-Agent", c.userAgent)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d for %s", ErrUpstream, resp.StatusCode, url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	c.log.Debug("sec request", "url", url, "bytes", len(body))
	return body, nil
}

// NormalizeTicker uppercases a ticker and maps share-class dots to dashes
// ("BRK.B" -> "BRK-B"), matching SEC's ticker file.
func NormalizeTicker(ticker string) string {
	return strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(ticker)), ".", "-")
}

// LookupCIK finds the zero-padded CIK for a ticker. The SEC ticker file is
// downloaded once per client.
func (c *EDGARClient) LookupCIK(ctx context.Context, ticker string) (string, error) {
	ticker = NormalizeTicker(ticker)
	if ticker == "" {
		return "", fmt.Errorf("%w: empty ticker", ErrTickerNotFound)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tickers == nil {
		body, err := c.get(ctx, c.archiveBase+tickersPath, "application/json")
		if err != nil {
			return "", fmt.Errorf("failed to fetch ticker mapping: %w", err)
		}

		// Response structure: { "0": {"cik_str": 320193, "ticker": "AAPL", "title": "..."}, ... }
		var mapping map[string]struct {
			CIK    int    `json:"cik_str"`
			Ticker string `json:"ticker"`
			Title  string `json:"title"`
		}
		if err := json.Unmarshal(body, &mapping); err != nil {
			return "", fmt.Errorf("%w: failed to parse ticker mapping: %v", ErrUpstream, err)
		}
		tickers := make(map[string]string, len(mapping))
		for _, entry := range mapping {
			tickers[strings.ToUpper(entry.Ticker)] = fmt.Sprintf("%010d", entry.CIK)
		}
		c.tickers = tickers
	}

	cik, ok := c.tickers[ticker]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrTickerNotFound, ticker)
	}
	return cik, nil
}

// FetchCompanyInfo retrieves company submission data.
//
// CIK should be zero-padded to 10 digits (e.g., "0000320193" for Apple).
// If not padded, this function will pad it automatically.
func (c *EDGARClient) FetchCompanyInfo(ctx context.Context, cik string) (*SECCompanyInfo, error) {
	cik = fmt.Sprintf("%010s", strings.TrimLeft(cik, "0"))

	body, err := c.get(ctx, c.dataBase+fmt.Sprintf(submissionsPath, cik), "application/json")
	if err != nil {
		return nil, err
	}

	var info SECCompanyInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("%w: failed to parse SEC response: %v", ErrUpstream, err)
	}
	if info.CIK == "" {
		info.CIK = cik
	}
	return &info, nil
}

// GetFilings extracts filings filtered by form type, newest first as SEC lists them.
//
// formTypes: "10-K", "10-Q", "8-K", etc. Pass nil for all types.
// limit: Maximum number of filings to return (0 = no limit).
func (c *EDGARClient) GetFilings(info *SECCompanyInfo, formTypes []string, limit int) []Filing {
	recent := info.Filings.Recent
	filings := make([]Filing, 0)

	formTypeSet := make(map[string]bool)
	for _, ft := range formTypes {
		formTypeSet[ft] = true
	}

	at := func(s []string, i int) string {
		if i < len(s) {
			return s[i]
		}
		return ""
	}
	for i := range recent.AccessionNumber {
		form := at(recent.Form, i)
		if len(formTypes) > 0 && !formTypeSet[form] {
			continue
		}
		filings = append(filings, Filing{
			CIK:             info.CIK,
			AccessionNumber: recent.AccessionNumber[i],
			FilingDate:      at(recent.FilingDate, i),
			ReportDate:      at(recent.ReportDate, i),
			FormType:        form,
			PrimaryDocument: at(recent.PrimaryDocument, i),
		})
		if limit > 0 && len(filings) >= limit {
			break
		}
	}
	return filings
}

// AnnualFilings resolves a ticker and returns its 10-K filings, newest first.
func (c *EDGARClient) AnnualFilings(ctx context.Context, ticker string) ([]Filing, error) {
	cik, err := c.LookupCIK(ctx, ticker)
	if err != nil {
		return nil, err
	}
	info, err := c.FetchCompanyInfo(ctx, cik)
	if err != nil {
		return nil, err
	}
	filings := c.GetFilings(info, []string{"10-K"}, 0)
	for i := range filings {
		filings[i].CIK = cik
	}
	return filings, nil
}

// AvailableYears returns how many annual filings SEC lists for a ticker.
func (c *EDGARClient) AvailableYears(ctx context.Context, ticker string) (int, error) {
	filings, err := c.AnnualFilings(ctx, ticker)
	if err != nil {
		return 0, err
	}
	return len(filings), nil
}

// ArchiveURL builds the URL of a document inside a filing's archive folder.
func (c *EDGARClient) ArchiveURL(f Filing, name string) string {
	cik := strings.TrimLeft(f.CIK, "0")
	return c.archiveBase + fmt.Sprintf(archivePath, cik, f.Folder()) + "/" + name
}
