package financials

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"financial_catalog/pkg/core/ingest"
	"financial_catalog/pkg/core/merge"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// RespondError writes err as an error envelope.
func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{Error: APIError{Message: msg, Code: code}})
}

// StatusFor maps pipeline errors onto HTTP statuses and error codes.
func StatusFor(err error) (int, string) {
	switch {
	case errors.Is(err, ingest.ErrTickerNotFound):
		return http.StatusBadRequest, "ticker_not_found"
	case errors.Is(err, ingest.ErrUpstream):
		return http.StatusServiceUnavailable, "upstream_unavailable"
	case merge.IsValidationError(err):
		return http.StatusUnprocessableEntity, "invalid_statement"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

// LineItemJSON is one item row of a statement response.
type LineItemJSON struct {
	ItemLabel string              `json:"item_label"`
	GAAPCode  string              `json:"gaap_code,omitempty"`
	Values    map[string]*float64 `json:"values"`
}

// SectionJSON is one section of a statement response.
type SectionJSON struct {
	SectionLabel string         `json:"section_label"`
	Items        []LineItemJSON `json:"items"`
}

// StatementJSON is the presentation shape of one unified catalog.
type StatementJSON struct {
	StatementType merge.StatementType `json:"statement_type"`
	Years         []string            `json:"years"`
	Sections      []SectionJSON       `json:"sections"`
}

// FormatStatement groups a catalog by section label with years newest first.
func FormatStatement(cat *merge.UnifiedCatalog) StatementJSON {
	out := StatementJSON{
		StatementType: cat.StatementType,
		Years:         cat.PeriodsDescending(),
		Sections:      make([]SectionJSON, 0),
	}
	for _, sec := range cat.Sections() {
		s := SectionJSON{SectionLabel: sec.Label, Items: make([]LineItemJSON, 0, len(sec.Items))}
		for _, it := range sec.Items {
			s.Items = append(s.Items, LineItemJSON{ItemLabel: it.ItemLabel, GAAPCode: it.ItemGAAP, Values: it.Values})
		}
		out.Sections = append(out.Sections, s)
	}
	return out
}

// FetchResponse is the body of POST /fetch-financials.
type FetchResponse struct {
	RequestID    string                                      `json:"request_id"`
	Ticker       string                                      `json:"ticker"`
	Status       string                                      `json:"status"`
	Error        string                                      `json:"error,omitempty"`
	Summary      *ingest.Summary                             `json:"summary,omitempty"`
	SourceURLs   map[merge.StatementType][]string            `json:"source_urls"`
	Statements   map[merge.StatementType]StatementJSON       `json:"statements"`
	Stats        map[merge.StatementType]merge.Stats         `json:"stats,omitempty"`
	Restatements map[merge.StatementType][]merge.Restatement `json:"restatements,omitempty"`
}
