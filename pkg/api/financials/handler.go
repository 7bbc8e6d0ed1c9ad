// Package financials serves merged multi-year statements over HTTP.
package financials

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"financial_catalog/pkg/core/export"
	"financial_catalog/pkg/core/ingest"
	"financial_catalog/pkg/core/logger"
	"financial_catalog/pkg/core/merge"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Source supplies filing sets for a ticker. *ingest.Fetcher satisfies it.
type Source interface {
	Fetch(ctx context.Context, ticker string, yearsBack int) (*ingest.FetchResult, error)
	AvailableYears(ctx context.Context, ticker string) (int, error)
}

// ErrNoData is returned when none of the requested filings could be retrieved.
var ErrNoData = errors.New("no financial data could be retrieved")

type AvailabilityRequest struct {
	Ticker string `json:"ticker" binding:"required"`
}

type FetchRequest struct {
	Ticker    string `json:"ticker" binding:"required"`
	YearsBack int    `json:"years_back" binding:"required,min=1,max=15"`
}

// Result is a fetched and merged ticker.
type Result struct {
	Ticker   string
	Summary  ingest.Summary
	Catalogs map[merge.StatementType]*merge.UnifiedCatalog
}

type Handler struct {
	source Source
	merger *merge.Merger
	log    *logger.Logger
}

func NewHandler(source Source, merger *merge.Merger, log *logger.Logger) *Handler {
	if merger == nil {
		merger = merge.NewMerger(merge.DefaultConfig(), log)
	}
	return &Handler{source: source, merger: merger, log: logger.OrNop(log)}
}

// Register mounts the API routes.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/", h.Root)
	r.GET("/health", h.Health)
	r.POST("/check-availability", h.CheckAvailability)
	r.POST("/fetch-financials", h.FetchFinancials)
	r.POST("/export-financials", h.ExportFinancials)
}

func (h *Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":    "Financial Data API",
		"version": "1.0.0",
		"endpoints": gin.H{
			"check_availability": "/check-availability",
			"fetch_financials":   "/fetch-financials",
			"export_financials":  "/export-financials",
			"viewer":             "/viewer",
			"health":             "/health",
		},
	})
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "financial-data-api"})
}

// CheckAvailability handles POST /check-availability
func (h *Handler) CheckAvailability(c *gin.Context) {
	var req AvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	ticker := ingest.NormalizeTicker(req.Ticker)

	n, err := h.source.AvailableYears(c.Request.Context(), ticker)
	if err != nil {
		status, code := StatusFor(err)
		h.log.Error("availability check failed", "ticker", ticker, "error", err)
		RespondError(c, status, code, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ticker":                ticker,
		"available_years_count": n,
		"status":                "success",
	})
}

// FetchFinancials handles POST /fetch-financials
func (h *Handler) FetchFinancials(c *gin.Context) {
	var req FetchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	requestID := uuid.NewString()
	ticker := ingest.NormalizeTicker(req.Ticker)
	log := h.log.With("request_id", requestID, "ticker", ticker)

	res, err := h.Collect(c.Request.Context(), ticker, req.YearsBack)
	if errors.Is(err, ErrNoData) {
		c.JSON(http.StatusOK, FetchResponse{
			RequestID:  requestID,
			Ticker:     ticker,
			Status:     "error",
			Error:      err.Error(),
			SourceURLs: map[merge.StatementType][]string{},
			Statements: map[merge.StatementType]StatementJSON{},
		})
		return
	}
	if err != nil {
		status, code := StatusFor(err)
		log.Error("fetch failed", "error", err)
		RespondError(c, status, code, err)
		return
	}

	resp := FetchResponse{
		RequestID:    requestID,
		Ticker:       ticker,
		Status:       "success",
		Summary:      &res.Summary,
		SourceURLs:   make(map[merge.StatementType][]string, len(merge.StatementTypes)),
		Statements:   make(map[merge.StatementType]StatementJSON, len(merge.StatementTypes)),
		Stats:        make(map[merge.StatementType]merge.Stats, len(merge.StatementTypes)),
		Restatements: make(map[merge.StatementType][]merge.Restatement),
	}
	for _, st := range merge.StatementTypes {
		cat := res.Catalogs[st]
		resp.SourceURLs[st] = cat.SourceURLs
		resp.Stats[st] = cat.Stats
		if cat.Len() > 0 {
			resp.Statements[st] = FormatStatement(cat)
		}
		if len(cat.Restatements) > 0 {
			resp.Restatements[st] = cat.Restatements
		}
	}
	log.Info("financials served", "fetched_years", res.Summary.Fetched)
	c.JSON(http.StatusOK, resp)
}

// ExportFinancials handles POST /export-financials
func (h *Handler) ExportFinancials(c *gin.Context) {
	var req FetchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	ticker := ingest.NormalizeTicker(req.Ticker)

	res, err := h.Collect(c.Request.Context(), ticker, req.YearsBack)
	if errors.Is(err, ErrNoData) {
		RespondError(c, http.StatusNotFound, "no_data", err)
		return
	}
	if err != nil {
		status, code := StatusFor(err)
		h.log.Error("export failed", "ticker", ticker, "error", err)
		RespondError(c, status, code, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteWorkbook(&buf, ticker, res.Catalogs); err != nil {
		h.log.Error("workbook write failed", "ticker", ticker, "error", err)
		RespondError(c, http.StatusInternalServerError, "export_failed", err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s_financials.xlsx"`, strings.ToLower(ticker)))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// Collect fetches a ticker's filings and merges every statement type.
func (h *Handler) Collect(ctx context.Context, ticker string, yearsBack int) (*Result, error) {
	fetched, err := h.source.Fetch(ctx, ticker, yearsBack)
	if err != nil {
		return nil, err
	}
	if fetched == nil || fetched.Set == nil || fetched.Summary.Fetched == 0 {
		return nil, ErrNoData
	}
	catalogs, err := h.merger.BuildAll(fetched.Set)
	if err != nil {
		return nil, err
	}
	return &Result{Ticker: ticker, Summary: fetched.Summary, Catalogs: catalogs}, nil
}
