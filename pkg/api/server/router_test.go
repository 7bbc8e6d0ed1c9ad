package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"financial_catalog/pkg/api/financials"
	"financial_catalog/pkg/api/viewer"
	"financial_catalog/pkg/core/ingest"
)

type emptySource struct{}

func (emptySource) Fetch(_ context.Context, _ string, years int) (*ingest.FetchResult, error) {
	return &ingest.FetchResult{Summary: ingest.Summary{Requested: years}}, nil
}

func (emptySource) AvailableYears(context.Context, string) (int, error) { return 3, nil }

func TestRouterRoutesAndCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	fh := financials.NewHandler(emptySource{}, nil, nil)
	r := NewRouter(RouterConfig{
		AllowOrigins:      []string{"http://localhost:3000"},
		FinancialsHandler: fh,
		ViewerHandler:     viewer.NewHandler(fh, nil),
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/viewer", nil))
	if w.Code != http.StatusOK {
		t.Errorf("viewer status = %d", w.Code)
	}
}
