package viewer

import (
	"bytes"
	"context"
	"errors"
	"html/template"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"financial_catalog/pkg/api/financials"
	"financial_catalog/pkg/core/ingest"
	"financial_catalog/pkg/core/logger"
)

const defaultYears = 5

// Collector fetches and merges a ticker. *financials.Handler satisfies it.
type Collector interface {
	Collect(ctx context.Context, ticker string, yearsBack int) (*financials.Result, error)
}

var page = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{if .Ticker}}{{.Ticker}} - {{end}}Multi-Year Financial Statements</title>
<style>
body { font-family: sans-serif; margin: 2em; }
table { border-collapse: collapse; margin-bottom: 1em; }
th, td { border: 1px solid #ddd; padding: 4px 8px; }
td strong { display: block; background: #D9E1F2; }
.error { color: #b00020; }
</style>
</head>
<body>
<form method="get" action="/viewer">
<input name="ticker" placeholder="AAPL" value="{{.Ticker}}">
<input name="years_back" type="number" min="1" max="15" value="{{.Years}}">
<button type="submit">Fetch</button>
</form>
{{if .Error}}<p class="error">{{.Error}}</p>{{end}}
{{.Body}}
</body>
</html>
`))

type pageData struct {
	Ticker string
	Years  int
	Error  string
	Body   template.HTML
}

type Handler struct {
	collector Collector
	log       *logger.Logger
}

func NewHandler(collector Collector, log *logger.Logger) *Handler {
	return &Handler{collector: collector, log: logger.OrNop(log)}
}

// Register mounts GET /viewer.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/viewer", h.View)
}

// View handles GET /viewer?ticker=&years_back=
func (h *Handler) View(c *gin.Context) {
	data := pageData{Ticker: ingest.NormalizeTicker(c.Query("ticker")), Years: defaultYears}
	if v := c.Query("years_back"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 15 {
			h.render(c, http.StatusBadRequest, data, "years_back must be between 1 and 15")
			return
		}
		data.Years = n
	}
	if data.Ticker == "" {
		h.render(c, http.StatusOK, data, "")
		return
	}

	res, err := h.collector.Collect(c.Request.Context(), data.Ticker, data.Years)
	if err != nil {
		status := http.StatusNotFound
		if !errors.Is(err, financials.ErrNoData) {
			status, _ = financials.StatusFor(err)
		}
		h.log.Warn("viewer fetch failed", "ticker", data.Ticker, "error", err)
		h.render(c, status, data, err.Error())
		return
	}

	body, err := HTML(data.Ticker, res.Catalogs)
	if err != nil {
		h.render(c, http.StatusInternalServerError, data, err.Error())
		return
	}
	// goldmark drops raw HTML unless WithUnsafe is set
	data.Body = template.HTML(body)
	h.render(c, http.StatusOK, data, "")
}

func (h *Handler) render(c *gin.Context, status int, data pageData, msg string) {
	data.Error = msg
	var buf bytes.Buffer
	if err := page.Execute(&buf, data); err != nil {
		h.log.Error("viewer template failed", "error", err)
		c.String(http.StatusInternalServerError, "render failed")
		return
	}
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}
