package api

import (
	"context"
	"strings"
	"time"

	"IndexImpact/internal/domain/models"
	"IndexImpact/internal/impact"
	xhttp "IndexImpact/pkg/http"
	xlogger "IndexImpact/pkg/logger"

	"github.com/labstack/echo/v4"
)

// Reports is what the handler needs from the report use case.
type Reports interface {
	Latest() (*models.Report, bool)
	Refresh(ctx context.Context) *models.Report
	Indices() []models.IndexDefinition
}

// ReportsHandler serves the latest impact report over HTTP.
type ReportsHandler struct {
	logger  *xlogger.Logger
	reports Reports
}

func NewReportsHandler(logger *xlogger.Logger, reports Reports) *ReportsHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &ReportsHandler{logger: logger, reports: reports}
}

func (h *ReportsHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)

	g := e.Group("/api")
	g.GET("/indices", h.List)
	g.GET("/indices/:name", h.Get)
	g.POST("/refresh", h.Refresh)
}

type healthResponse struct {
	Status     string     `json:"status"`
	LastReport *time.Time `json:"last_report"`
	Indices    int        `json:"indices"`
}

// Health reports liveness and the age of the cached report.
func (h *ReportsHandler) Health(c echo.Context) error {
	res := healthResponse{Status: "ok", Indices: len(h.reports.Indices())}
	if r, ok := h.reports.Latest(); ok {
		t := r.GeneratedAt
		res.LastReport = &t
	}
	return xhttp.SuccessResponse(c, res)
}

// List returns every index of the latest report, rows optionally cut to top.
func (h *ReportsHandler) List(c echo.Context) error {
	req := &models.IndicesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	r, ok := h.reports.Latest()
	if !ok {
		return xhttp.AppErrorResponse(c, xhttp.UnavailableError("no report computed yet"))
	}

	out := *r
	out.Indices = make([]models.IndexReport, len(r.Indices))
	for i, ir := range r.Indices {
		ir.Rows = nonNil(impact.Top(ir.Rows, req.Top))
		out.Indices[i] = ir
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "no-cache")
	return xhttp.SuccessResponse(c, out)
}

// Get returns a single index. side selects all rows, leaders or laggards.
func (h *ReportsHandler) Get(c echo.Context) error {
	req := &models.IndexRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	if !h.configured(req.Name) {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("index '%s' not found", req.Name).WithParam("name", req.Name))
	}

	r, ok := h.reports.Latest()
	if !ok {
		return xhttp.AppErrorResponse(c, xhttp.UnavailableError("no report computed yet"))
	}

	for _, ir := range r.Indices {
		if !strings.EqualFold(ir.Name, req.Name) {
			continue
		}
		switch req.Side {
		case "leaders":
			ir.Rows = impact.Leaders(ir.Rows, req.Top)
		case "laggards":
			ir.Rows = impact.Laggards(ir.Rows, req.Top)
		default:
			ir.Rows = impact.Top(ir.Rows, req.Top)
		}
		ir.Rows = nonNil(ir.Rows)
		return xhttp.SuccessResponse(c, ir)
	}

	// Configured but absent from the report: the cycle that produced it
	// predates a reload or the index failed outright.
	return xhttp.AppErrorResponse(c, xhttp.UnavailableError("index not in latest report").WithParam("name", req.Name))
}

// Refresh recomputes the report synchronously and returns it. The cycle
// outlives the request so a disconnecting client cannot cut it short.
func (h *ReportsHandler) Refresh(c echo.Context) error {
	start := time.Now()
	r := h.reports.Refresh(context.WithoutCancel(c.Request().Context()))
	h.logger.Info("manual refresh",
		xlogger.Int("indices", len(r.Indices)),
		xlogger.Duration("took", time.Since(start)),
	)
	return xhttp.SuccessResponse(c, r)
}

func (h *ReportsHandler) configured(name string) bool {
	for _, d := range h.reports.Indices() {
		if strings.EqualFold(d.Name(), name) {
			return true
		}
	}
	return false
}

func nonNil(rows []models.WeightedRow) []models.WeightedRow {
	if rows == nil {
		return []models.WeightedRow{}
	}
	return rows
}
