package handlers

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"tradedash/internal/errors"
	"tradedash/internal/models"
	"tradedash/internal/observability"
	"tradedash/internal/services"
)

const cacheMaxAge = "public, max-age=300"

// DashboardService is the part of services.Dashboard the handlers use.
type DashboardService interface {
	Compute(ctx context.Context, sel models.Selections) (*models.DashboardResult, error)
	Stats() map[string]any
}

type APIHandlers struct {
	dashboard DashboardService
	logger    *slog.Logger
	version   string
}

func NewAPIHandlers(dashboard DashboardService, logger *slog.Logger, version string) *APIHandlers {
	return &APIHandlers{
		dashboard: dashboard,
		logger:    logger,
		version:   version,
	}
}

// parseSelections reads direction, top_n and variable from the query
// string. Missing parameters keep their defaults; range checks are left to
// the service.
func parseSelections(r *http.Request) (models.Selections, error) {
	sel := models.DefaultSelections()
	q := r.URL.Query()

	if v := q.Get("direction"); v != "" {
		sel.Direction = models.Direction(v)
	}
	if v := q.Get("top_n"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return sel, errors.BadRequest("top_n must be an integer").WithDetails(v)
		}
		sel.TopN = n
	}
	if v := q.Get("variable"); v != "" {
		sel.Variable = v
	}
	return sel, nil
}

// computeError maps a Compute failure onto the API error envelope.
func computeError(err error) *errors.AppError {
	switch {
	case stderrors.Is(err, services.ErrInvalidSelections):
		return errors.ValidationWrap(err, "Invalid dashboard selections")
	case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
		return errors.FromContext(err, "Dashboard computation interrupted")
	default:
		return errors.InternalWrap(err, "Failed to compute dashboard")
	}
}

func (h *APIHandlers) compute(w http.ResponseWriter, r *http.Request) (*models.DashboardResult, bool) {
	requestID := observability.GetRequestID(r.Context())

	sel, err := parseSelections(r)
	if err != nil {
		errors.WriteError(w, h.logger, err, requestID)
		return nil, false
	}

	result, err := h.dashboard.Compute(r.Context(), sel)
	if err != nil {
		errors.WriteError(w, h.logger, computeError(err), requestID)
		return nil, false
	}
	return result, true
}

// panelHandler serves one projection of the dashboard result.
func (h *APIHandlers) panelHandler(project func(*models.DashboardResult) any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, ok := h.compute(w, r)
		if !ok {
			return
		}

		headers := map[string]string{
			"Cache-Control": cacheMaxAge,
		}

		errors.WriteSuccessWithHeaders(w, project(result), headers)
	}
}

func (h *APIHandlers) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	h.panelHandler(func(res *models.DashboardResult) any { return res })(w, r)
}

func (h *APIHandlers) HandleTopCountries(w http.ResponseWriter, r *http.Request) {
	h.panelHandler(func(res *models.DashboardResult) any { return res.TopCountries })(w, r)
}

func (h *APIHandlers) HandleDistribution(w http.ResponseWriter, r *http.Request) {
	h.panelHandler(func(res *models.DashboardResult) any { return res.Distribution })(w, r)
}

func (h *APIHandlers) HandleCorrelation(w http.ResponseWriter, r *http.Request) {
	h.panelHandler(func(res *models.DashboardResult) any { return res.Correlation })(w, r)
}

func (h *APIHandlers) HandleTimeTrend(w http.ResponseWriter, r *http.Request) {
	h.panelHandler(func(res *models.DashboardResult) any { return res.TimeTrend })(w, r)
}

func (h *APIHandlers) HandleCountryShare(w http.ResponseWriter, r *http.Request) {
	h.panelHandler(func(res *models.DashboardResult) any { return res.CountryShare })(w, r)
}

func (h *APIHandlers) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	h.panelHandler(func(res *models.DashboardResult) any {
		return map[string]any{
			"metrics": res.Metrics,
			"labels":  res.MetricLabels,
		}
	})(w, r)
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	healthData := map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   h.version,
	}

	errors.WriteSuccess(w, healthData)
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccess(w, h.dashboard.Stats())
}
