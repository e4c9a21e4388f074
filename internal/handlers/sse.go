package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"github.com/starfederation/datastar-go/datastar"

	"tradedash/internal/models"
	"tradedash/internal/services"
	"tradedash/internal/ui/templates"
)

// dashboardSignals are the selector signals bound on the page.
type dashboardSignals struct {
	Direction string `json:"direction"`
	TopN      int    `json:"topN"`
	Variable  string `json:"variable"`
}

type SSEHandlers struct {
	dashboard DashboardService
	logger    *slog.Logger
}

func NewSSEHandlers(dashboard DashboardService, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		dashboard: dashboard,
		logger:    logger,
	}
}

func renderFragment(ctx context.Context, c templ.Component) (string, error) {
	var buf strings.Builder
	err := c.Render(ctx, &buf)
	return buf.String(), err
}

// readSelections decodes the selector signals over the defaults, so a
// request without signals computes the default dashboard.
func readSelections(r *http.Request) (models.Selections, error) {
	def := models.DefaultSelections()
	signals := dashboardSignals{
		Direction: string(def.Direction),
		TopN:      def.TopN,
		Variable:  def.Variable,
	}
	if err := datastar.ReadSignals(r, &signals); err != nil {
		return def, err
	}
	return models.Selections{
		Direction: models.Direction(signals.Direction),
		TopN:      signals.TopN,
		Variable:  signals.Variable,
	}, nil
}

func panelSignals(result *models.DashboardResult) map[string]any {
	titles := services.TitlesFor(result.Selections)
	return map[string]any{
		"titles": map[string]string{
			"topCountries": titles.TopCountries,
			"distribution": titles.Distribution,
			"correlation":  titles.Correlation,
			"timeTrend":    titles.TimeTrend,
			"countryShare": titles.CountryShare,
		},
		"topCountries": result.TopCountries.Data,
		"distribution": result.Distribution.Data,
		"correlation":  result.Correlation.Data,
		"timeTrend":    result.TimeTrend.Data,
		"countryShare": result.CountryShare.Data,
		"rows":         result.Rows,
	}
}

func (h *SSEHandlers) patchError(ctx context.Context, sse *datastar.ServerSentEventGenerator, message string) {
	html, err := renderFragment(ctx, templates.Error(message))
	if err != nil {
		h.logger.Error("render error fragment", "error", err)
		return
	}
	if err := sse.PatchElements(html); err != nil {
		h.logger.Warn("patch error fragment", "error", err)
	}
}

// HandleDashboard recomputes every panel for the current selector signals.
// Invalid selections leave the panels untouched and show the error instead.
func (h *SSEHandlers) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sel, readErr := readSelections(r)
	sse := datastar.NewSSE(w, r)

	if readErr != nil {
		h.logger.Warn("read dashboard signals", "error", readErr)
		h.patchError(ctx, sse, "Could not read the dashboard selections.")
		return
	}

	result, err := h.dashboard.Compute(ctx, sel)
	if err != nil {
		appErr := computeError(err)
		h.logger.Warn("compute dashboard", "error", err, "code", appErr.Code)
		message := appErr.Message
		if appErr.Details != "" {
			message = appErr.Details
		}
		h.patchError(ctx, sse, message)
		return
	}

	jsonData, err := json.Marshal(panelSignals(result))
	if err != nil {
		h.logger.Error("marshal dashboard signals", "error", err)
		return
	}
	if err := sse.PatchSignals(jsonData); err != nil {
		h.logger.Warn("patch dashboard signals", "error", err)
		return
	}

	html, err := renderFragment(ctx, templates.Metrics(result.MetricLabels))
	if err != nil {
		h.logger.Error("render metrics fragment", "error", err)
		return
	}
	if err := sse.PatchElements(html); err != nil {
		h.logger.Warn("patch metrics fragment", "error", err)
		return
	}

	h.patchError(ctx, sse, "")

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}
