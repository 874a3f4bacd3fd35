package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/a-h/templ"
	"github.com/starfederation/datastar-go/datastar"

	"retail-insights/internal/errors"
	"retail-insights/internal/insights"
	"retail-insights/internal/models"
	"retail-insights/internal/observability"
	"retail-insights/internal/report"
	"retail-insights/internal/services"
	"retail-insights/internal/ui/templates"
)

type SSEHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewSSEHandlers(analytics *services.Analytics, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

// filterSignals mirrors the signals declared on the dashboard body.
type filterSignals struct {
	Region string `json:"region"`
	Year   string `json:"year"`
}

type chartSeries struct {
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

type chartSignals struct {
	RegionChart  chartSeries `json:"regionChart"`
	MonthlyChart chartSeries `json:"monthlyChart"`
}

func regionSeries(list []models.NamedTotal) chartSeries {
	s := chartSeries{Labels: make([]string, 0, len(list)), Values: make([]float64, 0, len(list))}
	for _, n := range list {
		s.Labels = append(s.Labels, n.Name)
		s.Values = append(s.Values, n.Total.InexactFloat64())
	}
	return s
}

func monthlySeries(list []models.MonthTotal) chartSeries {
	s := chartSeries{Labels: make([]string, 0, len(list)), Values: make([]float64, 0, len(list))}
	for _, m := range list {
		s.Labels = append(s.Labels, m.Label)
		s.Values = append(s.Values, m.Total.InexactFloat64())
	}
	return s
}

func renderHTML(ctx context.Context, c templ.Component) (string, error) {
	var b strings.Builder
	if err := c.Render(ctx, &b); err != nil {
		return "", err
	}
	return b.String(), nil
}

// HandleInsights recomputes everything for the filter held in the client's
// signals and patches the status line, cards, preview table and chart data.
func (h *SSEHandlers) HandleInsights(w http.ResponseWriter, r *http.Request) {
	ctx, span := observability.StartSpan(r.Context(), "sse.insights")
	defer span.Finish()

	var signals filterSignals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		span.SetError(err)
		errors.WriteErrorContext(ctx, w, h.logger,
			errors.BadRequestWrap(err, "invalid datastar signals"), observability.GetRequestID(ctx))
		return
	}

	f, err := validFilter(signals.Region, signals.Year)
	if err != nil {
		span.SetError(err)
		errors.WriteErrorContext(ctx, w, h.logger, err, observability.GetRequestID(ctx))
		return
	}
	span.SetTag("region", f.Region)
	span.SetTag("year", f.Year)

	result := h.analytics.Insights(f)

	var (
		cards  templ.Component
		charts chartSignals
	)
	switch res := result.(type) {
	case *insights.Insights:
		cards = templates.Cards(report.Cards(res))
		charts = chartSignals{RegionChart: regionSeries(res.RegionSales), MonthlyChart: monthlySeries(res.MonthlySales)}
		span.SetTag("records", strconv.Itoa(res.RecordCount))
	case insights.NoData:
		cards = templates.NoData(res.Filter)
		charts = chartSignals{RegionChart: regionSeries(nil), MonthlyChart: monthlySeries(nil)}
		span.SetTag("outcome", "no_data")
	}

	fragments := []templ.Component{
		templates.Status(f, result),
		cards,
		templates.Preview(h.analytics.Preview(f, services.MaxPreviewRows)),
	}

	sse := datastar.NewSSE(w, r)

	for _, c := range fragments {
		html, err := renderHTML(ctx, c)
		if err != nil {
			span.SetError(err)
			h.logger.Error("render fragment", "error", err)
			return
		}
		if err := sse.PatchElements(html); err != nil {
			h.logger.Debug("patch elements", "error", err)
			return
		}
	}

	payload, err := json.Marshal(charts)
	if err != nil {
		h.logger.Error("marshal chart signals", "error", err)
		return
	}
	if err := sse.PatchSignals(payload); err != nil {
		h.logger.Debug("patch signals", "error", err)
		return
	}

	if fl, ok := w.(http.Flusher); ok {
		fl.Flush()
	}
}
