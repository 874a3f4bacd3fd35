package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"retail-insights/internal/errors"
	"retail-insights/internal/insights"
	"retail-insights/internal/observability"
	"retail-insights/internal/report"
	"retail-insights/internal/services"
)

// Version is reported by the health endpoint and the CLI.
const Version = "1.0.0"

const cacheMaxAge = "public, max-age=300"

type APIHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewAPIHandlers(analytics *services.Analytics, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

// filterFromQuery reads region and year from the query string. Region is
// free text; year must be "all" or a four digit year.
func filterFromQuery(r *http.Request) (insights.Filter, error) {
	q := r.URL.Query()
	return validFilter(q.Get("region"), q.Get("year"))
}

func validFilter(region, year string) (insights.Filter, error) {
	f := insights.ParseFilter(region, year)
	if f.Year != insights.All {
		if y, err := strconv.Atoi(f.Year); err != nil || y < 1000 || y > 9999 {
			return f, errors.InvalidFilter("year", year, "must be a four digit year or 'All'")
		}
	}
	return f, nil
}

type insightsResponse struct {
	Insights *insights.Insights `json:"insights"`
	Cards    []report.Card      `json:"cards"`
}

func (h *APIHandlers) HandleInsights(w http.ResponseWriter, r *http.Request) {
	requestID := observability.GetRequestID(r.Context())

	f, err := filterFromQuery(r)
	if err != nil {
		errors.WriteErrorContext(r.Context(), w, h.logger, err, requestID)
		return
	}

	switch result := h.analytics.Insights(f).(type) {
	case *insights.Insights:
		errors.WriteSuccessWithHeaders(w, insightsResponse{
			Insights: result,
			Cards:    report.Cards(result),
		}, map[string]string{"Cache-Control": cacheMaxAge})
	case insights.NoData:
		errors.WriteErrorContext(r.Context(), w, h.logger,
			errors.NoData(report.NoDataMessage, result.Filter.String()), requestID)
	}
}

func (h *APIHandlers) HandleRecords(w http.ResponseWriter, r *http.Request) {
	requestID := observability.GetRequestID(r.Context())

	f, err := filterFromQuery(r)
	if err != nil {
		errors.WriteErrorContext(r.Context(), w, h.logger, err, requestID)
		return
	}

	limit := services.MaxPreviewRows
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			errors.WriteErrorContext(r.Context(), w, h.logger,
				errors.BadRequest("limit must be a positive integer"), requestID)
			return
		}
		limit = n
	}

	errors.WriteSuccess(w, h.analytics.Preview(f, limit))
}

func (h *APIHandlers) HandleOptions(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccessWithHeaders(w, h.analytics.Options(), map[string]string{
		"Cache-Control": cacheMaxAge,
	})
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	records := h.analytics.RecordCount()
	if records == 0 {
		errors.WriteErrorContext(r.Context(), w, h.logger,
			errors.NotLoaded("no sales records loaded"), observability.GetRequestID(r.Context()))
		return
	}

	errors.WriteSuccess(w, map[string]any{
		"status":    "healthy",
		"records":   records,
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   Version,
	})
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccess(w, h.analytics.Stats())
}
