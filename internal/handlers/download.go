package handlers

import (
	"bytes"
	"log/slog"
	"net/http"
	"strconv"

	"retail-insights/internal/errors"
	"retail-insights/internal/insights"
	"retail-insights/internal/observability"
	"retail-insights/internal/report"
	"retail-insights/internal/services"
)

const (
	RecordsFilename  = "filtered_sales_data.csv"
	SummaryFilename  = "insight_cards.txt"
	WorkbookFilename = "insight_report.xlsx"

	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type DownloadHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewDownloadHandlers(analytics *services.Analytics, logger *slog.Logger) *DownloadHandlers {
	return &DownloadHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

func attachment(w http.ResponseWriter, contentType, filename string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Cache-Control", "no-store")
}

// HandleRecordsCSV streams every row matching the filter with all source
// columns. An empty match still yields the header row.
func (h *DownloadHandlers) HandleRecordsCSV(w http.ResponseWriter, r *http.Request) {
	f, err := filterFromQuery(r)
	if err != nil {
		errors.WriteErrorContext(r.Context(), w, h.logger, err, observability.GetRequestID(r.Context()))
		return
	}

	attachment(w, "text/csv; charset=utf-8", RecordsFilename)

	n, err := h.analytics.WriteFilteredCSV(w, f)
	if err != nil {
		// Headers are already sent.
		h.logger.Error("write filtered csv", "error", err, "rows", n)
		return
	}
	h.logger.Debug("records download", "filter", f.String(), "rows", n)
}

func (h *DownloadHandlers) HandleInsightsText(w http.ResponseWriter, r *http.Request) {
	f, err := filterFromQuery(r)
	if err != nil {
		errors.WriteErrorContext(r.Context(), w, h.logger, err, observability.GetRequestID(r.Context()))
		return
	}

	body := report.Summary(h.analytics.Insights(f))

	attachment(w, "text/plain; charset=utf-8", SummaryFilename)
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	if _, err := w.Write([]byte(body)); err != nil {
		h.logger.Debug("write summary", "error", err)
	}
}

func (h *DownloadHandlers) HandleInsightsXLSX(w http.ResponseWriter, r *http.Request) {
	requestID := observability.GetRequestID(r.Context())

	f, err := filterFromQuery(r)
	if err != nil {
		errors.WriteErrorContext(r.Context(), w, h.logger, err, requestID)
		return
	}

	in, ok := h.analytics.Insights(f).(*insights.Insights)
	if !ok {
		errors.WriteErrorContext(r.Context(), w, h.logger,
			errors.NoData(report.NoDataMessage, f.String()), requestID)
		return
	}

	var buf bytes.Buffer
	if err := report.WriteWorkbook(&buf, in); err != nil {
		errors.WriteErrorContext(r.Context(), w, h.logger, errors.InternalWrap(err, "failed to build workbook"), requestID)
		return
	}

	attachment(w, xlsxContentType, WorkbookFilename)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Debug("write workbook", "error", err)
	}
}
