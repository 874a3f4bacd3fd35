package handlers

import (
	"encoding/csv"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"retail-insights/internal/report"
	"retail-insights/internal/services"
)

func TestDownloadHandlers_HandleRecordsCSV(t *testing.T) {
	handlers := NewDownloadHandlers(createTestAnalytics(), testLogger)

	tests := []struct {
		name     string
		query    string
		wantRows int
	}{
		{"all", "", 3},
		{"west", "?region=West", 2},
		{"west 2024", "?region=West&year=2024", 1},
		{"no match", "?region=South", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			handlers.HandleRecordsCSV(w, httptest.NewRequest(http.MethodGet, "/download/records.csv"+tt.query, nil))

			if w.Code != http.StatusOK {
				t.Fatalf("status = %d", w.Code)
			}
			if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, RecordsFilename) {
				t.Errorf("Content-Disposition = %q", cd)
			}

			rows, err := csv.NewReader(w.Body).ReadAll()
			if err != nil {
				t.Fatalf("invalid csv: %v", err)
			}
			if len(rows) != tt.wantRows+1 {
				t.Errorf("expected header plus %d rows, got %d", tt.wantRows, len(rows))
			}
			if strings.Join(rows[0], ",") != strings.Join(services.RequiredColumns, ",") {
				t.Errorf("header = %v", rows[0])
			}
		})
	}
}

func TestDownloadHandlers_BadFilter(t *testing.T) {
	handlers := NewDownloadHandlers(createTestAnalytics(), testLogger)

	for _, h := range []http.HandlerFunc{handlers.HandleRecordsCSV, handlers.HandleInsightsText, handlers.HandleInsightsXLSX} {
		w := httptest.NewRecorder()
		h(w, httptest.NewRequest(http.MethodGet, "/download/x?year=tomorrow", nil))

		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
		if w.Header().Get("Content-Disposition") != "" {
			t.Error("errors must not be served as attachments")
		}
	}
}

func TestDownloadHandlers_HandleInsightsText(t *testing.T) {
	handlers := NewDownloadHandlers(createTestAnalytics(), testLogger)

	t.Run("insights", func(t *testing.T) {
		w := httptest.NewRecorder()
		handlers.HandleInsightsText(w, httptest.NewRequest(http.MethodGet, "/download/insights.txt?region=West", nil))

		if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, SummaryFilename) {
			t.Errorf("Content-Disposition = %q", cd)
		}

		body := w.Body.String()
		for _, s := range []string{"Filters: Region=West, Year=All", "Top-Selling Product: 'Laptop' - $999.99", "Best Region: West - $1,079.98"} {
			if !strings.Contains(body, s) {
				t.Errorf("summary missing %q:\n%s", s, body)
			}
		}
	})

	t.Run("no data", func(t *testing.T) {
		w := httptest.NewRecorder()
		handlers.HandleInsightsText(w, httptest.NewRequest(http.MethodGet, "/download/insights.txt?region=South", nil))

		if w.Code != http.StatusOK {
			t.Errorf("status = %d", w.Code)
		}
		if !strings.Contains(w.Body.String(), report.NoDataMessage) {
			t.Errorf("expected no-data notice, got %q", w.Body.String())
		}
	})
}

func TestDownloadHandlers_HandleInsightsXLSX(t *testing.T) {
	handlers := NewDownloadHandlers(createTestAnalytics(), testLogger)

	t.Run("workbook", func(t *testing.T) {
		w := httptest.NewRecorder()
		handlers.HandleInsightsXLSX(w, httptest.NewRequest(http.MethodGet, "/download/insights.xlsx", nil))

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", w.Code, w.Body.String())
		}
		if ct := w.Header().Get("Content-Type"); ct != xlsxContentType {
			t.Errorf("Content-Type = %q", ct)
		}

		f, err := excelize.OpenReader(w.Body)
		if err != nil {
			t.Fatalf("invalid workbook: %v", err)
		}
		defer f.Close()

		name, err := f.GetCellValue(report.SheetProducts, "A2")
		if err != nil || name != "Laptop" {
			t.Errorf("top product = %q (%v)", name, err)
		}
	})

	t.Run("no data", func(t *testing.T) {
		w := httptest.NewRecorder()
		handlers.HandleInsightsXLSX(w, httptest.NewRequest(http.MethodGet, "/download/insights.xlsx?region=South", nil))

		if w.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", w.Code)
		}
		if !strings.Contains(w.Body.String(), "NO_DATA") {
			t.Errorf("unexpected body: %s", w.Body.String())
		}
	})
}
