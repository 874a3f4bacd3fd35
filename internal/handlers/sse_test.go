package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"retail-insights/internal/models"
)

func sseRequest(signals string) *http.Request {
	return httptest.NewRequest(http.MethodGet, "/sse/insights?datastar="+url.QueryEscape(signals), nil)
}

func TestNewSSEHandlers(t *testing.T) {
	analytics := createTestAnalytics()
	handlers := NewSSEHandlers(analytics, testLogger)

	if handlers.analytics != analytics {
		t.Error("NewSSEHandlers() should set analytics field")
	}
	if handlers.logger != testLogger {
		t.Error("NewSSEHandlers() should set logger field")
	}
}

func TestSSEHandlers_HandleInsights(t *testing.T) {
	handlers := NewSSEHandlers(createTestAnalytics(), testLogger)

	tests := []struct {
		name        string
		signals     string
		contains    []string
		notContains []string
	}{
		{
			name:    "all",
			signals: `{"region":"All","year":"All"}`,
			contains: []string{
				"datastar-patch-elements",
				"datastar-patch-signals",
				`id="insight-cards"`,
				`id="preview-table"`,
				`id="filter-status"`,
				"Top-Selling Product",
				"Laptop",
				"regionChart",
				"monthlyChart",
				"January 2023",
			},
		},
		{
			name:        "filtered",
			signals:     `{"region":"East","year":"2023"}`,
			contains:    []string{"Region: East | Year: 2023", "Mouse", "New York"},
			notContains: []string{"Laptop"},
		},
		{
			name:        "no data",
			signals:     `{"region":"West","year":"2019"}`,
			contains:    []string{"No data matches your filter selection", `id="insight-cards"`, "No rows to preview.", `"labels":[]`},
			notContains: []string{"Top-Selling Product"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			handlers.HandleInsights(w, sseRequest(tt.signals))

			if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "text/event-stream") {
				t.Errorf("Content-Type = %q, want text/event-stream", ct)
			}

			body := w.Body.String()
			for _, s := range tt.contains {
				if !strings.Contains(body, s) {
					t.Errorf("stream missing %q", s)
				}
			}
			for _, s := range tt.notContains {
				if strings.Contains(body, s) {
					t.Errorf("stream should not contain %q", s)
				}
			}
		})
	}
}

func TestSSEHandlers_HandleInsights_BadInput(t *testing.T) {
	handlers := NewSSEHandlers(createTestAnalytics(), testLogger)

	tests := []struct {
		name    string
		signals string
	}{
		{"malformed json", `{"region":`},
		{"bad year", `{"region":"West","year":"soon"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			handlers.HandleInsights(w, sseRequest(tt.signals))

			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
			if !strings.Contains(w.Body.String(), "BAD_REQUEST") {
				t.Errorf("unexpected body: %s", w.Body.String())
			}
		})
	}
}

func TestChartSeries(t *testing.T) {
	empty := regionSeries(nil)
	if empty.Labels == nil || empty.Values == nil {
		t.Error("empty series must encode as arrays, not null")
	}

	months := monthlySeries([]models.MonthTotal{{Key: "2024-01", Label: "January 2024"}})
	if len(months.Labels) != 1 || months.Labels[0] != "January 2024" || months.Values[0] != 0 {
		t.Errorf("unexpected monthly series: %+v", months)
	}
}

func BenchmarkSSEHandlers_HandleInsights(b *testing.B) {
	handlers := NewSSEHandlers(createTestAnalytics(), testLogger)

	for b.Loop() {
		handlers.HandleInsights(httptest.NewRecorder(), sseRequest(`{"region":"All","year":"All"}`))
	}
}
