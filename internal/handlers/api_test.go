package handlers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"retail-insights/internal/models"
	"retail-insights/internal/services"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func createTestAnalytics() *services.Analytics {
	a := services.NewAnalytics()
	mk := func(date time.Time, product, sales, profit, discount, region, state string) models.Transaction {
		return models.Transaction{
			OrderDate:   date,
			ProductName: product,
			Sales:       decimal.RequireFromString(sales),
			Profit:      decimal.RequireFromString(profit),
			Discount:    decimal.RequireFromString(discount),
			Region:      region,
			State:       state,
		}
	}
	a.SetData(nil, []models.Transaction{
		mk(time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC), "Laptop", "999.99", "200", "0.1", "West", "California"),
		mk(time.Date(2023, 2, 10, 0, 0, 0, 0, time.UTC), "Mouse", "59.98", "-5", "0.2", "East", "New York"),
		mk(time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), "Keyboard", "79.99", "15", "0", "West", "Washington"),
	})
	return a
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details string `json:"details"`
	} `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.NewDecoder(w.Body).Decode(&env); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	return env
}

func TestNewAPIHandlers(t *testing.T) {
	analytics := createTestAnalytics()
	handlers := NewAPIHandlers(analytics, testLogger)

	if handlers.analytics != analytics {
		t.Error("NewAPIHandlers() should set analytics field")
	}
	if handlers.logger != testLogger {
		t.Error("NewAPIHandlers() should set logger field")
	}
}

func TestAPIHandlers_HandleInsights(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), testLogger)

	tests := []struct {
		name        string
		query       string
		wantStatus  int
		wantRecords int
		wantCode    string
	}{
		{"unfiltered", "", http.StatusOK, 3, ""},
		{"explicit all", "?region=All&year=All", http.StatusOK, 3, ""},
		{"region", "?region=West", http.StatusOK, 2, ""},
		{"region and year", "?region=West&year=2024", http.StatusOK, 1, ""},
		{"no match", "?region=South", http.StatusNotFound, 0, "NO_DATA"},
		{"no match year", "?region=East&year=2024", http.StatusNotFound, 0, "NO_DATA"},
		{"bad year", "?year=last", http.StatusBadRequest, 0, "BAD_REQUEST"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			handlers.HandleInsights(w, httptest.NewRequest(http.MethodGet, "/api/insights"+tt.query, nil))

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}

			env := decode(t, w)
			if tt.wantCode != "" {
				if env.Success || env.Error == nil || env.Error.Code != tt.wantCode {
					t.Errorf("expected error %s, got %+v", tt.wantCode, env.Error)
				}
				return
			}

			var data struct {
				Insights struct {
					RecordCount int `json:"record_count"`
				} `json:"insights"`
				Cards []struct {
					Title string `json:"title"`
				} `json:"cards"`
			}
			if err := json.Unmarshal(env.Data, &data); err != nil {
				t.Fatalf("invalid data: %v", err)
			}
			if data.Insights.RecordCount != tt.wantRecords {
				t.Errorf("record_count = %d, want %d", data.Insights.RecordCount, tt.wantRecords)
			}
			if len(data.Cards) != 7 {
				t.Errorf("expected 7 cards, got %d", len(data.Cards))
			}
		})
	}
}

func TestAPIHandlers_NoDataMessage(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), testLogger)

	w := httptest.NewRecorder()
	handlers.HandleInsights(w, httptest.NewRequest(http.MethodGet, "/api/insights?region=South&year=2023", nil))

	env := decode(t, w)
	if env.Error == nil {
		t.Fatal("expected error body")
	}
	if env.Error.Message != "No data matches your filter selection. Please adjust filters." {
		t.Errorf("message = %q", env.Error.Message)
	}
	if env.Error.Details != "region=South year=2023" {
		t.Errorf("details = %q", env.Error.Details)
	}
}

func TestAPIHandlers_HandleRecords(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), testLogger)

	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantRows   int
		wantTotal  int
	}{
		{"default", "", http.StatusOK, 3, 3},
		{"limit", "?limit=1", http.StatusOK, 1, 3},
		{"limit above cap", "?limit=500", http.StatusOK, 3, 3},
		{"filtered", "?region=East", http.StatusOK, 1, 1},
		{"empty", "?region=South", http.StatusOK, 0, 0},
		{"zero limit", "?limit=0", http.StatusBadRequest, 0, 0},
		{"bad limit", "?limit=ten", http.StatusBadRequest, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			handlers.HandleRecords(w, httptest.NewRequest(http.MethodGet, "/api/records"+tt.query, nil))

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}

			var preview models.Preview
			if err := json.Unmarshal(decode(t, w).Data, &preview); err != nil {
				t.Fatalf("invalid data: %v", err)
			}
			if len(preview.Rows) != tt.wantRows || preview.Total != tt.wantTotal {
				t.Errorf("rows=%d total=%d, want rows=%d total=%d", len(preview.Rows), preview.Total, tt.wantRows, tt.wantTotal)
			}
			if len(preview.Header) != len(services.RequiredColumns) {
				t.Errorf("header = %v", preview.Header)
			}
		})
	}
}

func TestAPIHandlers_HandleOptions(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), testLogger)

	w := httptest.NewRecorder()
	handlers.HandleOptions(w, httptest.NewRequest(http.MethodGet, "/api/options", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if w.Header().Get("Cache-Control") != cacheMaxAge {
		t.Errorf("Cache-Control = %q", w.Header().Get("Cache-Control"))
	}

	var opts models.FilterOptions
	if err := json.Unmarshal(decode(t, w).Data, &opts); err != nil {
		t.Fatalf("invalid data: %v", err)
	}

	wantRegions := []string{"All", "East", "West"}
	wantYears := []string{"All", "2023", "2024"}
	if len(opts.Regions) != len(wantRegions) || len(opts.Years) != len(wantYears) {
		t.Fatalf("options = %+v", opts)
	}
	for i := range wantRegions {
		if opts.Regions[i] != wantRegions[i] {
			t.Errorf("regions[%d] = %q, want %q", i, opts.Regions[i], wantRegions[i])
		}
	}
	for i := range wantYears {
		if opts.Years[i] != wantYears[i] {
			t.Errorf("years[%d] = %q, want %q", i, opts.Years[i], wantYears[i])
		}
	}
}

func TestAPIHandlers_HandleHealth(t *testing.T) {
	tests := []struct {
		name       string
		analytics  *services.Analytics
		wantStatus int
	}{
		{"loaded", createTestAnalytics(), http.StatusOK},
		{"empty", services.NewAnalytics(), http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handlers := NewAPIHandlers(tt.analytics, testLogger)
			w := httptest.NewRecorder()
			handlers.HandleHealth(w, httptest.NewRequest(http.MethodGet, "/health", nil))

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if w.Header().Get("Cache-Control") != "" {
				t.Error("health endpoint should not be cached")
			}
		})
	}
}

func TestAPIHandlers_HandleStats(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), testLogger)

	w := httptest.NewRecorder()
	handlers.HandleStats(w, httptest.NewRequest(http.MethodGet, "/admin/stats", nil))

	var stats map[string]any
	if err := json.Unmarshal(decode(t, w).Data, &stats); err != nil {
		t.Fatalf("invalid data: %v", err)
	}
	if stats["record_count"] != float64(3) {
		t.Errorf("record_count = %v", stats["record_count"])
	}
	if stats["regions"] != float64(2) || stats["years"] != float64(2) {
		t.Errorf("unexpected stats: %v", stats)
	}
}

func TestValidFilter(t *testing.T) {
	tests := []struct {
		region, year string
		wantErr      bool
	}{
		{"", "", false},
		{"West", "2023", false},
		{"west", "ALL", false},
		{"", "23", true},
		{"", "20x3", true},
	}

	for _, tt := range tests {
		_, err := validFilter(tt.region, tt.year)
		if (err != nil) != tt.wantErr {
			t.Errorf("validFilter(%q, %q) err = %v, wantErr %v", tt.region, tt.year, err, tt.wantErr)
		}
	}
}

func BenchmarkAPIHandlers_HandleInsights(b *testing.B) {
	handlers := NewAPIHandlers(createTestAnalytics(), testLogger)
	r := httptest.NewRequest(http.MethodGet, "/api/insights?region=West", nil)

	for b.Loop() {
		handlers.HandleInsights(httptest.NewRecorder(), r)
	}
}
