package templates

import (
	"context"
	"strings"
	"testing"

	"retail-insights/internal/insights"
	"retail-insights/internal/models"
	"retail-insights/internal/report"
)

func renderComponent(t *testing.T, name string, render func(*strings.Builder) error) string {
	t.Helper()
	var b strings.Builder
	if err := render(&b); err != nil {
		t.Fatalf("render %s: %v", name, err)
	}
	return b.String()
}

func TestDashboard(t *testing.T) {
	opts := models.FilterOptions{
		Regions: []string{"All", "East", "West"},
		Years:   []string{"All", "2023", "2024"},
	}

	html := renderComponent(t, "dashboard", func(b *strings.Builder) error {
		return Dashboard(opts, 20).Render(context.Background(), b)
	})

	expected := []string{
		"<!DOCTYPE html>",
		"datastar.js",
		"data-bind-region",
		"data-bind-year",
		`<option value="West">West</option>`,
		`<option value="2024">2024</option>`,
		`id="` + CardsID + `"`,
		`id="` + PreviewID + `"`,
		`id="` + StatusID + `"`,
		"region-chart",
		"monthly-chart",
		"/download/records.csv",
		"/download/insights.txt",
		"/download/insights.xlsx",
		"@get('/sse/insights')",
	}
	for _, s := range expected {
		if !strings.Contains(html, s) {
			t.Errorf("dashboard missing %q", s)
		}
	}
}

func TestCards(t *testing.T) {
	cards := []report.Card{
		{Icon: "🏆", Title: "Top-Selling Product", Subject: "'Phone'", Value: "$1,500.00", Tone: report.ToneSuccess},
		{Icon: "📉", Title: "Biggest Loss State", Subject: "<Texas>", Value: "$50.00", Tone: report.ToneError},
	}

	html := renderComponent(t, "cards", func(b *strings.Builder) error {
		return Cards(cards).Render(context.Background(), b)
	})

	for _, s := range []string{`id="insight-cards"`, "Top-Selling Product", "$1,500.00", "card-success", "card-error", "&lt;Texas&gt;"} {
		if !strings.Contains(html, s) {
			t.Errorf("cards missing %q:\n%s", s, html)
		}
	}
	if strings.Contains(html, "<Texas>") {
		t.Error("card subject must be escaped")
	}
}

func TestNoData(t *testing.T) {
	html := renderComponent(t, "nodata", func(b *strings.Builder) error {
		return NoData(insights.ParseFilter("Nowhere", "")).Render(context.Background(), b)
	})

	if !strings.Contains(html, `id="insight-cards"`) {
		t.Error("no-data fragment must replace the cards element")
	}
	if !strings.Contains(html, "No data matches your filter selection") {
		t.Errorf("missing notice:\n%s", html)
	}
}

func TestPreview(t *testing.T) {
	tests := []struct {
		name     string
		preview  models.Preview
		contains []string
	}{
		{
			name: "rows",
			preview: models.Preview{
				Header: []string{"Order Date", "Region"},
				Rows:   [][]string{{"2024-01-01", "West"}},
				Total:  7,
			},
			contains: []string{"<th>Order Date</th>", "<td>West</td>", "Showing 1 of 7 rows."},
		},
		{
			name:     "empty",
			preview:  models.Preview{Header: []string{"Region"}},
			contains: []string{`id="preview-table"`, "No rows to preview."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			html := renderComponent(t, "preview", func(b *strings.Builder) error {
				return Preview(tt.preview).Render(context.Background(), b)
			})
			for _, s := range tt.contains {
				if !strings.Contains(html, s) {
					t.Errorf("preview missing %q:\n%s", s, html)
				}
			}
		})
	}
}

func TestStatus(t *testing.T) {
	f := insights.ParseFilter("West", "")
	html := renderComponent(t, "status", func(b *strings.Builder) error {
		return Status(f, insights.NoData{Filter: f}).Render(context.Background(), b)
	})

	if !strings.Contains(html, "Region: West | Year: All") {
		t.Errorf("unexpected status: %s", html)
	}
	if strings.Contains(html, "records") {
		t.Errorf("no-data status should not show totals: %s", html)
	}
}
