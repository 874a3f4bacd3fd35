// Package templates holds the dashboard page and the fragments the SSE
// endpoint patches into it. Components are plain templ.Components backed by
// html/template so they render without a code generation step.
package templates

import (
	"context"
	"embed"
	"html/template"
	"io"
	"strings"

	"github.com/a-h/templ"

	"retail-insights/internal/insights"
	"retail-insights/internal/models"
	"retail-insights/internal/report"
)

// Element ids shared between the page and the SSE patches.
const (
	CardsID   = "insight-cards"
	PreviewID = "preview-table"
	StatusID  = "filter-status"
)

const datastarScript = "https://cdn.jsdelivr.net/gh/starfederation/datastar@v1.0.0-RC.5/bundles/datastar.js"
const chartScript = "https://cdn.jsdelivr.net/npm/chart.js@4.4.1/dist/chart.umd.min.js"

//go:embed *.html
var files embed.FS

var tmpl = template.Must(template.New("").Funcs(template.FuncMap{
	"cardsID":   func() string { return CardsID },
	"previewID": func() string { return PreviewID },
	"statusID":  func() string { return StatusID },
	"label":     label,
}).ParseFS(files, "*.html"))

func render(name string, data any) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return tmpl.ExecuteTemplate(w, name, data)
	})
}

type dashboardData struct {
	Title          string
	DatastarScript string
	ChartScript    string
	Options        models.FilterOptions
	MaxPreviewRows int
}

// Dashboard renders the full page. Filters, cards, charts and the preview
// are filled in by the first /sse/insights call on load.
func Dashboard(options models.FilterOptions, maxPreviewRows int) templ.Component {
	return render("dashboard", dashboardData{
		Title:          "Retail Sales Insights",
		DatastarScript: datastarScript,
		ChartScript:    chartScript,
		Options:        options,
		MaxPreviewRows: maxPreviewRows,
	})
}

func Cards(cards []report.Card) templ.Component {
	return render("cards", cards)
}

func NoData(f insights.Filter) templ.Component {
	return render("nodata", struct {
		Message string
		Filter  insights.Filter
	}{report.NoDataMessage, f})
}

func Preview(p models.Preview) templ.Component {
	return render("preview", p)
}

type statusData struct {
	Filter  insights.Filter
	Records int
	Sales   string
	Profit  string
}

// Status summarises the active filter above the cards.
func Status(f insights.Filter, result insights.Result) templ.Component {
	data := statusData{Filter: f}
	if in, ok := result.(*insights.Insights); ok {
		data.Records = in.RecordCount
		data.Sales = report.Currency(in.TotalSales)
		data.Profit = report.Currency(in.TotalProfit)
	}
	return render("status", data)
}

func label(v string) string {
	if v == "" || strings.EqualFold(v, insights.All) {
		return "All"
	}
	return v
}
