package report

import (
	"fmt"
	"strings"

	"retail-insights/internal/insights"
)

// Summary renders the plain-text insight download, one card per line.
func Summary(result insights.Result) string {
	var b strings.Builder

	switch r := result.(type) {
	case *insights.Insights:
		fmt.Fprintf(&b, "Filters: Region=%s, Year=%s\n", label(r.Filter.Region), label(r.Filter.Year))
		fmt.Fprintf(&b, "Records: %d\n\n", r.RecordCount)
		for _, c := range Cards(r) {
			fmt.Fprintf(&b, "%s: %s - %s\n", c.Title, c.Subject, c.Value)
		}
	case insights.NoData:
		fmt.Fprintf(&b, "Filters: Region=%s, Year=%s\n", label(r.Filter.Region), label(r.Filter.Year))
		b.WriteString(NoDataMessage + "\n")
	}

	return b.String()
}

func label(v string) string {
	if v == "" || strings.EqualFold(v, insights.All) {
		return "All"
	}
	return v
}
