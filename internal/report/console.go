package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"retail-insights/internal/insights"
	"retail-insights/internal/models"
)

// WriteConsole prints the detailed insight listing followed by the
// narrative business cards. NoData prints a single warning line.
func WriteConsole(w io.Writer, result insights.Result) error {
	switch r := result.(type) {
	case *insights.Insights:
		return writeInsights(w, r)
	case insights.NoData:
		_, err := fmt.Fprintf(w, "WARNING: %s (%s)\n", NoDataMessage, r.Filter)
		return err
	default:
		return fmt.Errorf("unknown result type %T", result)
	}
}

func writeInsights(w io.Writer, in *insights.Insights) error {
	ew := &errWriter{w: w}

	ew.printf("\n--- INSIGHT CARDS ---\n")
	if !in.Filter.IsAll() {
		ew.printf("Filter: %s | Records: %d\n", in.Filter, in.RecordCount)
	}

	ew.printf("Top %d Selling Products:\n", insights.TopProductsLimit)
	ew.table(in.TopProducts, Currency)

	ew.printf("Best Sales Month: %s | Total Sales: %s\n", in.BestMonth.Label, Currency(in.BestMonth.Total))
	ew.printf("Worst Sales Month: %s | Total Sales: %s\n", in.WorstMonth.Label, Currency(in.WorstMonth.Total))

	ew.printf("\nTop %d Regions by Sales:\n", insights.TopRegionsLimit)
	ew.table(in.TopRegions, Currency)

	ew.printf("State with Highest Profit: %s (%s)\n", in.ProfitLeader.Name, Currency(in.ProfitLeader.Total))
	ew.printf("State with Lowest Profit: %s (%s)\n", in.ProfitLaggard.Name, Currency(in.ProfitLaggard.Total))

	ew.printf("\nMost Discounted Products (Avg Discount):\n")
	ew.table(in.MostDiscounted, Percent)

	ew.printf("\n================= BUSINESS INSIGHT CARDS =================\n")
	for _, line := range narrative(in) {
		ew.printf("%s\n", line)
	}

	return ew.err
}

func narrative(in *insights.Insights) []string {
	top := in.TopProduct()
	discounted := in.TopDiscounted()

	lines := []string{
		fmt.Sprintf("🏆 Top-Selling Product: '%s' led all sales with a total of %s.", top.Name, Currency(top.Total)),
		fmt.Sprintf("🔥 Best Month: Sales peaked in %s with %s in revenue.", in.BestMonth.Label, Currency(in.BestMonth.Total)),
		fmt.Sprintf("🥶 Slowest Month: %s saw the lowest sales, totaling just %s.", in.WorstMonth.Label, Currency(in.WorstMonth.Total)),
		regionsLine(in.TopRegions),
		fmt.Sprintf("💰 Top Profit State: %s generated the most profit at %s.", in.ProfitLeader.Name, Currency(in.ProfitLeader.Total)),
	}

	if in.ProfitLaggard.Total.IsNegative() {
		lines = append(lines, fmt.Sprintf("📉 Biggest Loss State: %s had the lowest total profit, losing %s.",
			in.ProfitLaggard.Name, Currency(in.ProfitLaggard.Total.Neg())))
	} else {
		lines = append(lines, fmt.Sprintf("📉 Lowest Profit State: %s had the lowest total profit at %s.",
			in.ProfitLaggard.Name, Currency(in.ProfitLaggard.Total)))
	}

	lines = append(lines, fmt.Sprintf("🎯 Most Discounted Products: '%s' had the highest average discount (%s).",
		discounted.Name, Percent(discounted.Total)))

	return lines
}

func regionsLine(regions []models.NamedTotal) string {
	lead := regions[0]
	line := fmt.Sprintf("🌍 Best Regions: The highest sales were in the %s (%s)", lead.Name, Currency(lead.Total))

	if len(regions) > 1 {
		rest := make([]string, 0, len(regions)-1)
		for _, r := range regions[1:] {
			rest = append(rest, r.Name)
		}
		line += ", followed by the " + joinAnd(rest)
	}
	return line + "."
}

func joinAnd(items []string) string {
	if len(items) <= 1 {
		return strings.Join(items, "")
	}
	return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
}

type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}

func (e *errWriter) table(rows []models.NamedTotal, format func(decimal.Decimal) string) {
	if e.err != nil {
		return
	}

	tw := tabwriter.NewWriter(e.w, 0, 0, 3, ' ', tabwriter.AlignRight)
	for _, r := range rows {
		if _, err := fmt.Fprintf(tw, "  %s\t%s\t\n", r.Name, format(r.Total)); err != nil {
			e.err = err
			return
		}
	}
	if e.err = tw.Flush(); e.err != nil {
		return
	}
	_, e.err = fmt.Fprintln(e.w)
}
