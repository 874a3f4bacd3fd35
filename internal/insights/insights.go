// Package insights derives the business insight bundle from a set of sales
// transactions. Everything here is pure: the same records and filter always
// produce the same result and nothing is mutated.
package insights

import (
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"retail-insights/internal/models"
)

const (
	TopProductsLimit    = 5
	TopRegionsLimit     = 3
	MostDiscountedLimit = 3

	monthKeyLayout   = "2006-01"
	monthLabelLayout = "January 2006"
)

// Result is either *Insights or NoData. Callers type-switch on it so the
// empty case cannot be skipped by accident.
type Result interface {
	isResult()
}

// NoData is returned when the filter leaves no records.
type NoData struct {
	Filter Filter `json:"filter"`
}

func (NoData) isResult() {}

type Insights struct {
	Filter         Filter              `json:"filter"`
	RecordCount    int                 `json:"record_count"`
	TotalSales     decimal.Decimal     `json:"total_sales"`
	TotalProfit    decimal.Decimal     `json:"total_profit"`
	TopProducts    []models.NamedTotal `json:"top_products"`
	BestMonth      models.MonthTotal   `json:"best_month"`
	WorstMonth     models.MonthTotal   `json:"worst_month"`
	TopRegions     []models.NamedTotal `json:"top_regions"`
	ProfitLeader   models.NamedTotal   `json:"profit_leader"`
	ProfitLaggard  models.NamedTotal   `json:"profit_laggard"`
	MostDiscounted []models.NamedTotal `json:"most_discounted"`

	// Chart and drill-down series.
	RegionSales  []models.NamedTotal `json:"region_sales"`
	MonthlySales []models.MonthTotal `json:"monthly_sales"`
	StateProfit  []models.NamedTotal `json:"state_profit"`
}

func (*Insights) isResult() {}

func (in *Insights) TopProduct() models.NamedTotal {
	return first(in.TopProducts)
}

func (in *Insights) TopRegion() models.NamedTotal {
	return first(in.TopRegions)
}

func (in *Insights) TopDiscounted() models.NamedTotal {
	return first(in.MostDiscounted)
}

func first(list []models.NamedTotal) models.NamedTotal {
	if len(list) == 0 {
		return models.NamedTotal{}
	}
	return list[0]
}

// Compute filters records and derives every insight from the resulting
// subset in a single pass plus one sort per ranking.
func Compute(records []models.Transaction, f Filter) Result {
	subset := f.Apply(records)
	if len(subset) == 0 {
		return NoData{Filter: f}
	}

	productSales := newGroup()
	productDiscount := newGroup()
	regionSales := newGroup()
	stateProfit := newGroup()
	monthSales := make(map[string]decimal.Decimal)
	monthLabels := make(map[string]string)

	totalSales := decimal.Zero
	totalProfit := decimal.Zero

	for _, tx := range subset {
		productSales.add(tx.ProductName, tx.Sales)
		productDiscount.add(tx.ProductName, tx.Discount)
		regionSales.add(tx.Region, tx.Sales)
		stateProfit.add(tx.State, tx.Profit)

		key := tx.OrderDate.Format(monthKeyLayout)
		if _, ok := monthLabels[key]; !ok {
			monthLabels[key] = tx.OrderDate.Format(monthLabelLayout)
		}
		monthSales[key] = monthSales[key].Add(tx.Sales)

		totalSales = totalSales.Add(tx.Sales)
		totalProfit = totalProfit.Add(tx.Profit)
	}

	regions := regionSales.ranked()
	states := stateProfit.ranked()
	months := chronological(monthSales, monthLabels)
	best, worst := extremes(months)

	return &Insights{
		Filter:         f,
		RecordCount:    len(subset),
		TotalSales:     totalSales,
		TotalProfit:    totalProfit,
		TopProducts:    head(productSales.ranked(), TopProductsLimit),
		BestMonth:      best,
		WorstMonth:     worst,
		TopRegions:     head(regions, TopRegionsLimit),
		ProfitLeader:   states[0],
		ProfitLaggard:  states[len(states)-1],
		MostDiscounted: head(productDiscount.rankedMeans(), MostDiscountedLimit),
		RegionSales:    regions,
		MonthlySales:   months,
		StateProfit:    states,
	}
}

type group struct {
	sums   map[string]decimal.Decimal
	counts map[string]int64
}

func newGroup() *group {
	return &group{
		sums:   make(map[string]decimal.Decimal),
		counts: make(map[string]int64),
	}
}

func (g *group) add(key string, v decimal.Decimal) {
	g.sums[key] = g.sums[key].Add(v)
	g.counts[key]++
}

func (g *group) ranked() []models.NamedTotal {
	out := make([]models.NamedTotal, 0, len(g.sums))
	for k, v := range g.sums {
		out = append(out, models.NamedTotal{Name: k, Total: v})
	}
	sortDescending(out)
	return out
}

func (g *group) rankedMeans() []models.NamedTotal {
	out := make([]models.NamedTotal, 0, len(g.sums))
	for k, v := range g.sums {
		mean := v.Div(decimal.NewFromInt(g.counts[k]))
		out = append(out, models.NamedTotal{Name: k, Total: mean})
	}
	sortDescending(out)
	return out
}

// sortDescending orders by total, highest first; equal totals fall back to
// ascending name so the output never depends on map iteration order.
func sortDescending(list []models.NamedTotal) {
	slices.SortFunc(list, func(a, b models.NamedTotal) int {
		if c := b.Total.Cmp(a.Total); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
}

func chronological(sums map[string]decimal.Decimal, labels map[string]string) []models.MonthTotal {
	out := make([]models.MonthTotal, 0, len(sums))
	for k, v := range sums {
		out = append(out, models.MonthTotal{Key: k, Label: labels[k], Total: v})
	}
	slices.SortFunc(out, func(a, b models.MonthTotal) int {
		return strings.Compare(a.Key, b.Key)
	})
	return out
}

// extremes expects months in chronological order; ties go to the earliest month.
func extremes(months []models.MonthTotal) (best, worst models.MonthTotal) {
	best, worst = months[0], months[0]
	for _, m := range months[1:] {
		if m.Total.GreaterThan(best.Total) {
			best = m
		}
		if m.Total.LessThan(worst.Total) {
			worst = m
		}
	}
	return best, worst
}

func head[T any](list []T, n int) []T {
	if len(list) <= n {
		return list
	}
	return list[:n]
}
