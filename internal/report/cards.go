package report

import (
	"retail-insights/internal/insights"
)

type Tone string

const (
	ToneSuccess Tone = "success"
	ToneInfo    Tone = "info"
	ToneWarning Tone = "warning"
	ToneError   Tone = "error"
)

// Card is one headline fact as shown on the dashboard.
type Card struct {
	Icon    string `json:"icon"`
	Title   string `json:"title"`
	Subject string `json:"subject"`
	Value   string `json:"value"`
	Tone    Tone   `json:"tone"`
}

// Cards returns the seven headline cards in display order.
func Cards(in *insights.Insights) []Card {
	top := in.TopProduct()
	region := in.TopRegion()
	discounted := in.TopDiscounted()

	return []Card{
		{Icon: "🏆", Title: "Top-Selling Product", Subject: quote(top.Name), Value: Currency(top.Total), Tone: ToneSuccess},
		{Icon: "🔥", Title: "Best Month", Subject: in.BestMonth.Label, Value: Currency(in.BestMonth.Total), Tone: ToneInfo},
		{Icon: "🥶", Title: "Slowest Month", Subject: in.WorstMonth.Label, Value: Currency(in.WorstMonth.Total), Tone: ToneInfo},
		{Icon: "🌍", Title: "Best Region", Subject: region.Name, Value: Currency(region.Total), Tone: ToneSuccess},
		{Icon: "💰", Title: "Top Profit State", Subject: in.ProfitLeader.Name, Value: Currency(in.ProfitLeader.Total), Tone: ToneSuccess},
		{Icon: "📉", Title: "Biggest Loss State", Subject: in.ProfitLaggard.Name, Value: Currency(in.ProfitLaggard.Total.Neg()), Tone: ToneError},
		{Icon: "🎯", Title: "Most Discounted Product", Subject: quote(discounted.Name), Value: Percent(discounted.Total), Tone: ToneWarning},
	}
}

func quote(s string) string {
	return "'" + s + "'"
}
