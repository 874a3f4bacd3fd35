package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Transaction struct {
	OrderDate   time.Time
	ProductName string
	Sales       decimal.Decimal
	Profit      decimal.Decimal
	Discount    decimal.Decimal
	Region      string
	State       string

	// Raw holds the source row in header order, used for exports.
	Raw []string
}

type NamedTotal struct {
	Name  string          `json:"name"`
	Total decimal.Decimal `json:"total"`
}

type MonthTotal struct {
	Key   string          `json:"key"`
	Label string          `json:"label"`
	Total decimal.Decimal `json:"total"`
}

type FilterOptions struct {
	Regions []string `json:"regions"`
	Years   []string `json:"years"`
}

type Preview struct {
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
	Total  int        `json:"total"`
}
