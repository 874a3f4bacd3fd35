package insights

import (
	"slices"
	"strconv"
	"strings"

	"retail-insights/internal/models"
)

// All is the filter value that disables a restriction.
const All = "all"

// Filter restricts a computation to one region and/or one order year.
type Filter struct {
	Region string `json:"region"`
	Year   string `json:"year"`
}

// ParseFilter normalises user input. Blank values and any casing of "all"
// become All; everything else is kept verbatim apart from surrounding space.
func ParseFilter(region, year string) Filter {
	return Filter{
		Region: normalise(region),
		Year:   normalise(year),
	}
}

func normalise(v string) string {
	v = strings.TrimSpace(v)
	if v == "" || strings.EqualFold(v, All) {
		return All
	}
	return v
}

func (f Filter) regionAll() bool {
	return f.Region == "" || strings.EqualFold(f.Region, All)
}

func (f Filter) yearAll() bool {
	return f.Year == "" || strings.EqualFold(f.Year, All)
}

// IsAll reports whether the filter keeps every record.
func (f Filter) IsAll() bool {
	return f.regionAll() && f.yearAll()
}

func (f Filter) Matches(tx models.Transaction) bool {
	if !f.regionAll() && tx.Region != f.Region {
		return false
	}
	if !f.yearAll() && strconv.Itoa(tx.OrderDate.Year()) != f.Year {
		return false
	}
	return true
}

// Apply returns the matching records in source order. The input is never
// modified; with an all/all filter the input slice itself is returned.
func (f Filter) Apply(records []models.Transaction) []models.Transaction {
	if f.IsAll() {
		return records
	}

	out := make([]models.Transaction, 0, len(records))
	for _, tx := range records {
		if f.Matches(tx) {
			out = append(out, tx)
		}
	}
	return out
}

func (f Filter) String() string {
	region, year := f.Region, f.Year
	if f.regionAll() {
		region = All
	}
	if f.yearAll() {
		year = All
	}
	return "region=" + region + " year=" + year
}

// Regions lists the distinct regions in ascending order.
func Regions(records []models.Transaction) []string {
	seen := make(map[string]struct{})
	for _, tx := range records {
		seen[tx.Region] = struct{}{}
	}
	return sortedKeys(seen)
}

// Years lists the distinct order years in ascending order.
func Years(records []models.Transaction) []string {
	seen := make(map[int]struct{})
	for _, tx := range records {
		seen[tx.OrderDate.Year()] = struct{}{}
	}

	years := make([]int, 0, len(seen))
	for y := range seen {
		years = append(years, y)
	}
	slices.Sort(years)

	out := make([]string, len(years))
	for i, y := range years {
		out[i] = strconv.Itoa(y)
	}
	return out
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
