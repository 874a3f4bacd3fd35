package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"retail-insights/internal/insights"
	"retail-insights/internal/models"
)

const (
	MaxPreviewRows = 20
	allOption      = "All"
)

// Recorder receives load and computation measurements.
type Recorder interface {
	ObserveLoad(source string, records int, duration time.Duration)
	ObserveInsights(outcome string, duration time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) ObserveLoad(string, int, time.Duration) {}
func (nopRecorder) ObserveInsights(string, time.Duration) {}

// Analytics owns the loaded record set. The dataset pointer is swapped
// only by a load; every query computes from the snapshot it read.
type Analytics struct {
	mu       sync.RWMutex
	dataset  *Dataset
	csvPath  string
	encoding string
	cache    *Cache
	recorder Recorder
	logger   *slog.Logger
}

type Option func(*Analytics)

func WithEncoding(encoding string) Option {
	return func(a *Analytics) { a.encoding = encoding }
}

func WithCache(cache *Cache) Option {
	return func(a *Analytics) { a.cache = cache }
}

func WithRecorder(r Recorder) Option {
	return func(a *Analytics) {
		if r != nil {
			a.recorder = r
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(a *Analytics) {
		if logger != nil {
			a.logger = logger
		}
	}
}

func NewAnalytics(opts ...Option) *Analytics {
	a := &Analytics{
		dataset:  &Dataset{Header: RequiredColumns},
		encoding: EncodingLatin1,
		recorder: nopRecorder{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// SetData replaces the record set. A nil header falls back to RequiredColumns.
func (a *Analytics) SetData(header []string, records []models.Transaction) {
	if header == nil {
		header = RequiredColumns
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.dataset = &Dataset{Header: header, Records: records, LoadedAt: time.Now()}
}

func (a *Analytics) LoadFromCSV(ctx context.Context, filename string) error {
	a.csvPath = filename
	start := time.Now()

	if a.cache != nil {
		if cached, err := a.cache.Load(filename, a.encoding); err == nil {
			a.swap(cached)
			a.recorder.ObserveLoad("cache", len(cached.Records), time.Since(start))
			a.logger.Info("loaded from cache", "records", len(cached.Records))
			return nil
		}
	}

	a.logger.Info("processing CSV file", "filename", filename, "encoding", a.encoding)

	ds, err := LoadDataset(ctx, filename, a.encoding)
	if err != nil {
		return fmt.Errorf("process csv: %w", err)
	}
	a.swap(ds)

	if a.cache != nil {
		if err := a.cache.Save(filename, a.encoding, ds); err != nil {
			a.logger.Warn("failed to save cache", "error", err)
		}
	}

	duration := time.Since(start)
	a.recorder.ObserveLoad("csv", len(ds.Records), duration)
	a.logger.Info("csv processing complete",
		"records", len(ds.Records),
		"duration", duration,
		"rate", fmt.Sprintf("%.0f records/sec", float64(len(ds.Records))/duration.Seconds()))

	return nil
}

func (a *Analytics) swap(ds *Dataset) {
	a.mu.Lock()
	a.dataset = ds
	a.mu.Unlock()
}

func (a *Analytics) snapshot() *Dataset {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.dataset
}

// Options lists the selectable filter values, each list led by "All".
func (a *Analytics) Options() models.FilterOptions {
	ds := a.snapshot()
	return models.FilterOptions{
		Regions: append([]string{allOption}, insights.Regions(ds.Records)...),
		Years:   append([]string{allOption}, insights.Years(ds.Records)...),
	}
}

func (a *Analytics) Insights(f insights.Filter) insights.Result {
	start := time.Now()
	result := insights.Compute(a.snapshot().Records, f)

	outcome := "ok"
	if _, ok := result.(insights.NoData); ok {
		outcome = "no_data"
	}
	a.recorder.ObserveInsights(outcome, time.Since(start))

	return result
}

// Preview returns up to limit filtered rows in source order, capped at MaxPreviewRows.
func (a *Analytics) Preview(f insights.Filter, limit int) models.Preview {
	if limit <= 0 || limit > MaxPreviewRows {
		limit = MaxPreviewRows
	}

	ds := a.snapshot()
	subset := f.Apply(ds.Records)

	preview := models.Preview{
		Header: ds.Header,
		Rows:   make([][]string, 0, min(limit, len(subset))),
		Total:  len(subset),
	}
	for _, tx := range subset[:min(limit, len(subset))] {
		preview.Rows = append(preview.Rows, rowOf(tx, ds.Header))
	}
	return preview
}

// WriteFilteredCSV writes the header and every matching row and returns
// the number of data rows written.
func (a *Analytics) WriteFilteredCSV(w io.Writer, f insights.Filter) (int, error) {
	ds := a.snapshot()
	cw := csv.NewWriter(w)

	if err := cw.Write(ds.Header); err != nil {
		return 0, err
	}

	n := 0
	for _, tx := range ds.Records {
		if !f.Matches(tx) {
			continue
		}
		if err := cw.Write(rowOf(tx, ds.Header)); err != nil {
			return n, err
		}
		n++
	}

	cw.Flush()
	return n, cw.Error()
}

// rowOf returns the source row, or rebuilds one from the typed fields for
// records that were constructed in memory.
func rowOf(tx models.Transaction, header []string) []string {
	if len(tx.Raw) == len(header) {
		return tx.Raw
	}

	row := make([]string, len(header))
	for i, col := range header {
		switch col {
		case ColOrderDate:
			row[i] = tx.OrderDate.Format("2006-01-02")
		case ColProductName:
			row[i] = tx.ProductName
		case ColSales:
			row[i] = tx.Sales.String()
		case ColProfit:
			row[i] = tx.Profit.String()
		case ColDiscount:
			row[i] = tx.Discount.String()
		case ColRegion:
			row[i] = tx.Region
		case ColState:
			row[i] = tx.State
		}
	}
	return row
}

func (a *Analytics) RecordCount() int {
	return len(a.snapshot().Records)
}

// Stats is used by the admin endpoint.
func (a *Analytics) Stats() map[string]any {
	ds := a.snapshot()
	opts := a.Options()

	return map[string]any{
		"record_count": len(ds.Records),
		"loaded_at":    ds.LoadedAt,
		"source":       a.csvPath,
		"columns":      slices.Clone(ds.Header),
		"regions":      len(opts.Regions) - 1,
		"years":        len(opts.Years) - 1,
	}
}
