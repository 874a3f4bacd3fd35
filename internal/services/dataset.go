package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/encoding/charmap"

	"retail-insights/internal/models"
)

const (
	batchSize  = 10000
	maxWorkers = 10

	EncodingLatin1 = "latin1"
	EncodingUTF8   = "utf-8"
)

const (
	ColOrderDate   = "Order Date"
	ColProductName = "Product Name"
	ColSales       = "Sales"
	ColProfit      = "Profit"
	ColDiscount    = "Discount"
	ColRegion      = "Region"
	ColState       = "State"
)

// RequiredColumns are the source columns the insight computation reads.
var RequiredColumns = []string{
	ColOrderDate, ColProductName, ColSales, ColProfit, ColDiscount, ColRegion, ColState,
}

var dateLayouts = []string{
	"1/2/2006",
	"2006-01-02",
	"01/02/2006",
	"1/2/2006 15:04",
	"2006-01-02 15:04:05",
}

// Dataset is an immutable record set together with the header it was read with.
type Dataset struct {
	Header   []string
	Records  []models.Transaction
	LoadedAt time.Time
}

type columnIndex struct {
	orderDate, product, sales, profit, discount, region, state int
}

type rawRow struct {
	line   int
	fields []string
}

// LoadDataset reads and parses a delimited sales file.
func LoadDataset(ctx context.Context, filename, encoding string) (*Dataset, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	return ReadDataset(ctx, file, encoding)
}

// ReadDataset parses records from r. Any row that cannot be parsed aborts
// the load with an error naming its line.
func ReadDataset(ctx context.Context, r io.Reader, encoding string) (*Dataset, error) {
	decoded, err := decodeReader(r, encoding)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(decoded)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("empty file")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = trimBOM(header[0])
	}

	idx, err := indexColumns(header)
	if err != nil {
		return nil, err
	}

	records := make([]models.Transaction, 0, batchSize)
	batch := make([]rawRow, 0, batchSize)

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		line, _ := reader.FieldPos(0)

		batch = append(batch, rawRow{line: line, fields: fields})
		if len(batch) >= batchSize {
			parsed, err := parseBatch(ctx, batch, idx)
			if err != nil {
				return nil, err
			}
			records = append(records, parsed...)
			batch = make([]rawRow, 0, batchSize)
		}
	}

	if len(batch) > 0 {
		parsed, err := parseBatch(ctx, batch, idx)
		if err != nil {
			return nil, err
		}
		records = append(records, parsed...)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("no records found")
	}

	return &Dataset{
		Header:   header,
		Records:  records,
		LoadedAt: time.Now(),
	}, nil
}

// trimBOM drops a UTF-8 byte order mark, including one already mis-decoded
// as latin1.
func trimBOM(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	return strings.TrimPrefix(s, "\u00ef\u00bb\u00bf")
}

func decodeReader(r io.Reader, encoding string) (io.Reader, error) {
	switch strings.ToLower(encoding) {
	case "", EncodingLatin1, "iso-8859-1":
		return charmap.ISO8859_1.NewDecoder().Reader(r), nil
	case EncodingUTF8, "utf8":
		return r, nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q", encoding)
	}
}

func indexColumns(header []string) (columnIndex, error) {
	positions := make(map[string]int, len(header))
	for i, h := range header {
		positions[strings.ToLower(strings.TrimSpace(h))] = i
	}

	var missing []string
	lookup := func(name string) int {
		i, ok := positions[strings.ToLower(name)]
		if !ok {
			missing = append(missing, name)
			return -1
		}
		return i
	}

	idx := columnIndex{
		orderDate: lookup(ColOrderDate),
		product:   lookup(ColProductName),
		sales:     lookup(ColSales),
		profit:    lookup(ColProfit),
		discount:  lookup(ColDiscount),
		region:    lookup(ColRegion),
		state:     lookup(ColState),
	}

	if len(missing) > 0 {
		return columnIndex{}, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}
	return idx, nil
}

func parseBatch(ctx context.Context, batch []rawRow, idx columnIndex) ([]models.Transaction, error) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxWorkers)

	out := make([]models.Transaction, len(batch))
	for i, row := range batch {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			tx, err := parseTransaction(row.fields, idx)
			if err != nil {
				return fmt.Errorf("line %d: %w", row.line, err)
			}
			out[i] = tx
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func parseTransaction(fields []string, idx columnIndex) (models.Transaction, error) {
	orderDate, err := parseDate(fields[idx.orderDate])
	if err != nil {
		return models.Transaction{}, err
	}

	sales, err := parseAmount(ColSales, fields[idx.sales])
	if err != nil {
		return models.Transaction{}, err
	}

	profit, err := parseAmount(ColProfit, fields[idx.profit])
	if err != nil {
		return models.Transaction{}, err
	}

	discount, err := parseAmount(ColDiscount, fields[idx.discount])
	if err != nil {
		return models.Transaction{}, err
	}

	return models.Transaction{
		OrderDate:   orderDate,
		ProductName: strings.TrimSpace(fields[idx.product]),
		Sales:       sales,
		Profit:      profit,
		Discount:    discount,
		Region:      strings.TrimSpace(fields[idx.region]),
		State:       strings.TrimSpace(fields[idx.state]),
		Raw:         fields,
	}, nil
}

func parseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid %s %q", ColOrderDate, value)
}

func parseAmount(column, value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s %q: %w", column, value, err)
	}
	return d, nil
}
