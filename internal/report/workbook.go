package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"retail-insights/internal/insights"
	"retail-insights/internal/models"
)

const (
	SheetSummary     = "Summary"
	SheetProducts    = "Top Products"
	SheetMonthly     = "Monthly Sales"
	SheetRegions     = "Regions"
	SheetStateProfit = "State Profit"
	SheetDiscounts   = "Discounts"

	// excelize built-in number formats
	numFmtMoney   = 4  // #,##0.00
	numFmtPercent = 10 // 0.00%
)

type workbook struct {
	f       *excelize.File
	header  int
	money   int
	percent int
}

// WriteWorkbook writes the insight bundle as an XLSX workbook with one
// sheet per series.
func WriteWorkbook(w io.Writer, in *insights.Insights) error {
	f := excelize.NewFile()
	defer f.Close()

	wb := &workbook{f: f}
	if err := wb.styles(); err != nil {
		return err
	}

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := wb.summary(in); err != nil {
		return err
	}

	sheets := []struct {
		name   string
		column string
		rows   []models.NamedTotal
		format int
	}{
		{SheetProducts, "Sales", in.TopProducts, wb.money},
		{SheetRegions, "Sales", in.RegionSales, wb.money},
		{SheetStateProfit, "Profit", in.StateProfit, wb.money},
		{SheetDiscounts, "Avg Discount", in.MostDiscounted, wb.percent},
	}

	if err := wb.months(in.MonthlySales); err != nil {
		return err
	}
	for _, s := range sheets {
		if err := wb.named(s.name, s.column, s.rows, s.format); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func (wb *workbook) styles() error {
	var err error
	if wb.header, err = wb.f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	if wb.money, err = wb.f.NewStyle(&excelize.Style{NumFmt: numFmtMoney}); err != nil {
		return fmt.Errorf("money style: %w", err)
	}
	if wb.percent, err = wb.f.NewStyle(&excelize.Style{NumFmt: numFmtPercent}); err != nil {
		return fmt.Errorf("percent style: %w", err)
	}
	return nil
}

func (wb *workbook) summary(in *insights.Insights) error {
	rows := [][]any{
		{"Insight", "Subject", "Value"},
		{"Region", label(in.Filter.Region), ""},
		{"Year", label(in.Filter.Year), ""},
		{"Records", "", in.RecordCount},
		{"Total Sales", "", in.TotalSales.InexactFloat64()},
		{"Total Profit", "", in.TotalProfit.InexactFloat64()},
	}
	for _, c := range Cards(in) {
		rows = append(rows, []any{c.Title, c.Subject, c.Value})
	}

	if err := wb.rows(SheetSummary, rows); err != nil {
		return err
	}
	if err := wb.f.SetCellStyle(SheetSummary, "C5", "C6", wb.money); err != nil {
		return err
	}
	return wb.f.SetColWidth(SheetSummary, "A", "C", 28)
}

func (wb *workbook) months(months []models.MonthTotal) error {
	if _, err := wb.f.NewSheet(SheetMonthly); err != nil {
		return fmt.Errorf("create sheet %s: %w", SheetMonthly, err)
	}

	rows := make([][]any, 0, len(months)+1)
	rows = append(rows, []any{"Month", "Label", "Sales"})
	for _, m := range months {
		rows = append(rows, []any{m.Key, m.Label, m.Total.InexactFloat64()})
	}

	if err := wb.rows(SheetMonthly, rows); err != nil {
		return err
	}
	return wb.columnStyle(SheetMonthly, "C", len(months), wb.money)
}

func (wb *workbook) named(sheet, column string, list []models.NamedTotal, style int) error {
	if _, err := wb.f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", sheet, err)
	}

	rows := make([][]any, 0, len(list)+1)
	rows = append(rows, []any{"Name", column})
	for _, n := range list {
		rows = append(rows, []any{n.Name, n.Total.InexactFloat64()})
	}

	if err := wb.rows(sheet, rows); err != nil {
		return err
	}
	if err := wb.f.SetColWidth(sheet, "A", "A", 40); err != nil {
		return err
	}
	return wb.columnStyle(sheet, "B", len(list), style)
}

// rows writes from A1 down and bolds the first row.
func (wb *workbook) rows(sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := wb.f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}

	last, err := excelize.CoordinatesToCellName(len(rows[0]), 1)
	if err != nil {
		return err
	}
	return wb.f.SetCellStyle(sheet, "A1", last, wb.header)
}

func (wb *workbook) columnStyle(sheet, col string, n, style int) error {
	if n == 0 {
		return nil
	}
	return wb.f.SetCellStyle(sheet, col+"2", fmt.Sprintf("%s%d", col, n+1), style)
}
