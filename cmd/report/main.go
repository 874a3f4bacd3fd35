package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"retail-insights/internal/config"
	"retail-insights/internal/insights"
	"retail-insights/internal/observability"
	"retail-insights/internal/report"
	"retail-insights/internal/services"
)

const (
	version     = "1.0.0"
	loadTimeout = 2 * time.Minute
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// run is main without the process exit so it can be tested. Logs go to
// stderr; stdout carries only the report.
func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	fs.SetOutput(stderr)

	filePath := fs.String("file", envOr("CSV_FILE", "superstore_sales.csv"), "Path to the sales CSV file")
	encoding := fs.String("encoding", envOr("CSV_ENCODING", services.EncodingLatin1), "CSV text encoding: latin1 or utf-8")
	region := fs.String("region", insights.All, "Restrict to one region")
	year := fs.String("year", insights.All, "Restrict to one order year")
	summary := fs.Bool("summary", false, "Print the one-line-per-card summary instead of the full report")
	xlsxPath := fs.String("xlsx", "", "Also write the insights workbook to this path")
	showVersion := fs.Bool("version", false, "Print version and exit")

	fs.Usage = func() {
		fmt.Fprintf(stderr, `Retail sales insight report

Usage:
  report -file superstore_sales.csv
  report -file sales.csv -encoding utf-8 -region West -year 2017
  report -file sales.csv -summary -xlsx insights.xlsx

Flags:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *showVersion {
		fmt.Fprintf(stdout, "report %s\n", version)
		return 0
	}

	logger := observability.NewLoggerTo(stderr, config.LoggerConfig{
		Level:  envOr("LOG_LEVEL", "warn"),
		Format: envOr("LOG_FORMAT", "text"),
	})

	analytics := services.NewAnalytics(
		services.WithEncoding(*encoding),
		services.WithLogger(logger),
	)

	ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
	defer cancel()

	if err := analytics.LoadFromCSV(ctx, *filePath); err != nil {
		logger.Error("failed to load sales data", "file", *filePath, "error", err)
		return 1
	}

	result := analytics.Insights(insights.ParseFilter(*region, *year))

	if *summary {
		if _, err := io.WriteString(stdout, report.Summary(result)); err != nil {
			logger.Error("write summary", "error", err)
			return 1
		}
	} else if err := report.WriteConsole(stdout, result); err != nil {
		logger.Error("write report", "error", err)
		return 1
	}

	if *xlsxPath == "" {
		return 0
	}

	in, ok := result.(*insights.Insights)
	if !ok {
		logger.Warn("workbook skipped, filter matched no records", "path", *xlsxPath)
		return 0
	}
	if err := writeWorkbook(*xlsxPath, in); err != nil {
		logger.Error("write workbook", "path", *xlsxPath, "error", err)
		return 1
	}
	logger.Info("workbook written", "path", *xlsxPath)

	return 0
}

func writeWorkbook(path string, in *insights.Insights) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := report.WriteWorkbook(f, in); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
