// Package main generates the markdown journal report and CSV exports for
// one account.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"tradejournal/internal/flexquery"
	"tradejournal/internal/metrics"
	"tradejournal/internal/observability"
	"tradejournal/internal/reporting"
	"tradejournal/internal/storage"
	chstore "tradejournal/internal/storage/clickhouse"
	pgstore "tradejournal/internal/storage/postgres"
)

func main() {
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string (optional)")
	account := flag.String("account", "", "Broker account number to report on")
	timezone := flag.String("timezone", flexquery.DefaultTimezone, "IANA timezone for entry-hour stats")
	outputDir := flag.String("output-dir", "output", "Output directory for generated files")
	flag.Parse()

	if *postgresDSN == "" {
		fmt.Fprintln(os.Stderr, "Error: --postgres-dsn is required")
		os.Exit(1)
	}
	if *account == "" {
		fmt.Fprintln(os.Stderr, "Error: --account is required")
		os.Exit(1)
	}

	ctx := context.Background()

	pool, err := pgstore.NewPool(ctx, *postgresDSN)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to postgres: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	accountStore := pgstore.NewAccountStore(pool)
	tradeStore := pgstore.NewTradeStore(pool)

	var dailyPnlStore storage.DailyPnlStore
	if *clickhouseDSN != "" {
		chConn, err := chstore.NewConn(ctx, *clickhouseDSN)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error connecting to clickhouse: %v\n", err)
			os.Exit(1)
		}
		defer chConn.Close()
		dailyPnlStore = chstore.NewDailyPnlStore(chConn)
	}

	a, err := accountStore.GetByNumber(ctx, *account)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error resolving account %s: %v\n", *account, err)
		os.Exit(1)
	}

	calc := metrics.NewCalculator(tradeStore, dailyPnlStore)
	gen := reporting.NewGenerator(accountStore, calc)

	report, err := gen.Generate(ctx, a.ID, *timezone)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating report: %v\n", err)
		os.Exit(1)
	}
	observability.RecordReportGenerated()

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output directory: %v\n", err)
		os.Exit(1)
	}

	outputs := []struct {
		name    string
		content string
	}{
		{fmt.Sprintf("report_%s.md", a.AccountNumber), reporting.RenderMarkdown(report)},
		{fmt.Sprintf("equity_%s.csv", a.AccountNumber), reporting.RenderEquityCSV(report.EquityCurve)},
		{fmt.Sprintf("instruments_%s.csv", a.AccountNumber), reporting.RenderInstrumentCSV(report.InstrumentStats)},
	}

	for _, out := range outputs {
		path := filepath.Join(*outputDir, out.name)
		if err := os.WriteFile(path, []byte(out.content), 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", path, err)
			os.Exit(1)
		}
	}

	fmt.Printf("Report generated for account %s:\n", a.AccountNumber)
	fmt.Printf("  - %s/report_%s.md\n", *outputDir, a.AccountNumber)
	fmt.Printf("  - %s/equity_%s.csv\n", *outputDir, a.AccountNumber)
	fmt.Printf("  - %s/instruments_%s.csv\n", *outputDir, a.AccountNumber)
}
