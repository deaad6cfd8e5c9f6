// Package main imports IBKR Flex Query XML files and rebuilds the trade
// history for every account found in them.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"tradejournal/internal/flexquery"
	"tradejournal/internal/importer"
	"tradejournal/internal/metrics"
	"tradejournal/internal/observability"
	"tradejournal/internal/reconstruct"
	"tradejournal/internal/storage"
	chstore "tradejournal/internal/storage/clickhouse"
	"tradejournal/internal/storage/memory"
	"tradejournal/internal/storage/migrations"
	pgstore "tradejournal/internal/storage/postgres"
)

func main() {
	file := flag.String("file", "", "Flex Query XML file to import")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string (empty to skip daily P&L refresh)")
	timezone := flag.String("timezone", flexquery.DefaultTimezone, "IANA timezone for execution timestamps and day bucketing")
	skipReconstruct := flag.Bool("skip-reconstruct", false, "Import executions without rebuilding trades")
	dryRun := flag.Bool("dry-run", false, "Parse and validate against in-memory storage without persisting")
	flag.Parse()

	logger := log.New(os.Stdout, "[import] ", log.LstdFlags)

	if *file == "" {
		logger.Fatal("--file is required")
	}
	if !*dryRun && *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required (use --dry-run to validate without a database)")
	}

	ctx := context.Background()

	stores, cleanup, err := createStores(ctx, *postgresDSN, *clickhouseDSN, *dryRun)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	f, err := os.Open(*file)
	if err != nil {
		logger.Fatalf("Failed to open %s: %v", *file, err)
	}
	defer f.Close()

	im := importer.New(importer.Options{
		AccountStore:   stores.accounts,
		ExecutionStore: stores.executions,
		Verbose:        true,
	})

	start := time.Now()
	result, err := im.ImportFlexXML(ctx, f, *timezone)
	if err != nil {
		observability.RecordImport("error", 0, 0, 0, 0, time.Since(start).Seconds())
		logger.Fatalf("Import failed: %v", err)
	}
	observability.RecordImport("success", result.Imported, result.DuplicatesInFile,
		result.DuplicatesInStore, result.Malformed, time.Since(start).Seconds())

	logger.Printf("Imported %d/%d executions (%d in-file dups, %d in-store dups, %d malformed) across %d accounts",
		result.Imported, result.Parsed, result.DuplicatesInFile, result.DuplicatesInStore,
		result.Malformed, len(result.AccountIDs))
	for _, w := range result.Warnings {
		logger.Printf("warning: %s", w)
	}

	if *skipReconstruct {
		return
	}

	rec := reconstruct.New(reconstruct.Options{
		ExecutionStore: stores.executions,
		TradeStore:     stores.trades,
		Verbose:        true,
	})
	calc := metrics.NewCalculator(stores.trades, stores.dailyPnl)

	for _, accountID := range result.AccountIDs {
		start := time.Now()
		recResult, err := rec.ReconstructAccount(ctx, accountID, *timezone)
		if err != nil {
			observability.RecordReconstruction("error", 0, 0, 0, time.Since(start).Seconds())
			logger.Fatalf("Reconstruction failed for account %s: %v", accountID, err)
		}
		observability.RecordReconstruction("success", recResult.TradesCreated,
			recResult.TradeDaysCreated, len(recResult.Warnings), time.Since(start).Seconds())

		logger.Printf("Account %s: %d trades, %d trade days, %d links from %d executions",
			accountID, recResult.TradesCreated, recResult.TradeDaysCreated,
			recResult.LinksCreated, recResult.ExecutionsProcessed)
		for _, w := range recResult.Warnings {
			logger.Printf("warning: %s", w)
		}

		if stores.dailyPnl != nil {
			rows, err := calc.RefreshDailyPnl(ctx, accountID)
			if err != nil {
				logger.Fatalf("Daily P&L refresh failed for account %s: %v", accountID, err)
			}
			logger.Printf("Account %s: refreshed %d daily P&L rows", accountID, rows)
		}
	}

	if *dryRun {
		logger.Println("Dry run complete, nothing persisted")
	}
}

// appStores holds the storage implementations the importer needs.
type appStores struct {
	accounts   storage.AccountStore
	executions storage.ExecutionStore
	trades     storage.TradeStore
	dailyPnl   storage.DailyPnlStore
}

func createStores(ctx context.Context, postgresDSN, clickhouseDSN string, useMemory bool) (*appStores, func(), error) {
	if useMemory {
		return &appStores{
			accounts:   memory.NewAccountStore(),
			executions: memory.NewExecutionStore(),
			trades:     memory.NewTradeStore(),
			dailyPnl:   memory.NewDailyPnlStore(),
		}, func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("run postgres migrations: %w", err)
	}

	stores := &appStores{
		accounts:   pgstore.NewAccountStore(pool),
		executions: pgstore.NewExecutionStore(pool),
		trades:     pgstore.NewTradeStore(pool),
	}

	cleanup := func() { pool.Close() }

	if clickhouseDSN != "" {
		chConn, err := migrations.RunClickhouseMigrations(ctx, clickhouseDSN)
		if err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("run clickhouse migrations: %w", err)
		}
		stores.dailyPnl = chstore.NewDailyPnlStore(chConn)
		cleanup = func() {
			chConn.Close()
			pool.Close()
		}
	}

	return stores, cleanup, nil
}
