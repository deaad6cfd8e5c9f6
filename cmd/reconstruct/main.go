// Package main reruns trade reconstruction for stored executions. Useful
// after a matching-logic change or to repair state without re-importing.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"tradejournal/internal/domain"
	"tradejournal/internal/flexquery"
	"tradejournal/internal/metrics"
	"tradejournal/internal/observability"
	"tradejournal/internal/reconstruct"
	"tradejournal/internal/storage"
	chstore "tradejournal/internal/storage/clickhouse"
	"tradejournal/internal/storage/migrations"
	pgstore "tradejournal/internal/storage/postgres"
)

func main() {
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string (empty to skip daily P&L refresh)")
	account := flag.String("account", "", "Broker account number to rebuild (empty for all accounts)")
	timezone := flag.String("timezone", flexquery.DefaultTimezone, "IANA timezone for day bucketing")
	flag.Parse()

	logger := log.New(os.Stdout, "[reconstruct] ", log.LstdFlags)

	if *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required")
	}

	ctx := context.Background()

	pool, err := pgstore.NewPool(ctx, *postgresDSN)
	if err != nil {
		logger.Fatalf("Failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	accountStore := pgstore.NewAccountStore(pool)
	executionStore := pgstore.NewExecutionStore(pool)
	tradeStore := pgstore.NewTradeStore(pool)

	var dailyPnlStore storage.DailyPnlStore
	if *clickhouseDSN != "" {
		chConn, err := migrations.RunClickhouseMigrations(ctx, *clickhouseDSN)
		if err != nil {
			logger.Fatalf("Failed to run clickhouse migrations: %v", err)
		}
		defer chConn.Close()
		dailyPnlStore = chstore.NewDailyPnlStore(chConn)
	}

	accounts, err := resolveAccounts(ctx, accountStore, *account)
	if err != nil {
		logger.Fatalf("Failed to resolve accounts: %v", err)
	}
	if len(accounts) == 0 {
		logger.Println("No accounts to reconstruct")
		return
	}

	rec := reconstruct.New(reconstruct.Options{
		ExecutionStore: executionStore,
		TradeStore:     tradeStore,
		Verbose:        true,
	})
	calc := metrics.NewCalculator(tradeStore, dailyPnlStore)

	for _, a := range accounts {
		start := time.Now()
		result, err := rec.ReconstructAccount(ctx, a.ID, *timezone)
		if err != nil {
			observability.RecordReconstruction("error", 0, 0, 0, time.Since(start).Seconds())
			logger.Fatalf("Reconstruction failed for account %s: %v", a.AccountNumber, err)
		}
		observability.RecordReconstruction("success", result.TradesCreated,
			result.TradeDaysCreated, len(result.Warnings), time.Since(start).Seconds())

		logger.Printf("Account %s: %d trades, %d trade days, %d links from %d executions in %v",
			a.AccountNumber, result.TradesCreated, result.TradeDaysCreated,
			result.LinksCreated, result.ExecutionsProcessed, time.Since(start))
		for _, w := range result.Warnings {
			logger.Printf("warning: %s", w)
		}

		if dailyPnlStore != nil {
			rows, err := calc.RefreshDailyPnl(ctx, a.ID)
			if err != nil {
				logger.Fatalf("Daily P&L refresh failed for account %s: %v", a.AccountNumber, err)
			}
			logger.Printf("Account %s: refreshed %d daily P&L rows", a.AccountNumber, rows)
		}
	}
}

// resolveAccounts returns the single named account, or every stored account
// when accountNumber is empty.
func resolveAccounts(ctx context.Context, store storage.AccountStore, accountNumber string) ([]*domain.Account, error) {
	if accountNumber == "" {
		return store.GetAll(ctx)
	}

	a, err := store.GetByNumber(ctx, accountNumber)
	if err != nil {
		return nil, fmt.Errorf("account %s: %w", accountNumber, err)
	}
	return []*domain.Account{a}, nil
}
