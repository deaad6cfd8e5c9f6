// Package main provides the unified trade journal service:
// - Import: POST /import accepts Flex Query XML and stores executions
// - Reconstruction: POST /reconstruct rebuilds trades for an account
// - Reporting: GET /report serves the journal report as JSON or markdown
// - Observability: GET /metrics (Prometheus), GET /health, GET /status
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"tradejournal/internal/domain"
	"tradejournal/internal/flexquery"
	"tradejournal/internal/importer"
	"tradejournal/internal/metrics"
	"tradejournal/internal/observability"
	"tradejournal/internal/reconstruct"
	"tradejournal/internal/reporting"
	"tradejournal/internal/storage"
	chstore "tradejournal/internal/storage/clickhouse"
	"tradejournal/internal/storage/memory"
	"tradejournal/internal/storage/migrations"
	pgstore "tradejournal/internal/storage/postgres"
)

// maxImportBody caps uploaded Flex XML documents.
const maxImportBody = 64 << 20

// Server holds all components of the unified service.
type Server struct {
	timezone string
	stores   *appStores

	importer      *importer.Importer
	reconstructor *reconstruct.Reconstructor
	calculator    *metrics.Calculator
	generator     *reporting.Generator
	logger        *log.Logger

	mu              sync.Mutex
	started         time.Time
	lastImport      time.Time
	lastReconstruct time.Time
	imports         int
	reconstructions int
	reports         int
}

// appStores holds all storage implementations.
type appStores struct {
	accounts   storage.AccountStore
	executions storage.ExecutionStore
	trades     storage.TradeStore
	dailyPnl   storage.DailyPnlStore
}

func main() {
	loadEnvFile()

	addr := flag.String("addr", ":8080", "HTTP listen address")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string (empty to disable daily P&L timeseries)")
	timezone := flag.String("timezone", flexquery.DefaultTimezone, "Default IANA timezone for imports and day bucketing")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL")
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	if !*useMemory && *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required (use --use-memory for in-memory storage)")
	}
	if _, err := time.LoadLocation(*timezone); err != nil {
		logger.Fatalf("Invalid --timezone %q: %v", *timezone, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stores, cleanup, err := createStores(ctx, *postgresDSN, *clickhouseDSN, *useMemory)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	calc := metrics.NewCalculator(stores.trades, stores.dailyPnl)

	server := &Server{
		timezone: *timezone,
		stores:   stores,
		importer: importer.New(importer.Options{
			AccountStore:   stores.accounts,
			ExecutionStore: stores.executions,
			Verbose:        true,
		}),
		reconstructor: reconstruct.New(reconstruct.Options{
			ExecutionStore: stores.executions,
			TradeStore:     stores.trades,
			Verbose:        true,
		}),
		calculator: calc,
		generator:  reporting.NewGenerator(stores.accounts, calc),
		logger:     logger,
		started:    time.Now(),
	}

	httpServer := &http.Server{
		Addr:         *addr,
		Handler:      server.routes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, shutting down...", sig)
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Printf("Shutdown error: %v", err)
		}
	}()

	logger.Printf("Listening on %s", *addr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("HTTP server error: %v", err)
	}

	logger.Println("Shutdown complete")
}

// createStores creates all required stores.
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

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", observability.Handler())
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/import", s.handleImport)
	mux.HandleFunc("/reconstruct", s.handleReconstruct)
	mux.HandleFunc("/report", s.handleReport)
	mux.HandleFunc("/summary", s.handleSummary)

	return mux
}

// ImportResponse is the JSON response for POST /import.
type ImportResponse struct {
	Parsed            int                       `json:"parsed"`
	Imported          int                       `json:"imported"`
	DuplicatesInFile  int                       `json:"duplicates_in_file"`
	DuplicatesInStore int                       `json:"duplicates_in_store"`
	Malformed         int                       `json:"malformed"`
	Warnings          []string                  `json:"warnings,omitempty"`
	Accounts          []AccountReconstructState `json:"accounts"`
}

// AccountReconstructState reports the post-import rebuild of one account.
type AccountReconstructState struct {
	AccountID     string   `json:"account_id"`
	AccountNumber string   `json:"account_number"`
	Trades        int      `json:"trades"`
	TradeDays     int      `json:"trade_days"`
	Links         int      `json:"links"`
	Warnings      []string `json:"warnings,omitempty"`
}

// handleImport accepts a Flex Query XML document as the request body,
// imports its executions and rebuilds every touched account.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	timezone, err := s.resolveTimezone(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	body := http.MaxBytesReader(w, r.Body, maxImportBody)
	defer body.Close()

	start := time.Now()
	result, err := s.importer.ImportFlexXML(r.Context(), body, timezone)
	if err != nil {
		observability.RecordImport("error", 0, 0, 0, 0, time.Since(start).Seconds())
		writeError(w, statusForError(err), fmt.Sprintf("import: %v", err))
		return
	}
	observability.RecordImport("success", result.Imported, result.DuplicatesInFile,
		result.DuplicatesInStore, result.Malformed, time.Since(start).Seconds())

	resp := ImportResponse{
		Parsed:            result.Parsed,
		Imported:          result.Imported,
		DuplicatesInFile:  result.DuplicatesInFile,
		DuplicatesInStore: result.DuplicatesInStore,
		Malformed:         result.Malformed,
		Warnings:          result.Warnings,
		Accounts:          []AccountReconstructState{},
	}

	for _, accountID := range result.AccountIDs {
		state, err := s.rebuildAccount(r.Context(), accountID, timezone)
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("reconstruct account %s: %v", accountID, err))
			return
		}
		resp.Accounts = append(resp.Accounts, *state)
	}

	s.mu.Lock()
	s.imports++
	s.lastImport = time.Now()
	s.mu.Unlock()

	s.logger.Printf("Imported %d executions across %d accounts", result.Imported, len(result.AccountIDs))
	writeJSON(w, http.StatusOK, resp)
}

// handleReconstruct rebuilds trades for one account (?account=U12345678)
// or for every stored account when the parameter is absent.
func (s *Server) handleReconstruct(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	timezone, err := s.resolveTimezone(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var accounts []*domain.Account
	if number := r.URL.Query().Get("account"); number != "" {
		a, err := s.stores.accounts.GetByNumber(r.Context(), number)
		if err != nil {
			writeError(w, statusForError(err), fmt.Sprintf("account %s: %v", number, err))
			return
		}
		accounts = []*domain.Account{a}
	} else {
		all, err := s.stores.accounts.GetAll(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("list accounts: %v", err))
			return
		}
		accounts = all
	}

	states := make([]AccountReconstructState, 0, len(accounts))
	for _, a := range accounts {
		state, err := s.rebuildAccount(r.Context(), a.ID, timezone)
		if err != nil {
			writeError(w, statusForError(err), fmt.Sprintf("reconstruct account %s: %v", a.AccountNumber, err))
			return
		}
		states = append(states, *state)
	}

	s.mu.Lock()
	s.reconstructions++
	s.lastReconstruct = time.Now()
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"accounts": states})
}

// rebuildAccount reruns reconstruction and, when a timeseries store is
// configured, refreshes the daily P&L rows.
func (s *Server) rebuildAccount(ctx context.Context, accountID, timezone string) (*AccountReconstructState, error) {
	start := time.Now()
	result, err := s.reconstructor.ReconstructAccount(ctx, accountID, timezone)
	if err != nil {
		observability.RecordReconstruction("error", 0, 0, 0, time.Since(start).Seconds())
		return nil, err
	}
	observability.RecordReconstruction("success", result.TradesCreated,
		result.TradeDaysCreated, len(result.Warnings), time.Since(start).Seconds())

	if s.stores.dailyPnl != nil {
		if _, err := s.calculator.RefreshDailyPnl(ctx, accountID); err != nil {
			return nil, fmt.Errorf("refresh daily pnl: %w", err)
		}
	}

	a, err := s.stores.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("load account: %w", err)
	}

	return &AccountReconstructState{
		AccountID:     a.ID,
		AccountNumber: a.AccountNumber,
		Trades:        result.TradesCreated,
		TradeDays:     result.TradeDaysCreated,
		Links:         result.LinksCreated,
		Warnings:      result.Warnings,
	}, nil
}

// handleReport serves the journal report for ?account=U12345678 as JSON,
// or as markdown with ?format=markdown.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "GET required")
		return
	}

	number := r.URL.Query().Get("account")
	if number == "" {
		writeError(w, http.StatusBadRequest, "account parameter is required")
		return
	}

	timezone, err := s.resolveTimezone(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	a, err := s.stores.accounts.GetByNumber(r.Context(), number)
	if err != nil {
		writeError(w, statusForError(err), fmt.Sprintf("account %s: %v", number, err))
		return
	}

	report, err := s.generator.Generate(r.Context(), a.ID, timezone)
	if err != nil {
		writeError(w, statusForError(err), fmt.Sprintf("generate report: %v", err))
		return
	}
	observability.RecordReportGenerated()

	s.mu.Lock()
	s.reports++
	s.mu.Unlock()

	switch r.URL.Query().Get("format") {
	case "", "json":
		writeJSON(w, http.StatusOK, report)
	case "markdown":
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(reporting.RenderMarkdown(report)))
	default:
		writeError(w, http.StatusBadRequest, "format must be json or markdown")
	}
}

// DaySummaryResponse is the JSON response for the /summary endpoint.
type DaySummaryResponse struct {
	AccountNumber string  `json:"account_number"`
	Day           string  `json:"day"`
	Gross         float64 `json:"gross"`
	Commissions   float64 `json:"commissions"`
	Net           float64 `json:"net"`
	TradesActive  int     `json:"trades_active"`
	SharesClosed  float64 `json:"shares_closed"`
}

// handleSummary aggregates one local trading day across all trades
// (?account=U12345678&day=2024-01-10).
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "GET required")
		return
	}

	number := r.URL.Query().Get("account")
	day := r.URL.Query().Get("day")
	if number == "" || day == "" {
		writeError(w, http.StatusBadRequest, "account and day parameters are required")
		return
	}
	if _, err := time.Parse("2006-01-02", day); err != nil {
		writeError(w, http.StatusBadRequest, "day must be formatted YYYY-MM-DD")
		return
	}

	a, err := s.stores.accounts.GetByNumber(r.Context(), number)
	if err != nil {
		writeError(w, statusForError(err), fmt.Sprintf("account %s: %v", number, err))
		return
	}

	summary, err := s.calculator.DailySummary(r.Context(), a.ID, day)
	if err != nil {
		writeError(w, statusForError(err), fmt.Sprintf("daily summary: %v", err))
		return
	}

	writeJSON(w, http.StatusOK, DaySummaryResponse{
		AccountNumber: a.AccountNumber,
		Day:           summary.Day,
		Gross:         summary.Gross,
		Commissions:   summary.Commissions,
		Net:           summary.Net,
		TradesActive:  summary.TradesActive,
		SharesClosed:  summary.SharesClosed,
	})
}

// resolveTimezone returns the timezone query parameter, falling back to the
// server default, and rejects unknown zone names before any work is done.
func (s *Server) resolveTimezone(r *http.Request) (string, error) {
	timezone := r.URL.Query().Get("timezone")
	if timezone == "" {
		return s.timezone, nil
	}
	if _, err := time.LoadLocation(timezone); err != nil {
		return "", fmt.Errorf("unknown timezone %q", timezone)
	}
	return timezone, nil
}

// StatusResponse is the JSON response for the /status endpoint.
type StatusResponse struct {
	Status          string    `json:"status"`
	Uptime          string    `json:"uptime"`
	LastImport      time.Time `json:"last_import,omitempty"`
	LastReconstruct time.Time `json:"last_reconstruct,omitempty"`
	Imports         int       `json:"imports"`
	Reconstructions int       `json:"reconstructions"`
	Reports         int       `json:"reports"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	resp := StatusResponse{
		Status:          "running",
		Uptime:          time.Since(s.started).String(),
		LastImport:      s.lastImport,
		LastReconstruct: s.lastReconstruct,
		Imports:         s.imports,
		Reconstructions: s.reconstructions,
		Reports:         s.reports,
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusForError maps storage sentinel errors to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, storage.ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// loadEnvFile loads environment variables from .env file if it exists.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
