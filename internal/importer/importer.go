// Package importer persists parsed broker executions idempotently. Re-running
// an import over the same export file inserts nothing new: duplicates are
// detected both within the file and against already-stored executions, and
// reported as warnings rather than errors.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/google/uuid"

	"tradejournal/internal/domain"
	"tradejournal/internal/flexquery"
	"tradejournal/internal/storage"
)

// Importer ingests Flex Query XML exports into the execution store,
// creating accounts on first sight.
type Importer struct {
	accounts   storage.AccountStore
	executions storage.ExecutionStore
	verbose    bool
}

// Options for creating Importer.
type Options struct {
	AccountStore   storage.AccountStore
	ExecutionStore storage.ExecutionStore
	Verbose        bool
}

// New creates a new Importer.
func New(opts Options) *Importer {
	return &Importer{
		accounts:   opts.AccountStore,
		executions: opts.ExecutionStore,
		verbose:    opts.Verbose,
	}
}

// Result summarizes one import run.
type Result struct {
	Parsed            int
	Imported          int
	DuplicatesInFile  int
	DuplicatesInStore int
	Malformed         int
	AccountIDs        []string // surrogate ids of every account touched
	Warnings          []string
}

// ImportFlexXML parses one Flex Query XML document and stores its
// executions. timezone names the IANA zone the export's wall-clock
// timestamps are written in.
func (im *Importer) ImportFlexXML(ctx context.Context, r io.Reader, timezone string) (*Result, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
	}

	parsed, err := flexquery.Parse(r, loc)
	if err != nil {
		return nil, fmt.Errorf("parse flex xml: %w", err)
	}

	result := &Result{
		Parsed:    len(parsed.Trades),
		Malformed: parsed.Skipped,
		Warnings:  append([]string(nil), parsed.Warnings...),
	}
	im.log("parsed %d executions (%d malformed skipped)", result.Parsed, result.Malformed)

	// Per-account state built lazily as account numbers appear in the file.
	accounts := make(map[string]*domain.Account)      // account number → account
	stored := make(map[string]map[string]struct{})    // account id → broker exec ids already stored
	seenInFile := make(map[string]map[string]struct{}) // account id → broker exec ids seen this run

	for _, trade := range parsed.Trades {
		number := trade.AccountNumber
		if number == "" {
			result.Malformed++
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("execution %s has no account id, skipped", trade.Execution.ExecutionID))
			continue
		}

		account, ok := accounts[number]
		if !ok {
			account, err = im.getOrCreateAccount(ctx, number, trade.Execution.Currency)
			if err != nil {
				return nil, err
			}
			accounts[number] = account

			ids, err := im.executions.ListExecutionIDs(ctx, account.ID)
			if err != nil {
				return nil, fmt.Errorf("list executions for account %s: %w", account.ID, err)
			}
			existing := make(map[string]struct{}, len(ids))
			for _, id := range ids {
				existing[id] = struct{}{}
			}
			stored[account.ID] = existing
			seenInFile[account.ID] = make(map[string]struct{})
			result.AccountIDs = append(result.AccountIDs, account.ID)
		}

		execID := trade.Execution.ExecutionID
		if _, dup := seenInFile[account.ID][execID]; dup {
			result.DuplicatesInFile++
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("execution %s repeated in file, skipped", execID))
			continue
		}
		seenInFile[account.ID][execID] = struct{}{}

		if _, dup := stored[account.ID][execID]; dup {
			result.DuplicatesInStore++
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("execution %s already imported, skipped", execID))
			continue
		}

		exe := *trade.Execution
		exe.ID = uuid.NewString()
		exe.AccountID = account.ID
		if err := im.executions.Insert(ctx, &exe); err != nil {
			if errors.Is(err, storage.ErrDuplicateKey) {
				result.DuplicatesInStore++
				result.Warnings = append(result.Warnings,
					fmt.Sprintf("execution %s already imported, skipped", execID))
				continue
			}
			return nil, fmt.Errorf("insert execution %s: %w", execID, err)
		}
		result.Imported++
	}

	im.log("imported %d of %d executions (%d in-file dup, %d stored dup)",
		result.Imported, result.Parsed, result.DuplicatesInFile, result.DuplicatesInStore)
	return result, nil
}

func (im *Importer) getOrCreateAccount(ctx context.Context, number, currency string) (*domain.Account, error) {
	account, err := im.accounts.GetByNumber(ctx, number)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("lookup account %s: %w", number, err)
	}

	account = &domain.Account{
		ID:            uuid.NewString(),
		AccountNumber: number,
		Currency:      currency,
		CreatedAt:     time.Now().UTC(),
	}
	if err := im.accounts.Insert(ctx, account); err != nil {
		// Lost a race with a concurrent import of the same account.
		if errors.Is(err, storage.ErrDuplicateKey) {
			return im.accounts.GetByNumber(ctx, number)
		}
		return nil, fmt.Errorf("create account %s: %w", number, err)
	}
	im.log("created account %s (%s)", number, account.ID)
	return account, nil
}

func (im *Importer) log(format string, args ...interface{}) {
	if im.verbose {
		log.Printf("[importer] "+format, args...)
	}
}
