// Package flexquery parses broker Flex Query XML exports into normalized
// execution records. The format is attribute-based: every fill is a <Trade>
// element whose attributes carry the account, instrument, side, quantity,
// price, commission and a wall-clock timestamp in the broker's reporting
// timezone.
package flexquery

import (
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"tradejournal/internal/domain"
)

// DefaultTimezone is the broker's reporting timezone for timestamps that
// carry no offset of their own.
const DefaultTimezone = "US/Eastern"

// ParsedTrade is one usable <Trade> element. AccountNumber is the broker's
// account identifier; the importer maps it to a stored account. The embedded
// execution carries no surrogate id or account id yet.
type ParsedTrade struct {
	AccountNumber string
	Execution     *domain.Execution
}

// ParseResult carries the usable executions plus data-quality counters.
type ParseResult struct {
	Trades   []*ParsedTrade
	Skipped  int      // malformed trade elements dropped
	Warnings []string // one human-readable message per skipped element
}

// Parse reads a Flex Query XML document and returns its trade executions.
// Wall-clock timestamps are interpreted in loc. Malformed trade elements are
// skipped and counted, not fatal; a document with no <Trade> elements at all
// parses to an empty result.
func Parse(r io.Reader, loc *time.Location) (*ParseResult, error) {
	result := &ParseResult{}
	decoder := xml.NewDecoder(r)

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read xml: %w", err)
		}

		start, ok := token.(xml.StartElement)
		if !ok || start.Name.Local != "Trade" {
			continue
		}

		trade, err := parseTrade(start, loc)
		if err != nil {
			result.Skipped++
			result.Warnings = append(result.Warnings, err.Error())
			continue
		}
		result.Trades = append(result.Trades, trade)
	}

	return result, nil
}

func parseTrade(elem xml.StartElement, loc *time.Location) (*ParsedTrade, error) {
	attrs := make(map[string]string, len(elem.Attr))
	for _, a := range elem.Attr {
		attrs[a.Name.Local] = strings.TrimSpace(a.Value)
	}

	executionID := attrs["tradeID"]
	if executionID == "" {
		return nil, fmt.Errorf("trade element without tradeID")
	}

	// tradeTime is the fill instant; orderTime is the submission instant and
	// only a fallback.
	tsRaw := attrs["tradeTime"]
	if tsRaw == "" {
		tsRaw = attrs["orderTime"]
	}
	if tsRaw == "" {
		return nil, fmt.Errorf("trade %s: no timestamp", executionID)
	}
	tsUTC, err := ParseTimestamp(tsRaw, loc)
	if err != nil {
		return nil, fmt.Errorf("trade %s: %w", executionID, err)
	}

	side := domain.Side(strings.ToUpper(attrs["buySell"]))
	if !side.IsValid() {
		return nil, fmt.Errorf("trade %s: unknown side %q", executionID, attrs["buySell"])
	}

	quantity, err := strconv.ParseFloat(attrs["quantity"], 64)
	if err != nil {
		return nil, fmt.Errorf("trade %s: bad quantity %q", executionID, attrs["quantity"])
	}
	// Some exports report SELL quantities negative; side already carries the
	// direction.
	quantity = math.Abs(quantity)
	if quantity == 0 {
		return nil, fmt.Errorf("trade %s: zero quantity", executionID)
	}

	price, err := strconv.ParseFloat(attrs["tradePrice"], 64)
	if err != nil {
		return nil, fmt.Errorf("trade %s: bad price %q", executionID, attrs["tradePrice"])
	}
	if price <= 0 {
		return nil, fmt.Errorf("trade %s: non-positive price %f", executionID, price)
	}

	commission := 0.0
	if v := attrs["ibCommission"]; v != "" {
		commission, err = strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("trade %s: bad commission %q", executionID, v)
		}
	}

	var conID *int64
	if v := attrs["conid"]; v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("trade %s: bad conid %q", executionID, v)
		}
		conID = &n
	}

	currency := attrs["currency"]
	if currency == "" {
		currency = "USD"
	}

	return &ParsedTrade{
		AccountNumber: attrs["accountId"],
		Execution: &domain.Execution{
			ExecutionID: executionID,
			Symbol:      attrs["symbol"],
			ConID:       conID,
			TsUTC:       tsUTC,
			TsRaw:       tsRaw,
			Side:        side,
			Quantity:    quantity,
			Price:       price,
			Commission:  commission,
			Exchange:    attrs["exchange"],
			OrderType:   attrs["orderType"],
			Currency:    currency,
		},
	}, nil
}
