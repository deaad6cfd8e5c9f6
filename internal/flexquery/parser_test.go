package flexquery

import (
	"strings"
	"testing"
	"time"
)

const sampleXML = `<?xml version="1.0" encoding="UTF-8"?>
<FlexQueryResponse queryName="Trade Summary">
  <FlexStatements>
    <FlexStatement accountId="U12345678" fromDate="2025-01-01" toDate="2025-01-31">
      <Trades>
        <Trade accountId="U12345678" assetCategory="STOCKS" currency="USD" conid="265598" symbol="AAPL"
               buySell="BUY" tradeID="123001" tradeTime="2025-01-15 09:30:00"
               quantity="100" tradePrice="150.25" ibCommission="-10.00"
               exchange="SMART" orderType="LMT"></Trade>
        <Trade accountId="U12345678" assetCategory="STOCKS" currency="USD" conid="265598" symbol="AAPL"
               buySell="SELL" tradeID="123002" tradeTime="2025-01-20 14:15:00"
               quantity="50" tradePrice="151.80" ibCommission="-5.00"
               exchange="SMART" orderType="LMT"></Trade>
      </Trades>
    </FlexStatement>
  </FlexStatements>
</FlexQueryResponse>`

func eastern(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(DefaultTimezone)
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	return loc
}

func TestParse_SampleStatement(t *testing.T) {
	result, err := Parse(strings.NewReader(sampleXML), eastern(t))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if result.Skipped != 0 {
		t.Errorf("skipped = %d, warnings = %v", result.Skipped, result.Warnings)
	}
	if len(result.Trades) != 2 {
		t.Fatalf("expected 2 trades, got %d", len(result.Trades))
	}

	first := result.Trades[0]
	if first.AccountNumber != "U12345678" {
		t.Errorf("account number = %s", first.AccountNumber)
	}
	exe := first.Execution
	if exe.ExecutionID != "123001" || exe.Symbol != "AAPL" {
		t.Errorf("execution = %s/%s", exe.ExecutionID, exe.Symbol)
	}
	if exe.ConID == nil || *exe.ConID != 265598 {
		t.Errorf("conid = %v, want 265598", exe.ConID)
	}
	if exe.Quantity != 100 || exe.Price != 150.25 || exe.Commission != -10 {
		t.Errorf("fill = qty %f price %f comm %f", exe.Quantity, exe.Price, exe.Commission)
	}
	// 09:30 EST on Jan 15 is 14:30 UTC.
	want := time.Date(2025, 1, 15, 14, 30, 0, 0, time.UTC)
	if !exe.TsUTC.Equal(want) {
		t.Errorf("ts = %v, want %v", exe.TsUTC, want)
	}
	if exe.TsRaw != "2025-01-15 09:30:00" {
		t.Errorf("raw ts = %s", exe.TsRaw)
	}
	if exe.Currency != "USD" || exe.Exchange != "SMART" || exe.OrderType != "LMT" {
		t.Errorf("attrs = %s/%s/%s", exe.Currency, exe.Exchange, exe.OrderType)
	}
}

func TestParse_SkipsMalformedTrades(t *testing.T) {
	xml := `<FlexQueryResponse><FlexStatements><FlexStatement><Trades>
  <Trade accountId="U1" tradeID="" buySell="BUY" tradeTime="2025-01-15 09:30:00" quantity="10" tradePrice="100"/>
  <Trade accountId="U1" tradeID="t2" buySell="HOLD" tradeTime="2025-01-15 09:30:00" quantity="10" tradePrice="100"/>
  <Trade accountId="U1" tradeID="t3" buySell="SELL" quantity="10" tradePrice="100"/>
  <Trade accountId="U1" tradeID="t4" buySell="BUY" tradeTime="2025-01-15 09:30:00" quantity="0" tradePrice="100"/>
  <Trade accountId="U1" tradeID="t5" buySell="BUY" tradeTime="2025-01-15 09:30:00" quantity="10" tradePrice="0"/>
  <Trade accountId="U1" tradeID="t6" buySell="BUY" tradeTime="garbage" quantity="10" tradePrice="100"/>
  <Trade accountId="U1" tradeID="t7" buySell="BUY" tradeTime="2025-01-15 09:31:00" quantity="10" tradePrice="100"/>
</Trades></FlexStatement></FlexStatements></FlexQueryResponse>`

	result, err := Parse(strings.NewReader(xml), eastern(t))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(result.Trades) != 1 || result.Trades[0].Execution.ExecutionID != "t7" {
		t.Fatalf("expected only t7 to survive, got %+v", result.Trades)
	}
	if result.Skipped != 6 || len(result.Warnings) != 6 {
		t.Errorf("skipped = %d warnings = %d, want 6/6", result.Skipped, len(result.Warnings))
	}
}

func TestParse_NegativeSellQuantityNormalized(t *testing.T) {
	xml := `<FlexQueryResponse><Trade accountId="U1" tradeID="t1" buySell="SELL"
  tradeTime="2025-01-15 10:00:00" quantity="-25" tradePrice="99.5"/></FlexQueryResponse>`

	result, err := Parse(strings.NewReader(xml), eastern(t))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(result.Trades) != 1 {
		t.Fatalf("expected 1 trade, got %d (skipped %d: %v)", len(result.Trades), result.Skipped, result.Warnings)
	}
	if got := result.Trades[0].Execution.Quantity; got != 25 {
		t.Errorf("quantity = %f, want 25", got)
	}
}

func TestParse_OrderTimeFallback(t *testing.T) {
	xml := `<FlexQueryResponse><Trade accountId="U1" tradeID="t1" buySell="BUY"
  orderTime="2025-01-15 09:29:55" quantity="10" tradePrice="100"/></FlexQueryResponse>`

	result, err := Parse(strings.NewReader(xml), eastern(t))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(result.Trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(result.Trades))
	}
	if result.Trades[0].Execution.TsRaw != "2025-01-15 09:29:55" {
		t.Errorf("raw ts = %s, want order time", result.Trades[0].Execution.TsRaw)
	}
}

func TestParse_InvalidXML(t *testing.T) {
	if _, err := Parse(strings.NewReader("<FlexQueryResponse><Trade"), eastern(t)); err == nil {
		t.Fatal("expected error for truncated document")
	}
}

func TestParse_EmptyStatement(t *testing.T) {
	result, err := Parse(strings.NewReader("<FlexQueryResponse></FlexQueryResponse>"), eastern(t))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(result.Trades) != 0 || result.Skipped != 0 {
		t.Errorf("expected empty result, got %+v", result)
	}
}
