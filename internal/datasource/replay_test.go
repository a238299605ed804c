package datasource

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"options-trader/internal/config"
	apperrors "options-trader/internal/errors"
	"options-trader/internal/models"
)

func writeCandleFile(t *testing.T, rows string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "candles.csv")
	content := "timestamp,open,high,low,close,volume\n" + rows
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func replaySessionConfig(dataFile string) config.SessionConfig {
	return config.SessionConfig{
		Symbol:     "NIFTY",
		Mode:       "replay",
		Capital:    100000,
		LotSize:    50,
		StrikeStep: 50,
		DataFile:   dataFile,
	}
}

func TestReplaySource_RequiresDataFile(t *testing.T) {
	_, err := NewReplaySource(replaySessionConfig(""))
	if !apperrors.Is(err, apperrors.ErrDataUnavailable) {
		t.Errorf("err = %v, want ErrDataUnavailable", err)
	}
}

func TestNew_SelectsByMode(t *testing.T) {
	cfg := replaySessionConfig("")
	cfg.Mode = "paper"
	source, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := source.(*SentinelSource); !ok {
		t.Errorf("paper mode without a data file got %T, want *SentinelSource", source)
	}
	if source.Advance() {
		t.Error("sentinel source produced a tick")
	}
	if source.Snapshot().Valid {
		t.Error("sentinel snapshot claims to be valid")
	}

	cfg.Mode = "live"
	if _, err := New(cfg); !apperrors.Is(err, apperrors.ErrConfigInvalid) {
		t.Errorf("unknown mode err = %v, want ErrConfigInvalid", err)
	}
}

func TestReplaySource_BuildsSnapshots(t *testing.T) {
	rows := ""
	base := time.Date(2026, 8, 21, 9, 15, 0, 0, time.UTC)
	price := 22000.0
	for i := 0; i < 40; i++ {
		ts := base.Add(time.Duration(i) * time.Minute)
		rows += ts.Format("2006-01-02 15:04:05") + ",22000,22010,21990," +
			formatPrice(price) + ",100000\n"
		price += 2
	}

	source, err := NewReplaySource(replaySessionConfig(writeCandleFile(t, rows)))
	if err != nil {
		t.Fatalf("NewReplaySource: %v", err)
	}

	ticks := 0
	var last models.MarketSnapshot
	for source.Advance() {
		ticks++
		last = source.Snapshot()
		if !last.Valid {
			t.Fatalf("tick %d produced an invalid snapshot", ticks)
		}
	}
	if ticks != 40 {
		t.Fatalf("replayed %d ticks, want 40", ticks)
	}

	if last.VWAP <= 0 {
		t.Error("VWAP not computed")
	}
	if len(last.MA) == 0 {
		t.Error("moving averages missing after warmup")
	}
	if len(last.Chain) != 11 {
		t.Errorf("chain has %d strikes, want 11", len(last.Chain))
	}

	atm := last.ATMStrike()
	call := source.OptionPrice(atm, models.BuyCall)
	put := source.OptionPrice(atm, models.BuyPut)
	if call <= 0 || put <= 0 {
		t.Errorf("ATM premiums = (%.2f, %.2f), want positive", call, put)
	}
	if source.OptionPrice(atm+10000, models.BuyCall) != 0 {
		t.Error("off-chain strike must quote 0")
	}

	strike, ok := source.AffordableStrike(models.BuyCall, call+1)
	if !ok {
		t.Fatal("no affordable strike at an affordable budget")
	}
	if price := source.OptionPrice(strike, models.BuyCall); price > call+1 {
		t.Errorf("affordable strike quotes %.2f above the %.2f budget", price, call+1)
	}
}

func TestReplaySource_ExhaustionStops(t *testing.T) {
	rows := "2026-08-21 09:15:00,22000,22010,21990,22000,100000\n"
	source, err := NewReplaySource(replaySessionConfig(writeCandleFile(t, rows)))
	if err != nil {
		t.Fatalf("NewReplaySource: %v", err)
	}
	if !source.Advance() {
		t.Fatal("first Advance returned false")
	}
	if source.Advance() {
		t.Error("Advance past the last candle returned true")
	}
}

func TestScriptedSource_PinnedPricesWin(t *testing.T) {
	snap := models.MarketSnapshot{
		Timestamp: time.Now(),
		Spot:      22000,
		Chain: map[float64]models.StrikeData{
			22000: {Strike: 22000, CallPremium: 90, PutPremium: 95},
		},
		Valid: true,
	}
	s := NewScriptedSource(snap)
	s.Advance()

	if got := s.OptionPrice(22000, models.BuyCall); got != 90 {
		t.Errorf("chain price = %.2f, want 90", got)
	}
	s.SetPrice(22000, models.BuyCall, 105)
	if got := s.OptionPrice(22000, models.BuyCall); got != 105 {
		t.Errorf("pinned price = %.2f, want 105", got)
	}
	if got := s.OptionPrice(22000, models.BuyPut); got != 95 {
		t.Errorf("put price = %.2f, want untouched 95", got)
	}
}

func formatPrice(p float64) string {
	return strconv.FormatFloat(p, 'f', 2, 64)
}
