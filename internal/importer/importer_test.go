package importer

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trogers1052/nof0-api/internal/models"
	"github.com/trogers1052/nof0-api/internal/snapshot"
)

const (
	pricesFixture = `{"prices":{
		"BTC":{"symbol":"BTC","price":67000.5,"timestamp":1700000000},
		"ETH":{"symbol":"ETH","price":"3500","timestamp":1700000000123}
	}}`

	sinceInceptionFixture = `{"sinceInceptionValues":[{"model_id":"gpt-5","nav_since_inception":10000}]}`

	tradesFixture = `{"trades":[
		{"id":"t1","model_id":"gpt-5","symbol":"BTC","side":"long","trade_type":"",
		 "quantity":0.5,"leverage":10,"confidence":0,"entry_price":67000,"entry_time":1700000000.5,
		 "exit_price":68000,"exit_time":1700003600,"realized_gross_pnl":500,"realized_net_pnl":480,
		 "total_commission_dollars":20},
		{"id":"t2","model_id":"claude","symbol":"ETH","side":"short","trade_type":"market",
		 "quantity":"2","leverage":"","confidence":0.7,"entry_price":3500,"entry_time":1700000000000,
		 "exit_price":0,"exit_time":null}
	]}`

	positionsFixture = `{"accountTotals":[
		{"model_id":"gpt-5","positions":{
			"BTC":{"entry_price":67000,"quantity":0.5,"leverage":10,"confidence":0.8,"entry_time":1700000000},
			"ETH":{"entry_price":3500,"quantity":1,"leverage":0,"entry_time":1700000000.25}
		}},
		{"model_id":"claude","positions":{}}
	]}`

	analyticsFixture = `{"analytics":[
		{"model_id":"gpt-5","win_rate":0.6},
		"{\"model_id\":\"claude\",\"win_rate\":0.5}"
	]}`

	conversationsFixture = `{"conversations":[
		{"model_id":"gpt-5","messages":[
			{"role":"user","content":"Should we buy BTC?","timestamp":1700000000},
			{"content":"Going long.","timestamp":"2023-11-14T22:13:20Z"}
		]}
	]}`
)

func fixtures() map[string]string {
	return map[string]string{
		snapshot.KeyCryptoPrices:   pricesFixture,
		snapshot.KeySinceInception: sinceInceptionFixture,
		snapshot.KeyTrades:         tradesFixture,
		snapshot.KeyPositions:      positionsFixture,
		snapshot.KeyAnalytics:      analyticsFixture,
		snapshot.KeyConversations:  conversationsFixture,
	}
}

// newLoader writes files into a temp snapshot directory
func newLoader(t *testing.T, files map[string]string) *snapshot.Loader {
	t.Helper()
	dir := t.TempDir()
	for key, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, key+".json"), []byte(content), 0o644))
	}
	return snapshot.NewLoader(dir)
}

func newTestImporter(t *testing.T, store Store, files map[string]string, publisher Publisher, opts Options) (*Importer, *test.Hook) {
	t.Helper()
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return New(store, newLoader(t, files), publisher, logger, opts), hook
}

func messages(hook *test.Hook) []string {
	var out []string
	for _, e := range hook.AllEntries() {
		out = append(out, e.Message)
	}
	return out
}

func TestRunFullImport(t *testing.T) {
	store := NewMockStore()
	imp, hook := newTestImporter(t, store, fixtures(), nil, Options{})

	summary, err := imp.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, map[string]int{
		snapshot.KeyCryptoPrices:   2,
		snapshot.KeySinceInception: 0,
		snapshot.KeyTrades:         2,
		snapshot.KeyPositions:      2,
		snapshot.KeyAnalytics:      2,
		snapshot.KeyConversations:  1,
	}, summary.Counts)
	assert.Empty(t, summary.Skipped)
	assert.Equal(t, 2, summary.Models)
	assert.Equal(t, 2, summary.Symbols)

	assert.Len(t, store.Models, 2)
	assert.Equal(t, "gpt-5", store.Models["gpt-5"])
	assert.Len(t, store.Symbols, 2)
	assert.Len(t, store.Prices, 2)
	assert.Len(t, store.Trades, 2)
	assert.Len(t, store.Positions, 2)
	assert.Len(t, store.Analytics, 2)
	assert.Len(t, store.Conversations, 1)
	assert.Len(t, store.Messages, 2)

	assert.Equal(t, []string{
		"imported crypto prices: 2 symbols",
		"skip since-inception: source contains summary only",
		"imported trades: 2",
		"imported positions: 2 models",
		"imported analytics payloads: 2",
		"imported conversations: 1",
		"models upserted: 2, symbols upserted: 2",
		"done.",
	}, messages(hook))
}

func TestRunPrices(t *testing.T) {
	store := NewMockStore()
	imp, _ := newTestImporter(t, store, map[string]string{snapshot.KeyCryptoPrices: pricesFixture}, nil, Options{})

	_, err := imp.Run(context.Background())
	require.NoError(t, err)

	btc := store.Prices["BTC"]
	require.NotNil(t, btc)
	assert.Equal(t, "67000.5", btc.Price.String())
	assert.Equal(t, int64(1700000000000), btc.TimestampMs)

	eth := store.Prices["ETH"]
	require.NotNil(t, eth)
	assert.Equal(t, "3500", eth.Price.String())
	assert.Equal(t, int64(1700000000123), eth.TimestampMs)
}

func TestRunPricesNonFinite(t *testing.T) {
	store := NewMockStore()
	imp, _ := newTestImporter(t, store, map[string]string{snapshot.KeyCryptoPrices: `{"prices":{
		"BTC":{"price":"NaN","timestamp":1700000000},
		"ETH":{"price":"Infinity","timestamp":1700000000},
		"SOL":{"price":"-Inf","timestamp":1700000000}
	}}`}, nil, Options{})

	var err error
	require.NotPanics(t, func() {
		_, err = imp.Run(context.Background())
	})
	require.NoError(t, err)

	for _, symbol := range []string{"BTC", "ETH", "SOL"} {
		p := store.Prices[symbol]
		require.NotNil(t, p, symbol)
		assert.True(t, p.Price.IsZero(), symbol)
		assert.Equal(t, int64(1700000000000), p.TimestampMs, symbol)
	}
}

func TestRunTradeNormalization(t *testing.T) {
	store := NewMockStore()
	imp, _ := newTestImporter(t, store, map[string]string{snapshot.KeyTrades: tradesFixture}, nil, Options{})

	_, err := imp.Run(context.Background())
	require.NoError(t, err)

	t1 := store.Trades["t1"]
	require.NotNil(t, t1)
	require.NotNil(t, t1.ModelID)
	assert.Equal(t, "gpt-5", *t1.ModelID)
	require.NotNil(t, t1.Side)
	assert.Equal(t, "long", *t1.Side)
	assert.Nil(t, t1.TradeType, "blank trade_type is stored as NULL")
	assert.Nil(t, t1.Confidence, "zero confidence is stored as NULL")
	require.NotNil(t, t1.Quantity)
	assert.Equal(t, 0.5, *t1.Quantity)
	require.NotNil(t, t1.Leverage)
	assert.Equal(t, 10.0, *t1.Leverage)
	assert.Equal(t, int64(1700000000500), t1.EntryTsMs)
	assert.Equal(t, int64(1700003600000), t1.ExitTsMs)
	require.NotNil(t, t1.TotalCommissionDollars)
	assert.Equal(t, 20.0, *t1.TotalCommissionDollars)

	t2 := store.Trades["t2"]
	require.NotNil(t, t2)
	require.NotNil(t, t2.TradeType)
	assert.Equal(t, "market", *t2.TradeType)
	assert.Nil(t, t2.Leverage)
	require.NotNil(t, t2.Quantity)
	assert.Equal(t, 2.0, *t2.Quantity)
	assert.Equal(t, int64(1700000000000), t2.EntryTsMs)
	require.NotNil(t, t2.ExitPrice)
	assert.Equal(t, 0.0, *t2.ExitPrice, "zero exit price is kept")
	assert.Equal(t, int64(0), t2.ExitTsMs)
	assert.Nil(t, t2.RealizedNetPnl)
}

func TestRunPositions(t *testing.T) {
	store := NewMockStore()
	imp, _ := newTestImporter(t, store, map[string]string{snapshot.KeyPositions: positionsFixture}, nil, Options{})

	_, err := imp.Run(context.Background())
	require.NoError(t, err)

	pos := store.Positions["gpt-5:BTC:1700000000000"]
	require.NotNil(t, pos)
	assert.Equal(t, models.PositionStatusOpen, pos.Status)
	assert.Equal(t, models.PositionSideLong, pos.Side)
	assert.Equal(t, "BTC", pos.Symbol)
	require.NotNil(t, pos.Confidence)
	assert.Equal(t, 0.8, *pos.Confidence)

	eth := store.Positions["gpt-5:ETH:1700000000250"]
	require.NotNil(t, eth)
	assert.Nil(t, eth.Leverage)
	assert.Nil(t, eth.Confidence)

	// claude has no positions but is still registered
	assert.Contains(t, store.Models, "claude")
}

func TestPositionID(t *testing.T) {
	assert.Equal(t, "gpt-5:BTC:1700000000000", PositionID("gpt-5", "BTC", 1700000000000))
}

func TestRunIsIdempotentExceptConversations(t *testing.T) {
	store := NewMockStore()
	files := fixtures()

	for i := 0; i < 2; i++ {
		imp, _ := newTestImporter(t, store, files, nil, Options{})
		_, err := imp.Run(context.Background())
		require.NoError(t, err)
	}

	assert.Len(t, store.Models, 2)
	assert.Len(t, store.Symbols, 2)
	assert.Len(t, store.Prices, 2)
	assert.Len(t, store.Trades, 2)
	assert.Len(t, store.Positions, 2)
	assert.Len(t, store.Analytics, 2)
	assert.Len(t, store.Conversations, 2)
	assert.Len(t, store.Messages, 4)
}

func TestRunTruncate(t *testing.T) {
	store := NewMockStore()
	store.Conversations = []*string{nil, nil}

	imp, hook := newTestImporter(t, store, fixtures(), nil, Options{Truncate: true})
	_, err := imp.Run(context.Background())
	require.NoError(t, err)

	require.NotEmpty(t, store.Calls)
	assert.Equal(t, "truncate", store.Calls[0])
	assert.Equal(t, 1, store.Truncated)
	assert.Len(t, store.Conversations, 1)
	assert.Equal(t, "truncated target tables", messages(hook)[0])
}

func TestRunTruncateFailure(t *testing.T) {
	store := NewMockStore()
	store.FailOn = "truncate"

	imp, _ := newTestImporter(t, store, fixtures(), nil, Options{Truncate: true})
	_, err := imp.Run(context.Background())

	require.Error(t, err)
	assert.Equal(t, []string{"truncate"}, store.Calls)
}

func TestRunMissingAnalytics(t *testing.T) {
	files := fixtures()
	delete(files, snapshot.KeyAnalytics)

	store := NewMockStore()
	publisher := &MockPublisher{}
	imp, hook := newTestImporter(t, store, files, publisher, Options{})

	summary, err := imp.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{snapshot.KeyAnalytics}, summary.Skipped)
	assert.NotContains(t, summary.Counts, snapshot.KeyAnalytics)
	assert.Empty(t, store.Analytics)
	assert.Len(t, store.Conversations, 1, "later sections still run")

	var warned bool
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel && e.Message == "skip analytics: file missing" {
			warned = true
		}
	}
	assert.True(t, warned)

	var skipped []models.ImportEvent
	for _, e := range publisher.Events {
		if e.EventType == models.EventSectionSkipped {
			skipped = append(skipped, e)
		}
	}
	require.Len(t, skipped, 1)
	assert.Equal(t, snapshot.KeyAnalytics, skipped[0].Section)
	assert.Equal(t, "file missing", skipped[0].Reason)
}

func TestRunEmptyDirectory(t *testing.T) {
	store := NewMockStore()
	imp, _ := newTestImporter(t, store, nil, nil, Options{})

	summary, err := imp.Run(context.Background())
	require.NoError(t, err)

	assert.Len(t, summary.Skipped, 6)
	assert.Zero(t, summary.Models)
	assert.Empty(t, store.Calls)
}

func TestRunStringEncodedAnalytics(t *testing.T) {
	store := NewMockStore()
	imp, _ := newTestImporter(t, store, map[string]string{snapshot.KeyAnalytics: analyticsFixture}, nil, Options{})

	_, err := imp.Run(context.Background())
	require.NoError(t, err)

	require.Contains(t, store.Analytics, "claude")
	var payload map[string]any
	require.NoError(t, json.Unmarshal(store.Analytics["claude"], &payload))
	assert.Equal(t, "claude", payload["model_id"])
	assert.Equal(t, 0.5, payload["win_rate"])

	require.Contains(t, store.Analytics, "gpt-5")
	assert.JSONEq(t, `{"model_id":"gpt-5","win_rate":0.6}`, string(store.Analytics["gpt-5"]))
}

func TestRunAnalyticsSkipsUnusableEntries(t *testing.T) {
	store := NewMockStore()
	content := `{"analytics":[42, "not json", {"win_rate":1}, {"model_id":"gpt-5"}]}`
	imp, _ := newTestImporter(t, store, map[string]string{snapshot.KeyAnalytics: content}, nil, Options{})

	summary, err := imp.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, summary.Counts[snapshot.KeyAnalytics])
	assert.Len(t, store.Analytics, 1)
	assert.Contains(t, store.Analytics, "gpt-5")
}

func TestRunConversations(t *testing.T) {
	store := NewMockStore()
	imp, _ := newTestImporter(t, store, map[string]string{snapshot.KeyConversations: conversationsFixture}, nil, Options{})

	_, err := imp.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, store.Conversations, 1)
	require.NotNil(t, store.Conversations[0])
	assert.Equal(t, "gpt-5", *store.Conversations[0])

	require.Len(t, store.Messages, 2)
	assert.Equal(t, "user", store.Messages[0].Role)
	assert.Equal(t, "Should we buy BTC?", store.Messages[0].Content)
	assert.Equal(t, int64(1700000000000), store.Messages[0].TimestampMs)
	assert.Equal(t, models.DefaultMessageRole, store.Messages[1].Role)
	assert.Equal(t, int64(1700000000000), store.Messages[1].TimestampMs)
	assert.Equal(t, int64(1), store.Messages[1].ConversationID)
}

func TestRunReferencesAreUpsertedFirst(t *testing.T) {
	store := NewMockStore()
	imp, _ := newTestImporter(t, store, fixtures(), nil, Options{})

	_, err := imp.Run(context.Background())
	require.NoError(t, err)

	seen := make(map[string]bool)
	for _, call := range store.Calls {
		if strings.HasPrefix(call, "model:") || strings.HasPrefix(call, "symbol:") {
			seen[call] = true
		}
	}
	assert.True(t, seen["model:gpt-5"])
	assert.True(t, seen["model:claude"])
	assert.True(t, seen["symbol:BTC"])
	assert.True(t, seen["symbol:ETH"])
}

func TestRunMalformedRecordsAbort(t *testing.T) {
	tests := []struct {
		name    string
		files   map[string]string
		wantErr string
	}{
		{
			name:    "trade is not an object",
			files:   map[string]string{snapshot.KeyTrades: `{"trades":["t1"]}`},
			wantErr: "import trades",
		},
		{
			name:    "trade without id",
			files:   map[string]string{snapshot.KeyTrades: `{"trades":[{"model_id":"gpt-5","symbol":"BTC"}]}`},
			wantErr: "missing id",
		},
		{
			name:    "trades is not a list",
			files:   map[string]string{snapshot.KeyTrades: `{"trades":{"id":"t1"}}`},
			wantErr: "import trades",
		},
		{
			name:    "invalid json",
			files:   map[string]string{snapshot.KeyPositions: `{"accountTotals":[`},
			wantErr: "import positions",
		},
		{
			name:    "positions is not an object",
			files:   map[string]string{snapshot.KeyPositions: `{"accountTotals":[{"model_id":"gpt-5","positions":[]}]}`},
			wantErr: "import positions",
		},
		{
			name:    "message is not an object",
			files:   map[string]string{snapshot.KeyConversations: `{"conversations":[{"messages":["hi"]}]}`},
			wantErr: "import conversations",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			publisher := &MockPublisher{}
			imp, _ := newTestImporter(t, NewMockStore(), tt.files, publisher, Options{})

			summary, err := imp.Run(context.Background())
			require.Error(t, err)
			assert.Nil(t, summary)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.False(t, errors.Is(err, snapshot.ErrNotFound))

			for _, e := range publisher.Events {
				assert.NotEqual(t, models.EventImportCompleted, e.EventType)
			}
		})
	}
}

func TestRunStoreFailureAborts(t *testing.T) {
	store := NewMockStore()
	store.FailOn = "trade:t2"

	imp, _ := newTestImporter(t, store, fixtures(), nil, Options{})
	_, err := imp.Run(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "write trade:t2 failed")
	// earlier writes stay
	assert.Len(t, store.Prices, 2)
	assert.Contains(t, store.Trades, "t1")
	assert.Empty(t, store.Positions)
}

func TestRunPublishesEvents(t *testing.T) {
	publisher := &MockPublisher{}
	imp, _ := newTestImporter(t, NewMockStore(), fixtures(), publisher, Options{})

	_, err := imp.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, publisher.Events, 7)
	assert.Equal(t, models.EventSectionImported, publisher.Events[0].EventType)
	assert.Equal(t, snapshot.KeyCryptoPrices, publisher.Events[0].Section)
	assert.Equal(t, 2, publisher.Events[0].Count)

	last := publisher.Events[6]
	assert.Equal(t, models.EventImportCompleted, last.EventType)
	assert.Equal(t, 2, last.Models)
	assert.Equal(t, 2, last.Symbols)
	for _, e := range publisher.Events {
		assert.False(t, e.Timestamp.IsZero())
	}
}

func TestRunPublishFailureIsNotFatal(t *testing.T) {
	publisher := &MockPublisher{Err: errors.New("broker down")}
	imp, hook := newTestImporter(t, NewMockStore(), fixtures(), publisher, Options{})

	_, err := imp.Run(context.Background())
	require.NoError(t, err)

	var warnings int
	for _, e := range hook.AllEntries() {
		if e.Message == "failed to publish import event" {
			warnings++
		}
	}
	assert.Equal(t, 7, warnings)
}

func TestRunCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := NewMockStore()
	imp, _ := newTestImporter(t, store, fixtures(), nil, Options{})

	_, err := imp.Run(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Empty(t, store.Calls)
}
