package importer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/trogers1052/nof0-api/internal/models"
	"github.com/trogers1052/nof0-api/internal/normalize"
	"github.com/trogers1052/nof0-api/internal/snapshot"
)

func (imp *Importer) importPrices() (int, error) {
	doc, err := imp.reader.Read(snapshot.KeyCryptoPrices)
	if err != nil {
		return 0, err
	}
	prices, err := doc.Object("prices")
	if err != nil {
		return 0, err
	}

	for _, symbol := range sortedKeys(prices) {
		payload, err := asObject(prices[symbol], "price "+symbol)
		if err != nil {
			return 0, err
		}

		symbol = strings.TrimSpace(symbol)
		if err := imp.ensureSymbol(symbol); err != nil {
			return 0, err
		}

		price, _ := normalize.Float(payload["price"])
		if math.IsNaN(price) || math.IsInf(price, 0) {
			price = 0
		}
		latest := &models.PriceLatest{
			Symbol:      symbol,
			Price:       decimal.NewFromFloat(price),
			TimestampMs: normalize.ToMillis(payload["timestamp"]),
		}
		if err := imp.store.UpsertPriceLatest(latest); err != nil {
			return 0, err
		}
	}

	return len(prices), nil
}

// checkSinceInception only confirms the snapshot is readable; it carries a
// summary series with nothing to persist.
func (imp *Importer) checkSinceInception() (int, error) {
	if _, err := imp.reader.Read(snapshot.KeySinceInception); err != nil {
		return 0, err
	}
	return 0, nil
}

func (imp *Importer) importTrades() (int, error) {
	doc, err := imp.reader.Read(snapshot.KeyTrades)
	if err != nil {
		return 0, err
	}
	trades, err := doc.List("trades")
	if err != nil {
		return 0, err
	}

	for i, item := range trades {
		record, err := asObject(item, fmt.Sprintf("trade #%d", i))
		if err != nil {
			return 0, err
		}

		modelID := trimmedText(record["model_id"])
		if modelID != "" {
			if err := imp.ensureModel(modelID); err != nil {
				return 0, err
			}
		}
		symbol := trimmedText(record["symbol"])
		if symbol != "" {
			if err := imp.ensureSymbol(symbol); err != nil {
				return 0, err
			}
		}

		trade, err := tradeFromRecord(record, modelID, symbol)
		if err != nil {
			return 0, fmt.Errorf("trade #%d: %w", i, err)
		}
		if err := imp.store.InsertTrade(trade); err != nil {
			return 0, err
		}
	}

	return len(trades), nil
}

func tradeFromRecord(record map[string]any, modelID, symbol string) (*models.Trade, error) {
	id := normalize.Text(record["id"])
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("missing id")
	}

	return &models.Trade{
		ID:                     id,
		ModelID:                optionalText(modelID),
		Symbol:                 optionalText(symbol),
		Side:                   rawText(record["side"]),
		TradeType:              normalize.NullString(record["trade_type"]),
		Quantity:               normalize.NullFloat(record["quantity"]),
		Leverage:               normalize.NullFloat(record["leverage"]),
		Confidence:             normalize.NullFloat(record["confidence"]),
		EntryPrice:             normalize.OptionalFloat(record["entry_price"]),
		EntryTsMs:              normalize.ToMillisFloat(record["entry_time"]),
		ExitPrice:              normalize.OptionalFloat(record["exit_price"]),
		ExitTsMs:               normalize.ToMillisFloat(record["exit_time"]),
		RealizedGrossPnl:       normalize.OptionalFloat(record["realized_gross_pnl"]),
		RealizedNetPnl:         normalize.OptionalFloat(record["realized_net_pnl"]),
		TotalCommissionDollars: normalize.OptionalFloat(record["total_commission_dollars"]),
	}, nil
}

func (imp *Importer) importPositions() (int, error) {
	doc, err := imp.reader.Read(snapshot.KeyPositions)
	if err != nil {
		return 0, err
	}
	accounts, err := doc.List("accountTotals")
	if err != nil {
		return 0, err
	}

	for i, item := range accounts {
		account, err := asObject(item, fmt.Sprintf("account #%d", i))
		if err != nil {
			return 0, err
		}

		modelID := trimmedText(account["model_id"])
		if modelID != "" {
			if err := imp.ensureModel(modelID); err != nil {
				return 0, err
			}
		}

		positions, err := snapshot.Document(account).Object("positions")
		if err != nil {
			return 0, fmt.Errorf("account #%d: %w", i, err)
		}

		for _, symbol := range sortedKeys(positions) {
			record, err := asObject(positions[symbol], fmt.Sprintf("position %s of account #%d", symbol, i))
			if err != nil {
				return 0, err
			}

			symbol = strings.TrimSpace(symbol)
			if err := imp.ensureSymbol(symbol); err != nil {
				return 0, err
			}

			if err := imp.store.InsertOpenPosition(positionFromRecord(record, modelID, symbol)); err != nil {
				return 0, err
			}
		}
	}

	return len(accounts), nil
}

// PositionID builds the synthetic key that deduplicates open positions
func PositionID(modelID, symbol string, entryTsMs int64) string {
	return fmt.Sprintf("%s:%s:%d", modelID, symbol, entryTsMs)
}

func positionFromRecord(record map[string]any, modelID, symbol string) *models.Position {
	entryMs := normalize.ToMillisFloat(record["entry_time"])
	return &models.Position{
		ID:         PositionID(modelID, symbol, entryMs),
		ModelID:    optionalText(modelID),
		Symbol:     symbol,
		Side:       models.PositionSideLong,
		EntryPrice: normalize.OptionalFloat(record["entry_price"]),
		Quantity:   normalize.OptionalFloat(record["quantity"]),
		Leverage:   normalize.NullFloat(record["leverage"]),
		Confidence: normalize.NullFloat(record["confidence"]),
		EntryTsMs:  entryMs,
		Status:     models.PositionStatusOpen,
	}
}

// importAnalytics runs two independent projections of the analytics
// snapshot: the structured list registers model rows, and the raw file is
// re-read to store each blob exactly as exported.
func (imp *Importer) importAnalytics() (int, error) {
	doc, err := imp.reader.Read(snapshot.KeyAnalytics)
	if err != nil {
		return 0, err
	}
	items, err := doc.List("analytics")
	if err != nil {
		return 0, err
	}

	for _, item := range items {
		record, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if modelID := trimmedText(record["model_id"]); modelID != "" {
			if err := imp.ensureModel(modelID); err != nil {
				return 0, err
			}
		}
	}

	data, err := imp.reader.ReadRaw(snapshot.KeyAnalytics)
	if err != nil {
		return 0, err
	}
	var raw struct {
		Analytics []json.RawMessage `json:"analytics"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return 0, fmt.Errorf("failed to parse raw analytics: %w", err)
	}

	for _, blob := range raw.Analytics {
		modelID, payload := decodeAnalyticsBlob(blob)
		if modelID == "" {
			continue
		}
		if err := imp.ensureModel(modelID); err != nil {
			return 0, err
		}
		if err := imp.store.UpsertModelAnalytics(modelID, payload); err != nil {
			return 0, err
		}
	}

	return len(items), nil
}

// decodeAnalyticsBlob returns the model id and the object payload of an
// analytics entry. Entries exported as JSON-encoded strings are decoded once
// first. Anything that is not an object yields an empty model id.
func decodeAnalyticsBlob(blob json.RawMessage) (string, json.RawMessage) {
	payload := bytes.TrimSpace(blob)
	if len(payload) > 0 && payload[0] == '"' {
		var encoded string
		if err := json.Unmarshal(payload, &encoded); err != nil {
			return "", nil
		}
		payload = bytes.TrimSpace([]byte(encoded))
	}

	record, err := snapshot.Decode(payload)
	if err != nil {
		return "", nil
	}
	return trimmedText(record["model_id"]), json.RawMessage(payload)
}

func (imp *Importer) importConversations() (int, error) {
	doc, err := imp.reader.Read(snapshot.KeyConversations)
	if err != nil {
		return 0, err
	}
	conversations, err := doc.List("conversations")
	if err != nil {
		return 0, err
	}

	for i, item := range conversations {
		record, err := asObject(item, fmt.Sprintf("conversation #%d", i))
		if err != nil {
			return 0, err
		}

		modelID := trimmedText(record["model_id"])
		if modelID != "" {
			if err := imp.ensureModel(modelID); err != nil {
				return 0, err
			}
		}

		conversationID, err := imp.store.InsertConversation(optionalText(modelID))
		if err != nil {
			return 0, err
		}

		messages, err := snapshot.Document(record).List("messages")
		if err != nil {
			return 0, fmt.Errorf("conversation #%d: %w", i, err)
		}
		for j, m := range messages {
			message, err := asObject(m, fmt.Sprintf("message #%d of conversation #%d", j, i))
			if err != nil {
				return 0, err
			}

			role := normalize.Text(message["role"])
			if role == "" {
				role = models.DefaultMessageRole
			}
			err = imp.store.InsertConversationMessage(&models.ConversationMessage{
				ConversationID: conversationID,
				Role:           role,
				Content:        normalize.Text(message["content"]),
				TimestampMs:    normalize.ToMillis(message["timestamp"]),
			})
			if err != nil {
				return 0, err
			}
		}
	}

	return len(conversations), nil
}

func asObject(v any, what string) (map[string]any, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s is %T, not an object", what, v)
	}
	return obj, nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func trimmedText(v any) string {
	return strings.TrimSpace(normalize.Text(v))
}

func optionalText(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// rawText keeps the value verbatim, only mapping an absent value to NULL
func rawText(v any) *string {
	if v == nil {
		return nil
	}
	s := normalize.Text(v)
	return &s
}
