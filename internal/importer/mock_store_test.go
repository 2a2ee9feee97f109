package importer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/trogers1052/nof0-api/internal/models"
)

// MockStore is an in-memory Store with the same conflict policies as the
// PostgreSQL tables.
type MockStore struct {
	Models        map[string]string
	Symbols       map[string]bool
	Prices        map[string]*models.PriceLatest
	Trades        map[string]*models.Trade
	Positions     map[string]*models.Position
	Analytics     map[string]json.RawMessage
	Conversations []*string
	Messages      []*models.ConversationMessage

	// Calls records each write in order, e.g. "model:gpt-5"
	Calls     []string
	Truncated int

	// FailOn makes the named write fail
	FailOn string
}

func NewMockStore() *MockStore {
	m := &MockStore{}
	m.reset()
	return m
}

func (m *MockStore) reset() {
	m.Models = make(map[string]string)
	m.Symbols = make(map[string]bool)
	m.Prices = make(map[string]*models.PriceLatest)
	m.Trades = make(map[string]*models.Trade)
	m.Positions = make(map[string]*models.Position)
	m.Analytics = make(map[string]json.RawMessage)
	m.Conversations = nil
	m.Messages = nil
}

func (m *MockStore) record(call string) error {
	m.Calls = append(m.Calls, call)
	if m.FailOn != "" && m.FailOn == call {
		return fmt.Errorf("write %s failed", call)
	}
	return nil
}

func (m *MockStore) TruncateAll() error {
	if err := m.record("truncate"); err != nil {
		return err
	}
	m.Truncated++
	m.reset()
	return nil
}

func (m *MockStore) UpsertModel(modelID, displayName string) error {
	if err := m.record("model:" + modelID); err != nil {
		return err
	}
	m.Models[modelID] = displayName
	return nil
}

func (m *MockStore) UpsertSymbol(symbol string) error {
	if err := m.record("symbol:" + symbol); err != nil {
		return err
	}
	m.Symbols[symbol] = true
	return nil
}

func (m *MockStore) UpsertPriceLatest(p *models.PriceLatest) error {
	if err := m.record("price:" + p.Symbol); err != nil {
		return err
	}
	if !m.Symbols[p.Symbol] {
		return errors.New("price_latest references unknown symbol " + p.Symbol)
	}
	m.Prices[p.Symbol] = p
	return nil
}

func (m *MockStore) InsertTrade(t *models.Trade) error {
	if err := m.record("trade:" + t.ID); err != nil {
		return err
	}
	if err := m.checkRefs(t.ModelID, t.Symbol); err != nil {
		return err
	}
	if _, exists := m.Trades[t.ID]; !exists {
		m.Trades[t.ID] = t
	}
	return nil
}

func (m *MockStore) InsertOpenPosition(p *models.Position) error {
	if err := m.record("position:" + p.ID); err != nil {
		return err
	}
	symbol := p.Symbol
	if err := m.checkRefs(p.ModelID, &symbol); err != nil {
		return err
	}
	if _, exists := m.Positions[p.ID]; !exists {
		m.Positions[p.ID] = p
	}
	return nil
}

func (m *MockStore) UpsertModelAnalytics(modelID string, payload json.RawMessage) error {
	if err := m.record("analytics:" + modelID); err != nil {
		return err
	}
	if _, ok := m.Models[modelID]; !ok {
		return errors.New("model_analytics references unknown model " + modelID)
	}
	m.Analytics[modelID] = payload
	return nil
}

func (m *MockStore) InsertConversation(modelID *string) (int64, error) {
	if err := m.record("conversation"); err != nil {
		return 0, err
	}
	if err := m.checkRefs(modelID, nil); err != nil {
		return 0, err
	}
	m.Conversations = append(m.Conversations, modelID)
	return int64(len(m.Conversations)), nil
}

func (m *MockStore) InsertConversationMessage(msg *models.ConversationMessage) error {
	if err := m.record("message"); err != nil {
		return err
	}
	if msg.ConversationID < 1 || msg.ConversationID > int64(len(m.Conversations)) {
		return fmt.Errorf("conversation %d does not exist", msg.ConversationID)
	}
	m.Messages = append(m.Messages, msg)
	return nil
}

func (m *MockStore) checkRefs(modelID, symbol *string) error {
	if modelID != nil {
		if _, ok := m.Models[*modelID]; !ok {
			return errors.New("unknown model " + *modelID)
		}
	}
	if symbol != nil && !m.Symbols[*symbol] {
		return errors.New("unknown symbol " + *symbol)
	}
	return nil
}

// MockPublisher collects published events
type MockPublisher struct {
	Events []models.ImportEvent
	Err    error
}

func (p *MockPublisher) Publish(_ context.Context, event models.ImportEvent) error {
	p.Events = append(p.Events, event)
	return p.Err
}
