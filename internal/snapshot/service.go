package snapshot

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Service builds the API views of the snapshots
type Service struct {
	cache *Cache
	now   func() time.Time
}

// NewService creates a Service reading through cache
func NewService(cache *Cache) *Service {
	return &Service{cache: cache, now: time.Now}
}

func (s *Service) read(ctx context.Context, key string) (Document, error) {
	data, err := s.cache.ReadRaw(ctx, key)
	if err != nil {
		return nil, err
	}
	doc, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse snapshot %s: %w", key, err)
	}
	return doc, nil
}

func (s *Service) serverTime() int64 {
	return s.now().UnixMilli()
}

// withServerTime returns the document with serverTime set
func (s *Service) withServerTime(ctx context.Context, key string) (Document, error) {
	doc, err := s.read(ctx, key)
	if err != nil {
		return nil, err
	}
	doc["serverTime"] = s.serverTime()
	return doc, nil
}

// listView keeps only the list field of a document and adds serverTime
func (s *Service) listView(ctx context.Context, key, field string) (Document, error) {
	doc, err := s.read(ctx, key)
	if err != nil {
		return nil, err
	}
	list, err := doc.List(field)
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", key, err)
	}
	if list == nil {
		list = []any{}
	}
	return Document{field: list, "serverTime": s.serverTime()}, nil
}

// CryptoPrices returns the prices snapshot as stored
func (s *Service) CryptoPrices(ctx context.Context) (Document, error) {
	return s.read(ctx, KeyCryptoPrices)
}

// Leaderboard returns the leaderboard snapshot as stored
func (s *Service) Leaderboard(ctx context.Context) (Document, error) {
	return s.read(ctx, KeyLeaderboard)
}

// AccountTotals returns the account totals snapshot with serverTime
func (s *Service) AccountTotals(ctx context.Context) (Document, error) {
	return s.withServerTime(ctx, KeyAccountTotals)
}

// SinceInception returns the since-inception snapshot with serverTime
func (s *Service) SinceInception(ctx context.Context) (Document, error) {
	return s.withServerTime(ctx, KeySinceInception)
}

// Analytics returns the analytics overview with serverTime
func (s *Service) Analytics(ctx context.Context) (Document, error) {
	return s.withServerTime(ctx, KeyAnalytics)
}

// Trades returns the trades list with serverTime
func (s *Service) Trades(ctx context.Context) (Document, error) {
	return s.listView(ctx, KeyTrades, "trades")
}

// Positions returns the per-model account totals with serverTime
func (s *Service) Positions(ctx context.Context) (Document, error) {
	return s.listView(ctx, KeyPositions, "accountTotals")
}

// Conversations returns the conversations list with serverTime
func (s *Service) Conversations(ctx context.Context) (Document, error) {
	return s.listView(ctx, KeyConversations, "conversations")
}

// ModelAnalytics returns the analytics of one model. The dedicated
// analytics-<id> snapshot wins; otherwise the matching entry of the overview
// is used, and a stub carrying only the model id is the last resort.
func (s *Service) ModelAnalytics(ctx context.Context, modelID string) (Document, error) {
	var analytics any

	doc, err := s.read(ctx, ModelAnalyticsKey(modelID))
	switch {
	case err == nil:
		analytics = map[string]any(doc)
		if inner, ok := doc["analytics"]; ok && inner != nil {
			analytics = inner
		}
		if list, ok := analytics.([]any); ok {
			if len(list) > 0 {
				analytics = list[0]
			} else {
				analytics = map[string]any{}
			}
		}
	case errors.Is(err, ErrNotFound):
	default:
		return nil, err
	}

	if analytics == nil {
		overview, err := s.read(ctx, KeyAnalytics)
		if err != nil {
			return nil, err
		}
		list, err := overview.List("analytics")
		if err != nil {
			return nil, fmt.Errorf("snapshot %s: %w", KeyAnalytics, err)
		}
		for _, item := range list {
			obj, ok := item.(map[string]any)
			if ok && obj["model_id"] == modelID {
				analytics = obj
				break
			}
		}
	}

	if analytics == nil {
		analytics = map[string]any{"model_id": modelID}
	}

	return Document{"analytics": analytics, "serverTime": s.serverTime()}, nil
}
