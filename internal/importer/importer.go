// Package importer loads the JSON snapshots into PostgreSQL in one
// sequential, idempotent pass.
package importer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/trogers1052/nof0-api/internal/models"
	"github.com/trogers1052/nof0-api/internal/snapshot"
)

// Store is the write side of the query layer
type Store interface {
	TruncateAll() error
	UpsertModel(modelID, displayName string) error
	UpsertSymbol(symbol string) error
	UpsertPriceLatest(p *models.PriceLatest) error
	InsertTrade(t *models.Trade) error
	InsertOpenPosition(p *models.Position) error
	UpsertModelAnalytics(modelID string, payload json.RawMessage) error
	InsertConversation(modelID *string) (int64, error)
	InsertConversationMessage(m *models.ConversationMessage) error
}

// SnapshotReader returns snapshot documents. Missing snapshots are reported
// with snapshot.ErrNotFound.
type SnapshotReader interface {
	Read(key string) (snapshot.Document, error)
	ReadRaw(key string) ([]byte, error)
}

// Publisher receives progress events. Publish errors never abort an import.
type Publisher interface {
	Publish(ctx context.Context, event models.ImportEvent) error
}

// Options controls a run
type Options struct {
	// Truncate clears every managed table before the first section runs.
	Truncate bool
}

// Summary reports what one run did
type Summary struct {
	Counts  map[string]int
	Skipped []string
	Models  int
	Symbols int
}

// Importer drives one pass over every snapshot
type Importer struct {
	store     Store
	reader    SnapshotReader
	publisher Publisher
	logger    *logrus.Logger
	opts      Options

	models  map[string]struct{}
	symbols map[string]struct{}
}

// New creates an Importer. publisher may be nil.
func New(store Store, reader SnapshotReader, publisher Publisher, logger *logrus.Logger, opts Options) *Importer {
	return &Importer{
		store:     store,
		reader:    reader,
		publisher: publisher,
		logger:    logger,
		opts:      opts,
	}
}

type section struct {
	name    string
	key     string
	run     func() (int, error)
	message func(n int) string
}

func (imp *Importer) sections() []section {
	return []section{
		{
			name: "crypto prices", key: snapshot.KeyCryptoPrices, run: imp.importPrices,
			message: func(n int) string { return fmt.Sprintf("imported crypto prices: %d symbols", n) },
		},
		{
			name: "since-inception", key: snapshot.KeySinceInception, run: imp.checkSinceInception,
			message: func(int) string { return "skip since-inception: source contains summary only" },
		},
		{
			name: "trades", key: snapshot.KeyTrades, run: imp.importTrades,
			message: func(n int) string { return fmt.Sprintf("imported trades: %d", n) },
		},
		{
			name: "positions", key: snapshot.KeyPositions, run: imp.importPositions,
			message: func(n int) string { return fmt.Sprintf("imported positions: %d models", n) },
		},
		{
			name: "analytics", key: snapshot.KeyAnalytics, run: imp.importAnalytics,
			message: func(n int) string { return fmt.Sprintf("imported analytics payloads: %d", n) },
		},
		{
			name: "conversations", key: snapshot.KeyConversations, run: imp.importConversations,
			message: func(n int) string { return fmt.Sprintf("imported conversations: %d", n) },
		},
	}
}

// Run executes the import. A missing snapshot skips its section; any other
// failure aborts the pass. Writes made before a failure stay committed.
func (imp *Importer) Run(ctx context.Context) (*Summary, error) {
	imp.models = make(map[string]struct{})
	imp.symbols = make(map[string]struct{})

	summary := &Summary{Counts: make(map[string]int)}

	if imp.opts.Truncate {
		if err := imp.store.TruncateAll(); err != nil {
			return nil, err
		}
		imp.logger.Info("truncated target tables")
	}

	for _, s := range imp.sections() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		n, err := s.run()
		if errors.Is(err, snapshot.ErrNotFound) {
			imp.logger.WithField("snapshot", s.key).Warnf("skip %s: file missing", s.name)
			summary.Skipped = append(summary.Skipped, s.key)
			imp.publish(ctx, models.ImportEvent{
				EventType: models.EventSectionSkipped,
				Section:   s.key,
				Reason:    "file missing",
			})
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("import %s: %w", s.name, err)
		}

		imp.logger.Info(s.message(n))
		summary.Counts[s.key] = n
		imp.publish(ctx, models.ImportEvent{
			EventType: models.EventSectionImported,
			Section:   s.key,
			Count:     n,
		})
	}

	summary.Models = len(imp.models)
	summary.Symbols = len(imp.symbols)

	imp.logger.Infof("models upserted: %d, symbols upserted: %d", summary.Models, summary.Symbols)
	imp.publish(ctx, models.ImportEvent{
		EventType: models.EventImportCompleted,
		Models:    summary.Models,
		Symbols:   summary.Symbols,
	})
	imp.logger.Info("done.")

	return summary, nil
}

func (imp *Importer) publish(ctx context.Context, event models.ImportEvent) {
	if imp.publisher == nil {
		return
	}
	event.Timestamp = time.Now()
	if err := imp.publisher.Publish(ctx, event); err != nil {
		imp.logger.WithError(err).WithField("event", event.EventType).Warn("failed to publish import event")
	}
}

// ensureModel writes the model dimension row before anything references it
func (imp *Importer) ensureModel(modelID string) error {
	imp.models[modelID] = struct{}{}
	return imp.store.UpsertModel(modelID, modelID)
}

// ensureSymbol writes the symbol dimension row before anything references it
func (imp *Importer) ensureSymbol(symbol string) error {
	imp.symbols[symbol] = struct{}{}
	return imp.store.UpsertSymbol(symbol)
}
