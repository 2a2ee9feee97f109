// Package snapshot reads the pre-computed JSON documents the API serves and
// the importer loads.
package snapshot

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Snapshot keys
const (
	KeyCryptoPrices   = "crypto-prices"
	KeySinceInception = "since-inception-values"
	KeyTrades         = "trades"
	KeyPositions      = "positions"
	KeyAnalytics      = "analytics"
	KeyConversations  = "conversations"
	KeyAccountTotals  = "account-totals"
	KeyLeaderboard    = "leaderboard"
)

// ErrNotFound is returned when a snapshot file does not exist
var ErrNotFound = errors.New("snapshot not found")

// Document is a decoded snapshot. Numbers are kept as json.Number.
type Document map[string]any

// Loader reads snapshots from a directory of <key>.json files
type Loader struct {
	dir string
}

// NewLoader creates a Loader rooted at dir
func NewLoader(dir string) *Loader {
	return &Loader{dir: dir}
}

// Dir returns the snapshot directory
func (l *Loader) Dir() string {
	return l.dir
}

// ModelAnalyticsKey returns the key of the per-model analytics snapshot
func ModelAnalyticsKey(modelID string) string {
	return "analytics-" + modelID
}

// ReadRaw returns the bytes of a snapshot file
func (l *Loader) ReadRaw(key string) ([]byte, error) {
	if strings.ContainsAny(key, `/\`) || strings.Contains(key, "..") {
		return nil, fmt.Errorf("invalid snapshot key %q", key)
	}

	data, err := os.ReadFile(filepath.Join(l.dir, key+".json"))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot %s: %w", key, err)
	}
	return data, nil
}

// Read returns the decoded snapshot document for key
func (l *Loader) Read(key string) (Document, error) {
	data, err := l.ReadRaw(key)
	if err != nil {
		return nil, err
	}
	doc, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse snapshot %s: %w", key, err)
	}
	return doc, nil
}

// Decode parses a JSON object, keeping numbers as json.Number
func Decode(data []byte) (Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, errors.New("snapshot root is not an object")
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after snapshot root")
	}
	return Document(doc), nil
}
