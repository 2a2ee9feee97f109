package database

import (
	"fmt"
	"strings"
)

// ManagedTables lists every table the importer writes, children first
var ManagedTables = []string{
	"conversation_messages",
	"conversations",
	"model_analytics",
	"trades",
	"positions",
	"price_latest",
	"symbols",
	"models",
}

// TruncateAll clears every managed table and resets identity sequences
func (db *DB) TruncateAll() error {
	query := fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", strings.Join(ManagedTables, ", "))
	if _, err := db.conn.Exec(query); err != nil {
		return fmt.Errorf("failed to truncate tables: %w", err)
	}
	return nil
}

// CountRows returns the number of rows in a managed table
func (db *DB) CountRows(table string) (int, error) {
	if !isManagedTable(table) {
		return 0, fmt.Errorf("unknown table: %s", table)
	}

	var count int
	if err := db.conn.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count rows in %s: %w", table, err)
	}
	return count, nil
}

func isManagedTable(table string) bool {
	for _, t := range ManagedTables {
		if t == table {
			return true
		}
	}
	return false
}
