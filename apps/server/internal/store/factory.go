package store

import (
	"fmt"
	"os"
	"strings"
)

const (
	ModeMemory = "memory"
	ModeSQLite = "sqlite"
)

const defaultDBName = "coup_matches.db"

// NewFromEnv picks a store from MATCH_STORE (memory by default). The
// sqlite path comes from MATCH_DB_PATH.
func NewFromEnv() (Store, string, error) {
	mode := strings.ToLower(strings.TrimSpace(os.Getenv("MATCH_STORE")))
	switch mode {
	case "", ModeMemory, "mem":
		return NewMemoryStore(), ModeMemory, nil
	case ModeSQLite, "local":
		dbPath := strings.TrimSpace(os.Getenv("MATCH_DB_PATH"))
		if dbPath == "" {
			dbPath = defaultDBName
		}
		s, err := NewSQLiteStore(dbPath)
		if err != nil {
			return nil, ModeSQLite, err
		}
		return s, ModeSQLite, nil
	default:
		return nil, mode, fmt.Errorf("invalid MATCH_STORE %q (supported: %s, %s)", mode, ModeMemory, ModeSQLite)
	}
}
