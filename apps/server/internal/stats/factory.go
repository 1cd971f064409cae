package stats

import (
	"fmt"
	"os"
	"strings"
)

const (
	ModeMemory   = "memory"
	ModeSQLite   = "sqlite"
	ModePostgres = "postgres"
)

const defaultDBName = "coup_stats.db"

// NewServiceFromEnv picks a backend from STATS_MODE (memory by default).
func NewServiceFromEnv() (Service, string, error) {
	mode := strings.ToLower(strings.TrimSpace(os.Getenv("STATS_MODE")))
	switch mode {
	case "", ModeMemory, "mem":
		return NewMemoryService(), ModeMemory, nil
	case ModeSQLite, "local":
		dbPath := strings.TrimSpace(os.Getenv("STATS_DB_PATH"))
		if dbPath == "" {
			dbPath = defaultDBName
		}
		svc, err := NewSQLiteService(dbPath)
		if err != nil {
			return nil, ModeSQLite, err
		}
		return svc, ModeSQLite, nil
	case ModePostgres, "postgresql", "db":
		svc, err := NewPostgresServiceFromEnv()
		if err != nil {
			return nil, ModePostgres, err
		}
		return svc, ModePostgres, nil
	default:
		return nil, mode, fmt.Errorf("invalid STATS_MODE %q (supported: %s, %s, %s)", mode, ModeMemory, ModeSQLite, ModePostgres)
	}
}
