package store

import (
	"coup-lite/coup"
)

// Store persists match documents so matches survive a process restart
// and finished games can be inspected afterwards.
type Store interface {
	Save(doc coup.Document) error
	Load(code string) (coup.Document, error)
	Delete(code string) error
	// List returns the codes of all stored matches.
	List() ([]string, error)
	Close() error
}
