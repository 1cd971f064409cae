package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"golang.org/x/crypto/bcrypt"
)

const defaultLocalDBName = "coup_local.db"

type SQLiteManager struct {
	db         *sql.DB
	sessionTTL time.Duration
}

func NewSQLiteManagerFromEnv() (*SQLiteManager, error) {
	dbPath := strings.TrimSpace(os.Getenv("AUTH_DB_PATH"))
	if dbPath == "" {
		dbPath = defaultLocalDBName
	}
	return NewSQLiteManager(dbPath, defaultSessionTTL)
}

func NewSQLiteManager(dbPath string, sessionTTL time.Duration) (*SQLiteManager, error) {
	dbPath = strings.TrimSpace(dbPath)
	if dbPath == "" {
		return nil, fmt.Errorf("empty sqlite database path")
	}
	if sessionTTL <= 0 {
		sessionTTL = defaultSessionTTL
	}
	if dbPath != ":memory:" {
		parent := filepath.Dir(dbPath)
		if parent != "" && parent != "." {
			if err := os.MkdirAll(parent, 0o755); err != nil {
				return nil, err
			}
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, pragma := range []string{
		`PRAGMA busy_timeout = 5000;`,
		`PRAGMA journal_mode = WAL;`,
		`PRAGMA foreign_keys = ON;`,
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := ensureSQLiteAuthSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLiteManager{db: db, sessionTTL: sessionTTL}, nil
}

func ensureSQLiteAuthSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS accounts (
    id               INTEGER PRIMARY KEY AUTOINCREMENT,
    username         TEXT NOT NULL UNIQUE,
    password_hash    BLOB,
    guest            INTEGER NOT NULL DEFAULT 0,
    created_at_ms    INTEGER NOT NULL,
    last_login_at_ms INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS sessions (
    token         TEXT PRIMARY KEY,
    account_id    INTEGER NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
    expires_at_ms INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sessions_account ON sessions(account_id);`)
	return err
}

func (m *SQLiteManager) Register(username, password string) (Account, string, error) {
	if err := validateUsername(username); err != nil {
		return Account{}, "", err
	}
	if err := validatePassword(password); err != nil {
		return Account{}, "", err
	}

	normalized := normalizeUsername(username)
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Account{}, "", err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return Account{}, "", err
	}
	defer tx.Rollback()

	nowMs := time.Now().UTC().UnixMilli()
	res, err := tx.ExecContext(ctx, `
INSERT INTO accounts (username, password_hash, guest, created_at_ms, last_login_at_ms)
VALUES (?, ?, 0, ?, ?)
ON CONFLICT(username) DO NOTHING;`, normalized, passwordHash, nowMs, nowMs)
	if err != nil {
		return Account{}, "", err
	}
	if n, err := res.RowsAffected(); err != nil {
		return Account{}, "", err
	} else if n == 0 {
		return Account{}, "", ErrUsernameTaken
	}

	accountID, err := res.LastInsertId()
	if err != nil {
		return Account{}, "", err
	}
	token, err := m.insertSession(ctx, tx, uint64(accountID), m.sessionTTL)
	if err != nil {
		return Account{}, "", err
	}
	if err := tx.Commit(); err != nil {
		return Account{}, "", err
	}
	return Account{ID: uint64(accountID), Username: normalized}, token, nil
}

func (m *SQLiteManager) Login(username, password string) (Account, string, error) {
	normalized := normalizeUsername(username)
	if normalized == "" || password == "" {
		return Account{}, "", ErrInvalidCredentials
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var (
		accountID uint64
		hash      []byte
		guest     int
	)
	err := m.db.QueryRowContext(ctx, `
SELECT id, password_hash, guest FROM accounts WHERE username = ?;`, normalized).
		Scan(&accountID, &hash, &guest)
	if errors.Is(err, sql.ErrNoRows) {
		return Account{}, "", ErrInvalidCredentials
	}
	if err != nil {
		return Account{}, "", err
	}
	if guest != 0 || len(hash) == 0 {
		return Account{}, "", ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword(hash, []byte(password)) != nil {
		return Account{}, "", ErrInvalidCredentials
	}

	nowMs := time.Now().UTC().UnixMilli()
	if _, err := m.db.ExecContext(ctx, `
UPDATE accounts SET last_login_at_ms = ? WHERE id = ?;`, nowMs, accountID); err != nil {
		return Account{}, "", err
	}
	token, err := m.insertSession(ctx, m.db, accountID, m.sessionTTL)
	if err != nil {
		return Account{}, "", err
	}
	return Account{ID: accountID, Username: normalized}, token, nil
}

func (m *SQLiteManager) Guest(displayName string) (Account, string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	name := sanitizeDisplayName(displayName)
	nowMs := time.Now().UTC().UnixMilli()
	// Guests get a synthetic unique username to satisfy the constraint.
	// The display name rides along verbatim so it survives a session
	// lookup; the timestamp sits before it so colons in the name parse.
	res, err := m.db.ExecContext(ctx, `
INSERT INTO accounts (username, password_hash, guest, created_at_ms, last_login_at_ms)
VALUES (?, NULL, 1, ?, ?);`, fmt.Sprintf("guest:%d:%s", nowMs, name), nowMs, nowMs)
	if err != nil {
		return Account{}, "", err
	}
	accountID, err := res.LastInsertId()
	if err != nil {
		return Account{}, "", err
	}
	token, err := m.insertSession(ctx, m.db, uint64(accountID), guestSessionTTL)
	if err != nil {
		return Account{}, "", err
	}
	return Account{ID: uint64(accountID), Username: name, Guest: true}, token, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (m *SQLiteManager) insertSession(ctx context.Context, db execer, accountID uint64, ttl time.Duration) (string, error) {
	token := mustToken()
	expiresMs := time.Now().Add(ttl).UTC().UnixMilli()
	if _, err := db.ExecContext(ctx, `
INSERT INTO sessions (token, account_id, expires_at_ms) VALUES (?, ?, ?);`,
		token, accountID, expiresMs); err != nil {
		return "", err
	}
	return token, nil
}

func (m *SQLiteManager) ResolveSession(token string) (Account, bool) {
	if token == "" {
		return Account{}, false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var (
		acct      Account
		guest     int
		expiresMs int64
	)
	err := m.db.QueryRowContext(ctx, `
SELECT a.id, a.username, a.guest, s.expires_at_ms
FROM sessions s JOIN accounts a ON a.id = s.account_id
WHERE s.token = ?;`, token).Scan(&acct.ID, &acct.Username, &guest, &expiresMs)
	if err != nil {
		return Account{}, false
	}

	nowMs := time.Now().UTC().UnixMilli()
	if nowMs >= expiresMs {
		_, _ = m.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?;`, token)
		return Account{}, false
	}

	// Sliding expiry, same as the in-memory manager.
	newExpiry := time.Now().Add(m.sessionTTL).UTC().UnixMilli()
	_, _ = m.db.ExecContext(ctx, `UPDATE sessions SET expires_at_ms = ? WHERE token = ?;`, newExpiry, token)

	acct.Guest = guest != 0
	if acct.Guest {
		acct.Username = guestDisplayName(acct.Username)
	}
	return acct, true
}

func (m *SQLiteManager) Logout(token string) {
	if token == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, _ = m.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?;`, token)
}

func (m *SQLiteManager) Close() error {
	if m == nil || m.db == nil {
		return nil
	}
	return m.db.Close()
}

// guestDisplayName strips the "guest:<ts>:<name>" synthetic username
// back to the display name.
func guestDisplayName(stored string) string {
	parts := strings.SplitN(stored, ":", 3)
	if len(parts) == 3 && parts[0] == "guest" && parts[2] != "" {
		return parts[2]
	}
	return "Guest"
}
