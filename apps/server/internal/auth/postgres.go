package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"golang.org/x/crypto/bcrypt"
)

type PostgresManager struct {
	db         *sql.DB
	sessionTTL time.Duration
}

func NewPostgresManagerFromEnv() (*PostgresManager, error) {
	dsn := strings.TrimSpace(os.Getenv("AUTH_DATABASE_URL"))
	if dsn == "" {
		dsn = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	}
	if dsn == "" {
		return nil, fmt.Errorf("AUTH_DATABASE_URL or DATABASE_URL is required for postgres auth")
	}
	return NewPostgresManager(dsn, defaultSessionTTL)
}

func NewPostgresManager(dsn string, sessionTTL time.Duration) (*PostgresManager, error) {
	if sessionTTL <= 0 {
		sessionTTL = defaultSessionTTL
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := ensurePostgresAuthSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &PostgresManager{db: db, sessionTTL: sessionTTL}, nil
}

func ensurePostgresAuthSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS accounts (
    id               BIGSERIAL PRIMARY KEY,
    username         TEXT NOT NULL UNIQUE,
    password_hash    BYTEA,
    guest            BOOLEAN NOT NULL DEFAULT FALSE,
    created_at_ms    BIGINT NOT NULL,
    last_login_at_ms BIGINT NOT NULL
);
CREATE TABLE IF NOT EXISTS sessions (
    token         TEXT PRIMARY KEY,
    account_id    BIGINT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
    expires_at_ms BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sessions_account ON sessions(account_id);`)
	return err
}

func (m *PostgresManager) Register(username, password string) (Account, string, error) {
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
	var accountID uint64
	err = tx.QueryRowContext(ctx, `
INSERT INTO accounts (username, password_hash, guest, created_at_ms, last_login_at_ms)
VALUES ($1, $2, FALSE, $3, $3)
ON CONFLICT (username) DO NOTHING
RETURNING id;`, normalized, passwordHash, nowMs).Scan(&accountID)
	if errors.Is(err, sql.ErrNoRows) {
		return Account{}, "", ErrUsernameTaken
	}
	if err != nil {
		return Account{}, "", err
	}

	token, err := m.insertSession(ctx, tx, accountID, m.sessionTTL)
	if err != nil {
		return Account{}, "", err
	}
	if err := tx.Commit(); err != nil {
		return Account{}, "", err
	}
	return Account{ID: accountID, Username: normalized}, token, nil
}

func (m *PostgresManager) Login(username, password string) (Account, string, error) {
	normalized := normalizeUsername(username)
	if normalized == "" || password == "" {
		return Account{}, "", ErrInvalidCredentials
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var (
		accountID uint64
		hash      []byte
		guest     bool
	)
	err := m.db.QueryRowContext(ctx, `
SELECT id, password_hash, guest FROM accounts WHERE username = $1;`, normalized).
		Scan(&accountID, &hash, &guest)
	if errors.Is(err, sql.ErrNoRows) {
		return Account{}, "", ErrInvalidCredentials
	}
	if err != nil {
		return Account{}, "", err
	}
	if guest || len(hash) == 0 {
		return Account{}, "", ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword(hash, []byte(password)) != nil {
		return Account{}, "", ErrInvalidCredentials
	}

	nowMs := time.Now().UTC().UnixMilli()
	if _, err := m.db.ExecContext(ctx, `
UPDATE accounts SET last_login_at_ms = $1 WHERE id = $2;`, nowMs, accountID); err != nil {
		return Account{}, "", err
	}
	token, err := m.insertSession(ctx, m.db, accountID, m.sessionTTL)
	if err != nil {
		return Account{}, "", err
	}
	return Account{ID: accountID, Username: normalized}, token, nil
}

func (m *PostgresManager) Guest(displayName string) (Account, string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	name := sanitizeDisplayName(displayName)
	nowMs := time.Now().UTC().UnixMilli()
	var accountID uint64
	err := m.db.QueryRowContext(ctx, `
INSERT INTO accounts (username, password_hash, guest, created_at_ms, last_login_at_ms)
VALUES ($1, NULL, TRUE, $2, $2)
RETURNING id;`, fmt.Sprintf("guest:%d:%s", nowMs, name), nowMs).Scan(&accountID)
	if err != nil {
		return Account{}, "", err
	}
	token, err := m.insertSession(ctx, m.db, accountID, guestSessionTTL)
	if err != nil {
		return Account{}, "", err
	}
	return Account{ID: accountID, Username: name, Guest: true}, token, nil
}

func (m *PostgresManager) insertSession(ctx context.Context, db execer, accountID uint64, ttl time.Duration) (string, error) {
	token := mustToken()
	expiresMs := time.Now().Add(ttl).UTC().UnixMilli()
	if _, err := db.ExecContext(ctx, `
INSERT INTO sessions (token, account_id, expires_at_ms) VALUES ($1, $2, $3);`,
		token, accountID, expiresMs); err != nil {
		return "", err
	}
	return token, nil
}

func (m *PostgresManager) ResolveSession(token string) (Account, bool) {
	if token == "" {
		return Account{}, false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var (
		acct      Account
		guest     bool
		expiresMs int64
	)
	err := m.db.QueryRowContext(ctx, `
SELECT a.id, a.username, a.guest, s.expires_at_ms
FROM sessions s JOIN accounts a ON a.id = s.account_id
WHERE s.token = $1;`, token).Scan(&acct.ID, &acct.Username, &guest, &expiresMs)
	if err != nil {
		return Account{}, false
	}

	nowMs := time.Now().UTC().UnixMilli()
	if nowMs >= expiresMs {
		_, _ = m.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = $1;`, token)
		return Account{}, false
	}

	newExpiry := time.Now().Add(m.sessionTTL).UTC().UnixMilli()
	_, _ = m.db.ExecContext(ctx, `UPDATE sessions SET expires_at_ms = $1 WHERE token = $2;`, newExpiry, token)

	acct.Guest = guest
	if acct.Guest {
		acct.Username = guestDisplayName(acct.Username)
	}
	return acct, true
}

func (m *PostgresManager) Logout(token string) {
	if token == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, _ = m.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = $1;`, token)
}

func (m *PostgresManager) Close() error {
	if m == nil || m.db == nil {
		return nil
	}
	return m.db.Close()
}
