package auth

import (
	"path/filepath"
	"testing"
	"time"
)

func newTestSQLiteManager(t *testing.T) *SQLiteManager {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "auth_test.db")
	m, err := NewSQLiteManager(dbPath, time.Hour)
	if err != nil {
		t.Fatalf("open sqlite manager: %v", err)
	}
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func TestSQLiteRegisterLoginRoundTrip(t *testing.T) {
	m := newTestSQLiteManager(t)

	acct, token, err := m.Register("alice", "secret123")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if acct.ID == 0 || token == "" {
		t.Fatalf("bad register result: %+v / %q", acct, token)
	}

	got, ok := m.ResolveSession(token)
	if !ok || got.ID != acct.ID || got.Username != "alice" {
		t.Fatalf("resolve: %+v ok=%v", got, ok)
	}

	if _, _, err := m.Register("Alice", "another1"); err != ErrUsernameTaken {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}

	again, _, err := m.Login("ALICE", "secret123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if again.ID != acct.ID {
		t.Fatalf("login account mismatch: %d != %d", again.ID, acct.ID)
	}
	if _, _, err := m.Login("alice", "wrong-pass"); err != ErrInvalidCredentials {
		t.Fatalf("wrong password: %v", err)
	}
}

func TestSQLiteGuestKeepsDisplayName(t *testing.T) {
	m := newTestSQLiteManager(t)

	acct, token, err := m.Guest("Wanderer")
	if err != nil {
		t.Fatalf("guest: %v", err)
	}
	if !acct.Guest || acct.Username != "Wanderer" {
		t.Fatalf("guest account: %+v", acct)
	}

	got, ok := m.ResolveSession(token)
	if !ok || !got.Guest {
		t.Fatalf("resolve guest: %+v ok=%v", got, ok)
	}
	if got.Username != "Wanderer" {
		t.Fatalf("display name lost through storage: %q", got.Username)
	}

	// Colons in the name must survive the synthetic username format.
	_, token2, err := m.Guest("Dr: Strange")
	if err != nil {
		t.Fatalf("guest: %v", err)
	}
	got2, ok := m.ResolveSession(token2)
	if !ok || got2.Username != "Dr: Strange" {
		t.Fatalf("colon name lost: %+v ok=%v", got2, ok)
	}
}

func TestSQLiteLogout(t *testing.T) {
	m := newTestSQLiteManager(t)

	_, token, err := m.Register("bob", "secret123")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	m.Logout(token)
	if _, ok := m.ResolveSession(token); ok {
		t.Fatal("session should be gone after logout")
	}
}
