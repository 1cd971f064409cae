package auth

import (
	"testing"
	"time"
)

func TestRegisterAndLogin(t *testing.T) {
	m := NewManager()

	acct, token, err := m.Register("alice", "secret123")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if acct.ID == 0 || token == "" {
		t.Fatalf("expected account id and token, got %+v / %q", acct, token)
	}
	if acct.Username != "alice" {
		t.Fatalf("username = %q", acct.Username)
	}

	got, ok := m.ResolveSession(token)
	if !ok || got.ID != acct.ID {
		t.Fatalf("resolve after register failed: %+v ok=%v", got, ok)
	}

	again, token2, err := m.Login("Alice", "secret123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if again.ID != acct.ID {
		t.Fatalf("login resolved different account: %d != %d", again.ID, acct.ID)
	}
	if token2 == token {
		t.Fatal("login should issue a fresh token")
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	m := NewManager()
	if _, _, err := m.Register("bob", "secret123"); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, _, err := m.Register("BOB", "other-secret"); err != ErrUsernameTaken {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	m := NewManager()
	if _, _, err := m.Register("x", "secret123"); err != ErrInvalidUsername {
		t.Fatalf("short username: %v", err)
	}
	if _, _, err := m.Register("has spaces", "secret123"); err != ErrInvalidUsername {
		t.Fatalf("spaced username: %v", err)
	}
	if _, _, err := m.Register("carol", "short"); err != ErrInvalidPassword {
		t.Fatalf("short password: %v", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	m := NewManager()
	if _, _, err := m.Register("dave", "secret123"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, _, err := m.Login("dave", "wrong-pass"); err != ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, err := m.Login("nobody", "secret123"); err != ErrInvalidCredentials {
		t.Fatalf("unknown user: %v", err)
	}
}

func TestGuestSession(t *testing.T) {
	m := NewManager()

	acct, token, err := m.Guest("  Visitor  ")
	if err != nil {
		t.Fatalf("guest: %v", err)
	}
	if !acct.Guest {
		t.Fatal("expected guest account")
	}
	if acct.Username != "Visitor" {
		t.Fatalf("display name not trimmed: %q", acct.Username)
	}

	got, ok := m.ResolveSession(token)
	if !ok || !got.Guest || got.ID != acct.ID {
		t.Fatalf("resolve guest failed: %+v ok=%v", got, ok)
	}

	// Guests cannot log in with a password.
	if _, _, err := m.Login(acct.Username, "anything1"); err != ErrInvalidCredentials {
		t.Fatalf("guest login should fail: %v", err)
	}
}

func TestGuestDefaultName(t *testing.T) {
	m := NewManager()
	acct, _, err := m.Guest("   ")
	if err != nil {
		t.Fatalf("guest: %v", err)
	}
	if acct.Username != "Guest" {
		t.Fatalf("expected fallback name, got %q", acct.Username)
	}
}

func TestSessionExpiry(t *testing.T) {
	m := NewManager()
	acct, _, err := m.Register("erin", "secret123")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	now := time.Now()
	m.mu.Lock()
	token := m.issueSessionLocked(acct.ID, time.Minute, now)
	m.mu.Unlock()

	m.mu.Lock()
	_, ok := m.resolveSessionLocked(token, now.Add(30*time.Second))
	m.mu.Unlock()
	if !ok {
		t.Fatal("session should still be valid")
	}

	m.mu.Lock()
	// Sliding expiry pushed it out to sessionTTL from last resolve.
	_, ok = m.resolveSessionLocked(token, now.Add(m.sessionTTL+31*time.Second))
	m.mu.Unlock()
	if ok {
		t.Fatal("session should have expired")
	}
}

func TestLogout(t *testing.T) {
	m := NewManager()
	_, token, err := m.Register("frank", "secret123")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	m.Logout(token)
	if _, ok := m.ResolveSession(token); ok {
		t.Fatal("session should be gone after logout")
	}
}
