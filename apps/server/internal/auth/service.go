package auth

// Account is the resolved identity behind a session token.
type Account struct {
	ID       uint64
	Username string
	Guest    bool
}

// Service is the auth/session contract consumed by gateway and HTTP handlers.
type Service interface {
	Register(username, password string) (Account, string, error)
	Login(username, password string) (Account, string, error)
	// Guest creates a throwaway account so players can join a match by
	// code without registering.
	Guest(displayName string) (Account, string, error)
	ResolveSession(token string) (Account, bool)
	Logout(token string)
	Close() error
}
