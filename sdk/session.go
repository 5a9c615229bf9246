package lyra

// User is the verified identity attached to an authenticated session.
type User struct {
	ID       int64  `json:"user_id"`
	Username string `json:"username"`
	Tier     string `json:"tier"`
	IsAdmin  bool   `json:"is_admin"`
}

// Session is the current authenticated identity. Tokens are opaque bearer
// strings issued by the backend; the client never parses their contents.
//
// User is non-nil exactly when a verified access token is held.
type Session struct {
	AccessToken  string
	RefreshToken string
	User         *User
}

// Authenticated reports whether the session holds a verified identity.
func (s Session) Authenticated() bool {
	return s.User != nil
}

// SessionState is the coarse lifecycle of the session.
type SessionState int

const (
	// SessionUnauthenticated means no session is held.
	SessionUnauthenticated SessionState = iota
	// SessionAuthenticating is the transient state while a login or
	// verification is in flight. Only observable as a loading flag.
	SessionAuthenticating
	// SessionAuthenticated means a verified identity is held.
	SessionAuthenticated
)

// String returns a human-readable state name.
func (s SessionState) String() string {
	switch s {
	case SessionUnauthenticated:
		return "UNAUTHENTICATED"
	case SessionAuthenticating:
		return "AUTHENTICATING"
	case SessionAuthenticated:
		return "AUTHENTICATED"
	default:
		return "UNKNOWN"
	}
}

// CredentialStore persists the token pair across restarts. Implementations
// are best-effort: a failing store degrades the session to memory-only and
// must not break the auth flow.
type CredentialStore interface {
	// LoadTokens returns the persisted token pair, empty strings when absent.
	LoadTokens() (access, refresh string, err error)

	// SaveTokens replaces the persisted token pair. Writes are idempotent
	// replacements, last writer wins.
	SaveTokens(access, refresh string) error

	// ClearTokens removes any persisted tokens.
	ClearTokens() error
}
