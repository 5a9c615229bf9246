package lyra

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
)

// Request is an outbound API call handled by the auth manager. The retry
// counter lives on the request itself so the at-most-once refresh retry is
// enforced structurally rather than by convention.
type Request struct {
	Method string
	Path   string

	// Body is JSON-encoded when non-nil.
	Body any

	// Form is form-encoded and takes precedence over Body.
	Form url.Values

	retryCount int
}

// AuthManager owns the session: the token pair, the verified user, and the
// authenticated request path. UI code reads the session through Subscribe
// and never mutates it directly.
type AuthManager struct {
	client *Client

	mu        sync.RWMutex
	session   Session
	state     SessionState
	listeners map[int]func(Session, SessionState)
	nextID    int

	// refreshMu serializes token refreshes so concurrent requests that each
	// hit a 401 trigger a single refresh call instead of a stampede.
	refreshMu sync.Mutex
}

func newAuthManager(c *Client) *AuthManager {
	a := &AuthManager{
		client:    c,
		state:     SessionUnauthenticated,
		listeners: make(map[int]func(Session, SessionState)),
	}
	if c.store != nil {
		access, refresh, err := c.store.LoadTokens()
		if err != nil {
			c.logger.Warn("credential store read failed, starting without tokens", "error", err)
		} else {
			a.session.AccessToken = access
			a.session.RefreshToken = refresh
		}
	}
	return a
}

// Session returns a copy of the current session.
func (a *AuthManager) Session() Session {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.session
}

// State returns the current session state.
func (a *AuthManager) State() SessionState {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state
}

// Subscribe registers a listener notified after every session change. The
// returned function removes the listener.
func (a *AuthManager) Subscribe(fn func(Session, SessionState)) func() {
	a.mu.Lock()
	id := a.nextID
	a.nextID++
	a.listeners[id] = fn
	a.mu.Unlock()

	return func() {
		a.mu.Lock()
		delete(a.listeners, id)
		a.mu.Unlock()
	}
}

func (a *AuthManager) notify() {
	a.mu.RLock()
	session := a.session
	state := a.state
	fns := make([]func(Session, SessionState), 0, len(a.listeners))
	for _, fn := range a.listeners {
		fns = append(fns, fn)
	}
	a.mu.RUnlock()

	for _, fn := range fns {
		fn(session, state)
	}
}

type tokenPairResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type,omitempty"`
	ExpiresIn    int    `json:"expires_in,omitempty"`
}

type verifyResponse struct {
	Valid bool `json:"valid"`
	User
}

// Login authenticates with the backend, persists the issued token pair, and
// fetches the verified user identity. A 400/401 from the backend maps to
// ErrInvalidCredentials.
func (a *AuthManager) Login(ctx context.Context, username, password string) (Session, error) {
	a.setState(SessionAuthenticating)

	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	var tokens tokenPairResponse
	if err := a.callUnauthenticated(ctx, http.MethodPost, "/auth/login", form, nil, &tokens); err != nil {
		a.setState(SessionUnauthenticated)
		var apiErr *APIError
		if errors.As(err, &apiErr) && (apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusBadRequest) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, err
	}

	a.setTokens(tokens.AccessToken, tokens.RefreshToken)

	user, err := a.fetchUser(ctx)
	if err != nil {
		a.clearSession()
		return Session{}, err
	}

	a.setUser(user)
	a.client.logger.Info("logged in", "username", user.Username, "tier", user.Tier)
	return a.Session(), nil
}

// Logout clears the in-memory session and any persisted tokens. It never
// calls the network and always succeeds.
func (a *AuthManager) Logout() {
	a.clearSession()
	a.client.logger.Info("logged out")
}

// Verify restores a session from persisted tokens at startup. With no access
// token held it fails with ErrUnauthenticated without issuing a network call.
func (a *AuthManager) Verify(ctx context.Context) (Session, error) {
	if a.accessToken() == "" {
		return Session{}, ErrUnauthenticated
	}

	a.setState(SessionAuthenticating)

	user, err := a.fetchUser(ctx)
	if err != nil {
		a.clearSession()
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
			return Session{}, ErrUnauthenticated
		}
		return Session{}, err
	}

	a.setUser(user)
	return a.Session(), nil
}

// Register creates a new account. Field validation runs client-side before
// any network call: the password must be at least 8 characters and match its
// confirmation.
func (a *AuthManager) Register(ctx context.Context, email, username, password, confirmation string) error {
	if len(password) < 8 {
		return &ValidationError{Field: "password", Message: "must be at least 8 characters"}
	}
	if password != confirmation {
		return &ValidationError{Field: "password_confirmation", Message: "passwords do not match"}
	}

	body := struct {
		Email    string `json:"email"`
		Username string `json:"username"`
		Password string `json:"password"`
	}{Email: email, Username: username, Password: password}

	return a.callUnauthenticated(ctx, http.MethodPost, "/auth/register", nil, body, nil)
}

// Do executes an authenticated request. The access token is attached when
// present; on a 401 the token pair is refreshed once and the original
// request retried once with the new token. A failed refresh clears the
// session, fires the session-expired handler, and returns ErrUnauthenticated.
func (a *AuthManager) Do(ctx context.Context, req *Request) (*http.Response, error) {
	access := a.accessToken()

	resp, err := a.send(ctx, req, access)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusUnauthorized || req.retryCount > 0 {
		return resp, nil
	}
	resp.Body.Close()

	req.retryCount++
	if err := a.refreshTokens(ctx, access); err != nil {
		return nil, err
	}
	return a.Do(ctx, req)
}

// DoJSON executes an authenticated request and decodes a JSON response into
// out (which may be nil). Error responses are returned as *APIError.
func (a *AuthManager) DoJSON(ctx context.Context, req *Request, out any) error {
	resp, err := a.Do(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Op: "read " + req.Path, URL: a.client.endpoint(req.Path), Err: err}
	}
	if resp.StatusCode >= 400 {
		return parseAPIError(resp.StatusCode, body)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s response: %w", req.Path, err)
	}
	return nil
}

func (a *AuthManager) fetchUser(ctx context.Context) (*User, error) {
	var verified verifyResponse
	if err := a.DoJSON(ctx, &Request{Method: http.MethodGet, Path: "/auth/verify"}, &verified); err != nil {
		return nil, err
	}
	if !verified.Valid {
		return nil, ErrUnauthenticated
	}
	user := verified.User
	return &user, nil
}

// refreshTokens exchanges the refresh token for a new pair. stale is the
// access token the failing request was sent with: when another request
// already refreshed in the meantime, the refresh is skipped.
func (a *AuthManager) refreshTokens(ctx context.Context, stale string) error {
	a.refreshMu.Lock()
	defer a.refreshMu.Unlock()

	a.mu.RLock()
	current := a.session.AccessToken
	refresh := a.session.RefreshToken
	a.mu.RUnlock()

	if current != stale && current != "" {
		return nil
	}
	if refresh == "" {
		a.expireSession()
		return ErrUnauthenticated
	}

	body := struct {
		RefreshToken string `json:"refresh_token"`
	}{RefreshToken: refresh}

	var tokens tokenPairResponse
	if err := a.callUnauthenticated(ctx, http.MethodPost, "/auth/refresh", nil, body, &tokens); err != nil {
		a.client.logger.Warn("token refresh rejected", "error", err)
		a.expireSession()
		return ErrUnauthenticated
	}

	a.setTokens(tokens.AccessToken, tokens.RefreshToken)
	a.client.logger.Debug("token pair refreshed")
	return nil
}

// callUnauthenticated issues a request without a bearer token and without
// the refresh interceptor. Used for login, register, and refresh itself.
func (a *AuthManager) callUnauthenticated(ctx context.Context, method, path string, form url.Values, body, out any) error {
	resp, err := a.send(ctx, &Request{Method: method, Path: path, Form: form, Body: body}, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Op: "read " + path, URL: a.client.endpoint(path), Err: err}
	}
	if resp.StatusCode >= 400 {
		return parseAPIError(resp.StatusCode, data)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// send builds and executes a single HTTP request. The body is re-encoded on
// every call so a retried request is always replayable.
func (a *AuthManager) send(ctx context.Context, req *Request, access string) (*http.Response, error) {
	endpoint := a.client.endpoint(req.Path)

	var payload io.Reader
	contentType := ""
	switch {
	case req.Form != nil:
		payload = strings.NewReader(req.Form.Encode())
		contentType = "application/x-www-form-urlencoded"
	case req.Body != nil:
		encoded, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encode %s request: %w", req.Path, err)
		}
		payload = bytes.NewReader(encoded)
		contentType = "application/json"
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, endpoint, payload)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", req.Path, err)
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if access != "" {
		httpReq.Header.Set("Authorization", "Bearer "+access)
	}

	resp, err := a.client.httpClient.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Op: req.Method + " " + req.Path, URL: endpoint, Err: err}
	}
	return resp, nil
}

func (a *AuthManager) accessToken() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.session.AccessToken
}

func (a *AuthManager) setState(state SessionState) {
	a.mu.Lock()
	changed := a.state != state
	a.state = state
	a.mu.Unlock()
	if changed {
		a.notify()
	}
}

func (a *AuthManager) setTokens(access, refresh string) {
	a.mu.Lock()
	a.session.AccessToken = access
	a.session.RefreshToken = refresh
	a.mu.Unlock()
	a.persistTokens(access, refresh)
}

func (a *AuthManager) setUser(user *User) {
	a.mu.Lock()
	a.session.User = user
	a.state = SessionAuthenticated
	a.mu.Unlock()
	a.notify()
}

func (a *AuthManager) clearSession() {
	a.mu.Lock()
	a.session = Session{}
	a.state = SessionUnauthenticated
	a.mu.Unlock()

	if a.client.store != nil {
		if err := a.client.store.ClearTokens(); err != nil {
			a.client.logger.Warn("credential store clear failed", "error", err)
		}
	}
	a.notify()
}

// expireSession clears the session and signals the UI to redirect to login.
func (a *AuthManager) expireSession() {
	a.clearSession()
	if a.client.onExpired != nil {
		a.client.onExpired()
	}
}

func (a *AuthManager) persistTokens(access, refresh string) {
	if a.client.store == nil {
		return
	}
	if err := a.client.store.SaveTokens(access, refresh); err != nil {
		a.client.logger.Warn("credential store write failed", "error", err)
	}
}
