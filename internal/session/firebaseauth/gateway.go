// Package firebaseauth implements the session gateway against the
// Google Identity Toolkit (Firebase email/password authentication).
// Verified sessions are persisted to disk so the client stays signed in
// across runs; ID tokens are refreshed through the secure token
// endpoint on demand.
package firebaseauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	identitytoolkit "google.golang.org/api/identitytoolkit/v3"
	"google.golang.org/api/option"

	"taskpad/internal/session"
)

const (
	// refreshEndpoint exchanges refresh tokens for fresh ID tokens.
	refreshEndpoint = "https://securetoken.googleapis.com/v1/token"

	// authTimeout bounds login and signup calls.
	authTimeout = 30 * time.Second

	// idTokenLifetime is how long a freshly issued ID token is trusted
	// before the token source refreshes it.
	idTokenLifetime = 55 * time.Minute
)

// storedSession is the on-disk session format (mode 0600).
type storedSession struct {
	UID          string    `json:"uid"`
	Email        string    `json:"email"`
	IDToken      string    `json:"id_token"`
	RefreshToken string    `json:"refresh_token"`
	Expiry       time.Time `json:"expiry"`
}

// Gateway implements session.Gateway using the Identity Toolkit API.
type Gateway struct {
	svc       *identitytoolkit.Service
	apiKey    string
	tokenPath string
	log       *zap.Logger

	mu        sync.Mutex
	current   *session.Identity
	stored    *storedSession
	listeners map[int]func(*session.Identity)
	nextID    int
}

// New creates a gateway for the given API key, restoring any session
// persisted at tokenPath.
func New(ctx context.Context, apiKey, tokenPath string, log *zap.Logger) (*Gateway, error) {
	svc, err := identitytoolkit.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create identity service: %w", err)
	}

	g := &Gateway{
		svc:       svc,
		apiKey:    apiKey,
		tokenPath: tokenPath,
		log:       log,
		listeners: make(map[int]func(*session.Identity)),
	}
	g.restore()
	return g, nil
}

// restore loads a previously persisted session, if any. An unreadable
// file is treated as no session; the user just signs in again.
func (g *Gateway) restore() {
	data, err := os.ReadFile(g.tokenPath)
	if err != nil {
		return
	}
	var st storedSession
	if err := json.Unmarshal(data, &st); err != nil || st.UID == "" || st.RefreshToken == "" {
		g.log.Warn("ignoring unreadable session file", zap.String("path", g.tokenPath))
		return
	}
	g.stored = &st
	g.current = &session.Identity{UID: st.UID, Email: st.Email}
}

// Current returns the authenticated identity, or nil when signed out.
func (g *Gateway) Current() *session.Identity {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.current == nil {
		return nil
	}
	id := *g.current
	return &id
}

// Login verifies the credentials with the identity provider and, on
// success, persists the session and notifies listeners.
func (g *Gateway) Login(ctx context.Context, email, password string) error {
	ctx, cancel := context.WithTimeout(ctx, authTimeout)
	defer cancel()

	resp, err := g.svc.Relyingparty.VerifyPassword(&identitytoolkit.IdentitytoolkitRelyingpartyVerifyPasswordRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	return g.establish(resp.LocalId, resp.Email, resp.IdToken, resp.RefreshToken)
}

// Signup registers a new account and signs it in.
func (g *Gateway) Signup(ctx context.Context, email, password string) error {
	ctx, cancel := context.WithTimeout(ctx, authTimeout)
	defer cancel()

	resp, err := g.svc.Relyingparty.SignupNewUser(&identitytoolkit.IdentitytoolkitRelyingpartySignupNewUserRequest{
		Email:    email,
		Password: password,
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("signup failed: %w", err)
	}

	return g.establish(resp.LocalId, resp.Email, resp.IdToken, resp.RefreshToken)
}

// Logout discards the persisted session and notifies listeners. The
// task store reacts by dropping the remote list and falling back to
// local mode.
func (g *Gateway) Logout() error {
	if err := os.Remove(g.tokenPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove session: %w", err)
	}

	g.mu.Lock()
	g.current = nil
	g.stored = nil
	g.mu.Unlock()

	g.notify(nil)
	return nil
}

// OnChange registers a listener for identity transitions.
func (g *Gateway) OnChange(fn func(*session.Identity)) (cancel func()) {
	g.mu.Lock()
	id := g.nextID
	g.nextID++
	g.listeners[id] = fn
	g.mu.Unlock()

	return func() {
		g.mu.Lock()
		delete(g.listeners, id)
		g.mu.Unlock()
	}
}

// TokenSource returns per-user credentials for the remote adapter. The
// ID token doubles as the bearer token; refreshes go through the secure
// token endpoint using the stored refresh token.
func (g *Gateway) TokenSource(ctx context.Context) oauth2.TokenSource {
	g.mu.Lock()
	st := g.stored
	g.mu.Unlock()
	if st == nil {
		return nil
	}

	conf := &oauth2.Config{
		Endpoint: oauth2.Endpoint{
			TokenURL: refreshEndpoint + "?key=" + url.QueryEscape(g.apiKey),
		},
	}
	return conf.TokenSource(ctx, &oauth2.Token{
		AccessToken:  st.IDToken,
		RefreshToken: st.RefreshToken,
		Expiry:       st.Expiry,
	})
}

// establish records a verified session, persists it and notifies
// listeners.
func (g *Gateway) establish(uid, email, idToken, refreshToken string) error {
	st := &storedSession{
		UID:          uid,
		Email:        email,
		IDToken:      idToken,
		RefreshToken: refreshToken,
		Expiry:       time.Now().Add(idTokenLifetime),
	}
	if err := saveSession(g.tokenPath, st); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}

	id := &session.Identity{UID: uid, Email: email}
	g.mu.Lock()
	g.current = id
	g.stored = st
	g.mu.Unlock()

	g.notify(id)
	return nil
}

// notify calls every listener with its own copy of the identity.
func (g *Gateway) notify(id *session.Identity) {
	g.mu.Lock()
	fns := make([]func(*session.Identity), 0, len(g.listeners))
	for _, fn := range g.listeners {
		fns = append(fns, fn)
	}
	g.mu.Unlock()

	for _, fn := range fns {
		if id == nil {
			fn(nil)
			continue
		}
		cp := *id
		fn(&cp)
	}
}

// saveSession writes the session file with mode 0600.
func saveSession(path string, st *storedSession) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
