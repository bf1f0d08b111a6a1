package core

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"golang.org/x/sync/singleflight"
)

type CredentialKind string

const (
	CredentialApplication CredentialKind = "application"
	CredentialDelegated   CredentialKind = "delegated"
)

// TokenSet is the token material returned by an OAuth grant. Scopes and
// RefreshToken only apply to delegated credentials.
type TokenSet struct {
	AccessToken  string
	ExpiresAt    time.Time
	Scopes       []Scope
	RefreshToken string
}

func (t TokenSet) clone() TokenSet {
	t.Scopes = append([]Scope(nil), t.Scopes...)
	return t
}

type RefreshHook func(ctx context.Context, kind CredentialKind, token TokenSet)

type CredentialOption func(*Credential)

// WithRefreshHook registers a callback invoked after every successful refresh.
func WithRefreshHook(hook RefreshHook) CredentialOption {
	return func(c *Credential) {
		c.hook = hook
	}
}

// Credential is the token held by a client. Refresh replaces every field in
// place so all holders of the pointer observe the new token.
type Credential struct {
	kind      CredentialKind
	refresher Refresher
	hook      RefreshHook

	mu    sync.RWMutex
	token TokenSet

	refreshGroup singleflight.Group
}

func NewApplicationCredential(refresher Refresher, token TokenSet, opts ...CredentialOption) (*Credential, error) {
	if refresher == nil {
		return nil, fmt.Errorf("core: application credential requires a refresher")
	}
	token = applicationToken(token)
	return newCredential(CredentialApplication, refresher, token, opts), nil
}

func NewDelegatedCredential(refresher Refresher, token TokenSet, opts ...CredentialOption) (*Credential, error) {
	if refresher == nil {
		return nil, fmt.Errorf("core: delegated credential requires a refresher")
	}
	if strings.TrimSpace(token.RefreshToken) == "" {
		return nil, fmt.Errorf("core: delegated credential requires a refresh token")
	}
	return newCredential(CredentialDelegated, refresher, token.clone(), opts), nil
}

func newCredential(kind CredentialKind, refresher Refresher, token TokenSet, opts []CredentialOption) *Credential {
	cred := &Credential{
		kind:      kind,
		refresher: refresher,
		token:     token,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(cred)
	}
	return cred
}

func (c *Credential) Kind() CredentialKind {
	return c.kind
}

func (c *Credential) IsDelegated() bool {
	return c != nil && c.kind == CredentialDelegated
}

func (c *Credential) AccessToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token.AccessToken
}

func (c *Credential) ExpiresAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token.ExpiresAt
}

func (c *Credential) Scopes() []Scope {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Scope(nil), c.token.Scopes...)
}

func (c *Credential) RefreshToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token.RefreshToken
}

// Token returns a snapshot of every field.
func (c *Credential) Token() TokenSet {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token.clone()
}

func (c *Credential) HasScope(scope Scope) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, held := range c.token.Scopes {
		if held == scope {
			return true
		}
	}
	return false
}

// Refresh runs the grant for this credential's kind and swaps in the result.
// Concurrent calls share a single grant, which runs detached from any one
// caller's cancellation; a cancelled caller stops waiting and gets ctx.Err().
func (c *Credential) Refresh(ctx context.Context) (TokenSet, error) {
	return c.refresh(ctx, "")
}

// refresh skips the grant when stale is set and the access token already
// moved past it.
func (c *Credential) refresh(ctx context.Context, stale string) (TokenSet, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if stale != "" {
		if current := c.Token(); current.AccessToken != stale {
			return current, nil
		}
	}
	flightCtx := context.WithoutCancel(ctx)
	flight := c.refreshGroup.DoChan("refresh", func() (any, error) {
		if stale != "" {
			if current := c.Token(); current.AccessToken != stale {
				return current, nil
			}
		}
		next, grantErr := c.grant(flightCtx)
		if grantErr != nil {
			return TokenSet{}, grantErr
		}
		c.mu.Lock()
		c.token = next
		c.mu.Unlock()
		if c.hook != nil {
			c.hook(flightCtx, c.kind, next.clone())
		}
		return next, nil
	})
	select {
	case <-ctx.Done():
		return TokenSet{}, ctx.Err()
	case result := <-flight:
		if result.Err != nil {
			return TokenSet{}, result.Err
		}
		token, _ := result.Val.(TokenSet)
		return token.clone(), nil
	}
}

func (c *Credential) grant(ctx context.Context) (TokenSet, error) {
	switch c.kind {
	case CredentialApplication:
		token, err := c.refresher.ApplicationToken(ctx)
		if err != nil {
			return TokenSet{}, refreshFailure(c.kind, err)
		}
		if strings.TrimSpace(token.AccessToken) == "" {
			return TokenSet{}, refreshFailure(c.kind, fmt.Errorf("core: token endpoint returned no access token"))
		}
		return applicationToken(token), nil
	case CredentialDelegated:
		previous := c.Token()
		token, err := c.refresher.RefreshToken(ctx, previous.RefreshToken)
		if err != nil {
			return TokenSet{}, refreshFailure(c.kind, err)
		}
		if strings.TrimSpace(token.AccessToken) == "" {
			return TokenSet{}, refreshFailure(c.kind, fmt.Errorf("core: token endpoint returned no access token"))
		}
		if strings.TrimSpace(token.RefreshToken) == "" {
			token.RefreshToken = previous.RefreshToken
		}
		if len(token.Scopes) == 0 {
			token.Scopes = previous.Scopes
		}
		return token.clone(), nil
	default:
		return TokenSet{}, fmt.Errorf("core: unknown credential kind %q", c.kind)
	}
}

func refreshFailure(kind CredentialKind, err error) error {
	if IsKind(err, ErrorCredentialRefreshFailed) {
		return err
	}
	var richErr *goerrors.Error
	refreshErr := NewCredentialRefreshError(kind, err)
	if goerrors.As(err, &richErr) && len(richErr.Metadata) > 0 {
		refreshErr = refreshErr.WithMetadata(richErr.Metadata)
		refreshErr.Metadata["credential_kind"] = string(kind)
	}
	return refreshErr
}

func applicationToken(token TokenSet) TokenSet {
	return TokenSet{
		AccessToken: token.AccessToken,
		ExpiresAt:   token.ExpiresAt,
	}
}
