package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestNewDelegatedCredential_RequiresRefreshToken(t *testing.T) {
	_, err := NewDelegatedCredential(&stubRefresher{}, TokenSet{AccessToken: "token", Scopes: []Scope{ScopeUserRead}})
	if err == nil {
		t.Fatalf("expected missing refresh token to fail construction")
	}
}

func TestNewApplicationCredential_DropsDelegatedFields(t *testing.T) {
	cred, err := NewApplicationCredential(&stubRefresher{}, TokenSet{
		AccessToken:  "app",
		Scopes:       []Scope{ScopeUserRead},
		RefreshToken: "ignored",
	})
	if err != nil {
		t.Fatalf("new application credential: %v", err)
	}
	if cred.IsDelegated() {
		t.Fatalf("expected application credential")
	}
	if len(cred.Scopes()) != 0 || cred.RefreshToken() != "" {
		t.Fatalf("expected application credential without scopes or refresh token, got %#v", cred.Token())
	}
}

func TestCredentialRefresh_ApplicationUsesClientCredentials(t *testing.T) {
	expires := time.Now().Add(time.Hour).UTC()
	refresher := &stubRefresher{applicationToken: TokenSet{AccessToken: "app-2", ExpiresAt: expires}}
	cred := newApplicationCredential(refresher)

	token, err := cred.Refresh(context.Background())
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if token.AccessToken != "app-2" || cred.AccessToken() != "app-2" {
		t.Fatalf("expected refreshed access token, got %q / %q", token.AccessToken, cred.AccessToken())
	}
	if !cred.ExpiresAt().Equal(expires) {
		t.Fatalf("expected expiry to be replaced")
	}
	applicationCalls, refreshCalls := refresher.calls()
	if applicationCalls != 1 || refreshCalls != 0 {
		t.Fatalf("expected one client credentials grant, got app=%d refresh=%d", applicationCalls, refreshCalls)
	}
}

func TestCredentialRefresh_DelegatedReplacesAllFields(t *testing.T) {
	refresher := &stubRefresher{refreshedToken: TokenSet{
		AccessToken:  "user-2",
		RefreshToken: "refresh-2",
		Scopes:       []Scope{ScopeUserRead, ScopeChatWrite},
		ExpiresAt:    time.Now().Add(2 * time.Hour),
	}}
	cred := newDelegatedCredential(refresher, ScopeUserRead)
	holder := cred

	if _, err := cred.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if refresher.lastRefreshToken != "refresh-1" {
		t.Fatalf("expected refresh grant with previous refresh token, got %q", refresher.lastRefreshToken)
	}
	token := holder.Token()
	if token.AccessToken != "user-2" || token.RefreshToken != "refresh-2" {
		t.Fatalf("expected holders to observe the new token, got %#v", token)
	}
	if !holder.HasScope(ScopeChatWrite) {
		t.Fatalf("expected scopes to be replaced")
	}
}

func TestCredentialRefresh_DelegatedKeepsRefreshTokenWhenOmitted(t *testing.T) {
	refresher := &stubRefresher{refreshedToken: TokenSet{AccessToken: "user-2"}}
	cred := newDelegatedCredential(refresher, ScopeUserRead)

	if _, err := cred.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if cred.RefreshToken() != "refresh-1" {
		t.Fatalf("expected previous refresh token to be kept, got %q", cred.RefreshToken())
	}
	if !cred.HasScope(ScopeUserRead) {
		t.Fatalf("expected previous scopes to be kept")
	}
}

func TestCredentialRefresh_FailureIsRefreshError(t *testing.T) {
	refresher := &stubRefresher{err: errors.New("invalid_grant")}
	cred := newDelegatedCredential(refresher, ScopeUserRead)

	_, err := cred.Refresh(context.Background())
	if !IsKind(err, ErrorCredentialRefreshFailed) {
		t.Fatalf("expected credential refresh error, got %v", err)
	}
	if cred.AccessToken() != "user-token" {
		t.Fatalf("expected failed refresh to leave token untouched")
	}
}

func TestCredentialRefresh_ConcurrentCallersShareOneGrant(t *testing.T) {
	refresher := &stubRefresher{
		refreshedToken: TokenSet{AccessToken: "user-2", RefreshToken: "refresh-2"},
		delay:          20 * time.Millisecond,
	}
	cred := newDelegatedCredential(refresher, ScopeUserRead)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cred.refresh(context.Background(), "user-token"); err != nil {
				t.Errorf("refresh: %v", err)
			}
		}()
	}
	wg.Wait()

	if _, refreshCalls := refresher.calls(); refreshCalls != 1 {
		t.Fatalf("expected a single refresh grant, got %d", refreshCalls)
	}
	if cred.AccessToken() != "user-2" {
		t.Fatalf("expected refreshed token, got %q", cred.AccessToken())
	}
}

func TestCredentialRefresh_CancelledCallerDoesNotFailOthers(t *testing.T) {
	refresher := &stubRefresher{
		refreshedToken: TokenSet{AccessToken: "user-2", RefreshToken: "refresh-2"},
		entered:        make(chan struct{}, 2),
		release:        make(chan struct{}),
	}
	cred := newDelegatedCredential(refresher, ScopeUserRead)

	ctx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := cred.refresh(ctx, "user-token")
		firstErr <- err
	}()
	<-refresher.entered

	second := make(chan TokenSet, 1)
	secondErr := make(chan error, 1)
	go func() {
		token, err := cred.refresh(context.Background(), "user-token")
		second <- token
		secondErr <- err
	}()
	cancel()
	if err := <-firstErr; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancelled caller to stop waiting, got %v", err)
	}
	close(refresher.release)

	if err := <-secondErr; err != nil {
		t.Fatalf("expected live caller to share the grant, got %v", err)
	}
	if token := <-second; token.AccessToken != "user-2" {
		t.Fatalf("expected refreshed token, got %q", token.AccessToken)
	}
	if refresher.grantCtxErr != nil {
		t.Fatalf("expected grant to ignore caller cancellation, got %v", refresher.grantCtxErr)
	}
	if _, refreshCalls := refresher.calls(); refreshCalls != 1 {
		t.Fatalf("expected a single refresh grant, got %d", refreshCalls)
	}
}

func TestCredentialRefresh_StaleObserverReusesFreshToken(t *testing.T) {
	refresher := &stubRefresher{refreshedToken: TokenSet{AccessToken: "user-2"}}
	cred := newDelegatedCredential(refresher, ScopeUserRead)

	if _, err := cred.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	token, err := cred.refresh(context.Background(), "user-token")
	if err != nil {
		t.Fatalf("refresh from stale token: %v", err)
	}
	if token.AccessToken != "user-2" {
		t.Fatalf("expected current token, got %q", token.AccessToken)
	}
	if _, refreshCalls := refresher.calls(); refreshCalls != 1 {
		t.Fatalf("expected stale observer to skip the grant, got %d calls", refreshCalls)
	}
}

func TestCredentialRefresh_InvokesHook(t *testing.T) {
	refresher := &stubRefresher{applicationToken: TokenSet{AccessToken: "app-2"}}
	var seen TokenSet
	var seenKind CredentialKind
	cred, err := NewApplicationCredential(refresher, TokenSet{AccessToken: "app"}, WithRefreshHook(
		func(_ context.Context, kind CredentialKind, token TokenSet) {
			seenKind = kind
			seen = token
		},
	))
	if err != nil {
		t.Fatalf("new application credential: %v", err)
	}
	if _, err := cred.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if seenKind != CredentialApplication || seen.AccessToken != "app-2" {
		t.Fatalf("expected hook with refreshed token, got %q %#v", seenKind, seen)
	}
}
