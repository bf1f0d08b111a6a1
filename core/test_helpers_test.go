package core

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type stubRefresher struct {
	mu               sync.Mutex
	applicationCalls int
	refreshCalls     int
	lastRefreshToken string
	applicationToken TokenSet
	refreshedToken   TokenSet
	err              error
	delay            time.Duration
	entered          chan struct{}
	release          chan struct{}
	grantCtxErr      error
}

// wait parks a grant until release closes, when the test set one up.
func (r *stubRefresher) wait(ctx context.Context) {
	if r.release == nil {
		return
	}
	if r.entered != nil {
		r.entered <- struct{}{}
	}
	<-r.release
	r.mu.Lock()
	r.grantCtxErr = ctx.Err()
	r.mu.Unlock()
}

func (r *stubRefresher) ApplicationToken(context.Context) (TokenSet, error) {
	if r.delay > 0 {
		time.Sleep(r.delay)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.applicationCalls++
	if r.err != nil {
		return TokenSet{}, r.err
	}
	return r.applicationToken, nil
}

func (r *stubRefresher) RefreshToken(ctx context.Context, refreshToken string) (TokenSet, error) {
	if r.delay > 0 {
		time.Sleep(r.delay)
	}
	r.wait(ctx)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refreshCalls++
	r.lastRefreshToken = refreshToken
	if r.err != nil {
		return TokenSet{}, r.err
	}
	return r.refreshedToken, nil
}

func (r *stubRefresher) calls() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.applicationCalls, r.refreshCalls
}

type stubTransport struct {
	mu        sync.Mutex
	responses []TransportResponse
	err       error
	requests  []TransportRequest
}

func (s *stubTransport) Do(_ context.Context, req TransportRequest) (TransportResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	if s.err != nil {
		return TransportResponse{}, s.err
	}
	if len(s.responses) == 0 {
		return TransportResponse{}, fmt.Errorf("stub transport: no response queued")
	}
	next := s.responses[0]
	if len(s.responses) > 1 {
		s.responses = s.responses[1:]
	}
	return next, nil
}

func (s *stubTransport) calls() []TransportRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]TransportRequest, len(s.requests))
	copy(out, s.requests)
	return out
}

func jsonResponse(status int, body string) TransportResponse {
	return TransportResponse{
		StatusCode: status,
		Headers:    map[string]string{"content-type": "application/json"},
		Body:       []byte(body),
	}
}

type stubLoggerProvider struct {
	logger Logger
}

func (p stubLoggerProvider) GetLogger(string) Logger {
	return p.logger
}

func newApplicationCredential(refresher *stubRefresher) *Credential {
	cred, err := NewApplicationCredential(refresher, TokenSet{AccessToken: "app-token"})
	if err != nil {
		panic(err)
	}
	return cred
}

func newDelegatedCredential(refresher *stubRefresher, scopes ...Scope) *Credential {
	cred, err := NewDelegatedCredential(refresher, TokenSet{
		AccessToken:  "user-token",
		RefreshToken: "refresh-1",
		Scopes:       scopes,
		ExpiresAt:    time.Now().Add(time.Hour),
	})
	if err != nil {
		panic(err)
	}
	return cred
}

func newTestClient(cred *Credential, transport TransportAdapter, opts ...Option) *Client {
	options := append([]Option{WithTransport(transport)}, opts...)
	client, err := NewClient(Config{}, cred, options...)
	if err != nil {
		panic(err)
	}
	return client
}
