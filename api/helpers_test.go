package api

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-kick/core"
)

type stubRefresher struct{}

func (stubRefresher) ApplicationToken(context.Context) (core.TokenSet, error) {
	return core.TokenSet{AccessToken: "app-token-2"}, nil
}

func (stubRefresher) RefreshToken(context.Context, string) (core.TokenSet, error) {
	return core.TokenSet{AccessToken: "user-token-2", RefreshToken: "refresh-2"}, nil
}

type recordingTransport struct {
	mu        sync.Mutex
	responses []core.TransportResponse
	requests  []core.TransportRequest
}

func (r *recordingTransport) Do(_ context.Context, req core.TransportRequest) (core.TransportResponse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, req)
	if len(r.responses) == 0 {
		return core.TransportResponse{}, fmt.Errorf("recording transport: no response queued")
	}
	next := r.responses[0]
	if len(r.responses) > 1 {
		r.responses = r.responses[1:]
	}
	return next, nil
}

func (r *recordingTransport) calls() []core.TransportRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]core.TransportRequest(nil), r.requests...)
}

func respond(status int, body string) core.TransportResponse {
	return core.TransportResponse{StatusCode: status, Body: []byte(body)}
}

func applicationCredential(t *testing.T) *core.Credential {
	t.Helper()
	cred, err := core.NewApplicationCredential(stubRefresher{}, core.TokenSet{AccessToken: "app-token"})
	if err != nil {
		t.Fatalf("application credential: %v", err)
	}
	return cred
}

func delegatedCredential(t *testing.T, scopes ...core.Scope) *core.Credential {
	t.Helper()
	cred, err := core.NewDelegatedCredential(stubRefresher{}, core.TokenSet{
		AccessToken:  "user-token",
		RefreshToken: "refresh-1",
		Scopes:       scopes,
		ExpiresAt:    time.Now().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("delegated credential: %v", err)
	}
	return cred
}

func newTestAPI(t *testing.T, cred *core.Credential, responses ...core.TransportResponse) (*API, *recordingTransport) {
	t.Helper()
	transport := &recordingTransport{responses: responses}
	client, err := core.NewClient(core.DefaultConfig(), cred, core.WithTransport(transport))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return New(client), transport
}

func decodeBody(t *testing.T, req core.TransportRequest) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(req.Body, &body); err != nil {
		t.Fatalf("decode request body %q: %v", string(req.Body), err)
	}
	return body
}
