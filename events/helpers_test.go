package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-kick/api"
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

type testSubscriber struct {
	endpoints  *api.API
	credential *core.Credential
}

func (s testSubscriber) Endpoints() *api.API          { return s.endpoints }
func (s testSubscriber) Credential() *core.Credential { return s.credential }

func newSubscriber(t *testing.T, delegated bool, responses ...core.TransportResponse) (testSubscriber, *recordingTransport) {
	t.Helper()
	var (
		cred *core.Credential
		err  error
	)
	if delegated {
		cred, err = core.NewDelegatedCredential(stubRefresher{}, core.TokenSet{
			AccessToken:  "user-token",
			RefreshToken: "refresh-1",
			Scopes:       []core.Scope{core.ScopeModerationBan, core.ScopeChannelRead, core.ScopeEventsSubscribe},
			ExpiresAt:    time.Now().Add(time.Hour),
		})
	} else {
		cred, err = core.NewApplicationCredential(stubRefresher{}, core.TokenSet{AccessToken: "app-token"})
	}
	if err != nil {
		t.Fatalf("credential: %v", err)
	}
	transport := &recordingTransport{responses: responses}
	client, err := core.NewClient(core.DefaultConfig(), cred, core.WithTransport(transport))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return testSubscriber{endpoints: api.New(client), credential: cred}, transport
}

func decodeBody(t *testing.T, raw []byte) map[string]any {
	t.Helper()
	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("decode body %q: %v", raw, err)
	}
	return out
}

func delivery(eventType core.EventType, body string) core.InboundEvent {
	return core.InboundEvent{
		MessageID: "01JDELIVERY",
		Timestamp: "2025-01-14T16:08:06Z",
		Type:      eventType,
		Version:   "1",
		Body:      []byte(body),
	}
}

const broadcasterJSON = `{"is_anonymous":false,"user_id":42,"username":"streamer","is_verified":true,"profile_picture":"https://kick.com/p.png","channel_slug":"streamer"}`

const chatMessageJSON = `{
	"message_id":"msg-1",
	"broadcaster":` + broadcasterJSON + `,
	"sender":{"is_anonymous":false,"user_id":7,"username":"viewer","is_verified":false,"profile_picture":"","channel_slug":"viewer",
		"identity":{"username_color":"#FF9D00","badges":[{"text":"Moderator","type":"moderator"},{"text":"Subscriber","type":"subscriber","count":3}]}},
	"content":"hello [emote:1:wave]",
	"emotes":[{"emote_id":"1","positions":[{"s":6,"e":19}]}],
	"replies_to":null
}`

const followJSON = `{
	"broadcaster":` + broadcasterJSON + `,
	"follower":{"is_anonymous":false,"user_id":7,"username":"viewer","is_verified":false,"profile_picture":"","channel_slug":"viewer"}
}`

const giftsJSON = `{
	"broadcaster":` + broadcasterJSON + `,
	"gifter":{"is_anonymous":true,"user_id":null,"username":null,"is_verified":null,"profile_picture":null,"channel_slug":null},
	"giftees":[{"is_anonymous":false,"user_id":8,"username":"lucky","is_verified":false,"profile_picture":"","channel_slug":"lucky"}],
	"created_at":"2025-01-14T16:08:06Z",
	"expires_at":"2025-02-14T16:08:06Z"
}`
