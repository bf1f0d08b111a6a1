package kick

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/goliatone/go-kick/core"
	"github.com/goliatone/go-kick/events"
	"github.com/goliatone/go-kick/webhooks"
)

const followDelivery = `{
	"broadcaster": {"is_anonymous": false, "user_id": 42, "username": "streamer", "is_verified": true, "profile_picture": "https://kick.com/p.png", "channel_slug": "streamer"},
	"follower": {"is_anonymous": false, "user_id": 7, "username": "viewer", "is_verified": false, "profile_picture": "https://kick.com/v.png", "channel_slug": "viewer"}
}`

type staticKeySource struct {
	key *rsa.PublicKey
}

func (s staticKeySource) FetchPublicKey(context.Context) (*rsa.PublicKey, error) {
	return s.key, nil
}

func signDelivery(t *testing.T, key *rsa.PrivateKey, messageID, timestamp, body string) string {
	t.Helper()
	digest := sha256.Sum256([]byte(messageID + "." + timestamp + "." + body))
	signature, err := rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA256, digest[:])
	if err != nil {
		t.Fatalf("sign delivery: %v", err)
	}
	return base64.StdEncoding.EncodeToString(signature)
}

func TestWebhookReceiver_RoutesSignedFollowToTypedHandler(t *testing.T) {
	signer, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	fake := newFakeKick(t)
	client, err := NewApplication(context.Background(), fake.config(), fake.options()...)
	if err != nil {
		t.Fatalf("new application: %v", err)
	}

	var (
		mu        sync.Mutex
		followers []int64
		delivered []events.Delivery
		moderate  []bool
	)
	registry := NewRegistry()
	err = registry.Bind(EventChannelFollowed, 42, client, On(func(ctx context.Context, follow *events.ChannelFollowed) error {
		mu.Lock()
		defer mu.Unlock()
		followers = append(followers, follow.Follower.UserID)
		moderate = append(moderate, follow.Follower.CanModerate())
		if delivery, ok := DeliveryFromContext(ctx); ok {
			delivered = append(delivered, delivery)
		}
		return nil
	}))
	if err != nil {
		t.Fatalf("bind: %v", err)
	}

	receiver, err := NewWebhookReceiver(fake.config(), registry,
		webhooks.WithKeySource(staticKeySource{key: &signer.PublicKey}),
		webhooks.WithVerifierOptions(webhooks.WithPublicKey(&signer.PublicKey)),
	)
	if err != nil {
		t.Fatalf("new webhook receiver: %v", err)
	}
	handler := webhooks.Mux("/kick/webhook", receiver)

	post := func(messageID string) int {
		timestamp := "2025-01-14T16:08:06Z"
		req := httptest.NewRequest(http.MethodPost, "/kick/webhook", strings.NewReader(followDelivery))
		req.Header.Set(webhooks.HeaderMessageID, messageID)
		req.Header.Set(webhooks.HeaderTimestamp, timestamp)
		req.Header.Set(webhooks.HeaderSignature, signDelivery(t, signer, messageID, timestamp, followDelivery))
		req.Header.Set(webhooks.HeaderEventType, string(core.EventChannelFollowed))
		req.Header.Set(webhooks.HeaderVersion, "1")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	if status := post("01JGXZ"); status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if status := post("01JGXZ"); status != http.StatusOK {
		t.Fatalf("expected redelivery to be acknowledged, got %d", status)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(followers) != 1 || followers[0] != 7 {
		t.Fatalf("expected one follow from user 7, got %#v", followers)
	}
	if moderate[0] {
		t.Fatalf("expected application subscriber to lack moderation actions")
	}
	if len(delivered) != 1 || delivered[0].MessageID != "01JGXZ" || delivered[0].Type != core.EventChannelFollowed {
		t.Fatalf("unexpected delivery metadata %#v", delivered)
	}
}

func TestWebhookReceiver_RejectsForgedSignature(t *testing.T) {
	trusted, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	forger, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	registry := NewRegistry()
	receiver, err := NewWebhookReceiver(DefaultConfig(), registry,
		webhooks.WithKeySource(staticKeySource{key: &trusted.PublicKey}),
		webhooks.WithVerifierOptions(webhooks.WithPublicKey(&trusted.PublicKey)),
	)
	if err != nil {
		t.Fatalf("new webhook receiver: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(followDelivery))
	req.Header.Set(webhooks.HeaderMessageID, "01JGXZ")
	req.Header.Set(webhooks.HeaderTimestamp, "2025-01-14T16:08:06Z")
	req.Header.Set(webhooks.HeaderSignature, signDelivery(t, forger, "01JGXZ", "2025-01-14T16:08:06Z", followDelivery))
	req.Header.Set(webhooks.HeaderEventType, string(core.EventChannelFollowed))
	req.Header.Set(webhooks.HeaderVersion, "1")
	rec := httptest.NewRecorder()
	receiver.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	if _, err := NewWebhookReceiver(DefaultConfig(), nil); err == nil {
		t.Fatalf("expected nil registry error")
	}
}
