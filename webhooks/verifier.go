package webhooks

import (
	"context"
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"

	"github.com/goliatone/go-kick/core"
	glog "github.com/goliatone/go-logger/glog"
	"golang.org/x/sync/singleflight"
)

const (
	HeaderMessageID = "Kick-Event-Message-Id"
	HeaderTimestamp = "Kick-Event-Message-Timestamp"
	HeaderSignature = "Kick-Event-Signature"
	HeaderEventType = "Kick-Event-Type"
	HeaderVersion   = "Kick-Event-Version"
)

// Verifier authenticates deliveries against the trusted signing key. When a
// signature does not verify it refetches the key once and checks again.
type Verifier struct {
	source KeySource
	logger core.Logger

	mu    sync.RWMutex
	key   *rsa.PublicKey
	fetch singleflight.Group
}

type VerifierOption func(*Verifier)

// WithPublicKey replaces the bootstrap key.
func WithPublicKey(key *rsa.PublicKey) VerifierOption {
	return func(v *Verifier) {
		if key != nil {
			v.key = key
		}
	}
}

func WithVerifierLogger(logger core.Logger) VerifierOption {
	return func(v *Verifier) {
		if logger != nil {
			v.logger = logger
		}
	}
}

// NewVerifier trusts the bootstrap key until a rotation is observed. A nil
// source disables the refetch.
func NewVerifier(source KeySource, opts ...VerifierOption) *Verifier {
	_, logger := glog.Resolve("kick.webhooks", nil, nil)
	verifier := &Verifier{
		source: source,
		logger: logger,
		key:    mustParsePublicKey(BootstrapPublicKey),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(verifier)
		}
	}
	return verifier
}

func (v *Verifier) PublicKey() *rsa.PublicKey {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.key
}

// Verify authenticates req and returns the event its headers describe.
func (v *Verifier) Verify(ctx context.Context, req core.InboundRequest) (core.InboundEvent, error) {
	event := core.InboundEvent{
		MessageID: headerValue(req.Headers, HeaderMessageID),
		Timestamp: headerValue(req.Headers, HeaderTimestamp),
		Type:      core.EventType(headerValue(req.Headers, HeaderEventType)),
		Version:   headerValue(req.Headers, HeaderVersion),
		Body:      req.Body,
	}
	signature := headerValue(req.Headers, HeaderSignature)
	if err := v.VerifySignature(ctx, event.MessageID, event.Timestamp, req.Body, signature); err != nil {
		return core.InboundEvent{}, err
	}
	return event, nil
}

// VerifySignature checks the base64 RSA PKCS#1 v1.5 SHA-256 signature of
// messageID.timestamp.body.
func (v *Verifier) VerifySignature(ctx context.Context, messageID, timestamp string, body []byte, signature string) error {
	if messageID == "" || timestamp == "" || signature == "" {
		return core.NewUnauthenticatedEventError("missing signature headers")
	}
	decoded, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return core.NewUnauthenticatedEventError("signature is not base64")
	}
	digest := signedDigest(messageID, timestamp, body)

	trusted := v.PublicKey()
	if rsa.VerifyPKCS1v15(trusted, crypto.SHA256, digest, decoded) == nil {
		return nil
	}
	rotated, err := v.rotate(ctx, trusted)
	if err != nil {
		v.logger.Warn("webhooks public key refetch failed", "error", err.Error())
		return core.NewUnauthenticatedEventError("public key refetch failed")
	}
	if rsa.VerifyPKCS1v15(rotated, crypto.SHA256, digest, decoded) != nil {
		return core.NewUnauthenticatedEventError("signature mismatch")
	}
	return nil
}

// rotate returns the key to retry with. Callers that failed against a key
// already replaced by a concurrent refetch retry with the replacement. The
// shared fetch ignores the cancellation of whichever caller started it.
func (v *Verifier) rotate(ctx context.Context, stale *rsa.PublicKey) (*rsa.PublicKey, error) {
	if current := v.PublicKey(); current != stale {
		return current, nil
	}
	if v.source == nil {
		return stale, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	fetchCtx := context.WithoutCancel(ctx)
	flight := v.fetch.DoChan("public-key", func() (any, error) {
		if current := v.PublicKey(); current != stale {
			return current, nil
		}
		key, fetchErr := v.source.FetchPublicKey(fetchCtx)
		if fetchErr != nil {
			return nil, fetchErr
		}
		if key == nil {
			return nil, fmt.Errorf("webhooks: key source returned no key")
		}
		v.mu.Lock()
		v.key = key
		v.mu.Unlock()
		v.logger.Info("webhooks public key rotated")
		return key, nil
	})
	var result singleflight.Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case result = <-flight:
	}
	if result.Err != nil {
		return nil, result.Err
	}
	key, _ := result.Val.(*rsa.PublicKey)
	if key == nil {
		return stale, nil
	}
	return key, nil
}

func signedDigest(messageID, timestamp string, body []byte) []byte {
	hash := sha256.New()
	hash.Write([]byte(messageID))
	hash.Write([]byte("."))
	hash.Write([]byte(timestamp))
	hash.Write([]byte("."))
	hash.Write(body)
	return hash.Sum(nil)
}

func headerValue(headers map[string]string, key string) string {
	if value, ok := headers[key]; ok {
		return strings.TrimSpace(value)
	}
	for existing, value := range headers {
		if strings.EqualFold(strings.TrimSpace(existing), key) {
			return strings.TrimSpace(value)
		}
	}
	return ""
}
