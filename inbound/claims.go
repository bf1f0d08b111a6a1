package inbound

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type claimState int

const (
	claimProcessing claimState = iota
	claimRetry
	claimDone
)

// claim blocks new claims on its key until deadline: the lease end while
// processing, the retry time after a failure, or the ttl end once done.
type claim struct {
	token    string
	state    claimState
	attempts int
	ttl      time.Duration
	deadline time.Time
}

// InMemoryClaimStore is a process-local ClaimStore. Completed keys are
// forgotten once their ttl passes.
type InMemoryClaimStore struct {
	Now func() time.Time

	mu     sync.Mutex
	claims map[string]*claim
	tokens map[string]string
}

func NewInMemoryClaimStore() *InMemoryClaimStore {
	return &InMemoryClaimStore{
		claims: map[string]*claim{},
		tokens: map[string]string{},
	}
}

func (s *InMemoryClaimStore) Claim(_ context.Context, key string, lease time.Duration) (string, bool, error) {
	if s == nil {
		return "", false, errInternal("inbound: claim store is nil")
	}
	if key = strings.TrimSpace(key); key == "" {
		return "", false, errBadInput("inbound: claim key is required")
	}
	if lease <= 0 {
		lease = defaultKeyTTL
	}
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.forgetDone(now)

	current, ok := s.claims[key]
	if ok && now.Before(current.deadline) {
		return "", false, nil
	}
	if !ok {
		current = &claim{}
		s.claims[key] = current
	}
	delete(s.tokens, current.token)
	current.token = uuid.NewString()
	current.state = claimProcessing
	current.attempts++
	current.ttl = lease
	current.deadline = now.Add(lease)
	s.tokens[current.token] = key
	return current.token, true, nil
}

func (s *InMemoryClaimStore) Complete(_ context.Context, claimID string) error {
	return s.settle(claimID, func(c *claim, now time.Time) {
		c.state = claimDone
		c.deadline = now.Add(c.ttl)
	})
}

// Fail releases the claim so the key can be claimed again from retryAt on,
// or immediately when retryAt is zero.
func (s *InMemoryClaimStore) Fail(_ context.Context, claimID string, _ error, retryAt time.Time) error {
	return s.settle(claimID, func(c *claim, now time.Time) {
		if retryAt.IsZero() {
			retryAt = now
		}
		c.state = claimRetry
		c.deadline = retryAt.UTC()
	})
}

// Attempts reports how many times key was claimed.
func (s *InMemoryClaimStore) Attempts(key string) int {
	if s == nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.claims[strings.TrimSpace(key)]; ok {
		return c.attempts
	}
	return 0
}

// settle applies fn when claimID is still the live processing claim of its
// key. Stale claim ids are ignored.
func (s *InMemoryClaimStore) settle(claimID string, fn func(*claim, time.Time)) error {
	if s == nil {
		return errInternal("inbound: claim store is nil")
	}
	if claimID = strings.TrimSpace(claimID); claimID == "" {
		return errBadInput("inbound: claim id is required")
	}
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	key, ok := s.tokens[claimID]
	if !ok {
		return nil
	}
	delete(s.tokens, claimID)
	c, ok := s.claims[key]
	if !ok || c.token != claimID || c.state != claimProcessing {
		return nil
	}
	fn(c, now)
	return nil
}

func (s *InMemoryClaimStore) forgetDone(now time.Time) {
	for key, c := range s.claims {
		if c.state == claimDone && !now.Before(c.deadline) {
			delete(s.claims, key)
		}
	}
}

func (s *InMemoryClaimStore) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}
