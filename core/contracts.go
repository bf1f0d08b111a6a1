package core

import (
	"context"
	"net/http"
	"net/url"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type TransportRequest struct {
	Method  string
	URL     string
	Headers map[string]string
	Query   url.Values
	Body    []byte
	Timeout time.Duration
}

type TransportResponse struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
}

type TransportAdapter interface {
	Do(ctx context.Context, req TransportRequest) (TransportResponse, error)
}

// Refresher performs the OAuth grants a credential uses to renew itself.
type Refresher interface {
	ApplicationToken(ctx context.Context) (TokenSet, error)
	RefreshToken(ctx context.Context, refreshToken string) (TokenSet, error)
}

// Limiter blocks until an outbound request may be sent.
type Limiter interface {
	Wait(ctx context.Context) error
}

// ResponseObserver is implemented by limiters that adapt to server throttling.
type ResponseObserver interface {
	Observe(res TransportResponse)
}

type Clock func() time.Time

type InboundRequest struct {
	Headers map[string]string
	Body    []byte
}

type InboundResult struct {
	Accepted   bool
	StatusCode int
	Metadata   map[string]any
}

// InboundEvent is a delivery that passed signature verification.
type InboundEvent struct {
	MessageID string
	Timestamp string
	Type      EventType
	Version   string
	Body      []byte
}
