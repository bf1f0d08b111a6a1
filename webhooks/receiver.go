package webhooks

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/goliatone/go-kick/core"
	"github.com/goliatone/go-kick/inbound"
	glog "github.com/goliatone/go-logger/glog"
	"github.com/google/uuid"
)

const shutdownTimeout = 5 * time.Second

// Dispatcher runs one delivery through verification and routing.
type Dispatcher interface {
	Dispatch(ctx context.Context, req core.InboundRequest) (core.InboundResult, error)
}

// Receiver is the http.Handler Kick posts deliveries to.
type Receiver struct {
	Dispatcher   Dispatcher
	MaxBodyBytes int64
	Logger       core.Logger
}

type ReceiverOption func(*receiverOptions)

type receiverOptions struct {
	logger    core.Logger
	keySource KeySource
	store     inbound.ClaimStore
	verifier  []VerifierOption
}

func WithLogger(logger core.Logger) ReceiverOption {
	return func(o *receiverOptions) {
		o.logger = logger
	}
}

// WithKeySource overrides the public-key endpoint lookup.
func WithKeySource(source KeySource) ReceiverOption {
	return func(o *receiverOptions) {
		o.keySource = source
	}
}

// WithClaimStore replaces the process-local delivery dedup store.
func WithClaimStore(store inbound.ClaimStore) ReceiverOption {
	return func(o *receiverOptions) {
		o.store = store
	}
}

func WithVerifierOptions(opts ...VerifierOption) ReceiverOption {
	return func(o *receiverOptions) {
		o.verifier = append(o.verifier, opts...)
	}
}

// NewReceiver wires a verifier reading cfg's public-key endpoint through
// transport, a claim store and handler into a Receiver.
func NewReceiver(cfg core.Config, transport core.TransportAdapter, handler inbound.EventHandler, opts ...ReceiverOption) *Receiver {
	options := receiverOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}
	_, logger := glog.Resolve("kick.webhooks", nil, options.logger)
	source := options.keySource
	if source == nil && transport != nil {
		source = NewHTTPKeySource(cfg.PublicKeyURL(), transport)
	}
	store := options.store
	if store == nil {
		store = inbound.NewInMemoryClaimStore()
	}
	verifierOpts := append([]VerifierOption{WithVerifierLogger(logger)}, options.verifier...)
	dispatcher := inbound.NewDispatcher(NewVerifier(source, verifierOpts...), store, handler)
	return &Receiver{
		Dispatcher:   dispatcher,
		MaxBodyBytes: cfg.Webhook.MaxBodyBytes,
		Logger:       logger,
	}
}

func (rc *Receiver) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := rc.logger()
	requestID := uuid.NewString()
	messageID := r.Header.Get(HeaderMessageID)
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if rc.Dispatcher == nil {
		logger.Error("webhooks receiver has no dispatcher", "request_id", requestID)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	limit := rc.MaxBodyBytes
	if limit <= 0 {
		limit = core.DefaultWebhookBodySize
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		var tooLarge *http.MaxBytesError
		status := http.StatusBadRequest
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		logger.Warn("webhooks delivery body rejected",
			"request_id", requestID,
			"message_id", messageID,
			"error", err.Error(),
		)
		w.WriteHeader(status)
		return
	}

	result, err := rc.Dispatcher.Dispatch(r.Context(), core.InboundRequest{
		Headers: flattenHeaders(r.Header),
		Body:    body,
	})
	status := result.StatusCode
	if status == 0 {
		status = inbound.StatusOf(err)
	}
	switch {
	case status == http.StatusUnauthorized:
		logger.Warn("webhooks delivery rejected",
			"request_id", requestID,
			"message_id", messageID,
			"error", errorText(err),
		)
	case err != nil:
		logger.Error("webhooks delivery failed",
			"request_id", requestID,
			"message_id", messageID,
			"event_type", r.Header.Get(HeaderEventType),
			"status_code", status,
			"error", err.Error(),
		)
	default:
		logger.Debug("webhooks delivery accepted",
			"request_id", requestID,
			"message_id", messageID,
			"event_type", r.Header.Get(HeaderEventType),
			"deduped", result.Metadata["deduped"] == true,
		)
	}
	w.WriteHeader(status)
}

func (rc *Receiver) logger() core.Logger {
	if rc.Logger != nil {
		return rc.Logger
	}
	_, logger := glog.Resolve("kick.webhooks", nil, nil)
	return logger
}

// Serve listens on addr until ctx is cancelled, then drains in-flight
// deliveries before returning.
func Serve(ctx context.Context, addr string, handler http.Handler) error {
	if addr == "" {
		addr = core.DefaultWebhookAddr
	}
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// Mux routes POST requests on path to receiver.
func Mux(path string, receiver http.Handler) *http.ServeMux {
	if path == "" {
		path = core.DefaultWebhookPath
	}
	mux := http.NewServeMux()
	mux.Handle(path, receiver)
	return mux
}

func flattenHeaders(header http.Header) map[string]string {
	out := make(map[string]string, len(header))
	for key, values := range header {
		if len(values) == 0 {
			continue
		}
		out[http.CanonicalHeaderKey(key)] = values[0]
	}
	return out
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
