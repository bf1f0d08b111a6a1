package core

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
)

// maxAttempts bounds every call to a first attempt plus one retry.
const maxAttempts = 2

// Request describes one API call. Path is relative to the API base URL.
type Request struct {
	Operation   string
	Method      string
	Path        string
	Query       url.Values
	Body        any
	Requirement *Requirement
}

// Client runs requests against the Kick API on behalf of a single credential.
type Client struct {
	config     Config
	credential *Credential
	transport  TransportAdapter
	limiter    Limiter
	logger     Logger
	loggers    LoggerProvider
	metrics    MetricsRecorder
	clock      Clock
}

func NewClient(cfg Config, credential *Credential, opts ...Option) (*Client, error) {
	if credential == nil {
		return nil, fmt.Errorf("core: credential is required")
	}
	builder := defaultClientBuilder(cfg)
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	provider, logger := glog.Resolve("kick", builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger("kick"); named != nil {
			logger = glog.Ensure(named)
		}
	}
	if builder.metricsRecorder == nil {
		builder.metricsRecorder = NopMetricsRecorder{}
	}
	if builder.clock == nil {
		builder.clock = time.Now
	}
	if builder.transport == nil {
		return nil, fmt.Errorf("core: transport adapter is required")
	}

	finalConfig, err := ResolveConfig(builder.runtimeConfig, builder.configProvider, builder.optionsResolver)
	if err != nil {
		return nil, MapError(err)
	}

	return &Client{
		config:     finalConfig,
		credential: credential,
		transport:  builder.transport,
		limiter:    builder.limiter,
		logger:     logger,
		loggers:    provider,
		metrics:    builder.metricsRecorder,
		clock:      builder.clock,
	}, nil
}

func (c *Client) Config() Config {
	return c.config
}

func (c *Client) Credential() *Credential {
	return c.credential
}

// Logger returns a named child of the client's logger provider.
func (c *Client) Logger(name string) Logger {
	if c.loggers != nil && strings.TrimSpace(name) != "" {
		if named := c.loggers.GetLogger(name); named != nil {
			return glog.Ensure(named)
		}
	}
	return c.logger
}

// Execute sends req and decodes the unwrapped response data into out. A nil
// out discards the body. Permission and body checks run before any network
// call; a 401 triggers one credential refresh and a 429 one retry.
func (c *Client) Execute(ctx context.Context, req Request, out any) error {
	if ctx == nil {
		ctx = context.Background()
	}
	startedAt := c.clock()
	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		method = http.MethodGet
	}
	detail := RequestDetail{Endpoint: req.Path, Method: method}

	err := c.execute(ctx, method, req, out, &detail)

	operation := req.Operation
	if strings.TrimSpace(operation) == "" {
		operation = strings.ToLower(method) + "_" + strings.Trim(strings.ReplaceAll(req.Path, "/", "_"), "_")
	}
	fields := map[string]any{
		"endpoint": detail.Endpoint,
		"method":   detail.Method,
	}
	if detail.StatusCode != 0 {
		fields["status_code"] = detail.StatusCode
	}
	if detail.Attempts > 0 {
		fields["attempts"] = detail.Attempts
	}
	c.observeOperation(ctx, startedAt, operation, err, fields)
	return err
}

func (c *Client) execute(ctx context.Context, method string, req Request, out any, detail *RequestDetail) error {
	if err := CheckPermission(c.credential, req.Requirement); err != nil {
		return withDetail(err, *detail)
	}
	if err := ValidateRequest(req.Body); err != nil {
		return NewInvalidRequestError(err, *detail)
	}

	var payload []byte
	if req.Body != nil {
		wireBody, err := ToWire(req.Body)
		if err != nil {
			return NewInvalidRequestError(err, *detail)
		}
		detail.RequestBody = wireBody
		payload, err = json.Marshal(wireBody)
		if err != nil {
			return NewInvalidRequestError(err, *detail)
		}
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return withDetail(err, *detail)
			}
		}

		accessToken := c.credential.AccessToken()
		headers := map[string]string{
			"Authorization": "Bearer " + accessToken,
			"Accept":        "application/json",
		}
		if payload != nil && method != http.MethodGet {
			headers["Content-Type"] = "application/json"
		}

		response, err := c.transport.Do(ctx, TransportRequest{
			Method:  method,
			URL:     JoinURL(c.config.APIBaseURL, req.Path),
			Headers: headers,
			Query:   req.Query,
			Body:    payload,
			Timeout: c.config.RequestTimeout,
		})
		detail.Attempts = attempt + 1
		if err != nil {
			return withDetail(err, *detail)
		}
		detail.StatusCode = response.StatusCode
		if observer, ok := c.limiter.(ResponseObserver); ok {
			observer.Observe(response)
		}

		switch {
		case response.StatusCode >= 200 && response.StatusCode < 300:
			return decodeResponse(response, out, *detail)
		case response.StatusCode == http.StatusUnauthorized && attempt == 0:
			if _, err := c.credential.refresh(ctx, accessToken); err != nil {
				return withDetail(err, *detail)
			}
			continue
		case response.StatusCode == http.StatusTooManyRequests && attempt == 0:
			continue
		}

		detail.ResponseBody = responseBodyValue(response.Body)
		return NewAPIError(response.StatusCode, *detail)
	}
	return NewAPIError(detail.StatusCode, *detail)
}

func decodeResponse(response TransportResponse, out any, detail RequestDetail) error {
	empty := response.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(response.Body)) == 0
	if empty {
		if out != nil {
			return NewEmptyResponseError(detail)
		}
		return nil
	}
	if out == nil {
		return nil
	}
	detail.ResponseBody = responseBodyValue(response.Body)
	data, err := UnwrapEnvelope(response.Body)
	if err != nil {
		return NewUnexpectedResponseError(err, detail)
	}
	if data == nil {
		return NewEmptyResponseError(detail)
	}
	if err := decodeDomain(FromWire(data), out); err != nil {
		return NewUnexpectedResponseError(err, detail)
	}
	return nil
}

func responseBodyValue(body []byte) any {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	var decoded any
	if err := decodeJSON(body, &decoded); err != nil {
		return string(body)
	}
	return decoded
}

func withDetail(err error, detail RequestDetail) error {
	richErr, ok := err.(*goerrors.Error)
	if !ok {
		return err
	}
	return richErr.Clone().WithMetadata(detail.Metadata())
}
