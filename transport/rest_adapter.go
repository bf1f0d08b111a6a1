package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-kick/core"
)

const (
	defaultClientTimeout       = 30 * time.Second
	defaultBodyLimit     int64 = 10 << 20
	userAgent                  = "go-kick"
)

// RESTAdapter sends Kick API calls over net/http. Response bodies are read
// fully, up to MaxResponseBodyBytes.
type RESTAdapter struct {
	Client               core.HTTPDoer
	UserAgent            string
	MaxResponseBodyBytes int64
}

func NewRESTAdapter(client core.HTTPDoer) *RESTAdapter {
	if client == nil {
		client = &http.Client{Timeout: defaultClientTimeout}
	}
	return &RESTAdapter{
		Client:               client,
		UserAgent:            userAgent,
		MaxResponseBodyBytes: defaultBodyLimit,
	}
}

func (a *RESTAdapter) Do(ctx context.Context, req core.TransportRequest) (core.TransportResponse, error) {
	if a == nil || a.Client == nil {
		return core.TransportResponse{}, transportError(
			"transport: rest adapter requires an http client",
			goerrors.CategoryInternal,
			http.StatusInternalServerError,
			nil,
		)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	httpReq, err := a.newRequest(ctx, req)
	if err != nil {
		return core.TransportResponse{}, err
	}
	target := map[string]any{"method": httpReq.Method, "url": httpReq.URL.Redacted()}

	httpRes, err := a.Client.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return core.TransportResponse{}, transportWrapError(err, goerrors.CategoryExternal,
				"transport: request timed out", http.StatusGatewayTimeout, target)
		}
		return core.TransportResponse{}, transportWrapError(err, goerrors.CategoryExternal,
			"transport: execute http request", http.StatusBadGateway, target)
	}
	defer httpRes.Body.Close()

	body, err := a.readBody(httpRes)
	if err != nil {
		return core.TransportResponse{}, err
	}
	return core.TransportResponse{
		StatusCode: httpRes.StatusCode,
		Headers:    flattenHeaders(httpRes.Header),
		Body:       body,
	}, nil
}

// newRequest resolves req.URL, merges req.Query into any query already on
// it, and sets the caller headers over the adapter defaults.
func (a *RESTAdapter) newRequest(ctx context.Context, req core.TransportRequest) (*http.Request, error) {
	rawURL := strings.TrimSpace(req.URL)
	target, err := url.Parse(rawURL)
	if err != nil {
		return nil, transportWrapError(err, goerrors.CategoryBadInput,
			"transport: invalid request url", http.StatusBadRequest, map[string]any{"url": rawURL})
	}
	if !target.IsAbs() || target.Host == "" {
		return nil, transportError("transport: absolute request url is required",
			goerrors.CategoryBadInput, http.StatusBadRequest, map[string]any{"url": rawURL})
	}
	if len(req.Query) > 0 {
		query := target.Query()
		for key, values := range req.Query {
			if key = strings.TrimSpace(key); key == "" {
				continue
			}
			for _, value := range values {
				query.Add(key, strings.TrimSpace(value))
			}
		}
		target.RawQuery = query.Encode()
	}

	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		method = http.MethodGet
	}
	var body io.Reader = http.NoBody
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, transportWrapError(err, goerrors.CategoryBadInput,
			"transport: create http request", http.StatusBadRequest,
			map[string]any{"method": method, "url": target.Redacted()})
	}
	if a.UserAgent != "" {
		httpReq.Header.Set("User-Agent", a.UserAgent)
	}
	for key, value := range req.Headers {
		if key = strings.TrimSpace(key); key != "" {
			httpReq.Header.Set(key, strings.TrimSpace(value))
		}
	}
	return httpReq, nil
}

func (a *RESTAdapter) readBody(res *http.Response) ([]byte, error) {
	limit := a.MaxResponseBodyBytes
	if limit <= 0 {
		limit = defaultBodyLimit
	}
	body, err := io.ReadAll(io.LimitReader(res.Body, limit+1))
	if err != nil {
		return nil, transportWrapError(err, goerrors.CategoryExternal,
			"transport: read response body", http.StatusBadGateway,
			map[string]any{"status_code": res.StatusCode})
	}
	if int64(len(body)) > limit {
		return nil, transportError(
			fmt.Sprintf("transport: response body exceeds limit of %d bytes", limit),
			goerrors.CategoryExternal,
			http.StatusBadGateway,
			map[string]any{"status_code": res.StatusCode, "limit_bytes": limit},
		)
	}
	return body, nil
}

// flattenHeaders keeps canonical header names and joins repeated values.
func flattenHeaders(headers http.Header) map[string]string {
	flat := make(map[string]string, len(headers))
	for key, values := range headers {
		flat[http.CanonicalHeaderKey(key)] = strings.Join(values, ",")
	}
	return flat
}

var _ core.TransportAdapter = (*RESTAdapter)(nil)
