package webhooks

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-kick/core"
)

// BootstrapPublicKey is the signing key Kick published at the time of
// writing. Verifiers start from it and refetch on the first mismatch.
const BootstrapPublicKey = `-----BEGIN PUBLIC KEY-----
MIIBIjANBgkqhkiG9w0BAQEFAAOCAQ8AMIIBCgKCAQEAq/+l1WnlRrGSolDMA+A8
6rAhMbQGmQ2SapVcGM3zq8ANXjnhDWocMqfWcTd95btDydITa10kDvHzw9WQOqp2
MZI7ZyrfzJuz5nhTPCiJwTwnEtWft7nV14BYRDHvlfqPUaZ+1KR4OCaO/wWIk/rQ
L/TjY0M70gse8rlBkbo2a8rKhu69RQTRsoaf4DVhDPEeSeI5jVrRDGAMGL3cGuyY
6CLKGdjVEM78g3JfYOvDU/RvfqD7L89TZ3iN94jrmWdGz34JNlEI5hqK8dd7C5EF
BEbZ5jgB8s8ReQV8H+MkuffjdAj3ajDDX3DOJMIut1lBrUVD1AaSrGCKHooWoL2e
twIDAQAB
-----END PUBLIC KEY-----
`

// KeySource returns the platform's current signing key.
type KeySource interface {
	FetchPublicKey(ctx context.Context) (*rsa.PublicKey, error)
}

type KeySourceFunc func(ctx context.Context) (*rsa.PublicKey, error)

func (f KeySourceFunc) FetchPublicKey(ctx context.Context) (*rsa.PublicKey, error) {
	return f(ctx)
}

// HTTPKeySource reads the public-key endpoint, which answers
// {"data":{"public_key":"<PEM>"}} and needs no authorization.
type HTTPKeySource struct {
	URL       string
	Transport core.TransportAdapter
}

func NewHTTPKeySource(url string, transport core.TransportAdapter) *HTTPKeySource {
	return &HTTPKeySource{URL: url, Transport: transport}
}

func (s *HTTPKeySource) FetchPublicKey(ctx context.Context) (*rsa.PublicKey, error) {
	if s == nil || s.Transport == nil {
		return nil, fmt.Errorf("webhooks: key source requires a transport")
	}
	detail := core.RequestDetail{Endpoint: s.URL, Method: http.MethodGet}
	res, err := s.Transport.Do(ctx, core.TransportRequest{
		Method:  http.MethodGet,
		URL:     s.URL,
		Headers: map[string]string{"Accept": "application/json"},
	})
	if err != nil {
		return nil, err
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, core.NewAPIError(res.StatusCode, detail)
	}
	data, err := core.UnwrapEnvelope(res.Body)
	if err != nil {
		return nil, core.NewUnexpectedResponseError(err, detail)
	}
	payload, _ := core.FromWire(data).(map[string]any)
	encoded, _ := payload["publicKey"].(string)
	if strings.TrimSpace(encoded) == "" {
		return nil, core.NewEmptyResponseError(detail)
	}
	key, err := ParsePublicKey([]byte(encoded))
	if err != nil {
		return nil, core.NewUnexpectedResponseError(err, detail)
	}
	return key, nil
}

// ParsePublicKey decodes a PEM encoded PKIX RSA public key.
func ParsePublicKey(raw []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, webhookError("webhooks: public key is not pem encoded", goerrors.CategoryBadInput, http.StatusBadRequest, core.ErrorBadRequest, nil)
	}
	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, webhookWrapError(err, goerrors.CategoryBadInput, "webhooks: parse public key", http.StatusBadRequest, core.ErrorBadRequest, nil)
	}
	key, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, webhookError(
			fmt.Sprintf("webhooks: public key must be rsa, got %T", parsed),
			goerrors.CategoryBadInput,
			http.StatusBadRequest,
			core.ErrorBadRequest,
			nil,
		)
	}
	return key, nil
}

func mustParsePublicKey(raw string) *rsa.PublicKey {
	key, err := ParsePublicKey([]byte(raw))
	if err != nil {
		panic(err)
	}
	return key
}
