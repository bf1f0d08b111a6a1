package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-kick/core"
)

const maxTokenResponseBodyBytes int64 = 1 << 20

type TokenHint string

const (
	TokenHintAccessToken  TokenHint = "access_token"
	TokenHintRefreshToken TokenHint = "refresh_token"
)

type TokenKind string

const (
	TokenKindApp  TokenKind = "app"
	TokenKindUser TokenKind = "user"
)

type Config struct {
	ClientID       string
	ClientSecret   string
	RedirectURI    string
	OAuthBaseURL   string
	APIBaseURL     string
	RequestTimeout time.Duration
}

// ConfigFrom picks the OAuth settings out of the client configuration.
func ConfigFrom(cfg core.Config) Config {
	return Config{
		ClientID:       cfg.ClientID,
		ClientSecret:   cfg.ClientSecret,
		RedirectURI:    cfg.RedirectURI,
		OAuthBaseURL:   cfg.OAuthBaseURL,
		APIBaseURL:     cfg.APIBaseURL,
		RequestTimeout: cfg.RequestTimeout,
	}
}

// AuthorizationRequest carries the values the caller must keep until the
// authorization callback: State to match the redirect and CodeVerifier for
// the code exchange.
type AuthorizationRequest struct {
	URL          string
	State        string
	CodeVerifier string
}

type Introspection struct {
	Active    bool
	ClientID  string
	ExpiresAt time.Time
	TokenType TokenKind
	Scopes    []core.Scope
}

type introspectionPayload struct {
	Active    bool      `json:"active"`
	ClientID  string    `json:"clientId"`
	Exp       int64     `json:"exp"`
	TokenType TokenKind `json:"tokenType"`
	Scope     string    `json:"scope"`
}

func (p introspectionPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.ClientID, validation.When(p.Active, validation.Required)),
		validation.Field(&p.Exp, validation.When(p.Active, validation.Required)),
		validation.Field(&p.TokenType, validation.When(p.Active, validation.Required, validation.In(TokenKindApp, TokenKindUser))),
		validation.Field(&p.Scope, validation.When(p.Active && p.TokenType == TokenKindUser, validation.Required)),
	)
}

type tokenEndpointPayload struct {
	AccessToken      string
	TokenType        string
	RefreshToken     string
	Scope            string
	ExpiresIn        int64
	ErrorCode        string
	ErrorDescription string
}

// OAuthClient talks to the Kick identity service.
type OAuthClient struct {
	config     Config
	httpClient core.HTTPDoer
	now        func() time.Time
	random     io.Reader
}

type Option func(*OAuthClient)

func WithHTTPClient(client core.HTTPDoer) Option {
	return func(c *OAuthClient) {
		if client != nil {
			c.httpClient = client
		}
	}
}

func WithNow(now func() time.Time) Option {
	return func(c *OAuthClient) {
		if now != nil {
			c.now = now
		}
	}
}

func WithRandom(random io.Reader) Option {
	return func(c *OAuthClient) {
		if random != nil {
			c.random = random
		}
	}
}

func NewOAuthClient(cfg Config, opts ...Option) (*OAuthClient, error) {
	cfg.ClientID = strings.TrimSpace(cfg.ClientID)
	cfg.ClientSecret = strings.TrimSpace(cfg.ClientSecret)
	cfg.RedirectURI = strings.TrimSpace(cfg.RedirectURI)
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("auth: client_id is required")
	}
	if cfg.ClientSecret == "" {
		return nil, fmt.Errorf("auth: client_secret is required")
	}
	if strings.TrimSpace(cfg.OAuthBaseURL) == "" {
		cfg.OAuthBaseURL = core.DefaultOAuthBaseURL
	}
	if strings.TrimSpace(cfg.APIBaseURL) == "" {
		cfg.APIBaseURL = core.DefaultAPIBaseURL
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = core.DefaultRequestTimeout
	}
	client := &OAuthClient{
		config:     cfg,
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		now:        time.Now,
		random:     rand.Reader,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(client)
	}
	return client, nil
}

// AuthorizationURL builds a PKCE (S256) authorization URL for scopes.
func (c *OAuthClient) AuthorizationURL(scopes []core.Scope) (AuthorizationRequest, error) {
	if c.config.RedirectURI == "" {
		return AuthorizationRequest{}, fmt.Errorf("auth: redirect_uri is required to build an authorization url")
	}
	stateBytes, err := c.randomBytes(16)
	if err != nil {
		return AuthorizationRequest{}, err
	}
	verifierBytes, err := c.randomBytes(32)
	if err != nil {
		return AuthorizationRequest{}, err
	}
	state := hex.EncodeToString(stateBytes)
	verifier := base64.RawURLEncoding.EncodeToString(verifierBytes)
	challenge := sha256.Sum256([]byte(verifier))

	params := url.Values{}
	params.Set("client_id", c.config.ClientID)
	params.Set("response_type", "code")
	params.Set("state", state)
	params.Set("scope", core.JoinScopes(scopes))
	params.Set("code_challenge", base64.RawURLEncoding.EncodeToString(challenge[:]))
	params.Set("code_challenge_method", "S256")
	if strings.Contains(c.config.RedirectURI, "127.0.0.1") {
		params.Set("redirect", "127.0.0.1")
	}
	params.Set("redirect_uri", c.config.RedirectURI)

	return AuthorizationRequest{
		URL:          core.JoinURL(c.config.OAuthBaseURL, "authorize") + "?" + params.Encode(),
		State:        state,
		CodeVerifier: verifier,
	}, nil
}

// ExchangeCode trades an authorization code for a delegated token set.
func (c *OAuthClient) ExchangeCode(ctx context.Context, code string, codeVerifier string) (core.TokenSet, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", strings.TrimSpace(code))
	form.Set("code_verifier", strings.TrimSpace(codeVerifier))
	form.Set("redirect_uri", c.config.RedirectURI)
	payload, err := c.fetchToken(ctx, form)
	if err != nil {
		return core.TokenSet{}, err
	}
	return c.delegatedTokenSet(payload)
}

// ApplicationToken runs the client_credentials grant.
func (c *OAuthClient) ApplicationToken(ctx context.Context) (core.TokenSet, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	payload, err := c.fetchToken(ctx, form)
	if err != nil {
		return core.TokenSet{}, err
	}
	return core.TokenSet{
		AccessToken: payload.AccessToken,
		ExpiresAt:   c.expiresAt(payload.ExpiresIn),
	}, nil
}

// RefreshToken runs the refresh_token grant.
func (c *OAuthClient) RefreshToken(ctx context.Context, refreshToken string) (core.TokenSet, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return core.TokenSet{}, oauthError("auth: refresh token is required", 0, nil)
	}
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", strings.TrimSpace(refreshToken))
	payload, err := c.fetchToken(ctx, form)
	if err != nil {
		return core.TokenSet{}, err
	}
	return c.delegatedTokenSet(payload)
}

func (c *OAuthClient) Revoke(ctx context.Context, token string, hint TokenHint) error {
	form := url.Values{}
	form.Set("token", strings.TrimSpace(token))
	if hint != "" {
		form.Set("token_hint_type", string(hint))
	}
	status, body, err := c.postForm(ctx, core.JoinURL(c.config.OAuthBaseURL, "revoke"), form)
	if err != nil {
		return err
	}
	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		return oauthError(fmt.Sprintf("auth: revoke endpoint error (%d)", status), status, body)
	}
	return nil
}

// Introspect reports whether accessToken is active. A 401 from the API is an
// inactive token, not an error.
func (c *OAuthClient) Introspect(ctx context.Context, accessToken string) (Introspection, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	requestCtx, cancel := context.WithTimeout(ctx, c.config.RequestTimeout)
	defer cancel()

	endpoint := core.JoinURL(c.config.APIBaseURL, "token/introspect")
	httpReq, err := http.NewRequestWithContext(requestCtx, http.MethodPost, endpoint, http.NoBody)
	if err != nil {
		return Introspection{}, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+strings.TrimSpace(accessToken))
	httpReq.Header.Set("Accept", "application/json")

	status, body, err := c.do(httpReq)
	if err != nil {
		return Introspection{}, err
	}
	if status == http.StatusUnauthorized {
		return Introspection{Active: false}, nil
	}
	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		return Introspection{}, oauthError(fmt.Sprintf("auth: introspection endpoint error (%d)", status), status, body)
	}

	data, err := core.UnwrapEnvelope(body)
	if err != nil {
		return Introspection{}, core.NewUnexpectedResponseError(err, core.RequestDetail{Endpoint: "/token/introspect", Method: http.MethodPost})
	}
	var payload introspectionPayload
	raw, _ := json.Marshal(core.FromWire(data))
	if err := json.Unmarshal(raw, &payload); err != nil {
		return Introspection{}, core.NewUnexpectedResponseError(err, core.RequestDetail{Endpoint: "/token/introspect", Method: http.MethodPost})
	}
	if err := payload.Validate(); err != nil {
		return Introspection{}, core.NewUnexpectedResponseError(err, core.RequestDetail{Endpoint: "/token/introspect", Method: http.MethodPost})
	}
	if !payload.Active {
		return Introspection{Active: false}, nil
	}
	result := Introspection{
		Active:    true,
		ClientID:  payload.ClientID,
		ExpiresAt: time.Unix(payload.Exp, 0).UTC(),
		TokenType: payload.TokenType,
	}
	if payload.TokenType == TokenKindUser {
		result.Scopes = core.ParseScopes(payload.Scope)
	}
	return result, nil
}

func (c *OAuthClient) delegatedTokenSet(payload tokenEndpointPayload) (core.TokenSet, error) {
	if strings.TrimSpace(payload.RefreshToken) == "" {
		return core.TokenSet{}, oauthError("auth: token endpoint response missing refresh token", 0, nil)
	}
	return core.TokenSet{
		AccessToken:  payload.AccessToken,
		ExpiresAt:    c.expiresAt(payload.ExpiresIn),
		Scopes:       core.ParseScopes(payload.Scope),
		RefreshToken: payload.RefreshToken,
	}, nil
}

func (c *OAuthClient) expiresAt(expiresIn int64) time.Time {
	if expiresIn <= 0 {
		return time.Time{}
	}
	return c.now().UTC().Add(time.Duration(expiresIn) * time.Second)
}

func (c *OAuthClient) fetchToken(ctx context.Context, form url.Values) (tokenEndpointPayload, error) {
	values := url.Values{}
	for key, items := range form {
		if strings.TrimSpace(key) == "" {
			continue
		}
		for _, item := range items {
			values.Add(key, strings.TrimSpace(item))
		}
	}
	values.Set("client_id", c.config.ClientID)
	values.Set("client_secret", c.config.ClientSecret)

	status, body, err := c.postForm(ctx, core.JoinURL(c.config.OAuthBaseURL, "token"), values)
	if err != nil {
		return tokenEndpointPayload{}, err
	}
	payload, parseErr := parseTokenPayloadJSON(body)
	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		return tokenEndpointPayload{}, oauthError(
			fmt.Sprintf("auth: token endpoint error (%d): %s", status, describeTokenError(payload)),
			status,
			body,
		)
	}
	if parseErr != nil {
		return tokenEndpointPayload{}, oauthError(fmt.Sprintf("auth: decode token response: %v", parseErr), status, body)
	}
	if payload.ErrorCode != "" {
		return tokenEndpointPayload{}, oauthError("auth: token endpoint error: "+describeTokenError(payload), status, body)
	}
	if strings.TrimSpace(payload.AccessToken) == "" {
		return tokenEndpointPayload{}, oauthError("auth: token endpoint response missing access token", status, body)
	}
	return payload, nil
}

func (c *OAuthClient) postForm(ctx context.Context, endpoint string, form url.Values) (int, []byte, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	requestCtx, cancel := context.WithTimeout(ctx, c.config.RequestTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(requestCtx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return 0, nil, err
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Accept", "application/json")
	return c.do(httpReq)
}

func (c *OAuthClient) do(httpReq *http.Request) (int, []byte, error) {
	response, err := c.httpClient.Do(httpReq)
	if err != nil {
		return 0, nil, goerrors.Wrap(err, goerrors.CategoryExternal, "auth: request failed").
			WithTextCode(core.ErrorTransport).
			WithCode(http.StatusBadGateway).
			WithMetadata(map[string]any{"url": httpReq.URL.String()})
	}
	defer response.Body.Close()

	body, err := io.ReadAll(io.LimitReader(response.Body, maxTokenResponseBodyBytes+1))
	if err != nil {
		return 0, nil, fmt.Errorf("auth: read response: %w", err)
	}
	if int64(len(body)) > maxTokenResponseBodyBytes {
		return 0, nil, fmt.Errorf("auth: response exceeds %d bytes", maxTokenResponseBodyBytes)
	}
	return response.StatusCode, body, nil
}

func (c *OAuthClient) randomBytes(size int) ([]byte, error) {
	buf := make([]byte, size)
	if _, err := io.ReadFull(c.random, buf); err != nil {
		return nil, fmt.Errorf("auth: generate random bytes: %w", err)
	}
	return buf, nil
}

func oauthError(message string, status int, body []byte) *goerrors.Error {
	err := goerrors.New(message, goerrors.CategoryAuth).
		WithTextCode(core.ErrorOAuth).
		WithCode(http.StatusUnauthorized)
	metadata := map[string]any{}
	if status != 0 {
		metadata["status_code"] = status
	}
	if len(strings.TrimSpace(string(body))) > 0 {
		metadata["response_body"] = string(body)
	}
	return err.WithMetadata(metadata)
}

func describeTokenError(payload tokenEndpointPayload) string {
	if strings.TrimSpace(payload.ErrorDescription) != "" {
		return strings.TrimSpace(payload.ErrorDescription)
	}
	if strings.TrimSpace(payload.ErrorCode) != "" {
		return strings.TrimSpace(payload.ErrorCode)
	}
	return "unknown error"
}

func parseTokenPayloadJSON(body []byte) (tokenEndpointPayload, error) {
	if len(strings.TrimSpace(string(body))) == 0 {
		return tokenEndpointPayload{}, fmt.Errorf("empty payload")
	}
	var decoded map[string]any
	if err := json.Unmarshal(body, &decoded); err != nil {
		return tokenEndpointPayload{}, err
	}
	return tokenEndpointPayload{
		AccessToken:      readAnyString(decoded["access_token"]),
		TokenType:        readAnyString(decoded["token_type"]),
		RefreshToken:     readAnyString(decoded["refresh_token"]),
		Scope:            readAnyString(decoded["scope"]),
		ExpiresIn:        readAnyInt64(decoded["expires_in"]),
		ErrorCode:        readAnyString(decoded["error"]),
		ErrorDescription: readAnyString(decoded["error_description"]),
	}, nil
}

func readAnyString(value any) string {
	switch typed := value.(type) {
	case string:
		return strings.TrimSpace(typed)
	case json.Number:
		return strings.TrimSpace(typed.String())
	case nil:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(value))
	}
}

func readAnyInt64(value any) int64 {
	switch typed := value.(type) {
	case float64:
		return int64(typed)
	case json.Number:
		if parsed, err := typed.Int64(); err == nil {
			return parsed
		}
	case string:
		if parsed, err := strconv.ParseInt(strings.TrimSpace(typed), 10, 64); err == nil {
			return parsed
		}
	}
	return 0
}

var _ core.Refresher = (*OAuthClient)(nil)
