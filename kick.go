package kick

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-kick/api"
	"github.com/goliatone/go-kick/auth"
	"github.com/goliatone/go-kick/core"
	"github.com/goliatone/go-kick/events"
	"github.com/goliatone/go-kick/ratelimit"
	"github.com/goliatone/go-kick/transport"
	"github.com/goliatone/go-kick/webhooks"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
)

// Client is a Kick API client bound to one credential. The endpoint groups
// of the embedded API are promoted, so client.Chat.Send works directly.
type Client struct {
	*api.API

	core  *core.Client
	oauth *auth.OAuthClient
}

type Option func(*options)

type options struct {
	httpClient     core.HTTPDoer
	transport      core.TransportAdapter
	limiter        core.Limiter
	cache          repositorycache.CacheService
	oauth          *auth.OAuthClient
	coreOptions    []core.Option
	credentialOpts []core.CredentialOption
}

// WithHTTPClient sends API calls through client instead of a new http.Client.
func WithHTTPClient(client core.HTTPDoer) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

func WithTransport(transport core.TransportAdapter) Option {
	return func(o *options) {
		o.transport = transport
	}
}

// WithLimiter replaces the token bucket built from the rate_limit config.
func WithLimiter(limiter core.Limiter) Option {
	return func(o *options) {
		o.limiter = limiter
	}
}

func WithCategoryCache(cache repositorycache.CacheService) Option {
	return func(o *options) {
		o.cache = cache
	}
}

// WithOAuthClient sets the identity client used for grants and token
// introspection.
func WithOAuthClient(client *auth.OAuthClient) Option {
	return func(o *options) {
		o.oauth = client
	}
}

// WithRefreshHook is called with every token set obtained by a refresh, so
// callers can persist it. It only applies to credentials built by this
// package.
func WithRefreshHook(hook core.RefreshHook) Option {
	return func(o *options) {
		o.credentialOpts = append(o.credentialOpts, core.WithRefreshHook(hook))
	}
}

// WithCoreOptions forwards options to the request pipeline.
func WithCoreOptions(opts ...core.Option) Option {
	return func(o *options) {
		o.coreOptions = append(o.coreOptions, opts...)
	}
}

func resolveOptions(opts []Option) options {
	resolved := options{}
	for _, opt := range opts {
		if opt != nil {
			opt(&resolved)
		}
	}
	return resolved
}

// New builds a client for cred.
func New(cfg core.Config, cred *core.Credential, opts ...Option) (*Client, error) {
	return newClient(cfg, cred, resolveOptions(opts))
}

func newClient(cfg core.Config, cred *core.Credential, o options) (*Client, error) {
	if cred == nil {
		return nil, fmt.Errorf("kick: credential is required")
	}
	adapter := o.transport
	if adapter == nil {
		adapter = defaultTransport(cfg, o.httpClient)
	}
	limiter := o.limiter
	if limiter == nil {
		limiter = ratelimit.NewTokenBucket(cfg.RateLimit)
	}
	coreOpts := append([]core.Option{
		core.WithTransport(adapter),
		core.WithLimiter(limiter),
	}, o.coreOptions...)
	pipeline, err := core.NewClient(cfg, cred, coreOpts...)
	if err != nil {
		return nil, err
	}

	cache := o.cache
	if cache == nil && cfg.CategoryCacheTTL > 0 {
		cacheCfg := repositorycache.DefaultConfig()
		cacheCfg.TTL = cfg.CategoryCacheTTL
		cache, err = repositorycache.NewCacheService(cacheCfg)
		if err != nil {
			return nil, fmt.Errorf("kick: category cache: %w", err)
		}
	}
	return &Client{
		API:   api.New(pipeline, api.WithCategoryCache(cache)),
		core:  pipeline,
		oauth: o.oauth,
	}, nil
}

// NewApplication obtains an application token with the configured client
// credentials and returns a client acting as the application.
func NewApplication(ctx context.Context, cfg core.Config, opts ...Option) (*Client, error) {
	o := resolveOptions(opts)
	oauth, err := oauthClient(cfg, &o)
	if err != nil {
		return nil, err
	}
	token, err := oauth.ApplicationToken(ctx)
	if err != nil {
		return nil, err
	}
	cred, err := core.NewApplicationCredential(oauth, token, o.credentialOpts...)
	if err != nil {
		return nil, err
	}
	return newClient(cfg, cred, o)
}

// NewDelegated returns a client acting for the user who granted token.
func NewDelegated(cfg core.Config, token core.TokenSet, opts ...Option) (*Client, error) {
	o := resolveOptions(opts)
	oauth, err := oauthClient(cfg, &o)
	if err != nil {
		return nil, err
	}
	cred, err := core.NewDelegatedCredential(oauth, token, o.credentialOpts...)
	if err != nil {
		return nil, err
	}
	return newClient(cfg, cred, o)
}

// NewFromToken introspects token.AccessToken and builds a client of the
// kind it reports. An inactive token is refreshed when token carries a
// refresh token.
func NewFromToken(ctx context.Context, cfg core.Config, token core.TokenSet, opts ...Option) (*Client, error) {
	o := resolveOptions(opts)
	oauth, err := oauthClient(cfg, &o)
	if err != nil {
		return nil, err
	}
	info, err := oauth.Introspect(ctx, token.AccessToken)
	if err != nil {
		return nil, err
	}

	var cred *core.Credential
	switch {
	case !info.Active:
		if strings.TrimSpace(token.RefreshToken) == "" {
			return nil, bootstrapError("kick: token is inactive and cannot be refreshed",
				goerrors.CategoryAuth, http.StatusUnauthorized, core.ErrorUnauthorized)
		}
		refreshed, refreshErr := oauth.RefreshToken(ctx, token.RefreshToken)
		if refreshErr != nil {
			return nil, core.NewCredentialRefreshError(core.CredentialDelegated, refreshErr)
		}
		cred, err = core.NewDelegatedCredential(oauth, refreshed, o.credentialOpts...)
	case info.TokenType == auth.TokenKindApp:
		cred, err = core.NewApplicationCredential(oauth, core.TokenSet{
			AccessToken: token.AccessToken,
			ExpiresAt:   info.ExpiresAt,
		}, o.credentialOpts...)
	default:
		if strings.TrimSpace(token.RefreshToken) == "" {
			return nil, bootstrapError("kick: user token requires a refresh token",
				goerrors.CategoryBadInput, http.StatusBadRequest, core.ErrorBadRequest)
		}
		cred, err = core.NewDelegatedCredential(oauth, core.TokenSet{
			AccessToken:  token.AccessToken,
			RefreshToken: token.RefreshToken,
			Scopes:       info.Scopes,
			ExpiresAt:    info.ExpiresAt,
		}, o.credentialOpts...)
	}
	if err != nil {
		return nil, err
	}
	return newClient(cfg, cred, o)
}

func oauthClient(cfg core.Config, o *options) (*auth.OAuthClient, error) {
	if o.oauth != nil {
		return o.oauth, nil
	}
	var authOpts []auth.Option
	if o.httpClient != nil {
		authOpts = append(authOpts, auth.WithHTTPClient(o.httpClient))
	}
	client, err := auth.NewOAuthClient(auth.ConfigFrom(cfg), authOpts...)
	if err != nil {
		return nil, err
	}
	o.oauth = client
	return client, nil
}

func defaultTransport(cfg core.Config, doer core.HTTPDoer) core.TransportAdapter {
	if doer == nil {
		timeout := cfg.RequestTimeout
		if timeout <= 0 {
			timeout = core.DefaultRequestTimeout
		}
		doer = &http.Client{Timeout: timeout}
	}
	return transport.NewRESTAdapter(doer)
}

func bootstrapError(message string, category goerrors.Category, status int, textCode string) error {
	return goerrors.New(message, category).
		WithCode(status).
		WithTextCode(textCode)
}

// Endpoints returns the endpoint groups bound to this client's credential.
func (c *Client) Endpoints() *api.API {
	if c == nil {
		return nil
	}
	return c.API
}

func (c *Client) Credential() *core.Credential {
	if c == nil || c.core == nil {
		return nil
	}
	return c.core.Credential()
}

func (c *Client) Config() core.Config {
	if c == nil || c.core == nil {
		return core.Config{}
	}
	return c.core.Config()
}

// OAuth returns the identity client, or nil when the client was built from
// a credential without one.
func (c *Client) OAuth() *auth.OAuthClient {
	if c == nil {
		return nil
	}
	return c.oauth
}

// Subscribe registers handler for eventType deliveries on broadcasterID and
// creates the matching webhook subscription with this client's credential.
// A delegated client can only subscribe for its own user, so broadcasterID
// must be that user's id.
func (c *Client) Subscribe(ctx context.Context, registry *events.Registry, eventType core.EventType, broadcasterID int64, handler events.Handler) error {
	if registry == nil {
		return fmt.Errorf("kick: event registry is required")
	}
	return registry.Register(ctx, eventType, broadcasterID, c, handler)
}

// NewWebhookReceiver returns an http.Handler verifying deliveries against
// the platform key and routing them through registry.
func NewWebhookReceiver(cfg core.Config, registry *events.Registry, opts ...webhooks.ReceiverOption) (*webhooks.Receiver, error) {
	if registry == nil {
		return nil, fmt.Errorf("kick: event registry is required")
	}
	return webhooks.NewReceiver(cfg, defaultTransport(cfg, nil), registry, opts...), nil
}

// ListenAndServe serves receiver on the configured webhook address and path
// until ctx is cancelled.
func ListenAndServe(ctx context.Context, cfg core.Config, receiver http.Handler) error {
	return webhooks.Serve(ctx, cfg.Webhook.Addr, webhooks.Mux(cfg.Webhook.Path, receiver))
}

var _ events.Subscriber = (*Client)(nil)
