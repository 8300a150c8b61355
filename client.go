package ytupload

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"ytupload/auth"
	"ytupload/config"
	"ytupload/credentials"
	"ytupload/internal/retry"
	"ytupload/metadata"
	"ytupload/transport"
	"ytupload/upload"
)

// DefaultRegion is used by Categories when no region code is given.
const DefaultRegion = "US"

// Client uploads videos to one YouTube account.
type Client struct {
	cfg        *config.Config
	store      credentials.Store
	tokens     *auth.Manager
	httpClient *http.Client
	logger     *log.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger used by the client and its components.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithStore replaces the credential file store.
func WithStore(s credentials.Store) Option {
	return func(c *Client) { c.store = s }
}

// WithHTTPClient sets the base HTTP client. Authorization is layered on top.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a client from validated configuration.
func New(cfg *config.Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("ytupload: nil config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Client{cfg: cfg, logger: log.Default()}
	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		c.httpClient = transport.New(&transport.Config{
			UserAgent: cfg.UserAgent,
			Transport: transport.DefaultTransportConfig(),
		})
	}
	if c.store == nil {
		c.store = credentials.NewFileStore(cfg.CredentialsPath(), cfg.LockTimeout)
	}

	endpoint := google.Endpoint
	if cfg.AuthURL != "" {
		endpoint.AuthURL = cfg.AuthURL
	}
	if cfg.TokenURL != "" {
		endpoint.TokenURL = cfg.TokenURL
	}
	oauthCfg := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURI,
		Scopes:       cfg.Scopes,
		Endpoint:     endpoint,
	}

	c.tokens = auth.NewManager(oauthCfg, c.store,
		auth.WithHTTPClient(c.httpClient),
		auth.WithLogger(c.logger),
		auth.WithExpirySkew(cfg.ExpirySkew),
	)
	return c, nil
}

// Tokens returns the token manager.
func (c *Client) Tokens() *auth.Manager { return c.tokens }

// CreateAuthURL returns the consent page URL for offline access.
// It makes no network calls.
func (c *Client) CreateAuthURL() string {
	return c.tokens.AuthCodeURL("")
}

// Authenticate exchanges a one-time authorization code and stores the
// resulting credentials.
func (c *Client) Authenticate(ctx context.Context, code string) error {
	if _, err := c.tokens.ExchangeCode(ctx, code); err != nil {
		return err
	}
	c.logger.Printf("ytupload: credentials stored")
	return nil
}

type uploadOptions struct {
	part     string
	params   map[string]string
	progress upload.ProgressFunc
}

// UploadOption configures a single Upload call.
type UploadOption func(*uploadOptions)

// WithPart sets the resource parts written by the insert (default "snippet,status").
func WithPart(part string) UploadOption {
	return func(o *uploadOptions) { o.part = part }
}

// WithParams adds query parameters to the insert call, such as
// notifySubscribers. Empty values are dropped.
func WithParams(params map[string]string) UploadOption {
	return func(o *uploadOptions) { o.params = params }
}

// WithProgress reports progress after each chunk.
func WithProgress(fn upload.ProgressFunc) UploadOption {
	return func(o *uploadOptions) { o.progress = fn }
}

// Upload sends the file at filePath as a new video described by the dotted
// properties (for example "snippet.title" or "snippet.tags[]").
func (c *Client) Upload(ctx context.Context, filePath string, properties map[string]string, opts ...UploadOption) (*youtube.Video, error) {
	o := uploadOptions{part: upload.DefaultPart}
	for _, opt := range opts {
		opt(&o)
	}

	if _, err := c.tokens.EnsureValidAccessToken(ctx); err != nil {
		return nil, err
	}

	resource, err := metadata.Build(properties)
	if err != nil {
		return nil, err
	}

	u := upload.New(c.tokens.HTTPClient(ctx), upload.Config{
		UploadURL:      c.cfg.UploadURL,
		ChunkSize:      c.cfg.ChunkSize,
		ChunkDelay:     c.cfg.ChunkDelay,
		RequestTimeout: c.cfg.RequestTimeout,
		Retry: retry.Config{
			MaxRetries:     c.cfg.MaxRetries,
			InitialBackoff: c.cfg.InitialBackoff,
			MaxBackoff:     c.cfg.MaxBackoff,
			Multiplier:     c.cfg.BackoffMultiplier,
			JitterFraction: retry.DefaultConfig().JitterFraction,
		},
	}, upload.WithLogger(c.logger), upload.WithProgress(o.progress))

	return u.Upload(ctx, upload.Request{
		FilePath: filePath,
		Resource: resource,
		Part:     o.part,
		Params:   o.params,
	})
}

// Categories lists the assignable video categories for a region from the
// Data API, keyed by category id. metadata.Categories holds a static copy
// for offline use.
func (c *Client) Categories(ctx context.Context, regionCode string) (map[string]string, error) {
	if regionCode == "" {
		regionCode = DefaultRegion
	}

	opts := []option.ClientOption{option.WithHTTPClient(c.tokens.HTTPClient(ctx))}
	if c.cfg.APIEndpoint != "" {
		opts = append(opts, option.WithEndpoint(c.cfg.APIEndpoint))
	}
	service, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create youtube service: %w", err)
	}

	resp, err := service.VideoCategories.List([]string{"snippet"}).RegionCode(regionCode).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("list video categories: %w", err)
	}

	out := make(map[string]string, len(resp.Items))
	for _, item := range resp.Items {
		if item.Snippet == nil || !item.Snippet.Assignable {
			continue
		}
		out[item.Id] = item.Snippet.Title
	}
	return out, nil
}
