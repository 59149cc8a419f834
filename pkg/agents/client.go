package agents

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/rs/zerolog"
)

const (
	DefaultAPIVersion   = "v1"
	DefaultPollInterval = time.Second

	pageLimit = "100"
)

// Client talks to the agents endpoint of one Foundry project. The transport
// is openai-go's generic request API since the service shares its
// assistants-style resource layout.
type Client struct {
	openai       openai.Client
	httpClient   *http.Client
	pollInterval time.Duration
	logger       zerolog.Logger
}

type settings struct {
	apiVersion   string
	pollInterval time.Duration
	maxRetries   int
	httpClient   *http.Client
	debugLog     *log.Logger
	logger       zerolog.Logger
	extra        []option.RequestOption
}

type Option func(*settings)

func WithAPIVersion(version string) Option {
	return func(s *settings) { s.apiVersion = version }
}

func WithPollInterval(d time.Duration) Option {
	return func(s *settings) { s.pollInterval = d }
}

func WithMaxRetries(n int) Option {
	return func(s *settings) { s.maxRetries = n }
}

func WithHTTPClient(c *http.Client) Option {
	return func(s *settings) { s.httpClient = c }
}

// WithDebugLog dumps every request and response to l.
func WithDebugLog(l *log.Logger) Option {
	return func(s *settings) { s.debugLog = l }
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *settings) { s.logger = l }
}

// WithRequestOptions appends raw openai-go request options, typically the
// credential middleware.
func WithRequestOptions(opts ...option.RequestOption) Option {
	return func(s *settings) { s.extra = append(s.extra, opts...) }
}

func New(endpoint string, opts ...Option) (*Client, error) {
	u, err := url.Parse(endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid project endpoint %q", endpoint)
	}

	s := settings{
		apiVersion:   DefaultAPIVersion,
		pollInterval: DefaultPollInterval,
		logger:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&s)
	}
	if s.httpClient == nil {
		s.httpClient = &http.Client{}
	}
	if s.pollInterval <= 0 {
		s.pollInterval = DefaultPollInterval
	}

	options := []option.RequestOption{
		option.WithBaseURL(endpoint),
		option.WithHTTPClient(s.httpClient),
		option.WithQuery("api-version", s.apiVersion),
		option.WithMaxRetries(s.maxRetries),
		option.WithMiddleware(requestID),
	}
	if s.debugLog != nil {
		options = append(options, option.WithDebugLog(s.debugLog))
	}
	options = append(options, s.extra...)

	return &Client{
		openai:       openai.NewClient(options...),
		httpClient:   s.httpClient,
		pollInterval: s.pollInterval,
		logger:       s.logger,
	}, nil
}

func requestID(req *http.Request, next option.MiddlewareNext) (*http.Response, error) {
	if req.Header.Get("x-ms-client-request-id") == "" {
		req.Header.Set("x-ms-client-request-id", uuid.NewString())
	}
	return next(req)
}

// Close releases pooled connections. The client must not be used afterwards.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

func (c *Client) CreateAgent(ctx context.Context, params AgentParams) (*Agent, error) {
	var agent Agent
	if err := c.openai.Post(ctx, "assistants", params, &agent); err != nil {
		return nil, fmt.Errorf("create agent: %w", err)
	}
	return &agent, nil
}

func (c *Client) DeleteAgent(ctx context.Context, agentID string) error {
	var res deletion
	if err := c.openai.Delete(ctx, "assistants/"+url.PathEscape(agentID), nil, &res); err != nil {
		return fmt.Errorf("delete agent %s: %w", agentID, err)
	}
	if !res.Deleted {
		return fmt.Errorf("delete agent %s: service did not confirm deletion", agentID)
	}
	return nil
}

func (c *Client) CreateThread(ctx context.Context) (*Thread, error) {
	var thread Thread
	if err := c.openai.Post(ctx, "threads", map[string]any{}, &thread); err != nil {
		return nil, fmt.Errorf("create thread: %w", err)
	}
	return &thread, nil
}

func (c *Client) CreateMessage(ctx context.Context, threadID, role, content string) (*Message, error) {
	body := map[string]string{"role": role, "content": content}
	var msg Message
	if err := c.openai.Post(ctx, threadPath(threadID, "messages"), body, &msg); err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}
	return &msg, nil
}

func (c *Client) ListMessages(ctx context.Context, threadID string) ([]Message, error) {
	msgs, err := list[Message](ctx, c, threadPath(threadID, "messages"))
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return msgs, nil
}

func (c *Client) ListRunSteps(ctx context.Context, threadID, runID string) ([]RunStep, error) {
	steps, err := list[RunStep](ctx, c, threadPath(threadID, "runs", runID, "steps"))
	if err != nil {
		return nil, fmt.Errorf("list run steps: %w", err)
	}
	return steps, nil
}

func list[T any](ctx context.Context, c *Client, path string) ([]T, error) {
	var all []T
	after := ""
	for {
		opts := []option.RequestOption{option.WithQuery("limit", pageLimit)}
		if after != "" {
			opts = append(opts, option.WithQuery("after", after))
		}

		var p page[T]
		if err := c.openai.Get(ctx, path, nil, &p, opts...); err != nil {
			return nil, err
		}
		all = append(all, p.Data...)

		if !p.HasMore || p.LastID == "" || p.LastID == after {
			return all, nil
		}
		after = p.LastID
	}
}

func threadPath(threadID string, rest ...string) string {
	path := "threads/" + url.PathEscape(threadID)
	for _, r := range rest {
		path += "/" + url.PathEscape(r)
	}
	return path
}
