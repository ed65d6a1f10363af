package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

const (
	DefaultBaseURL = "http://localhost:8000/api/"
	DefaultTimeout = 15 * time.Second

	// RequestIDHeader correlates a page request with backend logs.
	RequestIDHeader = "X-Request-ID"

	maxResponseBody = 10 << 20
)

// UnauthenticatedEvent is emitted when a resource call answers 401.
type UnauthenticatedEvent struct {
	Method string
	Path   string
	Err    *Error
	// Token is the access token the rejected request carried, empty when
	// it went out anonymous. Subscribers use it to ignore stale rejections.
	Token string
}

// Response is the raw result of a successful exchange.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Client is the single egress to the backend. Every request goes through
// the bearer transport, which reads the credential from the token source at
// send time.
type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	logger     zerolog.Logger

	mu          sync.RWMutex
	tokenSource oauth2.TokenSource
	nextSubID   uint64
	subscribers map[uint64]func(UnauthenticatedEvent)

	Auth        *AuthService
	Tournaments *TournamentService
	Teams       *TeamService
	Matches     *MatchService
	Users       *UserService
	Dashboard   *DashboardService
}

type ClientOption func(*Client)

func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithHTTPClient sets the underlying client. Its transport is wrapped, not
// replaced, so bearer attachment still applies.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func WithLogger(logger zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

func WithTokenSource(src oauth2.TokenSource) ClientOption {
	return func(c *Client) {
		c.tokenSource = src
	}
}

// New creates a Client rooted at baseURL.
func New(baseURL string, options ...ClientOption) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, errors.New("gateway: base URL must be absolute, got " + baseURL)
	}

	c := &Client{
		baseURL:     parsed.String(),
		timeout:     DefaultTimeout,
		logger:      zerolog.Nop(),
		subscribers: make(map[uint64]func(UnauthenticatedEvent)),
	}
	for _, opt := range options {
		opt(c)
	}

	base := http.DefaultTransport
	hc := &http.Client{}
	if c.httpClient != nil {
		*hc = *c.httpClient
		if hc.Transport != nil {
			base = hc.Transport
		}
	}
	hc.Transport = &bearerTransport{base: base, source: c.currentTokenSource}
	c.httpClient = hc

	c.Auth = &AuthService{c: c}
	c.Tournaments = &TournamentService{c: c}
	c.Teams = &TeamService{c: c}
	c.Matches = &MatchService{c: c}
	c.Users = &UserService{c: c}
	c.Dashboard = &DashboardService{c: c}
	return c, nil
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// UseTokenSource replaces the credential provider. A nil source makes every
// request anonymous.
func (c *Client) UseTokenSource(src oauth2.TokenSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokenSource = src
}

func (c *Client) currentTokenSource() oauth2.TokenSource {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tokenSource
}

// OnUnauthenticated registers fn for every 401 received from a non-auth
// endpoint. fn runs synchronously before the failing call returns.
func (c *Client) OnUnauthenticated(fn func(UnauthenticatedEvent)) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextSubID
	c.nextSubID++
	c.subscribers[id] = fn
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subscribers, id)
			c.mu.Unlock()
		})
	}
}

func (c *Client) emitUnauthenticated(ev UnauthenticatedEvent) {
	c.mu.RLock()
	fns := make([]func(UnauthenticatedEvent), 0, len(c.subscribers))
	for _, fn := range c.subscribers {
		fns = append(fns, fn)
	}
	c.mu.RUnlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// Do performs one JSON exchange. body, when non-nil, is encoded as JSON;
// out, when non-nil, receives the decoded 2xx body. Every failure is a
// *Error.
func (c *Client) Do(ctx context.Context, method, path string, body any, query url.Values, out any) (*Response, error) {
	return c.exchange(ctx, request{method: method, path: path, body: body, query: query, out: out})
}

type request struct {
	method string
	path   string
	body   any
	query  url.Values
	out    any
	// auth endpoints answer 401 for bad credentials; that is not a lost
	// session.
	auth bool
}

func (c *Client) exchange(ctx context.Context, r request) (*Response, error) {
	endpoint, err := c.resolve(r.path, r.query)
	if err != nil {
		return nil, &Error{Kind: KindBadRequest, Method: r.method, Path: r.path, Message: msgBadRequest, err: err}
	}

	var reader io.Reader
	if r.body != nil {
		data, err := json.Marshal(r.body)
		if err != nil {
			return nil, &Error{Kind: KindBadRequest, Method: r.method, Path: r.path, Message: msgBadRequest, err: err}
		}
		reader = bytes.NewReader(data)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, r.method, endpoint, reader)
	if err != nil {
		return nil, &Error{Kind: KindBadRequest, Method: r.method, Path: r.path, Message: msgBadRequest, err: err}
	}
	req.Header.Set("Accept", "application/json")
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	requestID := uuid.NewString()
	req.Header.Set(RequestIDHeader, requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		apiErr := classify(r.method, r.path, 0, nil, err, nil)
		c.logger.Debug().Err(err).
			Str("method", r.method).
			Str("url", endpoint).
			Str("request_id", requestID).
			Dur("duration", time.Since(start)).
			Bool("timeout", apiErr.Timeout).
			Msg("backend unreachable")
		return nil, apiErr
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, classify(r.method, r.path, resp.StatusCode, nil, err, nil)
	}

	c.logger.Debug().
		Str("method", r.method).
		Str("url", endpoint).
		Str("request_id", requestID).
		Bool("bearer", sentToken(resp) != "").
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("backend exchange")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := classify(r.method, r.path, resp.StatusCode, data, nil, nil)
		if apiErr.Kind == KindUnauthenticated && !r.auth {
			c.emitUnauthenticated(UnauthenticatedEvent{Method: r.method, Path: r.path, Err: apiErr, Token: sentToken(resp)})
		}
		return nil, apiErr
	}

	if r.out != nil && len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, r.out); err != nil {
			return nil, classify(r.method, r.path, resp.StatusCode, data, nil, err)
		}
	}
	return &Response{Status: resp.StatusCode, Header: resp.Header, Body: data}, nil
}

// sentToken returns the bearer credential the transport attached to the
// request that produced resp.
func sentToken(resp *http.Response) string {
	if resp.Request == nil {
		return ""
	}
	auth := resp.Request.Header.Get("Authorization")
	if len(auth) > 7 && strings.EqualFold(auth[:7], "Bearer ") {
		return auth[7:]
	}
	return ""
}

// resolve joins a resource path such as "tournois/7/" onto the base URL,
// keeping the trailing slash the backend routes require.
func (c *Client) resolve(path string, query url.Values) (string, error) {
	joined, err := url.JoinPath(c.baseURL, path)
	if err != nil {
		return "", err
	}
	if len(query) == 0 {
		return joined, nil
	}
	u, err := url.Parse(joined)
	if err != nil {
		return "", err
	}
	u.RawQuery = query.Encode()
	return u.String(), nil
}

// bearerTransport attaches the current credential to every outgoing
// request. With no source, or no token, the request goes out anonymous.
type bearerTransport struct {
	base   http.RoundTripper
	source func() oauth2.TokenSource
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	src := t.source()
	if src == nil {
		return t.base.RoundTrip(req)
	}
	tok, err := src.Token()
	if err != nil {
		if req.Body != nil {
			req.Body.Close()
		}
		return nil, err
	}
	if tok == nil || tok.AccessToken == "" {
		return t.base.RoundTrip(req)
	}

	authed := req.Clone(req.Context())
	tok.SetAuthHeader(authed)
	return t.base.RoundTrip(authed)
}
