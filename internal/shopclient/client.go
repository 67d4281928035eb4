// Package shopclient talks to the shop HTTP API: authentication endpoints
// and the paginated product catalog.
package shopclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spiffcs/storefront/internal/constants"
	"github.com/spiffcs/storefront/internal/log"
	"github.com/spiffcs/storefront/internal/model"
	"github.com/spiffcs/storefront/internal/session"
)

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 64 << 10

// Client wraps the shop API.
type Client struct {
	baseURL string
	http    *http.Client
	session *session.Session
}

type options struct {
	retries        int
	backoff        time.Duration
	timeout        time.Duration
	transport      http.RoundTripper
	onUnauthorized func()
}

// Option configures a Client.
type Option func(*options)

// WithRetries sets how many times a failed GET is retried.
func WithRetries(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.retries = n
		}
	}
}

// WithBackoff sets the base delay between retries.
func WithBackoff(d time.Duration) Option {
	return func(o *options) {
		o.backoff = d
	}
}

// WithTimeout bounds each call, including retries.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithTransport replaces the underlying round tripper.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) {
		o.transport = rt
	}
}

// WithOnUnauthorized registers a callback run after the server rejects the
// session token and the session has been cleared.
func WithOnUnauthorized(fn func()) Option {
	return func(o *options) {
		o.onUnauthorized = fn
	}
}

// New creates a client for the API at baseURL. The session supplies the
// bearer token for every request and is cleared on a 401.
func New(baseURL string, sess *session.Session, opts ...Option) (*Client, error) {
	if baseURL == "" {
		baseURL = constants.DefaultBaseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base URL %q: scheme must be http or https", baseURL)
	}

	o := options{
		retries:   constants.DefaultRetries,
		backoff:   constants.RetryBackoff,
		timeout:   constants.DefaultTimeout,
		transport: http.DefaultTransport,
	}
	for _, opt := range opts {
		opt(&o)
	}

	var rt http.RoundTripper = &retryTransport{
		base:    o.transport,
		retries: o.retries,
		backoff: o.backoff,
	}
	auth := &authTransport{base: rt, onUnauthorized: o.onUnauthorized}
	if sess != nil {
		auth.source = sess
		auth.clear = sess.Clear
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Transport: auth, Timeout: o.timeout},
		session: sess,
	}, nil
}

// BaseURL returns the API root without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Register creates an account and stores the returned token in the session.
func (c *Client) Register(ctx context.Context, reg model.Registration) (*model.AuthResponse, error) {
	var resp model.AuthResponse
	if err := c.do(ctx, http.MethodPost, constants.PathRegister, nil, reg, &resp); err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	if err := c.storeAuth(&resp); err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	return &resp, nil
}

// Login exchanges credentials for a token and stores it in the session.
func (c *Client) Login(ctx context.Context, creds model.LoginCredentials) (*model.AuthResponse, error) {
	var resp model.AuthResponse
	if err := c.do(ctx, http.MethodPost, constants.PathLogin, nil, creds, &resp); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if err := c.storeAuth(&resp); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	return &resp, nil
}

func (c *Client) storeAuth(resp *model.AuthResponse) error {
	token := resp.Token()
	if token == "" {
		return fmt.Errorf("%w: no access token", ErrMalformedResponse)
	}
	if c.session == nil {
		return nil
	}
	return c.session.Set(token, resp.User)
}

// Logout revokes the token server-side. The local session is cleared
// whether or not the server call succeeds.
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, constants.PathLogout, nil, nil, nil)
	if c.session != nil {
		if clearErr := c.session.Clear(); clearErr != nil {
			log.Warn("failed to clear session", "error", clearErr)
		}
	}
	if err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// userEnvelope accepts both a bare user object and {"user": {...}}.
type userEnvelope struct {
	model.User
	Wrapped *model.User `json:"user"`
}

// CurrentUser returns the account the session token belongs to.
func (c *Client) CurrentUser(ctx context.Context) (*model.User, error) {
	var env userEnvelope
	if err := c.do(ctx, http.MethodGet, constants.PathUser, nil, nil, &env); err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	if env.Wrapped != nil {
		return env.Wrapped, nil
	}
	u := env.User
	return &u, nil
}

// wirePage mirrors model.Page with pointers so missing pagination fields
// can be told apart from zero.
type wirePage struct {
	Data        []model.Product `json:"data"`
	CurrentPage *int            `json:"current_page"`
	LastPage    *int            `json:"last_page"`
	PerPage     int             `json:"per_page"`
	Total       int             `json:"total"`
}

// FetchPage fetches one page of the product catalog.
func (c *Client) FetchPage(ctx context.Context, page int) (*model.Page, error) {
	q := url.Values{"page": []string{strconv.Itoa(page)}}

	var w wirePage
	if err := c.do(ctx, http.MethodGet, constants.PathProducts, q, nil, &w); err != nil {
		return nil, err
	}
	if w.CurrentPage == nil || w.LastPage == nil {
		return nil, fmt.Errorf("%w: page %d is missing pagination fields", ErrMalformedResponse, page)
	}

	items := w.Data
	if items == nil {
		items = []model.Product{}
	}
	return &model.Page{
		Items:       items,
		CurrentPage: *w.CurrentPage,
		LastPage:    *w.LastPage,
		PerPage:     w.PerPage,
		Total:       w.Total,
	}, nil
}

// do sends a JSON request and decodes a JSON response into out, if non-nil.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	log.Trace("api request", "method", method, "path", path, "status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, apiErr); err != nil {
			apiErr.Message = strings.TrimSpace(string(raw))
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}
