package httpinvoker

import (
	"context"
	"io"
	"net/http"
	"net/url"

	"go.uber.org/zap"
)

const DefaultMaxRedirects = 1

// RequestFunc builds the request for one physical attempt against url. It is
// called again for every redirect and retry so bodies are never reused.
type RequestFunc func(ctx context.Context, url string) (*http.Request, error)

// Response is a fully read response; the underlying body is always closed.
type Response struct {
	StatusCode int
	Status     string
	Header     http.Header
	Body       []byte
	URL        string
}

type Invoker interface {
	Invoke(ctx context.Context, url string, build RequestFunc) (*Response, error)
}

// Observer gets notified of every physical request outcome.
type Observer interface {
	ObserveRequest(ctx context.Context, statusCode int, err error)
}

// Client sends requests and follows at most MaxRedirects 302 responses.
type Client struct {
	httpClient   *http.Client
	maxRedirects int
	logger       *zap.SugaredLogger
	observer     Observer
}

type Option func(*Client)

func WithMaxRedirects(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.maxRedirects = n
		}
	}
}

type redirectLimitKey struct{}

// WithRedirectLimit returns a context that makes Invoke follow at most n
// redirects, whatever the client was built with.
func WithRedirectLimit(ctx context.Context, n int) context.Context {
	return context.WithValue(ctx, redirectLimitKey{}, n)
}

func (c *Client) redirectLimit(ctx context.Context) int {
	if n, ok := ctx.Value(redirectLimitKey{}).(int); ok && n >= 0 {
		return n
	}
	return c.maxRedirects
}

func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

func New(httpClient *http.Client, logger *zap.SugaredLogger, opts ...Option) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	// redirects are ours to follow, never the transport's.
	hc := *httpClient
	hc.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	c := &Client{
		httpClient:   &hc,
		maxRedirects: DefaultMaxRedirects,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Invoke(ctx context.Context, target string, build RequestFunc) (*Response, error) {
	current := target
	limit := c.redirectLimit(ctx)
	for followed := 0; ; followed++ {
		resp, err := c.do(ctx, current, build)
		if err != nil {
			return nil, err
		}
		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			return resp, nil
		case resp.StatusCode == http.StatusFound:
			if followed >= limit {
				return nil, &TooManyRedirectsError{Followed: followed, Response: resp}
			}
			next, err := location(current, resp)
			if err != nil {
				return nil, err
			}
			c.logger.Debugf("following redirect from %s to %s", current, next)
			current = next
		default:
			return nil, &UnexpectedStatusError{
				StatusCode: resp.StatusCode,
				Reason:     http.StatusText(resp.StatusCode),
				Response:   resp,
			}
		}
	}
}

func (c *Client) do(ctx context.Context, target string, build RequestFunc) (*Response, error) {
	req, err := build(ctx, target)
	if err != nil {
		return nil, err
	}
	res, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(ctx, 0, err)
		return nil, &TransportError{URL: target, Err: err}
	}
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	if err != nil {
		c.observe(ctx, res.StatusCode, err)
		return nil, &TransportError{URL: target, Err: err}
	}
	c.observe(ctx, res.StatusCode, nil)
	return &Response{
		StatusCode: res.StatusCode,
		Status:     res.Status,
		Header:     res.Header,
		Body:       body,
		URL:        target,
	}, nil
}

func (c *Client) observe(ctx context.Context, code int, err error) {
	if c.observer != nil {
		c.observer.ObserveRequest(ctx, code, err)
	}
}

func location(current string, resp *Response) (string, error) {
	loc := resp.Header.Get("Location")
	if loc == "" {
		return "", &MissingLocationError{Response: resp}
	}
	base, err := url.Parse(current)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(loc)
	if err != nil {
		return "", &MissingLocationError{Response: resp}
	}
	return base.ResolveReference(ref).String(), nil
}
