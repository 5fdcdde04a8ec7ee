package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
)

const defaultUserAgent = "Mozilla/5.0 (Linux; Android 14; Pixel 7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Mobile Safari/537.36"

// defaultHeaders mimic a common mobile browser. Caller headers win on
// conflict.
var defaultHeaders = map[string]string{
	"User-Agent":      defaultUserAgent,
	"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
	"Accept-Language": "en-US,en;q=0.9",
}

// Request describes one outbound call. Transport knows nothing about what
// the payload means.
type Request struct {
	URL     string
	Method  string
	Headers map[string]string
	Body    []byte
}

// Options tune a single Do call. Zero values fall back to the client's
// defaults.
type Options struct {
	Timeout        time.Duration
	MaxAttempts    int
	CheckChallenge bool
}

// Response is a normalized response: JSON and markup consumers share this
// one shape.
type Response struct {
	StatusCode int
	Header     http.Header
	body       []byte
}

func (r *Response) Bytes() []byte { return r.body }

func (r *Response) JSON(v any) error {
	if err := json.Unmarshal(r.body, v); err != nil {
		return fmt.Errorf("decode json: %w", err)
	}
	return nil
}

func (r *Response) Document() (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(bytes.NewReader(r.body))
}

type ClientOptions struct {
	UserAgent string
	Cookie    string
	Timeout   time.Duration
	Retry     RetryPolicy
	Gate      *HostGate

	// test hooks
	Sleeper Sleeper
}

type Client struct {
	http    *resty.Client
	gate    *HostGate
	retry   RetryPolicy
	sleep   Sleeper
	timeout time.Duration
}

func NewClient(opts ClientOptions) *Client {
	rc := resty.New()

	jar, _ := cookiejar.New(nil)
	rc.SetCookieJar(jar)
	rc.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(rc.GetClient().Transport)

	for k, v := range defaultHeaders {
		rc.SetHeader(k, v)
	}
	if opts.UserAgent != "" {
		rc.SetHeader("User-Agent", opts.UserAgent)
	}
	if opts.Cookie != "" {
		rc.SetHeader("Cookie", opts.Cookie)
	}

	retry := opts.Retry
	if retry.MaxAttempts == 0 {
		retry = DefaultRetryPolicy()
	}
	if retry.Backoff == nil {
		retry.Backoff = ExponentialBackoff
	}

	gate := opts.Gate
	if gate == nil {
		gate = NewHostGate(5, time.Second)
	}

	var sleep Sleeper = realSleeper{}
	if opts.Sleeper != nil {
		sleep = opts.Sleeper
	}

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		http:    rc,
		gate:    gate,
		retry:   retry,
		sleep:   sleep,
		timeout: timeout,
	}
}

// Get is shorthand for Do with a GET request.
func (c *Client) Get(ctx context.Context, rawurl string, opts Options) (*Response, error) {
	return c.Do(ctx, Request{URL: rawurl, Method: http.MethodGet}, opts)
}

// Do executes the request with per-host rate limiting, per-attempt timeouts,
// challenge detection and retry with exponential backoff. The last error is
// surfaced once the retry budget runs out.
func (c *Client) Do(ctx context.Context, req Request, opts Options) (*Response, error) {
	u, err := url.Parse(req.URL)
	if err != nil {
		return nil, fmt.Errorf("bad url %q: %w", req.URL, err)
	}
	host := u.Hostname()

	attempts := opts.MaxAttempts
	if attempts == 0 {
		attempts = c.retry.MaxAttempts
	}
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = c.timeout
	}

	var lastErr error

	for attempt := 0; attempt < attempts; attempt++ {
		if err := c.gate.Wait(ctx, host); err != nil {
			return nil, mapCtxErr(err)
		}

		res, err := c.attempt(ctx, req, timeout)

		delay := time.Duration(0)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				// caller deadline aborts immediately, no retry
				return nil, mapCtxErr(ctx.Err())
			}
			lastErr = err
			delay = c.retry.Backoff(attempt)

		case opts.CheckChallenge && IsChallenge(res.StatusCode, res.Header, res.body):
			slog.Debug("challenge detected", "url", req.URL, "attempt", attempt, "status", res.StatusCode)
			lastErr = ErrBlocked
			delay = ChallengeBackoff(attempt)

		case res.StatusCode >= 200 && res.StatusCode < 300:
			return res, nil

		default:
			lastErr = &StatusError{Code: res.StatusCode}
			delay = c.retry.Backoff(attempt)
		}

		if attempt < attempts-1 {
			slog.Debug("retrying request", "url", req.URL, "attempt", attempt, "delay", delay, "cause", lastErr)
			if err := c.sleep.Sleep(ctx, delay); err != nil {
				return nil, mapCtxErr(err)
			}
		}
	}

	if errors.Is(lastErr, ErrBlocked) {
		return nil, fmt.Errorf("%s: %w", req.URL, ErrBlocked)
	}

	return nil, fmt.Errorf("%s: %w", req.URL, lastErr)
}

func (c *Client) attempt(ctx context.Context, req Request, timeout time.Duration) (*Response, error) {
	actx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	r := c.http.R().SetContext(actx)
	for k, v := range req.Headers {
		r.SetHeader(k, v)
	}
	if len(req.Body) > 0 {
		r.SetBody(req.Body)
	}

	res, err := r.Execute(method, req.URL)
	if err != nil {
		if actx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
			return nil, fmt.Errorf("%s: %w", req.URL, ErrTimeout)
		}
		return nil, fmt.Errorf("%s %s: %w", method, req.URL, err)
	}

	return &Response{
		StatusCode: res.StatusCode(),
		Header:     res.Header(),
		body:       res.Body(),
	}, nil
}

func mapCtxErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	return err
}
