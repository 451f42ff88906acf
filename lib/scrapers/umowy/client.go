package umowy

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"nfzharvest/lib/telemetry"

	"github.com/go-resty/resty/v2"
)

// FetchFailure is the terminal error for one URL after retries are
// exhausted. callers must treat it as "no data at this node", never as
// fatal to the whole run.
type FetchFailure struct {
	URL string
	Err error
}

func (f *FetchFailure) Error() string {
	return fmt.Sprintf("fetch %s: %v", f.URL, f.Err)
}

func (f *FetchFailure) Unwrap() error {
	return f.Err
}

type ClientOptions struct {
	// BaseURL defaults to the public portal.
	BaseURL string
	// Timeout per request attempt, default 10s.
	Timeout time.Duration
	// MaxRetries after the initial attempt, default 3.
	MaxRetries int
	// RetryWaitTime is the base backoff, default 500ms, doubled per attempt
	// up to 10s.
	RetryWaitTime time.Duration
	// Memoize short-circuits repeated fetches of identical (url, referer)
	// pairs within one run.
	Memoize bool
}

// Client talks to the agreements portal. it is safe for concurrent use;
// the underlying transport and the memo cache are shared by all callers.
type Client struct {
	Base *url.URL

	http    *resty.Client
	memoize bool
	memo    sync.Map
}

func NewClient(opts ClientOptions) (*Client, error) {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	if opts.RetryWaitTime <= 0 {
		opts.RetryWaitTime = 500 * time.Millisecond
	}

	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, err
	}

	client := resty.New()
	client.SetTransport(&http.Transport{
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 10,
	})
	client.SetTimeout(opts.Timeout)
	client.SetHeader("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64)")
	client.SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	client.SetHeader("X-Requested-With", "XMLHttpRequest")
	client.SetRetryCount(opts.MaxRetries)
	client.SetRetryWaitTime(opts.RetryWaitTime)
	client.SetRetryMaxWaitTime(10 * time.Second)
	client.AddRetryCondition(func(res *resty.Response, err error) bool {
		return err != nil || res.IsError()
	})

	telemetry.InstrumentResty(client, "scrapers/umowy/http")

	return &Client{
		Base:    base,
		http:    client,
		memoize: opts.Memoize,
	}, nil
}

// Fetch GETs rawURL with the given referer, retrying transient failures
// with exponential backoff. exhausted retries surface as *FetchFailure.
func (c *Client) Fetch(ctx context.Context, rawURL, referer string) ([]byte, error) {
	req := c.http.R().SetContext(ctx)
	if referer != "" {
		req.SetHeader("Referer", referer)
	}

	res, err := req.Get(rawURL)
	if err != nil {
		return nil, &FetchFailure{URL: rawURL, Err: err}
	}
	if res.IsError() {
		return nil, &FetchFailure{URL: rawURL, Err: fmt.Errorf("HTTP %d", res.StatusCode())}
	}
	return res.Body(), nil
}

type fetchKey struct {
	url     string
	referer string
}

// FetchCached is Fetch memoized by exact (url, referer) identity. only
// successful bodies are cached, so a failed fetch never masks a later
// call that would succeed. entries are written at most once per key.
func (c *Client) FetchCached(ctx context.Context, rawURL, referer string) ([]byte, error) {
	if !c.memoize {
		return c.Fetch(ctx, rawURL, referer)
	}

	key := fetchKey{url: rawURL, referer: referer}
	if cached, ok := c.memo.Load(key); ok {
		return cached.([]byte), nil
	}

	body, err := c.Fetch(ctx, rawURL, referer)
	if err != nil {
		return nil, err
	}
	actual, _ := c.memo.LoadOrStore(key, body)
	return actual.([]byte), nil
}
