package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/valyala/fasthttp"
	"golang.org/x/time/rate"
)

// Fetcher performs throttled outbound GET requests. All sources share one
// Fetcher so the configured request rate applies across them.
type Fetcher struct {
	client  *fasthttp.Client
	limiter *rate.Limiter
	timeout time.Duration
}

func NewFetcher(client *fasthttp.Client, perSecond float64, timeout time.Duration) *Fetcher {
	if client == nil {
		client = &fasthttp.Client{
			Name:                "flightdash",
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
			MaxIdleConnDuration: time.Minute,
		}
	}
	if perSecond <= 0 {
		perSecond = 1
	}
	return &Fetcher{
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(perSecond), 1),
		timeout: timeout,
	}
}

// Get waits for the limiter, then fetches url and returns the body of a
// 200 response.
func (f *Fetcher) Get(ctx context.Context, url string) ([]byte, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json, text/html;q=0.9")

	timeout := f.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if d := time.Until(deadline); d < timeout {
			timeout = d
		}
	}
	if err := f.client.DoTimeout(req, resp, timeout); err != nil {
		return nil, fmt.Errorf("GET %s: %w", req.URI().Host(), err)
	}
	if code := resp.StatusCode(); code != fasthttp.StatusOK {
		return nil, fmt.Errorf("GET %s: unexpected status %d", req.URI().Host(), code)
	}
	return append([]byte(nil), resp.Body()...), nil
}
