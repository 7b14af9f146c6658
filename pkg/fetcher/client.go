// Package fetcher talks to the external road-network, elevation and weather providers.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gojek/heimdall/v7"
	"github.com/gojek/heimdall/v7/httpclient"
)

const (
	userAgent       = "floodnav/1.0 (flood-aware routing engine)"
	maxResponseSize = 256 << 20
)

// ErrFetchFailure provider tidak bisa dihubungi atau membalas dengan response yang tidak valid.
var ErrFetchFailure = errors.New("fetch failure")

// Doer http client yang dipakai fetcher. *httpclient.Client dari heimdall memenuhi interface ini.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// NewHTTPClient heimdall client dengan constant backoff retrier.
func NewHTTPClient(timeout time.Duration, retries int) *httpclient.Client {
	backoff := heimdall.NewConstantBackoff(500*time.Millisecond, 200*time.Millisecond)
	return httpclient.NewClient(
		httpclient.WithHTTPTimeout(timeout),
		httpclient.WithRetrier(heimdall.NewRetrier(backoff)),
		httpclient.WithRetryCount(retries),
	)
}

func doRequest(ctx context.Context, client Doer, req *http.Request) ([]byte, error) {
	req = req.WithContext(ctx)
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		return nil, fmt.Errorf("%w: %s %s: %v", ErrFetchFailure, req.Method, req.URL.Host, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: %s %s: status %d", ErrFetchFailure, req.Method, req.URL.Host, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrFetchFailure, err)
	}
	return body, nil
}
