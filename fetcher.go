//
// Copyright 2018-2025 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package patcher

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxPreallocation caps the buffer reserved from an announced
// Content-Length, larger payloads grow with the data received.
const maxPreallocation = 64 << 20

// Fetcher retrieves the payload stored at a URL. The report function, if
// not nil, is called while the payload is being received with the bytes
// received so far and the total size (or -1 if unknown).
type Fetcher interface {
	Fetch(ctx context.Context, url string, report func(received, total int64)) ([]byte, error)
}

// HTTPFetcher is a Fetcher performing plain HTTP GET requests.
type HTTPFetcher struct {
	config Config
}

// NewHTTPFetcher returns a Fetcher that applies the given configuration to
// every request.
func NewHTTPFetcher(config Config) *HTTPFetcher {
	return &HTTPFetcher{config: config}
}

// DefaultFetcher returns a Fetcher using the default configuration, see
// SetDefaultConfig.
func DefaultFetcher() *HTTPFetcher {
	return NewHTTPFetcher(GetDefaultConfig())
}

// Fetch downloads reqURL in memory. A failed attempt is retried up to
// Config.Retries times, unless ctx is done.
func (f *HTTPFetcher) Fetch(ctx context.Context, reqURL string, report func(received, total int64)) ([]byte, error) {
	var err error
	for attempt := 0; attempt <= f.config.Retries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(f.config.RetryDelay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		var data []byte
		data, err = f.fetch(ctx, reqURL, report)
		if err == nil {
			return data, nil
		}
		if ctx.Err() != nil {
			return nil, err
		}
	}
	return nil, err
}

func (f *HTTPFetcher) fetch(ctx context.Context, reqURL string, report func(received, total int64)) ([]byte, error) {
	if f.config.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.config.FetchTimeout)
		defer cancel()
	}
	ctx, wd := newWatchdog(ctx, f.config.InactivityTimeout)
	defer wd.stop()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("setting up HTTP request: %w", err)
	}
	for k, v := range f.config.ExtraHeaders {
		req.Header.Set(k, v)
	}
	resp, err := f.config.HttpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("performing GET request: %w", expired(ctx, err))
	}
	defer resp.Body.Close()
	wd.kick()

	if !f.config.DoNotErrorOnNon2xxStatusCode && (resp.StatusCode < 200 || resp.StatusCode > 299) {
		return nil, fmt.Errorf("server returned %s for %s", resp.Status, reqURL)
	}
	if f.config.AcceptFunc != nil {
		if err := f.config.AcceptFunc(resp); err != nil {
			return nil, err
		}
	}

	total := resp.ContentLength // -1 if server doesn't send Content-Length
	limit := f.config.MaxPartSize
	if limit > 0 && total > limit {
		return nil, fmt.Errorf("%s: announced size %d exceeds limit %d", reqURL, total, limit)
	}
	var out bytes.Buffer
	if total > 0 && total <= maxPreallocation {
		out.Grow(int(total))
	}
	var body io.Reader = resp.Body
	if limit > 0 {
		// one byte past the limit tells an oversized body from an exact fit
		body = io.LimitReader(resp.Body, limit+1)
	}
	ticker := progressTicker{report: report, total: total, interval: f.config.pollInterval()}
	buff := [32 * 1024]byte{}
	for {
		n, err := body.Read(buff[:])
		if n > 0 {
			wd.kick()
			out.Write(buff[:n])
			if limit > 0 && int64(out.Len()) > limit {
				return nil, fmt.Errorf("%s: body exceeds limit %d", reqURL, limit)
			}
			ticker.update(int64(out.Len()))
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading response body: %w", expired(ctx, err))
		}
	}
	return out.Bytes(), nil
}

// progressTicker forwards progress once per percentage point, or once per
// interval when the total is unknown. Completion is left to the caller.
type progressTicker struct {
	report   func(received, total int64)
	total    int64
	interval time.Duration
	percent  int64
	last     time.Time
}

func (t *progressTicker) update(received int64) {
	if t.report == nil || received == t.total {
		return
	}
	if t.total > 0 {
		if percent := received * 100 / t.total; percent > t.percent {
			t.percent = percent
			t.report(received, t.total)
		}
		return
	}
	if now := time.Now(); now.Sub(t.last) >= t.interval {
		t.last = now
		t.report(received, t.total)
	}
}
