//
// Copyright 2018-2025 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package patcher

import (
	"net/http"
	"sync"
	"time"
)

// Config contains the transfer policy used to fetch catalogs, file lists
// and file parts.
type Config struct {
	// HttpClient to use to perform HTTP requests
	HttpClient http.Client
	// ExtraHeaders to add to the HTTP requests.
	ExtraHeaders map[string]string
	// AcceptFunc is an optional function that will be called with the
	// response of every GET request, before its body is read.
	// If the function returns an error, the fetch is aborted.
	AcceptFunc func(resp *http.Response) error
	// DoNotErrorOnNon2xxStatusCode set to true to accept the body of
	// responses with a non-2xx status code.
	DoNotErrorOnNon2xxStatusCode bool
	// InactivityTimeout is the duration after which, if no data is received,
	// the fetch is aborted. If set to 0, no timeout is applied.
	InactivityTimeout time.Duration
	// FetchTimeout bounds a single fetch attempt, headers and body included.
	// If set to 0, no timeout is applied.
	FetchTimeout time.Duration
	// Retries is the number of additional attempts made when a fetch fails.
	// A failed part otherwise fails the whole sync.
	Retries int
	// RetryDelay is the pause between two attempts.
	RetryDelay time.Duration
	// PollInterval throttles progress reports when the server does not
	// announce the size of the payload.
	PollInterval time.Duration
	// MaxPartSize is the largest payload accepted by a single fetch. If set
	// to 0, no limit is applied.
	MaxPartSize int64
}

const defaultPollInterval = 250 * time.Millisecond

var defaultConfig Config = Config{}
var defaultConfigLock sync.Mutex

// SetDefaultConfig sets the configuration that will be used by
// DefaultFetcher, and so by every Engine without an explicit Fetcher.
func SetDefaultConfig(newConfig Config) {
	defaultConfigLock.Lock()
	defer defaultConfigLock.Unlock()
	defaultConfig = newConfig
}

// GetDefaultConfig returns a copy of the default configuration. The default
// configuration can be changed using the SetDefaultConfig function.
func GetDefaultConfig() Config {
	defaultConfigLock.Lock()
	defer defaultConfigLock.Unlock()

	// deep copy struct
	return defaultConfig
}

func (c Config) pollInterval() time.Duration {
	if c.PollInterval > 0 {
		return c.PollInterval
	}
	return defaultPollInterval
}
