//
// Copyright 2018 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package transfer

import (
	"log/slog"
	"maps"
	"net"
	"net/http"
	"sync"
	"time"
)

const (
	// DefaultBufferSize is the size of the read buffer of a transfer.
	DefaultBufferSize = 16 * 1024
	// DefaultProgressInterval is the minimum time between two progress reports.
	DefaultProgressInterval = time.Second
	// DefaultTimeout is used for connection, idle and inactivity timeouts.
	DefaultTimeout = 60 * time.Second
	// DefaultUserAgent is sent when Config.UserAgent is empty.
	DefaultUserAgent = "go.bug.st/transfer"
)

// Config contains the configuration for a transfer
type Config struct {
	// HttpClient to use to perform HTTP requests
	HttpClient http.Client
	// ExtraHeaders to add to the HTTP request.
	ExtraHeaders map[string]string
	// UserAgent overrides DefaultUserAgent.
	UserAgent string
	// AcceptFunc is an optional function that will be called with the
	// response headers, before the destination is opened.
	// If the function returns an error, the transfer fails.
	AcceptFunc func(resp *http.Response) error
	// DoNotErrorOnNon2xxStatusCode set to true to not fail the transfer
	// if the server returns a non-2xx status code.
	DoNotErrorOnNon2xxStatusCode bool
	// InactivityTimeout is the duration after which, if no data is received,
	// the transfer is aborted. If set to 0, no timeout is applied.
	InactivityTimeout time.Duration
	// ProgressInterval is the minimum time between two progress reports.
	ProgressInterval time.Duration
	// BufferSize is the size of the read buffer.
	BufferSize int
	// DownloadsDir is used when no destination path is given. Defaults to
	// DefaultDownloadsDir().
	DownloadsDir string
	// Filesystem where destinations are written, OSFilesystem if nil.
	Filesystem Filesystem
	// Executor runs the transfer steps. If nil each transfer started with
	// one of the Start functions runs on its own goroutine.
	Executor Executor
	// Logger receives the diagnostics of the transfer, slog.Default() if nil.
	Logger *slog.Logger
}

// NewHTTPClient returns an http.Client whose connection, handshake, response
// header and idle timeouts are all set to timeout.
func NewHTTPClient(timeout time.Duration) http.Client {
	dialer := &net.Dialer{Timeout: timeout, KeepAlive: 30 * time.Second}
	return http.Client{
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           dialer.DialContext,
			ForceAttemptHTTP2:     true,
			TLSHandshakeTimeout:   timeout,
			ResponseHeaderTimeout: timeout,
			IdleConnTimeout:       timeout,
		},
	}
}

var defaultConfig Config = Config{
	HttpClient:        NewHTTPClient(DefaultTimeout),
	InactivityTimeout: DefaultTimeout,
}
var defaultConfigLock sync.Mutex

// SetDefaultConfig sets the configuration that will be used by the Start
// functions that do not take a Config.
func SetDefaultConfig(newConfig Config) {
	defaultConfigLock.Lock()
	defer defaultConfigLock.Unlock()
	defaultConfig = newConfig
}

// GetDefaultConfig returns a copy of the default configuration, with its own
// ExtraHeaders map. Executor, Filesystem and Logger are shared with the
// default. The default configuration can be changed using the
// SetDefaultConfig function.
func GetDefaultConfig() Config {
	defaultConfigLock.Lock()
	defer defaultConfigLock.Unlock()

	config := defaultConfig
	config.ExtraHeaders = maps.Clone(defaultConfig.ExtraHeaders)
	return config
}

// withDefaults fills the zero fields that need a value to run a transfer.
func (c Config) withDefaults() Config {
	if c.ProgressInterval <= 0 {
		c.ProgressInterval = DefaultProgressInterval
	}
	if c.BufferSize <= 0 {
		c.BufferSize = DefaultBufferSize
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	if c.Filesystem == nil {
		c.Filesystem = OSFilesystem{}
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}
