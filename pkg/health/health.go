// Copyright (c) 2026, Anomalo, Inc.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package health fetches the application health-check endpoint of an
// Anomalo deployment.
//
// The body is kept verbatim whatever its status code or content type;
// callers decide what a failure means. The HTTP client follows the
// connection-pooling and timeout layout of a long-lived reader, with
// separate connect, response-header and total deadlines.
package health

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/anomalo/diagnostics/pkg/defaults"
	"github.com/anomalo/diagnostics/pkg/executor"
)

const (
	// UserAgent is sent with every request.
	UserAgent = "anomalo-diag/1.0"

	// Path is the health-check path with metrics enabled.
	Path = "/health_check?metrics=1"
)

// Placeholder is written in place of the body when the fetch fails.
var Placeholder = []byte("{}")

// Option configures a Fetcher.
type Option func(*Fetcher)

// Fetcher reads the health-check endpoint.
type Fetcher struct {
	UserAgent      string
	ConnectTimeout time.Duration
	TotalTimeout   time.Duration
	Client         *http.Client

	scheme string
	host   string
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.UserAgent = ua
	}
}

// WithTimeouts overrides the connect and total deadlines.
func WithTimeouts(connect, total time.Duration) Option {
	return func(f *Fetcher) {
		f.ConnectTimeout = connect
		f.TotalTimeout = total
	}
}

// WithClient replaces the HTTP client. Timeouts are still applied per
// request through the context.
func WithClient(c *http.Client) Option {
	return func(f *Fetcher) {
		f.Client = c
	}
}

// WithBaseURL sends requests to base instead of https://{domain}.
func WithBaseURL(base string) Option {
	return func(f *Fetcher) {
		u, err := url.Parse(base)
		if err != nil || u.Host == "" {
			slog.Warn("ignoring invalid health base url", "url", base)
			return
		}
		f.scheme, f.host = u.Scheme, u.Host
	}
}

// NewFetcher returns a Fetcher with the default deadlines.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		UserAgent:      UserAgent,
		ConnectTimeout: defaults.HealthCheckConnectTimeout,
		TotalTimeout:   defaults.HealthCheckTotalTimeout,
		scheme:         "https",
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.Client == nil {
		f.Client = &http.Client{Transport: newTransport(f.ConnectTimeout)}
	}
	return f
}

func newTransport(connect time.Duration) *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   connect,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   connect,
		ResponseHeaderTimeout: defaults.HealthCheckResponseHeaderTimeout,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          1,
		IdleConnTimeout:       30 * time.Second,
		ForceAttemptHTTP2:     true,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	}
}

// URL returns the health-check URL for an already normalized domain.
func (f *Fetcher) URL(domain string) string {
	host := domain
	if f.host != "" {
		host = f.host
	}
	return fmt.Sprintf("%s://%s%s", f.scheme, host, Path)
}

// Result is a fetched response.
type Result struct {
	URL        string
	StatusCode int
	Body       []byte
}

// Fetch requests the endpoint for domain. Any response, whatever its
// status, is a Result; only transport failures and timeouts are errors.
func (f *Fetcher) Fetch(ctx context.Context, domain string) (*Result, error) {
	if strings.TrimSpace(domain) == "" {
		return nil, fmt.Errorf("domain is empty")
	}
	if f.TotalTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.TotalTimeout)
		defer cancel()
	}

	target := f.URL(domain)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for url %s: %w", target, err)
	}
	req.Header.Set("User-Agent", f.UserAgent)

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", target, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response from %s: %w", target, err)
	}

	slog.Debug("health check fetched", "url", target, "status", resp.StatusCode, "bytes", len(body))
	return &Result{URL: target, StatusCode: resp.StatusCode, Body: body}, nil
}

// Task returns the executor task writing the health-check body to path.
// On failure the artifact holds Placeholder and the task is a warning.
func (f *Fetcher) Task(domain, path string) executor.Task {
	return executor.Task{
		Description: "health check metrics from " + domain,
		OutputPath:  path,
		Placeholder: Placeholder,
		Op: func(ctx context.Context, w io.Writer) error {
			res, err := f.Fetch(ctx, domain)
			if err != nil {
				return executor.Advisory(err)
			}
			if res.StatusCode >= http.StatusBadRequest {
				slog.Warn("health check returned an error status", "url", res.URL, "status", res.StatusCode)
			}
			_, err = w.Write(res.Body)
			return err
		},
	}
}
