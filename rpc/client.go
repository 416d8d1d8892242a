// Copyright 2025 Blink Labs Software
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

// Package rpc wraps the chain node JSON-RPC endpoints the indexer uses.
package rpc

import (
	"io"
	"log/slog"
	"time"

	solrpc "github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
	"github.com/hashicorp/go-retryablehttp"
)

const (
	DefaultCommitment = "confirmed"
	DefaultTimeout    = 30 * time.Second
	DefaultRetryMax   = 4
)

// Client talks to a single node. Transient HTTP failures are retried with
// backoff before a call returns an error.
type Client struct {
	rpc        *solrpc.Client
	httpClient *retryablehttp.Client
	logger     *slog.Logger
	url        string
	commitment string
}

type ClientOptionFunc func(*Client)

func WithLogger(logger *slog.Logger) ClientOptionFunc {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithCommitment sets the commitment level passed to every call
func WithCommitment(commitment string) ClientOptionFunc {
	return func(c *Client) {
		c.commitment = commitment
	}
}

func WithRetryMax(retryMax int) ClientOptionFunc {
	return func(c *Client) {
		c.httpClient.RetryMax = retryMax
	}
}

func WithTimeout(timeout time.Duration) ClientOptionFunc {
	return func(c *Client) {
		c.httpClient.HTTPClient.Timeout = timeout
	}
}

// WithRetryWait sets the bounds of the backoff between retries
func WithRetryWait(minWait, maxWait time.Duration) ClientOptionFunc {
	return func(c *Client) {
		c.httpClient.RetryWaitMin = minWait
		c.httpClient.RetryWaitMax = maxWait
	}
}

func NewClient(url string, opts ...ClientOptionFunc) *Client {
	httpClient := retryablehttp.NewClient()
	httpClient.RetryMax = DefaultRetryMax
	httpClient.HTTPClient.Timeout = DefaultTimeout
	c := &Client{
		httpClient: httpClient,
		url:        url,
		commitment: DefaultCommitment,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	c.httpClient.Logger = c.logger.With("component", "rpc")
	c.rpc = solrpc.NewWithCustomRPCClient(
		jsonrpc.NewClientWithOpts(
			url,
			&jsonrpc.RPCClientOpts{
				HTTPClient: c.httpClient.StandardClient(),
			},
		),
	)
	return c
}

func (c *Client) URL() string {
	return c.url
}

func (c *Client) Commitment() string {
	return c.commitment
}

// Close releases idle connections held by the client
func (c *Client) Close() error {
	return c.rpc.Close()
}
