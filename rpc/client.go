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

// Package rpc implements a JSON-RPC 2.0 client for the Solana HTTP RPC API.
// Transport failures and server errors are retried with exponential backoff,
// while JSON-RPC level errors are returned to the caller as [Error] values.
package rpc

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/blinklabs-io/gsolana/solana"
	"github.com/cenkalti/backoff/v4"
)

const (
	// DefaultRequestTimeout is the per-request HTTP timeout
	DefaultRequestTimeout = 30 * time.Second
	// DefaultMaxRetries is the default number of retries for retryable
	// request failures
	DefaultMaxRetries = 3
)

// Client is a Solana JSON-RPC client bound to a single RPC endpoint
type Client struct {
	url        string
	httpClient *http.Client
	commitment Commitment
	maxRetries uint64
	logger     *slog.Logger
	nextId     atomic.Uint64
}

// ClientOptionFunc is a type that represents functions that modify the Client config
type ClientOptionFunc func(*Client)

// WithHTTPClient specifies the HTTP client to use. If none is provided, one
// with the default request timeout is created
func WithHTTPClient(httpClient *http.Client) ClientOptionFunc {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithCommitment specifies the default commitment level for requests
func WithCommitment(commitment Commitment) ClientOptionFunc {
	return func(c *Client) {
		c.commitment = commitment
	}
}

// WithMaxRetries specifies the retry count for retryable request failures
func WithMaxRetries(maxRetries uint64) ClientOptionFunc {
	return func(c *Client) {
		c.maxRetries = maxRetries
	}
}

// WithLogger specifies the logger to use. This defaults to slog.Default()
func WithLogger(logger *slog.Logger) ClientOptionFunc {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient returns a new Client for the given endpoint URL with the
// specified options
func NewClient(url string, options ...ClientOptionFunc) *Client {
	c := &Client{
		url:        url,
		commitment: CommitmentFinalized,
		maxRetries: DefaultMaxRetries,
	}
	// Apply provided options functions
	for _, option := range options {
		option(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: DefaultRequestTimeout}
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// URL returns the endpoint URL the client is bound to
func (c *Client) URL() string {
	return c.url
}

// Commitment returns the default commitment level for requests
func (c *Client) Commitment() Commitment {
	return c.commitment
}

type request struct {
	JsonRpc string `json:"jsonrpc"`
	Id      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params,omitempty"`
}

type response struct {
	JsonRpc string          `json:"jsonrpc"`
	Id      uint64          `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *Error          `json:"error"`
}

// call performs a single JSON-RPC request, retrying transport and server-side
// HTTP failures, and unmarshals the result into result (if non-nil)
func (c *Client) call(
	ctx context.Context,
	method string,
	params []any,
	result any,
) error {
	reqBody, err := json.Marshal(request{
		JsonRpc: "2.0",
		Id:      c.nextId.Add(1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}
	var respBody []byte
	op := func() error {
		httpReq, err := http.NewRequestWithContext(
			ctx,
			http.MethodPost,
			c.url,
			bytes.NewReader(reqBody),
		)
		if err != nil {
			return backoff.Permanent(err)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpResp, err := c.httpClient.Do(httpReq)
		if err != nil {
			c.logger.Debug(
				"rpc request failed",
				"method", method,
				"error", err,
			)
			return err
		}
		defer httpResp.Body.Close()
		if httpResp.StatusCode != http.StatusOK {
			// Drain the body so the connection can be reused
			_, _ = io.Copy(io.Discard, httpResp.Body)
			err := fmt.Errorf(
				"unexpected HTTP status %d from %s",
				httpResp.StatusCode,
				method,
			)
			// Retry server errors and rate limiting, nothing else
			if httpResp.StatusCode >= http.StatusInternalServerError ||
				httpResp.StatusCode == http.StatusTooManyRequests {
				return err
			}
			return backoff.Permanent(err)
		}
		respBody, err = io.ReadAll(httpResp.Body)
		return err
	}
	retryPolicy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.maxRetries),
		ctx,
	)
	if err := backoff.Retry(op, retryPolicy); err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	var resp response
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return fmt.Errorf("%s: failed to decode response: %w", method, err)
	}
	if resp.Error != nil {
		return fmt.Errorf("%s: %w", method, resp.Error)
	}
	if result != nil {
		if err := json.Unmarshal(resp.Result, result); err != nil {
			return fmt.Errorf("%s: failed to decode result: %w", method, err)
		}
	}
	return nil
}

// commitmentParam returns the commitment config object included in request
// params
func (c *Client) commitmentParam() map[string]any {
	return map[string]any{"commitment": string(c.commitment)}
}

// GetSlot returns the current slot at the client's commitment level
func (c *Client) GetSlot(ctx context.Context) (uint64, error) {
	var slot uint64
	err := c.call(ctx, "getSlot", []any{c.commitmentParam()}, &slot)
	return slot, err
}

// GetSlotLeaders returns the scheduled leader identities for limit slots
// starting at startSlot
func (c *Client) GetSlotLeaders(
	ctx context.Context,
	startSlot uint64,
	limit uint64,
) ([]solana.Pubkey, error) {
	var leaders []solana.Pubkey
	err := c.call(ctx, "getSlotLeaders", []any{startSlot, limit}, &leaders)
	return leaders, err
}

// GetClusterNodes returns gossip contact info for all nodes in the cluster
func (c *Client) GetClusterNodes(ctx context.Context) ([]ContactInfo, error) {
	var nodes []ContactInfo
	err := c.call(ctx, "getClusterNodes", nil, &nodes)
	return nodes, err
}

// GetLatestBlockhash returns the latest blockhash and the last block height
// at which it will be valid
func (c *Client) GetLatestBlockhash(
	ctx context.Context,
) (*LatestBlockhash, error) {
	var envelope valueEnvelope[LatestBlockhash]
	err := c.call(
		ctx,
		"getLatestBlockhash",
		[]any{c.commitmentParam()},
		&envelope,
	)
	if err != nil {
		return nil, err
	}
	return &envelope.Value, nil
}

// GetBalance returns the lamport balance of the given account
func (c *Client) GetBalance(
	ctx context.Context,
	pubkey solana.Pubkey,
) (uint64, error) {
	var envelope valueEnvelope[uint64]
	err := c.call(
		ctx,
		"getBalance",
		[]any{pubkey.String(), c.commitmentParam()},
		&envelope,
	)
	return envelope.Value, err
}

// GetSignatureStatuses returns the processing status for each signature. A
// nil entry means the signature is unknown to the cluster
func (c *Client) GetSignatureStatuses(
	ctx context.Context,
	signatures ...solana.Signature,
) ([]*SignatureStatus, error) {
	sigStrings := make([]string, 0, len(signatures))
	for _, sig := range signatures {
		sigStrings = append(sigStrings, sig.String())
	}
	var envelope valueEnvelope[[]*SignatureStatus]
	err := c.call(
		ctx,
		"getSignatureStatuses",
		[]any{
			sigStrings,
			map[string]any{"searchTransactionHistory": true},
		},
		&envelope,
	)
	if err != nil {
		return nil, err
	}
	return envelope.Value, nil
}

// GetTransaction returns the confirmed transaction details for a signature as
// raw JSON, or nil if the transaction isn't found
func (c *Client) GetTransaction(
	ctx context.Context,
	signature solana.Signature,
) (json.RawMessage, error) {
	var result json.RawMessage
	err := c.call(
		ctx,
		"getTransaction",
		[]any{
			signature.String(),
			map[string]any{
				"encoding":   "json",
				"commitment": string(c.commitment),
			},
		},
		&result,
	)
	return result, err
}

// SendTransaction submits a signed transaction via the RPC node, which
// forwards it to the current leader. This is the fallback submission path for
// when direct TPU submission isn't possible
func (c *Client) SendTransaction(
	ctx context.Context,
	tx *solana.Transaction,
) (solana.Signature, error) {
	txBytes, err := tx.Serialize()
	if err != nil {
		return solana.Signature{}, err
	}
	var sig solana.Signature
	err = c.call(
		ctx,
		"sendTransaction",
		[]any{
			base64.StdEncoding.EncodeToString(txBytes),
			map[string]any{"encoding": "base64"},
		},
		&sig,
	)
	return sig, err
}

// RequestAirdrop requests lamports be sent to the given account. This only
// works against development clusters
func (c *Client) RequestAirdrop(
	ctx context.Context,
	pubkey solana.Pubkey,
	lamports uint64,
) (solana.Signature, error) {
	var sig solana.Signature
	err := c.call(
		ctx,
		"requestAirdrop",
		[]any{pubkey.String(), lamports, c.commitmentParam()},
		&sig,
	)
	return sig, err
}
