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

// Package gsolana provides a client for submitting transactions to a Solana
// cluster directly over QUIC to the current slot leaders, bypassing RPC
// transaction forwarding, and confirming them via WebSocket notifications
// and signature status polling.
package gsolana

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/blinklabs-io/gsolana/leader"
	"github.com/blinklabs-io/gsolana/rpc"
	"github.com/blinklabs-io/gsolana/rpc/ws"
	"github.com/blinklabs-io/gsolana/solana"
	"github.com/blinklabs-io/gsolana/tpu"
)

const (
	// DefaultRetryCount is the default number of send attempts
	DefaultRetryCount = 1
	// DefaultComputeUnitLimit is the default compute unit limit requested
	// for transfers
	DefaultComputeUnitLimit = 50_000
	// DefaultComputeUnitPrice is the default compute unit price in
	// micro-lamports
	DefaultComputeUnitPrice = 10_000

	confirmAttempts = 10
	confirmInterval = 2 * time.Second
	retryInterval   = time.Second
)

var (
	// ErrNoKeypair is returned when starting a client without a keypair
	ErrNoKeypair = errors.New("no keypair provided")
	// ErrNoLeader is returned when no upcoming leader is known
	ErrNoLeader = errors.New("no current leader available")
	// ErrNoLeaderQuic is returned when no upcoming leader publishes a TPU
	// QUIC address
	ErrNoLeaderQuic = errors.New("no QUIC address available for upcoming leaders")
	// ErrNotConfirmed is returned when a transaction is not confirmed within
	// the confirmation window
	ErrNotConfirmed = errors.New("transaction failed to confirm")
	// ErrRetriesExhausted is returned when all send attempts fail
	ErrRetriesExhausted = errors.New("maximum number of attempts reached")
)

// Client is a Solana TPU transaction client
type Client struct {
	network    Network
	rpcUrl     string
	wsUrl      string
	commitment rpc.Commitment
	keypair    *solana.Keypair
	logger     *slog.Logger
	errorChan  chan error
	retryCount int
	cuLimit    uint32
	cuPrice    uint64
	rpcClient  *rpc.Client
	wsClient   *ws.Client
	tracker    *leader.Tracker
	onceStart  sync.Once
	onceClose  sync.Once
}

// ClientOptionFunc is a type that represents functions that modify the
// Client config
type ClientOptionFunc func(*Client)

// WithNetwork specifies the Solana cluster to use
func WithNetwork(network Network) ClientOptionFunc {
	return func(c *Client) {
		c.network = network
	}
}

// WithRpcUrl overrides the network's RPC URL
func WithRpcUrl(url string) ClientOptionFunc {
	return func(c *Client) {
		c.rpcUrl = url
	}
}

// WithWsUrl overrides the network's WebSocket URL
func WithWsUrl(url string) ClientOptionFunc {
	return func(c *Client) {
		c.wsUrl = url
	}
}

// WithCommitment specifies the commitment level used for RPC queries and
// transaction confirmation
func WithCommitment(commitment rpc.Commitment) ClientOptionFunc {
	return func(c *Client) {
		c.commitment = commitment
	}
}

// WithKeypair specifies the keypair used to sign and pay for transactions
func WithKeypair(keypair *solana.Keypair) ClientOptionFunc {
	return func(c *Client) {
		c.keypair = keypair
	}
}

// WithLogger specifies the logger. This defaults to slog.Default()
func WithLogger(logger *slog.Logger) ClientOptionFunc {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithErrorChan specifies the error channel to use for asynchronous errors.
// If none is provided, a new one will be created
func WithErrorChan(errorChan chan error) ClientOptionFunc {
	return func(c *Client) {
		c.errorChan = errorChan
	}
}

// WithRetryCount specifies the number of send attempts
func WithRetryCount(retryCount int) ClientOptionFunc {
	return func(c *Client) {
		c.retryCount = retryCount
	}
}

// WithComputeUnitLimit specifies the compute unit limit requested for
// transfers
func WithComputeUnitLimit(limit uint32) ClientOptionFunc {
	return func(c *Client) {
		c.cuLimit = limit
	}
}

// WithComputeUnitPrice specifies the compute unit price in micro-lamports
func WithComputeUnitPrice(price uint64) ClientOptionFunc {
	return func(c *Client) {
		c.cuPrice = price
	}
}

// NewClient returns a new Client with the provided options
func NewClient(options ...ClientOptionFunc) (*Client, error) {
	c := &Client{
		network:    NetworkDevnet,
		commitment: rpc.CommitmentFinalized,
		retryCount: DefaultRetryCount,
		cuLimit:    DefaultComputeUnitLimit,
		cuPrice:    DefaultComputeUnitPrice,
	}
	// Apply provided options functions
	for _, option := range options {
		option(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.errorChan == nil {
		c.errorChan = make(chan error, 10)
	}
	if c.keypair == nil {
		return nil, ErrNoKeypair
	}
	if c.rpcUrl == "" {
		c.rpcUrl = c.network.ResolvedRpcUrl()
	}
	if c.wsUrl == "" {
		c.wsUrl = c.network.ResolvedWsUrl()
	}
	return c, nil
}

// ErrorChan returns the error channel
func (c *Client) ErrorChan() chan error {
	return c.errorChan
}

// Start connects to the cluster and begins tracking slot leaders
func (c *Client) Start(ctx context.Context) error {
	var startErr error
	c.onceStart.Do(func() {
		c.rpcClient = rpc.NewClient(
			c.rpcUrl,
			rpc.WithCommitment(c.commitment),
			rpc.WithLogger(c.logger),
		)
		c.wsClient = ws.NewClient(
			c.wsUrl,
			ws.WithLogger(c.logger),
			ws.WithErrorChan(c.errorChan),
		)
		if err := c.wsClient.Dial(ctx); err != nil {
			startErr = fmt.Errorf("failed to connect to %s: %s", c.wsUrl, err)
			return
		}
		c.tracker = leader.NewTracker(
			c.rpcClient,
			c.wsClient,
			leader.NewConfig(
				leader.WithLogger(c.logger),
			),
		)
		if err := c.tracker.Start(ctx); err != nil {
			_ = c.wsClient.Close()
			startErr = err
			return
		}
	})
	return startErr
}

// Close shuts down the leader tracker and cluster connections
func (c *Client) Close() error {
	var retErr error
	c.onceClose.Do(func() {
		if c.tracker != nil {
			c.tracker.Stop()
		}
		if c.wsClient != nil {
			retErr = c.wsClient.Close()
		}
	})
	return retErr
}

// RpcClient returns the underlying RPC client. This is only valid after
// Start
func (c *Client) RpcClient() *rpc.Client {
	return c.rpcClient
}

// Transfer sends lamports from the client keypair to the given receiver via
// the current slot leader's TPU QUIC port and waits for confirmation. The
// send is retried up to the configured retry count
func (c *Client) Transfer(
	ctx context.Context,
	receiver solana.Pubkey,
	lamports uint64,
) (solana.Signature, error) {
	for attempt := 1; attempt <= c.retryCount; attempt++ {
		signature, err := c.transferOnce(ctx, receiver, lamports)
		if err == nil {
			c.logger.Info(
				"transaction confirmed",
				"signature", signature.String(),
				"explorer", c.network.ExplorerUrl(signature.String()),
			)
			return signature, nil
		}
		c.logger.Error(
			"failed to send transaction",
			"attempt", attempt,
			"error", err,
		)
		if attempt < c.retryCount {
			select {
			case <-ctx.Done():
				return solana.Signature{}, ctx.Err()
			case <-time.After(retryInterval):
			}
		}
	}
	return solana.Signature{}, ErrRetriesExhausted
}

func (c *Client) transferOnce(
	ctx context.Context,
	receiver solana.Pubkey,
	lamports uint64,
) (solana.Signature, error) {
	blockhash, err := c.rpcClient.GetLatestBlockhash(ctx)
	if err != nil {
		return solana.Signature{}, fmt.Errorf(
			"failed to get latest blockhash: %s",
			err,
		)
	}
	tx, err := c.buildTransfer(receiver, lamports, blockhash.Blockhash)
	if err != nil {
		return solana.Signature{}, err
	}
	signature, err := c.SendAndConfirm(ctx, tx)
	if err != nil {
		return solana.Signature{}, err
	}
	return signature, nil
}

// SendAndConfirm sends an already-signed transaction to the current slot
// leader's TPU QUIC port and waits for it to reach the configured commitment
// level
func (c *Client) SendAndConfirm(
	ctx context.Context,
	tx *solana.Transaction,
) (solana.Signature, error) {
	tpuAddress, err := c.leaderQuicAddress()
	if err != nil {
		return solana.Signature{}, err
	}
	tpuConn := tpu.NewConnection(
		tpu.WithKeypair(c.keypair),
		tpu.WithLogger(c.logger),
	)
	if err := tpuConn.Dial(ctx, tpuAddress); err != nil {
		return solana.Signature{}, err
	}
	defer func() {
		_ = tpuConn.Close()
	}()
	signature := tx.Signature()
	c.logger.Info(
		"sending transaction",
		"signature", signature.String(),
		"blockhash", tx.Message.RecentBlockhash.String(),
		"leader", tpuAddress,
	)
	if err := tpuConn.SendTransaction(ctx, tx); err != nil {
		return solana.Signature{}, err
	}
	if err := c.confirmTransaction(ctx, signature); err != nil {
		return solana.Signature{}, err
	}
	return signature, nil
}

// leaderQuicAddress returns the TPU QUIC address of the first upcoming
// leader that publishes one
func (c *Client) leaderQuicAddress() (string, error) {
	leaders := c.tracker.Leaders()
	if len(leaders) == 0 {
		return "", ErrNoLeader
	}
	for _, leaderInfo := range leaders {
		if leaderInfo.TpuQuic != nil && *leaderInfo.TpuQuic != "" {
			return *leaderInfo.TpuQuic, nil
		}
	}
	return "", ErrNoLeaderQuic
}

// buildTransfer assembles and signs a transfer transaction with compute
// budget instructions
func (c *Client) buildTransfer(
	receiver solana.Pubkey,
	lamports uint64,
	blockhash solana.Hash,
) (*solana.Transaction, error) {
	sender := c.keypair.Pubkey()
	tx, err := solana.NewTransaction(
		sender,
		[]solana.Instruction{
			solana.NewComputeUnitLimitInstruction(c.cuLimit),
			solana.NewComputeUnitPriceInstruction(c.cuPrice),
			solana.NewTransferInstruction(sender, receiver, lamports),
		},
		blockhash,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build transaction: %s", err)
	}
	if err := tx.Sign(c.keypair); err != nil {
		return nil, err
	}
	return tx, nil
}

// confirmTransaction waits for the transaction to reach the configured
// commitment level, using a WebSocket signature subscription when available
// and falling back to signature status polling
func (c *Client) confirmTransaction(
	ctx context.Context,
	signature solana.Signature,
) error {
	var resultChan <-chan ws.SignatureResult
	sub, err := c.wsClient.SignatureSubscribe(ctx, signature, c.commitment)
	if err != nil {
		c.logger.Debug(
			"failed to subscribe to signature notifications",
			"error", err,
		)
	} else {
		defer func() {
			_ = sub.Unsubscribe()
		}()
		resultChan = sub.Result()
	}
	ticker := time.NewTicker(confirmInterval)
	defer ticker.Stop()
	for attempt := 0; attempt < confirmAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case result, ok := <-resultChan:
			if !ok {
				// Subscription ended without a result, rely on polling
				resultChan = nil
				continue
			}
			if result.Failed() {
				return fmt.Errorf(
					"transaction failed: %s",
					string(result.Err),
				)
			}
			return nil
		case <-ticker.C:
			statuses, err := c.rpcClient.GetSignatureStatuses(ctx, signature)
			if err != nil {
				c.logger.Debug(
					"failed to get signature status",
					"error", err,
				)
				continue
			}
			if len(statuses) == 0 || statuses[0] == nil {
				c.logger.Debug(
					"transaction not yet processed",
					"signature", signature.String(),
				)
				continue
			}
			status := statuses[0]
			if status.Failed() {
				return fmt.Errorf(
					"transaction failed: %s",
					string(status.Err),
				)
			}
			if status.Confirmed(c.commitment) {
				return nil
			}
			c.logger.Debug(
				"transaction not confirmed yet",
				"signature", signature.String(),
			)
		}
	}
	return ErrNotConfirmed
}
