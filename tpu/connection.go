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

// Package tpu implements a QUIC client for the Solana Transaction Processing
// Unit (TPU) port of a validator. Transactions are submitted directly to
// upcoming slot leaders over unidirectional QUIC streams, bypassing RPC
// transaction forwarding.
package tpu

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/blinklabs-io/gsolana/solana"
	"github.com/quic-go/quic-go"
)

// alpnTpu is the ALPN protocol identifier expected by validator TPU ports
const alpnTpu = "solana-tpu"

// DefaultSendTimeout is the default per-transaction send timeout
const DefaultSendTimeout = 5 * time.Second

// quicKeepAlivePeriod matches the keep-alive interval used by validator
// QUIC clients
const quicKeepAlivePeriod = 4 * time.Second

// ErrConnectionNotStarted is returned when sending before Dial
var ErrConnectionNotStarted = errors.New("connection has not been started")

// ConnectionConfig contains configuration options for a TPU connection
type ConnectionConfig struct {
	Keypair     *solana.Keypair
	Logger      *slog.Logger
	SendTimeout time.Duration
}

// ConnectionOptionFunc is a function that modifies a ConnectionConfig
type ConnectionOptionFunc func(*ConnectionConfig)

// NewConnectionConfig creates a new ConnectionConfig with default values,
// applying any provided option functions
func NewConnectionConfig(
	options ...ConnectionOptionFunc,
) ConnectionConfig {
	c := ConnectionConfig{
		SendTimeout: DefaultSendTimeout,
	}
	// Apply provided options functions
	for _, option := range options {
		option(&c)
	}
	return c
}

// WithKeypair sets the keypair used to generate the client TLS certificate.
// Validators identify and prioritize senders by the ed25519 public key in
// this certificate. When unset an ephemeral keypair is generated
func WithKeypair(keypair *solana.Keypair) ConnectionOptionFunc {
	return func(c *ConnectionConfig) {
		c.Keypair = keypair
	}
}

// WithLogger sets the logger. This defaults to slog.Default()
func WithLogger(logger *slog.Logger) ConnectionOptionFunc {
	return func(c *ConnectionConfig) {
		c.Logger = logger
	}
}

// WithSendTimeout sets the per-transaction send timeout
func WithSendTimeout(timeout time.Duration) ConnectionOptionFunc {
	return func(c *ConnectionConfig) {
		c.SendTimeout = timeout
	}
}

// Connection represents a QUIC connection to a validator TPU port
type Connection struct {
	config    ConnectionConfig
	logger    *slog.Logger
	conn      quic.Connection
	connMutex sync.Mutex
	onceClose sync.Once
	stats     Stats
}

// NewConnection returns a new Connection with the given options. Call Dial
// to connect to a validator
func NewConnection(options ...ConnectionOptionFunc) *Connection {
	cfg := NewConnectionConfig(options...)
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Connection{
		config: cfg,
		logger: logger,
	}
}

// Dial connects to the given validator TPU address. The address is expected
// in host:port form, as published in the cluster's contact info
func (c *Connection) Dial(ctx context.Context, address string) error {
	keypair := c.config.Keypair
	if keypair == nil {
		tmpKeypair, err := solana.NewKeypair()
		if err != nil {
			return fmt.Errorf("failed to generate keypair: %s", err)
		}
		keypair = tmpKeypair
	}
	cert, err := selfSignedCertificate(keypair)
	if err != nil {
		return err
	}
	tlsConfig := &tls.Config{
		Certificates: []tls.Certificate{cert},
		// Validator TPU certificates are self-signed and not verifiable
		// against any CA
		InsecureSkipVerify: true, // #nosec G402
		NextProtos:         []string{alpnTpu},
	}
	quicConfig := &quic.Config{
		KeepAlivePeriod: quicKeepAlivePeriod,
	}
	conn, err := quic.DialAddr(ctx, address, tlsConfig, quicConfig)
	if err != nil {
		return fmt.Errorf("failed to dial %s: %s", address, err)
	}
	c.connMutex.Lock()
	c.conn = conn
	c.connMutex.Unlock()
	c.logger.Debug(
		"connected to TPU",
		"component", "tpu",
		"address", address,
	)
	return nil
}

// SendTransaction serializes and sends the given transaction
func (c *Connection) SendTransaction(
	ctx context.Context,
	tx *solana.Transaction,
) error {
	txData, err := tx.Serialize()
	if err != nil {
		return err
	}
	return c.SendRawTransaction(ctx, txData)
}

// SendRawTransaction sends an already-serialized transaction over a new
// unidirectional stream. Closing the stream signals the end of the
// transaction data to the validator
func (c *Connection) SendRawTransaction(
	ctx context.Context,
	txData []byte,
) error {
	c.connMutex.Lock()
	conn := c.conn
	c.connMutex.Unlock()
	if conn == nil {
		return ErrConnectionNotStarted
	}
	if c.config.SendTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.SendTimeout)
		defer cancel()
	}
	stream, err := conn.OpenUniStreamSync(ctx)
	if err != nil {
		c.stats.sendErrors.Add(1)
		return fmt.Errorf("failed to open stream: %s", err)
	}
	if _, err := stream.Write(txData); err != nil {
		c.stats.sendErrors.Add(1)
		_ = stream.Close()
		return fmt.Errorf("failed to write transaction: %s", err)
	}
	if err := stream.Close(); err != nil {
		c.stats.sendErrors.Add(1)
		return fmt.Errorf("failed to close stream: %s", err)
	}
	c.stats.transactionsSent.Add(1)
	c.stats.bytesSent.Add(uint64(len(txData)))
	return nil
}

// Stats returns a snapshot of the connection statistics
func (c *Connection) Stats() StatsSnapshot {
	return c.stats.snapshot()
}

// Close shuts down the QUIC connection
func (c *Connection) Close() error {
	var retErr error
	c.onceClose.Do(func() {
		c.connMutex.Lock()
		conn := c.conn
		c.connMutex.Unlock()
		if conn == nil {
			return
		}
		retErr = conn.CloseWithError(0, "done")
	})
	return retErr
}
