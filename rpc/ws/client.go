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

// Package ws implements a client for the Solana WebSocket subscription API.
// The client multiplexes any number of subscriptions over a single WebSocket
// connection and delivers notifications on per-subscription channels.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// DefaultHandshakeTimeout is the timeout for the WebSocket handshake
	DefaultHandshakeTimeout = 10 * time.Second
	// DefaultRequestTimeout is the timeout for subscribe/unsubscribe replies
	DefaultRequestTimeout = 10 * time.Second

	// notifyChanSize is the buffer size of per-subscription notification
	// channels. A slow consumer drops notifications rather than stalling the
	// read loop
	notifyChanSize = 16
)

var (
	ErrNotConnected      = errors.New("websocket client is not connected")
	ErrAlreadyConnected  = errors.New("a connection was already established")
	ErrSubscriptionEnded = errors.New("subscription has ended")
)

// Client is a Solana WebSocket subscription client for a single endpoint
type Client struct {
	url           string
	dialer        *websocket.Dialer
	conn          *websocket.Conn
	logger        *slog.Logger
	errorChan     chan error
	doneChan      chan any
	onceClose     sync.Once
	waitGroup     sync.WaitGroup
	nextId        atomic.Uint64
	writeMutex    sync.Mutex
	subsMutex     sync.Mutex
	pendingReply  map[uint64]chan *message
	subscriptions map[uint64]*subscription
}

// ClientOptionFunc is a type that represents functions that modify the Client config
type ClientOptionFunc func(*Client)

// WithDialer specifies the websocket dialer to use. If none is provided, one
// with the default handshake timeout is created
func WithDialer(dialer *websocket.Dialer) ClientOptionFunc {
	return func(c *Client) {
		c.dialer = dialer
	}
}

// WithLogger specifies the logger to use. This defaults to slog.Default()
func WithLogger(logger *slog.Logger) ClientOptionFunc {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithErrorChan specifies the error channel to use for asynchronous errors.
// If none is provided, one will be created
func WithErrorChan(errorChan chan error) ClientOptionFunc {
	return func(c *Client) {
		c.errorChan = errorChan
	}
}

// NewClient returns a new Client for the given endpoint URL with the
// specified options. Call Dial to establish the connection
func NewClient(url string, options ...ClientOptionFunc) *Client {
	c := &Client{
		url:           url,
		doneChan:      make(chan any),
		pendingReply:  make(map[uint64]chan *message),
		subscriptions: make(map[uint64]*subscription),
	}
	// Apply provided options functions
	for _, option := range options {
		option(c)
	}
	if c.dialer == nil {
		c.dialer = &websocket.Dialer{
			HandshakeTimeout: DefaultHandshakeTimeout,
		}
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.errorChan == nil {
		c.errorChan = make(chan error, 10)
	}
	return c
}

// ErrorChan returns the channel for asynchronous errors
func (c *Client) ErrorChan() chan error {
	return c.errorChan
}

// Dial establishes the WebSocket connection and starts the read loop
func (c *Client) Dial(ctx context.Context) error {
	if c.conn != nil {
		return ErrAlreadyConnected
	}
	conn, resp, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", c.url, err)
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	c.conn = conn
	c.waitGroup.Add(1)
	go c.readLoop()
	return nil
}

// Close shuts down the WebSocket connection and all subscriptions
func (c *Client) Close() error {
	var err error
	c.onceClose.Do(func() {
		// Close doneChan to signify that we're shutting down
		close(c.doneChan)
		if c.conn != nil {
			// Best effort close handshake before dropping the connection
			_ = c.conn.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(
					websocket.CloseNormalClosure,
					"",
				),
				time.Now().Add(time.Second),
			)
			err = c.conn.Close()
		}
		// Close subscription channels so notification forwarders wind down
		c.subsMutex.Lock()
		for subId, sub := range c.subscriptions {
			close(sub.notifyChan)
			delete(c.subscriptions, subId)
		}
		c.subsMutex.Unlock()
		// Wait for the read loop and forwarders to finish
		c.waitGroup.Wait()
		close(c.errorChan)
	})
	return err
}

// message is a JSON-RPC frame read from the connection, either a reply to a
// request or a subscription notification
type message struct {
	JsonRpc string          `json:"jsonrpc"`
	Id      uint64          `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
	Params  *struct {
		Result       json.RawMessage `json:"result"`
		Subscription uint64          `json:"subscription"`
	} `json:"params,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

func (c *Client) readLoop() {
	defer c.waitGroup.Done()
	for {
		var msg message
		if err := c.conn.ReadJSON(&msg); err != nil {
			c.sendError(err)
			return
		}
		switch {
		case msg.Id != 0:
			c.subsMutex.Lock()
			replyChan, ok := c.pendingReply[msg.Id]
			delete(c.pendingReply, msg.Id)
			c.subsMutex.Unlock()
			if ok {
				replyChan <- &msg
			} else {
				c.logger.Debug(
					"discarding reply for unknown request",
					"id", msg.Id,
				)
			}
		case msg.Params != nil:
			c.dispatchNotification(&msg)
		default:
			c.logger.Debug("discarding unexpected websocket frame")
		}
	}
}

// dispatchNotification routes a notification to its subscription channel.
// Notifications for unknown or saturated subscriptions are dropped. The
// mutex is held across the channel send so Unsubscribe can't close the
// channel out from under us; the send never blocks
func (c *Client) dispatchNotification(msg *message) {
	c.subsMutex.Lock()
	defer c.subsMutex.Unlock()
	sub, ok := c.subscriptions[msg.Params.Subscription]
	if !ok {
		c.logger.Debug(
			"discarding notification for unknown subscription",
			"subscription", msg.Params.Subscription,
			"method", msg.Method,
		)
		return
	}
	select {
	case sub.notifyChan <- msg.Params.Result:
	default:
		c.logger.Debug(
			"dropping notification for slow consumer",
			"subscription", sub.id,
			"method", msg.Method,
		)
	}
	if sub.oneShot {
		// One-shot subscriptions are auto-cancelled by the node after the
		// first notification
		delete(c.subscriptions, msg.Params.Subscription)
		close(sub.notifyChan)
	}
}

// sendError propagates an async error and shuts down the connection, mapping
// expected close conditions to io.EOF
func (c *Client) sendError(err error) {
	// Immediately return if we're already shutting down
	select {
	case <-c.doneChan:
		return
	default:
	}
	if websocket.IsCloseError(
		err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
	) || errors.Is(err, io.ErrUnexpectedEOF) {
		c.errorChan <- io.EOF
	} else {
		c.errorChan <- fmt.Errorf("websocket error: %w", err)
	}
	// Close connection in the background, since Close waits on the read loop
	go c.Close()
}

// call sends a JSON-RPC request over the connection and waits for the reply
func (c *Client) call(
	ctx context.Context,
	method string,
	params []any,
) (json.RawMessage, error) {
	if c.conn == nil {
		return nil, ErrNotConnected
	}
	id := c.nextId.Add(1)
	replyChan := make(chan *message, 1)
	c.subsMutex.Lock()
	c.pendingReply[id] = replyChan
	c.subsMutex.Unlock()
	defer func() {
		c.subsMutex.Lock()
		delete(c.pendingReply, id)
		c.subsMutex.Unlock()
	}()
	req := map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"method":  method,
	}
	if len(params) > 0 {
		req["params"] = params
	}
	c.writeMutex.Lock()
	err := c.conn.WriteJSON(req)
	c.writeMutex.Unlock()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	ctx, cancel := context.WithTimeout(ctx, DefaultRequestTimeout)
	defer cancel()
	select {
	case <-c.doneChan:
		return nil, io.EOF
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", method, ctx.Err())
	case reply := <-replyChan:
		if reply.Error != nil {
			return nil, fmt.Errorf("%s: %w", method, reply.Error)
		}
		return reply.Result, nil
	}
}

// subscribe issues a subscription request and registers the notification
// channel under the returned subscription id
func (c *Client) subscribe(
	ctx context.Context,
	method string,
	unsubMethod string,
	params []any,
	oneShot bool,
) (*subscription, error) {
	result, err := c.call(ctx, method, params)
	if err != nil {
		return nil, err
	}
	var subId uint64
	if err := json.Unmarshal(result, &subId); err != nil {
		return nil, fmt.Errorf("%s: unexpected result: %w", method, err)
	}
	sub := &subscription{
		client:      c,
		id:          subId,
		unsubMethod: unsubMethod,
		oneShot:     oneShot,
		notifyChan:  make(chan json.RawMessage, notifyChanSize),
	}
	c.subsMutex.Lock()
	c.subscriptions[subId] = sub
	c.subsMutex.Unlock()
	return sub, nil
}

// subscription is the untyped core of an active subscription
type subscription struct {
	client      *Client
	id          uint64
	unsubMethod string
	oneShot     bool
	notifyChan  chan json.RawMessage
	onceUnsub   sync.Once
}

// Unsubscribe cancels the subscription with the node and closes the
// notification channel
func (s *subscription) Unsubscribe() error {
	var err error
	s.onceUnsub.Do(func() {
		s.client.subsMutex.Lock()
		_, active := s.client.subscriptions[s.id]
		if active {
			delete(s.client.subscriptions, s.id)
			close(s.notifyChan)
		}
		s.client.subsMutex.Unlock()
		if !active {
			// Already removed by one-shot dispatch or client shutdown
			return
		}
		_, err = s.client.call(
			context.Background(),
			s.unsubMethod,
			[]any{s.id},
		)
	})
	return err
}
