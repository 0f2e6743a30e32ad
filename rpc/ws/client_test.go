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

package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/blinklabs-io/gsolana/rpc"
	"github.com/blinklabs-io/gsolana/solana"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// wsRequest is the JSON-RPC request shape read by the mock server
type wsRequest struct {
	JsonRpc string            `json:"jsonrpc"`
	Id      uint64            `json:"id"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
}

// mockWSServer runs handler against each incoming WebSocket connection and
// returns the server plus the ws:// URL to connect to. The server must be
// closed before any goleak check runs
func mockWSServer(
	t *testing.T,
	handler func(t *testing.T, conn *websocket.Conn),
) (*httptest.Server, string) {
	t.Helper()
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			conn, err := upgrader.Upgrade(w, r, nil)
			if err != nil {
				t.Errorf("failed to upgrade connection: %s", err)
				return
			}
			defer conn.Close()
			handler(t, conn)
		}),
	)
	return server, "ws" + strings.TrimPrefix(server.URL, "http")
}

// drainConn reads until the peer closes the connection
func drainConn(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func TestSlotSubscribe(t *testing.T) {
	defer goleak.VerifyNone(t)
	server, url := mockWSServer(t, func(t *testing.T, conn *websocket.Conn) {
		var req wsRequest
		require.NoError(t, conn.ReadJSON(&req))
		assert.Equal(t, "slotSubscribe", req.Method)
		require.NoError(t, conn.WriteJSON(map[string]any{
			"jsonrpc": "2.0",
			"id":      req.Id,
			"result":  23,
		}))
		for _, slot := range []uint64{100, 101} {
			require.NoError(t, conn.WriteJSON(map[string]any{
				"jsonrpc": "2.0",
				"method":  "slotNotification",
				"params": map[string]any{
					"result": map[string]any{
						"parent": slot - 1,
						"root":   slot - 32,
						"slot":   slot,
					},
					"subscription": 23,
				},
			}))
		}
		// Unsubscribe request
		require.NoError(t, conn.ReadJSON(&req))
		assert.Equal(t, "slotUnsubscribe", req.Method)
		require.NoError(t, conn.WriteJSON(map[string]any{
			"jsonrpc": "2.0",
			"id":      req.Id,
			"result":  true,
		}))
		drainConn(conn)
	})
	defer server.Close()
	client := NewClient(url)
	require.NoError(t, client.Dial(t.Context()))
	sub, err := client.SlotSubscribe(t.Context())
	require.NoError(t, err)
	for _, expectedSlot := range []uint64{100, 101} {
		select {
		case slotInfo := <-sub.Notifications():
			assert.Equal(t, expectedSlot, slotInfo.Slot)
			assert.Equal(t, expectedSlot-1, slotInfo.Parent)
		case <-time.After(5 * time.Second):
			t.Fatalf("did not receive slot notification within timeout")
		}
	}
	require.NoError(t, sub.Unsubscribe())
	require.NoError(t, client.Close())
}

func TestSignatureSubscribe(t *testing.T) {
	defer goleak.VerifyNone(t)
	server, url := mockWSServer(t, func(t *testing.T, conn *websocket.Conn) {
		var req wsRequest
		require.NoError(t, conn.ReadJSON(&req))
		assert.Equal(t, "signatureSubscribe", req.Method)
		require.Len(t, req.Params, 2)
		require.NoError(t, conn.WriteJSON(map[string]any{
			"jsonrpc": "2.0",
			"id":      req.Id,
			"result":  7,
		}))
		require.NoError(t, conn.WriteJSON(map[string]any{
			"jsonrpc": "2.0",
			"method":  "signatureNotification",
			"params": map[string]any{
				"result": map[string]any{
					"context": map[string]any{"slot": 5207},
					"value":   map[string]any{"err": nil},
				},
				"subscription": 7,
			},
		}))
		drainConn(conn)
	})
	defer server.Close()
	client := NewClient(url)
	require.NoError(t, client.Dial(t.Context()))
	sub, err := client.SignatureSubscribe(
		t.Context(),
		solana.Signature{},
		rpc.CommitmentConfirmed,
	)
	require.NoError(t, err)
	select {
	case result, ok := <-sub.Result():
		require.True(t, ok)
		assert.False(t, result.Failed())
	case <-time.After(5 * time.Second):
		t.Fatalf("did not receive signature notification within timeout")
	}
	// The subscription is one-shot, so the channel closes after delivery
	select {
	case _, ok := <-sub.Result():
		assert.False(t, ok)
	case <-time.After(5 * time.Second):
		t.Fatalf("result channel was not closed after delivery")
	}
	require.NoError(t, client.Close())
}

func TestSubscribeError(t *testing.T) {
	defer goleak.VerifyNone(t)
	server, url := mockWSServer(t, func(t *testing.T, conn *websocket.Conn) {
		var req wsRequest
		require.NoError(t, conn.ReadJSON(&req))
		require.NoError(t, conn.WriteJSON(map[string]any{
			"jsonrpc": "2.0",
			"id":      req.Id,
			"error": map[string]any{
				"code":    -32602,
				"message": "invalid params",
			},
		}))
		drainConn(conn)
	})
	defer server.Close()
	client := NewClient(url)
	require.NoError(t, client.Dial(t.Context()))
	_, err := client.SlotSubscribe(t.Context())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid params")
	require.NoError(t, client.Close())
}

func TestServerDisconnect(t *testing.T) {
	defer goleak.VerifyNone(t)
	server, url := mockWSServer(t, func(t *testing.T, conn *websocket.Conn) {
		// Drop the connection immediately
	})
	defer server.Close()
	errorChan := make(chan error, 10)
	client := NewClient(url, WithErrorChan(errorChan))
	require.NoError(t, client.Dial(t.Context()))
	select {
	case err := <-errorChan:
		require.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatalf("did not receive disconnect error within timeout")
	}
	_ = client.Close()
}

func TestDialInvalidURL(t *testing.T) {
	client := NewClient("ws://127.0.0.1:1/invalid")
	err := client.Dial(t.Context())
	require.Error(t, err)
}
