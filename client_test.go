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

package gsolana

import (
	"errors"
	"testing"

	"github.com/blinklabs-io/gsolana/rpc"
	"github.com/blinklabs-io/gsolana/solana"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKeypair(t *testing.T) *solana.Keypair {
	t.Helper()
	keypair, err := solana.NewKeypair()
	if err != nil {
		t.Fatalf("failed to generate keypair: %s", err)
	}
	return keypair
}

func TestNewClientNoKeypair(t *testing.T) {
	_, err := NewClient()
	if !errors.Is(err, ErrNoKeypair) {
		t.Fatalf(
			"did not get expected error, got: %v, wanted: %v",
			err,
			ErrNoKeypair,
		)
	}
}

func TestNewClientDefaults(t *testing.T) {
	client, err := NewClient(
		WithKeypair(testKeypair(t)),
	)
	require.NoError(t, err)
	assert.Equal(t, NetworkDevnet, client.network)
	assert.Equal(t, rpc.CommitmentFinalized, client.commitment)
	assert.Equal(t, DefaultRetryCount, client.retryCount)
	assert.Equal(t, "https://api.devnet.solana.com", client.rpcUrl)
	assert.Equal(t, "wss://api.devnet.solana.com", client.wsUrl)
}

func TestNewClientOptions(t *testing.T) {
	client, err := NewClient(
		WithKeypair(testKeypair(t)),
		WithNetwork(NetworkMainnet),
		WithRpcUrl("http://localhost:8899"),
		WithWsUrl("ws://localhost:8900"),
		WithCommitment(rpc.CommitmentConfirmed),
		WithRetryCount(5),
		WithComputeUnitLimit(100_000),
		WithComputeUnitPrice(25_000),
	)
	require.NoError(t, err)
	assert.Equal(t, NetworkMainnet, client.network)
	// Explicit URLs override the network's
	assert.Equal(t, "http://localhost:8899", client.rpcUrl)
	assert.Equal(t, "ws://localhost:8900", client.wsUrl)
	assert.Equal(t, rpc.CommitmentConfirmed, client.commitment)
	assert.Equal(t, 5, client.retryCount)
	assert.Equal(t, uint32(100_000), client.cuLimit)
	assert.Equal(t, uint64(25_000), client.cuPrice)
}

func TestBuildTransfer(t *testing.T) {
	senderKeypair := testKeypair(t)
	receiverKeypair := testKeypair(t)
	receiver := receiverKeypair.Pubkey()
	client, err := NewClient(
		WithKeypair(senderKeypair),
	)
	require.NoError(t, err)
	var blockhash solana.Hash
	copy(blockhash[:], []byte("test_blockhash_0000000000000000"))
	tx, err := client.buildTransfer(receiver, 1_000, blockhash)
	require.NoError(t, err)
	require.NoError(t, tx.VerifySignatures())
	// Sender pays and signs, receiver is written to
	require.GreaterOrEqual(t, len(tx.Message.AccountKeys), 2)
	assert.Equal(t, senderKeypair.Pubkey(), tx.Message.AccountKeys[0])
	assert.Equal(t, receiver, tx.Message.AccountKeys[1])
	assert.Equal(t, uint8(1), tx.Message.Header.NumRequiredSignatures)
	assert.Equal(t, blockhash, tx.Message.RecentBlockhash)
	// Compute budget instructions come before the transfer
	require.Len(t, tx.Message.Instructions, 3)
	assert.False(t, tx.Signature().IsZero())
}
