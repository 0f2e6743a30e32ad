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

package solana

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildTestTransfer creates the instruction set used by the submission client:
// compute unit limit, compute unit price, then a lamport transfer
func buildTestTransfer(
	t *testing.T,
) (*Keypair, Pubkey, []Instruction) {
	t.Helper()
	sender, err := NewKeypair()
	require.NoError(t, err)
	receiver, err := NewKeypair()
	require.NoError(t, err)
	instructions := []Instruction{
		NewComputeUnitLimitInstruction(50_000),
		NewComputeUnitPriceInstruction(10_000),
		NewTransferInstruction(sender.Pubkey(), receiver.Pubkey(), 1_000),
	}
	return sender, receiver.Pubkey(), instructions
}

func TestNewMessageAccountOrdering(t *testing.T) {
	sender, receiver, instructions := buildTestTransfer(t)
	blockhash, err := HashFromBase58(
		"9zMgLUVJrCKzGSoAQfvRH1LFmLCT8zJSKorYoemx6gyh",
	)
	require.NoError(t, err)
	msg, err := NewMessage(sender.Pubkey(), instructions, blockhash)
	require.NoError(t, err)
	// Expected ordering: payer, receiver (writable), then the two programs
	// (readonly, in first-reference order)
	expectedKeys := []Pubkey{
		sender.Pubkey(),
		receiver,
		ComputeBudgetProgramId,
		SystemProgramId,
	}
	assert.Equal(t, expectedKeys, msg.AccountKeys)
	assert.Equal(t, uint8(1), msg.Header.NumRequiredSignatures)
	assert.Equal(t, uint8(0), msg.Header.NumReadonlySignedAccounts)
	assert.Equal(t, uint8(2), msg.Header.NumReadonlyUnsignedAccounts)
	assert.Equal(t, blockhash, msg.RecentBlockhash)
	// Compute budget instructions resolve to the same program index
	require.Len(t, msg.Instructions, 3)
	assert.Equal(t, uint8(2), msg.Instructions[0].ProgramIdIndex)
	assert.Equal(t, uint8(2), msg.Instructions[1].ProgramIdIndex)
	assert.Equal(t, uint8(3), msg.Instructions[2].ProgramIdIndex)
	assert.Equal(t, []uint8{0, 1}, msg.Instructions[2].Accounts)
}

func TestNewMessageErrors(t *testing.T) {
	sender, _, instructions := buildTestTransfer(t)
	_, err := NewMessage(Pubkey{}, instructions, Hash{})
	assert.Error(t, err)
	_, err = NewMessage(sender.Pubkey(), nil, Hash{})
	assert.Error(t, err)
}

func TestTransactionSignAndVerify(t *testing.T) {
	sender, _, instructions := buildTestTransfer(t)
	tx, err := NewTransaction(sender.Pubkey(), instructions, Hash{})
	require.NoError(t, err)
	// Unsigned transactions fail verification
	assert.Error(t, tx.VerifySignatures())
	require.NoError(t, tx.Sign(sender))
	require.NoError(t, tx.VerifySignatures())
	assert.False(t, tx.Signature().IsZero())
	// A keypair that isn't a required signer is rejected
	other, err := NewKeypair()
	require.NoError(t, err)
	assert.Error(t, tx.Sign(other))
}

func TestTransactionSignMissingSigner(t *testing.T) {
	sender, _, instructions := buildTestTransfer(t)
	tx, err := NewTransaction(sender.Pubkey(), instructions, Hash{})
	require.NoError(t, err)
	err = tx.Sign()
	assert.ErrorIs(t, err, ErrMissingSigner)
}

func TestTransactionSerializeRoundTrip(t *testing.T) {
	sender, _, instructions := buildTestTransfer(t)
	blockhash, err := HashFromBase58(
		"9zMgLUVJrCKzGSoAQfvRH1LFmLCT8zJSKorYoemx6gyh",
	)
	require.NoError(t, err)
	tx, err := NewTransaction(sender.Pubkey(), instructions, blockhash)
	require.NoError(t, err)
	require.NoError(t, tx.Sign(sender))
	serialized, err := tx.Serialize()
	require.NoError(t, err)
	decoded, err := DeserializeTransaction(serialized)
	require.NoError(t, err)
	assert.Equal(t, tx.Signatures, decoded.Signatures)
	assert.Equal(t, tx.Message, decoded.Message)
	require.NoError(t, decoded.VerifySignatures())
}

func TestDeserializeTransactionTrailingBytes(t *testing.T) {
	sender, _, instructions := buildTestTransfer(t)
	tx, err := NewTransaction(sender.Pubkey(), instructions, Hash{})
	require.NoError(t, err)
	require.NoError(t, tx.Sign(sender))
	serialized, err := tx.Serialize()
	require.NoError(t, err)
	_, err = DeserializeTransaction(append(serialized, 0x00))
	if !errors.Is(err, ErrTrailingBytes) {
		t.Fatalf("expected trailing bytes error, got %v", err)
	}
}

func TestDeserializeTransactionTruncated(t *testing.T) {
	sender, _, instructions := buildTestTransfer(t)
	tx, err := NewTransaction(sender.Pubkey(), instructions, Hash{})
	require.NoError(t, err)
	require.NoError(t, tx.Sign(sender))
	serialized, err := tx.Serialize()
	require.NoError(t, err)
	for _, cut := range []int{1, 32, 65, len(serialized) - 1} {
		if _, err := DeserializeTransaction(serialized[:cut]); err == nil {
			t.Fatalf("expected error for truncation at %d bytes, got none", cut)
		}
	}
}
