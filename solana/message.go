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
	"fmt"
	"math"
)

// MessageHeader describes the signing and write permissions of the message
// account keys by position
type MessageHeader struct {
	NumRequiredSignatures       uint8
	NumReadonlySignedAccounts   uint8
	NumReadonlyUnsignedAccounts uint8
}

// Message is a legacy Solana transaction message. Account keys are ordered as
// writable signers, readonly signers, writable non-signers, then readonly
// non-signers, with the fee payer always first
type Message struct {
	Header          MessageHeader
	AccountKeys     []Pubkey
	RecentBlockhash Hash
	Instructions    []CompiledInstruction
}

// compiledAccount tracks merged permissions for an account across all
// instructions during message compilation
type compiledAccount struct {
	pubkey     Pubkey
	isSigner   bool
	isWritable bool
}

// NewMessage compiles a set of instructions into a message. The fee payer is
// placed first as a writable signer, and permissions for accounts referenced
// by multiple instructions are merged
func NewMessage(
	payer Pubkey,
	instructions []Instruction,
	recentBlockhash Hash,
) (Message, error) {
	var msg Message
	if payer.IsZero() {
		return msg, errors.New("no fee payer provided")
	}
	if len(instructions) == 0 {
		return msg, errors.New("no instructions provided")
	}
	// Gather accounts in first-reference order, merging permission flags
	accounts := []compiledAccount{
		{pubkey: payer, isSigner: true, isWritable: true},
	}
	accountIdx := map[Pubkey]int{payer: 0}
	addAccount := func(meta AccountMeta) {
		if idx, ok := accountIdx[meta.Pubkey]; ok {
			accounts[idx].isSigner = accounts[idx].isSigner || meta.IsSigner
			accounts[idx].isWritable = accounts[idx].isWritable || meta.IsWritable
			return
		}
		accountIdx[meta.Pubkey] = len(accounts)
		accounts = append(accounts, compiledAccount{
			pubkey:     meta.Pubkey,
			isSigner:   meta.IsSigner,
			isWritable: meta.IsWritable,
		})
	}
	for _, instruction := range instructions {
		for _, meta := range instruction.Accounts {
			addAccount(meta)
		}
		// Program accounts are referenced readonly and unsigned
		addAccount(AccountMeta{Pubkey: instruction.ProgramId})
	}
	if len(accounts) > math.MaxUint8 {
		return msg, fmt.Errorf(
			"too many accounts in message: %d",
			len(accounts),
		)
	}
	// Order accounts by permission class, preserving first-reference order
	// within each class. The payer stays first since it leads the writable
	// signer class
	var ordered []compiledAccount
	for _, match := range []func(compiledAccount) bool{
		func(a compiledAccount) bool { return a.isSigner && a.isWritable },
		func(a compiledAccount) bool { return a.isSigner && !a.isWritable },
		func(a compiledAccount) bool { return !a.isSigner && a.isWritable },
		func(a compiledAccount) bool { return !a.isSigner && !a.isWritable },
	} {
		for _, account := range accounts {
			if match(account) {
				ordered = append(ordered, account)
			}
		}
	}
	keyIdx := make(map[Pubkey]uint8, len(ordered))
	for i, account := range ordered {
		msg.AccountKeys = append(msg.AccountKeys, account.pubkey)
		keyIdx[account.pubkey] = uint8(i) // bounded by the MaxUint8 check above
		if account.isSigner {
			msg.Header.NumRequiredSignatures++
			if !account.isWritable {
				msg.Header.NumReadonlySignedAccounts++
			}
		} else if !account.isWritable {
			msg.Header.NumReadonlyUnsignedAccounts++
		}
	}
	// Compile instruction account references to indexes
	for _, instruction := range instructions {
		compiled := CompiledInstruction{
			ProgramIdIndex: keyIdx[instruction.ProgramId],
			Data:           instruction.Data,
		}
		for _, meta := range instruction.Accounts {
			compiled.Accounts = append(compiled.Accounts, keyIdx[meta.Pubkey])
		}
		msg.Instructions = append(msg.Instructions, compiled)
	}
	msg.RecentBlockhash = recentBlockhash
	return msg, nil
}

// Serialize returns the wire encoding of the message. These are the bytes
// that get signed
func (m *Message) Serialize() ([]byte, error) {
	buf := []byte{
		m.Header.NumRequiredSignatures,
		m.Header.NumReadonlySignedAccounts,
		m.Header.NumReadonlyUnsignedAccounts,
	}
	var err error
	if buf, err = AppendCompactU16(buf, len(m.AccountKeys)); err != nil {
		return nil, err
	}
	for _, key := range m.AccountKeys {
		buf = append(buf, key[:]...)
	}
	buf = append(buf, m.RecentBlockhash[:]...)
	if buf, err = AppendCompactU16(buf, len(m.Instructions)); err != nil {
		return nil, err
	}
	for _, instruction := range m.Instructions {
		buf = append(buf, instruction.ProgramIdIndex)
		if buf, err = AppendCompactU16(buf, len(instruction.Accounts)); err != nil {
			return nil, err
		}
		buf = append(buf, instruction.Accounts...)
		if buf, err = AppendCompactU16(buf, len(instruction.Data)); err != nil {
			return nil, err
		}
		buf = append(buf, instruction.Data...)
	}
	return buf, nil
}

// deserializeMessage decodes a message from the start of data and returns the
// number of bytes consumed
func deserializeMessage(data []byte) (Message, int, error) {
	var msg Message
	if len(data) < 3 {
		return msg, 0, errors.New("message too short")
	}
	msg.Header = MessageHeader{
		NumRequiredSignatures:       data[0],
		NumReadonlySignedAccounts:   data[1],
		NumReadonlyUnsignedAccounts: data[2],
	}
	offset := 3
	numKeys, n, err := DecodeCompactU16(data[offset:])
	if err != nil {
		return msg, 0, err
	}
	offset += n
	for range numKeys {
		key, err := PubkeyFromBytes(safeSlice(data, offset, PubkeyLength))
		if err != nil {
			return msg, 0, errors.New("message truncated reading account keys")
		}
		msg.AccountKeys = append(msg.AccountKeys, key)
		offset += PubkeyLength
	}
	blockhashBytes := safeSlice(data, offset, HashLength)
	if blockhashBytes == nil {
		return msg, 0, errors.New("message truncated reading blockhash")
	}
	copy(msg.RecentBlockhash[:], blockhashBytes)
	offset += HashLength
	numInstructions, n, err := DecodeCompactU16(data[offset:])
	if err != nil {
		return msg, 0, err
	}
	offset += n
	for range numInstructions {
		var instruction CompiledInstruction
		if offset >= len(data) {
			return msg, 0, errors.New("message truncated reading instruction")
		}
		instruction.ProgramIdIndex = data[offset]
		offset++
		numAccounts, n, err := DecodeCompactU16(data[offset:])
		if err != nil {
			return msg, 0, err
		}
		offset += n
		accounts := safeSlice(data, offset, numAccounts)
		if accounts == nil {
			return msg, 0, errors.New(
				"message truncated reading instruction accounts",
			)
		}
		instruction.Accounts = append(instruction.Accounts, accounts...)
		offset += numAccounts
		dataLen, n, err := DecodeCompactU16(data[offset:])
		if err != nil {
			return msg, 0, err
		}
		offset += n
		instrData := safeSlice(data, offset, dataLen)
		if instrData == nil {
			return msg, 0, errors.New(
				"message truncated reading instruction data",
			)
		}
		instruction.Data = append(instruction.Data, instrData...)
		offset += dataLen
		msg.Instructions = append(msg.Instructions, instruction)
	}
	return msg, offset, nil
}

// safeSlice returns data[offset:offset+length], or nil if out of bounds
func safeSlice(data []byte, offset int, length int) []byte {
	if offset < 0 || length < 0 || offset+length > len(data) {
		return nil
	}
	return data[offset : offset+length]
}
