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
	"encoding/binary"
)

// System program instruction indexes (u32 little-endian discriminants)
const (
	systemInstructionTransfer uint32 = 2
)

// Compute budget program instruction tags (single-byte discriminants)
const (
	computeBudgetSetComputeUnitLimit uint8 = 2
	computeBudgetSetComputeUnitPrice uint8 = 3
)

// LamportsPerSol is the number of lamports in one SOL
const LamportsPerSol uint64 = 1_000_000_000

// NewTransferInstruction creates a system program instruction moving lamports
// from one account to another
func NewTransferInstruction(
	from Pubkey,
	to Pubkey,
	lamports uint64,
) Instruction {
	data := binary.LittleEndian.AppendUint32(nil, systemInstructionTransfer)
	data = binary.LittleEndian.AppendUint64(data, lamports)
	return Instruction{
		ProgramId: SystemProgramId,
		Accounts: []AccountMeta{
			{Pubkey: from, IsSigner: true, IsWritable: true},
			{Pubkey: to, IsWritable: true},
		},
		Data: data,
	}
}

// NewComputeUnitLimitInstruction creates a compute budget instruction capping
// the compute units the transaction may consume
func NewComputeUnitLimitInstruction(units uint32) Instruction {
	data := []byte{computeBudgetSetComputeUnitLimit}
	data = binary.LittleEndian.AppendUint32(data, units)
	return Instruction{
		ProgramId: ComputeBudgetProgramId,
		Data:      data,
	}
}

// NewComputeUnitPriceInstruction creates a compute budget instruction setting
// the priority fee in micro-lamports per compute unit
func NewComputeUnitPriceInstruction(microLamports uint64) Instruction {
	data := []byte{computeBudgetSetComputeUnitPrice}
	data = binary.LittleEndian.AppendUint64(data, microLamports)
	return Instruction{
		ProgramId: ComputeBudgetProgramId,
		Data:      data,
	}
}
