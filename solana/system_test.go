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
	"bytes"
	"testing"

	"github.com/blinklabs-io/gsolana/internal/test"
)

func TestTransferInstruction(t *testing.T) {
	from := MustPubkeyFromBase58("HXeJrqomDdf4KoDfx36D27Lfffu7jmdVGjUSeEAprLRk")
	to := SystemProgramId
	instruction := NewTransferInstruction(from, to, 1_000)
	if instruction.ProgramId != SystemProgramId {
		t.Fatalf("did not get expected program id: %s", instruction.ProgramId)
	}
	// Discriminant 2 (u32 LE) followed by lamports (u64 LE)
	expectedData := test.DecodeHexString("02000000e803000000000000")
	if !bytes.Equal(instruction.Data, expectedData) {
		t.Fatalf(
			"did not get expected instruction data: got %x, expected %x",
			instruction.Data,
			expectedData,
		)
	}
	if len(instruction.Accounts) != 2 {
		t.Fatalf(
			"did not get expected account count: %d",
			len(instruction.Accounts),
		)
	}
	if !instruction.Accounts[0].IsSigner || !instruction.Accounts[0].IsWritable {
		t.Fatalf("sender account should be a writable signer")
	}
	if instruction.Accounts[1].IsSigner || !instruction.Accounts[1].IsWritable {
		t.Fatalf("recipient account should be writable and unsigned")
	}
}

func TestComputeUnitLimitInstruction(t *testing.T) {
	instruction := NewComputeUnitLimitInstruction(50_000)
	if instruction.ProgramId != ComputeBudgetProgramId {
		t.Fatalf("did not get expected program id: %s", instruction.ProgramId)
	}
	expectedData := test.DecodeHexString("0250c30000")
	if !bytes.Equal(instruction.Data, expectedData) {
		t.Fatalf(
			"did not get expected instruction data: got %x, expected %x",
			instruction.Data,
			expectedData,
		)
	}
	if len(instruction.Accounts) != 0 {
		t.Fatalf("compute budget instructions reference no accounts")
	}
}

func TestComputeUnitPriceInstruction(t *testing.T) {
	instruction := NewComputeUnitPriceInstruction(10_000)
	expectedData := test.DecodeHexString("031027000000000000")
	if !bytes.Equal(instruction.Data, expectedData) {
		t.Fatalf(
			"did not get expected instruction data: got %x, expected %x",
			instruction.Data,
			expectedData,
		)
	}
}
