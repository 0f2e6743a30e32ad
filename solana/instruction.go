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

// AccountMeta describes how an instruction references an account
type AccountMeta struct {
	Pubkey     Pubkey
	IsSigner   bool
	IsWritable bool
}

// Instruction is a single program invocation before compilation into a message
type Instruction struct {
	ProgramId Pubkey
	Accounts  []AccountMeta
	Data      []byte
}

// CompiledInstruction is an instruction with its accounts resolved to indexes
// into the message account keys
type CompiledInstruction struct {
	ProgramIdIndex uint8
	Accounts       []uint8
	Data           []byte
}
