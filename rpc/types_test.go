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

package rpc

import (
	"encoding/json"
	"testing"
)

func TestSignatureStatusConfirmed(t *testing.T) {
	confirmations := func(n uint64) *uint64 { return &n }
	commitment := func(c Commitment) *Commitment { return &c }
	testDefs := []struct {
		name       string
		status     *SignatureStatus
		commitment Commitment
		expected   bool
	}{
		{
			name:       "unknown signature",
			status:     nil,
			commitment: CommitmentConfirmed,
			expected:   false,
		},
		{
			name: "finalized status",
			status: &SignatureStatus{
				ConfirmationStatus: commitment(CommitmentFinalized),
			},
			commitment: CommitmentFinalized,
			expected:   true,
		},
		{
			name: "confirmed status at finalized commitment",
			status: &SignatureStatus{
				Confirmations:      confirmations(10),
				ConfirmationStatus: commitment(CommitmentConfirmed),
			},
			commitment: CommitmentFinalized,
			expected:   false,
		},
		{
			name: "confirmed status at confirmed commitment",
			status: &SignatureStatus{
				Confirmations:      confirmations(10),
				ConfirmationStatus: commitment(CommitmentConfirmed),
			},
			commitment: CommitmentConfirmed,
			expected:   true,
		},
		{
			name: "processed status at confirmed commitment",
			status: &SignatureStatus{
				ConfirmationStatus: commitment(CommitmentProcessed),
			},
			commitment: CommitmentConfirmed,
			expected:   false,
		},
		{
			name: "rooted transaction without status field",
			status: &SignatureStatus{
				Confirmations: nil,
			},
			commitment: CommitmentFinalized,
			expected:   true,
		},
		{
			name: "failed transaction",
			status: &SignatureStatus{
				ConfirmationStatus: commitment(CommitmentFinalized),
				Err:                json.RawMessage(`{"InstructionError":[0,"Custom"]}`),
			},
			commitment: CommitmentConfirmed,
			expected:   false,
		},
	}
	for _, testDef := range testDefs {
		if testDef.status.Confirmed(testDef.commitment) != testDef.expected {
			t.Fatalf(
				"%s: did not get expected result: expected %v",
				testDef.name,
				testDef.expected,
			)
		}
	}
}

func TestSignatureStatusFailed(t *testing.T) {
	status := &SignatureStatus{Err: json.RawMessage(`null`)}
	if status.Failed() {
		t.Fatalf("null error should not be a failure")
	}
	status = &SignatureStatus{Err: json.RawMessage(`{"AccountNotFound":null}`)}
	if !status.Failed() {
		t.Fatalf("expected failure for non-null error")
	}
}
