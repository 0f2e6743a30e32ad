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
	"fmt"

	"github.com/blinklabs-io/gsolana/solana"
)

// Commitment represents how finalized a block must be to be considered by a
// request
type Commitment string

const (
	CommitmentProcessed Commitment = "processed"
	CommitmentConfirmed Commitment = "confirmed"
	CommitmentFinalized Commitment = "finalized"
)

// Error is a JSON-RPC error object returned by the RPC node
type Error struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// valueEnvelope wraps RPC results that carry slot context alongside the value
type valueEnvelope[T any] struct {
	Context struct {
		Slot uint64 `json:"slot"`
	} `json:"context"`
	Value T `json:"value"`
}

// ContactInfo describes a cluster node as reported by getClusterNodes.
// Address fields are nil when the node doesn't expose the given port
type ContactInfo struct {
	Pubkey       string  `json:"pubkey"`
	Gossip       *string `json:"gossip"`
	Tpu          *string `json:"tpu"`
	TpuQuic      *string `json:"tpuQuic"`
	TpuForwards  *string `json:"tpuForwards"`
	Rpc          *string `json:"rpc"`
	Version      *string `json:"version"`
	FeatureSet   *uint32 `json:"featureSet"`
	ShredVersion *uint16 `json:"shredVersion"`
}

// LatestBlockhash is the result of getLatestBlockhash
type LatestBlockhash struct {
	Blockhash            solana.Hash `json:"blockhash"`
	LastValidBlockHeight uint64      `json:"lastValidBlockHeight"`
}

// SignatureStatus is the processing status of a submitted transaction
type SignatureStatus struct {
	Slot               uint64          `json:"slot"`
	Confirmations      *uint64         `json:"confirmations"`
	ConfirmationStatus *Commitment     `json:"confirmationStatus"`
	Err                json.RawMessage `json:"err"`
}

// Confirmed returns whether the transaction has reached at least the given
// commitment level
func (s *SignatureStatus) Confirmed(commitment Commitment) bool {
	if s == nil || s.Failed() {
		return false
	}
	if s.ConfirmationStatus != nil {
		switch *s.ConfirmationStatus {
		case CommitmentFinalized:
			return true
		case CommitmentConfirmed:
			return commitment != CommitmentFinalized
		case CommitmentProcessed:
			return commitment == CommitmentProcessed
		}
	}
	// Older nodes only report the confirmation count. A missing count means
	// the transaction was rooted
	return s.Confirmations == nil || *s.Confirmations > 0
}

// Failed returns whether the transaction was processed but failed
func (s *SignatureStatus) Failed() bool {
	return s != nil && len(s.Err) > 0 && string(s.Err) != "null"
}
