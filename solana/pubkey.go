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

// Package solana implements the Solana ledger primitives needed to build,
// sign, and serialize transactions: public keys, signatures, blockhashes,
// keypairs, messages, and the bincode-compatible wire encoding used by the
// cluster.
//
// Only the legacy (non-versioned) message format is implemented, which is
// sufficient for transaction submission to the TPU.
package solana

import (
	"crypto/ed25519"
	"encoding/json"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/btcsuite/btcd/btcutil/base58"
)

// PubkeyLength is the length of a Solana public key in bytes
const PubkeyLength = 32

// Well-known program addresses
var (
	// SystemProgramId is the address of the system program, which owns plain
	// lamport accounts and provides the transfer instruction
	SystemProgramId = MustPubkeyFromBase58(
		"11111111111111111111111111111111",
	)
	// ComputeBudgetProgramId is the address of the compute budget program
	ComputeBudgetProgramId = MustPubkeyFromBase58(
		"ComputeBudget111111111111111111111111111111",
	)
)

// Pubkey represents an ed25519 public key used as an account address
type Pubkey [PubkeyLength]byte

// PubkeyFromBase58 decodes a base58-encoded public key
func PubkeyFromBase58(s string) (Pubkey, error) {
	var p Pubkey
	decoded := base58.Decode(s)
	if len(decoded) != PubkeyLength {
		return p, fmt.Errorf(
			"invalid pubkey %q: decoded length %d, expected %d",
			s,
			len(decoded),
			PubkeyLength,
		)
	}
	copy(p[:], decoded)
	return p, nil
}

// MustPubkeyFromBase58 decodes a base58-encoded public key and panics on
// failure. It's intended for well-known constants
func MustPubkeyFromBase58(s string) Pubkey {
	p, err := PubkeyFromBase58(s)
	if err != nil {
		panic(err)
	}
	return p
}

// PubkeyFromBytes creates a Pubkey from a byte slice
func PubkeyFromBytes(data []byte) (Pubkey, error) {
	var p Pubkey
	if len(data) != PubkeyLength {
		return p, fmt.Errorf(
			"invalid pubkey length %d, expected %d",
			len(data),
			PubkeyLength,
		)
	}
	copy(p[:], data)
	return p, nil
}

// PubkeyFromPublicKey creates a Pubkey from an ed25519 public key
func PubkeyFromPublicKey(pub ed25519.PublicKey) Pubkey {
	var p Pubkey
	copy(p[:], pub)
	return p
}

// Bytes returns the raw key bytes
func (p Pubkey) Bytes() []byte {
	return p[:]
}

// PublicKey returns the key as an ed25519 public key
func (p Pubkey) PublicKey() ed25519.PublicKey {
	return ed25519.PublicKey(p[:])
}

func (p Pubkey) String() string {
	return base58.Encode(p[:])
}

// IsZero returns true for the all-zero key
func (p Pubkey) IsZero() bool {
	return p == Pubkey{}
}

// IsOnCurve returns whether the key is a valid point on the ed25519 curve.
// Program-derived addresses are specifically constructed to not be on the
// curve, while keys derived from keypairs always are
func (p Pubkey) IsOnCurve() bool {
	_, err := new(edwards25519.Point).SetBytes(p[:])
	return err == nil
}

func (p Pubkey) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

func (p *Pubkey) UnmarshalJSON(data []byte) error {
	var tmp string
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	tmpKey, err := PubkeyFromBase58(tmp)
	if err != nil {
		return err
	}
	*p = tmpKey
	return nil
}
