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
	"encoding/json"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/base58"
)

// HashLength is the length of a Solana hash in bytes
const HashLength = 32

// Hash represents a SHA-256 hash, most commonly a recent blockhash
type Hash [HashLength]byte

// HashFromBase58 decodes a base58-encoded hash
func HashFromBase58(s string) (Hash, error) {
	var h Hash
	decoded := base58.Decode(s)
	if len(decoded) != HashLength {
		return h, fmt.Errorf(
			"invalid hash %q: decoded length %d, expected %d",
			s,
			len(decoded),
			HashLength,
		)
	}
	copy(h[:], decoded)
	return h, nil
}

// Bytes returns the raw hash bytes
func (h Hash) Bytes() []byte {
	return h[:]
}

func (h Hash) String() string {
	return base58.Encode(h[:])
}

// IsZero returns true for the all-zero hash
func (h Hash) IsZero() bool {
	return h == Hash{}
}

func (h Hash) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.String())
}

func (h *Hash) UnmarshalJSON(data []byte) error {
	var tmp string
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	tmpHash, err := HashFromBase58(tmp)
	if err != nil {
		return err
	}
	*h = tmpHash
	return nil
}
