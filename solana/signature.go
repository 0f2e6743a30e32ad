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

// SignatureLength is the length of an ed25519 signature in bytes
const SignatureLength = 64

// Signature represents an ed25519 signature over serialized message bytes.
// The first signature of a transaction doubles as its identifier
type Signature [SignatureLength]byte

// SignatureFromBase58 decodes a base58-encoded signature
func SignatureFromBase58(s string) (Signature, error) {
	var sig Signature
	decoded := base58.Decode(s)
	if len(decoded) != SignatureLength {
		return sig, fmt.Errorf(
			"invalid signature %q: decoded length %d, expected %d",
			s,
			len(decoded),
			SignatureLength,
		)
	}
	copy(sig[:], decoded)
	return sig, nil
}

// Bytes returns the raw signature bytes
func (s Signature) Bytes() []byte {
	return s[:]
}

func (s Signature) String() string {
	return base58.Encode(s[:])
}

// IsZero returns true for the all-zero (placeholder) signature
func (s Signature) IsZero() bool {
	return s == Signature{}
}

func (s Signature) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Signature) UnmarshalJSON(data []byte) error {
	var tmp string
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	tmpSig, err := SignatureFromBase58(tmp)
	if err != nil {
		return err
	}
	*s = tmpSig
	return nil
}
