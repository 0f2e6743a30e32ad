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
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"os"

	"github.com/btcsuite/btcd/btcutil/base58"
)

// Keypair wraps an ed25519 signing key and its derived account address
type Keypair struct {
	pubkey  Pubkey
	privKey ed25519.PrivateKey
}

// NewKeypair generates a new random keypair
func NewKeypair() (*Keypair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate keypair: %w", err)
	}
	return &Keypair{
		pubkey:  PubkeyFromPublicKey(pub),
		privKey: priv,
	}, nil
}

// KeypairFromBytes creates a keypair from a 64-byte secret key (the 32-byte
// seed followed by the 32-byte public key), which is the layout used by the
// Solana CLI tooling
func KeypairFromBytes(data []byte) (*Keypair, error) {
	if len(data) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf(
			"invalid keypair length %d, expected %d",
			len(data),
			ed25519.PrivateKeySize,
		)
	}
	privKey := ed25519.PrivateKey(data)
	pub, ok := privKey.Public().(ed25519.PublicKey)
	if !ok {
		return nil, fmt.Errorf("unexpected public key type")
	}
	// Guard against a corrupt secret key where the embedded public half
	// doesn't match the seed
	if !pub.Equal(ed25519.PublicKey(data[32:])) {
		return nil, fmt.Errorf("keypair public key does not match private key")
	}
	return &Keypair{
		pubkey:  PubkeyFromPublicKey(pub),
		privKey: privKey,
	}, nil
}

// KeypairFromSeed creates a keypair from a 32-byte ed25519 seed
func KeypairFromSeed(seed []byte) (*Keypair, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf(
			"invalid seed length %d, expected %d",
			len(seed),
			ed25519.SeedSize,
		)
	}
	privKey := ed25519.NewKeyFromSeed(seed)
	return &Keypair{
		pubkey:  PubkeyFromPublicKey(privKey.Public().(ed25519.PublicKey)),
		privKey: privKey,
	}, nil
}

// KeypairFromBase58 creates a keypair from a base58-encoded 64-byte secret key
func KeypairFromBase58(s string) (*Keypair, error) {
	decoded := base58.Decode(s)
	if len(decoded) == 0 {
		return nil, fmt.Errorf("invalid base58 keypair string")
	}
	return KeypairFromBytes(decoded)
}

// LoadKeypairFile reads a keypair from a Solana CLI style JSON file containing
// an array of 64 byte values
func LoadKeypairFile(path string) (*Keypair, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read keypair file: %w", err)
	}
	var rawKey []byte
	if err := json.Unmarshal(data, &rawKey); err != nil {
		return nil, fmt.Errorf("failed to parse keypair file %s: %w", path, err)
	}
	return KeypairFromBytes(rawKey)
}

// Pubkey returns the account address for the keypair
func (k *Keypair) Pubkey() Pubkey {
	return k.pubkey
}

// PrivateKey returns the underlying ed25519 private key
func (k *Keypair) PrivateKey() ed25519.PrivateKey {
	return k.privKey
}

// Sign signs the provided message bytes
func (k *Keypair) Sign(message []byte) Signature {
	var sig Signature
	copy(sig[:], ed25519.Sign(k.privKey, message))
	return sig
}

func (k *Keypair) String() string {
	return k.pubkey.String()
}
