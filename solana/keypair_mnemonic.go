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
	"crypto/hmac"
	"crypto/sha512"
	"encoding/binary"
	"fmt"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	bip39Iterations = 2048
	bip39KeyLength  = 64

	hardenedOffset = 0x80000000
)

// DefaultDerivationPath is the derivation path used by the Solana CLI for the
// first account of a mnemonic-derived wallet
var DefaultDerivationPath = []uint32{44, 501, 0, 0}

// KeypairFromMnemonic derives a keypair from a BIP-39 mnemonic phrase and
// optional passphrase using the Solana CLI derivation path (m/44'/501'/0'/0').
// All path components are hardened, as required for SLIP-0010 ed25519 keys
func KeypairFromMnemonic(mnemonic string, passphrase string) (*Keypair, error) {
	return KeypairFromMnemonicPath(mnemonic, passphrase, DefaultDerivationPath)
}

// KeypairFromMnemonicPath derives a keypair from a BIP-39 mnemonic phrase
// using the given derivation path components (each implicitly hardened)
func KeypairFromMnemonicPath(
	mnemonic string,
	passphrase string,
	path []uint32,
) (*Keypair, error) {
	mnemonic = strings.TrimSpace(mnemonic)
	if mnemonic == "" {
		return nil, fmt.Errorf("empty mnemonic phrase")
	}
	seed := pbkdf2.Key(
		[]byte(mnemonic),
		[]byte("mnemonic"+passphrase),
		bip39Iterations,
		bip39KeyLength,
		sha512.New,
	)
	key, chainCode := slip10MasterKey(seed)
	for _, idx := range path {
		if idx >= hardenedOffset {
			return nil, fmt.Errorf("derivation index %d out of range", idx)
		}
		key, chainCode = slip10DeriveChild(key, chainCode, idx+hardenedOffset)
	}
	return KeypairFromSeed(key)
}

// slip10MasterKey derives the SLIP-0010 ed25519 master key from a BIP-39 seed
func slip10MasterKey(seed []byte) ([]byte, []byte) {
	mac := hmac.New(sha512.New, []byte("ed25519 seed"))
	mac.Write(seed)
	sum := mac.Sum(nil)
	return sum[:32], sum[32:]
}

// slip10DeriveChild derives a hardened child key per SLIP-0010
func slip10DeriveChild(key []byte, chainCode []byte, index uint32) ([]byte, []byte) {
	data := make([]byte, 0, 1+len(key)+4)
	data = append(data, 0x00)
	data = append(data, key...)
	data = binary.BigEndian.AppendUint32(data, index)
	mac := hmac.New(sha512.New, chainCode)
	mac.Write(data)
	sum := mac.Sum(nil)
	return sum[:32], sum[32:]
}
