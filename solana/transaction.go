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
	"errors"
	"fmt"
)

// MaxTransactionSize is the IPv6 MTU minus fragment headers, the upper bound
// for a serialized transaction accepted by the cluster
const MaxTransactionSize = 1232

var (
	ErrMissingSigner        = errors.New("transaction missing required signer")
	ErrSignatureVerify      = errors.New("transaction signature verification failed")
	ErrTransactionTooLarge  = errors.New("serialized transaction exceeds maximum size")
	ErrTrailingBytes        = errors.New("trailing bytes after transaction")
	ErrSignatureCountMismatch = errors.New(
		"signature count does not match message header",
	)
)

// Transaction is a signed Solana transaction: a compiled message preceded by
// one signature per required signer, in account key order
type Transaction struct {
	Signatures []Signature
	Message    Message
}

// NewTransaction compiles the instructions into an unsigned transaction with
// placeholder signatures
func NewTransaction(
	payer Pubkey,
	instructions []Instruction,
	recentBlockhash Hash,
) (*Transaction, error) {
	msg, err := NewMessage(payer, instructions, recentBlockhash)
	if err != nil {
		return nil, err
	}
	return &Transaction{
		Signatures: make([]Signature, msg.Header.NumRequiredSignatures),
		Message:    msg,
	}, nil
}

// Sign signs the message with each provided keypair and places the signatures
// at the positions of the corresponding account keys. All required signers
// must be covered
func (t *Transaction) Sign(signers ...*Keypair) error {
	msgBytes, err := t.Message.Serialize()
	if err != nil {
		return err
	}
	numRequired := int(t.Message.Header.NumRequiredSignatures)
	if len(t.Signatures) != numRequired {
		t.Signatures = make([]Signature, numRequired)
	}
	signerIdx := make(map[Pubkey]int, numRequired)
	for i, key := range t.Message.AccountKeys[:numRequired] {
		signerIdx[key] = i
	}
	for _, signer := range signers {
		idx, ok := signerIdx[signer.Pubkey()]
		if !ok {
			return fmt.Errorf(
				"keypair %s is not a required signer",
				signer.Pubkey(),
			)
		}
		t.Signatures[idx] = signer.Sign(msgBytes)
	}
	for i, sig := range t.Signatures {
		if sig.IsZero() {
			return fmt.Errorf(
				"%w: %s",
				ErrMissingSigner,
				t.Message.AccountKeys[i],
			)
		}
	}
	return nil
}

// Signature returns the transaction identifier, which is the signature of the
// fee payer
func (t *Transaction) Signature() Signature {
	if len(t.Signatures) == 0 {
		return Signature{}
	}
	return t.Signatures[0]
}

// VerifySignatures checks every signature against the corresponding account
// key and the serialized message bytes
func (t *Transaction) VerifySignatures() error {
	msgBytes, err := t.Message.Serialize()
	if err != nil {
		return err
	}
	if len(t.Signatures) != int(t.Message.Header.NumRequiredSignatures) {
		return ErrSignatureCountMismatch
	}
	for i, sig := range t.Signatures {
		pub := t.Message.AccountKeys[i].PublicKey()
		if !ed25519.Verify(pub, msgBytes, sig[:]) {
			return fmt.Errorf(
				"%w: signer %s",
				ErrSignatureVerify,
				t.Message.AccountKeys[i],
			)
		}
	}
	return nil
}

// Serialize returns the wire encoding of the transaction as sent to the TPU
func (t *Transaction) Serialize() ([]byte, error) {
	buf, err := AppendCompactU16(nil, len(t.Signatures))
	if err != nil {
		return nil, err
	}
	for _, sig := range t.Signatures {
		buf = append(buf, sig[:]...)
	}
	msgBytes, err := t.Message.Serialize()
	if err != nil {
		return nil, err
	}
	buf = append(buf, msgBytes...)
	if len(buf) > MaxTransactionSize {
		return nil, fmt.Errorf(
			"%w: %d > %d",
			ErrTransactionTooLarge,
			len(buf),
			MaxTransactionSize,
		)
	}
	return buf, nil
}

// DeserializeTransaction decodes a transaction from its wire encoding. Any
// trailing bytes are treated as an error
func DeserializeTransaction(data []byte) (*Transaction, error) {
	numSigs, n, err := DecodeCompactU16(data)
	if err != nil {
		return nil, err
	}
	offset := n
	tx := &Transaction{}
	for range numSigs {
		sigBytes := safeSlice(data, offset, SignatureLength)
		if sigBytes == nil {
			return nil, errors.New("transaction truncated reading signatures")
		}
		var sig Signature
		copy(sig[:], sigBytes)
		tx.Signatures = append(tx.Signatures, sig)
		offset += SignatureLength
	}
	msg, n, err := deserializeMessage(data[offset:])
	if err != nil {
		return nil, err
	}
	offset += n
	if offset != len(data) {
		return nil, fmt.Errorf(
			"%w: %d bytes",
			ErrTrailingBytes,
			len(data)-offset,
		)
	}
	tx.Message = msg
	if len(tx.Signatures) != int(msg.Header.NumRequiredSignatures) {
		return nil, ErrSignatureCountMismatch
	}
	return tx, nil
}
