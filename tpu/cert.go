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

package tpu

import (
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"fmt"
	"math/big"
	"net"
	"time"

	"github.com/blinklabs-io/gsolana/solana"
)

// selfSignedCertificate builds a self-signed TLS certificate from the given
// keypair. Validators use the ed25519 public key from the client certificate
// to identify the sender, so the certificate must be signed with the same
// key that signs transactions
func selfSignedCertificate(keypair *solana.Keypair) (tls.Certificate, error) {
	serialNumber, err := rand.Int(
		rand.Reader,
		new(big.Int).Lsh(big.NewInt(1), 128),
	)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf(
			"failed to generate certificate serial number: %s",
			err,
		)
	}
	template := x509.Certificate{
		SerialNumber: serialNumber,
		Subject: pkix.Name{
			CommonName: "Solana node",
		},
		NotBefore: time.Now().Add(-1 * time.Hour),
		NotAfter:  time.Now().Add(24 * 365 * time.Hour),
		KeyUsage:  x509.KeyUsageDigitalSignature,
		ExtKeyUsage: []x509.ExtKeyUsage{
			x509.ExtKeyUsageClientAuth,
			x509.ExtKeyUsageServerAuth,
		},
		IPAddresses: []net.IP{net.IPv4zero},
	}
	pubkey := keypair.Pubkey()
	der, err := x509.CreateCertificate(
		rand.Reader,
		&template,
		&template,
		pubkey.PublicKey(),
		keypair.PrivateKey(),
	)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf(
			"failed to create certificate: %s",
			err,
		)
	}
	return tls.Certificate{
		Certificate: [][]byte{der},
		PrivateKey:  keypair.PrivateKey(),
	}, nil
}
