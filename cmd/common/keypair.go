package common

import (
	"fmt"
	"os"

	"github.com/blinklabs-io/gsolana/solana"
)

// CreateSenderKeypair loads the sender keypair from the -from flag, which
// may be a keypair file path or a base58-encoded secret key
func CreateSenderKeypair(f *GlobalFlags) *solana.Keypair {
	var err error
	var keypair *solana.Keypair
	if _, statErr := os.Stat(f.From); statErr == nil {
		keypair, err = solana.LoadKeypairFile(f.From)
	} else {
		keypair, err = solana.KeypairFromBase58(f.From)
	}
	if err != nil {
		fmt.Printf("Failed to load sender keypair: %s\n", err)
		os.Exit(1)
	}
	return keypair
}

// ParseReceiverPubkey resolves the receiver from the -to flag, which may be
// a base58-encoded pubkey or a keypair file path
func ParseReceiverPubkey(f *GlobalFlags) solana.Pubkey {
	if _, statErr := os.Stat(f.To); statErr == nil {
		keypair, err := solana.LoadKeypairFile(f.To)
		if err != nil {
			fmt.Printf("Failed to load receiver keypair: %s\n", err)
			os.Exit(1)
		}
		return keypair.Pubkey()
	}
	pubkey, err := solana.PubkeyFromBase58(f.To)
	if err != nil {
		fmt.Printf("Invalid receiver pubkey: %s\n", err)
		os.Exit(1)
	}
	return pubkey
}
