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

package common

import (
	"flag"
	"fmt"
	"os"

	"github.com/blinklabs-io/gsolana"
)

type GlobalFlags struct {
	Flagset       *flag.FlagSet
	Mainnet       bool
	Devnet        bool
	HeliosMainnet bool
	Network       gsolana.Network
	Retry         int
	From          string
	To            string
	Lamports      uint64
	CuLimit       uint
	CuPrice       uint64
	RpcUrl        string
	WsUrl         string
	Debug         bool
}

func NewGlobalFlags() *GlobalFlags {
	f := &GlobalFlags{
		Flagset: flag.NewFlagSet(os.Args[0], flag.ExitOnError),
	}
	f.Flagset.BoolVar(
		&f.Mainnet,
		"mainnet",
		false,
		"use the mainnet cluster",
	)
	f.Flagset.BoolVar(
		&f.Devnet,
		"devnet",
		false,
		"use the devnet cluster",
	)
	f.Flagset.BoolVar(
		&f.HeliosMainnet,
		"helios-mainnet",
		false,
		"use the mainnet cluster via the Helius RPC provider",
	)
	f.Flagset.IntVar(
		&f.Retry,
		"retry",
		gsolana.DefaultRetryCount,
		"number of send attempts",
	)
	f.Flagset.StringVar(
		&f.From,
		"from",
		os.Getenv("GSOLANA_SENDER_KEY"),
		"sender keypair as a file path or base58-encoded secret key. defaults to GSOLANA_SENDER_KEY",
	)
	f.Flagset.StringVar(
		&f.To,
		"to",
		os.Getenv("GSOLANA_RECEIVER"),
		"receiver as a base58-encoded pubkey or keypair file path. defaults to GSOLANA_RECEIVER",
	)
	f.Flagset.Uint64Var(
		&f.Lamports,
		"lamports",
		1000,
		"amount to transfer in lamports",
	)
	f.Flagset.UintVar(
		&f.CuLimit,
		"cu-limit",
		gsolana.DefaultComputeUnitLimit,
		"compute unit limit",
	)
	f.Flagset.Uint64Var(
		&f.CuPrice,
		"cu-price",
		gsolana.DefaultComputeUnitPrice,
		"compute unit price in micro-lamports",
	)
	f.Flagset.StringVar(
		&f.RpcUrl,
		"rpc-url",
		"",
		"RPC URL. this overrides the cluster's default",
	)
	f.Flagset.StringVar(
		&f.WsUrl,
		"ws-url",
		"",
		"WebSocket URL. this overrides the cluster's default",
	)
	f.Flagset.BoolVar(&f.Debug, "debug", false, "enable debug logging")
	return f
}

func (f *GlobalFlags) Parse() {
	if err := f.Flagset.Parse(os.Args[1:]); err != nil {
		fmt.Printf("failed to parse command args: %s\n", err)
		os.Exit(1)
	}
	networkCount := 0
	for _, selected := range []bool{f.Mainnet, f.Devnet, f.HeliosMainnet} {
		if selected {
			networkCount++
		}
	}
	if networkCount != 1 {
		fmt.Printf(
			"You must specify exactly one of -mainnet, -devnet, or -helios-mainnet\n\n",
		)
		f.Flagset.PrintDefaults()
		os.Exit(1)
	}
	switch {
	case f.Mainnet:
		f.Network = gsolana.NetworkMainnet
	case f.HeliosMainnet:
		f.Network = gsolana.NetworkHeliosMainnet
	default:
		f.Network = gsolana.NetworkDevnet
	}
	if f.Retry < 1 {
		fmt.Printf("Invalid retry count: %d\n", f.Retry)
		os.Exit(1)
	}
	if f.From == "" || f.To == "" {
		fmt.Printf("You must specify both -from and -to\n\n")
		f.Flagset.PrintDefaults()
		os.Exit(1)
	}
}
