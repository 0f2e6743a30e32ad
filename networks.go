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

package gsolana

import (
	"fmt"
	"os"
)

// HeliusApiKeyEnv is the environment variable holding the Helius RPC API key
const HeliusApiKeyEnv = "HELIUS_API_KEY"

// Network definitions
var (
	NetworkMainnet = Network{
		Name:   "mainnet",
		RpcUrl: "https://api.mainnet-beta.solana.com",
		WsUrl:  "wss://api.mainnet-beta.solana.com",
	}
	NetworkDevnet = Network{
		Name:            "devnet",
		RpcUrl:          "https://api.devnet.solana.com",
		WsUrl:           "wss://api.devnet.solana.com",
		ExplorerCluster: "devnet",
	}
	NetworkHeliosMainnet = Network{
		Name:      "helios-mainnet",
		RpcUrl:    "https://mainnet.helius-rpc.com/",
		WsUrl:     "wss://mainnet.helius-rpc.com/",
		ApiKeyEnv: HeliusApiKeyEnv,
	}

	NetworkInvalid = Network{
		Name: "invalid",
	} // NetworkInvalid is used as a return value for lookup functions when a network isn't found
)

// List of valid networks for use in lookup functions
var networks = []Network{
	NetworkMainnet,
	NetworkDevnet,
	NetworkHeliosMainnet,
}

// NetworkByName returns a predefined network by name
func NetworkByName(name string) Network {
	for _, network := range networks {
		if network.Name == name {
			return network
		}
	}
	return NetworkInvalid
}

// Network represents a Solana cluster
type Network struct {
	Name   string
	RpcUrl string
	WsUrl  string
	// ExplorerCluster is the cluster query parameter used in explorer links.
	// An empty value means the explorer default (mainnet)
	ExplorerCluster string
	// ApiKeyEnv names an environment variable holding a provider API key
	// that is appended to the RPC and WebSocket URLs
	ApiKeyEnv string
}

func (n Network) String() string {
	return n.Name
}

// ResolvedRpcUrl returns the RPC URL with any provider API key applied
func (n Network) ResolvedRpcUrl() string {
	return n.applyApiKey(n.RpcUrl)
}

// ResolvedWsUrl returns the WebSocket URL with any provider API key applied
func (n Network) ResolvedWsUrl() string {
	return n.applyApiKey(n.WsUrl)
}

func (n Network) applyApiKey(url string) string {
	if n.ApiKeyEnv == "" {
		return url
	}
	return fmt.Sprintf(
		"%s?api-key=%s",
		url,
		os.Getenv(n.ApiKeyEnv),
	)
}

// ExplorerUrl returns an explorer link for the given transaction signature
func (n Network) ExplorerUrl(signature string) string {
	ret := "https://explorer.solana.com/tx/" + signature
	if n.ExplorerCluster != "" {
		ret += "?cluster=" + n.ExplorerCluster
	}
	return ret
}
