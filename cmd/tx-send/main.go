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

package main

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"

	"github.com/blinklabs-io/gsolana"
	"github.com/blinklabs-io/gsolana/cmd/common"
)

func main() {
	// Parse commandline
	f := common.NewGlobalFlags()
	f.Parse()
	logLevel := slog.LevelInfo
	if f.Debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(
		slog.NewTextHandler(
			os.Stderr,
			&slog.HandlerOptions{Level: logLevel},
		),
	)
	slog.SetDefault(logger)
	keypair := common.CreateSenderKeypair(f)
	receiver := common.ParseReceiverPubkey(f)
	if f.CuLimit > math.MaxUint32 {
		fmt.Printf("Invalid compute unit limit: %d\n", f.CuLimit)
		os.Exit(1)
	}
	errorChan := make(chan error, 10)
	go func() {
		for {
			err, ok := <-errorChan
			if !ok {
				return
			}
			logger.Error("async error", "error", err)
		}
	}()
	client, err := gsolana.NewClient(
		gsolana.WithNetwork(f.Network),
		gsolana.WithRpcUrl(f.RpcUrl),
		gsolana.WithWsUrl(f.WsUrl),
		gsolana.WithKeypair(keypair),
		gsolana.WithLogger(logger),
		gsolana.WithErrorChan(errorChan),
		gsolana.WithRetryCount(f.Retry),
		gsolana.WithComputeUnitLimit(uint32(f.CuLimit)),
		gsolana.WithComputeUnitPrice(f.CuPrice),
	)
	if err != nil {
		logger.Error("failed to create client", "error", err)
		os.Exit(1)
	}
	ctx := context.Background()
	logger.Info(
		"starting",
		"network", f.Network.Name,
		"sender", keypair.Pubkey().String(),
		"receiver", receiver.String(),
		"lamports", f.Lamports,
		"retry", f.Retry,
	)
	if err := client.Start(ctx); err != nil {
		logger.Error("failed to start client", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = client.Close()
	}()
	signature, err := client.Transfer(ctx, receiver, f.Lamports)
	if err != nil {
		logger.Error("transfer failed", "error", err)
		os.Exit(1)
	}
	logger.Info(
		"transfer complete",
		"signature", signature.String(),
		"explorer", f.Network.ExplorerUrl(signature.String()),
	)
}
