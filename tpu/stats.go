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
	"sync/atomic"
)

// Stats tracks send statistics for a TPU connection.
// Uses atomic counters for thread-safe operation.
type Stats struct {
	transactionsSent atomic.Uint64
	bytesSent        atomic.Uint64
	sendErrors       atomic.Uint64
}

// StatsSnapshot is a point-in-time copy of connection statistics
type StatsSnapshot struct {
	TransactionsSent uint64
	BytesSent        uint64
	SendErrors       uint64
}

func (s *Stats) snapshot() StatsSnapshot {
	return StatsSnapshot{
		TransactionsSent: s.transactionsSent.Load(),
		BytesSent:        s.bytesSent.Load(),
		SendErrors:       s.sendErrors.Load(),
	}
}
