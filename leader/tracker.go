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

// Package leader tracks the upcoming slot leader schedule of a Solana
// cluster so transactions can be sent directly to the validators that will
// produce the next blocks.
//
// The current slot is advanced from WebSocket slot notifications, while the
// leader schedule and node contact info are refreshed periodically over RPC.
package leader

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/blinklabs-io/gsolana/rpc"
	"github.com/blinklabs-io/gsolana/rpc/ws"
	"github.com/blinklabs-io/gsolana/solana"
	"github.com/cenkalti/backoff/v4"
	"github.com/jinzhu/copier"
)

// SlotsPerLeader is the number of consecutive slots assigned to each leader
// in the schedule
const SlotsPerLeader = 4

const (
	// DefaultNumLeaders is the default number of distinct upcoming leaders
	// returned by Leaders
	DefaultNumLeaders = 4
	// DefaultPollInterval is the default leader schedule refresh interval
	DefaultPollInterval = time.Minute
	// DefaultLookaheadSlots is the default number of slots of leader
	// schedule fetched per refresh
	DefaultLookaheadSlots = 1000
)

// RPCClient is the subset of the RPC client used by the tracker
type RPCClient interface {
	GetSlot(ctx context.Context) (uint64, error)
	GetSlotLeaders(
		ctx context.Context,
		startSlot uint64,
		limit uint64,
	) ([]solana.Pubkey, error)
	GetClusterNodes(ctx context.Context) ([]rpc.ContactInfo, error)
}

// SlotWatcher is the subset of the WebSocket client used by the tracker
type SlotWatcher interface {
	SlotSubscribe(ctx context.Context) (*ws.SlotSubscription, error)
}

// Config contains configuration options for the leader tracker
type Config struct {
	NumLeaders     int
	LeaderOffset   int64
	PollInterval   time.Duration
	LookaheadSlots uint64
	Logger         *slog.Logger
}

// TrackerOptionFunc is a function that modifies a Config
type TrackerOptionFunc func(*Config)

// NewConfig creates a new Config with default values, applying any provided
// option functions
func NewConfig(options ...TrackerOptionFunc) Config {
	c := Config{
		NumLeaders:     DefaultNumLeaders,
		PollInterval:   DefaultPollInterval,
		LookaheadSlots: DefaultLookaheadSlots,
	}
	// Apply provided options functions
	for _, option := range options {
		option(&c)
	}
	return c
}

// WithNumLeaders sets the number of distinct upcoming leaders returned by
// Leaders
func WithNumLeaders(numLeaders int) TrackerOptionFunc {
	return func(c *Config) {
		c.NumLeaders = numLeaders
	}
}

// WithLeaderOffset sets a slot offset applied when selecting upcoming
// leaders. This is useful for skipping the current leader when its slots are
// nearly exhausted
func WithLeaderOffset(offset int64) TrackerOptionFunc {
	return func(c *Config) {
		c.LeaderOffset = offset
	}
}

// WithPollInterval sets the leader schedule refresh interval
func WithPollInterval(interval time.Duration) TrackerOptionFunc {
	return func(c *Config) {
		c.PollInterval = interval
	}
}

// WithLookaheadSlots sets the number of slots of leader schedule fetched per
// refresh
func WithLookaheadSlots(slots uint64) TrackerOptionFunc {
	return func(c *Config) {
		c.LookaheadSlots = slots
	}
}

// WithLogger sets the logger. This defaults to slog.Default()
func WithLogger(logger *slog.Logger) TrackerOptionFunc {
	return func(c *Config) {
		c.Logger = logger
	}
}

// Tracker maintains a slot-indexed view of the upcoming leader schedule
type Tracker struct {
	config       Config
	rpcClient    RPCClient
	slotWatcher  SlotWatcher
	logger       *slog.Logger
	currentSlot  atomic.Uint64
	leaders      map[uint64]rpc.ContactInfo
	leadersMutex sync.RWMutex
	doneChan     chan any
	onceStart    sync.Once
	onceStop     sync.Once
	waitGroup    sync.WaitGroup
}

// NewTracker returns a new Tracker using the given RPC client and slot
// watcher. Call Start to begin tracking
func NewTracker(
	rpcClient RPCClient,
	slotWatcher SlotWatcher,
	cfg Config,
) *Tracker {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		config:      cfg,
		rpcClient:   rpcClient,
		slotWatcher: slotWatcher,
		logger:      logger,
		leaders:     make(map[uint64]rpc.ContactInfo),
		doneChan:    make(chan any),
	}
}

// Start fetches the current slot and leader schedule, then begins watching
// slot notifications and refreshing the schedule in the background
func (t *Tracker) Start(ctx context.Context) error {
	var startErr error
	t.onceStart.Do(func() {
		slot, err := t.rpcClient.GetSlot(ctx)
		if err != nil {
			startErr = fmt.Errorf("failed to get current slot: %s", err)
			return
		}
		t.currentSlot.Store(slot)
		if err := t.PollOnce(ctx); err != nil {
			startErr = err
			return
		}
		t.waitGroup.Add(2)
		go t.watchSlots()
		go t.pollLoop()
	})
	return startErr
}

// Stop shuts down the background goroutines
func (t *Tracker) Stop() {
	t.onceStop.Do(func() {
		close(t.doneChan)
		t.waitGroup.Wait()
	})
}

// CurrentSlot returns the most recently observed slot
func (t *Tracker) CurrentSlot() uint64 {
	return t.currentSlot.Load()
}

// watchSlots advances the current slot from WebSocket notifications,
// resubscribing with backoff when the subscription fails
func (t *Tracker) watchSlots() {
	defer t.waitGroup.Done()
	retryPolicy := backoff.NewExponentialBackOff()
	for {
		select {
		case <-t.doneChan:
			return
		default:
		}
		sub, err := t.slotWatcher.SlotSubscribe(context.Background())
		if err != nil {
			t.logger.Error(
				"failed to subscribe to slot notifications",
				"error", err,
			)
			select {
			case <-t.doneChan:
				return
			case <-time.After(retryPolicy.NextBackOff()):
			}
			continue
		}
		retryPolicy.Reset()
		t.logger.Info("subscribed to slot notifications")
		if !t.consumeSlots(sub) {
			return
		}
	}
}

// consumeSlots drains a slot subscription until it ends. It returns false
// when the tracker is shutting down
func (t *Tracker) consumeSlots(sub *ws.SlotSubscription) bool {
	defer func() {
		_ = sub.Unsubscribe()
	}()
	for {
		select {
		case <-t.doneChan:
			return false
		case slotInfo, ok := <-sub.Notifications():
			if !ok {
				// Subscription ended, trigger a resubscribe
				return true
			}
			t.currentSlot.Store(slotInfo.Slot)
		}
	}
}

// pollLoop refreshes the leader schedule at the configured interval
func (t *Tracker) pollLoop() {
	defer t.waitGroup.Done()
	ticker := time.NewTicker(t.config.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-t.doneChan:
			return
		case <-ticker.C:
			start := time.Now()
			if err := t.PollOnce(context.Background()); err != nil {
				t.logger.Error(
					"failed to refresh leader schedule",
					"error", err,
				)
				continue
			}
			t.logger.Debug(
				"refreshed leader schedule",
				"duration", time.Since(start),
			)
		}
	}
}

// PollOnce fetches the upcoming leader schedule and cluster contact info and
// updates the slot-to-leader mapping, pruning slots that have passed
func (t *Tracker) PollOnce(ctx context.Context) error {
	startSlot := t.currentSlot.Load()
	slotLeaders, err := t.rpcClient.GetSlotLeaders(
		ctx,
		startSlot,
		t.config.LookaheadSlots,
	)
	if err != nil {
		return fmt.Errorf("failed to get slot leaders: %s", err)
	}
	clusterNodes, err := t.rpcClient.GetClusterNodes(ctx)
	if err != nil {
		return fmt.Errorf("failed to get cluster nodes: %s", err)
	}
	nodesByPubkey := make(map[string]rpc.ContactInfo, len(clusterNodes))
	for _, node := range clusterNodes {
		nodesByPubkey[node.Pubkey] = node
	}
	t.leadersMutex.Lock()
	defer t.leadersMutex.Unlock()
	for i, leaderKey := range slotLeaders {
		contactInfo, ok := nodesByPubkey[leaderKey.String()]
		if !ok {
			t.logger.Debug(
				"leader not found in cluster nodes",
				"leader", leaderKey.String(),
			)
			continue
		}
		t.leaders[startSlot+uint64(i)] = contactInfo
	}
	// Prune slots that have already passed. The schedule start was captured
	// before the RPC calls, so re-read the current slot
	currentSlot := t.currentSlot.Load()
	for slot := range t.leaders {
		if slot < currentSlot {
			delete(t.leaders, slot)
		}
	}
	return nil
}

// Leaders returns up to NumLeaders distinct upcoming leaders in slot order,
// starting at the current slot plus the configured offset. Each leader
// appears once even though it is scheduled for several consecutive slots.
// The returned contact info values are deep copies
func (t *Tracker) Leaders() []rpc.ContactInfo {
	startSlot := t.currentSlot.Load()
	if t.config.LeaderOffset < 0 {
		offset := uint64(-t.config.LeaderOffset)
		if offset > startSlot {
			startSlot = 0
		} else {
			startSlot -= offset
		}
	} else {
		startSlot += uint64(t.config.LeaderOffset)
	}
	endSlot := startSlot + uint64(t.config.NumLeaders*SlotsPerLeader)
	seen := make(map[string]bool)
	var ret []rpc.ContactInfo
	t.leadersMutex.RLock()
	defer t.leadersMutex.RUnlock()
	for slot := startSlot; slot < endSlot; slot++ {
		leader, ok := t.leaders[slot]
		if !ok {
			continue
		}
		if seen[leader.Pubkey] {
			continue
		}
		seen[leader.Pubkey] = true
		var leaderCopy rpc.ContactInfo
		if err := copier.CopyWithOption(
			&leaderCopy,
			&leader,
			copier.Option{DeepCopy: true},
		); err != nil {
			// Fall back to a shallow copy, which still can't mutate our map
			// entry itself
			leaderCopy = leader
		}
		ret = append(ret, leaderCopy)
		if len(ret) >= t.config.NumLeaders {
			break
		}
	}
	return ret
}
