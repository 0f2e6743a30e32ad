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

package ws

import (
	"context"
	"encoding/json"

	"github.com/blinklabs-io/gsolana/rpc"
	"github.com/blinklabs-io/gsolana/solana"
)

// SlotInfo is the payload of a slot notification
type SlotInfo struct {
	Parent uint64 `json:"parent"`
	Root   uint64 `json:"root"`
	Slot   uint64 `json:"slot"`
}

// SlotSubscription is an active slotSubscribe subscription
type SlotSubscription struct {
	sub        *subscription
	notifyChan chan SlotInfo
}

// SlotSubscribe subscribes to slot advancement notifications
func (c *Client) SlotSubscribe(ctx context.Context) (*SlotSubscription, error) {
	sub, err := c.subscribe(
		ctx,
		"slotSubscribe",
		"slotUnsubscribe",
		nil,
		false,
	)
	if err != nil {
		return nil, err
	}
	ret := &SlotSubscription{
		sub:        sub,
		notifyChan: make(chan SlotInfo, notifyChanSize),
	}
	c.waitGroup.Add(1)
	go func() {
		defer c.waitGroup.Done()
		defer close(ret.notifyChan)
		for raw := range sub.notifyChan {
			var slotInfo SlotInfo
			if err := json.Unmarshal(raw, &slotInfo); err != nil {
				c.logger.Debug(
					"discarding malformed slot notification",
					"error", err,
				)
				continue
			}
			select {
			case ret.notifyChan <- slotInfo:
			case <-c.doneChan:
				return
			}
		}
	}()
	return ret, nil
}

// Notifications returns the channel of slot notifications. The channel is
// closed when the subscription ends
func (s *SlotSubscription) Notifications() <-chan SlotInfo {
	return s.notifyChan
}

// Unsubscribe cancels the subscription
func (s *SlotSubscription) Unsubscribe() error {
	return s.sub.Unsubscribe()
}

// SignatureResult is the payload of a signature notification. A nil Err
// means the transaction reached the subscribed commitment level successfully
type SignatureResult struct {
	Err json.RawMessage `json:"err"`
}

// Failed returns whether the transaction was processed but failed
func (r SignatureResult) Failed() bool {
	return len(r.Err) > 0 && string(r.Err) != "null"
}

// SignatureSubscription is an active signatureSubscribe subscription. The
// node automatically cancels it after the first notification
type SignatureSubscription struct {
	sub        *subscription
	notifyChan chan SignatureResult
}

// SignatureSubscribe subscribes to a one-shot notification fired when the
// given transaction signature reaches the specified commitment level
func (c *Client) SignatureSubscribe(
	ctx context.Context,
	signature solana.Signature,
	commitment rpc.Commitment,
) (*SignatureSubscription, error) {
	sub, err := c.subscribe(
		ctx,
		"signatureSubscribe",
		"signatureUnsubscribe",
		[]any{
			signature.String(),
			map[string]any{"commitment": string(commitment)},
		},
		true,
	)
	if err != nil {
		return nil, err
	}
	ret := &SignatureSubscription{
		sub:        sub,
		notifyChan: make(chan SignatureResult, 1),
	}
	c.waitGroup.Add(1)
	go func() {
		defer c.waitGroup.Done()
		defer close(ret.notifyChan)
		for raw := range sub.notifyChan {
			// signatureNotification wraps the result in a context envelope
			var envelope struct {
				Value SignatureResult `json:"value"`
			}
			if err := json.Unmarshal(raw, &envelope); err != nil {
				c.logger.Debug(
					"discarding malformed signature notification",
					"error", err,
				)
				continue
			}
			select {
			case ret.notifyChan <- envelope.Value:
			case <-c.doneChan:
				return
			}
		}
	}()
	return ret, nil
}

// Result returns the channel carrying the single signature result. The
// channel is closed after delivery or when the subscription ends
func (s *SignatureSubscription) Result() <-chan SignatureResult {
	return s.notifyChan
}

// Unsubscribe cancels the subscription before it fires
func (s *SignatureSubscription) Unsubscribe() error {
	return s.sub.Unsubscribe()
}
