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
	"errors"
	"fmt"
)

// MaxCompactU16 is the largest value representable in the short-vec length encoding
const MaxCompactU16 = 0xffff

var ErrCompactU16Overflow = errors.New("compact-u16 value overflow")

// AppendCompactU16 appends the Solana short-vec encoding of n to buf. Values are
// encoded 7 bits at a time, least-significant group first, with the high bit of
// each byte indicating a continuation. A value never occupies more than 3 bytes.
func AppendCompactU16(buf []byte, n int) ([]byte, error) {
	if n < 0 || n > MaxCompactU16 {
		return buf, fmt.Errorf("%w: %d", ErrCompactU16Overflow, n)
	}
	val := uint16(n)
	for {
		b := byte(val & 0x7f)
		val >>= 7
		if val == 0 {
			buf = append(buf, b)
			return buf, nil
		}
		buf = append(buf, b|0x80)
	}
}

// DecodeCompactU16 decodes a short-vec length from the start of data. It returns
// the decoded value and the number of bytes consumed
func DecodeCompactU16(data []byte) (int, int, error) {
	var val int
	for i := range 3 {
		if i >= len(data) {
			return 0, 0, errors.New("compact-u16: unexpected end of data")
		}
		b := data[i]
		val |= int(b&0x7f) << (7 * i)
		if b&0x80 == 0 {
			if val > MaxCompactU16 {
				return 0, 0, fmt.Errorf("%w: %d", ErrCompactU16Overflow, val)
			}
			return val, i + 1, nil
		}
	}
	return 0, 0, errors.New("compact-u16: encoding longer than 3 bytes")
}
