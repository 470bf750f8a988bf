// Copyright 2025 Edgeo SCADA
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

package tsm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bacstack/bacstack"
)

func addr(mac byte) bacnet.Address {
	return bacnet.Address{Mac: []byte{mac}}
}

func TestNextFreeInvokeID_NeverReusedWhileOutstanding(t *testing.T) {
	m := NewManager()
	seen := make(map[uint8]bool)
	for i := 0; i < 10; i++ {
		id := m.NextFreeInvokeID()
		require.NotEqual(t, uint8(0), id)
		require.False(t, seen[id], "invoke id %d reused while still outstanding", id)
		seen[id] = true
		m.Set(id, addr(1), []byte{0x01})
	}
}

func TestNextFreeInvokeID_ReusableAfterFree(t *testing.T) {
	m := NewManager()
	id := m.NextFreeInvokeID()
	m.Set(id, addr(1), nil)
	m.Free(id)
	assert.Equal(t, StateFree, m.State(id))
}

func TestComplete_MatchingAddressCompletesAndFrees(t *testing.T) {
	m := NewManager()
	id := m.NextFreeInvokeID()
	dest := addr(1)
	m.Set(id, dest, []byte{0x01})

	ok := m.Complete(id, dest)
	assert.True(t, ok)
	assert.Equal(t, StateFree, m.State(id))
	assert.Equal(t, 0, m.Outstanding())
}

func TestComplete_MismatchedAddressDiscarded(t *testing.T) {
	m := NewManager()
	id := m.NextFreeInvokeID()
	m.Set(id, addr(1), []byte{0x01})

	ok := m.Complete(id, addr(2))
	assert.False(t, ok)
	assert.Equal(t, StateAwaitingReply, m.State(id))
	assert.Equal(t, 1, m.Outstanding())
}

func TestComplete_UnknownInvokeIDDiscarded(t *testing.T) {
	m := NewManager()
	ok := m.Complete(200, addr(1))
	assert.False(t, ok)
}

func TestTick_RetriesThenFailsAfterBudgetExhausted(t *testing.T) {
	var retransmits int
	var failed *Transaction
	m := NewManager(
		WithTimeout(10*time.Millisecond),
		WithRetries(2),
		WithTimeoutCallback(func(tx Transaction) { failed = &tx }),
	)
	id := m.NextFreeInvokeID()
	dest := addr(1)
	m.Set(id, dest, []byte{0xAB})

	retransmit := func(bacnet.Address, []byte) { retransmits++ }

	// Two retries.
	m.Tick(10*time.Millisecond, retransmit)
	m.Tick(10*time.Millisecond, retransmit)
	assert.Equal(t, 2, retransmits)
	assert.Equal(t, StateAwaitingReply, m.State(id))

	// Third timeout exhausts the retry budget.
	m.Tick(10*time.Millisecond, retransmit)
	assert.Equal(t, 2, retransmits, "no further retransmit once budget exhausted")
	require.NotNil(t, failed)
	assert.Equal(t, id, failed.InvokeID)
	assert.Equal(t, StateFree, m.State(id))
	assert.Equal(t, 0, m.Outstanding())
}

func TestTick_NoActionBeforeTimeoutElapses(t *testing.T) {
	var retransmits int
	m := NewManager(WithTimeout(100 * time.Millisecond))
	id := m.NextFreeInvokeID()
	m.Set(id, addr(1), []byte{0x01})

	m.Tick(10*time.Millisecond, func(bacnet.Address, []byte) { retransmits++ })
	assert.Equal(t, 0, retransmits)
	assert.Equal(t, StateAwaitingReply, m.State(id))
}
