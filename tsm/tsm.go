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

// Package tsm implements the BACnet Transaction State Machine: invoke-id
// allocation, outstanding-request bookkeeping, and the retry/timeout
// ticker that drives retransmission of confirmed requests.
//
// The manager is built for the single-threaded cooperative run-loop this
// stack uses: every exported method takes an internal mutex so it is safe
// to call from outside that loop (e.g. a caller blocked on a response
// channel). Tick releases the mutex before it invokes its callbacks (the
// RetransmitFunc passed to it and the function registered with
// WithTimeoutCallback), so those callbacks may call back into the Manager.
package tsm

import (
	"log/slog"
	"sync"
	"time"

	"github.com/bacstack/bacstack"
)

// State is the lifecycle of a single transaction.
type State uint8

const (
	StateFree State = iota
	StateAwaitingReply
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateAwaitingReply:
		return "awaiting-reply"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "free"
	}
}

// Transaction is one outstanding confirmed request.
type Transaction struct {
	InvokeID   uint8
	Dest       bacnet.Address
	PDU        []byte
	State      State
	RetryCount int
	elapsed    time.Duration
}

// Option configures a Manager.
type Option func(*options)

type options struct {
	timeout    time.Duration
	retries    int
	logger     *slog.Logger
	onTimeout  func(tx Transaction)
}

// WithTimeout sets the per-transaction retransmit timeout (default 3s).
func WithTimeout(d time.Duration) Option { return func(o *options) { o.timeout = d } }

// WithRetries sets the retry budget before a transaction fails (default 3).
func WithRetries(n int) Option { return func(o *options) { o.retries = n } }

// WithLogger sets the structured logger used for transaction events.
func WithLogger(l *slog.Logger) Option { return func(o *options) { o.logger = l } }

// WithTimeoutCallback registers a function invoked once per transaction
// that exhausts its retry budget, after State has been set to StateFailed
// and the invoke-id has been freed.
func WithTimeoutCallback(f func(tx Transaction)) Option {
	return func(o *options) { o.onTimeout = f }
}

// Manager owns invoke-id allocation and the outstanding-transaction table.
type Manager struct {
	mu   sync.Mutex
	opts options
	txs  map[uint8]*Transaction
	next uint8
}

// NewManager constructs a Manager with the given options.
func NewManager(opts ...Option) *Manager {
	o := options{
		timeout: 3 * time.Second,
		retries: 3,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Manager{opts: o, txs: make(map[uint8]*Transaction), next: 1}
}

// NextFreeInvokeID allocates a fresh invoke-id in 1..255, skipping any
// still in the table. Returns 0 on exhaustion (spec edge case: the
// caller must back off).
func (m *Manager) NextFreeInvokeID() uint8 {
	m.mu.Lock()
	defer m.mu.Unlock()
	start := m.next
	for {
		id := m.next
		m.next++
		if m.next == 0 {
			m.next = 1
		}
		if _, taken := m.txs[id]; !taken && id != 0 {
			return id
		}
		if m.next == start {
			return 0
		}
	}
}

// Set registers a new outstanding transaction for retransmission tracking.
func (m *Manager) Set(invokeID uint8, dest bacnet.Address, pdu []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txs[invokeID] = &Transaction{
		InvokeID: invokeID,
		Dest:     dest,
		PDU:      append([]byte(nil), pdu...),
		State:    StateAwaitingReply,
	}
}

// Free releases an invoke-id back to the pool.
func (m *Manager) Free(invokeID uint8) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.txs, invokeID)
}

// State reports the current state of a transaction, or StateFree if it
// is not outstanding.
func (m *Manager) State(invokeID uint8) State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if tx, ok := m.txs[invokeID]; ok {
		return tx.State
	}
	return StateFree
}

// Complete marks a transaction completed and frees its invoke-id if the
// ack's source matches the original destination (the TSM address-match
// rule). It reports whether the ack was accepted.
func (m *Manager) Complete(invokeID uint8, from bacnet.Address) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.txs[invokeID]
	if !ok {
		// Ack arrived after timeout or for an unknown invoke-id: discard.
		return false
	}
	if !tx.Dest.Equal(from) {
		m.opts.logger.Warn("tsm: address mismatch on ack, discarding",
			slog.Int("invoke_id", int(invokeID)))
		return false
	}
	tx.State = StateCompleted
	delete(m.txs, invokeID)
	return true
}

// RetransmitFunc sends the stored PDU to the stored destination again.
type RetransmitFunc func(dest bacnet.Address, pdu []byte)

// Tick advances every outstanding transaction's timer by elapsed and
// retransmits or fails any that have hit their timeout. It must be called
// from the single owning run-loop goroutine only.
func (m *Manager) Tick(elapsed time.Duration, retransmit RetransmitFunc) {
	m.mu.Lock()
	var toRetransmit []*Transaction
	var toFail []Transaction
	for _, tx := range m.txs {
		if tx.State != StateAwaitingReply {
			continue
		}
		tx.elapsed += elapsed
		if tx.elapsed < m.opts.timeout {
			continue
		}
		tx.elapsed = 0
		if tx.RetryCount < m.opts.retries {
			tx.RetryCount++
			toRetransmit = append(toRetransmit, tx)
		} else {
			tx.State = StateFailed
			toFail = append(toFail, *tx)
			delete(m.txs, tx.InvokeID)
		}
	}
	cb := m.opts.onTimeout
	m.mu.Unlock()

	for _, tx := range toRetransmit {
		m.opts.logger.Debug("tsm: retransmitting",
			slog.Int("invoke_id", int(tx.InvokeID)),
			slog.Int("retry", tx.RetryCount))
		retransmit(tx.Dest, tx.PDU)
	}
	for _, tx := range toFail {
		m.opts.logger.Warn("tsm: transaction failed, retries exhausted",
			slog.Int("invoke_id", int(tx.InvokeID)))
		if cb != nil {
			cb(tx)
		}
	}
}

// Outstanding returns the number of transactions currently awaiting a
// reply, used by tests and metrics.
func (m *Manager) Outstanding() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.txs)
}
