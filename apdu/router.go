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

package apdu

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bacstack/bacstack"
	"github.com/bacstack/bacstack/npdu"
	"github.com/bacstack/bacstack/tsm"
)

// Response is what a confirmed-service handler hands back to the Router
// to turn into a Simple-ACK or Complex-ACK APDU.
type Response struct {
	Simple bool
	Data   []byte
}

// ConfirmedHandler serves one confirmed service choice. A returned
// *bacnet.RejectError, *bacnet.AbortError or *bacnet.BACnetError is
// translated into the matching Reject/Abort/Error PDU verbatim; any
// other error becomes Error{class: Device, code: Other}.
type ConfirmedHandler func(ctx context.Context, from bacnet.Address, invokeID uint8, data []byte) (Response, error)

// UnconfirmedHandler serves one unconfirmed service choice; it has no ack.
type UnconfirmedHandler func(ctx context.Context, from bacnet.Address, data []byte)

// Option configures a Router.
type Option func(*Router)

// WithLogger sets the structured logger used for dispatch and TSM events.
func WithLogger(l *slog.Logger) Option { return func(r *Router) { r.logger = l } }

// WithMaxAPDULength overrides the max APDU length advertised to peers.
func WithMaxAPDULength(n uint16) Option { return func(r *Router) { r.maxAPDULength = n } }

// WithTSMOptions passes through functional options to the underlying
// tsm.Manager (timeout, retries, ...).
func WithTSMOptions(opts ...tsm.Option) Option {
	return func(r *Router) { r.tsmOpts = append(r.tsmOpts, opts...) }
}

// Router is the L6 APDU handler: it owns the TSM, dispatches inbound
// PDUs to registered service handlers, and originates confirmed requests
// on behalf of a client. One Router drives one DataLink in a single
// cooperative run-loop goroutine (Run); handler registration must happen
// before Run is called.
type Router struct {
	link          DataLink
	logger        *slog.Logger
	maxAPDULength uint16
	tsmOpts       []tsm.Option

	confirmed   map[bacnet.ConfirmedServiceChoice]ConfirmedHandler
	unconfirmed map[bacnet.UnconfirmedServiceChoice]UnconfirmedHandler

	tsm *tsm.Manager

	mu      sync.Mutex
	pending map[uint8]chan pendingResult
}

type pendingResult struct {
	pdu PDU
	err error
}

// NewRouter constructs a Router bound to link.
func NewRouter(link DataLink, opts ...Option) *Router {
	r := &Router{
		link:          link,
		logger:        slog.Default(),
		maxAPDULength: bacnet.MaxAPDULength,
		confirmed:     make(map[bacnet.ConfirmedServiceChoice]ConfirmedHandler),
		unconfirmed:   make(map[bacnet.UnconfirmedServiceChoice]UnconfirmedHandler),
		pending:       make(map[uint8]chan pendingResult),
	}
	for _, opt := range opts {
		opt(r)
	}
	onTimeout := tsm.WithTimeoutCallback(func(tx tsm.Transaction) {
		r.mu.Lock()
		ch, ok := r.pending[tx.InvokeID]
		r.mu.Unlock()
		if !ok {
			return
		}
		select {
		case ch <- pendingResult{err: fmt.Errorf("bacnet: invoke-id %d: retries exhausted", tx.InvokeID)}:
		default:
		}
	})
	r.tsm = tsm.NewManager(append(r.tsmOpts, tsm.WithLogger(r.logger), onTimeout)...)
	return r
}

// HandleConfirmed registers the handler for a confirmed service choice.
func (r *Router) HandleConfirmed(service bacnet.ConfirmedServiceChoice, h ConfirmedHandler) {
	r.confirmed[service] = h
}

// HandleUnconfirmed registers the handler for an unconfirmed service choice.
func (r *Router) HandleUnconfirmed(service bacnet.UnconfirmedServiceChoice, h UnconfirmedHandler) {
	r.unconfirmed[service] = h
}

// Run drives the receive/dispatch/tick loop until ctx is cancelled. It is
// the single owning goroutine for this Router's TSM and DataLink.
func (r *Router) Run(ctx context.Context) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	last := time.Now()

	recvCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	frames := make(chan frame, 16)
	go r.receiveLoop(recvCtx, frames)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			elapsed := now.Sub(last)
			last = now
			r.link.MaintenanceTimer(elapsed)
			r.tsm.Tick(elapsed, func(dest bacnet.Address, pdu []byte) {
				if err := r.link.Send(ctx, dest, pdu); err != nil {
					r.logger.Warn("apdu: retransmit send failed", slog.String("error", err.Error()))
				}
			})
		case f := <-frames:
			r.dispatch(ctx, f.payload, f.src)
		}
	}
}

type frame struct {
	payload []byte
	src     bacnet.Address
}

func (r *Router) receiveLoop(ctx context.Context, out chan<- frame) {
	for {
		payload, src, err := r.link.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			r.logger.Debug("apdu: receive error", slog.String("error", err.Error()))
			continue
		}
		select {
		case out <- frame{payload: payload, src: src}:
		case <-ctx.Done():
			return
		}
	}
}

func (r *Router) dispatch(ctx context.Context, npduPayload []byte, src bacnet.Address) {
	n, _, err := npdu.DecodeNPDU(npduPayload)
	if err != nil {
		r.logger.Debug("apdu: bad npdu", slog.String("error", err.Error()))
		return
	}
	if n.IsNetworkMsg {
		return
	}
	if len(n.Data) == 0 {
		return
	}

	pdu, err := Decode(n.Data)
	if err != nil {
		r.logger.Debug("apdu: bad apdu", slog.String("error", err.Error()))
		return
	}

	switch pdu.Type {
	case bacnet.PDUTypeConfirmedRequest:
		r.dispatchConfirmed(ctx, pdu, src)
	case bacnet.PDUTypeUnconfirmedRequest:
		r.dispatchUnconfirmed(ctx, pdu, src)
	case bacnet.PDUTypeSimpleAck, bacnet.PDUTypeComplexAck, bacnet.PDUTypeError, bacnet.PDUTypeReject, bacnet.PDUTypeAbort:
		r.dispatchAck(pdu, src)
	}
}

func (r *Router) dispatchConfirmed(ctx context.Context, pdu PDU, src bacnet.Address) {
	if pdu.Segmented {
		r.sendAbort(ctx, src, pdu.InvokeID, bacnet.AbortReasonSegmentationNotSupported)
		return
	}
	handler, ok := r.confirmed[bacnet.ConfirmedServiceChoice(pdu.Service)]
	if !ok {
		r.sendReject(ctx, src, pdu.InvokeID, bacnet.RejectReasonUnrecognizedService)
		return
	}
	resp, err := handler(ctx, src, pdu.InvokeID, pdu.Data)
	if err != nil {
		r.sendServiceError(ctx, src, pdu.InvokeID, bacnet.ConfirmedServiceChoice(pdu.Service), err)
		return
	}
	var out []byte
	if resp.Simple {
		out = EncodeSimpleAck(pdu.InvokeID, bacnet.ConfirmedServiceChoice(pdu.Service))
	} else {
		out = EncodeComplexAck(pdu.InvokeID, bacnet.ConfirmedServiceChoice(pdu.Service), resp.Data)
	}
	r.sendAPDU(ctx, src, out)
}

func (r *Router) sendServiceError(ctx context.Context, dest bacnet.Address, invokeID uint8, service bacnet.ConfirmedServiceChoice, err error) {
	var rejectErr *bacnet.RejectError
	var abortErr *bacnet.AbortError
	var bacErr *bacnet.BACnetError
	switch {
	case errors.As(err, &rejectErr):
		r.sendReject(ctx, dest, invokeID, rejectErr.Reason)
	case errors.As(err, &abortErr):
		r.sendAbort(ctx, dest, invokeID, abortErr.Reason)
	case errors.As(err, &bacErr):
		r.sendAPDU(ctx, dest, EncodeError(invokeID, service, bacErr.Class, bacErr.Code))
	default:
		r.sendAPDU(ctx, dest, EncodeError(invokeID, service, bacnet.ErrorClassDevice, bacnet.ErrorCodeOther))
	}
}

func (r *Router) sendReject(ctx context.Context, dest bacnet.Address, invokeID uint8, reason bacnet.RejectReason) {
	r.sendAPDU(ctx, dest, EncodeReject(invokeID, reason))
}

func (r *Router) sendAbort(ctx context.Context, dest bacnet.Address, invokeID uint8, reason bacnet.AbortReason) {
	r.sendAPDU(ctx, dest, EncodeAbort(invokeID, true, reason))
}

func (r *Router) sendAPDU(ctx context.Context, dest bacnet.Address, apduBytes []byte) {
	out := append(npdu.EncodeNPDU(false, npdu.NPDUControlPriorityNormal), apduBytes...)
	if err := r.link.Send(ctx, dest, out); err != nil {
		r.logger.Warn("apdu: send failed", slog.String("error", err.Error()))
	}
}

// SendUnconfirmed encodes and sends an unconfirmed-request APDU, e.g. an
// I-Am broadcast answering a Who-Is. It satisfies service.IAmSender.
func (r *Router) SendUnconfirmed(ctx context.Context, dest bacnet.Address, service bacnet.UnconfirmedServiceChoice, data []byte) {
	r.sendAPDU(ctx, dest, EncodeUnconfirmedRequest(service, data))
}

func (r *Router) dispatchUnconfirmed(ctx context.Context, pdu PDU, src bacnet.Address) {
	handler, ok := r.unconfirmed[bacnet.UnconfirmedServiceChoice(pdu.Service)]
	if !ok {
		return
	}
	handler(ctx, src, pdu.Data)
}

func (r *Router) dispatchAck(pdu PDU, src bacnet.Address) {
	r.mu.Lock()
	ch, ok := r.pending[pdu.InvokeID]
	r.mu.Unlock()
	if !ok {
		return
	}
	if !r.tsm.Complete(pdu.InvokeID, src) {
		return
	}
	select {
	case ch <- pendingResult{pdu: pdu}:
	default:
	}
}

// SendConfirmedRequest originates a confirmed request, blocking until a
// matching ack/error/reject/abort arrives, the TSM exhausts its retry
// budget, or ctx is cancelled. On success it returns the ack PDU.
func (r *Router) SendConfirmedRequest(ctx context.Context, dest bacnet.Address, service bacnet.ConfirmedServiceChoice, data []byte) (PDU, error) {
	invokeID := r.tsm.NextFreeInvokeID()
	if invokeID == 0 {
		return PDU{}, fmt.Errorf("bacnet: invoke-id exhaustion")
	}

	apduBytes := EncodeConfirmedRequest(invokeID, service, data, 0, encodedMaxAPDU(r.maxAPDULength))
	out := append(npdu.EncodeNPDU(true, npdu.NPDUControlPriorityNormal), apduBytes...)

	ch := make(chan pendingResult, 1)
	r.mu.Lock()
	r.pending[invokeID] = ch
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		delete(r.pending, invokeID)
		r.mu.Unlock()
	}()

	r.tsm.Set(invokeID, dest, out)
	if err := r.link.Send(ctx, dest, out); err != nil {
		r.tsm.Free(invokeID)
		return PDU{}, err
	}

	select {
	case res := <-ch:
		return res.pdu, res.err
	case <-ctx.Done():
		r.tsm.Free(invokeID)
		return PDU{}, ctx.Err()
	}
}

// encodedMaxAPDU maps a byte length to the 4-bit max-APDU-length code
// BACnet uses on the wire (0..5, largest being "up to 1476 octets").
func encodedMaxAPDU(length uint16) uint8 {
	switch {
	case length <= 50:
		return 0
	case length <= 128:
		return 1
	case length <= 206:
		return 2
	case length <= 480:
		return 3
	case length <= 1024:
		return 4
	default:
		return 5
	}
}
