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
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bacstack/bacstack"
	"github.com/bacstack/bacstack/npdu"
	"github.com/bacstack/bacstack/tsm"
)

// fakeLink is an in-memory apdu.DataLink: Send appends framed bytes to a
// channel a test can read back, and a test injects inbound frames by
// pushing onto inbox.
type fakeLink struct {
	local bacnet.Address

	mu   sync.Mutex
	sent []sentFrame

	inbox chan frame
}

type sentFrame struct {
	dest bacnet.Address
	npdu []byte
}

func newFakeLink() *fakeLink {
	return &fakeLink{inbox: make(chan frame, 16)}
}

func (f *fakeLink) Send(ctx context.Context, dest bacnet.Address, payload []byte) error {
	f.mu.Lock()
	f.sent = append(f.sent, sentFrame{dest: dest, npdu: append([]byte(nil), payload...)})
	f.mu.Unlock()
	return nil
}

func (f *fakeLink) Receive(ctx context.Context) ([]byte, bacnet.Address, error) {
	select {
	case fr := <-f.inbox:
		return fr.payload, fr.src, nil
	case <-ctx.Done():
		return nil, bacnet.Address{}, ctx.Err()
	}
}

func (f *fakeLink) LocalAddress() bacnet.Address        { return f.local }
func (f *fakeLink) MaintenanceTimer(time.Duration)       {}

func (f *fakeLink) deliver(src bacnet.Address, apduBytes []byte) {
	payload := append(npdu.EncodeNPDU(false, npdu.NPDUControlPriorityNormal), apduBytes...)
	f.inbox <- frame{payload: payload, src: src}
}

func (f *fakeLink) lastSent() (sentFrame, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return sentFrame{}, false
	}
	return f.sent[len(f.sent)-1], true
}

func peerAddr(mac byte) bacnet.Address { return bacnet.Address{Mac: []byte{mac}} }

func runRouter(t *testing.T, r *Router) context.CancelFunc {
	ctx, cancel := context.WithCancel(context.Background())
	go r.Run(ctx)
	t.Cleanup(cancel)
	return cancel
}

func TestDispatchConfirmed_UnknownServiceSendsReject(t *testing.T) {
	link := newFakeLink()
	r := NewRouter(link)
	runRouter(t, r)

	link.deliver(peerAddr(1), EncodeConfirmedRequest(5, bacnet.ServiceReadProperty, nil, 0, 0))

	require.Eventually(t, func() bool {
		sf, ok := link.lastSent()
		if !ok {
			return false
		}
		pdu, err := Decode(stripNPDU(t, sf.npdu))
		return err == nil && pdu.Type == bacnet.PDUTypeReject
	}, time.Second, 5*time.Millisecond)
}

func TestDispatchConfirmed_HandlerSuccessSendsComplexAck(t *testing.T) {
	link := newFakeLink()
	r := NewRouter(link)
	r.HandleConfirmed(bacnet.ServiceReadProperty, func(ctx context.Context, from bacnet.Address, invokeID uint8, data []byte) (Response, error) {
		return Response{Data: []byte{0x01, 0x02}}, nil
	})
	runRouter(t, r)

	link.deliver(peerAddr(1), EncodeConfirmedRequest(7, bacnet.ServiceReadProperty, nil, 0, 0))

	require.Eventually(t, func() bool {
		sf, ok := link.lastSent()
		if !ok {
			return false
		}
		pdu, err := Decode(stripNPDU(t, sf.npdu))
		return err == nil && pdu.Type == bacnet.PDUTypeComplexAck && pdu.InvokeID == 7
	}, time.Second, 5*time.Millisecond)
}

func TestDispatchConfirmed_HandlerRejectErrorTranslated(t *testing.T) {
	link := newFakeLink()
	r := NewRouter(link)
	r.HandleConfirmed(bacnet.ServiceReadProperty, func(ctx context.Context, from bacnet.Address, invokeID uint8, data []byte) (Response, error) {
		return Response{}, &bacnet.RejectError{Reason: bacnet.RejectReasonInvalidTag}
	})
	runRouter(t, r)

	link.deliver(peerAddr(1), EncodeConfirmedRequest(9, bacnet.ServiceReadProperty, nil, 0, 0))

	require.Eventually(t, func() bool {
		sf, ok := link.lastSent()
		if !ok {
			return false
		}
		pdu, err := Decode(stripNPDU(t, sf.npdu))
		return err == nil && pdu.Type == bacnet.PDUTypeReject && pdu.InvokeID == 9
	}, time.Second, 5*time.Millisecond)
}

func TestDispatchUnconfirmed_InvokesHandler(t *testing.T) {
	link := newFakeLink()
	r := NewRouter(link)

	seen := make(chan []byte, 1)
	r.HandleUnconfirmed(bacnet.ServiceWhoIs, func(ctx context.Context, from bacnet.Address, data []byte) {
		seen <- data
	})
	runRouter(t, r)

	link.deliver(peerAddr(2), EncodeUnconfirmedRequest(bacnet.ServiceWhoIs, []byte{0xAA}))

	select {
	case data := <-seen:
		require.Equal(t, []byte{0xAA}, data)
	case <-time.After(time.Second):
		t.Fatal("unconfirmed handler was never invoked")
	}
}

func TestSendConfirmedRequest_CompletesOnMatchingAck(t *testing.T) {
	link := newFakeLink()
	r := NewRouter(link, WithTSMOptions(tsm.WithTimeout(50*time.Millisecond)))
	runRouter(t, r)

	dest := peerAddr(3)
	go func() {
		for {
			sf, ok := link.lastSent()
			if ok {
				pdu, err := Decode(stripNPDU(t, sf.npdu))
				if err == nil && pdu.Type == bacnet.PDUTypeConfirmedRequest {
					link.deliver(dest, EncodeSimpleAck(pdu.InvokeID, bacnet.ServiceWriteProperty))
					return
				}
			}
			time.Sleep(2 * time.Millisecond)
		}
	}()

	pdu, err := r.SendConfirmedRequest(context.Background(), dest, bacnet.ServiceWriteProperty, nil)
	require.NoError(t, err)
	require.Equal(t, bacnet.PDUTypeSimpleAck, pdu.Type)
}

func TestSendUnconfirmed_BroadcastsServiceChoice(t *testing.T) {
	link := newFakeLink()
	r := NewRouter(link)

	r.SendUnconfirmed(context.Background(), bacnet.Address{}, bacnet.ServiceIAm, []byte{0x01})

	sf, ok := link.lastSent()
	require.True(t, ok)
	pdu, err := Decode(stripNPDU(t, sf.npdu))
	require.NoError(t, err)
	require.Equal(t, bacnet.PDUTypeUnconfirmedRequest, pdu.Type)
	require.Equal(t, uint8(bacnet.ServiceIAm), pdu.Service)
}

func stripNPDU(t *testing.T, payload []byte) []byte {
	t.Helper()
	n, _, err := npdu.DecodeNPDU(payload)
	require.NoError(t, err)
	require.False(t, n.IsNetworkMsg)
	return n.Data
}
