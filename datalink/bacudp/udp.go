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

// Package bacudp implements the apdu.DataLink contract over BACnet/IP:
// a UDP socket framed with the BVLC header from bacnet/npdu.
package bacudp

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/bacstack/bacstack"
	"github.com/bacstack/bacstack/metrics"
	"github.com/bacstack/bacstack/npdu"
)

const maxDatagram = 1500

// DataLink implements apdu.DataLink over a UDP/IPv4 BACnet/IP socket. Its
// Send/Receive/LocalAddress/MaintenanceTimer shape is adapted from the
// teacher's internal/transport.UDPTransport, reframed with BVLC headers
// instead of being handed raw APDU bytes.
type DataLink struct {
	logger  *slog.Logger
	metrics *metrics.Metrics

	mu   sync.RWMutex
	conn *net.UDPConn
	port int

	readTimeout time.Duration
}

// Option configures a DataLink at construction time.
type Option func(*DataLink)

// WithLogger overrides the default slog.Logger.
func WithLogger(l *slog.Logger) Option { return func(d *DataLink) { d.logger = l } }

// WithMetrics attaches a Metrics collector for byte counters.
func WithMetrics(m *metrics.Metrics) Option { return func(d *DataLink) { d.metrics = m } }

// WithReadTimeout overrides the default 3s Receive deadline used when the
// caller's context carries no deadline of its own.
func WithReadTimeout(d time.Duration) Option {
	return func(dl *DataLink) { dl.readTimeout = d }
}

// Listen opens a UDP socket bound to ":port" (port 0xBAC0 is the BACnet/IP
// default) and returns a ready DataLink.
func Listen(port int, opts ...Option) (*DataLink, error) {
	d := &DataLink{port: port, logger: slog.Default(), readTimeout: 3 * time.Second}
	for _, opt := range opts {
		opt(d)
	}
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{Port: port})
	if err != nil {
		return nil, fmt.Errorf("bacudp: listen: %w", err)
	}
	d.conn = conn
	return d, nil
}

// Close releases the underlying socket.
func (d *DataLink) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.conn == nil {
		return nil
	}
	err := d.conn.Close()
	d.conn = nil
	return err
}

// LocalAddress implements apdu.DataLink.
func (d *DataLink) LocalAddress() bacnet.Address {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.conn == nil {
		return bacnet.Address{}
	}
	addr := d.conn.LocalAddr().(*net.UDPAddr)
	return bacnet.Address{Mac: udpAddrToMac(addr)}
}

// Send implements apdu.DataLink, wrapping npduPayload in a BVLC unicast or
// broadcast header depending on dest.
func (d *DataLink) Send(ctx context.Context, dest bacnet.Address, npduPayload []byte) error {
	d.mu.RLock()
	conn := d.conn
	d.mu.RUnlock()
	if conn == nil {
		return fmt.Errorf("bacudp: not open")
	}

	broadcast := len(dest.Mac) == 0
	function := npdu.BVLCOriginalUnicastNPDU
	if broadcast {
		function = npdu.BVLCOriginalBroadcastNPDU
	}
	header := npdu.EncodeBVLC(function, len(npduPayload))
	frame := append(header, npduPayload...)

	addr := macToUDPAddr(dest.Mac, d.port)
	if broadcast {
		addr = &net.UDPAddr{IP: net.IPv4bcast, Port: d.port}
	}

	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetWriteDeadline(deadline); err != nil {
			return fmt.Errorf("bacudp: set write deadline: %w", err)
		}
	}
	n, err := conn.WriteToUDP(frame, addr)
	if err != nil {
		return fmt.Errorf("bacudp: write: %w", err)
	}
	d.metrics.AddDatalinkBytes("tx", n)
	return nil
}

// Receive implements apdu.DataLink: it blocks for one datagram, strips
// the BVLC header and returns the NPDU payload.
func (d *DataLink) Receive(ctx context.Context) ([]byte, bacnet.Address, error) {
	d.mu.RLock()
	conn := d.conn
	timeout := d.readTimeout
	d.mu.RUnlock()
	if conn == nil {
		return nil, bacnet.Address{}, fmt.Errorf("bacudp: not open")
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(timeout)
	}
	if err := conn.SetReadDeadline(deadline); err != nil {
		return nil, bacnet.Address{}, fmt.Errorf("bacudp: set read deadline: %w", err)
	}

	buf := make([]byte, maxDatagram)
	n, addr, err := conn.ReadFromUDP(buf)
	if err != nil {
		return nil, bacnet.Address{}, err
	}
	d.metrics.AddDatalinkBytes("rx", n)

	hdr, err := npdu.DecodeBVLC(buf[:n])
	if err != nil {
		return nil, bacnet.Address{}, err
	}
	if int(hdr.Length) != n {
		d.logger.Debug("bacudp: bvlc length mismatch", slog.Int("declared", int(hdr.Length)), slog.Int("actual", n))
	}
	return buf[4:n], bacnet.Address{Mac: udpAddrToMac(addr)}, nil
}

// MaintenanceTimer implements apdu.DataLink. BACnet/IP without a BBMD has
// no periodic housekeeping of its own.
func (d *DataLink) MaintenanceTimer(elapsed time.Duration) {}

func udpAddrToMac(addr *net.UDPAddr) []byte {
	ip4 := addr.IP.To4()
	if ip4 == nil {
		return nil
	}
	mac := make([]byte, 6)
	copy(mac, ip4)
	mac[4] = byte(addr.Port >> 8)
	mac[5] = byte(addr.Port)
	return mac
}

func macToUDPAddr(mac []byte, fallbackPort int) *net.UDPAddr {
	if len(mac) != 6 {
		return &net.UDPAddr{IP: net.IPv4bcast, Port: fallbackPort}
	}
	return &net.UDPAddr{
		IP:   net.IPv4(mac[0], mac[1], mac[2], mac[3]),
		Port: int(mac[4])<<8 | int(mac[5]),
	}
}
