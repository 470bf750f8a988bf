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

// Package mstp is a minimal MS/TP-over-RS485 apdu.DataLink: it frames
// NPDUs in the MS/TP header (preamble, frame type, addresses, length,
// CRC) over a real serial port via go.bug.st/serial. Token passing and
// the full MS/TP medium-access state machine are out of scope; this
// stub is the concrete instance the spec calls out as "data-link
// drivers...treated as external collaborators" for a non-IP medium.
package mstp

import (
	"context"
	"fmt"
	"hash/crc32"
	"log/slog"
	"sync"
	"time"

	"go.bug.st/serial"

	"github.com/bacstack/bacstack"
)

const (
	preamble1 = 0x55
	preamble2 = 0xFF

	frameTypeBACnetDataExpectingReply    = 0x05
	frameTypeBACnetDataNotExpectingReply = 0x06

	headerLen = 8 // preamble(2) + frame type(1) + dest(1) + src(1) + length(2) + header-crc(1)
)

// Config describes the serial port this datalink opens.
type Config struct {
	Port       string
	BaudRate   int
	MacAddress uint8
}

// DataLink implements apdu.DataLink over a serial.Port.
type DataLink struct {
	cfg    Config
	port   serial.Port
	logger *slog.Logger

	mu  sync.Mutex
	buf []byte
}

// Option configures a DataLink at construction time.
type Option func(*DataLink)

// WithLogger overrides the default slog.Logger.
func WithLogger(l *slog.Logger) Option { return func(d *DataLink) { d.logger = l } }

// Open opens the serial port named in cfg and returns a ready DataLink.
func Open(cfg Config, opts ...Option) (*DataLink, error) {
	mode := &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: 8,
		StopBits: serial.OneStopBit,
		Parity:   serial.NoParity,
	}
	port, err := serial.Open(cfg.Port, mode)
	if err != nil {
		return nil, fmt.Errorf("mstp: open %s: %w", cfg.Port, err)
	}
	d := &DataLink{cfg: cfg, port: port, logger: slog.Default()}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Close releases the underlying serial port.
func (d *DataLink) Close() error {
	if d.port == nil {
		return nil
	}
	return d.port.Close()
}

// LocalAddress implements apdu.DataLink; MS/TP addresses are a single
// byte, carried in Address.Mac.
func (d *DataLink) LocalAddress() bacnet.Address {
	return bacnet.Address{Mac: []byte{d.cfg.MacAddress}}
}

// Send implements apdu.DataLink, framing npduPayload as an MS/TP
// BACnet-Data frame addressed to dest (or 0xFF for broadcast).
func (d *DataLink) Send(ctx context.Context, dest bacnet.Address, npduPayload []byte) error {
	destMac := uint8(0xFF)
	if len(dest.Mac) == 1 {
		destMac = dest.Mac[0]
	}
	frame := encodeFrame(frameTypeBACnetDataExpectingReply, destMac, d.cfg.MacAddress, npduPayload)
	d.mu.Lock()
	defer d.mu.Unlock()
	_, err := d.port.Write(frame)
	if err != nil {
		return fmt.Errorf("mstp: write: %w", err)
	}
	return nil
}

// Receive implements apdu.DataLink by reading and re-synchronizing on
// the 0x55 0xFF preamble, then validating the header and data CRCs.
func (d *DataLink) Receive(ctx context.Context) ([]byte, bacnet.Address, error) {
	for {
		hdr := make([]byte, 8)
		if _, err := readFull(d.port, hdr); err != nil {
			return nil, bacnet.Address{}, err
		}
		if hdr[0] != preamble1 || hdr[1] != preamble2 {
			continue
		}
		if hdr[7] != headerCRC(hdr[2:7]) {
			continue
		}
		frameType := hdr[2]
		destMac := hdr[3]
		srcMac := hdr[4]
		length := int(hdr[5])<<8 | int(hdr[6])
		if frameType != frameTypeBACnetDataExpectingReply && frameType != frameTypeBACnetDataNotExpectingReply {
			continue
		}
		if length == 0 {
			return nil, bacnet.Address{Mac: []byte{srcMac}}, nil
		}
		payload := make([]byte, length+2)
		if _, err := readFull(d.port, payload); err != nil {
			return nil, bacnet.Address{}, err
		}
		data := payload[:length]
		if crc := dataCRC(data); payload[length] != byte(crc) || payload[length+1] != byte(crc>>8) {
			continue
		}
		_ = destMac
		return data, bacnet.Address{Mac: []byte{srcMac}}, nil
	}
}

// MaintenanceTimer implements apdu.DataLink. A real token-passing station
// would drive its silence/usage timers here; this stub has none.
func (d *DataLink) MaintenanceTimer(elapsed time.Duration) {}

func encodeFrame(frameType, dest, src uint8, data []byte) []byte {
	hdr := []byte{preamble1, preamble2, frameType, dest, src, byte(len(data) >> 8), byte(len(data))}
	hdr = append(hdr, headerCRC(hdr[2:7]))
	if len(data) == 0 {
		return hdr
	}
	crc := dataCRC(data)
	out := make([]byte, 0, len(hdr)+len(data)+2)
	out = append(out, hdr...)
	out = append(out, data...)
	out = append(out, byte(crc), byte(crc>>8))
	return out
}

func headerCRC(b []byte) byte {
	crc := byte(0xFF)
	for _, v := range b {
		crc ^= v
	}
	return ^crc
}

func dataCRC(data []byte) uint16 {
	return uint16(crc32.ChecksumIEEE(data))
}

func readFull(r serial.Port, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := r.Read(buf[total:])
		if err != nil {
			return total, err
		}
		if n == 0 {
			return total, fmt.Errorf("mstp: read returned 0 bytes")
		}
		total += n
	}
	return total, nil
}
