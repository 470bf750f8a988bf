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

// Package apdu implements the Application Protocol Data Unit header
// framing (the six PDU types), the DataLink contract external transports
// satisfy, and the Router that ties the TSM and service layers together
// into one cooperative run-loop.
package apdu

import (
	"fmt"

	"github.com/bacstack/bacstack"
)

// PDU is a decoded application-layer protocol data unit.
type PDU struct {
	Type         bacnet.PDUType
	Segmented    bool
	MoreFollows  bool
	MaxSegments  uint8
	MaxAPDU      uint8
	InvokeID     uint8
	SequenceNum  uint8
	WindowSize   uint8
	Service      uint8
	ServerAbort  bool
	Data         []byte
}

// EncodeConfirmedRequest writes an unsegmented confirmed-request APDU.
func EncodeConfirmedRequest(invokeID uint8, service bacnet.ConfirmedServiceChoice, data []byte, maxSegments, maxAPDU uint8) []byte {
	buf := make([]byte, 0, 4+len(data))
	buf = append(buf, byte(bacnet.PDUTypeConfirmedRequest))
	buf = append(buf, (maxSegments<<4)|maxAPDU)
	buf = append(buf, invokeID)
	buf = append(buf, byte(service))
	return append(buf, data...)
}

// EncodeUnconfirmedRequest writes an unconfirmed-request APDU.
func EncodeUnconfirmedRequest(service bacnet.UnconfirmedServiceChoice, data []byte) []byte {
	buf := make([]byte, 0, 2+len(data))
	buf = append(buf, byte(bacnet.PDUTypeUnconfirmedRequest), byte(service))
	return append(buf, data...)
}

// EncodeSimpleAck writes a Simple-ACK APDU.
func EncodeSimpleAck(invokeID uint8, service bacnet.ConfirmedServiceChoice) []byte {
	return []byte{byte(bacnet.PDUTypeSimpleAck), invokeID, byte(service)}
}

// EncodeComplexAck writes an unsegmented Complex-ACK APDU.
func EncodeComplexAck(invokeID uint8, service bacnet.ConfirmedServiceChoice, data []byte) []byte {
	buf := make([]byte, 0, 3+len(data))
	buf = append(buf, byte(bacnet.PDUTypeComplexAck), invokeID, byte(service))
	return append(buf, data...)
}

// EncodeError writes an Error APDU.
func EncodeError(invokeID uint8, service bacnet.ConfirmedServiceChoice, class bacnet.ErrorClass, code bacnet.ErrorCode) []byte {
	return []byte{byte(bacnet.PDUTypeError), invokeID, byte(service), byte(class), byte(code)}
}

// EncodeReject writes a Reject APDU.
func EncodeReject(invokeID uint8, reason bacnet.RejectReason) []byte {
	return []byte{byte(bacnet.PDUTypeReject), invokeID, byte(reason)}
}

// EncodeAbort writes an Abort APDU. server is true when the abort
// originates from the server side of the transaction.
func EncodeAbort(invokeID uint8, server bool, reason bacnet.AbortReason) []byte {
	t := byte(bacnet.PDUTypeAbort)
	if server {
		t |= 0x01
	}
	return []byte{t, invokeID, byte(reason)}
}

// Decode parses the PDU-type nibble and dispatches to the matching
// per-type decoder.
func Decode(data []byte) (PDU, error) {
	if len(data) < 1 {
		return PDU{}, bacnet.ErrInvalidAPDU
	}
	switch bacnet.PDUType(data[0] & 0xF0) {
	case bacnet.PDUTypeConfirmedRequest:
		return decodeConfirmedRequest(data)
	case bacnet.PDUTypeUnconfirmedRequest:
		return decodeUnconfirmedRequest(data)
	case bacnet.PDUTypeSimpleAck:
		return decodeSimpleAck(data)
	case bacnet.PDUTypeComplexAck:
		return decodeComplexAck(data)
	case bacnet.PDUTypeError:
		return decodeErrorPDU(data)
	case bacnet.PDUTypeReject:
		return decodeRejectPDU(data)
	case bacnet.PDUTypeAbort:
		return decodeAbortPDU(data)
	default:
		return PDU{}, fmt.Errorf("%w: unknown pdu type %02x", bacnet.ErrInvalidAPDU, data[0]&0xF0)
	}
}

func decodeConfirmedRequest(data []byte) (PDU, error) {
	if len(data) < 4 {
		return PDU{}, bacnet.ErrInvalidAPDU
	}
	p := PDU{
		Type:        bacnet.PDUTypeConfirmedRequest,
		Segmented:   data[0]&0x08 != 0,
		MoreFollows: data[0]&0x04 != 0,
		MaxSegments: (data[1] >> 4) & 0x07,
		MaxAPDU:     data[1] & 0x0F,
		InvokeID:    data[2],
		Service:     data[3],
		Data:        data[4:],
	}
	if p.Segmented {
		if len(data) < 6 {
			return PDU{}, bacnet.ErrInvalidAPDU
		}
		p.SequenceNum = data[4]
		p.WindowSize = data[5]
		p.Data = data[6:]
	}
	return p, nil
}

func decodeUnconfirmedRequest(data []byte) (PDU, error) {
	if len(data) < 2 {
		return PDU{}, bacnet.ErrInvalidAPDU
	}
	return PDU{Type: bacnet.PDUTypeUnconfirmedRequest, Service: data[1], Data: data[2:]}, nil
}

func decodeSimpleAck(data []byte) (PDU, error) {
	if len(data) < 3 {
		return PDU{}, bacnet.ErrInvalidAPDU
	}
	return PDU{Type: bacnet.PDUTypeSimpleAck, InvokeID: data[1], Service: data[2]}, nil
}

func decodeComplexAck(data []byte) (PDU, error) {
	if len(data) < 3 {
		return PDU{}, bacnet.ErrInvalidAPDU
	}
	p := PDU{
		Type:        bacnet.PDUTypeComplexAck,
		Segmented:   data[0]&0x08 != 0,
		MoreFollows: data[0]&0x04 != 0,
		InvokeID:    data[1],
		Service:     data[2],
		Data:        data[3:],
	}
	if p.Segmented {
		if len(data) < 5 {
			return PDU{}, bacnet.ErrInvalidAPDU
		}
		p.SequenceNum = data[3]
		p.WindowSize = data[4]
		p.Data = data[5:]
	}
	return p, nil
}

func decodeErrorPDU(data []byte) (PDU, error) {
	if len(data) < 5 {
		return PDU{}, bacnet.ErrInvalidAPDU
	}
	return PDU{Type: bacnet.PDUTypeError, InvokeID: data[1], Service: data[2], Data: data[3:]}, nil
}

func decodeRejectPDU(data []byte) (PDU, error) {
	if len(data) < 3 {
		return PDU{}, bacnet.ErrInvalidAPDU
	}
	return PDU{Type: bacnet.PDUTypeReject, InvokeID: data[1], Service: data[2]}, nil
}

func decodeAbortPDU(data []byte) (PDU, error) {
	if len(data) < 3 {
		return PDU{}, bacnet.ErrInvalidAPDU
	}
	return PDU{Type: bacnet.PDUTypeAbort, InvokeID: data[1], Service: data[2], ServerAbort: data[0]&0x01 != 0}, nil
}
