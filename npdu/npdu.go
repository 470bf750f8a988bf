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

// Package npdu implements BVLC (BACnet Virtual Link Control) framing for
// BACnet/IP and NPDU (Network Protocol Data Unit) framing, the two layers
// between a raw UDP datagram and an APDU.
package npdu

import (
	"encoding/binary"

	"github.com/bacstack/bacstack"
)

// BVLCType is the constant first byte of every BACnet/IP BVLL message.
type BVLCType uint8

const BVLCTypeBACnetIP BVLCType = 0x81

// BVLCFunction enumerates the BVLC message functions this stack speaks.
type BVLCFunction uint8

const (
	BVLCResult                            BVLCFunction = 0x00
	BVLCWriteBroadcastDistributionTable   BVLCFunction = 0x01
	BVLCReadBroadcastDistributionTable    BVLCFunction = 0x02
	BVLCReadBroadcastDistributionTableAck BVLCFunction = 0x03
	BVLCForwardedNPDU                     BVLCFunction = 0x04
	BVLCRegisterForeignDevice             BVLCFunction = 0x05
	BVLCReadForeignDeviceTable            BVLCFunction = 0x06
	BVLCReadForeignDeviceTableAck         BVLCFunction = 0x07
	BVLCDeleteForeignDeviceTableEntry     BVLCFunction = 0x08
	BVLCDistributeBroadcastToNetwork      BVLCFunction = 0x09
	BVLCOriginalUnicastNPDU               BVLCFunction = 0x0A
	BVLCOriginalBroadcastNPDU             BVLCFunction = 0x0B
)

// BVLCHeader is the 4-byte BVLC header preceding every BACnet/IP NPDU.
type BVLCHeader struct {
	Type     BVLCType
	Function BVLCFunction
	Length   uint16
}

// EncodeBVLC writes a 4-byte BVLC header for an NPDU payload of
// npduLength bytes that follows immediately.
func EncodeBVLC(function BVLCFunction, npduLength int) []byte {
	buf := make([]byte, 4)
	buf[0] = byte(BVLCTypeBACnetIP)
	buf[1] = byte(function)
	binary.BigEndian.PutUint16(buf[2:], uint16(4+npduLength))
	return buf
}

// DecodeBVLC reads the 4-byte BVLC header.
func DecodeBVLC(data []byte) (BVLCHeader, error) {
	if len(data) < 4 {
		return BVLCHeader{}, bacnet.ErrInvalidBVLC
	}
	if BVLCType(data[0]) != BVLCTypeBACnetIP {
		return BVLCHeader{}, bacnet.ErrInvalidBVLC
	}
	return BVLCHeader{
		Type:     BVLCType(data[0]),
		Function: BVLCFunction(data[1]),
		Length:   binary.BigEndian.Uint16(data[2:4]),
	}, nil
}

// NPDUControl is the NPCI control-byte bitmask.
type NPDUControl uint8

const (
	NPDUControlNetworkLayerMessage NPDUControl = 0x80
	NPDUControlDestSpecifier       NPDUControl = 0x20
	NPDUControlSourceSpecifier     NPDUControl = 0x08
	NPDUControlExpectingReply      NPDUControl = 0x04
	NPDUControlPriorityNormal      NPDUControl = 0x00
	NPDUControlPriorityUrgent      NPDUControl = 0x01
	NPDUControlPriorityCritical    NPDUControl = 0x02
	NPDUControlPriorityLifeSafety  NPDUControl = 0x03
)

// NetworkMessageType enumerates the network-layer message types carried
// when NPDUControlNetworkLayerMessage is set. This stack does not route;
// it recognizes these only to skip network-layer traffic cleanly.
type NetworkMessageType uint8

const (
	NetworkMessageWhoIsRouterToNetwork NetworkMessageType = 0x00
	NetworkMessageIAmRouterToNetwork   NetworkMessageType = 0x01
)

// NPDU is a decoded Network Protocol Data Unit.
type NPDU struct {
	Version        uint8
	Control        NPDUControl
	DestNet        uint16
	DestAddr       []byte
	DestHopCount   uint8
	SrcNet         uint16
	SrcAddr        []byte
	IsNetworkMsg   bool
	MessageType    NetworkMessageType
	VendorID       uint16
	Data           []byte
}

// EncodeNPDU writes a minimal unicast NPDU header with no routing
// specifiers: version + control byte only.
func EncodeNPDU(expectingReply bool, priority NPDUControl) []byte {
	control := priority
	if expectingReply {
		control |= NPDUControlExpectingReply
	}
	return []byte{0x01, byte(control)}
}

// EncodeNPDUWithDest writes an NPDU header carrying a destination network
// specifier, for traffic addressed through a router.
func EncodeNPDUWithDest(destNet uint16, destAddr []byte, hopCount uint8, expectingReply bool, priority NPDUControl) []byte {
	control := priority | NPDUControlDestSpecifier
	if expectingReply {
		control |= NPDUControlExpectingReply
	}
	buf := make([]byte, 0, 6+len(destAddr))
	buf = append(buf, 0x01, byte(control))
	buf = append(buf, byte(destNet>>8), byte(destNet))
	buf = append(buf, byte(len(destAddr)))
	buf = append(buf, destAddr...)
	buf = append(buf, hopCount)
	return buf
}

// DecodeNPDU parses the NPCI and returns the number of bytes consumed;
// the remaining bytes (also left in NPDU.Data) are the APDU or
// network-layer message payload.
func DecodeNPDU(data []byte) (NPDU, int, error) {
	if len(data) < 2 {
		return NPDU{}, 0, bacnet.ErrInvalidNPDU
	}
	n := NPDU{Version: data[0], Control: NPDUControl(data[1])}
	if n.Version != 0x01 {
		return NPDU{}, 0, bacnet.ErrInvalidNPDU
	}
	offset := 2

	if n.Control&NPDUControlDestSpecifier != 0 {
		if len(data) < offset+3 {
			return NPDU{}, 0, bacnet.ErrInvalidNPDU
		}
		n.DestNet = binary.BigEndian.Uint16(data[offset:])
		offset += 2
		addrLen := int(data[offset])
		offset++
		if len(data) < offset+addrLen+1 {
			return NPDU{}, 0, bacnet.ErrInvalidNPDU
		}
		n.DestAddr = append([]byte(nil), data[offset:offset+addrLen]...)
		offset += addrLen
		n.DestHopCount = data[offset]
		offset++
	}

	if n.Control&NPDUControlSourceSpecifier != 0 {
		if len(data) < offset+3 {
			return NPDU{}, 0, bacnet.ErrInvalidNPDU
		}
		n.SrcNet = binary.BigEndian.Uint16(data[offset:])
		offset += 2
		addrLen := int(data[offset])
		offset++
		if len(data) < offset+addrLen {
			return NPDU{}, 0, bacnet.ErrInvalidNPDU
		}
		n.SrcAddr = append([]byte(nil), data[offset:offset+addrLen]...)
		offset += addrLen
	}

	if n.Control&NPDUControlNetworkLayerMessage != 0 {
		n.IsNetworkMsg = true
		if len(data) < offset+1 {
			return NPDU{}, 0, bacnet.ErrInvalidNPDU
		}
		n.MessageType = NetworkMessageType(data[offset])
		offset++
		if n.MessageType >= 0x80 {
			if len(data) < offset+2 {
				return NPDU{}, 0, bacnet.ErrInvalidNPDU
			}
			n.VendorID = binary.BigEndian.Uint16(data[offset:])
			offset += 2
		}
	}

	n.Data = data[offset:]
	return n, offset, nil
}
