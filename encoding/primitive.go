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

package encoding

import (
	"encoding/binary"
	"math"

	"github.com/bacstack/bacstack"
)

// unsignedLength returns the minimum number of bytes needed to represent
// value without leading zero bytes (at least 1).
func unsignedLength(value uint64) int {
	n := 1
	for value>>(8*n) != 0 {
		n++
	}
	return n
}

// EncodeUnsigned writes the minimum-length big-endian encoding of value.
// Dual-mode: buf == nil returns the length.
func EncodeUnsigned(buf []byte, value uint64) int {
	n := unsignedLength(value)
	if buf != nil {
		for i := 0; i < n; i++ {
			buf[n-1-i] = byte(value >> (8 * i))
		}
	}
	return n
}

// EncodeUnsignedTag writes an application-tagged unsigned integer.
func EncodeUnsignedTag(buf []byte, value uint64) int {
	n := unsignedLength(value)
	h := EncodeTagHeader(buf, uint8(TagUnsignedInt), TagClassApplication, n)
	if buf != nil {
		EncodeUnsigned(buf[h:], value)
	}
	return h + n
}

// EncodeContextUnsigned writes a context-tagged unsigned integer.
func EncodeContextUnsigned(buf []byte, tagNum uint8, value uint64) int {
	n := unsignedLength(value)
	h := EncodeTagHeader(buf, tagNum, TagClassContext, n)
	if buf != nil {
		EncodeUnsigned(buf[h:], value)
	}
	return h + n
}

// DecodeUnsigned reads a big-endian unsigned integer from the first
// length bytes of buf. The decoder safety contract requires the caller
// to have already validated length <= len(buf) and length <= 8.
func DecodeUnsigned(buf []byte, length int) (uint64, error) {
	if length < 1 || length > 8 || len(buf) < length {
		return 0, bacnet.ErrInvalidAPDU
	}
	var v uint64
	for i := 0; i < length; i++ {
		v = (v << 8) | uint64(buf[i])
	}
	return v, nil
}

func signedLength(value int64) int {
	n := 1
	for {
		lo := int64(-1) << (8*n - 1)
		hi := -lo - 1
		if value >= lo && value <= hi {
			return n
		}
		n++
		if n > 8 {
			return 8
		}
	}
}

// EncodeSigned writes the minimum-length, sign-extended two's-complement
// big-endian encoding of value.
func EncodeSigned(buf []byte, value int64) int {
	n := signedLength(value)
	if buf != nil {
		uv := uint64(value)
		for i := 0; i < n; i++ {
			buf[n-1-i] = byte(uv >> (8 * i))
		}
	}
	return n
}

// EncodeSignedTag writes an application-tagged signed integer.
func EncodeSignedTag(buf []byte, value int64) int {
	n := signedLength(value)
	h := EncodeTagHeader(buf, uint8(TagSignedInt), TagClassApplication, n)
	if buf != nil {
		EncodeSigned(buf[h:], value)
	}
	return h + n
}

// DecodeSigned reads a sign-extended two's-complement integer.
func DecodeSigned(buf []byte, length int) (int64, error) {
	if length < 1 || length > 8 || len(buf) < length {
		return 0, bacnet.ErrInvalidAPDU
	}
	v := int64(int8(buf[0]))
	for i := 1; i < length; i++ {
		v = (v << 8) | int64(buf[i])
	}
	return v, nil
}

// EncodeReal writes a 4-byte IEEE-754 single-precision value.
func EncodeReal(buf []byte, value float32) int {
	if buf != nil {
		binary.BigEndian.PutUint32(buf, math.Float32bits(value))
	}
	return 4
}

// EncodeRealTag writes an application-tagged REAL.
func EncodeRealTag(buf []byte, value float32) int {
	h := EncodeTagHeader(buf, uint8(TagReal), TagClassApplication, 4)
	if buf != nil {
		EncodeReal(buf[h:], value)
	}
	return h + 4
}

// DecodeReal reads a 4-byte IEEE-754 single-precision value.
func DecodeReal(buf []byte) (float32, error) {
	if len(buf) < 4 {
		return 0, bacnet.ErrInvalidAPDU
	}
	return math.Float32frombits(binary.BigEndian.Uint32(buf)), nil
}

// EncodeDouble writes an 8-byte IEEE-754 double-precision value.
func EncodeDouble(buf []byte, value float64) int {
	if buf != nil {
		binary.BigEndian.PutUint64(buf, math.Float64bits(value))
	}
	return 8
}

// DecodeDouble reads an 8-byte IEEE-754 double-precision value.
func DecodeDouble(buf []byte) (float64, error) {
	if len(buf) < 8 {
		return 0, bacnet.ErrInvalidAPDU
	}
	return math.Float64frombits(binary.BigEndian.Uint64(buf)), nil
}

// EncodeBooleanTag writes an application-tagged boolean, which carries its
// value in the tag's length nibble (0 = false, 1 = true) with no payload.
func EncodeBooleanTag(buf []byte, value bool) int {
	length := 0
	if value {
		length = 1
	}
	return EncodeTagHeader(buf, uint8(TagBoolean), TagClassApplication, length)
}

// EncodeContextBoolean writes a context-tagged boolean as a one-byte
// payload (context tags cannot fold the value into the length nibble).
func EncodeContextBoolean(buf []byte, tagNum uint8, value bool) int {
	h := EncodeTagHeader(buf, tagNum, TagClassContext, 1)
	if buf != nil {
		if value {
			buf[h] = 1
		} else {
			buf[h] = 0
		}
	}
	return h + 1
}

// EncodeEnumerated writes an enumerated value using the unsigned encoding.
func EncodeEnumerated(buf []byte, value uint32) int {
	return EncodeUnsigned(buf, uint64(value))
}

// EncodeEnumeratedTag writes an application-tagged enumerated value.
func EncodeEnumeratedTag(buf []byte, value uint32) int {
	n := unsignedLength(uint64(value))
	h := EncodeTagHeader(buf, uint8(TagEnumerated), TagClassApplication, n)
	if buf != nil {
		EncodeUnsigned(buf[h:], uint64(value))
	}
	return h + n
}

// EncodeContextEnumerated writes a context-tagged enumerated value.
func EncodeContextEnumerated(buf []byte, tagNum uint8, value uint32) int {
	return EncodeContextUnsigned(buf, tagNum, uint64(value))
}

// DecodeEnumerated reads an enumerated value using the unsigned decoding.
func DecodeEnumerated(buf []byte, length int) (uint32, error) {
	v, err := DecodeUnsigned(buf, length)
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}

// EncodeObjectIdentifier writes the 4-byte packed (type<<22)|instance form.
func EncodeObjectIdentifier(buf []byte, oid bacnet.ObjectIdentifier) int {
	if buf != nil {
		binary.BigEndian.PutUint32(buf, oid.Pack())
	}
	return 4
}

// EncodeObjectIdentifierTag writes an application-tagged object identifier.
func EncodeObjectIdentifierTag(buf []byte, oid bacnet.ObjectIdentifier) int {
	h := EncodeTagHeader(buf, uint8(TagObjectID), TagClassApplication, 4)
	if buf != nil {
		EncodeObjectIdentifier(buf[h:], oid)
	}
	return h + 4
}

// EncodeContextObjectIdentifier writes a context-tagged object identifier.
func EncodeContextObjectIdentifier(buf []byte, tagNum uint8, oid bacnet.ObjectIdentifier) int {
	h := EncodeTagHeader(buf, tagNum, TagClassContext, 4)
	if buf != nil {
		EncodeObjectIdentifier(buf[h:], oid)
	}
	return h + 4
}

// DecodeObjectIdentifier reads a 4-byte packed object identifier.
func DecodeObjectIdentifier(buf []byte) (bacnet.ObjectIdentifier, error) {
	if len(buf) < 4 {
		return bacnet.ObjectIdentifier{}, bacnet.ErrInvalidAPDU
	}
	return bacnet.UnpackObjectIdentifier(binary.BigEndian.Uint32(buf)), nil
}

// EncodeCharacterString writes the encoding byte (0 = UTF-8) followed by
// the raw string bytes.
func EncodeCharacterString(buf []byte, s string) int {
	if buf != nil {
		buf[0] = 0
		copy(buf[1:], s)
	}
	return 1 + len(s)
}

// EncodeCharacterStringTag writes an application-tagged character string.
func EncodeCharacterStringTag(buf []byte, s string) int {
	n := 1 + len(s)
	h := EncodeTagHeader(buf, uint8(TagCharacterString), TagClassApplication, n)
	if buf != nil {
		EncodeCharacterString(buf[h:], s)
	}
	return h + n
}

// EncodeContextCharacterString writes a context-tagged character string.
func EncodeContextCharacterString(buf []byte, tagNum uint8, s string) int {
	n := 1 + len(s)
	h := EncodeTagHeader(buf, tagNum, TagClassContext, n)
	if buf != nil {
		EncodeCharacterString(buf[h:], s)
	}
	return h + n
}

// DecodeCharacterString reads a character string payload of the given
// length, skipping the leading character-set byte. A claimed length of
// zero (no encoding byte present) decodes to the empty string rather
// than erroring.
func DecodeCharacterString(buf []byte, length int) (string, error) {
	if length == 0 {
		return "", nil
	}
	if length < 1 || len(buf) < length {
		return "", bacnet.ErrInvalidAPDU
	}
	return string(buf[1:length]), nil
}

// BACnetDate is the 4-byte date primitive; any field may carry its
// wildcard sentinel (0xFF, except Month which also uses 13/14 for
// odd/even and Day which uses 32/33 for odd/even).
type BACnetDate struct {
	Year    uint16 // calendar year; wire form stores Year-1900
	Month   uint8
	Day     uint8
	Weekday uint8
}

// EncodeDate writes the 4-byte date primitive.
func EncodeDate(buf []byte, d BACnetDate) int {
	if buf != nil {
		if d.Year == 0 {
			buf[0] = 0xFF
		} else {
			buf[0] = byte(int(d.Year) - 1900)
		}
		buf[1] = d.Month
		buf[2] = d.Day
		buf[3] = d.Weekday
	}
	return 4
}

// EncodeDateTag writes an application-tagged date.
func EncodeDateTag(buf []byte, d BACnetDate) int {
	h := EncodeTagHeader(buf, uint8(TagDate), TagClassApplication, 4)
	if buf != nil {
		EncodeDate(buf[h:], d)
	}
	return h + 4
}

// DecodeDate reads the 4-byte date primitive.
func DecodeDate(buf []byte) (BACnetDate, error) {
	if len(buf) < 4 {
		return BACnetDate{}, bacnet.ErrInvalidAPDU
	}
	d := BACnetDate{Month: buf[1], Day: buf[2], Weekday: buf[3]}
	if buf[0] != 0xFF {
		d.Year = uint16(buf[0]) + 1900
	}
	return d, nil
}

// BACnetTime is the 4-byte time primitive; any field may be 0xFF (wildcard).
type BACnetTime struct {
	Hour       uint8
	Minute     uint8
	Second     uint8
	Hundredths uint8
}

// EncodeTime writes the 4-byte time primitive.
func EncodeTime(buf []byte, t BACnetTime) int {
	if buf != nil {
		buf[0] = t.Hour
		buf[1] = t.Minute
		buf[2] = t.Second
		buf[3] = t.Hundredths
	}
	return 4
}

// EncodeTimeTag writes an application-tagged time.
func EncodeTimeTag(buf []byte, t BACnetTime) int {
	h := EncodeTagHeader(buf, uint8(TagTime), TagClassApplication, 4)
	if buf != nil {
		EncodeTime(buf[h:], t)
	}
	return h + 4
}

// DecodeTime reads the 4-byte time primitive.
func DecodeTime(buf []byte) (BACnetTime, error) {
	if len(buf) < 4 {
		return BACnetTime{}, bacnet.ErrInvalidAPDU
	}
	return BACnetTime{Hour: buf[0], Minute: buf[1], Second: buf[2], Hundredths: buf[3]}, nil
}

// BitString is the unused-bits-prefixed bit string primitive.
type BitString struct {
	UnusedBits uint8
	Bytes      []byte
}

// EncodeBitString writes the unused-bits byte followed by the bit bytes.
func EncodeBitString(buf []byte, bs BitString) int {
	if buf != nil {
		buf[0] = bs.UnusedBits
		copy(buf[1:], bs.Bytes)
	}
	return 1 + len(bs.Bytes)
}

// EncodeBitStringTag writes an application-tagged bit string.
func EncodeBitStringTag(buf []byte, bs BitString) int {
	n := 1 + len(bs.Bytes)
	h := EncodeTagHeader(buf, uint8(TagBitString), TagClassApplication, n)
	if buf != nil {
		EncodeBitString(buf[h:], bs)
	}
	return h + n
}

// DecodeBitString reads a bit string payload of the given length. The
// unused-bits count is only meaningful in 0..7; a wire value of 8 (or
// higher) is rejected rather than silently masked.
func DecodeBitString(buf []byte, length int) (BitString, error) {
	if length < 1 || len(buf) < length {
		return BitString{}, bacnet.ErrInvalidAPDU
	}
	if buf[0] > 7 {
		return BitString{}, bacnet.ErrInvalidAPDU
	}
	bytes := make([]byte, length-1)
	copy(bytes, buf[1:length])
	return BitString{UnusedBits: buf[0], Bytes: bytes}, nil
}

// Bit reports the value of the given zero-based bit index, MSB-first
// within each byte.
func (b BitString) Bit(index int) bool {
	byteIdx := index / 8
	if byteIdx >= len(b.Bytes) {
		return false
	}
	bitIdx := 7 - (index % 8)
	return b.Bytes[byteIdx]&(1<<uint(bitIdx)) != 0
}

// EncodeStatusFlags packs a StatusFlags into the 4-bit bit string BACnet
// uses on the wire for the status-flags property.
func EncodeStatusFlags(sf bacnet.StatusFlags) BitString {
	var b byte
	if sf.InAlarm {
		b |= 0x80
	}
	if sf.Fault {
		b |= 0x40
	}
	if sf.Overridden {
		b |= 0x20
	}
	if sf.OutOfService {
		b |= 0x10
	}
	return BitString{UnusedBits: 4, Bytes: []byte{b}}
}

// DecodeStatusFlags unpacks a StatusFlags from its bit string wire form.
func DecodeStatusFlags(bs BitString) bacnet.StatusFlags {
	return bacnet.StatusFlags{
		InAlarm:      bs.Bit(0),
		Fault:        bs.Bit(1),
		Overridden:   bs.Bit(2),
		OutOfService: bs.Bit(3),
	}
}
