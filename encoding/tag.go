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

// Package encoding implements the BACnet primitive and constructed data
// codec: tag framing, numeric/string primitives, and the composite value
// shapes (xy-color, lighting/color commands, calendar entries, action
// commands, channel values) built on top of them.
//
// Every encoder in this package is dual-mode: pass a nil destination slice
// to get back the length it would have written without writing anything.
// Every decoder takes the full remaining buffer and returns the number of
// bytes it consumed; it never reads past the slice it was given.
package encoding

import (
	"encoding/binary"

	"github.com/bacstack/bacstack"
)

// TagClass distinguishes application tags (carry a data type) from
// context tags (carry a field position within a constructed value).
type TagClass uint8

const (
	TagClassApplication TagClass = 0
	TagClassContext     TagClass = 1
)

// ApplicationTag enumerates the BACnet primitive application tag numbers.
type ApplicationTag uint8

const (
	TagNull            ApplicationTag = 0
	TagBoolean         ApplicationTag = 1
	TagUnsignedInt     ApplicationTag = 2
	TagSignedInt       ApplicationTag = 3
	TagReal            ApplicationTag = 4
	TagDouble          ApplicationTag = 5
	TagOctetString     ApplicationTag = 6
	TagCharacterString ApplicationTag = 7
	TagBitString       ApplicationTag = 8
	TagEnumerated      ApplicationTag = 9
	TagDate            ApplicationTag = 10
	TagTime            ApplicationTag = 11
	TagObjectID        ApplicationTag = 12
)

// TagHeader is a decoded tag: the opening-byte metadata plus header length.
// Length is -1 for an opening tag and -2 for a closing tag.
type TagHeader struct {
	Number    uint8
	Class     TagClass
	Length    int
	HeaderLen int
}

// IsOpening reports whether this header is an opening tag.
func (h TagHeader) IsOpening() bool { return h.Length == -1 }

// IsClosing reports whether this header is a closing tag.
func (h TagHeader) IsClosing() bool { return h.Length == -2 }

// EncodeTagHeader writes a tag header for the given application-or-context
// tag number and content length. Dual-mode: buf == nil returns the length.
func EncodeTagHeader(buf []byte, num uint8, class TagClass, length int) int {
	n := 0
	if length < 5 && num < 15 {
		if buf != nil {
			buf[0] = (num << 4) | (uint8(class) << 3) | uint8(length)
		}
		return 1
	}

	lengthNibble := uint8(length)
	if length >= 5 {
		lengthNibble = 5
	}

	if num >= 15 {
		if buf != nil {
			buf[0] = 0xF0 | (uint8(class) << 3) | lengthNibble
			buf[1] = num
		}
		n = 2
	} else {
		if buf != nil {
			buf[0] = (num << 4) | (uint8(class) << 3) | lengthNibble
		}
		n = 1
	}

	if length >= 5 {
		switch {
		case length < 254:
			if buf != nil {
				buf[n] = byte(length)
			}
			n++
		case length < 65536:
			if buf != nil {
				buf[n] = 254
				binary.BigEndian.PutUint16(buf[n+1:], uint16(length))
			}
			n += 3
		default:
			if buf != nil {
				buf[n] = 255
				binary.BigEndian.PutUint32(buf[n+1:], uint32(length))
			}
			n += 5
		}
	}
	return n
}

// EncodeOpeningTag writes an opening tag for a constructed field.
func EncodeOpeningTag(buf []byte, num uint8) int {
	if num < 15 {
		if buf != nil {
			buf[0] = (num << 4) | 0x0E
		}
		return 1
	}
	if buf != nil {
		buf[0] = 0xFE
		buf[1] = num
	}
	return 2
}

// EncodeClosingTag writes a closing tag for a constructed field.
func EncodeClosingTag(buf []byte, num uint8) int {
	if num < 15 {
		if buf != nil {
			buf[0] = (num << 4) | 0x0F
		}
		return 1
	}
	if buf != nil {
		buf[0] = 0xFF
		buf[1] = num
	}
	return 2
}

// EncodeContextValue wraps an already-encoded primitive value with a
// context tag header of the given field number.
func EncodeContextValue(buf []byte, num uint8, value []byte) int {
	n := EncodeTagHeader(buf, num, TagClassContext, len(value))
	if buf != nil {
		copy(buf[n:], value)
	}
	return n + len(value)
}

// DecodeTagHeader parses the tag at the start of buf. It never reads past
// len(buf). Returns bacnet.ErrInvalidAPDU on truncation.
func DecodeTagHeader(buf []byte) (TagHeader, error) {
	if len(buf) < 1 {
		return TagHeader{}, bacnet.ErrInvalidAPDU
	}

	num := (buf[0] >> 4) & 0x0F
	class := TagClass((buf[0] >> 3) & 0x01)
	length := int(buf[0] & 0x07)
	headerLen := 1

	if num == 0x0F {
		if len(buf) < 2 {
			return TagHeader{}, bacnet.ErrInvalidAPDU
		}
		num = buf[1]
		headerLen = 2
	}

	if class == TagClassContext {
		switch buf[0] & 0x07 {
		case 0x06:
			return TagHeader{Number: num, Class: class, Length: -1, HeaderLen: headerLen}, nil
		case 0x07:
			return TagHeader{Number: num, Class: class, Length: -2, HeaderLen: headerLen}, nil
		}
	}

	if length == 5 {
		if len(buf) < headerLen+1 {
			return TagHeader{}, bacnet.ErrInvalidAPDU
		}
		switch {
		case buf[headerLen] < 254:
			length = int(buf[headerLen])
			headerLen++
		case buf[headerLen] == 254:
			if len(buf) < headerLen+3 {
				return TagHeader{}, bacnet.ErrInvalidAPDU
			}
			length = int(binary.BigEndian.Uint16(buf[headerLen+1:]))
			headerLen += 3
		default:
			if len(buf) < headerLen+5 {
				return TagHeader{}, bacnet.ErrInvalidAPDU
			}
			length = int(binary.BigEndian.Uint32(buf[headerLen+1:]))
			headerLen += 5
		}
	}

	// An application Boolean carries its value in the length field and
	// has no content octets.
	isBoolean := class == TagClassApplication && num == uint8(TagBoolean)
	if length > 0 && !isBoolean && len(buf) < headerLen+length {
		return TagHeader{}, bacnet.ErrInvalidAPDU
	}

	return TagHeader{Number: num, Class: class, Length: length, HeaderLen: headerLen}, nil
}

// SkipEnclosed scans forward from an opening tag at buf[0] (already
// verified with DecodeTagHeader) and returns the byte span of the
// enclosed value, not including the opening/closing tags themselves,
// using the enclosed-data-length nesting scan from the constructed codec.
func SkipEnclosed(buf []byte, tagNum uint8) (inner []byte, total int, err error) {
	hdr, err := DecodeTagHeader(buf)
	if err != nil {
		return nil, 0, err
	}
	if !hdr.IsOpening() || hdr.Number != tagNum {
		return nil, 0, bacnet.ErrInvalidAPDU
	}
	offset := hdr.HeaderLen
	depth := 1
	for depth > 0 {
		if offset >= len(buf) {
			return nil, 0, bacnet.ErrInvalidAPDU
		}
		h, err := DecodeTagHeader(buf[offset:])
		if err != nil {
			return nil, 0, err
		}
		switch {
		case h.IsOpening() && h.Number == tagNum:
			depth++
			offset += h.HeaderLen
		case h.IsClosing() && h.Number == tagNum:
			depth--
			if depth == 0 {
				inner = buf[hdr.HeaderLen:offset]
				offset += h.HeaderLen
				return inner, offset, nil
			}
			offset += h.HeaderLen
		case h.IsOpening() || h.IsClosing():
			offset += h.HeaderLen
		case h.Class == TagClassApplication && h.Number == uint8(TagBoolean):
			offset += h.HeaderLen
		default:
			offset += h.HeaderLen + h.Length
		}
	}
	return nil, 0, bacnet.ErrInvalidAPDU
}
