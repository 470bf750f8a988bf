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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeTagHeader_DualModeAgreesWithOutput(t *testing.T) {
	cases := []struct {
		num    uint8
		class  TagClass
		length int
	}{
		{0, TagClassApplication, 0},
		{4, TagClassApplication, 4},
		{14, TagClassContext, 4},
		{15, TagClassContext, 0},
		{254, TagClassContext, 1},
		{1, TagClassContext, 5},
		{1, TagClassContext, 253},
		{1, TagClassContext, 254},
		{1, TagClassContext, 70000},
	}
	for _, c := range cases {
		n := EncodeTagHeader(nil, c.num, c.class, c.length)
		buf := make([]byte, n)
		written := EncodeTagHeader(buf, c.num, c.class, c.length)
		require.Equal(t, n, written)

		hdr, err := DecodeTagHeader(append(buf, make([]byte, c.length)...))
		require.NoError(t, err)
		assert.Equal(t, c.num, hdr.Number)
		assert.Equal(t, c.class, hdr.Class)
		assert.Equal(t, c.length, hdr.Length)
		assert.Equal(t, n, hdr.HeaderLen)
	}
}

func TestEncodeTagHeader_LengthNibbleFiveIffExtended(t *testing.T) {
	for length := 0; length < 10; length++ {
		buf := make([]byte, EncodeTagHeader(nil, 1, TagClassContext, length))
		EncodeTagHeader(buf, 1, TagClassContext, length)
		nibble := buf[0] & 0x07
		if length >= 5 {
			assert.Equal(t, byte(5), nibble, "length=%d", length)
		} else {
			assert.Equal(t, byte(length), nibble, "length=%d", length)
		}
	}
}

func TestOpeningClosingTag_SingleByteUnderFifteen(t *testing.T) {
	for num := uint8(0); num < 15; num++ {
		assert.Equal(t, 1, EncodeOpeningTag(nil, num))
		assert.Equal(t, 1, EncodeClosingTag(nil, num))
	}
	assert.Equal(t, 2, EncodeOpeningTag(nil, 15))
	assert.Equal(t, 2, EncodeClosingTag(nil, 200))
}

func TestDecodeTagHeader_OpeningClosingRoundTrip(t *testing.T) {
	buf := make([]byte, EncodeOpeningTag(nil, 3))
	EncodeOpeningTag(buf, 3)
	hdr, err := DecodeTagHeader(buf)
	require.NoError(t, err)
	assert.True(t, hdr.IsOpening())
	assert.Equal(t, uint8(3), hdr.Number)

	buf2 := make([]byte, EncodeClosingTag(nil, 3))
	EncodeClosingTag(buf2, 3)
	hdr2, err := DecodeTagHeader(buf2)
	require.NoError(t, err)
	assert.True(t, hdr2.IsClosing())
}

func TestDecodeTagHeader_TruncatedBuffer(t *testing.T) {
	_, err := DecodeTagHeader(nil)
	assert.Error(t, err)

	// Extension byte announced but missing.
	_, err = DecodeTagHeader([]byte{0xF8})
	assert.Error(t, err)

	// Length-5 extension announced but missing.
	_, err = DecodeTagHeader([]byte{0x15})
	assert.Error(t, err)

	// Claimed content length exceeds what's available.
	_, err = DecodeTagHeader([]byte{0x44, 0x01})
	assert.Error(t, err)
}

func TestSkipEnclosed_NestedSameNumber(t *testing.T) {
	var buf []byte
	buf = appendOpening(buf, 2)
	buf = appendOpening(buf, 2) // nested same-number opening
	buf = append(buf, 0x22, 0xAA, 0xBB) // application Unsigned, length 2
	buf = appendClosing(buf, 2) // closes nested
	buf = appendClosing(buf, 2) // closes outer

	inner, total, err := SkipEnclosed(buf, 2)
	require.NoError(t, err)
	assert.Equal(t, len(buf), total)
	assert.Contains(t, string(inner), "\xaa\xbb")
}

func appendOpening(buf []byte, num uint8) []byte {
	n := EncodeOpeningTag(nil, num)
	b := make([]byte, n)
	EncodeOpeningTag(b, num)
	return append(buf, b...)
}

func appendClosing(buf []byte, num uint8) []byte {
	n := EncodeClosingTag(nil, num)
	b := make([]byte, n)
	EncodeClosingTag(b, num)
	return append(buf, b...)
}
