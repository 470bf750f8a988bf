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

	"github.com/bacstack/bacstack"
)

func TestUnsigned_RoundTrip(t *testing.T) {
	values := []uint64{0, 1, 255, 256, 65535, 65536, 1 << 32, ^uint64(0)}
	for _, v := range values {
		n := EncodeUnsigned(nil, v)
		buf := make([]byte, n)
		EncodeUnsigned(buf, v)
		got, err := DecodeUnsigned(buf, n)
		require.NoError(t, err)
		assert.Equal(t, v, got, "value=%d", v)
	}
}

func TestUnsigned_MinimalLength(t *testing.T) {
	assert.Equal(t, 1, EncodeUnsigned(nil, 0))
	assert.Equal(t, 1, EncodeUnsigned(nil, 255))
	assert.Equal(t, 2, EncodeUnsigned(nil, 256))
	assert.Equal(t, 2, EncodeUnsigned(nil, 65535))
	assert.Equal(t, 3, EncodeUnsigned(nil, 65536))
}

func TestSigned_RoundTrip(t *testing.T) {
	values := []int64{0, -1, 1, 127, -128, 128, -129, 32767, -32768, 1 << 20, -(1 << 20)}
	for _, v := range values {
		n := EncodeSigned(nil, v)
		buf := make([]byte, n)
		EncodeSigned(buf, v)
		got, err := DecodeSigned(buf, n)
		require.NoError(t, err)
		assert.Equal(t, v, got, "value=%d", v)
	}
}

func TestSigned_MinimalLength(t *testing.T) {
	assert.Equal(t, 1, EncodeSigned(nil, 0))
	assert.Equal(t, 1, EncodeSigned(nil, -1))
	assert.Equal(t, 1, EncodeSigned(nil, 127))
	assert.Equal(t, 1, EncodeSigned(nil, -128))
	assert.Equal(t, 2, EncodeSigned(nil, 128))
	assert.Equal(t, 2, EncodeSigned(nil, -129))
}

func TestReal_RoundTrip(t *testing.T) {
	for _, v := range []float32{0, 1.5, -1.5, 3.14159, -0.0} {
		buf := make([]byte, 4)
		EncodeReal(buf, v)
		got, err := DecodeReal(buf)
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
	_, err := DecodeReal([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestDouble_RoundTrip(t *testing.T) {
	buf := make([]byte, 8)
	EncodeDouble(buf, 2.71828)
	got, err := DecodeDouble(buf)
	require.NoError(t, err)
	assert.Equal(t, 2.71828, got)

	_, err = DecodeDouble([]byte{1})
	assert.Error(t, err)
}

func TestEncodeBooleanTag_FoldsIntoLengthNibble(t *testing.T) {
	n := EncodeBooleanTag(nil, true)
	assert.Equal(t, 1, n)
	buf := make([]byte, n)
	EncodeBooleanTag(buf, true)
	hdr, err := DecodeTagHeader(buf)
	require.NoError(t, err)
	assert.Equal(t, 1, hdr.Length)

	buf2 := make([]byte, EncodeBooleanTag(nil, false))
	EncodeBooleanTag(buf2, false)
	hdr2, err := DecodeTagHeader(buf2)
	require.NoError(t, err)
	assert.Equal(t, 0, hdr2.Length)
}

func TestObjectIdentifier_RoundTrip(t *testing.T) {
	oid := bacnet.NewObjectIdentifier(bacnet.ObjectTypeAnalogInput, 42)
	buf := make([]byte, 4)
	EncodeObjectIdentifier(buf, oid)
	got, err := DecodeObjectIdentifier(buf)
	require.NoError(t, err)
	assert.Equal(t, oid, got)

	_, err = DecodeObjectIdentifier([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestCharacterString_RoundTrip(t *testing.T) {
	n := EncodeCharacterString(nil, "hello")
	buf := make([]byte, n)
	EncodeCharacterString(buf, "hello")
	got, err := DecodeCharacterString(buf, n)
	require.NoError(t, err)
	assert.Equal(t, "hello", got)
}

func TestCharacterString_ZeroLengthDecodesEmpty(t *testing.T) {
	got, err := DecodeCharacterString(nil, 0)
	require.NoError(t, err)
	assert.Equal(t, "", got)
}

func TestDate_WildcardYear(t *testing.T) {
	d := BACnetDate{Month: 6, Day: 15, Weekday: 1}
	buf := make([]byte, 4)
	EncodeDate(buf, d)
	assert.Equal(t, byte(0xFF), buf[0])
	got, err := DecodeDate(buf)
	require.NoError(t, err)
	assert.Equal(t, uint16(0), got.Year)
	assert.Equal(t, d.Month, got.Month)
}

func TestDate_ConcreteYear(t *testing.T) {
	d := BACnetDate{Year: 2026, Month: 7, Day: 31, Weekday: 5}
	buf := make([]byte, 4)
	EncodeDate(buf, d)
	got, err := DecodeDate(buf)
	require.NoError(t, err)
	assert.Equal(t, d, got)
}

func TestTime_RoundTrip(t *testing.T) {
	tm := BACnetTime{Hour: 13, Minute: 5, Second: 59, Hundredths: 42}
	buf := make([]byte, 4)
	EncodeTime(buf, tm)
	got, err := DecodeTime(buf)
	require.NoError(t, err)
	assert.Equal(t, tm, got)
}

func TestBitString_RoundTrip(t *testing.T) {
	bs := BitString{UnusedBits: 3, Bytes: []byte{0b10110000}}
	n := EncodeBitString(nil, bs)
	buf := make([]byte, n)
	EncodeBitString(buf, bs)
	got, err := DecodeBitString(buf, n)
	require.NoError(t, err)
	assert.Equal(t, bs, got)

	assert.True(t, got.Bit(0))
	assert.False(t, got.Bit(1))
	assert.True(t, got.Bit(2))
	assert.True(t, got.Bit(3))
}

func TestBitString_RejectsUnusedBitsEightOrMore(t *testing.T) {
	_, err := DecodeBitString([]byte{8, 0xFF}, 2)
	assert.Error(t, err)

	_, err = DecodeBitString([]byte{9, 0xFF}, 2)
	assert.Error(t, err)
}

func TestStatusFlags_RoundTrip(t *testing.T) {
	sf := bacnet.StatusFlags{InAlarm: true, Fault: false, Overridden: true, OutOfService: false}
	bs := EncodeStatusFlags(sf)
	assert.Equal(t, uint8(4), bs.UnusedBits)
	got := DecodeStatusFlags(bs)
	assert.Equal(t, sf, got)
}
