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

package mstp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Open/Send/Receive drive a real serial.Port and are exercised against
// hardware or a loopback adapter, not here. The framing and CRC math
// they rely on is pure and covered below.

func TestEncodeFrame_HeaderCarriesPreambleAndAddresses(t *testing.T) {
	frame := encodeFrame(frameTypeBACnetDataExpectingReply, 0x02, 0x05, []byte{0x01, 0x02, 0x03})

	require.GreaterOrEqual(t, len(frame), 8)
	assert.Equal(t, byte(preamble1), frame[0])
	assert.Equal(t, byte(preamble2), frame[1])
	assert.Equal(t, byte(frameTypeBACnetDataExpectingReply), frame[2])
	assert.Equal(t, byte(0x02), frame[3])
	assert.Equal(t, byte(0x05), frame[4])
	assert.Equal(t, byte(0x00), frame[5])
	assert.Equal(t, byte(0x03), frame[6])
}

func TestEncodeFrame_EmptyDataOmitsDataCRC(t *testing.T) {
	frame := encodeFrame(frameTypeBACnetDataNotExpectingReply, 0xFF, 0x01, nil)
	assert.Len(t, frame, 8)
}

func TestEncodeFrame_NonEmptyDataAppendsDataAndCRC(t *testing.T) {
	data := []byte{0xAA, 0xBB, 0xCC, 0xDD}
	frame := encodeFrame(frameTypeBACnetDataExpectingReply, 0x03, 0x07, data)

	assert.Len(t, frame, 8+len(data)+2)
	assert.Equal(t, data, frame[8:8+len(data)])
}

func TestHeaderCRC_IsDeterministicForSameInput(t *testing.T) {
	b := []byte{frameTypeBACnetDataExpectingReply, 0x02, 0x05, 0x00, 0x03}
	assert.Equal(t, headerCRC(b), headerCRC(b))
}

func TestHeaderCRC_ChangesWithInput(t *testing.T) {
	a := headerCRC([]byte{frameTypeBACnetDataExpectingReply, 0x02, 0x05, 0x00, 0x03})
	b := headerCRC([]byte{frameTypeBACnetDataExpectingReply, 0x02, 0x05, 0x00, 0x04})
	assert.NotEqual(t, a, b)
}

func TestDataCRC_IsDeterministicForSameInput(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03}
	assert.Equal(t, dataCRC(data), dataCRC(data))
}

func TestDataLink_LocalAddressReflectsConfiguredMac(t *testing.T) {
	d := &DataLink{cfg: Config{MacAddress: 0x2A}}
	addr := d.LocalAddress()
	require.Len(t, addr.Mac, 1)
	assert.Equal(t, uint8(0x2A), addr.Mac[0])
}

func TestDataLink_MaintenanceTimerIsANoOp(t *testing.T) {
	d := &DataLink{cfg: Config{MacAddress: 0x01}}
	assert.NotPanics(t, func() { d.MaintenanceTimer(10 * time.Millisecond) })
}

func TestDataLink_CloseWithNilPortIsANoOp(t *testing.T) {
	d := &DataLink{}
	assert.NoError(t, d.Close())
}
