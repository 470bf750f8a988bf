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

package npdu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeBVLC_RoundTrip(t *testing.T) {
	header := EncodeBVLC(BVLCOriginalUnicastNPDU, 10)
	h, err := DecodeBVLC(header)
	require.NoError(t, err)
	assert.Equal(t, BVLCTypeBACnetIP, h.Type)
	assert.Equal(t, BVLCOriginalUnicastNPDU, h.Function)
	assert.Equal(t, uint16(14), h.Length)
}

func TestDecodeBVLC_RejectsWrongType(t *testing.T) {
	_, err := DecodeBVLC([]byte{0x82, 0x0A, 0x00, 0x04})
	assert.Error(t, err)
}

func TestDecodeBVLC_RejectsShortInput(t *testing.T) {
	_, err := DecodeBVLC([]byte{0x81, 0x0A})
	assert.Error(t, err)
}

func TestEncodeDecodeNPDU_MinimalUnicast(t *testing.T) {
	header := EncodeNPDU(true, NPDUControlPriorityUrgent)
	payload := append(header, []byte{0x01, 0x02, 0x03}...)

	n, consumed, err := DecodeNPDU(payload)
	require.NoError(t, err)
	assert.False(t, n.IsNetworkMsg)
	assert.Equal(t, []byte{0x01, 0x02, 0x03}, n.Data)
	assert.Equal(t, 2, consumed)
	assert.NotZero(t, n.Control&NPDUControlExpectingReply)
}

func TestEncodeDecodeNPDU_WithDestSpecifier(t *testing.T) {
	header := EncodeNPDUWithDest(7, []byte{0xAA, 0xBB}, 255, false, NPDUControlPriorityNormal)
	payload := append(header, []byte{0x10}...)

	n, _, err := DecodeNPDU(payload)
	require.NoError(t, err)
	assert.Equal(t, uint16(7), n.DestNet)
	assert.Equal(t, []byte{0xAA, 0xBB}, n.DestAddr)
	assert.Equal(t, uint8(255), n.DestHopCount)
	assert.Equal(t, []byte{0x10}, n.Data)
}

func TestDecodeNPDU_RejectsWrongVersion(t *testing.T) {
	_, _, err := DecodeNPDU([]byte{0x02, 0x00, 0x01})
	assert.Error(t, err)
}

func TestDecodeNPDU_RejectsShortInput(t *testing.T) {
	_, _, err := DecodeNPDU([]byte{0x01})
	assert.Error(t, err)
}

func TestDecodeNPDU_NetworkLayerMessage(t *testing.T) {
	payload := []byte{0x01, byte(NPDUControlNetworkLayerMessage), byte(NetworkMessageWhoIsRouterToNetwork)}
	n, _, err := DecodeNPDU(payload)
	require.NoError(t, err)
	assert.True(t, n.IsNetworkMsg)
	assert.Equal(t, NetworkMessageWhoIsRouterToNetwork, n.MessageType)
}

func TestDecodeNPDU_VendorProprietaryNetworkMessageCarriesVendorID(t *testing.T) {
	payload := []byte{0x01, byte(NPDUControlNetworkLayerMessage), 0x80, 0x01, 0x2C}
	n, _, err := DecodeNPDU(payload)
	require.NoError(t, err)
	assert.True(t, n.IsNetworkMsg)
	assert.Equal(t, uint16(0x012C), n.VendorID)
}
