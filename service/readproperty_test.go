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

package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bacstack/bacstack"
	"github.com/bacstack/bacstack/encoding"
	"github.com/bacstack/bacstack/object"
)

func encodeReadPropertyRequest(t *testing.T, oid bacnet.ObjectIdentifier, prop bacnet.PropertyIdentifier) []byte {
	t.Helper()
	var buf []byte
	n := encoding.EncodeContextObjectIdentifier(nil, 0, oid)
	b := make([]byte, n)
	encoding.EncodeContextObjectIdentifier(b, 0, oid)
	buf = append(buf, b...)

	n = encoding.EncodeContextUnsigned(nil, 1, uint64(prop))
	b = make([]byte, n)
	encoding.EncodeContextUnsigned(b, 1, uint64(prop))
	buf = append(buf, b...)
	return buf
}

func TestReadProperty_UnknownObjectReturnsBACnetError(t *testing.T) {
	device := object.NewDevice(1, "test-device")
	handler := ReadProperty(device)

	missing := bacnet.NewObjectIdentifier(bacnet.ObjectTypeAnalogInput, 99)
	req := encodeReadPropertyRequest(t, missing, bacnet.PropertyPresentValue)

	_, err := handler(context.Background(), bacnet.Address{}, 1, req)
	require.Error(t, err)
	var bacErr *bacnet.BACnetError
	require.ErrorAs(t, err, &bacErr)
	assert.Equal(t, bacnet.ErrorClassObject, bacErr.Class)
	assert.Equal(t, bacnet.ErrorCodeUnknownObject, bacErr.Code)
}

func TestReadProperty_PresentValueReturnsComplexAck(t *testing.T) {
	device := object.NewDevice(1, "test-device")
	oid := device.Registry.Create(bacnet.ObjectTypeAnalogInput, 1, func(oid bacnet.ObjectIdentifier) object.Object {
		ai := object.NewAnalogInput(oid, "ai-1", 62)
		ai.SetPresentValue(21.5)
		return ai
	})

	handler := ReadProperty(device)
	req := encodeReadPropertyRequest(t, oid, bacnet.PropertyPresentValue)

	resp, err := handler(context.Background(), bacnet.Address{}, 1, req)
	require.NoError(t, err)
	require.False(t, resp.Simple)
	require.NotEmpty(t, resp.Data)

	decoded, err := DecodeReadPropertyRequest(resp.Data)
	require.NoError(t, err)
	assert.Equal(t, oid, decoded.Object)
	assert.Equal(t, bacnet.PropertyPresentValue, decoded.Property)
}

func TestReadProperty_UnknownPropertyReturnsBACnetError(t *testing.T) {
	device := object.NewDevice(1, "test-device")
	oid := device.Registry.Create(bacnet.ObjectTypeAnalogInput, 1, func(oid bacnet.ObjectIdentifier) object.Object {
		return object.NewAnalogInput(oid, "ai-1", 62)
	})

	handler := ReadProperty(device)
	req := encodeReadPropertyRequest(t, oid, bacnet.PropertyIdentifier(9999))

	_, err := handler(context.Background(), bacnet.Address{}, 1, req)
	require.Error(t, err)
	var bacErr *bacnet.BACnetError
	require.ErrorAs(t, err, &bacErr)
	assert.Equal(t, bacnet.ErrorClassProperty, bacErr.Class)
	assert.Equal(t, bacnet.ErrorCodeUnknownProperty, bacErr.Code)
}
