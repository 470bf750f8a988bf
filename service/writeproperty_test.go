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

func encodeWritePropertyRequest(oid bacnet.ObjectIdentifier, prop bacnet.PropertyIdentifier, value encoding.ApplicationValue, priority *uint8) []byte {
	adv := func(buf *[]byte, f func([]byte) int) {
		n := f(nil)
		b := make([]byte, n)
		f(b)
		*buf = append(*buf, b...)
	}
	var buf []byte
	adv(&buf, func(b []byte) int { return encoding.EncodeContextObjectIdentifier(b, 0, oid) })
	adv(&buf, func(b []byte) int { return encoding.EncodeContextUnsigned(b, 1, uint64(prop)) })
	adv(&buf, func(b []byte) int { return encoding.EncodeOpeningTag(b, 3) })
	adv(&buf, func(b []byte) int { return encoding.EncodeApplicationValue(b, value) })
	adv(&buf, func(b []byte) int { return encoding.EncodeClosingTag(b, 3) })
	if priority != nil {
		p := *priority
		adv(&buf, func(b []byte) int { return encoding.EncodeContextUnsigned(b, 4, uint64(p)) })
	}
	return buf
}

func TestWriteProperty_CommandableRelinquishRoundTrip(t *testing.T) {
	device := object.NewDevice(1, "test-device")
	var ao *object.AnalogOutput
	oid := device.Registry.Create(bacnet.ObjectTypeAnalogOutput, 1, func(oid bacnet.ObjectIdentifier) object.Object {
		ao = object.NewAnalogOutput(oid, "ao-1", 62, 0)
		return ao
	})

	handler := WriteProperty(device)
	prio := uint8(5)

	writeVal := realValueForTest(75.0)
	req := encodeWritePropertyRequest(oid, bacnet.PropertyPresentValue, writeVal, &prio)
	resp, err := handler(context.Background(), bacnet.Address{}, 1, req)
	require.NoError(t, err)
	assert.True(t, resp.Simple)
	assert.Equal(t, float32(75.0), ao.PresentValue())

	relinquish := encoding.ApplicationValue{Tag: encoding.TagNull, Raw: []byte{0x00}}
	req = encodeWritePropertyRequest(oid, bacnet.PropertyPresentValue, relinquish, &prio)
	resp, err = handler(context.Background(), bacnet.Address{}, 2, req)
	require.NoError(t, err)
	assert.True(t, resp.Simple)
	assert.Equal(t, float32(0), ao.PresentValue())
}

func TestWriteProperty_ReservedPriorityDenied(t *testing.T) {
	device := object.NewDevice(1, "test-device")
	oid := device.Registry.Create(bacnet.ObjectTypeAnalogOutput, 1, func(oid bacnet.ObjectIdentifier) object.Object {
		return object.NewAnalogOutput(oid, "ao-1", 62, 0)
	})

	handler := WriteProperty(device)
	prio := uint8(6)
	writeVal := realValueForTest(10.0)
	req := encodeWritePropertyRequest(oid, bacnet.PropertyPresentValue, writeVal, &prio)

	_, err := handler(context.Background(), bacnet.Address{}, 1, req)
	require.Error(t, err)
	var bacErr *bacnet.BACnetError
	require.ErrorAs(t, err, &bacErr)
	assert.Equal(t, bacnet.ErrorCodeValueOutOfRange, bacErr.Code)
}

func TestWriteProperty_UnknownObjectReturnsBACnetError(t *testing.T) {
	device := object.NewDevice(1, "test-device")
	handler := WriteProperty(device)

	missing := bacnet.NewObjectIdentifier(bacnet.ObjectTypeAnalogOutput, 99)
	req := encodeWritePropertyRequest(missing, bacnet.PropertyPresentValue, realValueForTest(1.0), nil)

	_, err := handler(context.Background(), bacnet.Address{}, 1, req)
	require.Error(t, err)
	var bacErr *bacnet.BACnetError
	require.ErrorAs(t, err, &bacErr)
	assert.Equal(t, bacnet.ErrorCodeUnknownObject, bacErr.Code)
}

func realValueForTest(v float32) encoding.ApplicationValue {
	n := encoding.EncodeRealTag(nil, v)
	buf := make([]byte, n)
	encoding.EncodeRealTag(buf, v)
	return encoding.ApplicationValue{Tag: encoding.TagReal, Raw: buf}
}
