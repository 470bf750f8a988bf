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

func realValue(v float32) ApplicationValue {
	n := EncodeRealTag(nil, v)
	buf := make([]byte, n)
	EncodeRealTag(buf, v)
	return ApplicationValue{Tag: TagReal, Raw: buf}
}

func TestApplicationValue_RoundTrip(t *testing.T) {
	v := realValue(72.5)
	n := EncodeApplicationValue(nil, v)
	buf := make([]byte, n)
	EncodeApplicationValue(buf, v)

	got, consumed, err := DecodeApplicationValue(buf)
	require.NoError(t, err)
	assert.Equal(t, n, consumed)
	assert.Equal(t, v.Tag, got.Tag)
	assert.Equal(t, v.Raw, got.Raw)
}

func TestDecodeApplicationValue_RejectsOpeningTag(t *testing.T) {
	buf := make([]byte, EncodeOpeningTag(nil, 2))
	EncodeOpeningTag(buf, 2)
	_, _, err := DecodeApplicationValue(buf)
	assert.Error(t, err)
}

func TestPropertyValue_RoundTrip_NoOptionals(t *testing.T) {
	pv := PropertyValue{
		Property: bacnet.PropertyPresentValue,
		Value:    []ApplicationValue{realValue(21.0)},
	}
	n := EncodePropertyValue(nil, pv)
	buf := make([]byte, n)
	EncodePropertyValue(buf, pv)

	got, consumed, err := DecodePropertyValue(buf)
	require.NoError(t, err)
	assert.Equal(t, n, consumed)
	assert.Equal(t, pv.Property, got.Property)
	assert.Nil(t, got.ArrayIndex)
	assert.Nil(t, got.Priority)
	require.Len(t, got.Value, 1)
	assert.Equal(t, pv.Value[0].Raw, got.Value[0].Raw)
}

func TestPropertyValue_RoundTrip_WithArrayIndexAndPriority(t *testing.T) {
	idx := uint32(3)
	prio := uint8(8)
	pv := PropertyValue{
		Property:   bacnet.PropertyPresentValue,
		ArrayIndex: &idx,
		Value:      []ApplicationValue{realValue(1.0)},
		Priority:   &prio,
	}
	n := EncodePropertyValue(nil, pv)
	buf := make([]byte, n)
	EncodePropertyValue(buf, pv)

	got, consumed, err := DecodePropertyValue(buf)
	require.NoError(t, err)
	assert.Equal(t, n, consumed)
	require.NotNil(t, got.ArrayIndex)
	assert.Equal(t, idx, *got.ArrayIndex)
	require.NotNil(t, got.Priority)
	assert.Equal(t, prio, *got.Priority)
}

func TestReadAccessSpec_RoundTrip(t *testing.T) {
	idx := uint32(1)
	spec := ReadAccessSpec{
		Object: bacnet.NewObjectIdentifier(bacnet.ObjectTypeAnalogInput, 5),
		Properties: []PropertyReference{
			{Property: bacnet.PropertyPresentValue},
			{Property: bacnet.PropertyObjectName, ArrayIndex: &idx},
		},
	}
	n := EncodeReadAccessSpec(nil, spec)
	buf := make([]byte, n)
	EncodeReadAccessSpec(buf, spec)

	got, consumed, err := DecodeReadAccessSpec(buf)
	require.NoError(t, err)
	assert.Equal(t, n, consumed)
	assert.Equal(t, spec.Object, got.Object)
	require.Len(t, got.Properties, 2)
	assert.Equal(t, bacnet.PropertyPresentValue, got.Properties[0].Property)
	assert.Nil(t, got.Properties[0].ArrayIndex)
	assert.Equal(t, bacnet.PropertyObjectName, got.Properties[1].Property)
	require.NotNil(t, got.Properties[1].ArrayIndex)
	assert.Equal(t, idx, *got.Properties[1].ArrayIndex)
}
