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

package object

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bacstack/bacstack/encoding"
)

func realAppValue(v float32) encoding.ApplicationValue {
	n := encoding.EncodeRealTag(nil, v)
	buf := make([]byte, n)
	encoding.EncodeRealTag(buf, v)
	return encoding.ApplicationValue{Tag: encoding.TagReal, Raw: buf}
}

func TestPriorityArray_LowestNumberedSlotWins(t *testing.T) {
	def := realAppValue(0)
	pa := NewPriorityArray(def)

	v8 := realAppValue(8)
	v3 := realAppValue(3)

	require.True(t, pa.Write(8, &v8))
	assert.Equal(t, v8.Raw, pa.Present().Raw)
	assert.Equal(t, uint8(8), pa.ActivePriority())

	require.True(t, pa.Write(3, &v3))
	assert.Equal(t, v3.Raw, pa.Present().Raw)
	assert.Equal(t, uint8(3), pa.ActivePriority())
}

func TestPriorityArray_RelinquishFallsBackToDefault(t *testing.T) {
	def := realAppValue(99)
	pa := NewPriorityArray(def)

	v := realAppValue(1)
	require.True(t, pa.Write(5, &v))
	assert.Equal(t, v.Raw, pa.Present().Raw)

	require.True(t, pa.Write(5, nil))
	assert.Equal(t, def.Raw, pa.Present().Raw)
	assert.Equal(t, uint8(0), pa.ActivePriority())
}

func TestPriorityArray_ReservedPriorityRejected(t *testing.T) {
	pa := NewPriorityArray(realAppValue(0))
	v := realAppValue(1)
	assert.False(t, pa.Write(6, &v))
	assert.Nil(t, pa.Slot(6))
}

func TestPriorityArray_OutOfRangeRejected(t *testing.T) {
	pa := NewPriorityArray(realAppValue(0))
	v := realAppValue(1)
	assert.False(t, pa.Write(0, &v))
	assert.False(t, pa.Write(17, &v))
}

func TestPriorityArray_SetRelinquishDefault(t *testing.T) {
	pa := NewPriorityArray(realAppValue(0))
	newDef := realAppValue(55)
	pa.SetRelinquishDefault(newDef)
	assert.Equal(t, newDef.Raw, pa.RelinquishDefault().Raw)
	assert.Equal(t, newDef.Raw, pa.Present().Raw)
}
