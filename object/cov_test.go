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

	"github.com/bacstack/bacstack"
)

type fakeAnalogCOV struct {
	fakeObject
	value     float64
	increment float64
}

func (f *fakeAnalogCOV) COVValue() (float64, bool)   { return f.value, true }
func (f *fakeAnalogCOV) COVIncrementValue() float64 { return f.increment }

type fakeBinaryCOV struct {
	fakeObject
	value float64
}

func (f *fakeBinaryCOV) COVValue() (float64, bool) { return f.value, true }

func TestCOVDetector_FirstPollNeverFires(t *testing.T) {
	r := NewRegistry()
	analog := &fakeAnalogCOV{value: 10, increment: 1}
	r.Create(bacnet.ObjectTypeAnalogInput, 1, func(oid bacnet.ObjectIdentifier) Object {
		analog.oid = oid
		return analog
	})

	var events []COVEvent
	det := NewCOVDetector(r, func(e COVEvent) { events = append(events, e) })
	det.Poll()
	assert.Empty(t, events, "no baseline exists yet on the first poll")
}

func TestCOVDetector_AnalogFiresOnlyBeyondIncrement(t *testing.T) {
	r := NewRegistry()
	analog := &fakeAnalogCOV{value: 10, increment: 1}
	r.Create(bacnet.ObjectTypeAnalogInput, 1, func(oid bacnet.ObjectIdentifier) Object {
		analog.oid = oid
		return analog
	})

	var events []COVEvent
	det := NewCOVDetector(r, func(e COVEvent) { events = append(events, e) })
	det.Poll() // baseline

	analog.value = 10.5 // within increment
	det.Poll()
	assert.Empty(t, events)

	analog.value = 12 // beyond increment
	det.Poll()
	require.Len(t, events, 1)
	assert.Equal(t, 12.0, events[0].Value)
}

func TestCOVDetector_BinaryFiresOnAnyChange(t *testing.T) {
	r := NewRegistry()
	binary := &fakeBinaryCOV{value: 0}
	r.Create(bacnet.ObjectTypeBinaryInput, 1, func(oid bacnet.ObjectIdentifier) Object {
		binary.oid = oid
		return binary
	})

	var events []COVEvent
	det := NewCOVDetector(r, func(e COVEvent) { events = append(events, e) })
	det.Poll() // baseline

	binary.value = 1
	det.Poll()
	require.Len(t, events, 1)
	assert.Equal(t, 1.0, events[0].Value)
}
