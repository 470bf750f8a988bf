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
	"github.com/bacstack/bacstack"
	"github.com/bacstack/bacstack/encoding"
)

// TimerState mirrors the small state machine a Timer object runs:
// idle, running down, expired, or stopped before expiry.
type TimerState uint32

const (
	TimerStateIdle TimerState = iota
	TimerStateRunning
	TimerStateExpired
	TimerStateStopped
)

// Timer counts down Present_Value (seconds) once started, reaching
// TimerStateExpired at zero; On/Off actions are left to a Command object
// wired to watch its state, matching how this device family treats
// timers as inputs to the command fan-out rather than actuators
// themselves.
type Timer struct {
	Common
	PresentValue uint32
	State        TimerState
}

// NewTimer constructs an idle Timer.
func NewTimer(oid bacnet.ObjectIdentifier, name string) *Timer {
	return &Timer{Common: Common{OID: oid, Name: name}}
}

// Start begins a countdown of seconds.
func (t *Timer) Start(seconds uint32) {
	t.PresentValue = seconds
	t.State = TimerStateRunning
}

// Stop halts the countdown without expiring it.
func (t *Timer) Stop() {
	t.State = TimerStateStopped
}

// Tick advances the countdown by elapsedMS once per run-loop tick.
func (t *Timer) Tick(elapsedMS uint32) {
	if t.State != TimerStateRunning {
		return
	}
	elapsedS := elapsedMS / 1000
	if elapsedS == 0 {
		return
	}
	if elapsedS >= t.PresentValue {
		t.PresentValue = 0
		t.State = TimerStateExpired
		return
	}
	t.PresentValue -= elapsedS
}

func (t *Timer) PropertyList() []PropertyListEntry {
	return append(append([]PropertyListEntry{}, CommonPropertyList...),
		PropertyListEntry{Property: bacnet.PropertyPresentValue, Requirement: Required},
		PropertyListEntry{Property: bacnet.PropertyTimerState, Requirement: Required},
	)
}

func (t *Timer) ReadProperty(prop bacnet.PropertyIdentifier, arrayIndex *uint32) ([]encoding.ApplicationValue, error) {
	if v, ok := t.ReadCommon(bacnet.ObjectTypeTimer, prop); ok {
		return v, nil
	}
	switch prop {
	case bacnet.PropertyPresentValue:
		return oneUnsigned(uint64(t.PresentValue)), nil
	case bacnet.PropertyTimerState:
		return oneEnumerated(uint32(t.State)), nil
	default:
		return nil, ErrUnknownProperty()
	}
}

func (t *Timer) WriteProperty(prop bacnet.PropertyIdentifier, arrayIndex *uint32, value []encoding.ApplicationValue, priority *uint8) error {
	if err, ok := t.WriteCommon(prop, value); ok {
		return err
	}
	if prop != bacnet.PropertyPresentValue {
		return ErrWriteAccessDenied()
	}
	v, err := decodeUnsignedValue(value)
	if err != nil {
		return ErrInvalidDataType()
	}
	t.Start(uint32(v))
	return nil
}
