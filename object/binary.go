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

// BinaryInput is a read-only two-state point.
type BinaryInput struct {
	Common
	PresentValue bool
	ActiveText   string
	InactiveText string
	Polarity     uint32
}

// NewBinaryInput constructs a Binary Input.
func NewBinaryInput(oid bacnet.ObjectIdentifier, name string) *BinaryInput {
	return &BinaryInput{Common: Common{OID: oid, Name: name}, ActiveText: "Active", InactiveText: "Inactive"}
}

func (b *BinaryInput) PropertyList() []PropertyListEntry {
	return append(append([]PropertyListEntry{}, CommonPropertyList...),
		PropertyListEntry{Property: bacnet.PropertyPresentValue, Requirement: Required},
		PropertyListEntry{Property: bacnet.PropertyActiveText, Requirement: Optional},
		PropertyListEntry{Property: bacnet.PropertyInactiveText, Requirement: Optional},
	)
}

func (b *BinaryInput) ReadProperty(prop bacnet.PropertyIdentifier, arrayIndex *uint32) ([]encoding.ApplicationValue, error) {
	if v, ok := b.ReadCommon(bacnet.ObjectTypeBinaryInput, prop); ok {
		return v, nil
	}
	switch prop {
	case bacnet.PropertyPresentValue:
		return oneEnumerated(boolToBinaryPV(b.PresentValue)), nil
	case bacnet.PropertyActiveText:
		return oneCharacterString(b.ActiveText), nil
	case bacnet.PropertyInactiveText:
		return oneCharacterString(b.InactiveText), nil
	default:
		return nil, ErrUnknownProperty()
	}
}

func (b *BinaryInput) WriteProperty(prop bacnet.PropertyIdentifier, arrayIndex *uint32, value []encoding.ApplicationValue, priority *uint8) error {
	if err, ok := b.WriteCommon(prop, value); ok {
		return err
	}
	if prop == bacnet.PropertyPresentValue && b.OutOfService {
		v, err := decodeEnumeratedValue(value)
		if err != nil {
			return ErrInvalidDataType()
		}
		b.PresentValue = v != 0
		return nil
	}
	return ErrWriteAccessDenied()
}

func (b *BinaryInput) COVValue() (float64, bool) {
	if b.PresentValue {
		return 1, true
	}
	return 0, true
}

func boolToBinaryPV(v bool) uint32 {
	if v {
		return 1
	}
	return 0
}

// BinaryOutput is a commandable two-state point.
type BinaryOutput struct {
	Common
	ActiveText   string
	InactiveText string
	priority     *PriorityArray
}

// NewBinaryOutput constructs a Binary Output defaulting to inactive when
// every priority slot is relinquished.
func NewBinaryOutput(oid bacnet.ObjectIdentifier, name string) *BinaryOutput {
	return &BinaryOutput{
		Common:       Common{OID: oid, Name: name},
		ActiveText:   "Active",
		InactiveText: "Inactive",
		priority:     NewPriorityArray(rawEnumerated(0)),
	}
}

func (b *BinaryOutput) PresentValue() bool {
	v := b.priority.Present()
	h, err := encoding.DecodeTagHeader(v.Raw)
	if err != nil {
		return false
	}
	e, _ := encoding.DecodeEnumerated(v.Raw[h.HeaderLen:], h.Length)
	return e != 0
}

func (b *BinaryOutput) PropertyList() []PropertyListEntry {
	return append(append([]PropertyListEntry{}, CommonPropertyList...),
		PropertyListEntry{Property: bacnet.PropertyPresentValue, Requirement: Required},
		PropertyListEntry{Property: bacnet.PropertyPriorityArray, Requirement: Required},
		PropertyListEntry{Property: bacnet.PropertyRelinquishDefault, Requirement: Required},
	)
}

func (b *BinaryOutput) ReadProperty(prop bacnet.PropertyIdentifier, arrayIndex *uint32) ([]encoding.ApplicationValue, error) {
	if v, ok := b.ReadCommon(bacnet.ObjectTypeBinaryOutput, prop); ok {
		return v, nil
	}
	switch prop {
	case bacnet.PropertyPresentValue:
		return oneEnumerated(boolToBinaryPV(b.PresentValue())), nil
	case bacnet.PropertyRelinquishDefault:
		return []encoding.ApplicationValue{b.priority.RelinquishDefault()}, nil
	default:
		return nil, ErrUnknownProperty()
	}
}

func (b *BinaryOutput) WriteProperty(prop bacnet.PropertyIdentifier, arrayIndex *uint32, value []encoding.ApplicationValue, priority *uint8) error {
	if err, ok := b.WriteCommon(prop, value); ok {
		return err
	}
	if prop != bacnet.PropertyPresentValue {
		return ErrWriteAccessDenied()
	}
	p := uint8(16)
	if priority != nil {
		p = *priority
	}
	if len(value) == 1 && value[0].Tag == encoding.TagNull {
		if !b.priority.Write(p, nil) {
			return ErrValueOutOfRange()
		}
		return nil
	}
	if len(value) != 1 || value[0].Tag != encoding.TagEnumerated {
		return ErrInvalidDataType()
	}
	if !b.priority.Write(p, &value[0]) {
		return ErrValueOutOfRange()
	}
	return nil
}

func (b *BinaryOutput) COVValue() (float64, bool) {
	if b.PresentValue() {
		return 1, true
	}
	return 0, true
}

// BinaryValue is a software two-state point.
type BinaryValue struct {
	Common
	PresentValue bool
}

// NewBinaryValue constructs a Binary Value.
func NewBinaryValue(oid bacnet.ObjectIdentifier, name string) *BinaryValue {
	return &BinaryValue{Common: Common{OID: oid, Name: name}}
}

func (b *BinaryValue) PropertyList() []PropertyListEntry {
	return append(append([]PropertyListEntry{}, CommonPropertyList...),
		PropertyListEntry{Property: bacnet.PropertyPresentValue, Requirement: Required},
	)
}

func (b *BinaryValue) ReadProperty(prop bacnet.PropertyIdentifier, arrayIndex *uint32) ([]encoding.ApplicationValue, error) {
	if v, ok := b.ReadCommon(bacnet.ObjectTypeBinaryValue, prop); ok {
		return v, nil
	}
	if prop == bacnet.PropertyPresentValue {
		return oneEnumerated(boolToBinaryPV(b.PresentValue)), nil
	}
	return nil, ErrUnknownProperty()
}

func (b *BinaryValue) WriteProperty(prop bacnet.PropertyIdentifier, arrayIndex *uint32, value []encoding.ApplicationValue, priority *uint8) error {
	if err, ok := b.WriteCommon(prop, value); ok {
		return err
	}
	if prop != bacnet.PropertyPresentValue {
		return ErrWriteAccessDenied()
	}
	v, err := decodeEnumeratedValue(value)
	if err != nil {
		return ErrInvalidDataType()
	}
	b.PresentValue = v != 0
	return nil
}

func (b *BinaryValue) COVValue() (float64, bool) {
	if b.PresentValue {
		return 1, true
	}
	return 0, true
}

// BinaryLightingOutput layers an egress-active timer on top of a
// commandable binary output: turning off starts a countdown (Egress_Time
// seconds) during which Egress_Active reads true and the physical output
// stays energized, modeling a door-strike or stairwell-light holdoff.
type BinaryLightingOutput struct {
	Common
	priority      *PriorityArray
	EgressTimeS   uint32
	egressActive  bool
	egressRemMS   uint32
	lastCommanded bool
}

// NewBinaryLightingOutput constructs a Binary Lighting Output with the
// given egress hold time in seconds.
func NewBinaryLightingOutput(oid bacnet.ObjectIdentifier, name string, egressTimeS uint32) *BinaryLightingOutput {
	return &BinaryLightingOutput{
		Common:      Common{OID: oid, Name: name},
		priority:    NewPriorityArray(rawEnumerated(0)),
		EgressTimeS: egressTimeS,
	}
}

func (b *BinaryLightingOutput) commanded() bool {
	v := b.priority.Present()
	h, err := encoding.DecodeTagHeader(v.Raw)
	if err != nil {
		return false
	}
	e, _ := encoding.DecodeEnumerated(v.Raw[h.HeaderLen:], h.Length)
	return e != 0
}

// PresentValue is the physical output state: still true through the
// egress hold even after the command relinquishes to off.
func (b *BinaryLightingOutput) PresentValue() bool {
	return b.commanded() || b.egressActive
}

// Tick advances the egress countdown; called once per run-loop tick by
// Registry.Tick via the Tickable interface.
func (b *BinaryLightingOutput) Tick(elapsedMS uint32) {
	now := b.commanded()
	if b.lastCommanded && !now && b.EgressTimeS > 0 {
		b.egressActive = true
		b.egressRemMS = b.EgressTimeS * 1000
	}
	b.lastCommanded = now
	if !b.egressActive {
		return
	}
	if elapsedMS >= b.egressRemMS {
		b.egressActive = false
		b.egressRemMS = 0
		return
	}
	b.egressRemMS -= elapsedMS
}

func (b *BinaryLightingOutput) PropertyList() []PropertyListEntry {
	return append(append([]PropertyListEntry{}, CommonPropertyList...),
		PropertyListEntry{Property: bacnet.PropertyPresentValue, Requirement: Required},
		PropertyListEntry{Property: bacnet.PropertyPriorityArray, Requirement: Required},
		PropertyListEntry{Property: bacnet.PropertyRelinquishDefault, Requirement: Required},
		PropertyListEntry{Property: bacnet.PropertyEgressTime, Requirement: Optional},
		PropertyListEntry{Property: bacnet.PropertyEgressActive, Requirement: Optional},
	)
}

func (b *BinaryLightingOutput) ReadProperty(prop bacnet.PropertyIdentifier, arrayIndex *uint32) ([]encoding.ApplicationValue, error) {
	if v, ok := b.ReadCommon(bacnet.ObjectTypeBinaryLightingOutput, prop); ok {
		return v, nil
	}
	switch prop {
	case bacnet.PropertyPresentValue:
		return oneEnumerated(boolToBinaryPV(b.PresentValue())), nil
	case bacnet.PropertyRelinquishDefault:
		return []encoding.ApplicationValue{b.priority.RelinquishDefault()}, nil
	case bacnet.PropertyEgressTime:
		return oneUnsigned(uint64(b.EgressTimeS)), nil
	case bacnet.PropertyEgressActive:
		return oneBoolean(b.egressActive), nil
	default:
		return nil, ErrUnknownProperty()
	}
}

func (b *BinaryLightingOutput) WriteProperty(prop bacnet.PropertyIdentifier, arrayIndex *uint32, value []encoding.ApplicationValue, priority *uint8) error {
	if err, ok := b.WriteCommon(prop, value); ok {
		return err
	}
	switch prop {
	case bacnet.PropertyPresentValue:
		p := uint8(16)
		if priority != nil {
			p = *priority
		}
		if len(value) == 1 && value[0].Tag == encoding.TagNull {
			if !b.priority.Write(p, nil) {
				return ErrValueOutOfRange()
			}
			return nil
		}
		if len(value) != 1 || value[0].Tag != encoding.TagEnumerated {
			return ErrInvalidDataType()
		}
		if !b.priority.Write(p, &value[0]) {
			return ErrValueOutOfRange()
		}
		return nil
	case bacnet.PropertyEgressTime:
		v, err := decodeUnsignedValue(value)
		if err != nil {
			return ErrInvalidDataType()
		}
		b.EgressTimeS = uint32(v)
		return nil
	default:
		return ErrWriteAccessDenied()
	}
}

func (b *BinaryLightingOutput) COVValue() (float64, bool) {
	if b.PresentValue() {
		return 1, true
	}
	return 0, true
}
