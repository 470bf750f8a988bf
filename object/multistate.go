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

// MultiStateInput is a read-only enumerated point; states are numbered 1..N.
type MultiStateInput struct {
	Common
	PresentValue uint32
	StateText    []string
}

// NewMultiStateInput constructs a Multi-State Input with the given
// ordered state names (1-based).
func NewMultiStateInput(oid bacnet.ObjectIdentifier, name string, stateText []string) *MultiStateInput {
	return &MultiStateInput{Common: Common{OID: oid, Name: name}, StateText: stateText, PresentValue: 1}
}

func (m *MultiStateInput) PropertyList() []PropertyListEntry {
	return append(append([]PropertyListEntry{}, CommonPropertyList...),
		PropertyListEntry{Property: bacnet.PropertyPresentValue, Requirement: Required},
		PropertyListEntry{Property: bacnet.PropertyNumberOfStates, Requirement: Required},
		PropertyListEntry{Property: bacnet.PropertyStateText, Requirement: Optional, IsArray: true},
	)
}

func (m *MultiStateInput) ReadProperty(prop bacnet.PropertyIdentifier, arrayIndex *uint32) ([]encoding.ApplicationValue, error) {
	if v, ok := m.ReadCommon(bacnet.ObjectTypeMultiStateInput, prop); ok {
		return v, nil
	}
	switch prop {
	case bacnet.PropertyPresentValue:
		return oneUnsigned(uint64(m.PresentValue)), nil
	case bacnet.PropertyNumberOfStates:
		return oneUnsigned(uint64(len(m.StateText))), nil
	case bacnet.PropertyStateText:
		return readStringArray(m.StateText, arrayIndex)
	default:
		return nil, ErrUnknownProperty()
	}
}

func (m *MultiStateInput) WriteProperty(prop bacnet.PropertyIdentifier, arrayIndex *uint32, value []encoding.ApplicationValue, priority *uint8) error {
	if err, ok := m.WriteCommon(prop, value); ok {
		return err
	}
	if prop == bacnet.PropertyPresentValue && m.OutOfService {
		v, err := decodeUnsignedValue(value)
		if err != nil {
			return ErrInvalidDataType()
		}
		if v < 1 || (len(m.StateText) > 0 && v > uint64(len(m.StateText))) {
			return ErrValueOutOfRange()
		}
		m.PresentValue = uint32(v)
		return nil
	}
	return ErrWriteAccessDenied()
}

func (m *MultiStateInput) COVValue() (float64, bool) { return float64(m.PresentValue), true }

// readStringArray serves a BACnetARRAY[N] OF CharacterString property,
// honoring the ArrayIndex 0 convention (element count) and a specific
// 1-based index, or the whole array when arrayIndex is nil.
func readStringArray(items []string, arrayIndex *uint32) ([]encoding.ApplicationValue, error) {
	if arrayIndex != nil {
		if *arrayIndex == 0 {
			return oneUnsigned(uint64(len(items))), nil
		}
		idx := int(*arrayIndex)
		if idx < 1 || idx > len(items) {
			return nil, ErrValueOutOfRange()
		}
		return oneCharacterString(items[idx-1]), nil
	}
	out := make([]encoding.ApplicationValue, 0, len(items))
	for _, s := range items {
		out = append(out, rawCharacterString(s))
	}
	return out, nil
}

// MultiStateOutput is a commandable enumerated point.
type MultiStateOutput struct {
	Common
	StateText []string
	priority  *PriorityArray
}

// NewMultiStateOutput constructs a Multi-State Output defaulting to
// relinquishDefault when every priority slot is empty.
func NewMultiStateOutput(oid bacnet.ObjectIdentifier, name string, stateText []string, relinquishDefault uint32) *MultiStateOutput {
	return &MultiStateOutput{
		Common:    Common{OID: oid, Name: name},
		StateText: stateText,
		priority:  NewPriorityArray(rawUnsigned(uint64(relinquishDefault))),
	}
}

func (m *MultiStateOutput) PresentValue() uint32 {
	v := m.priority.Present()
	h, err := encoding.DecodeTagHeader(v.Raw)
	if err != nil {
		return 0
	}
	u, _ := encoding.DecodeUnsigned(v.Raw[h.HeaderLen:], h.Length)
	return uint32(u)
}

func (m *MultiStateOutput) PropertyList() []PropertyListEntry {
	return append(append([]PropertyListEntry{}, CommonPropertyList...),
		PropertyListEntry{Property: bacnet.PropertyPresentValue, Requirement: Required},
		PropertyListEntry{Property: bacnet.PropertyNumberOfStates, Requirement: Required},
		PropertyListEntry{Property: bacnet.PropertyPriorityArray, Requirement: Required},
		PropertyListEntry{Property: bacnet.PropertyRelinquishDefault, Requirement: Required},
		PropertyListEntry{Property: bacnet.PropertyStateText, Requirement: Optional, IsArray: true},
	)
}

func (m *MultiStateOutput) ReadProperty(prop bacnet.PropertyIdentifier, arrayIndex *uint32) ([]encoding.ApplicationValue, error) {
	if v, ok := m.ReadCommon(bacnet.ObjectTypeMultiStateOutput, prop); ok {
		return v, nil
	}
	switch prop {
	case bacnet.PropertyPresentValue:
		return oneUnsigned(uint64(m.PresentValue())), nil
	case bacnet.PropertyNumberOfStates:
		return oneUnsigned(uint64(len(m.StateText))), nil
	case bacnet.PropertyRelinquishDefault:
		return []encoding.ApplicationValue{m.priority.RelinquishDefault()}, nil
	case bacnet.PropertyStateText:
		return readStringArray(m.StateText, arrayIndex)
	default:
		return nil, ErrUnknownProperty()
	}
}

func (m *MultiStateOutput) WriteProperty(prop bacnet.PropertyIdentifier, arrayIndex *uint32, value []encoding.ApplicationValue, priority *uint8) error {
	if err, ok := m.WriteCommon(prop, value); ok {
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
		if !m.priority.Write(p, nil) {
			return ErrValueOutOfRange()
		}
		return nil
	}
	if len(value) != 1 || value[0].Tag != encoding.TagUnsignedInt {
		return ErrInvalidDataType()
	}
	if !m.priority.Write(p, &value[0]) {
		return ErrValueOutOfRange()
	}
	return nil
}

func (m *MultiStateOutput) COVValue() (float64, bool) { return float64(m.PresentValue()), true }

// MultiStateValue is a software enumerated point.
type MultiStateValue struct {
	Common
	PresentValue uint32
	StateText    []string
}

// NewMultiStateValue constructs a Multi-State Value.
func NewMultiStateValue(oid bacnet.ObjectIdentifier, name string, stateText []string) *MultiStateValue {
	return &MultiStateValue{Common: Common{OID: oid, Name: name}, StateText: stateText, PresentValue: 1}
}

func (m *MultiStateValue) PropertyList() []PropertyListEntry {
	return append(append([]PropertyListEntry{}, CommonPropertyList...),
		PropertyListEntry{Property: bacnet.PropertyPresentValue, Requirement: Required},
		PropertyListEntry{Property: bacnet.PropertyNumberOfStates, Requirement: Required},
		PropertyListEntry{Property: bacnet.PropertyStateText, Requirement: Optional, IsArray: true},
	)
}

func (m *MultiStateValue) ReadProperty(prop bacnet.PropertyIdentifier, arrayIndex *uint32) ([]encoding.ApplicationValue, error) {
	if v, ok := m.ReadCommon(bacnet.ObjectTypeMultiStateValue, prop); ok {
		return v, nil
	}
	switch prop {
	case bacnet.PropertyPresentValue:
		return oneUnsigned(uint64(m.PresentValue)), nil
	case bacnet.PropertyNumberOfStates:
		return oneUnsigned(uint64(len(m.StateText))), nil
	case bacnet.PropertyStateText:
		return readStringArray(m.StateText, arrayIndex)
	default:
		return nil, ErrUnknownProperty()
	}
}

func (m *MultiStateValue) WriteProperty(prop bacnet.PropertyIdentifier, arrayIndex *uint32, value []encoding.ApplicationValue, priority *uint8) error {
	if err, ok := m.WriteCommon(prop, value); ok {
		return err
	}
	if prop != bacnet.PropertyPresentValue {
		return ErrWriteAccessDenied()
	}
	v, err := decodeUnsignedValue(value)
	if err != nil {
		return ErrInvalidDataType()
	}
	if v < 1 || (len(m.StateText) > 0 && v > uint64(len(m.StateText))) {
		return ErrValueOutOfRange()
	}
	m.PresentValue = uint32(v)
	return nil
}

func (m *MultiStateValue) COVValue() (float64, bool) { return float64(m.PresentValue), true }
