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

// AnalogInput is a read-only analog point: Present_Value tracks a
// physical input and is updated by SetPresentValue; WriteProperty may set
// it only while Out_Of_Service is true.
type AnalogInput struct {
	Common
	PresentValue float32
	Units        uint32
	COVIncrement float32
}

// NewAnalogInput constructs an Analog Input in the given units (an
// engineering-units enumeration value).
func NewAnalogInput(oid bacnet.ObjectIdentifier, name string, units uint32) *AnalogInput {
	return &AnalogInput{Common: Common{OID: oid, Name: name}, Units: units}
}

// SetPresentValue updates the input reading, as a driver would on a scan.
func (a *AnalogInput) SetPresentValue(v float32) { a.PresentValue = v }

func (a *AnalogInput) PropertyList() []PropertyListEntry {
	return append(append([]PropertyListEntry{}, CommonPropertyList...),
		PropertyListEntry{Property: bacnet.PropertyPresentValue, Requirement: Required},
		PropertyListEntry{Property: bacnet.PropertyUnits, Requirement: Required},
		PropertyListEntry{Property: bacnet.PropertyCOVIncrement, Requirement: Optional},
	)
}

func (a *AnalogInput) ReadProperty(prop bacnet.PropertyIdentifier, arrayIndex *uint32) ([]encoding.ApplicationValue, error) {
	if v, ok := a.ReadCommon(bacnet.ObjectTypeAnalogInput, prop); ok {
		return v, nil
	}
	switch prop {
	case bacnet.PropertyPresentValue:
		return oneReal(a.PresentValue), nil
	case bacnet.PropertyUnits:
		return oneEnumerated(a.Units), nil
	case bacnet.PropertyCOVIncrement:
		return oneReal(a.COVIncrement), nil
	default:
		return nil, ErrUnknownProperty()
	}
}

func (a *AnalogInput) WriteProperty(prop bacnet.PropertyIdentifier, arrayIndex *uint32, value []encoding.ApplicationValue, priority *uint8) error {
	if err, ok := a.WriteCommon(prop, value); ok {
		return err
	}
	switch prop {
	case bacnet.PropertyCOVIncrement:
		v, err := decodeRealValue(value)
		if err != nil {
			return ErrInvalidDataType()
		}
		a.COVIncrement = v
		return nil
	case bacnet.PropertyPresentValue:
		if !a.OutOfService {
			return ErrWriteAccessDenied()
		}
		v, err := decodeRealValue(value)
		if err != nil {
			return ErrInvalidDataType()
		}
		a.PresentValue = v
		return nil
	default:
		return ErrWriteAccessDenied()
	}
}

// COVValue implements COVSubject.
func (a *AnalogInput) COVValue() (float64, bool) { return float64(a.PresentValue), true }

// COVIncrementValue implements COVIncrementer.
func (a *AnalogInput) COVIncrementValue() float64 { return float64(a.COVIncrement) }

// AnalogOutput is a commandable analog point: Present_Value resolves
// through a 16-slot priority array.
type AnalogOutput struct {
	Common
	Units    uint32
	priority *PriorityArray
}

// NewAnalogOutput constructs an Analog Output with relinquishDefault as
// the value in effect when every priority slot is empty.
func NewAnalogOutput(oid bacnet.ObjectIdentifier, name string, units uint32, relinquishDefault float32) *AnalogOutput {
	return &AnalogOutput{
		Common:   Common{OID: oid, Name: name},
		Units:    units,
		priority: NewPriorityArray(rawReal(relinquishDefault)),
	}
}

func (a *AnalogOutput) PresentValue() float32 {
	v := a.priority.Present()
	h, err := encoding.DecodeTagHeader(v.Raw)
	if err != nil {
		return 0
	}
	f, _ := encoding.DecodeReal(v.Raw[h.HeaderLen:])
	return f
}

func (a *AnalogOutput) PropertyList() []PropertyListEntry {
	return append(append([]PropertyListEntry{}, CommonPropertyList...),
		PropertyListEntry{Property: bacnet.PropertyPresentValue, Requirement: Required},
		PropertyListEntry{Property: bacnet.PropertyUnits, Requirement: Required},
		PropertyListEntry{Property: bacnet.PropertyPriorityArray, Requirement: Required},
		PropertyListEntry{Property: bacnet.PropertyRelinquishDefault, Requirement: Required},
	)
}

func (a *AnalogOutput) ReadProperty(prop bacnet.PropertyIdentifier, arrayIndex *uint32) ([]encoding.ApplicationValue, error) {
	if v, ok := a.ReadCommon(bacnet.ObjectTypeAnalogOutput, prop); ok {
		return v, nil
	}
	switch prop {
	case bacnet.PropertyPresentValue:
		return oneReal(a.PresentValue()), nil
	case bacnet.PropertyUnits:
		return oneEnumerated(a.Units), nil
	case bacnet.PropertyRelinquishDefault:
		return []encoding.ApplicationValue{a.priority.RelinquishDefault()}, nil
	case bacnet.PropertyPriorityArray:
		return a.priorityArrayValues(), nil
	default:
		return nil, ErrUnknownProperty()
	}
}

func (a *AnalogOutput) priorityArrayValues() []encoding.ApplicationValue {
	out := make([]encoding.ApplicationValue, 0, NumPriorities)
	for i := uint8(1); i <= NumPriorities; i++ {
		if s := a.priority.Slot(i); s != nil {
			out = append(out, *s)
		} else {
			out = append(out, encoding.ApplicationValue{Tag: encoding.TagNull, Raw: []byte{0x00}})
		}
	}
	return out
}

func (a *AnalogOutput) WriteProperty(prop bacnet.PropertyIdentifier, arrayIndex *uint32, value []encoding.ApplicationValue, priority *uint8) error {
	if err, ok := a.WriteCommon(prop, value); ok {
		return err
	}
	switch prop {
	case bacnet.PropertyPresentValue:
		p := uint8(16)
		if priority != nil {
			p = *priority
		}
		if len(value) == 1 && value[0].Tag == encoding.TagNull {
			if !a.priority.Write(p, nil) {
				return ErrValueOutOfRange()
			}
			return nil
		}
		if len(value) != 1 || value[0].Tag != encoding.TagReal {
			return ErrInvalidDataType()
		}
		if !a.priority.Write(p, &value[0]) {
			return ErrValueOutOfRange()
		}
		return nil
	case bacnet.PropertyRelinquishDefault:
		if len(value) != 1 || value[0].Tag != encoding.TagReal {
			return ErrInvalidDataType()
		}
		a.priority.SetRelinquishDefault(value[0])
		return nil
	default:
		return ErrWriteAccessDenied()
	}
}

func (a *AnalogOutput) COVValue() (float64, bool) { return float64(a.PresentValue()), true }

// AnalogValue is a software analog point: read-write Present_Value with
// no physical backing, not normally commandable.
type AnalogValue struct {
	Common
	PresentValue float32
	Units        uint32
}

// NewAnalogValue constructs an Analog Value.
func NewAnalogValue(oid bacnet.ObjectIdentifier, name string, units uint32) *AnalogValue {
	return &AnalogValue{Common: Common{OID: oid, Name: name}, Units: units}
}

func (a *AnalogValue) PropertyList() []PropertyListEntry {
	return append(append([]PropertyListEntry{}, CommonPropertyList...),
		PropertyListEntry{Property: bacnet.PropertyPresentValue, Requirement: Required},
		PropertyListEntry{Property: bacnet.PropertyUnits, Requirement: Required},
	)
}

func (a *AnalogValue) ReadProperty(prop bacnet.PropertyIdentifier, arrayIndex *uint32) ([]encoding.ApplicationValue, error) {
	if v, ok := a.ReadCommon(bacnet.ObjectTypeAnalogValue, prop); ok {
		return v, nil
	}
	switch prop {
	case bacnet.PropertyPresentValue:
		return oneReal(a.PresentValue), nil
	case bacnet.PropertyUnits:
		return oneEnumerated(a.Units), nil
	default:
		return nil, ErrUnknownProperty()
	}
}

func (a *AnalogValue) WriteProperty(prop bacnet.PropertyIdentifier, arrayIndex *uint32, value []encoding.ApplicationValue, priority *uint8) error {
	if err, ok := a.WriteCommon(prop, value); ok {
		return err
	}
	switch prop {
	case bacnet.PropertyPresentValue:
		v, err := decodeRealValue(value)
		if err != nil {
			return ErrInvalidDataType()
		}
		a.PresentValue = v
		return nil
	default:
		return ErrWriteAccessDenied()
	}
}

func (a *AnalogValue) COVValue() (float64, bool) { return float64(a.PresentValue), true }
