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

// Color is a commandable chromaticity point: Present_Value is an XYColor
// resolved through a priority array, with Color_Command accepting the
// richer fade/ramp/step operations defined for lighting.
type Color struct {
	Common
	priority *PriorityArray
	Command  encoding.ColorCommand
}

// NewColor constructs a Color object defaulting to the given XY point
// when every priority slot is relinquished.
func NewColor(oid bacnet.ObjectIdentifier, name string, def encoding.XYColor) *Color {
	n := encoding.EncodeXYColor(nil, def)
	buf := make([]byte, n)
	encoding.EncodeXYColor(buf, def)
	return &Color{
		Common:   Common{OID: oid, Name: name},
		priority: NewPriorityArray(encoding.ApplicationValue{Raw: buf}),
	}
}

// PresentValue decodes the active priority slot back into an XYColor.
func (c *Color) PresentValue() encoding.XYColor {
	v := c.priority.Present()
	xy, _, err := encoding.DecodeXYColor(v.Raw)
	if err != nil {
		return encoding.XYColor{}
	}
	return xy
}

func (c *Color) PropertyList() []PropertyListEntry {
	return append(append([]PropertyListEntry{}, CommonPropertyList...),
		PropertyListEntry{Property: bacnet.PropertyPresentValue, Requirement: Required},
		PropertyListEntry{Property: bacnet.PropertyColorCommand, Requirement: Optional},
		PropertyListEntry{Property: bacnet.PropertyPriorityArray, Requirement: Required},
		PropertyListEntry{Property: bacnet.PropertyRelinquishDefault, Requirement: Required},
	)
}

func (c *Color) ReadProperty(prop bacnet.PropertyIdentifier, arrayIndex *uint32) ([]encoding.ApplicationValue, error) {
	if v, ok := c.ReadCommon(bacnet.ObjectTypeColor, prop); ok {
		return v, nil
	}
	switch prop {
	case bacnet.PropertyPresentValue:
		xy := c.PresentValue()
		n := encoding.EncodeXYColor(nil, xy)
		buf := make([]byte, n)
		encoding.EncodeXYColor(buf, xy)
		return []encoding.ApplicationValue{{Raw: buf}}, nil
	case bacnet.PropertyRelinquishDefault:
		return []encoding.ApplicationValue{c.priority.RelinquishDefault()}, nil
	default:
		return nil, ErrUnknownProperty()
	}
}

func (c *Color) WriteProperty(prop bacnet.PropertyIdentifier, arrayIndex *uint32, value []encoding.ApplicationValue, priority *uint8) error {
	if err, ok := c.WriteCommon(prop, value); ok {
		return err
	}
	if prop != bacnet.PropertyPresentValue || len(value) != 1 {
		return ErrWriteAccessDenied()
	}
	p := uint8(16)
	if priority != nil {
		p = *priority
	}
	if !c.priority.Write(p, &value[0]) {
		return ErrValueOutOfRange()
	}
	return nil
}

// ColorTemperature is a commandable correlated-color-temperature point,
// present value in kelvin via the same priority-array machinery as
// Analog Output.
type ColorTemperature struct {
	Common
	priority *PriorityArray
}

// NewColorTemperature constructs a Color_Temperature object.
func NewColorTemperature(oid bacnet.ObjectIdentifier, name string, defaultKelvin uint32) *ColorTemperature {
	return &ColorTemperature{Common: Common{OID: oid, Name: name}, priority: NewPriorityArray(rawUnsigned(uint64(defaultKelvin)))}
}

func (c *ColorTemperature) PresentValue() uint32 {
	v := c.priority.Present()
	h, err := encoding.DecodeTagHeader(v.Raw)
	if err != nil {
		return 0
	}
	u, _ := encoding.DecodeUnsigned(v.Raw[h.HeaderLen:], h.Length)
	return uint32(u)
}

func (c *ColorTemperature) PropertyList() []PropertyListEntry {
	return append(append([]PropertyListEntry{}, CommonPropertyList...),
		PropertyListEntry{Property: bacnet.PropertyPresentValue, Requirement: Required},
		PropertyListEntry{Property: bacnet.PropertyPriorityArray, Requirement: Required},
		PropertyListEntry{Property: bacnet.PropertyRelinquishDefault, Requirement: Required},
	)
}

func (c *ColorTemperature) ReadProperty(prop bacnet.PropertyIdentifier, arrayIndex *uint32) ([]encoding.ApplicationValue, error) {
	if v, ok := c.ReadCommon(bacnet.ObjectTypeColorTemperature, prop); ok {
		return v, nil
	}
	switch prop {
	case bacnet.PropertyPresentValue:
		return oneUnsigned(uint64(c.PresentValue())), nil
	case bacnet.PropertyRelinquishDefault:
		return []encoding.ApplicationValue{c.priority.RelinquishDefault()}, nil
	default:
		return nil, ErrUnknownProperty()
	}
}

func (c *ColorTemperature) WriteProperty(prop bacnet.PropertyIdentifier, arrayIndex *uint32, value []encoding.ApplicationValue, priority *uint8) error {
	if err, ok := c.WriteCommon(prop, value); ok {
		return err
	}
	if prop != bacnet.PropertyPresentValue || len(value) != 1 {
		return ErrWriteAccessDenied()
	}
	p := uint8(16)
	if priority != nil {
		p = *priority
	}
	if !c.priority.Write(p, &value[0]) {
		return ErrValueOutOfRange()
	}
	return nil
}
