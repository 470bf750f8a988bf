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

// Common holds the properties every object type shares (Object_Identifier,
// Object_Name, Object_Type, Description, Status_Flags, Out_Of_Service) and
// the ReadProperty/WriteProperty logic concrete types delegate to before
// falling through to their own properties.
type Common struct {
	OID          bacnet.ObjectIdentifier
	Name         string
	Description  string
	StatusFlags  bacnet.StatusFlags
	OutOfService bool
}

func (c *Common) Identifier() bacnet.ObjectIdentifier { return c.OID }
func (c *Common) ObjectName() string                  { return c.Name }

// CommonPropertyList is prepended to every concrete object type's
// PropertyList().
var CommonPropertyList = []PropertyListEntry{
	{Property: bacnet.PropertyObjectIdentifier, Requirement: Required},
	{Property: bacnet.PropertyObjectName, Requirement: Required},
	{Property: bacnet.PropertyObjectType, Requirement: Required},
	{Property: bacnet.PropertyDescription, Requirement: Optional},
	{Property: bacnet.PropertyStatusFlags, Requirement: Optional},
	{Property: bacnet.PropertyOutOfService, Requirement: Optional},
}

// ErrUnknownProperty reports that an object type has no such property.
func ErrUnknownProperty() error {
	return &bacnet.BACnetError{Class: bacnet.ErrorClassProperty, Code: bacnet.ErrorCodeUnknownProperty}
}

// ErrWriteAccessDenied reports a write to a read-only property.
func ErrWriteAccessDenied() error {
	return &bacnet.BACnetError{Class: bacnet.ErrorClassProperty, Code: bacnet.ErrorCodeWriteAccessDenied}
}

// ErrInvalidDataType reports a value of the wrong application tag.
func ErrInvalidDataType() error {
	return &bacnet.BACnetError{Class: bacnet.ErrorClassProperty, Code: bacnet.ErrorCodeInvalidDataType}
}

// ErrValueOutOfRange reports a numeric value outside a property's bounds.
func ErrValueOutOfRange() error {
	return &bacnet.BACnetError{Class: bacnet.ErrorClassProperty, Code: bacnet.ErrorCodeValueOutOfRange}
}

// ReadCommon serves a property from the shared set. ok is false when prop
// is not one of the common properties, so callers fall through to their
// own property table.
func (c *Common) ReadCommon(objType bacnet.ObjectType, prop bacnet.PropertyIdentifier) (values []encoding.ApplicationValue, ok bool) {
	switch prop {
	case bacnet.PropertyObjectIdentifier:
		return oneObjectIdentifier(c.OID), true
	case bacnet.PropertyObjectName:
		return oneCharacterString(c.Name), true
	case bacnet.PropertyObjectType:
		return oneEnumerated(uint32(objType)), true
	case bacnet.PropertyDescription:
		return oneCharacterString(c.Description), true
	case bacnet.PropertyStatusFlags:
		return oneStatusFlags(c.StatusFlags), true
	case bacnet.PropertyOutOfService:
		return oneBoolean(c.OutOfService), true
	default:
		return nil, false
	}
}

// WriteCommon writes a property from the shared writable set
// (Object_Name, Description, Out_Of_Service). ok is false when prop is
// not one of these, so callers fall through to their own property table.
func (c *Common) WriteCommon(prop bacnet.PropertyIdentifier, value []encoding.ApplicationValue) (err error, ok bool) {
	switch prop {
	case bacnet.PropertyObjectName:
		s, err := decodeCharacterStringValue(value)
		if err != nil {
			return ErrInvalidDataType(), true
		}
		c.Name = s
		return nil, true
	case bacnet.PropertyDescription:
		s, err := decodeCharacterStringValue(value)
		if err != nil {
			return ErrInvalidDataType(), true
		}
		c.Description = s
		return nil, true
	case bacnet.PropertyOutOfService:
		b, err := decodeBooleanValue(value)
		if err != nil {
			return ErrInvalidDataType(), true
		}
		c.OutOfService = b
		return nil, true
	default:
		return nil, false
	}
}
