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

// Writer is the write-side the Command object needs from its host
// Registry: WriteProperty on an arbitrary object, in-process. A Command
// object never goes over the wire to perform its own actions — every
// action list entry targets an object already local to the same device.
type Writer interface {
	Get(oid bacnet.ObjectIdentifier) (Object, bool)
}

// Command implements the Command object: writing a value to
// Present_Value selects one of its Action rows (one per supported state)
// and executes every ActionCommand in that row in-process, in order.
// Unless an entry sets QuitOnFailure, a failed write is recorded but does
// not stop the remaining entries in the row; All_Writes_Successful
// reflects whether every entry in the most recent selection succeeded.
type Command struct {
	Common
	Actions            map[uint32][]encoding.ActionCommand
	registry           Writer
	AllWritesSuccessful bool
	current            uint32
}

// NewCommand constructs a Command object bound to registry for resolving
// its action targets.
func NewCommand(oid bacnet.ObjectIdentifier, name string, registry Writer) *Command {
	return &Command{Common: Common{OID: oid, Name: name}, Actions: make(map[uint32][]encoding.ActionCommand), registry: registry}
}

// Select executes the action row for state, writing every entry
// in-process and stopping early only at an entry with QuitOnFailure set
// whose write fails.
func (c *Command) Select(state uint32) error {
	row, ok := c.Actions[state]
	if !ok {
		return ErrValueOutOfRange()
	}
	c.current = state
	c.AllWritesSuccessful = true
	for _, action := range row {
		obj, ok := c.registry.Get(action.Object)
		if !ok {
			c.AllWritesSuccessful = false
			if action.QuitOnFailure {
				return nil
			}
			continue
		}
		values := action.Value
		out := make([]encoding.ApplicationValue, len(values))
		copy(out, values)
		if err := obj.WriteProperty(action.Property, action.ArrayIndex, out, action.Priority); err != nil {
			c.AllWritesSuccessful = false
			if action.QuitOnFailure {
				return nil
			}
			continue
		}
	}
	return nil
}

func (c *Command) PropertyList() []PropertyListEntry {
	return append(append([]PropertyListEntry{}, CommonPropertyList...),
		PropertyListEntry{Property: bacnet.PropertyPresentValue, Requirement: Required},
		PropertyListEntry{Property: bacnet.PropertyAction, Requirement: Required, IsArray: true},
		PropertyListEntry{Property: bacnet.PropertyInProcess, Requirement: Required},
		PropertyListEntry{Property: bacnet.PropertyAllWritesSuccessful, Requirement: Required},
	)
}

func (c *Command) ReadProperty(prop bacnet.PropertyIdentifier, arrayIndex *uint32) ([]encoding.ApplicationValue, error) {
	if v, ok := c.ReadCommon(bacnet.ObjectTypeCommand, prop); ok {
		return v, nil
	}
	switch prop {
	case bacnet.PropertyPresentValue:
		return oneUnsigned(uint64(c.current)), nil
	case bacnet.PropertyInProcess:
		return oneBoolean(false), nil
	case bacnet.PropertyAllWritesSuccessful:
		return oneBoolean(c.AllWritesSuccessful), nil
	default:
		return nil, ErrUnknownProperty()
	}
}

func (c *Command) WriteProperty(prop bacnet.PropertyIdentifier, arrayIndex *uint32, value []encoding.ApplicationValue, priority *uint8) error {
	if err, ok := c.WriteCommon(prop, value); ok {
		return err
	}
	if prop != bacnet.PropertyPresentValue {
		return ErrWriteAccessDenied()
	}
	v, err := decodeUnsignedValue(value)
	if err != nil {
		return ErrInvalidDataType()
	}
	return c.Select(uint32(v))
}
