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

// ChannelMember names one (object, property[, array index]) destination
// a Channel writes through to when commanded.
type ChannelMember struct {
	Object     bacnet.ObjectIdentifier
	Property   bacnet.PropertyIdentifier
	ArrayIndex *uint32
}

// Channel fans one commanded value out to every member in its member
// list, at the channel's own write priority, mirroring how a lighting
// channel drives a group of Binary/Color/Color_Temperature outputs from
// a single group control point.
type Channel struct {
	Common
	ChannelNumber uint32
	Members       []ChannelMember
	registry      Writer
	lastValue     encoding.ChannelValue
	priority      uint8
}

// NewChannel constructs a Channel bound to registry for resolving its
// member objects, writing at the given priority (1..16).
func NewChannel(oid bacnet.ObjectIdentifier, name string, channelNumber uint32, registry Writer, priority uint8) *Channel {
	return &Channel{Common: Common{OID: oid, Name: name}, ChannelNumber: channelNumber, registry: registry, priority: priority}
}

// Write commands value to every member, recording it as the channel's
// last-commanded value. Members whose object cannot be found or whose
// tag doesn't match are skipped; a best-effort fan-out, since a channel's
// members are frequently heterogeneous (a Binary Output and a Color
// object driven by the same control point take different payload shapes).
func (ch *Channel) Write(value encoding.ChannelValue) {
	ch.lastValue = value
	p := ch.priority
	for _, m := range ch.Members {
		obj, ok := ch.registry.Get(m.Object)
		if !ok {
			continue
		}
		av, ok := channelValueAsApplicationValue(value)
		if !ok {
			continue
		}
		_ = obj.WriteProperty(m.Property, m.ArrayIndex, []encoding.ApplicationValue{av}, &p)
	}
}

// channelValueAsApplicationValue collapses a ChannelValue down to the
// application-tagged primitive form most member objects (Binary/Analog/
// MultiState outputs) expect. Lighting/Color/XYColor payloads are not
// converted: ok is false for them, so Write skips every member and
// Present_Value reads as Null.
func channelValueAsApplicationValue(v encoding.ChannelValue) (encoding.ApplicationValue, bool) {
	if v.Kind == encoding.ChannelValuePrimitive {
		return v.Primitive, true
	}
	return encoding.ApplicationValue{}, false
}

func (ch *Channel) PropertyList() []PropertyListEntry {
	return append(append([]PropertyListEntry{}, CommonPropertyList...),
		PropertyListEntry{Property: bacnet.PropertyPresentValue, Requirement: Required},
		PropertyListEntry{Property: bacnet.PropertyChannelNumber, Requirement: Required},
		PropertyListEntry{Property: bacnet.PropertyListOfObjectPropertyReferences, Requirement: Required, IsArray: true},
	)
}

func (ch *Channel) ReadProperty(prop bacnet.PropertyIdentifier, arrayIndex *uint32) ([]encoding.ApplicationValue, error) {
	if v, ok := ch.ReadCommon(bacnet.ObjectTypeChannel, prop); ok {
		return v, nil
	}
	switch prop {
	case bacnet.PropertyChannelNumber:
		return oneUnsigned(uint64(ch.ChannelNumber)), nil
	case bacnet.PropertyPresentValue:
		if av, ok := channelValueAsApplicationValue(ch.lastValue); ok {
			return []encoding.ApplicationValue{av}, nil
		}
		return []encoding.ApplicationValue{{Tag: encoding.TagNull, Raw: []byte{0x00}}}, nil
	default:
		return nil, ErrUnknownProperty()
	}
}

func (ch *Channel) WriteProperty(prop bacnet.PropertyIdentifier, arrayIndex *uint32, value []encoding.ApplicationValue, priority *uint8) error {
	if err, ok := ch.WriteCommon(prop, value); ok {
		return err
	}
	if prop != bacnet.PropertyPresentValue || len(value) != 1 {
		return ErrWriteAccessDenied()
	}
	ch.Write(encoding.ChannelValue{Kind: encoding.ChannelValuePrimitive, Primitive: value[0]})
	return nil
}
