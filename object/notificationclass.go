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

// Recipient names one destination a NotificationClass fans an event out
// to, gated by the process identifier it was subscribed under.
type Recipient struct {
	Device           bacnet.ObjectIdentifier
	ProcessIdentifier uint32
}

// NotificationClass groups a set of recipients and the transition types
// (to-offnormal/to-fault/to-normal) each one is notified of; object types
// with intrinsic reporting reference a NotificationClass by instance
// rather than carrying their own per-object recipient list.
type NotificationClass struct {
	Common
	Priority          [3]uint32 // to-offnormal, to-fault, to-normal
	AckRequired       encoding.BitString
	Recipients        []Recipient
}

// NewNotificationClass constructs a NotificationClass with default
// (lowest) priority on every transition.
func NewNotificationClass(oid bacnet.ObjectIdentifier, name string) *NotificationClass {
	return &NotificationClass{Common: Common{OID: oid, Name: name}, Priority: [3]uint32{255, 255, 255}}
}

func (n *NotificationClass) PropertyList() []PropertyListEntry {
	return append(append([]PropertyListEntry{}, CommonPropertyList...),
		PropertyListEntry{Property: bacnet.PropertyNotificationClass, Requirement: Required},
		PropertyListEntry{Property: bacnet.PropertyPriority, Requirement: Required, IsArray: true},
		PropertyListEntry{Property: bacnet.PropertyAckRequired, Requirement: Required},
		PropertyListEntry{Property: bacnet.PropertyRecipientList, Requirement: Required, IsArray: true},
	)
}

func (n *NotificationClass) ReadProperty(prop bacnet.PropertyIdentifier, arrayIndex *uint32) ([]encoding.ApplicationValue, error) {
	if v, ok := n.ReadCommon(bacnet.ObjectTypeNotificationClass, prop); ok {
		return v, nil
	}
	switch prop {
	case bacnet.PropertyNotificationClass:
		return oneUnsigned(uint64(n.OID.Instance)), nil
	case bacnet.PropertyPriority:
		out := make([]encoding.ApplicationValue, 0, 3)
		for _, p := range n.Priority {
			out = append(out, rawUnsigned(uint64(p)))
		}
		return out, nil
	case bacnet.PropertyAckRequired:
		return oneBitString(n.AckRequired), nil
	case bacnet.PropertyRecipientList:
		out := make([]encoding.ApplicationValue, 0, len(n.Recipients))
		for _, r := range n.Recipients {
			out = append(out, rawObjectIdentifier(r.Device))
		}
		return out, nil
	default:
		return nil, ErrUnknownProperty()
	}
}

func (n *NotificationClass) WriteProperty(prop bacnet.PropertyIdentifier, arrayIndex *uint32, value []encoding.ApplicationValue, priority *uint8) error {
	if err, ok := n.WriteCommon(prop, value); ok {
		return err
	}
	return ErrWriteAccessDenied()
}

// EventEnrollment binds a monitored (object, property) pair to the
// event-parameter thresholds and the NotificationClass it reports
// through. It holds these configuration properties only; it does not
// evaluate the monitored value or generate event notifications.
type EventEnrollment struct {
	Common
	ObjectPropertyReference ScheduleTarget
	EventType               uint32
	NotifyType              uint32
	NotificationClassID     uint32
	EventState              uint32
}

// NewEventEnrollment constructs an EventEnrollment monitoring target.
func NewEventEnrollment(oid bacnet.ObjectIdentifier, name string, target ScheduleTarget) *EventEnrollment {
	return &EventEnrollment{Common: Common{OID: oid, Name: name}, ObjectPropertyReference: target}
}

func (e *EventEnrollment) PropertyList() []PropertyListEntry {
	return append(append([]PropertyListEntry{}, CommonPropertyList...),
		PropertyListEntry{Property: bacnet.PropertyObjectPropertyReference, Requirement: Required},
		PropertyListEntry{Property: bacnet.PropertyEventType, Requirement: Required},
		PropertyListEntry{Property: bacnet.PropertyNotifyType, Requirement: Required},
		PropertyListEntry{Property: bacnet.PropertyNotificationClass, Requirement: Required},
		PropertyListEntry{Property: bacnet.PropertyEventState, Requirement: Required},
	)
}

func (e *EventEnrollment) ReadProperty(prop bacnet.PropertyIdentifier, arrayIndex *uint32) ([]encoding.ApplicationValue, error) {
	if v, ok := e.ReadCommon(bacnet.ObjectTypeEventEnrollment, prop); ok {
		return v, nil
	}
	switch prop {
	case bacnet.PropertyObjectPropertyReference:
		return oneObjectIdentifier(e.ObjectPropertyReference.Object), nil
	case bacnet.PropertyEventType:
		return oneEnumerated(e.EventType), nil
	case bacnet.PropertyNotifyType:
		return oneEnumerated(e.NotifyType), nil
	case bacnet.PropertyNotificationClass:
		return oneUnsigned(uint64(e.NotificationClassID)), nil
	case bacnet.PropertyEventState:
		return oneEnumerated(e.EventState), nil
	default:
		return nil, ErrUnknownProperty()
	}
}

func (e *EventEnrollment) WriteProperty(prop bacnet.PropertyIdentifier, arrayIndex *uint32, value []encoding.ApplicationValue, priority *uint8) error {
	if err, ok := e.WriteCommon(prop, value); ok {
		return err
	}
	return ErrWriteAccessDenied()
}
