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

package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bacstack/bacstack"
	"github.com/bacstack/bacstack/encoding"
	"github.com/bacstack/bacstack/object"
)

func encodeListElementRequest(oid bacnet.ObjectIdentifier, prop bacnet.PropertyIdentifier, entry encoding.CalendarEntry) []byte {
	n := 0
	adv := func(f func([]byte) int) {
		n += f(nil)
	}
	adv(func(b []byte) int { return encoding.EncodeContextObjectIdentifier(b, 0, oid) })
	adv(func(b []byte) int { return encoding.EncodeContextUnsigned(b, 1, uint64(prop)) })
	adv(func(b []byte) int { return encoding.EncodeOpeningTag(b, 3) })
	adv(func(b []byte) int { return encoding.EncodeCalendarEntry(b, entry) })
	adv(func(b []byte) int { return encoding.EncodeClosingTag(b, 3) })

	buf := make([]byte, n)
	off := 0
	off += encoding.EncodeContextObjectIdentifier(buf[off:], 0, oid)
	off += encoding.EncodeContextUnsigned(buf[off:], 1, uint64(prop))
	off += encoding.EncodeOpeningTag(buf[off:], 3)
	off += encoding.EncodeCalendarEntry(buf[off:], entry)
	off += encoding.EncodeClosingTag(buf[off:], 3)
	return buf
}

func dateEntry(year uint16, month, day uint8) encoding.CalendarEntry {
	return encoding.CalendarEntry{
		Kind: encoding.CalendarEntryDate,
		Date: encoding.BACnetDate{Year: year, Month: month, Day: day, Weekday: 1},
	}
}

func TestAddListElement_AppendsCalendarEntry(t *testing.T) {
	cal := object.NewCalendar(bacnet.NewObjectIdentifier(bacnet.ObjectTypeCalendar, 1), "Holidays")
	device := object.NewDevice(1, "test device")
	oid := device.Registry.Create(bacnet.ObjectTypeCalendar, 1, func(bacnet.ObjectIdentifier) object.Object { return cal })

	data := encodeListElementRequest(oid, bacnet.PropertyDateList, dateEntry(2026, 12, 25))

	handler := AddListElement(device)
	resp, err := handler(context.Background(), bacnet.Address{}, 1, data)
	require.NoError(t, err)
	require.True(t, resp.Simple)

	values, err := cal.ReadProperty(bacnet.PropertyDateList, nil)
	require.NoError(t, err)
	require.Len(t, values, 1)
}

func TestRemoveListElement_RemovesMatchingEntry(t *testing.T) {
	cal := object.NewCalendar(bacnet.NewObjectIdentifier(bacnet.ObjectTypeCalendar, 1), "Holidays")
	cal.AddEntry(dateEntry(2026, 12, 25))
	device := object.NewDevice(1, "test device")
	oid := device.Registry.Create(bacnet.ObjectTypeCalendar, 1, func(bacnet.ObjectIdentifier) object.Object { return cal })

	data := encodeListElementRequest(oid, bacnet.PropertyDateList, dateEntry(2026, 12, 25))

	handler := RemoveListElement(device)
	resp, err := handler(context.Background(), bacnet.Address{}, 1, data)
	require.NoError(t, err)
	require.True(t, resp.Simple)

	values, err := cal.ReadProperty(bacnet.PropertyDateList, nil)
	require.NoError(t, err)
	require.Empty(t, values)
}

func TestAddListElement_UnknownObjectReturnsBACnetError(t *testing.T) {
	device := object.NewDevice(1, "test device")
	missing := bacnet.NewObjectIdentifier(bacnet.ObjectTypeCalendar, 7)
	data := encodeListElementRequest(missing, bacnet.PropertyDateList, dateEntry(2026, 1, 1))

	handler := AddListElement(device)
	_, err := handler(context.Background(), bacnet.Address{}, 1, data)
	require.Error(t, err)
	require.ErrorIs(t, err, &bacnet.BACnetError{Class: bacnet.ErrorClassObject, Code: bacnet.ErrorCodeUnknownObject})
}
