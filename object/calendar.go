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

// Calendar holds an unordered set of BACnetCalendarEntry values
// (Date_List) and reports Present_Value true on any day matching one of
// them. AddListElement/RemoveListElement suppress duplicates by encoded
// byte-span equality rather than Go struct equality, matching the wire
// semantics of "same entry" regardless of how it was constructed.
type Calendar struct {
	Common
	entries []encoding.CalendarEntry
	raw     [][]byte
	today   encoding.BACnetDate
}

// NewCalendar constructs an empty Calendar.
func NewCalendar(oid bacnet.ObjectIdentifier, name string) *Calendar {
	return &Calendar{Common: Common{OID: oid, Name: name}}
}

// SetToday updates the date Present_Value is evaluated against, as the
// device's clock service would do once per day.
func (c *Calendar) SetToday(d encoding.BACnetDate) { c.today = d }

// AddEntry appends an entry to Date_List unless an entry with the same
// encoded representation is already present.
func (c *Calendar) AddEntry(e encoding.CalendarEntry) bool {
	n := encoding.EncodeCalendarEntry(nil, e)
	buf := make([]byte, n)
	encoding.EncodeCalendarEntry(buf, e)
	for _, existing := range c.raw {
		if bytesEqualLocal(existing, buf) {
			return false
		}
	}
	c.entries = append(c.entries, e)
	c.raw = append(c.raw, buf)
	return true
}

// RemoveEntry deletes the entry matching e's encoded representation, if
// present, and reports whether anything was removed.
func (c *Calendar) RemoveEntry(e encoding.CalendarEntry) bool {
	n := encoding.EncodeCalendarEntry(nil, e)
	buf := make([]byte, n)
	encoding.EncodeCalendarEntry(buf, e)
	for i, existing := range c.raw {
		if bytesEqualLocal(existing, buf) {
			c.entries = append(c.entries[:i], c.entries[i+1:]...)
			c.raw = append(c.raw[:i], c.raw[i+1:]...)
			return true
		}
	}
	return false
}

func bytesEqualLocal(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// PresentValue reports whether Today matches any calendar entry.
func (c *Calendar) PresentValue() bool {
	for _, e := range c.entries {
		if matchesCalendarEntry(e, c.today) {
			return true
		}
	}
	return false
}

func matchesCalendarEntry(e encoding.CalendarEntry, d encoding.BACnetDate) bool {
	switch e.Kind {
	case encoding.CalendarEntryDate:
		return dateMatches(e.Date, d)
	case encoding.CalendarEntryDateRange:
		return dateInRange(e.DateRange.Start, e.DateRange.End, d)
	case encoding.CalendarEntryWeekNDay:
		return weekNDayMatches(e.WeekNDay, d)
	default:
		return false
	}
}

func dateMatches(a, b encoding.BACnetDate) bool {
	return wildcardOrEqual(a.Year, b.Year) && wildcardOrEqual(uint16(a.Month), uint16(b.Month)) && wildcardOrEqual(uint16(a.Day), uint16(b.Day))
}

func wildcardOrEqual(a, b uint16) bool { return a == 0xFF || a == b }

func dateInRange(start, end, d encoding.BACnetDate) bool {
	lo := dateOrdinal(start)
	hi := dateOrdinal(end)
	x := dateOrdinal(d)
	return x >= lo && x <= hi
}

func dateOrdinal(d encoding.BACnetDate) int {
	return int(d.Year)*372 + int(d.Month)*31 + int(d.Day)
}

func weekNDayMatches(w encoding.WeekNDay, d encoding.BACnetDate) bool {
	if w.Month != 0xFF && w.Month != d.Month {
		return false
	}
	if w.DayOfWeek != 0xFF && w.DayOfWeek != d.Weekday {
		return false
	}
	if w.WeekOfMonth == 0xFF {
		return true
	}
	week := uint8((d.Day-1)/7 + 1)
	if w.WeekOfMonth <= 6 {
		return week == w.WeekOfMonth
	}
	// 7=last 7 days, 8=6th-to-last week ... approximate via days-from-end.
	return int(d.Day) > 28-7*(13-int(w.WeekOfMonth))
}

func (c *Calendar) PropertyList() []PropertyListEntry {
	return append(append([]PropertyListEntry{}, CommonPropertyList...),
		PropertyListEntry{Property: bacnet.PropertyPresentValue, Requirement: Required},
		PropertyListEntry{Property: bacnet.PropertyDateList, Requirement: Required, IsArray: true},
	)
}

func (c *Calendar) ReadProperty(prop bacnet.PropertyIdentifier, arrayIndex *uint32) ([]encoding.ApplicationValue, error) {
	if v, ok := c.ReadCommon(bacnet.ObjectTypeCalendar, prop); ok {
		return v, nil
	}
	switch prop {
	case bacnet.PropertyPresentValue:
		return oneBoolean(c.PresentValue()), nil
	case bacnet.PropertyDateList:
		out := make([]encoding.ApplicationValue, 0, len(c.raw))
		for _, b := range c.raw {
			out = append(out, encoding.ApplicationValue{Raw: b})
		}
		return out, nil
	default:
		return nil, ErrUnknownProperty()
	}
}

func (c *Calendar) WriteProperty(prop bacnet.PropertyIdentifier, arrayIndex *uint32, value []encoding.ApplicationValue, priority *uint8) error {
	if err, ok := c.WriteCommon(prop, value); ok {
		return err
	}
	return ErrWriteAccessDenied()
}

// AddListElement implements the AddListElement service for Date_List,
// appending entries from raw (each a fully-encoded BACnetCalendarEntry
// span) while suppressing duplicates.
func (c *Calendar) AddListElement(prop bacnet.PropertyIdentifier, raw []byte) error {
	if prop != bacnet.PropertyDateList {
		return ErrUnknownProperty()
	}
	for len(raw) > 0 {
		e, n, err := encoding.DecodeCalendarEntry(raw)
		if err != nil {
			return ErrInvalidDataType()
		}
		c.AddEntry(e)
		raw = raw[n:]
	}
	return nil
}

// RemoveListElement implements the RemoveListElement service for Date_List.
func (c *Calendar) RemoveListElement(prop bacnet.PropertyIdentifier, raw []byte) error {
	if prop != bacnet.PropertyDateList {
		return ErrUnknownProperty()
	}
	for len(raw) > 0 {
		e, n, err := encoding.DecodeCalendarEntry(raw)
		if err != nil {
			return ErrInvalidDataType()
		}
		c.RemoveEntry(e)
		raw = raw[n:]
	}
	return nil
}
