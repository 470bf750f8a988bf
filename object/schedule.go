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

// TimeValue pairs a time-of-day with the value that becomes active at
// that time, the building block of Schedule's Weekly_Schedule.
type TimeValue struct {
	Time  encoding.BACnetTime
	Value encoding.ApplicationValue
}

// Schedule evaluates a weekly time-of-day table (with day-specific
// exceptions taking priority) into a single Present_Value, and fans that
// value out to every object/property listed in List_Of_Object_Property_References
// whenever it changes. Matching the original device's scheduler, weekday
// 1 is Monday.
type Schedule struct {
	Common
	Weekly          [7][]TimeValue // index 0 = Monday .. 6 = Sunday
	Exceptions      map[encoding.BACnetDate][]TimeValue
	Default         encoding.ApplicationValue
	References      []ScheduleTarget
	present         encoding.ApplicationValue
	WriteFunc       func(target ScheduleTarget, value encoding.ApplicationValue)
}

// ScheduleTarget names an (object, property[, priority]) destination a
// Schedule writes its Present_Value into on change.
type ScheduleTarget struct {
	Object   bacnet.ObjectIdentifier
	Property bacnet.PropertyIdentifier
	Priority *uint8
}

// NewSchedule constructs a Schedule whose Present_Value is def until an
// Evaluate call finds a matching entry.
func NewSchedule(oid bacnet.ObjectIdentifier, name string, def encoding.ApplicationValue) *Schedule {
	return &Schedule{
		Common:     Common{OID: oid, Name: name},
		Exceptions: make(map[encoding.BACnetDate][]TimeValue),
		Default:    def,
		present:    def,
	}
}

// Evaluate recomputes Present_Value for the given date/time/weekday
// (1=Monday..7=Sunday), applying the day's exception list if one exists
// for that date, else the matching weekly-schedule day, else Default. On
// a change it invokes WriteFunc once per reference in References.
func (s *Schedule) Evaluate(date encoding.BACnetDate, now encoding.BACnetTime) {
	day := scheduleWeekdayIndex(date.Weekday)
	var entries []TimeValue
	if ex, ok := s.Exceptions[date]; ok {
		entries = ex
	} else if day >= 0 && day < 7 {
		entries = s.Weekly[day]
	}

	next := s.Default
	for _, tv := range entries {
		if !timeAfter(tv.Time, now) {
			next = tv.Value
		}
	}

	if !applicationValueEqual(next, s.present) {
		s.present = next
		for _, ref := range s.References {
			if s.WriteFunc != nil {
				s.WriteFunc(ref, next)
			}
		}
	}
}

func scheduleWeekdayIndex(weekday uint8) int {
	if weekday < 1 || weekday > 7 {
		return -1
	}
	return int(weekday) - 1
}

func timeAfter(t, now encoding.BACnetTime) bool {
	a := int(t.Hour)*3600 + int(t.Minute)*60 + int(t.Second)
	b := int(now.Hour)*3600 + int(now.Minute)*60 + int(now.Second)
	return a > b
}

func applicationValueEqual(a, b encoding.ApplicationValue) bool {
	if a.Tag != b.Tag || len(a.Raw) != len(b.Raw) {
		return false
	}
	for i := range a.Raw {
		if a.Raw[i] != b.Raw[i] {
			return false
		}
	}
	return true
}

func (s *Schedule) PropertyList() []PropertyListEntry {
	return append(append([]PropertyListEntry{}, CommonPropertyList...),
		PropertyListEntry{Property: bacnet.PropertyPresentValue, Requirement: Required},
		PropertyListEntry{Property: bacnet.PropertyWeeklySchedule, Requirement: Optional, IsArray: true},
		PropertyListEntry{Property: bacnet.PropertyScheduleDefault, Requirement: Required},
		PropertyListEntry{Property: bacnet.PropertyListOfObjectPropertyReferences, Requirement: Required, IsArray: true},
	)
}

func (s *Schedule) ReadProperty(prop bacnet.PropertyIdentifier, arrayIndex *uint32) ([]encoding.ApplicationValue, error) {
	if v, ok := s.ReadCommon(bacnet.ObjectTypeSchedule, prop); ok {
		return v, nil
	}
	switch prop {
	case bacnet.PropertyPresentValue:
		return []encoding.ApplicationValue{s.present}, nil
	case bacnet.PropertyScheduleDefault:
		return []encoding.ApplicationValue{s.Default}, nil
	default:
		return nil, ErrUnknownProperty()
	}
}

func (s *Schedule) WriteProperty(prop bacnet.PropertyIdentifier, arrayIndex *uint32, value []encoding.ApplicationValue, priority *uint8) error {
	if err, ok := s.WriteCommon(prop, value); ok {
		return err
	}
	if prop == bacnet.PropertyScheduleDefault && len(value) == 1 {
		s.Default = value[0]
		return nil
	}
	return ErrWriteAccessDenied()
}
