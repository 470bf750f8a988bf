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

import "github.com/bacstack/bacstack"

// COVIncrementer is implemented by object types whose change-of-value
// test uses a configured increment (the analog types) rather than
// reporting on every change (binary/multi-state types only implement
// COVSubject).
type COVIncrementer interface {
	COVIncrementValue() float64
}

// COVEvent is one detected change-of-value, reported to Notification
// callbacks registered with a COVDetector.
type COVEvent struct {
	Object bacnet.ObjectIdentifier
	Type   bacnet.ObjectType
	Value  float64
}

// COVListener is called once per detected change.
type COVListener func(COVEvent)

// COVDetector polls a Registry's COVSubject objects once per Poll call
// and reports a COVEvent for any object whose value moved by more than
// its configured increment (defaulting to "any change" for object types
// with no increment, i.e. binary and multi-state objects).
type COVDetector struct {
	registry *Registry
	last     map[bacnet.ObjectIdentifier]float64
	listener COVListener
}

// NewCOVDetector constructs a detector over registry that reports
// changes to listener.
func NewCOVDetector(registry *Registry, listener COVListener) *COVDetector {
	return &COVDetector{registry: registry, last: make(map[bacnet.ObjectIdentifier]float64), listener: listener}
}

// Poll evaluates every COVSubject in the registry and fires the listener
// for any that moved beyond its increment since the previous Poll.
func (d *COVDetector) Poll() {
	for _, obj := range d.registry.All() {
		subject, ok := obj.(COVSubject)
		if !ok {
			continue
		}
		value, ok := subject.COVValue()
		if !ok {
			continue
		}
		oid := obj.Identifier()
		prev, seen := d.last[oid]
		d.last[oid] = value
		if !seen {
			continue
		}
		delta := value - prev
		if delta < 0 {
			delta = -delta
		}
		increment := 0.0
		if inc, ok := obj.(COVIncrementer); ok {
			increment = inc.COVIncrementValue()
		}
		if delta > increment {
			d.listener(COVEvent{Object: oid, Type: oid.Type, Value: value})
		}
	}
}
