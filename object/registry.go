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

// Package object implements the L5 object model: the per-type keyed
// object table, generic ReadProperty/WriteProperty dispatch, the
// commandable present-value priority array, change-of-value detection,
// and the illustrative object types (device, analog, binary, multi-state,
// calendar, schedule, command, channel, color, color-temperature, timer,
// notification-class, event-enrollment).
package object

import (
	"sort"
	"sync"

	"github.com/bacstack/bacstack"
	"github.com/bacstack/bacstack/encoding"
)

// RequirementLevel classifies a property for Property-List purposes.
type RequirementLevel uint8

const (
	Required RequirementLevel = iota
	Optional
	Proprietary
)

// PropertyListEntry describes one property an object type exposes, for
// the generic dispatch layer and the standard Property_List property.
type PropertyListEntry struct {
	Property    bacnet.PropertyIdentifier
	Requirement RequirementLevel
	IsArray     bool
}

// Object is the vtable every object type implements; the dispatch layer
// (Device.ReadProperty/WriteProperty) consumes it without knowing the
// concrete type.
type Object interface {
	Identifier() bacnet.ObjectIdentifier
	ObjectName() string
	PropertyList() []PropertyListEntry
	ReadProperty(prop bacnet.PropertyIdentifier, arrayIndex *uint32) ([]encoding.ApplicationValue, error)
	WriteProperty(prop bacnet.PropertyIdentifier, arrayIndex *uint32, value []encoding.ApplicationValue, priority *uint8) error
}

// Tickable is implemented by object types with time-driven internal state
// (e.g. Binary Lighting Output's egress timer). Registry.Tick calls every
// registered Tickable once per run-loop tick.
type Tickable interface {
	Tick(elapsedMS uint32)
}

// COVSubject is implemented by object types that can report a
// change-of-value candidate value for their present-value-equivalent
// property, letting the generic COV detector compare increments without
// type-switching on every concrete object.
type COVSubject interface {
	COVValue() (value float64, ok bool)
}

// typeTable is the keyed list for one object type: instances kept in
// insertion order, looked up by instance number.
type typeTable struct {
	order     []uint32
	byInstance map[uint32]Object
}

func newTypeTable() *typeTable {
	return &typeTable{byInstance: make(map[uint32]Object)}
}

func (t *typeTable) insert(instance uint32, obj Object) {
	if _, exists := t.byInstance[instance]; !exists {
		t.order = append(t.order, instance)
	}
	t.byInstance[instance] = obj
}

func (t *typeTable) delete(instance uint32) {
	if _, ok := t.byInstance[instance]; !ok {
		return
	}
	delete(t.byInstance, instance)
	for i, inst := range t.order {
		if inst == instance {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
}

func (t *typeTable) nextFreeInstance() uint32 {
	used := make(map[uint32]bool, len(t.order))
	for _, inst := range t.order {
		used[inst] = true
	}
	for i := uint32(1); i < bacnet.MaxInstance; i++ {
		if !used[i] {
			return i
		}
	}
	return bacnet.MaxInstance
}

// Registry is the object-table: a keyed list per object type, keyed by
// instance number, preserving insertion order within each type.
type Registry struct {
	mu     sync.RWMutex
	tables map[bacnet.ObjectType]*typeTable
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{tables: make(map[bacnet.ObjectType]*typeTable)}
}

// Create registers obj under its own identifier, resolving a wildcard
// instance (bacnet.MaxInstance) to the next unused instance of that type.
// It returns the identifier actually assigned.
func (r *Registry) Create(objType bacnet.ObjectType, instance uint32, build func(bacnet.ObjectIdentifier) Object) bacnet.ObjectIdentifier {
	r.mu.Lock()
	defer r.mu.Unlock()
	table, ok := r.tables[objType]
	if !ok {
		table = newTypeTable()
		r.tables[objType] = table
	}
	if instance == bacnet.MaxInstance {
		instance = table.nextFreeInstance()
	}
	oid := bacnet.NewObjectIdentifier(objType, instance)
	table.insert(instance, build(oid))
	return oid
}

// Delete removes an object from the registry.
func (r *Registry) Delete(oid bacnet.ObjectIdentifier) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if table, ok := r.tables[oid.Type]; ok {
		table.delete(oid.Instance)
	}
}

// Get looks up an object by identifier.
func (r *Registry) Get(oid bacnet.ObjectIdentifier) (Object, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	table, ok := r.tables[oid.Type]
	if !ok {
		return nil, false
	}
	obj, ok := table.byInstance[oid.Instance]
	return obj, ok
}

// Count returns the number of instances of the given object type.
func (r *Registry) Count(objType bacnet.ObjectType) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if table, ok := r.tables[objType]; ok {
		return len(table.order)
	}
	return 0
}

// IndexToInstance maps a 1-based index within an object type's table to
// its instance number, matching BACnet's "Index_To_Instance" helper.
func (r *Registry) IndexToInstance(objType bacnet.ObjectType, index int) (uint32, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	table, ok := r.tables[objType]
	if !ok || index < 1 || index > len(table.order) {
		return 0, false
	}
	return table.order[index-1], true
}

// ValidInstance reports whether instance exists within objType's table.
func (r *Registry) ValidInstance(objType bacnet.ObjectType, instance uint32) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	table, ok := r.tables[objType]
	if !ok {
		return false
	}
	_, ok = table.byInstance[instance]
	return ok
}

// All returns every object in the registry, ordered by object type then
// insertion order, as used to build Device's Object_List property.
func (r *Registry) All() []Object {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var types []int
	for t := range r.tables {
		types = append(types, int(t))
	}
	sort.Ints(types)
	var out []Object
	for _, t := range types {
		table := r.tables[bacnet.ObjectType(t)]
		for _, inst := range table.order {
			out = append(out, table.byInstance[inst])
		}
	}
	return out
}

// Tick calls every registered Tickable object once.
func (r *Registry) Tick(elapsedMS uint32) {
	for _, obj := range r.All() {
		if t, ok := obj.(Tickable); ok {
			t.Tick(elapsedMS)
		}
	}
}
