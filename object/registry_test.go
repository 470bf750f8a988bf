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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bacstack/bacstack"
	"github.com/bacstack/bacstack/encoding"
)

type fakeObject struct {
	oid   bacnet.ObjectIdentifier
	name  string
	ticks int
}

func (f *fakeObject) Identifier() bacnet.ObjectIdentifier { return f.oid }
func (f *fakeObject) ObjectName() string                  { return f.name }
func (f *fakeObject) PropertyList() []PropertyListEntry   { return nil }
func (f *fakeObject) ReadProperty(bacnet.PropertyIdentifier, *uint32) ([]encoding.ApplicationValue, error) {
	return nil, nil
}
func (f *fakeObject) WriteProperty(bacnet.PropertyIdentifier, *uint32, []encoding.ApplicationValue, *uint8) error {
	return nil
}
func (f *fakeObject) Tick(elapsedMS uint32) { f.ticks++ }

func TestRegistry_CreateAssignsWildcardInstance(t *testing.T) {
	r := NewRegistry()
	first := r.Create(bacnet.ObjectTypeAnalogInput, bacnet.MaxInstance, func(oid bacnet.ObjectIdentifier) Object {
		return &fakeObject{oid: oid, name: "ai-a"}
	})
	second := r.Create(bacnet.ObjectTypeAnalogInput, bacnet.MaxInstance, func(oid bacnet.ObjectIdentifier) Object {
		return &fakeObject{oid: oid, name: "ai-b"}
	})
	assert.NotEqual(t, first.Instance, second.Instance)
	assert.Equal(t, 2, r.Count(bacnet.ObjectTypeAnalogInput))
}

func TestRegistry_CreateHonorsExplicitInstance(t *testing.T) {
	r := NewRegistry()
	oid := r.Create(bacnet.ObjectTypeAnalogInput, 7, func(oid bacnet.ObjectIdentifier) Object {
		return &fakeObject{oid: oid, name: "ai-7"}
	})
	assert.Equal(t, uint32(7), oid.Instance)
	assert.True(t, r.ValidInstance(bacnet.ObjectTypeAnalogInput, 7))
}

func TestRegistry_AllPreservesInsertionOrderPerType(t *testing.T) {
	r := NewRegistry()
	r.Create(bacnet.ObjectTypeAnalogInput, 3, func(oid bacnet.ObjectIdentifier) Object {
		return &fakeObject{oid: oid, name: "third"}
	})
	r.Create(bacnet.ObjectTypeAnalogInput, 1, func(oid bacnet.ObjectIdentifier) Object {
		return &fakeObject{oid: oid, name: "first"}
	})
	all := r.All()
	require.Len(t, all, 2)
	assert.Equal(t, "third", all[0].ObjectName())
	assert.Equal(t, "first", all[1].ObjectName())
}

func TestRegistry_IndexToInstance(t *testing.T) {
	r := NewRegistry()
	r.Create(bacnet.ObjectTypeAnalogInput, 10, func(oid bacnet.ObjectIdentifier) Object {
		return &fakeObject{oid: oid}
	})
	r.Create(bacnet.ObjectTypeAnalogInput, 20, func(oid bacnet.ObjectIdentifier) Object {
		return &fakeObject{oid: oid}
	})

	inst, ok := r.IndexToInstance(bacnet.ObjectTypeAnalogInput, 1)
	require.True(t, ok)
	assert.Equal(t, uint32(10), inst)

	_, ok = r.IndexToInstance(bacnet.ObjectTypeAnalogInput, 0)
	assert.False(t, ok)
	_, ok = r.IndexToInstance(bacnet.ObjectTypeAnalogInput, 3)
	assert.False(t, ok)
}

func TestRegistry_DeleteRemovesFromOrderAndLookup(t *testing.T) {
	r := NewRegistry()
	r.Create(bacnet.ObjectTypeAnalogInput, 1, func(oid bacnet.ObjectIdentifier) Object {
		return &fakeObject{oid: oid}
	})
	r.Delete(bacnet.NewObjectIdentifier(bacnet.ObjectTypeAnalogInput, 1))
	assert.Equal(t, 0, r.Count(bacnet.ObjectTypeAnalogInput))
	_, ok := r.Get(bacnet.NewObjectIdentifier(bacnet.ObjectTypeAnalogInput, 1))
	assert.False(t, ok)
}

func TestRegistry_TickCallsEveryTickable(t *testing.T) {
	r := NewRegistry()
	obj := &fakeObject{oid: bacnet.NewObjectIdentifier(bacnet.ObjectTypeAnalogInput, 1)}
	r.Create(bacnet.ObjectTypeAnalogInput, 1, func(bacnet.ObjectIdentifier) Object { return obj })
	r.Tick(100)
	r.Tick(100)
	assert.Equal(t, 2, obj.ticks)
}
