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

func encodeReadAccessSpecs(specs []encoding.ReadAccessSpec) []byte {
	n := 0
	for _, s := range specs {
		n += encoding.EncodeReadAccessSpec(nil, s)
	}
	buf := make([]byte, n)
	off := 0
	for _, s := range specs {
		off += encoding.EncodeReadAccessSpec(buf[off:], s)
	}
	return buf
}

func TestReadPropertyMultiple_UnknownObjectReportsPerPropertyError(t *testing.T) {
	device := object.NewDevice(1, "test device")

	missing := bacnet.NewObjectIdentifier(bacnet.ObjectTypeAnalogInput, 99)
	data := encodeReadAccessSpecs([]encoding.ReadAccessSpec{{
		Object:     missing,
		Properties: []encoding.PropertyReference{{Property: bacnet.PropertyPresentValue}},
	}})

	handler := ReadPropertyMultiple(device)
	resp, err := handler(context.Background(), bacnet.Address{}, 1, data)
	require.NoError(t, err)
	require.NotEmpty(t, resp.Data)
}

func TestReadPropertyMultiple_ResolvesPresentValue(t *testing.T) {
	device := object.NewDevice(1, "test device")
	oid := device.Registry.Create(bacnet.ObjectTypeAnalogInput, bacnet.MaxInstance, func(oid bacnet.ObjectIdentifier) object.Object {
		ai := object.NewAnalogInput(oid, "AI", 0)
		ai.SetPresentValue(21.5)
		return ai
	})

	data := encodeReadAccessSpecs([]encoding.ReadAccessSpec{{
		Object:     oid,
		Properties: []encoding.PropertyReference{{Property: bacnet.PropertyPresentValue}},
	}})

	handler := ReadPropertyMultiple(device)
	resp, err := handler(context.Background(), bacnet.Address{}, 1, data)
	require.NoError(t, err)
	require.NotEmpty(t, resp.Data)
}
