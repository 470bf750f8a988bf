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

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bacstack/bacstack"
	"github.com/bacstack/bacstack/object"
)

func TestBuildDevice_PopulatesSamplePoints(t *testing.T) {
	deviceInstance = 99
	deviceName = "test device"
	vendorName = "acme"
	vendorIdentifier = 7
	modelName = "model-x"

	device, registry := buildDevice()

	assert.Equal(t, "test device", device.ObjectName())
	assert.Equal(t, "acme", device.VendorName)
	assert.Equal(t, uint32(7), device.VendorIdentifier)

	require.Equal(t, 1, registry.Count(bacnet.ObjectTypeAnalogInput))
	require.Equal(t, 1, registry.Count(bacnet.ObjectTypeAnalogOutput))
	require.Equal(t, 1, registry.Count(bacnet.ObjectTypeBinaryInput))
	require.Equal(t, 1, registry.Count(bacnet.ObjectTypeBinaryOutput))

	obj, ok := registry.Get(bacnet.NewObjectIdentifier(bacnet.ObjectTypeAnalogInput, 1))
	require.True(t, ok)
	ai, ok := obj.(*object.AnalogInput)
	require.True(t, ok)
	assert.Equal(t, float32(72.0), ai.PresentValue)
	assert.Equal(t, "Zone Temperature", ai.ObjectName())
}
