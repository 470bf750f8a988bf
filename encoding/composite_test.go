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

package encoding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestXYColor_RoundTrip(t *testing.T) {
	c := XYColor{X: 0.313, Y: 0.329}
	buf := make([]byte, EncodeXYColor(nil, c))
	EncodeXYColor(buf, c)
	got, n, err := DecodeXYColor(buf)
	require.NoError(t, err)
	assert.Equal(t, 8, n)
	assert.Equal(t, c, got)
}

func TestLightingCommand_RoundTrip_AllFields(t *testing.T) {
	target := float32(75.0)
	rate := float32(10.0)
	step := float32(1.0)
	fade := uint32(500)
	prio := uint8(8)
	cmd := LightingCommand{
		Operation:     LightingFadeTo,
		TargetLevel:   &target,
		RampRate:      &rate,
		StepIncrement: &step,
		FadeTime:      &fade,
		Priority:      &prio,
	}
	n := EncodeLightingCommand(nil, cmd)
	buf := make([]byte, n)
	EncodeLightingCommand(buf, cmd)

	got, consumed, err := DecodeLightingCommand(buf)
	require.NoError(t, err)
	assert.Equal(t, n, consumed)
	assert.Equal(t, cmd.Operation, got.Operation)
	require.NotNil(t, got.TargetLevel)
	assert.Equal(t, target, *got.TargetLevel)
	require.NotNil(t, got.FadeTime)
	assert.Equal(t, fade, *got.FadeTime)
	require.NotNil(t, got.Priority)
	assert.Equal(t, prio, *got.Priority)
}

func TestLightingCommand_RoundTrip_OperationOnly(t *testing.T) {
	cmd := LightingCommand{Operation: LightingStop}
	n := EncodeLightingCommand(nil, cmd)
	buf := make([]byte, n)
	EncodeLightingCommand(buf, cmd)

	got, consumed, err := DecodeLightingCommand(buf)
	require.NoError(t, err)
	assert.Equal(t, n, consumed)
	assert.Equal(t, LightingStop, got.Operation)
	assert.Nil(t, got.TargetLevel)
	assert.Nil(t, got.Priority)
}

func TestColorCommand_RoundTrip_WithTargetAndTransit(t *testing.T) {
	xy := XYColor{X: 0.4, Y: 0.4}
	transit := uint32(2000)
	cmd := ColorCommand{Operation: ColorFadeTo, TargetColor: &xy, TransitMS: &transit}
	n := EncodeColorCommand(nil, cmd)
	buf := make([]byte, n)
	EncodeColorCommand(buf, cmd)

	got, consumed, err := DecodeColorCommand(buf)
	require.NoError(t, err)
	assert.Equal(t, n, consumed)
	assert.Equal(t, cmd.Operation, got.Operation)
	require.NotNil(t, got.TargetColor)
	assert.Equal(t, xy, *got.TargetColor)
	require.NotNil(t, got.TransitMS)
	assert.Equal(t, transit, *got.TransitMS)
}

func TestCalendarEntry_RoundTrip_Date(t *testing.T) {
	e := CalendarEntry{Kind: CalendarEntryDate, Date: BACnetDate{Year: 2026, Month: 12, Day: 25}}
	n := EncodeCalendarEntry(nil, e)
	buf := make([]byte, n)
	EncodeCalendarEntry(buf, e)

	got, consumed, err := DecodeCalendarEntry(buf)
	require.NoError(t, err)
	assert.Equal(t, n, consumed)
	assert.Equal(t, CalendarEntryDate, got.Kind)
	assert.Equal(t, e.Date, got.Date)
}

func TestCalendarEntry_RoundTrip_DateRange(t *testing.T) {
	e := CalendarEntry{
		Kind: CalendarEntryDateRange,
		DateRange: DateRange{
			Start: BACnetDate{Year: 2026, Month: 1, Day: 1},
			End:   BACnetDate{Year: 2026, Month: 12, Day: 31},
		},
	}
	n := EncodeCalendarEntry(nil, e)
	buf := make([]byte, n)
	EncodeCalendarEntry(buf, e)

	got, consumed, err := DecodeCalendarEntry(buf)
	require.NoError(t, err)
	assert.Equal(t, n, consumed)
	assert.Equal(t, CalendarEntryDateRange, got.Kind)
	assert.Equal(t, e.DateRange, got.DateRange)
}

func TestCalendarEntry_RoundTrip_WeekNDay(t *testing.T) {
	e := CalendarEntry{Kind: CalendarEntryWeekNDay, WeekNDay: WeekNDay{Month: 6, WeekOfMonth: 2, DayOfWeek: 3}}
	n := EncodeCalendarEntry(nil, e)
	buf := make([]byte, n)
	EncodeCalendarEntry(buf, e)

	got, consumed, err := DecodeCalendarEntry(buf)
	require.NoError(t, err)
	assert.Equal(t, n, consumed)
	assert.Equal(t, CalendarEntryWeekNDay, got.Kind)
	assert.Equal(t, e.WeekNDay, got.WeekNDay)
}

func TestChannelValue_RoundTrip_Primitive(t *testing.T) {
	prim := realValue(42.0)
	cv := ChannelValue{Kind: ChannelValuePrimitive, Primitive: prim}
	n := EncodeChannelValue(nil, cv)
	buf := make([]byte, n)
	EncodeChannelValue(buf, cv)

	got, consumed, err := DecodeChannelValue(buf)
	require.NoError(t, err)
	assert.Equal(t, n, consumed)
	assert.Equal(t, ChannelValuePrimitive, got.Kind)
	assert.Equal(t, prim.Raw, got.Primitive.Raw)
}

func TestChannelValue_RoundTrip_Lighting(t *testing.T) {
	cv := ChannelValue{Kind: ChannelValueLighting, Lighting: LightingCommand{Operation: LightingStepUp}}
	n := EncodeChannelValue(nil, cv)
	buf := make([]byte, n)
	EncodeChannelValue(buf, cv)

	got, consumed, err := DecodeChannelValue(buf)
	require.NoError(t, err)
	assert.Equal(t, n, consumed)
	assert.Equal(t, ChannelValueLighting, got.Kind)
	assert.Equal(t, LightingStepUp, got.Lighting.Operation)
}

func TestChannelValue_RoundTrip_XYColor(t *testing.T) {
	cv := ChannelValue{Kind: ChannelValueXYColor, XYColor: XYColor{X: 0.1, Y: 0.2}}
	n := EncodeChannelValue(nil, cv)
	buf := make([]byte, n)
	EncodeChannelValue(buf, cv)

	got, consumed, err := DecodeChannelValue(buf)
	require.NoError(t, err)
	assert.Equal(t, n, consumed)
	assert.Equal(t, ChannelValueXYColor, got.Kind)
	assert.Equal(t, cv.XYColor, got.XYColor)
}
