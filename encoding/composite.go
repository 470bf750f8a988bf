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

import "github.com/bacstack/bacstack"

// XYColor is two REALs in 0.0..1.0, the CIE xy chromaticity pair used by
// color objects.
type XYColor struct {
	X float32
	Y float32
}

// EncodeXYColor writes the two bare (untagged) REAL values back to back,
// as used inside a ChannelValue's color-command choice.
func EncodeXYColor(buf []byte, c XYColor) int {
	n := EncodeReal(buf, c.X)
	if buf != nil {
		EncodeReal(buf[n:], c.Y)
	}
	return n + 4
}

// DecodeXYColor reads two bare REAL values.
func DecodeXYColor(buf []byte) (XYColor, int, error) {
	x, err := DecodeReal(buf)
	if err != nil {
		return XYColor{}, 0, err
	}
	y, err := DecodeReal(buf[4:])
	if err != nil {
		return XYColor{}, 0, err
	}
	return XYColor{X: x, Y: y}, 8, nil
}

// LightingOperation enumerates BACnetLightingCommand's Operation field.
type LightingOperation uint32

const (
	LightingNone             LightingOperation = 0
	LightingFadeTo           LightingOperation = 1
	LightingRampTo           LightingOperation = 2
	LightingStepUp           LightingOperation = 3
	LightingStepDown         LightingOperation = 4
	LightingStepOn           LightingOperation = 5
	LightingStepOff          LightingOperation = 6
	LightingWarn             LightingOperation = 7
	LightingWarnOff          LightingOperation = 8
	LightingWarnRelinquish   LightingOperation = 9
	LightingStop             LightingOperation = 10
)

// LightingCommand is BACnetLightingCommand: `[0] Operation, [1]
// target-level?, [2] ramp-rate?, [3] step-increment?, [4] fade-time?, [5]
// priority?`.
type LightingCommand struct {
	Operation      LightingOperation
	TargetLevel    *float32
	RampRate       *float32
	StepIncrement  *float32
	FadeTime       *uint32
	Priority       *uint8
}

// EncodeLightingCommand writes the constructed LightingCommand value.
func EncodeLightingCommand(buf []byte, c LightingCommand) int {
	n := 0
	adv := func(f func([]byte) int) {
		written := f(nil)
		if buf != nil {
			f(buf[n:])
		}
		n += written
	}
	adv(func(b []byte) int { return EncodeContextEnumerated(b, 0, uint32(c.Operation)) })
	if c.TargetLevel != nil {
		v := *c.TargetLevel
		adv(func(b []byte) int { return encodeContextReal(b, 1, v) })
	}
	if c.RampRate != nil {
		v := *c.RampRate
		adv(func(b []byte) int { return encodeContextReal(b, 2, v) })
	}
	if c.StepIncrement != nil {
		v := *c.StepIncrement
		adv(func(b []byte) int { return encodeContextReal(b, 3, v) })
	}
	if c.FadeTime != nil {
		v := *c.FadeTime
		adv(func(b []byte) int { return EncodeContextUnsigned(b, 4, uint64(v)) })
	}
	if c.Priority != nil {
		v := *c.Priority
		adv(func(b []byte) int { return EncodeContextUnsigned(b, 5, uint64(v)) })
	}
	return n
}

func encodeContextReal(buf []byte, tagNum uint8, v float32) int {
	h := EncodeTagHeader(buf, tagNum, TagClassContext, 4)
	if buf != nil {
		EncodeReal(buf[h:], v)
	}
	return h + 4
}

// DecodeLightingCommand parses a constructed LightingCommand value.
func DecodeLightingCommand(buf []byte) (LightingCommand, int, error) {
	var c LightingCommand
	offset := 0

	hdr, err := DecodeTagHeader(buf[offset:])
	if err != nil || hdr.Number != 0 {
		return c, 0, bacnet.ErrInvalidAPDU
	}
	op, err := DecodeEnumerated(buf[offset+hdr.HeaderLen:], hdr.Length)
	if err != nil {
		return c, 0, err
	}
	c.Operation = LightingOperation(op)
	offset += hdr.HeaderLen + hdr.Length

	for offset < len(buf) {
		hdr, err = DecodeTagHeader(buf[offset:])
		if err != nil {
			break
		}
		if hdr.Class != TagClassContext || hdr.IsOpening() || hdr.IsClosing() {
			break
		}
		payload := buf[offset+hdr.HeaderLen:]
		switch hdr.Number {
		case 1, 2, 3:
			v, err := DecodeReal(payload)
			if err != nil {
				return c, 0, err
			}
			switch hdr.Number {
			case 1:
				c.TargetLevel = &v
			case 2:
				c.RampRate = &v
			case 3:
				c.StepIncrement = &v
			}
		case 4:
			v, err := DecodeUnsigned(payload, hdr.Length)
			if err != nil {
				return c, 0, err
			}
			u := uint32(v)
			c.FadeTime = &u
		case 5:
			v, err := DecodeUnsigned(payload, hdr.Length)
			if err != nil {
				return c, 0, err
			}
			p := uint8(v)
			c.Priority = &p
		default:
			return c, offset, nil
		}
		offset += hdr.HeaderLen + hdr.Length
	}
	return c, offset, nil
}

// ColorOperation enumerates BACnetColorCommand's Operation field.
type ColorOperation uint32

const (
	ColorNone     ColorOperation = 0
	ColorFadeTo   ColorOperation = 1
	ColorRampTo   ColorOperation = 2
	ColorStepUp   ColorOperation = 3
	ColorStepDown ColorOperation = 4
)

// ColorCommand is BACnetColorCommand: `[0] Operation, then target/transit
// fields selected by operation` — this repo implements the xy-color
// target plus an optional transit time, the shape the Color object needs.
type ColorCommand struct {
	Operation  ColorOperation
	TargetColor *XYColor
	TransitMS  *uint32
}

// EncodeColorCommand writes the constructed ColorCommand value.
func EncodeColorCommand(buf []byte, c ColorCommand) int {
	n := 0
	adv := func(f func([]byte) int) {
		written := f(nil)
		if buf != nil {
			f(buf[n:])
		}
		n += written
	}
	adv(func(b []byte) int { return EncodeContextEnumerated(b, 0, uint32(c.Operation)) })
	if c.TargetColor != nil {
		tc := *c.TargetColor
		adv(func(b []byte) int { return EncodeOpeningTag(b, 1) })
		adv(func(b []byte) int { return EncodeXYColor(b, tc) })
		adv(func(b []byte) int { return EncodeClosingTag(b, 1) })
	}
	if c.TransitMS != nil {
		v := *c.TransitMS
		adv(func(b []byte) int { return EncodeContextUnsigned(b, 2, uint64(v)) })
	}
	return n
}

// DecodeColorCommand parses a constructed ColorCommand value.
func DecodeColorCommand(buf []byte) (ColorCommand, int, error) {
	var c ColorCommand
	offset := 0

	hdr, err := DecodeTagHeader(buf[offset:])
	if err != nil || hdr.Number != 0 {
		return c, 0, bacnet.ErrInvalidAPDU
	}
	op, err := DecodeEnumerated(buf[offset+hdr.HeaderLen:], hdr.Length)
	if err != nil {
		return c, 0, err
	}
	c.Operation = ColorOperation(op)
	offset += hdr.HeaderLen + hdr.Length

	if offset < len(buf) {
		if hdr, err = DecodeTagHeader(buf[offset:]); err == nil && hdr.Number == 1 && hdr.IsOpening() {
			// The xy-color inside is untagged, so it is read directly
			// rather than tag-scanned with SkipEnclosed.
			xy, n, err := DecodeXYColor(buf[offset+hdr.HeaderLen:])
			if err != nil {
				return c, 0, err
			}
			end := offset + hdr.HeaderLen + n
			closing, err := DecodeTagHeader(buf[end:])
			if err != nil || !closing.IsClosing() || closing.Number != 1 {
				return c, 0, bacnet.ErrInvalidAPDU
			}
			c.TargetColor = &xy
			offset = end + closing.HeaderLen
		}
	}
	if offset < len(buf) {
		if hdr, err = DecodeTagHeader(buf[offset:]); err == nil && hdr.Number == 2 && !hdr.IsOpening() && !hdr.IsClosing() {
			v, err := DecodeUnsigned(buf[offset+hdr.HeaderLen:], hdr.Length)
			if err != nil {
				return c, 0, err
			}
			u := uint32(v)
			c.TransitMS = &u
			offset += hdr.HeaderLen + hdr.Length
		}
	}
	return c, offset, nil
}

// CalendarEntryKind distinguishes the tagged choice inside a
// BACnetCalendarEntry.
type CalendarEntryKind uint8

const (
	CalendarEntryDate      CalendarEntryKind = 0
	CalendarEntryDateRange CalendarEntryKind = 1
	CalendarEntryWeekNDay  CalendarEntryKind = 2
)

// DateRange is the `[start, end]` pair used by CalendarEntryDateRange.
type DateRange struct {
	Start BACnetDate
	End   BACnetDate
}

// WeekNDay packs `month, week-of-month, day-of-week` as used by the
// BACnetCalendarEntry week-n-day choice (3 raw bytes).
type WeekNDay struct {
	Month       uint8
	WeekOfMonth uint8
	DayOfWeek   uint8
}

// CalendarEntry is the tagged choice: Date, DateRange, or WeekNDay.
type CalendarEntry struct {
	Kind      CalendarEntryKind
	Date      BACnetDate
	DateRange DateRange
	WeekNDay  WeekNDay
}

// EncodeCalendarEntry writes the tagged-choice CalendarEntry.
func EncodeCalendarEntry(buf []byte, e CalendarEntry) int {
	switch e.Kind {
	case CalendarEntryDate:
		h := EncodeTagHeader(buf, uint8(CalendarEntryDate), TagClassContext, 4)
		if buf != nil {
			EncodeDate(buf[h:], e.Date)
		}
		return h + 4
	case CalendarEntryDateRange:
		n := 0
		adv := func(f func([]byte) int) {
			written := f(nil)
			if buf != nil {
				f(buf[n:])
			}
			n += written
		}
		adv(func(b []byte) int { return EncodeOpeningTag(b, uint8(CalendarEntryDateRange)) })
		adv(func(b []byte) int { return EncodeDate(b, e.DateRange.Start) })
		adv(func(b []byte) int { return EncodeDate(b, e.DateRange.End) })
		adv(func(b []byte) int { return EncodeClosingTag(b, uint8(CalendarEntryDateRange)) })
		return n
	default:
		h := EncodeTagHeader(buf, uint8(CalendarEntryWeekNDay), TagClassContext, 3)
		if buf != nil {
			buf[h] = e.WeekNDay.Month
			buf[h+1] = e.WeekNDay.WeekOfMonth
			buf[h+2] = e.WeekNDay.DayOfWeek
		}
		return h + 3
	}
}

// DecodeCalendarEntry parses the tagged-choice CalendarEntry.
func DecodeCalendarEntry(buf []byte) (CalendarEntry, int, error) {
	hdr, err := DecodeTagHeader(buf)
	if err != nil {
		return CalendarEntry{}, 0, err
	}
	switch CalendarEntryKind(hdr.Number) {
	case CalendarEntryDate:
		d, err := DecodeDate(buf[hdr.HeaderLen:])
		if err != nil {
			return CalendarEntry{}, 0, err
		}
		return CalendarEntry{Kind: CalendarEntryDate, Date: d}, hdr.HeaderLen + 4, nil
	case CalendarEntryDateRange:
		if !hdr.IsOpening() {
			return CalendarEntry{}, 0, bacnet.ErrInvalidAPDU
		}
		// The two dates inside are untagged, so they are read directly
		// rather than tag-scanned with SkipEnclosed.
		start, err := DecodeDate(buf[hdr.HeaderLen:])
		if err != nil {
			return CalendarEntry{}, 0, err
		}
		end, err := DecodeDate(buf[hdr.HeaderLen+4:])
		if err != nil {
			return CalendarEntry{}, 0, err
		}
		closing, err := DecodeTagHeader(buf[hdr.HeaderLen+8:])
		if err != nil || !closing.IsClosing() || closing.Number != uint8(CalendarEntryDateRange) {
			return CalendarEntry{}, 0, bacnet.ErrInvalidAPDU
		}
		total := hdr.HeaderLen + 8 + closing.HeaderLen
		return CalendarEntry{Kind: CalendarEntryDateRange, DateRange: DateRange{Start: start, End: end}}, total, nil
	case CalendarEntryWeekNDay:
		if len(buf) < hdr.HeaderLen+3 {
			return CalendarEntry{}, 0, bacnet.ErrInvalidAPDU
		}
		w := WeekNDay{Month: buf[hdr.HeaderLen], WeekOfMonth: buf[hdr.HeaderLen+1], DayOfWeek: buf[hdr.HeaderLen+2]}
		return CalendarEntry{Kind: CalendarEntryWeekNDay, WeekNDay: w}, hdr.HeaderLen + 3, nil
	default:
		return CalendarEntry{}, 0, bacnet.ErrInvalidAPDU
	}
}

// ActionCommand is BACnetActionCommand: `[0] DeviceId? [1] ObjectId [2]
// PropId [3] ArrayIdx? [4] { value } [5] prio? [6] postDelay? [7]
// quit-on-failure [8] write-successful`.
type ActionCommand struct {
	DeviceID         *bacnet.ObjectIdentifier
	Object           bacnet.ObjectIdentifier
	Property         bacnet.PropertyIdentifier
	ArrayIndex       *uint32
	Value            []ApplicationValue
	Priority         *uint8
	PostDelayMS      *uint32
	QuitOnFailure    bool
	WriteSuccessful  bool
}

// EncodeActionCommand writes the constructed ActionCommand value.
func EncodeActionCommand(buf []byte, c ActionCommand) int {
	n := 0
	adv := func(f func([]byte) int) {
		written := f(nil)
		if buf != nil {
			f(buf[n:])
		}
		n += written
	}
	if c.DeviceID != nil {
		dev := *c.DeviceID
		adv(func(b []byte) int { return EncodeContextObjectIdentifier(b, 0, dev) })
	}
	adv(func(b []byte) int { return EncodeContextObjectIdentifier(b, 1, c.Object) })
	adv(func(b []byte) int { return EncodeContextEnumerated(b, 2, uint32(c.Property)) })
	if c.ArrayIndex != nil {
		idx := *c.ArrayIndex
		adv(func(b []byte) int { return EncodeContextUnsigned(b, 3, uint64(idx)) })
	}
	adv(func(b []byte) int { return EncodeOpeningTag(b, 4) })
	for _, v := range c.Value {
		adv(func(b []byte) int { return EncodeApplicationValue(b, v) })
	}
	adv(func(b []byte) int { return EncodeClosingTag(b, 4) })
	if c.Priority != nil {
		prio := *c.Priority
		adv(func(b []byte) int { return EncodeContextUnsigned(b, 5, uint64(prio)) })
	}
	if c.PostDelayMS != nil {
		delay := *c.PostDelayMS
		adv(func(b []byte) int { return EncodeContextUnsigned(b, 6, uint64(delay)) })
	}
	adv(func(b []byte) int { return EncodeContextBoolean(b, 7, c.QuitOnFailure) })
	adv(func(b []byte) int { return EncodeContextBoolean(b, 8, c.WriteSuccessful) })
	return n
}

// ChannelValueKind distinguishes whether a ChannelValue carries a bare
// application-tagged primitive or one of the opening-tagged composite
// choices.
type ChannelValueKind uint8

const (
	ChannelValuePrimitive ChannelValueKind = iota
	ChannelValueLighting
	ChannelValueColor
	ChannelValueXYColor
)

// ChannelValue is: application-tagged primitive OR opening-tagged
// `{0:LightingCmd | 1:ColorCmd | 2:xyColor}`.
type ChannelValue struct {
	Kind      ChannelValueKind
	Primitive ApplicationValue
	Lighting  LightingCommand
	Color     ColorCommand
	XYColor   XYColor
}

// EncodeChannelValue writes the tagged-choice ChannelValue.
func EncodeChannelValue(buf []byte, v ChannelValue) int {
	switch v.Kind {
	case ChannelValuePrimitive:
		return EncodeApplicationValue(buf, v.Primitive)
	case ChannelValueLighting:
		n := 0
		adv := func(f func([]byte) int) {
			written := f(nil)
			if buf != nil {
				f(buf[n:])
			}
			n += written
		}
		adv(func(b []byte) int { return EncodeOpeningTag(b, 0) })
		adv(func(b []byte) int { return EncodeLightingCommand(b, v.Lighting) })
		adv(func(b []byte) int { return EncodeClosingTag(b, 0) })
		return n
	case ChannelValueColor:
		n := 0
		adv := func(f func([]byte) int) {
			written := f(nil)
			if buf != nil {
				f(buf[n:])
			}
			n += written
		}
		adv(func(b []byte) int { return EncodeOpeningTag(b, 1) })
		adv(func(b []byte) int { return EncodeColorCommand(b, v.Color) })
		adv(func(b []byte) int { return EncodeClosingTag(b, 1) })
		return n
	default:
		n := 0
		adv := func(f func([]byte) int) {
			written := f(nil)
			if buf != nil {
				f(buf[n:])
			}
			n += written
		}
		adv(func(b []byte) int { return EncodeOpeningTag(b, 2) })
		adv(func(b []byte) int { return EncodeXYColor(b, v.XYColor) })
		adv(func(b []byte) int { return EncodeClosingTag(b, 2) })
		return n
	}
}

// DecodeChannelValue parses the tagged-choice ChannelValue.
func DecodeChannelValue(buf []byte) (ChannelValue, int, error) {
	hdr, err := DecodeTagHeader(buf)
	if err != nil {
		return ChannelValue{}, 0, err
	}
	if hdr.Class == TagClassApplication {
		v, n, err := DecodeApplicationValue(buf)
		if err != nil {
			return ChannelValue{}, 0, err
		}
		return ChannelValue{Kind: ChannelValuePrimitive, Primitive: v}, n, nil
	}
	if !hdr.IsOpening() {
		return ChannelValue{}, 0, bacnet.ErrInvalidAPDU
	}
	switch hdr.Number {
	case 0:
		inner, total, err := SkipEnclosed(buf, 0)
		if err != nil {
			return ChannelValue{}, 0, err
		}
		lc, _, err := DecodeLightingCommand(inner)
		if err != nil {
			return ChannelValue{}, 0, err
		}
		return ChannelValue{Kind: ChannelValueLighting, Lighting: lc}, total, nil
	case 1:
		cc, n, err := DecodeColorCommand(buf[hdr.HeaderLen:])
		if err != nil {
			return ChannelValue{}, 0, err
		}
		end := hdr.HeaderLen + n
		closing, err := DecodeTagHeader(buf[end:])
		if err != nil || !closing.IsClosing() || closing.Number != 1 {
			return ChannelValue{}, 0, bacnet.ErrInvalidAPDU
		}
		return ChannelValue{Kind: ChannelValueColor, Color: cc}, end + closing.HeaderLen, nil
	default:
		xy, n, err := DecodeXYColor(buf[hdr.HeaderLen:])
		if err != nil {
			return ChannelValue{}, 0, err
		}
		end := hdr.HeaderLen + n
		closing, err := DecodeTagHeader(buf[end:])
		if err != nil || !closing.IsClosing() || closing.Number != 2 {
			return ChannelValue{}, 0, bacnet.ErrInvalidAPDU
		}
		return ChannelValue{Kind: ChannelValueXYColor, XYColor: xy}, end + closing.HeaderLen, nil
	}
}
