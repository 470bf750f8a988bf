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

// ApplicationValue is a decoded primitive value tagged with its
// application tag number, used wherever an "opaque property-value
// payload" (one or more application- or constructed-tagged values) needs
// to travel through service codecs without being pre-committed to a Go
// type. Encode must have been produced by one of the EncodeXxxTag
// functions in this package; Raw holds that exact tag-and-value span.
type ApplicationValue struct {
	Tag ApplicationTag
	Raw []byte
}

// EncodeApplicationValue copies the already-tagged bytes verbatim; callers
// build Raw with the EncodeXxxTag helpers so dual-mode composition still
// works (pass buf == nil, sum the returned lengths, then pass a real buf).
func EncodeApplicationValue(buf []byte, v ApplicationValue) int {
	if buf != nil {
		copy(buf, v.Raw)
	}
	return len(v.Raw)
}

// DecodeApplicationValue reads one application-tagged primitive (not an
// opening/closing tag) and returns it along with bytes consumed.
func DecodeApplicationValue(buf []byte) (ApplicationValue, int, error) {
	hdr, err := DecodeTagHeader(buf)
	if err != nil {
		return ApplicationValue{}, 0, err
	}
	if hdr.Class != TagClassApplication || hdr.IsOpening() || hdr.IsClosing() {
		return ApplicationValue{}, 0, bacnet.ErrInvalidAPDU
	}
	total := hdr.HeaderLen + hdr.Length
	if hdr.Number == uint8(TagBoolean) {
		total = hdr.HeaderLen
	}
	if len(buf) < total {
		return ApplicationValue{}, 0, bacnet.ErrInvalidAPDU
	}
	raw := make([]byte, total)
	copy(raw, buf[:total])
	return ApplicationValue{Tag: ApplicationTag(hdr.Number), Raw: raw}, total, nil
}

// PropertyValue is the `[0] PropertyIdentifier, [1] ArrayIndex OPTIONAL,
// [2] { Value }, [3] Priority OPTIONAL` constructed value used by
// WriteProperty and the per-property results of ReadPropertyMultiple.
type PropertyValue struct {
	Property   bacnet.PropertyIdentifier
	ArrayIndex *uint32
	Value      []ApplicationValue
	Priority   *uint8
}

// EncodePropertyValue writes the full constructed PropertyValue.
func EncodePropertyValue(buf []byte, pv PropertyValue) int {
	n := 0
	adv := func(f func([]byte) int) {
		written := f(nil)
		if buf != nil {
			f(buf[n:])
		}
		n += written
	}
	adv(func(b []byte) int { return EncodeContextEnumerated(b, 0, uint32(pv.Property)) })
	if pv.ArrayIndex != nil {
		idx := *pv.ArrayIndex
		adv(func(b []byte) int { return EncodeContextUnsigned(b, 1, uint64(idx)) })
	}
	adv(func(b []byte) int { return EncodeOpeningTag(b, 2) })
	for _, v := range pv.Value {
		adv(func(b []byte) int { return EncodeApplicationValue(b, v) })
	}
	adv(func(b []byte) int { return EncodeClosingTag(b, 2) })
	if pv.Priority != nil {
		prio := *pv.Priority
		adv(func(b []byte) int { return EncodeContextUnsigned(b, 3, uint64(prio)) })
	}
	return n
}

// DecodePropertyValue parses a constructed PropertyValue starting at buf[0].
func DecodePropertyValue(buf []byte) (PropertyValue, int, error) {
	var pv PropertyValue
	offset := 0

	hdr, err := DecodeTagHeader(buf[offset:])
	if err != nil || hdr.Number != 0 {
		return pv, 0, bacnet.ErrInvalidAPDU
	}
	prop, err := DecodeEnumerated(buf[offset+hdr.HeaderLen:], hdr.Length)
	if err != nil {
		return pv, 0, err
	}
	pv.Property = bacnet.PropertyIdentifier(prop)
	offset += hdr.HeaderLen + hdr.Length

	hdr, err = DecodeTagHeader(buf[offset:])
	if err != nil {
		return pv, 0, err
	}
	if hdr.Number == 1 {
		idx, err := DecodeUnsigned(buf[offset+hdr.HeaderLen:], hdr.Length)
		if err != nil {
			return pv, 0, err
		}
		v := uint32(idx)
		pv.ArrayIndex = &v
		offset += hdr.HeaderLen + hdr.Length
		hdr, err = DecodeTagHeader(buf[offset:])
		if err != nil {
			return pv, 0, err
		}
	}

	if hdr.Number != 2 || !hdr.IsOpening() {
		return pv, 0, bacnet.ErrInvalidAPDU
	}
	inner, total, err := SkipEnclosed(buf[offset:], 2)
	if err != nil {
		return pv, 0, err
	}
	for len(inner) > 0 {
		v, n, err := DecodeApplicationValue(inner)
		if err != nil {
			return pv, 0, err
		}
		pv.Value = append(pv.Value, v)
		inner = inner[n:]
	}
	offset += total

	if offset < len(buf) {
		hdr, err = DecodeTagHeader(buf[offset:])
		if err == nil && hdr.Number == 3 && hdr.Class == TagClassContext && !hdr.IsOpening() && !hdr.IsClosing() {
			prio, err := DecodeUnsigned(buf[offset+hdr.HeaderLen:], hdr.Length)
			if err != nil {
				return pv, 0, err
			}
			p := uint8(prio)
			pv.Priority = &p
			offset += hdr.HeaderLen + hdr.Length
		}
	}

	return pv, offset, nil
}

// PropertyReference is the `[0] PropId [, [1] Index]` pair nested inside a
// ReadAccessSpec.
type PropertyReference struct {
	Property   bacnet.PropertyIdentifier
	ArrayIndex *uint32
}

// ReadAccessSpec is the `[0] ObjectId, [1] { [0] PropId [, [1] Index]* }`
// constructed value used by ReadPropertyMultiple requests.
type ReadAccessSpec struct {
	Object     bacnet.ObjectIdentifier
	Properties []PropertyReference
}

// EncodeReadAccessSpec writes a single ReadAccessSpec entry.
func EncodeReadAccessSpec(buf []byte, spec ReadAccessSpec) int {
	n := 0
	adv := func(f func([]byte) int) {
		written := f(nil)
		if buf != nil {
			f(buf[n:])
		}
		n += written
	}
	adv(func(b []byte) int { return EncodeContextObjectIdentifier(b, 0, spec.Object) })
	adv(func(b []byte) int { return EncodeOpeningTag(b, 1) })
	for _, p := range spec.Properties {
		adv(func(b []byte) int { return EncodeContextEnumerated(b, 0, uint32(p.Property)) })
		if p.ArrayIndex != nil {
			idx := *p.ArrayIndex
			adv(func(b []byte) int { return EncodeContextUnsigned(b, 1, uint64(idx)) })
		}
	}
	adv(func(b []byte) int { return EncodeClosingTag(b, 1) })
	return n
}

// DecodeReadAccessSpec parses a single ReadAccessSpec entry.
func DecodeReadAccessSpec(buf []byte) (ReadAccessSpec, int, error) {
	var spec ReadAccessSpec
	offset := 0

	hdr, err := DecodeTagHeader(buf[offset:])
	if err != nil || hdr.Number != 0 {
		return spec, 0, bacnet.ErrInvalidAPDU
	}
	oid, err := DecodeObjectIdentifier(buf[offset+hdr.HeaderLen:])
	if err != nil {
		return spec, 0, err
	}
	spec.Object = oid
	offset += hdr.HeaderLen + hdr.Length

	inner, total, err := SkipEnclosed(buf[offset:], 1)
	if err != nil {
		return spec, 0, err
	}
	for len(inner) > 0 {
		h, err := DecodeTagHeader(inner)
		if err != nil || h.Number != 0 {
			return spec, 0, bacnet.ErrInvalidAPDU
		}
		prop, err := DecodeEnumerated(inner[h.HeaderLen:], h.Length)
		if err != nil {
			return spec, 0, err
		}
		ref := PropertyReference{Property: bacnet.PropertyIdentifier(prop)}
		inner = inner[h.HeaderLen+h.Length:]

		if len(inner) > 0 {
			if h2, err := DecodeTagHeader(inner); err == nil && h2.Number == 1 && !h2.IsOpening() && !h2.IsClosing() {
				idx, err := DecodeUnsigned(inner[h2.HeaderLen:], h2.Length)
				if err != nil {
					return spec, 0, err
				}
				v := uint32(idx)
				ref.ArrayIndex = &v
				inner = inner[h2.HeaderLen+h2.Length:]
			}
		}
		spec.Properties = append(spec.Properties, ref)
	}
	offset += total

	return spec, offset, nil
}
