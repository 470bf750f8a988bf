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
	"fmt"

	"github.com/bacstack/bacstack"
	"github.com/bacstack/bacstack/encoding"
)

// The helpers below build/unpack single-value ApplicationValue lists;
// every concrete object type's ReadProperty returns []encoding.ApplicationValue
// even for scalar properties, so callers compose service-layer replies
// uniformly whether a property is a single value or a list.

func oneReal(v float32) []encoding.ApplicationValue {
	return []encoding.ApplicationValue{rawReal(v)}
}

func rawReal(v float32) encoding.ApplicationValue {
	n := encoding.EncodeRealTag(nil, v)
	buf := make([]byte, n)
	encoding.EncodeRealTag(buf, v)
	return encoding.ApplicationValue{Tag: encoding.TagReal, Raw: buf}
}

func oneUnsigned(v uint64) []encoding.ApplicationValue {
	return []encoding.ApplicationValue{rawUnsigned(v)}
}

func rawUnsigned(v uint64) encoding.ApplicationValue {
	n := encoding.EncodeUnsignedTag(nil, v)
	buf := make([]byte, n)
	encoding.EncodeUnsignedTag(buf, v)
	return encoding.ApplicationValue{Tag: encoding.TagUnsignedInt, Raw: buf}
}

func oneEnumerated(v uint32) []encoding.ApplicationValue {
	return []encoding.ApplicationValue{rawEnumerated(v)}
}

func rawEnumerated(v uint32) encoding.ApplicationValue {
	n := encoding.EncodeEnumeratedTag(nil, v)
	buf := make([]byte, n)
	encoding.EncodeEnumeratedTag(buf, v)
	return encoding.ApplicationValue{Tag: encoding.TagEnumerated, Raw: buf}
}

func oneBoolean(v bool) []encoding.ApplicationValue {
	return []encoding.ApplicationValue{rawBoolean(v)}
}

func rawBoolean(v bool) encoding.ApplicationValue {
	n := encoding.EncodeBooleanTag(nil, v)
	buf := make([]byte, n)
	encoding.EncodeBooleanTag(buf, v)
	return encoding.ApplicationValue{Tag: encoding.TagBoolean, Raw: buf}
}

func oneCharacterString(s string) []encoding.ApplicationValue {
	return []encoding.ApplicationValue{rawCharacterString(s)}
}

func rawCharacterString(s string) encoding.ApplicationValue {
	n := encoding.EncodeCharacterStringTag(nil, s)
	buf := make([]byte, n)
	encoding.EncodeCharacterStringTag(buf, s)
	return encoding.ApplicationValue{Tag: encoding.TagCharacterString, Raw: buf}
}

func oneObjectIdentifier(oid bacnet.ObjectIdentifier) []encoding.ApplicationValue {
	return []encoding.ApplicationValue{rawObjectIdentifier(oid)}
}

func rawObjectIdentifier(oid bacnet.ObjectIdentifier) encoding.ApplicationValue {
	n := encoding.EncodeObjectIdentifierTag(nil, oid)
	buf := make([]byte, n)
	encoding.EncodeObjectIdentifierTag(buf, oid)
	return encoding.ApplicationValue{Tag: encoding.TagObjectID, Raw: buf}
}

func oneBitString(bs encoding.BitString) []encoding.ApplicationValue {
	return []encoding.ApplicationValue{rawBitString(bs)}
}

func rawBitString(bs encoding.BitString) encoding.ApplicationValue {
	n := encoding.EncodeBitStringTag(nil, bs)
	buf := make([]byte, n)
	encoding.EncodeBitStringTag(buf, bs)
	return encoding.ApplicationValue{Tag: encoding.TagBitString, Raw: buf}
}

func oneStatusFlags(sf bacnet.StatusFlags) []encoding.ApplicationValue {
	return oneBitString(encoding.EncodeStatusFlags(sf))
}

// decodeScalar unwraps a single-element value list of the expected tag
// back into a decoded Go value, used by WriteProperty implementations.
func decodeScalar(values []encoding.ApplicationValue, want encoding.ApplicationTag) (encoding.ApplicationValue, error) {
	if len(values) != 1 {
		return encoding.ApplicationValue{}, fmt.Errorf("bacnet: expected a single value, got %d", len(values))
	}
	if values[0].Tag != want {
		return encoding.ApplicationValue{}, fmt.Errorf("%w: expected tag %d, got %d", bacnet.ErrInvalidAPDU, want, values[0].Tag)
	}
	return values[0], nil
}

func decodeRealValue(values []encoding.ApplicationValue) (float32, error) {
	v, err := decodeScalar(values, encoding.TagReal)
	if err != nil {
		return 0, err
	}
	h, err := encoding.DecodeTagHeader(v.Raw)
	if err != nil {
		return 0, err
	}
	return encoding.DecodeReal(v.Raw[h.HeaderLen:])
}

func decodeUnsignedValue(values []encoding.ApplicationValue) (uint64, error) {
	v, err := decodeScalar(values, encoding.TagUnsignedInt)
	if err != nil {
		return 0, err
	}
	h, err := encoding.DecodeTagHeader(v.Raw)
	if err != nil {
		return 0, err
	}
	return encoding.DecodeUnsigned(v.Raw[h.HeaderLen:], h.Length)
}

func decodeEnumeratedValue(values []encoding.ApplicationValue) (uint32, error) {
	v, err := decodeScalar(values, encoding.TagEnumerated)
	if err != nil {
		return 0, err
	}
	h, err := encoding.DecodeTagHeader(v.Raw)
	if err != nil {
		return 0, err
	}
	return encoding.DecodeEnumerated(v.Raw[h.HeaderLen:], h.Length)
}

func decodeBooleanValue(values []encoding.ApplicationValue) (bool, error) {
	v, err := decodeScalar(values, encoding.TagBoolean)
	if err != nil {
		return false, err
	}
	h, err := encoding.DecodeTagHeader(v.Raw)
	if err != nil {
		return false, err
	}
	return h.Length != 0, nil
}

func decodeCharacterStringValue(values []encoding.ApplicationValue) (string, error) {
	v, err := decodeScalar(values, encoding.TagCharacterString)
	if err != nil {
		return "", err
	}
	h, err := encoding.DecodeTagHeader(v.Raw)
	if err != nil {
		return "", err
	}
	return encoding.DecodeCharacterString(v.Raw[h.HeaderLen:], h.Length)
}
