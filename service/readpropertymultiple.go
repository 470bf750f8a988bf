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
	"errors"

	"github.com/bacstack/bacstack"
	"github.com/bacstack/bacstack/apdu"
	"github.com/bacstack/bacstack/encoding"
	"github.com/bacstack/bacstack/object"
)

// DecodeReadAccessSpecs parses the back-to-back ReadAccessSpec sequence
// that makes up a ReadPropertyMultiple request body.
func DecodeReadAccessSpecs(data []byte) ([]encoding.ReadAccessSpec, error) {
	var specs []encoding.ReadAccessSpec
	for len(data) > 0 {
		spec, n, err := encoding.DecodeReadAccessSpec(data)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
		data = data[n:]
	}
	return specs, nil
}

// propertyResult is one `[2] PropId [3] Index? ([4]{value} | [5]{error})`
// entry inside a ReadAccessResult.
type propertyResult struct {
	Property   bacnet.PropertyIdentifier
	ArrayIndex *uint32
	Values     []encoding.ApplicationValue
	Err        *bacnet.BACnetError
}

func resolveProperties(obj object.Object, ref encoding.PropertyReference) []propertyResult {
	switch ref.Property {
	case bacnet.PropertyAll, bacnet.PropertyRequired, bacnet.PropertyOptional:
		var out []propertyResult
		for _, entry := range obj.PropertyList() {
			if ref.Property == bacnet.PropertyRequired && entry.Requirement != object.Required {
				continue
			}
			if ref.Property == bacnet.PropertyOptional && entry.Requirement != object.Optional {
				continue
			}
			out = append(out, readOne(obj, entry.Property, nil))
		}
		return out
	default:
		return []propertyResult{readOne(obj, ref.Property, ref.ArrayIndex)}
	}
}

func readOne(obj object.Object, prop bacnet.PropertyIdentifier, idx *uint32) propertyResult {
	values, err := obj.ReadProperty(prop, idx)
	if err != nil {
		var bacErr *bacnet.BACnetError
		if errors.As(err, &bacErr) {
			return propertyResult{Property: prop, ArrayIndex: idx, Err: bacErr}
		}
		return propertyResult{Property: prop, ArrayIndex: idx, Err: &bacnet.BACnetError{Class: bacnet.ErrorClassDevice, Code: bacnet.ErrorCodeOther}}
	}
	return propertyResult{Property: prop, ArrayIndex: idx, Values: values}
}

func encodePropertyResult(buf []byte, r propertyResult) int {
	n := 0
	adv := func(f func([]byte) int) {
		written := f(nil)
		if buf != nil {
			f(buf[n:])
		}
		n += written
	}
	adv(func(b []byte) int { return encoding.EncodeContextEnumerated(b, 2, uint32(r.Property)) })
	if r.ArrayIndex != nil {
		idx := *r.ArrayIndex
		adv(func(b []byte) int { return encoding.EncodeContextUnsigned(b, 3, uint64(idx)) })
	}
	if r.Err != nil {
		adv(func(b []byte) int { return encoding.EncodeOpeningTag(b, 5) })
		adv(func(b []byte) int { return encoding.EncodeContextEnumerated(b, 0, uint32(r.Err.Class)) })
		adv(func(b []byte) int { return encoding.EncodeContextEnumerated(b, 1, uint32(r.Err.Code)) })
		adv(func(b []byte) int { return encoding.EncodeClosingTag(b, 5) })
		return n
	}
	adv(func(b []byte) int { return encoding.EncodeOpeningTag(b, 4) })
	for _, v := range r.Values {
		adv(func(b []byte) int { return encoding.EncodeApplicationValue(b, v) })
	}
	adv(func(b []byte) int { return encoding.EncodeClosingTag(b, 4) })
	return n
}

func encodeReadAccessResult(buf []byte, oid bacnet.ObjectIdentifier, results []propertyResult) int {
	n := 0
	adv := func(f func([]byte) int) {
		written := f(nil)
		if buf != nil {
			f(buf[n:])
		}
		n += written
	}
	adv(func(b []byte) int { return encoding.EncodeContextObjectIdentifier(b, 0, oid) })
	adv(func(b []byte) int { return encoding.EncodeOpeningTag(b, 1) })
	for _, r := range results {
		adv(func(b []byte) int { return encodePropertyResult(b, r) })
	}
	adv(func(b []byte) int { return encoding.EncodeClosingTag(b, 1) })
	return n
}

// ReadPropertyMultiple returns the ConfirmedHandler for the
// ReadPropertyMultiple service.
func ReadPropertyMultiple(device *object.Device) apdu.ConfirmedHandler {
	return func(ctx context.Context, from bacnet.Address, invokeID uint8, data []byte) (apdu.Response, error) {
		specs, err := DecodeReadAccessSpecs(data)
		if err != nil {
			return apdu.Response{}, &bacnet.RejectError{Reason: bacnet.RejectReasonInvalidTag}
		}
		n := 0
		var chunks [][]byte
		for _, spec := range specs {
			obj, ok := device.Resolve(spec.Object)
			if !ok {
				var results []propertyResult
				for _, ref := range spec.Properties {
					results = append(results, propertyResult{
						Property: ref.Property,
						Err:      &bacnet.BACnetError{Class: bacnet.ErrorClassObject, Code: bacnet.ErrorCodeUnknownObject},
					})
				}
				sz := encodeReadAccessResult(nil, spec.Object, results)
				b := make([]byte, sz)
				encodeReadAccessResult(b, spec.Object, results)
				chunks = append(chunks, b)
				n += sz
				continue
			}
			var results []propertyResult
			for _, ref := range spec.Properties {
				results = append(results, resolveProperties(obj, ref)...)
			}
			sz := encodeReadAccessResult(nil, spec.Object, results)
			b := make([]byte, sz)
			encodeReadAccessResult(b, spec.Object, results)
			chunks = append(chunks, b)
			n += sz
		}
		out := make([]byte, 0, n)
		for _, c := range chunks {
			out = append(out, c...)
		}
		return apdu.Response{Data: out}, nil
	}
}
