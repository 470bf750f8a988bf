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

	"github.com/bacstack/bacstack"
	"github.com/bacstack/bacstack/apdu"
	"github.com/bacstack/bacstack/encoding"
	"github.com/bacstack/bacstack/object"
)

// WritePropertyRequest is the decoded
// `[0] ObjectId, [1] PropertyId, [2] ArrayIndex?, [3] { value }, [4] Priority?` payload.
type WritePropertyRequest struct {
	Object     bacnet.ObjectIdentifier
	Property   bacnet.PropertyIdentifier
	ArrayIndex *uint32
	Value      []encoding.ApplicationValue
	Priority   *uint8
}

// DecodeWritePropertyRequest parses a WriteProperty request APDU payload.
func DecodeWritePropertyRequest(data []byte) (WritePropertyRequest, error) {
	var req WritePropertyRequest

	h, err := encoding.DecodeTagHeader(data)
	if err != nil {
		return req, err
	}
	if h.Class != encoding.TagClassContext || h.Number != 0 {
		return req, bacnet.ErrInvalidAPDU
	}
	oid, err := encoding.DecodeObjectIdentifier(data[h.HeaderLen:])
	if err != nil {
		return req, err
	}
	req.Object = oid
	off := h.HeaderLen + 4

	h2, err := encoding.DecodeTagHeader(data[off:])
	if err != nil {
		return req, err
	}
	if h2.Class != encoding.TagClassContext || h2.Number != 1 {
		return req, bacnet.ErrInvalidAPDU
	}
	prop, err := encoding.DecodeUnsigned(data[off+h2.HeaderLen:], h2.Length)
	if err != nil {
		return req, err
	}
	req.Property = bacnet.PropertyIdentifier(prop)
	off += h2.HeaderLen + h2.Length

	h3, err := encoding.DecodeTagHeader(data[off:])
	if err != nil {
		return req, err
	}
	if h3.Class == encoding.TagClassContext && h3.Number == 2 {
		idx, err := encoding.DecodeUnsigned(data[off+h3.HeaderLen:], h3.Length)
		if err != nil {
			return req, err
		}
		v := uint32(idx)
		req.ArrayIndex = &v
		off += h3.HeaderLen + h3.Length
		h3, err = encoding.DecodeTagHeader(data[off:])
		if err != nil {
			return req, err
		}
	}
	if h3.Class != encoding.TagClassContext || h3.Number != 3 || !h3.IsOpening() {
		return req, bacnet.ErrInvalidAPDU
	}
	inner, total, err := encoding.SkipEnclosed(data[off:], 3)
	if err != nil {
		return req, err
	}
	for len(inner) > 0 {
		v, n, err := encoding.DecodeApplicationValue(inner)
		if err != nil {
			return req, err
		}
		req.Value = append(req.Value, v)
		inner = inner[n:]
	}
	off += total

	if off < len(data) {
		h4, err := encoding.DecodeTagHeader(data[off:])
		if err == nil && h4.Class == encoding.TagClassContext && h4.Number == 4 {
			p, err := encoding.DecodeUnsigned(data[off+h4.HeaderLen:], h4.Length)
			if err != nil {
				return req, err
			}
			pr := uint8(p)
			req.Priority = &pr
		}
	}
	return req, nil
}

// WriteProperty returns the ConfirmedHandler for the WriteProperty
// service, resolving the target object through device.Resolve.
func WriteProperty(device *object.Device) apdu.ConfirmedHandler {
	return func(ctx context.Context, from bacnet.Address, invokeID uint8, data []byte) (apdu.Response, error) {
		req, err := DecodeWritePropertyRequest(data)
		if err != nil {
			return apdu.Response{}, &bacnet.RejectError{Reason: bacnet.RejectReasonInvalidTag}
		}
		obj, ok := device.Resolve(req.Object)
		if !ok {
			return apdu.Response{}, &bacnet.BACnetError{Class: bacnet.ErrorClassObject, Code: bacnet.ErrorCodeUnknownObject}
		}
		if err := obj.WriteProperty(req.Property, req.ArrayIndex, req.Value, req.Priority); err != nil {
			return apdu.Response{}, err
		}
		return apdu.Response{Simple: true}, nil
	}
}
