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

// Package service implements the L3 per-service request/ack codecs:
// ReadProperty, ReadPropertyMultiple, WriteProperty, AddListElement/
// RemoveListElement, Who-Is/I-Am, and the Error/Reject/Abort encodings
// every confirmed service shares. Each exported constructor returns an
// apdu.ConfirmedHandler or apdu.UnconfirmedHandler wired against an
// object.Device, so callers just register it with an apdu.Router.
package service

import (
	"context"

	"github.com/bacstack/bacstack"
	"github.com/bacstack/bacstack/apdu"
	"github.com/bacstack/bacstack/encoding"
	"github.com/bacstack/bacstack/object"
)

// ReadPropertyRequest is the decoded `[0] ObjectId, [1] PropertyId, [2] ArrayIndex?` payload.
type ReadPropertyRequest struct {
	Object     bacnet.ObjectIdentifier
	Property   bacnet.PropertyIdentifier
	ArrayIndex *uint32
}

// DecodeReadPropertyRequest parses a ReadProperty request APDU payload.
func DecodeReadPropertyRequest(data []byte) (ReadPropertyRequest, error) {
	var req ReadPropertyRequest
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
	propStart := off + h2.HeaderLen
	prop, err := encoding.DecodeUnsigned(data[propStart:], h2.Length)
	if err != nil {
		return req, err
	}
	req.Property = bacnet.PropertyIdentifier(prop)
	off = propStart + h2.Length

	if off < len(data) {
		h3, err := encoding.DecodeTagHeader(data[off:])
		if err == nil && h3.Class == encoding.TagClassContext && h3.Number == 2 {
			idx, err := encoding.DecodeUnsigned(data[off+h3.HeaderLen:], h3.Length)
			if err != nil {
				return req, err
			}
			v := uint32(idx)
			req.ArrayIndex = &v
		}
	}
	return req, nil
}

// EncodeReadPropertyAck writes the `[0] ObjectId, [1] PropertyId, [2] ArrayIndex?, [3] { value }` ack body.
func EncodeReadPropertyAck(buf []byte, req ReadPropertyRequest, values []encoding.ApplicationValue) int {
	n := 0
	adv := func(f func([]byte) int) {
		written := f(nil)
		if buf != nil {
			f(buf[n:])
		}
		n += written
	}
	adv(func(b []byte) int { return encoding.EncodeContextObjectIdentifier(b, 0, req.Object) })
	adv(func(b []byte) int { return encoding.EncodeContextUnsigned(b, 1, uint64(req.Property)) })
	if req.ArrayIndex != nil {
		adv(func(b []byte) int { return encoding.EncodeContextUnsigned(b, 2, uint64(*req.ArrayIndex)) })
	}
	adv(func(b []byte) int { return encoding.EncodeOpeningTag(b, 3) })
	for _, v := range values {
		adv(func(b []byte) int { return encoding.EncodeApplicationValue(b, v) })
	}
	adv(func(b []byte) int { return encoding.EncodeClosingTag(b, 3) })
	return n
}

// ReadProperty returns the ConfirmedHandler for the ReadProperty service,
// resolving the target object through device.Resolve.
func ReadProperty(device *object.Device) apdu.ConfirmedHandler {
	return func(ctx context.Context, from bacnet.Address, invokeID uint8, data []byte) (apdu.Response, error) {
		req, err := DecodeReadPropertyRequest(data)
		if err != nil {
			return apdu.Response{}, &bacnet.RejectError{Reason: bacnet.RejectReasonInvalidTag}
		}
		obj, ok := device.Resolve(req.Object)
		if !ok {
			return apdu.Response{}, &bacnet.BACnetError{Class: bacnet.ErrorClassObject, Code: bacnet.ErrorCodeUnknownObject}
		}
		values, err := obj.ReadProperty(req.Property, req.ArrayIndex)
		if err != nil {
			return apdu.Response{}, err
		}
		n := EncodeReadPropertyAck(nil, req, values)
		ackData := make([]byte, n)
		EncodeReadPropertyAck(ackData, req, values)
		return apdu.Response{Data: ackData}, nil
	}
}
