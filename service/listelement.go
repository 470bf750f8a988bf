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

// listElementRequest is the decoded
// `[0] ObjectId, [1] PropertyId, [2] ArrayIndex?, [3] { values }` payload
// shared by AddListElement and RemoveListElement.
type listElementRequest struct {
	Object     bacnet.ObjectIdentifier
	Property   bacnet.PropertyIdentifier
	ArrayIndex *uint32
	Raw        []byte
}

func decodeListElementRequest(data []byte) (listElementRequest, error) {
	var req listElementRequest
	h, err := encoding.DecodeTagHeader(data)
	if err != nil || h.Class != encoding.TagClassContext || h.Number != 0 {
		return req, bacnet.ErrInvalidAPDU
	}
	oid, err := encoding.DecodeObjectIdentifier(data[h.HeaderLen:])
	if err != nil {
		return req, err
	}
	req.Object = oid
	off := h.HeaderLen + 4

	h2, err := encoding.DecodeTagHeader(data[off:])
	if err != nil || h2.Class != encoding.TagClassContext || h2.Number != 1 {
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
	if h3.Class == encoding.TagClassContext && h3.Number == 2 && !h3.IsOpening() {
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
	inner, _, err := encoding.SkipEnclosed(data[off:], 3)
	if err != nil {
		return req, err
	}
	req.Raw = inner
	return req, nil
}

// listMutator is implemented by object types whose list-valued
// properties support AddListElement/RemoveListElement (e.g. Calendar's
// Date_List); objects that don't implement it reject both services.
type listMutator interface {
	AddListElement(prop bacnet.PropertyIdentifier, raw []byte) error
	RemoveListElement(prop bacnet.PropertyIdentifier, raw []byte) error
}

// AddListElement returns the ConfirmedHandler for the AddListElement service.
func AddListElement(device *object.Device) apdu.ConfirmedHandler {
	return func(ctx context.Context, from bacnet.Address, invokeID uint8, data []byte) (apdu.Response, error) {
		req, err := decodeListElementRequest(data)
		if err != nil {
			return apdu.Response{}, &bacnet.RejectError{Reason: bacnet.RejectReasonInvalidTag}
		}
		obj, ok := device.Resolve(req.Object)
		if !ok {
			return apdu.Response{}, &bacnet.BACnetError{Class: bacnet.ErrorClassObject, Code: bacnet.ErrorCodeUnknownObject}
		}
		m, ok := obj.(listMutator)
		if !ok {
			return apdu.Response{}, object.ErrWriteAccessDenied()
		}
		if err := m.AddListElement(req.Property, req.Raw); err != nil {
			return apdu.Response{}, err
		}
		return apdu.Response{Simple: true}, nil
	}
}

// RemoveListElement returns the ConfirmedHandler for the
// RemoveListElement service.
func RemoveListElement(device *object.Device) apdu.ConfirmedHandler {
	return func(ctx context.Context, from bacnet.Address, invokeID uint8, data []byte) (apdu.Response, error) {
		req, err := decodeListElementRequest(data)
		if err != nil {
			return apdu.Response{}, &bacnet.RejectError{Reason: bacnet.RejectReasonInvalidTag}
		}
		obj, ok := device.Resolve(req.Object)
		if !ok {
			return apdu.Response{}, &bacnet.BACnetError{Class: bacnet.ErrorClassObject, Code: bacnet.ErrorCodeUnknownObject}
		}
		m, ok := obj.(listMutator)
		if !ok {
			return apdu.Response{}, object.ErrWriteAccessDenied()
		}
		if err := m.RemoveListElement(req.Property, req.Raw); err != nil {
			return apdu.Response{}, err
		}
		return apdu.Response{Simple: true}, nil
	}
}
