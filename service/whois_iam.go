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
	"log/slog"

	"github.com/bacstack/bacstack"
	"github.com/bacstack/bacstack/apdu"
	"github.com/bacstack/bacstack/encoding"
	"github.com/bacstack/bacstack/object"
)

// WhoIsRange is a decoded Who-Is request's optional instance-range filter.
type WhoIsRange struct {
	Low, High *uint32
}

// DecodeWhoIs parses a Who-Is request body, which is either empty (match
// everyone) or a `[0] Low, [1] High` instance-range pair.
func DecodeWhoIs(data []byte) (WhoIsRange, error) {
	var r WhoIsRange
	if len(data) == 0 {
		return r, nil
	}
	h, err := encoding.DecodeTagHeader(data)
	if err != nil {
		return r, err
	}
	low, err := encoding.DecodeUnsigned(data[h.HeaderLen:], h.Length)
	if err != nil {
		return r, err
	}
	v := uint32(low)
	r.Low = &v
	off := h.HeaderLen + h.Length

	h2, err := encoding.DecodeTagHeader(data[off:])
	if err != nil {
		return r, err
	}
	high, err := encoding.DecodeUnsigned(data[off+h2.HeaderLen:], h2.Length)
	if err != nil {
		return r, err
	}
	v2 := uint32(high)
	r.High = &v2
	return r, nil
}

// EncodeIAm writes the I-Am service's
// `deviceId, maxAPDU, segmentation, vendorId` application-tagged payload.
func EncodeIAm(buf []byte, deviceID bacnet.ObjectIdentifier, maxAPDU uint32, segmentation uint32, vendorID uint32) int {
	n := 0
	adv := func(f func([]byte) int) {
		written := f(nil)
		if buf != nil {
			f(buf[n:])
		}
		n += written
	}
	adv(func(b []byte) int { return encoding.EncodeObjectIdentifierTag(b, deviceID) })
	adv(func(b []byte) int { return encoding.EncodeUnsignedTag(b, uint64(maxAPDU)) })
	adv(func(b []byte) int { return encoding.EncodeEnumeratedTag(b, segmentation) })
	adv(func(b []byte) int { return encoding.EncodeUnsignedTag(b, uint64(vendorID)) })
	return n
}

// IAmSender is the subset of a Router this service needs to broadcast
// I-Am, kept narrow so tests can fake it without a real DataLink.
type IAmSender interface {
	SendUnconfirmed(ctx context.Context, dest bacnet.Address, service bacnet.UnconfirmedServiceChoice, data []byte)
}

// WhoIs returns the UnconfirmedHandler for the Who-Is service: when the
// device's instance falls inside the (optional) requested range, it
// replies with I-Am via sender.
func WhoIs(device *object.Device, sender IAmSender, vendorID uint32, segmentation uint32) apdu.UnconfirmedHandler {
	return func(ctx context.Context, from bacnet.Address, data []byte) {
		r, err := DecodeWhoIs(data)
		if err != nil {
			return
		}
		instance := device.Identifier().Instance
		if r.Low != nil && instance < *r.Low {
			return
		}
		if r.High != nil && instance > *r.High {
			return
		}
		n := EncodeIAm(nil, device.Identifier(), bacnet.MaxAPDULength, segmentation, vendorID)
		out := make([]byte, n)
		EncodeIAm(out, device.Identifier(), bacnet.MaxAPDULength, segmentation, vendorID)
		sender.SendUnconfirmed(ctx, from, bacnet.ServiceIAm, out)
	}
}

// DecodedIAm is a peer's I-Am announcement, used to populate address
// bindings and device discovery caches.
type DecodedIAm struct {
	Device       bacnet.ObjectIdentifier
	MaxAPDU      uint32
	Segmentation uint32
	VendorID     uint32
}

// DecodeIAm parses an I-Am unconfirmed request body.
func DecodeIAm(data []byte) (DecodedIAm, error) {
	var out DecodedIAm
	v, n, err := encoding.DecodeApplicationValue(data)
	if err != nil {
		return out, err
	}
	h, _ := encoding.DecodeTagHeader(v.Raw)
	oid, err := encoding.DecodeObjectIdentifier(v.Raw[h.HeaderLen:])
	if err != nil {
		return out, err
	}
	out.Device = oid
	data = data[n:]

	v, n, err = encoding.DecodeApplicationValue(data)
	if err != nil {
		return out, err
	}
	h, _ = encoding.DecodeTagHeader(v.Raw)
	maxAPDU, err := encoding.DecodeUnsigned(v.Raw[h.HeaderLen:], h.Length)
	if err != nil {
		return out, err
	}
	out.MaxAPDU = uint32(maxAPDU)
	data = data[n:]

	v, n, err = encoding.DecodeApplicationValue(data)
	if err != nil {
		return out, err
	}
	h, _ = encoding.DecodeTagHeader(v.Raw)
	seg, err := encoding.DecodeEnumerated(v.Raw[h.HeaderLen:], h.Length)
	if err != nil {
		return out, err
	}
	out.Segmentation = seg
	data = data[n:]

	v, _, err = encoding.DecodeApplicationValue(data)
	if err != nil {
		return out, err
	}
	h, _ = encoding.DecodeTagHeader(v.Raw)
	vendor, err := encoding.DecodeUnsigned(v.Raw[h.HeaderLen:], h.Length)
	if err != nil {
		return out, err
	}
	out.VendorID = uint32(vendor)
	return out, nil
}

// IAmObserver is notified of every peer I-Am this device sees, used to
// maintain an address-binding cache.
type IAmObserver func(from bacnet.Address, iam DecodedIAm)

// IAm returns the UnconfirmedHandler for the I-Am service.
func IAm(logger *slog.Logger, observe IAmObserver) apdu.UnconfirmedHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, from bacnet.Address, data []byte) {
		iam, err := DecodeIAm(data)
		if err != nil {
			logger.Debug("service: malformed i-am", slog.String("error", err.Error()))
			return
		}
		if observe != nil {
			observe(from, iam)
		}
	}
}
