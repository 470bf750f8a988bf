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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bacstack/bacstack"
	"github.com/bacstack/bacstack/encoding"
	"github.com/bacstack/bacstack/object"
)

type fakeIAmSender struct {
	dest    bacnet.Address
	service bacnet.UnconfirmedServiceChoice
	data    []byte
	called  bool
}

func (f *fakeIAmSender) SendUnconfirmed(ctx context.Context, dest bacnet.Address, service bacnet.UnconfirmedServiceChoice, data []byte) {
	f.dest, f.service, f.data, f.called = dest, service, data, true
}

func TestDecodeWhoIs_EmptyBodyMatchesEveryone(t *testing.T) {
	r, err := DecodeWhoIs(nil)
	require.NoError(t, err)
	require.Nil(t, r.Low)
	require.Nil(t, r.High)
}

func TestDecodeWhoIs_RangeRoundTrip(t *testing.T) {
	n := encoding.EncodeUnsignedTag(nil, 10)
	n += encoding.EncodeUnsignedTag(nil, 20)
	buf := make([]byte, n)
	off := encoding.EncodeUnsignedTag(buf, 10)
	encoding.EncodeUnsignedTag(buf[off:], 20)

	r, err := DecodeWhoIs(buf)
	require.NoError(t, err)
	require.NotNil(t, r.Low)
	require.NotNil(t, r.High)
	require.Equal(t, uint32(10), *r.Low)
	require.Equal(t, uint32(20), *r.High)
}

func TestWhoIs_InRangeRepliesWithIAm(t *testing.T) {
	device := object.NewDevice(5, "test device")
	sender := &fakeIAmSender{}
	handler := WhoIs(device, sender, 42, 3)

	handler(context.Background(), bacnet.Address{Mac: []byte{1}}, nil)

	require.True(t, sender.called)
	require.Equal(t, bacnet.ServiceIAm, sender.service)

	iam, err := DecodeIAm(sender.data)
	require.NoError(t, err)
	require.Equal(t, device.Identifier(), iam.Device)
	require.Equal(t, uint32(42), iam.VendorID)
	require.Equal(t, uint32(3), iam.Segmentation)
}

func TestWhoIs_OutOfRangeDoesNotReply(t *testing.T) {
	device := object.NewDevice(5, "test device")
	sender := &fakeIAmSender{}
	handler := WhoIs(device, sender, 42, 0)

	low := encoding.EncodeUnsignedTag(nil, 100)
	high := encoding.EncodeUnsignedTag(nil, 200)
	buf := make([]byte, low+high)
	off := encoding.EncodeUnsignedTag(buf, 100)
	encoding.EncodeUnsignedTag(buf[off:], 200)

	handler(context.Background(), bacnet.Address{Mac: []byte{1}}, buf)

	require.False(t, sender.called)
}

func TestIAm_ObserverSeesDecodedAnnouncement(t *testing.T) {
	oid := bacnet.NewObjectIdentifier(bacnet.ObjectTypeDevice, 77)
	n := EncodeIAm(nil, oid, 1476, 0, 99)
	buf := make([]byte, n)
	EncodeIAm(buf, oid, 1476, 0, 99)

	var seen DecodedIAm
	var from bacnet.Address
	handler := IAm(nil, func(f bacnet.Address, iam DecodedIAm) {
		from = f
		seen = iam
	})

	src := bacnet.Address{Mac: []byte{10, 20}}
	handler(context.Background(), src, buf)

	require.Equal(t, src, from)
	require.Equal(t, oid, seen.Device)
	require.Equal(t, uint32(99), seen.VendorID)
}
