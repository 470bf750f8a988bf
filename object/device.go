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
	"github.com/bacstack/bacstack"
	"github.com/bacstack/bacstack/encoding"
)

// Device is the one mandatory object every BACnet device hosts: it
// carries the device-wide identity/capability properties and owns the
// Registry every other object lives in, so Object_List always reflects
// the live object table rather than a snapshot taken at startup.
type Device struct {
	Common
	Registry         *Registry
	VendorName       string
	VendorIdentifier uint32
	ModelName        string
	FirmwareRevision string
	SoftwareVersion  string
	ProtocolVersion  uint32
	ProtocolRevision uint32
	MaxAPDULength    uint32
	SegmentationSupported uint32
	APDUTimeoutMS    uint32
	NumberOfAPDURetries uint32
	DatabaseRevision uint32
	SystemStatus     uint32
}

// NewDevice constructs the Device object and its backing Registry.
func NewDevice(instance uint32, name string) *Device {
	return &Device{
		Common:           Common{OID: bacnet.NewObjectIdentifier(bacnet.ObjectTypeDevice, instance), Name: name},
		Registry:         NewRegistry(),
		ProtocolVersion:  1,
		ProtocolRevision: 22,
		MaxAPDULength:    bacnet.MaxAPDULength,
		APDUTimeoutMS:    3000,
		NumberOfAPDURetries: 3,
	}
}

func (d *Device) PropertyList() []PropertyListEntry {
	return append(append([]PropertyListEntry{}, CommonPropertyList...),
		PropertyListEntry{Property: bacnet.PropertySystemStatus, Requirement: Required},
		PropertyListEntry{Property: bacnet.PropertyVendorName, Requirement: Required},
		PropertyListEntry{Property: bacnet.PropertyVendorIdentifier, Requirement: Required},
		PropertyListEntry{Property: bacnet.PropertyModelName, Requirement: Required},
		PropertyListEntry{Property: bacnet.PropertyFirmwareRevision, Requirement: Required},
		PropertyListEntry{Property: bacnet.PropertyApplicationSoftwareVersion, Requirement: Required},
		PropertyListEntry{Property: bacnet.PropertyProtocolVersion, Requirement: Required},
		PropertyListEntry{Property: bacnet.PropertyProtocolRevision, Requirement: Required},
		PropertyListEntry{Property: bacnet.PropertyMaxApduLengthAccepted, Requirement: Required},
		PropertyListEntry{Property: bacnet.PropertySegmentationSupported, Requirement: Required},
		PropertyListEntry{Property: bacnet.PropertyApduTimeout, Requirement: Required},
		PropertyListEntry{Property: bacnet.PropertyNumberOfApduRetries, Requirement: Required},
		PropertyListEntry{Property: bacnet.PropertyDatabaseRevision, Requirement: Required},
		PropertyListEntry{Property: bacnet.PropertyObjectList, Requirement: Required, IsArray: true},
	)
}

func (d *Device) ReadProperty(prop bacnet.PropertyIdentifier, arrayIndex *uint32) ([]encoding.ApplicationValue, error) {
	if v, ok := d.ReadCommon(bacnet.ObjectTypeDevice, prop); ok {
		return v, nil
	}
	switch prop {
	case bacnet.PropertySystemStatus:
		return oneEnumerated(d.SystemStatus), nil
	case bacnet.PropertyVendorName:
		return oneCharacterString(d.VendorName), nil
	case bacnet.PropertyVendorIdentifier:
		return oneUnsigned(uint64(d.VendorIdentifier)), nil
	case bacnet.PropertyModelName:
		return oneCharacterString(d.ModelName), nil
	case bacnet.PropertyFirmwareRevision:
		return oneCharacterString(d.FirmwareRevision), nil
	case bacnet.PropertyApplicationSoftwareVersion:
		return oneCharacterString(d.SoftwareVersion), nil
	case bacnet.PropertyProtocolVersion:
		return oneUnsigned(uint64(d.ProtocolVersion)), nil
	case bacnet.PropertyProtocolRevision:
		return oneUnsigned(uint64(d.ProtocolRevision)), nil
	case bacnet.PropertyMaxApduLengthAccepted:
		return oneUnsigned(uint64(d.MaxAPDULength)), nil
	case bacnet.PropertySegmentationSupported:
		return oneEnumerated(d.SegmentationSupported), nil
	case bacnet.PropertyApduTimeout:
		return oneUnsigned(uint64(d.APDUTimeoutMS)), nil
	case bacnet.PropertyNumberOfApduRetries:
		return oneUnsigned(uint64(d.NumberOfAPDURetries)), nil
	case bacnet.PropertyDatabaseRevision:
		return oneUnsigned(uint64(d.DatabaseRevision)), nil
	case bacnet.PropertyObjectList:
		return d.objectListValues(arrayIndex)
	default:
		return nil, ErrUnknownProperty()
	}
}

func (d *Device) objectListValues(arrayIndex *uint32) ([]encoding.ApplicationValue, error) {
	objs := d.Registry.All()
	if arrayIndex != nil {
		if *arrayIndex == 0 {
			return oneUnsigned(uint64(len(objs) + 1)), nil
		}
		idx := int(*arrayIndex)
		if idx < 1 || idx > len(objs)+1 {
			return nil, ErrValueOutOfRange()
		}
		if idx == 1 {
			return oneObjectIdentifier(d.OID), nil
		}
		return oneObjectIdentifier(objs[idx-2].Identifier()), nil
	}
	out := make([]encoding.ApplicationValue, 0, len(objs)+1)
	out = append(out, rawObjectIdentifier(d.OID))
	for _, o := range objs {
		out = append(out, rawObjectIdentifier(o.Identifier()))
	}
	return out, nil
}

func (d *Device) WriteProperty(prop bacnet.PropertyIdentifier, arrayIndex *uint32, value []encoding.ApplicationValue, priority *uint8) error {
	if err, ok := d.WriteCommon(prop, value); ok {
		return err
	}
	return ErrWriteAccessDenied()
}

// Get resolves oid against the device's own identity first, then the
// Registry, so property-reference targets that name the Device object
// itself (e.g. a Schedule writing to the device's own Description)
// resolve without a special case at the call site.
func (d *Device) Get(oid bacnet.ObjectIdentifier) (Object, bool) {
	if oid == d.OID {
		return d, true
	}
	return d.Registry.Get(oid)
}
