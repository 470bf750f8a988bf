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
	"github.com/bacstack/bacstack"
	"github.com/bacstack/bacstack/apdu"
)

// ErrUnknownObject is returned when a request names an ObjectId this
// device has no object for.
func ErrUnknownObject() error {
	return &bacnet.BACnetError{Class: bacnet.ErrorClassObject, Code: bacnet.ErrorCodeUnknownObject}
}

// ErrMalformedRequest is returned when a request body fails to parse
// against its expected tag sequence; the Router turns it into a Reject.
func ErrMalformedRequest() error {
	return &bacnet.RejectError{Reason: bacnet.RejectReasonInvalidTag}
}

// AsError translates a received Error/Reject/Abort apdu.PDU into the
// matching typed Go error, so a confirmed-request caller can inspect the
// outcome with errors.As the same way a service handler's return value
// would be inspected on the server side. It panics if given a PDU of any
// other type; callers should only invoke it after checking PDU.Type.
func AsError(p apdu.PDU) error {
	switch p.Type {
	case bacnet.PDUTypeError:
		if len(p.Data) < 2 {
			return &bacnet.BACnetError{Class: bacnet.ErrorClassDevice, Code: bacnet.ErrorCodeOther}
		}
		return &bacnet.BACnetError{
			Class: bacnet.ErrorClass(p.Data[0]),
			Code:  bacnet.ErrorCode(p.Data[1]),
		}
	case bacnet.PDUTypeReject:
		return &bacnet.RejectError{InvokeID: p.InvokeID, Reason: bacnet.RejectReason(p.Service)}
	case bacnet.PDUTypeAbort:
		return &bacnet.AbortError{InvokeID: p.InvokeID, Server: p.ServerAbort, Reason: bacnet.AbortReason(p.Service)}
	default:
		panic("service: AsError called on non-error PDU")
	}
}

// IsErrorPDU reports whether a decoded PDU represents one of the three
// service-failure outcomes a confirmed request can receive instead of
// a Simple-ACK/Complex-ACK.
func IsErrorPDU(p apdu.PDU) bool {
	switch p.Type {
	case bacnet.PDUTypeError, bacnet.PDUTypeReject, bacnet.PDUTypeAbort:
		return true
	default:
		return false
	}
}
