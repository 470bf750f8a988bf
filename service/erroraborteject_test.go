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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bacstack/bacstack"
	"github.com/bacstack/bacstack/apdu"
)

func TestAsError_ErrorPDUTranslatesToBACnetError(t *testing.T) {
	pdu := apdu.PDU{Type: bacnet.PDUTypeError, Data: []byte{byte(bacnet.ErrorClassObject), byte(bacnet.ErrorCodeUnknownObject)}}
	err := AsError(pdu)
	var bacErr *bacnet.BACnetError
	require.ErrorAs(t, err, &bacErr)
	assert.Equal(t, bacnet.ErrorClassObject, bacErr.Class)
	assert.Equal(t, bacnet.ErrorCodeUnknownObject, bacErr.Code)
}

func TestAsError_RejectPDUTranslatesToRejectError(t *testing.T) {
	pdu := apdu.PDU{Type: bacnet.PDUTypeReject, InvokeID: 5, Service: uint8(bacnet.RejectReasonInvalidTag)}
	err := AsError(pdu)
	var rejectErr *bacnet.RejectError
	require.ErrorAs(t, err, &rejectErr)
	assert.Equal(t, uint8(5), rejectErr.InvokeID)
	assert.Equal(t, bacnet.RejectReasonInvalidTag, rejectErr.Reason)
}

func TestAsError_AbortPDUTranslatesToAbortError(t *testing.T) {
	pdu := apdu.PDU{Type: bacnet.PDUTypeAbort, InvokeID: 9, ServerAbort: true, Service: uint8(bacnet.AbortReasonSegmentationNotSupported)}
	err := AsError(pdu)
	var abortErr *bacnet.AbortError
	require.ErrorAs(t, err, &abortErr)
	assert.Equal(t, uint8(9), abortErr.InvokeID)
	assert.True(t, abortErr.Server)
}

func TestIsErrorPDU(t *testing.T) {
	assert.True(t, IsErrorPDU(apdu.PDU{Type: bacnet.PDUTypeError}))
	assert.True(t, IsErrorPDU(apdu.PDU{Type: bacnet.PDUTypeReject}))
	assert.True(t, IsErrorPDU(apdu.PDU{Type: bacnet.PDUTypeAbort}))
	assert.False(t, IsErrorPDU(apdu.PDU{Type: bacnet.PDUTypeSimpleAck}))
	assert.False(t, IsErrorPDU(apdu.PDU{Type: bacnet.PDUTypeComplexAck}))
}

func TestErrUnknownObject_IsBACnetObjectError(t *testing.T) {
	err := ErrUnknownObject()
	var bacErr *bacnet.BACnetError
	require.ErrorAs(t, err, &bacErr)
	assert.Equal(t, bacnet.ErrorClassObject, bacErr.Class)
	assert.Equal(t, bacnet.ErrorCodeUnknownObject, bacErr.Code)
}

func TestErrMalformedRequest_IsRejectError(t *testing.T) {
	err := ErrMalformedRequest()
	var rejectErr *bacnet.RejectError
	require.ErrorAs(t, err, &rejectErr)
	assert.Equal(t, bacnet.RejectReasonInvalidTag, rejectErr.Reason)
}
