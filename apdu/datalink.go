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

package apdu

import (
	"context"
	"time"

	"github.com/bacstack/bacstack"
)

// DataLink is the contract every transport (BACnet/IP UDP, MS/TP-over-
// serial, ...) must satisfy to plug into a Router. Implementations live
// under bacnet/datalink/ and are treated as external collaborators: the
// Router never assumes anything about the physical medium beyond this
// interface.
type DataLink interface {
	// Send transmits a fully-framed NPDU+APDU to dest. dest.Mac == nil
	// (with Net == 0) means local broadcast.
	Send(ctx context.Context, dest bacnet.Address, npdu []byte) error
	// Receive blocks until a frame arrives or ctx is done, and returns
	// the decoded NPDU payload (network-layer message or APDU) plus the
	// address it arrived from.
	Receive(ctx context.Context) (payload []byte, src bacnet.Address, err error)
	// LocalAddress returns this datalink's own address.
	LocalAddress() bacnet.Address
	// MaintenanceTimer is called periodically by the run-loop so the
	// datalink can do its own housekeeping (e.g. BBMD foreign-device
	// re-registration); elapsed is the time since the previous call.
	MaintenanceTimer(elapsed time.Duration)
}
