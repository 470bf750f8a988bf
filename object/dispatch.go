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

import "github.com/bacstack/bacstack"

// Resolve looks an identifier up against the Device first (it answers
// for its own OID without being stored in its own Registry) and falls
// through to the Registry otherwise. Service-layer handlers (ReadProperty,
// WriteProperty, ReadPropertyMultiple) use this single entry point so
// they never need to special-case the Device object.
func (d *Device) Resolve(oid bacnet.ObjectIdentifier) (Object, bool) {
	return d.Get(oid)
}
