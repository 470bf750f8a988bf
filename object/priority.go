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

import "github.com/bacstack/bacstack/encoding"

// NumPriorities is the number of slots in a BACnet priority array.
// Priority 6 is reserved for the minimum on/off function and is never
// written by this stack's generic WriteProperty path.
const NumPriorities = 16

const reservedPriority = 6

// PriorityArray backs a commandable present-value property: 16 priority
// slots plus a relinquish-default, with present value resolved as the
// highest-priority (lowest-numbered) occupied slot, falling back to the
// relinquish default when every slot is empty.
type PriorityArray struct {
	slots      [NumPriorities]*encoding.ApplicationValue
	relinquish encoding.ApplicationValue
}

// NewPriorityArray constructs an array whose relinquish default is def.
func NewPriorityArray(def encoding.ApplicationValue) *PriorityArray {
	return &PriorityArray{relinquish: def}
}

// Write commands slot priority (1..16) with value, or relinquishes it
// when value is nil. It returns false for a priority outside 1..16 and
// for the reserved minimum on/off priority 6, without telling the two
// cases apart.
func (p *PriorityArray) Write(priority uint8, value *encoding.ApplicationValue) bool {
	if priority < 1 || priority > NumPriorities || priority == reservedPriority {
		return false
	}
	p.slots[priority-1] = value
	return true
}

// Present returns the active value: the lowest-numbered occupied slot,
// or the relinquish default if every slot is empty.
func (p *PriorityArray) Present() encoding.ApplicationValue {
	for _, v := range p.slots {
		if v != nil {
			return *v
		}
	}
	return p.relinquish
}

// ActivePriority returns the 1-based priority currently in effect, or 0
// if every slot is relinquished (the relinquish default is active).
func (p *PriorityArray) ActivePriority() uint8 {
	for i, v := range p.slots {
		if v != nil {
			return uint8(i + 1)
		}
	}
	return 0
}

// Slot returns the raw value occupying priority (1..16), or nil if empty.
func (p *PriorityArray) Slot(priority uint8) *encoding.ApplicationValue {
	if priority < 1 || priority > NumPriorities {
		return nil
	}
	return p.slots[priority-1]
}

// SetRelinquishDefault replaces the fallback value used when every
// priority slot is empty.
func (p *PriorityArray) SetRelinquishDefault(v encoding.ApplicationValue) {
	p.relinquish = v
}

// RelinquishDefault returns the current fallback value.
func (p *PriorityArray) RelinquishDefault() encoding.ApplicationValue {
	return p.relinquish
}
