// Copyright 2026 The Rolevisor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use file except in compliance with the License.
// You may obtain a copy of the license at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package rolevisor

import (
	"time"
)

// Limits are the resident memory ceilings of a role.  Zero means unset.
// Both may be set, and either one alone is enough to flag an overflow.
type Limits struct {
	Absolute uint64 `json:"maxBytes,omitempty"`   // resident bytes
	Percent  int    `json:"maxPercent,omitempty"` // of total system memory
}

// Enabled reports whether any ceiling is configured.
func (l Limits) Enabled() bool {
	return l.Absolute > 0 || l.Percent > 0
}

// Ceiling returns the effective byte ceiling for a host with the given
// total memory, the lower of the two limits.  Zero means no ceiling.  An
// unknown (zero) total disables the percentage limit.
func (l Limits) Ceiling(total uint64) uint64 {
	var c uint64
	if l.Absolute > 0 {
		c = l.Absolute
	}
	if l.Percent > 0 && total > 0 {
		p := uint64(float64(total) * float64(l.Percent) / 100)
		if c == 0 || p < c {
			c = p
		}
	}
	return c
}

// Exceeded reports whether rss overflows either ceiling.
func (l Limits) Exceeded(rss, total uint64) bool {
	c := l.Ceiling(total)
	return c > 0 && rss > c
}

// record is the bookkeeping for one role.  It is only touched with the
// State lock held.
type record struct {
	spec     RoleSpec
	proc     *Process // current handle, even after exit
	pid      int      // 0 while awaiting restart
	restarts int
	started  time.Time
	exited   time.Time
	status   string // last exit status
	rss      uint64 // last sample
	pending  bool   // restart item queued
}

// RoleInfo is a consistent snapshot of a record.
type RoleInfo struct {
	Role     Role      `json:"-"`
	Name     string    `json:"role"`
	Section  string    `json:"section"`
	Argv     []string  `json:"argv"`
	Pid      int       `json:"pid"`
	Running  bool      `json:"running"`
	Pending  bool      `json:"pendingRestart"`
	Restarts int       `json:"restarts"`
	Started  time.Time `json:"started"`
	Exited   time.Time `json:"exited"`
	Status   string    `json:"status"`
	Resident uint64    `json:"resident"`
	Limits   Limits    `json:"limits"`
}

func (r *record) info() RoleInfo {
	return RoleInfo{
		Role:     r.spec.Role,
		Name:     r.spec.Role.String(),
		Section:  r.spec.Section,
		Argv:     copyArray(r.spec.Argv),
		Pid:      r.pid,
		Running:  r.pid != 0,
		Pending:  r.pending,
		Restarts: r.restarts,
		Started:  r.started,
		Exited:   r.exited,
		Status:   r.status,
		Resident: r.rss,
		Limits:   r.spec.Limits,
	}
}

func copyArray(src []string) []string {
	rv := make([]string, 0, len(src))
	rv = append(rv, src...)
	return rv
}
