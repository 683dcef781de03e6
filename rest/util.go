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

package rest

import (
	"fmt"
	"sort"
	"time"

	"github.com/rolevisor/rolevisor"
)

// Status is a one-word summary of a role, for tables.
func Status(r *rolevisor.RoleInfo) string {
	if r.Running {
		return "running"
	}
	if r.Pending {
		return "restarting"
	}
	return "stopped"
}

// FormatDuration renders d as h:mm:ss.
func FormatDuration(d time.Duration) string {

	sec := int((d % time.Minute) / time.Second)
	min := int((d % time.Hour) / time.Minute)
	hour := int(d / time.Hour)

	return fmt.Sprintf("%d:%02d:%02d", hour, min, sec)
}

type sorted []rolevisor.RoleInfo

func (s sorted) Swap(i, j int) {
	s[i], s[j] = s[j], s[i]
}

func (s sorted) Len() int {
	return len(s)
}

func (s sorted) Less(i, j int) bool {
	a := s[i]
	b := s[j]

	if a.Running != b.Running {
		// put anything not running at the front
		return !a.Running
	}
	return a.Role < b.Role
}

// SortRoles orders roles for display: roles that are down first, then by
// role, balancer before workers.
func SortRoles(items []rolevisor.RoleInfo) {
	sort.Sort(sorted(items))
}
