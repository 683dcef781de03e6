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
	"fmt"
	"strconv"
	"strings"
)

// Role identifies a supervised process.  The zero value is the balancer;
// workers carry their 1-based index.
type Role int

// Balancer is the role configured by the default section.
const Balancer Role = 0

// Worker returns the role of the worker with the given 1-based index.
func Worker(index int) Role {
	if index < 1 {
		panic("worker index must be positive")
	}
	return Role(index)
}

// IsBalancer reports whether r is the balancer.
func (r Role) IsBalancer() bool {
	return r == Balancer
}

// Index returns the worker index, or 0 for the balancer.
func (r Role) Index() int {
	return int(r)
}

func (r Role) String() string {
	if r.IsBalancer() {
		return "balancer"
	}
	return "worker-" + strconv.Itoa(int(r))
}

// Args returns the extra command line arguments that identify the role
// to the spawned program.  The balancer gets none.
func (r Role) Args() []string {
	if r.IsBalancer() {
		return nil
	}
	return []string{fmt.Sprintf("--index=%d", int(r))}
}

// ParseRole is the inverse of String.  A bare positive number is accepted
// as a worker index too.
func ParseRole(s string) (Role, error) {
	if s == "balancer" {
		return Balancer, nil
	}
	s = strings.TrimPrefix(s, "worker-")
	if i, e := strconv.Atoi(s); e == nil && i > 0 {
		return Role(i), nil
	}
	return Balancer, ErrBadRole
}

// RoleSpec is everything needed to start and watch one role.  Argv is the
// complete command line, including any role arguments.
type RoleSpec struct {
	Role    Role
	Section string
	Argv    []string
	Limits  Limits
}

// NewRoleSpec builds the spec for role r, appending the role arguments to
// the base command.
func NewRoleSpec(r Role, section string, command []string, limits Limits) RoleSpec {
	argv := make([]string, 0, len(command)+1)
	argv = append(argv, command...)
	argv = append(argv, r.Args()...)
	return RoleSpec{
		Role:    r,
		Section: section,
		Argv:    argv,
		Limits:  limits,
	}
}
