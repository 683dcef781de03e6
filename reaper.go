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
	"golang.org/x/sys/unix"
)

// Reaper collects exited children.  Both methods report ErrNoChildren
// when the calling process has no children at all.
type Reaper interface {
	// Wait blocks until any child exits and reaps it.
	Wait() (int, unix.WaitStatus, error)

	// Poll is Wait without blocking.  A zero pid means that children
	// exist but none has exited.
	Poll() (int, unix.WaitStatus, error)
}

type sysReaper struct{}

// NewReaper returns a Reaper built on wait4(2) for any child.
func NewReaper() Reaper {
	return sysReaper{}
}

func (sysReaper) Wait() (int, unix.WaitStatus, error) {
	return wait4(0)
}

func (sysReaper) Poll() (int, unix.WaitStatus, error) {
	return wait4(unix.WNOHANG)
}

func wait4(options int) (int, unix.WaitStatus, error) {
	var ws unix.WaitStatus
	for {
		pid, e := unix.Wait4(-1, &ws, options, nil)
		switch e {
		case nil:
			return pid, ws, nil
		case unix.EINTR:
			continue
		case unix.ECHILD:
			return 0, ws, ErrNoChildren
		default:
			return 0, ws, e
		}
	}
}
