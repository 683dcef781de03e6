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
	"errors"
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// DefaultStopTime is how long Stop waits after SIGTERM.
const DefaultStopTime = 2 * time.Second

// Stop asks p to terminate with SIGTERM and waits up to timeout for it to
// be reaped.  A process still alive after that gets SIGKILL, and Stop
// returns at once without waiting for the kill to land.  The result
// tells whether the kill was needed.
//
// Stop never signals a process that has already been reaped, so it may be
// called any number of times, from any goroutine.  Someone else must be
// reaping, or Stop always escalates.
func Stop(p *Process, timeout time.Duration) bool {
	if timeout <= 0 {
		timeout = DefaultStopTime
	}
	if e := p.Signal(unix.SIGTERM); e != nil {
		if !errors.Is(e, os.ErrProcessDone) {
			p.logger.Printf("Failed sending SIGTERM to %d: %v", p.pid, e)
		}
		return false
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-p.Done():
		return false
	case <-timer.C:
	}

	p.logger.Printf("Process %d not stopped after %v, killing it", p.pid, timeout)
	if e := p.Signal(unix.SIGKILL); e != nil {
		if !errors.Is(e, os.ErrProcessDone) {
			p.logger.Printf("Failed killing %d: %v", p.pid, e)
		}
		return false
	}
	return true
}
