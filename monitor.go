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

// memoryLoop checks resident memory once per period, until Run clears
// the deadline.  It only looks at the clock every poll interval, so that
// it notices the shutdown quickly even with a long period.
func (s *Supervisor) memoryLoop() error {
	for {
		deadline, ok := s.state.Deadline()
		if !ok {
			s.logf("Memory monitor stopped")
			return nil
		}
		if time.Now().Before(deadline) {
			s.memoryPace.Wait()
			continue
		}
		if !s.state.rearmDeadline(time.Now().Add(s.memPeriod)) {
			continue
		}
		s.checkMemory()
	}
}

// checkMemory samples every running process that has a limit, and
// gracefully stops those over it.  The stop is all it does: the exit is
// reaped by the main loop and restarted like any other.
func (s *Supervisor) checkMemory() {
	watched := s.state.watched()
	if len(watched) == 0 {
		return
	}
	total, e := s.sampler.TotalMemory()
	if e != nil {
		s.logf("Failed reading system memory: %v", e)
		return
	}
	for _, rp := range watched {
		if s.state.Stopping() {
			return
		}
		if rp.proc.Exited() {
			continue
		}
		pid := rp.proc.Pid()
		rss, e := s.sampler.ResidentMemory(pid)
		if e != nil {
			if !rp.proc.Exited() {
				s.rolef(rp.role, "Failed reading memory of %d: %v", pid, e)
			}
			continue
		}
		s.state.setResident(rp.role, rp.proc, rss)
		s.metrics.ResidentMemory(rp.role, rss)
		if rp.limits.Exceeded(rss, total) {
			s.rolef(rp.role, "Process %d over memory limit (%d > %d bytes), restarting",
				pid, rss, rp.limits.Ceiling(total))
			s.metrics.MemoryOverflow(rp.role)
			s.stop(rp.role, rp.proc)
		}
	}
}
