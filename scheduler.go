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

// restartLoop respawns roles whose backoff has elapsed.  It is the only
// code that gives a record a new process after startup, and it finishes
// when it finds the sentinel that Run queues on the way out.
func (s *Supervisor) restartLoop() error {
	for {
		if s.state.QueueLen() == 0 {
			s.restartPace.Wait()
			continue
		}
		results, finished := s.state.serviceRestarts(time.Now(), s.backoff, s.respawn)
		for _, res := range results {
			switch {
			case res.dropped:
				s.rolef(res.role, "Restart cancelled, shutting down")
			case res.err != nil:
				s.rolef(res.role, "Failed to restart: %v, retrying in %v",
					res.err, s.backoff)
				s.metrics.RestartFailed(res.role)
			default:
				s.rolef(res.role, "Process restarted: pid %d", res.proc.Pid())
				s.metrics.ProcessSpawned(res.role)
				s.metrics.ProcessRestarted(res.role)
			}
		}
		if finished {
			s.logf("Restart scheduler stopped")
			return nil
		}
		s.metrics.RestartQueueDepth(s.state.QueueLen())
		s.restartPace.Wait()
	}
}

// respawn starts a fresh process from the command line stored with the
// role.  Called with the State lock held.
func (s *Supervisor) respawn(spec RoleSpec) (*Process, error) {
	return Spawn(spec.Argv, s.procLogger(spec.Role))
}
