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

// MetricsCollector receives the events of a Supervisor.  Calls are made
// from several goroutines, but never with the State lock held.
type MetricsCollector interface {
	// ProcessSpawned records a successful spawn, initial or restart.
	ProcessSpawned(role Role)

	// ProcessExited records a reaped process of a role.
	ProcessExited(role Role)

	// ProcessRestarted records a respawn by the restart scheduler.
	ProcessRestarted(role Role)

	// RestartFailed records a respawn that could not be spawned.
	RestartFailed(role Role)

	// RestartQueueDepth records the number of queued restart items.
	RestartQueueDepth(depth int)

	// MemoryOverflow records a process found over its memory limit.
	MemoryOverflow(role Role)

	// ResidentMemory records a memory sample.
	ResidentMemory(role Role, bytes uint64)

	// ProcessStopped records a graceful stop, and whether it needed
	// SIGKILL.
	ProcessStopped(role Role, duration time.Duration, killed bool)

	// WaitError records an unexpected wait4 failure.
	WaitError()
}

type noopMetricsCollector struct{}

func (noopMetricsCollector) ProcessSpawned(Role)                      {}
func (noopMetricsCollector) ProcessExited(Role)                       {}
func (noopMetricsCollector) ProcessRestarted(Role)                    {}
func (noopMetricsCollector) RestartFailed(Role)                       {}
func (noopMetricsCollector) RestartQueueDepth(int)                    {}
func (noopMetricsCollector) MemoryOverflow(Role)                      {}
func (noopMetricsCollector) ResidentMemory(Role, uint64)              {}
func (noopMetricsCollector) ProcessStopped(Role, time.Duration, bool) {}
func (noopMetricsCollector) WaitError()                               {}

// NewNoopMetricsCollector returns a collector that discards everything.
func NewNoopMetricsCollector() MetricsCollector {
	return noopMetricsCollector{}
}
