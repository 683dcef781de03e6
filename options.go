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
	"log"
	"time"
)

const (
	DefaultBackoff      = 5 * time.Second
	DefaultMemoryPeriod = 300 * time.Second
	DefaultPollInterval = time.Second
)

// Option configures a Supervisor.
type Option func(*Supervisor)

// WithBackoff sets the delay between observing an exit and respawning.
// The same fixed delay applies to every role and every attempt.
func WithBackoff(d time.Duration) Option {
	return func(s *Supervisor) {
		s.backoff = d
	}
}

// WithStopTime sets how long a graceful stop waits before SIGKILL.
func WithStopTime(d time.Duration) Option {
	return func(s *Supervisor) {
		s.stopTime = d
	}
}

// WithMemoryPeriod sets the interval between memory checks.
func WithMemoryPeriod(d time.Duration) Option {
	return func(s *Supervisor) {
		s.memPeriod = d
	}
}

// WithPollInterval sets how often the background loops look for work.
func WithPollInterval(d time.Duration) Option {
	return func(s *Supervisor) {
		s.pollTime = d
	}
}

// WithSampler replaces the gopsutil memory sampler.
func WithSampler(ms MemorySampler) Option {
	return func(s *Supervisor) {
		s.sampler = ms
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(mc MetricsCollector) Option {
	return func(s *Supervisor) {
		s.metrics = mc
	}
}

// WithReaper replaces the wait4 based reaper.
func WithReaper(r Reaper) Option {
	return func(s *Supervisor) {
		s.reaper = r
	}
}

// WithLogger sets the primary log destination, as SetLogger does.
func WithLogger(l *log.Logger) Option {
	return func(s *Supervisor) {
		s.SetLogger(l)
	}
}
