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

// pacer spaces out the iterations of a polling loop.  Wait sleeps for
// one interval, or less if Kick is called meanwhile, so loops can be made
// to react at once to a state change without knowing how they are woken.
type pacer struct {
	interval time.Duration
	kick     chan struct{}
}

func newPacer(interval time.Duration) *pacer {
	return &pacer{
		interval: interval,
		kick:     make(chan struct{}, 1),
	}
}

// Wait blocks for at most one interval.
func (p *pacer) Wait() {
	timer := time.NewTimer(p.interval)
	select {
	case <-timer.C:
	case <-p.kick:
		timer.Stop()
	}
}

// Kick wakes one pending or future Wait early.
func (p *pacer) Kick() {
	select {
	case p.kick <- struct{}{}:
	default:
	}
}
