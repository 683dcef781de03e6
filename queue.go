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

// restartItem asks for role to be respawned no earlier than notBefore.
// The sentinel item carries no role and stops the scheduler.
type restartItem struct {
	role      Role
	notBefore time.Time
	sentinel  bool
}

func (it restartItem) due(now time.Time) bool {
	return !now.Before(it.notBefore)
}

// restartQueue is a plain FIFO.  Items that are not due yet are put back
// at the tail rather than sorted, since every role has at most one item
// and the backoff is the same for all of them.  It is not safe for
// concurrent use; State guards it.
type restartQueue struct {
	items   []restartItem
	pending map[Role]bool
}

func newRestartQueue() *restartQueue {
	return &restartQueue{pending: make(map[Role]bool)}
}

// push appends it, unless its role already has an item queued.
func (q *restartQueue) push(it restartItem) bool {
	if !it.sentinel {
		if q.pending[it.role] {
			return false
		}
		q.pending[it.role] = true
	}
	q.items = append(q.items, it)
	return true
}

func (q *restartQueue) pop() (restartItem, bool) {
	if len(q.items) == 0 {
		return restartItem{}, false
	}
	it := q.items[0]
	q.items[0] = restartItem{}
	q.items = q.items[1:]
	if !it.sentinel {
		delete(q.pending, it.role)
	}
	return it, true
}

func (q *restartQueue) len() int {
	return len(q.items)
}

func (q *restartQueue) has(r Role) bool {
	return q.pending[r]
}
