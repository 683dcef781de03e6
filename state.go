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
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// State is the table shared by the supervisor loops: one record per role,
// the restart queue, the stopping flag and the memory check deadline.
// Every method takes the lock for its whole duration, and none of them
// blocks on anything else while holding it.
type State struct {
	records  map[Role]*record
	order    []Role
	queue    *restartQueue
	stopping bool
	deadline time.Time // zero once cleared
	mx       sync.Mutex
}

// roleProc pairs a role with one of its process handles.
type roleProc struct {
	role   Role
	proc   *Process
	limits Limits
}

// restartResult reports what the scheduler did with one due item.
type restartResult struct {
	role    Role
	proc    *Process // nil when the spawn failed
	err     error
	dropped bool // due, but the supervisor is stopping
}

func newState() *State {
	return &State{
		records: make(map[Role]*record),
		queue:   newRestartQueue(),
	}
}

func (st *State) lock() {
	st.mx.Lock()
}

func (st *State) unlock() {
	st.mx.Unlock()
}

// add inserts the record for a freshly spawned role.  Records are never
// removed.
func (st *State) add(spec RoleSpec, p *Process) {
	st.lock()
	defer st.unlock()
	if _, ok := st.records[spec.Role]; ok {
		// This is a serious programmer mistake
		panic("duplicate role " + spec.Role.String())
	}
	st.records[spec.Role] = &record{
		spec:    spec,
		proc:    p,
		pid:     p.Pid(),
		started: p.Started(),
	}
	st.order = append(st.order, spec.Role)
}

// release clears the pid of the record whose process was just reaped,
// returning its role and handle.  The handle is marked exited before the
// lock is dropped.
func (st *State) release(pid int, ws unix.WaitStatus) (Role, *Process, bool) {
	st.lock()
	defer st.unlock()
	for _, r := range st.order {
		rec := st.records[r]
		if rec.pid != 0 && rec.pid == pid {
			rec.pid = 0
			rec.rss = 0
			rec.exited = time.Now()
			rec.proc.exited(ws)
			rec.status = rec.proc.Status()
			return r, rec.proc, true
		}
	}
	return Balancer, nil, false
}

// enqueue schedules a respawn of r.  It is refused once stopping, and
// when r already has an item queued.
func (st *State) enqueue(r Role, notBefore time.Time) bool {
	st.lock()
	defer st.unlock()
	return st.enqueueLocked(r, notBefore)
}

func (st *State) enqueueLocked(r Role, notBefore time.Time) bool {
	rec, ok := st.records[r]
	if !ok || st.stopping || rec.pid != 0 {
		return false
	}
	if !st.queue.push(restartItem{role: r, notBefore: notBefore}) {
		return false
	}
	rec.pending = true
	return true
}

// pushSentinel tells the restart scheduler to finish.
func (st *State) pushSentinel() {
	st.lock()
	st.queue.push(restartItem{sentinel: true})
	st.unlock()
}

// QueueLen returns the number of queued restart items.
func (st *State) QueueLen() int {
	st.lock()
	defer st.unlock()
	return st.queue.len()
}

// serviceRestarts makes one pass over the items that are queued right
// now.  Due items are respawned with spawn, items not yet due go back to
// the tail.  It returns finished once the sentinel has been seen.  The
// spawn runs under the lock, which is what keeps a respawn from racing a
// shutdown.
func (st *State) serviceRestarts(now time.Time, backoff time.Duration,
	spawn func(RoleSpec) (*Process, error)) (results []restartResult, finished bool) {

	st.lock()
	defer st.unlock()

	for n := st.queue.len(); n > 0; n-- {
		it, _ := st.queue.pop()
		if it.sentinel {
			return results, true
		}
		rec := st.records[it.role]
		if !it.due(now) {
			st.queue.push(it)
			continue
		}
		rec.pending = false
		if st.stopping {
			results = append(results, restartResult{role: it.role, dropped: true})
			continue
		}
		p, e := spawn(rec.spec)
		if e != nil {
			st.enqueueLocked(it.role, now.Add(backoff))
			results = append(results, restartResult{role: it.role, err: e})
			continue
		}
		rec.proc = p
		rec.pid = p.Pid()
		rec.started = p.Started()
		rec.restarts++
		results = append(results, restartResult{role: it.role, proc: p})
	}
	return results, false
}

// Stopping reports whether shutdown has been requested.
func (st *State) Stopping() bool {
	st.lock()
	defer st.unlock()
	return st.stopping
}

// setStopping sets the stopping flag, reporting whether it was newly set.
func (st *State) setStopping() bool {
	st.lock()
	defer st.unlock()
	if st.stopping {
		return false
	}
	st.stopping = true
	return true
}

// Live returns the number of records holding a running process.
func (st *State) Live() int {
	st.lock()
	defer st.unlock()
	return st.liveLocked()
}

func (st *State) liveLocked() int {
	n := 0
	for _, rec := range st.records {
		if rec.pid != 0 {
			n++
		}
	}
	return n
}

// finished reports whether the main loop may return.
func (st *State) finished() bool {
	st.lock()
	defer st.unlock()
	return st.stopping && st.liveLocked() == 0
}

// reconcile runs after wait4 claimed there are no children left.  If no
// record holds a live pid that is expected, and it returns zero.
// Otherwise, with the lock held so that no respawn can slip in, it asks
// probe (a non-blocking wait) again.  A reaped pid is passed back to the
// caller; a second "no children" means the table no longer matches the
// OS, and ErrDesync is returned.
func (st *State) reconcile(probe func() (int, unix.WaitStatus, error)) (int, unix.WaitStatus, error) {
	st.lock()
	defer st.unlock()
	if st.liveLocked() == 0 {
		return 0, 0, nil
	}
	pid, ws, e := probe()
	if errors.Is(e, ErrNoChildren) {
		return 0, 0, ErrDesync
	}
	return pid, ws, e
}

// live returns the running handles, in configuration order.
func (st *State) live() []roleProc {
	st.lock()
	defer st.unlock()
	rv := make([]roleProc, 0, len(st.order))
	for _, r := range st.order {
		rec := st.records[r]
		if rec.pid != 0 {
			rv = append(rv, roleProc{role: r, proc: rec.proc, limits: rec.spec.Limits})
		}
	}
	return rv
}

// watched returns the running handles that have memory limits.
func (st *State) watched() []roleProc {
	all := st.live()
	rv := all[:0]
	for _, rp := range all {
		if rp.limits.Enabled() {
			rv = append(rv, rp)
		}
	}
	return rv
}

// setResident stores a memory sample, if p is still the current process
// of r.
func (st *State) setResident(r Role, p *Process, rss uint64) {
	st.lock()
	defer st.unlock()
	if rec, ok := st.records[r]; ok && rec.proc == p && rec.pid != 0 {
		rec.rss = rss
	}
}

// Deadline returns when the next memory check is due.  The second value
// is false once the deadline has been cleared for shutdown.
func (st *State) Deadline() (time.Time, bool) {
	st.lock()
	defer st.unlock()
	return st.deadline, !st.deadline.IsZero()
}

// armDeadline sets the first memory check deadline.
func (st *State) armDeadline(t time.Time) {
	st.lock()
	st.deadline = t
	st.unlock()
}

// rearmDeadline moves the deadline forward, unless it has been cleared.
func (st *State) rearmDeadline(t time.Time) bool {
	st.lock()
	defer st.unlock()
	if st.deadline.IsZero() {
		return false
	}
	st.deadline = t
	return true
}

// clearDeadline tells the memory monitor to finish.
func (st *State) clearDeadline() {
	st.lock()
	st.deadline = time.Time{}
	st.unlock()
}

// Roles returns a snapshot of every record, in configuration order.
func (st *State) Roles() []RoleInfo {
	st.lock()
	defer st.unlock()
	rv := make([]RoleInfo, 0, len(st.order))
	for _, r := range st.order {
		rv = append(rv, st.records[r].info())
	}
	return rv
}

// Role returns a snapshot of the record for r.
func (st *State) Role(r Role) (RoleInfo, bool) {
	st.lock()
	defer st.unlock()
	if rec, ok := st.records[r]; ok {
		return rec.info(), true
	}
	return RoleInfo{}, false
}
