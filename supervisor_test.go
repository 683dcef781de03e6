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
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/sys/unix"

	. "github.com/smartystreets/goconvey/convey"
)

var childCmd = []string{"/bin/sh", "testdata/child.sh"}

func childSpecs(workers int, limits Limits) []RoleSpec {
	specs := []RoleSpec{NewRoleSpec(Balancer, "DEFAULT", childCmd, Limits{})}
	for i := 1; i <= workers; i++ {
		specs = append(specs, NewRoleSpec(Worker(i), "worker", childCmd, limits))
	}
	return specs
}

func newTestSupervisor(t *testing.T, specs []RoleSpec, opts ...Option) *Supervisor {
	base := []Option{
		WithBackoff(300 * time.Millisecond),
		WithStopTime(500 * time.Millisecond),
		WithPollInterval(10 * time.Millisecond),
		WithMemoryPeriod(time.Hour),
	}
	s := New(t.Name(), specs, append(base, opts...)...)
	s.SetLogWriter(&testLog{t: t})
	return s
}

func runSupervisor(s *Supervisor) <-chan error {
	ch := make(chan error, 1)
	go func() {
		ch <- s.Run()
	}()
	return ch
}

func waitRun(ch <-chan error) (error, bool) {
	select {
	case e := <-ch:
		return e, true
	case <-time.After(10 * time.Second):
		return nil, false
	}
}

func eventually(d time.Duration, cond func() bool) bool {
	for end := time.Now().Add(d); time.Now().Before(end); {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func roleInfo(s *Supervisor, r Role) RoleInfo {
	info, _ := s.Role(r)
	return info
}

func logHas(s *Supervisor, text string) bool {
	recs, _ := s.GetLog(0)
	for _, r := range recs {
		if strings.Contains(r.Text, text) {
			return true
		}
	}
	return false
}

type fakeSampler struct {
	total uint64
	rss   uint64
	seen  map[int]bool
	sync.Mutex
}

func (fs *fakeSampler) TotalMemory() (uint64, error) {
	return fs.total, nil
}

func (fs *fakeSampler) ResidentMemory(pid int) (uint64, error) {
	fs.Lock()
	fs.seen[pid] = true
	fs.Unlock()
	return fs.rss, nil
}

func (fs *fakeSampler) sampled(pid int) bool {
	fs.Lock()
	defer fs.Unlock()
	return fs.seen[pid]
}

// orphanReaper claims there are never any children.
type orphanReaper struct{}

func (orphanReaper) Wait() (int, unix.WaitStatus, error) {
	return 0, 0, ErrNoChildren
}

func (orphanReaper) Poll() (int, unix.WaitStatus, error) {
	return 0, 0, ErrNoChildren
}

// flakyReaper fails its first few waits with EIO, then reaps for real.
type flakyReaper struct {
	fails int
	real  Reaper
	sync.Mutex
}

func (fr *flakyReaper) failing() bool {
	fr.Lock()
	defer fr.Unlock()
	if fr.fails > 0 {
		fr.fails--
		return true
	}
	return false
}

func (fr *flakyReaper) left() int {
	fr.Lock()
	defer fr.Unlock()
	return fr.fails
}

func (fr *flakyReaper) Wait() (int, unix.WaitStatus, error) {
	if fr.failing() {
		return 0, 0, unix.EIO
	}
	return fr.real.Wait()
}

func (fr *flakyReaper) Poll() (int, unix.WaitStatus, error) {
	return fr.real.Poll()
}

func TestSupervisorLifecycle(t *testing.T) {
	Convey("Given a supervisor with a balancer and two workers", t, func() {
		s := newTestSupervisor(t, childSpecs(2, Limits{}))

		So(s.Run(), ShouldEqual, ErrNotStarted)
		So(s.Start(), ShouldBeNil)
		So(s.Start(), ShouldEqual, ErrStarted)
		ch := runSupervisor(s)

		roles := s.Roles()
		So(roles, ShouldHaveLength, 3)
		pids := map[int]bool{}
		for _, r := range roles {
			So(r.Running, ShouldBeTrue)
			pids[r.Pid] = true
		}
		So(pids, ShouldHaveLength, 3)
		So(roles[0].Role, ShouldEqual, Balancer)
		So(roles[0].Argv, ShouldResemble, childCmd)
		So(roles[2].Name, ShouldEqual, "worker-2")
		So(roles[2].Argv[len(roles[2].Argv)-1], ShouldEqual, "--index=2")
		So(s.GetInfo().Live, ShouldEqual, 3)

		Convey("A dead worker is restarted with the same command after the backoff", func() {
			old := roleInfo(s, Worker(1))
			t0 := time.Now()
			So(unix.Kill(old.Pid, unix.SIGKILL), ShouldBeNil)

			So(eventually(5*time.Second, func() bool {
				info := roleInfo(s, Worker(1))
				return info.Running && info.Pid != old.Pid
			}), ShouldBeTrue)

			info := roleInfo(s, Worker(1))
			So(info.Argv, ShouldResemble, old.Argv)
			So(info.Restarts, ShouldEqual, 1)
			So(info.Status, ShouldEqual, "signal: SIGKILL")
			So(info.Started.Sub(t0), ShouldBeGreaterThanOrEqualTo, 300*time.Millisecond)
			So(roleInfo(s, Balancer).Pid, ShouldEqual, roles[0].Pid)
			So(roleInfo(s, Worker(2)).Pid, ShouldEqual, roles[2].Pid)

			s.Shutdown()
			e, ok := waitRun(ch)
			So(ok, ShouldBeTrue)
			So(e, ShouldBeNil)
		})

		Convey("A pending restart is dropped on shutdown", func() {
			old := roleInfo(s, Worker(1))
			So(unix.Kill(old.Pid, unix.SIGKILL), ShouldBeNil)
			So(eventually(5*time.Second, func() bool {
				return roleInfo(s, Worker(1)).Pending
			}), ShouldBeTrue)

			s.Shutdown()
			e, ok := waitRun(ch)
			So(ok, ShouldBeTrue)
			So(e, ShouldBeNil)

			So(roleInfo(s, Worker(1)).Restarts, ShouldEqual, 0)
			So(roleInfo(s, Worker(1)).Running, ShouldBeFalse)
		})

		Convey("Shutdown stops everything and restarts nothing", func() {
			s.Shutdown()
			s.Shutdown()
			So(s.Stopping(), ShouldBeTrue)
			e, ok := waitRun(ch)
			So(ok, ShouldBeTrue)
			So(e, ShouldBeNil)

			for _, r := range s.Roles() {
				So(r.Running, ShouldBeFalse)
				So(r.Restarts, ShouldEqual, 0)
				So(r.Status, ShouldEqual, "signal: SIGTERM")
			}
			for _, pid := range []int{roles[0].Pid, roles[1].Pid, roles[2].Pid} {
				So(unix.Kill(pid, 0), ShouldEqual, unix.ESRCH)
			}
			So(s.GetInfo().Pending, ShouldEqual, 0)
			So(logHas(s, "shut down"), ShouldBeTrue)
		})
	})
}

func TestSupervisorStubborn(t *testing.T) {
	Convey("A role ignoring SIGTERM is killed on shutdown", t, func() {
		specs := []RoleSpec{
			NewRoleSpec(Balancer, "DEFAULT", []string{"/bin/sh", "testdata/stubborn.sh"}, Limits{}),
		}
		s := newTestSupervisor(t, specs, WithStopTime(100*time.Millisecond))
		So(s.Start(), ShouldBeNil)
		ch := runSupervisor(s)
		time.Sleep(200 * time.Millisecond)

		s.Shutdown()
		e, ok := waitRun(ch)
		So(ok, ShouldBeTrue)
		So(e, ShouldBeNil)
		So(roleInfo(s, Balancer).Status, ShouldEqual, "signal: SIGKILL")
		So(logHas(s, "killed"), ShouldBeTrue)
	})
}

func TestSupervisorMemory(t *testing.T) {
	Convey("A worker over one percent of memory is restarted", t, func() {
		fs := &fakeSampler{
			total: 1000000000,
			rss:   20000000,
			seen:  map[int]bool{},
		}
		s := newTestSupervisor(t, childSpecs(1, Limits{Percent: 1}),
			WithSampler(fs),
			WithMemoryPeriod(100*time.Millisecond))
		So(s.Start(), ShouldBeNil)
		ch := runSupervisor(s)

		bal := roleInfo(s, Balancer)
		old := roleInfo(s, Worker(1))

		So(eventually(5*time.Second, func() bool {
			return roleInfo(s, Worker(1)).Restarts >= 1
		}), ShouldBeTrue)
		So(fs.sampled(old.Pid), ShouldBeTrue)
		So(fs.sampled(bal.Pid), ShouldBeFalse)
		So(roleInfo(s, Balancer).Pid, ShouldEqual, bal.Pid)
		So(roleInfo(s, Balancer).Restarts, ShouldEqual, 0)
		So(logHas(s, "over memory limit (20000000 > 10000000 bytes)"), ShouldBeTrue)

		s.Shutdown()
		e, ok := waitRun(ch)
		So(ok, ShouldBeTrue)
		So(e, ShouldBeNil)
	})
}

func TestSupervisorStartFailure(t *testing.T) {
	Convey("A role that cannot be spawned fails startup", t, func() {
		specs := []RoleSpec{
			NewRoleSpec(Balancer, "DEFAULT", childCmd, Limits{}),
			NewRoleSpec(Worker(1), "w1", []string{"testdata/does-not-exist"}, Limits{}),
		}
		s := newTestSupervisor(t, specs)
		e := s.Start()
		So(errors.Is(e, ErrSpawn), ShouldBeTrue)

		bal := roleInfo(s, Balancer)
		So(bal.Pid, ShouldNotEqual, 0)
		So(unix.Kill(bal.Pid, 0), ShouldEqual, unix.ESRCH)
		So(s.Run(), ShouldEqual, ErrNotStarted)
	})
}

func TestSupervisorWaitErrors(t *testing.T) {
	Convey("Wait errors other than no children are logged and survived", t, func() {
		fr := &flakyReaper{fails: 3, real: NewReaper()}
		s := newTestSupervisor(t, childSpecs(1, Limits{}), WithReaper(fr))
		So(s.Start(), ShouldBeNil)
		ch := runSupervisor(s)

		So(eventually(5*time.Second, func() bool {
			return fr.left() == 0 && logHas(s, "Failed waiting for children")
		}), ShouldBeTrue)
		So(logHas(s, "Failed waiting for children"), ShouldBeTrue)

		old := roleInfo(s, Worker(1))
		So(unix.Kill(old.Pid, unix.SIGKILL), ShouldBeNil)
		So(eventually(5*time.Second, func() bool {
			info := roleInfo(s, Worker(1))
			return info.Running && info.Pid != old.Pid
		}), ShouldBeTrue)
		So(roleInfo(s, Worker(1)).Restarts, ShouldEqual, 1)

		s.Shutdown()
		e, ok := waitRun(ch)
		So(ok, ShouldBeTrue)
		So(e, ShouldBeNil)
	})
}

func TestSupervisorDesync(t *testing.T) {
	Convey("Losing track of live children is fatal", t, func() {
		s := newTestSupervisor(t, childSpecs(1, Limits{}), WithReaper(orphanReaper{}))
		So(s.Start(), ShouldBeNil)
		roles := s.Roles()

		e, ok := waitRun(runSupervisor(s))
		So(ok, ShouldBeTrue)
		So(e, ShouldEqual, ErrDesync)
		So(s.Stopping(), ShouldBeTrue)

		// Nobody reaped these; clean up by hand.
		for _, r := range roles {
			unix.Kill(r.Pid, unix.SIGKILL)
			var ws unix.WaitStatus
			unix.Wait4(r.Pid, &ws, 0, nil)
		}
	})
}
