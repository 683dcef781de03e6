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
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"
)

// Supervisor keeps one process running per configured role.  See the
// package documentation for the overall design.
//
// The zero value is not usable; create one with New, then call Start
// followed by Run.  Shutdown may be called from any goroutine, typically
// the one receiving SIGINT or SIGTERM.
type Supervisor struct {
	name  string
	specs []RoleSpec
	state *State

	reaper    Reaper
	sampler   MemorySampler
	metrics   MetricsCollector
	backoff   time.Duration
	stopTime  time.Duration
	memPeriod time.Duration
	pollTime  time.Duration

	logger *log.Logger // primary destination, stderr by default
	mlog   *MultiLogger
	log    *Log

	restartPace *pacer
	memoryPace  *pacer
	idlePace    *pacer
	stopReq     chan struct{}
	quit        chan struct{}
	group       errgroup.Group

	createTime time.Time
	started    bool // Start has been called
	running    bool // Start succeeded
	mx         sync.Mutex
}

// Info is top-level information about a Supervisor.
type Info struct {
	Name       string    `json:"name"`
	Pid        int       `json:"pid"`
	CreateTime time.Time `json:"created"`
	Stopping   bool      `json:"stopping"`
	Live       int       `json:"live"`
	Pending    int       `json:"pendingRestarts"`
}

// New returns a Supervisor for the given roles, which are spawned in the
// order given.
func New(name string, specs []RoleSpec, opts ...Option) *Supervisor {
	if name == "" {
		name = "rolevisor"
	}
	s := &Supervisor{
		name:       name,
		specs:      append([]RoleSpec{}, specs...),
		state:      newState(),
		backoff:    DefaultBackoff,
		stopTime:   DefaultStopTime,
		memPeriod:  DefaultMemoryPeriod,
		pollTime:   DefaultPollInterval,
		mlog:       NewMultiLogger(),
		log:        NewLog(MaxLogRecords),
		stopReq:    make(chan struct{}),
		quit:       make(chan struct{}),
		createTime: time.Now(),
	}
	s.mlog.AddLogger(log.New(s.log, "", 0))
	s.SetLogger(log.New(os.Stderr, "", log.LstdFlags))
	for _, o := range opts {
		o(s)
	}
	if s.reaper == nil {
		s.reaper = NewReaper()
	}
	if s.sampler == nil {
		s.sampler = NewSampler()
	}
	if s.metrics == nil {
		s.metrics = NewNoopMetricsCollector()
	}
	s.restartPace = newPacer(s.pollTime)
	s.memoryPace = newPacer(s.pollTime)
	s.idlePace = newPacer(s.pollTime)
	return s
}

// Name returns the name given to New.
func (s *Supervisor) Name() string {
	return s.name
}

// SetLogger replaces the primary log destination.  The in-memory event
// log served by GetLog is always kept.
func (s *Supervisor) SetLogger(l *log.Logger) {
	if s.logger != nil {
		s.mlog.DelLogger(s.logger)
	}
	s.logger = l
	s.mlog.AddLogger(l)
}

// SetLogWriter is SetLogger for a plain writer, without timestamps.
func (s *Supervisor) SetLogWriter(w io.Writer) {
	s.SetLogger(log.New(w, "", 0))
}

func (s *Supervisor) logf(format string, v ...interface{}) {
	s.mlog.Logger().Printf(format, v...)
}

func (s *Supervisor) rolef(r Role, format string, v ...interface{}) {
	s.mlog.ForRole(r).Printf(format, v...)
}

func (s *Supervisor) procLogger(r Role) *log.Logger {
	return s.mlog.ForRole(r)
}

// Start spawns every role and starts the background loops.  If any role
// fails to spawn, the ones already running are killed and the error,
// wrapping ErrSpawn, is returned; the Supervisor cannot be used after
// that.
func (s *Supervisor) Start() error {
	s.mx.Lock()
	if s.started {
		s.mx.Unlock()
		return ErrStarted
	}
	s.started = true
	s.mx.Unlock()

	s.logf("*** Rolevisor starting: %s ***", s.name)
	for _, spec := range s.specs {
		p, e := Spawn(spec.Argv, s.procLogger(spec.Role))
		if e != nil {
			s.rolef(spec.Role, "Failed to start: %v", e)
			s.state.setStopping()
			for _, rp := range s.state.live() {
				rp.proc.abort()
			}
			return e
		}
		s.state.add(spec, p)
		s.metrics.ProcessSpawned(spec.Role)
		s.rolef(spec.Role, "Started %s: pid %d",
			strings.Join(spec.Argv, " "), p.Pid())
	}

	// Armed here rather than by the monitor, so that a Run finishing
	// early cannot clear the deadline before it was ever set.
	s.state.armDeadline(time.Now().Add(s.memPeriod))

	s.group.Go(s.restartLoop)
	s.group.Go(s.memoryLoop)
	s.group.Go(s.shutdownLoop)

	s.mx.Lock()
	s.running = true
	s.mx.Unlock()
	return nil
}

// Run reaps children and routes their exits to the restart scheduler
// until a shutdown has completed.  It returns nil after a clean shutdown,
// and ErrDesync if the OS reports no children while the table still holds
// running processes.  Run returns only after the background loops have
// finished.
func (s *Supervisor) Run() error {
	s.mx.Lock()
	running := s.running
	s.running = false
	s.mx.Unlock()
	if !running {
		return ErrNotStarted
	}

	e := s.mainLoop()
	if e != nil {
		s.state.setStopping()
	}
	close(s.quit)
	s.state.pushSentinel()
	s.state.clearDeadline()
	s.restartPace.Kick()
	s.memoryPace.Kick()
	s.group.Wait()

	if e != nil {
		s.logf("*** Rolevisor failed: %s: %v ***", s.name, e)
		return e
	}
	s.logf("*** Rolevisor shut down: %s ***", s.name)
	return nil
}

func (s *Supervisor) mainLoop() error {
	for !s.state.finished() {
		pid, ws, e := s.reaper.Wait()
		if errors.Is(e, ErrNoChildren) {
			pid, ws, e = s.state.reconcile(s.reaper.Poll)
			if errors.Is(e, ErrDesync) {
				return e
			}
			if e == nil && pid == 0 {
				// Nothing is running; everything awaits respawn.
				s.idlePace.Wait()
				continue
			}
		}
		if e != nil {
			s.logf("Failed waiting for children: %v", e)
			s.metrics.WaitError()
			s.idlePace.Wait()
			continue
		}
		s.reaped(pid, ws)
	}
	return nil
}

// reaped handles the exit of pid, which has already been waited for.
func (s *Supervisor) reaped(pid int, ws unix.WaitStatus) {
	r, p, ok := s.state.release(pid, ws)
	if !ok {
		s.logf("Reaped unknown child %d: %s", pid, describeStatus(ws))
		return
	}
	s.metrics.ProcessExited(r)
	if s.state.enqueue(r, time.Now().Add(s.backoff)) {
		s.rolef(r, "Process %d stopped (%s), restarting in %v",
			pid, p.Status(), s.backoff)
		s.metrics.RestartQueueDepth(s.state.QueueLen())
		s.restartPace.Kick()
	} else {
		s.rolef(r, "Process %d stopped (%s)", pid, p.Status())
	}
}

// Shutdown requests a graceful shutdown of every process and of the
// Supervisor itself.  It does not block; Run returns once the shutdown
// is complete.  Extra calls are ignored.
func (s *Supervisor) Shutdown() {
	if s.state.setStopping() {
		close(s.stopReq)
	}
	s.idlePace.Kick()
}

// shutdownLoop does the blocking part of Shutdown: stopping every running
// process, all at once.
func (s *Supervisor) shutdownLoop() error {
	select {
	case <-s.quit:
		return nil
	case <-s.stopReq:
	}
	s.logf("*** Rolevisor shutting down: %s ***", s.name)

	var g errgroup.Group
	for _, rp := range s.state.live() {
		rp := rp
		g.Go(func() error {
			s.stop(rp.role, rp.proc)
			return nil
		})
	}
	return g.Wait()
}

func (s *Supervisor) stop(r Role, p *Process) {
	t0 := time.Now()
	killed := Stop(p, s.stopTime)
	s.metrics.ProcessStopped(r, time.Since(t0), killed)
	if killed {
		s.rolef(r, "Process %d killed", p.Pid())
	}
}

// Stopping reports whether Shutdown has been called.
func (s *Supervisor) Stopping() bool {
	return s.state.Stopping()
}

// Roles returns a snapshot of every role, in configuration order.
func (s *Supervisor) Roles() []RoleInfo {
	return s.state.Roles()
}

// Role returns a snapshot of one role.
func (s *Supervisor) Role(r Role) (RoleInfo, error) {
	if info, ok := s.state.Role(r); ok {
		return info, nil
	}
	return RoleInfo{}, ErrNoRole
}

// GetInfo returns top-level information about the Supervisor.
func (s *Supervisor) GetInfo() *Info {
	return &Info{
		Name:       s.name,
		Pid:        os.Getpid(),
		CreateTime: s.createTime,
		Stopping:   s.state.Stopping(),
		Live:       s.state.Live(),
		Pending:    s.state.QueueLen(),
	}
}

// GetLog returns the event log; see Log.GetRecords.
func (s *Supervisor) GetLog(lastid int64) ([]LogRecord, int64) {
	return s.log.GetRecords(lastid)
}

// WatchLog waits for the event log to change; see Log.Watch.
func (s *Supervisor) WatchLog(old int64, expire time.Duration) int64 {
	return s.log.Watch(old, expire)
}
