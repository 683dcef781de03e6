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
	"fmt"
	"log"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// Process is a handle on one spawned OS process.  It remembers the exact
// command line it was started with, so that the caller can start a
// replacement, but it never starts one itself.
//
// A Process does not reap its child; whoever does (normally the
// Supervisor main loop) reports the exit through exited.  Until then
// the handle is considered alive.
type Process struct {
	argv    []string
	proc    *os.Process
	pid     int
	started time.Time
	logger  *log.Logger
	done    chan struct{}
	status  unix.WaitStatus
	once    sync.Once
}

// Spawn starts argv as a new process in its own process group, so that a
// terminal interrupt aimed at the supervisor does not hit the children
// directly.  It returns as soon as the process has been created.
//
// Stdout and stderr are inherited, but stdin is not: it is /dev/null.
// A child outside the foreground process group that read the terminal
// would be stopped by SIGTTIN and never exit, so it gets no terminal
// input at all.
func Spawn(argv []string, logger *log.Logger) (*Process, error) {
	if len(argv) == 0 {
		return nil, ErrNoArgv
	}
	if logger == nil {
		logger = log.New(os.Stderr, "", log.LstdFlags)
	}
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if e := cmd.Start(); e != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSpawn, argv[0], e)
	}
	p := &Process{
		argv:    copyArray(argv),
		proc:    cmd.Process,
		pid:     cmd.Process.Pid,
		started: time.Now(),
		logger:  logger,
		done:    make(chan struct{}),
	}
	return p, nil
}

// Pid returns the OS process id.  It stays valid for logging after
// exit, but must not be used to address the process then.
func (p *Process) Pid() int {
	return p.pid
}

// Argv returns a copy of the command line.
func (p *Process) Argv() []string {
	return copyArray(p.argv)
}

// Started returns when the process was spawned.
func (p *Process) Started() time.Time {
	return p.started
}

// Done is closed once the process has been reaped.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// Exited reports whether the process has been reaped.
func (p *Process) Exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// Status describes how the process ended, or "running".
func (p *Process) Status() string {
	if !p.Exited() {
		return "running"
	}
	return describeStatus(p.status)
}

// Signal delivers sig unless the process has already been reaped, in
// which case it returns os.ErrProcessDone without touching the pid.
// Delivery goes through the pidfd when the platform has one, so a
// recycled pid is never hit even in the window before exited is called.
func (p *Process) Signal(sig os.Signal) error {
	if p.Exited() {
		return os.ErrProcessDone
	}
	return p.proc.Signal(sig)
}

// exited records the wait status of a reaped process.  Only the first
// call counts.
func (p *Process) exited(ws unix.WaitStatus) {
	p.once.Do(func() {
		p.status = ws
		close(p.done)
		if p.proc != nil {
			p.proc.Release()
		}
	})
}

// abort kills the process and reaps it directly.  It is only used when
// nobody else is reaping, such as during a failed startup.
func (p *Process) abort() {
	if p.Exited() {
		return
	}
	if e := p.proc.Signal(unix.SIGKILL); e != nil {
		p.logger.Printf("Failed killing %d: %v", p.pid, e)
	}
	var ws unix.WaitStatus
	for {
		_, e := unix.Wait4(p.pid, &ws, 0, nil)
		if e != unix.EINTR {
			break
		}
	}
	p.exited(ws)
}

func describeStatus(ws unix.WaitStatus) string {
	switch {
	case ws.Exited():
		return fmt.Sprintf("exit status %d", ws.ExitStatus())
	case ws.Signaled():
		s := "signal: " + unix.SignalName(ws.Signal())
		if ws.CoreDump() {
			s += " (core dumped)"
		}
		return s
	}
	return fmt.Sprintf("wait status %#x", uint32(ws))
}
