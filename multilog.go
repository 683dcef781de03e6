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
	"strings"
	"sync"
)

// MultiLogger fans each line written to it out to a set of destination
// loggers, which keep their own prefixes and flags.  It also hands out
// one logger per role, tagging every line with the role name, so that
// the supervisor and the process handles it creates all log the same way.
type MultiLogger struct {
	log   *log.Logger
	dests []*log.Logger
	roles map[Role]*log.Logger
	lock  sync.Mutex
}

func NewMultiLogger() *MultiLogger {
	m := &MultiLogger{roles: make(map[Role]*log.Logger)}
	m.log = log.New(m, "", 0)
	return m
}

// Write implements io.Writer.  Input is expected a line at a time, as
// log.Logger delivers it.
func (m *MultiLogger) Write(b []byte) (int, error) {
	lines := strings.Split(strings.TrimRight(string(b), "\n"), "\n")
	m.lock.Lock()
	for _, d := range m.dests {
		for _, line := range lines {
			d.Println(line)
		}
	}
	m.lock.Unlock()
	return len(b), nil
}

// AddLogger adds a destination.  Adding the same logger twice is a no-op.
func (m *MultiLogger) AddLogger(l *log.Logger) {
	m.lock.Lock()
	defer m.lock.Unlock()
	for _, d := range m.dests {
		if d == l {
			return
		}
	}
	m.dests = append(m.dests, l)
}

// DelLogger removes a destination.
func (m *MultiLogger) DelLogger(l *log.Logger) {
	m.lock.Lock()
	defer m.lock.Unlock()
	for i, d := range m.dests {
		if d == l {
			m.dests = append(m.dests[:i], m.dests[i+1:]...)
			return
		}
	}
}

// Logger returns the untagged logger feeding every destination.
func (m *MultiLogger) Logger() *log.Logger {
	return m.log
}

// ForRole returns the logger for lines about r, which are prefixed with
// "[role] ".  The same logger is returned on every call.
func (m *MultiLogger) ForRole(r Role) *log.Logger {
	m.lock.Lock()
	defer m.lock.Unlock()
	l, ok := m.roles[r]
	if !ok {
		l = log.New(m, "["+r.String()+"] ", 0)
		m.roles[r] = l
	}
	return l
}
