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
	"strings"
	"sync"
	"time"
)

const (
	MaxLogRecords = 1000
)

// LogRecord is one line of the supervisor event log.
type LogRecord struct {
	Id   int64     `json:"id,string"`
	Time time.Time `json:"time"`
	Text string    `json:"text"`
}

// Log keeps the most recent lines written to it in a ring, so that they
// can be served to status clients.  Each line gets an increasing Id; the
// Id of the newest line doubles as an Etag for the whole log.
type Log struct {
	records []LogRecord
	next    int // total lines ever written; next slot is next % len
	id      int64
	cv      *sync.Cond
	mx      sync.Mutex
}

// NewLog returns a Log holding up to max lines.  A max of zero means
// MaxLogRecords.
func NewLog(max int) *Log {
	if max <= 0 {
		max = MaxLogRecords
	}
	l := &Log{
		records: make([]LogRecord, max),
		// Start ids from the clock, so that a client polling across a
		// restart of the supervisor does not mistake an old Etag for
		// a current one.
		id: time.Now().UnixNano(),
	}
	l.cv = sync.NewCond(&l.mx)
	return l
}

// Write implements io.Writer for use under a log.Logger.  Each line of b
// becomes a record.
func (l *Log) Write(b []byte) (int, error) {
	now := time.Now()
	l.mx.Lock()
	for _, line := range strings.Split(strings.Trim(string(b), "\n"), "\n") {
		l.id++
		l.records[l.next%len(l.records)] = LogRecord{
			Id:   l.id,
			Time: now,
			Text: line,
		}
		l.next++
	}
	l.cv.Broadcast()
	l.mx.Unlock()
	return len(b), nil
}

// GetRecords returns the stored records, oldest first, along with the
// current Etag.  If last equals the current Etag nothing has changed, and
// nil is returned.
func (l *Log) GetRecords(last int64) ([]LogRecord, int64) {
	l.mx.Lock()
	defer l.mx.Unlock()
	if l.id == last {
		return nil, last
	}
	cnt := l.next
	if cnt > len(l.records) {
		cnt = len(l.records)
	}
	recs := make([]LogRecord, 0, cnt)
	for i := l.next - cnt; i < l.next; i++ {
		recs = append(recs, l.records[i%len(l.records)])
	}
	return recs, l.id
}

// Watch waits up to expire for the Etag to move past last, and returns
// the Etag then current.  An expire of zero just polls.
func (l *Log) Watch(last int64, expire time.Duration) int64 {
	expired := expire <= 0
	var timer *time.Timer
	if !expired {
		timer = time.AfterFunc(expire, func() {
			l.mx.Lock()
			expired = true
			l.cv.Broadcast()
			l.mx.Unlock()
		})
	}

	l.mx.Lock()
	for l.id == last && !expired {
		l.cv.Wait()
	}
	last = l.id
	l.mx.Unlock()
	if timer != nil {
		timer.Stop()
	}
	return last
}
