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
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLog(t *testing.T) {
	Convey("The event log keeps the newest lines", t, func() {
		l := NewLog(3)
		recs, etag := l.GetRecords(0)
		So(recs, ShouldBeEmpty)

		recs, same := l.GetRecords(etag)
		So(recs, ShouldBeNil)
		So(same, ShouldEqual, etag)

		for i := 0; i < 4; i++ {
			fmt.Fprintf(l, "line %d\n", i)
		}
		recs, next := l.GetRecords(etag)
		So(next, ShouldEqual, etag+4)
		So(recs, ShouldHaveLength, 3)
		So(recs[0].Text, ShouldEqual, "line 1")
		So(recs[2].Text, ShouldEqual, "line 3")
		So(recs[2].Id, ShouldEqual, next)

		Convey("Watch returns at once when there is news", func() {
			So(l.Watch(etag, time.Hour), ShouldEqual, next)
		})

		Convey("Watch times out when there is none", func() {
			t0 := time.Now()
			So(l.Watch(next, 50*time.Millisecond), ShouldEqual, next)
			So(time.Since(t0), ShouldBeGreaterThanOrEqualTo, 50*time.Millisecond)
		})

		Convey("Watch wakes up on a write", func() {
			go func() {
				time.Sleep(20 * time.Millisecond)
				l.Write([]byte("late\n"))
			}()
			So(l.Watch(next, 5*time.Second), ShouldEqual, next+1)
		})
	})

	Convey("The multi logger fans out", t, func() {
		a := NewLog(10)
		b := NewLog(10)
		la := log.New(a, "a: ", 0)
		lb := log.New(b, "b: ", 0)
		m := NewMultiLogger()
		m.AddLogger(la)
		m.AddLogger(la)
		m.AddLogger(lb)
		m.Logger().Printf("hello")
		m.DelLogger(lb)
		m.Logger().Printf("again")

		recs, _ := a.GetRecords(0)
		So(recs, ShouldHaveLength, 2)
		So(recs[0].Text, ShouldEqual, "a: hello")
		recs, _ = b.GetRecords(0)
		So(recs, ShouldHaveLength, 1)
		So(recs[0].Text, ShouldEqual, "b: hello")

		w := m.ForRole(Worker(2))
		So(m.ForRole(Worker(2)), ShouldEqual, w)
		w.Printf("up")
		recs, _ = a.GetRecords(0)
		So(recs[2].Text, ShouldEqual, "a: [worker-2] up")
	})
}

func TestPacer(t *testing.T) {
	Convey("A kicked pacer returns early", t, func() {
		p := newPacer(time.Hour)
		p.Kick()
		p.Kick()
		t0 := time.Now()
		p.Wait()
		So(time.Since(t0), ShouldBeLessThan, time.Second)

		q := newPacer(20 * time.Millisecond)
		t0 = time.Now()
		q.Wait()
		So(time.Since(t0), ShouldBeGreaterThanOrEqualTo, 20*time.Millisecond)
	})
}
