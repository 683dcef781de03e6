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
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLimits(t *testing.T) {
	Convey("Memory limits", t, func() {
		const total = 1000000000

		Convey("No limits never overflow", func() {
			l := Limits{}
			So(l.Enabled(), ShouldBeFalse)
			So(l.Ceiling(total), ShouldEqual, 0)
			So(l.Exceeded(1<<40, total), ShouldBeFalse)
		})

		Convey("Absolute limit", func() {
			l := Limits{Absolute: 1000}
			So(l.Enabled(), ShouldBeTrue)
			So(l.Exceeded(1000, total), ShouldBeFalse)
			So(l.Exceeded(1001, total), ShouldBeTrue)
		})

		Convey("One percent of 1e9 flags 2e7", func() {
			l := Limits{Percent: 1}
			So(l.Ceiling(total), ShouldEqual, 10000000)
			So(l.Exceeded(20000000, total), ShouldBeTrue)
			So(l.Exceeded(9000000, total), ShouldBeFalse)
		})

		Convey("Either limit alone is enough", func() {
			l := Limits{Absolute: 50000000, Percent: 1}
			So(l.Ceiling(total), ShouldEqual, 10000000)
			So(l.Exceeded(20000000, total), ShouldBeTrue)

			l = Limits{Absolute: 5000000, Percent: 10}
			So(l.Ceiling(total), ShouldEqual, 5000000)
			So(l.Exceeded(6000000, total), ShouldBeTrue)
		})

		Convey("Unknown total disables the percentage", func() {
			l := Limits{Percent: 1}
			So(l.Exceeded(20000000, 0), ShouldBeFalse)
		})
	})
}
