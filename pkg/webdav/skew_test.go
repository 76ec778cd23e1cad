/*
 * ocsync, Copyright 2023 ocsync authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package webdav

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestClockSkewConversions(t *testing.T) {
	Convey("Given a session whose clock reads 300s behind the server", t, func() {
		var c clockSkew
		now := time.Now().Unix()
		c.update(now+300, 5*time.Second)

		Convey("a resource's server mtime is surfaced with the delta subtracted", func() {
			serverMtime := int64(1_700_000_000)
			So(c.toEngine(serverMtime), ShouldEqual, serverMtime-300)
		})

		Convey("utimes adds the delta back before sending on the wire", func() {
			engineMtime := int64(1_699_999_700)
			So(c.toServer(engineMtime), ShouldEqual, engineMtime+300)
		})
	})

	Convey("average reports the mean of all recorded samples", t, func() {
		var c clockSkew
		now := time.Now().Unix()
		c.update(now+100, time.Hour)
		c.update(now+200, time.Hour)
		So(c.average(), ShouldEqual, 150.0)
	})
}
