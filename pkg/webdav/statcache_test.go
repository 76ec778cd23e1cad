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
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestMutationClearsStatAndIDCaches(t *testing.T) {
	Convey("Given a session with a populated Stat and ID cache", t, func() {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))
		defer ts.Close()
		s := newTestSession(ts)
		s.stat.put("a.bin", FileStat{Name: "a.bin"})
		s.id.put("/a.bin", "etag-1")

		Convey("after a successful mutating DELETE, both caches no longer contain the entry", func() {
			err := s.Unlink("owncloud://ex.com/a.bin")
			So(err, ShouldBeNil)

			_, statOK := s.stat.lookup("a.bin")
			So(statOK, ShouldBeFalse)

			_, idOK := s.id.lookup("/a.bin")
			So(idOK, ShouldBeFalse)
		})
	})
}

func TestResourceToStatSubtractsSkew(t *testing.T) {
	Convey("Given a session with a 300s clock skew", t, func() {
		s := NewSession(Options{})
		withSkew(s, 300)

		Convey("a file resource's engine mtime is server mtime minus the delta", func() {
			r := &Resource{Name: "a.bin", Type: ResourceNormal, ModTime: 1_700_000_000}
			st := s.resourceToStat(r)
			So(st.ModTime, ShouldEqual, int64(1_699_999_700))
			So(st.IsDir, ShouldBeFalse)
			So(st.Mode, ShouldEqual, uint32(0o644))
		})

		Convey("a collection resource gets directory mode bits", func() {
			r := &Resource{Name: "docs", Type: ResourceCollection}
			st := s.resourceToStat(r)
			So(st.IsDir, ShouldBeTrue)
			So(st.Mode, ShouldEqual, uint32(0o555|0o200))
		})
	})
}
