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

// withSkew stamps a fixed server-minus-client delta directly onto the
// session's clock-skew tracker, bypassing the wall-clock sampling in
// clockSkew.update so the scenario is deterministic regardless of when
// the test actually runs.
func withSkew(s *Session, delta int64) {
	s.skew.delta = delta
}

func TestMkdirAlreadyExists(t *testing.T) {
	Convey("Given a server that answers MKCOL with 405", t, func() {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			So(r.Method, ShouldEqual, "MKCOL")
			w.WriteHeader(http.StatusMethodNotAllowed)
		}))
		defer ts.Close()
		s := newTestSession(ts)

		Convey("Mkdir maps it to already-exists", func() {
			err := s.Mkdir("owncloud://ex.com/files/docs")
			So(err, ShouldNotBeNil)
			So(err.Kind, ShouldEqual, KindAlreadyExists)
		})
	})
}

func TestStatNotFound(t *testing.T) {
	Convey("Given a server that 404s any PROPFIND", t, func() {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer ts.Close()
		s := newTestSession(ts)

		Convey("Stat yields no-such-entry", func() {
			_, err := s.Stat("owncloud://ex.com/files/gone.txt")
			So(err, ShouldNotBeNil)
			So(err.Kind, ShouldEqual, KindNoSuchEntry)
		})
	})
}

func TestRenameInvalidatesSourceAndServesDestination(t *testing.T) {
	Convey("Given a server modeling a rename from /a to /b", t, func() {
		state := "a"
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case "MOVE":
				So(r.Header.Get("Overwrite"), ShouldEqual, "T")
				So(r.Header.Get("Destination"), ShouldContainSubstring, "/b")
				state = "b"
				w.WriteHeader(http.StatusCreated)
			case "PROPFIND":
				path := r.URL.Path
				if (path == "/a" && state != "a") || (path == "/b" && state != "b") {
					w.WriteHeader(http.StatusNotFound)
					return
				}
				w.Header().Set("Content-Type", "application/xml")
				w.WriteHeader(http.StatusMultiStatus)
				w.Write([]byte(`<?xml version="1.0"?><D:multistatus xmlns:D="DAV:">
<D:response><D:href>` + path + `</D:href><D:propstat><D:prop>
<D:getlastmodified>Wed, 15 Mar 2023 12:00:00 GMT</D:getlastmodified>
<D:getcontentlength>10</D:getcontentlength><D:getetag>"e1"</D:getetag>
<D:resourcetype/></D:prop><D:status>HTTP/1.1 200 OK</D:status></D:propstat></D:response>
</D:multistatus>`))
			default:
				w.WriteHeader(http.StatusOK)
			}
		}))
		defer ts.Close()
		s := newTestSession(ts)

		Convey("rename succeeds, old path 404s, new path resolves", func() {
			So(s.Rename("owncloud://ex.com/a", "owncloud://ex.com/b"), ShouldBeNil)

			_, errOld := s.Stat("owncloud://ex.com/a")
			So(errOld, ShouldNotBeNil)
			So(errOld.Kind, ShouldEqual, KindNoSuchEntry)

			st, errNew := s.Stat("owncloud://ex.com/b")
			So(errNew, ShouldBeNil)
			So(st.ETag, ShouldEqual, "e1")
		})
	})
}

func TestUtimesSendsSkewAdjustedValue(t *testing.T) {
	Convey("Given a session with a 300s forward clock skew", t, func() {
		var gotBody string
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			So(r.Method, ShouldEqual, "PROPPATCH")
			buf := make([]byte, 4096)
			n, _ := r.Body.Read(buf)
			gotBody = string(buf[:n])
			w.WriteHeader(http.StatusOK)
		}))
		defer ts.Close()
		s := newTestSession(ts)
		withSkew(s, 300)

		Convey("utimes sends t + time_delta on the wire", func() {
			err := s.Utimes("owncloud://ex.com/a", 1_699_999_700)
			So(err, ShouldBeNil)
			So(gotBody, ShouldContainSubstring, "1700000000")
		})
	})
}
