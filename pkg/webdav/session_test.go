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
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

// newHookedTestSession wires a Session whose client goes through the
// real hookedTransport (cookie capture, skew tracking), unlike
// newTestSession which talks to the httptest server directly.
func newHookedTestSession(ts *httptest.Server) *Session {
	s := NewSession(Options{SkewWarnThresh: time.Hour})
	s.baseURL = ts.URL
	s.connected = true
	s.client = &http.Client{Transport: &hookedTransport{base: http.DefaultTransport, session: s}}
	return s
}

func TestCookieCapturedAndReplayed(t *testing.T) {
	Convey("Given a server that sets OCSID on first response", t, func() {
		var sawCookie string
		first := true
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sawCookie = r.Header.Get("Cookie")
			if first {
				w.Header().Set("Set-Cookie", "OCSID=abc123; Path=/; HttpOnly")
				first = false
			}
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusMultiStatus)
			w.Write([]byte(sampleMultistatus))
		}))
		defer ts.Close()
		s := newHookedTestSession(ts)

		Convey("the session key is stored and replayed on the next request", func() {
			_, err1 := s.fetchByPath("/files/", 1)
			So(err1, ShouldBeNil)
			So(s.sessionKey, ShouldEqual, "OCSID=abc123")

			s.propfind.clear()
			_, err2 := s.fetchByPath("/files/", 1)
			So(err2, ShouldBeNil)
			So(sawCookie, ShouldEqual, "OCSID=abc123")
		})
	})
}

func TestResponseDateUpdatesSkew(t *testing.T) {
	Convey("Given a server whose Date header is 300s ahead of local time", t, func() {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			future := time.Now().Add(300 * time.Second).UTC().Format(http.TimeFormat)
			w.Header().Set("Date", future)
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusMultiStatus)
			w.Write([]byte(sampleMultistatus))
		}))
		defer ts.Close()
		s := newHookedTestSession(ts)

		Convey("the skew tracker absorbs the delta", func() {
			_, err := s.fetchByPath("/files/", 1)
			So(err, ShouldBeNil)
			So(s.skew.currentDelta(), ShouldBeBetween, int64(295), int64(305))
		})
	})
}
