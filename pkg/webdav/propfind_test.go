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

const sampleMultistatus = `<?xml version="1.0" encoding="utf-8"?>
<D:multistatus xmlns:D="DAV:">
 <D:response>
  <D:href>/files/</D:href>
  <D:propstat>
   <D:prop>
    <D:getlastmodified>Wed, 15 Mar 2023 12:00:00 GMT</D:getlastmodified>
    <D:resourcetype><D:collection/></D:resourcetype>
   </D:prop>
   <D:status>HTTP/1.1 200 OK</D:status>
  </D:propstat>
 </D:response>
 <D:response>
  <D:href>/files/a.txt</D:href>
  <D:propstat>
   <D:prop>
    <D:getlastmodified>Wed, 15 Mar 2023 12:00:00 GMT</D:getlastmodified>
    <D:getcontentlength>1024</D:getcontentlength>
    <D:getetag>"abc123"</D:getetag>
    <D:resourcetype/>
   </D:prop>
   <D:status>HTTP/1.1 200 OK</D:status>
  </D:propstat>
 </D:response>
</D:multistatus>
`

// newTestSession wires a Session directly against an httptest server,
// bypassing Connect's DNS/TLS plumbing.
func newTestSession(ts *httptest.Server) *Session {
	s := NewSession(Options{})
	s.client = ts.Client()
	s.baseURL = ts.URL
	s.connected = true
	return s
}

func TestFetchCachesListingContext(t *testing.T) {
	Convey("Given a server that serves one PROPFIND response", t, func() {
		hits := 0
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits++
			w.Header().Set("Content-Type", "application/xml")
			w.Header().Set("Date", "Wed, 15 Mar 2023 12:00:00 GMT")
			w.WriteHeader(http.StatusMultiStatus)
			w.Write([]byte(sampleMultistatus))
		}))
		defer ts.Close()
		s := newTestSession(ts)

		Convey("two consecutive fetches with no mutation return the same instance with refcount >= 2", func() {
			ctx1, err1 := s.fetchByPath("/files/", 1)
			So(err1, ShouldBeNil)
			ctx2, err2 := s.fetchByPath("/files/", 1)
			So(err2, ShouldBeNil)

			So(ctx2, ShouldEqual, ctx1)
			So(ctx1.refs(), ShouldBeGreaterThanOrEqualTo, 2)
			So(hits, ShouldEqual, 1)
		})

		Convey("resources decode resourcetype, size, etag and mtime", func() {
			ctx, err := s.fetchByPath("/files/", 1)
			So(err, ShouldBeNil)
			So(len(ctx.List), ShouldEqual, 2)

			var file *Resource
			for _, r := range ctx.List {
				if r.Name == "a.txt" {
					file = r
				}
			}
			So(file, ShouldNotBeNil)
			So(file.IsDir(), ShouldBeFalse)
			So(file.Size, ShouldEqual, int64(1024))
			So(file.ETag, ShouldEqual, "abc123")
		})
	})

	Convey("Given a server replying non-XML content", t, func() {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/plain")
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("not xml"))
		}))
		defer ts.Close()
		s := newTestSession(ts)

		Convey("fetch fails with wrong-content and list is not populated", func() {
			ctx, err := s.fetchByPath("/files/", 1)
			So(ctx, ShouldBeNil)
			So(err, ShouldNotBeNil)
			So(err.Kind, ShouldEqual, KindWrongContent)
		})
	})

	Convey("Given a server replying 404", t, func() {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer ts.Close()
		s := newTestSession(ts)

		Convey("fetch fails with no-such-entry", func() {
			_, err := s.fetchByPath("/missing/", 1)
			So(err, ShouldNotBeNil)
			So(err.Kind, ShouldEqual, KindNoSuchEntry)
		})
	})
}
