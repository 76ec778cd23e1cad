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
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestGetDecompressesGzipBody(t *testing.T) {
	Convey("Given a server replying with a gzip-encoded body", t, func() {
		plain := bytes.Repeat([]byte("x"), 2048)
		var gz bytes.Buffer
		zw := gzip.NewWriter(&gz)
		zw.Write(plain)
		zw.Close()

		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Encoding", "gzip")
			w.Header().Set("ETag", `"gzetag"`)
			w.WriteHeader(http.StatusOK)
			w.Write(gz.Bytes())
		}))
		defer ts.Close()
		s := newTestSession(ts)

		Convey("sendfileGet writes exactly the decompressed bytes and records the ETag", func() {
			tmp, err := os.CreateTemp("", "ocsync-get-*")
			So(err, ShouldBeNil)
			defer os.Remove(tmp.Name())
			defer tmp.Close()

			tr := &Transfer{session: s, Method: "GET", CleanURI: "/a.bin", RawURI: "owncloud://ex.com/a.bin"}
			gerr := tr.sendfileGet(tmp)
			So(gerr, ShouldBeNil)

			data, rerr := os.ReadFile(tmp.Name())
			So(rerr, ShouldBeNil)
			So(len(data), ShouldEqual, 2048)
			So(bytes.Equal(data, plain), ShouldBeTrue)

			etag, ok := s.id.lookup("/a.bin")
			So(ok, ShouldBeTrue)
			So(etag, ShouldEqual, "gzetag")
		})
	})
}

func TestPutFailsWhenParentMissing(t *testing.T) {
	Convey("Given a server with no /missing-parent collection", t, func() {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == "PROPFIND" {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			t.Fatalf("unexpected request %s %s: PUT body must not be sent", r.Method, r.URL.Path)
		}))
		defer ts.Close()
		s := newTestSession(ts)

		Convey("Open for write fails with no-such-entry before any PUT is issued", func() {
			_, err := s.Open("owncloud://ex.com/missing-parent/file.txt", OWrOnly|OCreat, 0o644)
			So(err, ShouldNotBeNil)
			So(err.Kind, ShouldEqual, KindNoSuchEntry)
		})
	})
}

func TestRoundTripUploadClearsCaches(t *testing.T) {
	Convey("Given a server accepting PUT under an existing parent", t, func() {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case "PROPFIND":
				w.Header().Set("Content-Type", "application/xml")
				w.WriteHeader(http.StatusMultiStatus)
				w.Write([]byte(`<?xml version="1.0"?><D:multistatus xmlns:D="DAV:">
<D:response><D:href>/</D:href><D:propstat><D:prop>
<D:getlastmodified>Wed, 15 Mar 2023 12:00:00 GMT</D:getlastmodified>
<D:resourcetype><D:collection/></D:resourcetype></D:prop>
<D:status>HTTP/1.1 200 OK</D:status></D:propstat></D:response>
</D:multistatus>`))
			case "PUT":
				body, _ := io.ReadAll(r.Body)
				So(len(body), ShouldEqual, 1024)
				w.WriteHeader(http.StatusCreated)
			default:
				w.WriteHeader(http.StatusOK)
			}
		}))
		defer ts.Close()
		s := newTestSession(ts)
		s.stat.put("sentinel", FileStat{Name: "sentinel"})
		s.id.put("/a.bin", "old-etag")

		Convey("Open, sendfile, and close clear every cache", func() {
			tr, err := s.Open("owncloud://ex.com/a.bin", OWrOnly|OCreat, 0o644)
			So(err, ShouldBeNil)

			src := bytes.NewReader(bytes.Repeat([]byte("y"), 1024))
			tmp, cerr := os.CreateTemp("", "ocsync-put-*")
			So(cerr, ShouldBeNil)
			defer os.Remove(tmp.Name())
			io.Copy(tmp, src)
			tmp.Seek(0, io.SeekStart)
			defer tmp.Close()

			So(tr.Sendfile(tmp), ShouldBeNil)
			So(tr.Close(), ShouldBeNil)

			_, found := s.stat.lookup("sentinel")
			So(found, ShouldBeFalse)

			_, idFound := s.id.lookup("/a.bin")
			So(idFound, ShouldBeFalse)

			So(s.propfind.lookup("/"), ShouldBeNil)
		})
	})
}
