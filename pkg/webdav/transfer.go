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
	"os"

	"github.com/juju/ratelimit"
)

// Open flags, aliased from the standard library so callers can pass
// os.O_WRONLY|os.O_CREAT etc. directly.
const (
	ORdOnly = os.O_RDONLY
	OWrOnly = os.O_WRONLY
	ORdWr   = os.O_RDWR
	OCreat  = os.O_CREATE
	OTrunc  = os.O_TRUNC
)

// Transfer is the Transfer Context/§4.8: the in-flight
// state for one Open..Close cycle.
type Transfer struct {
	session  *Session
	Method   string // "PUT" or "GET"
	CleanURI string
	RawURI   string
}

// Open begins a transfer. Intent is PUT if any of
// O_WRONLY/O_RDWR/O_CREAT is set, otherwise GET. For PUT, the parent
// directory is stat'd first; absence fails with no-such-entry before
// any body is sent.
func (s *Session) Open(uri string, flags int, _ uint32) (*Transfer, *Error) {
	if err := s.Connect(uri); err != nil {
		return nil, err
	}
	curi := clean(uri)
	if curi == "" {
		return nil, newError(KindInvalidArgument, "cannot clean uri: "+uri)
	}

	method := "GET"
	if flags&(OWrOnly|ORdWr|OCreat) != 0 {
		method = "PUT"
	}

	if method == "PUT" {
		parent := parentURI(curi)
		if s.lastDir != parent {
			if _, ok := s.stat.lookup(basename(parent)); !ok {
				if _, statErr := s.statByPath(parent); statErr != nil {
					return nil, newError(KindNoSuchEntry, "parent directory does not exist: "+parent)
				}
			}
			s.lastDir = parent
		}
	}

	return &Transfer{session: s, Method: method, CleanURI: curi, RawURI: uri}, nil
}

// Create is equivalent to Open with O_CREAT|O_WRONLY|O_TRUNC followed
// by a zero-length write, establishing the empty resource.
func (s *Session) Create(uri string, mode uint32) (*Transfer, *Error) {
	t, err := s.Open(uri, OCreat|OWrOnly|OTrunc, mode)
	if err != nil {
		return nil, err
	}
	if err := t.sendfilePut(bytes.NewReader(nil), 0); err != nil {
		return nil, err
	}
	return t, nil
}

// Sendfile transfers fd's contents: PUT for a write-intent Transfer,
// GET for a read-intent one.
func (t *Transfer) Sendfile(fd *os.File) *Error {
	if t.Method == "PUT" {
		info, statErr := fd.Stat()
		if statErr != nil {
			return wrapError(KindBadFd, statErr, "stat source fd")
		}
		return t.sendfilePut(fd, info.Size())
	}
	return t.sendfileGet(fd)
}

func (t *Transfer) sendfilePut(body io.Reader, size int64) *Error {
	s := t.session
	s.emit(ProgressEvent{Kind: ProgressStartUpload, URI: t.RawURI, Total: size})

	reader := body
	if s.limiter != nil {
		reader = ratelimit.Reader(body, s.limiter)
	}
	counting := &countingReader{r: reader}

	req, buildErr := http.NewRequest("PUT", s.baseURL+t.CleanURI, counting)
	if buildErr != nil {
		return wrapError(KindGeneric, buildErr, "building PUT request")
	}
	req.ContentLength = size

	resp, doErr := s.client.Do(req)
	if doErr != nil {
		ferr := wrapError(KindConnectFailed, doErr, "PUT "+t.CleanURI)
		s.emit(ProgressEvent{Kind: ProgressError, URI: t.RawURI, Code: ferr.Kind, Reason: ferr.Message})
		return ferr
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		s.metrics.bytesPut.Add(float64(counting.n))
		s.emit(ProgressEvent{Kind: ProgressFinishedUpload, URI: t.RawURI, Bytes: counting.n, Total: size})
		return nil
	}

	serr := errorFromStatus(resp.StatusCode, resp.Status)
	if serr == nil {
		serr = newErrorf(KindIOError, "PUT %s: unexpected status %s", t.CleanURI, resp.Status)
	}
	s.metrics.recordSoftError(serr.Kind)
	s.emit(ProgressEvent{Kind: ProgressError, URI: t.RawURI, Code: serr.Kind, Reason: serr.Message})
	return serr
}

func (t *Transfer) sendfileGet(fd *os.File) *Error {
	s := t.session
	s.emit(ProgressEvent{Kind: ProgressStartDownload, URI: t.RawURI})

	req, buildErr := http.NewRequest("GET", s.baseURL+t.CleanURI, nil)
	if buildErr != nil {
		return wrapError(KindGeneric, buildErr, "building GET request")
	}
	req.Header.Set("Accept-Encoding", "gzip")

	resp, doErr := s.client.Do(req)
	if doErr != nil {
		ferr := wrapError(KindConnectFailed, doErr, "GET "+t.CleanURI)
		s.emit(ProgressEvent{Kind: ProgressError, URI: t.RawURI, Code: ferr.Kind, Reason: ferr.Message})
		return ferr
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		serr := errorFromStatus(resp.StatusCode, resp.Status)
		if serr == nil {
			serr = newErrorf(KindIOError, "GET %s: unexpected status %s", t.CleanURI, resp.Status)
		}
		s.metrics.recordSoftError(serr.Kind)
		s.emit(ProgressEvent{Kind: ProgressError, URI: t.RawURI, Code: serr.Kind, Reason: serr.Message})
		return serr
	}

	if fd == nil {
		return newError(KindBadFd, "invalid destination fd")
	}

	var body io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gz, gzErr := gzip.NewReader(resp.Body)
		if gzErr != nil {
			return wrapError(KindIOError, gzErr, "GET "+t.CleanURI+": bad gzip stream")
		}
		defer gz.Close()
		body = gz
	}
	if s.limiter != nil {
		body = ratelimit.Reader(body, s.limiter)
	}

	total := resp.ContentLength
	counting := &countingReader{r: body}
	written, copyErr := io.Copy(fd, counting)
	if copyErr != nil {
		ferr := wrapError(KindIOError, copyErr, "writing GET body to fd")
		s.emit(ProgressEvent{Kind: ProgressError, URI: t.RawURI, Code: ferr.Kind, Reason: ferr.Message})
		return ferr
	}

	if etag := resp.Header.Get("ETag"); etag != "" {
		s.id.put(t.CleanURI, trimETag(etag))
	}

	s.metrics.bytesGet.Add(float64(written))
	s.emit(ProgressEvent{Kind: ProgressFinishedDownload, URI: t.RawURI, Bytes: written, Total: total})
	return nil
}

// Close destroys the transfer; if the method was PUT, clears all
// caches so subsequent reads see the mutation.
func (t *Transfer) Close() *Error {
	if t.Method == "PUT" {
		t.session.invalidateCaches()
	}
	return nil
}

// Read, Write, Lseek are stubs: the engine transfers bodies exclusively
// through Sendfile.
func (t *Transfer) Read(_ []byte) (int, *Error)  { return 0, nil }
func (t *Transfer) Write(_ []byte) (int, *Error) { return 0, nil }
func (t *Transfer) Lseek(_ int64, _ int) (int64, *Error) {
	return -1, newError(KindInvalidArgument, "lseek unsupported")
}

func (s *Session) invalidateCaches() {
	s.stat.clear()
	s.id.clear()
	s.propfind.clear()
}

func parentURI(uri string) string {
	u := cleanTrailingSlash(uri)
	idx := -1
	for i := len(u) - 1; i >= 0; i-- {
		if u[i] == '/' {
			idx = i
			break
		}
	}
	if idx <= 0 {
		return "/"
	}
	return u[:idx+1]
}

func trimETag(s string) string {
	return trimQuotes(s)
}

func trimQuotes(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
