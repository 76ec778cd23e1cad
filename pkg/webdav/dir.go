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
	"fmt"
	"net/http"
	"strings"
)

// Dir is the handle returned by Opendir, wrapping a refcounted Listing
// Context.
type Dir struct {
	ctx *ListingContext
}

// Stat resolves the file-stat for uri.
func (s *Session) Stat(uri string) (FileStat, *Error) {
	if err := s.Connect(uri); err != nil {
		return FileStat{}, err
	}
	name := basename(uri)
	if cached, ok := s.stat.lookup(name); ok {
		return cached, nil
	}
	curi := clean(uri)
	if curi == "" {
		return FileStat{}, newError(KindInvalidArgument, "cannot clean uri: "+uri)
	}
	return s.statByPath(curi)
}

// statByPath is Stat's core over an already-cleaned path: it fetches
// a depth-1 listing and selects the resource whose decoded URI equals
// the context's target. It deliberately does
// not populate the Stat Cache — that's readdir's job.
func (s *Session) statByPath(curi string) (FileStat, *Error) {
	ctx, err := s.fetchByPath(curi, 1)
	if err != nil {
		return FileStat{}, err
	}
	defer releaseListingContext(ctx)

	target := cleanTrailingSlash(unescape(ctx.Target))
	for _, r := range ctx.List {
		if cleanTrailingSlash(r.URI) == target {
			return s.resourceToStat(r), nil
		}
	}
	// The collection itself may not appear as a child entry when depth
	// is 0-like; treat a lone matching target as the directory itself.
	if len(ctx.List) == 1 {
		return s.resourceToStat(ctx.List[0]), nil
	}
	return FileStat{}, newError(KindNoSuchEntry, "no such entry: "+curi)
}

// GetFileID returns the resource's ETag, preferring the ID Cache.
// The HEAD-based fast path is intentionally disabled:
// ownCloud's HEAD support is unreliable.
func (s *Session) GetFileID(uri string) (string, *Error) {
	curi := clean(uri)
	if curi == "" {
		return "", newError(KindInvalidArgument, "cannot clean uri: "+uri)
	}
	if etag, ok := s.id.lookup(curi); ok {
		return etag, nil
	}
	st, err := s.Stat(uri)
	if err != nil {
		return "", err
	}
	return st.ETag, nil
}

// Opendir connects, fetches a depth-1 listing, and returns a handle
// positioned at the head of the list.
func (s *Session) Opendir(uri string) (*Dir, *Error) {
	if err := s.Connect(uri); err != nil {
		return nil, err
	}
	ctx, err := s.Fetch(uri, 1)
	if err != nil {
		return nil, err
	}
	ctx.reset()
	return &Dir{ctx: ctx}, nil
}

// Readdir advances the cursor, skipping the entry describing the
// collection itself, populates the Stat Cache from the returned
// Resource, and returns its FileStat. Returns ok=false at end of
// iteration.
func (s *Session) Readdir(d *Dir) (FileStat, bool) {
	r := d.ctx.next()
	if r == nil {
		return FileStat{}, false
	}
	st := s.resourceToStat(r)
	s.stat.put(st.Name, st)
	return st, true
}

// Closedir decrefs the Listing Context, destroying it once the count
// reaches zero and it is not the cache slot.
func (s *Session) Closedir(d *Dir) *Error {
	if d == nil || d.ctx == nil {
		return nil
	}
	releaseListingContext(d.ctx)
	return nil
}

// Mkdir issues MKCOL on uri, ensuring a trailing slash on the path.
// HTTP 405 maps to already-exists.
func (s *Session) Mkdir(uri string) *Error {
	if err := s.Connect(uri); err != nil {
		return err
	}
	curi := clean(uri)
	if curi == "" {
		return newError(KindInvalidArgument, "cannot clean uri: "+uri)
	}
	if !strings.HasSuffix(curi, "/") {
		curi += "/"
	}
	req, buildErr := http.NewRequest("MKCOL", s.baseURL+curi, nil)
	if buildErr != nil {
		return wrapError(KindGeneric, buildErr, "building MKCOL request")
	}
	resp, doErr := s.client.Do(req)
	if doErr != nil {
		return wrapError(KindConnectFailed, doErr, "MKCOL "+curi)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusMethodNotAllowed {
		return newError(KindAlreadyExists, "MKCOL "+curi+": already exists")
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		s.invalidateCaches()
		return nil
	}
	return errorFromStatus(resp.StatusCode, resp.Status)
}

// Rmdir and Unlink both issue DELETE on the cleaned path.
func (s *Session) Rmdir(uri string) *Error  { return s.delete(uri) }
func (s *Session) Unlink(uri string) *Error { return s.delete(uri) }

func (s *Session) delete(uri string) *Error {
	if err := s.Connect(uri); err != nil {
		return err
	}
	curi := clean(uri)
	if curi == "" {
		return newError(KindInvalidArgument, "cannot clean uri: "+uri)
	}
	req, buildErr := http.NewRequest("DELETE", s.baseURL+curi, nil)
	if buildErr != nil {
		return wrapError(KindGeneric, buildErr, "building DELETE request")
	}
	resp, doErr := s.client.Do(req)
	if doErr != nil {
		return wrapError(KindConnectFailed, doErr, "DELETE "+curi)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		s.invalidateCaches()
		return nil
	}
	return errorFromStatus(resp.StatusCode, resp.Status)
}

// Rename issues MOVE with Overwrite: T.
func (s *Session) Rename(oldURI, newURI string) *Error {
	if err := s.Connect(oldURI); err != nil {
		return err
	}
	oldClean := clean(oldURI)
	newClean := clean(newURI)
	if oldClean == "" || newClean == "" {
		return newError(KindInvalidArgument, "cannot clean uri")
	}
	req, buildErr := http.NewRequest("MOVE", s.baseURL+oldClean, nil)
	if buildErr != nil {
		return wrapError(KindGeneric, buildErr, "building MOVE request")
	}
	req.Header.Set("Destination", s.baseURL+newClean)
	req.Header.Set("Overwrite", "T")
	resp, doErr := s.client.Do(req)
	if doErr != nil {
		return wrapError(KindConnectFailed, doErr, "MOVE "+oldClean)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		s.invalidateCaches()
		return nil
	}
	return errorFromStatus(resp.StatusCode, resp.Status)
}

const proppatchBodyFmt = `<?xml version="1.0" encoding="utf-8" ?>
<D:propertyupdate xmlns:D="DAV:">
 <D:set>
  <D:prop>
   <D:lastmodified>%d</D:lastmodified>
  </D:prop>
 </D:set>
</D:propertyupdate>
`

// Utimes PROPPATCHes DAV:lastmodified to modtime+time_delta. Clears caches on success.
func (s *Session) Utimes(uri string, modtime int64) *Error {
	if err := s.Connect(uri); err != nil {
		return err
	}
	curi := clean(uri)
	if curi == "" {
		return newError(KindInvalidArgument, "cannot clean uri: "+uri)
	}
	wireTime := s.skew.toServer(modtime)
	body := fmt.Sprintf(proppatchBodyFmt, wireTime)
	req, buildErr := http.NewRequest("PROPPATCH", s.baseURL+curi, strings.NewReader(body))
	if buildErr != nil {
		return wrapError(KindGeneric, buildErr, "building PROPPATCH request")
	}
	req.Header.Set("Content-Type", "application/xml; charset=utf-8")
	resp, doErr := s.client.Do(req)
	if doErr != nil {
		return wrapError(KindConnectFailed, doErr, "PROPPATCH "+curi)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 200 && resp.StatusCode < 300 || resp.StatusCode == http.StatusMultiStatus {
		s.invalidateCaches()
		return nil
	}
	return errorFromStatus(resp.StatusCode, resp.Status)
}

// Chmod and Chown are no-ops: the server has no POSIX permission
// model.
func (s *Session) Chmod(_ string, _ uint32) *Error { return nil }
func (s *Session) Chown(_ string, _, _ int) *Error { return nil }
