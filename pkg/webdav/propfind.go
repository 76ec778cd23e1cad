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
	"encoding/xml"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/yagamy4680/ocsync/pkg/utils"
)

var propfindLogger = utils.GetLogger("webdav-propfind")

const propfindBody = `<?xml version="1.0" encoding="utf-8" ?>
<D:propfind xmlns:D="DAV:">
 <D:prop>
  <D:getlastmodified/>
  <D:getcontentlength/>
  <D:resourcetype/>
  <D:getetag/>
 </D:prop>
</D:propfind>
`

// multistatus mirrors the WebDAV multistatus XML document, decoded from a PROPFIND response body.
type multistatus struct {
	XMLName   xml.Name   `xml:"DAV: multistatus"`
	Responses []response `xml:"response"`
}

type response struct {
	Href     string     `xml:"href"`
	PropStat []propstat `xml:"propstat"`
}

type propstat struct {
	Status string `xml:"status"`
	Prop   prop   `xml:"prop"`
}

type prop struct {
	LastModified  string        `xml:"getlastmodified"`
	ContentLength string        `xml:"getcontentlength"`
	ETag          string        `xml:"getetag"`
	ResourceType  resourceTypeX `xml:"resourcetype"`
}

type resourceTypeX struct {
	Collection *struct{} `xml:"collection"`
}

// propfindCache is the at-most-one-entry cache/§4.5.
type propfindCache struct {
	mu  sync.Mutex
	ctx *ListingContext
}

func (c *propfindCache) lookup(target string) *ListingContext {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ctx != nil && c.ctx.Target == target {
		return c.ctx.acquire()
	}
	return nil
}

// replace swaps in a new Listing Context, releasing the old one's
// cache-held reference.
func (c *propfindCache) replace(ctx *ListingContext) {
	c.mu.Lock()
	old := c.ctx
	c.ctx = ctx
	c.mu.Unlock()
	if old != nil {
		releaseListingContext(old)
	}
}

func (c *propfindCache) clear() {
	c.mu.Lock()
	old := c.ctx
	c.ctx = nil
	c.mu.Unlock()
	if old != nil {
		releaseListingContext(old)
	}
}

// releaseListingContext decrefs lc, destroying it once the count hits
// zero.
func releaseListingContext(lc *ListingContext) {
	lc.release()
}

// Fetch issues PROPFIND (depth 0 or 1), parses multistatus results
// into a Listing Context, and caches the most recent result keyed by
// request-URI.
func (s *Session) Fetch(uri string, depth int) (*ListingContext, *Error) {
	if cerr := s.Connect(uri); cerr != nil {
		return nil, cerr
	}

	curi := clean(uri)
	if curi == "" {
		return nil, newError(KindInvalidArgument, "cannot clean uri: "+uri)
	}
	return s.fetchByPath(curi, depth)
}

// fetchByPath is Fetch's core, operating on an already-cleaned path
// relative to the connected session. Used directly by callers (stat,
// Open's parent check) that already hold a clean path and must not
// re-parse a synthetic full URI.
func (s *Session) fetchByPath(curi string, depth int) (*ListingContext, *Error) {
	if cached := s.propfind.lookup(curi); cached != nil {
		s.metrics.propfindCacheHit()
		propfindLogger.Debugf("cache hit for %s", curi)
		return cached, nil
	}
	s.metrics.propfindCacheMiss()
	propfindLogger.Debugf("cache miss for %s, depth=%d", curi, depth)

	req, err := http.NewRequest("PROPFIND", s.baseURL+curi, bytes.NewBufferString(propfindBody))
	if err != nil {
		return nil, wrapError(KindGeneric, err, "building PROPFIND request")
	}
	req.Header.Set("Content-Type", "application/xml; charset=utf-8")
	req.Header.Set("Depth", strconv.Itoa(depth))

	resp, doErr := s.client.Do(req)
	if doErr != nil {
		return nil, wrapError(KindConnectFailed, doErr, "PROPFIND "+curi)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, newError(KindNoSuchEntry, "PROPFIND "+curi+": not found")
	}
	if resp.StatusCode >= 300 && resp.StatusCode < 400 {
		return nil, newError(KindRedirected, "PROPFIND "+curi+" redirected")
	}
	if resp.StatusCode != http.StatusMultiStatus && (resp.StatusCode < 200 || resp.StatusCode >= 300) {
		if e := errorFromStatus(resp.StatusCode, resp.Status); e != nil {
			return nil, e
		}
	}

	ct := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(strings.ToLower(ct), "application/xml") {
		return nil, newError(KindWrongContent, "Server error: PROPFIND reply is not XML formatted!")
	}

	var ms multistatus
	if err := xml.NewDecoder(resp.Body).Decode(&ms); err != nil {
		return nil, wrapError(KindWrongContent, err, "Server error: PROPFIND reply is not XML formatted!")
	}

	ctx := newListingContext(curi)
	for i := range ms.Responses {
		r := &ms.Responses[i]
		res, ok := decodeResource(r)
		if !ok {
			continue
		}
		// Prepend: order matches reverse-arrival.
		ctx.List = append([]*Resource{res}, ctx.List...)
	}

	if date := resp.Header.Get("Date"); date != "" {
		if epoch := parseHTTPDate(date); epoch != 0 {
			s.skew.update(epoch, s.opt.SkewWarnThresh)
		}
	}

	ctx.refcount = 2 // cache + caller
	s.propfind.replace(ctx)
	return ctx, nil
}

// decodeResource converts one multistatus <response> into a Resource.
func decodeResource(r *response) (*Resource, bool) {
	if len(r.PropStat) == 0 {
		return nil, false
	}
	ps := r.PropStat[0]
	if !strings.Contains(ps.Status, "200") {
		return nil, false
	}

	uri := unescape(r.Href)
	res := &Resource{
		URI:  uri,
		Name: basename(uri),
	}

	isCollection := ps.Prop.ResourceType.Collection != nil
	hasLength := ps.Prop.ContentLength != ""
	if isCollection && !hasLength {
		res.Type = ResourceCollection
	} else {
		res.Type = ResourceNormal
		if hasLength {
			if n, err := strconv.ParseInt(ps.Prop.ContentLength, 10, 64); err == nil {
				res.Size = n
			}
		}
	}

	if ps.Prop.LastModified != "" {
		res.ModTime = parseHTTPDate(ps.Prop.LastModified)
	}
	res.ETag = strings.Trim(ps.Prop.ETag, `"`)

	return res, true
}
