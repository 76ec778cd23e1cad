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

import "sync"

// ResourceType classifies a Resource the way resourcetype/DAV:collection
// does on the wire.
type ResourceType uint8

const (
	ResourceNormal ResourceType = iota
	ResourceCollection
	ResourceReference
	ResourceError
)

// Resource is a single remote entry discovered by PROPFIND.
type Resource struct {
	URI     string // percent-decoded absolute path on the server
	Name    string // last path segment
	Type    ResourceType
	Size    int64 // valid only for ResourceNormal
	ModTime int64 // UTC epoch seconds, server clock, before skew correction
	ETag    string
}

// IsDir reports whether the resource is a WebDAV collection.
func (r *Resource) IsDir() bool {
	return r.Type == ResourceCollection
}

// ListingContext is the refcounted result of one PROPFIND.
type ListingContext struct {
	mu       sync.Mutex
	Target   string // the requested, cleaned URI
	List     []*Resource
	cursor   int
	refcount int
}

func newListingContext(target string) *ListingContext {
	return &ListingContext{Target: target, refcount: 1}
}

// acquire bumps the refcount and returns the same instance.
func (lc *ListingContext) acquire() *ListingContext {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	lc.refcount++
	return lc
}

// release decrements the refcount; returns true once it reaches zero.
func (lc *ListingContext) release() bool {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	lc.refcount--
	return lc.refcount <= 0
}

func (lc *ListingContext) refs() int {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	return lc.refcount
}

// reset rewinds the read cursor to the head of the list (opendir).
func (lc *ListingContext) reset() {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	lc.cursor = 0
}

// next advances the cursor and returns the next Resource, skipping the
// entry whose decoded URI equals the decoded Target (the collection
// describing itself).
// Returns nil at end of iteration.
func (lc *ListingContext) next() *Resource {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	for lc.cursor < len(lc.List) {
		r := lc.List[lc.cursor]
		lc.cursor++
		if cleanTrailingSlash(r.URI) == cleanTrailingSlash(unescape(lc.Target)) {
			continue
		}
		return r
	}
	return nil
}

func cleanTrailingSlash(s string) string {
	for len(s) > 1 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}
