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

// FileStat is the POSIX-flavored stat result surfaced to the engine.
type FileStat struct {
	Name    string
	Mode    uint32
	IsDir   bool
	Size    int64
	ModTime int64 // engine-clock, skew already subtracted
	ETag    string
}

// statCache is the single-slot "last resolved file-stat" cache: it
// names the last entry returned from readdir (stat reads it but does
// not populate it), and any write operation clears it.
type statCache struct {
	mu    sync.Mutex
	valid bool
	name  string
	stat  FileStat
}

func (c *statCache) lookup(name string) (FileStat, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.valid && c.name == name {
		return c.stat, true
	}
	return FileStat{}, false
}

func (c *statCache) put(name string, stat FileStat) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.valid = true
	c.name = name
	c.stat = stat
}

func (c *statCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.valid = false
	c.name = ""
	c.stat = FileStat{}
}

func (c *statCache) contains(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.valid && c.name == name
}

// idCache is the single-slot "last observed ETag" cache keyed by URI.
// Updated only when a response carries an ETag header alongside a
// successful 2xx for that URI.
type idCache struct {
	mu    sync.Mutex
	valid bool
	uri   string
	etag  string
}

func (c *idCache) lookup(uri string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.valid && c.uri == uri {
		return c.etag, true
	}
	return "", false
}

func (c *idCache) put(uri, etag string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.valid = true
	c.uri = uri
	c.etag = etag
}

func (c *idCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.valid = false
	c.uri = ""
	c.etag = ""
}

func (c *idCache) contains(uri string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.valid && c.uri == uri
}

// resourceToStat converts a Resource to a FileStat, synthesizing mode
// bits and subtracting the session's clock skew from the server mtime.
func (s *Session) resourceToStat(r *Resource) FileStat {
	st := FileStat{
		Name:    r.Name,
		IsDir:   r.IsDir(),
		Size:    r.Size,
		ModTime: s.skew.toEngine(r.ModTime),
		ETag:    r.ETag,
	}
	if st.IsDir {
		st.Mode = 0o555 | 0o200 // dr-xr-xr-x + user-write
	} else {
		st.Mode = 0o644 // -rw-r--r--
	}
	return st
}
