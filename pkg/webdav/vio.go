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

// Package webdav implements a pluggable virtual-I/O backend against a
// WebDAV/ownCloud origin: URI handling, session/transport management,
// PROPFIND-backed directory listing, and PUT/GET transfers, wrapped in
// the VIO surface a directory-sync engine drives a remote filesystem
// through.
package webdav

import "os"

// Capabilities is the static capability set the engine queries once
// per session.
type Capabilities struct {
	AtomicCopy       bool
	DoPostCopyStat   bool
	TimeSyncRequired bool
	UnixExtensions   uint32
	PropagateOnFd    bool
}

// GetCapabilities reports the backend's fixed capability set. ownCloud
// PUT is atomic (a partial upload never replaces the prior resource),
// a successful PUT response carries the new ETag so no follow-up stat
// is needed, and there's no POSIX uid/gid/mode to propagate.
func GetCapabilities() Capabilities {
	return Capabilities{
		AtomicCopy:       true,
		DoPostCopyStat:   false,
		TimeSyncRequired: false,
		UnixExtensions:   0,
		PropagateOnFd:    true,
	}
}

// VIO bundles a Session behind the operation names the engine drives a
// remote filesystem through. It is a thin named facade:
// every method simply forwards to the matching Session method, giving
// the engine the operation vocabulary it expects without exposing the
// session's transport plumbing.
type VIO struct {
	session *Session
}

// New wraps a freshly constructed Session in the VIO operation
// surface.
func New(opt Options) *VIO {
	return &VIO{session: NewSession(opt)}
}

func (v *VIO) GetCapabilities() Capabilities { return GetCapabilities() }

func (v *VIO) GetFileID(uri string) (string, *Error) { return v.session.GetFileID(uri) }

func (v *VIO) Open(uri string, flags int, mode uint32) (*Transfer, *Error) {
	return v.session.Open(uri, flags, mode)
}

func (v *VIO) Creat(uri string, mode uint32) (*Transfer, *Error) {
	return v.session.Create(uri, mode)
}

func (v *VIO) Close(t *Transfer) *Error { return t.Close() }

func (v *VIO) Read(t *Transfer, buf []byte) (int, *Error)  { return t.Read(buf) }
func (v *VIO) Write(t *Transfer, buf []byte) (int, *Error) { return t.Write(buf) }

func (v *VIO) Sendfile(t *Transfer, fd *os.File) *Error { return t.Sendfile(fd) }

func (v *VIO) Lseek(t *Transfer, offset int64, whence int) (int64, *Error) {
	return t.Lseek(offset, whence)
}

func (v *VIO) Opendir(uri string) (*Dir, *Error) { return v.session.Opendir(uri) }

func (v *VIO) Readdir(d *Dir) (FileStat, bool) { return v.session.Readdir(d) }

func (v *VIO) Closedir(d *Dir) *Error { return v.session.Closedir(d) }

func (v *VIO) Mkdir(uri string) *Error { return v.session.Mkdir(uri) }

func (v *VIO) Rmdir(uri string) *Error { return v.session.Rmdir(uri) }

func (v *VIO) Stat(uri string) (FileStat, *Error) { return v.session.Stat(uri) }

func (v *VIO) Rename(oldURI, newURI string) *Error { return v.session.Rename(oldURI, newURI) }

func (v *VIO) Unlink(uri string) *Error { return v.session.Unlink(uri) }

func (v *VIO) Chmod(uri string, mode uint32) *Error { return v.session.Chmod(uri, mode) }

func (v *VIO) Chown(uri string, uid, gid int) *Error { return v.session.Chown(uri, uid, gid) }

func (v *VIO) Utimes(uri string, modtime int64) *Error { return v.session.Utimes(uri, modtime) }

func (v *VIO) SetProperty(key string, value interface{}) *Error {
	return v.session.SetProperty(key, value)
}

func (v *VIO) GetErrorString() string { return v.session.ErrorString() }

func (v *VIO) Shutdown() { v.session.Shutdown() }
