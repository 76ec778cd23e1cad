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

// ProgressKind enumerates the progress events emitted to the engine's
// progress callback.
type ProgressKind string

const (
	ProgressStartUpload      ProgressKind = "start-upload"
	ProgressFinishedUpload   ProgressKind = "finished-upload"
	ProgressStartDownload    ProgressKind = "start-download"
	ProgressFinishedDownload ProgressKind = "finished-download"
	ProgressProgress         ProgressKind = "progress"
	ProgressError            ProgressKind = "error"
)

// ProgressEvent is one notification to the engine's progress callback.
type ProgressEvent struct {
	Kind   ProgressKind
	URI    string
	Bytes  int64 // bytes-so-far, for ProgressProgress
	Total  int64 // total, for ProgressProgress
	Code   Kind  // for ProgressError
	Reason string
}

// emit dispatches an event to the configured progress callback, if
// any. Never blocks the caller on a nil callback.
func (s *Session) emit(ev ProgressEvent) {
	s.mu.Lock()
	cb := s.opt.Progress
	s.mu.Unlock()
	if cb != nil {
		cb(ev)
	}
}
