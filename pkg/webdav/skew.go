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
	"sync"
	"time"

	"github.com/yagamy4680/ocsync/pkg/utils"
)

var skewLogger = utils.GetLogger("webdav-skew")

// clockSkew maintains the running server-minus-client time delta from
// Date: response headers.
type clockSkew struct {
	mu        sync.Mutex
	delta     int64
	prevDelta int64
	sum       int64
	count     int64
}

// update records a new sample: skew = serverEpoch - now. If the delta
// moves by more than warnThresh after the second sample, it logs a
// warning rather than failing.
func (c *clockSkew) update(serverEpoch int64, warnThresh time.Duration) {
	now := time.Now().Unix()
	skew := serverEpoch - now

	c.mu.Lock()
	c.prevDelta = c.delta
	c.delta = skew
	c.sum += skew
	c.count++
	count := c.count
	prev := c.prevDelta
	cur := c.delta
	c.mu.Unlock()

	if count > 1 {
		diff := cur - prev
		if diff < 0 {
			diff = -diff
		}
		if time.Duration(diff)*time.Second > warnThresh {
			skewLogger.Warnf("clock skew changed by %ds (was %ds, now %ds)", diff, prev, cur)
		}
	}
}

// currentDelta returns the current time_delta.
func (c *clockSkew) currentDelta() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.delta
}

// toEngine subtracts time_delta from a server mtime:
// r.mtime_engine = r.mtime_server - time_delta.
func (c *clockSkew) toEngine(serverMtime int64) int64 {
	return serverMtime - c.currentDelta()
}

// toServer adds time_delta to an engine-supplied mtime before sending
// it on the wire (utimes): sends t + time_delta.
func (c *clockSkew) toServer(engineMtime int64) int64 {
	return engineMtime + c.currentDelta()
}

// average returns the diagnostic mean skew.
func (c *clockSkew) average() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.count == 0 {
		return 0
	}
	return float64(c.sum) / float64(c.count)
}
