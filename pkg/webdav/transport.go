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
	"encoding/base64"
	"net/http"
	"strings"
	"time"

	"github.com/yagamy4680/ocsync/pkg/utils"
)

var transportLogger = utils.GetLogger("webdav-transport")

// hookedTransport wraps the base *http.Transport with the
// request-created and post-response hooks: cookie
// injection/capture, user-agent, Proxy-Connection, server/proxy auth
// headers, a single server-auth retry on 401, and clock-skew capture
// from the Date header.
type hookedTransport struct {
	base    http.RoundTripper
	session *Session
}

func (h *hookedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	id := requestID()
	start := time.Now()

	h.session.mu.Lock()
	req.Header.Set("User-Agent", userAgentPrefix+Version)
	if h.session.sessionKey != "" {
		req.Header.Set("Cookie", h.session.sessionKey)
	}
	if h.session.hasProxy() {
		req.Header.Set("Proxy-Connection", "Keep-Alive")
	}
	h.session.mu.Unlock()

	h.applyServerAuth(req, false)
	h.applyProxyAuth(req)

	transportLogger.Debugf("[%s] %s %s", id, req.Method, req.URL.String())
	resp, err := h.base.RoundTrip(req)
	latency := time.Since(start)
	h.session.metrics.observeLatency(req.Method, latency)
	if err != nil {
		transportLogger.Debugf("[%s] transport error: %s", id, err)
		return resp, err
	}

	h.postResponse(req, resp)

	if resp.StatusCode == http.StatusUnauthorized && h.session.opt.Auth != nil {
		h.session.mu.Lock()
		h.session.authAttempt++
		attempt := h.session.authAttempt
		h.session.mu.Unlock()
		if attempt <= 1 {
			// Retries exactly once per credential set.
			retryReq := cloneRequest(req)
			h.session.mu.Lock()
			if h.session.sessionKey != "" {
				retryReq.Header.Set("Cookie", h.session.sessionKey)
			}
			h.session.mu.Unlock()
			h.applyServerAuth(retryReq, true)
			h.applyProxyAuth(retryReq)
			transportLogger.Debugf("[%s] retry %s %s", id, retryReq.Method, retryReq.URL.String())
			retryResp, retryErr := h.base.RoundTrip(retryReq)
			if retryErr != nil {
				return retryResp, retryErr
			}
			h.postResponse(retryReq, retryResp)
			return retryResp, nil
		}
	}
	return resp, nil
}

// applyServerAuth fills Basic auth from the session's credentials, or
// invokes the engine's auth callback on first challenge (challenged is
// true when the request is the retry after a 401).
func (h *hookedTransport) applyServerAuth(req *http.Request, challenged bool) {
	h.session.mu.Lock()
	user := h.session.opt.User
	pwd := h.session.opt.Password
	cb := h.session.opt.Auth
	h.session.mu.Unlock()

	if user == "" && cb != nil && challenged {
		if u, err := cb(authPrompt(true)); err == nil {
			user = u
		}
		if p, err := cb(authPrompt(false)); err == nil {
			pwd = p
		}
		h.session.mu.Lock()
		h.session.opt.User = user
		h.session.opt.Password = pwd
		h.session.mu.Unlock()
	}
	if user != "" {
		req.SetBasicAuth(user, pwd)
	}
}

// applyProxyAuth fills a Basic Proxy-Authorization header from
// proxy_user/proxy_pwd on every request. A 407 response is not
// retried, and NTLM handshakes are not supported.
func (h *hookedTransport) applyProxyAuth(req *http.Request) {
	h.session.mu.Lock()
	defer h.session.mu.Unlock()
	if !h.session.hasProxy() || h.session.opt.ProxyUser == "" {
		return
	}
	token := base64.StdEncoding.EncodeToString([]byte(h.session.opt.ProxyUser + ":" + h.session.opt.ProxyPwd))
	req.Header.Set("Proxy-Authorization", "Basic "+token)
}

// postResponse implements the post_request hook: on
// 2xx or 401, captures the first name=value segment of any Set-Cookie
// header, and updates the clock-skew tracker from the Date header.
func (h *hookedTransport) postResponse(req *http.Request, resp *http.Response) {
	if resp.StatusCode < 300 || resp.StatusCode == http.StatusUnauthorized {
		for _, sc := range resp.Header.Values("Set-Cookie") {
			if kv := firstCookiePair(sc); kv != "" {
				h.session.mu.Lock()
				h.session.sessionKey = kv
				h.session.mu.Unlock()
				break
			}
		}
	}
	if date := resp.Header.Get("Date"); date != "" {
		if epoch := parseHTTPDate(date); epoch != 0 {
			h.session.skew.update(epoch, h.session.opt.SkewWarnThresh)
		}
	}
	if resp.StatusCode >= 400 {
		h.session.setError(req.Method + " " + req.URL.Path + ": " + resp.Status)
	}
}

// firstCookiePair extracts the first key=value segment up to ";" or
// "," from a Set-Cookie header value. Subsequent
// headers are handled by the caller continuing past ", " separators
// (each Set-Cookie line is its own header value via resp.Header.Values).
func firstCookiePair(setCookie string) string {
	s := strings.TrimSpace(setCookie)
	end := len(s)
	if i := strings.IndexAny(s, ";,"); i >= 0 {
		end = i
	}
	return strings.TrimSpace(s[:end])
}

func cloneRequest(req *http.Request) *http.Request {
	clone := req.Clone(req.Context())
	if req.GetBody != nil {
		if body, err := req.GetBody(); err == nil {
			clone.Body = body
		}
	}
	return clone
}
