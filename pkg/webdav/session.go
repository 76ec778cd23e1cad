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
	"context"
	"crypto/tls"
	"crypto/x509"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/juju/ratelimit"
	"github.com/viki-org/dnscache"
	"golang.org/x/net/http/httpproxy"

	"github.com/yagamy4680/ocsync/pkg/utils"
)

var logger = utils.GetLogger("webdav-session")

// ProxyType enumerates the proxy configurations
type ProxyType int

const (
	NoProxy ProxyType = iota
	DefaultProxy
	HttpProxy
	HttpCachingProxy
	FtpCachingProxy
	Socks5Proxy
)

const defaultProxyPort = 8080
const defaultReadTimeout = 30 * time.Second
const userAgentPrefix = "csyncoC/"

// Version is the VIO module version reported in the User-Agent header.
const Version = "1.0.0"

// AuthCallback is the engine-supplied interactive auth channel
//: given a prompt, it returns the credential the user
// typed.
type AuthCallback func(prompt string) (string, error)

// TLSConfirmCallback asks the engine whether to trust a certificate
// whose validation failed, given a human-readable report. Returns true
// to proceed.
type TLSConfirmCallback func(report string) bool

// ProgressCallback receives progress events emitted during transfer.
type ProgressCallback func(event ProgressEvent)

// Options configures a Session; it is the Go-native equivalent of a
// set_property surface, built by whatever external config loader
// (INI, flags, env) the caller uses.
type Options struct {
	User     string
	Password string

	ProxyType ProxyType
	ProxyHost string
	ProxyPort int
	ProxyUser string
	ProxyPwd  string

	ReadTimeout    time.Duration
	SkewWarnThresh time.Duration // configurable; default 5s
	RateLimit      int64         // bytes/sec, 0 = unlimited

	Auth     AuthCallback
	TLSTrust TLSConfirmCallback
	Progress ProgressCallback
}

func (o Options) withDefaults() Options {
	if o.ReadTimeout == 0 {
		o.ReadTimeout = defaultReadTimeout
	}
	if o.SkewWarnThresh == 0 {
		o.SkewWarnThresh = 5 * time.Second
	}
	return o
}

// Session is the process-wide HTTP session state A
// faithful rewrite keeps it as a single owned object threaded through
// every VIO operation rather than a module global.
type Session struct {
	mu sync.Mutex

	opt Options

	connected bool
	parsed    *ParsedURI
	client    *http.Client
	baseURL   string

	sessionKey  string // captured Set-Cookie name=value
	authAttempt int

	skew        clockSkew
	errorString string

	resolver *dnscache.Resolver

	stat     statCache
	id       idCache
	propfind propfindCache

	lastDir string // last-seen PUT parent directory

	limiter *ratelimit.Bucket

	metrics *metrics
}

// NewSession constructs an unconnected Session. Connect is called
// lazily by the first VIO operation.
func NewSession(opt Options) *Session {
	o := opt.withDefaults()
	s := &Session{
		opt:      o,
		resolver: dnscache.New(0),
		metrics:  newMetrics(),
	}
	if o.RateLimit > 0 {
		s.limiter = ratelimit.NewBucketWithRate(float64(o.RateLimit), o.RateLimit)
	}
	return s
}

// Connect is idempotent: if already connected, returns immediately.
// Otherwise it parses url, selects the protocol,
// initializes the transport, and wires the auth/TLS-trust/cookie
// hooks and proxy configuration.
func (s *Session) Connect(uri string) *Error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.connected {
		return nil
	}

	p, perr := parse(uri)
	if perr != nil {
		return perr
	}

	transport := &http.Transport{
		DialContext: s.dialContext,
		Proxy:       s.proxyFunc(),
	}
	if p.TLS() {
		host := p.Host
		transport.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: true, // trust decision deferred to VerifyPeerCertificate
			VerifyPeerCertificate: func(rawCerts [][]byte, _ [][]*x509.Certificate) error {
				return s.verifyPeerCertificate(host, rawCerts)
			},
		}
	}

	s.client = &http.Client{
		Transport: &hookedTransport{base: transport, session: s},
		Timeout:   s.opt.ReadTimeout,
	}
	s.parsed = p
	s.baseURL = p.baseURL()
	s.connected = true
	logger.Infof("connected to %s (tls=%v)", s.baseURL, p.TLS())
	return nil
}

// Connected reports whether the session has a live transport.
func (s *Session) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// dialContext resolves host through the session's DNS cache
// before dialing, so a burst of PROPFIND/stat calls
// against the same persistent session does not re-resolve every time.
func (s *Session) dialContext(_ context.Context, network, addr string) (net.Conn, error) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return net.Dial(network, addr)
	}
	ips, err := s.resolver.Fetch(host)
	if err != nil || len(ips) == 0 {
		return net.Dial(network, addr)
	}
	return net.Dial(network, net.JoinHostPort(ips[0].String(), port))
}

// proxyFunc returns the net/http Proxy function implied by the
// session's proxy configuration.
func (s *Session) proxyFunc() func(*http.Request) (*url.URL, error) {
	noProxy := func(*http.Request) (*url.URL, error) { return nil, nil }
	switch s.opt.ProxyType {
	case NoProxy:
		return noProxy
	case HttpProxy, HttpCachingProxy, DefaultProxy:
		host := s.opt.ProxyHost
		if host == "" {
			if s.opt.ProxyType == DefaultProxy {
				cfg := httpproxy.FromEnvironment()
				return func(req *http.Request) (*url.URL, error) {
					return cfg.ProxyFunc()(req.URL)
				}
			}
			return noProxy
		}
		port := s.opt.ProxyPort
		if port == 0 {
			port = defaultProxyPort
		}
		proxyURL := &url.URL{Scheme: "http", Host: net.JoinHostPort(host, strconv.Itoa(port))}
		return func(*http.Request) (*url.URL, error) { return proxyURL, nil }
	case FtpCachingProxy, Socks5Proxy:
		logger.Warnf("proxy type %d unsupported, leaving unconfigured", s.opt.ProxyType)
		return noProxy
	default:
		return noProxy
	}
}

func (s *Session) hasProxy() bool {
	return s.opt.ProxyType != NoProxy
}

// requestID tags one HTTP dispatch for log correlation.
func requestID() string {
	return uuid.New().String()
}

// ErrorString implements get_error_string. It returns the message of
// the most recent HTTP response with status >= 400 seen by the hooked
// transport, or the most recent TLS trust report. Failures that never
// produce such a response (connection errors, wrong content type,
// invalid URIs) do not update it.
func (s *Session) ErrorString() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errorString
}

func (s *Session) setError(msg string) {
	s.mu.Lock()
	s.errorString = msg
	s.mu.Unlock()
}

// SetProperty implements the set_property surface
func (s *Session) SetProperty(key string, value interface{}) *Error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch key {
	case "session_key":
		v, _ := value.(string)
		s.sessionKey = v
	case "proxy_type":
		v, _ := value.(ProxyType)
		s.opt.ProxyType = v
	case "proxy_host":
		v, _ := value.(string)
		s.opt.ProxyHost = v
	case "proxy_user":
		v, _ := value.(string)
		s.opt.ProxyUser = v
	case "proxy_pwd":
		v, _ := value.(string)
		s.opt.ProxyPwd = v
	case "proxy_port":
		v, _ := value.(int)
		s.opt.ProxyPort = v
	case "read_timeout":
		v, _ := value.(int)
		s.opt.ReadTimeout = time.Duration(v) * time.Second
	case "progress_callback":
		v, _ := value.(ProgressCallback)
		s.opt.Progress = v
	case "csync_context":
		// opaque engine back-reference; accepted, not interpreted.
	default:
		return newErrorf(KindInvalidArgument, "unknown property %q", key)
	}
	return nil
}

// Shutdown releases all session resources: credentials,
// proxy fields, session key, error string, last-dir memo, all caches,
// and the HTTP client. The DNS resolver cache is kept. Safe to call
// regardless of outstanding state.
func (s *Session) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opt.User = ""
	s.opt.Password = ""
	s.opt.ProxyUser = ""
	s.opt.ProxyPwd = ""
	s.sessionKey = ""
	s.errorString = ""
	s.lastDir = ""
	s.stat.clear()
	s.id.clear()
	s.propfind.clear()
	s.client = nil
	s.connected = false
}

func authPrompt(forUser bool) string {
	if forUser {
		return "Enter your username:"
	}
	return "Enter your password:"
}
