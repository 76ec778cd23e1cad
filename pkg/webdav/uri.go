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
	"net/url"
	"path"
	"strconv"
	"strings"

	"golang.org/x/net/idna"
)

// Scheme is the sync-engine URI scheme consumed by this module.
type Scheme string

const (
	SchemeOwnCloud  Scheme = "owncloud"
	SchemeOwnCloudS Scheme = "ownclouds"
)

// ParsedURI is the decomposition of an owncloud:// / ownclouds:// URI.
type ParsedURI struct {
	Scheme   Scheme
	User     string
	Password string
	Host     string
	Port     int
	Path     string
}

// TLS reports whether the scheme requires a TLS transport.
func (p *ParsedURI) TLS() bool {
	return p.Scheme == SchemeOwnCloudS
}

// parse decomposes a sync-engine URI into (scheme, user?, pwd?, host,
// port?, path), failing with invalid-argument on malformed input.
func parse(uri string) (*ParsedURI, *Error) {
	if uri == "" {
		return nil, newError(KindInvalidArgument, "empty uri")
	}
	u, err := url.Parse(uri)
	if err != nil {
		return nil, wrapError(KindInvalidArgument, err, "invalid uri: "+uri)
	}
	var scheme Scheme
	switch strings.ToLower(u.Scheme) {
	case string(SchemeOwnCloud):
		scheme = SchemeOwnCloud
	case string(SchemeOwnCloudS):
		scheme = SchemeOwnCloudS
	default:
		return nil, newError(KindInvalidArgument, "unsupported scheme: "+u.Scheme)
	}
	if u.Host == "" {
		return nil, newError(KindInvalidArgument, "missing host in uri: "+uri)
	}

	host := u.Hostname()
	if ascii, idnaErr := idna.Lookup.ToASCII(host); idnaErr == nil {
		host = ascii
	}

	p := &ParsedURI{
		Scheme: scheme,
		Host:   host,
		Path:   u.Path,
	}
	if u.User != nil {
		p.User = u.User.Username()
		if pwd, ok := u.User.Password(); ok {
			p.Password = pwd
		}
	}
	if portStr := u.Port(); portStr != "" {
		port, convErr := strconv.Atoi(portStr)
		if convErr != nil {
			return nil, newError(KindInvalidArgument, "invalid port in uri: "+uri)
		}
		p.Port = port
	}
	if p.Path == "" {
		p.Path = "/"
	}
	return p, nil
}

// clean extracts path from uri and percent-encodes it per RFC 3986
// path rules; returns "" on parse failure.
func clean(uri string) string {
	p, err := parse(uri)
	if err != nil {
		return ""
	}
	return escape(p.Path)
}

// escape percent-encodes each path segment per RFC 3986.
func escape(p string) string {
	segments := strings.Split(p, "/")
	for i, seg := range segments {
		segments[i] = (&url.URL{Path: seg}).EscapedPath()
	}
	return strings.Join(segments, "/")
}

// unescape is the inverse of escape, used when comparing responses to
// requests.
func unescape(p string) string {
	out, err := url.PathUnescape(p)
	if err != nil {
		return p
	}
	return out
}

// basename returns the last path segment of a (possibly percent
// encoded) uri/path.
func basename(uri string) string {
	p := uri
	if u, err := url.Parse(uri); err == nil && u.Path != "" {
		p = u.Path
	}
	p = strings.TrimRight(p, "/")
	return path.Base(unescape(p))
}

// buildURL joins a ParsedURI with a clean path into a dial-able
// base URL string (scheme://host:port).
func (p *ParsedURI) baseURL() string {
	scheme := "http"
	defaultPort := 80
	if p.TLS() {
		scheme = "https"
		defaultPort = 443
	}
	port := p.Port
	if port == 0 {
		port = defaultPort
	}
	return fmt.Sprintf("%s://%s:%d", scheme, p.Host, port)
}
