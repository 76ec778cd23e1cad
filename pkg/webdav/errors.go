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
	"strconv"
	"strings"

	pkgerrors "github.com/pkg/errors"
)

// Kind is the filesystem-style error taxonomy
type Kind int

const (
	KindNone Kind = iota
	KindPermissionDenied
	KindAccessDenied
	KindNoSuchEntry
	KindAlreadyExists
	KindInvalidArgument
	KindTryAgain
	KindNoSpace
	KindTooLarge
	KindIOError
	KindServiceUnavailable
	KindLookupFailed
	KindConnectFailed
	KindTimeout
	KindUnknownUser
	KindProxyAuth
	KindPreconditionFailed
	KindRetry
	KindRedirected
	KindWrongContent
	KindBadFd
	KindNoMemory
	KindGeneric
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindPermissionDenied:
		return "permission-denied"
	case KindAccessDenied:
		return "access-denied"
	case KindNoSuchEntry:
		return "no-such-entry"
	case KindAlreadyExists:
		return "already-exists"
	case KindInvalidArgument:
		return "invalid-argument"
	case KindTryAgain:
		return "try-again"
	case KindNoSpace:
		return "no-space"
	case KindTooLarge:
		return "too-large"
	case KindIOError:
		return "io-error"
	case KindServiceUnavailable:
		return "service-unavailable"
	case KindLookupFailed:
		return "lookup-failed"
	case KindConnectFailed:
		return "connect-failed"
	case KindTimeout:
		return "timeout"
	case KindUnknownUser:
		return "unknown-user"
	case KindProxyAuth:
		return "proxy-auth"
	case KindPreconditionFailed:
		return "precondition-failed"
	case KindRetry:
		return "retry"
	case KindRedirected:
		return "redirected"
	case KindWrongContent:
		return "wrong-content"
	case KindBadFd:
		return "bad-fd"
	case KindNoMemory:
		return "no-memory"
	default:
		return "generic"
	}
}

// TransportFailure is a transport-level failure kind, independent of
// any HTTP status.
type TransportFailure int

const (
	TransportOK TransportFailure = iota
	TransportGeneric
	TransportLookup
	TransportAuth
	TransportProxyAuth
	TransportConnect
	TransportTimeout
	TransportPrecondition
	TransportRetry
	TransportRedirect
)

// Error is the three-channel error report preserved from the source
// design: a Kind, a wrapped cause, and a human message.
// It is the sole error type returned across the VIO surface.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	return e.Kind.String()
}

// Unwrap exposes the wrapped cause for errors.Is/As.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

func newError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func newErrorf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func wrapError(kind Kind, cause error, msg string) *Error {
	return &Error{Kind: kind, Message: msg, cause: pkgerrors.WithMessage(cause, msg)}
}

// mapHTTPStatus translates an HTTP status code into a Kind.
func mapHTTPStatus(status int) Kind {
	switch {
	case status >= 200 && status < 300:
		return KindNone
	case status == 304:
		return KindNone
	case status == 401, status == 402, status == 405, status == 407:
		return KindPermissionDenied
	case status == 301, status == 303, status == 404, status == 410:
		return KindNoSuchEntry
	case status == 408, status == 504:
		return KindTryAgain
	case status == 423:
		return KindAccessDenied
	case status == 400, status == 403, status == 409, status == 411,
		status == 412, status == 414, status == 415, status == 424, status == 501:
		return KindInvalidArgument
	case status == 507:
		return KindNoSpace
	case status == 413:
		return KindTooLarge
	case status == 503:
		return KindServiceUnavailable
	case status >= 400:
		return KindIOError
	default:
		return KindNone
	}
}

// mapTransportFailure translates a transport-level failure kind into
// a Kind. TransportGeneric goes through the HTTP-status path by
// parsing a leading integer out of lastErrorString.
func mapTransportFailure(tf TransportFailure, lastErrorString string) Kind {
	switch tf {
	case TransportOK:
		return KindNone
	case TransportLookup:
		return KindLookupFailed
	case TransportAuth:
		return KindUnknownUser
	case TransportProxyAuth:
		return KindProxyAuth
	case TransportConnect:
		return KindConnectFailed
	case TransportTimeout:
		return KindTimeout
	case TransportPrecondition:
		return KindPreconditionFailed
	case TransportRetry:
		return KindRetry
	case TransportRedirect:
		return KindRedirected
	case TransportGeneric:
		return mapHTTPStatus(leadingInt(lastErrorString))
	default:
		return KindGeneric
	}
}

// leadingInt parses the leading base-10 integer out of s, returning 0
// if none is present.
func leadingInt(s string) int {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}

// errorFromStatus builds the standard *Error for a non-2xx HTTP
// response, applying the §4.3 status table.
func errorFromStatus(status int, reason string) *Error {
	kind := mapHTTPStatus(status)
	if kind == KindNone {
		return nil
	}
	return newErrorf(kind, "server returned %d %s", status, reason)
}
