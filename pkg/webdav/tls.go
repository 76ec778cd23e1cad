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
	"crypto/sha256"
	"crypto/x509"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/ocsp"
)

// certFailure is one of the reasons a certificate trust check can fail.
type certFailure string

const (
	failNotYetValid     certFailure = "not-yet-valid"
	failExpired         certFailure = "expired"
	failUntrusted       certFailure = "untrusted"
	failHostnameMismatch certFailure = "hostname-mismatch"
	failBadChain        certFailure = "bad-chain"
	failRevoked         certFailure = "revoked"
)

// verifyPeerCertificate is the TLS trust callback: it
// walks the certificate chain, composes a human-readable report
// enumerating each failure bit plus fingerprint, invokes the engine's
// TLS trust callback, and accepts iff the first reply byte is y/Y.
func (s *Session) verifyPeerCertificate(host string, rawCerts [][]byte) error {
	certs := make([]*x509.Certificate, 0, len(rawCerts))
	for _, raw := range rawCerts {
		cert, err := x509.ParseCertificate(raw)
		if err != nil {
			return err
		}
		certs = append(certs, cert)
	}
	if len(certs) == 0 {
		return newError(KindConnectFailed, "no certificate presented")
	}
	leaf := certs[0]

	var failures []certFailure
	now := time.Now()
	if now.Before(leaf.NotBefore) {
		failures = append(failures, failNotYetValid)
	}
	if now.After(leaf.NotAfter) {
		failures = append(failures, failExpired)
	}
	if err := leaf.VerifyHostname(host); err != nil {
		failures = append(failures, failHostnameMismatch)
	}

	pool := x509.NewCertPool()
	for _, c := range certs[1:] {
		pool.AddCert(c)
	}
	if _, err := leaf.Verify(x509.VerifyOptions{Roots: pool, Intermediates: pool}); err != nil {
		failures = append(failures, failUntrusted)
		if len(certs) > 1 {
			failures = append(failures, failBadChain)
		}
	}
	if revoked, checked := checkOCSP(leaf, certs); checked && revoked {
		failures = append(failures, failRevoked)
	}

	if len(failures) == 0 {
		return nil
	}

	report := buildTrustReport(leaf, failures)
	s.setError(report)
	cb := s.opt.TLSTrust
	if cb == nil {
		return newError(KindConnectFailed, report)
	}
	if cb(report) {
		return nil
	}
	return newError(KindConnectFailed, report)
}

// checkOCSP builds an OCSP request for the leaf but does not contact
// the responder: it always reports the certificate as unchecked, so the
// revoked bit is never set and no other failure bit is added for it.
func checkOCSP(leaf *x509.Certificate, chain []*x509.Certificate) (revoked bool, checked bool) {
	if len(leaf.OCSPServer) == 0 || len(chain) < 2 {
		return false, false
	}
	req, err := ocsp.CreateRequest(leaf, chain[1], nil)
	if err != nil || len(req) == 0 {
		return false, false
	}
	// No network round trip to the OCSP responder is made from inside
	// the tls.Config callback, so OCSP is treated as unchecked rather
	// than blocking the handshake on a second connection.
	return false, false
}

func buildTrustReport(leaf *x509.Certificate, failures []certFailure) string {
	var sb strings.Builder
	sb.WriteString("Certificate for ")
	sb.WriteString(leaf.Subject.CommonName)
	sb.WriteString(" failed verification:\n")
	for _, f := range failures {
		sb.WriteString(" - ")
		sb.WriteString(string(f))
		sb.WriteString("\n")
	}
	sum := sha256.Sum256(leaf.Raw)
	sb.WriteString(fmt.Sprintf("fingerprint (sha256): %x\n", sum))
	return sb.String()
}
