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

package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"
	"golang.org/x/term"

	"github.com/yagamy4680/ocsync/pkg/webdav"
)

func webdavVersion() string {
	return webdav.Version
}

// vioFromContext builds a VIO instance from the global flags, wiring
// password prompting, proxy parsing, and rate limiting.
func vioFromContext(c *cli.Context) (*webdav.VIO, error) {
	opt := webdav.Options{
		User:      c.String("user"),
		Password:  c.String("password"),
		RateLimit: c.Int64("rate-limit"),
		Auth:      promptAuth,
		TLSTrust:  confirmTrust,
	}
	if timeout := c.Duration("timeout"); timeout > 0 {
		opt.ReadTimeout = timeout
	}
	if proxy := c.String("proxy"); proxy != "" {
		if proxy == "env" {
			opt.ProxyType = webdav.DefaultProxy
		} else {
			host, port, err := splitHostPort(proxy)
			if err != nil {
				return nil, fmt.Errorf("invalid --proxy value %q: %w", proxy, err)
			}
			opt.ProxyType = webdav.HttpProxy
			opt.ProxyHost = host
			opt.ProxyPort = port
		}
	}
	if opt.Password == "" && opt.User != "" {
		pwd, err := readPassword(fmt.Sprintf("Password for %s: ", opt.User))
		if err != nil {
			return nil, err
		}
		opt.Password = pwd
	}
	return webdav.New(opt), nil
}

func splitHostPort(s string) (string, int, error) {
	idx := strings.LastIndex(s, ":")
	if idx < 0 {
		return s, 0, nil
	}
	port, err := strconv.Atoi(s[idx+1:])
	if err != nil {
		return "", 0, err
	}
	return s[:idx], port, nil
}

// promptAuth is the Session's AuthCallback: it asks on the controlling
// terminal the first time the server challenges for Basic auth.
func promptAuth(prompt string) (string, error) {
	if strings.Contains(strings.ToLower(prompt), "password") {
		return readPassword(prompt)
	}
	fmt.Fprint(os.Stderr, prompt, " ")
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func readPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// confirmTrust prints the TLS trust report and asks the operator to
// accept or reject it interactively.
func confirmTrust(report string) bool {
	fmt.Fprintln(os.Stderr, report)
	fmt.Fprint(os.Stderr, "Trust this certificate? [y/N] ")
	reader := bufio.NewReader(os.Stdin)
	line, _ := reader.ReadString('\n')
	line = strings.ToLower(strings.TrimSpace(line))
	return strings.HasPrefix(line, "y")
}

func connectCommand() *cli.Command {
	return &cli.Command{
		Name:      "connect",
		Usage:     "verify connectivity and print the backend's capability set",
		ArgsUsage: "URI",
		Action: func(c *cli.Context) error {
			setLoggerLevel(c)
			if c.Args().Len() < 1 {
				return fmt.Errorf("URI is required")
			}
			uri := c.Args().Get(0)
			v, err := vioFromContext(c)
			if err != nil {
				return err
			}
			defer v.Shutdown()
			if _, statErr := v.Stat(uri); statErr != nil {
				return fmt.Errorf("connect: %s", statErr)
			}
			caps := v.GetCapabilities()
			logger.Infof("connected to %s", uri)
			fmt.Printf("atomic_copy=%v do_post_copy_stat=%v time_sync_required=%v propagate_on_fd=%v\n",
				caps.AtomicCopy, caps.DoPostCopyStat, caps.TimeSyncRequired, caps.PropagateOnFd)
			return nil
		},
	}
}
