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
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/yagamy4680/ocsync/pkg/utils"
)

var logger = utils.GetLogger("ocsync")

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "user", Aliases: []string{"u"}, Usage: "ownCloud user name"},
		&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Usage: "ownCloud password (prompted if omitted)"},
		&cli.StringFlag{Name: "proxy", Usage: "http proxy host:port, or \"env\" to read from the environment"},
		&cli.Int64Flag{Name: "rate-limit", Usage: "transfer rate limit in bytes/sec, 0 for unlimited"},
		&cli.DurationFlag{Name: "timeout", Value: 30 * time.Second, Usage: "read timeout per request"},
		&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "enable debug logging"},
		&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: "only log warnings and errors"},
	}
}

func setLoggerLevel(c *cli.Context) {
	if c.Bool("verbose") {
		utils.SetLogLevel(logrus.DebugLevel)
	} else if c.Bool("quiet") {
		utils.SetLogLevel(logrus.WarnLevel)
	} else {
		utils.SetLogLevel(logrus.InfoLevel)
	}
	if !isTerminalStderr() {
		utils.DisableLogColor()
	}
}

func isTerminalStderr() bool {
	fi, err := os.Stderr.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}

func main() {
	app := &cli.App{
		Name:                 "ocsync",
		Usage:                "drive a WebDAV/ownCloud remote through the VIO operation surface",
		Version:              webdavVersion(),
		Flags:                globalFlags(),
		EnableBashCompletion: true,
		Commands: []*cli.Command{
			connectCommand(),
			lsCommand(),
			getCommand(),
			putCommand(),
			mkdirCommand(),
			rmCommand(),
			mvCommand(),
			touchCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "ocsync:", err)
		os.Exit(1)
	}
}
