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
	"time"

	"github.com/urfave/cli/v2"
)

func touchCommand() *cli.Command {
	return &cli.Command{
		Name:      "touch",
		Usage:     "create an empty resource, or set its modification time",
		ArgsUsage: "URI",
		Flags: []cli.Flag{
			&cli.Int64Flag{Name: "mtime", Usage: "epoch seconds to set via PROPPATCH, default now"},
		},
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
				if _, createErr := v.Creat(uri, 0o644); createErr != nil {
					return fmt.Errorf("create %s: %s", uri, createErr)
				}
			}

			mtime := c.Int64("mtime")
			if mtime == 0 {
				mtime = time.Now().Unix()
			}
			if utErr := v.Utimes(uri, mtime); utErr != nil {
				return fmt.Errorf("utimes %s: %s", uri, utErr)
			}
			logger.Infof("touched %s", uri)
			return nil
		},
	}
}
