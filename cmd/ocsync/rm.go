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

	"github.com/urfave/cli/v2"
)

func rmCommand() *cli.Command {
	return &cli.Command{
		Name:      "rm",
		Usage:     "delete a remote resource or collection",
		ArgsUsage: "URI",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "dir", Usage: "target is a collection (uses rmdir instead of unlink)"},
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

			var rmErr error
			if c.Bool("dir") {
				if e := v.Rmdir(uri); e != nil {
					rmErr = fmt.Errorf("rmdir %s: %s", uri, e)
				}
			} else {
				if e := v.Unlink(uri); e != nil {
					rmErr = fmt.Errorf("unlink %s: %s", uri, e)
				}
			}
			if rmErr != nil {
				return rmErr
			}
			logger.Infof("removed %s", uri)
			return nil
		},
	}
}
