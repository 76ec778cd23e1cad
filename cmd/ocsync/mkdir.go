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

func mkdirCommand() *cli.Command {
	return &cli.Command{
		Name:      "mkdir",
		Usage:     "create a remote collection",
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

			if mkErr := v.Mkdir(uri); mkErr != nil {
				return fmt.Errorf("mkdir %s: %s", uri, mkErr)
			}
			logger.Infof("created %s", uri)
			return nil
		},
	}
}
