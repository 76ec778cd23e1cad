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

func mvCommand() *cli.Command {
	return &cli.Command{
		Name:      "mv",
		Usage:     "rename or move a remote resource",
		ArgsUsage: "OLD-URI NEW-URI",
		Action: func(c *cli.Context) error {
			setLoggerLevel(c)
			if c.Args().Len() < 2 {
				return fmt.Errorf("OLD-URI and NEW-URI are required")
			}
			oldURI := c.Args().Get(0)
			newURI := c.Args().Get(1)

			v, err := vioFromContext(c)
			if err != nil {
				return err
			}
			defer v.Shutdown()

			if mvErr := v.Rename(oldURI, newURI); mvErr != nil {
				return fmt.Errorf("rename %s -> %s: %s", oldURI, newURI, mvErr)
			}
			logger.Infof("renamed %s -> %s", oldURI, newURI)
			return nil
		},
	}
}
