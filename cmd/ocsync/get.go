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

	"github.com/urfave/cli/v2"

	"github.com/yagamy4680/ocsync/pkg/webdav"
)

func getCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "download a remote resource to a local file",
		ArgsUsage: "URI LOCAL-PATH",
		Action: func(c *cli.Context) error {
			setLoggerLevel(c)
			if c.Args().Len() < 2 {
				return fmt.Errorf("URI and LOCAL-PATH are required")
			}
			uri := c.Args().Get(0)
			localPath := c.Args().Get(1)

			v, err := vioFromContext(c)
			if err != nil {
				return err
			}
			defer v.Shutdown()

			t, openErr := v.Open(uri, webdav.ORdOnly, 0)
			if openErr != nil {
				return fmt.Errorf("open %s: %s", uri, openErr)
			}

			f, createErr := os.Create(localPath)
			if createErr != nil {
				return createErr
			}
			defer f.Close()

			if sendErr := v.Sendfile(t, f); sendErr != nil {
				return fmt.Errorf("get %s: %s", uri, sendErr)
			}
			if closeErr := v.Close(t); closeErr != nil {
				return fmt.Errorf("close %s: %s", uri, closeErr)
			}
			logger.Infof("fetched %s -> %s", uri, localPath)
			return nil
		},
	}
}
