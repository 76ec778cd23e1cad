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

func putCommand() *cli.Command {
	return &cli.Command{
		Name:      "put",
		Usage:     "upload a local file to a remote resource",
		ArgsUsage: "LOCAL-PATH URI",
		Action: func(c *cli.Context) error {
			setLoggerLevel(c)
			if c.Args().Len() < 2 {
				return fmt.Errorf("LOCAL-PATH and URI are required")
			}
			localPath := c.Args().Get(0)
			uri := c.Args().Get(1)

			v, err := vioFromContext(c)
			if err != nil {
				return err
			}
			defer v.Shutdown()

			f, openErr := os.Open(localPath)
			if openErr != nil {
				return openErr
			}
			defer f.Close()

			t, vioErr := v.Open(uri, webdav.OWrOnly|webdav.OCreat|webdav.OTrunc, 0o644)
			if vioErr != nil {
				return fmt.Errorf("open %s: %s", uri, vioErr)
			}

			if sendErr := v.Sendfile(t, f); sendErr != nil {
				return fmt.Errorf("put %s: %s", uri, sendErr)
			}
			if closeErr := v.Close(t); closeErr != nil {
				return fmt.Errorf("close %s: %s", uri, closeErr)
			}
			logger.Infof("uploaded %s -> %s", localPath, uri)
			return nil
		},
	}
}
