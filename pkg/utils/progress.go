// Copyright 2015 Ka-Hing Cheung
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package utils

import (
	"os"

	"github.com/vbauerster/mpb/v7"
	"github.com/vbauerster/mpb/v7/decor"
)

// TransferBar renders one upload or download as an mpb bar, the way
// the CLI reports every file it moves.
type TransferBar struct {
	bar *mpb.Bar
}

// Progress is a small wrapper around an mpb.Progress container so
// callers outside this package never import mpb directly.
type Progress struct {
	p *mpb.Progress
}

// NewProgress starts a new progress container rendering to stderr.
func NewProgress() *Progress {
	return &Progress{p: mpb.New(mpb.WithOutput(os.Stderr))}
}

// AddBar registers a bar for name with a total byte count. A total of
// zero renders a spinner-style indeterminate bar.
func (p *Progress) AddBar(name string, total int64) *TransferBar {
	if total <= 0 {
		bar := p.p.AddSpinner(1,
			mpb.PrependDecorators(decor.Name(name, decor.WC{W: len(name) + 1})),
		)
		return &TransferBar{bar: bar}
	}
	bar := p.p.AddBar(total,
		mpb.PrependDecorators(decor.Name(name, decor.WC{W: len(name) + 1})),
		mpb.AppendDecorators(decor.CountersKibiByte("% .2f / % .2f")),
	)
	return &TransferBar{bar: bar}
}

// Wait blocks until every registered bar has completed.
func (p *Progress) Wait() { p.p.Wait() }

// SetCurrent advances the bar's progress to n bytes transferred.
func (b *TransferBar) SetCurrent(n int64) {
	if b.bar == nil {
		return
	}
	b.bar.SetCurrent(n)
}

// Complete marks the bar done immediately, used on zero-length
// transfers and on early errors.
func (b *TransferBar) Complete() {
	if b.bar == nil {
		return
	}
	b.bar.SetCurrent(b.bar.Current())
	b.bar.Abort(false)
}
