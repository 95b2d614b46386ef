// Copyright 2020-2025 Buf Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package reporter

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/rivo/uniseg"
)

// WriterOptions configures a reporter created with [NewWriterReporter].
type WriterOptions struct {
	// If set, used to fetch the contents of a file so that diagnostics can
	// include the offending line with a caret under the reported column.
	Source func(filename string) ([]byte, bool)
	// Colorize severity labels with ANSI escapes.
	Color bool
	// Stop at the first error instead of reporting all of them.
	FailFast bool
}

// NewWriterReporter returns a reporter that prints every diagnostic to w, one
// per line, in the form "file:line:col: severity: message".
func NewWriterReporter(w io.Writer, opts WriterOptions) Reporter {
	wr := &writerReporter{w: w, opts: opts}
	wr.errLabel = color.New(color.FgRed, color.Bold)
	wr.warnLabel = color.New(color.FgYellow, color.Bold)
	if !opts.Color {
		wr.errLabel.DisableColor()
		wr.warnLabel.DisableColor()
	}
	return wr
}

type writerReporter struct {
	mu   sync.Mutex
	w    io.Writer
	opts WriterOptions

	errLabel, warnLabel *color.Color
}

func (r *writerReporter) Error(err ErrorWithPos) error {
	r.write(r.errLabel.Sprint("error"), err)
	if r.opts.FailFast {
		return err
	}
	return nil
}

func (r *writerReporter) Warning(err ErrorWithPos) {
	r.write(r.warnLabel.Sprint("warning"), err)
}

func (r *writerReporter) write(label string, err ErrorWithPos) {
	r.mu.Lock()
	defer r.mu.Unlock()

	pos := err.GetPosition()
	_, _ = fmt.Fprintf(r.w, "%s: %s: %v\n", pos, label, err.Unwrap())
	if r.opts.Source == nil || pos.Line <= 0 {
		return
	}
	src, ok := r.opts.Source(pos.Filename)
	if !ok {
		return
	}
	line, ok := sourceLine(src, pos.Line)
	if !ok {
		return
	}
	gutter := fmt.Sprintf("%4d | ", pos.Line)
	_, _ = fmt.Fprintf(r.w, "%s%s\n", gutter, line)
	_, _ = fmt.Fprintf(r.w, "%s%s^\n", strings.Repeat(" ", len(gutter)-2)+"| ", caretPadding(line, pos.Col))
}

// sourceLine returns the one-based line n of src without its line ending.
func sourceLine(src []byte, n int) (string, bool) {
	for i := 1; i < n; i++ {
		idx := bytes.IndexByte(src, '\n')
		if idx < 0 {
			return "", false
		}
		src = src[idx+1:]
	}
	if idx := bytes.IndexByte(src, '\n'); idx >= 0 {
		src = src[:idx]
	}
	return strings.TrimSuffix(string(src), "\r"), true
}

// caretPadding returns whitespace that lines up with the one-based character
// column col of line when printed underneath it. Tabs are reproduced so the
// terminal expands them identically; everything else is measured in display
// cells so wide characters keep the caret aligned.
func caretPadding(line string, col int) string {
	var prefix strings.Builder
	for i, r := range []rune(line) {
		if i >= col-1 {
			break
		}
		prefix.WriteRune(r)
	}
	var buf strings.Builder
	gr := uniseg.NewGraphemes(prefix.String())
	for gr.Next() {
		g := gr.Str()
		if g == "\t" {
			buf.WriteByte('\t')
			continue
		}
		buf.WriteString(strings.Repeat(" ", uniseg.StringWidth(g)))
	}
	return buf.String()
}
