// Copyright 2025 the original author or authors.
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

package cli

import (
	"fmt"
	"io"
	"os"

	pb "gopkg.in/cheggaaa/pb.v1"
)

// progressBar is an io.ReadCloser that reports the bytes read from a file on
// stderr.  Closing it closes the file and clears the progress line.
type progressBar struct {
	r   io.ReadCloser
	bar *pb.ProgressBar
}

// OpenInput opens the named file for reading, or stdin for "-".  Unless
// quiet, reads from a regular file are tracked by a progress bar.
func OpenInput(name string, quiet bool) (io.ReadCloser, error) {
	if name == "-" {
		return io.NopCloser(os.Stdin), nil
	}

	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}

	if quiet {
		return f, nil
	}

	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()

		return nil, err
	}

	bar := pb.New64(fi.Size()).SetUnits(pb.U_BYTES_DEC).SetWidth(79)
	bar.Output = os.Stderr
	bar.Start()

	return progressBar{r: bar.NewProxyReader(f), bar: bar}, nil
}

func (p progressBar) Read(b []byte) (int, error) {
	return p.r.Read(b)
}

func (p progressBar) Close() error {
	// make sure newline is not printed by Finish()
	p.bar.Output = nil
	p.bar.NotPrint = true

	p.bar.Finish()

	fmt.Fprintf(os.Stderr, "\033[2K\r") // clear status bar

	return p.r.Close()
}
