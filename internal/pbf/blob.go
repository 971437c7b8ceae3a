// Copyright 2017-25 the original author or authors.
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

package pbf

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/destel/rill"

	"m4o.io/osmquest/internal/core"
)

const (
	osmHeaderType = "OSMHeader"
	osmDataType   = "OSMData"

	// maxBlobHeaderSize and maxBlobSize are the limits of the file format.
	maxBlobHeaderSize = 64 * 1024
	maxBlobSize       = 32 * 1024 * 1024
)

type compression int

const (
	raw compression = iota
	zlibCompressed
	lzmaCompressed
	lz4Compressed
	zstdCompressed
	unknownCompression
)

type blobHeader struct {
	kind     string
	dataSize int32
}

// blob is a framed, possibly compressed block of the file.
type blob struct {
	kind        string
	compression compression
	rawSize     int32
	data        []byte
}

// generate reads blobs off of reader until EOF, sending them down the
// returned channel.
func generate(ctx context.Context, reader io.Reader) <-chan rill.Try[blob] {
	ch := make(chan rill.Try[blob])

	go func() {
		defer close(ch)

		buffer := core.NewPooledBuffer()
		defer buffer.Close()

		for {
			b, err := readBlob(buffer, reader)
			if errors.Is(err, io.EOF) {
				return
			}

			if err != nil {
				slog.Error("unable to read blob", "error", err)
			}

			select {
			case <-ctx.Done():
				return
			case ch <- rill.Try[blob]{Value: b, Error: err}:
			}

			if err != nil {
				return
			}
		}
	}()

	return ch
}

// readBlob reads the next framed blob from rdr.  A clean end of input is
// reported as io.EOF.
func readBlob(buffer *core.PooledBuffer, rdr io.Reader) (blob, error) {
	h, err := readBlobHeader(buffer, rdr)
	if err != nil {
		return blob{}, err
	}

	b, err := readBlobData(buffer, rdr, h)
	if err != nil {
		return blob{}, fmt.Errorf("error reading blob: %w", err)
	}

	return b, nil
}

func readBlobHeader(buffer *core.PooledBuffer, rdr io.Reader) (blobHeader, error) {
	var size uint32

	if err := binary.Read(rdr, binary.BigEndian, &size); err != nil {
		if errors.Is(err, io.EOF) {
			return blobHeader{}, io.EOF
		}

		return blobHeader{}, fmt.Errorf("error reading blob header size: %w", err)
	}

	if size > maxBlobHeaderSize {
		return blobHeader{}, fmt.Errorf("blob header size %d exceeds %d", size, maxBlobHeaderSize)
	}

	buffer.Reset()

	if _, err := io.CopyN(buffer, rdr, int64(size)); err != nil {
		return blobHeader{}, fmt.Errorf("error reading blob header: %w", unexpected(err))
	}

	var h blobHeader

	err := walk(buffer.Bytes(), func(f field) error {
		switch f.Num {
		case 1:
			h.kind = string(f.Bytes)
		case 3:
			h.dataSize = int32(f.Varint)
		}

		return nil
	})
	if err != nil {
		return blobHeader{}, fmt.Errorf("error unmarshalling blob header: %w", err)
	}

	if h.dataSize < 0 || h.dataSize > maxBlobSize {
		return blobHeader{}, fmt.Errorf("blob size %d exceeds %d", h.dataSize, maxBlobSize)
	}

	return h, nil
}

func readBlobData(buffer *core.PooledBuffer, rdr io.Reader, h blobHeader) (blob, error) {
	buffer.Reset()

	if _, err := io.CopyN(buffer, rdr, int64(h.dataSize)); err != nil {
		return blob{}, unexpected(err)
	}

	b := blob{kind: h.kind, compression: unknownCompression}

	err := walk(buffer.Bytes(), func(f field) error {
		switch f.Num {
		case 1:
			b.compression, b.data = raw, f.Bytes
		case 2:
			b.rawSize = int32(f.Varint)
		case 3:
			b.compression, b.data = zlibCompressed, f.Bytes
		case 4:
			b.compression, b.data = lzmaCompressed, f.Bytes
		case 6:
			b.compression, b.data = lz4Compressed, f.Bytes
		case 7:
			b.compression, b.data = zstdCompressed, f.Bytes
		}

		return nil
	})
	if err != nil {
		return blob{}, fmt.Errorf("error unmarshalling blob: %w", err)
	}

	// the payload aliases the pooled buffer, which is reused for the next blob
	b.data = append([]byte(nil), b.data...)

	return b, nil
}

// unexpected reports a short read inside a blob as io.ErrUnexpectedEOF so it
// is not mistaken for the end of the file.
func unexpected(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}

	return err
}
