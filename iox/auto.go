// Package iox opens input files with transparent decompression, so
// the CLI can parse .gz and .lz4 dumps the same way as plain text.
package iox

import (
	"bufio"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/pierrec/lz4/v4"
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	lz4Magic  = []byte{0x04, 0x22, 0x4d, 0x18}
)

// OpenAuto opens path and sniffs its leading bytes: gzip and lz4
// frames are decompressed on the fly, anything else is returned
// verbatim.
func OpenAuto(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	br := bufio.NewReader(f)

	head, err := br.Peek(4)
	if err != nil && err != io.EOF {
		f.Close()
		return nil, err
	}

	switch {
	case hasMagic(head, gzipMagic):
		gr, err := gzip.NewReader(br)
		if err != nil {
			f.Close()
			return nil, err
		}

		return &rc{Reader: gr, closers: []io.Closer{gr, f}}, nil
	case hasMagic(head, lz4Magic):
		return &rc{Reader: lz4.NewReader(br), closers: []io.Closer{f}}, nil
	}

	return &rc{Reader: br, closers: []io.Closer{f}}, nil
}

func hasMagic(head, magic []byte) bool {
	if len(head) < len(magic) {
		return false
	}

	for i := range magic {
		if head[i] != magic[i] {
			return false
		}
	}

	return true
}

type rc struct {
	io.Reader
	closers []io.Closer
}

func (r *rc) Close() error {
	var err error
	for i := range r.closers {
		if e := r.closers[i].Close(); err == nil && e != nil {
			err = e
		}
	}

	return err
}
