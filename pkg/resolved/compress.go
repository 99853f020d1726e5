package resolved

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"

	"github.com/odvcencio/revplan/pkg/reftable"
)

// zstdMagic opens every zstd frame.
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// WriteDump encodes expr to w, wrapping the YAML in a zstd frame when
// compress is set.
func WriteDump(w io.Writer, expr Expression, table *reftable.Table, compress bool) error {
	if !compress {
		return Encode(w, expr, table)
	}
	enc, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("write dump: zstd: %w", err)
	}
	if err := Encode(enc, expr, table); err != nil {
		enc.Close()
		return err
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("write dump: zstd: %w", err)
	}
	return nil
}

// ReadDump decodes a dump written by WriteDump. Compressed input is
// recognized by its frame magic, so callers need not know how it was written.
func ReadDump(r io.Reader, table *reftable.Table) (Expression, error) {
	br := bufio.NewReader(r)
	var src io.Reader = br
	if isZstdFramed(br) {
		zr, err := newZstdReader(br)
		if err != nil {
			return nil, fmt.Errorf("read dump: zstd: %w", err)
		}
		defer zr.Close()
		src = zr
	}
	return Decode(src, table)
}

func isZstdFramed(br *bufio.Reader) bool {
	head, err := br.Peek(len(zstdMagic))
	return err == nil && bytes.Equal(head, zstdMagic)
}

// newZstdReader wraps an io.Reader with zstd decompression.
func newZstdReader(r io.Reader) (io.ReadCloser, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	return &zstdReadCloser{dec: dec}, nil
}

type zstdReadCloser struct {
	dec *zstd.Decoder
}

func (z *zstdReadCloser) Read(p []byte) (int, error) {
	return z.dec.Read(p)
}

func (z *zstdReadCloser) Close() error {
	z.dec.Close()
	return nil
}
