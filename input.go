package courgette

import (
	"bytes"
	"io"
	"os"

	"github.com/dsnet/compress/bzip2"
	"github.com/golang/snappy"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
	"github.com/ulikunitz/xz"
	"github.com/ulikunitz/xz/lzma"
)

var (
	snappyMagic = []byte("\xff\x06\x00\x00sNaPpY")
	zstdMagic   = []byte{0x28, 0xb5, 0x2f, 0xfd}
	xzMagic     = []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}
	bzip2Magic  = []byte("BZh")
	gzipMagic   = []byte{0x1f, 0x8b}
)

// lzmaPropsDefault is the properties byte of an lzma-alone stream written
// with the default lc=3, lp=0, pb=2.
const lzmaPropsDefault = 0x5d

// DetectCompression sniffs the codec from the leading bytes of data.
// Anything unrecognised is treated as an uncompressed patch.
func DetectCompression(data []byte) Compression {
	switch {
	case bytes.HasPrefix(data, snappyMagic):
		return SnappyCompression
	case bytes.HasPrefix(data, zstdMagic):
		return ZstdCompression
	case bytes.HasPrefix(data, xzMagic):
		return XZCompression
	case bytes.HasPrefix(data, gzipMagic):
		return GzipCompression
	case len(data) > 3 && bytes.HasPrefix(data, bzip2Magic) && data[3] >= '1' && data[3] <= '9':
		return Bzip2Compression
	case len(data) >= lzma.HeaderLen && data[0] == lzmaPropsDefault:
		return LZMACompression
	}
	return NoCompression
}

// Decompress unwraps data encoded with codec c.
func Decompress(data []byte, c Compression) ([]byte, error) {
	if !c.isValid() {
		return nil, ErrBadCompression
	}

	var r io.Reader
	src := bytes.NewReader(data)
	switch c {
	case NoCompression:
		return data, nil
	case SnappyCompression:
		r = snappy.NewReader(src)
	case ZstdCompression:
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		return dec.DecodeAll(data, nil)
	case XZCompression:
		xr, err := xz.NewReader(src)
		if err != nil {
			return nil, err
		}
		r = xr
	case LZMACompression:
		lr, err := lzma.NewReader(src)
		if err != nil {
			return nil, err
		}
		r = lr
	case Bzip2Compression:
		br, err := bzip2.NewReader(src, nil)
		if err != nil {
			return nil, err
		}
		defer br.Close()
		r = br
	case GzipCompression:
		gr, err := gzip.NewReader(src)
		if err != nil {
			return nil, err
		}
		defer gr.Close()
		r = gr
	}
	return io.ReadAll(r)
}

// weakSignature reports whether c is sniffed from a prefix short enough to
// occur at the start of arbitrary data.
func (c Compression) weakSignature() bool {
	return c == GzipCompression || c == LZMACompression
}

// ReadFile reads a whole patch file into memory, decompressing it if it is
// wrapped in a known codec. Data that only looks like gzip or lzma but
// fails to decompress is returned as is, so the patch decoder reports it.
func ReadFile(name string) ([]byte, Compression, error) {
	raw, err := os.ReadFile(name)
	if err != nil {
		return nil, NoCompression, err
	}

	c := DetectCompression(raw)
	data, err := Decompress(raw, c)
	if err != nil {
		if c.weakSignature() {
			return raw, NoCompression, nil
		}
		return nil, c, errors.Wrapf(err, "courgette: decompress %s input", c)
	}
	return data, c, nil
}
