package courgette

import "github.com/pkg/errors"

// Format constants of the ensemble patch envelope.
const (
	// Magic is "Cou\0" packed little-endian.
	Magic uint32 = 'C' | 'o'<<8 | 'u'<<16

	// Version is the only supported ensemble patch version.
	Version uint32 = 20110216

	// StreamsFormatVersion prefixes every multi-stream bundle.
	StreamsFormatVersion uint32 = 20090218

	// MaxStreams is the largest stream count a bundle may declare.
	MaxStreams = 10

	// MBSTag introduces every correction block.
	MBSTag = "GBSDIF42"
)

// Decode errors. Every error returned by this package wraps exactly one of
// these and can be matched with errors.Is.
var (
	ErrExhaustedInput           = errors.New("courgette: exhausted input")
	ErrVarintOverflow           = errors.New("courgette: varint exceeds 32 bits")
	ErrFormatVersionMismatch    = errors.New("courgette: streams format version mismatch")
	ErrTooManyStreams           = errors.New("courgette: too many streams")
	ErrBadMagic                 = errors.New("courgette: bad magic")
	ErrBadVersion               = errors.New("courgette: bad version")
	ErrTrailingStream           = errors.New("courgette: unexpected non-empty trailing stream")
	ErrUnsupportedTransformKind = errors.New("courgette: unsupported transformation kind")
	ErrTrailingData             = errors.New("courgette: trailing data")
	ErrBadMBSHeader             = errors.New("courgette: bad MBS header")
	ErrCopyExceedsSource        = errors.New("courgette: copy exceeds source length")
	ErrLeftoverData             = errors.New("courgette: leftover data after replay")
	ErrBadCompression           = errors.New("courgette: bad compression codec")
	ErrChecksumMismatch         = errors.New("courgette: source checksum mismatch")
)

// --------------------------------------------------------------------

// Compression is the codec wrapping a patch file on disk.
type Compression byte

func (c Compression) isValid() bool {
	return c >= NoCompression && c < unknownCompression
}

// String returns the codec name.
func (c Compression) String() string {
	switch c {
	case NoCompression:
		return "none"
	case SnappyCompression:
		return "snappy"
	case ZstdCompression:
		return "zstd"
	case XZCompression:
		return "xz"
	case LZMACompression:
		return "lzma"
	case Bzip2Compression:
		return "bzip2"
	case GzipCompression:
		return "gzip"
	}
	return "unknown"
}

// Supported compression codecs
const (
	NoCompression Compression = iota
	SnappyCompression
	ZstdCompression
	XZCompression
	LZMACompression
	Bzip2Compression
	GzipCompression
	unknownCompression
)
