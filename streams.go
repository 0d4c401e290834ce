package courgette

import "github.com/pkg/errors"

// SplitStreams demultiplexes a stream bundle read from c into independent
// cursors. Each returned cursor aliases c's buffer and starts at offset 0.
//
// Bundle layout:
//
//	+------------------+-----------+----------+-----+----------+----------+-----+----------+
//	| version (varint) | n (varint)| size 1   | ... | size n   | stream 1 | ... | stream n |
//	+------------------+-----------+----------+-----+----------+----------+-----+----------+
//
// Bytes after the last stream stay unread in c.
func SplitStreams(c *Cursor) ([]*Cursor, error) {
	version, err := c.ReadVarUint32()
	if err != nil {
		return nil, errors.Wrap(err, "streams version")
	}
	if version != StreamsFormatVersion {
		return nil, errors.Wrapf(ErrFormatVersionMismatch, "got %d, want %d", version, StreamsFormatVersion)
	}

	count, err := c.ReadVarUint32()
	if err != nil {
		return nil, errors.Wrap(err, "streams count")
	}
	if count > MaxStreams {
		return nil, errors.Wrapf(ErrTooManyStreams, "%d > %d", count, MaxStreams)
	}

	sizes := make([]uint32, count)
	for i := range sizes {
		if sizes[i], err = c.ReadVarUint32(); err != nil {
			return nil, errors.Wrapf(err, "size of stream %d", i)
		}
	}

	streams := make([]*Cursor, count)
	for i, sz := range sizes {
		if uint64(sz) > uint64(c.Remaining()) {
			return nil, errors.Wrapf(ErrExhaustedInput, "stream %d declares %d bytes, %d remain", i, sz, c.Remaining())
		}
		p, err := c.ReadBytes(int(sz))
		if err != nil {
			return nil, errors.Wrapf(err, "stream %d", i)
		}
		streams[i] = NewCursor(p)
	}
	return streams, nil
}

// certifyEmpty fails with ErrTrailingStream unless every stream in
// trailing is fully consumed. first is the index of trailing[0] within
// its bundle.
func certifyEmpty(trailing []*Cursor, first int) error {
	for i, s := range trailing {
		if !s.IsEmpty() {
			return errors.Wrapf(ErrTrailingStream, "stream %d holds %d bytes", first+i, s.Remaining())
		}
	}
	return nil
}
