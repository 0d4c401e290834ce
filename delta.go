package courgette

import "github.com/pkg/errors"

// MBSHeader introduces a correction block.
type MBSHeader struct {
	Tag          string
	SourceLength uint32 // slen
	SourceCRC    uint32 // scrc32
	DestLength   uint32 // dlen
}

// ReadMBSHeader reads and validates a correction block header.
func ReadMBSHeader(c *Cursor) (*MBSHeader, error) {
	tag, err := c.ReadBytes(len(MBSTag))
	if err != nil {
		return nil, errors.Wrap(err, "MBS tag")
	}
	if string(tag) != MBSTag {
		return nil, errors.Wrapf(ErrBadMBSHeader, "tag %q", tag)
	}

	h := &MBSHeader{Tag: MBSTag}
	if h.SourceLength, err = c.ReadVarUint32(); err != nil {
		return nil, errors.Wrap(err, "MBS source length")
	}
	if h.SourceCRC, err = c.ReadVarUint32(); err != nil {
		return nil, errors.Wrap(err, "MBS source crc")
	}
	if h.DestLength, err = c.ReadVarUint32(); err != nil {
		return nil, errors.Wrap(err, "MBS destination length")
	}
	return h, nil
}

// --------------------------------------------------------------------

// deltaStreams are the six streams of a correction block, in bundle order.
type deltaStreams struct {
	copyCounts  *Cursor
	extraCounts *Cursor
	seeks       *Cursor // zig-zag
	diffSkips   *Cursor
	diffBytes   *Cursor
	extraBytes  *Cursor
}

func splitDeltaStreams(c *Cursor) (*deltaStreams, error) {
	streams, err := SplitStreams(c)
	if err != nil {
		return nil, err
	}
	if len(streams) < 6 {
		return nil, errors.Wrapf(ErrExhaustedInput, "got %d streams, want 6", len(streams))
	}
	if err := certifyEmpty(streams[6:], 6); err != nil {
		return nil, err
	}
	return &deltaStreams{
		copyCounts:  streams[0],
		extraCounts: streams[1],
		seeks:       streams[2],
		diffSkips:   streams[3],
		diffBytes:   streams[4],
		extraBytes:  streams[5],
	}, nil
}

// certify fails with ErrLeftoverData unless all six streams are consumed.
func (s *deltaStreams) certify() error {
	for _, x := range []struct {
		name string
		c    *Cursor
	}{
		{"copy counts", s.copyCounts},
		{"extra counts", s.extraCounts},
		{"seeks", s.seeks},
		{"diff skips", s.diffSkips},
		{"diff bytes", s.diffBytes},
		{"extra bytes", s.extraBytes},
	} {
		if !x.c.IsEmpty() {
			return errors.Wrapf(ErrLeftoverData, "%s: %d of %d bytes unread", x.name, x.c.Remaining(), x.c.Size())
		}
	}
	return nil
}

// --------------------------------------------------------------------

// AnalyzeBlock parses one correction block from c, replays its
// copy/extra/seek instructions and returns the gathered statistics.
// The block must be consumed exactly; c itself may hold further bytes.
func AnalyzeBlock(c *Cursor) (*BlockStats, error) {
	h, err := ReadMBSHeader(c)
	if err != nil {
		return nil, err
	}

	s, err := splitDeltaStreams(c)
	if err != nil {
		return nil, errors.Wrap(err, "block streams")
	}

	st := &BlockStats{Header: *h}
	if err := replay(h, s, st); err != nil {
		return nil, err
	}
	if err := s.certify(); err != nil {
		return nil, err
	}
	st.ReuseBytes = Reuse(st.intervals, h.SourceLength)
	return st, nil
}

func replay(h *MBSHeader, s *deltaStreams, st *BlockStats) error {
	var oldPos int64
	var pendingDiffZeros uint32

	// A block without instructions may omit the leading diff skip.
	if !s.extraCounts.IsEmpty() || !s.diffSkips.IsEmpty() {
		v, err := s.diffSkips.ReadVarUint32()
		if err != nil {
			return errors.Wrap(err, "initial diff skip")
		}
		pendingDiffZeros = v
	}

	for !s.extraCounts.IsEmpty() {
		n := st.Instructions
		ctrlStart := s.copyCounts.Pos() + s.extraCounts.Pos() + s.seeks.Pos()
		seekStart := s.seeks.Pos()

		copyCount, err := s.copyCounts.ReadVarUint32()
		if err != nil {
			return errors.Wrapf(err, "copy count of instruction %d", n)
		}
		extraCount, err := s.extraCounts.ReadVarUint32()
		if err != nil {
			return errors.Wrapf(err, "extra count of instruction %d", n)
		}
		seek, err := s.seeks.ReadVarInt32Signed()
		if err != nil {
			return errors.Wrapf(err, "seek of instruction %d", n)
		}

		st.intervals = append(st.intervals, Interval{Start: oldPos, Length: copyCount})
		st.Instructions++
		st.CopyBytes += uint64(copyCount)
		st.ExtraBytes += uint64(extraCount)
		st.SeekDistance += abs64(int64(seek))
		st.ControlStreamBytes += s.copyCounts.Pos() + s.extraCounts.Pos() + s.seeks.Pos() - ctrlStart
		st.SeekStreamBytes += s.seeks.Pos() - seekStart

		if copyCount > h.SourceLength {
			return errors.Wrapf(ErrCopyExceedsSource, "instruction %d copies %d bytes, source has %d", n, copyCount, h.SourceLength)
		}
		st.OutputLength += uint64(copyCount) + uint64(extraCount)

		for remaining := copyCount; remaining > 0; {
			if pendingDiffZeros > 0 {
				k := remaining
				if pendingDiffZeros < k {
					k = pendingDiffZeros
				}
				oldPos += int64(k)
				remaining -= k
				pendingDiffZeros -= k
				continue
			}

			if pendingDiffZeros, err = s.diffSkips.ReadVarUint32(); err != nil {
				return errors.Wrapf(err, "diff skip in instruction %d", n)
			}
			if _, err := s.diffBytes.ReadUint8(); err != nil {
				return errors.Wrapf(err, "diff byte in instruction %d", n)
			}
			st.DiffCorrections++
			oldPos++
			remaining--
		}

		if _, err := s.extraBytes.ReadBytes(int(extraCount)); err != nil {
			return errors.Wrapf(err, "extra bytes of instruction %d", n)
		}
		oldPos += int64(seek)
	}
	return nil
}

func abs64(v int64) uint64 {
	if v < 0 {
		return uint64(-v)
	}
	return uint64(v)
}
