package courgette

import "sort"

// Interval is a range of source bytes read by one copy instruction.
type Interval struct {
	Start  int64
	Length uint32
}

func (iv Interval) end() int64 { return iv.Start + int64(iv.Length) }

// Reuse returns the number of distinct source bytes in [0, limit) covered
// by at least one interval. Overlapping intervals are counted once.
// The input slice is sorted in place.
func Reuse(intervals []Interval, limit uint32) uint64 {
	sort.Slice(intervals, func(i, j int) bool {
		return intervals[i].Start < intervals[j].Start
	})

	var reuse uint64
	var prevEnd int64
	for _, iv := range intervals {
		start, end := iv.Start, iv.end()
		if start < prevEnd {
			start = prevEnd
		}
		if start < 0 {
			start = 0
		}
		if end > int64(limit) {
			end = int64(limit)
		}
		if end > start {
			reuse += uint64(end - start)
		}
		if iv.end() > prevEnd {
			prevEnd = iv.end()
		}
	}
	return reuse
}

// BlockStats are the statistics of one replayed correction block.
type BlockStats struct {
	Header MBSHeader

	Instructions    int    // number of copy/extra/seek triples
	CopyBytes       uint64 // sum of copy counts
	ExtraBytes      uint64 // sum of extra counts
	SeekDistance    uint64 // sum of absolute seek adjustments
	DiffCorrections int    // diff bytes applied to copied bytes
	OutputLength    uint64 // bytes produced by the replay

	// ControlStreamBytes is the number of bytes read from the copy count,
	// extra count and seek streams.
	ControlStreamBytes int
	// SeekStreamBytes is the number of bytes read from the seek stream.
	SeekStreamBytes int

	// ReuseBytes is the number of distinct source bytes copied at least once.
	ReuseBytes uint64

	intervals []Interval
}

func (s *BlockStats) average(total float64) (float64, bool) {
	if s.Instructions == 0 {
		return 0, false
	}
	return total / float64(s.Instructions), true
}

// AverageCopy returns the mean copy length. ok is false for blocks without
// instructions.
func (s *BlockStats) AverageCopy() (avg float64, ok bool) {
	return s.average(float64(s.CopyBytes))
}

// AverageInstructionBytes returns the mean encoded size of an instruction
// across the copy count, extra count and seek streams.
func (s *BlockStats) AverageInstructionBytes() (avg float64, ok bool) {
	return s.average(float64(s.ControlStreamBytes))
}

// AverageSeekBytes returns the mean encoded size of a seek adjustment.
func (s *BlockStats) AverageSeekBytes() (avg float64, ok bool) {
	return s.average(float64(s.SeekStreamBytes))
}

// AverageSeekDistance returns the mean absolute seek adjustment.
func (s *BlockStats) AverageSeekDistance() (avg float64, ok bool) {
	return s.average(float64(s.SeekDistance))
}

// ReusePercent returns ReuseBytes as a percentage of the source length.
// ok is false for an empty source.
func (s *BlockStats) ReusePercent() (pct float64, ok bool) {
	if s.Header.SourceLength == 0 {
		return 0, false
	}
	return float64(s.ReuseBytes) / float64(s.Header.SourceLength) * 100, true
}
