package courgette

import (
	"encoding/binary"
	"io"
)

// Sink accumulates the encoding of a single stream in memory.
type Sink struct {
	buf []byte
	tmp []byte // scratch buffer
}

// NewSink returns an empty sink.
func NewSink() *Sink {
	return &Sink{tmp: make([]byte, binary.MaxVarintLen32)}
}

// Bytes returns the encoded stream. The slice is only valid until the next
// write.
func (s *Sink) Bytes() []byte { return s.buf }

// Len returns the number of encoded bytes.
func (s *Sink) Len() int { return len(s.buf) }

// Write appends raw bytes. It never fails.
func (s *Sink) Write(p []byte) (int, error) {
	s.buf = append(s.buf, p...)
	return len(p), nil
}

// WriteByte appends a single byte.
func (s *Sink) WriteByte(b byte) error {
	s.buf = append(s.buf, b)
	return nil
}

// WriteVarUint32 appends v as a base-128 varuint.
func (s *Sink) WriteVarUint32(v uint32) {
	n := binary.PutUvarint(s.tmp, uint64(v))
	s.buf = append(s.buf, s.tmp[:n]...)
}

// WriteVarInt32Signed appends v zig-zag encoded.
func (s *Sink) WriteVarInt32Signed(v int32) {
	s.WriteVarUint32(zigzagEncode(v))
}

// WriteTo writes the encoded stream to w.
func (s *Sink) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(s.buf)
	return int64(n), err
}

func zigzagEncode(v int32) uint32 {
	if v < 0 {
		return uint32(^v)<<1 | 1
	}
	return uint32(v) << 1
}

// --------------------------------------------------------------------

// MultiSink encodes a bundle of streams in the layout read by SplitStreams.
type MultiSink struct {
	streams []*Sink
}

// NewMultiSink creates a bundle of n empty streams.
func NewMultiSink(n int) *MultiSink {
	m := &MultiSink{streams: make([]*Sink, n)}
	for i := range m.streams {
		m.streams[i] = NewSink()
	}
	return m
}

// Stream returns the i-th stream.
func (m *MultiSink) Stream(i int) *Sink { return m.streams[i] }

// NumStreams returns the number of streams in the bundle.
func (m *MultiSink) NumStreams() int { return len(m.streams) }

// CopyTo appends the bundle encoding to dst: the streams format version,
// the stream count, every stream size and finally the stream contents.
func (m *MultiSink) CopyTo(dst *Sink) {
	dst.WriteVarUint32(StreamsFormatVersion)
	dst.WriteVarUint32(uint32(len(m.streams)))
	for _, s := range m.streams {
		dst.WriteVarUint32(uint32(s.Len()))
	}
	for _, s := range m.streams {
		_, _ = dst.Write(s.buf)
	}
}

// --------------------------------------------------------------------

// Encode appends the envelope to s. Magic and Version are written as set;
// zero values are replaced by the supported constants.
func (h *Header) Encode(s *Sink) {
	magic, version := h.Magic, h.Version
	if magic == 0 {
		magic = Magic
	}
	if version == 0 {
		version = Version
	}
	s.WriteVarUint32(magic)
	s.WriteVarUint32(version)
	s.WriteVarUint32(h.SourceChecksum)
	s.WriteVarUint32(h.TargetChecksum)
	s.WriteVarUint32(h.FinalInputSizePrediction)
}

// Encode appends the correction block header to s.
func (h *MBSHeader) Encode(s *Sink) {
	tag := h.Tag
	if tag == "" {
		tag = MBSTag
	}
	_, _ = s.Write([]byte(tag))
	s.WriteVarUint32(h.SourceLength)
	s.WriteVarUint32(h.SourceCRC)
	s.WriteVarUint32(h.DestLength)
}
