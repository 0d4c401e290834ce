package courgette

import "github.com/pkg/errors"

// maxVarintLen32 is the longest encoding of a 32-bit varuint.
const maxVarintLen32 = 5

// Cursor is a forward-only reader over an immutable byte slice. Cursors
// returned by SplitStreams alias the parent's buffer.
type Cursor struct {
	buf  []byte
	read int // bytes read
}

// NewCursor wraps b. The slice must not be modified while the cursor is in
// use.
func NewCursor(b []byte) *Cursor {
	return &Cursor{buf: b}
}

// Size returns the size of the underlying buffer, not the remaining size.
func (c *Cursor) Size() int { return len(c.buf) }

// Pos returns the current read offset.
func (c *Cursor) Pos() int { return c.read }

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int { return len(c.buf) - c.read }

// IsEmpty returns true if all bytes have been read.
func (c *Cursor) IsEmpty() bool { return c.read == len(c.buf) }

// ReadBytes returns the next n bytes. The returned slice aliases the
// cursor's buffer.
func (c *Cursor) ReadBytes(n int) ([]byte, error) {
	if n < 0 || n > c.Remaining() {
		return nil, errors.Wrapf(ErrExhaustedInput, "read %d bytes at offset %d of %d", n, c.read, len(c.buf))
	}
	p := c.buf[c.read : c.read+n : c.read+n]
	c.read += n
	return p, nil
}

// ReadUint8 reads a single byte.
func (c *Cursor) ReadUint8() (byte, error) {
	if c.IsEmpty() {
		return 0, errors.Wrapf(ErrExhaustedInput, "read byte at offset %d", c.read)
	}
	b := c.buf[c.read]
	c.read++
	return b, nil
}

// ReadVarUint32 decodes a little-endian base-128 varuint. Encodings longer
// than five bytes, or whose fifth byte carries bits beyond 32, are rejected
// with ErrVarintOverflow.
func (c *Cursor) ReadVarUint32() (uint32, error) {
	start := c.read

	var v uint32
	for i := 0; i < maxVarintLen32; i++ {
		b, err := c.ReadUint8()
		if err != nil {
			c.read = start
			return 0, errors.Wrapf(ErrExhaustedInput, "varuint at offset %d", start)
		}
		if i == maxVarintLen32-1 && b > 0x0f {
			break
		}
		v |= uint32(b&0x7f) << (7 * uint(i))
		if b&0x80 == 0 {
			return v, nil
		}
	}
	c.read = start
	return 0, errors.Wrapf(ErrVarintOverflow, "varuint at offset %d", start)
}

// ReadVarInt32Signed decodes a zig-zag encoded varint.
func (c *Cursor) ReadVarInt32Signed() (int32, error) {
	u, err := c.ReadVarUint32()
	if err != nil {
		return 0, err
	}
	return zigzagDecode(u), nil
}

func zigzagDecode(u uint32) int32 {
	if u&1 != 0 {
		return ^int32(u >> 1)
	}
	return int32(u >> 1)
}
