package courgette_test

import (
	"math"
	"math/rand"

	"github.com/bsm/courgette"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Cursor", func() {

	encodeUint := func(vs ...uint32) *courgette.Cursor {
		s := courgette.NewSink()
		for _, v := range vs {
			s.WriteVarUint32(v)
		}
		return courgette.NewCursor(s.Bytes())
	}

	It("should read bytes", func() {
		subject := courgette.NewCursor([]byte("abcdef"))
		Expect(subject.Size()).To(Equal(6))
		Expect(subject.ReadBytes(2)).To(Equal([]byte("ab")))
		Expect(subject.ReadUint8()).To(Equal(byte('c')))
		Expect(subject.Pos()).To(Equal(3))
		Expect(subject.Remaining()).To(Equal(3))
		Expect(subject.ReadBytes(0)).To(BeEmpty())
		Expect(subject.ReadBytes(3)).To(Equal([]byte("def")))
		Expect(subject.IsEmpty()).To(BeTrue())
		Expect(subject.Size()).To(Equal(6))
	})

	It("should decode varuints", func() {
		Expect(courgette.NewCursor([]byte{0xac, 0x02}).ReadVarUint32()).To(Equal(uint32(300)))
		Expect(courgette.NewCursor([]byte{0xc3, 0xde, 0xd5, 0x03}).ReadVarUint32()).To(Equal(courgette.Magic))
		Expect(courgette.NewCursor([]byte{0xff, 0xff, 0xff, 0xff, 0x0f}).ReadVarUint32()).To(Equal(uint32(math.MaxUint32)))
	})

	It("should round-trip varuints", func() {
		values := []uint32{0, 1, 127, 128, 16383, 16384, 1<<21 - 1, 1 << 21, 1<<28 - 1, 1 << 28, math.MaxUint32}
		rnd := rand.New(rand.NewSource(1))
		for i := 0; i < 1000; i++ {
			values = append(values, rnd.Uint32()>>uint(rnd.Intn(32)))
		}

		subject := encodeUint(values...)
		for _, v := range values {
			Expect(subject.ReadVarUint32()).To(Equal(v), "for %d", v)
		}
		Expect(subject.IsEmpty()).To(BeTrue())
	})

	It("should round-trip zig-zag varints", func() {
		values := []int32{0, 1, -1, 63, -64, 64, -65, 1 << 20, -(1 << 20), math.MaxInt32, math.MinInt32}
		rnd := rand.New(rand.NewSource(1))
		for i := 0; i < 1000; i++ {
			values = append(values, int32(rnd.Uint32())>>uint(rnd.Intn(32)))
		}

		s := courgette.NewSink()
		for _, v := range values {
			s.WriteVarInt32Signed(v)
		}
		subject := courgette.NewCursor(s.Bytes())
		for _, v := range values {
			Expect(subject.ReadVarInt32Signed()).To(Equal(v), "for %d", v)
		}
		Expect(subject.IsEmpty()).To(BeTrue())
	})

	It("should decode zig-zag sign bits", func() {
		Expect(courgette.NewCursor([]byte{0}).ReadVarInt32Signed()).To(Equal(int32(0)))
		Expect(courgette.NewCursor([]byte{1}).ReadVarInt32Signed()).To(Equal(int32(-1)))
		Expect(courgette.NewCursor([]byte{2}).ReadVarInt32Signed()).To(Equal(int32(1)))
		Expect(courgette.NewCursor([]byte{19}).ReadVarInt32Signed()).To(Equal(int32(-10)))
	})

	It("should fail on exhausted input", func() {
		_, err := courgette.NewCursor(nil).ReadUint8()
		Expect(err).To(MatchError(courgette.ErrExhaustedInput))

		subject := courgette.NewCursor([]byte{1, 2})
		_, err = subject.ReadBytes(3)
		Expect(err).To(MatchError(courgette.ErrExhaustedInput))
		Expect(subject.Pos()).To(Equal(0))

		_, err = subject.ReadBytes(-1)
		Expect(err).To(MatchError(courgette.ErrExhaustedInput))

		_, err = courgette.NewCursor([]byte{0x80, 0x80}).ReadVarUint32()
		Expect(err).To(MatchError(courgette.ErrExhaustedInput))

		_, err = courgette.NewCursor([]byte{0x81}).ReadVarInt32Signed()
		Expect(err).To(MatchError(courgette.ErrExhaustedInput))
	})

	It("should reject varuints longer than 32 bits", func() {
		subject := courgette.NewCursor([]byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x01})
		_, err := subject.ReadVarUint32()
		Expect(err).To(MatchError(courgette.ErrVarintOverflow))
		Expect(subject.Pos()).To(Equal(0))

		for _, buf := range [][]byte{
			{0x80, 0x80, 0x80, 0x80, 0x10},
			{0xff, 0xff, 0xff, 0xff, 0x7f},
			{0xff, 0xff, 0xff, 0xff, 0x1f},
		} {
			subject = courgette.NewCursor(buf)
			_, err = subject.ReadVarUint32()
			Expect(err).To(MatchError(courgette.ErrVarintOverflow), "for % x", buf)
			Expect(subject.Pos()).To(Equal(0))
		}
	})

	It("should alias the underlying buffer", func() {
		buf := []byte("xyz")
		p, err := courgette.NewCursor(buf).ReadBytes(2)
		Expect(err).NotTo(HaveOccurred())
		Expect(&p[0]).To(BeIdenticalTo(&buf[0]))
		Expect(cap(p)).To(Equal(2))
	})
})
