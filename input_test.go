package courgette_test

import (
	"bytes"
	"io"
	"os"
	"path/filepath"

	"github.com/bsm/courgette"
	"github.com/dsnet/compress/bzip2"
	"github.com/golang/snappy"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/ulikunitz/xz"
	"github.com/ulikunitz/xz/lzma"
)

var _ = Describe("Input", func() {
	var plain []byte

	BeforeEach(func() {
		plain = seedPatch().encode()
	})

	compress := func(c courgette.Compression) []byte {
		buf := new(bytes.Buffer)

		var w io.WriteCloser
		var err error
		switch c {
		case courgette.NoCompression:
			return plain
		case courgette.SnappyCompression:
			w = snappy.NewBufferedWriter(buf)
		case courgette.ZstdCompression:
			enc, err := zstd.NewWriter(nil)
			Expect(err).NotTo(HaveOccurred())
			defer enc.Close()
			return enc.EncodeAll(plain, nil)
		case courgette.XZCompression:
			w, err = xz.NewWriter(buf)
		case courgette.LZMACompression:
			w, err = lzma.NewWriter(buf)
		case courgette.Bzip2Compression:
			w, err = bzip2.NewWriter(buf, &bzip2.WriterConfig{Level: bzip2.BestSpeed})
		case courgette.GzipCompression:
			w = gzip.NewWriter(buf)
		}
		Expect(err).NotTo(HaveOccurred())

		_, err = w.Write(plain)
		Expect(err).NotTo(HaveOccurred())
		Expect(w.Close()).To(Succeed())
		return buf.Bytes()
	}

	codecs := []courgette.Compression{
		courgette.NoCompression,
		courgette.SnappyCompression,
		courgette.ZstdCompression,
		courgette.XZCompression,
		courgette.LZMACompression,
		courgette.Bzip2Compression,
		courgette.GzipCompression,
	}

	It("should detect and decompress", func() {
		for _, c := range codecs {
			data := compress(c)
			Expect(courgette.DetectCompression(data)).To(Equal(c), "for %s", c)
			Expect(courgette.Decompress(data, c)).To(Equal(plain), "for %s", c)
		}
	})

	It("should treat patches as uncompressed", func() {
		Expect(plain[:4]).To(Equal([]byte{0xc3, 0xde, 0xd5, 0x03}))
		Expect(courgette.DetectCompression(plain)).To(Equal(courgette.NoCompression))
		Expect(courgette.DetectCompression(nil)).To(Equal(courgette.NoCompression))
		Expect(courgette.DetectCompression([]byte("BZh"))).To(Equal(courgette.NoCompression))
	})

	It("should reject unknown codecs", func() {
		_, err := courgette.Decompress(plain, courgette.Compression(99))
		Expect(err).To(MatchError(courgette.ErrBadCompression))
		Expect(courgette.Compression(99).String()).To(Equal("unknown"))
	})

	It("should fail on corrupt compressed data", func() {
		data := compress(courgette.GzipCompression)
		_, err := courgette.Decompress(data[:len(data)/2], courgette.GzipCompression)
		Expect(err).To(HaveOccurred())
	})

	Describe("ReadFile", func() {
		var dir string

		BeforeEach(func() {
			var err error
			dir, err = os.MkdirTemp("", "courgette-test")
			Expect(err).NotTo(HaveOccurred())
		})

		AfterEach(func() {
			Expect(os.RemoveAll(dir)).To(Succeed())
		})

		It("should read compressed files", func() {
			for _, c := range codecs {
				name := filepath.Join(dir, "patch."+c.String())
				Expect(os.WriteFile(name, compress(c), 0o644)).To(Succeed())

				data, detected, err := courgette.ReadFile(name)
				Expect(err).NotTo(HaveOccurred())
				Expect(detected).To(Equal(c))
				Expect(data).To(Equal(plain))
			}
		})

		It("should pass through data that only looks compressed", func() {
			garbage := append([]byte{0x5d}, bytes.Repeat([]byte{0x01}, 20)...)
			for _, raw := range [][]byte{garbage, {0x1f, 0x8b, 0x08, 0x00}} {
				name := filepath.Join(dir, "garbage")
				Expect(os.WriteFile(name, raw, 0o644)).To(Succeed())

				data, detected, err := courgette.ReadFile(name)
				Expect(err).NotTo(HaveOccurred())
				Expect(detected).To(Equal(courgette.NoCompression))
				Expect(data).To(Equal(raw))
			}
		})

		It("should fail on corrupt files with a strong signature", func() {
			data := compress(courgette.XZCompression)
			name := filepath.Join(dir, "corrupt.xz")
			Expect(os.WriteFile(name, data[:8], 0o644)).To(Succeed())

			_, detected, err := courgette.ReadFile(name)
			Expect(err).To(HaveOccurred())
			Expect(detected).To(Equal(courgette.XZCompression))
		})

		It("should fail on missing files", func() {
			_, _, err := courgette.ReadFile(filepath.Join(dir, "missing"))
			Expect(os.IsNotExist(err)).To(BeTrue())
		})
	})
})
