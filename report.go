package courgette

import (
	"encoding/json"
	"fmt"
	"hash/crc32"
	"io"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Checksum returns the checksum the patch header records for a file.
func Checksum(data []byte) uint32 {
	return ^crc32.ChecksumIEEE(data)
}

// VerifySource checks that src is the file the patch was generated from.
func (h *Header) VerifySource(src []byte) error {
	if sum := Checksum(src); sum != h.SourceChecksum {
		return errors.Wrapf(ErrChecksumMismatch, "got 0x%08x, header has 0x%08x", sum, h.SourceChecksum)
	}
	return nil
}

// --------------------------------------------------------------------

// Options define analysis specific options.
type Options struct {
	// Parallel analyzes the correction blocks concurrently.
	// Results are reported in bundle order either way.
	// Default: false.
	Parallel bool

	// Blocks restricts the analysis to the named correction blocks.
	// Default: all three, in bundle order.
	Blocks []string
}

func (o *Options) norm() *Options {
	var oo Options
	if o != nil {
		oo = *o
	}

	if len(oo.Blocks) == 0 {
		oo.Blocks = []string{ParameterCorrection, TransformedElementsCorrection, EnsembleCorrection}
	}

	return &oo
}

// BlockResult is the outcome of analyzing one correction block.
type BlockResult struct {
	Name  string
	Stats *BlockStats // nil on failure
	Err   error
}

// Analysis is the outcome of analyzing a whole patch.
type Analysis struct {
	Header          *Header
	Transformations []Transformation
	Blocks          []BlockResult
}

// Analyze decodes an ensemble patch held in data. Failures in the header,
// the patch streams or the transformation descriptions are returned
// directly. A failing correction block is recorded in its BlockResult and
// the remaining blocks are still analyzed.
func Analyze(data []byte, o *Options) (*Analysis, error) {
	o = o.norm()

	p, err := NewPatch(NewCursor(data))
	if err != nil {
		return nil, err
	}
	if err := p.ReadInitialParameters(); err != nil {
		return nil, errors.Wrap(err, "initial parameters")
	}

	a := &Analysis{
		Header:          p.Header,
		Transformations: p.Transformations,
		Blocks:          make([]BlockResult, len(o.Blocks)),
	}
	for i, name := range o.Blocks {
		if p.CorrectionBlock(name) == nil {
			return nil, errors.Errorf("courgette: unknown correction block %q", name)
		}
		a.Blocks[i].Name = name
	}

	analyze := func(r *BlockResult) error {
		st, err := AnalyzeBlock(p.CorrectionBlock(r.Name))
		if err != nil {
			r.Err = errors.Wrap(err, r.Name)
			return r.Err
		}
		r.Stats = st
		return nil
	}

	if !o.Parallel {
		for i := range a.Blocks {
			_ = analyze(&a.Blocks[i])
		}
		return a, nil
	}

	// each block owns its cursor and its result slot; a failing block is
	// kept on its slot and must not stop the others
	var g errgroup.Group
	for i := range a.Blocks {
		r := &a.Blocks[i]
		g.Go(func() error { return analyze(r) })
	}
	// failures stay on their block and surface through a.Err()
	_ = g.Wait()
	return a, nil
}

// Err returns the first block failure, if any.
func (a *Analysis) Err() error {
	for _, b := range a.Blocks {
		if b.Err != nil {
			return b.Err
		}
	}
	return nil
}

// --------------------------------------------------------------------

// WriteText writes a human readable report to w.
func (a *Analysis) WriteText(w io.Writer) error {
	ew := &errWriter{w: w}

	h := a.Header
	ew.printf("Header:\n")
	ew.printf("  magic:                       0x%08x\n", h.Magic)
	ew.printf("  version:                     %d\n", h.Version)
	ew.printf("  source_crc:                  0x%08x\n", h.SourceChecksum)
	ew.printf("  target_crc:                  0x%08x\n", h.TargetChecksum)
	ew.printf("  final_input_size_prediction: %d\n", h.FinalInputSizePrediction)

	ew.printf("\nPatchers: %d\n", len(a.Transformations))
	for i := range a.Transformations {
		t := &a.Transformations[i]
		offset, length, _ := t.Base()
		ew.printf("  %d: %s base_offset=%d base_length=%d\n", i, t.Kind, offset, length)
	}

	for _, b := range a.Blocks {
		ew.printf("\n%s:\n", b.Name)
		if b.Err != nil {
			ew.printf("  error:                     %v\n", b.Err)
			continue
		}

		s := b.Stats
		ew.printf("  slen:                      %d\n", s.Header.SourceLength)
		ew.printf("  scrc32:                    0x%08x\n", s.Header.SourceCRC)
		ew.printf("  dlen:                      %d\n", s.Header.DestLength)
		ew.printf("  instructions:              %d\n", s.Instructions)
		ew.printf("  copy_bytes:                %d\n", s.CopyBytes)
		ew.printf("  extra_bytes:               %d\n", s.ExtraBytes)
		ew.printf("  diff_corrections:          %d\n", s.DiffCorrections)
		ew.printf("  output_length:             %d\n", s.OutputLength)
		ew.printf("  average_copy:              %s\n", formatAvg(s.AverageCopy()))
		ew.printf("  average_instruction_bytes: %s\n", formatAvg(s.AverageInstructionBytes()))
		ew.printf("  average_seek_bytes:        %s\n", formatAvg(s.AverageSeekBytes()))
		ew.printf("  average_seek_distance:     %s\n", formatAvg(s.AverageSeekDistance()))
		if pct, ok := s.ReusePercent(); ok {
			ew.printf("  reuse:                     %d (%.1f%%)\n", s.ReuseBytes, pct)
		} else {
			ew.printf("  reuse:                     %d (n/a)\n", s.ReuseBytes)
		}
	}
	return ew.err
}

func formatAvg(v float64, ok bool) string {
	if !ok {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", v)
}

type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...interface{}) {
	if ew.err == nil {
		_, ew.err = fmt.Fprintf(ew.w, format, args...)
	}
}

// --------------------------------------------------------------------

type jsonReport struct {
	Header          jsonHeader      `json:"header"`
	Transformations []jsonTransform `json:"patchers"`
	Blocks          []jsonBlock     `json:"blocks"`
}

type jsonHeader struct {
	Magic                    uint32 `json:"magic"`
	Version                  uint32 `json:"version"`
	SourceCRC                uint32 `json:"source_crc"`
	TargetCRC                uint32 `json:"target_crc"`
	FinalInputSizePrediction uint32 `json:"final_input_size_prediction"`
}

type jsonTransform struct {
	Kind       string `json:"kind"`
	BaseOffset uint32 `json:"base_offset"`
	BaseLength uint32 `json:"base_length"`
}

type jsonBlock struct {
	Name  string `json:"name"`
	Error string `json:"error,omitempty"`

	SourceLength *uint32 `json:"slen,omitempty"`
	SourceCRC    *uint32 `json:"scrc32,omitempty"`
	DestLength   *uint32 `json:"dlen,omitempty"`

	Instructions    int    `json:"instructions"`
	CopyBytes       uint64 `json:"copy_bytes"`
	ExtraBytes      uint64 `json:"extra_bytes"`
	DiffCorrections int    `json:"diff_corrections"`
	OutputLength    uint64 `json:"output_length"`

	AverageCopy             *float64 `json:"average_copy,omitempty"`
	AverageInstructionBytes *float64 `json:"average_instruction_bytes,omitempty"`
	AverageSeekBytes        *float64 `json:"average_seek_bytes,omitempty"`
	AverageSeekDistance     *float64 `json:"average_seek_distance,omitempty"`

	Reuse        uint64   `json:"reuse"`
	ReusePercent *float64 `json:"reuse_percent,omitempty"`
}

func optFloat(v float64, ok bool) *float64 {
	if !ok {
		return nil
	}
	return &v
}

// WriteJSON writes the report to w as a single JSON document.
func (a *Analysis) WriteJSON(w io.Writer) error {
	rep := jsonReport{
		Header: jsonHeader{
			Magic:                    a.Header.Magic,
			Version:                  a.Header.Version,
			SourceCRC:                a.Header.SourceChecksum,
			TargetCRC:                a.Header.TargetChecksum,
			FinalInputSizePrediction: a.Header.FinalInputSizePrediction,
		},
		Transformations: make([]jsonTransform, 0, len(a.Transformations)),
		Blocks:          make([]jsonBlock, 0, len(a.Blocks)),
	}
	for i := range a.Transformations {
		t := &a.Transformations[i]
		offset, length, _ := t.Base()
		rep.Transformations = append(rep.Transformations, jsonTransform{
			Kind:       t.Kind.String(),
			BaseOffset: offset,
			BaseLength: length,
		})
	}
	for _, b := range a.Blocks {
		jb := jsonBlock{Name: b.Name}
		if b.Err != nil {
			jb.Error = b.Err.Error()
			rep.Blocks = append(rep.Blocks, jb)
			continue
		}

		s := b.Stats
		h := s.Header
		jb.SourceLength = &h.SourceLength
		jb.SourceCRC = &h.SourceCRC
		jb.DestLength = &h.DestLength
		jb.Instructions = s.Instructions
		jb.CopyBytes = s.CopyBytes
		jb.ExtraBytes = s.ExtraBytes
		jb.DiffCorrections = s.DiffCorrections
		jb.OutputLength = s.OutputLength
		jb.AverageCopy = optFloat(s.AverageCopy())
		jb.AverageInstructionBytes = optFloat(s.AverageInstructionBytes())
		jb.AverageSeekBytes = optFloat(s.AverageSeekBytes())
		jb.AverageSeekDistance = optFloat(s.AverageSeekDistance())
		jb.Reuse = s.ReuseBytes
		jb.ReusePercent = optFloat(s.ReusePercent())
		rep.Blocks = append(rep.Blocks, jb)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(&rep)
}
