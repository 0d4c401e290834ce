package courgette

import (
	"fmt"

	"github.com/pkg/errors"
)

// Header is the ensemble patch envelope.
type Header struct {
	Magic   uint32
	Version uint32

	SourceChecksum uint32 // CRC of the original file
	TargetChecksum uint32 // CRC of the patched file

	// FinalInputSizePrediction is the predicted size of the input to the
	// final correction stage.
	FinalInputSizePrediction uint32
}

// ReadHeader reads and validates the envelope. Nothing after the magic is
// read if the magic does not match.
func ReadHeader(c *Cursor) (*Header, error) {
	var h Header
	var err error

	if h.Magic, err = c.ReadVarUint32(); err != nil {
		return nil, errors.Wrap(err, "magic")
	}
	if h.Magic != Magic {
		return nil, errors.Wrapf(ErrBadMagic, "0x%08x", h.Magic)
	}

	if h.Version, err = c.ReadVarUint32(); err != nil {
		return nil, errors.Wrap(err, "version")
	}
	if h.Version != Version {
		return nil, errors.Wrapf(ErrBadVersion, "%d != %d", h.Version, Version)
	}

	for _, f := range []struct {
		name string
		dst  *uint32
	}{
		{"source checksum", &h.SourceChecksum},
		{"target checksum", &h.TargetChecksum},
		{"final input size prediction", &h.FinalInputSizePrediction},
	} {
		if *f.dst, err = c.ReadVarUint32(); err != nil {
			return nil, errors.Wrap(err, f.name)
		}
	}
	return &h, nil
}

// --------------------------------------------------------------------

// TransformKind identifies the executable format a transformation
// disassembles.
type TransformKind uint32

// Supported transformation kinds.
const (
	WinX86 TransformKind = iota + 1
	ElfX86
	ElfArm
	WinX64
)

func (k TransformKind) isValid() bool {
	return k >= WinX86 && k <= WinX64
}

// String returns the kind's name as printed in reports.
func (k TransformKind) String() string {
	switch k {
	case WinX86:
		return "Win32X86"
	case ElfX86:
		return "Elf32X86"
	case ElfArm:
		return "Elf32ARM"
	case WinX64:
		return "Win32X64"
	}
	return fmt.Sprintf("TransformKind(%d)", uint32(k))
}

// Transformation describes one region of the source that the patch
// disassembles before diffing.
type Transformation struct {
	Kind TransformKind

	base *baseRange // nil until read
}

type baseRange struct {
	offset, length uint32
}

// Base returns the transformed region. ok is false if the region has not
// been read yet.
func (t *Transformation) Base() (offset, length uint32, ok bool) {
	if t.base == nil {
		return 0, 0, false
	}
	return t.base.offset, t.base.length, true
}

func (t *Transformation) readBase(c *Cursor) error {
	offset, err := c.ReadVarUint32()
	if err != nil {
		return errors.Wrap(err, "base offset")
	}
	length, err := c.ReadVarUint32()
	if err != nil {
		return errors.Wrap(err, "base length")
	}
	t.base = &baseRange{offset: offset, length: length}
	return nil
}

// --------------------------------------------------------------------

// Correction block names, in bundle order.
const (
	ParameterCorrection           = "parameter_correction"
	TransformedElementsCorrection = "transformed_elements_correction"
	EnsembleCorrection            = "ensemble_correction"
)

// Patch holds the decoded envelope and the four top-level streams of an
// ensemble patch.
type Patch struct {
	Header          *Header
	Transformations []Transformation

	transformationDescriptions    *Cursor
	parameterCorrection           *Cursor
	transformedElementsCorrection *Cursor
	ensembleCorrection            *Cursor
}

// NewPatch reads the header from c and splits the remaining body into the
// patch streams. Transformations are not read; call ReadInitialParameters.
func NewPatch(c *Cursor) (*Patch, error) {
	h, err := ReadHeader(c)
	if err != nil {
		return nil, err
	}
	p := &Patch{Header: h}
	if err := p.InitPatchStreams(c); err != nil {
		return nil, err
	}
	return p, nil
}

// InitPatchStreams splits c into transformation descriptions and the three
// correction streams. Any further stream must be empty.
func (p *Patch) InitPatchStreams(c *Cursor) error {
	streams, err := SplitStreams(c)
	if err != nil {
		return errors.Wrap(err, "patch streams")
	}
	if len(streams) < 4 {
		return errors.Wrapf(ErrExhaustedInput, "patch streams: got %d streams, want 4", len(streams))
	}
	if err := certifyEmpty(streams[4:], 4); err != nil {
		return errors.Wrap(err, "patch streams")
	}

	p.transformationDescriptions = streams[0]
	p.parameterCorrection = streams[1]
	p.transformedElementsCorrection = streams[2]
	p.ensembleCorrection = streams[3]
	return nil
}

// ReadInitialParameters reads the transformation list. The descriptions
// stream must be consumed exactly.
func (p *Patch) ReadInitialParameters() error {
	c := p.transformationDescriptions
	if c == nil {
		return errors.New("courgette: patch streams not initialised")
	}

	count, err := c.ReadVarUint32()
	if err != nil {
		return errors.Wrap(err, "transformation count")
	}
	// a kind takes at least one byte
	capacity := count
	if n := uint32(c.Remaining()); n < capacity {
		capacity = n
	}

	ts := make([]Transformation, 0, capacity)
	for i := uint32(0); i < count; i++ {
		kind, err := c.ReadVarUint32()
		if err != nil {
			return errors.Wrapf(err, "kind of transformation %d", i)
		}
		if k := TransformKind(kind); !k.isValid() {
			return errors.Wrapf(ErrUnsupportedTransformKind, "transformation %d has kind %d", i, kind)
		}
		ts = append(ts, Transformation{Kind: TransformKind(kind)})
	}

	for i := range ts {
		if err := ts[i].readBase(c); err != nil {
			return errors.Wrapf(err, "transformation %d", i)
		}
	}

	if !c.IsEmpty() {
		return errors.Wrapf(ErrTrailingData, "%d bytes after transformation descriptions", c.Remaining())
	}
	p.Transformations = ts
	return nil
}

// CorrectionBlock returns the stream of the named correction block, or nil
// if the name is unknown.
func (p *Patch) CorrectionBlock(name string) *Cursor {
	switch name {
	case ParameterCorrection:
		return p.parameterCorrection
	case TransformedElementsCorrection:
		return p.transformedElementsCorrection
	case EnsembleCorrection:
		return p.ensembleCorrection
	}
	return nil
}
