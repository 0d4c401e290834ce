// analyze-patch - Courgette ensemble patch analyzer
//
// Usage:
//
//	analyze-patch [-format text|json] [-parallel] [-source file] [-v] <patch>
//
// Prints the patch header, the list of patchers and per correction block
// statistics. Patches wrapped in snappy, zstd, xz, lzma, bzip2 or gzip are
// decompressed first.
//
// The exit status identifies the first structural check that failed (see
// exitCodes); 0 means every block decoded cleanly.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/bsm/courgette"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	exitOK      = 0
	exitFailure = 1
)

// exitCodes maps decode errors to process exit codes.
var exitCodes = []struct {
	err  error
	code int
}{
	{courgette.ErrExhaustedInput, 2},
	{courgette.ErrVarintOverflow, 2},
	{courgette.ErrFormatVersionMismatch, 3},
	{courgette.ErrTooManyStreams, 3},
	{courgette.ErrBadMagic, 4},
	{courgette.ErrBadVersion, 5},
	{courgette.ErrTrailingStream, 6},
	{courgette.ErrUnsupportedTransformKind, 7},
	{courgette.ErrTrailingData, 8},
	{courgette.ErrBadMBSHeader, 9},
	{courgette.ErrCopyExceedsSource, 10},
	{courgette.ErrLeftoverData, 11},
	{courgette.ErrBadCompression, 12},
	{courgette.ErrChecksumMismatch, 13},
}

func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	for _, ec := range exitCodes {
		if errors.Is(err, ec.err) {
			return ec.code
		}
	}
	return exitFailure
}

var log = logrus.New()

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	log.SetOutput(stderr)

	fs := flag.NewFlagSet("analyze-patch", flag.ContinueOnError)
	fs.SetOutput(stderr)
	format := fs.String("format", "text", "output format: text or json")
	parallel := fs.Bool("parallel", false, "analyze correction blocks concurrently")
	source := fs.String("source", "", "verify the patch source checksum against this file")
	verbose := fs.Bool("v", false, "debug logging")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: analyze-patch [flags] <patch>")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitFailure
	}
	if fs.NArg() == 0 {
		fs.SetOutput(stdout)
		fmt.Fprintln(stdout, "usage: analyze-patch [flags] <patch>")
		fs.PrintDefaults()
		return exitOK
	}
	if *format != "text" && *format != "json" {
		log.WithField("format", *format).Error("unknown output format")
		return exitFailure
	}
	log.SetLevel(logrus.InfoLevel)
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	name := fs.Arg(0)
	data, comp, err := courgette.ReadFile(name)
	if err != nil {
		log.WithError(err).WithField("file", name).Error("cannot read patch")
		if comp != courgette.NoCompression {
			return exitCode(courgette.ErrBadCompression)
		}
		return exitFailure
	}
	log.WithFields(logrus.Fields{
		"file":        name,
		"compression": comp,
		"size":        len(data),
	}).Debug("read patch")

	a, err := courgette.Analyze(data, &courgette.Options{Parallel: *parallel})
	if err != nil {
		log.WithError(err).WithField("file", name).Error("cannot decode patch")
		return exitCode(err)
	}

	if *source != "" {
		src, err := os.ReadFile(*source)
		if err != nil {
			log.WithError(err).WithField("file", *source).Error("cannot read source")
			return exitFailure
		}
		if err := a.Header.VerifySource(src); err != nil {
			log.WithError(err).WithField("file", *source).Error("source does not match patch")
			return exitCode(err)
		}
		log.WithField("file", *source).Debug("source checksum verified")
	}

	if *format == "json" {
		err = a.WriteJSON(stdout)
	} else {
		err = a.WriteText(stdout)
	}
	if err != nil {
		log.WithError(err).Error("cannot write report")
		return exitFailure
	}

	for _, b := range a.Blocks {
		if b.Err != nil {
			log.WithError(b.Err).WithField("block", b.Name).Error("block failed")
		}
	}
	return exitCode(a.Err())
}
