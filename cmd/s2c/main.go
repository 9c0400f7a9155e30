/*
Copyright 2011-2026 Frederic Langlet
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
you may obtain a copy of the License at

                http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Command s2c compresses and decompresses files in the S2/Snappy stream
// format, dispatching to a block compressor or decompressor subcommand
// built on cobra/pflag.
package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	s2 "github.com/KarpelesLab/gos2"
	"github.com/KarpelesLab/gos2/internal/sizeflag"
	s2io "github.com/KarpelesLab/gos2/io"
)

var log = logrus.New()

func main() {
	runtime.GOMAXPROCS(runtime.NumCPU())

	root := &cobra.Command{
		Use:           "s2c",
		Short:         "compress and decompress files in the S2/Snappy stream format",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newCompressCmd())
	root.AddCommand(newDecompressCmd())

	if err := root.Execute(); err != nil {
		log.WithError(err).Error("s2c failed")
		os.Exit(1)
	}
}

type compressOpts struct {
	faster    bool
	slower    bool
	blockSize *sizeflag.Value
	snappy    bool
	index     bool
	pad       *sizeflag.Value
	cpu       int
	verify    bool
	rm        bool
	stdout    bool
	output    string
	quiet     bool
}

func newCompressCmd() *cobra.Command {
	opts := &compressOpts{
		blockSize: sizeflag.New(1 << 20),
		pad:       sizeflag.New(0),
	}

	cmd := &cobra.Command{
		Use:   "compress FILE...",
		Short: "compress one or more files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, path := range args {
				if err := compressFile(path, opts); err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
			}

			return nil
		},
	}

	flags := cmd.Flags()
	flags.BoolVar(&opts.faster, "faster", false, "use the Fast encoder tier")
	flags.BoolVar(&opts.slower, "slower", false, "use the Best encoder tier")
	flags.Var(opts.blockSize, "blocksize", "block size, accepts K/M/G suffixes")
	flags.BoolVar(&opts.snappy, "snappy", false, "write a Snappy-compatible stream")
	flags.BoolVar(&opts.index, "index", false, "append a seek index trailer")
	flags.Var(opts.pad, "pad", "pad the stream to a multiple of this size")
	flags.IntVar(&opts.cpu, "cpu", runtime.NumCPU(), "number of concurrent compression workers")
	flags.BoolVar(&opts.verify, "verify", false, "decompress and compare after writing")
	flags.BoolVar(&opts.rm, "rm", false, "remove the source file on success")
	flags.BoolVarP(&opts.stdout, "stdout", "c", false, "write to stdout instead of a file")
	flags.StringVarP(&opts.output, "output", "o", "", "output path")
	flags.BoolVarP(&opts.quiet, "quiet", "q", false, "suppress per-file log lines")

	return cmd
}

type decompressOpts struct {
	cpu    int
	verify bool
	stdout bool
	output string
	rm     bool
	quiet  bool
}

func newDecompressCmd() *cobra.Command {
	opts := &decompressOpts{}

	cmd := &cobra.Command{
		Use:   "decompress FILE...",
		Short: "decompress one or more files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, path := range args {
				if err := decompressFile(path, opts); err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
			}

			return nil
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&opts.cpu, "cpu", runtime.NumCPU(), "number of concurrent workers (reserved)")
	flags.BoolVar(&opts.verify, "verify", false, "re-read the output and compare byte counts")
	flags.BoolVarP(&opts.stdout, "stdout", "c", false, "write to stdout instead of a file")
	flags.StringVarP(&opts.output, "output", "o", "", "output path")
	flags.BoolVar(&opts.rm, "rm", false, "remove the source file on success")
	flags.BoolVarP(&opts.quiet, "quiet", "q", false, "suppress per-file log lines")

	return cmd
}

func outputExtension(snappy bool) string {
	if snappy {
		return ".sz"
	}

	return ".s2"
}

// logListener adapts the writer's per-block/per-stream events onto the
// CLI's logrus.Entry.
type logListener struct {
	entry *logrus.Entry
	quiet bool
}

func (l *logListener) ProcessEvent(evt *s2.Event) {
	if l.quiet {
		return
	}

	l.entry.WithFields(logrus.Fields{
		"block":     evt.BlockID(),
		"bytes_in":  evt.UncompressedSize(),
		"bytes_out": evt.CompressedSize(),
	}).Debug("block flushed")
}

func compressFile(path string, opts *compressOpts) error {
	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()

	dstPath := opts.output
	if dstPath == "" {
		dstPath = path + outputExtension(opts.snappy)
	}

	var dst *os.File

	if opts.stdout {
		dst = os.Stdout
	} else {
		dst, err = os.Create(dstPath)
		if err != nil {
			return err
		}
		defer dst.Close()
	}

	level := s2io.LevelBetter

	if opts.faster {
		level = s2io.LevelFast
	} else if opts.slower {
		level = s2io.LevelBest
	}

	entry := log.WithField("file", path).WithField("level", level)

	writerOpts := []s2io.WriterOption{
		s2io.WithBlockSize(opts.blockSize.Int()),
		s2io.WithLevel(level),
		s2io.WithConcurrency(opts.cpu),
		s2io.WithListener(&logListener{entry: entry, quiet: opts.quiet}),
	}

	if opts.snappy {
		writerOpts = append(writerOpts, s2io.WithSnappy())
	}

	if opts.index {
		writerOpts = append(writerOpts, s2io.WithIndex(true))
	}

	if opts.pad.IsSet() {
		writerOpts = append(writerOpts, s2io.WithPadding(opts.pad.Int()))
	}

	w := s2io.NewWriter(dst, writerOpts...)

	bytesIn, err := io.Copy(w, src)
	if err != nil {
		return err
	}

	if err := w.Close(); err != nil {
		return err
	}

	if !opts.quiet {
		entry.WithField("bytes_in", bytesIn).WithField("bytes_out", w.Written()).Info("compressed")
	}

	if opts.verify && !opts.stdout {
		if err := verifyRoundtrip(path, dstPath); err != nil {
			return err
		}
	}

	if opts.rm && !opts.stdout {
		if err := os.Remove(path); err != nil {
			return err
		}
	}

	return nil
}

func decompressFile(path string, opts *decompressOpts) error {
	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()

	dstPath := opts.output
	if dstPath == "" {
		dstPath = stripExtension(path)
	}

	var dst *os.File

	if opts.stdout {
		dst = os.Stdout
	} else {
		dst, err = os.Create(dstPath)
		if err != nil {
			return err
		}
		defer dst.Close()
	}

	r := s2io.NewReader(src)

	n, err := io.Copy(dst, r)
	if err != nil {
		return err
	}

	if !opts.quiet {
		log.WithField("file", path).WithField("bytes_out", n).Info("decompressed")
	}

	if opts.verify && !opts.stdout {
		fi, err := os.Stat(dstPath)
		if err != nil {
			return err
		}

		if fi.Size() != n {
			return fmt.Errorf("verify: output size %d does not match decompressed size %d", fi.Size(), n)
		}
	}

	if opts.rm && !opts.stdout {
		if err := os.Remove(path); err != nil {
			return err
		}
	}

	return nil
}

func stripExtension(path string) string {
	for _, ext := range []string{".s2", ".sz"} {
		if len(path) > len(ext) && path[len(path)-len(ext):] == ext {
			return path[:len(path)-len(ext)]
		}
	}

	return path + ".out"
}

// verifyRoundtrip re-decompresses dstPath and compares it byte-for-byte
// against srcPath.
func verifyRoundtrip(srcPath, dstPath string) error {
	orig, err := os.Open(srcPath)
	if err != nil {
		return err
	}
	defer orig.Close()

	compressed, err := os.Open(dstPath)
	if err != nil {
		return err
	}
	defer compressed.Close()

	var decoded bytes.Buffer

	if _, err := io.Copy(&decoded, s2io.NewReader(compressed)); err != nil {
		return fmt.Errorf("verify: decompress failed: %w", err)
	}

	var want bytes.Buffer

	if _, err := io.Copy(&want, orig); err != nil {
		return err
	}

	if !bytes.Equal(want.Bytes(), decoded.Bytes()) {
		return fmt.Errorf("verify: decompressed output does not match source")
	}

	return nil
}
