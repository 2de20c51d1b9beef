// Copyright (c) 2026, The OTNS Authors.
// All rights reserved.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions are met:
// 1. Redistributions of source code must retain the above copyright
//    notice, this list of conditions and the following disclaimer.
// 2. Redistributions in binary form must reproduce the above copyright
//    notice, this list of conditions and the following disclaimer in the
//    documentation and/or other materials provided with the distribution.
// 3. Neither the name of the copyright holder nor the
//    names of its contributors may be used to endorse or promote products
//    derived from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS"
// AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE
// IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE
// ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR CONTRIBUTORS BE
// LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR
// CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF
// SUBSTITUTE GOODS OR SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN
// CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE)
// ARISING IN ANY WAY OUT OF THE USE OF THIS SOFTWARE, EVEN IF ADVISED OF THE
// POSSIBILITY OF SUCH DAMAGE.

// Package capture records sample streams to files that GNU Radio can read back with a
// file_source block.
package capture

import (
	"bufio"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/openthread/ot-rfbroker/logger"
)

type Format int

const (
	FormatOff Format = iota
	FormatCf32
	FormatCs16
	FormatUnknown
)

const (
	FormatOffStr  string = "off"
	FormatCf32Str string = "cf32"
	FormatCs16Str string = "cs16"
)

// cs16 samples are scaled so that amplitude 1.0 maps to full scale.
const cs16FullScale = math.MaxInt16

// File represents a capture file.
type File interface {
	AppendSamples(samples []complex64) error
	Sync() error
	Close() error
	// Samples returns the number of samples written so far.
	Samples() uint64
}

func ParseFormatStr(s string) Format {
	switch s {
	case FormatOffStr, "":
		return FormatOff
	case FormatCf32Str:
		return FormatCf32
	case FormatCs16Str:
		return FormatCs16
	default:
		return FormatUnknown
	}
}

func (f Format) String() string {
	switch f {
	case FormatOff:
		return FormatOffStr
	case FormatCf32:
		return FormatCf32Str
	case FormatCs16:
		return FormatCs16Str
	default:
		return "unknown"
	}
}

// SampleSize returns the size of one sample in bytes.
func (f Format) SampleSize() int {
	switch f {
	case FormatCf32:
		return 8
	case FormatCs16:
		return 4
	default:
		return 0
	}
}

type rawFile struct {
	fd      *os.File
	w       *bufio.Writer
	format  Format
	buf     []byte
	samples uint64
}

// NewFile creates (or truncates) a capture file.
func NewFile(filename string, format Format) (File, error) {
	if format != FormatCf32 && format != FormatCs16 {
		return nil, errors.Errorf("invalid capture format: %s", format)
	}

	fd, err := os.OpenFile(filename, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	return &rawFile{
		fd:     fd,
		w:      bufio.NewWriterSize(fd, 1<<16),
		format: format,
	}, nil
}

// FileName returns the capture file name of a stream.
func FileName(dir string, stream string, format Format) string {
	return filepath.Join(dir, stream+"."+format.String())
}

func (cf *rawFile) AppendSamples(samples []complex64) error {
	size := cf.format.SampleSize()
	if need := len(samples) * size; cap(cf.buf) < need {
		cf.buf = make([]byte, need)
	} else {
		cf.buf = cf.buf[:need]
	}

	off := 0
	for _, s := range samples {
		switch cf.format {
		case FormatCf32:
			binary.LittleEndian.PutUint32(cf.buf[off:], math.Float32bits(real(s)))
			binary.LittleEndian.PutUint32(cf.buf[off+4:], math.Float32bits(imag(s)))
		case FormatCs16:
			binary.LittleEndian.PutUint16(cf.buf[off:], uint16(toInt16(real(s))))
			binary.LittleEndian.PutUint16(cf.buf[off+2:], uint16(toInt16(imag(s))))
		}
		off += size
	}

	if _, err := cf.w.Write(cf.buf); err != nil {
		return err
	}
	cf.samples += uint64(len(samples))
	return nil
}

func toInt16(v float32) int16 {
	scaled := math.Round(float64(v) * cs16FullScale)
	if scaled > math.MaxInt16 {
		return math.MaxInt16
	}
	if scaled < math.MinInt16 {
		return math.MinInt16
	}
	return int16(scaled)
}

func (cf *rawFile) Samples() uint64 {
	return cf.samples
}

func (cf *rawFile) Sync() error {
	if err := cf.w.Flush(); err != nil {
		return err
	}
	return cf.fd.Sync()
}

func (cf *rawFile) Close() error {
	err := cf.w.Flush()
	if cerr := cf.fd.Close(); err == nil {
		err = cerr
	}
	logger.Debugf("capture %s closed after %d samples", cf.fd.Name(), cf.samples)
	return err
}
