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

package zmq

import (
	"encoding/binary"
	"math"
)

// SampleSize is the wire size of one sample: little-endian float32 I followed by float32 Q.
const SampleSize = 8

// EncodeSamples appends the wire encoding of samples to dst.
func EncodeSamples(dst []byte, samples []complex64) []byte {
	off := len(dst)
	dst = append(dst, make([]byte, len(samples)*SampleSize)...)
	for _, s := range samples {
		binary.LittleEndian.PutUint32(dst[off:], math.Float32bits(real(s)))
		binary.LittleEndian.PutUint32(dst[off+4:], math.Float32bits(imag(s)))
		off += SampleSize
	}
	return dst
}

// Decoder turns message payloads into samples. Messages need not be aligned to samples:
// trailing bytes of a message are kept and prefixed to the next one.
type Decoder struct {
	carry []byte
}

// Decode returns the complete samples available after appending payload.
func (d *Decoder) Decode(payload []byte) []complex64 {
	data := payload
	if len(d.carry) > 0 {
		data = append(d.carry, payload...)
		d.carry = nil
	}

	n := len(data) / SampleSize
	samples := make([]complex64, n)
	for i := range samples {
		off := i * SampleSize
		re := math.Float32frombits(binary.LittleEndian.Uint32(data[off:]))
		im := math.Float32frombits(binary.LittleEndian.Uint32(data[off+4:]))
		samples[i] = complex(re, im)
	}

	if rest := data[n*SampleSize:]; len(rest) > 0 {
		d.carry = append([]byte(nil), rest...)
	}
	return samples
}

// Pending returns the number of buffered bytes that do not form a full sample yet.
func (d *Decoder) Pending() int {
	return len(d.carry)
}
