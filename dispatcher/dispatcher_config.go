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

package dispatcher

import (
	"github.com/openthread/ot-rfbroker/capture"
	"github.com/openthread/ot-rfbroker/transport"
)

const (
	// DefaultQueueDepth is the number of blocks buffered per connection when no high water mark is set.
	DefaultQueueDepth = 64

	// DefaultMaxPendingSamples bounds how far one input of an add stage may run ahead of the other
	// before the add stage stops reading it.
	DefaultMaxPendingSamples = 1 << 20
)

type Config struct {
	Transport         transport.Transport
	HighWaterMark     int
	MaxPendingSamples int
	CaptureFormat     capture.Format
	CaptureDir        string
}

func DefaultConfig(tr transport.Transport) *Config {
	return &Config{
		Transport:         tr,
		HighWaterMark:     -1,
		MaxPendingSamples: DefaultMaxPendingSamples,
		CaptureFormat:     capture.FormatOff,
	}
}

func (cfg *Config) queueDepth() int {
	if cfg.HighWaterMark > 0 {
		return cfg.HighWaterMark
	}
	return DefaultQueueDepth
}
