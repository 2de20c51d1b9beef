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

// Package radiomodel implements the static channel model applied to every link of the broker:
// a path loss in dB turned into a linear amplitude scale factor.
package radiomodel

import "math"

// DbValue is a signed decibel value. For path loss, positive is attenuation, negative is gain.
type DbValue = float64

// LinearAmplitude converts a path loss (dB, amplitude convention) to the linear factor applied to
// each sample: 10^(-lossDb/20). 0 dB is a passthrough, positive loss yields a factor below 1 and
// negative loss a gain above 1. No bounds are applied.
func LinearAmplitude(lossDb DbValue) float64 {
	return math.Pow(10, -lossDb/20.0)
}

// AmplitudeToLossDb is the inverse of LinearAmplitude. It returns +Inf for a zero factor.
func AmplitudeToLossDb(factor float64) DbValue {
	return -20.0 * math.Log10(factor)
}

// paround rounds a parameter for display (2 digits).
func paround(param float64) float64 {
	return math.Round(param*100.0) / 100.0
}

// LinkBudget describes the scaling applied on one device link, identical for downlink and uplink.
type LinkBudget struct {
	LossDb DbValue
	Factor float64
}

func NewLinkBudget(lossDb DbValue) LinkBudget {
	return LinkBudget{
		LossDb: lossDb,
		Factor: LinearAmplitude(lossDb),
	}
}

// IsPassthrough returns true when the link does not change sample amplitudes.
func (lb LinkBudget) IsPassthrough() bool {
	return lb.Factor == 1.0
}

// DisplayFactor returns the factor rounded to 2 digits, for logs and console output.
func (lb LinkBudget) DisplayFactor() float64 {
	return paround(lb.Factor)
}
