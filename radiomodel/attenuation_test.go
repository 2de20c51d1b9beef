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

package radiomodel

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLinearAmplitudeUnity(t *testing.T) {
	assert.Equal(t, 1.0, LinearAmplitude(0))
	assert.True(t, NewLinkBudget(0).IsPassthrough())
}

func TestLinearAmplitudeKnownValues(t *testing.T) {
	assert.InDelta(t, 0.1, LinearAmplitude(20), 1e-12)
	assert.InDelta(t, 10.0, LinearAmplitude(-20), 1e-12)
	assert.InDelta(t, math.Pow(10, -0.5), LinearAmplitude(10), 1e-12)
	assert.InDelta(t, 0.316, LinearAmplitude(10), 1e-3)
	assert.InDelta(t, 0.5, LinearAmplitude(6.0206), 1e-4)
}

func TestLinearAmplitudeReciprocal(t *testing.T) {
	for _, db := range []DbValue{-40, -13.5, -3, -0.1, 0.1, 1, 7.25, 30, 90} {
		assert.InDelta(t, 1.0/LinearAmplitude(-db), LinearAmplitude(db), 1e-9*LinearAmplitude(db))
		assert.InDelta(t, db, AmplitudeToLossDb(LinearAmplitude(db)), 1e-9)
	}
}

func TestLinearAmplitudeStrictlyDecreasing(t *testing.T) {
	prev := LinearAmplitude(-60)
	for db := -59.5; db <= 60; db += 0.5 {
		f := LinearAmplitude(db)
		assert.Less(t, f, prev, "db=%v", db)
		prev = f
	}
	assert.True(t, LinearAmplitude(10) < 1)
	assert.True(t, LinearAmplitude(-10) > 1)
}

func TestLinkBudgetDisplay(t *testing.T) {
	lb := NewLinkBudget(10)
	assert.Equal(t, 0.32, lb.DisplayFactor())
	assert.False(t, lb.IsPassthrough())
}
