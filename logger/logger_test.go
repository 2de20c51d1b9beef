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

package logger

import (
	"testing"

	"github.com/pkg/errors"

	"github.com/stretchr/testify/assert"
)

func TestParseLevelString(t *testing.T) {
	lv, err := ParseLevelString("debug")
	assert.Nil(t, err)
	assert.Equal(t, DebugLevel, lv)

	lv, err = ParseLevelString("WARN")
	assert.Nil(t, err)
	assert.Equal(t, WarnLevel, lv)

	lv, err = ParseLevelString("none")
	assert.Nil(t, err)
	assert.Equal(t, OffLevel, lv)

	lv, err = ParseLevelString("bogus")
	assert.NotNil(t, err)
	assert.Equal(t, DefaultLevel, lv)
}

func TestLevelStringRoundTrip(t *testing.T) {
	for _, lv := range []Level{TraceLevel, DebugLevel, InfoLevel, NoteLevel, WarnLevel, ErrorLevel, OffLevel} {
		parsed, err := ParseLevelString(GetLevelString(lv))
		assert.Nil(t, err)
		assert.Equal(t, lv, parsed)
	}
}

func TestSetLevel(t *testing.T) {
	old := GetLevel()
	defer SetLevel(old)

	SetLevel(WarnLevel)
	assert.True(t, IsEnabled(ErrorLevel))
	assert.True(t, IsEnabled(WarnLevel))
	assert.False(t, IsEnabled(InfoLevel))

	SetLevel(OffLevel)
	assert.False(t, IsEnabled(ErrorLevel))
	Infof("not logged: %d", 1)
}

func TestAssertTruePanics(t *testing.T) {
	assert.Panics(t, func() {
		AssertTrue(false, "must panic")
	})
	assert.NotPanics(t, func() {
		AssertTrue(true)
		AssertFalse(false)
		AssertNotNil(t)
	})
}

func TestPanicIfError(t *testing.T) {
	assert.NotPanics(t, func() { PanicIfError(nil) })
	assert.Panics(t, func() { PanicIfError(errors.New("boom")) })
}

func TestGetMessage(t *testing.T) {
	assert.Equal(t, "plain", getMessage("plain", nil))
	assert.Equal(t, "a=1", getMessage("a=%d", []interface{}{1}))
	assert.Equal(t, "only", getMessage("", []interface{}{"only"}))
}
