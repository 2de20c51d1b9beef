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

package cli

import (
	"github.com/alecthomas/participle"
)

// noinspection GoStructTag
type Command struct {
	Counters *CountersCmd `  @@` //nolint
	Exit     *ExitCmd     `| @@` //nolint
	Gnbs     *GnbsCmd     `| @@` //nolint
	Help     *HelpCmd     `| @@` //nolint
	LogLevel *LogLevelCmd `| @@` //nolint
	Status   *StatusCmd   `| @@` //nolint
}

// noinspection GoStructTag
type GnbSelector struct {
	Id int `@Int` //nolint
}

// noinspection GoStructTag
type CountersCmd struct {
	Cmd struct{}     `"counters"` //nolint
	Gnb *GnbSelector `[ @@ ]`     //nolint
}

// noinspection GoStructTag
type ExitCmd struct {
	Cmd struct{} `"exit"` //nolint
}

// noinspection GoStructTag
type GnbsCmd struct {
	Cmd struct{}     `"gnbs"` //nolint
	Gnb *GnbSelector `[ @@ ]` //nolint
}

// noinspection GoStructTag
type HelpCmd struct {
	Cmd       struct{} `"help"`       //nolint
	HelpTopic string   `[ (@Ident) ]` //nolint
}

// noinspection GoStructTag
type LogLevelCmd struct {
	Cmd   struct{} `"log"`                                                                                       //nolint
	Level string   `[@( "trace"|"debug"|"info"|"note"|"warn"|"error"|"off"|"T"|"D"|"I"|"N"|"W"|"E"|"C" )]` //nolint
}

// noinspection GoStructTag
type StatusCmd struct {
	Cmd struct{} `"status"` //nolint
}

var (
	commandParser = participle.MustBuild(&Command{})
)

func parseBytes(b []byte, cmd *Command) error {
	return commandParser.ParseBytes(b, cmd)
}
