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

// Package topology describes the stream graph of the broker as plain data: stages and the
// connections between them. A topology is built once from a configuration and handed to the
// dispatcher, which owns the running stages.
package topology

import (
	"fmt"
	"time"

	"github.com/openthread/ot-rfbroker/logger"
	. "github.com/openthread/ot-rfbroker/types"
)

type StageId int

const InvalidStageId StageId = -1

type Kind int

const (
	StageSource   Kind = iota // pulls sample blocks from a connected socket
	StageSink                 // pushes sample blocks to a bound socket
	StageThrottle             // paces its input to the sample rate
	StageScale                // multiplies every sample by a constant factor
	StageAdd                  // sums two inputs sample by sample
)

func (k Kind) String() string {
	switch k {
	case StageSource:
		return "source"
	case StageSink:
		return "sink"
	case StageThrottle:
		return "throttle"
	case StageScale:
		return "scale"
	case StageAdd:
		return "add"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// NumInputs returns how many input ports a stage of this kind has.
func (k Kind) NumInputs() int {
	switch k {
	case StageSource:
		return 0
	case StageAdd:
		return 2
	default:
		return 1
	}
}

// HasOutput returns false for stages that terminate a stream.
func (k Kind) HasOutput() bool {
	return k != StageSink
}

// Stage is one processing step. Only the fields relevant to its Kind are set.
type Stage struct {
	Id            StageId
	Kind          Kind
	Name          string
	Endpoint      Endpoint      // source, sink
	Factor        float64       // scale
	SampleRate    float64       // throttle
	Timeout       time.Duration // source, sink
	HighWaterMark int           // source, sink; -1 or 0 means the default queue depth
}

func (s *Stage) String() string {
	switch s.Kind {
	case StageSource, StageSink:
		return fmt.Sprintf("%s[%s %s]", s.Name, s.Kind, s.Endpoint)
	case StageScale:
		return fmt.Sprintf("%s[%s x%g]", s.Name, s.Kind, s.Factor)
	case StageThrottle:
		return fmt.Sprintf("%s[%s %g S/s]", s.Name, s.Kind, s.SampleRate)
	default:
		return fmt.Sprintf("%s[%s]", s.Name, s.Kind)
	}
}

// Connection feeds the single output of From into input Port of To.
type Connection struct {
	From StageId
	To   StageId
	Port int
}

// Topology is the graph of stages and connections. Stage ids are indexes into the stage list.
type Topology struct {
	stages       []Stage
	connections  []Connection
	BaseStations []BaseStationSummary
}

func New() *Topology {
	return &Topology{}
}

// AddStage appends a stage and returns its assigned id. The Id field of s is ignored.
func (t *Topology) AddStage(s Stage) StageId {
	s.Id = StageId(len(t.stages))
	if s.Name == "" {
		s.Name = fmt.Sprintf("%s%d", s.Kind, s.Id)
	}
	t.stages = append(t.stages, s)
	return s.Id
}

// Connect connects the output of from to input port of to. Connecting an input twice, a
// missing port or a stage without output is a programming error.
func (t *Topology) Connect(from StageId, to StageId, port int) {
	src := t.Stage(from)
	dst := t.Stage(to)
	logger.AssertTrue(src.Kind.HasOutput(), "stage %s has no output", src.Name)
	logger.AssertTrue(port >= 0 && port < dst.Kind.NumInputs(), "stage %s has no input port %d", dst.Name, port)
	for _, c := range t.connections {
		logger.AssertFalse(c.To == to && c.Port == port, "stage %s input %d already connected", dst.Name, port)
	}
	t.connections = append(t.connections, Connection{From: from, To: to, Port: port})
}

// Chain connects each stage to input port 0 of the next one.
func (t *Topology) Chain(ids ...StageId) {
	for i := 1; i < len(ids); i++ {
		t.Connect(ids[i-1], ids[i], 0)
	}
}

func (t *Topology) Stage(id StageId) *Stage {
	logger.AssertTrue(id >= 0 && int(id) < len(t.stages), "invalid stage id %d", id)
	return &t.stages[id]
}

// Stages returns a copy of all stages in id order.
func (t *Topology) Stages() []Stage {
	return append([]Stage(nil), t.stages...)
}

// Connections returns a copy of all connections in creation order.
func (t *Topology) Connections() []Connection {
	return append([]Connection(nil), t.connections...)
}

func (t *Topology) NumStages() int {
	return len(t.stages)
}

func (t *Topology) NumConnections() int {
	return len(t.connections)
}

// StagesOfKind returns the ids of all stages of kind k, in id order.
func (t *Topology) StagesOfKind(k Kind) []StageId {
	var ids []StageId
	for _, s := range t.stages {
		if s.Kind == k {
			ids = append(ids, s.Id)
		}
	}
	return ids
}

// Inputs returns the stage connected to each input port of id, InvalidStageId for open ports.
func (t *Topology) Inputs(id StageId) []StageId {
	inputs := make([]StageId, t.Stage(id).Kind.NumInputs())
	for i := range inputs {
		inputs[i] = InvalidStageId
	}
	for _, c := range t.connections {
		if c.To == id {
			inputs[c.Port] = c.From
		}
	}
	return inputs
}

// Outputs returns the stages fed by id, in connection order.
func (t *Topology) Outputs(id StageId) []StageId {
	var outputs []StageId
	for _, c := range t.connections {
		if c.From == id {
			outputs = append(outputs, c.To)
		}
	}
	return outputs
}

// Combine sums streams into a single stream and returns the stage producing it. A single stream
// is returned unchanged. Otherwise a left-associative chain of add stages is created: input port 0
// of every adder carries the running sum and port 1 the next stream.
func Combine(t *Topology, streams []StageId) StageId {
	return combineNamed(t, "", streams)
}

func combineNamed(t *Topology, prefix string, streams []StageId) StageId {
	logger.AssertTrue(len(streams) > 0, "nothing to combine")
	acc := streams[0]
	for i := 1; i < len(streams); i++ {
		name := ""
		if prefix != "" {
			name = fmt.Sprintf("%s%d", prefix, i)
		}
		add := t.AddStage(Stage{Kind: StageAdd, Name: name})
		t.Connect(acc, add, 0)
		t.Connect(streams[i], add, 1)
		acc = add
	}
	return acc
}
