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

package topology

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openthread/ot-rfbroker/config"
	. "github.com/openthread/ot-rfbroker/types"
)

func addSources(t *Topology, n int) []StageId {
	ids := make([]StageId, n)
	for i := range ids {
		ids[i] = t.AddStage(Stage{Kind: StageSource})
	}
	return ids
}

func TestCombineSingleStream(t *testing.T) {
	topo := New()
	src := addSources(topo, 1)
	assert.Equal(t, src[0], Combine(topo, src))
	assert.Equal(t, 1, topo.NumStages())
	assert.Equal(t, 0, topo.NumConnections())
}

func TestCombineEmptyPanics(t *testing.T) {
	assert.Panics(t, func() {
		Combine(New(), nil)
	})
}

func TestCombineChain(t *testing.T) {
	topo := New()
	srcs := addSources(topo, 4)
	out := Combine(topo, srcs)

	adders := topo.StagesOfKind(StageAdd)
	require.Len(t, adders, 3)
	assert.Equal(t, adders[2], out)

	assert.Equal(t, []StageId{srcs[0], srcs[1]}, topo.Inputs(adders[0]))
	assert.Equal(t, []StageId{adders[0], srcs[2]}, topo.Inputs(adders[1]))
	assert.Equal(t, []StageId{adders[1], srcs[3]}, topo.Inputs(adders[2]))
	assert.Empty(t, topo.Outputs(out))
}

func TestConnectTwicePanics(t *testing.T) {
	topo := New()
	srcs := addSources(topo, 2)
	scale := topo.AddStage(Stage{Kind: StageScale, Factor: 1})
	topo.Connect(srcs[0], scale, 0)
	assert.Panics(t, func() { topo.Connect(srcs[1], scale, 0) })
	assert.Panics(t, func() { topo.Connect(srcs[1], scale, 1) })

	sink := topo.AddStage(Stage{Kind: StageSink})
	assert.Panics(t, func() { topo.Connect(sink, scale, 0) })
}

func TestBuildDefault(t *testing.T) {
	topo, err := Build(config.Default(1, 2))
	require.NoError(t, err)

	// dl: src, throttle, 2x(scale, sink); ul: 2x(src, scale), add, sink
	assert.Equal(t, 12, topo.NumStages())
	assert.Len(t, topo.StagesOfKind(StageSource), 3)
	assert.Len(t, topo.StagesOfKind(StageSink), 3)
	assert.Len(t, topo.StagesOfKind(StageAdd), 1)
	assert.Len(t, topo.StagesOfKind(StageThrottle), 1)

	var endpoints []string
	for _, id := range topo.StagesOfKind(StageSource) {
		endpoints = append(endpoints, topo.Stage(id).Endpoint.String())
	}
	assert.Equal(t, []string{"tcp://127.0.0.1:2000", "tcp://127.0.0.1:2101", "tcp://127.0.0.1:2201"}, endpoints)

	endpoints = nil
	for _, id := range topo.StagesOfKind(StageSink) {
		endpoints = append(endpoints, topo.Stage(id).Endpoint.String())
	}
	assert.Equal(t, []string{"tcp://0.0.0.0:2100", "tcp://0.0.0.0:2200", "tcp://0.0.0.0:2001"}, endpoints)

	throttle := topo.StagesOfKind(StageThrottle)[0]
	assert.Equal(t, config.DefaultSampleRate, topo.Stage(throttle).SampleRate)
	assert.Len(t, topo.Outputs(throttle), 2)

	require.Len(t, topo.BaseStations, 1)
	bs := topo.BaseStations[0]
	assert.Equal(t, 2000, bs.TxPort)
	assert.Equal(t, 2001, bs.RxPort)
	require.Len(t, bs.Devices, 2)
	assert.Equal(t, 1.0, bs.Devices[0].Link.Factor)
	assert.InDelta(t, 0.316, bs.Devices[1].Link.Factor, 0.001)

	for _, id := range topo.StagesOfKind(StageScale) {
		s := topo.Stage(id)
		assert.Contains(t, []float64{bs.Devices[0].Link.Factor, bs.Devices[1].Link.Factor}, s.Factor)
	}
}

func TestBuildBaseStationWithoutDevices(t *testing.T) {
	cfg := config.Default(0, 0)
	cfg.BaseStations = []config.BaseStationConfig{{Id: 3}}

	topo, err := Build(cfg)
	require.NoError(t, err)
	assert.Equal(t, 2, topo.NumStages())
	assert.Empty(t, topo.StagesOfKind(StageSink))
	assert.Empty(t, topo.StagesOfKind(StageAdd))

	src := topo.Stage(topo.StagesOfKind(StageSource)[0])
	assert.Equal(t, NewTcpEndpoint(config.DefaultPeerAddr, 4000), src.Endpoint)
}

func TestBuildUplinkOrder(t *testing.T) {
	cfg := config.Default(2, 3)
	topo, err := Build(cfg)
	require.NoError(t, err)

	for _, bsId := range []BaseStationId{1, 2} {
		var sink *Stage
		for _, id := range topo.StagesOfKind(StageSink) {
			if s := topo.Stage(id); s.Name == bsName(bsId)+".ul.sink" {
				sink = s
			}
		}
		require.NotNil(t, sink)
		rx := 2001 + (bsId-1)*1000
		assert.Equal(t, rx, sink.Endpoint.Port)

		// walk the adder chain back to the first device
		var devs []string
		cur := topo.Inputs(sink.Id)[0]
		for topo.Stage(cur).Kind == StageAdd {
			in := topo.Inputs(cur)
			devs = append([]string{topo.Stage(in[1]).Name}, devs...)
			cur = in[0]
		}
		devs = append([]string{topo.Stage(cur).Name}, devs...)
		assert.Equal(t, []string{
			devName(bsId, 1) + ".ul.scale",
			devName(bsId, 2) + ".ul.scale",
			devName(bsId, 3) + ".ul.scale",
		}, devs)
	}
}

func TestBuildRejectsInvalidConfig(t *testing.T) {
	cfg := config.Default(2, 1)
	cfg.BaseStations[1].Id = 1

	topo, err := Build(cfg)
	assert.Nil(t, topo)
	assert.True(t, IsConfigurationError(err))
}

func TestStageString(t *testing.T) {
	s := Stage{Kind: StageSink, Name: "gnb1.ul.sink", Endpoint: NewTcpEndpoint("0.0.0.0", 2001)}
	assert.Equal(t, "gnb1.ul.sink[sink tcp://0.0.0.0:2001]", s.String())
	assert.Equal(t, "add", StageAdd.String())
}
