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
	"github.com/openthread/ot-rfbroker/config"
	"github.com/openthread/ot-rfbroker/logger"
	"github.com/openthread/ot-rfbroker/portmap"
	"github.com/openthread/ot-rfbroker/radiomodel"
	. "github.com/openthread/ot-rfbroker/types"
)

// DeviceSummary describes the links of one device.
type DeviceSummary struct {
	Id     DeviceId
	RxPort int
	TxPort int
	Link   radiomodel.LinkBudget
}

// BaseStationSummary describes one base station and its devices as wired into the topology.
type BaseStationSummary struct {
	Id      BaseStationId
	TxPort  int
	RxPort  int
	Devices []DeviceSummary
}

// Build validates cfg and builds the full topology: for each base station a downlink fan-out from
// the base station to all its devices and an uplink sum from all devices back to the base
// station. Socket failures are not detected here, they surface when the topology is started.
func Build(cfg *config.Config) (*Topology, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	for _, hazard := range config.PortHazards(cfg) {
		logger.Warnf("%s", hazard)
	}

	t := New()
	b := &builder{t: t, cfg: cfg}
	for _, bs := range cfg.BaseStations {
		t.BaseStations = append(t.BaseStations, b.addBaseStation(bs))
	}
	logger.Debugf("topology built: %d stages, %d connections", t.NumStages(), t.NumConnections())
	return t, nil
}

type builder struct {
	t   *Topology
	cfg *config.Config
}

func (b *builder) source(name string, port int) StageId {
	return b.t.AddStage(Stage{
		Kind:          StageSource,
		Name:          name,
		Endpoint:      NewTcpEndpoint(b.cfg.PeerAddr, port),
		Timeout:       SocketTimeout(b.cfg.SocketTimeoutMs),
		HighWaterMark: b.cfg.HighWaterMark,
	})
}

func (b *builder) sink(name string, port int) StageId {
	return b.t.AddStage(Stage{
		Kind:          StageSink,
		Name:          name,
		Endpoint:      NewTcpEndpoint(b.cfg.BindAddr, port),
		Timeout:       SocketTimeout(b.cfg.SocketTimeoutMs),
		HighWaterMark: b.cfg.HighWaterMark,
	})
}

func (b *builder) scale(name string, factor float64) StageId {
	return b.t.AddStage(Stage{Kind: StageScale, Name: name, Factor: factor})
}

func (b *builder) addBaseStation(bs config.BaseStationConfig) BaseStationSummary {
	t := b.t
	txPort, rxPort := portmap.BaseStationPorts(bs.Id)
	summary := BaseStationSummary{Id: bs.Id, TxPort: txPort, RxPort: rxPort}
	prefix := bsName(bs.Id)

	logger.Infof("gNB%d: TX=%d RX=%d | UEs=%d", bs.Id, txPort, rxPort, len(bs.Devices))

	// downlink
	dlSource := b.source(prefix+".dl.src", txPort)
	throttle := t.AddStage(Stage{Kind: StageThrottle, Name: prefix + ".dl.throttle", SampleRate: b.cfg.SampleRate})
	t.Chain(dlSource, throttle)

	for _, dev := range bs.Devices {
		devRx, devTx := portmap.DevicePorts(bs.Id, dev.Id)
		link := radiomodel.NewLinkBudget(dev.PathLossDb)
		summary.Devices = append(summary.Devices, DeviceSummary{Id: dev.Id, RxPort: devRx, TxPort: devTx, Link: link})

		devPrefix := devName(bs.Id, dev.Id)
		scale := b.scale(devPrefix+".dl.scale", link.Factor)
		sink := b.sink(devPrefix+".dl.sink", devRx)
		t.Chain(throttle, scale, sink)

		logger.Infof("  [DL] gNB%d:%d -> UE%d:%d (PL=%v dB, x%v)", bs.Id, txPort, dev.Id, devRx, dev.PathLossDb, link.DisplayFactor())
	}

	// uplink
	ulStreams := make([]StageId, 0, len(bs.Devices))
	for _, dev := range summary.Devices {
		devPrefix := devName(bs.Id, dev.Id)
		src := b.source(devPrefix+".ul.src", dev.TxPort)
		scale := b.scale(devPrefix+".ul.scale", dev.Link.Factor)
		t.Chain(src, scale)
		ulStreams = append(ulStreams, scale)

		logger.Infof("  [UL] UE%d:%d -> gNB%d:%d (PL=%v dB, x%v)", dev.Id, dev.TxPort, bs.Id, rxPort, dev.Link.LossDb, dev.Link.DisplayFactor())
	}

	if len(ulStreams) > 0 {
		sum := combineNamed(t, prefix+".ul.add", ulStreams)
		sink := b.sink(prefix+".ul.sink", rxPort)
		t.Connect(sum, sink, 0)
		logger.Infof("  [UL] SUM -> gNB%d RX:%d", bs.Id, rxPort)
	}

	return summary
}
