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

package config

import (
	"fmt"
	"math"
	"sort"

	"github.com/openthread/ot-rfbroker/portmap"
	. "github.com/openthread/ot-rfbroker/types"
)

const maxPort = 65535

// Validate checks a decoded configuration for consistency. All violations are ConfigurationErrors.
func Validate(cfg *Config) error {
	if cfg == nil {
		return NewConfigurationError(nil, "no configuration")
	}
	if !(cfg.SampleRate > 0) || math.IsInf(cfg.SampleRate, 0) {
		return NewConfigurationError(nil, "samp_rate must be a positive number, got %v", cfg.SampleRate)
	}
	if cfg.SocketTimeoutMs < 0 {
		return NewConfigurationError(nil, "zmq_timeout must not be negative, got %d", cfg.SocketTimeoutMs)
	}
	if cfg.HighWaterMark < -1 {
		return NewConfigurationError(nil, "zmq_hwm must be -1 or larger, got %d", cfg.HighWaterMark)
	}
	if cfg.BindAddr == "" {
		return NewConfigurationError(nil, "bind address is empty")
	}
	if cfg.PeerAddr == "" {
		return NewConfigurationError(nil, "peer address is empty")
	}

	bsSeen := map[BaseStationId]struct{}{}
	for _, bs := range cfg.BaseStations {
		if bs.Id < 1 {
			return NewConfigurationError(nil, "gNB id must be 1 or larger, got %d", bs.Id)
		}
		if _, ok := bsSeen[bs.Id]; ok {
			return NewConfigurationError(nil, "duplicate gNB id %d", bs.Id)
		}
		bsSeen[bs.Id] = struct{}{}

		devSeen := map[DeviceId]struct{}{}
		for _, dev := range bs.Devices {
			if dev.Id < 1 {
				return NewConfigurationError(nil, "UE id must be 1 or larger, got %d (gNB %d)", dev.Id, bs.Id)
			}
			if _, ok := devSeen[dev.Id]; ok {
				return NewConfigurationError(nil, "duplicate UE id %d in gNB %d", dev.Id, bs.Id)
			}
			devSeen[dev.Id] = struct{}{}
			if math.IsNaN(dev.PathLossDb) || math.IsInf(dev.PathLossDb, 0) {
				return NewConfigurationError(nil, "invalid path_loss_db for gNB %d UE %d", bs.Id, dev.Id)
			}
		}
	}

	return checkPortUsage(cfg)
}

// portUse records which socket claimed a port.
type portUse struct {
	port  int
	owner string
}

// usedPorts lists every port the configuration will bind or connect to, in configuration order.
// A base station's rx port is only used when the base station has at least one device.
func usedPorts(cfg *Config) []portUse {
	var uses []portUse
	for _, bs := range cfg.BaseStations {
		tx, rx := portmap.BaseStationPorts(bs.Id)
		uses = append(uses, portUse{tx, fmt.Sprintf("gNB %d tx", bs.Id)})
		if len(bs.Devices) > 0 {
			uses = append(uses, portUse{rx, fmt.Sprintf("gNB %d rx", bs.Id)})
		}
		for _, dev := range bs.Devices {
			devRx, devTx := portmap.DevicePorts(bs.Id, dev.Id)
			uses = append(uses,
				portUse{devRx, fmt.Sprintf("gNB %d UE %d rx", bs.Id, dev.Id)},
				portUse{devTx, fmt.Sprintf("gNB %d UE %d tx", bs.Id, dev.Id)})
		}
	}
	return uses
}

func checkPortUsage(cfg *Config) error {
	// ids above maxPort can only give out of range ports, and may overflow the port arithmetic.
	for _, bs := range cfg.BaseStations {
		if bs.Id > maxPort {
			return NewConfigurationError(nil, "gNB id %d is out of range", bs.Id)
		}
		for _, dev := range bs.Devices {
			if dev.Id > maxPort {
				return NewConfigurationError(nil, "UE id %d of gNB %d is out of range", dev.Id, bs.Id)
			}
		}
	}

	owners := map[int]string{}
	for _, use := range usedPorts(cfg) {
		if use.port < 1 || use.port > maxPort {
			return NewConfigurationError(nil, "%s port %d is out of range", use.owner, use.port)
		}
		if prev, ok := owners[use.port]; ok {
			return NewConfigurationError(nil, "port %d is used by both %s and %s", use.port, prev, use.owner)
		}
		owners[use.port] = use.owner
	}
	return nil
}

// Hazard describes a configuration that is accepted but whose derived ports leave the
// base station's own port block.
type Hazard struct {
	BaseStation BaseStationId
	Device      DeviceId
	RxPort      int
	TxPort      int
}

func (h Hazard) String() string {
	return fmt.Sprintf("gNB %d UE %d uses ports %d/%d outside its gNB port block (more than %d UEs per gNB)",
		h.BaseStation, h.Device, h.RxPort, h.TxPort, portmap.MaxDevicesPerBaseStation)
}

// PortHazards returns every device whose id exceeds portmap.MaxDevicesPerBaseStation, sorted by ids.
func PortHazards(cfg *Config) []Hazard {
	var hazards []Hazard
	for _, bs := range cfg.BaseStations {
		for _, dev := range bs.Devices {
			if dev.Id <= portmap.MaxDevicesPerBaseStation {
				continue
			}
			rx, tx := portmap.DevicePorts(bs.Id, dev.Id)
			hazards = append(hazards, Hazard{BaseStation: bs.Id, Device: dev.Id, RxPort: rx, TxPort: tx})
		}
	}
	sort.Slice(hazards, func(i, j int) bool {
		if hazards[i].BaseStation != hazards[j].BaseStation {
			return hazards[i].BaseStation < hazards[j].BaseStation
		}
		return hazards[i].Device < hazards[j].Device
	})
	return hazards
}
