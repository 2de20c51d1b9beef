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

// Package config holds the broker configuration document: global stream parameters and the list of
// base stations (gNBs) with their devices (UEs) and per-device path loss.
package config

import (
	"fmt"

	. "github.com/openthread/ot-rfbroker/types"
)

const (
	DefaultSampleRate      = 11520000.0
	DefaultSocketTimeoutMs = 100
	DefaultHighWaterMark   = -1
	DefaultBindAddr        = "0.0.0.0"
	DefaultPeerAddr        = "127.0.0.1"
	DefaultNumBaseStations = 1
	DefaultDevicesPerBs    = 2

	// DefaultLossStepDb is the path loss added per device index in generated configurations.
	DefaultLossStepDb = 10.0
)

type DeviceConfig struct {
	Id         DeviceId `json:"id" yaml:"id"`
	PathLossDb float64  `json:"path_loss_db" yaml:"path_loss_db"`
}

type BaseStationConfig struct {
	Id      BaseStationId  `json:"id" yaml:"id"`
	Devices []DeviceConfig `json:"ues" yaml:"ues"`
}

type Config struct {
	SampleRate      float64             `json:"samp_rate" yaml:"samp_rate"`
	SocketTimeoutMs int                 `json:"zmq_timeout" yaml:"zmq_timeout"`
	HighWaterMark   int                 `json:"zmq_hwm" yaml:"zmq_hwm"`
	BindAddr        string              `json:"bind_addr" yaml:"bind_addr"`
	PeerAddr        string              `json:"peer_addr" yaml:"peer_addr"`
	BaseStations    []BaseStationConfig `json:"gnbs" yaml:"gnbs"`
}

// Default generates a configuration with numBs base stations, each with devicesPerBs devices.
// Device k of every base station gets a path loss of (k-1)*10 dB.
func Default(numBs int, devicesPerBs int) *Config {
	cfg := &Config{
		SampleRate:      DefaultSampleRate,
		SocketTimeoutMs: DefaultSocketTimeoutMs,
		HighWaterMark:   DefaultHighWaterMark,
		BindAddr:        DefaultBindAddr,
		PeerAddr:        DefaultPeerAddr,
		BaseStations:    make([]BaseStationConfig, 0, numBs),
	}
	for g := 1; g <= numBs; g++ {
		bs := BaseStationConfig{
			Id:      g,
			Devices: make([]DeviceConfig, 0, devicesPerBs),
		}
		for u := 1; u <= devicesPerBs; u++ {
			bs.Devices = append(bs.Devices, DeviceConfig{
				Id:         u,
				PathLossDb: float64(u-1) * DefaultLossStepDb,
			})
		}
		cfg.BaseStations = append(cfg.BaseStations, bs)
	}
	return cfg
}

// defaultBaseStations is used when a loaded document has no "gnbs" key: one gNB with one UE at 0 dB.
func defaultBaseStations() []BaseStationConfig {
	return []BaseStationConfig{{
		Id:      1,
		Devices: []DeviceConfig{{Id: 1, PathLossDb: 0}},
	}}
}

// NumDevices returns the total number of devices over all base stations.
func (cfg *Config) NumDevices() int {
	n := 0
	for _, bs := range cfg.BaseStations {
		n += len(bs.Devices)
	}
	return n
}

// SetAddresses overrides the bind and/or peer address. Empty values leave the current one.
func (cfg *Config) SetAddresses(bindAddr string, peerAddr string) {
	if bindAddr != "" {
		cfg.BindAddr = bindAddr
	}
	if peerAddr != "" {
		cfg.PeerAddr = peerAddr
	}
}

func (cfg *Config) String() string {
	return fmt.Sprintf("samp_rate=%v zmq_timeout=%d zmq_hwm=%d bind=%s peer=%s gnbs=%d ues=%d",
		cfg.SampleRate, cfg.SocketTimeoutMs, cfg.HighWaterMark, cfg.BindAddr, cfg.PeerAddr,
		len(cfg.BaseStations), cfg.NumDevices())
}
