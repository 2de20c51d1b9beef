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
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/openthread/ot-rfbroker/types"
)

func TestDefault(t *testing.T) {
	cfg := Default(2, 3)
	assert.Equal(t, DefaultSampleRate, cfg.SampleRate)
	assert.Equal(t, DefaultSocketTimeoutMs, cfg.SocketTimeoutMs)
	assert.Equal(t, DefaultHighWaterMark, cfg.HighWaterMark)
	assert.Equal(t, "0.0.0.0", cfg.BindAddr)
	assert.Equal(t, "127.0.0.1", cfg.PeerAddr)
	require.Len(t, cfg.BaseStations, 2)
	assert.Equal(t, 6, cfg.NumDevices())

	for i, bs := range cfg.BaseStations {
		assert.Equal(t, i+1, bs.Id)
		for k, dev := range bs.Devices {
			assert.Equal(t, k+1, dev.Id)
			assert.Equal(t, float64(k)*10.0, dev.PathLossDb)
		}
	}
	assert.NoError(t, Validate(cfg))
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"cfg.json", "cfg.yaml"} {
		path := filepath.Join(dir, name)
		orig := Default(3, 4)
		require.NoError(t, Save(orig, path))

		loaded, err := Load(path)
		require.NoError(t, err, name)
		assert.Equal(t, orig, loaded, name)
	}
}

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`{}`), FormatJson)
	require.NoError(t, err)
	assert.Equal(t, DefaultSampleRate, cfg.SampleRate)
	require.Len(t, cfg.BaseStations, 1)
	assert.Equal(t, []DeviceConfig{{Id: 1, PathLossDb: 0}}, cfg.BaseStations[0].Devices)

	cfg, err = Parse([]byte(`{"gnbs": [{"id": 4}]}`), FormatJson)
	require.NoError(t, err)
	require.Len(t, cfg.BaseStations, 1)
	assert.Equal(t, 4, cfg.BaseStations[0].Id)
	assert.Empty(t, cfg.BaseStations[0].Devices)

	cfg, err = Parse([]byte(`{"gnbs": [{"id": 1, "ues": [{"id": 2}]}]}`), FormatJson)
	require.NoError(t, err)
	assert.Equal(t, 0.0, cfg.BaseStations[0].Devices[0].PathLossDb)
}

func TestParseYaml(t *testing.T) {
	doc := `
samp_rate: 23040000
zmq_timeout: 0
zmq_hwm: 10
bind_addr: 127.0.0.1
peer_addr: 10.0.0.2
gnbs:
  - id: 1
    ues:
      - id: 1
        path_loss_db: 3.5
      - id: 2
        path_loss_db: 20
`
	cfg, err := Parse([]byte(doc), FormatYaml)
	require.NoError(t, err)
	assert.Equal(t, 23040000.0, cfg.SampleRate)
	assert.Equal(t, 0, cfg.SocketTimeoutMs)
	assert.Equal(t, 10, cfg.HighWaterMark)
	assert.Equal(t, "127.0.0.1", cfg.BindAddr)
	assert.Equal(t, "10.0.0.2", cfg.PeerAddr)
	assert.Equal(t, []DeviceConfig{{1, 3.5}, {2, 20}}, cfg.BaseStations[0].Devices)
}

func TestParseLegacyAddressKeys(t *testing.T) {
	cfg, err := Parse([]byte(`{"bind_addr_ip": "10.1.1.1", "peer_addr_ip": "10.2.2.2"}`), FormatJson)
	require.NoError(t, err)
	assert.Equal(t, "10.1.1.1", cfg.BindAddr)
	assert.Equal(t, "10.2.2.2", cfg.PeerAddr)

	cfg, err = Parse([]byte(`{"bind_addr": "1.1.1.1", "bind_addr_ip": "10.1.1.1"}`), FormatJson)
	require.NoError(t, err)
	assert.Equal(t, "1.1.1.1", cfg.BindAddr)
}

func TestParseRejectsBadDocuments(t *testing.T) {
	docs := map[string]string{
		"malformed":       `{"gnbs": [`,
		"non-numeric id":  `{"gnbs": [{"id": "one"}]}`,
		"missing gNB id":  `{"gnbs": [{"ues": []}]}`,
		"missing UE id":   `{"gnbs": [{"id": 1, "ues": [{"path_loss_db": 3}]}]}`,
		"zero gNB id":     `{"gnbs": [{"id": 0}]}`,
		"fractional id":   `{"gnbs": [{"id": 1.5}]}`,
		"zero samp_rate":  `{"samp_rate": 0}`,
		"negative hwm":    `{"zmq_hwm": -2}`,
		"negative tmo":    `{"zmq_timeout": -1}`,
		"string loss":     `{"gnbs": [{"id": 1, "ues": [{"id": 1, "path_loss_db": "ten"}]}]}`,
		"duplicate gNB":   `{"gnbs": [{"id": 1}, {"id": 1}]}`,
		"duplicate UE":    `{"gnbs": [{"id": 1, "ues": [{"id": 2}, {"id": 2}]}]}`,
		"empty bind addr": `{"bind_addr": ""}`,
		"not an object":   `[1, 2]`,
		"null":            `null`,
	}
	for name, doc := range docs {
		_, err := Parse([]byte(doc), FormatJson)
		assert.Error(t, err, name)
		assert.True(t, IsConfigurationError(err), name)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	assert.True(t, IsConfigurationError(err))
}

func TestPortCollision(t *testing.T) {
	cfg := Default(1, 11)
	assert.NoError(t, Validate(cfg))

	hazards := PortHazards(cfg)
	require.Len(t, hazards, 2)
	assert.Equal(t, Hazard{BaseStation: 1, Device: 10, RxPort: 3000, TxPort: 3001}, hazards[0])
	assert.Equal(t, 11, hazards[1].Device)

	// gNB 2 transmits on 3000, which UE 10 of gNB 1 already receives on.
	cfg.BaseStations = append(cfg.BaseStations, BaseStationConfig{
		Id:      2,
		Devices: []DeviceConfig{{Id: 1}},
	})
	err := Validate(cfg)
	assert.True(t, IsConfigurationError(err))
	assert.Contains(t, err.Error(), "port 3000")
}

func TestPortOutOfRange(t *testing.T) {
	cfg := Default(0, 0)
	cfg.BaseStations = []BaseStationConfig{{Id: 65}}
	assert.True(t, IsConfigurationError(Validate(cfg)))
}

func TestHugeIdsRejected(t *testing.T) {
	// (id-1)*1000 overflows int for this id.
	cfg, err := Parse([]byte("gnbs:\n  - id: 9300000000000000\n    ues: [{id: 1}]\n"), FormatYaml)
	assert.Nil(t, cfg)
	assert.True(t, IsConfigurationError(err))

	cfg = Default(1, 0)
	cfg.BaseStations[0].Devices = []DeviceConfig{{Id: 1 << 40}}
	assert.True(t, IsConfigurationError(Validate(cfg)))

	cfg = Default(1, 0)
	cfg.BaseStations[0].Devices = []DeviceConfig{{Id: 700}}
	err = Validate(cfg)
	assert.True(t, IsConfigurationError(err))
	assert.Contains(t, err.Error(), "out of range")
}

func TestUnusedBaseStationRxPort(t *testing.T) {
	// gNB 1 without devices does not use 2001.
	cfg := Default(0, 0)
	cfg.BaseStations = []BaseStationConfig{{Id: 1}}
	assert.NoError(t, Validate(cfg))
	assert.Empty(t, PortHazards(cfg))
	for _, use := range usedPorts(cfg) {
		assert.NotEqual(t, 2001, use.port)
	}
}

func TestSetAddresses(t *testing.T) {
	cfg := Default(1, 1)
	cfg.SetAddresses("", "192.168.0.2")
	assert.Equal(t, DefaultBindAddr, cfg.BindAddr)
	assert.Equal(t, "192.168.0.2", cfg.PeerAddr)
}
