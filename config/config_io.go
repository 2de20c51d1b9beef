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
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/openthread/ot-rfbroker/logger"
	. "github.com/openthread/ot-rfbroker/types"
)

// Format is the encoding of a configuration document.
type Format int

const (
	FormatJson Format = iota
	FormatYaml
)

// FormatOf determines the document format from a file name; anything not YAML is JSON.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYaml
	default:
		return FormatJson
	}
}

var schemaLoader = gojsonschema.NewStringLoader(documentSchema)

// file* types mirror the document with optional fields, so that absent keys get their defaults.
type fileDevice struct {
	Id         *int     `mapstructure:"id"`
	PathLossDb *float64 `mapstructure:"path_loss_db"`
}

type fileBaseStation struct {
	Id      *int         `mapstructure:"id"`
	Devices []fileDevice `mapstructure:"ues"`
}

type fileConfig struct {
	SampleRate      *float64           `mapstructure:"samp_rate"`
	SocketTimeoutMs *int               `mapstructure:"zmq_timeout"`
	HighWaterMark   *int               `mapstructure:"zmq_hwm"`
	BindAddr        *string            `mapstructure:"bind_addr"`
	BindAddrIp      *string            `mapstructure:"bind_addr_ip"`
	PeerAddr        *string            `mapstructure:"peer_addr"`
	PeerAddrIp      *string            `mapstructure:"peer_addr_ip"`
	BaseStations    *[]fileBaseStation `mapstructure:"gnbs"`
}

// Load reads, checks and decodes the configuration document at path. Every failure is
// returned as a ConfigurationError.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewConfigurationError(err, "cannot read config file %s", path)
	}
	cfg, err := Parse(data, FormatOf(path))
	if err != nil {
		return nil, errors.WithMessagef(err, "config file %s", path)
	}
	return cfg, nil
}

// Parse decodes a configuration document, fills in defaults for absent keys and validates the result.
func Parse(data []byte, format Format) (*Config, error) {
	var doc interface{}
	var err error

	switch format {
	case FormatYaml:
		err = yaml.Unmarshal(data, &doc)
	default:
		err = json.Unmarshal(data, &doc)
	}
	if err != nil {
		return nil, NewConfigurationError(err, "malformed document")
	}
	if doc == nil {
		return nil, NewConfigurationError(nil, "empty document")
	}

	if err = checkSchema(doc); err != nil {
		return nil, err
	}

	var fc fileConfig
	if err = mapstructure.Decode(doc, &fc); err != nil {
		return nil, NewConfigurationError(err, "cannot decode document")
	}

	cfg := fc.toConfig()
	if err = Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func checkSchema(doc interface{}) error {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewGoLoader(doc))
	if err != nil {
		return NewConfigurationError(err, "schema check failed")
	}
	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		msgs = append(msgs, desc.String())
	}
	return NewConfigurationError(nil, "invalid document: %s", strings.Join(msgs, "; "))
}

func (fc *fileConfig) toConfig() *Config {
	cfg := Default(0, 0)

	if fc.SampleRate != nil {
		cfg.SampleRate = *fc.SampleRate
	}
	if fc.SocketTimeoutMs != nil {
		cfg.SocketTimeoutMs = *fc.SocketTimeoutMs
	}
	if fc.HighWaterMark != nil {
		cfg.HighWaterMark = *fc.HighWaterMark
	}
	if fc.BindAddr != nil {
		cfg.BindAddr = *fc.BindAddr
	} else if fc.BindAddrIp != nil {
		cfg.BindAddr = *fc.BindAddrIp
	}
	if fc.PeerAddr != nil {
		cfg.PeerAddr = *fc.PeerAddr
	} else if fc.PeerAddrIp != nil {
		cfg.PeerAddr = *fc.PeerAddrIp
	}

	if fc.BaseStations == nil {
		cfg.BaseStations = defaultBaseStations()
		return cfg
	}

	for _, fbs := range *fc.BaseStations {
		logger.AssertNotNil(fbs.Id)
		bs := BaseStationConfig{
			Id:      *fbs.Id,
			Devices: make([]DeviceConfig, 0, len(fbs.Devices)),
		}
		for _, fdev := range fbs.Devices {
			logger.AssertNotNil(fdev.Id)
			dev := DeviceConfig{Id: *fdev.Id}
			if fdev.PathLossDb != nil {
				dev.PathLossDb = *fdev.PathLossDb
			}
			bs.Devices = append(bs.Devices, dev)
		}
		cfg.BaseStations = append(cfg.BaseStations, bs)
	}
	return cfg
}

// Marshal encodes the configuration in the given format. JSON output is indented by 2 spaces.
func Marshal(cfg *Config, format Format) ([]byte, error) {
	switch format {
	case FormatYaml:
		return yaml.Marshal(cfg)
	default:
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	}
}

// Save writes the configuration to path, in the format determined by its extension.
func Save(cfg *Config, path string) error {
	data, err := Marshal(cfg, FormatOf(path))
	if err != nil {
		return errors.Wrapf(err, "encode config")
	}
	if err = os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrapf(err, "write config file %s", path)
	}
	return nil
}
