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

package rfbroker_main

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openthread/ot-rfbroker/capture"
	"github.com/openthread/ot-rfbroker/config"
	"github.com/openthread/ot-rfbroker/progctx"
	"github.com/openthread/ot-rfbroker/types"
)

func TestParseArgsDefaults(t *testing.T) {
	args, err := parseArgs(nil, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "", args.ConfigPath)
	assert.Equal(t, 1, args.NumGnbs)
	assert.Equal(t, 2, args.UesPerGnb)
	assert.False(t, args.Console)

	bind, peer := args.addressOverrides()
	assert.Equal(t, "", bind)
	assert.Equal(t, "", peer)
}

func TestParseArgsShorthands(t *testing.T) {
	args, err := parseArgs([]string{"-c", "broker.yaml", "-g", "3", "-u", "4", "-peer", "10.0.0.2"}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "broker.yaml", args.ConfigPath)
	assert.Equal(t, 3, args.NumGnbs)
	assert.Equal(t, 4, args.UesPerGnb)

	bind, peer := args.addressOverrides()
	assert.Equal(t, "", bind)
	assert.Equal(t, "10.0.0.2", peer)

	args, err = parseArgs([]string{"-config", "a.json", "-gnbs", "2", "-ues", "1", "-bind", "127.0.0.1"}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "a.json", args.ConfigPath)
	assert.Equal(t, 2, args.NumGnbs)
	assert.Equal(t, 1, args.UesPerGnb)
	bind, _ = args.addressOverrides()
	assert.Equal(t, "127.0.0.1", bind)
}

func TestParseArgsErrors(t *testing.T) {
	_, err := parseArgs([]string{"-g", "x"}, io.Discard)
	assert.Error(t, err)
	_, err = parseArgs([]string{"stray"}, io.Discard)
	assert.Error(t, err)
}

func TestLoadConfigKeepsFileAddresses(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broker.json")
	cfg := config.Default(1, 1)
	cfg.SetAddresses("10.1.1.1", "10.2.2.2")
	require.NoError(t, config.Save(cfg, path))

	args, err := parseArgs([]string{"-c", path}, io.Discard)
	require.NoError(t, err)
	loaded, err := loadConfig(args)
	require.NoError(t, err)
	assert.Equal(t, "10.1.1.1", loaded.BindAddr)
	assert.Equal(t, "10.2.2.2", loaded.PeerAddr)

	args, err = parseArgs([]string{"-c", path, "-bind", "0.0.0.0"}, io.Discard)
	require.NoError(t, err)
	loaded, err = loadConfig(args)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0", loaded.BindAddr)
	assert.Equal(t, "10.2.2.2", loaded.PeerAddr)
}

func TestLoadConfigDefault(t *testing.T) {
	args, err := parseArgs([]string{"-g", "2", "-u", "3"}, io.Discard)
	require.NoError(t, err)
	cfg, err := loadConfig(args)
	require.NoError(t, err)
	assert.Len(t, cfg.BaseStations, 2)
	assert.Equal(t, 6, cfg.NumDevices())
	assert.Equal(t, 20.0, cfg.BaseStations[1].Devices[2].PathLossDb)
}

func TestMainGenerate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gen.json")
	code := Main(progctx.New(nil), []string{"-gen", path, "-g", "2", "-u", "2", "-peer", "192.168.1.5"}, nil)
	assert.Equal(t, 0, code)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Len(t, cfg.BaseStations, 2)
	assert.Equal(t, "192.168.1.5", cfg.PeerAddr)
	assert.Equal(t, config.DefaultBindAddr, cfg.BindAddr)
	assert.Equal(t, 10.0, cfg.BaseStations[0].Devices[1].PathLossDb)
}

func TestMainFailures(t *testing.T) {
	assert.Equal(t, 1, Main(progctx.New(nil), []string{"-log", "loud"}, nil))
	assert.Equal(t, 1, Main(progctx.New(nil), []string{"-c", filepath.Join(t.TempDir(), "missing.json")}, nil))
	assert.Equal(t, 1, Main(progctx.New(nil), []string{"-g", "not-a-number"}, nil))

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"gnbs": [{"id": 1, "ues": [{"id": 1}, {"id": 1}]}]}`), 0o644))
	assert.Equal(t, 1, Main(progctx.New(nil), []string{"-c", bad}, nil))
}

func TestDispatcherConfigCapture(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cap")
	cfg := config.Default(1, 1)

	args, err := parseArgs([]string{"-capture", dir, "-capture-format", "cs16"}, io.Discard)
	require.NoError(t, err)
	dcfg, err := newDispatcherConfig(args, cfg)
	require.NoError(t, err)
	assert.Equal(t, capture.FormatCs16, dcfg.CaptureFormat)
	assert.DirExists(t, dir)

	args, err = parseArgs([]string{"-capture", dir, "-capture-format", "wav"}, io.Discard)
	require.NoError(t, err)
	_, err = newDispatcherConfig(args, cfg)
	assert.Error(t, err)

	args, err = parseArgs(nil, io.Discard)
	require.NoError(t, err)
	dcfg, err = newDispatcherConfig(args, cfg)
	require.NoError(t, err)
	assert.Equal(t, capture.FormatOff, dcfg.CaptureFormat)
	assert.Equal(t, cfg.HighWaterMark, dcfg.HighWaterMark)
}

func TestGenerateRejectsPortCollision(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.json")
	args, err := parseArgs([]string{"-gen", path, "-g", "2", "-u", "10"}, io.Discard)
	require.NoError(t, err)

	// UE 10 of gNB 1 lands on the ports of gNB 2.
	err = generateConfig(args)
	assert.True(t, types.IsConfigurationError(err))
	assert.NoFileExists(t, path)
}
