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
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/openthread/ot-rfbroker/broker"
	"github.com/openthread/ot-rfbroker/dispatcher"
	"github.com/openthread/ot-rfbroker/logger"
	"github.com/openthread/ot-rfbroker/progctx"
	"github.com/openthread/ot-rfbroker/topology"
	. "github.com/openthread/ot-rfbroker/types"
)

const (
	Prompt = "> "
)

// Broker is the part of the broker controller the console inspects.
type Broker interface {
	State() broker.State
	Uptime() time.Duration
	Topology() *topology.Topology
}

// StatsSource provides the per-stage counters shown by 'counters'.
type StatsSource interface {
	Stats() []dispatcher.StageStats
}

type CommandContext struct {
	context.Context
	*Command
	rt     *CmdRunner
	err    error
	output io.Writer
}

func (cc *CommandContext) outputf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(cc.output, format, args...)
}

func (cc *CommandContext) errorf(format string, args ...interface{}) {
	cc.error(errors.Errorf(format, args...))
}

func (cc *CommandContext) error(err error) {
	if err != nil {
		if cc.err != nil { // if previous error, print it now and keep the last.
			cc.outputf("Error: %s\n", cc.err)
		}
		cc.err = err
	}
}

// Err returns the last error that occurred during command execution.
func (cc *CommandContext) Err() error {
	return cc.err
}

func (cc *CommandContext) outputItemsAsYaml(items interface{}) {
	var itemsYaml yaml.Node

	err := itemsYaml.Encode(items)
	logger.PanicIfError(err)

	for _, content := range itemsYaml.Content {
		content.Style = yaml.FlowStyle
	}

	data, err := yaml.Marshal(&itemsYaml)
	logger.PanicIfError(err)

	_, err = cc.output.Write(data)
	logger.PanicIfError(err)
}

type CmdRunner struct {
	ctx    *progctx.ProgCtx
	broker Broker
	stats  StatsSource
	help   Help
}

func NewCmdRunner(ctx *progctx.ProgCtx, b Broker, stats StatsSource) *CmdRunner {
	return &CmdRunner{
		ctx:    ctx,
		broker: b,
		stats:  stats,
		help:   newHelp(),
	}
}

func (rt *CmdRunner) HandleCommand(cmdline string, output io.Writer) error {
	if rt.ctx.Err() == nil {
		cmd := Command{}

		if err := parseBytes([]byte(cmdline), &cmd); err != nil {
			if _, err := fmt.Fprintf(output, "Error: %v\n", err); err != nil {
				return err
			}
		} else {
			rt.execute(&cmd, output)
		}
	}
	return rt.ctx.Err()
}

func (rt *CmdRunner) GetPrompt() string {
	return Prompt
}

func (rt *CmdRunner) execute(cmd *Command, output io.Writer) {
	cc := &CommandContext{
		Context: rt.ctx,
		Command: cmd,
		rt:      rt,
		output:  output,
	}

	defer func() {
		if cc.Err() != nil {
			cc.outputf("Error: %v\n", cc.Err())
		} else {
			cc.outputf("Done\n")
		}
	}()

	defer func() {
		rerr := recover()

		if rerr != nil {
			if err, ok := rerr.(error); ok {
				cc.err = errors.Wrapf(err, "panic: %v", err)
			} else {
				cc.err = errors.Errorf("panic: %v", rerr)
			}
		}
	}()

	if cmd.Status != nil {
		rt.executeStatus(cc, cmd.Status)
	} else if cmd.Gnbs != nil {
		rt.executeGnbs(cc, cmd.Gnbs)
	} else if cmd.Counters != nil {
		rt.executeCounters(cc, cmd.Counters)
	} else if cmd.LogLevel != nil {
		rt.executeLogLevel(cc, cmd.LogLevel)
	} else if cmd.Help != nil {
		rt.executeHelp(cc, cmd.Help)
	} else if cmd.Exit != nil {
		rt.executeExit(cc, cmd.Exit)
	} else {
		logger.Panicf("unimplemented command: %#v", cmd)
	}
}

func (rt *CmdRunner) executeStatus(cc *CommandContext, cmd *StatusCmd) {
	topo := rt.broker.Topology()
	cc.outputf("state       %v\n", rt.broker.State())
	cc.outputf("uptime      %v\n", rt.broker.Uptime().Truncate(time.Millisecond))
	cc.outputf("gnbs        %d\n", len(topo.BaseStations))
	cc.outputf("stages      %d\n", topo.NumStages())
	cc.outputf("connections %d\n", topo.NumConnections())
}

type deviceInfo struct {
	Id     DeviceId `yaml:"id"`
	RxPort int      `yaml:"rx"`
	TxPort int      `yaml:"tx"`
	LossDb float64  `yaml:"loss_db"`
	Factor float64  `yaml:"factor"`
}

type baseStationInfo struct {
	Id      BaseStationId `yaml:"id"`
	TxPort  int           `yaml:"tx"`
	RxPort  int           `yaml:"rx"`
	Devices []deviceInfo  `yaml:"ues"`
}

func (rt *CmdRunner) executeGnbs(cc *CommandContext, cmd *GnbsCmd) {
	var items []baseStationInfo
	for _, bs := range rt.broker.Topology().BaseStations {
		if cmd.Gnb != nil && cmd.Gnb.Id != bs.Id {
			continue
		}
		info := baseStationInfo{
			Id:      bs.Id,
			TxPort:  bs.TxPort,
			RxPort:  bs.RxPort,
			Devices: []deviceInfo{},
		}
		for _, dev := range bs.Devices {
			info.Devices = append(info.Devices, deviceInfo{
				Id:     dev.Id,
				RxPort: dev.RxPort,
				TxPort: dev.TxPort,
				LossDb: dev.Link.LossDb,
				Factor: dev.Link.DisplayFactor(),
			})
		}
		items = append(items, info)
	}
	if cmd.Gnb != nil && len(items) == 0 {
		cc.errorf("gNB %d not found", cmd.Gnb.Id)
		return
	}
	cc.outputItemsAsYaml(items)
}

func (rt *CmdRunner) executeCounters(cc *CommandContext, cmd *CountersCmd) {
	if rt.stats == nil {
		cc.errorf("no counters available")
		return
	}
	prefix := ""
	if cmd.Gnb != nil {
		prefix = fmt.Sprintf("gnb%d.", cmd.Gnb.Id)
	}
	cc.outputf("%-24s %-8s %12s %8s %8s\n", "stage", "kind", "samples", "blocks", "dropped")
	for _, s := range rt.stats.Stats() {
		if !strings.HasPrefix(s.Name, prefix) {
			continue
		}
		cc.outputf("%-24s %-8s %12d %8d %8d\n", s.Name, s.Kind, s.Samples, s.Blocks, s.DroppedBlocks)
	}
}

func (rt *CmdRunner) executeLogLevel(cc *CommandContext, cmd *LogLevelCmd) {
	if cmd.Level == "" {
		cc.outputf("%v\n", logger.GetLevelString(logger.GetLevel()))
		return
	}
	level, err := logger.ParseLevelString(cmd.Level)
	if err != nil {
		cc.error(err)
		return
	}
	logger.SetLevel(level)
}

func (rt *CmdRunner) executeHelp(cc *CommandContext, cmd *HelpCmd) {
	if len(cmd.HelpTopic) == 0 {
		cc.outputf("%s", rt.help.outputGeneralHelp())
	} else {
		cc.outputf("%s", rt.help.outputCommandHelp(cmd.HelpTopic))
	}
}

func (rt *CmdRunner) executeExit(cc *CommandContext, cmd *ExitCmd) {
	logger.Infof("exit requested from console")
	rt.ctx.Cancel("console exit")
}
