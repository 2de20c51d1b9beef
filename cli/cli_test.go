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
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openthread/ot-rfbroker/broker"
	"github.com/openthread/ot-rfbroker/config"
	"github.com/openthread/ot-rfbroker/dispatcher"
	"github.com/openthread/ot-rfbroker/logger"
	"github.com/openthread/ot-rfbroker/progctx"
	"github.com/openthread/ot-rfbroker/topology"
)

func TestParseBytes(t *testing.T) {
	var cmd Command
	assert.NotNil(t, parseBytes([]byte("wrongcmd"), &cmd))

	cmd = Command{}
	assert.True(t, parseBytes([]byte("counters"), &cmd) == nil && cmd.Counters != nil && cmd.Counters.Gnb == nil)
	cmd = Command{}
	assert.True(t, parseBytes([]byte("counters 2"), &cmd) == nil && cmd.Counters != nil && cmd.Counters.Gnb.Id == 2)

	cmd = Command{}
	assert.True(t, parseBytes([]byte("exit"), &cmd) == nil && cmd.Exit != nil)

	cmd = Command{}
	assert.True(t, parseBytes([]byte("gnbs"), &cmd) == nil && cmd.Gnbs != nil && cmd.Gnbs.Gnb == nil)
	cmd = Command{}
	assert.True(t, parseBytes([]byte("gnbs 1"), &cmd) == nil && cmd.Gnbs != nil && cmd.Gnbs.Gnb.Id == 1)

	cmd = Command{}
	assert.True(t, parseBytes([]byte("help"), &cmd) == nil && cmd.Help != nil && cmd.Help.HelpTopic == "")
	cmd = Command{}
	assert.True(t, parseBytes([]byte("help gnbs"), &cmd) == nil && cmd.Help != nil && cmd.Help.HelpTopic == "gnbs")

	cmd = Command{}
	assert.True(t, parseBytes([]byte("log"), &cmd) == nil && cmd.LogLevel != nil && cmd.LogLevel.Level == "")
	cmd = Command{}
	assert.True(t, parseBytes([]byte("log debug"), &cmd) == nil && cmd.LogLevel != nil && cmd.LogLevel.Level == "debug")
	cmd = Command{}
	assert.NotNil(t, parseBytes([]byte("log fatal"), &cmd)) // not supported.

	cmd = Command{}
	assert.True(t, parseBytes([]byte("status"), &cmd) == nil && cmd.Status != nil)
	cmd = Command{}
	assert.NotNil(t, parseBytes([]byte("status 1"), &cmd))
}

type fakeBroker struct {
	topo *topology.Topology
}

func (b *fakeBroker) State() broker.State          { return broker.StateRunning }
func (b *fakeBroker) Uptime() time.Duration        { return 1500 * time.Millisecond }
func (b *fakeBroker) Topology() *topology.Topology { return b.topo }

type fakeStats []dispatcher.StageStats

func (s fakeStats) Stats() []dispatcher.StageStats { return s }

func newTestRunner(t *testing.T) (*CmdRunner, *progctx.ProgCtx) {
	topo, err := topology.Build(config.Default(1, 2))
	require.NoError(t, err)
	stats := fakeStats{
		{Id: 0, Name: "gnb1.dl.src", Kind: topology.StageSource, Samples: 2048, Blocks: 2},
		{Id: 3, Name: "gnb1.ue1.dl.sink", Kind: topology.StageSink, Samples: 1024, Blocks: 1, DroppedBlocks: 1},
		{Id: 11, Name: "gnb2.dl.src", Kind: topology.StageSource},
	}
	ctx := progctx.New(nil)
	return NewCmdRunner(ctx, &fakeBroker{topo: topo}, stats), ctx
}

func runCommand(t *testing.T, rt *CmdRunner, cmdline string) string {
	var out bytes.Buffer
	assert.NoError(t, rt.HandleCommand(cmdline, &out))
	return out.String()
}

func TestRunStatus(t *testing.T) {
	rt, _ := newTestRunner(t)
	out := runCommand(t, rt, "status")
	assert.Contains(t, out, "state       RUNNING\n")
	assert.Contains(t, out, "uptime      1.5s\n")
	assert.Contains(t, out, "stages      12\n")
	assert.Contains(t, out, "connections 10\n")
	assert.Contains(t, out, "Done\n")
}

func TestRunGnbs(t *testing.T) {
	rt, _ := newTestRunner(t)
	// long flow sequences are wrapped by the encoder.
	out := strings.Join(strings.Fields(runCommand(t, rt, "gnbs")), " ")
	assert.Contains(t, out, "id: 1, tx: 2000, rx: 2001")
	assert.Contains(t, out, "{id: 2, rx: 2200, tx: 2201, loss_db: 10, factor: 0.32}")
	assert.Contains(t, out, "Done")

	out = runCommand(t, rt, "gnbs 4")
	assert.Equal(t, "Error: gNB 4 not found\n", out)
}

func TestRunCounters(t *testing.T) {
	rt, _ := newTestRunner(t)
	out := runCommand(t, rt, "counters 1")
	assert.Contains(t, out, "gnb1.dl.src")
	assert.Contains(t, out, "gnb1.ue1.dl.sink")
	assert.NotContains(t, out, "gnb2.dl.src")

	out = runCommand(t, rt, "counters")
	assert.Contains(t, out, "gnb2.dl.src")
}

func TestRunLogLevel(t *testing.T) {
	rt, _ := newTestRunner(t)
	prev := logger.GetLevel()
	defer logger.SetLevel(prev)

	assert.Equal(t, "Done\n", runCommand(t, rt, "log debug"))
	assert.Equal(t, logger.DebugLevel, logger.GetLevel())
	assert.Equal(t, "debug\nDone\n", runCommand(t, rt, "log"))
}

func TestRunHelp(t *testing.T) {
	rt, _ := newTestRunner(t)
	out := runCommand(t, rt, "help")
	for _, c := range []string{"counters", "exit", "gnbs", "help", "log", "status"} {
		assert.Contains(t, out, c)
	}
	out = runCommand(t, rt, "help status")
	assert.Contains(t, out, "Show the broker state")
}

func TestRunParseError(t *testing.T) {
	rt, _ := newTestRunner(t)
	out := runCommand(t, rt, "frobnicate")
	assert.Contains(t, out, "Error: ")
	assert.NotContains(t, out, "Done")
}

func TestRunExit(t *testing.T) {
	rt, ctx := newTestRunner(t)
	var out bytes.Buffer
	err := rt.HandleCommand("exit", &out)
	assert.Error(t, err)
	assert.NotNil(t, ctx.Err())
	assert.Nil(t, ctx.Reason())
	assert.Equal(t, "Done\n", out.String())

	// no commands are run after exit.
	out.Reset()
	assert.Error(t, rt.HandleCommand("status", &out))
	assert.Empty(t, out.String())
}

type mockCliHandler struct {
	expectedCmd string
	handleError error
	handleCount int
	t           *testing.T
}

func (hnd *mockCliHandler) HandleCommand(cmd string, output io.Writer) error {
	assert.Equal(hnd.t, hnd.expectedCmd, cmd)
	hnd.handleCount += 1
	return hnd.handleError
}

func (hnd *mockCliHandler) GetPrompt() string {
	return Prompt
}

func TestCliStartStop(t *testing.T) {
	console := NewConsole()
	handler := mockCliHandler{
		expectedCmd: "status",
		t:           t,
	}

	opt := DefaultCliOptions()
	r, w, _ := os.Pipe()
	opt.Stdin = r
	err := make(chan error, 1)
	go func() {
		err <- console.Run(&handler, opt)
	}()
	<-console.Started
	fmt.Fprint(w, "status\n")
	time.Sleep(time.Millisecond * 500)
	_ = w.Close()
	console.Stop()

	assert.Nil(t, <-err)
	assert.Equal(t, 1, handler.handleCount)
}

func TestCliCommandError(t *testing.T) {
	console := NewConsole()
	handler := mockCliHandler{
		expectedCmd: "xyz",
		handleError: fmt.Errorf("stopped"),
		t:           t,
	}

	opt := DefaultCliOptions()
	r, w, _ := os.Pipe()
	opt.Stdin = r
	err := make(chan error, 1)
	go func() {
		err <- console.Run(&handler, opt)
	}()
	<-console.Started
	fmt.Fprint(w, "xyz\n") // a handler error makes the console exit.

	assert.NotNil(t, <-err)
	assert.Equal(t, 1, handler.handleCount)

	console.Stop() // Stop after the console already exited.
}
