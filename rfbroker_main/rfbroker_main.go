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
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/openthread/ot-rfbroker/broker"
	"github.com/openthread/ot-rfbroker/capture"
	"github.com/openthread/ot-rfbroker/cli"
	"github.com/openthread/ot-rfbroker/config"
	"github.com/openthread/ot-rfbroker/dispatcher"
	"github.com/openthread/ot-rfbroker/logger"
	"github.com/openthread/ot-rfbroker/observability"
	"github.com/openthread/ot-rfbroker/progctx"
	"github.com/openthread/ot-rfbroker/topology"
	"github.com/openthread/ot-rfbroker/transport/zmq"
)

type MainArgs struct {
	ConfigPath    string
	NumGnbs       int
	UesPerGnb     int
	GenPath       string
	BindAddr      string
	PeerAddr      string
	LogLevel      string
	Console       bool
	MetricsAddr   string
	GrpcAddr      string
	CaptureDir    string
	CaptureFormat string

	// set only when given on the command line
	bindGiven bool
	peerGiven bool
}

func parseArgs(argv []string, output io.Writer) (*MainArgs, error) {
	args := &MainArgs{}
	fs := flag.NewFlagSet("ot-rfbroker", flag.ContinueOnError)
	fs.SetOutput(output)

	fs.StringVar(&args.ConfigPath, "c", "", "shorthand for -config")
	fs.StringVar(&args.ConfigPath, "config", "", "JSON or YAML configuration file. Without it a default topology of -gnbs x -ues runs.")
	fs.IntVar(&args.NumGnbs, "g", config.DefaultNumBaseStations, "shorthand for -gnbs")
	fs.IntVar(&args.NumGnbs, "gnbs", config.DefaultNumBaseStations, "number of gNBs in the default topology")
	fs.IntVar(&args.UesPerGnb, "u", config.DefaultDevicesPerBs, "shorthand for -ues")
	fs.IntVar(&args.UesPerGnb, "ues", config.DefaultDevicesPerBs, "number of UEs per gNB in the default topology")
	fs.StringVar(&args.GenPath, "gen", "", "write the default configuration to this file and exit")
	fs.StringVar(&args.BindAddr, "bind", config.DefaultBindAddr, "address the sinks bind on (overrides bind_addr)")
	fs.StringVar(&args.PeerAddr, "peer", config.DefaultPeerAddr, "address the sources connect to (overrides peer_addr)")
	fs.StringVar(&args.LogLevel, "log", "info", "set logging level: trace, debug, info, note, warn, error.")
	fs.BoolVar(&args.Console, "console", false, "run the interactive console on stdin")
	fs.StringVar(&args.MetricsAddr, "metrics", "", "serve Prometheus metrics on this address, e.g. localhost:9100")
	fs.StringVar(&args.GrpcAddr, "grpc", "", "serve the gRPC health service on this address")
	fs.StringVar(&args.CaptureDir, "capture", "", "record every sink stream into this directory")
	fs.StringVar(&args.CaptureFormat, "capture-format", capture.FormatCf32Str, "capture sample format: cf32 or cs16")

	if err := fs.Parse(argv); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, errors.Errorf("unexpected arguments: %v", fs.Args())
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "bind":
			args.bindGiven = true
		case "peer":
			args.peerGiven = true
		}
	})
	return args, nil
}

// addressOverrides returns the bind and peer addresses that replace the configured ones; empty
// values keep the configuration.
func (args *MainArgs) addressOverrides() (string, string) {
	bind, peer := "", ""
	if args.bindGiven {
		bind = args.BindAddr
	}
	if args.peerGiven {
		peer = args.PeerAddr
	}
	return bind, peer
}

func loadConfig(args *MainArgs) (*config.Config, error) {
	var cfg *config.Config
	if args.ConfigPath != "" {
		var err error
		if cfg, err = config.Load(args.ConfigPath); err != nil {
			return nil, err
		}
	} else {
		cfg = config.Default(args.NumGnbs, args.UesPerGnb)
	}
	cfg.SetAddresses(args.addressOverrides())
	return cfg, nil
}

func generateConfig(args *MainArgs) error {
	cfg := config.Default(args.NumGnbs, args.UesPerGnb)
	cfg.SetAddresses(args.BindAddr, args.PeerAddr)
	if err := config.Validate(cfg); err != nil {
		return err
	}
	if err := config.Save(cfg, args.GenPath); err != nil {
		return err
	}
	logger.Infof("config generated: %s", args.GenPath)
	return nil
}

func newDispatcherConfig(args *MainArgs, cfg *config.Config) (*dispatcher.Config, error) {
	dcfg := dispatcher.DefaultConfig(zmq.New())
	dcfg.HighWaterMark = cfg.HighWaterMark
	if args.CaptureDir != "" {
		dcfg.CaptureFormat = capture.ParseFormatStr(args.CaptureFormat)
		if dcfg.CaptureFormat == capture.FormatUnknown || dcfg.CaptureFormat == capture.FormatOff {
			return nil, errors.Errorf("invalid capture format: %s", args.CaptureFormat)
		}
		if err := os.MkdirAll(args.CaptureDir, 0o755); err != nil {
			return nil, errors.Wrapf(err, "capture directory")
		}
		dcfg.CaptureDir = args.CaptureDir
	}
	return dcfg, nil
}

// Main runs the broker with the given command line and returns the process exit code: 0 after a
// requested stop, 1 on any failure.
func Main(ctx *progctx.ProgCtx, argv []string, cliOptions *cli.CliOptions) int {
	args, err := parseArgs(argv, os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}

	level, err := logger.ParseLevelString(args.LogLevel)
	if err != nil {
		logger.Errorf("%v", err)
		return 1
	}
	logger.SetLevel(level)
	defer logger.Sync()

	if args.GenPath != "" {
		if err := generateConfig(args); err != nil {
			logger.Errorf("%v", err)
			return 1
		}
		return 0
	}

	if err = run(ctx, args, cliOptions); err != nil {
		logger.Errorf("%v", err)
		return 1
	}
	return 0
}

func run(ctx *progctx.ProgCtx, args *MainArgs, cliOptions *cli.CliOptions) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}
	logger.Infof("config: %s", cfg)

	topo, err := topology.Build(cfg)
	if err != nil {
		return err
	}

	dcfg, err := newDispatcherConfig(args, cfg)
	if err != nil {
		return err
	}
	d := dispatcher.NewDispatcher(dcfg)

	collector, err := observability.NewCollector(prometheus.NewRegistry(), d)
	if err != nil {
		return err
	}
	collector.SetTopologySize(len(topo.BaseStations), cfg.NumDevices())

	ctrl := broker.NewController(ctx, topo, d)
	ctrl.OnStateChange(collector.SetState)
	collector.SetState(ctrl.State())

	handleSignals(ctx)

	if args.GrpcAddr != "" {
		hs := observability.NewHealthServer(collector)
		ctrl.OnStateChange(hs.SetState)
		hs.SetState(ctrl.State())
		serveBackground(ctx, "grpc", func() error { return hs.Serve(args.GrpcAddr) }, hs.Stop)
	}

	if args.MetricsAddr != "" {
		ms := observability.NewMetricsServer(args.MetricsAddr, collector)
		logger.Infof("metrics served on http://%s/metrics", args.MetricsAddr)
		serveBackground(ctx, "metrics", ms.Serve, ms.Shutdown)
	}

	var console *cli.Console
	if args.Console {
		console = cli.NewConsole()
		logger.SetStdoutCallback(console)
		rt := cli.NewCmdRunner(ctx, ctrl, d)
		go func() {
			err := console.Run(rt, cliOptions)
			if err != nil && ctx.Err() == nil {
				ctx.Cancel(errors.Wrapf(err, "console exit"))
			} else {
				ctx.Cancel("console exit")
			}
		}()
	}

	logger.Infof("starting ...")
	err = ctrl.Run()

	if err != nil {
		ctx.Cancel(err)
	} else {
		ctx.Cancel("broker stopped")
	}
	if console != nil {
		console.Stop()
		logger.SetStdoutCallback(nil)
	}

	logger.Debugf("waiting for broker to exit gracefully ...")
	ctx.Wait()

	if err == nil {
		err = ctx.Reason()
	}
	return err
}

// serveBackground runs serve until ctx is done, then calls stop. A serve failure while the broker is
// running stops the broker.
func serveBackground(ctx *progctx.ProgCtx, name string, serve func() error, stop func()) {
	ctx.WaitAdd(name, 1)
	go func() {
		defer ctx.WaitDone(name)
		if err := serve(); err != nil && ctx.Err() == nil {
			ctx.Cancel(errors.Wrapf(err, "%s server", name))
		}
	}()
	go func() {
		<-ctx.Done()
		stop()
	}()
}

func handleSignals(ctx *progctx.ProgCtx) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGINT, syscall.SIGHUP)

	ctx.WaitAdd("handleSignals", 1)
	go func() {
		defer logger.Debugf("handleSignals exit.")
		defer ctx.WaitDone("handleSignals")
		defer signal.Stop(c)

		for {
			select {
			case sig := <-c:
				logger.Infof("signal received: %v", sig)
				ctx.Cancel(fmt.Sprintf("signal %v", sig))
			case <-ctx.Done():
				return
			}
		}
	}()
}
