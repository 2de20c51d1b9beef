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

// Package observability exports broker state and stream counters to Prometheus and serves the
// gRPC health service.
package observability

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"github.com/openthread/ot-rfbroker/broker"
	"github.com/openthread/ot-rfbroker/dispatcher"
)

// StatsSource provides stage counters; dispatcher.Dispatcher implements it.
type StatsSource interface {
	Stats() []dispatcher.StageStats
}

var allStates = []broker.State{broker.StateCreated, broker.StateRunning, broker.StateStopping, broker.StateStopped}

var (
	samplesDesc = prometheus.NewDesc("rfbroker_stage_samples_total",
		"Samples emitted by a stage (delivered to the socket, for sinks).", []string{"stage", "kind"}, nil)
	blocksDesc = prometheus.NewDesc("rfbroker_stage_blocks_total",
		"Sample blocks emitted by a stage.", []string{"stage", "kind"}, nil)
	droppedBlocksDesc = prometheus.NewDesc("rfbroker_stage_dropped_blocks_total",
		"Blocks a sink could not deliver within the socket timeout.", []string{"stage", "kind"}, nil)
	droppedSamplesDesc = prometheus.NewDesc("rfbroker_stage_dropped_samples_total",
		"Samples dropped or discarded by a stage.", []string{"stage", "kind"}, nil)
	reconnectsDesc = prometheus.NewDesc("rfbroker_source_reconnects_total",
		"Number of times a source lost its peer and reconnected.", []string{"stage", "endpoint"}, nil)
	connectedDesc = prometheus.NewDesc("rfbroker_source_connected",
		"1 while a source is connected to its peer.", []string{"stage", "endpoint"}, nil)
)

// Collector bundles the broker metrics. Stage counters are read from the StatsSource at scrape time.
type Collector struct {
	gatherer prometheus.Gatherer
	source   StatsSource

	State        *prometheus.GaugeVec
	BaseStations prometheus.Gauge
	Devices      prometheus.Gauge
	RPCRequests  *prometheus.CounterVec
}

// NewCollector registers the broker metrics against reg, defaulting to the global Prometheus
// registry when nil. source may be nil until the dispatcher exists, see SetStatsSource.
func NewCollector(reg prometheus.Registerer, source StatsSource) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	c := &Collector{gatherer: gatherer, source: source}

	state, err := registerGaugeVec(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "rfbroker_state",
		Help: "1 for the current broker lifecycle state, 0 for the others.",
	}, []string{"state"}), "rfbroker_state")
	if err != nil {
		return nil, err
	}
	c.State = state

	if c.BaseStations, err = registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "rfbroker_gnbs",
		Help: "Number of configured base stations.",
	}), "rfbroker_gnbs"); err != nil {
		return nil, err
	}
	if c.Devices, err = registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "rfbroker_ues",
		Help: "Number of configured devices over all base stations.",
	}), "rfbroker_ues"); err != nil {
		return nil, err
	}
	if c.RPCRequests, err = registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rfbroker_grpc_requests_total",
		Help: "Handled gRPC requests, labeled by method and status code.",
	}, []string{"method", "code"}), "rfbroker_grpc_requests_total"); err != nil {
		return nil, err
	}

	if err = reg.Register(c); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
			return nil, err
		}
	}
	c.SetState(broker.StateCreated)
	return c, nil
}

func (c *Collector) SetStatsSource(source StatsSource) {
	c.source = source
}

// SetState marks s as the current broker state. It can be registered as a state change listener.
func (c *Collector) SetState(s broker.State) {
	if c == nil || c.State == nil {
		return
	}
	for _, st := range allStates {
		v := 0.0
		if st == s {
			v = 1.0
		}
		c.State.WithLabelValues(strings.ToLower(st.String())).Set(v)
	}
}

func (c *Collector) SetTopologySize(baseStations int, devices int) {
	c.BaseStations.Set(float64(baseStations))
	c.Devices.Set(float64(devices))
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- samplesDesc
	ch <- blocksDesc
	ch <- droppedBlocksDesc
	ch <- droppedSamplesDesc
	ch <- reconnectsDesc
	ch <- connectedDesc
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	if c.source == nil {
		return
	}
	for _, st := range c.source.Stats() {
		kind := st.Kind.String()
		ch <- prometheus.MustNewConstMetric(samplesDesc, prometheus.CounterValue, float64(st.Samples), st.Name, kind)
		ch <- prometheus.MustNewConstMetric(blocksDesc, prometheus.CounterValue, float64(st.Blocks), st.Name, kind)
		ch <- prometheus.MustNewConstMetric(droppedBlocksDesc, prometheus.CounterValue, float64(st.DroppedBlocks), st.Name, kind)
		ch <- prometheus.MustNewConstMetric(droppedSamplesDesc, prometheus.CounterValue, float64(st.DroppedSamples), st.Name, kind)

		if st.Endpoint.IsZero() || st.Kind.NumInputs() > 0 {
			continue
		}
		connected := 0.0
		if st.Connected {
			connected = 1.0
		}
		ep := st.Endpoint.String()
		ch <- prometheus.MustNewConstMetric(reconnectsDesc, prometheus.CounterValue, float64(st.Reconnects), st.Name, ep)
		ch <- prometheus.MustNewConstMetric(connectedDesc, prometheus.GaugeValue, connected, st.Name, ep)
	}
}

// UnaryServerInterceptor counts the requests handled by the gRPC server.
func (c *Collector) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		resp, err := handler(ctx, req)
		if c == nil || c.RPCRequests == nil {
			return resp, err
		}

		method := "unknown"
		if info != nil && info.FullMethod != "" {
			method = info.FullMethod[strings.LastIndex(info.FullMethod, "/")+1:]
		}
		c.RPCRequests.WithLabelValues(method, status.Code(err).String()).Inc()
		return resp, err
	}
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}

// MetricsServer serves /metrics over HTTP.
type MetricsServer struct {
	srv *http.Server
}

func NewMetricsServer(addr string, c *Collector) *MetricsServer {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	return &MetricsServer{
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Serve blocks until Shutdown is called or the listener fails.
func (s *MetricsServer) Serve() error {
	err := s.srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *MetricsServer) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = s.srv.Shutdown(ctx)
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, errors.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGaugeVec(reg prometheus.Registerer, vec *prometheus.GaugeVec, name string) (*prometheus.GaugeVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.GaugeVec); ok {
				return existing, nil
			}
			return nil, errors.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGauge(reg prometheus.Registerer, g prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(g); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, errors.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return g, nil
}
