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

package observability

import (
	"net"

	"github.com/pkg/errors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/openthread/ot-rfbroker/broker"
	"github.com/openthread/ot-rfbroker/logger"
)

// ServiceName is the health service name reported next to the overall ("") status.
const ServiceName = "rfbroker"

// HealthServer is a gRPC server that only carries the standard health service. It reports
// SERVING while the broker is RUNNING and NOT_SERVING otherwise.
type HealthServer struct {
	grpcServer *grpc.Server
	health     *health.Server
}

func NewHealthServer(c *Collector) *HealthServer {
	var opts []grpc.ServerOption
	if c != nil {
		opts = append(opts, grpc.UnaryInterceptor(c.UnaryServerInterceptor()))
	}

	hs := &HealthServer{
		grpcServer: grpc.NewServer(opts...),
		health:     health.NewServer(),
	}
	healthpb.RegisterHealthServer(hs.grpcServer, hs.health)
	hs.SetState(broker.StateCreated)
	return hs
}

// SetState updates the reported status. It can be registered as a state change listener.
func (hs *HealthServer) SetState(s broker.State) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if s == broker.StateRunning {
		status = healthpb.HealthCheckResponse_SERVING
	}
	hs.health.SetServingStatus("", status)
	hs.health.SetServingStatus(ServiceName, status)
}

// Serve listens on addr and serves until Stop is called.
func (hs *HealthServer) Serve(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrapf(err, "grpc listen %s", addr)
	}
	return hs.ServeListener(lis)
}

func (hs *HealthServer) ServeListener(lis net.Listener) error {
	logger.Infof("gRPC health service listening on %s", lis.Addr())
	err := hs.grpcServer.Serve(lis)
	if errors.Is(err, grpc.ErrServerStopped) {
		return nil
	}
	return err
}

// Stop marks all services NOT_SERVING and stops the server gracefully.
func (hs *HealthServer) Stop() {
	hs.health.Shutdown()
	hs.grpcServer.GracefulStop()
}

// Server exposes the underlying health implementation, for in-process checks.
func (hs *HealthServer) Server() healthpb.HealthServer {
	return hs.health
}
