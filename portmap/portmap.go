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

// Package portmap derives the socket ports used by base stations and devices from their ids.
//
// The formulas are part of the compatibility contract with the srsRAN ZeroMQ configurations that
// connect to the broker, so they must not change:
//
//	base station n:       TX = 2000 + (n-1)*1000, RX = TX + 1
//	device m of gNB n:    RX = 2100 + (n-1)*1000 + (m-1)*100, TX = RX + 1
package portmap

import (
	. "github.com/openthread/ot-rfbroker/types"
)

const (
	BaseStationBasePort = 2000
	BaseStationStride   = 1000
	DeviceBasePort      = 2100
	DeviceStride        = 100
)

// BaseStationPorts returns the (tx, rx) ports of base station id. The base station transmits
// its downlink on tx and receives the combined uplink on rx.
func BaseStationPorts(id BaseStationId) (tx int, rx int) {
	tx = BaseStationBasePort + (id-1)*BaseStationStride
	return tx, tx + 1
}

// DevicePorts returns the (rx, tx) ports of device devId attached to base station bsId.
func DevicePorts(bsId BaseStationId, devId DeviceId) (rx int, tx int) {
	rx = DeviceBasePort + (bsId-1)*BaseStationStride + (devId-1)*DeviceStride
	return rx, rx + 1
}

// MaxDevicesPerBaseStation is the largest device id whose ports stay inside the port block
// of its own base station. Higher ids alias into the block of the next base station.
const MaxDevicesPerBaseStation = (BaseStationStride - (DeviceBasePort - BaseStationBasePort)) / DeviceStride
