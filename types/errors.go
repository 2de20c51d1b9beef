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

package types

import (
	"fmt"

	"github.com/pkg/errors"
)

// ConfigurationError reports a malformed, incomplete or inconsistent configuration. It is always
// detected before any stage is created.
type ConfigurationError struct {
	msg   string
	cause error
}

func (e *ConfigurationError) Error() string {
	if e.cause == nil {
		return "configuration error: " + e.msg
	}
	return fmt.Sprintf("configuration error: %s: %v", e.msg, e.cause)
}

func (e *ConfigurationError) Cause() error  { return e.cause }
func (e *ConfigurationError) Unwrap() error { return e.cause }

// NewConfigurationError creates a ConfigurationError, optionally wrapping the underlying cause.
func NewConfigurationError(cause error, format string, args ...interface{}) error {
	return &ConfigurationError{msg: fmt.Sprintf(format, args...), cause: cause}
}

// TransportError reports an endpoint bind or connect failure. It is fatal for the whole topology.
type TransportError struct {
	Endpoint Endpoint
	Op       string
	cause    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error: %s %s: %v", e.Op, e.Endpoint, e.cause)
}

func (e *TransportError) Cause() error  { return e.cause }
func (e *TransportError) Unwrap() error { return e.cause }

func NewTransportError(op string, ep Endpoint, cause error) error {
	return &TransportError{Endpoint: ep, Op: op, cause: cause}
}

// DrainError reports that one or more stages failed while the topology was being drained.
type DrainError struct {
	cause error
}

func (e *DrainError) Error() string {
	return fmt.Sprintf("drain error: %v", e.cause)
}

func (e *DrainError) Cause() error  { return e.cause }
func (e *DrainError) Unwrap() error { return e.cause }

func NewDrainError(cause error) error {
	return &DrainError{cause: cause}
}

func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

func IsDrainError(err error) bool {
	var de *DrainError
	return errors.As(err, &de)
}
