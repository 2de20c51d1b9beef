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

// documentSchema is the JSON schema every configuration document must satisfy before decoding.
// Unknown keys are ignored, as peers may share one document with other tools.
const documentSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"properties": {
		"samp_rate":    {"type": "number", "exclusiveMinimum": 0},
		"zmq_timeout":  {"type": "integer", "minimum": 0},
		"zmq_hwm":      {"type": "integer", "minimum": -1},
		"bind_addr":    {"type": "string", "minLength": 1},
		"bind_addr_ip": {"type": "string", "minLength": 1},
		"peer_addr":    {"type": "string", "minLength": 1},
		"peer_addr_ip": {"type": "string", "minLength": 1},
		"gnbs": {
			"type": "array",
			"items": {"$ref": "#/definitions/gnb"}
		}
	},
	"definitions": {
		"gnb": {
			"type": "object",
			"required": ["id"],
			"properties": {
				"id":  {"type": "integer", "minimum": 1},
				"ues": {"type": "array", "items": {"$ref": "#/definitions/ue"}}
			}
		},
		"ue": {
			"type": "object",
			"required": ["id"],
			"properties": {
				"id":           {"type": "integer", "minimum": 1},
				"path_loss_db": {"type": "number"}
			}
		}
	}
}`
