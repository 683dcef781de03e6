// Copyright 2026 The Rolevisor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use file except in compliance with the License.
// You may obtain a copy of the license at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package rest serves a read-only view of a running Supervisor over HTTP,
// and provides the matching client.  There is deliberately nothing here
// that changes the state of the Supervisor.
package rest

import (
	"github.com/rolevisor/rolevisor"
)

const (
	mimeJson = "application/json; charset=UTF-8"

	// PollTimeHeader asks the server to hold a conditional request open
	// for up to this many seconds, waiting for a change.
	PollTimeHeader = "X-Rolevisor-Poll-Time"

	// MaxPollTime caps PollTimeHeader.
	MaxPollTime = 60
)

// LogInfo is the event log as seen by a client, with the Etag to pass to
// the next poll.
type LogInfo struct {
	Etag    string
	Records []rolevisor.LogRecord
}

type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return e.Message
}
