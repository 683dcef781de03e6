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

package rolevisor

import (
	"errors"
)

var (
	ErrSpawn      = errors.New("Failed to spawn process")
	ErrDesync     = errors.New("No child processes left while processes are tracked")
	ErrNoChildren = errors.New("No child processes")
	ErrNoArgv     = errors.New("Empty command line")
	ErrStarted    = errors.New("Supervisor already started")
	ErrNotStarted = errors.New("Supervisor not started")
	ErrBadRole    = errors.New("Bad role name")
	ErrNoRole     = errors.New("No such role")
)
