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

// Package rolevisor supervises a fixed set of long running processes on
// a single host: one balancer and any number of indexed workers.  Each of
// these is called a role.  The supervisor starts one OS process per role,
// restarts it after a fixed backoff whenever it exits, and politely stops
// (and if need be kills) processes whose resident memory grows beyond a
// configured ceiling, so that they too get restarted.
//
// The supervised programs are opaque.  The only interaction with them is
// through signals (SIGTERM, then SIGKILL) and by reaping their exit.
//
// A Supervisor runs three loops.  The main loop blocks in wait4(2) and
// turns every reaped child into a restart request.  The restart scheduler
// drains those requests once their backoff has elapsed.  The memory
// monitor samples resident memory on a coarse period.  All three share
// one State, whose fields are only reached through methods that take its
// lock.
//
// Because the main loop reaps any child of the calling process, only one
// Supervisor should run per process, and the program embedding it should
// not start other children of its own.
//
package rolevisor
