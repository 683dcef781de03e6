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

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rolevisor/rolevisor"
	"github.com/rolevisor/rolevisor/rest"
)

func TestLoadRoles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "roles.ini")
	require.NoError(t, os.WriteFile(path,
		[]byte("max-process-memory-size-percent = 3\n[a]\n[b]\n"), 0o644))

	viper.Reset()
	defer viper.Reset()
	initConfig()
	t.Setenv("ROLEVISOR_CONFIG", path)
	t.Setenv("ROLEVISOR_BALANCER", "python balancer.py")
	t.Setenv("ROLEVISOR_WORKER", "python worker.py -v")
	t.Setenv("ROLEVISOR_RESTART_BACKOFF", "250ms")

	specs, err := loadRoles()
	require.NoError(t, err)
	require.Len(t, specs, 3)
	assert.Equal(t, []string{"python", "balancer.py"}, specs[0].Argv)
	assert.Equal(t, []string{"python", "worker.py", "-v", "--index=2"}, specs[2].Argv)
	assert.Equal(t, 3, specs[2].Limits.Percent)
	assert.Equal(t, 250*time.Millisecond, viper.GetDuration("restart-backoff"))
	assert.Len(t, options(rolevisor.NewNoopMetricsCollector()), 2)
}

func TestBindFlags(t *testing.T) {
	cmd := &cobra.Command{Use: "bind"}
	cmd.Flags().String("bind-check", "", "")
	bindFlags(cmd, "bind-check")
	require.NoError(t, cmd.Flags().Set("bind-check", "yes"))
	assert.Equal(t, "yes", viper.GetString("bind-check"))

	assert.Panics(t, func() {
		bindFlags(cmd, "no-such-flag")
	})
}

func TestShowRoles(t *testing.T) {
	now := time.Now()
	roles := []rolevisor.RoleInfo{
		{Role: rolevisor.Balancer, Name: "balancer", Section: "DEFAULT",
			Pid: 42, Running: true, Started: now.Add(-time.Hour)},
		{Role: rolevisor.Worker(1), Name: "worker-1", Section: "a",
			Pending: true, Restarts: 2, Status: "signal: SIGKILL"},
	}
	var buf bytes.Buffer
	showRoles(&buf, roles, now)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "ROLE"))
	assert.Contains(t, lines[1], "worker-1")
	assert.Contains(t, lines[1], "restarting")
	assert.Contains(t, lines[1], "signal: SIGKILL")
	assert.Contains(t, lines[2], "1:00:00")
	assert.Contains(t, lines[2], "42")
}

func TestShowLog(t *testing.T) {
	li := &rest.LogInfo{
		Records: []rolevisor.LogRecord{
			{Id: 1, Time: time.Unix(0, 0), Text: "one"},
			{Id: 2, Time: time.Unix(1, 0), Text: "two"},
		},
	}
	var buf bytes.Buffer
	assert.Equal(t, int64(2), showLog(&buf, li, 1))
	assert.NotContains(t, buf.String(), "one")
	assert.Contains(t, buf.String(), "two")
}
