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

// Command rolevisord supervises one balancer and a set of indexed workers
// described by an INI file, restarting them when they exit or grow past
// their memory limits.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "rolevisord",
	Short: "Supervise a balancer and its workers",
	Long: `rolevisord starts the balancer and one worker per configured section,
restarts any of them that exits after a fixed backoff, restarts those that
exceed their memory limit, and stops them all on SIGINT or SIGTERM.

The balancer is started as the --balancer command.  Each worker is started
as the --worker command followed by --index=N, N counting sections from 1.`,
	SilenceUsage: true,
	RunE:         runDaemon,
}

func init() {
	cobra.OnInitialize(initConfig)

	f := rootCmd.Flags()
	f.StringP("config", "c", "rolevisor.ini", "INI file describing the roles")
	f.StringP("balancer", "b", "", "balancer command line")
	f.StringP("worker", "w", "", "worker command line")
	f.StringP("name", "n", "rolevisor", "supervisor name")
	f.Duration("restart-backoff", 0, "delay before restarting an exited role (default 5s)")
	f.Duration("stop-timeout", 0, "time allowed between SIGTERM and SIGKILL (default 2s)")
	f.Duration("memory-period", 0, "interval between memory checks (default 5m)")
	f.Duration("poll-interval", 0, "polling interval of the background loops (default 1s)")
	f.StringP("status-addr", "a", "", "serve read-only status on this address")

	bindFlags(rootCmd,
		"config", "balancer", "worker", "name",
		"restart-backoff", "stop-timeout", "memory-period",
		"poll-interval", "status-addr")

	rootCmd.AddCommand(statusCmd)
}

// bindFlags makes the named flags of cmd visible through viper.  A name
// without a flag is a programming error.
func bindFlags(cmd *cobra.Command, names ...string) {
	for _, name := range names {
		if e := viper.BindPFlag(name, cmd.Flags().Lookup(name)); e != nil {
			panic(e)
		}
	}
}

func initConfig() {
	viper.SetEnvPrefix("ROLEVISOR")
	viper.SetEnvKeyReplacer(envReplacer)
	viper.AutomaticEnv()
}

func main() {
	if e := rootCmd.Execute(); e != nil {
		fmt.Fprintln(os.Stderr, e)
		os.Exit(1)
	}
}
