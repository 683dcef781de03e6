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
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rolevisor/rolevisor"
	"github.com/rolevisor/rolevisor/config"
	"github.com/rolevisor/rolevisor/rest"
)

var envReplacer = strings.NewReplacer("-", "_")

// maxStatusConns bounds the status server; long polls hold connections.
const maxStatusConns = 64

func options(mc rolevisor.MetricsCollector) []rolevisor.Option {
	opts := []rolevisor.Option{rolevisor.WithMetrics(mc)}
	if d := viper.GetDuration("restart-backoff"); d > 0 {
		opts = append(opts, rolevisor.WithBackoff(d))
	}
	if d := viper.GetDuration("stop-timeout"); d > 0 {
		opts = append(opts, rolevisor.WithStopTime(d))
	}
	if d := viper.GetDuration("memory-period"); d > 0 {
		opts = append(opts, rolevisor.WithMemoryPeriod(d))
	}
	if d := viper.GetDuration("poll-interval"); d > 0 {
		opts = append(opts, rolevisor.WithPollInterval(d))
	}
	return opts
}

func loadRoles() ([]rolevisor.RoleSpec, error) {
	balancer := strings.Fields(viper.GetString("balancer"))
	worker := strings.Fields(viper.GetString("worker"))

	cfg, e := config.Load(viper.GetString("config"))
	if e != nil {
		return nil, e
	}
	return cfg.Roles(balancer, worker)
}

func runDaemon(cmd *cobra.Command, args []string) error {
	specs, e := loadRoles()
	if e != nil {
		return e
	}

	pmc := rolevisor.NewPrometheusMetricsCollector("rolevisor")
	s := rolevisor.New(viper.GetString("name"), specs, options(pmc)...)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if addr := viper.GetString("status-addr"); addr != "" {
		metrics := promhttp.HandlerFor(pmc.Registry(), promhttp.HandlerOpts{})
		h := rest.NewHandler(s, metrics)
		go func() {
			if e := rest.Serve(ctx, addr, h, maxStatusConns); e != nil {
				log.Printf("Status server on %s failed: %v", addr, e)
			}
		}()
	}

	// Signals only request shutdown; the stopping happens elsewhere.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)
	go func() {
		select {
		case sig := <-sigs:
			log.Printf("Received %v, shutting down", sig)
			s.Shutdown()
		case <-ctx.Done():
		}
	}()

	if e := s.Start(); e != nil {
		return e
	}
	if e := s.Run(); e != nil {
		if errors.Is(e, rolevisor.ErrDesync) {
			return fmt.Errorf("supervision abandoned: %w", e)
		}
		return e
	}
	return nil
}
