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
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/rolevisor/rolevisor"
	"github.com/rolevisor/rolevisor/rest"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the roles of a running rolevisord",
	Long: `status asks the status server of a running rolevisord (started with
--status-addr) for its roles and prints them.  With --follow it then
prints the event log as it grows, until interrupted.`,
	SilenceUsage: true,
	RunE:         runStatus,
}

func init() {
	f := statusCmd.Flags()
	f.StringP("url", "u", "http://127.0.0.1:8321", "status server URL")
	f.BoolP("follow", "f", false, "follow the event log")
	f.Duration("timeout", 5*time.Second, "request timeout")
}

func showRoles(w io.Writer, roles []rolevisor.RoleInfo, now time.Time) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ROLE\tSECTION\tSTATUS\tPID\tUPTIME\tRESTARTS\tRSS\tLAST EXIT")
	rest.SortRoles(roles)
	for i := range roles {
		r := &roles[i]
		uptime := "-"
		pid := "-"
		if r.Running {
			uptime = rest.FormatDuration(now.Sub(r.Started))
			pid = fmt.Sprint(r.Pid)
		}
		last := r.Status
		if last == "" {
			last = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
			r.Name, r.Section, rest.Status(r), pid, uptime,
			r.Restarts, r.Resident, last)
	}
	tw.Flush()
}

func showLog(w io.Writer, li *rest.LogInfo, after int64) int64 {
	for _, r := range li.Records {
		if r.Id <= after {
			continue
		}
		fmt.Fprintf(w, "%s %s\n", r.Time.Format(time.RFC3339), r.Text)
		after = r.Id
	}
	return after
}

func runStatus(cmd *cobra.Command, args []string) error {
	f := cmd.Flags()
	base, _ := f.GetString("url")
	follow, _ := f.GetBool("follow")
	timeout, _ := f.GetDuration("timeout")

	c := rest.NewClient(base)
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	roles, e := c.Roles(ctx)
	cancel()
	if e != nil {
		return e
	}
	out := cmd.OutOrStdout()
	showRoles(out, roles, time.Now())
	if !follow {
		return nil
	}

	fmt.Fprintln(out)
	var li *rest.LogInfo
	var seen int64
	for {
		ctx, cancel := context.WithTimeout(cmd.Context(), rest.MaxPollTime*time.Second+timeout)
		nli, e := c.WatchLog(ctx, li, rest.MaxPollTime*time.Second)
		cancel()
		if e != nil {
			return e
		}
		if nli != li {
			li = nli
			seen = showLog(out, li, seen)
		}
	}
}
