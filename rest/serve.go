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

package rest

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"golang.org/x/net/netutil"
)

// Serve answers requests on addr with h until ctx is done.  No more than
// maxConns connections are open at once; zero means no limit.
func Serve(ctx context.Context, addr string, h http.Handler, maxConns int) error {
	l, e := net.Listen("tcp", addr)
	if e != nil {
		return e
	}
	return serve(ctx, l, h, maxConns)
}

func serve(ctx context.Context, l net.Listener, h http.Handler, maxConns int) error {
	if maxConns > 0 {
		l = netutil.LimitListener(l, maxConns)
	}
	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
		case <-done:
			return
		}
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(sctx)
	}()
	if e := srv.Serve(l); e != nil && !errors.Is(e, http.ErrServerClosed) {
		return e
	}
	return nil
}
