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
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rolevisor/rolevisor"
)

// Client talks to the status handler of a running supervisor.
type Client struct {
	base   string // URI to root of tree on server
	client *http.Client
}

// NewClient returns a client for the server rooted at base, for example
// "http://127.0.0.1:8321".
func NewClient(base string) *Client {
	return &Client{
		base:   strings.TrimSuffix(base, "/"),
		client: &http.Client{},
	}
}

func (c *Client) url(role string) string {
	if role == "" {
		return c.base + "/roles"
	}
	return c.base + "/roles/" + url.PathEscape(role)
}

func (c *Client) get(ctx context.Context, url string, v interface{}) error {
	_, e := c.poll(ctx, url, "", 0, v)
	return e
}

// poll issues an HTTP GET against the URL, optionally conditional on etag,
// and optionally asking the server to hold the request up to wait seconds
// until the value changes.  It returns the new Etag.  If nothing changed
// the returned etag is "" and the error is nil.
func (c *Client) poll(ctx context.Context, url string, etag string, wait int, v interface{}) (string, error) {

	req, e := http.NewRequestWithContext(ctx, "GET", url, nil)
	if e != nil {
		return "", e
	}
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
		if wait > 0 {
			req.Header.Set(PollTimeHeader, strconv.Itoa(wait))
		}
	}
	res, e := c.client.Do(req)
	if e != nil {
		return "", e
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusNotModified {
		return "", nil
	}
	body, e := io.ReadAll(res.Body)
	if e != nil {
		return "", e
	}
	if res.StatusCode != http.StatusOK {
		re := &Error{}
		if json.Unmarshal(body, re) != nil || re.Message == "" {
			re.Message = res.Status
		}
		re.Code = res.StatusCode
		return "", re
	}
	if e := json.Unmarshal(body, v); e != nil {
		return "", e
	}
	return res.Header.Get("Etag"), nil
}

// Info returns the top-level supervisor information.
func (c *Client) Info(ctx context.Context) (*rolevisor.Info, error) {
	v := &rolevisor.Info{}
	if e := c.get(ctx, c.base+"/", v); e != nil {
		return nil, e
	}
	return v, nil
}

func fixRole(info *rolevisor.RoleInfo) {
	if r, e := rolevisor.ParseRole(info.Name); e == nil {
		info.Role = r
	}
}

// Roles returns a snapshot of every supervised role.
func (c *Client) Roles(ctx context.Context) ([]rolevisor.RoleInfo, error) {
	v := []rolevisor.RoleInfo{}
	if e := c.get(ctx, c.url(""), &v); e != nil {
		return nil, e
	}
	for i := range v {
		fixRole(&v[i])
	}
	return v, nil
}

// Role returns a snapshot of a single role.
func (c *Client) Role(ctx context.Context, r rolevisor.Role) (*rolevisor.RoleInfo, error) {
	v := &rolevisor.RoleInfo{}
	if e := c.get(ctx, c.url(r.String()), v); e != nil {
		return nil, e
	}
	fixRole(v)
	return v, nil
}

// Log returns the event log as it is now.
func (c *Client) Log(ctx context.Context) (*LogInfo, error) {
	return c.WatchLog(ctx, nil, 0)
}

// WatchLog waits up to wait for the event log to move past last, and
// returns it.  If the log did not change, last is returned.
func (c *Client) WatchLog(ctx context.Context, last *LogInfo, wait time.Duration) (*LogInfo, error) {
	etag := ""
	if last != nil {
		etag = last.Etag
	}
	v := &LogInfo{}
	tag, e := c.poll(ctx, c.base+"/log", etag, int(wait/time.Second), &v.Records)
	if e != nil {
		return nil, e
	}
	if tag == "" {
		return last, nil
	}
	v.Etag = tag
	return v, nil
}
