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
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rolevisor/rolevisor"
)

// Handler wraps a Supervisor, adding http.Handler functionality.
type Handler struct {
	s *rolevisor.Supervisor
	r *mux.Router
}

func (h *Handler) internalError(w http.ResponseWriter, e error) {
	http.Error(w, e.Error(), http.StatusInternalServerError)
}

func (h *Handler) writeJson(w http.ResponseWriter, v interface{}) {
	if b, e := json.Marshal(v); e != nil {
		h.internalError(w, e)
	} else {
		w.Header().Set("Content-Type", mimeJson)
		w.Write(b)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, e *Error) {
	if b, err := json.Marshal(e); err != nil {
		h.internalError(w, err)
	} else {
		w.Header().Set("Content-Type", mimeJson)
		w.WriteHeader(e.Code)
		w.Write(b)
	}
}

func (h *Handler) getInfo(w http.ResponseWriter, r *http.Request) {
	h.writeJson(w, h.s.GetInfo())
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	h.writeJson(w, h.s.Roles())
}

func (h *Handler) getRole(w http.ResponseWriter, r *http.Request) {
	role, e := rolevisor.ParseRole(mux.Vars(r)["role"])
	if e != nil {
		h.writeError(w, &Error{http.StatusBadRequest, e.Error()})
		return
	}
	info, e := h.s.Role(role)
	if e != nil {
		h.writeError(w, &Error{http.StatusNotFound, e.Error()})
		return
	}
	h.writeJson(w, info)
}

func parseEtag(s string) (int64, bool) {
	s = strings.TrimPrefix(s, "W/")
	s = strings.Trim(s, `"`)
	if s == "" {
		return 0, false
	}
	v, e := strconv.ParseInt(s, 10, 64)
	return v, e == nil
}

func (h *Handler) getLog(w http.ResponseWriter, r *http.Request) {
	last, cond := parseEtag(r.Header.Get("If-None-Match"))
	if cond {
		if secs, e := strconv.Atoi(r.Header.Get(PollTimeHeader)); e == nil && secs > 0 {
			if secs > MaxPollTime {
				secs = MaxPollTime
			}
			h.s.WatchLog(last, time.Duration(secs)*time.Second)
		}
	}
	recs, id := h.s.GetLog(last)
	w.Header().Set("Etag", `"`+strconv.FormatInt(id, 10)+`"`)
	if cond && recs == nil {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	if recs == nil {
		recs = []rolevisor.LogRecord{}
	}
	h.writeJson(w, recs)
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	h.r.ServeHTTP(w, req)
}

// NewHandler returns the status handler for s.  If metrics is not nil it
// is mounted at /metrics.
func NewHandler(s *rolevisor.Supervisor, metrics http.Handler) *Handler {
	r := mux.NewRouter()
	h := &Handler{s: s, r: r}
	r.HandleFunc("/", h.getInfo).Methods("GET")
	r.HandleFunc("/roles", h.listRoles).Methods("GET")
	r.HandleFunc("/roles/{role}", h.getRole).Methods("GET")
	r.HandleFunc("/log", h.getLog).Methods("GET")
	if metrics != nil {
		r.Handle("/metrics", metrics).Methods("GET")
	}
	return h
}
