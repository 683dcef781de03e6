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
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// MemorySampler reads the memory figures the monitor compares against
// the configured limits.
type MemorySampler interface {
	// TotalMemory returns the total physical memory of the host, in bytes.
	TotalMemory() (uint64, error)

	// ResidentMemory returns the resident set size of pid, in bytes.
	ResidentMemory(pid int) (uint64, error)
}

type psSampler struct{}

// NewSampler returns a MemorySampler backed by gopsutil.
func NewSampler() MemorySampler {
	return psSampler{}
}

func (psSampler) TotalMemory() (uint64, error) {
	vm, e := mem.VirtualMemory()
	if e != nil {
		return 0, e
	}
	return vm.Total, nil
}

func (psSampler) ResidentMemory(pid int) (uint64, error) {
	p, e := process.NewProcess(int32(pid))
	if e != nil {
		return 0, e
	}
	mi, e := p.MemoryInfo()
	if e != nil {
		return 0, e
	}
	return mi.RSS, nil
}
