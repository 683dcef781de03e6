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

// Package config reads the INI file that lists the roles to supervise.
//
// The default section (keys before any section header, or under
// [DEFAULT]) describes the balancer.  Every other section describes a
// worker, numbered from 1 in file order.  Recognized keys are
//
//	max-process-memory-size          resident byte ceiling
//	max-process-memory-size-percent  ceiling as a percentage of total memory
//
// A key set in the default section also applies to every worker section
// that does not set it; sections inherit from nothing else.  Zero, like
// an absent key, means no limit.  A section name may appear only once.
package config

import (
	"fmt"

	"github.com/rolevisor/rolevisor"
	"gopkg.in/ini.v1"
)

const (
	KeyMemorySize    = "max-process-memory-size"
	KeyMemoryPercent = "max-process-memory-size-percent"
)

// Section is the configuration of one role.
type Section struct {
	Name   string
	Limits rolevisor.Limits
}

// Config is a parsed configuration file.
type Config struct {
	Balancer Section
	Workers  []Section
}

// Load reads the configuration file at path.
func Load(path string) (*Config, error) {
	return parse(path)
}

// Parse reads a configuration from memory.
func Parse(data []byte) (*Config, error) {
	return parse(data)
}

func parse(src interface{}) (*Config, error) {
	f, e := ini.LoadSources(ini.LoadOptions{
		InsensitiveKeys: true,
		// Duplicates are kept apart so that they can be refused below,
		// instead of being merged into one worker.
		AllowNonUniqueSections: true,
	}, src)
	if e != nil {
		return nil, e
	}

	def := keys{}
	for _, sec := range f.Sections() {
		if sec.Name() == ini.DefaultSection {
			for _, k := range sec.Keys() {
				def[k.Name()] = k
			}
		}
	}

	c := &Config{}
	if c.Balancer, e = section(ini.DefaultSection, def, nil); e != nil {
		return nil, e
	}
	seen := map[string]bool{}
	for _, sec := range f.Sections() {
		name := sec.Name()
		if name == ini.DefaultSection {
			continue
		}
		if seen[name] {
			return nil, fmt.Errorf("section %s: duplicate section", name)
		}
		seen[name] = true
		own := keys{}
		for _, k := range sec.Keys() {
			own[k.Name()] = k
		}
		w, e := section(name, own, def)
		if e != nil {
			return nil, e
		}
		c.Workers = append(c.Workers, w)
	}
	return c, nil
}

// keys are the keys a section sets itself, by name.  ini.v1 would
// otherwise resolve a missing key in a dotted section such as [mqtt.2]
// from [mqtt], which is not how sections relate here.
type keys map[string]*ini.Key

// lookup finds name in own, falling back to def.
func lookup(own, def keys, name string) *ini.Key {
	if k, ok := own[name]; ok {
		return k
	}
	if k, ok := def[name]; ok {
		return k
	}
	return nil
}

func section(name string, own, def keys) (Section, error) {
	s := Section{Name: name}
	if k := lookup(own, def, KeyMemorySize); k != nil {
		v, e := k.Uint64()
		if e != nil {
			return s, fmt.Errorf("section %s: %s: %q is not a byte count",
				s.Name, KeyMemorySize, k.String())
		}
		s.Limits.Absolute = v
	}
	if k := lookup(own, def, KeyMemoryPercent); k != nil {
		v, e := k.Int()
		if e != nil || v < 0 || v > 100 {
			return s, fmt.Errorf("section %s: %s: %q is not a percentage",
				s.Name, KeyMemoryPercent, k.String())
		}
		s.Limits.Percent = v
	}
	return s, nil
}

// Roles turns the configuration into role specs: the balancer runs
// balancer as is, and worker i runs worker followed by --index=i.
func (c *Config) Roles(balancer, worker []string) ([]rolevisor.RoleSpec, error) {
	if len(balancer) == 0 {
		return nil, fmt.Errorf("balancer: %w", rolevisor.ErrNoArgv)
	}
	if len(worker) == 0 && len(c.Workers) != 0 {
		return nil, fmt.Errorf("worker: %w", rolevisor.ErrNoArgv)
	}
	specs := make([]rolevisor.RoleSpec, 0, len(c.Workers)+1)
	specs = append(specs, rolevisor.NewRoleSpec(rolevisor.Balancer,
		c.Balancer.Name, balancer, c.Balancer.Limits))
	for i, w := range c.Workers {
		specs = append(specs, rolevisor.NewRoleSpec(rolevisor.Worker(i+1),
			w.Name, worker, w.Limits))
	}
	return specs, nil
}
