/*
Copyright 2026 The Waggle Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package stats is a wrapper for expvar. It adds a Help string to every
// variable and a hook that a monitoring backend can register to receive
// every published variable exactly once.
package stats

import (
	"expvar"
	"sync"

	"github.com/spf13/pflag"
)

// StatsBackend is the selected monitoring backend. Empty means expvar only.
var StatsBackend string

// RegisterFlags installs the stats flags on the given FlagSet.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVar(&StatsBackend, "stats-backend", "", "monitoring backend to publish variables to (prometheus or empty for expvar only)")
}

// Variable is the minimal interface that each type in this package
// implements.
type Variable interface {
	expvar.Var
	Help() string
}

// NewVarHook is the type of a hook to export variables in a different way.
type NewVarHook func(name string, v expvar.Var)

type varGroup struct {
	sync.Mutex
	vars       map[string]expvar.Var
	newVarHook NewVarHook
}

func (vg *varGroup) register(nvh NewVarHook) {
	vg.Lock()
	defer vg.Unlock()
	if vg.newVarHook != nil {
		panic("you can only register one backend")
	}
	if nvh == nil {
		return
	}
	vg.newVarHook = nvh
	// Call the hook on variables that were published before the backend
	// registered.
	for name, v := range vg.vars {
		nvh(name, v)
	}
}

func (vg *varGroup) publish(name string, v expvar.Var) {
	vg.Lock()
	defer vg.Unlock()

	expvar.Publish(name, v)
	if vg.newVarHook != nil {
		vg.newVarHook(name, v)
	} else {
		vg.vars[name] = v
	}
}

var defaultVarGroup = varGroup{vars: make(map[string]expvar.Var)}

// Register allows a monitoring backend to receive all variables published
// before and after the call. Only one backend can register.
func Register(nvh NewVarHook) {
	defaultVarGroup.register(nvh)
}

// Publish is expvar.Publish+hook.
func Publish(name string, v expvar.Var) {
	publish(name, v)
}

func publish(name string, v expvar.Var) {
	defaultVarGroup.publish(name, v)
}
