/*
   Copyright 2025 The DIRPX Authors.

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

package swizzle

import (
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"dopamine.dev/swizzle/apis"
	"dopamine.dev/swizzle/builder"
	"dopamine.dev/swizzle/config"
)

// init initializes the global state.
func init() {
	s := &state{cfg: config.DefaultConfig()}
	b := builder.New(Logger())
	s.reg = b.BuildRegistry(s.cfg, nil)
	s.hlp = b.BuildInterceptor(s.cfg, s.reg)
	s.bld = b
	st.Store(s)
}

var (
	// ErrNilRegistry is returned when a builder returns a nil registry.
	ErrNilRegistry = errors.New("swizzle: builder returned nil registry")
	// ErrNilInterceptor is returned when a builder returns a nil interceptor.
	ErrNilInterceptor = errors.New("swizzle: builder returned nil interceptor")
)

// InstanceOverridesSelector reports whether c itself, not an ancestor,
// defines sel in the global registry.
func InstanceOverridesSelector(c apis.Class, sel apis.Selector) bool {
	return st.Load().hlp.InstanceOverridesSelector(c, sel)
}

// ClassWithProtocolInHierarchy returns the first class in the subclass tree
// rooted at search that declares p, or nil when none does.
func ClassWithProtocolInHierarchy(search apis.Class, p apis.Protocol) apis.Class {
	c, ok := st.Load().hlp.ClassWithProtocolInHierarchy(search, p)
	if !ok {
		return nil
	}
	return c
}

// Subclasses returns every registered descendant of parent.
func Subclasses(parent apis.Class) []apis.Class {
	return st.Load().hlp.Subclasses(parent)
}

// InjectSelector binds donor's donorSel implementation at target's
// targetSel slot. It returns false when the donor method is missing or the
// registry refuses the mutation; callers should skip that instrumentation
// point and carry on.
func InjectSelector(donor apis.Class, donorSel apis.Selector, target apis.Class, targetSel apis.Selector) bool {
	return report("inject selector", st.Load().hlp.InjectSelector(donor, donorSel, target, targetSel))
}

// InjectToProperClass injects swizzled's swizzledSel at originalSel on the
// candidate implementing originalSel, or on delegate when none does.
func InjectToProperClass(swizzledSel, originalSel apis.Selector, candidates []apis.Class, swizzled, delegate apis.Class) bool {
	return report("inject to proper class", st.Load().hlp.InjectToProperClass(swizzledSel, originalSel, candidates, swizzled, delegate))
}

// Exchange swaps the resolved implementations of two methods.
func Exchange(original apis.Class, originalSel apis.Selector, swizzled apis.Class, swizzledSel apis.Selector) bool {
	return report("exchange", st.Load().hlp.Exchange(original, originalSel, swizzled, swizzledSel))
}

// report logs err and converts it into the boolean outcome.
func report(op string, err error) bool {
	if err != nil {
		Logger().Debug("instrumentation skipped", zap.String("op", op), zap.Error(err))
		return false
	}
	return true
}

// Seal ends the instrumentation phase of the global registry. Every later
// dispatch mutation fails; lookups and message sends are unaffected.
func Seal() {
	st.Load().reg.Seal()
}

// Sealed reports whether the global registry has left the instrumentation phase.
func Sealed() bool {
	return st.Load().reg.Sealed()
}

// SetAll explicitly sets all global state components.
//
// Nil arguments leave the corresponding component unchanged, except that a
// nil registry or interceptor is rebuilt by the (possibly new) builder.
// This is mainly used by tests to get a clean deterministic state.
func SetAll(cfg *apis.Config, reg apis.Registry, hlp apis.Interceptor, bld apis.Builder) {
	buildMu.Lock()
	defer buildMu.Unlock()

	// Load the old state.
	old := st.Load()

	ncfg := old.cfg
	if cfg != nil {
		ncfg = *cfg
	}
	nbld := old.bld
	if bld != nil {
		nbld = bld
	}
	nreg := reg
	if nreg == nil {
		nreg = nbld.BuildRegistry(ncfg, nil)
	}
	nhlp := hlp
	if nhlp == nil {
		nhlp = nbld.BuildInterceptor(ncfg, nreg)
	}

	publish(ncfg, nreg, nhlp, nbld)
}

// Config returns the global configuration.
func Config() apis.Config {
	return st.Load().cfg
}

// SetConfig sets the global configuration to cfg and builds a new
// interceptor. The registry is kept unless MaxDepth changes, in which case
// the builder migrates it and class descriptors obtained earlier must be
// looked up again.
func SetConfig(cfg apis.Config) {
	buildMu.Lock()
	defer buildMu.Unlock()

	old := st.Load()
	nreg := old.reg
	if cfg.MaxDepth != old.cfg.MaxDepth {
		nreg = old.bld.BuildRegistry(cfg, old.reg)
	}
	publish(cfg, nreg, old.bld.BuildInterceptor(cfg, nreg), old.bld)
}

// Registry returns the global registry.
func Registry() apis.Registry {
	return st.Load().reg
}

// SetRegistry sets the global registry to reg and rebuilds the interceptor.
func SetRegistry(reg apis.Registry) {
	if reg == nil {
		return
	}

	buildMu.Lock()
	defer buildMu.Unlock()

	old := st.Load()
	publish(old.cfg, reg, old.bld.BuildInterceptor(old.cfg, reg), old.bld)
}

// Interceptor returns the global interceptor.
func Interceptor() apis.Interceptor {
	return st.Load().hlp
}

// Builder returns the global builder.
func Builder() apis.Builder {
	return st.Load().bld
}

// SetBuilder sets the global builder to b and rebuilds the registry
// (migrating the current one) and the interceptor with it.
func SetBuilder(b apis.Builder) {
	if b == nil {
		return
	}

	buildMu.Lock()
	defer buildMu.Unlock()

	old := st.Load()
	nreg := b.BuildRegistry(old.cfg, old.reg)
	publish(old.cfg, nreg, b.BuildInterceptor(old.cfg, nreg), b)
}

// publish validates and atomically stores a new snapshot.
// Caller must hold buildMu.
func publish(cfg apis.Config, reg apis.Registry, hlp apis.Interceptor, bld apis.Builder) {
	// Ensure non-nil reg and hlp.
	if reg == nil {
		panic(ErrNilRegistry)
	}
	if hlp == nil {
		panic(ErrNilInterceptor)
	}
	st.Store(&state{cfg: cfg, reg: reg, hlp: hlp, bld: bld})
}

// buildMu serializes writers (reconfigurations/swaps) so we never publish
// partially-built snapshots.
var buildMu sync.Mutex

// st is the global state.
var st atomic.Pointer[state]

// state is the global state snapshot.
// Immutable snapshot published atomically via st.Store; never mutate fields
// of a published state. Writers create a new state and swap it atomically.
type state struct {
	// cfg is the global configuration.
	cfg apis.Config
	// reg is the global registry.
	reg apis.Registry
	// hlp is the global interceptor.
	hlp apis.Interceptor
	// bld is the global builder.
	bld apis.Builder
}
