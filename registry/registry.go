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

package registry

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"dopamine.dev/swizzle/apis"
	"dopamine.dev/swizzle/config"
	"dopamine.dev/swizzle/utils/hierarchy"
)

var (
	// ErrEmptyName is returned when a class or protocol has no name.
	ErrEmptyName = errors.New("swizzle(registry): empty name provided")
	// ErrDuplicateClass is returned when a class name is already registered.
	ErrDuplicateClass = errors.New("swizzle(registry): class already registered")
	// ErrUnknownSuperclass is returned when a superclass is not registered.
	ErrUnknownSuperclass = errors.New("swizzle(registry): unknown superclass")
	// ErrUnknownProtocol is returned when a class declares an undeclared protocol.
	ErrUnknownProtocol = errors.New("swizzle(registry): unknown protocol")
	// ErrConflictingProtocol indicates an attempt to re-declare a protocol
	// with a different selector set.
	ErrConflictingProtocol = errors.New("swizzle(registry): conflicting protocol declaration")
	// ErrForeignClass is returned when a class descriptor does not belong to
	// this registry.
	ErrForeignClass = errors.New("swizzle(registry): class not owned by this registry")
	// ErrNilIMP is returned when a nil implementation is bound.
	ErrNilIMP = errors.New("swizzle(registry): nil implementation")
	// ErrMethodExists is returned by AddMethod when the class itself already
	// defines the selector.
	ErrMethodExists = errors.New("swizzle(registry): class already defines selector")
	// ErrMethodNotFound is returned when a class does not define a selector.
	ErrMethodNotFound = errors.New("swizzle(registry): class does not define selector")
	// ErrSealed is returned by every mutation once the registry is sealed.
	ErrSealed = errors.New("swizzle(registry): registry is sealed")
	// ErrUnrecognizedSelector is returned by Send when nothing in the
	// superclass chain defines the selector.
	ErrUnrecognizedSelector = errors.New("swizzle(registry): unrecognized selector")
	// ErrDepthExceeded is returned by Register when the new class would sit
	// more than MaxDepth superclasses below its root.
	ErrDepthExceeded = errors.New("swizzle(registry): superclass chain exceeds max depth")
)

// Option configures a registry.
type Option func(*registry)

// WithLogger sets the logger used for mutation traces.
func WithLogger(l *zap.Logger) Option {
	return func(r *registry) {
		if l != nil {
			r.log.Store(l)
		}
	}
}

// New constructs an empty Registry. Only MaxDepth is used here: it caps
// how deep a registered class may sit, so every chain walk is finite and
// complete.
func New(cfg apis.Config, opts ...Option) apis.Registry {
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = config.DefaultMaxDepth
	}
	r := &registry{
		cfg:       cfg,
		byName:    make(map[string]*class),
		protocols: make(map[apis.Protocol][]apis.Selector),
	}
	r.log.Store(zap.NewNop())
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// registry is the default Registry implementation.
type registry struct {
	// cfg caps class depth.
	cfg apis.Config
	// log receives debug traces for every mutation.
	log atomic.Pointer[zap.Logger]
	// mu guards classes, byName, protocols and every class's method table.
	mu sync.RWMutex
	// classes holds classes in registration order.
	classes []*class
	// byName indexes classes by name.
	byName map[string]*class
	// protocols maps a declared protocol to its sorted selector set.
	protocols map[apis.Protocol][]apis.Selector
	// sealed marks the end of the instrumentation phase.
	sealed atomic.Bool
}

// Ensure registry implements apis.Registry.
var _ apis.Registry = (*registry)(nil)

// Register creates a class from spec.
func (r *registry) Register(spec apis.ClassSpec) (apis.Class, error) {
	if spec.Name == "" {
		return nil, ErrEmptyName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed.Load() {
		return nil, ErrSealed
	}
	if _, ok := r.byName[spec.Name]; ok {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateClass, spec.Name)
	}

	c := &class{reg: r, mu: &r.mu, name: spec.Name, methods: make(map[apis.Selector]apis.IMP, len(spec.Methods))}
	if spec.Superclass != "" {
		s, ok := r.byName[spec.Superclass]
		if !ok {
			return nil, fmt.Errorf("%w: %s (superclass of %s)", ErrUnknownSuperclass, spec.Superclass, spec.Name)
		}
		c.super = s
		if _, err := hierarchy.Ancestry(c, r.cfg.MaxDepth); err != nil {
			return nil, fmt.Errorf("%w: %s (max %d): %w", ErrDepthExceeded, spec.Name, r.cfg.MaxDepth, err)
		}
	}
	for _, p := range spec.Protocols {
		if _, ok := r.protocols[p]; !ok {
			return nil, fmt.Errorf("%w: %s (declared by %s)", ErrUnknownProtocol, p, spec.Name)
		}
		if !slices.Contains(c.protocols, p) {
			c.protocols = append(c.protocols, p)
		}
	}
	for sel, imp := range spec.Methods {
		if imp == nil {
			return nil, fmt.Errorf("%w: %s.%s", ErrNilIMP, spec.Name, sel)
		}
		c.methods[sel] = imp
	}

	r.classes = append(r.classes, c)
	r.byName[c.name] = c
	r.log.Load().Debug("class registered",
		zap.String("class", c.name),
		zap.String("superclass", spec.Superclass),
		zap.Int("methods", len(c.methods)),
	)
	return c, nil
}

// Lookup returns a class by name.
func (r *registry) Lookup(name string) (apis.Class, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byName[name]
	if !ok {
		return nil, false
	}
	return c, true
}

// Classes returns the registered classes in registration order.
func (r *registry) Classes() []apis.Class {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]apis.Class, len(r.classes))
	for i, c := range r.classes {
		out[i] = c
	}
	return out
}

// Count returns the number of registered classes.
func (r *registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.classes)
}

// Reset clears all classes and protocols and unseals the registry.
// Descriptors handed out before Reset become foreign to this registry.
func (r *registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.classes {
		c.reg = nil
	}
	r.classes = nil
	r.byName = make(map[string]*class)
	r.protocols = make(map[apis.Protocol][]apis.Selector)
	r.sealed.Store(false)
}

// DeclareProtocol declares p with its required selectors.
func (r *registry) DeclareProtocol(p apis.Protocol, sels ...apis.Selector) error {
	if p == "" {
		return ErrEmptyName
	}
	set := slices.Clone(sels)
	slices.Sort(set)
	set = slices.Compact(set)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed.Load() {
		return ErrSealed
	}
	if old, ok := r.protocols[p]; ok {
		if slices.Equal(old, set) {
			return nil
		}
		return fmt.Errorf("%w: %s", ErrConflictingProtocol, p)
	}
	r.protocols[p] = set
	return nil
}

// ProtocolSelectors returns the selector set of a declared protocol.
func (r *registry) ProtocolSelectors(p apis.Protocol) ([]apis.Selector, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sels, ok := r.protocols[p]
	if !ok {
		return nil, false
	}
	return slices.Clone(sels), true
}

// Protocols returns every declared protocol, sorted.
func (r *registry) Protocols() []apis.Protocol {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]apis.Protocol, 0, len(r.protocols))
	for p := range r.protocols {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}

// MethodOf returns the implementation c itself binds to sel.
func (r *registry) MethodOf(c apis.Class, sel apis.Selector) (apis.IMP, bool) {
	own, err := r.own(c)
	if err != nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	imp, ok := own.methods[sel]
	return imp, ok
}

// Resolve walks c's superclass chain and returns the first binding of sel.
func (r *registry) Resolve(c apis.Class, sel apis.Selector) (apis.IMP, apis.Class, bool) {
	own, err := r.own(c)
	if err != nil {
		return nil, nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	imp, def := r.resolveLocked(own, sel)
	if def == nil {
		return nil, nil, false
	}
	return imp, def, true
}

// resolveLocked walks the chain starting at c. Caller must hold r.mu.
// Chains are acyclic since a superclass is registered before its subclasses.
func (r *registry) resolveLocked(c *class, sel apis.Selector) (apis.IMP, *class) {
	for ; c != nil; c = c.super {
		if imp, ok := c.methods[sel]; ok {
			return imp, c
		}
	}
	return nil, nil
}

// AddMethod binds imp to sel on c unless c itself already defines sel.
func (r *registry) AddMethod(c apis.Class, sel apis.Selector, imp apis.IMP) error {
	if imp == nil {
		return ErrNilIMP
	}
	own, err := r.own(c)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed.Load() {
		return ErrSealed
	}
	if _, ok := own.methods[sel]; ok {
		return fmt.Errorf("%w: %s.%s", ErrMethodExists, own.name, sel)
	}
	own.methods[sel] = imp
	r.log.Load().Debug("method added", zap.String("class", own.name), zap.String("selector", string(sel)))
	return nil
}

// ReplaceMethod binds imp to sel on c and returns the previous own binding.
func (r *registry) ReplaceMethod(c apis.Class, sel apis.Selector, imp apis.IMP) (apis.IMP, error) {
	if imp == nil {
		return nil, ErrNilIMP
	}
	own, err := r.own(c)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed.Load() {
		return nil, ErrSealed
	}
	prev := own.methods[sel]
	own.methods[sel] = imp
	r.log.Load().Debug("method replaced",
		zap.String("class", own.name),
		zap.String("selector", string(sel)),
		zap.Bool("had_previous", prev != nil),
	)
	return prev, nil
}

// ExchangeMethods swaps the implementations c itself binds to a and b.
func (r *registry) ExchangeMethods(c apis.Class, a, b apis.Selector) error {
	own, err := r.own(c)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed.Load() {
		return ErrSealed
	}
	ia, ok := own.methods[a]
	if !ok {
		return fmt.Errorf("%w: %s.%s", ErrMethodNotFound, own.name, a)
	}
	ib, ok := own.methods[b]
	if !ok {
		return fmt.Errorf("%w: %s.%s", ErrMethodNotFound, own.name, b)
	}
	own.methods[a], own.methods[b] = ib, ia
	r.log.Load().Debug("methods exchanged",
		zap.String("class", own.name),
		zap.String("a", string(a)),
		zap.String("b", string(b)),
	)
	return nil
}

// New creates an instance of c.
func (r *registry) New(c apis.Class) (apis.Object, error) {
	own, err := r.own(c)
	if err != nil {
		return nil, err
	}
	return &object{cls: own}, nil
}

// SetLogger replaces the logger used for mutation traces. A nil logger is
// ignored.
func (r *registry) SetLogger(l *zap.Logger) {
	if l != nil {
		r.log.Store(l)
	}
}

// Seal ends the instrumentation phase.
func (r *registry) Seal() {
	if r.sealed.CompareAndSwap(false, true) {
		r.log.Load().Debug("registry sealed", zap.Int("classes", r.Count()))
	}
}

// Sealed reports whether the registry rejects mutations.
func (r *registry) Sealed() bool {
	return r.sealed.Load()
}

// own converts c into a class owned by r.
func (r *registry) own(c apis.Class) (*class, error) {
	cls, ok := c.(*class)
	if !ok || cls == nil {
		return nil, ErrForeignClass
	}
	r.mu.RLock()
	owner := cls.reg
	r.mu.RUnlock()
	if owner != r {
		return nil, ErrForeignClass
	}
	return cls, nil
}
