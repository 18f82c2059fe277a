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

package helper

import (
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"dopamine.dev/swizzle/apis"
	"dopamine.dev/swizzle/utils/hierarchy"
)

var (
	// ErrNilClass is returned when a required class is nil.
	ErrNilClass = errors.New("swizzle(helper): nil class provided")
	// ErrDonorNotFound is returned when the donor class does not itself
	// define the donor selector.
	ErrDonorNotFound = errors.New("swizzle(helper): donor does not define selector")
	// ErrMethodNotFound is returned by Exchange when a selector resolves
	// nowhere in a class's hierarchy.
	ErrMethodNotFound = errors.New("swizzle(helper): selector not found in hierarchy")
	// ErrMutationFailed wraps a dispatch-table mutation the registry refused.
	ErrMutationFailed = errors.New("swizzle(helper): dispatch mutation failed")
)

// Option configures a Helper.
type Option func(*Helper)

// WithLogger sets the logger for injection traces.
func WithLogger(l *zap.Logger) Option {
	return func(h *Helper) {
		if l != nil {
			h.log = l
		}
	}
}

// New constructs a Helper operating on reg.
func New(reg apis.Registry, cfg apis.Config, opts ...Option) *Helper {
	h := &Helper{reg: reg, cfg: cfg, log: zap.NewNop()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Helper answers hierarchy queries over a Registry and patches its dispatch
// tables. It holds no state of its own beyond the registry it is bound to.
type Helper struct {
	reg apis.Registry
	cfg apis.Config
	log *zap.Logger
}

// Ensure Helper implements apis.Interceptor.
var _ apis.Interceptor = (*Helper)(nil)

// Registry returns the registry the helper operates on.
func (h *Helper) Registry() apis.Registry { return h.reg }

// InstanceOverridesSelector reports whether c itself defines sel. A
// selector c merely inherits does not count.
func (h *Helper) InstanceOverridesSelector(c apis.Class, sel apis.Selector) bool {
	if c == nil {
		return false
	}
	_, ok := h.reg.MethodOf(c, sel)
	return ok
}

// Subclasses returns every registered class whose ancestry includes parent,
// excluding parent, in registration order. The registry is consulted on
// every call.
func (h *Helper) Subclasses(parent apis.Class) []apis.Class {
	if parent == nil {
		return nil
	}
	var out []apis.Class
	for _, c := range h.reg.Classes() {
		if hierarchy.IsSubclassOf(c, parent) {
			out = append(out, c)
		}
	}
	return out
}

// ClassWithProtocolInHierarchy searches the subclass tree rooted at search,
// search included, and returns the first class that itself declares p.
//
// Children are visited in registration order; Config.SearchOrder decides
// between breadth-first and depth-first. The whole tree is searched: the
// registry refuses chains deeper than Config.MaxDepth. When several classes
// conform the winner is deterministic but carries no further meaning.
func (h *Helper) ClassWithProtocolInHierarchy(search apis.Class, p apis.Protocol) (apis.Class, bool) {
	if search == nil {
		return nil, false
	}
	children := h.childIndex()

	var found apis.Class
	visit := func(c apis.Class) bool {
		if c.ConformsTo(p) {
			found = c
			return true
		}
		return false
	}
	switch h.cfg.SearchOrder {
	case apis.DepthFirst:
		h.depthFirst(search, children, visit)
	default:
		h.breadthFirst(search, children, visit)
	}

	if found == nil {
		h.log.Debug("no class conforms to protocol",
			zap.String("root", search.Name()),
			zap.String("protocol", string(p)),
		)
		return nil, false
	}
	return found, true
}

// childIndex maps each class to its direct subclasses in registration order.
func (h *Helper) childIndex() map[apis.Class][]apis.Class {
	idx := make(map[apis.Class][]apis.Class)
	for _, c := range h.reg.Classes() {
		if s := c.Superclass(); s != nil {
			idx[s] = append(idx[s], c)
		}
	}
	return idx
}

// breadthFirst visits root's tree level by level until visit returns true.
func (h *Helper) breadthFirst(root apis.Class, children map[apis.Class][]apis.Class, visit func(apis.Class) bool) bool {
	level := []apis.Class{root}
	for len(level) > 0 {
		var next []apis.Class
		for _, c := range level {
			if visit(c) {
				return true
			}
			next = append(next, children[c]...)
		}
		level = next
	}
	return false
}

// depthFirst visits c, then each child subtree in order, until visit
// returns true.
func (h *Helper) depthFirst(c apis.Class, children map[apis.Class][]apis.Class, visit func(apis.Class) bool) bool {
	if visit(c) {
		return true
	}
	for _, child := range children[c] {
		if h.depthFirst(child, children, visit) {
			return true
		}
	}
	return false
}

// InjectSelector binds donor's implementation of donorSel at target's
// targetSel slot. Afterwards sending targetSel to a target instance runs the
// donor implementation, and sending donorSel runs whatever targetSel did
// before, which is how the donor chains to the original.
//
// If target only inherits targetSel, a forwarding stub is added first so
// the swapped-out original still dispatches to the inherited implementation
// (or does nothing when there is none). With Config.StubInherited off, the
// donor implementation is added at targetSel with nothing to chain to.
//
// A donor selector may be bound at most once along any superclass chain.
// Injecting where an ancestor or a subclass already carries donorSel is
// refused: the donor would send donorSel back into its own slot and never
// reach an original.
//
// The mutation is process-wide and cannot be undone through the helper.
func (h *Helper) InjectSelector(donor apis.Class, donorSel apis.Selector, target apis.Class, targetSel apis.Selector) error {
	if donor == nil || target == nil {
		return ErrNilClass
	}
	imp, ok := h.reg.MethodOf(donor, donorSel)
	if !ok {
		h.log.Debug("donor selector not found",
			zap.String("donor", donor.Name()),
			zap.String("selector", string(donorSel)),
		)
		return fmt.Errorf("%w: %s.%s", ErrDonorNotFound, donor.Name(), donorSel)
	}

	if donorSel == targetSel {
		return fmt.Errorf("%w: %s.%s: donor and target selectors collide", ErrMutationFailed, target.Name(), targetSel)
	}

	// A class injecting one of its own methods only needs an in-place swap.
	if donor == target {
		if !h.InstanceOverridesSelector(target, targetSel) {
			if err := h.addStub(target, targetSel); err != nil {
				return err
			}
		}
		return h.mutate(h.reg.ExchangeMethods(target, targetSel, donorSel), target, targetSel)
	}
	if err := h.checkUnpatched(donor, donorSel, target); err != nil {
		return err
	}

	existing := h.InstanceOverridesSelector(target, targetSel)
	if !existing {
		if !h.cfg.StubInherited {
			return h.mutate(h.reg.AddMethod(target, targetSel, imp), target, targetSel)
		}
		if err := h.addStub(target, targetSel); err != nil {
			return err
		}
	}
	if err := h.reg.AddMethod(target, donorSel, imp); err != nil {
		return h.mutate(err, target, donorSel)
	}
	if err := h.reg.ExchangeMethods(target, targetSel, donorSel); err != nil {
		return h.mutate(err, target, targetSel)
	}

	h.log.Debug("selector injected",
		zap.String("donor", donor.Name()),
		zap.String("donor_selector", string(donorSel)),
		zap.String("target", target.Name()),
		zap.String("target_selector", string(targetSel)),
		zap.Bool("stubbed", !existing),
	)
	return nil
}

// checkUnpatched refuses an injection of donorSel into target when the
// selector is already bound on target, an ancestor other than donor, or a
// subclass other than donor.
func (h *Helper) checkUnpatched(donor apis.Class, donorSel apis.Selector, target apis.Class) error {
	if _, def, ok := h.reg.Resolve(target, donorSel); ok && def != donor {
		return fmt.Errorf("%w: %s.%s: already injected on %s", ErrMutationFailed, target.Name(), donorSel, def.Name())
	}
	for _, sub := range h.Subclasses(target) {
		if sub != donor && h.InstanceOverridesSelector(sub, donorSel) {
			return fmt.Errorf("%w: %s.%s: already injected on subclass %s", ErrMutationFailed, target.Name(), donorSel, sub.Name())
		}
	}
	return nil
}

// addStub binds a forwarding stub at (target, sel) that dispatches sel from
// target's superclass at call time, in the registry of the receiving
// instance.
func (h *Helper) addStub(target apis.Class, sel apis.Selector) error {
	name := target.Name()
	stub := func(self apis.Object, args ...any) any {
		got, err := self.SendSuper(name, sel, args...)
		if err != nil {
			return nil
		}
		return got
	}
	return h.mutate(h.reg.AddMethod(target, sel, stub), target, sel)
}

// mutate wraps a registry refusal as ErrMutationFailed.
func (h *Helper) mutate(err error, c apis.Class, sel apis.Selector) error {
	if err == nil {
		return nil
	}
	h.log.Debug("dispatch mutation refused",
		zap.String("class", c.Name()),
		zap.String("selector", string(sel)),
		zap.Error(err),
	)
	return fmt.Errorf("%w: %s.%s: %w", ErrMutationFailed, c.Name(), sel, err)
}

// InjectToProperClass injects swizzled's swizzledSel at originalSel on the
// first candidate that implements the intercepted capability, falling back
// to delegate when none does.
//
// A candidate qualifies when it itself defines originalSel, or declares a
// protocol whose selector set contains originalSel. Candidates are usually
// Subclasses(delegate).
func (h *Helper) InjectToProperClass(swizzledSel, originalSel apis.Selector, candidates []apis.Class, swizzled, delegate apis.Class) error {
	target := delegate
	for _, c := range candidates {
		if c != nil && h.implements(c, originalSel) {
			target = c
			break
		}
	}
	if target == nil {
		return ErrNilClass
	}
	return h.InjectSelector(swizzled, swizzledSel, target, originalSel)
}

// implements reports whether c defines sel or declares a protocol requiring it.
func (h *Helper) implements(c apis.Class, sel apis.Selector) bool {
	if h.InstanceOverridesSelector(c, sel) {
		return true
	}
	for _, p := range c.Protocols() {
		if sels, ok := h.reg.ProtocolSelectors(p); ok && slices.Contains(sels, sel) {
			return true
		}
	}
	return false
}

// Exchange swaps the implementations that originalSel and swizzledSel
// resolve to, on the classes that define them. Either may be inherited, in
// which case the defining ancestor is patched for all of its subclasses.
func (h *Helper) Exchange(original apis.Class, originalSel apis.Selector, swizzled apis.Class, swizzledSel apis.Selector) error {
	if original == nil || swizzled == nil {
		return ErrNilClass
	}
	origIMP, origDef, ok := h.reg.Resolve(original, originalSel)
	if !ok {
		return fmt.Errorf("%w: %s.%s", ErrMethodNotFound, original.Name(), originalSel)
	}
	swzIMP, swzDef, ok := h.reg.Resolve(swizzled, swizzledSel)
	if !ok {
		return fmt.Errorf("%w: %s.%s", ErrMethodNotFound, swizzled.Name(), swizzledSel)
	}

	if origDef == swzDef {
		return h.mutate(h.reg.ExchangeMethods(origDef, originalSel, swizzledSel), origDef, originalSel)
	}
	if _, err := h.reg.ReplaceMethod(origDef, originalSel, swzIMP); err != nil {
		return h.mutate(err, origDef, originalSel)
	}
	if _, err := h.reg.ReplaceMethod(swzDef, swizzledSel, origIMP); err != nil {
		return h.mutate(err, swzDef, swizzledSel)
	}
	h.log.Debug("methods exchanged",
		zap.String("original", origDef.Name()+"."+string(originalSel)),
		zap.String("swizzled", swzDef.Name()+"."+string(swizzledSel)),
	)
	return nil
}
