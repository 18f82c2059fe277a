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
	"slices"
	"sync"

	"dopamine.dev/swizzle/apis"
)

// class is a registered class. Its method table is guarded by the owning
// registry's mutex.
type class struct {
	// reg is the owning registry; nil after the registry is Reset.
	reg *registry
	// mu is the owning registry's mutex, kept past Reset.
	mu *sync.RWMutex
	// name is the unique class name.
	name string
	// super is the direct superclass, nil for a root.
	super *class
	// protocols lists own declared conformance in declaration order.
	protocols []apis.Protocol
	// methods is the class's own dispatch table.
	methods map[apis.Selector]apis.IMP
}

// Ensure class implements apis.Class.
var _ apis.Class = (*class)(nil)

// Name returns the registered class name.
func (c *class) Name() string { return c.name }

// String implements fmt.Stringer.
func (c *class) String() string { return c.name }

// Superclass returns the direct superclass, or nil for a root class.
func (c *class) Superclass() apis.Class {
	if c.super == nil {
		return nil
	}
	return c.super
}

// Protocols returns own declared conformance.
func (c *class) Protocols() []apis.Protocol {
	return slices.Clone(c.protocols)
}

// ConformsTo reports whether the class itself declares p.
func (c *class) ConformsTo(p apis.Protocol) bool {
	return slices.Contains(c.protocols, p)
}

// Methods returns the selectors the class itself defines, sorted.
func (c *class) Methods() []apis.Selector {
	c.mu.RLock()
	out := make([]apis.Selector, 0, len(c.methods))
	for sel := range c.methods {
		out = append(out, sel)
	}
	c.mu.RUnlock()
	slices.Sort(out)
	return out
}

// object is an instance of a registered class.
type object struct {
	cls *class
}

// Ensure object implements apis.Object.
var _ apis.Object = (*object)(nil)

// Class returns the instance's class.
func (o *object) Class() apis.Class { return o.cls }

// Send resolves sel against the current dispatch tables and invokes it
// outside the registry lock, so implementations may send further messages.
func (o *object) Send(sel apis.Selector, args ...any) (any, error) {
	o.cls.mu.RLock()
	r := o.cls.reg
	var imp apis.IMP
	if r != nil {
		imp, _ = r.resolveLocked(o.cls, sel)
	}
	o.cls.mu.RUnlock()

	if imp == nil {
		return nil, &UnrecognizedSelectorError{Class: o.cls.name, Selector: sel}
	}
	return imp(o, args...), nil
}

// SendSuper resolves sel from the superclass of the ancestor named from.
func (o *object) SendSuper(from string, sel apis.Selector, args ...any) (any, error) {
	o.cls.mu.RLock()
	r := o.cls.reg
	var imp apis.IMP
	if r != nil {
		c := o.cls
		for c != nil && c.name != from {
			c = c.super
		}
		if c != nil {
			imp, _ = r.resolveLocked(c.super, sel)
		}
	}
	o.cls.mu.RUnlock()

	if imp == nil {
		return nil, &UnrecognizedSelectorError{Class: from, Selector: sel, Super: true}
	}
	return imp(o, args...), nil
}

// UnrecognizedSelectorError reports a message no class in the chain handles.
type UnrecognizedSelectorError struct {
	Class    string
	Selector apis.Selector
	// Super marks a lookup that started above Class.
	Super bool
}

// Error implements error.
func (e *UnrecognizedSelectorError) Error() string {
	recv := e.Class
	if e.Super {
		recv = "super(" + e.Class + ")"
	}
	return "swizzle(registry): -[" + recv + " " + string(e.Selector) + "]: unrecognized selector"
}

// Unwrap lets errors.Is match ErrUnrecognizedSelector.
func (e *UnrecognizedSelectorError) Unwrap() error { return ErrUnrecognizedSelector }
