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

package apis

// Selector names an invocable method slot, independent of the class that
// defines it.
type Selector string

// Protocol names a declared contract: a set of selectors a conforming class
// promises to implement. Conformance is declarative, never inferred.
type Protocol string

// IMP is a method implementation bound to a (Class, Selector) pair in a
// dispatch table. self is the receiving instance; implementations that chain
// to a swapped-out original do so by sending the donor selector to self.
type IMP func(self Object, args ...any) any

// Object is a live instance of a registered class.
type Object interface {
	// Class returns the instance's class.
	Class() Class
	// Send dispatches sel on the instance by walking the class's superclass
	// chain until a defining class is found.
	Send(sel Selector, args ...any) (any, error)
	// SendSuper dispatches sel starting at the superclass of the class
	// named from, which must appear in the instance's own ancestry.
	// Forwarding stubs use it to reach inherited implementations through
	// whichever registry owns the instance.
	SendSuper(from string, sel Selector, args ...any) (any, error)
}

// Class is a read-only descriptor of a registered class. Descriptors are
// borrowed views into the registry; the dispatch table itself is mutated only
// through Registry.
type Class interface {
	// Name returns the registered class name.
	Name() string
	// Superclass returns the direct superclass, or nil for a root class.
	Superclass() Class
	// Protocols returns the protocols the class itself declares, in
	// declaration order. Inherited conformance is not included.
	Protocols() []Protocol
	// ConformsTo reports whether the class itself declares p.
	ConformsTo(p Protocol) bool
	// Methods returns the selectors the class itself defines, sorted.
	Methods() []Selector
}

// ClassSpec describes a class to register.
type ClassSpec struct {
	// Name is the unique class name.
	Name string
	// Superclass is the name of an already registered class, or "" for a root.
	Superclass string
	// Protocols lists declared conformance. Each must be declared first.
	Protocols []Protocol
	// Methods seeds the class's own dispatch table.
	Methods map[Selector]IMP
}
