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

// Registry is the live class registry and its per-class dispatch tables.
//
// All query methods reflect the registry at call time. Mutations are
// process-wide: every instance of the mutated class, and of subclasses that
// do not define the selector themselves, observes the change. Once sealed,
// a registry rejects every mutation.
type Registry interface {
	// Register creates a class. The superclass must already be registered.
	Register(spec ClassSpec) (Class, error)
	// Lookup returns a class by name.
	Lookup(name string) (Class, bool)
	// Classes returns the registered classes in registration order.
	Classes() []Class
	// Count returns the number of registered classes.
	Count() int
	// Reset clears all classes and protocols and unseals the registry.
	Reset()

	// DeclareProtocol declares p with its required selectors. Re-declaring
	// p with the same selector set is a no-op.
	DeclareProtocol(p Protocol, sels ...Selector) error
	// ProtocolSelectors returns the selector set of a declared protocol.
	ProtocolSelectors(p Protocol) ([]Selector, bool)
	// Protocols returns every declared protocol, sorted.
	Protocols() []Protocol

	// MethodOf returns the implementation c itself binds to sel, ignoring
	// anything inherited.
	MethodOf(c Class, sel Selector) (IMP, bool)
	// Resolve walks c's superclass chain and returns the first binding of
	// sel together with the class that defines it.
	Resolve(c Class, sel Selector) (IMP, Class, bool)
	// AddMethod binds imp to sel on c. It fails if c itself already defines
	// sel; an inherited definition does not block the add.
	AddMethod(c Class, sel Selector, imp IMP) error
	// ReplaceMethod binds imp to sel on c and returns the previous own
	// binding, if any.
	ReplaceMethod(c Class, sel Selector, imp IMP) (IMP, error)
	// ExchangeMethods swaps the implementations c itself binds to a and b.
	ExchangeMethods(c Class, a, b Selector) error

	// New creates an instance of c.
	New(c Class) (Object, error)

	// Seal ends the instrumentation phase.
	Seal()
	// Sealed reports whether the registry rejects mutations.
	Sealed() bool
}
