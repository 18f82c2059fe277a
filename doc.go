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

// Package swizzle provides a process-wide method-interception service over
// an explicit class registry.
//
// An instrumentation layer often needs to observe callbacks on classes it
// does not own: an application delegate's launch hook, a payment queue
// observer, a gesture recognizer's action. swizzle models the host runtime
// as a Registry of classes, each with a superclass, a set of declared
// protocols and its own dispatch table (selector to implementation), and
// patches those tables in place. Every instance of a patched class, and of
// subclasses that do not override the selector, observes the new behavior.
//
// # Design
//
// The core of swizzle is a read-mostly global snapshot (state). The
// snapshot holds four things:
//
//   - Config: the class depth cap (MaxDepth), the protocol search order
//     (SearchOrder) and injection behavior (StubInherited).
//
//   - Registry: the live class registry and its dispatch tables. Classes
//     are registered once, in order, and queried through borrowed
//     descriptors (apis.Class).
//
//   - Interceptor: the stateless operations over the registry:
//     1. InstanceOverridesSelector: does the class itself define sel,
//     as opposed to inheriting it?
//     2. ClassWithProtocolInHierarchy: which class in a subclass tree
//     declares a protocol?
//     3. Subclasses: every registered descendant of a class, computed
//     from the live registry on each call.
//     4. InjectSelector: bind a donor implementation at a target slot,
//     keeping the previous behavior reachable at the donor selector.
//     5. InjectToProperClass: pick the concrete implementer among
//     candidates and inject there.
//
//   - Builder: a pluggable factory that constructs Registry and
//     Interceptor instances for a Config, migrating the previous registry.
//
// # Injection
//
// After InjectSelector(donor, "swizzled_didLaunch", target, "didLaunch"),
// sending "didLaunch" to a target instance runs the donor implementation,
// and sending "swizzled_didLaunch" runs what "didLaunch" did before. The
// donor implementation therefore chains to the original like this:
//
//	func(self apis.Object, args ...any) any {
//	    orig, _ := self.Send("swizzled_didLaunch", args...)
//	    record("didLaunch")
//	    return orig
//	}
//
// If the target only inherits "didLaunch", a forwarding stub is added to
// the target first so the swapped-out original still reaches the inherited
// implementation instead of silently losing it. The stub dispatches through
// apis.Object.SendSuper, so it always resolves in the receiver's registry.
//
// A donor selector is bound at most once along a superclass chain. Patching
// a class whose ancestor or subclass already carries the donor selector is
// refused, since the donor would then send its selector back into itself.
//
// # Instrumentation phase
//
// The registry is meant to be populated and patched once, on a single
// goroutine, during process startup. Seal marks the end of that phase:
// every later mutation is refused, while lookups and message sends keep
// working. The registry is internally synchronized, so late mutation is
// race-free, but the order of concurrent patches to the same (class,
// selector) pair is unspecified.
//
// # Failure reporting
//
// Nothing here panics on a missing class or selector. The package-level
// functions return false (or nil) for "not found" and "mutation refused";
// callers skip that instrumentation point and let the host carry on. The
// helper package exposes the underlying errors for callers that want them.
//
// # Concurrency model
//
// Reads of the snapshot are wait-free: they load the current *state
// atomically. Writers (SetAll, SetConfig, SetRegistry, SetBuilder,
// SetLogger) take a short build mutex, assemble a new state and publish it
// via an atomic pointer swap. SetLogger and a SetConfig that keeps MaxDepth
// reuse the current registry; the others may migrate it, after which class
// descriptors must be looked up again.
package swizzle
