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

// Interceptor inspects a Registry and patches its dispatch tables.
// Not-found and mutation failures are reported as values, never panics.
type Interceptor interface {
	// InstanceOverridesSelector reports whether c itself defines sel.
	InstanceOverridesSelector(c Class, sel Selector) bool
	// ClassWithProtocolInHierarchy returns the first class in the subclass
	// tree rooted at search that declares p.
	ClassWithProtocolInHierarchy(search Class, p Protocol) (Class, bool)
	// Subclasses returns every registered descendant of parent.
	Subclasses(parent Class) []Class
	// InjectSelector binds donor's donorSel implementation at target's
	// targetSel slot, keeping the previous behavior reachable at donorSel.
	InjectSelector(donor Class, donorSel Selector, target Class, targetSel Selector) error
	// InjectToProperClass picks the candidate that implements originalSel
	// (falling back to delegate) and injects swizzled's swizzledSel there.
	InjectToProperClass(swizzledSel, originalSel Selector, candidates []Class, swizzled, delegate Class) error
	// Exchange swaps the resolved implementations of two methods.
	Exchange(original Class, originalSel Selector, swizzled Class, swizzledSel Selector) error
}
