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

// Config carries read-only knobs for hierarchy walks and injection.
// It is passed by value and should be treated as immutable by implementations.
type Config struct {
	// MaxDepth caps how many superclasses a registered class may have.
	// Registration beyond it fails; walks over admitted classes are never
	// cut short.
	MaxDepth int `yaml:"max_depth"`

	// SearchOrder selects the traversal used when looking for a protocol
	// implementer among subclasses.
	SearchOrder SearchOrder `yaml:"search_order"`

	// StubInherited controls whether injecting onto a selector the target
	// only inherits first adds a forwarding stub, so the swapped-out
	// "original" still reaches the inherited implementation.
	StubInherited bool `yaml:"stub_inherited"`
}
