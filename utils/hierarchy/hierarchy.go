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

package hierarchy

import (
	"errors"

	"dopamine.dev/swizzle/apis"
	"dopamine.dev/swizzle/config"
)

var (
	// ErrNilClass is returned when a nil apis.Class is provided.
	ErrNilClass = errors.New("hierarchy: nil class provided")
	// ErrDepthExceeded indicates that a superclass chain is longer than the
	// configured MaxDepth.
	ErrDepthExceeded = errors.New("hierarchy: superclass chain exceeds max depth")
)

// Ancestry returns c's superclass chain, nearest first, excluding c itself.
//
// The walk stops at a root class. If more than maxDepth superclasses are
// visited, ErrDepthExceeded is returned along with the chain collected so far.
// If maxDepth <= 0, DefaultMaxDepth is used.
func Ancestry(c apis.Class, maxDepth int) ([]apis.Class, error) {
	if c == nil {
		return nil, ErrNilClass
	}
	if maxDepth <= 0 {
		maxDepth = config.DefaultMaxDepth
	}

	var chain []apis.Class
	for s := c.Superclass(); s != nil; s = s.Superclass() {
		if len(chain) == maxDepth {
			return chain, ErrDepthExceeded
		}
		chain = append(chain, s)
	}
	return chain, nil
}

// IsSubclassOf reports whether parent appears in c's superclass chain.
// A class is not a subclass of itself. The walk is unbounded; registered
// chains are acyclic and capped at registration time.
func IsSubclassOf(c, parent apis.Class) bool {
	if c == nil || parent == nil {
		return false
	}
	for s := c.Superclass(); s != nil; s = s.Superclass() {
		if s == parent {
			return true
		}
	}
	return false
}

// Depth returns the number of superclasses above c.
func Depth(c apis.Class, maxDepth int) (int, error) {
	chain, err := Ancestry(c, maxDepth)
	return len(chain), err
}
