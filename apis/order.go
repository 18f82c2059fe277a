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

import (
	"fmt"
	"strings"
)

// SearchOrder controls how a subclass tree is traversed.
//
// # Overview
//
// SearchOrder is a small enumerated type that selects the visiting order
// used when a class hierarchy is searched for the first class declaring a
// protocol. Children of a node are always visited in registration order;
// SearchOrder only decides whether siblings or descendants come first.
//
// # Values
//
//   - BreadthFirst: visit every class at depth n before depth n+1.
//   - DepthFirst: visit a class's whole subtree before its next sibling.
//
// # Contract
//
//   - Both orders are deterministic for a given registry.
//   - When several classes conform, the returned one depends on the order.
//     Callers that care about which implementer wins MUST pin the order
//     explicitly rather than rely on the default.
type SearchOrder int

const (
	// BreadthFirst visits shallower classes first. This is the default.
	BreadthFirst SearchOrder = iota

	// DepthFirst visits a class's descendants before its later siblings.
	DepthFirst
)

// String returns a human-readable representation of the SearchOrder value.
//
// For unknown values, String returns "Unknown(<n>)" and never panics, so
// corrupted values can still be surfaced in logs.
func (o SearchOrder) String() string {
	switch o {
	case BreadthFirst:
		return "breadth"
	case DepthFirst:
		return "depth"
	default:
		return fmt.Sprintf("Unknown(%d)", o)
	}
}

// ParseSearchOrder parses a textual representation of a SearchOrder.
//
// Accepted (case-insensitive, whitespace-trimmed) inputs:
//
//   - "breadth", "bfs", "breadth-first" -> BreadthFirst
//   - "depth", "dfs", "depth-first"     -> DepthFirst
//
// Any other input yields BreadthFirst and a non-nil error.
func ParseSearchOrder(s string) (SearchOrder, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return BreadthFirst, fmt.Errorf("swizzle: empty search order")
	}

	switch strings.ToLower(trimmed) {
	case "breadth", "bfs", "breadth-first":
		return BreadthFirst, nil
	case "depth", "dfs", "depth-first":
		return DepthFirst, nil
	default:
		return BreadthFirst, fmt.Errorf("swizzle: unknown search order %q", s)
	}
}

// MustParseSearchOrder is like ParseSearchOrder but panics on invalid input.
// Use it only for hard-coded values.
func MustParseSearchOrder(s string) SearchOrder {
	o, err := ParseSearchOrder(s)
	if err != nil {
		panic(err)
	}
	return o
}

// MarshalText implements encoding.TextMarshaler.
// Unknown values are rejected instead of being persisted as "Unknown(n)".
func (o SearchOrder) MarshalText() ([]byte, error) {
	switch o {
	case BreadthFirst, DepthFirst:
		return []byte(o.String()), nil
	default:
		return nil, fmt.Errorf("swizzle: cannot marshal unknown search order %d", o)
	}
}

// UnmarshalText implements encoding.TextUnmarshaler. On failure *o is left
// unchanged.
func (o *SearchOrder) UnmarshalText(text []byte) error {
	v, err := ParseSearchOrder(string(text))
	if err != nil {
		return err
	}
	*o = v
	return nil
}
