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

package codeless

import (
	"fmt"
	"strings"

	"dopamine.dev/swizzle/apis"
)

// Kind identifies the call shape of an instrumented method and selects the
// donor implementation that wraps it.
//
// The textual forms are the sender tokens used in action ids and are stable:
// they are produced by remote configuration and MUST NOT change spelling.
type Kind int

const (
	// NoParam wraps an action that takes no arguments.
	NoParam Kind = iota
	// TapActionWithSender wraps a gesture action receiving its recognizer.
	TapActionWithSender
	// CollectionDidSelect wraps a collection view selection callback.
	CollectionDidSelect
	// ViewControllerDidAppear is recorded but never injected; appearance is
	// observed through the view controller lifecycle instead.
	ViewControllerDidAppear
)

// String returns the sender token for k, or "Unknown(<n>)".
func (k Kind) String() string {
	switch k {
	case NoParam:
		return "noParamAction"
	case TapActionWithSender:
		return "tapInitWithTarget"
	case CollectionDidSelect:
		return "collectionDidSelect"
	case ViewControllerDidAppear:
		return "viewControllerDidAppear"
	default:
		return fmt.Sprintf("Unknown(%d)", k)
	}
}

// ParseKind parses a sender token. Matching is exact after trimming, since
// tokens come from machine-generated action ids.
func ParseKind(s string) (Kind, error) {
	switch strings.TrimSpace(s) {
	case "noParamAction":
		return NoParam, nil
	case "tapInitWithTarget":
		return TapActionWithSender, nil
	case "collectionDidSelect":
		return CollectionDidSelect, nil
	case "viewControllerDidAppear":
		return ViewControllerDidAppear, nil
	case "":
		return NoParam, fmt.Errorf("codeless: empty swizzle kind")
	default:
		return NoParam, fmt.Errorf("codeless: unknown swizzle kind %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	switch k {
	case NoParam, TapActionWithSender, CollectionDidSelect, ViewControllerDidAppear:
		return []byte(k.String()), nil
	default:
		return nil, fmt.Errorf("codeless: cannot marshal unknown kind %d", k)
	}
}

// UnmarshalText implements encoding.TextUnmarshaler. On failure *k is left
// unchanged.
func (k *Kind) UnmarshalText(text []byte) error {
	v, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// donorSelector returns the reinforcer selector wrapping methods of kind k.
// ViewControllerDidAppear has none.
func (k Kind) donorSelector() (apis.Selector, bool) {
	switch k {
	case NoParam:
		return "reinforceMethodWithoutParams", true
	case TapActionWithSender:
		return "reinforceMethodTapWithSender:", true
	case CollectionDidSelect:
		return "reinforceCollectionSelection:didSelectItemAtIndexPath:", true
	default:
		return "", false
	}
}
