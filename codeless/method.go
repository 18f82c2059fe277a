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
	"errors"
	"strings"

	"dopamine.dev/swizzle/apis"
)

// ErrInvalidActionID is returned when an action id does not have exactly
// three dash-separated parts.
var ErrInvalidActionID = errors.New("codeless: action id must be sender-target-action")

// Method identifies one instrumentable method: the kind of call (Sender),
// the class that receives it (Target) and its selector (Action).
type Method struct {
	Sender string
	Target string
	Action string
}

// ParseActionID parses "sender-target-action".
func ParseActionID(id string) (Method, error) {
	parts := strings.Split(id, "-")
	if len(parts) != 3 {
		return Method{}, ErrInvalidActionID
	}
	for _, p := range parts {
		if p == "" {
			return Method{}, ErrInvalidActionID
		}
	}
	return Method{Sender: parts[0], Target: parts[1], Action: parts[2]}, nil
}

// ActionID returns the "sender-target-action" form of m.
func (m Method) ActionID() string {
	return m.Sender + "-" + m.Target + "-" + m.Action
}

// Kind parses m.Sender.
func (m Method) Kind() (Kind, error) {
	return ParseKind(m.Sender)
}

// Selector returns m.Action as a selector.
func (m Method) Selector() apis.Selector {
	return apis.Selector(m.Action)
}
