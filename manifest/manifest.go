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

// Package manifest describes a class hierarchy in YAML and applies it to a
// registry. Generated implementations return a trace of the form
// "Class.selector", so dispatch and injection results can be read off the
// value a Send returns.
//
// A manifest looks like:
//
//	protocols:
//	  UIApplicationDelegate: [applicationDidFinishLaunching]
//	classes:
//	  - name: NSObject
//	  - name: Delegate
//	    super: NSObject
//	  - name: AppDelegateImpl
//	    super: Delegate
//	    protocols: [UIApplicationDelegate]
//	    methods: [applicationDidFinishLaunching]
//	  - name: MyCategory
//	    super: NSObject
//	    methods:
//	      - selector: swizzled_applicationDidFinishLaunching
//	        chain: swizzled_applicationDidFinishLaunching
//
// A method with a chain target sends that selector to self after tracing
// itself and appends the result, which is how a donor reaches the original
// it replaced. A method chaining to its own selector recurses without end
// if it is sent while still bound at that selector, so such donors should
// only be reached through a target they were injected into.
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"dopamine.dev/swizzle/apis"
)

var (
	// ErrEmptyManifest is returned when Parse is given no data.
	ErrEmptyManifest = errors.New("swizzle(manifest): empty manifest")
	// ErrInvalid wraps every validation failure.
	ErrInvalid = errors.New("swizzle(manifest): invalid manifest")
)

// Manifest is a declarative class hierarchy.
type Manifest struct {
	Protocols map[string][]string `yaml:"protocols"`
	Classes   []Class             `yaml:"classes"`
}

// Class describes one class. Super must name a class listed earlier.
type Class struct {
	Name      string   `yaml:"name"`
	Super     string   `yaml:"super,omitempty"`
	Protocols []string `yaml:"protocols,omitempty"`
	Methods   []Method `yaml:"methods,omitempty"`
}

// Method describes one own method. In YAML it is either a bare selector or
// a mapping with selector and chain keys.
type Method struct {
	Selector string `yaml:"selector"`
	Chain    string `yaml:"chain,omitempty"`
}

// UnmarshalYAML accepts the scalar shorthand.
func (m *Method) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		m.Selector = node.Value
		m.Chain = ""
		return nil
	}
	type plain Method
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*m = Method(p)
	return nil
}

// Parse decodes and validates a manifest. Unknown keys are rejected.
func Parse(data []byte) (*Manifest, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyManifest
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var m Manifest
	if err := dec.Decode(&m); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("swizzle(manifest): decode: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Load reads and parses the manifest at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("swizzle(manifest): read %s: %w", path, err)
	}
	return Parse(data)
}

// Validate checks the manifest without touching a registry. Every problem
// is reported; the result combines them and each wraps ErrInvalid.
func (m *Manifest) Validate() error {
	var errs error
	invalid := func(format string, args ...any) {
		errs = multierr.Append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	for p, sels := range m.Protocols {
		if p == "" {
			invalid("protocol with empty name")
		}
		for _, s := range sels {
			if s == "" {
				invalid("protocol %s: empty selector", p)
			}
		}
	}

	seen := make(map[string]bool, len(m.Classes))
	for i, c := range m.Classes {
		if c.Name == "" {
			invalid("class #%d: empty name", i)
			continue
		}
		if seen[c.Name] {
			invalid("class %s: declared twice", c.Name)
		}
		if c.Super != "" && !seen[c.Super] {
			invalid("class %s: superclass %s must be declared before it", c.Name, c.Super)
		}
		for _, p := range c.Protocols {
			if _, ok := m.Protocols[p]; !ok {
				invalid("class %s: unknown protocol %s", c.Name, p)
			}
		}
		sels := make(map[string]bool, len(c.Methods))
		for _, meth := range c.Methods {
			switch {
			case meth.Selector == "":
				invalid("class %s: method with empty selector", c.Name)
			case sels[meth.Selector]:
				invalid("class %s: method %s declared twice", c.Name, meth.Selector)
			}
			sels[meth.Selector] = true
		}
		seen[c.Name] = true
	}
	return errs
}

// Apply declares the manifest's protocols and registers its classes in
// order. It stops at the first registry failure; classes registered before
// it stay registered.
func (m *Manifest) Apply(reg apis.Registry) error {
	if err := m.Validate(); err != nil {
		return err
	}

	names := make([]string, 0, len(m.Protocols))
	for p := range m.Protocols {
		names = append(names, p)
	}
	slices.Sort(names)
	for _, p := range names {
		sels := make([]apis.Selector, len(m.Protocols[p]))
		for i, s := range m.Protocols[p] {
			sels[i] = apis.Selector(s)
		}
		if err := reg.DeclareProtocol(apis.Protocol(p), sels...); err != nil {
			return fmt.Errorf("swizzle(manifest): protocol %s: %w", p, err)
		}
	}

	for _, c := range m.Classes {
		spec := apis.ClassSpec{
			Name:       c.Name,
			Superclass: c.Super,
			Methods:    make(map[apis.Selector]apis.IMP, len(c.Methods)),
		}
		for _, p := range c.Protocols {
			spec.Protocols = append(spec.Protocols, apis.Protocol(p))
		}
		for _, meth := range c.Methods {
			spec.Methods[apis.Selector(meth.Selector)] = Trace(c.Name, meth)
		}
		if _, err := reg.Register(spec); err != nil {
			return fmt.Errorf("swizzle(manifest): class %s: %w", c.Name, err)
		}
	}
	return nil
}

// Trace builds the implementation for meth declared on class. It returns
// "class.selector", followed by " > " and the chained result when meth has
// a chain target. A chain that cannot be dispatched appends the error text.
// A chain naming meth's own selector is only safe once the implementation
// has been moved to another slot by an injection.
func Trace(class string, meth Method) apis.IMP {
	label := class + "." + meth.Selector
	if meth.Chain == "" {
		return func(apis.Object, ...any) any { return label }
	}
	chain := apis.Selector(meth.Chain)
	return func(self apis.Object, args ...any) any {
		next, err := self.Send(chain, args...)
		if err != nil {
			return label + " > !" + err.Error()
		}
		if next == nil {
			return label
		}
		return fmt.Sprintf("%s > %v", label, next)
	}
}
