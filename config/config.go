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

package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"dopamine.dev/swizzle/apis"
)

const (
	// DefaultMaxDepth represents the default for MaxDepth.
	// Real class hierarchies rarely exceed a dozen levels.
	DefaultMaxDepth = 64
	// DefaultSearchOrder represents the default for SearchOrder.
	DefaultSearchOrder = apis.BreadthFirst
	// DefaultStubInherited represents the default for StubInherited.
	// When true, inherited behavior survives injection onto an inherited selector.
	DefaultStubInherited = true
)

// ErrEmptyConfig is returned when a configuration document is empty.
var ErrEmptyConfig = errors.New("swizzle(config): empty configuration document")

// NewConfig constructs an apis.Config from the given options.
func NewConfig(opts ...Option) apis.Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	// Ensure MaxDepth is valid.
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = DefaultMaxDepth
	}
	return cfg
}

// DefaultConfig is the default configuration used when none is provided.
func DefaultConfig() apis.Config {
	return apis.Config{
		MaxDepth:      DefaultMaxDepth,
		SearchOrder:   DefaultSearchOrder,
		StubInherited: DefaultStubInherited,
	}
}

// Option is a functional option that mutates an apis.Config during construction.
type Option func(*apis.Config)

// WithMaxDepth sets the MaxDepth option.
// A non-positive value resets to the default.
func WithMaxDepth(max int) Option {
	return func(c *apis.Config) {
		if max <= 0 {
			c.MaxDepth = DefaultMaxDepth
			return
		}
		c.MaxDepth = max
	}
}

// WithSearchOrder sets the SearchOrder option.
func WithSearchOrder(o apis.SearchOrder) Option {
	return func(c *apis.Config) {
		c.SearchOrder = o
	}
}

// WithStubInherited sets the StubInherited option.
func WithStubInherited(stub bool) Option {
	return func(c *apis.Config) {
		c.StubInherited = stub
	}
}

// Parse decodes a YAML configuration document. Keys that are absent keep
// their default values.
func Parse(data []byte) (apis.Config, error) {
	if len(data) == 0 {
		return apis.Config{}, ErrEmptyConfig
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return apis.Config{}, fmt.Errorf("swizzle(config): decode: %w", err)
	}
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = DefaultMaxDepth
	}
	return cfg, nil
}

// Load reads and decodes the YAML configuration file at path.
func Load(path string) (apis.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return apis.Config{}, fmt.Errorf("swizzle(config): read %s: %w", path, err)
	}
	return Parse(data)
}
