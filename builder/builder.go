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

package builder

import (
	"go.uber.org/zap"

	"dopamine.dev/swizzle/apis"
	"dopamine.dev/swizzle/helper"
	"dopamine.dev/swizzle/registry"
)

// New creates and returns a new instance of an apis.Builder.
// A nil logger falls back to a no-op logger.
func New(log *zap.Logger) apis.Builder {
	if log == nil {
		log = zap.NewNop()
	}
	return &builder{log: log}
}

// builder wires registries and helpers with a shared logger.
type builder struct {
	log *zap.Logger
}

// BuildRegistry builds and returns a new apis.Registry based on the provided
// configuration and pre-existing registry. If a pre-existing registry is
// provided, its protocols, classes and current dispatch entries are copied
// into the new registry in registration order. Patched entries carry over as
// patched; the seal does not.
func (b *builder) BuildRegistry(cfg apis.Config, prev apis.Registry) apis.Registry {
	nreg := registry.New(cfg, registry.WithLogger(b.log.Named("registry")))
	if prev == nil {
		return nreg
	}

	for _, p := range prev.Protocols() {
		sels, _ := prev.ProtocolSelectors(p)
		if err := nreg.DeclareProtocol(p, sels...); err != nil {
			b.log.Warn("protocol not migrated", zap.String("protocol", string(p)), zap.Error(err))
		}
	}
	for _, c := range prev.Classes() {
		spec := apis.ClassSpec{
			Name:      c.Name(),
			Protocols: c.Protocols(),
			Methods:   make(map[apis.Selector]apis.IMP),
		}
		if s := c.Superclass(); s != nil {
			spec.Superclass = s.Name()
		}
		for _, sel := range c.Methods() {
			if imp, ok := prev.MethodOf(c, sel); ok {
				spec.Methods[sel] = imp
			}
		}
		if _, err := nreg.Register(spec); err != nil {
			b.log.Warn("class not migrated", zap.String("class", spec.Name), zap.Error(err))
		}
	}
	return nreg
}

// BuildInterceptor builds and returns a new apis.Interceptor bound to reg.
func (b *builder) BuildInterceptor(cfg apis.Config, reg apis.Registry) apis.Interceptor {
	return helper.New(reg, cfg, helper.WithLogger(b.log.Named("helper")))
}
