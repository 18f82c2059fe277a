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
	"fmt"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"dopamine.dev/swizzle/apis"
)

const (
	// DefaultDonorClass is the name of the class holding the reinforcer
	// implementations.
	DefaultDonorClass = "DopamineReinforcer"
	// IntegrationCodeless is the integration mode that enables registration.
	IntegrationCodeless = "codeless"
)

var (
	// ErrInvalidClass is returned when an action id names an unknown class.
	ErrInvalidClass = errors.New("codeless: invalid class")
	// ErrNoMethod is returned when the target class cannot respond to the action.
	ErrNoMethod = errors.New("codeless: class does not respond to action")
)

// Reinforcer is notified after an instrumented method has run.
type Reinforcer interface {
	Reinforce(m Method, self apis.Object)
}

// ReinforcerFunc adapts a function to Reinforcer.
type ReinforcerFunc func(m Method, self apis.Object)

// Reinforce calls f(m, self).
func (f ReinforcerFunc) Reinforce(m Method, self apis.Object) { f(m, self) }

// Option configures a Registrar.
type Option func(*Registrar)

// WithLogger sets the registrar logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Registrar) {
		if l != nil {
			r.log = l
		}
	}
}

// WithIntegrationMode sets the integration mode. Only IntegrationCodeless
// registers anything; other modes make Register a logged no-op.
func WithIntegrationMode(mode string) Option {
	return func(r *Registrar) { r.mode = mode }
}

// WithDonorClass overrides the donor class name.
func WithDonorClass(name string) Option {
	return func(r *Registrar) {
		if name != "" {
			r.donorName = name
		}
	}
}

// Registrar instruments methods named by action ids. Each target class is
// instrumented at most once; later action ids for the same target, or for a
// subclass of an instrumented target, are ignored. Instrumenting an ancestor
// of an already instrumented class fails.
type Registrar struct {
	reg       apis.Registry
	ic        apis.Interceptor
	rf        Reinforcer
	log       *zap.Logger
	mode      string
	donorName string
	donor     apis.Class

	mu         sync.Mutex
	registered map[string]string // target class -> action
}

// NewRegistrar registers the donor class in reg and returns a Registrar
// that injects through ic and reports to rf.
func NewRegistrar(reg apis.Registry, ic apis.Interceptor, rf Reinforcer, opts ...Option) (*Registrar, error) {
	r := &Registrar{
		reg:        reg,
		ic:         ic,
		rf:         rf,
		log:        zap.NewNop(),
		mode:       IntegrationCodeless,
		donorName:  DefaultDonorClass,
		registered: make(map[string]string),
	}
	for _, opt := range opts {
		opt(r)
	}

	methods := make(map[apis.Selector]apis.IMP)
	for _, k := range []Kind{NoParam, TapActionWithSender, CollectionDidSelect} {
		sel, _ := k.donorSelector()
		methods[sel] = r.wrap(k, sel)
	}
	donor, err := reg.Register(apis.ClassSpec{Name: r.donorName, Methods: methods})
	if err != nil {
		return nil, fmt.Errorf("codeless: register donor: %w", err)
	}
	r.donor = donor
	return r, nil
}

// wrap builds the donor implementation for kind k: run the original, then
// reinforce.
func (r *Registrar) wrap(k Kind, sel apis.Selector) apis.IMP {
	return func(self apis.Object, args ...any) any {
		orig, err := self.Send(sel, args...)
		if err != nil {
			r.log.Error("original implementation unreachable", zap.String("selector", string(sel)), zap.Error(err))
		}
		r.attempt(k, self)
		return orig
	}
}

// attempt reports the call on self to the reinforcer. The registered target
// is looked up from self's class upwards, so subclass instances report
// against the instrumented ancestor.
func (r *Registrar) attempt(k Kind, self apis.Object) {
	for c := self.Class(); c != nil; c = c.Superclass() {
		if action, ok := r.Lookup(c.Name()); ok {
			if r.rf != nil {
				r.rf.Reinforce(Method{Sender: k.String(), Target: c.Name(), Action: action}, self)
			}
			return
		}
	}
	r.log.Error("no method found", zap.String("class", self.Class().Name()))
}

// Donor returns the donor class.
func (r *Registrar) Donor() apis.Class { return r.donor }

// Lookup returns the action registered for target.
func (r *Registrar) Lookup(target string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	action, ok := r.registered[target]
	return action, ok
}

// Register instruments m.Target's m.Action.
func (r *Registrar) Register(m Method) error {
	if r.mode != IntegrationCodeless {
		r.log.Debug("codeless integration mode disabled", zap.String("mode", r.mode))
		return nil
	}
	cls, ok := r.reg.Lookup(m.Target)
	if !ok {
		return fmt.Errorf("%w <%s>", ErrInvalidClass, m.Target)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, done := r.registered[m.Target]; done {
		return nil
	}
	// Instances of a subclass already report through an instrumented
	// ancestor.
	for s := cls.Superclass(); s != nil; s = s.Superclass() {
		if _, done := r.registered[s.Name()]; done {
			r.log.Debug("ancestor already instrumented",
				zap.String("class", m.Target),
				zap.String("ancestor", s.Name()),
			)
			return nil
		}
	}
	if _, _, ok := r.reg.Resolve(cls, m.Selector()); !ok {
		return fmt.Errorf("%w: %s.%s", ErrNoMethod, m.Target, m.Action)
	}
	kind, err := m.Kind()
	if err != nil {
		return err
	}
	if sel, inject := kind.donorSelector(); inject {
		if err := r.ic.InjectSelector(r.donor, sel, cls, m.Selector()); err != nil {
			return fmt.Errorf("codeless: instrument %s: %w", m.ActionID(), err)
		}
	}

	r.registered[m.Target] = m.Action
	r.log.Debug("swizzled", zap.String("class", m.Target), zap.String("method", m.Action), zap.Stringer("kind", kind))
	return nil
}

// RegisterAll parses and registers every action id, continuing past
// failures. The returned error combines every failure.
func (r *Registrar) RegisterAll(actionIDs []string) error {
	var errs error
	for _, id := range actionIDs {
		m, err := ParseActionID(id)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", id, err))
			continue
		}
		errs = multierr.Append(errs, r.Register(m))
	}
	return errs
}
