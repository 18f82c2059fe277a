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

package codeless_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"dopamine.dev/swizzle/apis"
	"dopamine.dev/swizzle/codeless"
	"dopamine.dev/swizzle/config"
	"dopamine.dev/swizzle/helper"
	"dopamine.dev/swizzle/registry"
)

func TestKind_RoundTrip(t *testing.T) {
	for _, k := range []codeless.Kind{
		codeless.NoParam,
		codeless.TapActionWithSender,
		codeless.CollectionDidSelect,
		codeless.ViewControllerDidAppear,
	} {
		text, err := k.MarshalText()
		require.NoError(t, err)
		var got codeless.Kind
		require.NoError(t, got.UnmarshalText(text))
		assert.Equal(t, k, got)
	}

	_, err := codeless.Kind(42).MarshalText()
	assert.Error(t, err)
	assert.Equal(t, "Unknown(42)", codeless.Kind(42).String())

	got := codeless.CollectionDidSelect
	assert.Error(t, got.UnmarshalText([]byte("swipe")))
	assert.Equal(t, codeless.CollectionDidSelect, got, "failed unmarshal leaves value unchanged")
	_, err = codeless.ParseKind("  ")
	assert.Error(t, err)
}

func TestParseActionID(t *testing.T) {
	m, err := codeless.ParseActionID("tapInitWithTarget-TaskViewController-didTapDone:")
	require.NoError(t, err)
	assert.Equal(t, codeless.Method{Sender: "tapInitWithTarget", Target: "TaskViewController", Action: "didTapDone:"}, m)
	assert.Equal(t, "tapInitWithTarget-TaskViewController-didTapDone:", m.ActionID())
	k, err := m.Kind()
	require.NoError(t, err)
	assert.Equal(t, codeless.TapActionWithSender, k)

	for _, bad := range []string{"", "a-b", "a-b-c-d", "a--c"} {
		_, err := codeless.ParseActionID(bad)
		assert.ErrorIs(t, err, codeless.ErrInvalidActionID, bad)
	}
}

type recorder struct {
	calls []codeless.Method
}

func (r *recorder) Reinforce(m codeless.Method, _ apis.Object) {
	r.calls = append(r.calls, m)
}

func setup(t *testing.T, opts ...codeless.Option) (apis.Registry, *codeless.Registrar, *recorder, *[]string) {
	t.Helper()
	cfg := config.DefaultConfig()
	reg := registry.New(cfg)
	var trail []string
	_, err := reg.Register(apis.ClassSpec{Name: "UIViewController"})
	require.NoError(t, err)
	_, err = reg.Register(apis.ClassSpec{
		Name:       "TaskViewController",
		Superclass: "UIViewController",
		Methods: map[apis.Selector]apis.IMP{
			"addTask": func(apis.Object, ...any) any {
				trail = append(trail, "addTask")
				return "added"
			},
			"didTapDone:": func(_ apis.Object, args ...any) any {
				trail = append(trail, "didTapDone:")
				return args[0]
			},
		},
	})
	require.NoError(t, err)
	_, err = reg.Register(apis.ClassSpec{Name: "EditTaskViewController", Superclass: "TaskViewController"})
	require.NoError(t, err)

	rec := &recorder{}
	r, err := codeless.NewRegistrar(reg, helper.New(reg, cfg), rec, opts...)
	require.NoError(t, err)
	return reg, r, rec, &trail
}

func send(t *testing.T, reg apis.Registry, class string, sel apis.Selector, args ...any) any {
	t.Helper()
	c, ok := reg.Lookup(class)
	require.True(t, ok)
	obj, err := reg.New(c)
	require.NoError(t, err)
	got, err := obj.Send(sel, args...)
	require.NoError(t, err)
	return got
}

func TestRegistrar_InstrumentsAndReinforces(t *testing.T) {
	reg, r, rec, trail := setup(t)

	require.NoError(t, r.Register(codeless.Method{Sender: "noParamAction", Target: "TaskViewController", Action: "addTask"}))
	action, ok := r.Lookup("TaskViewController")
	require.True(t, ok)
	assert.Equal(t, "addTask", action)

	assert.Equal(t, "added", send(t, reg, "TaskViewController", "addTask"))
	assert.Equal(t, []string{"addTask"}, *trail)
	require.Len(t, rec.calls, 1)
	assert.Equal(t, codeless.Method{Sender: "noParamAction", Target: "TaskViewController", Action: "addTask"}, rec.calls[0])

	// Subclass instances report against the instrumented ancestor.
	send(t, reg, "EditTaskViewController", "addTask")
	require.Len(t, rec.calls, 2)
	assert.Equal(t, "TaskViewController", rec.calls[1].Target)
}

func TestRegistrar_OncePerTarget(t *testing.T) {
	reg, r, rec, _ := setup(t)

	require.NoError(t, r.RegisterAll([]string{
		"tapInitWithTarget-TaskViewController-didTapDone:",
		"noParamAction-TaskViewController-addTask",
	}))

	action, _ := r.Lookup("TaskViewController")
	assert.Equal(t, "didTapDone:", action)

	// addTask was not instrumented.
	send(t, reg, "TaskViewController", "addTask")
	assert.Empty(t, rec.calls)

	// didTapDone: passes its sender through.
	assert.Equal(t, "recognizer", send(t, reg, "TaskViewController", "didTapDone:", "recognizer"))
	require.Len(t, rec.calls, 1)
	assert.Equal(t, "tapInitWithTarget", rec.calls[0].Sender)
}

func TestRegistrar_SubclassOfInstrumentedTarget(t *testing.T) {
	reg, r, rec, trail := setup(t)

	require.NoError(t, r.RegisterAll([]string{
		"noParamAction-TaskViewController-addTask",
		"noParamAction-EditTaskViewController-addTask",
	}))
	_, ok := r.Lookup("EditTaskViewController")
	assert.False(t, ok, "covered by the instrumented ancestor")

	assert.Equal(t, "added", send(t, reg, "EditTaskViewController", "addTask"))
	assert.Equal(t, []string{"addTask"}, *trail)
	require.Len(t, rec.calls, 1)
	assert.Equal(t, "TaskViewController", rec.calls[0].Target)
}

func TestRegistrar_AncestorOfInstrumentedTarget(t *testing.T) {
	reg, r, rec, trail := setup(t)

	require.NoError(t, r.Register(codeless.Method{Sender: "noParamAction", Target: "EditTaskViewController", Action: "addTask"}))
	err := r.Register(codeless.Method{Sender: "noParamAction", Target: "TaskViewController", Action: "addTask"})
	assert.ErrorIs(t, err, helper.ErrMutationFailed)
	_, ok := r.Lookup("TaskViewController")
	assert.False(t, ok)

	assert.Equal(t, "added", send(t, reg, "EditTaskViewController", "addTask"))
	assert.Equal(t, "added", send(t, reg, "TaskViewController", "addTask"))
	assert.Equal(t, []string{"addTask", "addTask"}, *trail)
	require.Len(t, rec.calls, 1)
	assert.Equal(t, "EditTaskViewController", rec.calls[0].Target)
}

func TestRegistrar_ViewControllerDidAppearRecordsOnly(t *testing.T) {
	reg, r, rec, _ := setup(t)

	require.NoError(t, r.Register(codeless.Method{Sender: "viewControllerDidAppear", Target: "TaskViewController", Action: "addTask"}))
	_, ok := r.Lookup("TaskViewController")
	assert.True(t, ok)

	c, _ := reg.Lookup("TaskViewController")
	assert.NotContains(t, c.Methods(), apis.Selector("reinforceMethodWithoutParams"))
	send(t, reg, "TaskViewController", "addTask")
	assert.Empty(t, rec.calls)
}

func TestRegistrar_Errors(t *testing.T) {
	_, r, _, _ := setup(t)

	err := r.RegisterAll([]string{
		"broken",
		"noParamAction-Nope-addTask",
		"noParamAction-TaskViewController-missing",
		"swipe-TaskViewController-addTask",
	})
	require.Error(t, err)
	errs := multierr.Errors(err)
	require.Len(t, errs, 4)
	assert.ErrorIs(t, errs[0], codeless.ErrInvalidActionID)
	assert.ErrorIs(t, errs[1], codeless.ErrInvalidClass)
	assert.ErrorIs(t, errs[2], codeless.ErrNoMethod)
	assert.Contains(t, errs[3].Error(), "unknown swizzle kind")

	_, ok := r.Lookup("TaskViewController")
	assert.False(t, ok)
}

func TestRegistrar_DisabledMode(t *testing.T) {
	reg, r, rec, _ := setup(t, codeless.WithIntegrationMode("manual"))

	require.NoError(t, r.Register(codeless.Method{Sender: "noParamAction", Target: "TaskViewController", Action: "addTask"}))
	_, ok := r.Lookup("TaskViewController")
	assert.False(t, ok)
	send(t, reg, "TaskViewController", "addTask")
	assert.Empty(t, rec.calls)
}

func TestNewRegistrar_DonorClash(t *testing.T) {
	cfg := config.DefaultConfig()
	reg := registry.New(cfg)
	_, err := reg.Register(apis.ClassSpec{Name: codeless.DefaultDonorClass})
	require.NoError(t, err)

	_, err = codeless.NewRegistrar(reg, helper.New(reg, cfg), nil)
	assert.ErrorIs(t, err, registry.ErrDuplicateClass)

	r, err := codeless.NewRegistrar(reg, helper.New(reg, cfg), nil, codeless.WithDonorClass("AltReinforcer"))
	require.NoError(t, err)
	assert.Equal(t, "AltReinforcer", r.Donor().Name())
}
