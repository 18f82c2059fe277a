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

package builder_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"dopamine.dev/swizzle/apis"
	"dopamine.dev/swizzle/builder"
	"dopamine.dev/swizzle/config"
)

func ret(s string) apis.IMP {
	return func(apis.Object, ...any) any { return s }
}

// TestBuildRegistry_Basic asserts that BuildRegistry returns a non-nil,
// working Registry even without a previous registry.
func TestBuildRegistry_Basic(t *testing.T) {
	b := builder.New(nil)

	reg := b.BuildRegistry(config.DefaultConfig(), nil)
	require.NotNil(t, reg)

	c, err := reg.Register(apis.ClassSpec{Name: "NSObject", Methods: map[apis.Selector]apis.IMP{"description": ret("obj")}})
	require.NoError(t, err)
	got, ok := reg.Lookup("NSObject")
	require.True(t, ok)
	assert.Same(t, c, got)
}

// TestBuildRegistry_MigratesState verifies protocols, hierarchy, conformance
// and current (possibly patched) dispatch entries survive a rebuild.
func TestBuildRegistry_MigratesState(t *testing.T) {
	b := builder.New(zaptest.NewLogger(t))
	cfg := config.DefaultConfig()

	prev := b.BuildRegistry(cfg, nil)
	require.NoError(t, prev.DeclareProtocol("UIApplicationDelegate", "didLaunch"))
	_, err := prev.Register(apis.ClassSpec{Name: "UIResponder"})
	require.NoError(t, err)
	app, err := prev.Register(apis.ClassSpec{
		Name:       "AppDelegate",
		Superclass: "UIResponder",
		Protocols:  []apis.Protocol{"UIApplicationDelegate"},
		Methods:    map[apis.Selector]apis.IMP{"didLaunch": ret("original")},
	})
	require.NoError(t, err)
	_, err = prev.ReplaceMethod(app, "didLaunch", ret("patched"))
	require.NoError(t, err)
	prev.Seal()

	next := b.BuildRegistry(cfg, prev)
	require.Equal(t, 2, next.Count())
	assert.False(t, next.Sealed())

	sels, ok := next.ProtocolSelectors("UIApplicationDelegate")
	require.True(t, ok)
	assert.Equal(t, []apis.Selector{"didLaunch"}, sels)

	migrated, ok := next.Lookup("AppDelegate")
	require.True(t, ok)
	assert.NotSame(t, app, migrated)
	assert.Equal(t, "UIResponder", migrated.Superclass().Name())
	assert.True(t, migrated.ConformsTo("UIApplicationDelegate"))

	obj, err := next.New(migrated)
	require.NoError(t, err)
	got, err := obj.Send("didLaunch")
	require.NoError(t, err)
	assert.Equal(t, "patched", got)
}

// blankProtocol reports an extra, undeclarable protocol.
type blankProtocol struct{ apis.Registry }

func (r blankProtocol) Protocols() []apis.Protocol {
	return append(r.Registry.Protocols(), "")
}

// TestBuildRegistry_LogsSkippedState verifies that protocols and classes
// the new registry refuses are logged rather than dropped silently.
func TestBuildRegistry_LogsSkippedState(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	b := builder.New(zap.New(core))

	prev := b.BuildRegistry(config.DefaultConfig(), nil)
	require.NoError(t, prev.DeclareProtocol("P", "x"))
	for _, spec := range []apis.ClassSpec{{Name: "L0"}, {Name: "L1", Superclass: "L0"}, {Name: "L2", Superclass: "L1"}} {
		_, err := prev.Register(spec)
		require.NoError(t, err)
	}

	next := b.BuildRegistry(config.NewConfig(config.WithMaxDepth(1)), blankProtocol{prev})

	assert.Equal(t, 1, logs.FilterMessage("protocol not migrated").Len())
	assert.Equal(t, 1, logs.FilterMessage("class not migrated").FilterField(zap.String("class", "L2")).Len())
	_, ok := next.ProtocolSelectors("P")
	assert.True(t, ok)
	assert.Equal(t, 2, next.Count())
}

// TestBuildInterceptor_BoundToRegistry checks the interceptor works against
// the registry it was built for.
func TestBuildInterceptor_BoundToRegistry(t *testing.T) {
	b := builder.New(nil)
	cfg := config.DefaultConfig()
	reg := b.BuildRegistry(cfg, nil)
	ic := b.BuildInterceptor(cfg, reg)
	require.NotNil(t, ic)

	base, err := reg.Register(apis.ClassSpec{Name: "Base", Methods: map[apis.Selector]apis.IMP{"x": ret("x")}})
	require.NoError(t, err)
	sub, err := reg.Register(apis.ClassSpec{Name: "Sub", Superclass: "Base"})
	require.NoError(t, err)

	assert.True(t, ic.InstanceOverridesSelector(base, "x"))
	assert.False(t, ic.InstanceOverridesSelector(sub, "x"))
	assert.Equal(t, []apis.Class{sub}, ic.Subclasses(base))
}
