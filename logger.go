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

package swizzle

import (
	"sync/atomic"

	"go.uber.org/zap"

	"dopamine.dev/swizzle/builder"
)

var (
	// logger is the package logger; nil means no-op.
	logger atomic.Pointer[zap.Logger]
	// nop is returned while no logger is set.
	nop = zap.NewNop()
)

// Logger returns the swizzle logger instance.
// It uses a no-op logger by default.
func Logger() *zap.Logger {
	if l := logger.Load(); l != nil {
		return l
	}
	return nop
}

// SetLogger replaces the package logger. The global registry keeps its
// classes and dispatch tables and starts logging through l; the builder and
// interceptor are rebuilt around l on that same registry, so descriptors
// obtained earlier stay valid. A nil logger restores the no-op logger.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = nop
	}
	logger.Store(l)

	buildMu.Lock()
	defer buildMu.Unlock()

	old := st.Load()
	if ls, ok := old.reg.(loggerSetter); ok {
		ls.SetLogger(l.Named("registry"))
	}
	b := builder.New(l)
	publish(old.cfg, old.reg, b.BuildInterceptor(old.cfg, old.reg), b)
}

// loggerSetter is implemented by registries whose logger can be swapped in
// place.
type loggerSetter interface {
	SetLogger(l *zap.Logger)
}
