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

// Command swizzlectl loads a class hierarchy from a manifest and runs the
// interception helper against it.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"dopamine.dev/swizzle/apis"
	"dopamine.dev/swizzle/builder"
	"dopamine.dev/swizzle/config"
	"dopamine.dev/swizzle/manifest"
)

// app holds the flag values and the state built from them.
type app struct {
	manifestPath string
	configPath   string
	verbose      bool

	newLogger func(verbose bool) (*zap.Logger, error)
	logger    *zap.Logger

	cfg apis.Config
	reg apis.Registry
	ic  apis.Interceptor
}

func productionLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return cfg.Build()
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "swizzlectl",
		Short: "Inspect and patch a class hierarchy described by a manifest",
		Long: `swizzlectl loads a YAML class manifest into a fresh registry and runs
hierarchy queries or method injections against it.

Methods declared in a manifest return "Class.selector" traces, so the effect
of an injection is visible in what --send prints.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			a.logger, err = a.newLogger(a.verbose)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			return a.load()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVarP(&a.manifestPath, "manifest", "m", "", "Class manifest (YAML)")
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Helper configuration (YAML)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable verbose logging")
	_ = root.MarkPersistentFlagRequired("manifest")

	root.AddCommand(
		classesCmd(a),
		subclassesCmd(a),
		overridesCmd(a),
		findCmd(a),
		injectCmd(a),
		injectProperCmd(a),
	)
	return root
}

// load builds the registry and interceptor from the flags.
func (a *app) load() error {
	a.cfg = config.DefaultConfig()
	if a.configPath != "" {
		cfg, err := config.Load(a.configPath)
		if err != nil {
			return err
		}
		a.cfg = cfg
	}

	m, err := manifest.Load(a.manifestPath)
	if err != nil {
		return err
	}

	b := builder.New(a.logger)
	a.reg = b.BuildRegistry(a.cfg, nil)
	if err := m.Apply(a.reg); err != nil {
		return err
	}
	a.ic = b.BuildInterceptor(a.cfg, a.reg)
	a.logger.Debug("manifest loaded",
		zap.String("path", a.manifestPath),
		zap.Int("classes", a.reg.Count()),
		zap.Stringer("search_order", a.cfg.SearchOrder),
	)
	return nil
}

func main() {
	a := &app{newLogger: productionLogger}
	if err := newRootCmd(a).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
