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

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"dopamine.dev/swizzle/apis"
)

func (a *app) class(name string) (apis.Class, error) {
	c, ok := a.reg.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("unknown class %q", name)
	}
	return c, nil
}

func classesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "classes",
		Short: "List registered classes in registration order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, c := range a.reg.Classes() {
				line := c.Name()
				if s := c.Superclass(); s != nil {
					line += " : " + s.Name()
				}
				if ps := c.Protocols(); len(ps) > 0 {
					names := make([]string, len(ps))
					for i, p := range ps {
						names[i] = string(p)
					}
					line += " <" + strings.Join(names, ", ") + ">"
				}
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
}

func subclassesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "subclasses <class>",
		Short: "List every descendant of a class",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parent, err := a.class(args[0])
			if err != nil {
				return err
			}
			for _, c := range a.ic.Subclasses(parent) {
				fmt.Fprintln(cmd.OutOrStdout(), c.Name())
			}
			return nil
		},
	}
}

func overridesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "overrides <class> <selector>",
		Short: "Report whether a class itself defines a selector",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.class(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), a.ic.InstanceOverridesSelector(c, apis.Selector(args[1])))
			return nil
		},
	}
}

func findCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "find <root> <protocol>",
		Short: "Find the first class under root that declares a protocol",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := a.class(args[0])
			if err != nil {
				return err
			}
			c, ok := a.ic.ClassWithProtocolInHierarchy(root, apis.Protocol(args[1]))
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "none")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), c.Name())
			return nil
		},
	}
}

func injectCmd(a *app) *cobra.Command {
	var send bool
	cmd := &cobra.Command{
		Use:   "inject <donor> <donorSel> <target> <targetSel>",
		Short: "Inject a donor method at a target selector",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			donor, err := a.class(args[0])
			if err != nil {
				return err
			}
			target, err := a.class(args[2])
			if err != nil {
				return err
			}
			targetSel := apis.Selector(args[3])
			if err := a.ic.InjectSelector(donor, apis.Selector(args[1]), target, targetSel); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "injected %s.%s at %s.%s\n", args[0], args[1], args[2], args[3])
			if send {
				return a.send(cmd, target, targetSel)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&send, "send", false, "Dispatch the target selector on a new target instance")
	return cmd
}

func injectProperCmd(a *app) *cobra.Command {
	var send bool
	cmd := &cobra.Command{
		Use:   "inject-proper <swizzled> <swizzledSel> <delegate> <originalSel>",
		Short: "Inject into the first subclass of delegate implementing originalSel",
		Long: `inject-proper considers every subclass of delegate in registration order
and injects into the first one that defines originalSel or declares a protocol
requiring it, falling back to delegate itself.`,
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			swizzled, err := a.class(args[0])
			if err != nil {
				return err
			}
			delegate, err := a.class(args[2])
			if err != nil {
				return err
			}
			originalSel := apis.Selector(args[3])
			candidates := a.ic.Subclasses(delegate)
			if err := a.ic.InjectToProperClass(apis.Selector(args[1]), originalSel, candidates, swizzled, delegate); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "injected %s.%s under %s.%s\n", args[0], args[1], args[2], args[3])
			if !send {
				return nil
			}
			for _, c := range append([]apis.Class{delegate}, candidates...) {
				if err := a.send(cmd, c, originalSel); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&send, "send", false, "Dispatch originalSel on the delegate and each subclass")
	return cmd
}

// send dispatches sel on a new instance of c and prints the result. A
// selector c does not respond to is printed rather than returned.
func (a *app) send(cmd *cobra.Command, c apis.Class, sel apis.Selector) error {
	obj, err := a.reg.New(c)
	if err != nil {
		return err
	}
	got, err := obj.Send(sel)
	if err != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s -> !%v\n", c.Name(), sel, err)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s -> %v\n", c.Name(), sel, got)
	return nil
}
