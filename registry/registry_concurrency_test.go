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

package registry_test

import (
	"fmt"
	"runtime"
	"sync"
	"testing"

	"go.uber.org/goleak"

	"dopamine.dev/swizzle/apis"
	"dopamine.dev/swizzle/config"
	"dopamine.dev/swizzle/registry"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// TestConcurrentSendAndMutate verifies that Register/Lookup/Send/ReplaceMethod
// are race-free and that dispatch always observes some complete binding.
func TestConcurrentSendAndMutate(t *testing.T) {
	reg := registry.New(config.DefaultConfig())

	base, err := reg.Register(apis.ClassSpec{
		Name:    "Base",
		Methods: map[apis.Selector]apis.IMP{"ping": ret("v0")},
	})
	if err != nil {
		t.Fatalf("Register(Base): %v", err)
	}
	leaf, err := reg.Register(apis.ClassSpec{Name: "Leaf", Superclass: "Base"})
	if err != nil {
		t.Fatalf("Register(Leaf): %v", err)
	}

	wg := sync.WaitGroup{}
	workers := runtime.GOMAXPROCS(0) * 4

	// Readers
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			obj, err := reg.New(leaf)
			if err != nil {
				t.Errorf("New: %v", err)
				return
			}
			for i := 0; i < 2000; i++ {
				got, err := obj.Send("ping")
				if err != nil || got == "" {
					t.Errorf("Send(ping): got=%v err=%v", got, err)
					return
				}
				if _, ok := reg.Lookup("Base"); !ok {
					t.Errorf("Lookup(Base) missed")
					return
				}
				_ = reg.Classes()
			}
		}()
	}

	// Writers
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(id int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				v := fmt.Sprintf("v%d-%d", id, i)
				if _, err := reg.ReplaceMethod(base, "ping", ret(v)); err != nil {
					t.Errorf("ReplaceMethod: %v", err)
					return
				}
				if _, err := reg.Register(apis.ClassSpec{Name: fmt.Sprintf("Gen%d_%d", id, i), Superclass: "Base"}); err != nil {
					t.Errorf("Register: %v", err)
					return
				}
			}
		}(w)
	}

	wg.Wait()

	if want := 2 + workers*200; reg.Count() != want {
		t.Fatalf("Count() = %d, want %d", reg.Count(), want)
	}
}
