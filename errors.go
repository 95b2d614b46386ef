// Copyright 2020-2025 Buf Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package protofront

import (
	"errors"
	"fmt"
	"strings"
)

// ErrImportCycle is wrapped by every [CycleError].
var ErrImportCycle = errors.New("import cycle")

// CycleError reports a file that, directly or through other files, imports
// itself.
type CycleError struct {
	// The files involved, in import order. The first and last elements are
	// the same file. A file that imports itself yields a two-element cycle.
	Cycle []string
}

func (e *CycleError) Error() string {
	if len(e.Cycle) <= 2 {
		return fmt.Sprintf("file %q imports itself", e.Cycle[0])
	}
	return "circular dependency: " + strings.Join(e.Cycle, " -> ")
}

// Unwrap returns ErrImportCycle.
func (e *CycleError) Unwrap() error {
	return ErrImportCycle
}

// Indirect reports whether the cycle goes through another file. An indirect
// cycle stops the whole compilation unit, since no file in it can be linked.
func (e *CycleError) Indirect() bool {
	return len(e.Cycle) > 2
}
