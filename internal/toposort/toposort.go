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

// Package toposort provides a generic topological sort implementation.
package toposort

import (
	"fmt"
	"strings"
)

const (
	unsorted byte = iota
	walking
	sorted
)

// Sort sorts a DAG topologically, so that every node comes after all of the
// nodes it depends on.
//
// Roots are the nodes whose dependencies we are querying. key returns a
// comparable key for each node. children returns the direct dependencies of
// a node; they are visited in the order given, so the result is stable for a
// stable children function.
//
// Sort panics if the graph has a cycle.
func Sort[Node any, Key comparable](
	roots []Node,
	key func(Node) Key,
	children func(Node) []Node,
) []Node {
	state := make(map[Key]byte)
	var stack, out []Node

	push := func(n Node) {
		k := key(n)
		switch state[k] {
		case unsorted:
			stack = append(stack, n)
		case walking:
			// Walking nodes that are still on the stack form the cycle.
			var path []string
			for _, s := range stack {
				if state[key(s)] == walking {
					path = append(path, fmt.Sprint(key(s)))
				}
			}
			path = append(path, fmt.Sprint(k))
			panic(fmt.Sprintf("toposort: cycle detected: %s", strings.Join(path, " -> ")))
		}
	}

	for _, root := range roots {
		push(root)
		// This is a DFS that has been turned into a loop. Each node is seen
		// twice: once to push its children, and once, after they have all
		// been emitted, to pop and emit the node itself.
		for len(stack) > 0 {
			node := stack[len(stack)-1]
			k := key(node)

			if state[k] == unsorted {
				state[k] = walking
				deps := children(node)
				// Push in reverse so the first child is walked first.
				for i := len(deps) - 1; i >= 0; i-- {
					push(deps[i])
				}
				continue
			}

			stack = stack[:len(stack)-1]
			if state[k] != sorted {
				out = append(out, node)
				state[k] = sorted
			}
		}
	}
	return out
}
