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

// Package scc groups message types into strongly connected components.
//
// Messages that depend on each other, directly or through other messages,
// form a component. Code generators that must emit a type only after the
// types it refers to can emit components in dependency order, handling the
// members of one component together. Components are found with Tarjan's
// algorithm, using an explicit stack so that deep schemas cannot exhaust the
// goroutine stack.
package scc

import (
	"slices"
	"strings"

	"google.golang.org/protobuf/reflect/protoreflect"

	"github.com/bufbuild/protofront/internal/toposort"
	"github.com/bufbuild/protofront/walk"
)

// DepsFunc returns the messages that a message depends on. Nil elements are
// ignored. It must return the same result every time it is called with the
// same message.
type DepsFunc func(protoreflect.MessageDescriptor) []protoreflect.MessageDescriptor

// SCC is a strongly connected component of messages.
type SCC struct {
	// The members of the component, sorted by full name.
	Messages []protoreflect.MessageDescriptor
	// The other components that members of this one depend on directly. Each
	// appears once, and the component never lists itself.
	Children []*SCC
}

// Representative returns the member with the smallest full name.
func (s *SCC) Representative() protoreflect.MessageDescriptor {
	return s.Messages[0]
}

// Analyzer computes components on demand and caches them. It is not safe for
// concurrent use.
type Analyzer struct {
	deps  DepsFunc
	cache map[protoreflect.FullName]*SCC

	// state of the current run
	index   map[protoreflect.FullName]int
	lowlink map[protoreflect.FullName]int
	stack   []protoreflect.MessageDescriptor
	onStack map[protoreflect.FullName]bool
}

// NewAnalyzer returns an analyzer that follows the edges given by deps. If
// deps is nil, MessageDeps is used.
func NewAnalyzer(deps DepsFunc) *Analyzer {
	if deps == nil {
		deps = MessageDeps
	}
	return &Analyzer{
		deps:  deps,
		cache: map[protoreflect.FullName]*SCC{},
	}
}

// GetSCC returns the component that md belongs to.
func (a *Analyzer) GetSCC(md protoreflect.MessageDescriptor) *SCC {
	if scc, ok := a.cache[md.FullName()]; ok {
		return scc
	}
	a.index = map[protoreflect.FullName]int{}
	a.lowlink = map[protoreflect.FullName]int{}
	a.onStack = map[protoreflect.FullName]bool{}
	a.run(md)
	a.index, a.lowlink, a.onStack, a.stack = nil, nil, nil, nil
	return a.cache[md.FullName()]
}

type frame struct {
	node protoreflect.MessageDescriptor
	deps []protoreflect.MessageDescriptor
	next int
}

func (a *Analyzer) edges(md protoreflect.MessageDescriptor) []protoreflect.MessageDescriptor {
	deps := a.deps(md)
	out := make([]protoreflect.MessageDescriptor, 0, len(deps))
	for _, dep := range deps {
		if dep != nil {
			out = append(out, dep)
		}
	}
	return out
}

func (a *Analyzer) run(root protoreflect.MessageDescriptor) {
	var frames []frame
	push := func(md protoreflect.MessageDescriptor) {
		name := md.FullName()
		a.index[name] = len(a.index)
		a.lowlink[name] = a.index[name]
		a.stack = append(a.stack, md)
		a.onStack[name] = true
		frames = append(frames, frame{node: md, deps: a.edges(md)})
	}

	push(root)
	for len(frames) > 0 {
		f := &frames[len(frames)-1]
		name := f.node.FullName()
		if f.next < len(f.deps) {
			dep := f.deps[f.next]
			f.next++
			depName := dep.FullName()
			if _, done := a.cache[depName]; done {
				continue
			}
			if _, seen := a.index[depName]; !seen {
				push(dep)
				continue
			}
			if a.onStack[depName] {
				a.lowlink[name] = min(a.lowlink[name], a.index[depName])
			}
			continue
		}

		frames = frames[:len(frames)-1]
		if len(frames) > 0 {
			parent := frames[len(frames)-1].node.FullName()
			a.lowlink[parent] = min(a.lowlink[parent], a.lowlink[name])
		}
		if a.lowlink[name] == a.index[name] {
			a.finish(name)
		}
	}
}

// finish pops the component rooted at name off the stack.
func (a *Analyzer) finish(name protoreflect.FullName) {
	var members []protoreflect.MessageDescriptor
	for {
		md := a.stack[len(a.stack)-1]
		a.stack = a.stack[:len(a.stack)-1]
		delete(a.onStack, md.FullName())
		members = append(members, md)
		if md.FullName() == name {
			break
		}
	}
	slices.SortFunc(members, func(x, y protoreflect.MessageDescriptor) int {
		return strings.Compare(string(x.FullName()), string(y.FullName()))
	})
	scc := &SCC{Messages: members}
	for _, md := range members {
		a.cache[md.FullName()] = scc
	}

	// Every dependency of a member is either a member or belongs to a
	// component that is already finished.
	seen := map[*SCC]bool{scc: true}
	for _, md := range members {
		for _, dep := range a.edges(md) {
			child := a.cache[dep.FullName()]
			if child == nil || seen[child] {
				continue
			}
			seen[child] = true
			scc.Children = append(scc.Children, child)
		}
	}
}

// FileComponents returns the components of every message declared in file,
// map entries excepted, ordered so that each component comes after the
// components it depends on. Components from other files are not included.
func (a *Analyzer) FileComponents(file protoreflect.FileDescriptor) []*SCC {
	var roots []*SCC
	seen := map[*SCC]bool{}
	_ = walk.Messages(file, func(md protoreflect.MessageDescriptor) error {
		if md.IsMapEntry() {
			return nil
		}
		if scc := a.GetSCC(md); !seen[scc] {
			seen[scc] = true
			roots = append(roots, scc)
		}
		return nil
	})
	sorted := toposort.Sort(roots,
		func(s *SCC) protoreflect.FullName { return s.Representative().FullName() },
		func(s *SCC) []*SCC { return s.Children },
	)
	out := sorted[:0]
	for _, s := range sorted {
		if s.Representative().ParentFile().Path() == file.Path() {
			out = append(out, s)
		}
	}
	return out
}

// MessageDeps is the default DepsFunc. A message depends on the message
// types of its fields, groups included. A map field contributes the type of
// its values, if that is a message, rather than the map entry.
func MessageDeps(md protoreflect.MessageDescriptor) []protoreflect.MessageDescriptor {
	var deps []protoreflect.MessageDescriptor
	seen := map[protoreflect.FullName]bool{}
	for i := range md.Fields().Len() {
		fld := md.Fields().Get(i)
		var dep protoreflect.MessageDescriptor
		switch {
		case fld.IsMap():
			dep = fld.MapValue().Message()
		case fld.Kind() == protoreflect.MessageKind, fld.Kind() == protoreflect.GroupKind:
			dep = fld.Message()
		}
		if dep == nil || seen[dep.FullName()] {
			continue
		}
		seen[dep.FullName()] = true
		deps = append(deps, dep)
	}
	return deps
}
