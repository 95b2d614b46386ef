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

// Package linker turns parsed drafts into linked descriptors.
//
// # Builders
//
// A [Builder] accepts a file draft, as produced by the parser, together with
// the already linked files it imports. It validates the draft, resolves its
// type references against the dependencies, and returns a [File]. [Build] is
// the default builder; it delegates to the protobuf runtime's protodesc
// package.
//
// # Files
//
// The [File] interface is a protoreflect.FileDescriptor that can also look up
// the descriptors it defines and the files it imports. A [Files] value is an
// ordered list of files, such as the direct dependencies of a draft, and can
// produce a registry of their transitive closure with [Files.AsResolver].
package linker
