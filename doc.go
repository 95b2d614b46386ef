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

// Package protofront is the front end of a Protocol Buffers compiler. It
// turns .proto source files into linked descriptors.
//
// Compiling a file happens in three phases:
//  1. Parse the source into a draft descriptor proto, including source code
//     info with positions and comments.
//     Also see: parser.Parse
//  2. Import the file's dependencies, depth first, detecting import cycles.
//     Also see: Importer
//  3. Link the draft against its dependencies, which checks names and
//     resolves type references.
//     Also see: linker.Build
//
// Once files are linked, the scc package can order their messages so that
// mutually recursive types are emitted together.
//
// # Source trees
//
// A SourceTree is how files are located. It maps the path used in an import
// statement to the file's contents. This package provides source trees backed
// by a map, directories on disk, an fs.FS, and an afero file system, and
// CompositeSourceTree to search several of them. Paths that contain a ".."
// segment are always rejected.
//
// # Importer and Compiler
//
// An Importer compiles one file and everything it imports, caching every
// result. It is not safe for concurrent use. A Compiler compiles several roots
// in parallel, giving each one its own Importer. A minimal Compiler, that
// loads files relative to the current working directory, can be had with the
// following snippet:
//
//	compiler := protofront.Compiler{
//		SourceTree: &protofront.DirSourceTree{},
//	}
//
// Errors and warnings go to a reporter.Reporter. The default reporter fails
// at the first error. A reporter that returns nil lets an operation continue
// so that it can report as many problems as it finds.
package protofront
