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

// Package parser contains the logic for parsing protobuf source code into a
// FileDescriptorProto.
//
// The parser is a hand-written recursive descent parser. It records a source
// code info location for every element it produces, in the order the
// elements appear in the file, along with their leading, trailing, and
// detached comments. Map fields are expanded into synthetic entry messages,
// and group fields into nested messages, the same way protoc does it.
//
// The result is not linked: type references are left as written and options
// are left uninterpreted, except for the default value of a field. See the
// linker package for turning the result into a descriptor.
//
// On a syntax error, the parser reports the problem and skips ahead a token
// at a time until a statement parses again, so that a single pass can find
// several independent errors. Errors found while skipping are not reported.
package parser
