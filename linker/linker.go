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

package linker

import (
	"fmt"

	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/types/descriptorpb"
)

// Builder validates a draft and links it against its dependencies. deps
// holds the linked files for the draft's direct imports; their own imports
// are reachable through them. If the draft is invalid, a Builder returns a
// nil File and a non-nil error.
type Builder func(draft *descriptorpb.FileDescriptorProto, deps Files) (File, error)

var _ Builder = Build

// Build is the default Builder. It registers the transitive closure of deps
// and hands the draft to protodesc.NewFile, which checks names and numbers
// and resolves relative type references.
//
// Note that options are NOT interpreted. Options messages in the returned
// file keep every value in their uninterpreted_option fields.
func Build(draft *descriptorpb.FileDescriptorProto, deps Files) (File, error) {
	for _, imp := range draft.GetDependency() {
		if deps.FindFileByPath(imp) == nil {
			return nil, fmt.Errorf("dependencies is missing import %q", imp)
		}
	}
	res, err := deps.AsResolver()
	if err != nil {
		return nil, err
	}
	fd, err := protodesc.NewFile(draft, res)
	if err != nil {
		return nil, err
	}
	return newFile(fd, deps)
}
