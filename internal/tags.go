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

package internal

// Field numbers from google/protobuf/descriptor.proto. Source code info paths
// are sequences of these numbers (and element indexes), so these have to match
// the schema exactly.
const (
	// FilePackageTag is the tag number of the package element in a file
	// descriptor proto.
	FilePackageTag = 2
	// FileDependencyTag is the tag number of the dependencies element in a
	// file descriptor proto.
	FileDependencyTag = 3
	// FileMessagesTag is the tag number of the messages element in a file
	// descriptor proto.
	FileMessagesTag = 4
	// FileEnumsTag is the tag number of the enums element in a file descriptor
	// proto.
	FileEnumsTag = 5
	// FileServicesTag is the tag number of the services element in a file
	// descriptor proto.
	FileServicesTag = 6
	// FileExtensionsTag is the tag number of the extensions element in a file
	// descriptor proto.
	FileExtensionsTag = 7
	// FileOptionsTag is the tag number of the options element in a file
	// descriptor proto.
	FileOptionsTag = 8
	// FilePublicDependencyTag is the tag number of the public dependency
	// element in a file descriptor proto.
	FilePublicDependencyTag = 10
	// FileWeakDependencyTag is the tag number of the weak dependency element
	// in a file descriptor proto.
	FileWeakDependencyTag = 11
	// FileSyntaxTag is the tag number of the syntax element in a file
	// descriptor proto.
	FileSyntaxTag = 12

	MessageNameTag            = 1
	MessageFieldsTag          = 2
	MessageNestedMessagesTag  = 3
	MessageEnumsTag           = 4
	MessageExtensionRangesTag = 5
	MessageExtensionsTag      = 6
	MessageOptionsTag         = 7
	MessageOneofsTag          = 8
	MessageReservedRangesTag  = 9
	MessageReservedNamesTag   = 10

	ExtensionRangeStartTag   = 1
	ExtensionRangeEndTag     = 2
	ExtensionRangeOptionsTag = 3

	ReservedRangeStartTag = 1
	ReservedRangeEndTag   = 2

	FieldNameTag     = 1
	FieldExtendeeTag = 2
	FieldNumberTag   = 3
	FieldLabelTag    = 4
	FieldTypeTag     = 5
	FieldTypeNameTag = 6
	FieldDefaultTag  = 7
	FieldOptionsTag  = 8

	OneofNameTag    = 1
	OneofOptionsTag = 2

	EnumNameTag           = 1
	EnumValuesTag         = 2
	EnumOptionsTag        = 3
	EnumReservedRangesTag = 4
	EnumReservedNamesTag  = 5

	EnumValNameTag    = 1
	EnumValNumberTag  = 2
	EnumValOptionsTag = 3

	ServiceNameTag    = 1
	ServiceMethodsTag = 2
	ServiceOptionsTag = 3

	MethodNameTag         = 1
	MethodInputTag        = 2
	MethodOutputTag       = 3
	MethodOptionsTag      = 4
	MethodInputStreamTag  = 5
	MethodOutputStreamTag = 6

	// UninterpretedOptionsTag is the tag number of the uninterpreted options
	// element. All options messages use the same number.
	UninterpretedOptionsTag = 999

	UninterpretedNameTag      = 2
	UninterpretedIdentTag     = 3
	UninterpretedPosIntTag    = 4
	UninterpretedNegIntTag    = 5
	UninterpretedDoubleTag    = 6
	UninterpretedStringTag    = 7
	UninterpretedAggregateTag = 8
	UninterpretedNameNameTag  = 1
)

// MaxNormalTag is the maximum allowed tag number for a field in a normal
// message. The upper bound of an "N to max" range is MaxNormalTag, so the
// exclusive end stored in the descriptor is MaxNormalTag+1, which is 2^29.
const MaxNormalTag = 536870911
