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

// Package walk provides helper functions for traversing all elements in a
// protobuf file descriptor. There are versions both for traversing linked
// descriptors and for traversing the descriptor protos that the parser
// produces.
package walk

import (
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/bufbuild/protofront/internal"
)

// Descriptors walks all descriptors in the given file using a depth-first
// pre-order traversal, calling the given function for each descriptor in the
// hierarchy. The walk ends when traversal is complete or when the function
// returns an error. If the function returns an error, that is returned as
// the result of the walk operation.
//
// Descriptors are visited using the order of declaration in the file, except
// that each message visits its fields, then its oneofs, then its nested
// messages, enums, and extensions. At the file level, messages come first,
// then enums, extensions, and services.
func Descriptors(file protoreflect.FileDescriptor, fn func(protoreflect.Descriptor) error) error {
	return DescriptorsEnterAndExit(file, fn, nil)
}

// DescriptorsEnterAndExit walks all descriptors in the given file using a
// depth-first traversal, calling the given functions on entry and on exit
// for each descriptor in the hierarchy. The walk ends when traversal is
// complete or when a function returns an error. The exit function may be nil.
func DescriptorsEnterAndExit(file protoreflect.FileDescriptor, enter, exit func(protoreflect.Descriptor) error) error {
	w := descWalker{enter: enter, exit: exit}
	if err := w.scope(file); err != nil {
		return err
	}
	for i := range file.Services().Len() {
		svc := file.Services().Get(i)
		err := w.visit(svc, func() error {
			for j := range svc.Methods().Len() {
				if err := w.visit(svc.Methods().Get(j), nil); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// Messages calls fn for every message in file, nested ones included, parents
// before their children. Synthesized map entry messages are included.
func Messages(file protoreflect.FileDescriptor, fn func(protoreflect.MessageDescriptor) error) error {
	return Descriptors(file, func(d protoreflect.Descriptor) error {
		if md, ok := d.(protoreflect.MessageDescriptor); ok {
			return fn(md)
		}
		return nil
	})
}

type descWalker struct {
	enter, exit func(protoreflect.Descriptor) error
}

// typeScope is a descriptor that can declare types: a file or a message.
type typeScope interface {
	Messages() protoreflect.MessageDescriptors
	Enums() protoreflect.EnumDescriptors
	Extensions() protoreflect.ExtensionDescriptors
}

func (w descWalker) visit(d protoreflect.Descriptor, children func() error) error {
	if err := w.enter(d); err != nil {
		return err
	}
	if children != nil {
		if err := children(); err != nil {
			return err
		}
	}
	if w.exit != nil {
		return w.exit(d)
	}
	return nil
}

func (w descWalker) scope(s typeScope) error {
	for i := range s.Messages().Len() {
		msg := s.Messages().Get(i)
		if err := w.visit(msg, func() error { return w.message(msg) }); err != nil {
			return err
		}
	}
	for i := range s.Enums().Len() {
		en := s.Enums().Get(i)
		err := w.visit(en, func() error {
			for j := range en.Values().Len() {
				if err := w.visit(en.Values().Get(j), nil); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	for i := range s.Extensions().Len() {
		if err := w.visit(s.Extensions().Get(i), nil); err != nil {
			return err
		}
	}
	return nil
}

func (w descWalker) message(msg protoreflect.MessageDescriptor) error {
	for i := range msg.Fields().Len() {
		if err := w.visit(msg.Fields().Get(i), nil); err != nil {
			return err
		}
	}
	for i := range msg.Oneofs().Len() {
		if err := w.visit(msg.Oneofs().Get(i), nil); err != nil {
			return err
		}
	}
	return w.scope(msg)
}

// DescriptorProtos walks all descriptor protos in the given file using a
// depth-first pre-order traversal, calling the given function for each
// descriptor proto in the hierarchy. The walk ends when traversal is complete
// or when the function returns an error. If the function returns an error,
// that is returned as the result of the walk operation.
//
// Elements are visited in the same order as by Descriptors. The full names
// are computed from the file's package and the enclosing elements, so this
// works on drafts whose type references are not resolved yet. Like protoc,
// enum values are named as siblings of their enum, not children.
func DescriptorProtos(file *descriptorpb.FileDescriptorProto, fn func(protoreflect.FullName, proto.Message) error) error {
	return DescriptorProtosWithPath(file, func(name protoreflect.FullName, _ protoreflect.SourcePath, msg proto.Message) error {
		return fn(name, msg)
	})
}

// DescriptorProtosWithPath is like DescriptorProtos, but also passes the
// source path of each element: the path under which its location appears in
// the file's source code info. Each path is a fresh slice that the function
// may retain.
func DescriptorProtosWithPath(file *descriptorpb.FileDescriptorProto, fn func(protoreflect.FullName, protoreflect.SourcePath, proto.Message) error) error {
	w := protoWalker{fn: fn}
	prefix := file.GetPackage()
	if prefix != "" {
		prefix += "."
	}
	s := protoScope{
		messages:       file.GetMessageType(),
		messagesPath:   []int32{internal.FileMessagesTag},
		enums:          file.GetEnumType(),
		enumsPath:      []int32{internal.FileEnumsTag},
		extensions:     file.GetExtension(),
		extensionsPath: []int32{internal.FileExtensionsTag},
	}
	if err := w.scope(prefix, s); err != nil {
		return err
	}
	for i, svc := range file.GetService() {
		svcPath := path(nil, internal.FileServicesTag, int32(i))
		svcName := prefix + svc.GetName()
		if err := w.fn(protoreflect.FullName(svcName), svcPath, svc); err != nil {
			return err
		}
		for j, mtd := range svc.GetMethod() {
			mtdPath := path(svcPath, internal.ServiceMethodsTag, int32(j))
			if err := w.fn(protoreflect.FullName(svcName+"."+mtd.GetName()), mtdPath, mtd); err != nil {
				return err
			}
		}
	}
	return nil
}

type protoWalker struct {
	fn func(protoreflect.FullName, protoreflect.SourcePath, proto.Message) error
}

// protoScope holds the elements of a file or message that declare names.
type protoScope struct {
	messages       []*descriptorpb.DescriptorProto
	messagesPath   []int32
	enums          []*descriptorpb.EnumDescriptorProto
	enumsPath      []int32
	extensions     []*descriptorpb.FieldDescriptorProto
	extensionsPath []int32
}

func (w protoWalker) scope(prefix string, s protoScope) error {
	for i, msg := range s.messages {
		if err := w.message(prefix, path(s.messagesPath, int32(i)), msg); err != nil {
			return err
		}
	}
	for i, en := range s.enums {
		enPath := path(s.enumsPath, int32(i))
		if err := w.fn(protoreflect.FullName(prefix+en.GetName()), enPath, en); err != nil {
			return err
		}
		for j, val := range en.GetValue() {
			valPath := path(enPath, internal.EnumValuesTag, int32(j))
			if err := w.fn(protoreflect.FullName(prefix+val.GetName()), valPath, val); err != nil {
				return err
			}
		}
	}
	for i, ext := range s.extensions {
		if err := w.fn(protoreflect.FullName(prefix+ext.GetName()), path(s.extensionsPath, int32(i)), ext); err != nil {
			return err
		}
	}
	return nil
}

func (w protoWalker) message(prefix string, msgPath protoreflect.SourcePath, msg *descriptorpb.DescriptorProto) error {
	name := prefix + msg.GetName()
	if err := w.fn(protoreflect.FullName(name), msgPath, msg); err != nil {
		return err
	}
	prefix = name + "."
	for i, fld := range msg.GetField() {
		if err := w.fn(protoreflect.FullName(prefix+fld.GetName()), path(msgPath, internal.MessageFieldsTag, int32(i)), fld); err != nil {
			return err
		}
	}
	for i, oo := range msg.GetOneofDecl() {
		if err := w.fn(protoreflect.FullName(prefix+oo.GetName()), path(msgPath, internal.MessageOneofsTag, int32(i)), oo); err != nil {
			return err
		}
	}
	return w.scope(prefix, protoScope{
		messages:       msg.GetNestedType(),
		messagesPath:   path(msgPath, internal.MessageNestedMessagesTag),
		enums:          msg.GetEnumType(),
		enumsPath:      path(msgPath, internal.MessageEnumsTag),
		extensions:     msg.GetExtension(),
		extensionsPath: path(msgPath, internal.MessageExtensionsTag),
	})
}

// path returns a new path made of base followed by elems.
func path(base []int32, elems ...int32) protoreflect.SourcePath {
	p := make(protoreflect.SourcePath, 0, len(base)+len(elems))
	p = append(p, base...)
	return append(p, elems...)
}
