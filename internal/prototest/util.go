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

// Package prototest contains helpers for tests that compare protobuf
// messages, either directly or as YAML golden files.
package prototest

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/testing/protocmp"
	"gopkg.in/yaml.v3"
)

// ToYAML converts a Protobuf message into a YAML document in a deterministic
// manner. This is intended for generating YAML for golden outputs. Fields use
// their proto names and appear in field-number order, as protojson writes
// them. An empty message yields an empty string.
func ToYAML(m proto.Message) (string, error) {
	data, err := protojson.MarshalOptions{UseProtoNames: true}.Marshal(m)
	if err != nil {
		return "", err
	}
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return "", err
	}
	blockStyle(&node)
	if len(node.Content) == 1 && len(node.Content[0].Content) == 0 {
		return "", nil
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return "", err
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// blockStyle clears the flow style that JSON input leaves on every node, so
// that the document is written in block style.
func blockStyle(n *yaml.Node) {
	n.Style &^= yaml.FlowStyle
	if n.Kind == yaml.ScalarNode && n.Tag == "!!str" {
		n.Style &^= yaml.DoubleQuotedStyle
	}
	for _, c := range n.Content {
		blockStyle(c)
	}
}

// CompareYAML compares two YAML documents structurally, ignoring formatting.
// It returns an empty string if they are equal and a diff otherwise. It can
// be used as a corpora.Compare.
func CompareYAML(got, want string) string {
	var gotVal, wantVal any
	if err := yaml.Unmarshal([]byte(got), &gotVal); err != nil {
		return fmt.Sprintf("invalid YAML produced by test: %v", err)
	}
	if err := yaml.Unmarshal([]byte(want), &wantVal); err != nil {
		return fmt.Sprintf("invalid YAML in golden file: %v", err)
	}
	return cmp.Diff(wantVal, gotVal)
}

// AssertMessagesEqual fails the test if exp and act are not equal.
func AssertMessagesEqual(t *testing.T, exp, act proto.Message, msgAndArgs ...any) {
	t.Helper()
	AssertMessagesEqualWithOptions(t, exp, act, nil, msgAndArgs...)
}

// AssertMessagesEqualWithOptions is like AssertMessagesEqual but accepts
// extra cmp options, such as protocmp.IgnoreFields.
func AssertMessagesEqualWithOptions(t *testing.T, exp, act proto.Message, opts []cmp.Option, msgAndArgs ...any) {
	t.Helper()
	cmpOpts := []cmp.Option{protocmp.Transform()}
	cmpOpts = append(cmpOpts, opts...)
	if diff := cmp.Diff(exp, act, cmpOpts...); diff != "" {
		t.Errorf("%smessage mismatch (-want +got):\n%v", prefix(msgAndArgs), diff)
	}
}

func prefix(msgAndArgs []any) string {
	switch {
	case len(msgAndArgs) == 1:
		if msg, ok := msgAndArgs[0].(string); ok {
			return msg + ": "
		}
		return fmt.Sprintf("%+v: ", msgAndArgs[0])
	case len(msgAndArgs) > 1:
		format, _ := msgAndArgs[0].(string)
		return strings.TrimSpace(fmt.Sprintf(format, msgAndArgs[1:]...)) + ": "
	default:
		return ""
	}
}
