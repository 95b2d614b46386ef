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

// Package fastscan finds the package and imports of a proto source file
// without parsing it.
package fastscan

import (
	"fmt"
	"io"
	"strings"

	"github.com/bufbuild/protofront/parser"
	"github.com/bufbuild/protofront/token"
)

var closeSymbol = map[string]string{
	"(": ")",
	"{": "}",
	"[": "]",
	"<": ">",
}

// ScanResult is the result of scanning a Protobuf source file. It contains the
// information extracted from the file.
type ScanResult struct {
	PackageName string
	Imports     []string
}

// ScanForImports scans the given reader, which should contain Protobuf source, and
// returns the set of imports declared in the file. The result also contains the
// value of any package declaration in the file. It returns an error if there is
// a lexical or I/O error reading from r. In the event of such an error, it will
// still return a result that contains as much information as was found before
// the error occurred.
//
// If r is an io.Closer, it is closed before returning.
func ScanForImports(r io.Reader) (ScanResult, error) {
	var res ScanResult
	var firstErr error
	lx := parser.NewLexer(r, func(line, col int, msg string) {
		if firstErr == nil {
			firstErr = fmt.Errorf("%d:%d: %s", line+1, col+1, msg)
		}
	})
	defer func() {
		_ = lx.Close()
	}()

	var currentImport []string     // if non-nil, parsing an import statement
	var packageComponents []string // if non-nil, parsing a package statement

	// current stack of open blocks -- those starting with {, [, (, or < for
	// which we haven't yet encountered the closing }, ], ), or >
	var contextStack []string
	declarationStart := true

	for lx.Next() {
		tok := lx.Current()

		if currentImport != nil {
			switch {
			case tok.Kind == token.String:
				currentImport = append(currentImport, tok.Value)
			case len(currentImport) == 0 && (tok.Is("public") || tok.Is("weak")):
			default:
				if len(currentImport) > 0 {
					res.Imports = append(res.Imports, strings.Join(currentImport, ""))
				}
				currentImport = nil
			}
		}

		if packageComponents != nil {
			switch {
			case tok.Kind == token.Ident:
				packageComponents = append(packageComponents, tok.Text)
			case tok.Is("."):
				packageComponents = append(packageComponents, ".")
			default:
				if len(packageComponents) > 0 {
					res.PackageName = strings.Join(packageComponents, "")
				}
				packageComponents = nil
			}
		}

		switch {
		case tok.Kind != token.Symbol && tok.Kind != token.Ident:
		case closeSymbol[tok.Text] != "":
			contextStack = append(contextStack, closeSymbol[tok.Text])
		case tok.Is(")"), tok.Is("}"), tok.Is("]"), tok.Is(">"):
			if len(contextStack) > 0 && contextStack[len(contextStack)-1] == tok.Text {
				contextStack = contextStack[:len(contextStack)-1]
			}
		case tok.Kind == token.Ident && declarationStart && len(contextStack) == 0:
			switch tok.Text {
			case "import":
				currentImport = []string{}
			case "package":
				packageComponents = []string{}
			}
		}

		declarationStart = tok.Is("}") || tok.Is(";")
	}
	return res, firstErr
}
