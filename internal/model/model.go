// Package model loads the hand-authored description of exported native
// symbols: namespaces containing classes containing symbols, each symbol
// listing the mangled names a compiled binary must define.
//
// File layout (YAML):
//
//	namespaces:
//	  - nsQualifiers: ["facebook", "inline v2"]
//	    classes:
//	      - name: Logger
//	        symbols:
//	          - symbolName: "Logger::write"
//	            returnType: int
//	            params: ["int", "const char*"]
//	            mangledNames: [_ZN8facebook2v26Logger5writeEiPKc]
package model

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// VoidType is the return type that means the symbol returns no value.
const VoidType = "void"

// Model is the root of a symbol model file.
type Model struct {
	Namespaces []Namespace `yaml:"namespaces"`
}

// Namespace groups classes under an optional list of qualifier tokens.
// NSQualifiers is nil when the source omits the list, which is distinct
// from an explicitly empty list.
type Namespace struct {
	NSQualifiers *[]string `yaml:"nsQualifiers,omitempty"`
	Classes      []Class   `yaml:"classes"`
}

// Qualified reports whether the source declared a qualifier list.
func (ns Namespace) Qualified() bool { return ns.NSQualifiers != nil }

// Qualifiers returns the qualifier tokens, or nil when none were declared.
func (ns Namespace) Qualifiers() []string {
	if ns.NSQualifiers == nil {
		return nil
	}
	return *ns.NSQualifiers
}

// Class is a group of symbols. Name is informational only.
type Class struct {
	Name    string   `yaml:"name,omitempty"`
	Symbols []Symbol `yaml:"symbols"`
}

// Symbol is one exported function or method.
type Symbol struct {
	SymbolName   string   `yaml:"symbolName"`
	ReturnType   string   `yaml:"returnType,omitempty"`
	Params       []string `yaml:"params,omitempty"`
	MangledNames []string `yaml:"mangledNames,omitempty"`
}

// ReturnsSomething reports whether the symbol has a return type other than void.
func (s Symbol) ReturnsSomething() bool {
	return s.ReturnType != "" && s.ReturnType != VoidType
}

// MangledCount returns the number of mangled names declared anywhere in m.
func (m *Model) MangledCount() int {
	n := 0
	for _, ns := range m.Namespaces {
		for _, cls := range ns.Classes {
			for _, sym := range cls.Symbols {
				n += len(sym.MangledNames)
			}
		}
	}
	return n
}

// ParseError reports a model file that is missing, unreadable or malformed.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("parse model: %v", e.Err)
	}
	return fmt.Sprintf("parse model %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Read loads the model at path. It returns the raw file bytes alongside
// the parsed model since the model hash is taken over the untransformed source.
func Read(path string) (*Model, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, &ParseError{Path: path, Err: err}
	}
	m, err := Parse(data)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			pe.Path = path
		}
		return nil, nil, err
	}
	return m, data, nil
}

// Parse decodes and validates a model document. Unknown keys are rejected.
func Parse(data []byte) (*Model, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var m Model
	if err := dec.Decode(&m); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &ParseError{Err: errors.New("empty document")}
		}
		return nil, &ParseError{Err: err}
	}
	if err := m.validate(); err != nil {
		return nil, &ParseError{Err: err}
	}
	return &m, nil
}

func (m *Model) validate() error {
	for i, ns := range m.Namespaces {
		for j, cls := range ns.Classes {
			for k, sym := range cls.Symbols {
				where := fmt.Sprintf("namespaces[%d].classes[%d].symbols[%d]", i, j, k)
				if strings.TrimSpace(sym.SymbolName) == "" {
					return fmt.Errorf("%s: missing symbolName", where)
				}
				for l, name := range sym.MangledNames {
					if strings.TrimSpace(name) == "" {
						return fmt.Errorf("%s.mangledNames[%d]: empty mangled name", where, l)
					}
					if len(strings.Fields(name)) != 1 {
						return fmt.Errorf("%s.mangledNames[%d]: %q contains whitespace", where, l, name)
					}
				}
			}
		}
	}
	return nil
}
