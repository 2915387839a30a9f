// Package transform rewrites a loaded model into the shape consumed by
// binding generators: indexed parameters, split namespace qualifiers,
// derived return flags and a fingerprint of the source file.
package transform

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"

	"symbind/internal/model"
)

// Model is the codegen-ready form of a model file.
type Model struct {
	Namespaces []Namespace `json:"namespaces"`
	ModelHash  string      `json:"modelHash"`
}

type Namespace struct {
	HasNSQualifiers bool        `json:"hasNsQualifiers,omitempty"`
	NSQualifiers    []Qualifier `json:"nsQualifiers,omitempty"`
	Classes         []Class     `json:"classes"`
}

// Qualifier is one namespace component; Inline marks an inline namespace.
type Qualifier struct {
	Name   string `json:"name"`
	Inline bool   `json:"inline,omitempty"`
}

type Class struct {
	Name    string   `json:"name,omitempty"`
	Symbols []Symbol `json:"symbols"`
}

type Symbol struct {
	SymbolName       string   `json:"symbolName"`
	ReturnType       string   `json:"returnType,omitempty"`
	ReturnsSomething bool     `json:"returnsSomething"`
	Params           []Param  `json:"params"`
	MangledNames     []string `json:"mangledNames"`
}

// Param is a parameter type paired with its 1-based position.
type Param struct {
	Type string `json:"type"`
	Idx  int    `json:"idx"`
}

// Error reports model content that cannot be brought into codegen shape.
type Error struct {
	Where string
	Msg   string
}

func (e *Error) Error() string {
	return fmt.Sprintf("transform model: %s: %s", e.Where, e.Msg)
}

// Hash returns the MD5 hex digest of the raw model source.
func Hash(raw []byte) string {
	sum := md5.Sum(raw)
	return hex.EncodeToString(sum[:])
}

// Transform builds the codegen-ready model from m. raw must be the
// untransformed bytes m was parsed from; only its hash is kept.
func Transform(m *model.Model, raw []byte) (*Model, error) {
	out := &Model{
		Namespaces: make([]Namespace, 0, len(m.Namespaces)),
		ModelHash:  Hash(raw),
	}
	for i, ns := range m.Namespaces {
		tns, err := transformNamespace(ns, fmt.Sprintf("namespaces[%d]", i))
		if err != nil {
			return nil, err
		}
		out.Namespaces = append(out.Namespaces, tns)
	}
	return out, nil
}

func transformNamespace(ns model.Namespace, where string) (Namespace, error) {
	out := Namespace{Classes: make([]Class, 0, len(ns.Classes))}
	if ns.Qualified() {
		out.HasNSQualifiers = true
		out.NSQualifiers = make([]Qualifier, 0, len(ns.Qualifiers()))
		for i, tok := range ns.Qualifiers() {
			q, err := SplitQualifier(tok)
			if err != nil {
				return Namespace{}, &Error{Where: fmt.Sprintf("%s.nsQualifiers[%d]", where, i), Msg: err.Error()}
			}
			out.NSQualifiers = append(out.NSQualifiers, q)
		}
	}
	for j, cls := range ns.Classes {
		tcls := Class{Name: cls.Name, Symbols: make([]Symbol, 0, len(cls.Symbols))}
		for k, sym := range cls.Symbols {
			tsym, err := transformSymbol(sym, fmt.Sprintf("%s.classes[%d].symbols[%d]", where, j, k))
			if err != nil {
				return Namespace{}, err
			}
			tcls.Symbols = append(tcls.Symbols, tsym)
		}
		out.Classes = append(out.Classes, tcls)
	}
	return out, nil
}

func transformSymbol(sym model.Symbol, where string) (Symbol, error) {
	out := Symbol{
		SymbolName:       sym.SymbolName,
		ReturnType:       sym.ReturnType,
		ReturnsSomething: sym.ReturnsSomething(),
		Params:           make([]Param, 0, len(sym.Params)),
		MangledNames:     append([]string{}, sym.MangledNames...),
	}
	// Indices restart for every symbol.
	for i, typ := range sym.Params {
		if strings.TrimSpace(typ) == "" {
			return Symbol{}, &Error{Where: fmt.Sprintf("%s.params[%d]", where, i), Msg: "empty parameter type"}
		}
		out.Params = append(out.Params, Param{Type: typ, Idx: i + 1})
	}
	return out, nil
}

// SplitQualifier parses a qualifier token. "name" yields {name}; a
// two-word token such as "inline v2" yields {v2, inline}.
func SplitQualifier(tok string) (Qualifier, error) {
	words := strings.Fields(tok)
	switch len(words) {
	case 1:
		return Qualifier{Name: words[0]}, nil
	case 2:
		return Qualifier{Name: words[1], Inline: true}, nil
	case 0:
		return Qualifier{}, fmt.Errorf("empty qualifier")
	default:
		return Qualifier{}, fmt.Errorf("qualifier %q has %d words, want 1 or 2", tok, len(words))
	}
}
