// Package verify checks that a binary defines every mangled name a model
// declares.
package verify

import (
	"symbind/internal/model"
	"symbind/internal/symtab"
)

// Miss is a mangled name with no defining line in the symbol table.
type Miss struct {
	MangledName string
	SymbolName  string
}

// Report is the outcome of one verification pass.
type Report struct {
	// Examined counts mangled names checked across the whole model.
	Examined int
	// Symbols counts symbols that declared at least one mangled name.
	Symbols int
	Missing []Miss
}

// Empty reports whether the model declared no mangled names at all.
func (r *Report) Empty() bool { return r.Examined == 0 }

// OK reports whether every examined mangled name was found.
func (r *Report) OK() bool { return len(r.Missing) == 0 }

// Verify checks every mangled name under every symbol in m against t.
// It does not stop at the first miss.
func Verify(m *model.Model, t *symtab.Table) *Report {
	r := &Report{}
	for _, ns := range m.Namespaces {
		for _, cls := range ns.Classes {
			for _, sym := range cls.Symbols {
				if len(sym.MangledNames) > 0 {
					r.Symbols++
				}
				for _, name := range sym.MangledNames {
					r.Examined++
					if !t.Defined(name) {
						r.Missing = append(r.Missing, Miss{MangledName: name, SymbolName: sym.SymbolName})
					}
				}
			}
		}
	}
	return r
}
