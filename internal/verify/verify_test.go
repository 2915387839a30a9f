package verify

import (
	"testing"

	"symbind/internal/model"
	"symbind/internal/symtab"
)

func mustParse(t *testing.T, src string) *model.Model {
	t.Helper()
	m, err := model.Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return m
}

const fooBar = `namespaces:
  - classes:
      - symbols:
          - symbolName: "Foo::Bar"
            mangledNames: [_ZN3FooBarEv]
`

func TestDefinedSymbolPasses(t *testing.T) {
	tbl := &symtab.Table{Lines: []string{"0000000000001000 g DF .text 0000000000000010 _ZN3FooBarEv"}}
	r := Verify(mustParse(t, fooBar), tbl)
	if !r.OK() || r.Empty() {
		t.Fatalf("report = %+v, want ok", r)
	}
	if r.Examined != 1 || r.Symbols != 1 {
		t.Errorf("Examined=%d Symbols=%d, want 1/1", r.Examined, r.Symbols)
	}
}

func TestUndefinedReferenceFails(t *testing.T) {
	tbl := &symtab.Table{Lines: []string{"0000000000000000 *UND* _ZN3FooBarEv"}}
	r := Verify(mustParse(t, fooBar), tbl)
	if r.OK() {
		t.Fatal("expected a miss")
	}
	want := Miss{MangledName: "_ZN3FooBarEv", SymbolName: "Foo::Bar"}
	if len(r.Missing) != 1 || r.Missing[0] != want {
		t.Errorf("Missing = %+v, want [%+v]", r.Missing, want)
	}
}

// Every miss is collected; verification does not stop at the first.
func TestAllMissesCollected(t *testing.T) {
	src := `namespaces:
  - classes:
      - symbols:
          - symbolName: a
            mangledNames: [_Z1av, _Z1ai]
          - symbolName: b
            mangledNames: [_Z1bv]
  - classes:
      - symbols:
          - symbolName: c
            mangledNames: [_Z1cv]
          - symbolName: d
            mangledNames: [_Z1dv]
`
	tbl := &symtab.Table{Lines: []string{
		"0000000000001000 g DF .text 0000000000000010 _Z1ai",
		"0000000000001010 g DF .text 0000000000000010 _Z1cv",
	}}
	r := Verify(mustParse(t, src), tbl)
	if r.Examined != 5 {
		t.Errorf("Examined = %d, want 5", r.Examined)
	}
	want := []Miss{
		{"_Z1av", "a"},
		{"_Z1bv", "b"},
		{"_Z1dv", "d"},
	}
	if len(r.Missing) != len(want) {
		t.Fatalf("Missing = %+v, want %d entries", r.Missing, len(want))
	}
	for i := range want {
		if r.Missing[i] != want[i] {
			t.Errorf("Missing[%d] = %+v, want %+v", i, r.Missing[i], want[i])
		}
	}
}

func TestSubstringOfLongerSymbolFails(t *testing.T) {
	tbl := &symtab.Table{Lines: []string{"0000000000001000 g DF .text 0000000000000010 _ZN3FooBarEvSuffix"}}
	r := Verify(mustParse(t, fooBar), tbl)
	if r.OK() {
		t.Error("a longer symbol containing the name must not match")
	}
}

func TestEmptyModel(t *testing.T) {
	src := `namespaces:
  - classes:
      - symbols:
          - symbolName: f
            params: [int]
`
	tbl := &symtab.Table{Lines: []string{"0000000000001000 g DF .text 0000000000000010 _Z1fi"}}
	r := Verify(mustParse(t, src), tbl)
	if !r.Empty() || !r.OK() {
		t.Errorf("report = %+v, want empty and ok", r)
	}
}
