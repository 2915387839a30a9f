// Package symtab reads the symbol tables of a compiled binary through
// objdump and answers definition queries against them.
package symtab

import (
	"context"
	"strings"

	"symbind/internal/proc"
)

// UndefinedMarker tags a symbol the binary references but does not define.
const UndefinedMarker = "*UND*"

// Table holds objdump symbol table output, one entry per line.
type Table struct {
	Lines []string
}

// Extract runs tool with -T -t (dynamic and regular tables) against
// binary. A nonzero exit is returned as *proc.ToolError and no partial
// output is kept.
func Extract(ctx context.Context, r proc.Runner, tool, binary string) (*Table, error) {
	out, err := proc.Output(ctx, r, tool, "-T", "-t", binary)
	if err != nil {
		return nil, err
	}
	return &Table{Lines: proc.Lines(out)}, nil
}

// Defines reports whether line is a definition of mangled: the name must
// be the last field on the line and the entry must not be undefined.
func Defines(line, mangled string) bool {
	if !strings.Contains(line, mangled) {
		return false
	}
	if strings.Contains(line, UndefinedMarker) {
		return false
	}
	fields := strings.Fields(line)
	return len(fields) > 0 && fields[len(fields)-1] == mangled
}

// Defined reports whether any line in t defines mangled.
func (t *Table) Defined(mangled string) bool {
	for _, line := range t.Lines {
		if Defines(line, mangled) {
			return true
		}
	}
	return false
}
