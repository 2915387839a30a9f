// Package report turns a verification report into diagnostics and a
// final outcome.
package report

import (
	"fmt"
	"io"

	"symbind/internal/verify"
)

// Outcome is the overall result of a verification run.
type Outcome int

const (
	Success Outcome = iota
	// Mismatch means at least one mangled name was not defined.
	Mismatch
	// EmptyModel means the model declared no mangled names.
	EmptyModel
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case Mismatch:
		return "symbol mismatch"
	case EmptyModel:
		return "empty model"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Decide picks the outcome for r. Missing symbols take precedence over an
// empty model.
func Decide(r *verify.Report) Outcome {
	switch {
	case !r.OK():
		return Mismatch
	case r.Empty():
		return EmptyModel
	default:
		return Success
	}
}

// Write emits one line per missing symbol to w and returns the outcome.
func Write(w io.Writer, r *verify.Report) Outcome {
	for _, m := range r.Missing {
		fmt.Fprintf(w, "missing symbol %s (%s)\n", m.MangledName, m.SymbolName)
	}
	outcome := Decide(r)
	if outcome == EmptyModel {
		fmt.Fprintln(w, "model declares no mangled names")
	}
	return outcome
}
