// Package arch identifies the CPU architecture a binary was compiled for
// from the description printed by the file(1) utility.
package arch

import (
	"context"
	"fmt"
	"strings"

	"symbind/internal/proc"
)

// Arch is one of the architectures a toolchain exists for.
type Arch string

const (
	X86    Arch = "x86"
	X86_64 Arch = "x86_64"
	ARM64  Arch = "arm64"
	ARM32  Arch = "arm32"
)

// All lists the known architectures.
var All = []Arch{X86, X86_64, ARM64, ARM32}

// markers is checked in order and the first hit wins. "ARM" is also a
// substring of "ARM aarch64" descriptions, so the 64-bit marker comes first.
var markers = []struct {
	substr string
	arch   Arch
}{
	{"Intel 80386", X86},
	{"x86-64", X86_64},
	{"aarch64", ARM64},
	{"ARM", ARM32},
}

// UnknownError reports a file description that names none of the known
// architectures.
type UnknownError struct {
	Description string
}

func (e *UnknownError) Error() string {
	return fmt.Sprintf("unknown architecture in file description %q", e.Description)
}

// Resolve maps a file(1) description to an architecture.
func Resolve(description string) (Arch, error) {
	for _, m := range markers {
		if strings.Contains(description, m.substr) {
			return m.arch, nil
		}
	}
	return "", &UnknownError{Description: strings.TrimSpace(description)}
}

// Probe runs the file-type utility (usually "file") on path and returns
// its brief description.
func Probe(ctx context.Context, r proc.Runner, fileCmd, path string) (string, error) {
	out, err := proc.Output(ctx, r, fileCmd, "-b", path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// Detect probes path and resolves its architecture.
func Detect(ctx context.Context, r proc.Runner, fileCmd, path string) (Arch, error) {
	desc, err := Probe(ctx, r, fileCmd, path)
	if err != nil {
		return "", err
	}
	return Resolve(desc)
}
