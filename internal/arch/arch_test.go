package arch

import (
	"context"
	"errors"
	"testing"

	"symbind/internal/proc"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		desc string
		want Arch
	}{
		{"ELF 32-bit LSB shared object, Intel 80386, version 1 (SYSV), dynamically linked", X86},
		{"ELF 64-bit LSB shared object, x86-64, version 1 (SYSV), dynamically linked", X86_64},
		{"ELF 64-bit LSB shared object, ARM aarch64, version 1 (SYSV), dynamically linked", ARM64},
		{"ELF 32-bit LSB shared object, ARM, EABI5 version 1 (SYSV), dynamically linked", ARM32},
	}
	for _, tc := range tests {
		t.Run(string(tc.want), func(t *testing.T) {
			got, err := Resolve(tc.desc)
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if got != tc.want {
				t.Errorf("Resolve(%q) = %s, want %s", tc.desc, got, tc.want)
			}
		})
	}
}

// An aarch64 description also contains the generic ARM marker.
func TestResolvePrefersARM64OverARM(t *testing.T) {
	got, err := Resolve("ELF 64-bit LSB shared object, ARM aarch64")
	if err != nil {
		t.Fatal(err)
	}
	if got != ARM64 {
		t.Errorf("got %s, want %s", got, ARM64)
	}
}

func TestResolveUnknown(t *testing.T) {
	desc := "ELF 64-bit MSB executable, IBM S/390"
	_, err := Resolve(desc)
	var ue *UnknownError
	if !errors.As(err, &ue) {
		t.Fatalf("expected *UnknownError, got %v", err)
	}
	if ue.Description != desc {
		t.Errorf("Description = %q, want %q", ue.Description, desc)
	}
}

type fakeRunner struct {
	res      proc.Result
	gotName  string
	gotArgs  []string
	startErr error
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) (proc.Result, error) {
	f.gotName, f.gotArgs = name, args
	return f.res, f.startErr
}

func TestDetect(t *testing.T) {
	r := &fakeRunner{res: proc.Result{Stdout: []byte("ELF 32-bit LSB shared object, Intel 80386\n")}}
	got, err := Detect(context.Background(), r, "file", "/tmp/libfoo.so")
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if got != X86 {
		t.Errorf("got %s, want x86", got)
	}
	if r.gotName != "file" || len(r.gotArgs) != 2 || r.gotArgs[0] != "-b" || r.gotArgs[1] != "/tmp/libfoo.so" {
		t.Errorf("unexpected invocation %s %v", r.gotName, r.gotArgs)
	}
}

func TestDetectProbeFailure(t *testing.T) {
	r := &fakeRunner{res: proc.Result{Stderr: []byte("cannot open"), ExitCode: 1}}
	_, err := Detect(context.Background(), r, "file", "/missing")
	var te *proc.ToolError
	if !errors.As(err, &te) {
		t.Fatalf("expected *proc.ToolError, got %v", err)
	}
}
