package toolchain

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"symbind/internal/arch"
)

// ndkFS builds a repository listing with the given versions, each carrying
// a full set of gcc 4.9 toolchains.
func ndkFS(versions ...string) fstest.MapFS {
	fsys := fstest.MapFS{}
	for _, v := range versions {
		for _, lay := range layouts {
			for _, host := range hosts {
				p := v + "/toolchains/" + lay.dir + "-4.9/prebuilt/" + host + "/bin/" + lay.prefix + "-objdump"
				fsys[p] = &fstest.MapFile{Data: []byte("#!/bin/sh\n"), Mode: 0o755}
			}
		}
	}
	return fsys
}

func TestObjdumpPaths(t *testing.T) {
	l := &Locator{Root: "/opt/ndk", Host: "linux", FS: ndkFS("r21e")}
	tests := []struct {
		arch arch.Arch
		want string
	}{
		{arch.X86, "/opt/ndk/r21e/toolchains/x86-4.9/prebuilt/linux-x86_64/bin/i686-linux-android-objdump"},
		{arch.X86_64, "/opt/ndk/r21e/toolchains/x86_64-4.9/prebuilt/linux-x86_64/bin/x86_64-linux-android-objdump"},
		{arch.ARM64, "/opt/ndk/r21e/toolchains/aarch64-linux-android-4.9/prebuilt/linux-x86_64/bin/aarch64-linux-android-objdump"},
		{arch.ARM32, "/opt/ndk/r21e/toolchains/arm-linux-androideabi-4.9/prebuilt/linux-x86_64/bin/arm-linux-androideabi-objdump"},
	}
	for _, tc := range tests {
		t.Run(string(tc.arch), func(t *testing.T) {
			got, err := l.Objdump(tc.arch)
			if err != nil {
				t.Fatalf("Objdump: %v", err)
			}
			if got != filepath.FromSlash(tc.want) {
				t.Errorf("got %s\nwant %s", got, tc.want)
			}
		})
	}
}

func TestDarwinHost(t *testing.T) {
	l := &Locator{Root: "/ndk", Host: "darwin", FS: ndkFS("r19c")}
	got, err := l.Objdump(arch.ARM64)
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.FromSlash("/ndk/r19c/toolchains/aarch64-linux-android-4.9/prebuilt/darwin-x86_64/bin/aarch64-linux-android-objdump")
	if got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

// The version is the lexicographic maximum, not the highest semantic version.
func TestVersionIsLastAfterSort(t *testing.T) {
	l := &Locator{Root: "/ndk", Host: "linux", FS: ndkFS("r9d", "r21e", "r10e")}
	v, err := l.Version()
	if err != nil {
		t.Fatal(err)
	}
	if v != "r9d" {
		t.Errorf("Version = %q, want r9d", v)
	}
}

func TestGCCDirectoryDiscovery(t *testing.T) {
	fsys := fstest.MapFS{
		"r25/toolchains/x86-4.8/prebuilt/linux-x86_64/bin/i686-linux-android-objdump":      {},
		"r25/toolchains/x86-4.9/prebuilt/linux-x86_64/bin/i686-linux-android-objdump":      {},
		"r25/toolchains/x86-clang3.6/prebuilt/linux-x86_64/bin/clang":                      {},
		"r25/toolchains/x86_64-4.9/prebuilt/linux-x86_64/bin/x86_64-linux-android-objdump": {},
	}
	l := &Locator{Root: "/ndk", Host: "linux", FS: fsys}
	got, err := l.Objdump(arch.X86)
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.FromSlash("/ndk/r25/toolchains/x86-4.9/prebuilt/linux-x86_64/bin/i686-linux-android-objdump")
	if got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestMissingToolchainFallsBackToDefault(t *testing.T) {
	fsys := fstest.MapFS{"r25/README": {}}
	l := &Locator{Root: "/ndk", Host: "linux", FS: fsys}
	got, err := l.Objdump(arch.ARM32)
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.FromSlash("/ndk/r25/toolchains/arm-linux-androideabi-4.9/prebuilt/linux-x86_64/bin/arm-linux-androideabi-objdump")
	if got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestRepositoryNotFound(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "absent")
	tests := []struct {
		name string
		l    *Locator
	}{
		{"unset", &Locator{Root: "", Host: "linux"}},
		{"missing", &Locator{Root: missing, Host: "linux"}},
		{"empty", &Locator{Root: "/ndk", Host: "linux", FS: fstest.MapFS{}}},
		{"empty dir", &Locator{Root: t.TempDir(), Host: "linux"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.l.Objdump(arch.X86)
			var nf *RepositoryNotFoundError
			if !errors.As(err, &nf) {
				t.Fatalf("expected *RepositoryNotFoundError, got %v", err)
			}
		})
	}
}

func TestUnsupportedHost(t *testing.T) {
	l := &Locator{Root: "/ndk", Host: "windows", FS: ndkFS("r21")}
	_, err := l.Objdump(arch.X86)
	var uh *UnsupportedHostError
	if !errors.As(err, &uh) {
		t.Fatalf("expected *UnsupportedHostError, got %v", err)
	}
	if uh.Host != "windows" {
		t.Errorf("Host = %q", uh.Host)
	}
}

func TestRealDirectory(t *testing.T) {
	root := t.TempDir()
	bin := filepath.Join(root, "r23", "toolchains", "x86_64-4.9", "prebuilt", "linux-x86_64", "bin")
	if err := os.MkdirAll(bin, 0o755); err != nil {
		t.Fatal(err)
	}
	l := &Locator{Root: root, Host: "linux"}
	got, err := l.Objdump(arch.X86_64)
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(bin, "x86_64-linux-android-objdump"); got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}
