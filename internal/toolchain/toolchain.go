// Package toolchain locates the symbol-dumping tool for an architecture
// inside an installed NDK repository.
//
// Repository layout:
//
//	<root>/<version>/toolchains/<dir>-<gcc>/prebuilt/<host>-x86_64/bin/<prefix>-objdump
//
// The version is the last entry of the sorted root listing.
package toolchain

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"symbind/internal/arch"
)

// EnvRepository names the environment variable holding the repository root.
const EnvRepository = "ANDROID_NDK_REPOSITORY"

// defaultGCCVersion is assumed when no versioned toolchain directory exists.
const defaultGCCVersion = "4.9"

type layout struct {
	dir    string
	prefix string
}

var layouts = map[arch.Arch]layout{
	arch.X86:    {dir: "x86", prefix: "i686-linux-android"},
	arch.X86_64: {dir: "x86_64", prefix: "x86_64-linux-android"},
	arch.ARM64:  {dir: "aarch64-linux-android", prefix: "aarch64-linux-android"},
	arch.ARM32:  {dir: "arm-linux-androideabi", prefix: "arm-linux-androideabi"},
}

var hosts = map[string]string{
	"linux":  "linux-x86_64",
	"darwin": "darwin-x86_64",
}

// RepositoryNotFoundError reports an unset, missing or empty repository.
type RepositoryNotFoundError struct {
	Root   string
	Reason string
}

func (e *RepositoryNotFoundError) Error() string {
	if e.Root == "" {
		return fmt.Sprintf("toolchain repository not found: %s is %s", EnvRepository, e.Reason)
	}
	return fmt.Sprintf("toolchain repository %s not found: %s", e.Root, e.Reason)
}

// UnsupportedHostError reports a host OS with no prebuilt toolchains.
type UnsupportedHostError struct {
	Host string
}

func (e *UnsupportedHostError) Error() string {
	return fmt.Sprintf("unsupported host OS %q (want linux or darwin)", e.Host)
}

// Locator resolves tool paths. Nothing is cached between calls.
type Locator struct {
	// Root is the repository directory.
	Root string
	// Host is a GOOS value.
	Host string
	// FS lists Root; defaults to os.DirFS(Root).
	FS fs.FS
}

func (l *Locator) fsys() fs.FS {
	if l.FS != nil {
		return l.FS
	}
	return os.DirFS(l.Root)
}

// Version returns the installed repository version.
func (l *Locator) Version() (string, error) {
	if l.Root == "" {
		return "", &RepositoryNotFoundError{Reason: "unset or empty"}
	}
	entries, err := fs.ReadDir(l.fsys(), ".")
	if err != nil {
		return "", &RepositoryNotFoundError{Root: l.Root, Reason: err.Error()}
	}
	if len(entries) == 0 {
		return "", &RepositoryNotFoundError{Root: l.Root, Reason: "no versions installed"}
	}
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name()
	}
	sort.Strings(names)
	return names[len(names)-1], nil
}

// Objdump returns the path of the objdump binary for a.
func (l *Locator) Objdump(a arch.Arch) (string, error) {
	version, err := l.Version()
	if err != nil {
		return "", err
	}
	hostDir, ok := hosts[l.Host]
	if !ok {
		return "", &UnsupportedHostError{Host: l.Host}
	}
	lay, ok := layouts[a]
	if !ok {
		return "", fmt.Errorf("no toolchain layout for architecture %q", a)
	}
	tcDir, err := l.toolchainDir(version, lay.dir)
	if err != nil {
		return "", err
	}
	return filepath.Join(l.Root, version, "toolchains", tcDir, "prebuilt", hostDir, "bin", lay.prefix+"-objdump"), nil
}

// toolchainDir finds <dir>-<gcc> under <version>/toolchains, taking the
// last gcc-versioned match in sorted order.
func (l *Locator) toolchainDir(version, dir string) (string, error) {
	sub, err := fs.Sub(l.fsys(), path.Join(version, "toolchains"))
	if err != nil {
		return "", fmt.Errorf("toolchains dir: %w", err)
	}
	matches, err := doublestar.Glob(sub, dir+"-*")
	if err != nil {
		return "", fmt.Errorf("glob toolchains: %w", err)
	}
	// Only gcc-versioned directories; older repositories also carry
	// "<dir>-clang*" entries without binutils.
	var versioned []string
	for _, m := range matches {
		if suffix := strings.TrimPrefix(m, dir+"-"); suffix != "" && suffix[0] >= '0' && suffix[0] <= '9' {
			versioned = append(versioned, m)
		}
	}
	if len(versioned) == 0 {
		return dir + "-" + defaultGCCVersion, nil
	}
	sort.Strings(versioned)
	return versioned[len(versioned)-1], nil
}
