// Package resolver implements PathResolver: locating and validating a
// usable DCMTK installation on disk.
package resolver

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/dcmtkgo/dcmtkgo/result"
)

// EnvRoot is the environment variable that, if set, is tried first and
// overrides all other discovery. It is the only environment-wide state
// this package reads.
const EnvRoot = "DCMTK_ROOT"

// BinaryRoot is an absolute directory plus a tool-name -> absolute path map.
// Once constructed by Resolve it is treated as immutable.
type BinaryRoot struct {
	Dir      string
	Binaries map[string]string
}

// Path returns the absolute path for a tool name, or "" if the root does
// not contain it (should not happen for a resolved root, since resolution
// only succeeds when every required binary is present).
func (b BinaryRoot) Path(tool string) string {
	return b.Binaries[tool]
}

// platformCandidates are well-known install locations, checked in order
// after the environment override and before $PATH.
func platformCandidates() []string {
	switch runtime.GOOS {
	case "darwin":
		return []string{
			"/opt/homebrew/opt/dcmtk/bin",
			"/usr/local/opt/dcmtk/bin",
			"/usr/local/bin",
		}
	case "windows":
		return []string{
			`C:\Program Files\DCMTK\bin`,
			`C:\DCMTK\bin`,
		}
	default:
		return []string{
			"/usr/local/bin",
			"/usr/bin",
			"/opt/dcmtk/bin",
		}
	}
}

type Resolver struct {
	mu     sync.Mutex
	cached *BinaryRoot
}

// New returns a Resolver with an empty cache.
func New() *Resolver {
	return &Resolver{}
}

// Resolve implements PathResolver.resolve(): probes, in order, the
// DCMTK_ROOT environment variable, platform candidate directories, then
// $PATH. The first directory whose contents satisfy RequiredBinaries wins
// and is cached until ClearCache or process exit.
func (r *Resolver) Resolve() result.Result[BinaryRoot] {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cached != nil {
		return result.Ok(*r.cached)
	}

	var candidates []string
	if env := os.Getenv(EnvRoot); env != "" {
		candidates = append(candidates, env)
	}
	candidates = append(candidates, platformCandidates()...)
	candidates = append(candidates, pathDirs()...)

	var missingByDir []string
	for _, dir := range candidates {
		binaries, missing := probe(dir)
		if len(missing) == 0 {
			root := BinaryRoot{Dir: dir, Binaries: binaries}
			r.cached = &root
			return result.Ok(root)
		}
		missingByDir = append(missingByDir, fmt.Sprintf("%s (missing: %s)", dir, strings.Join(missing, ", ")))
	}

	msg := "no candidate directory has a complete DCMTK installation"
	if len(missingByDir) > 0 {
		msg = fmt.Sprintf("%s: %s", msg, strings.Join(missingByDir, "; "))
	}
	return result.Err[BinaryRoot](result.New(result.KindResolution, msg))
}

// ClearCache drops the cached BinaryRoot so the next Resolve call re-probes.
func (r *Resolver) ClearCache() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cached = nil
}

// probe checks dir against RequiredBinaries, returning the resolved paths
// for the binaries found and the names of any that are missing or not
// executable.
func probe(dir string) (found map[string]string, missing []string) {
	found = make(map[string]string, len(RequiredBinaries))
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, append([]string(nil), RequiredBinaries...)
	}
	for _, name := range RequiredBinaries {
		candidate := filepath.Join(dir, binaryName(name))
		fi, err := os.Stat(candidate)
		if err != nil || fi.IsDir() || !isExecutable(fi) {
			missing = append(missing, name)
			continue
		}
		found[name] = candidate
	}
	return found, missing
}

func binaryName(name string) string {
	if runtime.GOOS == "windows" {
		return name + ".exe"
	}
	return name
}

func isExecutable(fi os.FileInfo) bool {
	if runtime.GOOS == "windows" {
		return true
	}
	return fi.Mode()&0o111 != 0
}

// pathDirs returns the directories on $PATH, in PATH's own enumeration
// order, deduplicated, so ties between multiple PATH candidates resolve
// deterministically to the first one listed.
func pathDirs() []string {
	pathEnv := os.Getenv("PATH")
	if pathEnv == "" {
		return nil
	}
	parts := filepath.SplitList(pathEnv)
	seen := make(map[string]bool, len(parts))
	dirs := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		dirs = append(dirs, p)
	}
	return dirs
}

