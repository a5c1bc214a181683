// Package workenv manages the scratch directory the sc CLI's convert
// subcommand uses to stage the decoded levels of a source image container
// (KTX or ASTC) so a later convert of the same input can reuse them; the
// converted output itself is written straight to its destination path and
// never passes through here. It is a much smaller relative of a package-extraction
// workenv: there is no instance/package metadata split and nothing here
// persists across process lifetimes except the optional staging cache
// keyed by content checksum.
package workenv

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// GetStagingPath returns the scratch directory for one convert run,
// identified by the first 8 hex characters of the input content's
// checksum so repeated conversions of the same input reuse the same
// staging directory.
func GetStagingPath(checksum string) string {
	identifier := checksum
	if len(identifier) > 8 {
		identifier = identifier[:8]
	}
	if identifier == "" {
		identifier = fmt.Sprintf("pid-%d", os.Getpid())
	}
	return filepath.Join(GetCacheRoot(), identifier)
}

// GetCacheRoot returns the root scratch-cache directory.
func GetCacheRoot() string {
	if cacheDir := os.Getenv("SCCODEC_CACHE_DIR"); cacheDir != "" {
		return cacheDir
	}

	switch runtime.GOOS {
	case "darwin":
		if home := os.Getenv("HOME"); home != "" {
			return filepath.Join(home, "Library", "Caches", "sccodec")
		}
	case "linux":
		if xdgCache := os.Getenv("XDG_CACHE_HOME"); xdgCache != "" {
			return filepath.Join(xdgCache, "sccodec")
		}
		if home := os.Getenv("HOME"); home != "" {
			return filepath.Join(home, ".cache", "sccodec")
		}
	case "windows":
		if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
			return filepath.Join(localAppData, "sccodec", "cache")
		}
	}

	return filepath.Join(os.TempDir(), "sccodec", "cache")
}

// CreateWorkenv creates a scratch directory with the given subdirectory
// structure (e.g. "levels/" for per-mip staged files).
func CreateWorkenv(path string, dirs []DirectorySpec) error {
	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("workenv: creating %s: %w", path, err)
	}

	for _, dir := range dirs {
		dirPath := filepath.Join(path, dir.Path)
		mode := dir.Mode
		if mode == 0 {
			mode = 0755
		}
		if err := os.MkdirAll(dirPath, os.FileMode(mode)); err != nil {
			return fmt.Errorf("workenv: creating subdirectory %s: %w", dir.Path, err)
		}
	}

	return nil
}

// DirectorySpec specifies a subdirectory to create under a workenv root.
type DirectorySpec struct {
	Path string
	Mode uint32
}
