// Package fs provides filesystem-backed helpers: the default cache
// location and a caching inference backend.
package fs

import (
	"os"
	"path/filepath"
)

// appDir is the per-user directory name under the platform cache root.
const appDir = "chronologue"

// DefaultCacheDir returns the inference cache directory: the platform
// user cache dir (XDG_CACHE_HOME or ~/.cache on Linux, ~/Library/Caches
// on macOS), or the system temp directory when none is available.
func DefaultCacheDir() string {
	if root, err := os.UserCacheDir(); err == nil && root != "" {
		return filepath.Join(root, appDir, "responses")
	}
	return filepath.Join(os.TempDir(), appDir, "responses")
}
