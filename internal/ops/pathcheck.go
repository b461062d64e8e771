package ops

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/twardoch/zmarkdown/internal/errors"
	"github.com/twardoch/zmarkdown/internal/processor"
)

// PathCheckMode indicates whether the path check is for reading or writing.
type PathCheckMode int

const (
	PathCheckRead  PathCheckMode = iota // source document
	PathCheckWrite                      // rendered output
)

// SourceExtensions are the accepted document extensions.
var SourceExtensions = []string{".md", ".markdown", ".zmd", ".txt"}

// OutputExtension returns the file extension written for target.
func OutputExtension(t processor.Target) string {
	switch t {
	case processor.TargetEPUB:
		return ".xhtml"
	case processor.TargetLaTeX:
		return ".tex"
	}
	return ".html"
}

// ValidatePath checks a batch source or output path:
// 1. Path traversal (.. sequences)
// 2. Extension (a source extension for reads)
// 3. Existence of the file (reads) or its parent directory (writes)
// 4. Symlink safety (the file itself must not be a symlink)
func ValidatePath(path string, mode PathCheckMode) error {
	if path == "" {
		return errors.NewInvalidRequest("path is required")
	}

	if containsTraversal(path) {
		return errors.NewInvalidRequest("path must not contain directory traversal (..)")
	}

	cleaned := filepath.Clean(path)
	absPath, err := filepath.Abs(cleaned)
	if err != nil {
		return errors.NewInvalidRequest(fmt.Sprintf("invalid path: %v", err))
	}

	switch mode {
	case PathCheckRead:
		ext := strings.ToLower(filepath.Ext(cleaned))
		if !slices.Contains(SourceExtensions, ext) {
			return errors.NewInvalidRequest(
				fmt.Sprintf("path must have one of the extensions %v", SourceExtensions))
		}
		if _, err := os.Stat(absPath); os.IsNotExist(err) {
			return errors.NewNotFound("file", path)
		}
	case PathCheckWrite:
		info, err := os.Stat(filepath.Dir(absPath))
		if err != nil || !info.IsDir() {
			return errors.NewInvalidRequest("output directory does not exist: " + filepath.Dir(path))
		}
	}

	// O_NOFOLLOW at open time would catch this too, but rejecting early gives a clearer error.
	if info, err := os.Lstat(absPath); err == nil {
		if info.Mode()&os.ModeSymlink != 0 {
			return errors.NewInvalidRequest("path must not be a symlink")
		}
	}

	return nil
}

// OutputPath returns where the render of source for target is written. An
// empty outDir writes next to the source.
func OutputPath(source, outDir string, t processor.Target) string {
	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source)) + OutputExtension(t)
	if outDir == "" {
		return filepath.Join(filepath.Dir(source), base)
	}
	return filepath.Join(outDir, base)
}

// containsTraversal checks if path contains ".." directory traversal.
func containsTraversal(path string) bool {
	for _, part := range strings.Split(path, string(filepath.Separator)) {
		if part == ".." {
			return true
		}
	}
	// Also check for forward slashes on all platforms (e.g., user input)
	if filepath.Separator != '/' {
		for _, part := range strings.Split(path, "/") {
			if part == ".." {
				return true
			}
		}
	}
	return false
}
