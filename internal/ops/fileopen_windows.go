//go:build windows

package ops

import (
	"os"

	"github.com/twardoch/zmarkdown/internal/errors"
)

// createOutput opens the destination of a batch render for writing,
// truncating any previous rendering. Windows has no O_NOFOLLOW; symlinked
// destinations are only caught by ValidatePath.
func createOutput(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
}

// openSource opens a Markdown document named in a batch render. A missing
// file is NOT_FOUND so the batch reports it per document.
func openSource(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFound("file", path)
		}
		return nil, err
	}
	return f, nil
}
