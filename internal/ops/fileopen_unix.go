//go:build !windows

package ops

import (
	stderrors "errors"
	"os"
	"syscall"

	"github.com/twardoch/zmarkdown/internal/errors"
)

// createOutput opens the destination of a batch render for writing,
// truncating any previous rendering. The open uses O_NOFOLLOW, so a symlink
// swapped in after ValidatePath ran is refused with INVALID_REQUEST instead
// of being written through.
func createOutput(path string) (*os.File, error) {
	flag := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	fd, err := syscall.Open(path, flag|syscall.O_NOFOLLOW|syscall.O_CLOEXEC, 0644)
	if err != nil {
		if stderrors.Is(err, syscall.ELOOP) {
			return nil, errors.NewInvalidRequest("cannot write rendered output to symlink")
		}
		return nil, err
	}
	return os.NewFile(uintptr(fd), path), nil
}

// openSource opens a Markdown document named in a batch render. Symlinks
// are refused like in createOutput, and a missing file is NOT_FOUND so the
// batch reports it per document.
func openSource(path string) (*os.File, error) {
	fd, err := syscall.Open(path, syscall.O_RDONLY|syscall.O_NOFOLLOW|syscall.O_CLOEXEC, 0)
	if err != nil {
		if stderrors.Is(err, syscall.ELOOP) {
			return nil, errors.NewInvalidRequest("cannot read source document from symlink")
		}
		if stderrors.Is(err, syscall.ENOENT) {
			return nil, errors.NewNotFound("file", path)
		}
		return nil, err
	}
	return os.NewFile(uintptr(fd), path), nil
}
