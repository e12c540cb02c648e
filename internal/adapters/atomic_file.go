package adapters

import (
	"io"
	"os"
	"path/filepath"

	"github.com/ZanzyTHEbar/errbuilder-go"
)

// writeFileAtomic writes the content produced by fill to a temporary file
// next to path and renames it into place. On any failure the temporary
// file is removed and path is left untouched.
func writeFileAtomic(path string, fill func(w io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create output directory").
			WithCause(err)
	}
	tmp, err := os.CreateTemp(dir, ".apg-*.tmp")
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create temporary file").
			WithCause(err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpPath)
		}
	}()

	if err := fill(tmp); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to flush " + filepath.Base(path)).
			WithCause(err)
	}
	if err := tmp.Close(); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to close " + filepath.Base(path)).
			WithCause(err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to set permissions on " + filepath.Base(path)).
			WithCause(err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to move " + filepath.Base(path) + " into place").
			WithCause(err)
	}
	committed = true
	return nil
}

func writeBytesAtomic(path string, data []byte) error {
	return writeFileAtomic(path, func(w io.Writer) error {
		if _, err := w.Write(data); err != nil {
			return errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("failed to write " + filepath.Base(path)).
				WithCause(err)
		}
		return nil
	})
}
