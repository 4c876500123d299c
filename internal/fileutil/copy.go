package fileutil

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rogersnm/copista/internal/slug"
)

// maxProbe bounds the collision probe so a pathological directory cannot spin forever.
const maxProbe = 100000

var imageExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".bmp": true,
	".tif": true, ".tiff": true, ".cr2": true, ".nef": true,
}

// IsImage reports whether name has an image extension Copista imports.
func IsImage(name string) bool {
	return imageExts[strings.ToLower(filepath.Ext(name))]
}

// FreeName returns name if it does not exist in dir, otherwise the first
// free "stem_NNN.ext" variant.
func FreeName(dir, name string) (string, error) {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	candidate := name
	for n := 1; n <= maxProbe; n++ {
		_, err := os.Lstat(filepath.Join(dir, candidate))
		if errors.Is(err, os.ErrNotExist) {
			return candidate, nil
		}
		if err != nil {
			return "", fmt.Errorf("checking %s: %w", candidate, err)
		}
		candidate = slug.Numbered(stem, n) + ext
	}
	return "", fmt.Errorf("no free name for %s in %s", name, dir)
}

var freeName = FreeName

// maxCreateAttempts bounds how often a name taken after the probe is re-probed.
const maxCreateAttempts = 10

// createFree creates a new file under a free variant of name. O_EXCL
// keeps a file that appeared after the probe from being overwritten; the
// probe is then repeated.
func createFree(dir, name string, perm os.FileMode) (*os.File, string, error) {
	for range maxCreateAttempts {
		free, err := freeName(dir, name)
		if err != nil {
			return nil, "", err
		}
		path := filepath.Join(dir, free)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
		if err == nil {
			return f, free, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, "", fmt.Errorf("creating %s: %w", path, err)
		}
	}
	return nil, "", fmt.Errorf("no free name for %s in %s", name, dir)
}

// CopyImage copies src into destDir under a collision-safe name and
// returns the chosen filename. Mode and modification time are preserved.
func CopyImage(src, destDir string) (string, error) {
	info, err := os.Stat(src)
	if err != nil {
		return "", fmt.Errorf("source %s: %w", src, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("source %s is a directory", src)
	}

	in, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", src, err)
	}
	defer in.Close()

	out, name, err := createFree(destDir, filepath.Base(src), info.Mode().Perm())
	if err != nil {
		return "", err
	}
	dest := filepath.Join(destDir, name)
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dest)
		return "", fmt.Errorf("copying %s: %w", src, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(dest)
		return "", fmt.Errorf("closing %s: %w", dest, err)
	}
	_ = os.Chtimes(dest, info.ModTime(), info.ModTime())
	return name, nil
}

// WriteFileAtomic writes data to a temp file next to path and renames it into place.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("writing %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("syncing %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("closing %s: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		cleanup()
		return fmt.Errorf("chmod %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("renaming into %s: %w", path, err)
	}
	return nil
}
