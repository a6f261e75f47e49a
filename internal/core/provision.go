package core

import (
	"os"

	"covflow/internal/errors"
)

// DirPerm is the mode used for every directory the run creates.
const DirPerm = 0o755

// EnsureDir creates dir and any missing parents. An existing directory is a
// no-op. Failures (permission denied, a file in the way) are
// DirectoryProvisionError.
func EnsureDir(dir string) error {
	if dir == "" {
		return errors.Mark(errors.New("empty directory path"), errors.ErrDirectoryProvision)
	}
	if err := os.MkdirAll(dir, DirPerm); err != nil {
		return errors.Mark(errors.Wrapf(err, "creating directory %s", dir), errors.ErrDirectoryProvision)
	}
	return nil
}

// RemoveStale deletes leftover artifacts from an earlier run so they cannot
// satisfy a later non-empty check. Missing files are ignored; empty paths
// are skipped.
func RemoveStale(paths ...string) error {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return errors.Mark(errors.Wrapf(err, "removing stale artifact %s", p), errors.ErrDirectoryProvision)
		}
	}
	return nil
}

// NonEmptyFile reports whether path is a regular file with at least one byte.
func NonEmptyFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular() && info.Size() > 0
}

// RequireNonEmpty returns ArtifactMissingOrEmpty when path is absent or empty.
// what names the artifact in the message.
func RequireNonEmpty(path, what string) error {
	info, err := os.Stat(path)
	switch {
	case err != nil:
		return errors.ArtifactMissingf("%s not generated at %s", what, path)
	case !info.Mode().IsRegular():
		return errors.ArtifactMissingf("%s at %s is not a regular file", what, path)
	case info.Size() == 0:
		return errors.ArtifactMissingf("%s is empty at %s", what, path)
	}
	return nil
}
