package config

import (
	"path/filepath"

	"github.com/go-git/go-git/v5"

	"covflow/internal/errors"
)

// DetectRoot returns the work tree root of the git repository enclosing dir,
// or dir itself when it is not inside a repository (or the repository is
// bare).
func DetectRoot(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", errors.Mark(errors.Wrapf(err, "resolving %s", dir), errors.ErrConfiguration)
	}

	repo, err := git.PlainOpenWithOptions(abs, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return abs, nil
	}
	wt, err := repo.Worktree()
	if err != nil {
		return abs, nil
	}
	return wt.Filesystem.Root(), nil
}
