package cli

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"unicode/utf8"

	"github.com/pterm/pterm"
	"github.com/sergi/go-diff/diffmatchpatch"

	"covflow/internal/errors"
)

// MaxDiffBytes is the largest file for which a text patch is produced.
const MaxDiffBytes = 64 << 10

// FileDiff is a file present on both sides with different contents.
type FileDiff struct {
	Path string
	// Patch is a unified-style text patch, empty for binary or large files.
	Patch string
}

// Comparison is the result of comparing two report directories. Paths are
// slash separated and relative to the compared roots.
type Comparison struct {
	Left, Right string
	LeftOnly    []string
	RightOnly   []string
	Differing   []FileDiff
}

// Identical reports whether both trees hold the same files with the same
// contents.
func (c *Comparison) Identical() bool {
	return len(c.LeftOnly) == 0 && len(c.RightOnly) == 0 && len(c.Differing) == 0
}

// CompareDirs compares the regular files under left and right after passing
// both sides through norm; nil means ExactNormalizer. A missing directory is
// an ArtifactMissingOrEmpty error.
func CompareDirs(left, right string, norm Normalizer) (*Comparison, error) {
	if norm == nil {
		norm = ExactNormalizer{}
	}
	lf, err := listFiles(left)
	if err != nil {
		return nil, err
	}
	rf, err := listFiles(right)
	if err != nil {
		return nil, err
	}

	c := &Comparison{Left: left, Right: right}
	for rel := range lf {
		if _, ok := rf[rel]; !ok {
			c.LeftOnly = append(c.LeftOnly, rel)
		}
	}
	for rel := range rf {
		if _, ok := lf[rel]; !ok {
			c.RightOnly = append(c.RightOnly, rel)
			continue
		}
		d, same, err := diffFile(lf[rel], rf[rel], norm)
		if err != nil {
			return nil, err
		}
		if !same {
			d.Path = rel
			c.Differing = append(c.Differing, d)
		}
	}
	sort.Strings(c.LeftOnly)
	sort.Strings(c.RightOnly)
	sort.Slice(c.Differing, func(i, j int) bool { return c.Differing[i].Path < c.Differing[j].Path })
	return c, nil
}

func listFiles(root string) (map[string]string, error) {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, errors.ArtifactMissingf("report directory %s does not exist", root)
	}
	files := make(map[string]string)
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files[filepath.ToSlash(rel)] = path
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "walking %s", root)
	}
	return files, nil
}

func diffFile(left, right string, norm Normalizer) (FileDiff, bool, error) {
	a, err := os.ReadFile(left)
	if err != nil {
		return FileDiff{}, false, errors.Wrapf(err, "reading %s", left)
	}
	b, err := os.ReadFile(right)
	if err != nil {
		return FileDiff{}, false, errors.Wrapf(err, "reading %s", right)
	}
	a, b = norm.Normalize(a), norm.Normalize(b)
	if bytes.Equal(a, b) {
		return FileDiff{}, true, nil
	}
	if !isText(a) || !isText(b) {
		return FileDiff{}, false, nil
	}
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffCleanupSemantic(dmp.DiffMain(string(a), string(b), false))
	return FileDiff{Patch: dmp.PatchToText(dmp.PatchMake(string(a), diffs))}, false, nil
}

func isText(b []byte) bool {
	return len(b) <= MaxDiffBytes && utf8.Valid(b) && bytes.IndexByte(b, 0) < 0
}

// Compare compares left and right and prints the differences to w. It
// returns ExitSuccess only when the trees are identical under norm.
func Compare(w io.Writer, left, right string, norm Normalizer) (int, error) {
	c, err := CompareDirs(left, right, norm)
	if err != nil {
		fmt.Fprint(w, pterm.Error.Sprintln(err.Error()))
		return ExitFailure, err
	}
	if c.Identical() {
		fmt.Fprint(w, pterm.Success.Sprintfln("%s and %s are identical", left, right))
		return ExitSuccess, nil
	}

	for _, p := range c.LeftOnly {
		fmt.Fprintf(w, "only in %s: %s\n", left, p)
	}
	for _, p := range c.RightOnly {
		fmt.Fprintf(w, "only in %s: %s\n", right, p)
	}
	for _, d := range c.Differing {
		fmt.Fprintf(w, "differs: %s\n", d.Path)
		if d.Patch != "" {
			fmt.Fprintln(w, d.Patch)
		}
	}
	fmt.Fprint(w, pterm.Warning.Sprintfln("%d only in left, %d only in right, %d differing",
		len(c.LeftOnly), len(c.RightOnly), len(c.Differing)))
	return ExitFailure, nil
}
