package cli

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"covflow/internal/errors"
	"covflow/internal/pipeline"
	"covflow/internal/trace"
	"covflow/internal/workflow"
)

// Manifest is the YAML record of one run written to summary_file.
type Manifest struct {
	RunID       string            `yaml:"run_id"`
	StartedAt   time.Time         `yaml:"started_at"`
	FinishedAt  time.Time         `yaml:"finished_at"`
	Root        string            `yaml:"root"`
	ReportKinds []string          `yaml:"report_kinds"`
	Succeeded   bool              `yaml:"succeeded"`
	Backends    []string          `yaml:"backends"`
	Skipped     []string          `yaml:"skipped_backends,omitempty"`
	Projects    []ProjectManifest `yaml:"projects"`
	Halted      []string          `yaml:"halted,omitempty"`
	Events      []trace.Event     `yaml:"events"`
}

// ProjectManifest is one project's entry in the manifest.
type ProjectManifest struct {
	Name          string            `yaml:"name"`
	State         string            `yaml:"state"`
	FailedStage   string            `yaml:"failed_stage,omitempty"`
	FailedBackend string            `yaml:"failed_backend,omitempty"`
	ErrorKind     string            `yaml:"error_kind,omitempty"`
	Error         string            `yaml:"error,omitempty"`
	Stages        []string          `yaml:"stages"`
	Backends      []BackendManifest `yaml:"backends"`
}

// BackendManifest is one backend's result for a project.
type BackendManifest struct {
	Name       string   `yaml:"name"`
	Status     string   `yaml:"status"`
	OutputDir  string   `yaml:"output_dir,omitempty"`
	Unverified []string `yaml:"unverified,omitempty"`
}

// NewManifest flattens a run result into its manifest form.
func NewManifest(run *workflow.RunResult, root string) Manifest {
	m := Manifest{
		RunID:      run.RunID,
		StartedAt:  run.StartedAt,
		FinishedAt: run.Finished,
		Root:       root,
		Succeeded:  run.Succeeded(),
		Backends:   run.Backends,
		Skipped:    run.Skipped,
		Halted:     run.Halted,
		Events:     run.Trace.Events,
	}
	for _, k := range run.Request.Kinds() {
		m.ReportKinds = append(m.ReportKinds, string(k))
	}
	for _, o := range run.Outcomes {
		m.Projects = append(m.Projects, projectManifest(o))
	}
	return m
}

func projectManifest(o pipeline.Outcome) ProjectManifest {
	p := ProjectManifest{
		Name:          o.Project,
		State:         string(o.State),
		FailedStage:   string(o.FailedStage),
		FailedBackend: o.FailedBackend,
		ErrorKind:     o.ErrorKind(),
	}
	if o.Err != nil {
		p.Error = o.Err.Error()
	}
	for _, s := range o.Stages {
		p.Stages = append(p.Stages, string(s))
	}
	for _, b := range o.Backends {
		bm := BackendManifest{Name: b.Backend, Status: string(b.Status), OutputDir: b.OutputDir}
		for _, k := range b.Unverified {
			bm.Unverified = append(bm.Unverified, string(k))
		}
		p.Backends = append(p.Backends, bm)
	}
	return p
}

// ReadManifest decodes a manifest written by WriteManifest.
func ReadManifest(path string) (Manifest, error) {
	var m Manifest
	data, err := os.ReadFile(path)
	if err != nil {
		return m, errors.Wrapf(err, "reading manifest %s", path)
	}
	if err := yaml.Unmarshal(data, &m); err != nil {
		return m, errors.Wrapf(err, "decoding manifest %s", path)
	}
	return m, nil
}

// WriteManifest encodes m as YAML and replaces path atomically.
func WriteManifest(path string, m Manifest) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(m); err != nil {
		return errors.Wrap(err, "encoding manifest")
	}
	if err := enc.Close(); err != nil {
		return errors.Wrap(err, "encoding manifest")
	}
	if err := writeFileAtomic(path, buf.Bytes(), 0o644); err != nil {
		return errors.Mark(errors.Wrapf(err, "writing manifest %s", path), errors.ErrDirectoryProvision)
	}
	return nil
}

// writeFileAtomic writes data to a temporary file next to path, syncs it and
// renames it into place, so readers see either the old or the new file.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		_ = tmp.Close()
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := io.Copy(tmp, bytes.NewReader(data)); err != nil {
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	committed = true
	return syncDir(dir)
}

func syncDir(dir string) error {
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}
