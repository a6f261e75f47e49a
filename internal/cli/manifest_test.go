package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"covflow/internal/core"
)

func TestWriteFileAtomic_ReplacesWithoutLeftovers(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	path := filepath.Join(dir, "covflow-run.yaml")

	require.NoError(t, writeFileAtomic(path, []byte("old"), 0o644))
	require.NoError(t, writeFileAtomic(path, []byte("new"), 0o644))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new", string(got))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temporary files must not remain")
	assert.Equal(t, "covflow-run.yaml", entries[0].Name())
}

func TestNewManifest_CarriesUnverifiedKinds(t *testing.T) {
	run := haltedRun(t)
	run.Outcomes[0].Backends[0].Unverified = []core.ReportKind{"Badges"}

	m := NewManifest(run, "/repo")
	assert.Equal(t, "/repo", m.Root)
	assert.False(t, m.Succeeded)
	assert.Equal(t, []string{"Html"}, m.ReportKinds)
	assert.Equal(t, []string{"go_project"}, m.Halted)

	require.Len(t, m.Projects, 1)
	p := m.Projects[0]
	assert.Equal(t, "Verifying", p.FailedStage)
	assert.Equal(t, "go_tool", p.FailedBackend)
	assert.Equal(t, "ArtifactMissingOrEmpty", p.ErrorKind)
	assert.Equal(t, "no index.html", p.Error)
	assert.Equal(t, []string{"Badges"}, p.Backends[0].Unverified)
	assert.Equal(t, "skipped", p.Backends[1].Status)
}

func TestWriteManifest_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	want := NewManifest(haltedRun(t), "/repo")

	require.NoError(t, WriteManifest(path, want))
	got, err := ReadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, want.Projects, got.Projects)
	assert.Equal(t, want.Skipped, got.Skipped)
}
