package cargo

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCrate(t *testing.T) {
	dir := t.TempDir()
	manifest := `
[package]
name = "treescope"
version = "0.3.1"
edition = "2021"

[dependencies]
tree-sitter = "0.22"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Cargo.toml"), []byte(manifest), 0o600))

	crate, err := ReadCrate(dir)
	require.NoError(t, err)
	assert.Equal(t, "treescope", crate.Name)
	assert.Equal(t, "0.3.1", crate.Version)
}

func TestReadCrateWorkspaceVersion(t *testing.T) {
	dir := t.TempDir()
	manifest := `
[package]
name = "treescope"

[workspace]
members = ["cli"]

[workspace.package]
version = "1.0.0"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Cargo.toml"), []byte(manifest), 0o600))

	crate, err := ReadCrate(dir)
	require.NoError(t, err)
	assert.Equal(t, "treescope", crate.Name)
	assert.Equal(t, "1.0.0", crate.Version)
}

func TestReadCrateMissingName(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Cargo.toml"), []byte("[workspace]\nmembers = []\n"), 0o600))

	_, err := ReadCrate(dir)
	require.Error(t, err)
}

func TestMetadataDecoding(t *testing.T) {
	out := `{
		"packages": [
			{"name": "treescope", "version": "0.3.1", "manifest_path": "/work/treescope/Cargo.toml"},
			{"name": "treescope-cli", "version": "0.3.1", "manifest_path": "/work/treescope/cli/Cargo.toml"}
		],
		"workspace_root": "/work/treescope",
		"target_directory": "/work/treescope/target"
	}`

	var md Metadata
	require.NoError(t, json.Unmarshal([]byte(out), &md))

	assert.Equal(t, "/work/treescope", md.WorkspaceRoot)
	assert.Equal(t, "/work/treescope/target", md.TargetDirectory)
	require.Len(t, md.Packages, 2)
	assert.Equal(t, "treescope", md.Packages[0].Name)

	dirs := SourceDirs(md)
	assert.Equal(t, []string{"/work/treescope/src", "/work/treescope/cli/src"}, dirs)
}
