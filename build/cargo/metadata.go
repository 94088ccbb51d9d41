package cargo

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"

	"github.com/CoreumFoundation/coreum-tools/pkg/libexec"
	"github.com/treescope/forge/exec"
)

// Crate describes the crate defined by the workspace manifest.
type Crate struct {
	Name    string
	Version string
}

// ReadCrate reads crate name and version from Cargo.toml in the workspace dir.
func ReadCrate(workspaceDir string) (Crate, error) {
	manifest := struct {
		Package struct {
			Name    string `toml:"name"`
			Version string `toml:"version"`
		} `toml:"package"`
		Workspace struct {
			Package struct {
				Version string `toml:"version"`
			} `toml:"package"`
		} `toml:"workspace"`
	}{}

	if _, err := toml.DecodeFile(filepath.Join(workspaceDir, "Cargo.toml"), &manifest); err != nil {
		return Crate{}, errors.Wrap(err, "decoding Cargo.toml failed")
	}

	crate := Crate{
		Name:    manifest.Package.Name,
		Version: manifest.Package.Version,
	}
	if crate.Version == "" {
		// virtual workspaces keep the version under [workspace.package]
		crate.Version = manifest.Workspace.Package.Version
	}
	if crate.Name == "" {
		return Crate{}, errors.New("no package name found in Cargo.toml")
	}
	return crate, nil
}

// Metadata is the part of `cargo metadata` output the builder cares about.
type Metadata struct {
	Packages        []Package `json:"packages"`
	TargetDirectory string    `json:"target_directory"`
	WorkspaceRoot   string    `json:"workspace_root"`
}

// Package describes a single workspace member.
type Package struct {
	Name         string `json:"name"`
	Version      string `json:"version"`
	ManifestPath string `json:"manifest_path"`
}

// ReadMetadata asks cargo for workspace metadata. Output is captured, not passed through.
func ReadMetadata(ctx context.Context, workspaceDir string) (Metadata, error) {
	out := &bytes.Buffer{}
	cmd := exec.Cargo("metadata", "--format-version", "1", "--no-deps")
	cmd.Stdout = out
	cmd.Dir = workspaceDir

	if err := libexec.Exec(ctx, cmd); err != nil {
		return Metadata{}, errors.Wrap(err, "reading cargo metadata failed")
	}

	var md Metadata
	if err := json.Unmarshal(out.Bytes(), &md); err != nil {
		return Metadata{}, errors.Wrap(err, "unmarshalling cargo metadata failed")
	}
	return md, nil
}

// SourceDirs returns source roots of all workspace members.
func SourceDirs(md Metadata) []string {
	dirs := make([]string, 0, len(md.Packages))
	for _, pkg := range md.Packages {
		dirs = append(dirs, filepath.Join(filepath.Dir(pkg.ManifestPath), "src"))
	}
	return dirs
}
