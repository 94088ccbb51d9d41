package cargo

import (
	"bytes"
	"context"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/CoreumFoundation/coreum-tools/pkg/libexec"
	"github.com/CoreumFoundation/coreum-tools/pkg/logger"
	"github.com/CoreumFoundation/coreum-tools/pkg/must"
	"github.com/treescope/forge/build/docker"
	"github.com/treescope/forge/build/git"
	"github.com/treescope/forge/build/tools"
	"github.com/treescope/forge/build/types"
	"github.com/treescope/forge/exec"
)

// distRustVersion pins the toolchain used for dist builds so artifacts stay reproducible
// regardless of what is installed on the host.
const distRustVersion = "1.79.0"

//go:embed Dockerfile.tmpl
var dockerfileTemplate string

var dockerfileTemplateParsed = template.Must(template.New("Dockerfile").Parse(dockerfileTemplate))

// Dist builds the release profile inside a pinned docker image and stores
// the binary in the dist directory. Only docker is required on the host.
func Dist(ctx context.Context, deps types.DepsFunc) error {
	deps(EnsureDocker, git.EnsureGit)

	log := logger.Get(ctx)

	crate, err := ReadCrate(".")
	if err != nil {
		return err
	}

	image, err := ensureDistImage(ctx)
	if err != nil {
		return err
	}

	workspaceDir := must.String(filepath.Abs("."))
	if err := os.MkdirAll(filepath.Join(workspaceDir, "dist"), 0o700); err != nil {
		return errors.WithStack(err)
	}

	registryCacheDir := filepath.Join(tools.CacheDir(), "cargo-registry")
	if err := os.MkdirAll(registryCacheDir, 0o700); err != nil {
		return errors.WithStack(err)
	}

	headHash, err := git.HeadHash(ctx, ".")
	if err != nil {
		return err
	}
	log.Info("Building dist artifact",
		zap.String("crate", crate.Name),
		zap.String("version", crate.Version),
		zap.String("commit", headHash),
	)

	containerName := "forge-dist-" + uuid.NewString()[:8]
	buildScript := fmt.Sprintf(
		"cargo build --release --locked --target-dir /target && cp /target/release/%[1]s /code/dist/%[1]s",
		crate.Name,
	)
	runArgs := []string{
		"run", "--rm",
		"--label", docker.LabelKey + "=" + docker.LabelValue,
		"-v", workspaceDir + ":/code",
		"-v", registryCacheDir + ":/usr/local/cargo/registry",
		"--mount", "type=volume,source=" + docker.VolumePrefix + "target-" + sanitizeVolumeName(crate.Name) + ",target=/target",
		"--workdir", "/code",
		"--name", containerName,
		image,
		"sh", "-c", buildScript,
	}

	if err := libexec.Exec(ctx, exec.Docker(runArgs...)); err != nil {
		return errors.Wrapf(err, "dist build of crate '%s' failed", crate.Name)
	}

	log.Info("Dist artifact created", zap.String("path", filepath.Join(workspaceDir, "dist", crate.Name)))
	return nil
}

// EnsureDocker ensures that docker is available.
func EnsureDocker(ctx context.Context, _ types.DepsFunc) error {
	return tools.Ensure(ctx, tools.Docker)
}

func ensureDistImage(ctx context.Context) (string, error) {
	dockerfileBuf := &bytes.Buffer{}
	err := dockerfileTemplateParsed.Execute(dockerfileBuf, struct {
		RustVersion string
	}{
		RustVersion: distRustVersion,
	})
	if err != nil {
		return "", errors.Wrap(err, "executing Dockerfile template failed")
	}

	dockerfileChecksum := sha256.Sum256(dockerfileBuf.Bytes())
	image := "forge-dist-build:" + hex.EncodeToString(dockerfileChecksum[:4])

	exists, err := docker.ImageExists(ctx, image)
	if err != nil {
		return "", err
	}
	if exists {
		return image, nil
	}

	if err := docker.BuildImage(ctx, image, dockerfileBuf.Bytes()); err != nil {
		return "", err
	}
	return image, nil
}

func sanitizeVolumeName(name string) string {
	return strings.ReplaceAll(name, "-", "_")
}
