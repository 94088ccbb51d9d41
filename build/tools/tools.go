package tools

import (
	"bytes"
	"context"
	"os"
	osexec "os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/mod/semver"

	"github.com/CoreumFoundation/coreum-tools/pkg/libexec"
	"github.com/CoreumFoundation/coreum-tools/pkg/logger"
	"github.com/CoreumFoundation/coreum-tools/pkg/must"
	"github.com/treescope/forge/build/types"
	"github.com/treescope/forge/exec"
)

// Tool names.
const (
	Cargo   Name = "cargo"
	Rustc   Name = "rustc"
	Rustup  Name = "rustup"
	Rustfmt Name = "rustfmt"
	Clippy  Name = "clippy"
	Go      Name = "go"
	Git     Name = "git"
	Docker  Name = "docker"
)

var tools = map[Name]Tool{
	// https://releases.rs
	Cargo: {
		Binary:      "cargo",
		MinVersion:  "1.74.0",
		VersionArgs: []string{"--version"},
		InstallHint: "curl --proto '=https' --tlsv1.2 -sSf https://sh.rustup.rs | sh",
	},
	Rustc: {
		Binary:      "rustc",
		MinVersion:  "1.74.0",
		VersionArgs: []string{"--version"},
		InstallHint: "curl --proto '=https' --tlsv1.2 -sSf https://sh.rustup.rs | sh",
	},
	Rustup: {
		Binary:      "rustup",
		VersionArgs: []string{"--version"},
		InstallHint: "curl --proto '=https' --tlsv1.2 -sSf https://sh.rustup.rs | sh",
	},

	// Components are distributed with the toolchain, their presence is probed through rustup.
	Rustfmt: {
		Binary:      "cargo-fmt",
		Component:   "rustfmt",
		InstallHint: "rustup component add rustfmt",
	},
	Clippy: {
		Binary:      "cargo-clippy",
		Component:   "clippy",
		InstallHint: "rustup component add clippy",
	},

	// https://go.dev/dl/
	Go: {
		Binary:      "go",
		MinVersion:  "1.21.0",
		VersionArgs: []string{"version"},
		InstallHint: "https://go.dev/doc/install",
	},
	Git: {
		Binary:      "git",
		VersionArgs: []string{"--version"},
	},
	Docker: {
		Binary:      "docker",
		VersionArgs: []string{"--version"},
		InstallHint: "https://docs.docker.com/engine/install",
	},
}

// ErrToolchainUnavailable is returned when a delegated tool is missing from PATH
// or is older than the minimal supported version.
var ErrToolchainUnavailable = errors.New("toolchain unavailable")

// Name is the type used for defining tool names.
type Name string

// Tool describes an external tool the builder delegates to.
type Tool struct {
	// Binary is the executable expected on PATH.
	Binary string

	// MinVersion is the minimal supported version, empty means any.
	MinVersion string

	// VersionArgs are the arguments used to probe the installed version.
	VersionArgs []string

	// Component is the rustup component providing the binary, empty for standalone tools.
	Component string

	// InstallHint tells the user how to get the tool.
	InstallHint string
}

// versionRx is the most basic semver regexp,
// if you want to fall into a turing tarpit, google the full one.
var versionRx = regexp.MustCompile(`([0-9]+\.[0-9]+\.[0-9]+)`)

// Get returns the tool definition by its name.
func Get(name Name) (Tool, error) {
	t, exists := tools[name]
	if !exists {
		return Tool{}, errors.Errorf("tool %s is not defined", name)
	}
	return t, nil
}

// Ensure verifies that the tool is present on PATH and satisfies the minimal version.
// It never installs anything.
func Ensure(ctx context.Context, name Name) error {
	log := logger.Get(ctx)

	info, err := Get(name)
	if err != nil {
		return err
	}

	if info.Component != "" {
		return ensureComponent(ctx, info)
	}

	if _, err := osexec.LookPath(info.Binary); err != nil {
		if info.InstallHint != "" {
			log.Warn("Tool is missing", zap.String("tool", info.Binary), zap.String("installHint", info.InstallHint))
		}
		return errors.Wrapf(ErrToolchainUnavailable, "%s command is not available in PATH", info.Binary)
	}

	if info.MinVersion == "" {
		return nil
	}

	version, err := readVersion(ctx, info.Binary, info.VersionArgs)
	if err != nil {
		return err
	}
	if isLessVersion(version, info.MinVersion) {
		log.Warn("Tool is outdated",
			zap.String("tool", info.Binary),
			zap.String("version", version),
			zap.String("minVersion", info.MinVersion))
		return errors.Wrapf(ErrToolchainUnavailable, "found %s version %s but minimal is %s",
			info.Binary, version, info.MinVersion)
	}
	return nil
}

// InstallAll verifies the rust toolchain and installs missing rustup components.
// It is the only operation performing installations, everything else only verifies.
func InstallAll(ctx context.Context, deps types.DepsFunc) error {
	for _, name := range []Name{Rustup, Cargo, Rustc} {
		if err := Ensure(ctx, name); err != nil {
			return err
		}
	}
	for _, name := range []Name{Rustfmt, Clippy} {
		info := tools[name]
		installed, err := componentInstalled(ctx, info.Component)
		if err != nil {
			return err
		}
		if installed {
			continue
		}

		logger.Get(ctx).Info("Installing rustup component", zap.String("component", info.Component))
		if err := libexec.Exec(ctx, exec.Rustup("component", "add", info.Component)); err != nil {
			return errors.Wrapf(err, "installing rustup component '%s' failed", info.Component)
		}
	}
	return nil
}

func ensureComponent(ctx context.Context, info Tool) error {
	if err := Ensure(ctx, Rustup); err != nil {
		return err
	}

	installed, err := componentInstalled(ctx, info.Component)
	if err != nil {
		return err
	}
	if !installed {
		logger.Get(ctx).Warn("Component is missing",
			zap.String("component", info.Component), zap.String("installHint", info.InstallHint))
		return errors.Wrapf(ErrToolchainUnavailable, "rustup component %s is not installed", info.Component)
	}
	return nil
}

func componentInstalled(ctx context.Context, component string) (bool, error) {
	buf := &bytes.Buffer{}
	cmd := exec.Rustup("component", "list", "--installed")
	cmd.Stdout = buf
	if err := libexec.Exec(ctx, cmd); err != nil {
		return false, errors.Wrap(err, "listing rustup components failed")
	}
	for _, line := range strings.Split(buf.String(), "\n") {
		// lines look like "clippy-x86_64-unknown-linux-gnu"
		if strings.HasPrefix(line, component+"-") || line == component {
			return true, nil
		}
	}
	return false, nil
}

func readVersion(ctx context.Context, binary string, args []string) (string, error) {
	buf := &bytes.Buffer{}
	cmd := osexec.Command(binary, args...)
	cmd.Stdout = buf
	if err := libexec.Exec(ctx, cmd); err != nil {
		return "", errors.Wrapf(err, "reading %s version failed", binary)
	}
	return parseVersion(buf.String())
}

func parseVersion(out string) (string, error) {
	matches := versionRx.FindStringSubmatch(out)
	if len(matches) < 2 {
		return "", errors.Errorf("no version found in output %q", strings.TrimSpace(out))
	}
	return matches[1], nil
}

func isLessVersion(a, b string) bool {
	return semver.Compare(ensureV(a), ensureV(b)) < 0
}

func ensureV(version string) string {
	if strings.HasPrefix(version, "v") {
		return version
	}
	return "v" + version
}

// CacheDir returns path to cache directory.
func CacheDir() string {
	return filepath.Join(must.String(os.UserCacheDir()), "forge")
}
