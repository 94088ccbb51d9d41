package build

import (
	"github.com/treescope/forge/build/cargo"
	"github.com/treescope/forge/build/forge"
	"github.com/treescope/forge/build/lint"
	"github.com/treescope/forge/build/tools"
	"github.com/treescope/forge/build/types"
)

// Commands is a definition of commands available in the build system.
// The table is built once at init and never mutated.
var Commands = map[string]types.Command{
	"build": {
		Description: "Builds the workspace in the debug profile",
		Fn:          cargo.Build,
	},
	"build-release": {
		Description: "Builds the workspace in the release profile",
		Fn:          cargo.BuildRelease,
	},
	"build/me": {
		Description: "Rebuilds the forge binary",
		Fn:          forge.BuildBuilder,
	},
	"test": {
		Description: "Runs the workspace test suite",
		Fn:          cargo.Test,
	},
	"check": {
		Description: "Type-checks the workspace without producing artifacts",
		Fn:          cargo.Check,
	},
	"clean": {
		Description: "Removes build artifacts of the workspace",
		Fn:          cargo.Clean,
	},
	"fmt": {
		Description: "Formats sources of the workspace",
		Fn:          cargo.Fmt,
	},
	"lint": {
		Description: "Runs clippy and rustfmt checks and verifies that git status is clean",
		Fn:          lint.Lint,
	},
	"dist": {
		Description: "Builds the release binary inside a pinned docker image",
		Fn:          cargo.Dist,
	},
	"setup": {
		Description: "Verifies the toolchain and installs missing rustup components",
		Fn:          tools.InstallAll,
	},
	"purge": {
		Description: "Removes docker resources and caches created by forge",
		Fn:          forge.Purge,
	},
}
