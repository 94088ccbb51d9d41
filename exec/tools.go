package exec

import (
	"os"
	"os/exec"
)

// Cargo runs cargo command.
func Cargo(args ...string) *exec.Cmd {
	return toolCmd("cargo", args)
}

// Rustup runs rustup command.
func Rustup(args ...string) *exec.Cmd {
	return toolCmd("rustup", args)
}

// Go runs go command.
func Go(args ...string) *exec.Cmd {
	return toolCmd("go", args)
}

// Git runs git command.
func Git(args ...string) *exec.Cmd {
	return toolCmd("git", args)
}

func toolCmd(tool string, args []string) *exec.Cmd {
	cmd := exec.Command(tool, args...)
	// Output of the delegated tool goes straight to the terminal, unbuffered.
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin
	return cmd
}
