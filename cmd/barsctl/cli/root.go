// Package cli implements the barsctl commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// exitError carries a process exit code out of a cobra command.
type exitError struct {
	code int
}

func (e exitError) Error() string { return fmt.Sprintf("exit %d", e.code) }

// Execute runs barsctl with args and returns the process exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := NewRootCommand(stdout, stderr)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		var exit exitError
		if errors.As(err, &exit) {
			return exit.code
		}
		_, _ = fmt.Fprintf(stderr, "barsctl: %v\n", err)
		return 1
	}
	return 0
}

// NewRootCommand builds the command tree.
func NewRootCommand(stdout, stderr io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "barsctl",
		Short:         "Render and manage stacked bar charts",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.AddCommand(newRenderCommand(stdout, stderr))
	root.AddCommand(newPaletteCommand(stdout, stderr))
	root.AddCommand(newJobsCommand(stdout, stderr))
	return root
}

func exitCode(code int) error {
	if code == 0 {
		return nil
	}
	return exitError{code: code}
}
