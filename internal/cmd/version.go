package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tmux/tmux-sub006/internal/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "print the version",
		RunE: func(c *cobra.Command, args []string) error {
			return runVersion(c)
		},
	}
}

func runVersion(c *cobra.Command) error {
	fmt.Fprintf(c.OutOrStdout(), "tmuxsrv %s\n", version.DisplayVersion())
	return nil
}
