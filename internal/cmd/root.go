// Package cmd builds the tmuxsrv command line: a thin client adapter
// plus the hidden subcommand that actually runs the server (spec.md
// §6.4; the ~40 user-command handlers and the terminfo/config-file
// layers a full tmux(1) CLI would also need are explicit Non-goals —
// this stays a launcher and raw-keystroke pipe, not a command shell).
// Grounded on internal/cmd/root.go's NewRootCmd shape.
package cmd

import (
	"github.com/spf13/cobra"
)

// Options are the global flags shared by every subcommand, populated
// by the persistent flags registered on the root command (spec.md
// §6.4: -S socket-path, -L socket-name, -f config-file, -u force-utf8,
// -2 force-256-colors, -C control-mode, -v verbose).
type Options struct {
	SocketPath string
	SocketName string
	ConfigFile string
	ForceUTF8  bool
	Force256   bool
	Control    bool
	Verbose    bool
}

// NewRootCmd creates the root cobra command with all subcommands.
func NewRootCmd() *cobra.Command {
	opts := &Options{}

	var printVersion bool

	root := &cobra.Command{
		Use:           "tmuxsrv",
		Short:         "terminal multiplexer",
		Long:          "tmuxsrv runs a persistent terminal multiplexer server and a thin client that attaches to it.",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(c *cobra.Command, args []string) error {
			if printVersion {
				return runVersion(c)
			}
			return runAttach(opts, true)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.SocketPath, "socket", "S", "", "path to the server socket")
	flags.StringVarP(&opts.SocketName, "socket-name", "L", "", "name of the server socket within the default directory")
	flags.StringVarP(&opts.ConfigFile, "file", "f", "", "configuration file (parsed configuration directives are not supported; accepted for CLI compatibility)")
	flags.BoolVarP(&opts.ForceUTF8, "utf8", "u", false, "assume the client terminal supports UTF-8")
	flags.BoolVarP(&opts.Force256, "256", "2", false, "force 256-colour mode")
	flags.BoolVarP(&opts.Control, "control", "C", false, "start in control mode (reserved; the control-mode wire protocol is not implemented)")
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "enable verbose logging")
	flags.BoolVarP(&printVersion, "version", "V", false, "print the version and exit")

	root.AddCommand(
		newAttachCmd(opts),
		newServerCmd(opts),
		newKillServerCmd(opts),
		newVersionCmd(),
	)

	return root
}
