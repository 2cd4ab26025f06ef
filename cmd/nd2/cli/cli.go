// Package cli implements the nd2 command-line front end: the "info" and
// "chunks" subcommands over a local ND2 file.
package cli

import (
	"log/slog"

	"github.com/spf13/cobra"
)

var version = "dev"

// NewRootCommand returns the "nd2" root command with all subcommands wired
// in, following the teacher's root-command-plus-subcommand cobra layout.
func NewRootCommand(logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nd2",
		Short: "Read Nikon ND2 microscopy files",
	}

	cmd.AddCommand(
		newInfoCmd(logger),
		newChunksCmd(logger),
		newVersionCmd(),
	)

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			newPrinter("table").kv([][2]string{{"version", version}})
		},
	}
}

func outputFormat(cmd *cobra.Command) string {
	if json, _ := cmd.Flags().GetBool("json"); json {
		return "json"
	}
	return "table"
}
