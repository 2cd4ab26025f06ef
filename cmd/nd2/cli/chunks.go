package cli

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/keejkrej/nd2-go/nd2"
	"github.com/spf13/cobra"
)

func newChunksCmd(logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chunks",
		Short: "List all chunks in the file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			input, _ := cmd.Flags().GetString("input")
			return runChunks(cmd, logger, input)
		},
	}
	cmd.Flags().StringP("input", "i", "", "path to the ND2 file")
	cmd.Flags().Bool("json", false, "output in JSON format")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func runChunks(cmd *cobra.Command, logger *slog.Logger, input string) error {
	r, err := nd2.Open(input, nd2.WithLogger(logger))
	if err != nil {
		return err
	}
	defer r.Close()

	names := r.ChunkNames()
	sort.Strings(names)

	p := newPrinter(outputFormat(cmd))
	if p.format == "json" {
		return p.json(map[string]any{"chunks": names, "count": len(names)})
	}

	fmt.Printf("Chunks in file (%d total):\n", len(names))
	rows := make([][]string, len(names))
	for i, name := range names {
		rows[i] = []string{name}
	}
	p.table([]string{"NAME"}, rows)
	return nil
}
