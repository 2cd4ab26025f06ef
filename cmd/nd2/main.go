// Command nd2 inspects Nikon ND2 microscopy files from the command line.
//
// Logging:
//   - Base logger is created here with output format and level
//   - Logger is passed to the library via nd2.WithLogger
//   - No global slog configuration (no slog.SetDefault)
package main

import (
	"log/slog"
	"os"

	"github.com/keejkrej/nd2-go/cmd/nd2/cli"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	if err := cli.NewRootCommand(logger).Execute(); err != nil {
		os.Exit(1)
	}
}
