package nd2

import (
	"log/slog"

	"github.com/keejkrej/nd2-go/internal/logging"
)

// Option configures a Reader at Open time.
type Option func(*Reader)

// WithLogger attaches a structured logger. The Reader logs at Debug level on
// file open and on chunkmap discovery only; metadata parsing, CLX decoding
// and frame decoding do not log. If omitted or nil, all logging is
// discarded.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reader) {
		r.logger = logging.Default(logger)
	}
}

// WithStripPrefix enables the CLX name-normalisation mode that removes a
// leading run of lowercase letters and underscores from record names (e.g.
// "uiWidth" -> "Width"). The metadata interpreter itself always reads raw
// Nikon field names regardless of this setting; it only affects
// Reader.DecodeChunk, for callers that want to walk a decoded chunk tree
// directly.
func WithStripPrefix(strip bool) Option {
	return func(r *Reader) {
		r.stripPrefix = strip
	}
}
