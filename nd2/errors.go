package nd2

import (
	"errors"
	"fmt"

	"github.com/keejkrej/nd2-go/internal/clx"
	"github.com/keejkrej/nd2-go/internal/container"
)

// Re-exported error types from the container and clx layers, so callers
// never need to import internal packages to use errors.As against them.
type (
	ErrInvalidMagic       = container.ErrInvalidMagic
	ErrInvalidFormat      = container.ErrInvalidFormat
	ErrUnsupportedVersion = container.ErrUnsupportedVersion
	ErrChunkNotFound      = container.ErrChunkNotFound
	ErrUnsupportedClxType = clx.ErrUnsupportedClxType
)

var (
	// ErrInvalidChunkmapSignature is returned when the end-of-file trailer
	// does not match the expected chunkmap terminator.
	ErrInvalidChunkmapSignature = container.ErrInvalidChunkmapSignature
	// ErrClxParse is returned for a malformed TLV stream.
	ErrClxParse = clx.ErrClxParse
	// ErrDecompression is returned when zlib inflation fails.
	ErrDecompression = clx.ErrDecompression
	// ErrUtf16Decode is returned for invalid UTF-16 in a name or string.
	ErrUtf16Decode = clx.ErrUtf16Decode
)

// ErrMetadataParse reports a required field missing or ill-typed after CLX
// decoding.
type ErrMetadataParse struct {
	Message string
}

func (e *ErrMetadataParse) Error() string {
	return "metadata parse: " + e.Message
}

func metadataParsef(format string, args ...any) error {
	return &ErrMetadataParse{Message: fmt.Sprintf(format, args...)}
}

// ErrFrameOutOfRange reports a sequence index outside [0, P*T*C*Z).
type ErrFrameOutOfRange struct {
	Seq, Count int
}

func (e *ErrFrameOutOfRange) Error() string {
	return fmt.Sprintf("frame index %d out of range [0, %d)", e.Seq, e.Count)
}

var errNoSuchChannel = errors.New("nd2: channel index out of range")
