// Package nd2 reads Nikon ND2 microscopy files: the chunked container
// format, the CLX-Lite metadata encoding, and the experiment/attribute
// schema layered on top of them.
package nd2

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/keejkrej/nd2-go/internal/clx"
	"github.com/keejkrej/nd2-go/internal/container"
	"github.com/keejkrej/nd2-go/internal/logging"
)

// Version identifies the container's metadata layout.
type Version = container.Version

// Value is a decoded CLX-Lite tree node, returned by DecodeChunk for direct
// inspection of a chunk outside the metadata interpreter.
type Value = clx.Value

// Reader is the facade over an open ND2 file. It owns the file handle, the
// parsed chunkmap, and memoised parsed metadata. A Reader is not safe for
// concurrent use, and its metadata accessors are not reentrant: do not call
// the same Reader from within one of its own lazy-parse paths.
type Reader struct {
	src      *container.Source
	chunkMap *container.ChunkMap
	version  Version
	logger   *slog.Logger

	stripPrefix bool

	attributes *Attributes
	textInfo   *TextInfo
	experiment []ExpLoop
	sizes      *Sizes
	axisOrder  []Axis
}

// Open opens path, parses the file header and chunkmap, and returns a
// Reader. Metadata chunks (attributes, text info, experiment) are parsed
// lazily on first access.
func Open(path string, opts ...Option) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	src := container.NewSource(f, f, info.Size())

	r := &Reader{src: src, logger: logging.Discard()}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("component", "nd2", "path", path)

	version, err := container.ReadHeader(src)
	if err != nil {
		src.Close()
		return nil, err
	}
	r.version = version
	r.logger.Debug("opened file", "version", version)

	chunkMap, err := container.ReadChunkMap(src)
	if err != nil {
		src.Close()
		return nil, err
	}
	r.chunkMap = chunkMap
	r.logger.Debug("parsed chunkmap", "chunks", len(chunkMap.Names()))

	return r, nil
}

// Close releases the underlying file handle.
func (r *Reader) Close() error {
	return r.src.Close()
}

// Version returns the container's (major, minor) version.
func (r *Reader) Version() Version {
	return r.version
}

// ChunkNames returns the chunk names present in the chunkmap, lossily
// decoded as UTF-8 (chunk names are opaque bytes on disk, but are ASCII in
// every known encoder).
func (r *Reader) ChunkNames() []string {
	names := r.chunkMap.Names()
	for i, name := range names {
		names[i] = strings.ToValidUTF8(name, "�")
	}
	return names
}

// ReadRawChunk returns the raw payload bytes of the named chunk.
func (r *Reader) ReadRawChunk(name string) ([]byte, error) {
	return container.ReadChunk(r.src, r.chunkMap, name)
}

// decodeMetadataClx reads and decodes the named chunk as a CLX-Lite tree for
// the metadata interpreter (attributes, experiment, text info). It always
// reads raw Nikon field names, per spec: WithStripPrefix never affects this
// path, only DecodeChunk.
func (r *Reader) decodeMetadataClx(name string) (clx.Value, error) {
	d := &clx.Decoder{StripPrefix: false}
	return r.decodeClxWith(name, d)
}

// DecodeChunk reads and decodes the named chunk as a CLX-Lite tree for
// direct inspection, honoring WithStripPrefix. The metadata interpreter does
// not use this path; it always reads raw names.
func (r *Reader) DecodeChunk(name string) (Value, error) {
	d := &clx.Decoder{StripPrefix: r.stripPrefix}
	return r.decodeClxWith(name, d)
}

func (r *Reader) decodeClxWith(name string, d *clx.Decoder) (clx.Value, error) {
	raw, err := r.ReadRawChunk(name)
	if err != nil {
		return clx.Value{}, err
	}
	v, err := d.Parse(raw)
	if err != nil {
		return clx.Value{}, fmt.Errorf("decode %s: %w", name, err)
	}
	return v, nil
}

// attributesChunkName and friends select the chunk name by version, per the
// table in the metadata interpreter. The chunkmap strips each entry's
// trailing '!' terminator when indexing (see container.parseChunkMapEntries),
// so lookups here must omit it too even though the on-disk/documented form
// carries it.
func (r *Reader) attributesChunkName() string {
	if r.version.Major >= 3 {
		return "ImageAttributesLV"
	}
	return "ImageAttributes"
}

func (r *Reader) experimentChunkName() string {
	if r.version.Major >= 3 {
		return "ImageMetadataLV"
	}
	return "ImageMetadata"
}

func (r *Reader) textInfoChunkName() string {
	if r.version.Major >= 3 {
		return "ImageTextInfoLV"
	}
	return "ImageTextInfo"
}
