package container

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrInvalidChunkmapSignature reports a mismatched end-of-file trailer.
var ErrInvalidChunkmapSignature = errors.New("invalid chunkmap signature")

// chunkEntry locates a chunk's payload.
type chunkEntry struct {
	offset int64
	size   int64
}

// ChunkMap maps chunk names to their location in the container. Keys are
// opaque byte strings; callers that need display text must decode them.
type ChunkMap struct {
	entries map[string]chunkEntry
}

// Names returns the chunk names present in the map, in no particular order.
func (m *ChunkMap) Names() []string {
	names := make([]string, 0, len(m.entries))
	for name := range m.entries {
		names = append(names, name)
	}
	return names
}

// ErrChunkNotFound reports a lookup for a name absent from the chunkmap.
type ErrChunkNotFound struct {
	Name string
}

func (e *ErrChunkNotFound) Error() string {
	return fmt.Sprintf("chunk not found: %q", e.Name)
}

// ReadChunkMap locates and parses the chunkmap at the end of src.
func ReadChunkMap(src *Source) (*ChunkMap, error) {
	trailer, err := src.ReadAtEnd(TrailerSize)
	if err != nil {
		return nil, fmt.Errorf("read chunkmap trailer: %w", err)
	}
	signature := string(trailer[:SignatureFieldSize])
	if signature != ChunkmapTrailerSig {
		return nil, ErrInvalidChunkmapSignature
	}
	chunkmapOffset := int64(binary.LittleEndian.Uint64(trailer[SignatureFieldSize:]))

	header, err := readChunkHeader(src, chunkmapOffset)
	if err != nil {
		return nil, fmt.Errorf("read chunkmap header: %w", err)
	}

	nameBuf := make([]byte, header.NameLength)
	if err := src.ReadAt(nameBuf, chunkmapOffset+ChunkHeaderSize); err != nil {
		return nil, fmt.Errorf("read chunkmap name: %w", err)
	}
	if string(nameBuf) != FilemapNameSig {
		return nil, &ErrInvalidFormat{Message: fmt.Sprintf("chunkmap name %q", string(nameBuf))}
	}

	dataOffset := chunkmapOffset + ChunkHeaderSize + int64(header.NameLength)
	data := make([]byte, header.DataLength)
	if err := src.ReadAt(data, dataOffset); err != nil {
		return nil, fmt.Errorf("read chunkmap data: %w", err)
	}

	return &ChunkMap{entries: parseChunkMapEntries(data)}, nil
}

// parseChunkMapEntries walks the chunkmap payload, reading name-terminated
// entries followed by an 8-byte offset and 8-byte size, until the buffer is
// exhausted or the terminator signature is encountered mid-name.
func parseChunkMapEntries(data []byte) map[string]chunkEntry {
	entries := make(map[string]chunkEntry)
	pos := 0
	for pos < len(data) {
		nameStart := pos
		terminated := false
		for pos < len(data) {
			if data[pos] == NameTerminator {
				terminated = true
				pos++
				break
			}
			// If the trailing window looks like the chunkmap terminator
			// signature, the name collection is bogus: stop here and
			// discard the partial name.
			if pos-nameStart+1 >= SignatureFieldSize {
				window := data[pos-SignatureFieldSize+1 : pos+1]
				if bytes.Equal(window, []byte(ChunkmapTrailerSig)) {
					return entries
				}
			}
			pos++
		}
		if !terminated {
			return entries
		}
		// pos-1 excludes the NameTerminator byte itself, so entries (and
		// thus ChunkMap.Names()/ReadChunk's name argument) carry the bare
		// name without the trailing '!' that the on-disk ChunkHeader name
		// field and the spec's documented chunk names (e.g.
		// "ImageAttributesLV!") both include. Cosmetic, but callers must
		// index with the stripped form.
		name := string(data[nameStart : pos-1])

		if pos+16 > len(data) {
			return entries
		}
		offset := int64(binary.LittleEndian.Uint64(data[pos : pos+8]))
		size := int64(binary.LittleEndian.Uint64(data[pos+8 : pos+16]))
		pos += 16

		entries[name] = chunkEntry{offset: offset, size: size}
	}
	return entries
}

// ReadChunk reads the named chunk's payload, validating its header.
func ReadChunk(src *Source, m *ChunkMap, name string) ([]byte, error) {
	entry, ok := m.entries[name]
	if !ok {
		return nil, &ErrChunkNotFound{Name: name}
	}

	header, err := readChunkHeader(src, entry.offset)
	if err != nil {
		return nil, fmt.Errorf("read chunk %q header: %w", name, err)
	}

	dataOffset := entry.offset + ChunkHeaderSize + int64(header.NameLength)
	buf := make([]byte, entry.size)
	if err := src.ReadAt(buf, dataOffset); err != nil {
		return nil, fmt.Errorf("read chunk %q data: %w", name, err)
	}
	return buf, nil
}
