package container

import "encoding/binary"

// ChunkHeader precedes every named chunk's payload on disk.
type ChunkHeader struct {
	Magic      uint32
	NameLength uint32
	DataLength uint64
}

// readChunkHeader parses a ChunkHeader at offset and validates its magic.
func readChunkHeader(src *Source, offset int64) (ChunkHeader, error) {
	buf := make([]byte, ChunkHeaderSize)
	if err := src.ReadAt(buf, offset); err != nil {
		return ChunkHeader{}, err
	}
	h := ChunkHeader{
		Magic:      binary.LittleEndian.Uint32(buf[0:4]),
		NameLength: binary.LittleEndian.Uint32(buf[4:8]),
		DataLength: binary.LittleEndian.Uint64(buf[8:16]),
	}
	if h.Magic != MagicModern {
		return ChunkHeader{}, &ErrInvalidMagic{Expected: MagicModern, Actual: h.Magic}
	}
	return h, nil
}
