package container

import (
	"encoding/binary"
	"errors"
	"os"
	"testing"
)

func buildFileHeader(t *testing.T, versionPayload string) []byte {
	t.Helper()
	buf := make([]byte, FileHeaderSize)
	binary.LittleEndian.PutUint32(buf[0:4], MagicModern)
	binary.LittleEndian.PutUint32(buf[4:8], SignatureFieldSize)
	binary.LittleEndian.PutUint64(buf[8:16], 64)
	copy(buf[16:48], FileSignature)
	copy(buf[48:112], versionPayload)
	return buf
}

func newMemSource(data []byte) *Source {
	return NewSource(&memReaderAt{data: data}, nil, int64(len(data)))
}

type memReaderAt struct {
	data []byte
}

func (m *memReaderAt) ReadAt(p []byte, off int64) (int, error) {
	if off >= int64(len(m.data)) {
		return 0, os.ErrInvalid
	}
	n := copy(p, m.data[off:])
	if n < len(p) {
		return n, os.ErrInvalid
	}
	return n, nil
}

func TestReadHeaderModern(t *testing.T) {
	buf := buildFileHeader(t, "Ver3.0")
	v, err := ReadHeader(newMemSource(buf))
	if err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}
	if v.Major != 3 || v.Minor != 0 {
		t.Fatalf("got version %+v, want {3 0}", v)
	}
}

func TestReadHeaderLegacy(t *testing.T) {
	buf := make([]byte, FileHeaderSize)
	binary.LittleEndian.PutUint32(buf[0:4], MagicLegacy)
	_, err := ReadHeader(newMemSource(buf))
	var uv *ErrUnsupportedVersion
	if !errors.As(err, &uv) || uv.Major != 1 || uv.Minor != 0 {
		t.Fatalf("got %v, want ErrUnsupportedVersion{1,0}", err)
	}
}

func TestReadHeaderBadMagic(t *testing.T) {
	buf := make([]byte, FileHeaderSize)
	binary.LittleEndian.PutUint32(buf[0:4], 0xEFBEADDE)
	_, err := ReadHeader(newMemSource(buf))
	var im *ErrInvalidMagic
	if !errors.As(err, &im) {
		t.Fatalf("got %v, want ErrInvalidMagic", err)
	}
	if im.Expected != MagicModern || im.Actual != 0xEFBEADDE {
		t.Fatalf("got %+v", im)
	}
}

func TestReadChunkMapBadTrailer(t *testing.T) {
	buf := make([]byte, TrailerSize)
	copy(buf, "not the right signature padded..")
	_, err := ReadChunkMap(newMemSource(buf))
	if !errors.Is(err, ErrInvalidChunkmapSignature) {
		t.Fatalf("got %v, want ErrInvalidChunkmapSignature", err)
	}
}

func TestParseChunkMapEntries(t *testing.T) {
	var data []byte
	data = append(data, []byte("Entry1!")...)
	off := make([]byte, 8)
	binary.LittleEndian.PutUint64(off, 1000)
	data = append(data, off...)
	sz := make([]byte, 8)
	binary.LittleEndian.PutUint64(sz, 42)
	data = append(data, sz...)

	entries := parseChunkMapEntries(data)
	e, ok := entries["Entry1"]
	if !ok {
		t.Fatalf("entry not found, got %v", entries)
	}
	if e.offset != 1000 || e.size != 42 {
		t.Fatalf("got %+v", e)
	}
}

func TestReadChunkNotFound(t *testing.T) {
	m := &ChunkMap{entries: map[string]chunkEntry{}}
	_, err := ReadChunk(newMemSource(nil), m, "Missing!")
	var nf *ErrChunkNotFound
	if !errors.As(err, &nf) || nf.Name != "Missing!" {
		t.Fatalf("got %v, want ErrChunkNotFound", err)
	}
}
