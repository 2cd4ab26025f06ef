package nd2

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// --- minimal CLX-Lite record builders, mirroring internal/clx's own test
// helpers but kept local to avoid exporting test-only helpers from clx. ---

func clxRecord(t *testing.T, dataType byte, name string, payload []byte) []byte {
	t.Helper()
	var nameBytes []byte
	for _, r := range name + "\x00" {
		nameBytes = append(nameBytes, byte(r), 0)
	}
	var buf bytes.Buffer
	buf.WriteByte(dataType)
	buf.WriteByte(byte(len(nameBytes) / 2))
	buf.Write(nameBytes)
	buf.Write(payload)
	return buf.Bytes()
}

func clxU32(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

const (
	clxUInt32 = 3
	clxLevel  = 11
)

func clxLevelPayload(t *testing.T, entries ...[]byte) []byte {
	t.Helper()
	var inner bytes.Buffer
	for _, e := range entries {
		inner.Write(e)
	}
	var buf bytes.Buffer
	buf.Write(clxU32(uint32(len(entries))))
	buf.Write(make([]byte, 8)) // total_length, unused by the decoder
	buf.Write(inner.Bytes())
	buf.Write(make([]byte, 8*len(entries)))
	return buf.Bytes()
}

// --- ND2 container builder ---

type nd2Builder struct {
	t      *testing.T
	chunks map[string][]byte
}

func newND2Builder(t *testing.T) *nd2Builder {
	return &nd2Builder{t: t, chunks: map[string][]byte{}}
}

func (b *nd2Builder) addChunk(name string, data []byte) {
	b.chunks[name] = data
}

// chunkHeaderAndBody writes a ChunkHeader followed by the on-disk name field
// (which carries the trailing '!', unlike the stripped chunkmap key) and the
// chunk's data.
func chunkHeaderAndBody(name string, data []byte) []byte {
	onDiskName := name + "!"
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, uint32(0x0ABECEDA))
	binary.Write(&buf, binary.LittleEndian, uint32(len(onDiskName)))
	binary.Write(&buf, binary.LittleEndian, uint64(len(data)))
	buf.WriteString(onDiskName)
	buf.Write(data)
	return buf.Bytes()
}

func (b *nd2Builder) build(versionPayload string) []byte {
	var body bytes.Buffer
	offsets := map[string]int64{}

	fileHeader := make([]byte, 112)
	binary.LittleEndian.PutUint32(fileHeader[0:4], 0x0ABECEDA)
	binary.LittleEndian.PutUint32(fileHeader[4:8], 32)
	binary.LittleEndian.PutUint64(fileHeader[8:16], 64)
	copy(fileHeader[16:48], "ND2 FILE SIGNATURE CHUNK NAME01!")
	copy(fileHeader[48:112], versionPayload)

	body.Write(fileHeader)
	for name, data := range b.chunks {
		offsets[name] = int64(body.Len())
		body.Write(chunkHeaderAndBody(name, data))
	}

	// Chunkmap entries are name + '!' terminator; the reader strips the
	// terminator back off when indexing, so b.chunks keys carry no bang.
	var filemapData bytes.Buffer
	for name, data := range b.chunks {
		filemapData.WriteString(name)
		filemapData.WriteByte('!')
		binary.Write(&filemapData, binary.LittleEndian, uint64(offsets[name]))
		binary.Write(&filemapData, binary.LittleEndian, uint64(len(data)))
	}
	chunkmapOffset := int64(body.Len())
	body.Write(chunkHeaderAndBody("ND2 FILEMAP SIGNATURE NAME 0001", filemapData.Bytes()))

	body.WriteString("ND2 CHUNK MAP SIGNATURE 0000001!")
	binary.Write(&body, binary.LittleEndian, uint64(chunkmapOffset))

	return body.Bytes()
}

func (b *nd2Builder) writeTemp(versionPayload string) string {
	b.t.Helper()
	path := filepath.Join(b.t.TempDir(), "test.nd2")
	if err := os.WriteFile(path, b.build(versionPayload), 0o644); err != nil {
		b.t.Fatal(err)
	}
	return path
}

func attributesChunk(t *testing.T) []byte {
	t.Helper()
	level := clxLevelPayload(t,
		clxRecord(t, clxUInt32, "uiBpcInMemory", clxU32(16)),
		clxRecord(t, clxUInt32, "uiBpcSignificant", clxU32(12)),
		clxRecord(t, clxUInt32, "uiComp", clxU32(1)),
		clxRecord(t, clxUInt32, "uiHeight", clxU32(4)),
		clxRecord(t, clxUInt32, "uiWidth", clxU32(4)),
		clxRecord(t, clxUInt32, "uiSequenceCount", clxU32(2)),
	)
	return clxRecord(t, clxLevel, "SLxImageAttributes", level)
}

func TestOpenAndVersion(t *testing.T) {
	b := newND2Builder(t)
	b.addChunk("ImageAttributesLV", attributesChunk(t))
	path := b.writeTemp("Ver3.0")

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	v := r.Version()
	if v.Major != 3 || v.Minor != 0 {
		t.Fatalf("got version %+v, want {3 0}", v)
	}
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.nd2"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestOpenGarbageFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.nd2")
	if err := os.WriteFile(path, bytes.Repeat([]byte{0x42}, 200), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Open(path)
	if err == nil {
		t.Fatal("expected error for garbage file")
	}
}

func TestAttributes(t *testing.T) {
	b := newND2Builder(t)
	b.addChunk("ImageAttributesLV", attributesChunk(t))
	path := b.writeTemp("Ver3.0")

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	attrs, err := r.Attributes()
	if err != nil {
		t.Fatalf("Attributes: %v", err)
	}
	if attrs.BitsPerComponentInMemory != 16 || attrs.HeightPx != 4 || attrs.SequenceCount != 2 {
		t.Fatalf("got %+v", attrs)
	}
	if attrs.WidthPx == nil || *attrs.WidthPx != 4 {
		t.Fatalf("got width %v, want 4", attrs.WidthPx)
	}
}

func TestAttributesMissingIsError(t *testing.T) {
	b := newND2Builder(t)
	path := b.writeTemp("Ver3.0")

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	if _, err := r.Attributes(); err == nil {
		t.Fatal("expected error for missing attributes chunk")
	}
}

func TestEmptyExperimentAndTextInfoDefaults(t *testing.T) {
	b := newND2Builder(t)
	b.addChunk("ImageAttributesLV", attributesChunk(t))
	path := b.writeTemp("Ver3.0")

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	loops, err := r.Experiment()
	if err != nil {
		t.Fatalf("Experiment: %v", err)
	}
	if len(loops) != 0 {
		t.Fatalf("got %d loops, want 0", len(loops))
	}

	info, err := r.TextInfo()
	if err != nil {
		t.Fatalf("TextInfo: %v", err)
	}
	if info.Author != nil {
		t.Fatalf("got author %v, want nil", info.Author)
	}
}

func TestSizesEmptyExperimentFallback(t *testing.T) {
	b := newND2Builder(t)
	b.addChunk("ImageAttributesLV", attributesChunk(t))
	path := b.writeTemp("Ver3.0")

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	sizes, err := r.Sizes()
	if err != nil {
		t.Fatalf("Sizes: %v", err)
	}
	if sizes.P != 1 || sizes.Z != 1 || sizes.C != 1 || sizes.T != 2 {
		t.Fatalf("got %+v", sizes)
	}
	if sizes.Y != 4 || sizes.X != 4 {
		t.Fatalf("got %+v", sizes)
	}
}

func TestLoopIndicesRoundTrip(t *testing.T) {
	b := newND2Builder(t)
	b.addChunk("ImageAttributesLV", attributesChunk(t))
	path := b.writeTemp("Ver3.0")

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	order, shape, err := r.axisOrderAndShape()
	if err != nil {
		t.Fatalf("axisOrderAndShape: %v", err)
	}

	indices, err := r.LoopIndices()
	if err != nil {
		t.Fatalf("LoopIndices: %v", err)
	}
	for seq, coord := range indices {
		if got := coordToSeq(coord, order, shape); got != seq {
			t.Fatalf("round-trip failed at seq %d: coord %+v -> seq %d", seq, coord, got)
		}
	}
}

func TestReadFrameOutOfRange(t *testing.T) {
	b := newND2Builder(t)
	b.addChunk("ImageAttributesLV", attributesChunk(t))
	path := b.writeTemp("Ver3.0")

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	sizes, err := r.Sizes()
	if err != nil {
		t.Fatalf("Sizes: %v", err)
	}
	total := int(sizes.P) * int(sizes.T) * int(sizes.C) * int(sizes.Z)

	_, err = r.ReadFrame(total)
	var oor *ErrFrameOutOfRange
	if !errors.As(err, &oor) {
		t.Fatalf("got %v, want ErrFrameOutOfRange", err)
	}
}

func TestReadFrameRoundTrip(t *testing.T) {
	b := newND2Builder(t)
	b.addChunk("ImageAttributesLV", attributesChunk(t))

	h, w := 4, 4
	raw := make([]byte, h*w*2)
	for i := 0; i < h*w; i++ {
		binary.LittleEndian.PutUint16(raw[i*2:], uint16(i))
	}
	b.addChunk("ImageDataSeq|0", raw)
	path := b.writeTemp("Ver3.0")

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	frame, err := r.ReadFrame(0)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if len(frame) != h*w {
		t.Fatalf("got %d samples, want %d", len(frame), h*w)
	}
	for i, v := range frame {
		if int(v) != i {
			t.Fatalf("frame[%d] = %d, want %d", i, v, i)
		}
	}
}
