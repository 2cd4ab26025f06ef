package clx

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

// record builds a raw record: header + UTF-16LE name + payload.
func record(t *testing.T, dataType byte, name string, payload []byte) []byte {
	t.Helper()
	nameUnits := utf16Units(t, name+"\x00")
	var buf bytes.Buffer
	buf.WriteByte(dataType)
	buf.WriteByte(byte(len(nameUnits) / 2))
	buf.Write(nameUnits)
	buf.Write(payload)
	return buf.Bytes()
}

func utf16Units(t *testing.T, s string) []byte {
	t.Helper()
	var out []byte
	for _, r := range s {
		out = append(out, byte(r), 0)
	}
	return out
}

func le32(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

func le64(v uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	return b
}

func TestDecodePrimitives(t *testing.T) {
	data := record(t, typeUInt32, "Width", le32(512))
	d := &Decoder{}
	v, err := d.Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	width, ok := v.Object["Width"]
	if !ok {
		t.Fatalf("missing Width key, got %+v", v.Object)
	}
	n, ok := width.AsUint()
	if !ok || n != 512 {
		t.Fatalf("got %v, want 512", width)
	}
}

func TestDecodeLevelWithListPromotion(t *testing.T) {
	inner1 := record(t, typeUInt32, "", le32(1))
	inner2 := record(t, typeUInt32, "", le32(2))
	var level bytes.Buffer
	level.Write(le32(2))            // item_count
	level.Write(le64(0))            // total_length, unused
	level.Write(inner1)
	level.Write(inner2)
	level.Write(make([]byte, 16)) // 2 * 8-byte offset table

	data := record(t, typeLevel, "List", level.Bytes())
	d := &Decoder{}
	v, err := d.Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	list, ok := v.Object["List"]
	if !ok {
		t.Fatalf("missing List key, got %+v", v.Object)
	}
	if list.Kind != KindArray || len(list.Array) != 2 {
		t.Fatalf("got %+v, want array of length 2", list)
	}
}

func TestEmptyNameCoalescing(t *testing.T) {
	inner := bytes.Join([][]byte{
		record(t, typeUInt32, "", le32(1)),
		record(t, typeUInt32, "", le32(2)),
		record(t, typeUInt32, "", le32(3)),
	}, nil)
	var level bytes.Buffer
	level.Write(le32(3))
	level.Write(le64(0))
	level.Write(inner)
	level.Write(make([]byte, 24))

	data := record(t, typeLevel, "Items", level.Bytes())
	d := &Decoder{}
	v, err := d.Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	// list-promotion already converts the single "" key into an Array.
	items := v.Object["Items"]
	if items.Kind != KindArray || len(items.Array) != 3 {
		t.Fatalf("got %+v, want array of length 3", items)
	}
}

func TestSentinelTerminatesEarly(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(record(t, typeUInt32, "A", le32(1)))
	buf.WriteByte(0xFF)
	buf.WriteByte(0x00)
	buf.Write(record(t, typeUInt32, "B", le32(2)))

	c := &cursor{data: buf.Bytes()}
	d := &Decoder{}
	v, err := d.parseWithCount(c, 3)
	if err != nil {
		t.Fatalf("parseWithCount: %v", err)
	}
	if _, ok := v.Object["A"]; !ok {
		t.Fatalf("missing A, got %+v", v.Object)
	}
	if _, ok := v.Object["B"]; ok {
		t.Fatalf("B should not be present after sentinel, got %+v", v.Object)
	}
}

func TestDeprecatedTypeFails(t *testing.T) {
	data := []byte{typeDeprecated, 0}
	d := &Decoder{}
	if _, err := d.Parse(data); err == nil {
		t.Fatal("expected error for deprecated type")
	}
}

func TestUnsupportedTypeFails(t *testing.T) {
	data := record(t, 200, "X", nil)
	d := &Decoder{}
	_, err := d.Parse(data)
	var ut *ErrUnsupportedClxType
	if !errors.As(err, &ut) {
		t.Fatalf("got %v, want ErrUnsupportedClxType", err)
	}
}
