package clx

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/klauspost/compress/zlib"
)

// Data type codes, per the CLX-Lite record header.
const (
	typeUnknown    = 0
	typeBool       = 1
	typeInt32      = 2
	typeUInt32     = 3
	typeInt64      = 4
	typeUInt64     = 5
	typeDouble     = 6
	typeVoidPtr    = 7
	typeString     = 8
	typeByteArray  = 9
	typeDeprecated = 10
	typeLevel      = 11
	typeCompress   = 76

	sentinelEnd = 0xFF

	recordHeaderSize = 2
)

// ErrClxParse reports a malformed TLV stream: a reserved/deprecated type
// code, or truncation.
var ErrClxParse = errors.New("clx parse error")

// ErrUnsupportedClxType reports a type code outside the known set.
type ErrUnsupportedClxType struct {
	Code int
}

func (e *ErrUnsupportedClxType) Error() string {
	return fmt.Sprintf("unsupported clx type code %d", e.Code)
}

// ErrDecompression reports a zlib failure while inflating a Compress subtree.
var ErrDecompression = errors.New("clx decompression failed")

// Decoder parses a CLX-Lite byte stream into a Value tree.
type Decoder struct {
	// StripPrefix removes a leading run of lowercase letters and underscores
	// from record names (e.g. "uiWidth" -> "Width"). The metadata interpreter
	// uses raw names, so this defaults to false.
	StripPrefix bool
}

// Parse decodes the entire buffer as a single top-level record and returns
// the resulting Object (keyed by that record's name, "" if unnamed).
func (d *Decoder) Parse(data []byte) (Value, error) {
	c := &cursor{data: data}
	return d.parseWithCount(c, 1)
}

type cursor struct {
	data []byte
	pos  int
}

func (c *cursor) readBytes(n int) ([]byte, error) {
	if n < 0 || c.pos+n > len(c.data) {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrClxParse, n, c.pos, len(c.data))
	}
	b := c.data[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

func (c *cursor) remaining() []byte {
	return c.data[c.pos:]
}

// parseWithCount reads up to count records into an Object, applying
// empty-name coalescing, and returns early if a sentinel (0xFF) data_type is
// encountered.
func (d *Decoder) parseWithCount(c *cursor, count int) (Value, error) {
	out := make(map[string]Value)

	for i := 0; i < count; i++ {
		dataType, name, err := d.readRecordHeader(c)
		if err != nil {
			return Value{}, err
		}
		if dataType == sentinelEnd {
			break
		}

		value, err := d.readPayload(c, dataType)
		if err != nil {
			return Value{}, err
		}
		// Compress replaces the entire current parse with the decompressed
		// subtree; nothing else in this level matters once it's hit.
		if dataType == typeCompress {
			return value, nil
		}

		insertCoalescing(out, name, value)
	}

	return ObjectValue(out), nil
}

// readRecordHeader reads the 2-byte record header and its UTF-16LE name.
func (d *Decoder) readRecordHeader(c *cursor) (int, string, error) {
	hdr, err := c.readBytes(recordHeaderSize)
	if err != nil {
		return 0, "", err
	}
	dataType := int(hdr[0])
	nameLength := int(hdr[1])

	if dataType == sentinelEnd {
		return dataType, "", nil
	}
	if dataType == typeDeprecated || dataType == typeUnknown {
		return 0, "", fmt.Errorf("%w: reserved data type %d", ErrClxParse, dataType)
	}

	if dataType == typeCompress {
		// Compress payloads carry no name field.
		return dataType, "", nil
	}

	nameBytes, err := c.readBytes(nameLength * 2)
	if err != nil {
		return 0, "", err
	}
	name, err := readName(nameBytes)
	if err != nil {
		return 0, "", err
	}
	if d.StripPrefix {
		name = stripLowercasePrefix(name)
	}
	return dataType, name, nil
}

func (d *Decoder) readPayload(c *cursor, dataType int) (Value, error) {
	switch dataType {
	case typeBool:
		b, err := c.readBytes(1)
		if err != nil {
			return Value{}, err
		}
		return BoolValue(b[0] != 0), nil
	case typeInt32:
		b, err := c.readBytes(4)
		if err != nil {
			return Value{}, err
		}
		return IntValue(int64(int32(binary.LittleEndian.Uint32(b)))), nil
	case typeUInt32:
		b, err := c.readBytes(4)
		if err != nil {
			return Value{}, err
		}
		return UIntValue(uint64(binary.LittleEndian.Uint32(b))), nil
	case typeInt64:
		b, err := c.readBytes(8)
		if err != nil {
			return Value{}, err
		}
		return IntValue(int64(binary.LittleEndian.Uint64(b))), nil
	case typeUInt64:
		b, err := c.readBytes(8)
		if err != nil {
			return Value{}, err
		}
		return UIntValue(binary.LittleEndian.Uint64(b)), nil
	case typeDouble:
		b, err := c.readBytes(8)
		if err != nil {
			return Value{}, err
		}
		return FloatValue(math.Float64frombits(binary.LittleEndian.Uint64(b))), nil
	case typeVoidPtr:
		b, err := c.readBytes(8)
		if err != nil {
			return Value{}, err
		}
		return UIntValue(binary.LittleEndian.Uint64(b)), nil
	case typeString:
		return d.readString(c)
	case typeByteArray:
		return d.readByteArray(c)
	case typeLevel:
		return d.readLevel(c)
	case typeCompress:
		return d.readCompress(c)
	default:
		return Value{}, &ErrUnsupportedClxType{Code: dataType}
	}
}

func (d *Decoder) readString(c *cursor) (Value, error) {
	s, n, err := readNulTerminatedString(c.data, c.pos)
	if err != nil {
		return Value{}, err
	}
	c.pos += n
	return StringValue(s), nil
}

func (d *Decoder) readByteArray(c *cursor) (Value, error) {
	sizeBuf, err := c.readBytes(8)
	if err != nil {
		return Value{}, err
	}
	size := binary.LittleEndian.Uint64(sizeBuf)
	raw, err := c.readBytes(int(size))
	if err != nil {
		return Value{}, err
	}

	if looksLikeClx(raw) {
		nested, err := d.Parse(raw)
		if err == nil {
			return nested, nil
		}
		// Fall through: keep the raw bytes. Nested-detection false positives
		// are expected and recovered locally, not surfaced as an error.
	}
	return BytesValue(raw), nil
}

// readLevel parses a Level container: item_count, total_length, item_count
// inner records, then an item_count*8-byte offset table (skipped). A result
// whose only key is "" and whose value is an Array is promoted to that
// Array.
func (d *Decoder) readLevel(c *cursor) (Value, error) {
	header, err := c.readBytes(12)
	if err != nil {
		return Value{}, err
	}
	itemCount := int(binary.LittleEndian.Uint32(header[0:4]))
	_ = binary.LittleEndian.Uint64(header[4:12]) // total_length, unused: boundaries come from item_count

	value, err := d.parseWithCount(c, itemCount)
	if err != nil {
		return Value{}, err
	}

	if _, err := c.readBytes(itemCount * 8); err != nil {
		return Value{}, err
	}

	if obj := value.Object; len(obj) == 1 {
		if v, ok := obj[""]; ok && v.Kind == KindArray {
			return v, nil
		}
	}
	return value, nil
}

// readCompress skips the 10-byte prefix, zlib-inflates the remainder, and
// recursively parses the result as a fresh CLX stream.
func (d *Decoder) readCompress(c *cursor) (Value, error) {
	if _, err := c.readBytes(10); err != nil {
		return Value{}, err
	}
	r, err := zlib.NewReader(bytes.NewReader(c.remaining()))
	if err != nil {
		return Value{}, errors.Join(ErrDecompression, err)
	}
	defer r.Close()

	decompressed, err := io.ReadAll(r)
	if err != nil {
		return Value{}, errors.Join(ErrDecompression, err)
	}
	c.pos = len(c.data)
	return d.Parse(decompressed)
}

// insertCoalescing implements empty-name coalescing: repeated empty-name
// entries within one Object accumulate into an Array under key "".
func insertCoalescing(out map[string]Value, name string, value Value) {
	if name != "" {
		out[name] = value
		return
	}
	existing, ok := out[""]
	if !ok {
		out[""] = value
		return
	}
	if existing.Kind == KindArray {
		existing.Array = append(existing.Array, value)
		out[""] = existing
		return
	}
	out[""] = ArrayValue([]Value{existing, value})
}

func stripLowercasePrefix(s string) string {
	i := 0
	for i < len(s) {
		b := s[i]
		if (b >= 'a' && b <= 'z') || b == '_' {
			i++
			continue
		}
		break
	}
	return s[i:]
}
