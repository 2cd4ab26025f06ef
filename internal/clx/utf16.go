package clx

import (
	"errors"
	"fmt"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// ErrUtf16Decode reports invalid UTF-16 in a name or string field.
var ErrUtf16Decode = errors.New("invalid utf-16")

// decodeUTF16LE decodes raw UTF-16LE bytes to a UTF-8 string.
func decodeUTF16LE(raw []byte) (string, error) {
	out, _, err := transform.Bytes(le.NewDecoder(), raw)
	if err != nil {
		return "", errors.Join(ErrUtf16Decode, err)
	}
	return string(out), nil
}

// readName decodes a name field of nameLength UTF-16 code units (2 bytes
// each) and strips a trailing NUL.
func readName(raw []byte) (string, error) {
	s, err := decodeUTF16LE(raw)
	if err != nil {
		return "", err
	}
	return stripTrailingNul(s), nil
}

func stripTrailingNul(s string) string {
	for len(s) > 0 && s[len(s)-1] == 0 {
		s = s[:len(s)-1]
	}
	return s
}

// readNulTerminatedString scans raw starting at pos for a UTF-16LE string
// terminated by a 0x0000 code unit (inclusive), decodes it, and returns the
// decoded text (trailing NULs stripped) plus the number of bytes consumed
// from pos (including the terminator).
func readNulTerminatedString(raw []byte, pos int) (string, int, error) {
	i := pos
	for {
		if i+2 > len(raw) {
			return "", 0, fmt.Errorf("%w: unterminated string payload", ErrClxParse)
		}
		if raw[i] == 0 && raw[i+1] == 0 {
			i += 2
			break
		}
		i += 2
	}
	s, err := decodeUTF16LE(raw[pos:i])
	if err != nil {
		return "", 0, err
	}
	return stripTrailingNul(s), i - pos, nil
}
