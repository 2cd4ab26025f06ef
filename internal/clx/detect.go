package clx

// looksLikeClx applies the nested-CLX-in-ByteArray heuristic: a compressed
// subtree is always attempted; an uncompressed candidate must declare a
// known type code, a name of at least 2 UTF-16 code units, and a verified
// UTF-16 NUL terminator in its name slot. name_length <= 1 is excluded
// because short/empty names are common in ordinary byte-array payloads and
// would otherwise false-positive constantly (e.g. pItemValid).
func looksLikeClx(data []byte) bool {
	if len(data) < 2 {
		return false
	}
	dataType := data[0]
	nameLength := int(data[1])

	if dataType == typeCompress {
		return true
	}
	if dataType < 1 || dataType > 11 {
		return false
	}
	if nameLength <= 1 {
		return false
	}

	nameBytes := nameLength * 2
	headerAndName := recordHeaderSize + nameBytes
	if len(data) < headerAndName {
		return false
	}
	nameEnd := headerAndName
	return data[nameEnd-2] == 0 && data[nameEnd-1] == 0
}
