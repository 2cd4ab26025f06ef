package container

// Magic numbers, as they appear decoded from little-endian disk bytes.
const (
	MagicModern = 0x0ABECEDA
	MagicLegacy = 0x0C000000
)

// Fixed-size structural constants, in bytes.
const (
	FileHeaderSize     = 112
	SignatureFieldSize = 32
	ChunkHeaderSize    = 16
	TrailerSize        = 40
	NameTerminator     = '!'
)

// Fixed 32-byte ASCII signatures, each including the trailing '!'.
const (
	FileSignature      = "ND2 FILE SIGNATURE CHUNK NAME01!"
	ChunkmapTrailerSig = "ND2 CHUNK MAP SIGNATURE 0000001!"
	FilemapNameSig     = "ND2 FILEMAP SIGNATURE NAME 0001!"
)
