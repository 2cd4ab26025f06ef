// Package container implements the ND2 chunked container format: the
// 112-byte file header, the end-of-file chunkmap trailer, and random-access
// retrieval of named chunks.
package container

import "io"

// Source is a random-access byte source. It wraps an io.ReaderAt (typically
// an *os.File) with a retry loop that tolerates short reads. It keeps no read
// buffer: every ReadAt goes to the underlying reader.
type Source struct {
	reader io.ReaderAt
	closer io.Closer
	size   int64
}

// NewSource wraps reader for random access. size is the total byte length
// of the underlying data, used for end-of-file-relative reads.
func NewSource(reader io.ReaderAt, closer io.Closer, size int64) *Source {
	return &Source{reader: reader, closer: closer, size: size}
}

// Size returns the total length of the underlying byte source.
func (s *Source) Size() int64 {
	return s.size
}

// ReadAt reads len(buf) bytes starting at offset, retrying on short reads.
func (s *Source) ReadAt(buf []byte, offset int64) error {
	return readFullAt(s.reader, buf, offset)
}

// ReadAtEnd reads n bytes ending at the end of the source.
func (s *Source) ReadAtEnd(n int64) ([]byte, error) {
	buf := make([]byte, n)
	if err := s.ReadAt(buf, s.size-n); err != nil {
		return nil, err
	}
	return buf, nil
}

// Close releases the underlying resource, if any.
func (s *Source) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

func readFullAt(reader io.ReaderAt, buf []byte, offset int64) error {
	for len(buf) > 0 {
		n, err := reader.ReadAt(buf, offset)
		if n > 0 {
			buf = buf[n:]
			offset += int64(n)
		}
		if err != nil {
			if err == io.EOF && len(buf) == 0 {
				return nil
			}
			return err
		}
	}
	return nil
}
