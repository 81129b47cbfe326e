package fetch

import (
	"bytes"
	"io"
	"strings"
)

// Blob is an immutable chunk of bytes with an optional media type.
type Blob struct {
	data        []byte
	contentType string
}

func NewBlob(data []byte, contentType string) *Blob {
	return &Blob{
		data:        append([]byte(nil), data...),
		contentType: strings.ToLower(contentType),
	}
}

func (b *Blob) Size() int {
	return len(b.data)
}

func (b *Blob) Type() string {
	return b.contentType
}

// Bytes returns a copy of the blob content.
func (b *Blob) Bytes() []byte {
	return append([]byte(nil), b.data...)
}

func (b *Blob) Reader() io.Reader {
	return bytes.NewReader(b.data)
}

// Slice returns a new Blob holding bytes [start, end). Negative offsets
// count from the end, out of range offsets are clamped.
func (b *Blob) Slice(start, end int, contentType string) *Blob {
	size := len(b.data)
	start = relativeOffset(start, size)
	end = relativeOffset(end, size)
	if end < start {
		end = start
	}
	return NewBlob(b.data[start:end], contentType)
}

func relativeOffset(offset, size int) int {
	if offset < 0 {
		offset += size
		if offset < 0 {
			return 0
		}
		return offset
	}
	if offset > size {
		return size
	}
	return offset
}
