package fetch

import (
	"bytes"
	"io"
	"mime/multipart"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// FormData builds a multipart/form-data body.
type FormData struct {
	buf    *bytes.Buffer
	writer *multipart.Writer
	closed bool
}

func NewFormData() *FormData {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	// uuid only holds hex digits and dashes, both legal in a boundary
	_ = w.SetBoundary("----fetch-" + uuid.New().String())
	return &FormData{buf: buf, writer: w}
}

func (f *FormData) Boundary() string {
	return f.writer.Boundary()
}

func (f *FormData) ContentType() string {
	return "multipart/form-data;boundary=" + f.Boundary()
}

func (f *FormData) Append(name, value string) error {
	if f.closed {
		return errors.New("form data already encoded")
	}
	return errors.WithMessagef(f.writer.WriteField(name, value), "write field %s", name)
}

func (f *FormData) AppendFile(name, filename string, r io.Reader) error {
	if f.closed {
		return errors.New("form data already encoded")
	}
	part, err := f.writer.CreateFormFile(name, filename)
	if err != nil {
		return errors.WithMessagef(err, "create form file %s", name)
	}
	if _, err := io.Copy(part, r); err != nil {
		return errors.WithMessagef(err, "copy form file %s", name)
	}
	return nil
}

// Body closes the form and returns its encoded content. Later appends fail.
func (f *FormData) Body() ([]byte, error) {
	if !f.closed {
		if err := f.writer.Close(); err != nil {
			return nil, errors.WithMessage(err, "close multipart writer")
		}
		f.closed = true
	}
	return f.buf.Bytes(), nil
}
