package restful

import (
	"bufio"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"gitlab.com/silenteer-oss/fetch"
)

// decodedBody closes the decoder and the transport body together.
type decodedBody struct {
	io.Reader
	closers []io.Closer
}

func (d *decodedBody) Close() error {
	var err error
	for _, c := range d.closers {
		err = multierr.Append(err, c.Close())
	}
	return err
}

// FromHTTPResponse converts a net/http response. The url, status, reason
// phrase and headers are taken from res; gzip and deflate bodies are
// decoded. options are applied last and may override any of them.
func FromHTTPResponse(res *http.Response, options ...fetch.Option) (*fetch.Response, error) {
	var body io.ReadCloser
	header := res.Header
	if res.Body != nil && res.Body != http.NoBody {
		decoded, ok, err := decodeBody(res)
		if err != nil {
			_ = res.Body.Close()
			return nil, err
		}
		body = decoded
		if ok {
			// the headers must describe the decoded bytes
			header = res.Header.Clone()
			header.Del("Content-Encoding")
			header.Del("Content-Length")
		}
	}

	opts := []fetch.Option{
		fetch.WithStatus(res.StatusCode),
		fetch.WithStatusText(reasonPhrase(res)),
		fetch.WithHeaders(header),
	}
	if res.Request != nil && res.Request.URL != nil {
		opts = append(opts, fetch.WithURL(res.Request.URL.String()))
	}
	opts = append(opts, options...)

	if body == nil {
		return fetch.NewResponse(nil, opts...)
	}
	return fetch.NewResponse(body, opts...)
}

func reasonPhrase(res *http.Response) string {
	prefix := strconv.Itoa(res.StatusCode) + " "
	if strings.HasPrefix(res.Status, prefix) {
		return res.Status[len(prefix):]
	}
	return ""
}

// decodeBody undoes the Content-Encoding of res. The flag reports whether
// the returned body differs from the one on the wire.
func decodeBody(res *http.Response) (io.ReadCloser, bool, error) {
	// no content to decode
	if res.StatusCode == http.StatusNoContent || res.StatusCode == http.StatusNotModified {
		return res.Body, false, nil
	}
	if res.Request != nil && res.Request.Method == http.MethodHead {
		return res.Body, false, nil
	}

	switch strings.ToLower(strings.TrimSpace(res.Header.Get("Content-Encoding"))) {
	case "gzip", "x-gzip":
		zr, err := gzip.NewReader(res.Body)
		if err != nil {
			return nil, false, errors.WithMessage(err, "invalid gzip body")
		}
		return &decodedBody{Reader: zr, closers: []io.Closer{zr, res.Body}}, true, nil

	case "deflate", "x-deflate":
		// servers send both zlib wrapped and raw deflate streams
		br := bufio.NewReader(res.Body)
		first, err := br.Peek(1)
		if err != nil && err != io.EOF {
			return nil, false, errors.WithMessage(err, "invalid deflate body")
		}
		if len(first) == 0 {
			return res.Body, false, nil
		}
		if first[0]&0x0f == 0x08 {
			zr, err := zlib.NewReader(br)
			if err != nil {
				return nil, false, errors.WithMessage(err, "invalid deflate body")
			}
			return &decodedBody{Reader: zr, closers: []io.Closer{zr, res.Body}}, true, nil
		}
		fr := flate.NewReader(br)
		return &decodedBody{Reader: fr, closers: []io.Closer{fr, res.Body}}, true, nil
	}
	return res.Body, false, nil
}

// Write sends rp to w: headers, status, then the body stream. It fails
// without writing anything when the body was already read.
func Write(w http.ResponseWriter, rp *fetch.Response) error {
	stream, err := rp.Stream()
	if err != nil {
		return errors.WithMessage(err, "Writing response error")
	}
	defer func() { _ = stream.Close() }()

	for name, values := range rp.Headers().Raw() {
		for _, value := range values {
			w.Header().Add(name, value)
		}
	}
	w.WriteHeader(rp.Status())

	if _, err := io.Copy(w, stream); err != nil {
		return errors.WithMessage(err, "Writing response error")
	}
	return nil
}
