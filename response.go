// Package fetch provides Response, the result of an HTTP exchange as
// defined by the WHATWG fetch standard, for code running outside of a
// browser.
//
// Quick start:
//
//	rp, err := fetch.NewResponse(fetch.JSONBody(payload), fetch.WithStatus(201))
//	if err != nil { return err }
//	cl, err := rp.Clone()          // before reading
//	text, err := rp.Text(ctx)
//	err = cl.JSON(ctx, &decoded)
package fetch

import (
	"context"
	"fmt"
	"io"

	"logur.dev/logur"

	"gitlab.com/silenteer-oss/fetch/log"
)

// TypeName is reported by every Response, clones included.
const TypeName = "Response"

// Response is the result of an HTTP exchange. Status metadata is fixed at
// construction, the body can be read once unless the response is cloned
// first.
type Response struct {
	url        string
	status     int
	statusText string
	headers    *Headers
	body       *Body
	logger     logur.Logger
}

// NewResponse builds a Response around body, which may be nil, a string,
// []byte, url.Values, *Blob, *FormData, a BodyProvider, an io.Reader or a
// fmt.Stringer. When body is not nil and no Content-Type header is given,
// one is inferred from body.
func NewResponse(body interface{}, options ...Option) (*Response, error) {
	opts := defaultOptions()
	for _, opt := range options {
		if err := opt(opts); err != nil {
			return nil, err
		}
	}

	logger := opts.logger
	if logger == nil {
		logger = GetLogger()
	}
	if opts.url != "" {
		logger = log.WithFields(logger, map[string]interface{}{"url": opts.url})
	}

	b, err := newBody(body, bodyConfig{
		url:     opts.url,
		maxSize: opts.maxSize,
		timeout: opts.timeout,
		logger:  logger,
	})
	if err != nil {
		return nil, err
	}

	headers, err := NewHeaders(opts.headers)
	if err != nil {
		return nil, err
	}

	if body != nil && !headers.Has(contentType) {
		if ct := ExtractContentType(body); ct != "" {
			if err := headers.Append(contentType, ct); err != nil {
				return nil, err
			}
			logger.Debug("content type inferred", map[string]interface{}{"contentType": ct})
		}
	}
	b.headers = headers

	status := opts.status
	if status == 0 {
		status = 200
	}
	statusText := opts.statusText
	if statusText == "" {
		statusText = lookupStatusText(status)
	}

	return &Response{
		url:        opts.url,
		status:     status,
		statusText: statusText,
		headers:    headers,
		body:       b,
		logger:     logger,
	}, nil
}

func (r *Response) URL() string {
	return r.url
}

func (r *Response) Status() int {
	return r.status
}

// StatusText is "" when neither given nor known for the status code.
func (r *Response) StatusText() string {
	return r.statusText
}

func (r *Response) Headers() *Headers {
	return r.headers
}

// OK reports whether the status is in the range 200-299.
func (r *Response) OK() bool {
	return r.status >= 200 && r.status < 300
}

// Clone returns a response with the same metadata and an independently
// readable copy of the body. It fails when the body was already read.
func (r *Response) Clone() (*Response, error) {
	b, err := cloneBody(r.body)
	if err != nil {
		return nil, err
	}
	headers := r.headers.Clone()
	b.headers = headers

	r.logger.Debug("response cloned", map[string]interface{}{"status": r.status})

	return &Response{
		url:        r.url,
		status:     r.status,
		statusText: r.statusText,
		headers:    headers,
		body:       b,
		logger:     r.logger,
	}, nil
}

func (r *Response) TypeName() string {
	return TypeName
}

func (r *Response) String() string {
	if r.statusText == "" {
		return fmt.Sprintf("%s{%d}", TypeName, r.status)
	}
	return fmt.Sprintf("%s{%d %s}", TypeName, r.status, r.statusText)
}

// ToRecord lists the public fields of the response.
func (r *Response) ToRecord() map[string]interface{} {
	headers := map[string]string{}
	r.headers.ForEach(func(name, value string) {
		headers[name] = value
	})
	return map[string]interface{}{
		"url":        r.url,
		"status":     r.status,
		"statusText": r.statusText,
		"ok":         r.OK(),
		"headers":    headers,
		"bodyUsed":   r.BodyUsed(),
	}
}

func (r *Response) MarshalJSON() ([]byte, error) {
	return jsonAPI.Marshal(r.ToRecord())
}

// body operations

func (r *Response) BodyUsed() bool {
	return r.body.BodyUsed()
}

func (r *Response) Bytes(ctx context.Context) ([]byte, error) {
	return r.body.Bytes(ctx)
}

func (r *Response) Text(ctx context.Context) (string, error) {
	return r.body.Text(ctx)
}

func (r *Response) TextConverted(ctx context.Context) (string, error) {
	return r.body.TextConverted(ctx)
}

func (r *Response) JSON(ctx context.Context, v interface{}) error {
	return r.body.JSON(ctx, v)
}

func (r *Response) Blob(ctx context.Context) (*Blob, error) {
	return r.body.Blob(ctx)
}

func (r *Response) Stream() (io.ReadCloser, error) {
	return r.body.Stream()
}

func (r *Response) Close() error {
	return r.body.Close()
}

var _ BodyReader = (*Response)(nil)
