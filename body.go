package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"net/url"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
	"github.com/pkg/errors"
	"golang.org/x/net/html/charset"
	"logur.dev/logur"
)

const InvalidJSONError = "invalid-json"

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// BodyProvider provides Body content together with its Content-Type.
type BodyProvider interface {
	// ContentType returns the Content-Type of the body.
	ContentType() string
	// Body returns the encoded body.
	Body() ([]byte, error)
}

type jsonBodyProvider struct {
	payload interface{}
}

// JSONBody encodes v as the body of a response with an application/json
// content type.
func JSONBody(v interface{}) BodyProvider {
	return jsonBodyProvider{payload: v}
}

func (p jsonBodyProvider) ContentType() string {
	return jsonContentType
}

func (p jsonBodyProvider) Body() ([]byte, error) {
	return jsonAPI.Marshal(p.payload)
}

// BodyReader is the set of body operations a Response exposes.
type BodyReader interface {
	BodyUsed() bool
	Bytes(ctx context.Context) ([]byte, error)
	Text(ctx context.Context) (string, error)
	TextConverted(ctx context.Context) (string, error)
	JSON(ctx context.Context, v interface{}) error
	Blob(ctx context.Context) (*Blob, error)
	Stream() (io.ReadCloser, error)
	Close() error
}

// Body stores a response payload and enforces that it is read at most once.
// A body is either buffered (data) or a stream; buffered content is never
// mutated so clones may share it.
type Body struct {
	mu     sync.Mutex
	used   bool
	data   []byte
	stream io.Reader

	url     string
	maxSize int64
	timeout time.Duration
	headers *Headers
	logger  logur.Logger
}

type bodyConfig struct {
	url     string
	maxSize int64
	timeout time.Duration
	logger  logur.Logger
}

func newBody(source interface{}, c bodyConfig) (*Body, error) {
	b := &Body{
		url:     c.url,
		maxSize: c.maxSize,
		timeout: c.timeout,
		logger:  c.logger,
	}

	switch v := source.(type) {
	case nil:
	case string:
		b.data = []byte(v)
	case []byte:
		b.data = v
	case url.Values:
		b.data = []byte(v.Encode())
	case *Blob:
		if v != nil {
			b.data = v.data
		}
	case BodyProvider:
		data, err := v.Body()
		if err != nil {
			return nil, errors.WithMessage(err, "Invalid body format")
		}
		b.data = data
	case io.Reader:
		b.stream = v
	case fmt.Stringer:
		b.data = []byte(v.String())
	default:
		return nil, errors.WithMessagef(ErrUnsupportedBody, "%T", source)
	}
	return b, nil
}

// ExtractContentType sniffs the Content-Type for a body source. It returns
// "" when nothing can be inferred.
func ExtractContentType(source interface{}) string {
	switch v := source.(type) {
	case nil:
		return ""
	case string:
		return textContentType
	case []byte:
		return ""
	case url.Values:
		return formContentType
	case *Blob:
		if v == nil {
			return ""
		}
		return v.Type()
	case BodyProvider:
		return v.ContentType()
	case io.Reader:
		return ""
	case fmt.Stringer:
		return textContentType
	default:
		return ""
	}
}

// cloneBody duplicates b. A stream is teed, b keeps one branch and the
// returned body gets the other.
func cloneBody(b *Body) (*Body, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.used {
		return nil, ErrCloneUsed
	}

	nb := &Body{
		data:    b.data,
		url:     b.url,
		maxSize: b.maxSize,
		timeout: b.timeout,
		logger:  b.logger,
	}
	if b.stream != nil {
		p1, p2 := tee(b.stream)
		b.stream = p1
		nb.stream = p2
	}
	return nb, nil
}

func (b *Body) BodyUsed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.used
}

// take marks the body used and hands out its content.
func (b *Body) take() ([]byte, io.Reader, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.used {
		return nil, nil, newFetchError("body used already for: "+b.url, BodyUsedError, ErrBodyUsed)
	}
	b.used = true
	data, stream := b.data, b.stream
	b.stream = nil
	return data, stream, nil
}

type readResult struct {
	data []byte
	err  error
}

func (b *Body) consume(ctx context.Context) ([]byte, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "fetch.body.consume")
	defer span.Finish()
	span.SetTag("url", b.url)

	data, stream, err := b.take()
	if err != nil {
		ext.Error.Set(span, true)
		return nil, err
	}
	if stream == nil {
		return append([]byte(nil), data...), nil
	}

	done := make(chan readResult, 1)
	go func() {
		data, err := b.readAll(stream)
		done <- readResult{data, err}
	}()

	var timeout <-chan time.Time
	if b.timeout > 0 {
		timer := time.NewTimer(b.timeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case r := <-done:
		closeStream(stream)
		if r.err != nil {
			ext.Error.Set(span, true)
			b.logger.Debug("body read failed", map[string]interface{}{"url": b.url, "error": r.err.Error()})
		}
		span.SetTag("size", len(r.data))
		return r.data, r.err
	case <-timeout:
		// the reader goroutine may still be blocked in Read
		go closeStream(stream)
		ext.Error.Set(span, true)
		b.logger.Debug("body read timed out", map[string]interface{}{"url": b.url, "timeout": b.timeout.String()})
		return nil, newFetchError(
			fmt.Sprintf("Response timeout while trying to fetch %s (over %s)", b.url, b.timeout),
			BodyTimeoutError, nil)
	case <-ctx.Done():
		go closeStream(stream)
		ext.Error.Set(span, true)
		return nil, errors.WithMessagef(ctx.Err(), "fetch %s", b.url)
	}
}

func (b *Body) readAll(stream io.Reader) ([]byte, error) {
	r := stream
	if b.maxSize > 0 {
		r = io.LimitReader(stream, b.maxSize+1)
	}
	data, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, newFetchError(
			fmt.Sprintf("Invalid response body while trying to fetch %s: %s", b.url, err.Error()),
			SystemError, err)
	}
	if b.maxSize > 0 && int64(len(data)) > b.maxSize {
		return nil, newFetchError(
			fmt.Sprintf("content size at %s over limit: %d", b.url, b.maxSize),
			MaxSizeError, nil)
	}
	return data, nil
}

func closeStream(stream io.Reader) {
	if c, ok := stream.(io.Closer); ok {
		_ = c.Close()
	}
}

func (b *Body) Bytes(ctx context.Context) ([]byte, error) {
	return b.consume(ctx)
}

func (b *Body) Text(ctx context.Context) (string, error) {
	data, err := b.consume(ctx)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (b *Body) JSON(ctx context.Context, v interface{}) error {
	data, err := b.consume(ctx)
	if err != nil {
		return err
	}
	if err := jsonAPI.Unmarshal(data, v); err != nil {
		return newFetchError(
			fmt.Sprintf("invalid json response body at %s reason: %s", b.url, err.Error()),
			InvalidJSONError, err)
	}
	return nil
}

func (b *Body) Blob(ctx context.Context) (*Blob, error) {
	data, err := b.consume(ctx)
	if err != nil {
		return nil, err
	}
	return NewBlob(data, b.contentType()), nil
}

// TextConverted decodes the body to UTF-8, taking the charset from the
// Content-Type header or, failing that, from the content itself.
func (b *Body) TextConverted(ctx context.Context) (string, error) {
	data, err := b.consume(ctx)
	if err != nil {
		return "", err
	}
	r, err := charset.NewReader(bytes.NewReader(data), b.contentType())
	if err != nil {
		return "", errors.WithMessage(err, "unsupported charset")
	}
	converted, err := ioutil.ReadAll(r)
	if err != nil {
		return "", errors.WithMessage(err, "charset conversion")
	}
	return string(converted), nil
}

// Stream hands the raw content out and marks the body used.
func (b *Body) Stream() (io.ReadCloser, error) {
	data, stream, err := b.take()
	if err != nil {
		return nil, err
	}
	if stream == nil {
		return ioutil.NopCloser(bytes.NewReader(data)), nil
	}
	if rc, ok := stream.(io.ReadCloser); ok {
		return rc, nil
	}
	return ioutil.NopCloser(stream), nil
}

// Close discards an unread body. It is a no-op on a used body.
func (b *Body) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.used {
		return nil
	}
	b.used = true
	stream := b.stream
	b.stream = nil
	if c, ok := stream.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (b *Body) contentType() string {
	if b.headers == nil {
		return ""
	}
	return b.headers.Get(contentType)
}

var _ BodyReader = (*Body)(nil)
