package fetch_test

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/silenteer-oss/fetch"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("connection reset")
}

// blockingReader never returns until closed.
type blockingReader struct {
	once   sync.Once
	closed chan struct{}
}

func newBlockingReader() *blockingReader {
	return &blockingReader{closed: make(chan struct{})}
}

func (r *blockingReader) Read([]byte) (int, error) {
	<-r.closed
	return 0, io.ErrClosedPipe
}

func (r *blockingReader) Close() error {
	r.once.Do(func() { close(r.closed) })
	return nil
}

func TestMaxSize(t *testing.T) {
	ctx := context.Background()

	rp, err := fetch.NewResponse(strings.NewReader("0123456789"), fetch.WithMaxSize(5))
	require.NoError(t, err)
	_, err = rp.Text(ctx)
	var fetchErr *fetch.FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, fetch.MaxSizeError, fetchErr.Type)

	rp, err = fetch.NewResponse(strings.NewReader("01234"), fetch.WithMaxSize(5))
	require.NoError(t, err)
	text, err := rp.Text(ctx)
	require.NoError(t, err)
	assert.Equal(t, "01234", text)
}

func TestBodyTimeout(t *testing.T) {
	reader := newBlockingReader()
	rp, err := fetch.NewResponse(reader, fetch.WithTimeout(20*time.Millisecond), fetch.WithURL("http://slow"))
	require.NoError(t, err)

	_, err = rp.Bytes(context.Background())
	var fetchErr *fetch.FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, fetch.BodyTimeoutError, fetchErr.Type)
	assert.Contains(t, fetchErr.Message, "http://slow")

	select {
	case <-reader.closed:
	case <-time.After(time.Second):
		t.Fatal("stream was not closed after timeout")
	}
}

func TestBodyContextCancel(t *testing.T) {
	reader := newBlockingReader()
	rp, err := fetch.NewResponse(reader)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = rp.Text(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestStreamReadError(t *testing.T) {
	rp, err := fetch.NewResponse(failingReader{})
	require.NoError(t, err)

	_, err = rp.Text(context.Background())
	var fetchErr *fetch.FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, fetch.SystemError, fetchErr.Type)
	assert.EqualError(t, errors.Unwrap(err), "connection reset")
}

func TestCloseDiscardsBody(t *testing.T) {
	reader := newBlockingReader()
	rp, err := fetch.NewResponse(reader)
	require.NoError(t, err)

	require.NoError(t, rp.Close())
	assert.True(t, rp.BodyUsed())
	<-reader.closed

	assert.NoError(t, rp.Close())
}

func TestNilBody(t *testing.T) {
	rp, err := fetch.NewResponse(nil)
	require.NoError(t, err)

	data, err := rp.Bytes(context.Background())
	require.NoError(t, err)
	assert.Empty(t, data)

	_, err = rp.Clone()
	assert.Equal(t, fetch.ErrCloneUsed, err)
}

func TestClonesReadConcurrently(t *testing.T) {
	content := strings.Repeat("abcdefgh", 50000)
	rp, err := fetch.NewResponse(strings.NewReader(content))
	require.NoError(t, err)

	responses := []*fetch.Response{rp}
	for i := 0; i < 3; i++ {
		cl, err := rp.Clone()
		require.NoError(t, err)
		responses = append(responses, cl)
	}

	results := make([]string, len(responses))
	errs := make([]error, len(responses))
	wg := sync.WaitGroup{}
	for i, r := range responses {
		wg.Add(1)
		go func(i int, r *fetch.Response) {
			defer wg.Done()
			results[i], errs[i] = r.Text(context.Background())
		}(i, r)
	}
	wg.Wait()

	for i := range responses {
		require.NoError(t, errs[i])
		assert.Equal(t, content, results[i])
	}
}
