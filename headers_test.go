package fetch_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/silenteer-oss/fetch"
)

func TestHeadersCaseInsensitive(t *testing.T) {
	h, err := fetch.NewHeaders(nil)
	require.NoError(t, err)

	require.NoError(t, h.Append("x-trace", "a"))
	require.NoError(t, h.Append("X-TRACE", "b"))

	assert.True(t, h.Has("X-Trace"))
	assert.Equal(t, "a, b", h.Get("x-trace"))
	assert.Equal(t, []string{"a", "b"}, h.Values("X-Trace"))

	require.NoError(t, h.Set("x-trace", "c"))
	assert.Equal(t, "c", h.Get("X-Trace"))

	h.Delete("X-trace")
	assert.False(t, h.Has("x-trace"))
	assert.Equal(t, "", h.Get("x-trace"))
}

func TestHeadersIterationIsSorted(t *testing.T) {
	h, err := fetch.NewHeaders([][2]string{
		{"Zeta", "1"},
		{"alpha", "2"},
		{"Mid", "3"},
		{"alpha", "4"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"alpha", "mid", "zeta"}, h.Keys())
	assert.Equal(t, [][2]string{{"alpha", "2, 4"}, {"mid", "3"}, {"zeta", "1"}}, h.Entries())

	var seen []string
	h.ForEach(func(name, value string) {
		seen = append(seen, name+"="+value)
	})
	assert.Equal(t, []string{"alpha=2, 4", "mid=3", "zeta=1"}, seen)

	b, err := h.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"alpha":"2, 4","mid":"3","zeta":"1"}`, string(b))
}

func TestHeadersInitializers(t *testing.T) {
	source, err := fetch.NewHeaders(http.Header{"Accept": {"a", "b"}})
	require.NoError(t, err)

	copied, err := fetch.NewHeaders(source)
	require.NoError(t, err)
	require.NoError(t, copied.Append("Accept", "c"))
	assert.Equal(t, "a, b", source.Get("Accept"))
	assert.Equal(t, "a, b, c", copied.Get("Accept"))

	fromMap, err := fetch.NewHeaders(map[string][]string{"accept": {"x"}})
	require.NoError(t, err)
	assert.Equal(t, "x", fromMap.Get("Accept"))

	_, err = fetch.NewHeaders(42)
	assert.Error(t, err)
}

func TestHeadersValidation(t *testing.T) {
	h, err := fetch.NewHeaders(nil)
	require.NoError(t, err)

	err = h.Append("bad header", "x")
	var headerErr *fetch.HeaderError
	require.ErrorAs(t, err, &headerErr)
	assert.Equal(t, "name", headerErr.Field)

	err = h.Set("X-Ok", "line\nbreak")
	require.ErrorAs(t, err, &headerErr)
	assert.Equal(t, "value", headerErr.Field)
	assert.Equal(t, 0, h.Len())
}

func TestHeadersCloneAndRaw(t *testing.T) {
	h, err := fetch.NewHeaders(map[string]string{"A": "1"})
	require.NoError(t, err)

	cl := h.Clone()
	require.NoError(t, cl.Append("A", "2"))
	assert.Equal(t, "1", h.Get("A"))

	raw := h.Raw()
	raw.Set("A", "changed")
	assert.Equal(t, "1", h.Get("A"))
}
