package restful_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"logur.dev/logur"

	"gitlab.com/silenteer-oss/fetch"
	"gitlab.com/silenteer-oss/fetch/restful"
)

func newTestRouter() chi.Router {
	return restful.NewRouter(logur.NoopLogger{}, func(r chi.Router) {
		r.Method(http.MethodGet, "/hello/{name}", restful.HandlerFunc(func(r *http.Request) (*fetch.Response, error) {
			return fetch.NewResponse("hello "+chi.URLParam(r, "name"),
				fetch.WithHeaders(map[string]string{"X-Seen-Request-Id": restful.RequestId(r.Context())}))
		}))
		r.Method(http.MethodGet, "/fail", restful.HandlerFunc(func(r *http.Request) (*fetch.Response, error) {
			return nil, errors.New("boom")
		}))
	})
}

func TestRouterServesResponses(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/hello/gopher", nil)
	req.Header.Set(restful.XRequestId, "fixed-id")

	newTestRouter().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hello gopher", rec.Body.String())
	assert.Equal(t, "fixed-id", rec.Header().Get(restful.XRequestId))
	assert.Equal(t, "fixed-id", rec.Header().Get("X-Seen-Request-Id"))
}

func TestRouterGeneratesRequestId(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/hello/x", nil))

	id := rec.Header().Get(restful.XRequestId)
	assert.Len(t, id, 36)
	assert.Equal(t, id, rec.Header().Get("X-Seen-Request-Id"))
}

func TestRouterHandlerError(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fail", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body restful.JsonError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "boom", body.Message)
	assert.Equal(t, "/fail", body.Path)
	assert.Equal(t, rec.Header().Get(restful.XRequestId), body.LogRef)
}
