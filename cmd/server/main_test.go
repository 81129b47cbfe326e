package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"logur.dev/logur"

	"gitlab.com/silenteer-oss/fetch/restful"
)

func TestCloneRoute(t *testing.T) {
	router := restful.NewRouter(logur.NoopLogger{}, routes)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/clone", strings.NewReader("twelve bytes")))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "12", rec.Header().Get("X-Body-Length"))
	assert.Equal(t, "twelve bytes", rec.Body.String())
}

func TestEchoRoute(t *testing.T) {
	router := restful.NewRouter(logur.NoopLogger{}, routes)

	req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(`{"a":1}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, `{"a":1}`, rec.Body.String())
}
