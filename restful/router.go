package restful

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/cors"
	"logur.dev/logur"

	"gitlab.com/silenteer-oss/fetch"
)

// HandlerFunc answers a request with a Response.
type HandlerFunc func(r *http.Request) (*fetch.Response, error)

// JsonError follows the Vnd.Error shape used by the micronaut services.
type JsonError struct {
	Message string              `json:"message"`
	LogRef  string              `json:"logref"`
	Path    string              `json:"path"`
	Links   map[string][]string `json:"_links"`
}

// implement http.Handler
func (f HandlerFunc) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := LoggerFromContext(r.Context())

	rp, err := f(r)
	if err != nil {
		logger.Error(fmt.Sprintf("handler error: %+v", err))
		rp, err = errorResponse(r, err)
		if err != nil {
			logger.Error(fmt.Sprintf("error response building error: %+v", err))
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}

	if err := Write(w, rp); err != nil {
		logger.Error(fmt.Sprintf("response writing error: %+v", err))
	}
}

func errorResponse(r *http.Request, cause error) (*fetch.Response, error) {
	return fetch.NewResponse(
		fetch.JSONBody(&JsonError{
			Message: cause.Error(),
			LogRef:  RequestId(r.Context()),
			Path:    r.URL.Path,
			Links:   map[string][]string{"self": {r.URL.String()}},
		}),
		fetch.WithStatus(http.StatusInternalServerError),
		fetch.WithLogger(LoggerFromContext(r.Context())),
	)
}

// NewRouter returns a chi router with CORS, request id, logging and
// tracing middleware installed, then lets routes register handlers.
func NewRouter(logger logur.Logger, routes func(r chi.Router)) chi.Router {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{XRequestId},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(NewMiddleware("HTTP", logger))
	if routes != nil {
		routes(r)
	}
	return r
}
