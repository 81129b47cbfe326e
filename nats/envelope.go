package nats

import (
	"context"
	"net/http"

	"emperror.dev/errors"

	"gitlab.com/silenteer-oss/fetch"
)

// Envelope is the wire form of a Response on NATS subjects.
type Envelope struct {
	Reason  string      `json:"reason"` // e.g. "OK"
	Code    int         `json:"code"`   // e.g. 200
	URL     string      `json:"url,omitempty"`
	Headers http.Header `json:"headers"`
	Body    []byte      `json:"body"`
}

// Encode reads the body of a clone of rp, so rp itself stays readable.
func Encode(ctx context.Context, rp *fetch.Response) (*Envelope, error) {
	cl, err := rp.Clone()
	if err != nil {
		return nil, errors.WrapIf(err, "nats: cannot encode response")
	}
	body, err := cl.Bytes(ctx)
	if err != nil {
		return nil, errors.WrapIf(err, "nats: cannot read response body")
	}
	if len(body) == 0 {
		body = nil
	}

	return &Envelope{
		Reason:  rp.StatusText(),
		Code:    rp.Status(),
		URL:     rp.URL(),
		Headers: rp.Headers().Raw(),
		Body:    body,
	}, nil
}

// Decode rebuilds a Response from env. options are applied last.
func Decode(env *Envelope, options ...fetch.Option) (*fetch.Response, error) {
	opts := []fetch.Option{
		fetch.WithStatus(env.Code),
		fetch.WithStatusText(env.Reason),
		fetch.WithHeaders(env.Headers),
		fetch.WithURL(env.URL),
	}
	opts = append(opts, options...)

	var body interface{}
	if env.Body != nil {
		body = env.Body
	}
	return fetch.NewResponse(body, opts...)
}
