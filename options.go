package fetch

import (
	"time"

	"github.com/pkg/errors"
	"logur.dev/logur"
)

// Option is a function on the options for a response.
type Option func(*Options) error

// Options can be used to create a customized response.
type Options struct {
	status     int
	statusText string
	headers    interface{}
	url        string
	maxSize    int64
	timeout    time.Duration
	logger     logur.Logger
}

func defaultOptions() *Options {
	config := GetBodyConfig()
	return &Options{
		maxSize: config.MaxSize,
		timeout: config.Timeout,
	}
}

// WithStatus sets the status code. No range check is applied; 0 selects
// the default 200.
func WithStatus(status int) Option {
	return func(o *Options) error {
		o.status = status
		return nil
	}
}

func WithStatusText(statusText string) Option {
	return func(o *Options) error {
		o.statusText = statusText
		return nil
	}
}

// WithHeaders takes any initializer accepted by NewHeaders.
func WithHeaders(init interface{}) Option {
	return func(o *Options) error {
		o.headers = init
		return nil
	}
}

func WithURL(url string) Option {
	return func(o *Options) error {
		o.url = url
		return nil
	}
}

// WithMaxSize limits the number of bytes read from a body stream, 0 means
// unlimited.
func WithMaxSize(size int64) Option {
	return func(o *Options) error {
		if size < 0 {
			return errors.Errorf("max size must not be negative, got %d", size)
		}
		o.maxSize = size
		return nil
	}
}

// WithTimeout limits the time spent reading a body stream, 0 means no limit.
func WithTimeout(timeout time.Duration) Option {
	return func(o *Options) error {
		if timeout < 0 {
			return errors.Errorf("timeout must not be negative, got %s", timeout)
		}
		o.timeout = timeout
		return nil
	}
}

func WithLogger(logger logur.Logger) Option {
	return func(o *Options) error {
		o.logger = logger
		return nil
	}
}
