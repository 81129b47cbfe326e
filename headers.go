package fetch

import (
	"net/http"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/net/http/httpguts"
)

const (
	contentType     = "Content-Type"
	jsonContentType = "application/json"
	textContentType = "text/plain;charset=UTF-8"
	formContentType = "application/x-www-form-urlencoded;charset=UTF-8"
)

// Headers is a case-insensitive multi-map of header values. Iteration is
// ordered by lower-cased header name.
type Headers struct {
	header http.Header
}

// NewHeaders builds a Headers from nil, *Headers, http.Header,
// map[string]string, map[string][]string or [][2]string.
func NewHeaders(init interface{}) (*Headers, error) {
	h := &Headers{header: make(http.Header)}

	switch v := init.(type) {
	case nil:
	case *Headers:
		if v != nil {
			for name, values := range v.header {
				h.header[name] = append([]string(nil), values...)
			}
		}
	case http.Header:
		for name, values := range v {
			for _, value := range values {
				if err := h.Append(name, value); err != nil {
					return nil, err
				}
			}
		}
	case map[string][]string:
		return NewHeaders(http.Header(v))
	case map[string]string:
		for name, value := range v {
			if err := h.Append(name, value); err != nil {
				return nil, err
			}
		}
	case [][2]string:
		for _, pair := range v {
			if err := h.Append(pair[0], pair[1]); err != nil {
				return nil, err
			}
		}
	default:
		return nil, errors.Errorf("headers: unsupported initializer %T", init)
	}
	return h, nil
}

func validateHeader(name, value string) error {
	if !httpguts.ValidHeaderFieldName(name) {
		return &HeaderError{Name: name, Value: value, Field: "name"}
	}
	if !httpguts.ValidHeaderFieldValue(value) {
		return &HeaderError{Name: name, Value: value, Field: "value"}
	}
	return nil
}

// Get returns all values of name joined by ", ", or "" when absent.
func (h *Headers) Get(name string) string {
	values := h.header.Values(name)
	if len(values) == 0 {
		return ""
	}
	return strings.Join(values, ", ")
}

func (h *Headers) Values(name string) []string {
	return append([]string(nil), h.header.Values(name)...)
}

func (h *Headers) Has(name string) bool {
	return len(h.header.Values(name)) > 0
}

func (h *Headers) Set(name, value string) error {
	if err := validateHeader(name, value); err != nil {
		return err
	}
	h.header.Set(name, value)
	return nil
}

func (h *Headers) Append(name, value string) error {
	if err := validateHeader(name, value); err != nil {
		return err
	}
	h.header.Add(name, value)
	return nil
}

func (h *Headers) Delete(name string) {
	h.header.Del(name)
}

// Keys returns the lower-cased header names in sorted order.
func (h *Headers) Keys() []string {
	keys := make([]string, 0, len(h.header))
	for name := range h.header {
		keys = append(keys, strings.ToLower(name))
	}
	sort.Strings(keys)
	return keys
}

// Entries returns name/value pairs, values joined the same way Get does.
func (h *Headers) Entries() [][2]string {
	keys := h.Keys()
	entries := make([][2]string, 0, len(keys))
	for _, key := range keys {
		entries = append(entries, [2]string{key, h.Get(key)})
	}
	return entries
}

func (h *Headers) ForEach(fn func(name, value string)) {
	for _, entry := range h.Entries() {
		fn(entry[0], entry[1])
	}
}

func (h *Headers) Len() int {
	return len(h.header)
}

func (h *Headers) Clone() *Headers {
	return &Headers{header: h.header.Clone()}
}

// Raw returns a copy of the underlying header map.
func (h *Headers) Raw() http.Header {
	return h.header.Clone()
}

func (h *Headers) MarshalJSON() ([]byte, error) {
	record := make(map[string]string, len(h.header))
	for _, entry := range h.Entries() {
		record[entry[0]] = entry[1]
	}
	return jsonAPI.Marshal(record)
}
