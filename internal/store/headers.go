package store

import "net/http"

// HeaderOptions controls the generated request headers.
type HeaderOptions struct {
	// NoContentType skips the JSON Content-Type (multipart uploads set their own).
	NoContentType bool
	// NoAuthorization skips the bearer token even when one is stored.
	NoAuthorization bool
	// Header holds caller-supplied headers. They override generated ones.
	Header http.Header
}

// Option adjusts HeaderOptions for a single call.
type Option func(*HeaderOptions)

// WithoutContentType disables the JSON Content-Type header.
func WithoutContentType() Option {
	return func(o *HeaderOptions) { o.NoContentType = true }
}

// WithoutAuthorization disables the Authorization header.
func WithoutAuthorization() Option {
	return func(o *HeaderOptions) { o.NoAuthorization = true }
}

// WithHeader sets a header that takes precedence over generated ones.
func WithHeader(key, value string) Option {
	return func(o *HeaderOptions) {
		if o.Header == nil {
			o.Header = make(http.Header)
		}
		o.Header.Set(key, value)
	}
}

func applyOptions(opts []Option) HeaderOptions {
	var o HeaderOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Headers builds the headers for one request. It is pure: the same token and
// options always yield the same headers.
//
//   - Content-Type: application/json unless NoContentType.
//   - Authorization: Bearer <token> iff token is non-empty and not NoAuthorization.
//   - Entries of o.Header replace generated ones with the same name.
func Headers(token string, o HeaderOptions) http.Header {
	h := make(http.Header)
	if !o.NoContentType {
		h.Set("Content-Type", "application/json")
	}
	if token != "" && !o.NoAuthorization {
		h.Set("Authorization", "Bearer "+token)
	}
	for key, values := range o.Header {
		h[http.CanonicalHeaderKey(key)] = append([]string(nil), values...)
	}
	return h
}
