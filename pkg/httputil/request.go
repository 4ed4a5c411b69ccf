package httputil

import (
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ReadBody reads the entire request body up to maxBytes.
// Returns the body bytes or an error if reading fails.
func ReadBody(r *http.Request, maxBytes int64) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r.Body, maxBytes))
}

// ReadBodyStrict reads the request body and fails if it is longer than
// maxBytes instead of truncating it.
func ReadBodyStrict(r *http.Request, maxBytes int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("request body exceeds %d bytes", maxBytes)
	}
	return data, nil
}

// HasContentType reports whether the request's Content-Type media type is
// want. A missing header matches.
func HasContentType(r *http.Request, want string) bool {
	ct := r.Header.Get("Content-Type")
	if ct == "" {
		return true
	}
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return strings.EqualFold(strings.TrimSpace(ct), want)
}
