package httpinvoker

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Request returns a RequestFunc sending method with a copy of body and header
// on every attempt.
func Request(method string, body []byte, header http.Header) RequestFunc {
	return func(ctx context.Context, target string) (*http.Request, error) {
		var rd io.Reader
		if body != nil {
			rd = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, target, rd)
		if err != nil {
			return nil, err
		}
		for k, v := range header {
			req.Header[k] = append([]string(nil), v...)
		}
		return req, nil
	}
}

// BearerHeader returns the headers every CI server call carries.
func BearerHeader(token, contentType string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	return h
}

// JoinURL appends escaped path segments to base, keeping any query string
// as is. A trailing slash on the last element is kept.
func JoinURL(base string, elems ...string) string {
	out := strings.TrimSuffix(base, "/")
	trailing := false
	for _, e := range elems {
		trailing = strings.HasSuffix(e, "/")
		e = strings.Trim(e, "/")
		if e == "" {
			continue
		}
		path, query, hasQuery := strings.Cut(e, "?")
		segments := strings.Split(path, "/")
		for i, s := range segments {
			segments[i] = url.PathEscape(s)
		}
		out += "/" + strings.Join(segments, "/")
		if hasQuery {
			out += "?" + query
			trailing = false
		}
	}
	if trailing {
		out += "/"
	}
	return out
}
