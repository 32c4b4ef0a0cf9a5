package httpinvoker

import (
	"errors"
	"fmt"
	"net/http"
)

// TooManyRedirectsError is returned when the server keeps answering with a
// redirect after the allowed number of redirects has been followed.
type TooManyRedirectsError struct {
	Followed int
	Response *Response
}

func (e *TooManyRedirectsError) Error() string {
	return fmt.Sprintf("too many redirects: %s still redirects after following %d redirect(s)", e.Response.URL, e.Followed)
}

// UnexpectedStatusError carries any status that is neither 2xx nor a
// followable redirect.
type UnexpectedStatusError struct {
	StatusCode int
	Reason     string
	Response   *Response
}

func (e *UnexpectedStatusError) Error() string {
	return fmt.Sprintf("unexpected status %d %s from %s", e.StatusCode, e.Reason, e.Response.URL)
}

// MissingLocationError is a redirect without a usable Location header.
type MissingLocationError struct {
	Response *Response
}

func (e *MissingLocationError) Error() string {
	return fmt.Sprintf("redirect from %s without a Location header", e.Response.URL)
}

// TransportError wraps failures that happened before any response was read.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("request to %s failed: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsTransient reports whether err is worth another attempt: connection
// level failures and gateway errors. Redirect loops and client errors are not.
func IsTransient(err error) bool {
	var terr *TransportError
	if errors.As(err, &terr) {
		return true
	}
	var serr *UnexpectedStatusError
	if errors.As(err, &serr) {
		switch serr.StatusCode {
		case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true
		}
	}
	return false
}

// StatusCode extracts the HTTP status carried by err, 0 if there is none.
func StatusCode(err error) int {
	var serr *UnexpectedStatusError
	if errors.As(err, &serr) {
		return serr.StatusCode
	}
	var rerr *TooManyRedirectsError
	if errors.As(err, &rerr) {
		return rerr.Response.StatusCode
	}
	return 0
}
