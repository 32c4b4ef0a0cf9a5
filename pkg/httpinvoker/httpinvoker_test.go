package httpinvoker

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/fabric8io/fabric8-generator/pkg/test/logger"
	"gotest.tools/v3/assert"
)

func get(ctx context.Context, url string) (*http.Request, error) {
	return http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
}

type countingObserver struct {
	codes []int
}

func (o *countingObserver) ObserveRequest(_ context.Context, code int, _ error) {
	o.codes = append(o.codes, code)
}

func TestInvoke(t *testing.T) {
	tests := []struct {
		name         string
		handler      func(hits int32) http.HandlerFunc
		wantBody     string
		wantHits     int32
		wantErr      any
		wantStatus   int
		maxRedirects int
	}{
		{
			name: "ok",
			handler: func(int32) http.HandlerFunc {
				return func(w http.ResponseWriter, _ *http.Request) {
					fmt.Fprint(w, "hello")
				}
			},
			wantBody:     "hello",
			wantHits:     1,
			maxRedirects: 1,
		},
		{
			name: "follow one relative redirect",
			handler: func(int32) http.HandlerFunc {
				return func(w http.ResponseWriter, r *http.Request) {
					if r.URL.Path == "/start" {
						w.Header().Set("Location", "/landed")
						w.WriteHeader(http.StatusFound)
						return
					}
					fmt.Fprint(w, r.URL.Path)
				}
			},
			wantBody:     "/landed",
			wantHits:     2,
			maxRedirects: 1,
		},
		{
			name: "second redirect fails",
			handler: func(int32) http.HandlerFunc {
				return func(w http.ResponseWriter, _ *http.Request) {
					w.Header().Set("Location", "/again")
					w.WriteHeader(http.StatusFound)
				}
			},
			wantErr:      &TooManyRedirectsError{},
			wantStatus:   http.StatusFound,
			wantHits:     2,
			maxRedirects: 1,
		},
		{
			name: "no redirect allowed",
			handler: func(int32) http.HandlerFunc {
				return func(w http.ResponseWriter, _ *http.Request) {
					w.Header().Set("Location", "/again")
					w.WriteHeader(http.StatusFound)
				}
			},
			wantErr:      &TooManyRedirectsError{},
			wantStatus:   http.StatusFound,
			wantHits:     1,
			maxRedirects: 0,
		},
		{
			name: "permanent redirect is not followed",
			handler: func(int32) http.HandlerFunc {
				return func(w http.ResponseWriter, _ *http.Request) {
					w.Header().Set("Location", "/moved")
					w.WriteHeader(http.StatusMovedPermanently)
				}
			},
			wantErr:      &UnexpectedStatusError{},
			wantStatus:   http.StatusMovedPermanently,
			wantHits:     1,
			maxRedirects: 1,
		},
		{
			name: "not found",
			handler: func(int32) http.HandlerFunc {
				return func(w http.ResponseWriter, _ *http.Request) {
					http.Error(w, "nope", http.StatusNotFound)
				}
			},
			wantErr:      &UnexpectedStatusError{},
			wantStatus:   http.StatusNotFound,
			wantHits:     1,
			maxRedirects: 1,
		},
		{
			name: "redirect without location",
			handler: func(int32) http.HandlerFunc {
				return func(w http.ResponseWriter, _ *http.Request) {
					w.WriteHeader(http.StatusFound)
				}
			},
			wantErr:      &MissingLocationError{},
			wantHits:     1,
			maxRedirects: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hits int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				n := atomic.AddInt32(&hits, 1)
				tt.handler(n)(w, r)
			}))
			defer srv.Close()

			log, _ := logger.GetLogger()
			obs := &countingObserver{}
			c := New(srv.Client(), log, WithMaxRedirects(tt.maxRedirects), WithObserver(obs))
			resp, err := c.Invoke(context.Background(), srv.URL+"/start", get)

			assert.Equal(t, atomic.LoadInt32(&hits), tt.wantHits)
			assert.Equal(t, int32(len(obs.codes)), tt.wantHits)
			if tt.wantErr != nil {
				assert.ErrorType(t, err, tt.wantErr)
				assert.Equal(t, StatusCode(err), tt.wantStatus)
				return
			}
			assert.NilError(t, err)
			assert.Equal(t, string(resp.Body), tt.wantBody)
		})
	}
}

func TestInvokeUnexpectedStatusCarriesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, "crumb required")
	}))
	defer srv.Close()

	log, _ := logger.GetLogger()
	_, err := New(srv.Client(), log).Invoke(context.Background(), srv.URL, get)
	var serr *UnexpectedStatusError
	assert.Assert(t, errors.As(err, &serr))
	assert.Equal(t, serr.StatusCode, http.StatusForbidden)
	assert.Equal(t, serr.Reason, "Forbidden")
	assert.Equal(t, string(serr.Response.Body), "crumb required")
}

func TestInvokeBuildsRequestPerHop(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/first" {
			w.Header().Set("Location", "/second")
			w.WriteHeader(http.StatusFound)
			return
		}
		assert.Equal(t, r.Header.Get("Authorization"), "Bearer token")
	}))
	defer srv.Close()

	var built []string
	build := func(ctx context.Context, url string) (*http.Request, error) {
		built = append(built, url)
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer token")
		return req, nil
	}
	log, _ := logger.GetLogger()
	_, err := New(srv.Client(), log).Invoke(context.Background(), srv.URL+"/first", build)
	assert.NilError(t, err)
	assert.DeepEqual(t, built, []string{srv.URL + "/first", srv.URL + "/second"})
}

func TestInvokeRedirectLimitFromContext(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path == "/start" {
			w.Header().Set("Location", "/landed")
			w.WriteHeader(http.StatusFound)
		}
	}))
	defer srv.Close()

	log, _ := logger.GetLogger()
	c := New(srv.Client(), log, WithMaxRedirects(3))
	_, err := c.Invoke(WithRedirectLimit(context.Background(), 0), srv.URL+"/start", get)
	var rerr *TooManyRedirectsError
	assert.Assert(t, errors.As(err, &rerr))
	assert.Equal(t, rerr.Followed, 0)
	assert.Equal(t, rerr.Response.StatusCode, http.StatusFound)
	assert.Equal(t, hits.Load(), int32(1))

	_, err = c.Invoke(context.Background(), srv.URL+"/start", get)
	assert.NilError(t, err)
	assert.Equal(t, hits.Load(), int32(3))
}

func TestRetrying(t *testing.T) {
	tests := []struct {
		name     string
		statuses []int
		attempts int
		wantHits int32
		wantErr  bool
	}{
		{
			name:     "recovers from a gateway error",
			statuses: []int{http.StatusServiceUnavailable, http.StatusOK},
			attempts: 2,
			wantHits: 2,
		},
		{
			name:     "gives up after the bound",
			statuses: []int{http.StatusBadGateway, http.StatusBadGateway, http.StatusBadGateway},
			attempts: 2,
			wantHits: 2,
			wantErr:  true,
		},
		{
			name:     "client errors are not retried",
			statuses: []int{http.StatusUnauthorized, http.StatusOK},
			attempts: 3,
			wantHits: 1,
			wantErr:  true,
		},
		{
			name:     "redirect loops are not retried",
			statuses: []int{http.StatusFound, http.StatusFound, http.StatusFound, http.StatusOK},
			attempts: 3,
			wantHits: 2,
			wantErr:  true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hits int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				n := atomic.AddInt32(&hits, 1)
				status := tt.statuses[n-1]
				if status == http.StatusFound {
					w.Header().Set("Location", "/loop")
				}
				w.WriteHeader(status)
			}))
			defer srv.Close()

			log, _ := logger.GetLogger()
			r := NewRetrying(New(srv.Client(), log), tt.attempts, 0, nil, log)
			_, err := r.Invoke(context.Background(), srv.URL, get)
			assert.Equal(t, atomic.LoadInt32(&hits), tt.wantHits)
			assert.Equal(t, err != nil, tt.wantErr)
		})
	}
}

func TestRetryingTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	log, observed := logger.GetLogger()
	r := NewRetrying(New(nil, log), 2, 0, nil, log)
	_, err := r.Invoke(context.Background(), url, get)
	assert.ErrorType(t, err, &TransportError{})
	assert.Assert(t, IsTransient(err))
	assert.Equal(t, observed.FilterMessageSnippet("attempt 1/2").Len(), 1)
	assert.Equal(t, observed.FilterMessageSnippet("attempt 2/2").Len(), 1)
}

func TestJoinURL(t *testing.T) {
	tests := []struct {
		base  string
		elems []string
		want  string
	}{
		{base: "https://jenkins.example.com", elems: []string{"job", "acme"}, want: "https://jenkins.example.com/job/acme"},
		{base: "https://jenkins.example.com/", elems: []string{"/github-webhook/"}, want: "https://jenkins.example.com/github-webhook/"},
		{base: "https://jenkins.example.com", elems: []string{"createItem?name=acme"}, want: "https://jenkins.example.com/createItem?name=acme"},
		{base: "https://jenkins.example.com/job/acme", elems: []string{"/build?delay=0"}, want: "https://jenkins.example.com/job/acme/build?delay=0"},
		{base: "https://jenkins.example.com", elems: []string{"job", "my org"}, want: "https://jenkins.example.com/job/my%20org"},
		{base: "https://gitea.example.com", elems: []string{"gitea-webhook/post"}, want: "https://gitea.example.com/gitea-webhook/post"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, JoinURL(tt.base, tt.elems...), tt.want)
		})
	}
}

func TestRequestCopiesHeaders(t *testing.T) {
	build := Request(http.MethodPost, []byte("body"), BearerHeader("tok", "text/xml"))
	req, err := build(context.Background(), "http://localhost/x")
	assert.NilError(t, err)
	assert.Equal(t, req.Header.Get("Authorization"), "Bearer tok")
	assert.Equal(t, req.Header.Get("Content-Type"), "text/xml")
	req.Header.Set("Authorization", "changed")

	again, err := build(context.Background(), "http://localhost/x")
	assert.NilError(t, err)
	assert.Equal(t, again.Header.Get("Authorization"), "Bearer tok")
}
