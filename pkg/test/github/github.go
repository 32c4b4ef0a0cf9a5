package github

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-github/v81/github"
	"gotest.tools/v3/assert"
)

const (
	// baseURLPath is a non-empty Client.BaseURL path to use during tests,
	// to ensure relative URLs are used for all endpoints. See issue #752.
	githubBaseURLPath = "/api/v3"
)

// SetupGH Setup a GitHUB httptest connection, from go-github test-suit.
func SetupGH() (client *github.Client, mux *http.ServeMux, serverURL string, teardown func()) {
	// mux is the HTTP request multiplexer used with the test server.
	mux = http.NewServeMux()

	// We want to ensure that tests catch mistakes where the endpoint URL is
	// specified as absolute rather than relative. It only makes a difference
	// when there's a non-empty base URL path. So, use that. See issue #752.
	apiHandler := http.NewServeMux()
	apiHandler.Handle(githubBaseURLPath+"/", http.StripPrefix(githubBaseURLPath, mux))
	apiHandler.HandleFunc("/", func(w http.ResponseWriter, req *http.Request) {
		fmt.Fprintln(os.Stderr, "FAIL: Client.BaseURL path prefix is not preserved in the request URL:")
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "\t"+req.URL.String())
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "\tDid you accidentally use an absolute endpoint URL rather than relative?")
		fmt.Fprintln(os.Stderr, "\tSee https://github.com/google/go-github/issues/752 for information.")
		http.Error(w, "Client.BaseURL path prefix is not preserved in the request URL.", http.StatusInternalServerError)
	})

	// server is a test HTTP server used to provide mock API responses.
	server := httptest.NewServer(apiHandler)

	// client is the GitHub client being tested and is
	// configured to use test server.
	client = github.NewClient(nil)
	url, _ := url.Parse(server.URL + githubBaseURLPath + "/")
	client.BaseURL = url
	client.UploadURL = url

	return client, mux, server.URL, server.Close
}

// Hooks is an in-memory hook list served by MuxHooks.
type Hooks struct {
	mu      sync.Mutex
	nextID  int64
	hooks   []*github.Hook
	Deletes int
	Creates int
	// FailCreate makes every create answer with a 422.
	FailCreate bool
	// FailDelete makes every delete answer with a 500.
	FailDelete bool
}

// NewHooks returns a hook list seeded with one hook per url.
func NewHooks(urls ...string) *Hooks {
	h := &Hooks{}
	for _, u := range urls {
		h.add(u, nil)
	}
	return h
}

func (h *Hooks) add(u string, config *github.HookConfig) *github.Hook {
	h.nextID++
	if config == nil {
		config = &github.HookConfig{}
	}
	config.URL = github.Ptr(u)
	hook := &github.Hook{ID: github.Ptr(h.nextID), Name: github.Ptr("web"), Config: config}
	h.hooks = append(h.hooks, hook)
	return hook
}

// URLs returns the url of every hook currently stored.
func (h *Hooks) URLs() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	urls := []string{}
	for _, hook := range h.hooks {
		urls = append(urls, hook.GetConfig().GetURL())
	}
	return urls
}

// Last returns the most recently created hook.
func (h *Hooks) Last() *github.Hook {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.hooks) == 0 {
		return nil
	}
	return h.hooks[len(h.hooks)-1]
}

// MuxHooks serves the list, create and delete hook endpoints of owner/repo
// from hooks.
func MuxHooks(t *testing.T, mux *http.ServeMux, owner, repo string, hooks *Hooks) {
	t.Helper()
	base := fmt.Sprintf("/repos/%s/%s/hooks", owner, repo)
	mux.HandleFunc(base, func(w http.ResponseWriter, r *http.Request) {
		hooks.mu.Lock()
		defer hooks.mu.Unlock()
		switch r.Method {
		case http.MethodGet:
			assert.NilError(t, json.NewEncoder(w).Encode(hooks.hooks))
		case http.MethodPost:
			hooks.Creates++
			if hooks.FailCreate {
				http.Error(w, `{"message": "Validation Failed"}`, http.StatusUnprocessableEntity)
				return
			}
			in := &github.Hook{}
			assert.NilError(t, json.NewDecoder(r.Body).Decode(in))
			created := hooks.add(in.GetConfig().GetURL(), in.Config)
			created.Events = in.Events
			created.Active = in.Active
			w.WriteHeader(http.StatusCreated)
			assert.NilError(t, json.NewEncoder(w).Encode(created))
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc(base+"/", func(w http.ResponseWriter, r *http.Request) {
		hooks.mu.Lock()
		defer hooks.mu.Unlock()
		if r.Method != http.MethodDelete {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		hooks.Deletes++
		if hooks.FailDelete {
			http.Error(w, `{"message": "boom"}`, http.StatusInternalServerError)
			return
		}
		id, err := strconv.ParseInt(strings.TrimPrefix(r.URL.Path, base+"/"), 10, 64)
		assert.NilError(t, err)
		for i, hook := range hooks.hooks {
			if hook.GetID() == id {
				hooks.hooks = append(hooks.hooks[:i], hooks.hooks[i+1:]...)
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}
		http.NotFound(w, r)
	})
}
