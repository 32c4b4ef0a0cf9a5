package gitea

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"sync"
	"testing"

	"codeberg.org/mvdkleijn/forgejo-sdk/forgejo/v3"
	"gotest.tools/v3/assert"
)

var (
	defaultAPIURL = "/api/v1"
	serverVersion = "11.0.1+gitea-1.22.0"
)

// Setup starts a fake Gitea API. The returned URL is the server root, as
// given to forgejo.NewClient.
func Setup(t *testing.T) (*forgejo.Client, *http.ServeMux, string, func()) {
	mux := http.NewServeMux()
	apiHandler := http.NewServeMux()
	apiHandler.Handle(defaultAPIURL+"/", http.StripPrefix(defaultAPIURL, mux))
	apiHandler.HandleFunc("/", func(w http.ResponseWriter, req *http.Request) {
		fmt.Fprintln(os.Stderr, "FAIL: Client.BaseURL path prefix is not preserved in the request URL:")
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "\t"+req.URL.String())
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "\tDid you accidentally use an absolute endpoint URL rather than relative?")
		http.Error(w, "Client.BaseURL path prefix is not preserved in the request URL.", http.StatusInternalServerError)
	})
	mux.HandleFunc("/version", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, `{"version": "%s"}`, serverVersion)
	})

	// server is a test HTTP server used to provide mock API responses.
	server := httptest.NewServer(apiHandler)

	client, err := forgejo.NewClient(server.URL, forgejo.SetToken("token"))
	assert.NilError(t, err)
	return client, mux, server.URL, server.Close
}

// Hooks is an in-memory hook list served by MuxHooks.
type Hooks struct {
	mu         sync.Mutex
	nextID     int64
	hooks      []*forgejo.Hook
	Deletes    int
	Creates    int
	Lists      int
	FailCreate bool
	FailDelete bool
}

func NewHooks(urls ...string) *Hooks {
	h := &Hooks{}
	for _, u := range urls {
		h.add(map[string]string{"url": u}, nil)
	}
	return h
}

func (h *Hooks) add(config map[string]string, events []string) *forgejo.Hook {
	h.nextID++
	hook := &forgejo.Hook{ID: h.nextID, Type: "gitea", Config: config, Events: events, Active: true}
	h.hooks = append(h.hooks, hook)
	return hook
}

func (h *Hooks) URLs() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	urls := []string{}
	for _, hook := range h.hooks {
		urls = append(urls, hook.Config["url"])
	}
	return urls
}

func (h *Hooks) Last() *forgejo.Hook {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.hooks) == 0 {
		return nil
	}
	return h.hooks[len(h.hooks)-1]
}

// paginate returns the page selected by the page and limit query parameters,
// or every item when no limit is given.
func paginate[T any](r *http.Request, items []T) []T {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		return items
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	page = max(page, 1)
	start := min((page-1)*limit, len(items))
	return items[start:min(start+limit, len(items))]
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
			hooks.Lists++
			assert.NilError(t, json.NewEncoder(w).Encode(paginate(r, hooks.hooks)))
		case http.MethodPost:
			hooks.Creates++
			if hooks.FailCreate {
				http.Error(w, `{"message": "hook url is not allowed"}`, http.StatusUnprocessableEntity)
				return
			}
			in := forgejo.CreateHookOption{}
			assert.NilError(t, json.NewDecoder(r.Body).Decode(&in))
			created := hooks.add(in.Config, in.Events)
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
			if hook.ID == id {
				hooks.hooks = append(hooks.hooks[:i], hooks.hooks[i+1:]...)
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}
		http.NotFound(w, r)
	})
}
