package gitlab

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

	gitlab "gitlab.com/gitlab-org/api/client-go"
	"gotest.tools/v3/assert"
)

var defaultAPIURL = "/api/v4"

func Setup(t *testing.T) (*gitlab.Client, *http.ServeMux, func()) {
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

	// server is a test HTTP server used to provide mock API responses.
	server := httptest.NewServer(apiHandler)

	client, err := gitlab.NewClient("token", gitlab.WithBaseURL(server.URL), gitlab.WithoutRetries())
	assert.NilError(t, err)
	return client, mux, server.Close
}

// Hooks is an in-memory project hook list served by MuxHooks.
type Hooks struct {
	mu         sync.Mutex
	nextID     int64
	hooks      []*gitlab.ProjectHook
	Deletes    int
	Creates    int
	Lists      int
	FailCreate bool
	FailDelete bool
	// Tokens holds the secret token of every created hook, by id.
	Tokens map[int64]string
}

func NewHooks(urls ...string) *Hooks {
	h := &Hooks{Tokens: map[int64]string{}}
	for _, u := range urls {
		h.add(u)
	}
	return h
}

func (h *Hooks) add(u string) *gitlab.ProjectHook {
	h.nextID++
	hook := &gitlab.ProjectHook{ID: h.nextID, URL: u}
	h.hooks = append(h.hooks, hook)
	return hook
}

func (h *Hooks) URLs() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	urls := []string{}
	for _, hook := range h.hooks {
		urls = append(urls, hook.URL)
	}
	return urls
}

func (h *Hooks) Last() *gitlab.ProjectHook {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.hooks) == 0 {
		return nil
	}
	return h.hooks[len(h.hooks)-1]
}

// paginate returns the page selected by the page and per_page query
// parameters and announces the next one in X-Next-Page, the way the GitLab
// API does. Without per_page every item is returned.
func paginate[T any](w http.ResponseWriter, r *http.Request, items []T) []T {
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	if perPage <= 0 {
		return items
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	page = max(page, 1)
	start := min((page-1)*perPage, len(items))
	end := min(start+perPage, len(items))
	if end < len(items) {
		w.Header().Set("X-Next-Page", strconv.Itoa(page+1))
	}
	return items[start:end]
}

// MuxHooks serves the project hook endpoints of owner/repo from hooks.
func MuxHooks(t *testing.T, mux *http.ServeMux, owner, repo string, hooks *Hooks) {
	t.Helper()
	// the client path-escapes the project id
	base := fmt.Sprintf("/projects/%s%%2F%s/hooks", owner, repo)
	handler := func(w http.ResponseWriter, r *http.Request) {
		hooks.mu.Lock()
		defer hooks.mu.Unlock()
		rest := strings.TrimPrefix(r.URL.EscapedPath(), base)
		switch {
		case rest == "" && r.Method == http.MethodGet:
			hooks.Lists++
			assert.NilError(t, json.NewEncoder(w).Encode(paginate(w, r, hooks.hooks)))
		case rest == "" && r.Method == http.MethodPost:
			hooks.Creates++
			if hooks.FailCreate {
				http.Error(w, `{"message": "Invalid url given"}`, http.StatusUnprocessableEntity)
				return
			}
			in := struct {
				URL                   string `json:"url"`
				Token                 string `json:"token"`
				PushEvents            bool   `json:"push_events"`
				EnableSSLVerification bool   `json:"enable_ssl_verification"`
			}{}
			assert.NilError(t, json.NewDecoder(r.Body).Decode(&in))
			created := hooks.add(in.URL)
			created.PushEvents = in.PushEvents
			created.EnableSSLVerification = in.EnableSSLVerification
			hooks.Tokens[created.ID] = in.Token
			w.WriteHeader(http.StatusCreated)
			assert.NilError(t, json.NewEncoder(w).Encode(created))
		case strings.HasPrefix(rest, "/") && r.Method == http.MethodDelete:
			hooks.Deletes++
			if hooks.FailDelete {
				http.Error(w, `{"message": "boom"}`, http.StatusInternalServerError)
				return
			}
			id, err := strconv.ParseInt(strings.TrimPrefix(rest, "/"), 10, 64)
			assert.NilError(t, err)
			for i, hook := range hooks.hooks {
				if hook.ID == id {
					hooks.hooks = append(hooks.hooks[:i], hooks.hooks[i+1:]...)
					w.WriteHeader(http.StatusNoContent)
					return
				}
			}
			http.NotFound(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}
	mux.HandleFunc("/projects/", func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.EscapedPath(), base) {
			http.NotFound(w, r)
			return
		}
		handler(w, r)
	})
}
