package provision

import (
	"context"
	"slices"
	"sync"

	"github.com/fabric8io/fabric8-generator/pkg/provider"
	"github.com/fabric8io/fabric8-generator/pkg/webhook"
)

type stubProvider struct {
	name      string
	path      string
	repo      *provider.Repository
	createErr error
	created   []string
}

func (s *stubProvider) Name() string                { return s.name }
func (s *stubProvider) WebhookPath() string         { return s.path }
func (s *stubProvider) IsConfiguredCorrectly() bool { return true }

func (s *stubProvider) CreateRepository(_ context.Context, org, name, _ string) (*provider.Repository, error) {
	s.created = append(s.created, org+"/"+name)
	if s.createErr != nil {
		return nil, s.createErr
	}
	return s.repo, nil
}

func (s *stubProvider) ListHooks(context.Context, string, string) ([]provider.Hook, error) {
	return nil, nil
}

func (s *stubProvider) DeleteHook(context.Context, string, string, provider.Hook) error {
	return nil
}

func (s *stubProvider) CreateHook(_ context.Context, _, _ string, opts provider.HookOpts) (*provider.Hook, error) {
	return &provider.Hook{ID: 1, URL: opts.URL}, nil
}

type stubWebhooks struct {
	mu         sync.Mutex
	registered []webhook.Spec
}

func (s *stubWebhooks) Register(_ context.Context, _ provider.Interface, spec webhook.Spec) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registered = append(s.registered, spec)
	return nil
}

// specs returns the registered hooks sorted by repository.
func (s *stubWebhooks) specs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.registered))
	for _, spec := range s.registered {
		out = append(out, spec.String())
	}
	slices.Sort(out)
	return out
}

type stubBuilds struct {
	build string
	err   error
}

func (s stubBuilds) Trigger(context.Context, string, string) (string, error) {
	return s.build, s.err
}

type stubKube struct {
	url       string
	namespace string
}

func (s *stubKube) ResolveServiceURL(_ context.Context, namespace, _, _ string) (string, error) {
	s.namespace = namespace
	return s.url, nil
}

func (s *stubKube) FindBotSecret(context.Context, string, string) (string, error) {
	return "", nil
}

func (s *stubKube) HasService(context.Context, string, string) (bool, error) {
	return true, nil
}
