package webhook

import (
	"context"
	"fmt"

	"github.com/fabric8io/fabric8-generator/pkg/provider"
	"go.uber.org/zap"
)

// Spec is a webhook to register on one repository.
type Spec struct {
	Owner      string
	Repository string
	URL        string
	Secret     string
}

func (s Spec) String() string {
	return fmt.Sprintf("%s/%s -> %s", s.Owner, s.Repository, s.URL)
}

// WebHookError is returned when the hook could not be listed or created.
type WebHookError struct {
	Provider string
	Spec     Spec
	Err      error
}

func (e *WebHookError) Error() string {
	return fmt.Sprintf("cannot register %s webhook on %s/%s: %v", e.Provider, e.Spec.Owner, e.Spec.Repository, e.Err)
}

func (e *WebHookError) Unwrap() error { return e.Err }

type Registrar struct {
	Logger *zap.SugaredLogger
}

func NewRegistrar(logger *zap.SugaredLogger) *Registrar {
	return &Registrar{Logger: logger}
}

// Register replaces every hook of the repository targeting spec.URL with a
// single new one. Git hosts do not deduplicate hooks by url, so stale ones
// are deleted first; a failed delete is only logged.
func (r *Registrar) Register(ctx context.Context, gp provider.Interface, spec Spec) error {
	hooks, err := gp.ListHooks(ctx, spec.Owner, spec.Repository)
	if err != nil {
		return &WebHookError{Provider: gp.Name(), Spec: spec, Err: fmt.Errorf("listing hooks: %w", err)}
	}
	for _, hook := range hooks {
		if hook.URL != spec.URL {
			continue
		}
		if err := gp.DeleteHook(ctx, spec.Owner, spec.Repository, hook); err != nil {
			r.Logger.Warnf("failed to delete stale webhook %d on %s/%s: %v", hook.ID, spec.Owner, spec.Repository, err)
			continue
		}
		r.Logger.Infof("deleted stale webhook %d on %s/%s", hook.ID, spec.Owner, spec.Repository)
	}

	if _, err := gp.CreateHook(ctx, spec.Owner, spec.Repository, provider.HookOpts{
		URL:         spec.URL,
		Secret:      spec.Secret,
		InsecureSSL: true,
	}); err != nil {
		return &WebHookError{Provider: gp.Name(), Spec: spec, Err: err}
	}
	r.Logger.Infow("registered webhook", "provider", gp.Name(), "repository", spec.Owner+"/"+spec.Repository, "url", spec.URL)
	return nil
}
