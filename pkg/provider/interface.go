package provider

import (
	"context"
)

// Hook is a webhook as reported by the git host.
type Hook struct {
	ID  int64
	URL string
}

// HookOpts is the configuration of a hook to create.
type HookOpts struct {
	URL         string
	Secret      string
	InsecureSSL bool
}

// Repository is a repository on the git host.
type Repository struct {
	Owner    string
	Name     string
	CloneURL string
	HTMLURL  string
}

type Interface interface {
	// Name is the provider identifier, one of the Provider* constants.
	Name() string
	// WebhookPath is appended to the CI server URL to build the hook target.
	WebhookPath() string
	// CreateRepository creates name under org, or under the authenticated
	// account when org is empty.
	CreateRepository(ctx context.Context, org, name, description string) (*Repository, error)
	ListHooks(ctx context.Context, owner, repo string) ([]Hook, error)
	DeleteHook(ctx context.Context, owner, repo string, hook Hook) error
	CreateHook(ctx context.Context, owner, repo string, opts HookOpts) (*Hook, error)
	// IsConfiguredCorrectly reports whether the provider has what it needs
	// to talk to the git host.
	IsConfiguredCorrectly() bool
}

const DefaultProviderAPIUser = "git"
