package github

import (
	"context"
	"fmt"
	"strings"

	"github.com/fabric8io/fabric8-generator/pkg/provider"
	"github.com/google/go-github/v81/github"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const (
	PublicAPIURL = "https://api.github.com/"
	webhookPath  = "/github-webhook/"
	hookName     = "web"
)

var _ provider.Interface = (*Provider)(nil)

type Provider struct {
	Client *github.Client
	Logger *zap.SugaredLogger
	Token  string
}

// New returns a provider authenticated with token. An empty apiURL or the
// public API URL talks to github.com, anything else to GitHub Enterprise.
func New(ctx context.Context, apiURL, token string, logger *zap.SugaredLogger) (*Provider, error) {
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	client := github.NewClient(oauth2.NewClient(ctx, ts))
	if apiURL != "" && strings.TrimSuffix(apiURL, "/") != strings.TrimSuffix(PublicAPIURL, "/") {
		var err error
		client, err = client.WithEnterpriseURLs(apiURL, apiURL)
		if err != nil {
			return nil, fmt.Errorf("invalid github enterprise url %s: %w", apiURL, err)
		}
	}
	return &Provider{Client: client, Logger: logger, Token: token}, nil
}

func (v *Provider) Name() string { return provider.ProviderGitHub }

func (v *Provider) WebhookPath() string { return webhookPath }

func (v *Provider) IsConfiguredCorrectly() bool {
	return v.Client != nil && v.Token != ""
}

func (v *Provider) CreateRepository(ctx context.Context, org, name, description string) (*provider.Repository, error) {
	repo, _, err := v.Client.Repositories.Create(ctx, org, &github.Repository{
		Name:        github.Ptr(name),
		Description: github.Ptr(description),
	})
	if err != nil {
		return nil, err
	}
	return &provider.Repository{
		Owner:    repo.GetOwner().GetLogin(),
		Name:     repo.GetName(),
		CloneURL: repo.GetCloneURL(),
		HTMLURL:  repo.GetHTMLURL(),
	}, nil
}

func (v *Provider) ListHooks(ctx context.Context, owner, repo string) ([]provider.Hook, error) {
	opt := &github.ListOptions{PerPage: 100}
	hooks := []provider.Hook{}
	for {
		ghHooks, resp, err := v.Client.Repositories.ListHooks(ctx, owner, repo, opt)
		if err != nil {
			return nil, err
		}
		for _, h := range ghHooks {
			hooks = append(hooks, provider.Hook{ID: h.GetID(), URL: h.GetConfig().GetURL()})
		}
		if resp == nil || resp.NextPage == 0 {
			break
		}
		opt.Page = resp.NextPage
	}
	return hooks, nil
}

func (v *Provider) DeleteHook(ctx context.Context, owner, repo string, hook provider.Hook) error {
	_, err := v.Client.Repositories.DeleteHook(ctx, owner, repo, hook.ID)
	return err
}

func (v *Provider) CreateHook(ctx context.Context, owner, repo string, opts provider.HookOpts) (*provider.Hook, error) {
	insecure := "0"
	if opts.InsecureSSL {
		insecure = "1"
	}
	hook := &github.Hook{
		Name:   github.Ptr(hookName),
		Active: github.Ptr(true),
		Events: []string{"*"},
		Config: &github.HookConfig{
			URL:         github.Ptr(opts.URL),
			ContentType: github.Ptr("json"),
			InsecureSSL: github.Ptr(insecure),
			Secret:      github.Ptr(opts.Secret),
		},
	}
	created, _, err := v.Client.Repositories.CreateHook(ctx, owner, repo, hook)
	if err != nil {
		return nil, err
	}
	if v.Logger != nil {
		v.Logger.Infof("github webhook %d has been created on https://github.com/%s/%s", created.GetID(), owner, repo)
	}
	return &provider.Hook{ID: created.GetID(), URL: created.GetConfig().GetURL()}, nil
}
