package gitea

import (
	"context"
	"fmt"
	"net/http"

	"codeberg.org/mvdkleijn/forgejo-sdk/forgejo/v3"
	"github.com/fabric8io/fabric8-generator/pkg/provider"
	"go.uber.org/zap"
)

const (
	webhookPath   = "/gitea-webhook/post"
	hookType      = "gitea"
	hooksPageSize = 50
)

var _ provider.Interface = (*Provider)(nil)

// Provider talks to Gogs, Gitea and Forgejo servers, usually the git host
// deployed next to the CI server in an on-premise installation.
type Provider struct {
	Client *forgejo.Client
	Logger *zap.SugaredLogger
	URL    string
}

func New(apiURL, token string, httpClient *http.Client, logger *zap.SugaredLogger) (*Provider, error) {
	opts := []forgejo.ClientOption{forgejo.SetToken(token)}
	if httpClient != nil {
		opts = append(opts, forgejo.SetHTTPClient(httpClient))
	}
	client, err := forgejo.NewClient(apiURL, opts...)
	if err != nil {
		return nil, fmt.Errorf("cannot create a gitea client for %s: %w", apiURL, err)
	}
	return &Provider{Client: client, Logger: logger, URL: apiURL}, nil
}

func (v *Provider) Name() string { return provider.ProviderGitea }

func (v *Provider) WebhookPath() string { return webhookPath }

func (v *Provider) IsConfiguredCorrectly() bool {
	return v.Client != nil && v.URL != ""
}

func (v *Provider) CreateRepository(_ context.Context, org, name, description string) (*provider.Repository, error) {
	opt := forgejo.CreateRepoOption{Name: name, Description: description}
	var (
		repo *forgejo.Repository
		err  error
	)
	if org != "" {
		repo, _, err = v.Client.CreateOrgRepo(org, opt)
	} else {
		repo, _, err = v.Client.CreateRepo(opt)
	}
	if err != nil {
		return nil, err
	}
	owner := org
	if repo.Owner != nil {
		owner = repo.Owner.UserName
	}
	return &provider.Repository{
		Owner:    owner,
		Name:     repo.Name,
		CloneURL: repo.CloneURL,
		HTMLURL:  repo.HTMLURL,
	}, nil
}

func (v *Provider) ListHooks(_ context.Context, owner, repo string) ([]provider.Hook, error) {
	opt := forgejo.ListHooksOptions{ListOptions: forgejo.ListOptions{Page: 1, PageSize: hooksPageSize}}
	hooks := []provider.Hook{}
	for {
		giteaHooks, _, err := v.Client.ListRepoHooks(owner, repo, opt)
		if err != nil {
			return nil, err
		}
		for _, h := range giteaHooks {
			hooks = append(hooks, provider.Hook{ID: h.ID, URL: h.Config["url"]})
		}
		// a short page is the last one
		if len(giteaHooks) < opt.PageSize {
			break
		}
		opt.Page++
	}
	return hooks, nil
}

func (v *Provider) DeleteHook(_ context.Context, owner, repo string, hook provider.Hook) error {
	_, err := v.Client.DeleteRepoHook(owner, repo, hook.ID)
	return err
}

func (v *Provider) CreateHook(_ context.Context, owner, repo string, opts provider.HookOpts) (*provider.Hook, error) {
	insecure := "0"
	if opts.InsecureSSL {
		insecure = "1"
	}
	created, _, err := v.Client.CreateRepoHook(owner, repo, forgejo.CreateHookOption{
		Type:   hookType,
		Active: true,
		Events: []string{"push", "pull_request", "create", "delete"},
		Config: map[string]string{
			"url":          opts.URL,
			"content_type": "json",
			"insecure_ssl": insecure,
			"secret":       opts.Secret,
		},
	})
	if err != nil {
		return nil, err
	}
	if v.Logger != nil {
		v.Logger.Infof("gitea webhook %d has been created on %s/%s", created.ID, owner, repo)
	}
	return &provider.Hook{ID: created.ID, URL: created.Config["url"]}, nil
}
