package gitlab

import (
	"context"
	"fmt"
	"net/http"

	"github.com/fabric8io/fabric8-generator/pkg/provider"
	gitlab "gitlab.com/gitlab-org/api/client-go"
	"go.uber.org/zap"
)

const (
	PublicURL = "https://gitlab.com"
	// the Jenkins GitLab plugin listens under /project/<job>
	webhookPath = "/project/"
)

var _ provider.Interface = (*Provider)(nil)

type Provider struct {
	Client *gitlab.Client
	Logger *zap.SugaredLogger
	Token  string
}

func New(apiURL, token string, httpClient *http.Client, logger *zap.SugaredLogger) (*Provider, error) {
	if apiURL == "" {
		apiURL = PublicURL
	}
	opts := []gitlab.ClientOptionFunc{gitlab.WithBaseURL(apiURL)}
	if httpClient != nil {
		opts = append(opts, gitlab.WithHTTPClient(httpClient))
	}
	client, err := gitlab.NewClient(token, opts...)
	if err != nil {
		return nil, fmt.Errorf("cannot create a gitlab client for %s: %w", apiURL, err)
	}
	return &Provider{Client: client, Logger: logger, Token: token}, nil
}

func (v *Provider) Name() string { return provider.ProviderGitLab }

func (v *Provider) WebhookPath() string { return webhookPath }

func (v *Provider) IsConfiguredCorrectly() bool {
	return v.Client != nil && v.Token != ""
}

func projectID(owner, repo string) string {
	return owner + "/" + repo
}

func (v *Provider) CreateRepository(ctx context.Context, org, name, description string) (*provider.Repository, error) {
	opt := &gitlab.CreateProjectOptions{
		Name:        gitlab.Ptr(name),
		Description: gitlab.Ptr(description),
	}
	if org != "" {
		ns, _, err := v.Client.Namespaces.GetNamespace(org, gitlab.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("cannot find gitlab namespace %s: %w", org, err)
		}
		opt.NamespaceID = gitlab.Ptr(ns.ID)
	}
	project, _, err := v.Client.Projects.CreateProject(opt, gitlab.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	owner := org
	if project.Namespace != nil {
		owner = project.Namespace.FullPath
	}
	return &provider.Repository{
		Owner:    owner,
		Name:     project.Path,
		CloneURL: project.HTTPURLToRepo,
		HTMLURL:  project.WebURL,
	}, nil
}

func (v *Provider) ListHooks(ctx context.Context, owner, repo string) ([]provider.Hook, error) {
	opt := &gitlab.ListProjectHooksOptions{}
	opt.PerPage = 100
	hooks := []provider.Hook{}
	for {
		glHooks, resp, err := v.Client.Projects.ListProjectHooks(projectID(owner, repo), opt, gitlab.WithContext(ctx))
		if err != nil {
			return nil, err
		}
		for _, h := range glHooks {
			hooks = append(hooks, provider.Hook{ID: h.ID, URL: h.URL})
		}
		if resp == nil || resp.NextPage == 0 {
			break
		}
		opt.Page = resp.NextPage
	}
	return hooks, nil
}

func (v *Provider) DeleteHook(ctx context.Context, owner, repo string, hook provider.Hook) error {
	_, err := v.Client.Projects.DeleteProjectHook(projectID(owner, repo), hook.ID, gitlab.WithContext(ctx))
	return err
}

func (v *Provider) CreateHook(ctx context.Context, owner, repo string, opts provider.HookOpts) (*provider.Hook, error) {
	hook, _, err := v.Client.Projects.AddProjectHook(projectID(owner, repo), &gitlab.AddProjectHookOptions{
		URL:                   gitlab.Ptr(opts.URL),
		Token:                 gitlab.Ptr(opts.Secret),
		EnableSSLVerification: gitlab.Ptr(!opts.InsecureSSL),
		PushEvents:            gitlab.Ptr(true),
		TagPushEvents:         gitlab.Ptr(true),
		MergeRequestsEvents:   gitlab.Ptr(true),
		NoteEvents:            gitlab.Ptr(true),
	}, gitlab.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	if v.Logger != nil {
		v.Logger.Infof("gitlab webhook %d has been created on %s", hook.ID, projectID(owner, repo))
	}
	return &provider.Hook{ID: hook.ID, URL: hook.URL}, nil
}
