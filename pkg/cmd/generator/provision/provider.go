package provision

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/fabric8io/fabric8-generator/pkg/kubeinteraction"
	"github.com/fabric8io/fabric8-generator/pkg/params"
	"github.com/fabric8io/fabric8-generator/pkg/params/settings"
	"github.com/fabric8io/fabric8-generator/pkg/provider"
	"github.com/fabric8io/fabric8-generator/pkg/provider/gitea"
	"github.com/fabric8io/fabric8-generator/pkg/provider/github"
	"github.com/fabric8io/fabric8-generator/pkg/provider/gitlab"
)

// newProvider builds the git provider picked on the command line, after
// checking it is one the cluster offers.
func newProvider(ctx context.Context, run *params.Run, kint kubeinteraction.Interface, opts *provisionOpts, s settings.Settings) (provider.Interface, error) {
	name := opts.providerName
	validNames := []string{provider.ProviderGitHub, provider.ProviderGitea, provider.ProviderGitLab}
	if !provider.Valid(name, validNames) {
		return nil, &provider.UnknownProviderError{Name: name}
	}

	log := run.Clients.Log
	ns := run.Info.Kube.Namespace
	found := kubeinteraction.FoundServices(ctx, kint, log, ns, provider.DiscoveryServices)
	gitlabURL := ""
	if name == provider.ProviderGitLab {
		gitlabURL = opts.providerURL
	}
	available := provider.Available(s.Mode() == settings.OnPremise, found, gitlabURL)
	if !slices.Contains(available, name) {
		return nil, fmt.Errorf("git provider %s is not available here, choose one of %s", name, strings.Join(available, ", "))
	}

	token := opts.gitToken
	switch name {
	case provider.ProviderGitHub:
		return github.New(ctx, opts.providerURL, token, log)
	case provider.ProviderGitea:
		apiURL := opts.providerURL
		if apiURL == "" {
			var err error
			if apiURL, err = kint.ResolveServiceURL(ctx, ns, found[0], "http"); err != nil {
				return nil, fmt.Errorf("cannot find the %s server URL: %w", found[0], err)
			}
		}
		return gitea.New(apiURL, token, &run.Clients.HTTP, log)
	default:
		return gitlab.New(opts.providerURL, token, &run.Clients.HTTP, log)
	}
}
