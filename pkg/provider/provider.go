package provider

import (
	"fmt"
	"slices"
	"strings"
)

const (
	ProviderGitHub = "github"
	ProviderGitea  = "gitea"
	ProviderGitLab = "gitlab"
)

// DiscoveryServices are the cluster services that reveal an on-premise
// Gitea compatible git host.
var DiscoveryServices = []string{"gogs", "gitea"}

func Valid(value string, validValues []string) bool {
	return slices.Contains(validValues, value)
}

// Account is the git account a provisioning run acts as.
type Account struct {
	Username string
	Token    string
}

// UnknownProviderError is returned when a provider name is not supported.
type UnknownProviderError struct {
	Name string
}

func (e *UnknownProviderError) Error() string {
	return fmt.Sprintf("unknown git provider %q, valid values are %s", e.Name,
		strings.Join([]string{ProviderGitHub, ProviderGitea, ProviderGitLab}, ", "))
}

// Available returns the provider names usable in a deployment. GitHub is
// always there, Gitea only when one of the discovery services was found on
// premise, GitLab when an explicit URL was configured.
func Available(onPremise bool, foundServices []string, gitlabURL string) []string {
	names := []string{ProviderGitHub}
	if onPremise {
		for _, svc := range foundServices {
			if Valid(svc, DiscoveryServices) {
				names = append(names, ProviderGitea)
				break
			}
		}
	}
	if gitlabURL != "" {
		names = append(names, ProviderGitLab)
	}
	return names
}
