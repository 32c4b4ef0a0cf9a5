package provision

import (
	"fmt"
	"slices"
	"strings"

	"github.com/fabric8io/fabric8-generator/pkg/provider"
)

// Request holds the selections of one provisioning run.
type Request struct {
	// Namespace receives the build resource.
	Namespace string
	// CINamespace runs the CI server. Defaults depend on the deployment mode.
	CINamespace string
	ProjectName string
	GitURL      string
	GitOwner    string
	// Organization the repository is created under, empty for the user.
	Organization string
	Repositories []string
	// Pattern is an extra regex for the organization job.
	Pattern string

	Provider provider.Interface
	Account  provider.Account
	// CIToken is sent as bearer token to the CI server.
	CIToken string

	CIEnabled       bool
	TriggerBuild    bool
	OrganizationJob bool

	Space   string
	StackID string

	CreateRepository bool
	Description      string
	// PushDir is pushed as initial commit once the repository is created.
	PushDir string
}

// organizationMode is true when one CI job has to scan several repositories.
func (r *Request) organizationMode() bool {
	return len(r.Repositories) > 1 || r.Pattern != "" || r.OrganizationJob
}

// Status is what a run did. It is only built for runs that did not fail.
type Status struct {
	Namespace    string   `json:"namespace"`
	ProjectName  string   `json:"projectName"`
	GitURL       string   `json:"gitUrl"`
	StackID      string   `json:"stackId,omitempty"`
	CIJobURL     string   `json:"ciJobUrl,omitempty"`
	Build        string   `json:"build,omitempty"`
	Repositories []string `json:"repositories"`
	GitOwner     string   `json:"gitOwner"`
	Warnings     []string `json:"warnings,omitempty"`
}

type Result struct {
	Status  *Status `json:"status,omitempty"`
	Message string  `json:"message"`
	Err     error   `json:"-"`
}

func (r Result) Succeeded() bool { return r.Err == nil }

// ValidationError lists the request fields that are missing.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required fields: %s", strings.Join(e.Missing, ", "))
}

func (r *Request) validate() error {
	missing := []string{}
	if r.Namespace == "" {
		missing = append(missing, "namespace")
	}
	if r.GitURL == "" && !r.CreateRepository {
		missing = append(missing, "git URL")
	}
	if r.Account.Token == "" {
		missing = append(missing, "git account")
	}
	if len(r.Repositories) == 0 || slices.ContainsFunc(r.Repositories, isBlank) {
		missing = append(missing, "repository name")
	}
	if r.GitOwner == "" && !r.CreateRepository {
		missing = append(missing, "git owner")
	}
	if r.Provider == nil && (r.CIEnabled || r.CreateRepository) {
		missing = append(missing, "git provider")
	}
	if len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}
	return nil
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
