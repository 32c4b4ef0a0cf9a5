package provision

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fabric8io/fabric8-generator/pkg/buildresource"
	"github.com/fabric8io/fabric8-generator/pkg/cijob"
	"github.com/fabric8io/fabric8-generator/pkg/formatting"
	"github.com/fabric8io/fabric8-generator/pkg/git"
	"github.com/fabric8io/fabric8-generator/pkg/httpinvoker"
	"github.com/fabric8io/fabric8-generator/pkg/kubeinteraction"
	"github.com/fabric8io/fabric8-generator/pkg/metrics"
	"github.com/fabric8io/fabric8-generator/pkg/params/settings"
	"github.com/fabric8io/fabric8-generator/pkg/provider"
	"github.com/fabric8io/fabric8-generator/pkg/webhook"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// maxConcurrentWebhooks bounds the webhook registrations running at once.
const maxConcurrentWebhooks = 4

const (
	stageCIURL     = "ci-url"
	stageOrgJob    = "organization-job"
	stageTrigger   = "build-trigger"
	stageWebhook   = "webhook"
	resultSuccess  = "success"
	resultFailure  = "failure"
	ciNamespaceFmt = "%s-jenkins"
)

type BuildResources interface {
	Reconcile(ctx context.Context, d buildresource.Descriptor) error
	Kind() string
}

type Builds interface {
	Trigger(ctx context.Context, namespace, name string) (string, error)
}

type CIJobs interface {
	EnsureCredential(ctx context.Context, ciURL string, cred cijob.CredentialSpec, token string) error
	EnsureOrganizationJob(ctx context.Context, ciURL, owner, pattern, credentialID, token string) (string, error)
}

type Webhooks interface {
	Register(ctx context.Context, gp provider.Interface, spec webhook.Spec) error
}

// PushFunc pushes dir as the first commit of remoteURL and returns the commit hash.
type PushFunc func(ctx context.Context, dir, remoteURL string, account provider.Account) (string, error)

// GitPush is the PushFunc backed by go-git.
func GitPush(ctx context.Context, dir, remoteURL string, account provider.Account) (string, error) {
	return git.PushInitialCommit(ctx, dir, remoteURL, git.TokenAuth(account), git.Author{})
}

// Coordinator runs a provisioning request against the cluster, the CI server
// and the git host.
type Coordinator struct {
	Resources BuildResources
	Builds    Builds
	Jobs      CIJobs
	Webhooks  Webhooks
	Kube      kubeinteraction.Interface
	Push      PushFunc
	Settings  settings.Settings
	Metrics   *metrics.Recorder
	Logger    *zap.SugaredLogger
}

// run carries the state of a single Provision call.
type run struct {
	req      Request
	status   *Status
	ciURL    string
	secret   string
	hooked   []string
	warnings []string
}

func (r *run) warn(msg string) {
	r.warnings = append(r.warnings, msg)
}

func (c *Coordinator) warn(ctx context.Context, r *run, stage, msg string) {
	c.Logger.Warnw(msg, "stage", stage, "namespace", r.req.Namespace)
	c.Metrics.Warning(ctx, stage)
	r.warn(msg)
}

// Provision runs req to completion. Only missing fields and failures that
// leave nothing to wire up end the run early; everything else becomes a
// warning on the returned status.
func (c *Coordinator) Provision(ctx context.Context, req Request) Result {
	if req.ProjectName == "" && len(req.Repositories) > 0 {
		req.ProjectName = req.Repositories[0]
	}
	res := c.provision(ctx, req)
	if res.Err != nil {
		c.Metrics.RunFinished(ctx, resultFailure)
		c.Logger.Errorw("provisioning failed", "project", req.ProjectName, "namespace", req.Namespace, "error", res.Err)
	} else {
		c.Metrics.RunFinished(ctx, resultSuccess)
	}
	return res
}

func (c *Coordinator) provision(ctx context.Context, req Request) Result {
	if err := req.validate(); err != nil {
		return failed(req, err)
	}
	r := &run{req: req}

	if req.CreateRepository {
		if err := c.createRepository(ctx, r); err != nil {
			return failed(req, err)
		}
	}

	desc := c.descriptor(&r.req)
	if err := c.Resources.Reconcile(ctx, desc); err != nil {
		return failed(req, err)
	}
	r.status = &Status{
		Namespace:    r.req.Namespace,
		ProjectName:  r.req.ProjectName,
		GitURL:       r.req.GitURL,
		StackID:      r.req.StackID,
		Repositories: r.req.Repositories,
		GitOwner:     r.req.GitOwner,
	}
	msg := fmt.Sprintf("Created %s %s/%s.", c.Resources.Kind(), desc.Namespace, desc.Name)

	if !req.CIEnabled {
		return c.finish(r, msg)
	}

	if err := c.resolveCI(ctx, r); err != nil {
		c.warn(ctx, r, stageCIURL, fmt.Sprintf("Failed to resolve the CI server URL: %v", err))
		return c.finish(r, msg)
	}

	if r.req.organizationMode() && r.req.Provider.Name() == provider.ProviderGitHub {
		if err := c.organizationJob(ctx, r); err != nil {
			return failed(req, err)
		}
	} else {
		if r.req.organizationMode() {
			c.warn(ctx, r, stageOrgJob, fmt.Sprintf("Organization jobs are not supported for %s repositories, building %s/%s instead",
				r.req.Provider.Name(), desc.Namespace, desc.Name))
		}
		if req.TriggerBuild {
			c.triggerBuild(ctx, r, desc)
		}
	}

	c.registerWebhooks(ctx, r)

	switch {
	case r.status.CIJobURL != "":
		msg += " Created CI job: " + r.status.CIJobURL
		if len(r.hooked) > 0 {
			msg += " and added git webhooks to repositories " + strings.Join(r.hooked, ", ")
		}
		msg += "."
	case len(r.hooked) > 0:
		msg += " Added git webhooks to repositories " + strings.Join(r.hooked, ", ") + "."
	}
	return c.finish(r, msg)
}

func (c *Coordinator) finish(r *run, msg string) Result {
	r.status.Warnings = r.warnings
	c.Logger.Infow(msg, "namespace", r.status.Namespace, "project", r.status.ProjectName, "warnings", len(r.warnings))
	return Result{Status: r.status, Message: msg}
}

func failed(req Request, err error) Result {
	name := req.ProjectName
	if name == "" {
		name = req.Namespace
	}
	return Result{Message: fmt.Sprintf("Failed to provision %s: %v", name, err), Err: err}
}

func (c *Coordinator) createRepository(ctx context.Context, r *run) error {
	repo, err := r.req.Provider.CreateRepository(ctx, r.req.Organization, r.req.Repositories[0], r.req.Description)
	if err != nil {
		return fmt.Errorf("cannot create repository %s: %w", r.req.Repositories[0], err)
	}
	r.req.GitURL = repo.CloneURL
	r.req.GitOwner = repo.Owner
	c.Logger.Infof("created %s repository %s/%s", r.req.Provider.Name(), repo.Owner, repo.Name)

	if r.req.PushDir == "" {
		return nil
	}
	push := c.Push
	if push == nil {
		push = GitPush
	}
	sha, err := push(ctx, r.req.PushDir, repo.CloneURL, r.req.Account)
	if err != nil {
		return err
	}
	c.Logger.Infof("pushed %s to %s at %s", r.req.PushDir, repo.HTMLURL, formatting.ShortSHA(sha))
	return nil
}

func (c *Coordinator) descriptor(req *Request) buildresource.Descriptor {
	d := buildresource.Descriptor{
		Namespace:   req.Namespace,
		Name:        formatting.CleanKubernetesName(req.ProjectName),
		SourceURL:   req.GitURL,
		Annotations: map[string]string{},
		Labels:      map[string]string{},
	}
	if req.StackID != "" {
		d.Annotations[buildresource.CheStackAnnotation] = req.StackID
	}
	if req.organizationMode() {
		for k, v := range buildresource.OrganizationJobAnnotations(req.GitOwner, req.ProjectName) {
			d.Annotations[k] = v
		}
	}
	if req.Space != "" {
		d.Labels[buildresource.SpaceLabel] = formatting.K8LabelsCleanup(req.Space)
	}
	return d
}

func (c *Coordinator) ciNamespace(req *Request) string {
	if req.CINamespace != "" {
		return req.CINamespace
	}
	if c.Settings.Mode() == settings.OnPremise {
		return req.Namespace
	}
	return fmt.Sprintf(ciNamespaceFmt, req.Namespace)
}

// resolveCI finds the CI server URL and the secret shared with the git hooks.
func (c *Coordinator) resolveCI(ctx context.Context, r *run) error {
	ns := c.ciNamespace(&r.req)
	ciURL, err := c.Kube.ResolveServiceURL(ctx, ns, c.Settings.CIServiceName, c.Settings.CIURLScheme)
	if err != nil {
		return err
	}
	r.ciURL = ciURL

	secret, err := c.Kube.FindBotSecret(ctx, ns, c.Settings.BotServiceAccount)
	if err != nil {
		c.Logger.Warnf("cannot look up the %s token in %s: %v", c.Settings.BotServiceAccount, ns, err)
	}
	if secret == "" {
		c.Logger.Warnf("no %s token found in %s, using the default webhook secret", c.Settings.BotServiceAccount, ns)
		secret = c.Settings.DefaultBotSecret
	}
	r.secret = secret
	return nil
}

func (c *Coordinator) organizationJob(ctx context.Context, r *run) error {
	cred := cijob.CredentialSpec{
		ID:       c.Settings.CICredentialID,
		Username: r.req.GitOwner,
		Password: r.req.Account.Token,
	}
	if err := c.Jobs.EnsureCredential(ctx, r.ciURL, cred, r.req.CIToken); err != nil {
		return err
	}
	pattern := cijob.CombinePatterns(r.req.Pattern, r.req.Repositories...)
	jobURL, err := c.Jobs.EnsureOrganizationJob(ctx, r.ciURL, r.req.GitOwner, pattern, cred.ID, r.req.CIToken)
	if err != nil {
		var perr *cijob.JobPersistError
		if errors.As(err, &perr) {
			return err
		}
		c.warn(ctx, r, stageOrgJob, fmt.Sprintf("Failed to update the CI job for %s: %v", r.req.GitOwner, err))
		return nil
	}
	r.status.CIJobURL = jobURL
	return nil
}

func (c *Coordinator) triggerBuild(ctx context.Context, r *run, desc buildresource.Descriptor) {
	build, err := c.Builds.Trigger(ctx, desc.Namespace, desc.Name)
	if err != nil {
		c.warn(ctx, r, stageTrigger, fmt.Sprintf("Failed to trigger a build of %s/%s: %v", desc.Namespace, desc.Name, err))
		return
	}
	r.status.Build = build
}

func (c *Coordinator) registerWebhooks(ctx context.Context, r *run) {
	hookURL := httpinvoker.JoinURL(r.ciURL, r.req.Provider.WebhookPath())
	errs := make([]error, len(r.req.Repositories))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentWebhooks)
	for i, repo := range r.req.Repositories {
		g.Go(func() error {
			errs[i] = c.Webhooks.Register(gctx, r.req.Provider, webhook.Spec{
				Owner:      r.req.GitOwner,
				Repository: repo,
				URL:        hookURL,
				Secret:     r.secret,
			})
			return nil
		})
	}
	_ = g.Wait()

	for i, repo := range r.req.Repositories {
		if errs[i] != nil {
			c.warn(ctx, r, stageWebhook, fmt.Sprintf("Failed to create CI webhooks for: %s: %v", repo, errs[i]))
			continue
		}
		r.hooked = append(r.hooked, repo)
	}
}
