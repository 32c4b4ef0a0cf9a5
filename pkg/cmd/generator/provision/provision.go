package provision

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/fabric8io/fabric8-generator/pkg/buildresource"
	"github.com/fabric8io/fabric8-generator/pkg/buildtrigger"
	"github.com/fabric8io/fabric8-generator/pkg/cijob"
	"github.com/fabric8io/fabric8-generator/pkg/cli"
	"github.com/fabric8io/fabric8-generator/pkg/cli/prompt"
	"github.com/fabric8io/fabric8-generator/pkg/formatting"
	"github.com/fabric8io/fabric8-generator/pkg/httpinvoker"
	"github.com/fabric8io/fabric8-generator/pkg/kubeinteraction"
	"github.com/fabric8io/fabric8-generator/pkg/metrics"
	"github.com/fabric8io/fabric8-generator/pkg/params"
	"github.com/fabric8io/fabric8-generator/pkg/provider"
	"github.com/fabric8io/fabric8-generator/pkg/provision"
	"github.com/fabric8io/fabric8-generator/pkg/webhook"
	"github.com/hako/durafmt"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
)

const (
	gitTokenEnv = "FABRIC8_GIT_TOKEN"
	ciTokenEnv  = "FABRIC8_CI_TOKEN"
)

type provisionOpts struct {
	ioStreams *cli.IOStreams

	ciNamespace  string
	project      string
	gitURL       string
	providerName string
	providerURL  string
	owner        string
	organization string
	repositories []string
	pattern      string
	orgJob       bool
	ci           bool
	triggerBuild bool
	space        string
	stackID      string
	createRepo   bool
	pushDir      string
	description  string
	gitUser      string
	gitToken     string
	ciToken      string
	output       string
	noColor      bool
}

func Command(run *params.Run, ioStreams *cli.IOStreams) *cobra.Command {
	opts := &provisionOpts{ioStreams: ioStreams}
	cmd := &cobra.Command{
		Use:   "provision",
		Short: "Provision the build, CI job and webhooks of a project",
		Long: `Create or update the cluster build resource of a project, wire it to the
CI server and register the CI webhooks on its git repositories.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			opts.ioStreams.SetColorEnabled(!opts.noColor && opts.ioStreams.ColorEnabled())
			if err := cli.ValidateOutput(opts.output); err != nil {
				return err
			}
			return runProvision(ctx, run, opts)
		},
		Annotations: map[string]string{
			"commandType": "main",
		},
	}

	cmd.Flags().StringVar(&opts.ciNamespace, "ci-namespace", "", "namespace running the CI server (default: depends on the deployment mode)")
	cmd.Flags().StringVar(&opts.project, "project", "", "project name, defaults to the first repository")
	cmd.Flags().StringVar(&opts.gitURL, "git-url", "", "clone URL of the git repository")
	cmd.Flags().StringVar(&opts.providerName, "provider", provider.ProviderGitHub, "git provider, one of github, gitea, gitlab")
	cmd.Flags().StringVar(&opts.providerURL, "provider-url", "", "API URL of the git provider")
	cmd.Flags().StringVar(&opts.owner, "owner", "", "owner of the git repositories")
	cmd.Flags().StringVar(&opts.organization, "organization", "", "organization to create the repository in")
	cmd.Flags().StringSliceVar(&opts.repositories, "repo", nil, "repository name, repeat for an organization job")
	cmd.Flags().StringVar(&opts.pattern, "pattern", "", "extra repository pattern for the organization job")
	cmd.Flags().BoolVar(&opts.orgJob, "organization-job", false, "use an organization job even for a single repository")
	cmd.Flags().BoolVar(&opts.ci, "ci", true, "wire the project to the CI server")
	cmd.Flags().BoolVar(&opts.triggerBuild, "trigger-build", true, "start a first build")
	cmd.Flags().StringVar(&opts.space, "space", "", "space label of the build resource")
	cmd.Flags().StringVar(&opts.stackID, "stack-id", "", "detected stack of the project")
	cmd.Flags().BoolVar(&opts.createRepo, "create-repo", false, "create the repository on the git provider first")
	cmd.Flags().StringVar(&opts.pushDir, "push-dir", "", "directory pushed as first commit of a created repository")
	cmd.Flags().StringVar(&opts.description, "description", "", "description of a created repository")
	cmd.Flags().StringVar(&opts.gitUser, "git-user", "", "git account user name")
	cmd.Flags().StringVar(&opts.gitToken, "git-token", os.Getenv(gitTokenEnv), fmt.Sprintf("git account token (env: %s)", gitTokenEnv))
	cmd.Flags().StringVar(&opts.ciToken, "ci-token", os.Getenv(ciTokenEnv), fmt.Sprintf("bearer token for the CI server (env: %s)", ciTokenEnv))
	cmd.Flags().StringVarP(&opts.output, "output", "o", cli.OutputYAML, "output format, one of yaml, json")
	cmd.Flags().BoolVar(&opts.noColor, "no-color", false, "disable coloring")
	return cmd
}

func runProvision(ctx context.Context, run *params.Run, opts *provisionOpts) error {
	if err := run.Clients.NewClients(ctx, &run.Info); err != nil {
		return err
	}
	ns := run.Info.Kube.Namespace
	if err := run.UpdateSettings(ctx, ns); err != nil {
		return err
	}
	s := run.Info.GetSettings()
	log := run.Clients.Log

	if opts.gitToken == "" && opts.ioStreams.CanPrompt() {
		if err := prompt.SurveyAskOne(&survey.Password{
			Message: fmt.Sprintf("Enter a %s token for %s: ", opts.providerName, opts.gitUser),
		}, &opts.gitToken); err != nil {
			return err
		}
	}

	if opts.gitURL != "" && (opts.owner == "" || len(opts.repositories) == 0) {
		owner, repo, err := formatting.GetRepoOwnerFromURL(opts.gitURL)
		if err != nil {
			return err
		}
		if opts.owner == "" {
			opts.owner = owner
		}
		if len(opts.repositories) == 0 {
			opts.repositories = []string{repo}
		}
	}

	kint := kubeinteraction.NewKubernetesInteraction(run.Clients.Kube, run.Clients.Dynamic, log)
	gp, err := newProvider(ctx, run, kint, opts, s)
	if err != nil {
		return err
	}

	recorder, err := metrics.NewRecorder(nil)
	if err != nil {
		return err
	}
	var invoker httpinvoker.Invoker = httpinvoker.New(&run.Clients.HTTP, log,
		httpinvoker.WithMaxRedirects(s.MaxRedirects), httpinvoker.WithObserver(recorder))
	clock := clockwork.NewRealClock()
	invoker = httpinvoker.NewRetrying(invoker, s.RequestAttempts, s.RequestBackoff, clock, log)

	backend, err := buildresource.NewBackend(s.BuildBackend, run.Clients.Dynamic, run.Clients.Tekton, s.PipelineName)
	if err != nil {
		return err
	}
	resources := buildresource.NewReconciler(run.Clients.Dynamic, backend, log)
	jobs := cijob.NewReconciler(invoker, buildtrigger.NewJobTrigger(invoker, log), log)
	jobs.TemplatePath = s.JobTemplateFile

	coordinator := &provision.Coordinator{
		Resources: resources,
		Builds:    buildtrigger.NewClusterTrigger(resources, s.BuildTriggerAttempts, s.BuildTriggerDelay, clock, log),
		Jobs:      jobs,
		Webhooks:  webhook.NewRegistrar(log),
		Kube:      kint,
		Push:      provision.GitPush,
		Settings:  s,
		Metrics:   recorder,
		Logger:    log,
	}

	start := time.Now()
	res := coordinator.Provision(ctx, provision.Request{
		Namespace:        ns,
		CINamespace:      opts.ciNamespace,
		ProjectName:      opts.project,
		GitURL:           opts.gitURL,
		GitOwner:         opts.owner,
		Organization:     opts.organization,
		Repositories:     opts.repositories,
		Pattern:          opts.pattern,
		Provider:         gp,
		Account:          provider.Account{Username: opts.gitUser, Token: opts.gitToken},
		CIToken:          opts.ciToken,
		CIEnabled:        opts.ci,
		TriggerBuild:     opts.triggerBuild,
		OrganizationJob:  opts.orgJob,
		Space:            opts.space,
		StackID:          opts.stackID,
		CreateRepository: opts.createRepo,
		Description:      opts.description,
		PushDir:          opts.pushDir,
	})
	return printResult(opts, res, time.Since(start))
}

func printResult(opts *provisionOpts, res provision.Result, elapsed time.Duration) error {
	cs := opts.ioStreams.ColorScheme()
	if !res.Succeeded() {
		fmt.Fprintf(opts.ioStreams.ErrOut, "%s %s\n", cs.FailureIcon(), res.Message)
		return res.Err
	}
	if err := cli.PrintObject(opts.ioStreams.Out, opts.output, res.Status); err != nil {
		return err
	}
	fmt.Fprintf(opts.ioStreams.ErrOut, "%s %s (%s)\n", cs.SuccessIcon(), res.Message, durafmt.ParseShort(elapsed).String())
	for _, w := range res.Status.Warnings {
		fmt.Fprintf(opts.ioStreams.ErrOut, "%s %s\n", cs.WarningIcon(), cs.Yellow(w))
	}
	return nil
}
