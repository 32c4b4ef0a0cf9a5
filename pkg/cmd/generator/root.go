package generator

import (
	"github.com/fabric8io/fabric8-generator/pkg/cli"
	"github.com/fabric8io/fabric8-generator/pkg/cmd/generator/provision"
	"github.com/fabric8io/fabric8-generator/pkg/cmd/generator/version"
	"github.com/fabric8io/fabric8-generator/pkg/params"
	"github.com/spf13/cobra"
)

func Root(run *params.Run, ioStreams *cli.IOStreams) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "fabric8-generator",
		Short:        "fabric8 project provisioning",
		Long:         `Create the build resource, CI job and git webhooks of a freshly generated project`,
		SilenceUsage: true,
		Annotations: map[string]string{
			"commandType": "main",
		},
	}
	run.Info.Kube.AddFlags(cmd)

	cmd.AddCommand(version.Command(ioStreams))
	cmd.AddCommand(provision.Command(run, ioStreams))
	return cmd
}
