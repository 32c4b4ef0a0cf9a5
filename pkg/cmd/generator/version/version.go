package version

import (
	"fmt"
	"strings"

	"github.com/fabric8io/fabric8-generator/pkg/cli"
	"github.com/fabric8io/fabric8-generator/pkg/params/version"
	"github.com/spf13/cobra"
)

func Command(ioStreams *cli.IOStreams) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print fabric8-generator version",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintln(ioStreams.Out, strings.TrimSpace(version.Version))
		},
		Annotations: map[string]string{
			"commandType": "main",
		},
	}
	return cmd
}
