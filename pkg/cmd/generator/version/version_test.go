package version

import (
	"testing"

	"github.com/fabric8io/fabric8-generator/pkg/cli"
	"github.com/fabric8io/fabric8-generator/pkg/params/version"
	tcli "github.com/fabric8io/fabric8-generator/pkg/test/cli"
	"gotest.tools/v3/assert"
)

func TestVersion(t *testing.T) {
	v := "v1.2.3"
	version.Version = v + "\n"
	ios, _, out, _ := cli.IOTest()
	cmd := Command(ios)
	_, err := tcli.ExecuteCommand(cmd)
	assert.NilError(t, err)
	assert.Equal(t, out.String(), v+"\n")
}
