package main

import (
	"os"

	"github.com/fabric8io/fabric8-generator/pkg/cli"
	"github.com/fabric8io/fabric8-generator/pkg/cmd/generator"
	"github.com/fabric8io/fabric8-generator/pkg/params"
)

func main() {
	run := params.New()
	root := generator.Root(run, cli.NewIOStreams())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
