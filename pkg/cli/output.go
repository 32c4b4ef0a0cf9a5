package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"

	"sigs.k8s.io/yaml"
)

const (
	OutputYAML = "yaml"
	OutputJSON = "json"
)

var OutputFormats = []string{OutputYAML, OutputJSON}

func ValidateOutput(format string) error {
	if !slices.Contains(OutputFormats, format) {
		return fmt.Errorf("unknown output format %q, valid values are yaml, json", format)
	}
	return nil
}

// PrintObject writes v to out as YAML or indented JSON.
func PrintObject(out io.Writer, format string, v any) error {
	var (
		data []byte
		err  error
	)
	switch format {
	case OutputJSON:
		data, err = json.MarshalIndent(v, "", "  ")
		data = append(data, '\n')
	default:
		if err := ValidateOutput(format); err != nil {
			return err
		}
		data, err = yaml.Marshal(v)
	}
	if err != nil {
		return err
	}
	_, err = out.Write(data)
	return err
}
