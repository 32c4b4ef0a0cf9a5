package cli

import (
	"os"
	"testing"

	"gotest.tools/v3/assert"
)

func TestNewIOStreams(t *testing.T) {
	ios := NewIOStreams()
	assert.Assert(t, ios != nil)
	assert.Assert(t, ios.In != nil)
	assert.Assert(t, ios.Out != nil)
	assert.Assert(t, ios.ErrOut != nil)
}

func TestIOStreams_IsStdoutTTY(t *testing.T) {
	tests := []struct {
		name     string
		setup    func() *IOStreams
		expected bool
	}{
		{
			name: "with override true",
			setup: func() *IOStreams {
				ios := &IOStreams{}
				ios.SetStdoutTTY(true)
				return ios
			},
			expected: true,
		},
		{
			name: "with override false",
			setup: func() *IOStreams {
				ios := &IOStreams{}
				ios.SetStdoutTTY(false)
				return ios
			},
			expected: false,
		},
		{
			name: "with actual file",
			setup: func() *IOStreams {
				return &IOStreams{Out: os.Stdout}
			},
			expected: isTerminal(os.Stdout),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ios := tt.setup()
			assert.Equal(t, ios.IsStdoutTTY(), tt.expected)
		})
	}
}

func TestCanPrompt(t *testing.T) {
	ios, _, _, _ := IOTest()
	assert.Assert(t, !ios.CanPrompt())

	ios.SetStdinTTY(true)
	assert.Assert(t, !ios.CanPrompt())
	ios.SetStdoutTTY(true)
	assert.Assert(t, ios.CanPrompt())
}

func TestColorScheme(t *testing.T) {
	cs := NewColorScheme(true)
	assert.Equal(t, cs.Yellow("warn"), yellow("warn"))
	assert.Equal(t, cs.SuccessIcon(), green("✓"))

	plain := NewColorScheme(false)
	assert.Equal(t, plain.Yellow("warn"), "warn")
	assert.Equal(t, plain.FailureIcon(), "X")
}

func TestSetColorEnabled(t *testing.T) {
	ios, _, _, _ := IOTest()
	ios.SetColorEnabled(true)
	assert.Assert(t, ios.ColorEnabled())
	ios.SetColorEnabled(false)
	assert.Assert(t, !ios.ColorEnabled())
	assert.Equal(t, ios.ColorScheme().Red("x"), "x")
}
