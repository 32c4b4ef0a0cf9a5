package cijob

import (
	"testing"

	"gotest.tools/v3/assert"
)

func TestCombinePattern(t *testing.T) {
	tests := []struct {
		old, name, want string
	}{
		{old: "", name: "foo", want: "foo"},
		{old: "   ", name: "foo", want: "foo"},
		{old: "(bar)", name: "foo", want: "(bar|foo)"},
		{old: "(bar|whatnot)", name: "foo", want: "(bar|whatnot|foo)"},
		{old: "bar", name: "foo", want: "bar|foo"},
		{old: "bar|foo", name: "foo", want: "bar|foo"},
		{old: "(bar|foo)", name: "foo", want: "(bar|foo)"},
		{old: "foo", name: "foo", want: "foo"},
		{old: " (bar) ", name: " foo ", want: "(bar|foo)"},
		{old: "(a)|(b)", name: "c", want: "(a)|(b)|c"},
		{old: "(bar)", name: "one|two", want: "(bar|one|two)"},
		{old: "(bar)", name: "(bar|baz)", want: "(bar|baz)"},
		{old: "[a|b]x", name: "y", want: "[a|b]x|y"},
		{old: `a\|b`, name: "c", want: `a\|b|c`},
		{old: "(bar)", name: "", want: "(bar)"},
	}
	for _, tt := range tests {
		t.Run(tt.old+"+"+tt.name, func(t *testing.T) {
			assert.Equal(t, CombinePattern(tt.old, tt.name), tt.want)
		})
	}
}

func TestCombinePatternIdempotent(t *testing.T) {
	for _, old := range []string{"bar", "(bar)", "(bar|whatnot)", "x|(y|z)", "foo"} {
		once := CombinePattern(old, "foo")
		assert.Equal(t, CombinePattern(once, "foo"), once, old)
	}
}

func TestCombinePatterns(t *testing.T) {
	assert.Equal(t, CombinePatterns("", "a", "b", "a"), "a|b")
	assert.Equal(t, CombinePatterns("(x)", "a", "b"), "(x|a|b)")
	assert.Equal(t, CombinePatterns("keep"), "keep")
}
