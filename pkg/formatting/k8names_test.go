package formatting

import (
	"strings"
	"testing"
)

func TestCleanKubernetesName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "keep dash",
			input: "foo-bar",
			want:  "foo-bar",
		},
		{
			name:  "keep dot",
			input: "foo.bar",
			want:  "foo.bar",
		},
		{
			name:  "start with uppercase",
			input: "Foo",
			want:  "foo",
		},
		{
			name:  "start with special character",
			input: "!foo",
			want:  "foo",
		},
		{
			name:  "end with special character",
			input: "foo!",
			want:  "foo",
		},
		{
			name:  "replace slash",
			input: "foo/bar",
			want:  "foo-bar",
		},
		{
			name:  "replace underscore",
			input: "my_app",
			want:  "my-app",
		},
		{
			name:  "replace new line",
			input: "foo\n",
			want:  "foo",
		},
		{
			name:  "contains spaces",
			input: "foo bar",
			want:  "foo-bar",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanKubernetesName(tt.input); got != tt.want {
				t.Errorf("CleanKubernetesName() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestK8LabelsCleanup(t *testing.T) {
	tests := []struct {
		name string
		str  string
		want string
	}{
		{
			name: "clean characters for k8 labels",
			str:  "foo/bar hello",
			want: "foo-bar_hello",
		},
		{
			name: "keep dash",
			str:  "foo-bar-hello",
			want: "foo-bar-hello",
		},
		{
			name: "github bot name",
			str:  "github-actions[bot]",
			want: "github-actions__bot",
		},
		{
			name: "trailing dash removed",
			str:  "my-space--",
			want: "my-space",
		},
		{
			name: "longer than 63 characters",
			str:  strings.Repeat("a", 64),
			want: strings.Repeat("a", 63),
		},
		{
			name: "colon replaced",
			str:  "space:one",
			want: "space-one",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := K8LabelsCleanup(tt.str); got != tt.want {
				t.Errorf("K8LabelsCleanup() = %v, want %v", got, tt.want)
			}
		})
	}
}
