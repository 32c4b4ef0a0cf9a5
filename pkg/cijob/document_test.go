package cijob

import (
	"strings"
	"testing"

	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"
)

const existingJob = `<?xml version='1.1' encoding='UTF-8'?>
<jenkins.branch.OrganizationFolder plugin="branch-api@2.0.11">
  <description>keep me &amp; my entities</description>
  <navigators>
    <org.jenkinsci.plugins.github__branch__source.GitHubSCMNavigator plugin="github-branch-source@2.3.1">
      <repoOwner>acme</repoOwner>
      <credentialsId>fabric8</credentialsId>
      <traits>
        <pattern>not-the-navigator-pattern</pattern>
      </traits>
      <pattern>(bar|whatnot)</pattern>
    </org.jenkinsci.plugins.github__branch__source.GitHubSCMNavigator>
  </navigators>
</jenkins.branch.OrganizationFolder>
`

func TestParse(t *testing.T) {
	doc, err := Parse([]byte(existingJob))
	assert.NilError(t, err)
	assert.Equal(t, doc.RepoOwner, "acme")
	assert.Equal(t, doc.Pattern, "(bar|whatnot)")
}

func TestParseCredentialsID(t *testing.T) {
	doc, err := Parse([]byte(existingJob))
	assert.NilError(t, err)
	assert.Equal(t, doc.CredentialsID, "fabric8")
}

func TestParseWithoutNavigator(t *testing.T) {
	tests := []struct {
		name string
		xml  string
	}{
		{name: "freestyle job", xml: `<?xml version='1.1' encoding='UTF-8'?><project><builders/></project>`},
		{name: "no declaration", xml: `<project><description>x</description></project>`},
		{name: "empty navigator", xml: `<folder><org.jenkinsci.plugins.github__branch__source.GitHubSCMNavigator/></folder>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.xml))
			assert.ErrorIs(t, err, ErrNavigatorNotFound)
		})
	}
}

func TestParseBroken(t *testing.T) {
	_, err := Parse([]byte(`<project><description></project`))
	assert.ErrorContains(t, err, "cannot parse job configuration")
}

func TestMarshalKeepsEverythingElse(t *testing.T) {
	doc, err := Parse([]byte(existingJob))
	assert.NilError(t, err)

	doc.RepoOwner = "other"
	doc.Pattern = CombinePattern(doc.Pattern, "foo")
	out, err := doc.Marshal()
	assert.NilError(t, err)

	want := strings.NewReplacer(
		"<repoOwner>acme</repoOwner>", "<repoOwner>other</repoOwner>",
		"<pattern>(bar|whatnot)</pattern>", "<pattern>(bar|whatnot|foo)</pattern>",
	).Replace(existingJob)
	assert.Equal(t, string(out), want)

	again, err := Parse(out)
	assert.NilError(t, err)
	assert.Equal(t, again.RepoOwner, "other")
	assert.Equal(t, again.Pattern, "(bar|whatnot|foo)")
}

func TestMarshalUnchangedIsIdentity(t *testing.T) {
	doc, err := Parse([]byte(existingJob))
	assert.NilError(t, err)
	out, err := doc.Marshal()
	assert.NilError(t, err)
	assert.Equal(t, string(out), existingJob)
}

func TestMarshalEscapes(t *testing.T) {
	doc, err := Parse([]byte(existingJob))
	assert.NilError(t, err)
	doc.Pattern = "a<b&c"
	out, err := doc.Marshal()
	assert.NilError(t, err)
	assert.Assert(t, is.Contains(string(out), "<pattern>a&lt;b&amp;c</pattern>"))

	back, err := Parse(out)
	assert.NilError(t, err)
	assert.Equal(t, back.Pattern, "a<b&c")
}

func TestMarshalSelfClosingAndMissingChildren(t *testing.T) {
	src := `<folder><navigators><org.jenkinsci.plugins.github__branch__source.GitHubSCMNavigator><pattern/></org.jenkinsci.plugins.github__branch__source.GitHubSCMNavigator></navigators></folder>`
	doc, err := Parse([]byte(src))
	assert.NilError(t, err)
	assert.Equal(t, doc.Pattern, "")
	assert.Equal(t, doc.RepoOwner, "")

	doc.RepoOwner = "acme"
	doc.Pattern = CombinePattern(doc.Pattern, "demo")
	out, err := doc.Marshal()
	assert.NilError(t, err)
	assert.Equal(t, string(out),
		`<folder><navigators><org.jenkinsci.plugins.github__branch__source.GitHubSCMNavigator><pattern>demo</pattern><repoOwner>acme</repoOwner></org.jenkinsci.plugins.github__branch__source.GitHubSCMNavigator></navigators></folder>`)
}

func TestMarshalCredentialsID(t *testing.T) {
	doc, err := Parse([]byte(existingJob))
	assert.NilError(t, err)
	doc.CredentialsID = "ci-bot"
	out, err := doc.Marshal()
	assert.NilError(t, err)
	assert.Equal(t, string(out), strings.Replace(existingJob,
		"<credentialsId>fabric8</credentialsId>", "<credentialsId>ci-bot</credentialsId>", 1))

	src := `<folder><org.jenkinsci.plugins.github__branch__source.GitHubSCMNavigator><repoOwner>acme</repoOwner></org.jenkinsci.plugins.github__branch__source.GitHubSCMNavigator></folder>`
	doc, err = Parse([]byte(src))
	assert.NilError(t, err)
	assert.Equal(t, doc.CredentialsID, "")
	doc.CredentialsID = "ci-bot"
	out, err = doc.Marshal()
	assert.NilError(t, err)
	assert.Assert(t, is.Contains(string(out), "<repoOwner>acme</repoOwner><pattern></pattern><credentialsId>ci-bot</credentialsId></org.jenkinsci"))
}

func TestTemplate(t *testing.T) {
	doc, err := Template("")
	assert.NilError(t, err)
	assert.Equal(t, doc.RepoOwner, "")
	assert.Equal(t, doc.Pattern, "")

	doc.RepoOwner = "acme"
	doc.Pattern = CombinePattern(doc.Pattern, "demo")
	out, err := doc.Marshal()
	assert.NilError(t, err)
	assert.Assert(t, strings.HasPrefix(string(out), "<?xml version='1.1' encoding='UTF-8'?>"))
	assert.Assert(t, is.Contains(string(out), "<repoOwner>acme</repoOwner>"))
	assert.Assert(t, is.Contains(string(out), "<pattern>demo</pattern>"))
	assert.Assert(t, is.Contains(string(out), "<regex>.*</regex>"))
}

func TestTemplateFromFile(t *testing.T) {
	_, err := Template("/does/not/exist.xml")
	assert.ErrorContains(t, err, "cannot load job template")
}
