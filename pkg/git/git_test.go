package git

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/fabric8io/fabric8-generator/pkg/provider"
	gogit "github.com/go-git/go-git/v5"
	gogitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	gogithttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Jenkinsfile"), []byte("node {}\n"), 0o600))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "src"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "main.go"), []byte("package main\n"), 0o600))
	return dir
}

func newBareRemote(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git is needed for the local file transport")
	}
	dir := t.TempDir()
	_, err := gogit.PlainInit(dir, true)
	require.NoError(t, err)
	return dir
}

func TestPushInitialCommit(t *testing.T) {
	project := newProject(t)
	remote := newBareRemote(t)

	sha, err := PushInitialCommit(context.Background(), project, remote, nil, Author{Name: "Dev", Email: "dev@example.com"})
	require.NoError(t, err)
	assert.True(t, plumbing.IsHash(sha))

	bare, err := gogit.PlainOpen(remote)
	require.NoError(t, err)
	ref, err := bare.Reference(plumbing.NewBranchReferenceName("master"), true)
	require.NoError(t, err)
	assert.Equal(t, sha, ref.Hash().String())

	commit, err := bare.CommitObject(ref.Hash())
	require.NoError(t, err)
	assert.Equal(t, DefaultCommitMessage, commit.Message)
	assert.Equal(t, "Dev", commit.Author.Name)
	files, err := commit.Files()
	require.NoError(t, err)
	names := []string{}
	require.NoError(t, files.ForEach(func(f *object.File) error {
		names = append(names, f.Name)
		return nil
	}))
	assert.ElementsMatch(t, []string{"Jenkinsfile", "src/main.go"}, names)
}

func TestPushInitialCommitExistingRepository(t *testing.T) {
	project := newProject(t)
	remote := newBareRemote(t)
	repo, err := gogit.PlainInit(project, false)
	require.NoError(t, err)
	_, err = repo.CreateRemote(&gogitconfig.RemoteConfig{Name: "origin", URLs: []string{"https://stale.example.com/x.git"}})
	require.NoError(t, err)

	_, err = PushInitialCommit(context.Background(), project, remote, nil, Author{})
	require.NoError(t, err)

	origin, err := repo.Remote("origin")
	require.NoError(t, err)
	assert.Equal(t, []string{remote}, origin.Config().URLs)

	head, err := repo.Head()
	require.NoError(t, err)
	commit, err := repo.CommitObject(head.Hash())
	require.NoError(t, err)
	assert.Equal(t, defaultAuthorName, commit.Author.Name)
}

func TestPushInitialCommitRerun(t *testing.T) {
	project := newProject(t)
	remote := newBareRemote(t)

	first, err := PushInitialCommit(context.Background(), project, remote, nil, Author{})
	require.NoError(t, err)
	second, err := PushInitialCommit(context.Background(), project, remote, nil, Author{})
	require.NoError(t, err)
	assert.Equal(t, first, second)

	repo, err := gogit.PlainOpen(project)
	require.NoError(t, err)
	log, err := repo.Log(&gogit.LogOptions{})
	require.NoError(t, err)
	commits := 0
	require.NoError(t, log.ForEach(func(*object.Commit) error {
		commits++
		return nil
	}))
	assert.Equal(t, 1, commits)
}

func TestPushInitialCommitUnreachableRemote(t *testing.T) {
	project := newProject(t)

	_, err := PushInitialCommit(context.Background(), project, filepath.Join(t.TempDir(), "missing"), nil, Author{})
	var perr *PushError
	require.True(t, errors.As(err, &perr))
	assert.Contains(t, err.Error(), "cannot push the initial commit")
}

func TestTokenAuth(t *testing.T) {
	assert.Nil(t, TokenAuth(provider.Account{Username: "dev"}))
	assert.Equal(t, &gogithttp.BasicAuth{Username: "dev", Password: "tok"}, TokenAuth(provider.Account{Username: "dev", Token: "tok"}))
	assert.Equal(t, &gogithttp.BasicAuth{Username: "git", Password: "tok"}, TokenAuth(provider.Account{Token: "tok"}))
}
