package git

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fabric8io/fabric8-generator/pkg/provider"
	gogit "github.com/go-git/go-git/v5"
	gogitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	gogithttp "github.com/go-git/go-git/v5/plumbing/transport/http"
)

const (
	remoteName           = "origin"
	DefaultCommitMessage = "Initial import"
	defaultAuthorName    = "fabric8"
	defaultAuthorEmail   = "fabric8-admin@googlegroups.com"
)

type Author struct {
	Name  string
	Email string
}

// PushError is returned when the initial commit could not be pushed.
type PushError struct {
	Remote string
	Err    error
}

func (e *PushError) Error() string {
	return fmt.Sprintf("cannot push the initial commit to %s: %v", e.Remote, e.Err)
}

func (e *PushError) Unwrap() error { return e.Err }

// TokenAuth authenticates over https with the account token as password.
func TokenAuth(account provider.Account) transport.AuthMethod {
	if account.Token == "" {
		return nil
	}
	username := account.Username
	if username == "" {
		username = provider.DefaultProviderAPIUser
	}
	return &gogithttp.BasicAuth{Username: username, Password: account.Token}
}

// PushInitialCommit turns dir into a git repository if it is not one yet,
// commits everything in it and pushes the current branch to remoteURL. A
// clean tree that already has commits is pushed as it is. It returns the
// pushed commit.
func PushInitialCommit(ctx context.Context, dir, remoteURL string, auth transport.AuthMethod, author Author) (string, error) {
	repo, err := gogit.PlainInit(dir, false)
	if errors.Is(err, gogit.ErrRepositoryAlreadyExists) {
		repo, err = gogit.PlainOpen(dir)
	}
	if err != nil {
		return "", fmt.Errorf("opening repository at %s: %w", dir, err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("getting worktree: %w", err)
	}
	if err := wt.AddWithOptions(&gogit.AddOptions{All: true}); err != nil {
		return "", fmt.Errorf("adding files of %s: %w", dir, err)
	}

	hash, err := commitAll(repo, wt, author)
	if err != nil {
		return "", fmt.Errorf("committing %s: %w", dir, err)
	}

	if err := ensureRemoteURL(repo, remoteURL); err != nil {
		return "", err
	}

	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("resolving HEAD: %w", err)
	}
	refSpec := gogitconfig.RefSpec(fmt.Sprintf("%[1]s:%[1]s", head.Name()))
	err = repo.PushContext(ctx, &gogit.PushOptions{
		RemoteName: remoteName,
		Auth:       auth,
		RefSpecs:   []gogitconfig.RefSpec{refSpec},
	})
	if err != nil && !errors.Is(err, gogit.NoErrAlreadyUpToDate) {
		return "", &PushError{Remote: remoteURL, Err: err}
	}
	return hash.String(), nil
}

func commitAll(repo *gogit.Repository, wt *gogit.Worktree, author Author) (plumbing.Hash, error) {
	status, err := wt.Status()
	if err != nil {
		return plumbing.ZeroHash, err
	}
	if head, err := repo.Head(); err == nil && status.IsClean() {
		return head.Hash(), nil
	}

	if author.Name == "" {
		author.Name = defaultAuthorName
	}
	if author.Email == "" {
		author.Email = defaultAuthorEmail
	}
	return wt.Commit(DefaultCommitMessage, &gogit.CommitOptions{
		Author: &object.Signature{Name: author.Name, Email: author.Email, When: time.Now()},
	})
}

// ensureRemoteURL points origin at url, creating it when missing.
func ensureRemoteURL(repo *gogit.Repository, url string) error {
	remote, err := repo.Remote(remoteName)
	switch {
	case errors.Is(err, gogit.ErrRemoteNotFound):
	case err != nil:
		return fmt.Errorf("getting %s remote: %w", remoteName, err)
	default:
		if urls := remote.Config().URLs; len(urls) > 0 && urls[0] == url {
			return nil
		}
		if err := repo.DeleteRemote(remoteName); err != nil {
			return fmt.Errorf("deleting %s remote: %w", remoteName, err)
		}
	}
	if _, err := repo.CreateRemote(&gogitconfig.RemoteConfig{
		Name: remoteName,
		URLs: []string{url},
	}); err != nil {
		return fmt.Errorf("creating %s remote: %w", remoteName, err)
	}
	return nil
}
