package cijob

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/fabric8io/fabric8-generator/pkg/httpinvoker"
	"github.com/tidwall/sjson"
	"go.uber.org/zap"
)

const (
	credentialClass = "com.cloudbees.plugins.credentials.impl.UsernamePasswordCredentialsImpl"
	contentTypeXML  = "text/xml"
	contentTypeForm = "application/x-www-form-urlencoded"
)

// JobPersistError is returned when the organization job could not be
// created or updated on the CI server.
type JobPersistError struct {
	Owner  string
	URL    string
	Create bool
	Err    error
}

func (e *JobPersistError) Error() string {
	verb := "update"
	if e.Create {
		verb = "create"
	}
	return fmt.Sprintf("failed to %s CI organization job %s at %s: %v", verb, e.Owner, e.URL, e.Err)
}

func (e *JobPersistError) Unwrap() error { return e.Err }

// CredentialError is returned when the CI credential used by organization
// jobs could not be created.
type CredentialError struct {
	ID  string
	URL string
	Err error
}

func (e *CredentialError) Error() string {
	return fmt.Sprintf("failed to create CI credential %s at %s: %v", e.ID, e.URL, e.Err)
}

func (e *CredentialError) Unwrap() error { return e.Err }

// Kicker starts a scan of a job right away.
type Kicker interface {
	TriggerJob(ctx context.Context, jobURL, token string) error
}

// CredentialSpec describes the username/password credential organization
// jobs use to talk to the git host.
type CredentialSpec struct {
	ID          string
	Username    string
	Password    string
	Description string
}

type Reconciler struct {
	Invoker      httpinvoker.Invoker
	Kicker       Kicker
	Logger       *zap.SugaredLogger
	TemplatePath string
}

func NewReconciler(invoker httpinvoker.Invoker, kicker Kicker, logger *zap.SugaredLogger) *Reconciler {
	return &Reconciler{Invoker: invoker, Kicker: kicker, Logger: logger}
}

// JobURL is where the organization job of owner lives on ciURL.
func JobURL(ciURL, owner string) string {
	return httpinvoker.JoinURL(ciURL, "job", owner)
}

// EnsureOrganizationJob makes sure the organization folder job for owner
// exists, scans with credentialID and that its pattern includes pattern. It
// returns the job URL.
func (r *Reconciler) EnsureOrganizationJob(ctx context.Context, ciURL, owner, pattern, credentialID, token string) (string, error) {
	jobURL := JobURL(ciURL, owner)
	configURL := httpinvoker.JoinURL(jobURL, "config.xml")

	doc := r.fetch(ctx, configURL, token)
	create := doc == nil
	if create {
		var err error
		if doc, err = Template(r.TemplatePath); err != nil {
			return "", err
		}
	}

	doc.RepoOwner = owner
	if credentialID != "" {
		doc.CredentialsID = credentialID
	}
	doc.Pattern = CombinePattern(doc.Pattern, pattern)
	body, err := doc.Marshal()
	if err != nil {
		return "", err
	}

	target := configURL
	if create {
		target = httpinvoker.JoinURL(ciURL, "createItem?name="+url.QueryEscape(owner))
	}
	header := httpinvoker.BearerHeader(token, contentTypeXML)
	if _, err := r.Invoker.Invoke(ctx, target, httpinvoker.Request(http.MethodPost, body, header)); err != nil {
		return "", &JobPersistError{Owner: owner, URL: target, Create: create, Err: err}
	}
	if create {
		r.Logger.Infof("created CI organization job %s with pattern %s", jobURL, doc.Pattern)
	} else {
		r.Logger.Infof("updated CI organization job %s with pattern %s", jobURL, doc.Pattern)
	}

	if r.Kicker != nil {
		if err := r.Kicker.TriggerJob(ctx, jobURL, token); err != nil {
			r.Logger.Warnf("could not trigger a scan of %s: %v", jobURL, err)
		}
	}
	return jobURL, nil
}

// fetch returns the current job configuration, or nil when there is none we
// can patch.
func (r *Reconciler) fetch(ctx context.Context, configURL, token string) *Document {
	resp, err := r.Invoker.Invoke(ctx, configURL,
		httpinvoker.Request(http.MethodGet, nil, httpinvoker.BearerHeader(token, "")))
	if err != nil {
		r.Logger.Infof("no existing CI job configuration at %s: %v", configURL, err)
		return nil
	}
	doc, err := Parse(resp.Body)
	if err != nil {
		r.Logger.Warnf("existing CI job configuration at %s cannot be reused: %v", configURL, err)
		return nil
	}
	return doc
}

// EnsureCredential creates the CI credential. A conflict means it is already
// there. The CI server answers a successful create with a redirect, which is
// not followed.
func (r *Reconciler) EnsureCredential(ctx context.Context, ciURL string, cred CredentialSpec, token string) error {
	target := httpinvoker.JoinURL(ciURL, "credentials/store/system/domain/_/createCredentials")
	payload, err := credentialJSON(cred)
	if err != nil {
		return &CredentialError{ID: cred.ID, URL: target, Err: err}
	}
	form := url.Values{"json": {payload}}.Encode()

	r.Logger.Infof("creating CI credential %s for user %s", cred.ID, cred.Username)
	_, err = r.Invoker.Invoke(httpinvoker.WithRedirectLimit(ctx, 0), target,
		httpinvoker.Request(http.MethodPost, []byte(form), httpinvoker.BearerHeader(token, contentTypeForm)))
	if err != nil {
		var rerr *httpinvoker.TooManyRedirectsError
		if errors.As(err, &rerr) && rerr.Followed == 0 {
			r.Logger.Infof("CI credential %s created", cred.ID)
			return nil
		}
		var serr *httpinvoker.UnexpectedStatusError
		if errors.As(err, &serr) && serr.StatusCode == http.StatusConflict {
			r.Logger.Infof("CI credential %s already exists", cred.ID)
			return nil
		}
		return &CredentialError{ID: cred.ID, URL: target, Err: err}
	}
	return nil
}

func credentialJSON(cred CredentialSpec) (string, error) {
	description := cred.Description
	if description == "" {
		description = cred.ID
	}
	payload := `{"":"0"}`
	var err error
	for _, kv := range []struct{ path, value string }{
		{"credentials.scope", "GLOBAL"},
		{"credentials.id", cred.ID},
		{"credentials.username", cred.Username},
		{"credentials.password", cred.Password},
		{"credentials.description", description},
		{"credentials.$class", credentialClass},
	} {
		if payload, err = sjson.Set(payload, kv.path, kv.value); err != nil {
			return "", err
		}
	}
	return payload, nil
}
