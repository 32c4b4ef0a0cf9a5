package buildtrigger

import (
	"context"
	"net/http"

	"github.com/fabric8io/fabric8-generator/pkg/httpinvoker"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// JobTrigger starts a CI server job unless its last build is still running.
type JobTrigger struct {
	Invoker httpinvoker.Invoker
	Logger  *zap.SugaredLogger
}

func NewJobTrigger(invoker httpinvoker.Invoker, logger *zap.SugaredLogger) *JobTrigger {
	return &JobTrigger{Invoker: invoker, Logger: logger}
}

func (j *JobTrigger) TriggerJob(ctx context.Context, jobURL, token string) error {
	if j.building(ctx, jobURL, token) {
		j.Logger.Infof("last build of %s is still running, not triggering another one", jobURL)
		return nil
	}
	triggerURL := httpinvoker.JoinURL(jobURL, "build?delay=0")
	resp, err := j.Invoker.Invoke(ctx, triggerURL,
		httpinvoker.Request(http.MethodPost, nil, httpinvoker.BearerHeader(token, "")))
	if err != nil {
		return err
	}
	j.Logger.Infof("triggered %s: %s", triggerURL, resp.Status)
	return nil
}

// building reports whether lastBuild says a build is in progress. A job that
// never ran, or a status we cannot read, counts as not building.
func (j *JobTrigger) building(ctx context.Context, jobURL, token string) bool {
	lastBuild := httpinvoker.JoinURL(jobURL, "lastBuild/api/json")
	resp, err := j.Invoker.Invoke(ctx, lastBuild,
		httpinvoker.Request(http.MethodGet, nil, httpinvoker.BearerHeader(token, "")))
	if err != nil {
		if httpinvoker.StatusCode(err) != http.StatusNotFound {
			j.Logger.Warnf("cannot read %s: %v", lastBuild, err)
		}
		return false
	}
	if !gjson.ValidBytes(resp.Body) {
		j.Logger.Warnf("%s did not return JSON", lastBuild)
		return false
	}
	return gjson.GetBytes(resp.Body, "building").Type == gjson.True
}
