package settings

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fabric8io/fabric8-generator/pkg/configutil"
	"go.uber.org/zap"
)

const (
	// ConfigMapName is the ConfigMap read in the generator namespace.
	ConfigMapName = "fabric8-generator-config"
	// OnPremiseEnv selects the on-premise mode when set to true.
	OnPremiseEnv = "ON_PREMISE"

	DeploymentModeKey    = "deployment-mode"
	BuildBackendKey      = "build-backend"
	JobTemplateFileKey   = "job-template-file"
	CIServiceNameKey     = "ci-service-name"
	BotServiceAccountKey = "bot-service-account"
)

type DeploymentMode string

const (
	SaaS      DeploymentMode = "saas"
	OnPremise DeploymentMode = "on-premise"
)

type Settings struct {
	DeploymentMode    string `default:"saas"      json:"deployment-mode"`
	CIServiceName     string `default:"jenkins"   json:"ci-service-name"`
	CIURLScheme       string `default:"https"     json:"ci-url-scheme"`
	BotServiceAccount string `default:"cd-bot"    json:"bot-service-account"`
	DefaultBotSecret  string `default:"secret101" json:"default-bot-secret"`
	CICredentialID    string `default:"fabric8"   json:"ci-credential-id"`

	MaxRedirects    int           `default:"1"     json:"max-redirects"`
	RequestAttempts int           `default:"2"     json:"request-attempts"`
	RequestBackoff  time.Duration `default:"250ms" json:"request-backoff"`

	BuildTriggerAttempts int           `default:"5"     json:"build-trigger-attempts"`
	BuildTriggerDelay    time.Duration `default:"500ms" json:"build-trigger-delay"`

	BuildBackend    string `default:"openshift"        json:"build-backend"`
	PipelineName    string `default:"fabric8-pipeline" json:"pipeline-name"`
	JobTemplateFile string `json:"job-template-file"`
}

// Mode returns the deployment mode as a typed value.
func (s Settings) Mode() DeploymentMode {
	return DeploymentMode(s.DeploymentMode)
}

func oneOf(values ...string) func(string) error {
	return func(v string) error {
		for _, allowed := range values {
			if v == allowed {
				return nil
			}
		}
		return fmt.Errorf("%q is not one of %s", v, strings.Join(values, ", "))
	}
}

func atLeast(limit int) func(string) error {
	return func(v string) error {
		i, err := strconv.Atoi(v)
		if err != nil {
			// reported by the int conversion
			return nil
		}
		if i < limit {
			return fmt.Errorf("%d is lower than %d", i, limit)
		}
		return nil
	}
}

func validators() map[string]func(string) error {
	return map[string]func(string) error{
		"DeploymentMode":       oneOf(string(SaaS), string(OnPremise)),
		"CIURLScheme":          oneOf("http", "https"),
		"BuildBackend":         oneOf("openshift", "tekton"),
		"MaxRedirects":         atLeast(0),
		"RequestAttempts":      atLeast(1),
		"BuildTriggerAttempts": atLeast(1),
	}
}

// DefaultSettings returns the settings used when no ConfigMap exists.
func DefaultSettings() Settings {
	s := Settings{}
	_ = configutil.ValidateAndAssignValues(zap.NewNop().Sugar(), map[string]string{}, &s, nil, false)
	return s
}

// SyncConfig fills settings from the ConfigMap data; missing keys take
// their defaults.
func SyncConfig(logger *zap.SugaredLogger, settings *Settings, config map[string]string) error {
	if err := configutil.ValidateAndAssignValues(logger, config, settings, validators(), true); err != nil {
		return fmt.Errorf("failed to validate %s: %w", ConfigMapName, err)
	}
	return nil
}

// ApplyEnv honours the legacy environment switches, getenv is os.Getenv
// outside of tests.
func ApplyEnv(settings *Settings, getenv func(string) string) {
	if on, err := strconv.ParseBool(getenv(OnPremiseEnv)); err == nil && on {
		settings.DeploymentMode = string(OnPremise)
	}
}
