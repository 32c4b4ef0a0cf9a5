package info

import (
	"os"
	"sync"

	"github.com/fabric8io/fabric8-generator/pkg/params/settings"
	"go.uber.org/zap"
)

type Info struct {
	settingsMutex *sync.Mutex
	Settings      *settings.Settings
	Kube          *KubeOpts
}

func NewInfo() Info {
	s := settings.DefaultSettings()
	settings.ApplyEnv(&s, os.Getenv)
	return Info{
		settingsMutex: &sync.Mutex{},
		Settings:      &s,
		Kube:          &KubeOpts{},
	}
}

func (i *Info) GetSettings() settings.Settings {
	if i.settingsMutex == nil {
		i.settingsMutex = &sync.Mutex{}
	}
	i.settingsMutex.Lock()
	defer i.settingsMutex.Unlock()
	return *i.Settings
}

// UpdateSettings syncs the settings with the ConfigMap data. The legacy
// environment switches still win over the ConfigMap.
func (i *Info) UpdateSettings(logger *zap.SugaredLogger, configData map[string]string, getenv func(string) string) (*settings.Settings, error) {
	if i.settingsMutex == nil {
		i.settingsMutex = &sync.Mutex{}
	}
	i.settingsMutex.Lock()
	defer i.settingsMutex.Unlock()

	if i.Settings == nil {
		s := settings.DefaultSettings()
		i.Settings = &s
	}
	if err := settings.SyncConfig(logger, i.Settings, configData); err != nil {
		return nil, err
	}
	settings.ApplyEnv(i.Settings, getenv)
	return i.Settings, nil
}
