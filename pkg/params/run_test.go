package params

import (
	"context"
	"testing"

	"github.com/fabric8io/fabric8-generator/pkg/params/clients"
	"github.com/fabric8io/fabric8-generator/pkg/params/settings"
	testclient "github.com/fabric8io/fabric8-generator/pkg/test/clients"
	"github.com/fabric8io/fabric8-generator/pkg/test/logger"
	"gotest.tools/v3/assert"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

func TestUpdateSettings(t *testing.T) {
	t.Setenv(settings.OnPremiseEnv, "")
	tests := []struct {
		name        string
		configMaps  []*corev1.ConfigMap
		wantService string
		wantErr     string
	}{
		{
			name:        "no configmap",
			wantService: "jenkins",
		},
		{
			name: "configmap",
			configMaps: []*corev1.ConfigMap{{
				ObjectMeta: metav1.ObjectMeta{Namespace: "fabric8", Name: settings.ConfigMapName},
				Data:       map[string]string{settings.CIServiceNameKey: "ci"},
			}},
			wantService: "ci",
		},
		{
			name: "invalid configmap",
			configMaps: []*corev1.ConfigMap{{
				ObjectMeta: metav1.ObjectMeta{Namespace: "fabric8", Name: settings.ConfigMapName},
				Data:       map[string]string{settings.BuildBackendKey: "make"},
			}},
			wantErr: "BuildBackend",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			cs := testclient.SeedTestData(t, ctx, testclient.Data{ConfigMaps: tt.configMaps})
			log, _ := logger.GetLogger()
			run := New()
			run.Clients = clients.Clients{Kube: cs.Kube, Log: log}

			err := run.UpdateSettings(ctx, "fabric8")
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			assert.NilError(t, err)
			assert.Equal(t, run.Info.GetSettings().CIServiceName, tt.wantService)
		})
	}
}
