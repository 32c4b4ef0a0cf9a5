package params

import (
	"context"
	"os"

	"github.com/fabric8io/fabric8-generator/pkg/params/clients"
	"github.com/fabric8io/fabric8-generator/pkg/params/info"
	"github.com/fabric8io/fabric8-generator/pkg/params/settings"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

type Run struct {
	Clients clients.Clients
	Info    info.Info
}

func New() *Run {
	return &Run{
		Info: info.NewInfo(),
	}
}

// UpdateSettings reads the generator ConfigMap from namespace. A missing
// ConfigMap leaves the defaults in place.
func (r *Run) UpdateSettings(ctx context.Context, namespace string) error {
	cm, err := r.Clients.Kube.CoreV1().ConfigMaps(namespace).Get(ctx, settings.ConfigMapName, metav1.GetOptions{})
	if apierrors.IsNotFound(err) {
		r.Clients.Log.Debugf("no %s configmap in namespace %s, using defaults", settings.ConfigMapName, namespace)
		return nil
	}
	if err != nil {
		return err
	}
	_, err = r.Info.UpdateSettings(r.Clients.Log, cm.Data, os.Getenv)
	return err
}
