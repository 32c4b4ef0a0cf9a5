package kubeinteraction

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes"
)

const (
	openShiftRouteGroup    = "route.openshift.io"
	openShiftRouteVersion  = "v1"
	openShiftRouteResource = "routes"

	// ExposeURLAnnotation is set by the exposecontroller on services it exposed.
	ExposeURLAnnotation = "fabric8.io/exposeUrl"

	botTokenKey = "token"
)

var routeGVR = schema.GroupVersionResource{
	Group: openShiftRouteGroup, Version: openShiftRouteVersion, Resource: openShiftRouteResource,
}

// Interface is what provisioning needs from the cluster besides build
// resources.
type Interface interface {
	ResolveServiceURL(ctx context.Context, namespace, service, scheme string) (string, error)
	FindBotSecret(ctx context.Context, namespace, serviceAccount string) (string, error)
	HasService(ctx context.Context, namespace, service string) (bool, error)
}

type Interaction struct {
	Kube    kubernetes.Interface
	Dynamic dynamic.Interface
	Logger  *zap.SugaredLogger
}

var _ Interface = (*Interaction)(nil)

func NewKubernetesInteraction(kube kubernetes.Interface, dyn dynamic.Interface, logger *zap.SugaredLogger) *Interaction {
	return &Interaction{Kube: kube, Dynamic: dyn, Logger: logger}
}

// ResolveServiceURL returns the externally reachable URL of a service. An
// OpenShift route named after the service wins, then the exposeUrl
// annotation, then the service cluster IP and first port.
func (k *Interaction) ResolveServiceURL(ctx context.Context, namespace, service, scheme string) (string, error) {
	if k.Dynamic != nil {
		route, err := k.Dynamic.Resource(routeGVR).Namespace(namespace).Get(ctx, service, metav1.GetOptions{})
		switch {
		case err == nil:
			if host, found, _ := unstructured.NestedString(route.Object, "spec", "host"); found && host != "" {
				routeScheme := "http"
				if _, tls, _ := unstructured.NestedMap(route.Object, "spec", "tls"); tls {
					routeScheme = "https"
				}
				return fmt.Sprintf("%s://%s", routeScheme, host), nil
			}
		case !apierrors.IsNotFound(err):
			// no route API on plain kubernetes
			k.Logger.Debugf("cannot lookup route %s/%s: %v", namespace, service, err)
		}
	}

	svc, err := k.Kube.CoreV1().Services(namespace).Get(ctx, service, metav1.GetOptions{})
	if err != nil {
		return "", fmt.Errorf("cannot find service %s in namespace %s: %w", service, namespace, err)
	}
	if u := svc.GetAnnotations()[ExposeURLAnnotation]; u != "" {
		return strings.TrimSuffix(u, "/"), nil
	}
	if svc.Spec.ClusterIP == "" || svc.Spec.ClusterIP == corev1.ClusterIPNone || len(svc.Spec.Ports) == 0 {
		return "", fmt.Errorf("service %s/%s is not exposed and has no cluster address", namespace, service)
	}
	return fmt.Sprintf("%s://%s:%d", scheme, svc.Spec.ClusterIP, svc.Spec.Ports[0].Port), nil
}

// FindBotSecret returns the token of the first service account token secret
// of serviceAccount. An empty string and no error means there is none.
func (k *Interaction) FindBotSecret(ctx context.Context, namespace, serviceAccount string) (string, error) {
	secrets, err := k.Kube.CoreV1().Secrets(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return "", fmt.Errorf("cannot list secrets in namespace %s: %w", namespace, err)
	}
	prefix := serviceAccount + "-token-"
	for _, secret := range secrets.Items {
		if !strings.HasPrefix(secret.GetName(), prefix) {
			continue
		}
		if token := string(secret.Data[botTokenKey]); token != "" {
			return token, nil
		}
	}
	return "", nil
}

func (k *Interaction) HasService(ctx context.Context, namespace, service string) (bool, error) {
	_, err := k.Kube.CoreV1().Services(namespace).Get(ctx, service, metav1.GetOptions{})
	if apierrors.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// FoundServices returns the names among services that exist in namespace.
// Lookup errors are logged and the service treated as absent.
func FoundServices(ctx context.Context, k Interface, logger *zap.SugaredLogger, namespace string, services []string) []string {
	found := []string{}
	for _, svc := range services {
		ok, err := k.HasService(ctx, namespace, svc)
		if err != nil {
			logger.Warnf("cannot check for service %s in namespace %s: %v", svc, namespace, err)
			continue
		}
		if ok {
			found = append(found, svc)
		}
	}
	return found
}
