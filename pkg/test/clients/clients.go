package clients

import (
	"context"
	"testing"

	fakepipelineclientset "github.com/tektoncd/pipeline/pkg/client/clientset/versioned/fake"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	dynamicfake "k8s.io/client-go/dynamic/fake"
	fakekubeclientset "k8s.io/client-go/kubernetes/fake"
)

// ListKinds are the custom resources the fake dynamic client knows how to
// list.
var ListKinds = map[schema.GroupVersionResource]string{
	{Group: "route.openshift.io", Version: "v1", Resource: "routes"}:                     "RouteList",
	{Group: "build.openshift.io", Version: "v1", Resource: "buildconfigs"}:               "BuildConfigList",
	{Group: "pipelinesascode.tekton.dev", Version: "v1alpha1", Resource: "repositories"}: "RepositoryList",
}

type Clients struct {
	Kube     *fakekubeclientset.Clientset
	Dynamic  *dynamicfake.FakeDynamicClient
	Pipeline *fakepipelineclientset.Clientset
}

type Data struct {
	Namespaces []*corev1.Namespace
	Secrets    []*corev1.Secret
	Services   []*corev1.Service
	ConfigMaps []*corev1.ConfigMap
	// Objects seed the dynamic client, routes and build configs.
	Objects []*unstructured.Unstructured
}

// SeedTestData returns Clients populated with the given Data.
// nolint: revive
func SeedTestData(t *testing.T, ctx context.Context, d Data) Clients {
	t.Helper()
	dynObjects := make([]runtime.Object, 0, len(d.Objects))
	for _, o := range d.Objects {
		dynObjects = append(dynObjects, o)
	}
	c := Clients{
		Kube:     fakekubeclientset.NewSimpleClientset(),
		Dynamic:  dynamicfake.NewSimpleDynamicClientWithCustomListKinds(runtime.NewScheme(), ListKinds, dynObjects...),
		Pipeline: fakepipelineclientset.NewSimpleClientset(),
	}

	for _, ns := range d.Namespaces {
		if _, err := c.Kube.CoreV1().Namespaces().Create(ctx, ns, metav1.CreateOptions{}); err != nil {
			t.Fatal(err)
		}
	}
	for _, s := range d.Secrets {
		if _, err := c.Kube.CoreV1().Secrets(s.Namespace).Create(ctx, s, metav1.CreateOptions{}); err != nil {
			t.Fatal(err)
		}
	}
	for _, s := range d.Services {
		if _, err := c.Kube.CoreV1().Services(s.Namespace).Create(ctx, s, metav1.CreateOptions{}); err != nil {
			t.Fatal(err)
		}
	}
	for _, cm := range d.ConfigMaps {
		if _, err := c.Kube.CoreV1().ConfigMaps(cm.Namespace).Create(ctx, cm, metav1.CreateOptions{}); err != nil {
			t.Fatal(err)
		}
	}

	c.Kube.ClearActions()
	return c
}

// Route returns an OpenShift route exposing host, over TLS when tls is set.
func Route(namespace, name, host string, tls bool) *unstructured.Unstructured {
	spec := map[string]any{"host": host}
	if tls {
		spec["tls"] = map[string]any{"termination": "edge"}
	}
	route := &unstructured.Unstructured{Object: map[string]any{
		"apiVersion": "route.openshift.io/v1",
		"kind":       "Route",
		"spec":       spec,
	}}
	route.SetNamespace(namespace)
	route.SetName(name)
	return route
}
