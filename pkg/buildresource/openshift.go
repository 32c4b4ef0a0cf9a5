package buildresource

import (
	"context"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/dynamic"
)

const (
	openShiftBuildGroup   = "build.openshift.io"
	openShiftBuildVersion = "v1"
	buildConfigResource   = "buildconfigs"
	instantiateSubresouce = "instantiate"
	manualTriggerMessage  = "Manually triggered"
	defaultJenkinsfile    = "Jenkinsfile"
)

var buildConfigGVR = schema.GroupVersionResource{
	Group: openShiftBuildGroup, Version: openShiftBuildVersion, Resource: buildConfigResource,
}

// BuildConfig is the OpenShift backend: a BuildConfig with a Jenkins
// pipeline strategy, started through its instantiate subresource.
type BuildConfig struct {
	Dynamic dynamic.Interface
}

func (BuildConfig) Kind() string { return "OpenShift BuildConfig" }

func (BuildConfig) Resource() schema.GroupVersionResource { return buildConfigGVR }

func (BuildConfig) NewObject(d Descriptor) *unstructured.Unstructured {
	obj := &unstructured.Unstructured{Object: map[string]any{
		"apiVersion": openShiftBuildGroup + "/" + openShiftBuildVersion,
		"kind":       "BuildConfig",
		"spec": map[string]any{
			"runPolicy": "Serial",
			"source": map[string]any{
				"type": "Git",
				"git":  map[string]any{"uri": d.SourceURL},
			},
			"strategy": map[string]any{
				"type": "JenkinsPipeline",
				"jenkinsPipelineStrategy": map[string]any{
					"jenkinsfilePath": defaultJenkinsfile,
				},
			},
		},
	}}
	obj.SetName(d.Name)
	obj.SetNamespace(d.Namespace)
	return obj
}

func (BuildConfig) SetSource(obj *unstructured.Unstructured, sourceURL string) error {
	if err := unstructured.SetNestedField(obj.Object, "Git", "spec", "source", "type"); err != nil {
		return err
	}
	return unstructured.SetNestedField(obj.Object, sourceURL, "spec", "source", "git", "uri")
}

func (b BuildConfig) Instantiate(ctx context.Context, namespace, name string) (string, error) {
	request := &unstructured.Unstructured{Object: map[string]any{
		"apiVersion": openShiftBuildGroup + "/" + openShiftBuildVersion,
		"kind":       "BuildRequest",
		"triggeredBy": []any{
			map[string]any{"message": manualTriggerMessage},
		},
	}}
	request.SetName(name)
	build, err := b.Dynamic.Resource(buildConfigGVR).Namespace(namespace).
		Create(ctx, request, metav1.CreateOptions{}, instantiateSubresouce)
	if err != nil {
		return "", err
	}
	if build == nil {
		return "", nil
	}
	return build.GetName(), nil
}
