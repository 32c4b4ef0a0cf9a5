package buildresource

import (
	"context"
	"fmt"

	"github.com/fabric8io/fabric8-generator/pkg/random"
	tektonv1 "github.com/tektoncd/pipeline/pkg/apis/pipeline/v1"
	"github.com/tektoncd/pipeline/pkg/client/clientset/versioned"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/dynamic"
)

const (
	repositoryGroup    = "pipelinesascode.tekton.dev"
	repositoryVersion  = "v1alpha1"
	repositoryResource = "repositories"
	repositoryLabel    = repositoryGroup + "/repository"
	repoURLParam       = "repo_url"
	DefaultPipeline    = "fabric8-pipeline"
)

var repositoryGVR = schema.GroupVersionResource{
	Group: repositoryGroup, Version: repositoryVersion, Resource: repositoryResource,
}

// TektonRepository is the Tekton backend: a Repository custom resource
// pointing at the git URL. Builds are PipelineRuns of Pipeline.
type TektonRepository struct {
	Dynamic  dynamic.Interface
	Tekton   versioned.Interface
	Pipeline string
}

func (TektonRepository) Kind() string { return "Tekton Repository" }

func (TektonRepository) Resource() schema.GroupVersionResource { return repositoryGVR }

func (TektonRepository) NewObject(d Descriptor) *unstructured.Unstructured {
	obj := &unstructured.Unstructured{Object: map[string]any{
		"apiVersion": repositoryGroup + "/" + repositoryVersion,
		"kind":       "Repository",
		"spec": map[string]any{
			"url": d.SourceURL,
		},
	}}
	obj.SetName(d.Name)
	obj.SetNamespace(d.Namespace)
	return obj
}

func (TektonRepository) SetSource(obj *unstructured.Unstructured, sourceURL string) error {
	return unstructured.SetNestedField(obj.Object, sourceURL, "spec", "url")
}

func (t TektonRepository) Instantiate(ctx context.Context, namespace, name string) (string, error) {
	repo, err := t.Dynamic.Resource(repositoryGVR).Namespace(namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return "", err
	}
	url, found, err := unstructured.NestedString(repo.Object, "spec", "url")
	if err != nil {
		return "", err
	}
	if !found || url == "" {
		return "", fmt.Errorf("repository %s/%s has no spec.url", namespace, name)
	}

	pipeline := t.Pipeline
	if pipeline == "" {
		pipeline = DefaultPipeline
	}
	pr := &tektonv1.PipelineRun{
		ObjectMeta: metav1.ObjectMeta{
			Name:      fmt.Sprintf("%s-%s", name, random.NameSuffix(5)),
			Namespace: namespace,
			Labels:    map[string]string{repositoryLabel: name},
			Annotations: map[string]string{
				ChangeCauseAnnotation: manualTriggerMessage,
			},
		},
		Spec: tektonv1.PipelineRunSpec{
			PipelineRef: &tektonv1.PipelineRef{Name: pipeline},
			Params: tektonv1.Params{
				{Name: repoURLParam, Value: *tektonv1.NewStructuredValues(url)},
			},
		},
	}
	created, err := t.Tekton.TektonV1().PipelineRuns(namespace).Create(ctx, pr, metav1.CreateOptions{})
	if err != nil {
		return "", err
	}
	return created.GetName(), nil
}
