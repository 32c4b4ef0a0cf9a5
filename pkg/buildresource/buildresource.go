package buildresource

import (
	"context"
	"fmt"
	"maps"

	"github.com/tektoncd/pipeline/pkg/client/clientset/versioned"
	"go.uber.org/zap"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/dynamic"
)

const (
	SpaceLabel = "space"

	GeneratedByAnnotation = "jenkins.io/generated-by"
	JobPathAnnotation     = "jenkins.io/job-path"
	DisableSyncAnnotation = "jenkins.openshift.org/disable-sync-create-on"
	CheStackAnnotation    = "fabric8.io/che-stack"
	ChangeCauseAnnotation = "kubernetes.io/change-cause"

	jenkinsAnnotationValue = "jenkins"
	defaultJobPathBranch   = "master"
)

// Descriptor is the wanted state of a build resource.
type Descriptor struct {
	Namespace   string
	Name        string
	SourceURL   string
	Annotations map[string]string
	Labels      map[string]string
}

// OrganizationJobAnnotations marks a build resource as owned by the CI
// server's organization job so the CI sync does not create a second one.
func OrganizationJobAnnotations(owner, repo string) map[string]string {
	return map[string]string{
		GeneratedByAnnotation: jenkinsAnnotationValue,
		JobPathAnnotation:     owner + "/" + repo + "/" + defaultJobPathBranch,
		DisableSyncAnnotation: jenkinsAnnotationValue,
	}
}

// ClusterAPIError wraps a failed call to the cluster API.
type ClusterAPIError struct {
	Op        string
	Kind      string
	Namespace string
	Name      string
	Err       error
}

func (e *ClusterAPIError) Error() string {
	return fmt.Sprintf("failed to %s %s %s/%s: %v", e.Op, e.Kind, e.Namespace, e.Name, e.Err)
}

func (e *ClusterAPIError) Unwrap() error { return e.Err }

// Backend knows the shape of one kind of build resource and how to start a
// build from it.
type Backend interface {
	Kind() string
	Resource() schema.GroupVersionResource
	NewObject(d Descriptor) *unstructured.Unstructured
	SetSource(obj *unstructured.Unstructured, sourceURL string) error
	Instantiate(ctx context.Context, namespace, name string) (string, error)
}

type Reconciler struct {
	Dynamic dynamic.Interface
	Backend Backend
	Logger  *zap.SugaredLogger
}

func NewReconciler(dyn dynamic.Interface, backend Backend, logger *zap.SugaredLogger) *Reconciler {
	return &Reconciler{Dynamic: dyn, Backend: backend, Logger: logger}
}

// Reconcile creates the build resource described by d, or updates the
// existing one: annotations and labels are merged in and the source replaced.
func (r *Reconciler) Reconcile(ctx context.Context, d Descriptor) error {
	client := r.Dynamic.Resource(r.Backend.Resource()).Namespace(d.Namespace)
	apiErr := func(op string, err error) error {
		return &ClusterAPIError{Op: op, Kind: r.Backend.Kind(), Namespace: d.Namespace, Name: d.Name, Err: err}
	}

	existing, err := client.Get(ctx, d.Name, metav1.GetOptions{})
	if err != nil && !apierrors.IsNotFound(err) {
		return apiErr("get", err)
	}

	annotations := maps.Clone(d.Annotations)
	if annotations == nil {
		annotations = map[string]string{}
	}
	annotations[ChangeCauseAnnotation] = "from project " + d.Name

	if apierrors.IsNotFound(err) {
		obj := r.Backend.NewObject(d)
		obj.SetAnnotations(merge(obj.GetAnnotations(), annotations))
		obj.SetLabels(merge(obj.GetLabels(), d.Labels))
		if _, err := client.Create(ctx, obj, metav1.CreateOptions{}); err != nil {
			return apiErr("create", err)
		}
		r.Logger.Infof("created %s %s/%s", r.Backend.Kind(), d.Namespace, d.Name)
		return nil
	}

	existing.SetAnnotations(merge(existing.GetAnnotations(), annotations))
	existing.SetLabels(merge(existing.GetLabels(), d.Labels))
	if err := r.Backend.SetSource(existing, d.SourceURL); err != nil {
		return apiErr("update", err)
	}
	if _, err := client.Update(ctx, existing, metav1.UpdateOptions{}); err != nil {
		return apiErr("update", err)
	}
	r.Logger.Infof("updated %s %s/%s", r.Backend.Kind(), d.Namespace, d.Name)
	return nil
}

// Instantiate starts a build of namespace/name through the backend.
func (r *Reconciler) Instantiate(ctx context.Context, namespace, name string) (string, error) {
	return r.Backend.Instantiate(ctx, namespace, name)
}

func (r *Reconciler) Kind() string { return r.Backend.Kind() }

func merge(into, from map[string]string) map[string]string {
	if len(from) == 0 {
		return into
	}
	if into == nil {
		into = make(map[string]string, len(from))
	}
	maps.Copy(into, from)
	return into
}

const (
	OpenShiftBackend = "openshift"
	TektonBackend    = "tekton"
)

// NewBackend returns the backend registered under name.
func NewBackend(name string, dyn dynamic.Interface, tekton versioned.Interface, pipeline string) (Backend, error) {
	switch name {
	case OpenShiftBackend, "":
		return BuildConfig{Dynamic: dyn}, nil
	case TektonBackend:
		if tekton == nil {
			return nil, fmt.Errorf("the %s build backend needs a tekton client", name)
		}
		return TektonRepository{Dynamic: dyn, Tekton: tekton, Pipeline: pipeline}, nil
	default:
		return nil, fmt.Errorf("unknown build backend %q", name)
	}
}
