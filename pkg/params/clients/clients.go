package clients

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/fabric8io/fabric8-generator/pkg/params/info"
	"github.com/pkg/errors"
	"github.com/tektoncd/pipeline/pkg/client/clientset/versioned"
	"go.uber.org/zap"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

const (
	// most programming languages  do not have a timeout, but c# does a default
	// of 100 seconds so using that value.
	ConnectMaxWaitTime = 100 * time.Second
	RequestMaxWaitTime = 100 * time.Second
)

type Clients struct {
	ClientInitialized bool
	Tekton            versioned.Interface
	Kube              kubernetes.Interface
	HTTP              http.Client
	Log               *zap.SugaredLogger
	Dynamic           dynamic.Interface
}

// Set kube client based on config.
func (c *Clients) kubeClient(config *rest.Config) (kubernetes.Interface, error) {
	k8scs, err := kubernetes.NewForConfig(config)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create k8s client from config")
	}

	return k8scs, nil
}

func (c *Clients) dynamicClient(config *rest.Config) (dynamic.Interface, error) {
	dynamicClient, err := dynamic.NewForConfig(config)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create dynamic client from config")
	}
	return dynamicClient, err
}

func (c *Clients) kubeConfig(info *info.Info) (*rest.Config, error) {
	loadingRules := clientcmd.NewDefaultClientConfigLoadingRules()
	if info.Kube.ConfigPath != "" {
		loadingRules.ExplicitPath = info.Kube.ConfigPath
	}
	configOverrides := &clientcmd.ConfigOverrides{}
	if info.Kube.Context != "" {
		configOverrides.CurrentContext = info.Kube.Context
	}
	kubeConfig := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(loadingRules, configOverrides)
	if info.Kube.Namespace == "" {
		namespace, _, err := kubeConfig.Namespace()
		if err != nil {
			return nil, errors.Wrap(err, "Couldn't get kubeConfiguration namespace")
		}
		info.Kube.Namespace = namespace
	}
	config, err := kubeConfig.ClientConfig()
	if err != nil {
		return nil, errors.Wrap(err, "Parsing kubeconfig failed")
	}
	return config, nil
}

func (c *Clients) tektonClient(config *rest.Config) (versioned.Interface, error) {
	cs, err := versioned.NewForConfig(config)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create tekton client from config")
	}
	return cs, nil
}

// NewClients builds the logger, the HTTP client used for the CI server and
// git hosts, and the cluster clients from the kubeconfig.
func (c *Clients) NewClients(_ context.Context, info *info.Info) error {
	if c.ClientInitialized {
		return nil
	}
	prod, _ := zap.NewProduction()
	logger := prod.Sugar()
	defer func() {
		_ = logger.Sync() // flushes buffer, if any
	}()
	c.Log = logger

	c.HTTP = http.Client{
		Timeout: RequestMaxWaitTime,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout: ConnectMaxWaitTime,
			}).DialContext,
		},
	}
	config, err := c.kubeConfig(info)
	if err != nil {
		return err
	}
	config.QPS = 50
	config.Burst = 50

	c.Kube, err = c.kubeClient(config)
	if err != nil {
		return err
	}
	c.Tekton, err = c.tektonClient(config)
	if err != nil {
		return err
	}
	c.Dynamic, err = c.dynamicClient(config)
	if err != nil {
		return err
	}
	c.ClientInitialized = true

	return nil
}
