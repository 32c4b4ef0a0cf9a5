package metrics

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/fabric8io/fabric8-generator"

const (
	ProvisionRunsName     = "provision_runs_total"
	ProvisionWarningsName = "provision_warnings_total"
	CIRequestsName        = "ci_requests_total"
)

// outcomes of a request to the CI server
const (
	OutcomeSuccess        = "success"
	OutcomeRedirect       = "redirect"
	OutcomeFailure        = "failure"
	OutcomeTransportError = "transport-error"
)

// Recorder counts provisioning runs, their warnings and the requests sent
// to the CI server.
type Recorder struct {
	runs       metric.Int64Counter
	warnings   metric.Int64Counter
	ciRequests metric.Int64Counter
}

// NewRecorder registers the counters on provider, or on the global meter
// provider when nil.
func NewRecorder(provider metric.MeterProvider) (*Recorder, error) {
	if provider == nil {
		provider = otel.GetMeterProvider()
	}
	meter := provider.Meter(meterName)

	runs, err := meter.Int64Counter(ProvisionRunsName,
		metric.WithDescription("number of provisioning runs by result"))
	if err != nil {
		return nil, err
	}
	warnings, err := meter.Int64Counter(ProvisionWarningsName,
		metric.WithDescription("number of warnings raised by provisioning runs by stage"))
	if err != nil {
		return nil, err
	}
	ciRequests, err := meter.Int64Counter(CIRequestsName,
		metric.WithDescription("number of HTTP requests sent to the CI server by outcome"))
	if err != nil {
		return nil, err
	}
	return &Recorder{runs: runs, warnings: warnings, ciRequests: ciRequests}, nil
}

func (r *Recorder) RunFinished(ctx context.Context, result string) {
	if r == nil {
		return
	}
	r.runs.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

func (r *Recorder) Warning(ctx context.Context, stage string) {
	if r == nil {
		return
	}
	r.warnings.Add(ctx, 1, metric.WithAttributes(attribute.String("stage", stage)))
}

// ObserveRequest records one physical request to the CI server.
func (r *Recorder) ObserveRequest(ctx context.Context, statusCode int, err error) {
	if r == nil {
		return
	}
	r.ciRequests.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome(statusCode, err))))
}

func outcome(statusCode int, err error) string {
	switch {
	case statusCode == 0 || err != nil:
		return OutcomeTransportError
	case statusCode == http.StatusFound:
		return OutcomeRedirect
	case statusCode >= 200 && statusCode < 300:
		return OutcomeSuccess
	default:
		return OutcomeFailure
	}
}
