package providers

import (
	"github.com/samber/do/v2"

	"github.com/stagepass/stagepass-server/internal/metrics"
)

// ProvideMetrics provides the Prometheus registry and collectors.
func ProvideMetrics(i do.Injector) (*metrics.Metrics, error) {
	return metrics.New(), nil
}
