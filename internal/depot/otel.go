package depot

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/heliraid/heliraid/internal/depot"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}
