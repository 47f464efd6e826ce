package cannon

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/heliraid/heliraid/internal/cannon"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}
