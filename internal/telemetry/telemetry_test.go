package telemetry

import (
	"context"
	"testing"

	"oneonone/agenda-service/internal/logging"

	"github.com/stretchr/testify/require"
)

func TestSetupWithoutEndpointIsNoop(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")

	shutdown := Setup(context.Background(), "agenda-service", logging.Discard())
	require.NotNil(t, shutdown)
	require.NoError(t, shutdown(context.Background()))
}
