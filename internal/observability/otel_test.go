package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/suPer8Hu/dating-platform/internal/logger"
)

func TestInit_DisabledIsNoop(t *testing.T) {
	shutdown, err := Init(context.Background(), logger.Nop(), Config{Enabled: false})
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}

func TestInit_StdoutExporter(t *testing.T) {
	shutdown, err := Init(context.Background(), logger.Nop(), Config{
		Enabled:     true,
		ServiceName: "dating-api-test",
		SampleRatio: 1,
	})
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}
