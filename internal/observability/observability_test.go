package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classistant/classistant/internal/log"
)

func TestSetupDefaultEndpoint(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	shutdown, err := Setup(ctx, Config{ServiceName: "test-service"}, log.NewNop())

	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(ctx))
}

func TestSetupCollectorUnavailable(t *testing.T) {
	t.Parallel()

	// No collector listens here; setup must still hand back a working
	// shutdown instead of failing startup.
	cfg := Config{
		Endpoint:    "localhost:1",
		Environment: "test",
		ServiceName: "graceful-test",
	}

	ctx := context.Background()
	shutdown, err := Setup(ctx, cfg, log.NewNop())

	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(ctx))
}

func TestDefaultEndpointValue(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "localhost:4318", DefaultEndpoint)
}
