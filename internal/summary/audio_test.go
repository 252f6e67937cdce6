package summary_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classistant/classistant/internal/log"
	"github.com/classistant/classistant/internal/summary"
)

func TestNewExecDriverRequiresCommand(t *testing.T) {
	t.Parallel()

	_, err := summary.NewExecDriver(nil, log.NewNop())
	require.Error(t, err)
}

func TestExecDriverRejectsUnsafeURLs(t *testing.T) {
	t.Parallel()

	d, err := summary.NewExecDriver([]string{"true"}, log.NewNop())
	require.NoError(t, err)

	for _, raw := range []string{
		"",
		"--shuffle",
		"file:///etc/passwd",
		"http://localhost/a.mp3",
	} {
		_, err := d.Play(context.Background(), raw)
		assert.Error(t, err, raw)
	}
}

func TestExecDriverCompletionDelivers(t *testing.T) {
	t.Parallel()

	// "true" exits immediately, standing in for a finished playback.
	d, err := summary.NewExecDriver([]string{"true"}, log.NewNop())
	require.NoError(t, err)

	h, err := d.Play(context.Background(), "https://cdn.example/a.mp3")
	require.NoError(t, err)

	select {
	case playErr := <-h.Done():
		assert.NoError(t, playErr)
	case <-time.After(5 * time.Second):
		t.Fatal("playback completion never delivered")
	}
	h.Stop() // stopping after completion is safe
}
