package summary_test

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classistant/classistant/internal/summary"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func proberWithStatus(status int, requests *[]string) *summary.ImageProber {
	client := &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		*requests = append(*requests, req.Method+" "+req.URL.String())
		return &http.Response{
			StatusCode: status,
			Body:       io.NopCloser(strings.NewReader("")),
		}, nil
	})}
	return summary.NewImageProber(client)
}

func TestImageProbeSucceedsOnOK(t *testing.T) {
	t.Parallel()

	var requests []string
	p := proberWithStatus(http.StatusOK, &requests)

	err := p.Probe(context.Background(), "https://cdn.example.com/cells.png")

	require.NoError(t, err)
	assert.Equal(t, []string{"HEAD https://cdn.example.com/cells.png"}, requests)
}

func TestImageProbeFailsOnErrorStatus(t *testing.T) {
	t.Parallel()

	var requests []string
	p := proberWithStatus(http.StatusNotFound, &requests)

	err := p.Probe(context.Background(), "https://cdn.example.com/missing.png")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestImageProbeRejectsUnsafeURLs(t *testing.T) {
	t.Parallel()

	var requests []string
	p := proberWithStatus(http.StatusOK, &requests)

	for _, raw := range []string{
		"",
		"--output=/tmp/x",
		"file:///etc/passwd",
		"http://localhost/img.png",
		"http://169.254.169.254/meta",
	} {
		err := p.Probe(context.Background(), raw)
		assert.Error(t, err, "url %q should be rejected", raw)
	}
	assert.Empty(t, requests, "rejected URLs must never be fetched")
}
