package summary

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/classistant/classistant/internal/security"
)

// ImageProber checks that a section's illustration is actually fetchable
// before the UI reveals it. Generated image URLs pass the same validation
// as audio URLs first.
type ImageProber struct {
	client *http.Client
	urls   *security.MediaURL
}

// NewImageProber creates a prober. A nil client gets a default with a
// short timeout; probes are advisory and must not stall the UI for long.
func NewImageProber(client *http.Client) *ImageProber {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &ImageProber{client: client, urls: security.NewMediaURL()}
}

// Probe reports whether imageURL resolves to a fetchable resource.
func (p *ImageProber) Probe(ctx context.Context, imageURL string) error {
	if err := p.urls.Validate(imageURL); err != nil {
		return fmt.Errorf("refusing image URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, imageURL, nil)
	if err != nil {
		return fmt.Errorf("probe image: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("probe image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("image unavailable (status %d)", resp.StatusCode)
	}
	return nil
}
