package security_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classistant/classistant/internal/security"
)

func TestValidateMediaURL(t *testing.T) {
	t.Parallel()

	v := security.NewMediaURL()

	t.Run("accepts public http and https", func(t *testing.T) {
		t.Parallel()
		for _, raw := range []string{
			"https://cdn.classistant.app/audio/section-1.mp3",
			"http://media.example.com/image.png",
			"HTTPS://cdn.example.com/a.mp3",
		} {
			assert.NoError(t, v.Validate(raw), raw)
		}
	})

	t.Run("rejects unsafe values", func(t *testing.T) {
		t.Parallel()
		tests := []struct {
			name string
			raw  string
		}{
			{"empty", ""},
			{"option-like", "--loop"},
			{"file scheme", "file:///etc/passwd"},
			{"ftp scheme", "ftp://example.com/a.mp3"},
			{"no host", "https:///a.mp3"},
			{"localhost", "http://localhost/a.mp3"},
			{"metadata host", "http://metadata.google.internal/token"},
			{"loopback ip", "http://127.0.0.1/a.mp3"},
			{"private ip", "http://192.168.1.5/a.mp3"},
			{"link local", "http://169.254.169.254/latest/meta-data"},
			{"unspecified", "http://0.0.0.0/a.mp3"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				t.Parallel()
				require.Error(t, v.Validate(tt.raw))
			})
		}
	})
}
