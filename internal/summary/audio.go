package summary

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"sync"

	"github.com/classistant/classistant/internal/security"
)

// Handle is one live audio playback. Stop is idempotent; Done fires once,
// whether playback finished naturally or was stopped.
type Handle interface {
	// Stop terminates playback. Safe to call more than once.
	Stop()
	// Done receives the playback result: nil for natural completion, an
	// error for interrupted or failed playback.
	Done() <-chan error
}

// Driver starts audio playback for a URL.
type Driver interface {
	Play(ctx context.Context, audioURL string) (Handle, error)
}

// ExecDriver plays audio by spawning an external player process, e.g.
// afplay on macOS or mpg123 elsewhere. The URL is appended as the final
// argument, so it is validated first: generated content must not be able
// to smuggle options or non-http targets into the player invocation.
type ExecDriver struct {
	command []string
	urls    *security.MediaURL
	logger  *slog.Logger
}

// NewExecDriver creates a driver for the given player command line.
func NewExecDriver(command []string, logger *slog.Logger) (*ExecDriver, error) {
	if len(command) == 0 {
		return nil, fmt.Errorf("audio command is empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ExecDriver{command: command, urls: security.NewMediaURL(), logger: logger}, nil
}

// Play starts the player process for one URL.
func (d *ExecDriver) Play(ctx context.Context, audioURL string) (Handle, error) {
	if err := d.urls.Validate(audioURL); err != nil {
		return nil, fmt.Errorf("refusing audio URL: %w", err)
	}

	args := make([]string, 0, len(d.command))
	args = append(args, d.command[1:]...)
	args = append(args, audioURL)

	cmd := exec.CommandContext(ctx, d.command[0], args...)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start audio player %s: %w", d.command[0], err)
	}
	d.logger.Debug("audio playback started",
		"command", d.command[0],
		"pid", cmd.Process.Pid)

	h := &execHandle{cmd: cmd, done: make(chan error, 1)}
	go func() {
		h.done <- cmd.Wait()
		close(h.done)
	}()
	return h, nil
}

type execHandle struct {
	cmd  *exec.Cmd
	done chan error
	stop sync.Once
}

func (h *execHandle) Stop() {
	h.stop.Do(func() {
		if h.cmd.Process != nil {
			_ = h.cmd.Process.Kill()
		}
	})
}

func (h *execHandle) Done() <-chan error { return h.done }

// NopDriver discards playback requests. Its handles never complete on
// their own, so no auto-advance fires; Stop releases any waiter.
type NopDriver struct{}

// Play returns an inert handle.
func (NopDriver) Play(context.Context, string) (Handle, error) {
	return &nopHandle{done: make(chan error, 1)}, nil
}

type nopHandle struct {
	done chan error
	stop sync.Once
}

func (h *nopHandle) Stop() {
	h.stop.Do(func() { close(h.done) })
}

func (h *nopHandle) Done() <-chan error { return h.done }
