// Package playback plays remote audio recordings through an external player.
package playback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"sync"
)

// DefaultCommand streams a URL without opening a window and exits at the end
var DefaultCommand = []string{"ffplay", "-nodisp", "-autoexit", "-loglevel", "quiet"}

// Playback is one running playback
type Playback interface {
	// Stop ends playback early. Done then yields nil.
	Stop()
	// Done yields once when playback ends: nil on completion or Stop, the
	// failure otherwise.
	Done() <-chan error
}

// Player starts playback of a URL
type Player interface {
	Play(ctx context.Context, url string) (Playback, error)
}

// CommandPlayer runs Command with the URL appended as the last argument
type CommandPlayer struct {
	Command []string
	logger  *slog.Logger
}

// NewCommandPlayer returns a player for command, or DefaultCommand when empty
func NewCommandPlayer(command []string, logger *slog.Logger) *CommandPlayer {
	if len(command) == 0 {
		command = DefaultCommand
	}
	return &CommandPlayer{Command: command, logger: logger}
}

// Play implements Player
func (p *CommandPlayer) Play(ctx context.Context, url string) (Playback, error) {
	if url == "" {
		return nil, errors.New("no audio url")
	}

	ctx, cancel := context.WithCancel(ctx)
	args := append(append([]string(nil), p.Command[1:]...), url)
	cmd := exec.CommandContext(ctx, p.Command[0], args...)

	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to start audio player: %w", err)
	}

	pb := &commandPlayback{cancel: cancel, done: make(chan error, 1)}

	go func() {
		err := cmd.Wait()
		if pb.wasStopped() {
			err = nil
		}
		if err != nil {
			p.logger.Warn("Audio player exited with error",
				slog.String("url", url),
				slog.Any("error", err),
			)
			err = fmt.Errorf("audio player failed: %w", err)
		}
		pb.done <- err
		close(pb.done)
		cancel()
	}()

	return pb, nil
}

type commandPlayback struct {
	cancel context.CancelFunc
	done   chan error

	mu      sync.Mutex
	stopped bool
}

func (c *commandPlayback) Stop() {
	c.mu.Lock()
	c.stopped = true
	c.mu.Unlock()
	c.cancel()
}

func (c *commandPlayback) wasStopped() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopped
}

func (c *commandPlayback) Done() <-chan error {
	return c.done
}
