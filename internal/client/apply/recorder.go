package apply

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// ErrRecordingCanceled is returned by a Recorder when the user backs out
var ErrRecordingCanceled = errors.New("recording canceled")

// Recorder yields an audio payload
type Recorder interface {
	Record(ctx context.Context) ([]byte, error)
}

// FileRecorder reads a pre-recorded audio file. An empty Path means the user
// chose not to record.
type FileRecorder struct {
	Path string
}

// Record implements Recorder
func (r FileRecorder) Record(ctx context.Context) ([]byte, error) {
	if r.Path == "" {
		return nil, ErrRecordingCanceled
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(r.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio file: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("audio file %s is empty", r.Path)
	}

	return data, nil
}
