package review

import (
	"context"
	"log/slog"

	"github.com/cuongbtq/farmhand/internal/client/playback"
)

// Playing returns the URL of the recording currently playing, or ""
func (r *Review) Playing() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.playing
}

// TogglePlay stops url if it is playing, otherwise plays it in place of
// whatever was playing before.
func (r *Review) TogglePlay(ctx context.Context, url string) error {
	r.mu.Lock()
	prev := r.current
	r.current = nil
	r.playSeq++
	seq := r.playSeq

	if url != "" && r.playing == url {
		r.playing = ""
		r.mu.Unlock()
		if prev != nil {
			prev.Stop()
		}
		r.changed()
		return nil
	}

	r.playing = url
	r.mu.Unlock()
	if prev != nil {
		prev.Stop()
	}
	r.changed()

	pb, err := r.player.Play(ctx, url)
	if err != nil {
		r.playbackFailed(seq, url, err)
		return err
	}

	r.mu.Lock()
	if seq != r.playSeq {
		r.mu.Unlock()
		pb.Stop()
		return nil
	}
	r.current = pb
	r.mu.Unlock()

	go r.watch(seq, url, pb)

	return nil
}

// StopPlayback ends any playback and clears the indicator
func (r *Review) StopPlayback() {
	r.mu.Lock()
	prev := r.current
	r.current = nil
	r.playing = ""
	r.playSeq++
	r.mu.Unlock()

	if prev != nil {
		prev.Stop()
	}
	r.changed()
}

func (r *Review) watch(seq uint64, url string, pb playback.Playback) {
	err := <-pb.Done()
	if err != nil {
		r.playbackFailed(seq, url, err)
		return
	}

	r.mu.Lock()
	if seq != r.playSeq {
		r.mu.Unlock()
		return
	}
	r.playing = ""
	r.current = nil
	r.mu.Unlock()
	r.changed()
}

// playbackFailed clears the indicator if seq is still the active playback
// and alerts the reviewer.
func (r *Review) playbackFailed(seq uint64, url string, err error) {
	r.mu.Lock()
	if seq != r.playSeq {
		r.mu.Unlock()
		return
	}
	r.playing = ""
	r.current = nil
	r.mu.Unlock()

	r.logger.Error("Failed to play audio",
		slog.String("url", url),
		slog.Any("error", err),
	)
	r.alert(AlertPlaybackFailed)
	r.changed()
}
