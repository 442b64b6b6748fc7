// Package apply drives how a worker applies to a job: by voice, by text
// note, or with a quick-apply carrying neither.
package apply

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrModeActive is returned when a mode is started while another is active
	ErrModeActive = errors.New("another application mode is active")
	// ErrWrongMode is returned when a trigger does not belong to the active mode
	ErrWrongMode = errors.New("trigger not valid in the current mode")
	// ErrEmptyNotes is returned when submitting a blank text note
	ErrEmptyNotes = errors.New("notes must not be empty")
)

// Mode is the active way of applying. Exactly one mode is active at a time.
type Mode int

const (
	ModeIdle Mode = iota
	ModeRecordingVoice
	ModeComposingText
)

func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModeRecordingVoice:
		return "recording"
	case ModeComposingText:
		return "composing"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// SubmitFunc receives a completed application. audio and notes are never
// both set; both nil is a quick-apply. It reports nothing back.
type SubmitFunc func(jobID int64, audio []byte, notes *string)

// Submission is the per-job application state machine
type Submission struct {
	jobID  int64
	mode   Mode
	text   string
	submit SubmitFunc
}

// NewSubmission returns an idle submission for jobID
func NewSubmission(jobID int64, submit SubmitFunc) *Submission {
	return &Submission{jobID: jobID, submit: submit}
}

// JobID returns the job being applied to
func (s *Submission) JobID() int64 { return s.jobID }

// Mode returns the active mode
func (s *Submission) Mode() Mode { return s.mode }

// Text returns the note being composed
func (s *Submission) Text() string { return s.text }

// StartVoice enters voice recording mode
func (s *Submission) StartVoice() error {
	if s.mode != ModeIdle {
		return ErrModeActive
	}
	s.mode = ModeRecordingVoice
	return nil
}

// StartText enters text composing mode
func (s *Submission) StartText() error {
	if s.mode != ModeIdle {
		return ErrModeActive
	}
	s.mode = ModeComposingText
	return nil
}

// Cancel returns to idle and drops any composed text
func (s *Submission) Cancel() {
	s.reset()
}

// CompleteRecording submits the recorded audio
func (s *Submission) CompleteRecording(audio []byte) error {
	if s.mode != ModeRecordingVoice {
		return ErrWrongMode
	}
	s.reset()
	s.submit(s.jobID, audio, nil)
	return nil
}

// SetText replaces the note being composed
func (s *Submission) SetText(text string) error {
	if s.mode != ModeComposingText {
		return ErrWrongMode
	}
	s.text = text
	return nil
}

// CanSubmitText reports whether the composed note has content
func (s *Submission) CanSubmitText() bool {
	return s.mode == ModeComposingText && strings.TrimSpace(s.text) != ""
}

// SubmitText submits the trimmed note
func (s *Submission) SubmitText() error {
	if s.mode != ModeComposingText {
		return ErrWrongMode
	}
	notes := strings.TrimSpace(s.text)
	if notes == "" {
		return ErrEmptyNotes
	}
	s.reset()
	s.submit(s.jobID, nil, &notes)
	return nil
}

// QuickApply submits without audio or notes
func (s *Submission) QuickApply() error {
	if s.mode != ModeIdle {
		return ErrModeActive
	}
	s.submit(s.jobID, nil, nil)
	return nil
}

func (s *Submission) reset() {
	s.mode = ModeIdle
	s.text = ""
}

// Record runs a full voice flow with rec: start, record, then submit.
// A canceled recording returns the submission to idle without error.
func (s *Submission) Record(ctx context.Context, rec Recorder) error {
	if err := s.StartVoice(); err != nil {
		return err
	}

	audio, err := rec.Record(ctx)
	if errors.Is(err, ErrRecordingCanceled) {
		s.Cancel()
		return nil
	}
	if err != nil {
		s.Cancel()
		return fmt.Errorf("failed to record audio: %w", err)
	}

	return s.CompleteRecording(audio)
}
