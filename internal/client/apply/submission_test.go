package apply

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type submitted struct {
	jobID int64
	audio []byte
	notes *string
}

func recordSubmits() (*[]submitted, SubmitFunc) {
	var got []submitted
	return &got, func(jobID int64, audio []byte, notes *string) {
		got = append(got, submitted{jobID: jobID, audio: audio, notes: notes})
	}
}

func TestSubmission_QuickApplyCarriesNothing(t *testing.T) {
	got, fn := recordSubmits()
	s := NewSubmission(7, fn)

	require.NoError(t, s.QuickApply())

	require.Len(t, *got, 1)
	assert.Equal(t, int64(7), (*got)[0].jobID)
	assert.Nil(t, (*got)[0].audio)
	assert.Nil(t, (*got)[0].notes)
	assert.Equal(t, ModeIdle, s.Mode())
}

func TestSubmission_TextBlockedWhenBlank(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		canSubmit bool
		wantNotes string
	}{
		{name: "empty", text: "", canSubmit: false},
		{name: "whitespace only", text: "  \n\t ", canSubmit: false},
		{name: "content is trimmed", text: "  I have 5 years picking grapes \n", canSubmit: true, wantNotes: "I have 5 years picking grapes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, fn := recordSubmits()
			s := NewSubmission(3, fn)
			require.NoError(t, s.StartText())
			require.NoError(t, s.SetText(tt.text))

			assert.Equal(t, tt.canSubmit, s.CanSubmitText())

			err := s.SubmitText()
			if !tt.canSubmit {
				assert.ErrorIs(t, err, ErrEmptyNotes)
				assert.Empty(t, *got)
				assert.Equal(t, ModeComposingText, s.Mode())
				return
			}

			require.NoError(t, err)
			require.Len(t, *got, 1)
			assert.Nil(t, (*got)[0].audio)
			assert.Equal(t, tt.wantNotes, *(*got)[0].notes)
			assert.Equal(t, ModeIdle, s.Mode())
			assert.Empty(t, s.Text())
		})
	}
}

func TestSubmission_OneModeAtATime(t *testing.T) {
	_, fn := recordSubmits()
	s := NewSubmission(1, fn)

	require.NoError(t, s.StartVoice())
	assert.ErrorIs(t, s.StartText(), ErrModeActive)
	assert.ErrorIs(t, s.QuickApply(), ErrModeActive)
	assert.ErrorIs(t, s.SetText("x"), ErrWrongMode)
	assert.ErrorIs(t, s.SubmitText(), ErrWrongMode)

	s.Cancel()
	require.NoError(t, s.StartText())
	assert.ErrorIs(t, s.StartVoice(), ErrModeActive)
	assert.ErrorIs(t, s.CompleteRecording([]byte("a")), ErrWrongMode)
}

func TestSubmission_CancelClearsText(t *testing.T) {
	_, fn := recordSubmits()
	s := NewSubmission(1, fn)

	require.NoError(t, s.StartText())
	require.NoError(t, s.SetText("draft"))
	s.Cancel()

	assert.Equal(t, ModeIdle, s.Mode())
	assert.Empty(t, s.Text())
	assert.False(t, s.CanSubmitText())
}

func TestSubmission_CompleteRecording(t *testing.T) {
	got, fn := recordSubmits()
	s := NewSubmission(9, fn)

	require.NoError(t, s.StartVoice())
	require.NoError(t, s.CompleteRecording([]byte("webm")))

	require.Len(t, *got, 1)
	assert.Equal(t, []byte("webm"), (*got)[0].audio)
	assert.Nil(t, (*got)[0].notes)
	assert.Equal(t, ModeIdle, s.Mode())
}

type fakeRecorder struct {
	audio []byte
	err   error
}

func (f fakeRecorder) Record(context.Context) ([]byte, error) { return f.audio, f.err }

func TestSubmission_Record(t *testing.T) {
	t.Run("success submits audio", func(t *testing.T) {
		got, fn := recordSubmits()
		s := NewSubmission(2, fn)

		require.NoError(t, s.Record(context.Background(), fakeRecorder{audio: []byte("a")}))
		require.Len(t, *got, 1)
		assert.Equal(t, []byte("a"), (*got)[0].audio)
	})

	t.Run("cancel returns to idle", func(t *testing.T) {
		got, fn := recordSubmits()
		s := NewSubmission(2, fn)

		require.NoError(t, s.Record(context.Background(), fakeRecorder{err: ErrRecordingCanceled}))
		assert.Empty(t, *got)
		assert.Equal(t, ModeIdle, s.Mode())
	})

	t.Run("failure returns to idle with error", func(t *testing.T) {
		got, fn := recordSubmits()
		s := NewSubmission(2, fn)

		err := s.Record(context.Background(), fakeRecorder{err: errors.New("mic unplugged")})
		require.Error(t, err)
		assert.Empty(t, *got)
		assert.Equal(t, ModeIdle, s.Mode())
	})
}

func TestFileRecorder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "voice.webm")
	require.NoError(t, os.WriteFile(path, []byte("audio"), 0o600))

	data, err := FileRecorder{Path: path}.Record(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("audio"), data)

	_, err = FileRecorder{}.Record(context.Background())
	assert.ErrorIs(t, err, ErrRecordingCanceled)

	_, err = FileRecorder{Path: filepath.Join(t.TempDir(), "missing.webm")}.Record(context.Background())
	assert.Error(t, err)
}

func TestModeString(t *testing.T) {
	assert.Equal(t, "idle", ModeIdle.String())
	assert.Equal(t, "recording", ModeRecordingVoice.String())
	assert.Equal(t, "composing", ModeComposingText.String())
}
